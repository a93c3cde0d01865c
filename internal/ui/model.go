package ui

import (
	"context"
	"os/exec"
	"reflect"
	"time"

	"github.com/atomicstack/notemancy/internal/ai"
	"github.com/atomicstack/notemancy/internal/notes"
	"github.com/atomicstack/notemancy/internal/search"
	"github.com/atomicstack/notemancy/internal/task"
	"github.com/atomicstack/notemancy/internal/theme"
	"github.com/atomicstack/notemancy/internal/ui/command"
	uistate "github.com/atomicstack/notemancy/internal/ui/state"
	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type level = uistate.Level

const (
	defaultTickInterval = 100 * time.Millisecond
	defaultSearchLimit  = 20
	defaultRelatedLimit = 10
	vectorGracePeriod   = 2 * time.Second
)

var styles = theme.Default()

var spinnerFrames = spinner.MiniDot.Frames

type msgHandler func(tea.Msg) tea.Cmd

// Backend is everything the model needs from the rest of the program. Calls
// other than Search run on worker goroutines.
type Backend interface {
	Scan(ctx context.Context) (notes.ScanResult, error)
	BuildIndex(ctx context.Context, files []notes.ScannedFile) error
	Search(query string, limit int) ([]search.Result, error)
	IndexVectors(ctx context.Context, files []notes.ScannedFile, progress func(string)) error
	FindSimilar(ctx context.Context, path string, limit int) ([]ai.Match, error)
	ConfigPath() (string, error)
}

// ExecFunc hands a process to the terminal, e.g. tea.ExecProcess.
type ExecFunc func(cmd *exec.Cmd, fn tea.ExecCallback) tea.Cmd

// PagerFunc shows the text produced by load in a full-screen pager.
type PagerFunc func(title string, load func() (string, error)) tea.Cmd

// Options configures the model. Zero values pick the defaults, except
// TickInterval where zero disables the self-scheduling tick.
type Options struct {
	Width         int
	Height        int
	ShowFooter    bool
	TickInterval  time.Duration
	SearchLimit   int
	RelatedLimit  int
	MarkdownStyle string
	BlinkCursor   bool
	Runner        task.Runner
	Now           func() time.Time
	Exec          ExecFunc
	Pager         PagerFunc
}

// DefaultOptions returns the options used by the real program.
func DefaultOptions() Options {
	return Options{
		TickInterval:  defaultTickInterval,
		SearchLimit:   defaultSearchLimit,
		RelatedLimit:  defaultRelatedLimit,
		MarkdownStyle: "dark",
		BlinkCursor:   true,
	}
}

// Model implements the Bubble Tea model for the notes browser.
type Model struct {
	opts    Options
	backend Backend
	tasks   *task.Orchestrator
	bus     *command.Bus

	state      AppState
	inputMode  InputMode
	detailMode DetailViewMode
	running    bool

	scanHandle    *task.Handle[scanOutcome]
	indexHandle   *task.Handle[struct{}]
	vectorHandle  *task.Handle[string]
	relatedHandle *task.Handle[relatedOutcome]

	scanResult *notes.ScanResult

	query   textinput.Model
	results *level
	hits    []search.Result

	palette      *level
	paletteItems []command.Item
	filterCursor cursor.Model

	debounce     uistate.Debounce
	relatedFiles []search.Result
	relatedErr   string

	vectorStatus string
	vectorDoneAt time.Time

	preview    *previewData
	previewSeq int

	spinnerFrame int
	errMsg       string
	infoMsg      string
	infoExpire   time.Time

	width       int
	height      int
	fixedWidth  bool
	fixedHeight bool

	handlers map[reflect.Type]msgHandler
}

// NewModel builds the model in the Starting state. Init starts the scan.
func NewModel(backend Backend, opts Options) *Model {
	if opts.SearchLimit <= 0 {
		opts.SearchLimit = defaultSearchLimit
	}
	if opts.RelatedLimit <= 0 {
		opts.RelatedLimit = defaultRelatedLimit
	}
	if opts.MarkdownStyle == "" {
		opts.MarkdownStyle = "dark"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Exec == nil {
		opts.Exec = tea.ExecProcess
	}
	if opts.Pager == nil {
		opts.Pager = ovPager
	}
	m := &Model{
		opts:    opts,
		backend: backend,
		tasks:   task.NewOrchestrator(task.WithRunner(opts.Runner)),
		bus:     command.New(),
		state:   StateStarting,
		running: true,
		results: uistate.NewLevel("results", "Results", nil),
	}
	if opts.Width > 0 {
		m.width = opts.Width
		m.fixedWidth = true
	}
	if opts.Height > 0 {
		m.height = opts.Height
		m.fixedHeight = true
	}
	m.query = newQueryInput(opts.BlinkCursor)
	m.filterCursor = newFilterCursor(opts.BlinkCursor)
	m.registerHandlers()
	return m
}

// Init is part of the tea.Model interface.
func (m *Model) Init() tea.Cmd {
	m.startScan()
	return m.scheduleTick()
}

// Update responds to Bubble Tea messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmds := make([]tea.Cmd, 0, 4)
	if cmd := m.updateCursorModels(msg); cmd != nil {
		cmds = append(cmds, cmd)
	}
	if handler := m.handlerFor(msg); handler != nil {
		if cmd := handler(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return m, m.finishUpdate(cmds)
}

func (m *Model) registerHandlers() {
	m.handlers = map[reflect.Type]msgHandler{
		reflect.TypeOf(tea.KeyMsg{}):        m.handleKeyMsg,
		reflect.TypeOf(tea.WindowSizeMsg{}): m.handleWindowSizeMsg,
		reflect.TypeOf(tickMsg{}):           m.handleTickMsg,
		reflect.TypeOf(command.Invoked{}):   m.handleCommandInvokedMsg,
		reflect.TypeOf(previewLoadedMsg{}):  m.handlePreviewLoadedMsg,
		reflect.TypeOf(editorFinishedMsg{}): m.handleEditorFinishedMsg,
		reflect.TypeOf(pagerFinishedMsg{}):  m.handlePagerFinishedMsg,
	}
}

func (m *Model) handlerFor(msg tea.Msg) msgHandler {
	if msg == nil || m.handlers == nil {
		return nil
	}
	t := reflect.TypeOf(msg)
	if handler, ok := m.handlers[t]; ok {
		return handler
	}
	if t.Kind() == reflect.Ptr {
		if handler, ok := m.handlers[t.Elem()]; ok {
			return handler
		}
	}
	return nil
}

func (m *Model) finishUpdate(cmds []tea.Cmd) tea.Cmd {
	if !m.running {
		m.tasks.Shutdown()
		return tea.Quit
	}
	if len(cmds) == 0 {
		return nil
	}
	return tea.Batch(cmds...)
}

// Shutdown cancels outstanding workers and waits for them to return, so
// collaborators they use can be closed afterwards.
func (m *Model) Shutdown() {
	m.tasks.Shutdown()
	m.tasks.Wait()
}

// Running reports whether the control loop should keep going.
func (m *Model) Running() bool {
	return m.running
}

// State returns the active application state.
func (m *Model) State() AppState {
	return m.state
}

func (m *Model) quit() {
	m.running = false
}

type tickMsg struct{}

func (m *Model) scheduleTick() tea.Cmd {
	if m.opts.TickInterval <= 0 || !m.running {
		return nil
	}
	return tea.Tick(m.opts.TickInterval, func(time.Time) tea.Msg { return tickMsg{} })
}

// handleTickMsg runs one control loop iteration: drain workers, advance the
// spinner, finish the vector grace period and run the related-files policy.
func (m *Model) handleTickMsg(msg tea.Msg) tea.Cmd {
	if _, ok := msg.(tickMsg); !ok {
		return nil
	}
	cmd := m.drainTasks()
	m.spinnerFrame = (m.spinnerFrame + 1) % len(spinnerFrames)
	m.finishVectorGrace()
	m.pollRelated()
	return tea.Batch(cmd, m.scheduleTick())
}
