package ui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/atomicstack/notemancy/internal/ai"
	"github.com/atomicstack/notemancy/internal/logging"
	"github.com/atomicstack/notemancy/internal/notes"
	"github.com/atomicstack/notemancy/internal/search"
	"github.com/atomicstack/notemancy/internal/task"
	tea "github.com/charmbracelet/bubbletea"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "notemancy-ui-test")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logging.Configure(filepath.Join(dir, "test.log"))
	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

type fakeBackend struct {
	scan      notes.ScanResult
	scanErr   error
	scanPanic bool

	indexCalls int
	indexFiles []notes.ScannedFile

	queries   []string
	searchFn  func(query string) []search.Result
	searchErr error

	vectorLines []string
	vectorErr   error
	vectorFiles []notes.ScannedFile
	// vectorGate, when set, holds the worker after its progress lines until
	// the test closes it. vectorSent is closed once the lines are sent.
	vectorGate chan struct{}
	vectorSent chan struct{}

	similarCalls []string
	similar      []ai.Match
	similarErr   error

	configPath string
	configErr  error
}

func (b *fakeBackend) Scan(ctx context.Context) (notes.ScanResult, error) {
	if b.scanPanic {
		panic("scanner exploded")
	}
	return b.scan, b.scanErr
}

func (b *fakeBackend) BuildIndex(ctx context.Context, files []notes.ScannedFile) error {
	b.indexCalls++
	b.indexFiles = files
	return nil
}

func (b *fakeBackend) Search(query string, limit int) ([]search.Result, error) {
	b.queries = append(b.queries, query)
	if b.searchErr != nil {
		return nil, b.searchErr
	}
	if b.searchFn == nil {
		return nil, nil
	}
	return b.searchFn(query), nil
}

func (b *fakeBackend) IndexVectors(ctx context.Context, files []notes.ScannedFile, progress func(string)) error {
	b.vectorFiles = files
	for _, line := range b.vectorLines {
		progress(line)
	}
	if b.vectorSent != nil {
		close(b.vectorSent)
	}
	if b.vectorGate != nil {
		select {
		case <-b.vectorGate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return b.vectorErr
}

func (b *fakeBackend) FindSimilar(ctx context.Context, path string, limit int) ([]ai.Match, error) {
	b.similarCalls = append(b.similarCalls, path)
	if b.similarErr != nil {
		return nil, b.similarErr
	}
	return b.similar, nil
}

func (b *fakeBackend) ConfigPath() (string, error) {
	if b.configErr != nil {
		return "", b.configErr
	}
	if b.configPath == "" {
		return "", errors.New("no config path")
	}
	return b.configPath, nil
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type execRecorder struct {
	args [][]string
	err  error
}

func (r *execRecorder) Exec(cmd *exec.Cmd, fn tea.ExecCallback) tea.Cmd {
	r.args = append(r.args, cmd.Args)
	err := r.err
	return func() tea.Msg { return fn(err) }
}

type pagerRecorder struct {
	titles []string
	texts  []string
}

func (r *pagerRecorder) Pager(title string, load func() (string, error)) tea.Cmd {
	return func() tea.Msg {
		text, err := load()
		r.titles = append(r.titles, title)
		r.texts = append(r.texts, text)
		return pagerFinishedMsg{title: title, err: err}
	}
}

type testEnv struct {
	backend *fakeBackend
	clock   *fakeClock
	exec    *execRecorder
	pager   *pagerRecorder
	harness *Harness
}

func (e *testEnv) model() *Model { return e.harness.Model() }

// newTestEnv starts a model driven by the inline runner. Nothing ticks
// unless the test calls harness.Tick.
func newTestEnv(t *testing.T, backend *fakeBackend) *testEnv {
	t.Helper()
	return newTestEnvWithRunner(t, backend, task.Inline)
}

func newTestEnvWithRunner(t *testing.T, backend *fakeBackend, runner task.Runner) *testEnv {
	t.Helper()
	origRead := readNoteFn
	readNoteFn = func(path string) ([]byte, error) {
		return []byte("# " + filepath.Base(path) + "\n\nbody of " + path), nil
	}
	origEditor := editorCommandFn
	editorCommandFn = func(path string) (*exec.Cmd, error) {
		return exec.Command("editor", path), nil
	}
	t.Cleanup(func() {
		readNoteFn = origRead
		editorCommandFn = origEditor
	})
	env := &testEnv{
		backend: backend,
		clock:   &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)},
		exec:    &execRecorder{},
		pager:   &pagerRecorder{},
	}
	opts := Options{
		Width:         120,
		Height:        30,
		MarkdownStyle: "notty",
		Runner:        runner,
		Now:           env.clock.Now,
		Exec:          env.exec.Exec,
		Pager:         env.pager.Pager,
	}
	env.harness = NewHarness(NewModel(backend, opts))
	t.Cleanup(env.harness.Model().Shutdown)
	return env
}

// started runs Init and the first tick so the scan has been drained.
func started(t *testing.T, backend *fakeBackend) *testEnv {
	t.Helper()
	env := newTestEnv(t, backend)
	env.harness.Init()
	env.harness.Tick()
	return env
}

// searching moves a started model into Search with an empty query.
func searching(t *testing.T, backend *fakeBackend) *testEnv {
	t.Helper()
	env := started(t, backend)
	env.harness.Send(key(tea.KeyCtrlS))
	env.harness.Tick()
	if got := env.model().State(); got != StateSearch {
		t.Fatalf("expected search state, got %s", got)
	}
	return env
}

func key(t tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: t}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func typeText(h *Harness, text string) {
	for _, r := range text {
		h.Send(runes(string(r)))
	}
}

func results(paths ...string) []search.Result {
	out := make([]search.Result, 0, len(paths))
	for _, p := range paths {
		out = append(out, search.Result{Path: p, Title: filepath.Base(p)})
	}
	return out
}
