package ui

import (
	"errors"
	"io"
	"strings"

	"github.com/atomicstack/notemancy/internal/format/markdown"
	"github.com/atomicstack/notemancy/internal/logging"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/noborus/ov/oviewer"
)

var errNoSelection = errors.New("no note selected")

type pagerFinishedMsg struct {
	title string
	err   error
}

// ovCommand runs the ov pager as a tea.ExecCommand so Bubble Tea releases
// and restores the terminal around it. ov opens the tty itself, so the
// stdio setters are no-ops.
type ovCommand struct {
	load func() (string, error)
}

func (c *ovCommand) Run() error {
	text, err := c.load()
	if err != nil {
		return err
	}
	root, err := oviewer.NewRoot(strings.NewReader(text))
	if err != nil {
		return err
	}
	config := oviewer.NewConfig()
	config.IsWriteOnExit = false
	config.IsWriteOriginal = false
	root.SetConfig(config)
	return root.Run()
}

func (c *ovCommand) SetStdin(io.Reader)  {}
func (c *ovCommand) SetStdout(io.Writer) {}
func (c *ovCommand) SetStderr(io.Writer) {}

func ovPager(title string, load func() (string, error)) tea.Cmd {
	return tea.Exec(&ovCommand{load: load}, func(err error) tea.Msg {
		return pagerFinishedMsg{title: title, err: err}
	})
}

func (m *Model) handlePagerFinishedMsg(msg tea.Msg) tea.Cmd {
	done, ok := msg.(pagerFinishedMsg)
	if !ok {
		return nil
	}
	if done.err != nil {
		logging.Errorf("pager %s: %v", done.title, done.err)
		m.errMsg = done.err.Error()
	}
	return nil
}

// viewSelectedInPager renders the highlighted note at terminal width and
// pages it.
func (m *Model) viewSelectedInPager() tea.Cmd {
	path := m.selectedPath()
	if path == "" {
		m.errMsg = errNoSelection.Error()
		return nil
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	style := m.opts.MarkdownStyle
	return m.opts.Pager(path, func() (string, error) {
		data, err := readNoteFn(path)
		if err != nil {
			return "", err
		}
		return markdown.Render(string(data), width, style), nil
	})
}

func (m *Model) showHelp() tea.Cmd {
	return m.opts.Pager("help", func() (string, error) {
		return helpText, nil
	})
}

const helpText = `notemancy keys

Everywhere
  ctrl+c        quit
  ctrl+e        edit the configuration file
  ctrl+p        command palette (not while typing a query)
  ctrl+s        rebuild the search index and start searching

Preview screen
  esc, q        quit
  ?             this help

Search, typing
  esc           stop typing
  enter         stop typing and run the query again
  up, down      move through results

Search, browsing
  /             type a query
  up, down      move through results
  pgup, pgdown  move a page
  home, end     first or last result
  tab, r        toggle preview and related files
  enter         open the note in $VISUAL or $EDITOR
  v             read the note in the pager
  ctrl+d        scroll the preview down
  ctrl+u        scroll the preview up
  esc           back to the preview screen

Command palette
  type          filter commands
  up, down      choose
  enter         run
  esc           close
`
