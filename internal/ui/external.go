package ui

import (
	"fmt"

	"github.com/atomicstack/notemancy/internal/editor"
	"github.com/atomicstack/notemancy/internal/logging"
	"github.com/atomicstack/notemancy/internal/logging/events"
	tea "github.com/charmbracelet/bubbletea"
)

var editorCommandFn = editor.Command

type editorFinishedMsg struct {
	path string
	// toPreview is set for notes opened from the result list; the config
	// editor leaves the state alone.
	toPreview bool
	err       error
}

// openSelectedInEditor suspends the UI and edits the highlighted note.
func (m *Model) openSelectedInEditor() tea.Cmd {
	path := m.selectedPath()
	if path == "" {
		return nil
	}
	return m.runEditor(path, true)
}

// openConfigEditor edits the settings file. toPreview moves to the preview
// screen once the editor exits.
func (m *Model) openConfigEditor(toPreview bool) tea.Cmd {
	path, err := m.backend.ConfigPath()
	if err != nil {
		err = fmt.Errorf("config path: %w", err)
		logging.Error(err)
		events.Action.Error(err)
		m.errMsg = err.Error()
		return nil
	}
	return m.runEditor(path, toPreview)
}

func (m *Model) runEditor(path string, toPreview bool) tea.Cmd {
	cmd, err := editorCommandFn(path)
	if err != nil {
		logging.Error(err)
		events.Action.Error(err)
		m.errMsg = err.Error()
		return nil
	}
	return m.opts.Exec(cmd, func(err error) tea.Msg {
		return editorFinishedMsg{path: path, toPreview: toPreview, err: err}
	})
}

func (m *Model) handleEditorFinishedMsg(msg tea.Msg) tea.Cmd {
	done, ok := msg.(editorFinishedMsg)
	if !ok {
		return nil
	}
	if done.err != nil {
		err := fmt.Errorf("editor %s: %w", done.path, done.err)
		logging.Error(err)
		events.Action.Error(err)
		m.errMsg = err.Error()
	} else {
		events.Action.Success("edited " + done.path)
		m.setInfo("Edited " + done.path)
	}
	if done.toPreview {
		m.setState(StatePreview)
	}
	return nil
}
