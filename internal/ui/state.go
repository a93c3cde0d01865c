package ui

import (
	"fmt"

	"github.com/atomicstack/notemancy/internal/logging/events"
	tea "github.com/charmbracelet/bubbletea"
)

// AppState is the screen the application is on. Exactly one is active.
type AppState int

const (
	StateStarting AppState = iota
	StateScanning
	StatePreview
	StateIndexing
	StateSearch
	StateCommandPalette
	StateIndexingVectors
)

func (s AppState) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateScanning:
		return "scanning"
	case StatePreview:
		return "preview"
	case StateIndexing:
		return "indexing"
	case StateSearch:
		return "search"
	case StateCommandPalette:
		return "command palette"
	case StateIndexingVectors:
		return "indexing vectors"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// InputMode applies to the Search state only.
type InputMode int

const (
	InputNormal InputMode = iota
	InputEditing
)

func (m InputMode) String() string {
	if m == InputEditing {
		return "EDITING"
	}
	return "NORMAL"
}

// DetailViewMode selects the right-hand panel in Search.
type DetailViewMode int

const (
	DetailPreview DetailViewMode = iota
	DetailRelated
)

func (d DetailViewMode) String() string {
	if d == DetailRelated {
		return "RELATED FILES"
	}
	return "PREVIEW"
}

// setState switches screens. Leaving Search cancels any related lookup;
// leaving the palette discards it.
func (m *Model) setState(to AppState) {
	from := m.state
	if from == to {
		return
	}
	switch from {
	case StateSearch:
		m.cancelRelated()
		m.query.Blur()
	case StateCommandPalette:
		m.closePalette()
	}
	m.state = to
	events.UI.State(from.String(), to.String())
}

// enterSearch shows an empty result list with the query focused.
func (m *Model) enterSearch() tea.Cmd {
	m.cancelRelated()
	m.debounce.Reset()
	m.relatedFiles = nil
	m.relatedErr = ""
	m.clearResults()
	m.detailMode = DetailPreview
	m.query.SetValue("")
	m.errMsg = ""
	m.setState(StateSearch)
	return m.setInputMode(InputEditing)
}

func (m *Model) setInputMode(mode InputMode) tea.Cmd {
	m.inputMode = mode
	events.UI.InputMode(mode.String())
	if mode == InputEditing {
		return m.query.Focus()
	}
	m.query.Blur()
	return nil
}
