package ui

import (
	"github.com/atomicstack/notemancy/internal/logging/events"
	tea "github.com/charmbracelet/bubbletea"
)

// selectedPath is the path of the highlighted search result, or "".
func (m *Model) selectedPath() string {
	item, ok := m.results.Current()
	if !ok {
		return ""
	}
	return item.ID
}

// pollRelated starts a related-files lookup when the related panel is shown,
// nothing is in flight and the selection moved since the last lookup.
func (m *Model) pollRelated() {
	if m.state != StateSearch || m.detailMode != DetailRelated {
		return
	}
	path := m.selectedPath()
	if !m.debounce.Poll(path) {
		return
	}
	m.relatedFiles = nil
	m.relatedErr = ""
	m.spawnRelated(path)
}

// toggleDetail flips the right-hand panel between the note preview and its
// related files.
func (m *Model) toggleDetail() tea.Cmd {
	if m.detailMode == DetailRelated {
		m.detailMode = DetailPreview
		events.UI.DetailView(m.detailMode.String())
		return m.ensurePreview()
	}
	m.detailMode = DetailRelated
	events.UI.DetailView(m.detailMode.String())
	if !m.debounce.Matches(m.selectedPath()) {
		m.relatedFiles = nil
		m.relatedErr = ""
		if !m.debounce.Loading() {
			m.debounce.Reset()
		}
	}
	m.pollRelated()
	return nil
}

// relatedPending reports whether the panel is waiting on a lookup for the
// current selection.
func (m *Model) relatedPending() bool {
	path := m.selectedPath()
	if path == "" {
		return false
	}
	return m.debounce.Loading() || !m.debounce.Matches(path)
}
