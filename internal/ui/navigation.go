package ui

import (
	"strings"

	"github.com/atomicstack/notemancy/internal/logging"
	"github.com/atomicstack/notemancy/internal/logging/events"
	"github.com/atomicstack/notemancy/internal/notes"
	uistate "github.com/atomicstack/notemancy/internal/ui/state"
	tea "github.com/charmbracelet/bubbletea"
)

// activeList is the list the cursor keys drive in the current state.
func (m *Model) activeList() *level {
	switch m.state {
	case StateSearch:
		return m.results
	case StateCommandPalette:
		return m.palette
	default:
		return nil
	}
}

// moveCursor applies move to the active list and reacts to a selection
// change in the result list.
func (m *Model) moveCursor(move func(*level) bool) tea.Cmd {
	current := m.activeList()
	if current == nil {
		return nil
	}
	moved := move(current)
	m.syncViewport(current)
	if !moved {
		return nil
	}
	events.UI.Cursor(current.ID, current.Cursor)
	if current == m.results {
		return m.selectionChanged()
	}
	return nil
}

func (m *Model) moveCursorBy(delta int) tea.Cmd {
	return m.moveCursor(func(l *level) bool { return l.Move(delta) })
}

func (m *Model) movePage(direction int) tea.Cmd {
	rows := m.maxVisibleItems()
	return m.moveCursor(func(l *level) bool { return l.Move(direction * l.PageStep(rows)) })
}

func (m *Model) moveCursorHome() tea.Cmd {
	return m.moveCursor(func(l *level) bool { return l.Select(0) })
}

func (m *Model) moveCursorEnd() tea.Cmd {
	return m.moveCursor(func(l *level) bool { return l.Select(len(l.Items) - 1) })
}

// handleListKey handles the cursor keys shared by every list.
func (m *Model) handleListKey(key string) (bool, tea.Cmd) {
	switch key {
	case "up":
		return true, m.moveCursorBy(-1)
	case "down":
		return true, m.moveCursorBy(1)
	case "pgup":
		return true, m.movePage(-1)
	case "pgdown":
		return true, m.movePage(1)
	}
	return false, nil
}

func (m *Model) syncViewport(l *level) {
	if l == nil {
		return
	}
	l.Reveal(m.maxVisibleItems())
}

// selectionChanged refreshes whichever detail panel is visible.
func (m *Model) selectionChanged() tea.Cmd {
	if m.detailMode == DetailRelated {
		m.pollRelated()
		return nil
	}
	return m.ensurePreview()
}

// runSearch queries the engine on the update loop. An empty query clears
// the results without touching the engine; a failed query clears them and
// keeps the error visible.
func (m *Model) runSearch() tea.Cmd {
	query := strings.TrimSpace(m.query.Value())
	if query == "" {
		m.clearResults()
		m.errMsg = ""
		events.Search.Cleared()
		return nil
	}
	hits, err := m.backend.Search(query, m.opts.SearchLimit)
	if err != nil {
		logging.Error(err)
		m.clearResults()
		m.errMsg = err.Error()
		return nil
	}
	m.errMsg = ""
	m.hits = hits
	items := make([]uistate.Item, 0, len(hits))
	for _, hit := range hits {
		items = append(items, uistate.Item{
			ID:          hit.Path,
			Label:       notes.DisplayTitle(hit.Title, hit.Path),
			Description: hit.Snippet,
		})
	}
	m.results.UpdateItems(items)
	m.results.Cursor = 0
	m.results.ViewportOffset = 0
	m.syncViewport(m.results)
	events.Search.Query(query, len(hits))
	return m.selectionChanged()
}

func (m *Model) clearResults() {
	m.hits = nil
	m.results.UpdateItems(nil)
	m.results.Cursor = 0
	m.results.ViewportOffset = 0
	m.preview = nil
}

func (m *Model) handleWindowSizeMsg(msg tea.Msg) tea.Cmd {
	resize, ok := msg.(tea.WindowSizeMsg)
	if !ok {
		return nil
	}
	if !m.fixedWidth {
		m.width = resize.Width
	}
	if !m.fixedHeight {
		m.height = resize.Height
	}
	m.syncViewport(m.activeList())
	return nil
}

// maxVisibleItems is the number of list rows that fit between the header
// and the bottom bar.
func (m *Model) maxVisibleItems() int {
	if m.height <= 0 {
		return -1
	}
	used := 4 // header, blank, status, prompt or help bar
	if m.opts.ShowFooter {
		used++
	}
	remain := m.height - used
	if remain < 1 {
		return 1
	}
	return remain
}
