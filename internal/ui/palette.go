package ui

import (
	"fmt"

	"github.com/atomicstack/notemancy/internal/logging"
	"github.com/atomicstack/notemancy/internal/ui/command"
	uistate "github.com/atomicstack/notemancy/internal/ui/state"
	tea "github.com/charmbracelet/bubbletea"
)

// openPalette builds a fresh palette list. The items live only while the
// palette is open.
func (m *Model) openPalette() tea.Cmd {
	if m.state == StateCommandPalette {
		return nil
	}
	m.paletteItems = command.Palette()
	items := make([]uistate.Item, 0, len(m.paletteItems))
	for _, entry := range m.paletteItems {
		items = append(items, uistate.Item{
			ID:          entry.ID.String(),
			Label:       entry.Name,
			Description: entry.Description,
		})
	}
	m.setState(StateCommandPalette)
	m.palette = uistate.NewLevel("palette", "Command Palette", items)
	m.syncViewport(m.palette)
	return m.filterCursor.Focus()
}

func (m *Model) closePalette() {
	m.palette = nil
	m.paletteItems = nil
	m.filterCursor.Blur()
}

func (m *Model) handlePaletteKey(key tea.KeyMsg) tea.Cmd {
	if handled, cmd := m.handleListKey(key.String()); handled {
		return cmd
	}
	switch key.String() {
	case "esc":
		m.setState(StatePreview)
		return nil
	case "enter":
		return m.dispatchSelectedCommand()
	case "home":
		return m.moveCursorHome()
	case "end":
		return m.moveCursorEnd()
	}
	m.handlePaletteText(key)
	return nil
}

// dispatchSelectedCommand copies the highlighted command out, discards the
// palette and hands the command to the bus.
func (m *Model) dispatchSelectedCommand() tea.Cmd {
	item, ok := m.palette.Current()
	if !ok {
		return nil
	}
	id, ok := m.paletteID(item.ID)
	if !ok {
		return nil
	}
	m.setState(StatePreview)
	return m.bus.Dispatch(id)
}

func (m *Model) paletteID(key string) (command.ID, bool) {
	for _, entry := range m.paletteItems {
		if entry.ID.String() == key {
			return entry.ID, true
		}
	}
	return 0, false
}

func (m *Model) handleCommandInvokedMsg(msg tea.Msg) tea.Cmd {
	invoked, ok := msg.(command.Invoked)
	if !ok {
		return nil
	}
	return m.runCommand(invoked.ID)
}

func (m *Model) runCommand(id command.ID) tea.Cmd {
	switch id {
	case command.Search:
		m.startIndex()
	case command.IndexVectors:
		m.startVectorIndex()
	case command.OpenConfig:
		m.setState(StatePreview)
		return m.openConfigEditor(true)
	case command.Quit:
		m.quit()
	default:
		err := fmt.Errorf("unknown command %s", id)
		logging.Error(err)
		m.errMsg = err.Error()
	}
	return nil
}
