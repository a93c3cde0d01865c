package ui

import (
	"unicode"

	"github.com/atomicstack/notemancy/internal/logging/events"
	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

func newQueryInput(blink bool) textinput.Model {
	input := textinput.New()
	input.Prompt = ""
	input.Placeholder = "type to search notes"
	input.CharLimit = 256
	if styles.Filter != nil {
		input.TextStyle = *styles.Filter
	}
	if styles.FilterPlaceholder != nil {
		input.PlaceholderStyle = *styles.FilterPlaceholder
	}
	if !blink {
		input.Cursor.SetMode(cursor.CursorStatic)
	}
	return input
}

func newFilterCursor(blink bool) cursor.Model {
	c := cursor.New()
	if blink {
		c.SetMode(cursor.CursorBlink)
	} else {
		c.SetMode(cursor.CursorStatic)
	}
	c.Focus()
	return c
}

// updateCursorModels forwards blink messages to the palette caret and the
// query input. Key presses are routed by handleKeyMsg instead.
func (m *Model) updateCursorModels(msg tea.Msg) tea.Cmd {
	if _, ok := msg.(tea.KeyMsg); ok {
		return nil
	}
	var cmds []tea.Cmd
	if m.state == StateCommandPalette {
		var cmd tea.Cmd
		m.filterCursor, cmd = m.filterCursor.Update(msg)
		cmds = append(cmds, cmd)
	}
	if m.state == StateSearch && m.inputMode == InputEditing {
		var cmd tea.Cmd
		m.query, cmd = m.query.Update(msg)
		cmds = append(cmds, cmd)
	}
	if len(cmds) == 0 {
		return nil
	}
	return tea.Batch(cmds...)
}

func (m *Model) handleKeyMsg(msg tea.Msg) tea.Cmd {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	switch key.String() {
	case "ctrl+c":
		m.quit()
		return nil
	case "ctrl+e":
		return m.openConfigEditor(false)
	case "ctrl+p":
		if m.state == StateSearch && m.inputMode == InputEditing {
			break
		}
		return m.openPalette()
	case "ctrl+s":
		switch m.state {
		case StatePreview, StateSearch, StateCommandPalette, StateIndexingVectors:
			m.startIndex()
			return nil
		}
	}
	switch m.state {
	case StateSearch:
		if m.inputMode == InputEditing {
			return m.handleSearchEditingKey(key)
		}
		return m.handleSearchNormalKey(key)
	case StateCommandPalette:
		return m.handlePaletteKey(key)
	}
	switch key.String() {
	case "esc", "q":
		m.quit()
	case "?":
		return m.showHelp()
	}
	return nil
}

func (m *Model) handleSearchNormalKey(key tea.KeyMsg) tea.Cmd {
	if handled, cmd := m.handleListKey(key.String()); handled {
		return cmd
	}
	switch key.String() {
	case "esc":
		m.setState(StatePreview)
	case "enter":
		return m.openSelectedInEditor()
	case "tab", "r":
		return m.toggleDetail()
	case "/":
		return m.setInputMode(InputEditing)
	case "v":
		return m.viewSelectedInPager()
	case "?":
		return m.showHelp()
	case "home":
		return m.moveCursorHome()
	case "end":
		return m.moveCursorEnd()
	case "ctrl+d":
		m.scrollPreview(previewScrollStep)
	case "ctrl+u":
		m.scrollPreview(-previewScrollStep)
	}
	return nil
}

func (m *Model) handleSearchEditingKey(key tea.KeyMsg) tea.Cmd {
	if handled, cmd := m.handleListKey(key.String()); handled {
		return cmd
	}
	switch key.String() {
	case "esc":
		return m.setInputMode(InputNormal)
	case "enter":
		cmd := m.setInputMode(InputNormal)
		return tea.Batch(cmd, m.runSearch())
	}
	before := m.query.Value()
	var cmd tea.Cmd
	m.query, cmd = m.query.Update(key)
	if m.query.Value() == before {
		return cmd
	}
	return tea.Batch(cmd, m.runSearch())
}

// handlePaletteText edits the palette filter. It reports whether the key
// was consumed.
func (m *Model) handlePaletteText(key tea.KeyMsg) bool {
	current := m.palette
	if current == nil {
		return false
	}
	changed := false
	switch key.String() {
	case "ctrl+u":
		if current.Filter == "" {
			return false
		}
		current.SetFilter("", 0)
		changed = true
	case "ctrl+w":
		changed = current.DeleteFilterWordBackward()
	case "left":
		return current.MoveFilterCursor(-1)
	case "right":
		return current.MoveFilterCursor(1)
	}
	if !changed {
		switch key.Type {
		case tea.KeyBackspace, tea.KeyCtrlH:
			changed = current.DeleteFilterRuneBackward()
		case tea.KeySpace:
			changed = current.InsertFilterText(" ")
		case tea.KeyRunes:
			if key.Alt || len(key.Runes) == 0 {
				return false
			}
			for _, r := range key.Runes {
				if unicode.IsControl(r) {
					return false
				}
			}
			changed = current.InsertFilterText(string(key.Runes))
		}
	}
	if !changed {
		return false
	}
	events.Command.Filter(current.Filter)
	m.syncViewport(current)
	return true
}

func (m *Model) filterPrompt() string {
	current := m.palette
	if current == nil {
		return ""
	}
	render := func(style *lipgloss.Style, value string) string {
		if style == nil || value == "" {
			return value
		}
		return style.Render(value)
	}
	if styles.Cursor != nil {
		m.filterCursor.Style = styles.Cursor.Copy()
	}
	if styles.Filter != nil {
		m.filterCursor.TextStyle = styles.Filter.Copy()
	} else {
		m.filterCursor.TextStyle = lipgloss.Style{}
	}
	prompt := "» "
	if styles.FilterPrompt != nil {
		prompt = styles.FilterPrompt.Render(prompt)
	}
	runes := []rune(current.Filter)
	if len(runes) == 0 {
		placeholder := []rune("(type to filter commands)")
		if styles.FilterPlaceholder != nil {
			m.filterCursor.TextStyle = styles.FilterPlaceholder.Copy()
		}
		caret := m.renderFilterCursor(string(placeholder[0]))
		return prompt + caret + render(styles.FilterPlaceholder, string(placeholder[1:]))
	}
	pos := current.FilterCursorPos()
	before := render(styles.Filter, string(runes[:pos]))
	caretRune := " "
	after := ""
	if pos < len(runes) {
		caretRune = string(runes[pos])
		after = render(styles.Filter, string(runes[pos+1:]))
	}
	return prompt + before + m.renderFilterCursor(caretRune) + after
}

func (m *Model) renderFilterCursor(char string) string {
	if char == "" {
		char = " "
	}
	m.filterCursor.SetChar(char)
	base := m.filterCursor.TextStyle.Copy().Inline(true)
	if m.filterCursor.Blink {
		return base.Render(char)
	}
	if styles.Cursor != nil {
		return base.Inherit(styles.Cursor.Copy().Inline(true)).Blink(false).Render(char)
	}
	return base.Reverse(true).Render(char)
}
