package ui

import (
	"os"
	"strings"

	"github.com/atomicstack/notemancy/internal/format/markdown"
	"github.com/atomicstack/notemancy/internal/search"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

const previewScrollStep = 5

type previewData struct {
	path         string
	label        string
	query        string
	rendered     []string
	lines        []string
	err          string
	loading      bool
	seq          int
	scrollOffset int
}

type previewLoadedMsg struct {
	path  string
	seq   int
	lines []string
	err   error
}

var readNoteFn = os.ReadFile

// ensurePreview loads the highlighted note into the preview panel unless it
// is already showing. A changed query only re-marks the matches.
func (m *Model) ensurePreview() tea.Cmd {
	path := m.selectedPath()
	if path == "" {
		m.preview = nil
		return nil
	}
	query := strings.TrimSpace(m.query.Value())
	if m.preview != nil && m.preview.path == path {
		if m.preview.query != query {
			m.preview.query = query
			if !m.preview.loading {
				m.preview.lines = highlightMatches(m.preview.rendered, query)
			}
		}
		return nil
	}
	label := path
	if item, ok := m.results.Current(); ok && item.Label != "" {
		label = item.Label
	}
	m.previewSeq++
	seq := m.previewSeq
	m.preview = &previewData{path: path, label: label, query: query, loading: true, seq: seq}
	width := m.previewPanelWidth() - 2
	if width <= 0 {
		width = 80
	}
	style := m.opts.MarkdownStyle
	return func() tea.Msg {
		data, err := readNoteFn(path)
		if err != nil {
			return previewLoadedMsg{path: path, seq: seq, err: err}
		}
		rendered := markdown.Render(string(data), width, style)
		return previewLoadedMsg{path: path, seq: seq, lines: strings.Split(rendered, "\n")}
	}
}

func (m *Model) handlePreviewLoadedMsg(msg tea.Msg) tea.Cmd {
	update, ok := msg.(previewLoadedMsg)
	if !ok {
		return nil
	}
	data := m.preview
	if data == nil || data.seq != update.seq || data.path != update.path {
		return nil
	}
	data.loading = false
	data.scrollOffset = 0
	if update.err != nil {
		data.err = update.err.Error()
		data.lines = nil
		return nil
	}
	data.err = ""
	data.rendered = update.lines
	data.lines = highlightMatches(update.lines, data.query)
	return nil
}

// highlightMatches marks case-insensitive occurrences of query in rendered
// lines, keeping the existing styling around them.
func highlightMatches(lines []string, query string) []string {
	if query == "" {
		return lines
	}
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = highlightLine(line, query)
	}
	return out
}

func highlightLine(line, query string) string {
	plain := ansi.Strip(line)
	matches := search.MatchRanges(plain, query)
	if len(matches) == 0 {
		return line
	}
	ranges := make([]lipgloss.Range, 0, len(matches))
	for _, match := range matches {
		start := ansi.StringWidth(plain[:match[0]])
		end := ansi.StringWidth(plain[:match[1]])
		ranges = append(ranges, lipgloss.NewRange(start, end, *styles.Highlight))
	}
	return lipgloss.StyleRanges(line, ranges...)
}

// scrollPreview moves the preview window by delta lines. The renderer clamps
// the offset to the visible range.
func (m *Model) scrollPreview(delta int) {
	if m.preview == nil || m.preview.loading {
		return
	}
	m.preview.scrollOffset += delta
	if m.preview.scrollOffset < 0 {
		m.preview.scrollOffset = 0
	}
	if last := len(m.preview.lines) - 1; last >= 0 && m.preview.scrollOffset > last {
		m.preview.scrollOffset = last
	}
}
