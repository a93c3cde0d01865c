package ui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/atomicstack/notemancy/internal/format/table"
	uistate "github.com/atomicstack/notemancy/internal/ui/state"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
)

const (
	previewPanelMinWidth = 40  // below this the panels stack vertically
	previewPanelFraction = 0.6 // share of the width given to the right panel
	inlineDetailLines    = 10
	defaultPanelHeight   = 20
	infoDuration         = 5 * time.Second
)

var (
	previewBorderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	previewScrollStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type styledLine struct {
	text          string
	style         *lipgloss.Style
	prefixStyle   *lipgloss.Style
	highlightFrom int
	raw           bool // text carries ANSI escapes; skip styling, truncate ANSI-aware
}

// View implements tea.Model.
func (m *Model) View() string {
	switch m.state {
	case StateSearch:
		return m.viewSearch()
	case StateCommandPalette:
		return m.viewPalette()
	default:
		return m.renderScreen(m.screenLines(), nil)
	}
}

func (m *Model) spinner() string {
	return spinnerFrames[m.spinnerFrame%len(spinnerFrames)]
}

func (m *Model) screenLines() []styledLine {
	title := styledLine{text: "notemancy", style: styles.Title}
	switch m.state {
	case StateStarting:
		return []styledLine{title, {}, {text: "notemancy is starting", style: styles.Info}}
	case StateScanning:
		return []styledLine{title, {}, {text: m.spinner() + " Scanning notes...", style: styles.Loading}}
	case StateIndexing:
		return []styledLine{title, {}, {text: m.spinner() + " Building search index...", style: styles.Loading}}
	case StateIndexingVectors:
		return m.vectorLines()
	default:
		return m.welcomeLines()
	}
}

func (m *Model) welcomeLines() []styledLine {
	lines := []styledLine{
		{text: "notemancy", style: styles.Title},
		{text: "Search and connect your markdown notes.", style: styles.Info},
		{},
	}
	if m.scanResult != nil {
		lines = append(lines, styledLine{text: "Notes: " + m.scanResult.Summary, style: styles.Info})
	} else {
		lines = append(lines, styledLine{text: "Notes: not scanned (see the log for details)", style: styles.Error})
	}
	lines = append(lines, styledLine{})
	for _, hint := range []string{
		"ctrl+s  search notes",
		"ctrl+p  command palette",
		"ctrl+e  edit configuration",
		"?       help",
		"q       quit",
	} {
		lines = append(lines, styledLine{text: hint, style: styles.Hint})
	}
	return lines
}

func (m *Model) vectorLines() []styledLine {
	lines := []styledLine{{text: "Vector Indexing", style: styles.Title}, {}}
	status := m.vectorStatus
	switch {
	case m.vectorHandle != nil:
		lines = append(lines, styledLine{text: m.spinner() + " " + status, style: styles.Loading})
	case strings.HasPrefix(status, "Error"):
		lines = append(lines, styledLine{text: status, style: styles.Error})
	default:
		lines = append(lines, styledLine{text: status, style: styles.Success})
	}
	if !m.vectorDoneAt.IsZero() {
		lines = append(lines, styledLine{}, styledLine{text: vectorReturning, style: styles.Hint})
	}
	return lines
}

// renderScreen stacks lines above the status line and any bottom rows.
func (m *Model) renderScreen(lines, bottom []styledLine) string {
	if m.opts.ShowFooter {
		lines = append(lines, styledLine{}, styledLine{text: "ctrl+p commands  ctrl+s search  ? help  ctrl+c quit", style: styles.Footer})
	}
	bottom = append([]styledLine{m.statusLine()}, bottom...)
	lines = limitHeight(lines, m.height-len(bottom), m.width)
	lines = applyWidth(lines, m.width)
	lines = append(lines, applyWidth(bottom, m.width)...)
	return renderLines(lines)
}

func (m *Model) statusLine() styledLine {
	if m.errMsg != "" {
		return styledLine{text: "Error: " + m.errMsg, style: styles.Error}
	}
	if info := m.currentInfo(); info != "" {
		return styledLine{text: info, style: styles.Info}
	}
	return styledLine{}
}

func (m *Model) viewPalette() string {
	current := m.palette
	if current == nil {
		return m.renderScreen(nil, nil)
	}
	lines := []styledLine{{text: current.Title, style: styles.Header}}
	if len(current.Items) == 0 {
		lines = append(lines, styledLine{text: fmt.Sprintf("No matches for %q", current.Filter), style: styles.Info})
	}
	start, visible := m.visibleWindow(current)
	for i, item := range visible {
		label := fmt.Sprintf("%-20s %s", item.Label, item.Description)
		lines = append(lines, m.buildItemLine(label, start+i, current, m.width))
	}
	return m.renderScreen(lines, []styledLine{{text: m.filterPrompt(), raw: true}})
}

// visibleWindow returns the slice of items the viewport shows and its
// starting index.
func (m *Model) visibleWindow(current *level) (int, []uistate.Item) {
	m.syncViewport(current)
	items := current.Items
	maxItems := m.maxVisibleItems()
	if maxItems <= 0 || len(items) <= maxItems {
		return 0, items
	}
	start := current.ViewportOffset
	if start < 0 {
		start = 0
	}
	if start+maxItems > len(items) {
		start = len(items) - maxItems
		current.ViewportOffset = start
	}
	return start, items[start : start+maxItems]
}

func (m *Model) helpBar() string {
	return fmt.Sprintf("ESC Exit Search | / Edit | Tab/r Toggle View [%s] | %s", m.detailMode, m.inputMode)
}

func (m *Model) searchHeader() styledLine {
	label := "Search: "
	if styles.Header != nil {
		label = styles.Header.Render(label)
	}
	return styledLine{text: label + m.query.View(), raw: true}
}

func (m *Model) resultLines(width int) []styledLine {
	if len(m.results.Items) == 0 {
		if strings.TrimSpace(m.query.Value()) == "" {
			return []styledLine{{text: "Type to search your notes.", style: styles.Hint}}
		}
		return []styledLine{{text: fmt.Sprintf("No results for %q", strings.TrimSpace(m.query.Value())), style: styles.Info}}
	}
	start, visible := m.visibleWindow(m.results)
	lines := make([]styledLine, 0, len(visible))
	for i, item := range visible {
		lines = append(lines, m.buildItemLine(item.Label, start+i, m.results, width))
	}
	return lines
}

func (m *Model) viewSearch() string {
	bottom := []styledLine{{text: m.helpBar(), style: styles.HelpBar}}
	if m.previewPanelWidth() == 0 {
		lines := []styledLine{m.searchHeader(), {}}
		lines = append(lines, m.resultLines(m.width)...)
		lines = append(lines, styledLine{})
		lines = append(lines, m.inlineDetailLines()...)
		return m.renderScreen(lines, bottom)
	}
	return m.viewSideBySide(bottom)
}

// inlineDetailLines renders the detail panel below the results when the
// terminal is too narrow to split.
func (m *Model) inlineDetailLines() []styledLine {
	var lines []styledLine
	if m.detailMode == DetailRelated {
		lines = append(lines, styledLine{text: "Related files", style: styles.PreviewTitle})
		for _, text := range m.relatedContent() {
			lines = append(lines, styledLine{text: text, raw: true})
		}
		return lines
	}
	preview := m.preview
	if preview == nil {
		return nil
	}
	lines = append(lines, styledLine{text: "Preview: " + preview.label, style: styles.PreviewTitle})
	switch {
	case preview.err != "":
		lines = append(lines, styledLine{text: preview.err, style: styles.PreviewError})
	case preview.loading:
		lines = append(lines, styledLine{text: "Loading…", style: styles.Loading})
	default:
		content := preview.lines
		if len(content) > inlineDetailLines {
			content = content[:inlineDetailLines]
		}
		for _, text := range content {
			lines = append(lines, styledLine{text: text, raw: true})
		}
	}
	return lines
}

// viewSideBySide renders the results on the left and the detail panel on
// the right, above the status line and help bar.
func (m *Model) viewSideBySide(bottom []styledLine) string {
	listW := m.menuColumnWidth()
	panelW := m.previewPanelWidth()
	panelH := m.height - 4
	if m.height <= 0 {
		panelH = defaultPanelHeight
	}
	if panelH < 1 {
		panelH = 1
	}

	contentLines := m.resultLines(listW)
	if len(contentLines) > panelH {
		contentLines = contentLines[:panelH]
	}
	for len(contentLines) < panelH {
		contentLines = append(contentLines, styledLine{})
	}
	contentLines = applyWidth(contentLines, listW)
	leftRows := strings.Split(renderLines(contentLines), "\n")
	for i, row := range leftRows {
		w := lipgloss.Width(row)
		if w > listW {
			leftRows[i] = truncate.StringWithTail(row, uint(listW-1), "…")
		} else if w < listW {
			leftRows[i] = row + strings.Repeat(" ", listW-w)
		}
	}
	leftStr := strings.Join(leftRows, "\n")

	var rightStr string
	if m.detailMode == DetailRelated {
		rightStr = m.renderRelatedPanel(panelW, panelH)
	} else {
		rightStr = m.renderPreviewPanel(m.preview, panelW, panelH)
	}

	top := renderLines(applyWidth([]styledLine{m.searchHeader(), {}}, m.width))
	body := lipgloss.JoinHorizontal(lipgloss.Top, leftStr, rightStr)
	bottom = append([]styledLine{m.statusLine()}, bottom...)
	return top + "\n" + body + "\n" + renderLines(applyWidth(bottom, m.width))
}

// previewPanelWidth returns the width of the right-hand panel, or 0 when
// the terminal is too narrow to split.
func (m *Model) previewPanelWidth() int {
	if m.width <= 0 {
		return 0
	}
	w := int(float64(m.width) * previewPanelFraction)
	if w < previewPanelMinWidth {
		return 0
	}
	return w
}

func (m *Model) menuColumnWidth() int {
	return m.width - m.previewPanelWidth()
}

// buildItemLine renders one list row. When width is positive the text is
// padded so the selected row's background spans the column.
func (m *Model) buildItemLine(label string, idx int, current *level, width int) styledLine {
	lineStyle := styles.Item
	indicatorStyle := styles.ItemIndicator
	if idx == current.Cursor {
		indicatorStyle = styles.SelectedItemIndicator
		lineStyle = styles.SelectedItem
	}
	fullText := "▌ " + label
	if width > 0 {
		if pad := width - len([]rune(fullText)); pad > 0 {
			fullText += strings.Repeat(" ", pad)
		}
	}
	return styledLine{
		text:          fullText,
		style:         lineStyle,
		prefixStyle:   indicatorStyle,
		highlightFrom: 1,
	}
}

func (m *Model) renderPreviewPanel(preview *previewData, totalWidth, height int) string {
	if preview == nil {
		return renderPanel("Preview", "", []string{"Select a result to preview it."}, false, styles.Hint, totalWidth, height)
	}
	title := "Preview: " + preview.label
	if preview.err != "" {
		return renderPanel(title, "", []string{preview.err}, false, styles.PreviewError, totalWidth, height)
	}
	if preview.loading || len(preview.lines) == 0 {
		return renderPanel(title, "", []string{"Loading…"}, false, styles.Loading, totalWidth, height)
	}
	innerH := height - 2
	if innerH < 1 {
		innerH = 1
	}
	maxOffset := len(preview.lines) - innerH
	if maxOffset < 0 {
		maxOffset = 0
	}
	if preview.scrollOffset > maxOffset {
		preview.scrollOffset = maxOffset
	}
	if preview.scrollOffset < 0 {
		preview.scrollOffset = 0
	}
	end := preview.scrollOffset + innerH
	if end > len(preview.lines) {
		end = len(preview.lines)
	}
	content := preview.lines[preview.scrollOffset:end]
	scrollInfo := fmt.Sprintf(" %d/%d ", preview.scrollOffset+len(content), len(preview.lines))
	return renderPanel(title, scrollInfo, content, true, nil, totalWidth, height)
}

func (m *Model) renderRelatedPanel(totalWidth, height int) string {
	title := "Related Files"
	if item, ok := m.results.Current(); ok {
		title = "Related: " + item.Label
	}
	return renderPanel(title, "", m.relatedContent(), true, nil, totalWidth, height)
}

// relatedContent lists the related files as similarity, title and path.
func (m *Model) relatedContent() []string {
	render := func(style *lipgloss.Style, text string) string {
		if style == nil {
			return text
		}
		return style.Render(text)
	}
	switch {
	case m.relatedErr != "":
		return []string{render(styles.Error, "Error: "+m.relatedErr)}
	case m.relatedPending():
		return []string{render(styles.Loading, m.spinner()+" Finding related files...")}
	case len(m.relatedFiles) == 0:
		return []string{render(styles.Info, "No related files found.")}
	}
	rows := make([][]string, 0, len(m.relatedFiles))
	for _, result := range m.relatedFiles {
		rows = append(rows, []string{
			fmt.Sprintf("%.1f%%", result.Score),
			result.Title,
			m.displayPath(result.Path),
		})
	}
	formatted := table.Format(rows, []table.Column{
		{Align: table.AlignRight},
		{Max: 32},
		{},
	})
	out := make([]string, 0, len(formatted))
	for _, line := range formatted {
		out = append(out, render(styles.Item, line))
	}
	return out
}

// displayPath shortens path relative to the scanned notes directory.
func (m *Model) displayPath(path string) string {
	if m.scanResult == nil || m.scanResult.Root == "" {
		return path
	}
	if rel, err := filepath.Rel(m.scanResult.Root, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}

// renderPanel draws a bordered box exactly height rows by totalWidth
// columns with title and scrollInfo in the top border.
func renderPanel(title, scrollInfo string, content []string, raw bool, bodyStyle *lipgloss.Style, totalWidth, height int) string {
	const (
		tlc = "╭"
		trc = "╮"
		blc = "╰"
		brc = "╯"
		hz  = "─"
		vt  = "│"
	)

	innerW := totalWidth - 2
	innerH := height - 2
	if innerW < 1 {
		innerW = 1
	}
	if innerH < 1 {
		innerH = 1
	}

	titleSeg := " " + strings.TrimSpace(title) + " "
	scrollSeg := scrollInfo
	dashes := totalWidth - 4 - lipgloss.Width(titleSeg) - lipgloss.Width(scrollSeg)
	if dashes < 0 {
		scrollSeg = ""
		dashes = totalWidth - 4 - lipgloss.Width(titleSeg)
	}
	if dashes < 0 {
		if limit := totalWidth - 4; limit > 1 {
			titleSeg = truncate.StringWithTail(titleSeg, uint(limit), "…")
		} else {
			titleSeg = ""
		}
		dashes = totalWidth - 4 - lipgloss.Width(titleSeg)
	}
	if dashes < 0 {
		dashes = 0
	}
	titleStyled := titleSeg
	if styles.PreviewTitle != nil {
		titleStyled = styles.PreviewTitle.Render(titleSeg)
	}
	topLine := previewBorderStyle.Render(tlc+hz) +
		titleStyled +
		previewBorderStyle.Render(strings.Repeat(hz, dashes)) +
		previewScrollStyle.Render(scrollSeg) +
		previewBorderStyle.Render(hz+trc)
	bottomLine := previewBorderStyle.Render(blc + strings.Repeat(hz, innerW) + brc)

	rows := make([]string, 0, height)
	rows = append(rows, topLine)
	for i := 0; i < innerH; i++ {
		var text string
		if i < len(content) {
			text = content[i]
		}
		w := lipgloss.Width(text)
		if w > innerW {
			text = truncate.StringWithTail(text, uint(innerW-1), "…")
			w = lipgloss.Width(text)
		}
		if w < innerW {
			text += strings.Repeat(" ", innerW-w)
		}
		if !raw && bodyStyle != nil {
			text = bodyStyle.Render(text)
		}
		rows = append(rows, previewBorderStyle.Render(vt)+text+previewBorderStyle.Render(vt))
	}
	rows = append(rows, bottomLine)
	return strings.Join(rows, "\n")
}

func (m *Model) setInfo(message string) {
	m.infoMsg = message
	m.infoExpire = m.opts.Now().Add(infoDuration)
}

func (m *Model) currentInfo() string {
	if m.infoMsg != "" && !m.infoExpire.IsZero() && m.opts.Now().After(m.infoExpire) {
		m.infoMsg = ""
		m.infoExpire = time.Time{}
	}
	return m.infoMsg
}

func limitHeight(lines []styledLine, height, width int) []styledLine {
	if height <= 0 || len(lines) <= height {
		return lines
	}
	if height == 1 {
		return []styledLine{{text: truncateText("…", width)}}
	}
	trimmed := make([]styledLine, 0, height)
	trimmed = append(trimmed, lines[:height-1]...)
	trimmed = append(trimmed, styledLine{text: truncateText("…", width)})
	return trimmed
}

func applyWidth(lines []styledLine, width int) []styledLine {
	if width <= 0 {
		return lines
	}
	result := make([]styledLine, len(lines))
	for i, line := range lines {
		text := line.text
		if line.raw {
			if lipgloss.Width(text) > width {
				text = truncate.StringWithTail(text, uint(width-1), "…")
			}
		} else {
			text = truncateText(text, width)
		}
		line.text = text
		result[i] = line
	}
	return result
}

func renderLines(lines []styledLine) string {
	out := make([]string, len(lines))
	for i, line := range lines {
		text := line.text
		if line.raw {
			out[i] = text
			continue
		}
		runes := []rune(text)
		if line.highlightFrom > 0 && line.highlightFrom < len(runes) {
			head := string(runes[:line.highlightFrom])
			tail := string(runes[line.highlightFrom:])
			if line.prefixStyle != nil {
				head = line.prefixStyle.Render(head)
			}
			if line.style != nil {
				tail = line.style.Render(tail)
			}
			text = head + tail
		} else if line.style != nil {
			text = line.style.Render(text)
		}
		out[i] = text
	}
	return strings.Join(out, "\n")
}

func truncateText(text string, width int) string {
	if width <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= width {
		return text
	}
	if width == 1 {
		return string(runes[:1])
	}
	return string(runes[:width-1]) + "…"
}
