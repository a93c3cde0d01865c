// Package markdown renders notes for the terminal with glamour.
package markdown

import (
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
)

const minWidth = 10

var (
	mu        sync.Mutex
	renderers = map[string]*glamour.TermRenderer{}
)

// ResolveStyle maps a configured style to a glamour standard style name.
// "auto" asks the terminal once for its background colour.
func ResolveStyle(style string) string {
	switch s := strings.ToLower(strings.TrimSpace(style)); s {
	case styles.DarkStyle, styles.LightStyle, styles.NoTTYStyle, styles.AsciiStyle, styles.DraculaStyle, styles.PinkStyle:
		return s
	case "", "auto":
		if !termenv.NewOutput(os.Stdout).HasDarkBackground() {
			return styles.LightStyle
		}
		return styles.DarkStyle
	default:
		return styles.DarkStyle
	}
}

// Render renders md wrapped at width using style. On failure the source is
// returned with escape sequences removed.
func Render(md string, width int, style string) string {
	md = strings.TrimSpace(md)
	if md == "" {
		return ""
	}
	if width < minWidth {
		width = minWidth
	}
	r, err := renderer(style, width)
	if err != nil {
		return Plain(md)
	}
	out, err := r.Render(md)
	if err != nil {
		return Plain(md)
	}
	return strings.TrimRight(out, "\n")
}

// Plain strips terminal escape sequences from raw note text.
func Plain(text string) string {
	return ansi.Strip(text)
}

func renderer(style string, width int) (*glamour.TermRenderer, error) {
	key := style + ":" + strconv.Itoa(width)
	mu.Lock()
	defer mu.Unlock()
	if r := renderers[key]; r != nil {
		return r, nil
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}
	renderers[key] = r
	return r, nil
}
