package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/atomicstack/notemancy/internal/format/markdown"
	"github.com/atomicstack/notemancy/internal/logging"
	"github.com/atomicstack/notemancy/internal/settings"
	"github.com/atomicstack/notemancy/internal/ui"
	tea "github.com/charmbracelet/bubbletea"
)

// Config describes user-provided application options. Non-empty fields
// override the settings file.
type Config struct {
	SettingsPath string
	NotesDir     string
	DatabasePath string
	Width        int
	Height       int
	ShowFooter   bool
}

// LoadSettings reads the settings file, creating it with defaults when it
// does not exist, and applies the command line overrides.
func LoadSettings(cfg Config) (settings.Settings, string, error) {
	path := cfg.SettingsPath
	if strings.TrimSpace(path) == "" {
		path = settings.DefaultPath()
	}
	if err := settings.EnsureFile(path); err != nil {
		logging.Error(fmt.Errorf("create settings file: %w", err))
	}
	s, err := settings.Load(path)
	if err != nil {
		return settings.Settings{}, path, err
	}
	if v := strings.TrimSpace(cfg.NotesDir); v != "" {
		s.NotesDir = settings.ExpandHome(v)
	}
	if v := strings.TrimSpace(cfg.DatabasePath); v != "" {
		s.DatabasePath = settings.ExpandHome(v)
	}
	return s, path, nil
}

// Run bootstraps and executes the Bubble Tea program.
func Run(cfg Config) error {
	s, path, err := LoadSettings(cfg)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return fmt.Errorf("settings %s: %w", path, err)
	}
	b := newBackend(s, path)
	defer b.Close()

	opts := ui.DefaultOptions()
	opts.Width = cfg.Width
	opts.Height = cfg.Height
	opts.ShowFooter = cfg.ShowFooter
	if s.AI.RelatedLimit > 0 {
		opts.RelatedLimit = s.AI.RelatedLimit
	}
	opts.MarkdownStyle = markdown.ResolveStyle(s.UI.MarkdownStyle)

	model := ui.NewModel(b, opts)
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err = program.Run()
	model.Shutdown()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}
