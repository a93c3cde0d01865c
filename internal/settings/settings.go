// Package settings reads and writes the persisted notemancy configuration
// file. The file is TOML and is the one opened by the config editor.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// ErrNotesDirMissing is returned when no notes directory is configured.
var ErrNotesDirMissing = errors.New("notes directory not configured")

const (
	appDir          = "notemancy"
	fileName        = "config.toml"
	defaultEndpoint = "http://localhost:11434"
	defaultModel    = "nomic-embed-text"
)

// Settings is the on-disk configuration.
type Settings struct {
	NotesDir     string   `toml:"notes_dir"`
	DatabasePath string   `toml:"database_path"`
	Ignore       []string `toml:"ignore"`
	AI           AI       `toml:"ai"`
	UI           UI       `toml:"ui"`
}

// AI configures the embedding service used for related notes.
type AI struct {
	Endpoint          string `toml:"endpoint"`
	Model             string `toml:"model"`
	RelatedLimit      int    `toml:"related_limit"`
	RequestIntervalMS int    `toml:"request_interval_ms"`
	TimeoutSeconds    int    `toml:"timeout_seconds"`
}

// UI holds presentation preferences.
type UI struct {
	// MarkdownStyle is one of auto, dark, light or notty.
	MarkdownStyle string `toml:"markdown_style"`
}

// Default returns the settings used when no file exists.
func Default() Settings {
	return Settings{
		NotesDir:     filepath.Join(homeDir(), "notes"),
		DatabasePath: filepath.Join(dataDir(), appDir, "notemancy.db"),
		Ignore:       []string{"node_modules", ".git", ".obsidian", ".trash"},
		AI: AI{
			Endpoint:          defaultEndpoint,
			Model:             defaultModel,
			RelatedLimit:      10,
			RequestIntervalMS: 0,
			TimeoutSeconds:    30,
		},
		UI: UI{MarkdownStyle: "auto"},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/notemancy/config.toml or the
// platform equivalent.
func DefaultPath() string {
	if dir := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); dir != "" {
		return filepath.Join(dir, appDir, fileName)
	}
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, appDir, fileName)
	}
	return filepath.Join(homeDir(), ".config", appDir, fileName)
}

// Load reads path. A missing file yields the defaults; fields absent from
// the file keep their default values.
func Load(path string) (Settings, error) {
	s := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}
	if err := toml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("parse settings %s: %w", path, err)
	}
	s.NotesDir = ExpandHome(s.NotesDir)
	s.DatabasePath = ExpandHome(s.DatabasePath)
	return s, nil
}

// Save writes s to path, creating parent directories.
func Save(path string, s Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	data, err := toml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

// EnsureFile writes the defaults to path unless a file already exists.
func EnsureFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat settings: %w", err)
	}
	return Save(path, Default())
}

// Validate checks the fields every feature depends on.
func (s Settings) Validate() error {
	if strings.TrimSpace(s.NotesDir) == "" {
		return ErrNotesDirMissing
	}
	if s.AI.RelatedLimit < 0 {
		return fmt.Errorf("ai.related_limit must be >= 0 (got %d)", s.AI.RelatedLimit)
	}
	return nil
}

// RequestInterval is the minimum spacing between embedding requests.
func (a AI) RequestInterval() time.Duration {
	if a.RequestIntervalMS <= 0 {
		return 0
	}
	return time.Duration(a.RequestIntervalMS) * time.Millisecond
}

// Timeout is the HTTP timeout for the embedding service.
func (a AI) Timeout() time.Duration {
	if a.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path == "~" {
		return homeDir()
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir(), path[2:])
	}
	return path
}

func homeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "."
}

func dataDir() string {
	if dir := strings.TrimSpace(os.Getenv("XDG_DATA_HOME")); dir != "" {
		return dir
	}
	return filepath.Join(homeDir(), ".local", "share")
}
