// Package notes finds markdown files under the configured notes directory
// and parses them into documents.
package notes

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/atomicstack/notemancy/internal/settings"
)

// ScannedFile is one markdown file found by a scan.
type ScannedFile struct {
	LocalPath string
}

// ScanResult is the outcome of a scan.
type ScanResult struct {
	Root    string
	Files   []ScannedFile
	Summary string
}

// Scanner walks a notes directory.
type Scanner struct {
	root   string
	ignore []string
}

// NewScanner builds a scanner from settings. The notes directory must exist.
func NewScanner(s settings.Settings) (*Scanner, error) {
	root := strings.TrimSpace(s.NotesDir)
	if root == "" {
		return nil, settings.ErrNotesDirMissing
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("notes directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("notes directory %s is not a directory", root)
	}
	return &Scanner{root: root, ignore: append([]string(nil), s.Ignore...)}, nil
}

// ScanMarkdownFiles returns every .md and .markdown file below the root,
// sorted by path. Hidden directories and ignored names are skipped.
func (s *Scanner) ScanMarkdownFiles(ctx context.Context) (ScanResult, error) {
	var files []ScannedFile
	skipped := 0
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if path == s.root {
				return err
			}
			skipped++
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		name := d.Name()
		if d.IsDir() {
			if path != s.root && (strings.HasPrefix(name, ".") || s.ignored(name)) {
				skipped++
				return filepath.SkipDir
			}
			return nil
		}
		if s.ignored(name) || !IsMarkdown(name) {
			return nil
		}
		files = append(files, ScannedFile{LocalPath: path})
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return ScanResult{}, err
		}
		return ScanResult{}, fmt.Errorf("scan %s: %w", s.root, err)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].LocalPath < files[j].LocalPath })
	return ScanResult{Root: s.root, Files: files, Summary: summarize(len(files), skipped)}, nil
}

func (s *Scanner) ignored(name string) bool {
	for _, pattern := range s.ignore {
		if pattern == name {
			return true
		}
		if ok, _ := filepath.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

// IsMarkdown reports whether name has a markdown extension.
func IsMarkdown(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".markdown":
		return true
	}
	return false
}

func summarize(count, skipped int) string {
	noun := "files"
	if count == 1 {
		noun = "file"
	}
	summary := fmt.Sprintf("%d %s", count, noun)
	if skipped > 0 {
		summary += fmt.Sprintf(" (%d skipped)", skipped)
	}
	return summary
}
