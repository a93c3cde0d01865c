// Package editor resolves and launches the user's external editor.
package editor

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/google/shlex"
)

// ErrNoPath is returned when no file was given to edit.
var ErrNoPath = errors.New("editor: no file to open")

const fallback = "vi"

// Name returns $VISUAL, then $EDITOR, then vi.
func Name() string {
	return nameFrom(os.Getenv)
}

func nameFrom(getenv func(string) string) string {
	if v := strings.TrimSpace(getenv("VISUAL")); v != "" {
		return v
	}
	if v := strings.TrimSpace(getenv("EDITOR")); v != "" {
		return v
	}
	return fallback
}

// Command builds the command that opens path in the editor. The editor
// variable may carry arguments, e.g. "code --wait".
func Command(path string) (*exec.Cmd, error) {
	return commandFor(Name(), path)
}

func commandFor(editor, path string) (*exec.Cmd, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrNoPath
	}
	args, err := shlex.Split(editor)
	if err != nil {
		return nil, fmt.Errorf("parse editor %q: %w", editor, err)
	}
	if len(args) == 0 {
		args = []string{fallback}
	}
	return exec.Command(args[0], append(args[1:], path)...), nil
}
