// Package pkg holds shared helpers for the makefilegen commands.
package pkg

import (
	"os"
	"path/filepath"

	"github.com/mitchellh/colorstring"
	"github.com/rotisserie/eris"
)

// FindProjectRoot walks up from start until it finds a directory containing
// .git. It falls back to start when no repository marker exists.
func FindProjectRoot(start string) (string, error) {
	path, err := filepath.Abs(start)
	if err != nil {
		return "", eris.Wrap(err, "failed to resolve the start directory")
	}

	current := path
	for {
		_, err := os.Stat(filepath.Join(current, ".git"))
		if err == nil {
			return current, nil
		}
		if !eris.Is(err, os.ErrNotExist) {
			return "", eris.Wrap(err, "error occurred while searching for the project root")
		}

		next := filepath.Dir(current)
		if next == current {
			return path, nil
		}
		current = next
	}
}

// PrintTask prints a top-level progress line.
func PrintTask(msg string) {
	colorstring.Printf("[blue][bold]==>[default] %s\n", msg)
}

// PrintSubtask prints a nested progress line.
func PrintSubtask(msg string) {
	colorstring.Printf("[green][bold]  ->[reset] %s\n", msg)
}

// PrintError prints an error line.
func PrintError(msg string) {
	colorstring.Printf("[red][bold]  ->[reset] %s\n", msg)
}
