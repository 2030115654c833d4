// Package paths resolves where clipstash keeps its files.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	appName     = "clipstash"
	historyName = "clipboard.json"
	logName     = "clipstash.log"
)

// Paths locates the history directory and the files inside it.
type Paths struct {
	dir string
}

// New returns Paths rooted at dir. An empty dir selects DefaultDir.
func New(dir string) Paths {
	return Paths{dir: dir}
}

// DefaultDir returns $XDG_DATA_HOME/clipstash, falling back to
// ~/.local/share/clipstash, and finally to the temp dir when no home
// directory is known.
func DefaultDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return filepath.Join(home, ".local", "share", appName)
	}
	return filepath.Join(os.TempDir(), appName)
}

// Root returns the configured directory without touching the filesystem.
func (p Paths) Root() string {
	if p.dir == "" {
		return DefaultDir()
	}
	return p.dir
}

// Dir returns the history directory, creating it if absent.
func (p Paths) Dir() (string, error) {
	dir := p.Root()
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create history dir %s: %w", dir, err)
	}
	return dir, nil
}

// HistoryFile returns the path of the persisted history document.
func (p Paths) HistoryFile() string { return filepath.Join(p.Root(), historyName) }

// LogFile returns the path of the daemon log file.
func (p Paths) LogFile() string { return filepath.Join(p.Root(), logName) }
