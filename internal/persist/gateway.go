package persist

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"go.klb.dev/clipstash/internal/history"
)

// Gateway loads and saves the history document at a fixed path.
type Gateway struct {
	path     string
	capacity int
}

// New returns a Gateway for the document at path. Saved histories are
// truncated to capacity entries.
func New(path string, capacity int) *Gateway {
	if capacity <= 0 {
		capacity = history.DefaultCapacity
	}
	return &Gateway{path: path, capacity: capacity}
}

// Path returns the document path.
func (g *Gateway) Path() string { return g.path }

// Load reads the history document. A missing document yields an empty
// history and no error. Entries are returned most recent first and are not
// truncated: duplicates must be collapsed before the capacity applies.
func (g *Gateway) Load() ([]history.Entry, error) {
	entries, err := Read(g.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return SortByRecency(entries), nil
}

// Save atomically replaces the history document with entries.
func (g *Gateway) Save(entries []history.Entry) error {
	if len(entries) > g.capacity {
		entries = entries[:g.capacity]
	}
	return writeDocument(g.path, entries)
}

// Export writes entries to path in the history document format, without
// truncation.
func (g *Gateway) Export(entries []history.Entry, path string) error {
	return writeDocument(path, entries)
}

// Read decodes the document at path without sorting or truncating it.
func Read(path string) ([]history.Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrIO, path, err)
	}
	entries, err := Decode(bytes.NewReader(data))
	if err != nil {
		var de *DecodeError
		if errors.As(err, &de) {
			de.Path = path
		}
		return nil, err
	}
	return entries, nil
}

func writeDocument(path string, entries []history.Entry) error {
	var buf bytes.Buffer
	if err := Encode(&buf, entries); err != nil {
		return err
	}
	return WriteFileAtomic(path, buf.Bytes())
}
