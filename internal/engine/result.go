package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// ErrNoSelection is returned when an export or import is requested without
// a file. It is informational, not a fault.
var ErrNoSelection = errors.New("no file selected")

// ImportMode selects how an imported document is combined with the history.
type ImportMode int

const (
	// Overwrite replaces the history with the imported entries.
	Overwrite ImportMode = iota
	// Merge folds the imported entries into the history.
	Merge
)

func (m ImportMode) String() string {
	if m == Merge {
		return "merge"
	}
	return "overwrite"
}

// ParseImportMode accepts "overwrite" (or "") and "merge".
func ParseImportMode(s string) (ImportMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "overwrite", "replace":
		return Overwrite, nil
	case "merge":
		return Merge, nil
	default:
		return Overwrite, fmt.Errorf("unknown import mode %q (want overwrite|merge)", s)
	}
}

// Summary describes the outcome of an import.
type Summary struct {
	Mode  string `json:"mode"`
	Read  int    `json:"read"`
	Added int    `json:"added"`
	Total int    `json:"total"`
}

// Result is the user-facing outcome of an engine operation.
type Result struct {
	Op      string   `json:"op"`
	OK      bool     `json:"ok"`
	Message string   `json:"message"`
	Summary *Summary `json:"summary,omitempty"`

	// Err is the underlying failure, for callers that branch on it.
	Err error `json:"-"`
}

func success(op, format string, args ...any) Result {
	msg := fmt.Sprintf(format, args...)
	slog.Info(msg, "op", op)
	return Result{Op: op, OK: true, Message: msg}
}

func failure(op string, err error, format string, args ...any) Result {
	msg := fmt.Sprintf(format, args...)
	if errors.Is(err, ErrNoSelection) {
		slog.Info(msg, "op", op)
	} else {
		slog.Warn(msg, "op", op, "err", err)
	}
	return Result{Op: op, OK: false, Message: msg, Err: err}
}
