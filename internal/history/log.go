package history

import (
	"context"
	"log/slog"

	"github.com/dustin/go-humanize"
)

const previewLen = 120

// LogPayload logs a history event at INFO (id, kind, size) and, at DEBUG, a
// text preview of up to 120 characters. Clipboard content never reaches the
// log above DEBUG.
func LogPayload(event, id string, p Payload) {
	slog.Info(event, "id", id, "kind", p.Kind, "size", humanize.IBytes(uint64(p.Size())))

	if !slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	if p.Kind == KindText {
		slog.Debug("history item", "id", id, "preview", Preview(p.Text, previewLen))
	}
}

// Preview shortens s to at most n runes, appending an ellipsis when cut.
func Preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
