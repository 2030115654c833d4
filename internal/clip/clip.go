// Package clip provides a unified interface to the system clipboard across
// platforms. Build constraints select the appropriate implementation:
//
//	clip_darwin.go   — macOS via golang.design/x/clipboard + cgo changeCount
//	clip_windows.go  — Windows via golang.design/x/clipboard + GetClipboardSequenceNumber
//	clip_linux.go    — Linux via golang.design/x/clipboard, content-digest token;
//	                   falls back to atotto/clipboard (text only) or headless
//	clip_other.go    — headless stub
//
// The clipboard is polled, never subscribed to: callers compare successive
// change tokens to learn that the contents changed.
package clip

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnsupported is returned by backends that cannot carry a content type.
	ErrUnsupported = errors.New("clipboard: content type not supported by backend")

	// ErrNotDetachable is returned by OpenDetached when the platform
	// clipboard forgets a write once the writing process exits.
	ErrNotDetachable = errors.New("clipboard: writes do not outlive this process")
)

// Backend is the interface that all platform clipboard implementations satisfy.
type Backend interface {
	// Name returns a human-readable name for the backend.
	Name() string

	// ReadChangeToken returns a value that changes every time the clipboard
	// contents change, whether the change was made by another application
	// or through this Backend.
	ReadChangeToken() int64

	// ReadText returns the clipboard text, or false if there is none.
	ReadText() (string, bool)

	// ReadImage returns the encoded clipboard image, or false if there is none.
	ReadImage() ([]byte, bool)

	// WriteText replaces the clipboard contents with text.
	WriteText(text string) error

	// WriteImage replaces the clipboard contents with an encoded image.
	WriteImage(data []byte) error

	// Close releases any resources held by the backend.
	Close()
}

// Open returns the backend selected by name: "auto" (or empty) for the
// platform clipboard, "memory" for an in-process clipboard, "headless" for
// a no-op backend.
func Open(name string) (Backend, error) {
	switch strings.ToLower(name) {
	case "", "auto", "system":
		return New(), nil
	case "memory":
		return NewMemory(), nil
	case "headless", "none":
		return NewHeadless(), nil
	default:
		return nil, fmt.Errorf("unknown clipboard backend %q", name)
	}
}

// OpenDetached is Open for short-lived processes: content written through
// the returned backend stays on the clipboard after the process exits.
func OpenDetached(name string) (Backend, error) {
	switch strings.ToLower(name) {
	case "", "auto", "system":
		return newDetached()
	default:
		return Open(name)
	}
}
