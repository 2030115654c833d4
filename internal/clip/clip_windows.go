//go:build windows

package clip

import (
	"log/slog"

	"golang.design/x/clipboard"
	"golang.org/x/sys/windows"
)

var (
	user32                         = windows.NewLazySystemDLL("user32.dll")
	procGetClipboardSequenceNumber = user32.NewProc("GetClipboardSequenceNumber")
)

// windowsBackend uses the clipboard sequence number, which Windows increments
// on every change of the clipboard contents.
type windowsBackend struct {
	designIO
}

// New returns the Windows clipboard backend.
// clipboard.Init is called here rather than in init() so that CLI sub-commands
// that never construct a Backend don't log spurious warnings.
func New() Backend {
	if err := clipboard.Init(); err != nil {
		slog.Warn("clipboard init failed", "err", err)
	}
	return &windowsBackend{}
}

// newDetached returns the system backend; the clipboard keeps written
// content after the process exits.
func newDetached() (Backend, error) { return New(), nil }

func (b *windowsBackend) Name() string { return "Windows Clipboard" }

func (b *windowsBackend) ReadChangeToken() int64 {
	n, _, _ := procGetClipboardSequenceNumber.Call()
	return int64(n)
}

func (b *windowsBackend) Close() {}
