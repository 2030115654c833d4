//go:build darwin

package clip

// #cgo CFLAGS: -x objective-c
// #cgo LDFLAGS: -framework Cocoa
// #import <Cocoa/Cocoa.h>
//
// NSInteger clipstash_changeCount() {
//     return [[NSPasteboard generalPasteboard] changeCount];
// }
import "C"

import (
	"log/slog"

	"golang.design/x/clipboard"
)

// darwinBackend uses NSPasteboard's changeCount, which the system increments
// on every write by any application, including this one.
type darwinBackend struct {
	designIO
}

// New returns the macOS clipboard backend.
// clipboard.Init is called here rather than in init() so that CLI sub-commands
// that never construct a Backend don't log spurious warnings.
func New() Backend {
	if err := clipboard.Init(); err != nil {
		slog.Warn("clipboard init failed", "err", err)
	}
	return &darwinBackend{}
}

// newDetached returns the system backend; the pasteboard keeps written
// content after the process exits.
func newDetached() (Backend, error) { return New(), nil }

func (b *darwinBackend) Name() string { return "macOS NSPasteboard" }

func (b *darwinBackend) ReadChangeToken() int64 {
	return int64(C.clipstash_changeCount())
}

func (b *darwinBackend) Close() {}
