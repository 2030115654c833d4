//go:build linux

package clip

import (
	"fmt"
	"log/slog"

	atotto "github.com/atotto/clipboard"
	"golang.design/x/clipboard"
)

type linuxBackend struct {
	designIO
	tok digestToken
}

// New returns the Linux clipboard backend. clipboard.Init is called here
// rather than in init() so that CLI sub-commands that never construct a
// Backend don't log spurious warnings on headless systems.
//
// When X11 is unavailable but a command-line helper (xclip, xsel,
// wl-clipboard) is installed, a text-only backend is returned instead. With
// neither, the backend is a headless no-op.
func New() Backend {
	if err := clipboard.Init(); err != nil {
		if !atotto.Unsupported {
			slog.Warn("clipboard init failed, using text-only helper backend", "err", err)
			return &helperBackend{}
		}
		slog.Warn("clipboard unavailable, running headless", "err", err)
		return NewHeadless()
	}
	b := &linuxBackend{}
	b.ReadChangeToken()
	return b
}

// newDetached returns the helper backend. golang.design/x/clipboard serves
// the X11 selection from the writing process, so its writes disappear when
// a one-shot command exits; xclip, xsel and wl-copy keep serving it.
func newDetached() (Backend, error) {
	if atotto.Unsupported {
		return nil, fmt.Errorf("%w: no xclip, xsel or wl-clipboard found", ErrNotDetachable)
	}
	return &helperBackend{}, nil
}

func (b *linuxBackend) Name() string { return "Linux clipboard (poll)" }

func (b *linuxBackend) ReadChangeToken() int64 {
	return b.tok.observe(clipboard.Read(clipboard.FmtText), clipboard.Read(clipboard.FmtImage))
}

func (b *linuxBackend) WriteText(text string) error {
	if err := b.designIO.WriteText(text); err != nil {
		return err
	}
	b.tok.wrote(clipboard.Read(clipboard.FmtText), clipboard.Read(clipboard.FmtImage))
	return nil
}

func (b *linuxBackend) WriteImage(data []byte) error {
	if err := b.designIO.WriteImage(data); err != nil {
		return err
	}
	b.tok.wrote(clipboard.Read(clipboard.FmtText), clipboard.Read(clipboard.FmtImage))
	return nil
}

func (b *linuxBackend) Close() {}

// helperBackend drives the clipboard through external helpers via
// atotto/clipboard. It only carries text.
type helperBackend struct {
	tok digestToken
}

func (b *helperBackend) Name() string { return "Linux clipboard (helper, text only)" }

func (b *helperBackend) ReadChangeToken() int64 {
	text, _ := atotto.ReadAll()
	return b.tok.observe([]byte(text))
}

func (b *helperBackend) ReadText() (string, bool) {
	text, err := atotto.ReadAll()
	if err != nil || text == "" {
		return "", false
	}
	return text, true
}

func (b *helperBackend) ReadImage() ([]byte, bool) { return nil, false }

func (b *helperBackend) WriteText(text string) error {
	if err := atotto.WriteAll(text); err != nil {
		return err
	}
	b.tok.wrote([]byte(text))
	return nil
}

func (b *helperBackend) WriteImage([]byte) error { return ErrUnsupported }

func (b *helperBackend) Close() {}
