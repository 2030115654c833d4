//go:build darwin || windows || linux

package clip

import (
	"fmt"

	"golang.design/x/clipboard"

	"go.klb.dev/clipstash/internal/imaging"
)

// designIO reads and writes clipboard contents through golang.design/x/clipboard.
// Platform backends embed it and add their own change token.
type designIO struct{}

func (designIO) ReadText() (string, bool) {
	b := clipboard.Read(clipboard.FmtText)
	if len(b) == 0 {
		return "", false
	}
	return string(b), true
}

func (designIO) ReadImage() ([]byte, bool) {
	b := clipboard.Read(clipboard.FmtImage)
	if len(b) == 0 {
		return nil, false
	}
	return b, true
}

func (designIO) WriteText(text string) error {
	clipboard.Write(clipboard.FmtText, []byte(text))
	return nil
}

// WriteImage converts data to PNG, the only image encoding the library
// accepts, before placing it on the clipboard.
func (designIO) WriteImage(data []byte) error {
	pngData, err := imaging.ToPNG(data)
	if err != nil {
		return fmt.Errorf("clipboard image: %w", err)
	}
	clipboard.Write(clipboard.FmtImage, pngData)
	return nil
}
