// Package imaging normalizes clipboard images into the form stored in the
// history: bounded dimensions, no alpha, fixed-quality JPEG.
//
// Normalization is deterministic. The same input bytes always produce the
// same output bytes, which is what makes byte equality of normalized images
// a usable deduplication key.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"

	// Registered decoders for formats commonly found on clipboards.
	_ "image/gif"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	// DefaultMaxDimension bounds the longest side of a stored image.
	DefaultMaxDimension = 1000
	// DefaultQuality is the JPEG quality used when re-encoding.
	DefaultQuality = 60
	// MaxPixels is the largest image, by pixel count, that will be decoded.
	MaxPixels = 100_000_000
)

var (
	// ErrEmpty is returned when there are no bytes to decode.
	ErrEmpty = errors.New("imaging: empty image data")
	// ErrTooLarge is returned for images over MaxPixels.
	ErrTooLarge = errors.New("imaging: image too large")
)

// Options tunes normalization. Zero values select the defaults.
type Options struct {
	MaxDimension int
	Quality      int
}

func (o *Options) defaults() {
	if o.MaxDimension <= 0 {
		o.MaxDimension = DefaultMaxDimension
	}
	if o.Quality <= 0 || o.Quality > 100 {
		o.Quality = DefaultQuality
	}
}

// Normalize decodes data, scales it down so its longest side is at most
// MaxDimension, flattens transparency onto white and re-encodes it as JPEG.
func Normalize(data []byte, opts Options) ([]byte, error) {
	opts.defaults()
	if len(data) == 0 {
		return nil, ErrEmpty
	}

	src, format, err := decode(data)
	if err != nil {
		return nil, err
	}

	b := src.Bounds()
	w, h := fit(b.Dx(), b.Dy(), opts.MaxDimension)
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("imaging: degenerate %s image %dx%d", format, b.Dx(), b.Dy())
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: opts.Quality}); err != nil {
		return nil, fmt.Errorf("imaging: encode: %w", err)
	}
	return buf.Bytes(), nil
}

// ToPNG re-encodes any decodable image as PNG. PNG input is returned as is.
func ToPNG(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	img, format, err := decode(data)
	if err != nil {
		return nil, err
	}
	if format == "png" {
		return data, nil
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("imaging: encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// decode reads the header first so a forged size cannot make the decoder
// allocate the pixel buffer.
func decode(data []byte) (image.Image, string, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("imaging: decode config: %w", err)
	}
	if px := int64(cfg.Width) * int64(cfg.Height); px > MaxPixels {
		return nil, "", fmt.Errorf("%w: %dx%d", ErrTooLarge, cfg.Width, cfg.Height)
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("imaging: decode: %w", err)
	}
	return img, format, nil
}

// Dimensions returns the pixel size of an encoded image without decoding
// the pixel data.
func Dimensions(data []byte) (width, height int, err error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("imaging: decode config: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}

// fit scales w×h down, preserving aspect ratio, so that neither side exceeds
// limit. Images already within bounds are left at their size.
func fit(w, h, limit int) (int, int) {
	longest := w
	if h > longest {
		longest = h
	}
	if longest <= limit {
		return w, h
	}
	nw := w * limit / longest
	nh := h * limit / longest
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}
	return nw, nh
}
