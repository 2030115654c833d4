package imaging

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestNormalizeBoundsDimensions(t *testing.T) {
	src := pngBytes(t, 2000, 500, color.NRGBA{R: 200, A: 255})

	out, err := Normalize(src, Options{})
	require.NoError(t, err)

	w, h, err := Dimensions(out)
	require.NoError(t, err)
	assert.Equal(t, 1000, w)
	assert.Equal(t, 250, h)

	_, format, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
}

func TestNormalizeKeepsSmallImages(t *testing.T) {
	src := pngBytes(t, 40, 30, color.NRGBA{G: 255, A: 255})

	out, err := Normalize(src, Options{})
	require.NoError(t, err)

	w, h, err := Dimensions(out)
	require.NoError(t, err)
	assert.Equal(t, 40, w)
	assert.Equal(t, 30, h)
}

func TestNormalizeIsDeterministic(t *testing.T) {
	src := pngBytes(t, 1200, 1200, color.NRGBA{B: 180, A: 128})

	a, err := Normalize(src, Options{})
	require.NoError(t, err)
	b, err := Normalize(src, Options{})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestNormalizeDistinguishesContent(t *testing.T) {
	a, err := Normalize(pngBytes(t, 20, 20, color.Black), Options{})
	require.NoError(t, err)
	b, err := Normalize(pngBytes(t, 20, 20, color.White), Options{})
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestNormalizeFlattensTransparencyOntoWhite(t *testing.T) {
	out, err := Normalize(pngBytes(t, 8, 8, color.NRGBA{}), Options{})
	require.NoError(t, err)

	img, _, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	r, g, b, _ := img.At(4, 4).RGBA()
	assert.Greater(t, r, uint32(0xf000))
	assert.Greater(t, g, uint32(0xf000))
	assert.Greater(t, b, uint32(0xf000))
}

func TestNormalizeRejectsGarbage(t *testing.T) {
	_, err := Normalize([]byte("not an image"), Options{})
	assert.Error(t, err)

	_, err = Normalize(nil, Options{})
	assert.ErrorIs(t, err, ErrEmpty)
}

// forgeSize rewrites the IHDR of a PNG to claim w×h pixels.
func forgeSize(t *testing.T, data []byte, w, h uint32) []byte {
	t.Helper()
	require.Equal(t, "IHDR", string(data[12:16]))
	out := bytes.Clone(data)
	binary.BigEndian.PutUint32(out[16:20], w)
	binary.BigEndian.PutUint32(out[20:24], h)
	binary.BigEndian.PutUint32(out[29:33], crc32.ChecksumIEEE(out[12:29]))
	return out
}

func TestNormalizeRejectsOversizedHeader(t *testing.T) {
	huge := forgeSize(t, pngBytes(t, 4, 4, color.Black), 100_000, 100_000)

	w, h, err := Dimensions(huge)
	require.NoError(t, err)
	assert.Equal(t, 100_000, w)
	assert.Equal(t, 100_000, h)

	_, err = Normalize(huge, Options{})
	require.ErrorIs(t, err, ErrTooLarge)

	_, err = ToPNG(huge)
	require.ErrorIs(t, err, ErrTooLarge)
}

func TestToPNG(t *testing.T) {
	src := pngBytes(t, 10, 10, color.White)
	out, err := ToPNG(src)
	require.NoError(t, err)
	assert.Equal(t, src, out)

	jpg, err := Normalize(src, Options{})
	require.NoError(t, err)
	out, err = ToPNG(jpg)
	require.NoError(t, err)
	_, format, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
}

func TestFit(t *testing.T) {
	tests := []struct {
		w, h, limit int
		ww, wh      int
	}{
		{100, 50, 1000, 100, 50},
		{3000, 1500, 1000, 1000, 500},
		{500, 4000, 1000, 125, 1000},
		{5000, 1, 1000, 1000, 1},
	}
	for _, tt := range tests {
		w, h := fit(tt.w, tt.h, tt.limit)
		assert.Equal(t, tt.ww, w, "%dx%d", tt.w, tt.h)
		assert.Equal(t, tt.wh, h, "%dx%d", tt.w, tt.h)
	}
}
