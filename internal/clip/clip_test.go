package clip

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryTokenAdvancesOnEveryWrite(t *testing.T) {
	m := NewMemory()
	t0 := m.ReadChangeToken()

	m.SetText("a")
	t1 := m.ReadChangeToken()
	assert.NotEqual(t, t0, t1)

	require.NoError(t, m.WriteText("a"))
	assert.NotEqual(t, t1, m.ReadChangeToken(), "writing identical content still changes the token")
	assert.Equal(t, 1, m.Writes())
}

func TestMemoryHoldsOneKind(t *testing.T) {
	m := NewMemory()
	m.SetText("hello")
	text, ok := m.ReadText()
	assert.True(t, ok)
	assert.Equal(t, "hello", text)
	_, ok = m.ReadImage()
	assert.False(t, ok)

	m.SetImage([]byte{1, 2})
	_, ok = m.ReadText()
	assert.False(t, ok)
	img, ok := m.ReadImage()
	assert.True(t, ok)
	assert.Equal(t, []byte{1, 2}, img)
}

func TestDigestToken(t *testing.T) {
	var d digestToken
	a := d.observe([]byte("x"), nil)
	assert.Equal(t, a, d.observe([]byte("x"), nil))

	b := d.observe([]byte("y"), nil)
	assert.NotEqual(t, a, b)

	d.wrote([]byte("y"), nil)
	c := d.observe([]byte("y"), nil)
	assert.NotEqual(t, b, c, "own write advances the token even when contents match")
	assert.Equal(t, c, d.observe([]byte("y"), nil))
}

func TestDigestDistinguishesPartBoundaries(t *testing.T) {
	assert.NotEqual(t, digestOf([]byte("ab"), nil), digestOf([]byte("a"), []byte("b")))
}

func TestOpen(t *testing.T) {
	b, err := Open("memory")
	require.NoError(t, err)
	assert.Equal(t, "in-memory", b.Name())

	b, err = Open("headless")
	require.NoError(t, err)
	assert.Equal(t, int64(0), b.ReadChangeToken())

	_, err = Open("carrier-pigeon")
	assert.Error(t, err)
}

func TestOpenDetachedNamedBackends(t *testing.T) {
	b, err := OpenDetached("memory")
	require.NoError(t, err)
	assert.Equal(t, "in-memory", b.Name())

	_, err = OpenDetached("carrier-pigeon")
	assert.Error(t, err)
}
