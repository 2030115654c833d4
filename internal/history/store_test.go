package history

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock hands out strictly increasing times one second apart.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func newTestStore(t *testing.T, capacity int) (*Store, *fakeClock) {
	t.Helper()
	clk := &fakeClock{t: time.Date(2025, 6, 18, 10, 0, 0, 0, time.UTC)}
	n := 0
	s := New(capacity,
		WithClock(clk.now),
		WithIDGenerator(func() string { n++; return fmt.Sprintf("id-%d", n) }),
	)
	return s, clk
}

func texts(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Payload.Text
	}
	return out
}

func TestIngestDistinct(t *testing.T) {
	s, _ := newTestStore(t, 0)
	s.Ingest(TextPayload("first"))
	s.Ingest(TextPayload("second"))

	snap := s.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, []string{"second", "first"}, texts(snap))
}

func TestIngestSamePayloadRefreshes(t *testing.T) {
	s, clk := newTestStore(t, 0)
	id1 := s.Ingest(TextPayload("same"))
	id2 := s.Ingest(TextPayload("same"))

	assert.Equal(t, id1, id2)
	snap := s.Snapshot()
	require.Len(t, snap, 1)
	assert.True(t, snap[0].Timestamp.Equal(clk.t), "timestamp should be the second ingest time")
}

func TestIngestMovesExistingToFront(t *testing.T) {
	s, _ := newTestStore(t, 0)
	a := s.Ingest(TextPayload("a"))
	s.Ingest(TextPayload("b"))
	s.Ingest(TextPayload("c"))

	got := s.Ingest(TextPayload("a"))
	assert.Equal(t, a, got)
	assert.Equal(t, []string{"a", "c", "b"}, texts(s.Snapshot()))
}

func TestIngestImageDedup(t *testing.T) {
	s, _ := newTestStore(t, 0)
	s.Ingest(ImagePayload([]byte{1, 2, 3}))
	s.Ingest(TextPayload("x"))
	s.Ingest(ImagePayload([]byte{1, 2, 3}))

	snap := s.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, KindImage, snap[0].Payload.Kind)
}

func TestTextAndImageWithSameBytesAreDistinct(t *testing.T) {
	s, _ := newTestStore(t, 0)
	s.Ingest(TextPayload("abc"))
	s.Ingest(ImagePayload([]byte("abc")))
	assert.Equal(t, 2, s.Len())
}

func TestEvictionDropsLeastRecentlyTouched(t *testing.T) {
	const n = 5
	s, _ := newTestStore(t, n)
	for i := 0; i <= n; i++ {
		s.Ingest(TextPayload(fmt.Sprintf("item-%d", i)))
	}

	snap := s.Snapshot()
	require.Len(t, snap, n)
	assert.Equal(t, "item-5", snap[0].Payload.Text)
	assert.NotContains(t, texts(snap), "item-0")
}

func TestEvictionRespectsRetouch(t *testing.T) {
	s, _ := newTestStore(t, 3)
	s.Ingest(TextPayload("a"))
	s.Ingest(TextPayload("b"))
	s.Ingest(TextPayload("c"))
	s.Ingest(TextPayload("a")) // a is now most recent; b is the tail
	s.Ingest(TextPayload("d"))

	assert.Equal(t, []string{"d", "a", "c"}, texts(s.Snapshot()))
}

func TestDelete(t *testing.T) {
	s, _ := newTestStore(t, 0)
	s.Ingest(TextPayload("a"))
	b := s.Ingest(TextPayload("b"))
	s.Ingest(TextPayload("c"))

	require.NoError(t, s.Delete(b))
	assert.Equal(t, []string{"c", "a"}, texts(s.Snapshot()))
}

func TestDeleteUnknown(t *testing.T) {
	s, _ := newTestStore(t, 0)
	s.Ingest(TextPayload("a"))
	before := s.Snapshot()

	err := s.Delete("missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, before, s.Snapshot())
}

func TestCopy(t *testing.T) {
	s, _ := newTestStore(t, 0)
	a := s.Ingest(TextPayload("a"))
	s.Ingest(TextPayload("b"))

	p, err := s.Copy(a)
	require.NoError(t, err)
	assert.Equal(t, "a", p.Text)
	// Copy alone does not reorder.
	assert.Equal(t, []string{"b", "a"}, texts(s.Snapshot()))

	// Re-ingesting the copied payload moves it to the front without duplicating.
	assert.Equal(t, a, s.Ingest(p))
	assert.Equal(t, []string{"a", "b"}, texts(s.Snapshot()))

	_, err = s.Copy("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSnapshotIsIsolated(t *testing.T) {
	s, _ := newTestStore(t, 0)
	s.Ingest(ImagePayload([]byte{9, 9}))
	snap := s.Snapshot()
	snap[0].Payload.Image[0] = 0

	assert.Equal(t, byte(9), s.Snapshot()[0].Payload.Image[0])
}

func TestReplace(t *testing.T) {
	s, _ := newTestStore(t, 2)
	s.Ingest(TextPayload("old"))

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.Replace([]Entry{
		{Payload: TextPayload("x"), Timestamp: base},
		{Payload: TextPayload("y"), Timestamp: base.Add(2 * time.Hour)},
		{Payload: TextPayload("x"), Timestamp: base.Add(time.Hour)},
		{Payload: TextPayload("z"), Timestamp: base.Add(-time.Hour)},
	})

	snap := s.Snapshot()
	assert.Equal(t, []string{"y", "x"}, texts(snap))
	assert.True(t, snap[1].Timestamp.Equal(base.Add(time.Hour)), "duplicate collapses onto most recent")
	assert.NotEmpty(t, snap[0].ID)
	assert.NotEqual(t, snap[0].ID, snap[1].ID)
}

func TestMerge(t *testing.T) {
	s, _ := newTestStore(t, 0)
	t1 := time.Date(2025, 6, 18, 9, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Minute)
	s.Replace([]Entry{{Payload: TextPayload("A"), Timestamp: t1}})

	added := s.Merge([]Entry{
		{Payload: TextPayload("A"), Timestamp: t1},
		{Payload: TextPayload("B"), Timestamp: t2},
	})

	assert.Equal(t, 1, added)
	snap := s.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, []string{"B", "A"}, texts(snap))
	assert.True(t, snap[1].Timestamp.Equal(t1))
}

func TestMergeKeepsLaterTimestampForDuplicate(t *testing.T) {
	s, _ := newTestStore(t, 0)
	t1 := time.Date(2025, 6, 18, 9, 0, 0, 0, time.UTC)
	s.Replace([]Entry{
		{Payload: TextPayload("A"), Timestamp: t1},
		{Payload: TextPayload("B"), Timestamp: t1.Add(time.Minute)},
	})

	added := s.Merge([]Entry{{Payload: TextPayload("A"), Timestamp: t1.Add(time.Hour)}})

	assert.Zero(t, added)
	snap := s.Snapshot()
	assert.Equal(t, []string{"A", "B"}, texts(snap))
	assert.True(t, snap[0].Timestamp.Equal(t1.Add(time.Hour)))
}

func TestMergeTruncates(t *testing.T) {
	s, _ := newTestStore(t, 2)
	base := time.Date(2025, 6, 18, 9, 0, 0, 0, time.UTC)
	s.Replace([]Entry{{Payload: TextPayload("new"), Timestamp: base.Add(time.Hour)}})

	added := s.Merge([]Entry{
		{Payload: TextPayload("older"), Timestamp: base},
		{Payload: TextPayload("oldest"), Timestamp: base.Add(-time.Hour)},
	})

	assert.Equal(t, 1, added)
	assert.Equal(t, []string{"new", "older"}, texts(s.Snapshot()))
}

func TestReplaceSkipsInvalidPayloads(t *testing.T) {
	s, _ := newTestStore(t, 0)
	s.Replace([]Entry{
		{Payload: Payload{Kind: "audio"}},
		{Payload: ImagePayload(nil)},
		{Payload: TextPayload("ok")},
	})
	assert.Equal(t, []string{"ok"}, texts(s.Snapshot()))
}

func TestTimestampsTruncatedToSeconds(t *testing.T) {
	at := time.Date(2025, 6, 18, 10, 22, 31, 987654321, time.UTC)
	s := New(0, WithClock(func() time.Time { return at }))
	s.Ingest(TextPayload("x"))
	assert.Zero(t, s.Snapshot()[0].Timestamp.Nanosecond())
}

func TestDefaultIDsAreUnique(t *testing.T) {
	s := New(0)
	a := s.Ingest(TextPayload("a"))
	b := s.Ingest(TextPayload("b"))
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 36)
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "héllo", Preview("héllo", 10))
	assert.Equal(t, "hé…", Preview("héllo", 2))
}
