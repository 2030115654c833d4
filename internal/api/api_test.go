package api

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.klb.dev/clipstash/internal/clip"
	"go.klb.dev/clipstash/internal/engine"
	"go.klb.dev/clipstash/internal/history"
	"go.klb.dev/clipstash/internal/message"
	"go.klb.dev/clipstash/internal/paths"
	"go.klb.dev/clipstash/internal/wire"
)

func newEngine(t *testing.T, texts ...string) (*engine.Engine, *clip.Memory) {
	t.Helper()
	mem := clip.NewMemory()
	e := engine.New(engine.Config{Backend: mem, Paths: paths.New(t.TempDir())})
	for _, s := range texts {
		require.True(t, e.Ingest(history.TextPayload(s)).OK)
	}
	return e, mem
}

func TestHTTPListEntries(t *testing.T) {
	e, _ := newEngine(t, "a", "b")
	ts := httptest.NewServer(New(e).Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/entries")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var items []message.Item
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&items))
	require.Len(t, items, 2)
	raw, err := items[0].Decode()
	require.NoError(t, err)
	assert.Equal(t, "b", string(raw))
	assert.Equal(t, history.KindText, items[0].Kind)
}

func TestHTTPCopyAndDelete(t *testing.T) {
	e, mem := newEngine(t, "a", "b")
	ts := httptest.NewServer(New(e).Handler())
	defer ts.Close()

	older := e.Snapshot()[1].ID
	resp, err := http.Post(ts.URL+"/entries/"+older+"/copy", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	text, ok := mem.ReadText()
	require.True(t, ok)
	assert.Equal(t, "a", text)
	assert.Equal(t, "a", e.Snapshot()[0].Payload.Text)

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/entries/nope", nil)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	req, _ = http.NewRequest(http.MethodDelete, ts.URL+"/entries/"+older, nil)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, e.Snapshot(), 1)
}

func TestHTTPClear(t *testing.T) {
	e, _ := newEngine(t, "a", "b")
	ts := httptest.NewServer(New(e).Handler())
	defer ts.Close()

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/entries", nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, e.Snapshot())
}

func TestHTTPExportImport(t *testing.T) {
	e, _ := newEngine(t, "a", "b")
	ts := httptest.NewServer(New(e).Handler())
	defer ts.Close()

	dst := filepath.Join(t.TempDir(), "out.json")
	resp, err := http.Post(ts.URL+"/export", "application/json", strings.NewReader(`{"path":"`+dst+`"}`))
	require.NoError(t, err)
	var res engine.Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	resp.Body.Close()
	assert.True(t, res.OK)
	assert.Equal(t, "export", res.Op)

	other, _ := newEngine(t, "c")
	ts2 := httptest.NewServer(New(other).Handler())
	defer ts2.Close()

	resp, err = http.Post(ts2.URL+"/import", "application/json", strings.NewReader(`{"path":"`+dst+`","mode":"merge"}`))
	require.NoError(t, err)
	res = engine.Result{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	resp.Body.Close()
	require.True(t, res.OK, res.Message)
	require.NotNil(t, res.Summary)
	assert.Equal(t, 2, res.Summary.Added)
	assert.Len(t, other.Snapshot(), 3)
}

func TestHTTPErrorStatus(t *testing.T) {
	e, _ := newEngine(t)
	ts := httptest.NewServer(New(e).Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/export", "application/json", strings.NewReader(`{"path":""}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o600))
	resp, err = http.Post(ts.URL+"/import", "application/json", strings.NewReader(`{"path":"`+bad+`"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, err = http.Post(ts.URL+"/import", "application/json", strings.NewReader(`{"path":"x","mode":"append"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHTTPStatus(t *testing.T) {
	e, _ := newEngine(t, "a")
	ts := httptest.NewServer(New(e).Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/status")
	require.NoError(t, err)
	defer resp.Body.Close()

	var st engine.Status
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	assert.Equal(t, 1, st.Entries)
	assert.Equal(t, "in-memory", st.Backend)
}

func TestDispatch(t *testing.T) {
	e, _ := newEngine(t, "a")
	s := New(e)

	resp := s.Dispatch(&message.Message{Type: message.TypeList})
	assert.Equal(t, message.TypeResult, resp.Type)
	require.Len(t, resp.Items, 1)

	resp = s.Dispatch(&message.Message{Type: message.TypeDelete, ID: "missing"})
	assert.Equal(t, message.TypeError, resp.Type)
	assert.Contains(t, resp.Error, "No item found with ID missing")
	require.Error(t, resp.Err())

	resp = s.Dispatch(&message.Message{Type: message.TypeImport, Mode: "sideways"})
	assert.Equal(t, message.TypeError, resp.Type)

	resp = s.Dispatch(&message.Message{Type: message.TypeExport})
	assert.Equal(t, "No file selected for export", resp.Error)
	assert.Equal(t, message.TypeError, resp.Type)

	resp = s.Dispatch(&message.Message{Type: "PING"})
	assert.Equal(t, message.TypeError, resp.Type)
}

func TestDispatchAcceptsPositions(t *testing.T) {
	e, mem := newEngine(t, "oldest", "middle", "newest")
	s := New(e)

	resp := s.Dispatch(&message.Message{Type: message.TypeCopy, ID: "3"})
	require.Equal(t, message.TypeResult, resp.Type, resp.Error)
	text, ok := mem.ReadText()
	require.True(t, ok)
	assert.Equal(t, "oldest", text)

	resp = s.Dispatch(&message.Message{Type: message.TypeDelete, ID: "1"})
	require.Equal(t, message.TypeResult, resp.Type, resp.Error)
	assert.Len(t, e.Snapshot(), 2)

	resp = s.Dispatch(&message.Message{Type: message.TypeDelete, ID: "9"})
	assert.Equal(t, message.TypeError, resp.Type)
}

func TestServeSharesListener(t *testing.T) {
	e, _ := newEngine(t, "shared")
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- New(e).Serve(ctx, ln) }()

	// NDJSON
	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	wc := wire.New(conn)
	resp, err := wc.RoundTrip(&message.Message{Type: message.TypeList})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)

	resp, err = wc.RoundTrip(&message.Message{Type: message.TypeStatus})
	require.NoError(t, err)
	var st engine.Status
	require.NoError(t, json.Unmarshal(resp.Status, &st))
	assert.Equal(t, 1, st.Entries)
	require.NoError(t, wc.Close())

	// HTTP on the same listener
	httpResp, err := http.Get("http://" + ln.Addr().String() + "/status")
	require.NoError(t, err)
	httpResp.Body.Close()
	assert.Equal(t, http.StatusOK, httpResp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Serve did not return")
	}
}

func TestServeClosesIdleConnectionsOnShutdown(t *testing.T) {
	e, _ := newEngine(t, "idle")
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- New(e).Serve(ctx, ln) }()

	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	wc := wire.New(conn)
	defer wc.Close()
	_, err = wc.RoundTrip(&message.Message{Type: message.TypeList})
	require.NoError(t, err)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(idleTimeout / 3):
		t.Fatal("Serve waited on an idle connection")
	}

	_, err = wc.ReadMsg()
	assert.Error(t, err)
}
