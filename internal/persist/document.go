// Package persist reads and writes the history document: a JSON array of
// {content, timestamp} records, most recent first.
//
//	[
//	  {
//	    "content": {"type": "text", "data": "hello"},
//	    "timestamp": "2025-06-18T10:22:31+0700"
//	  },
//	  {
//	    "content": {"type": "image", "data": "<base64>"},
//	    "timestamp": "2025-06-18T10:20:02+0700"
//	  }
//	]
//
// The timestamp layout is a compatibility contract: every exporter writes it
// and every importer parses exactly it. A record that fails to decode
// rejects the whole document.
package persist

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"go.klb.dev/clipstash/internal/history"
)

// TimeLayout is the persisted timestamp format (yyyy-MM-dd'T'HH:mm:ssZ).
const TimeLayout = "2006-01-02T15:04:05-0700"

// ErrIO marks filesystem failures.
var ErrIO = errors.New("i/o error")

// DecodeError reports a document that could not be decoded.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Path == "" {
		return "decode history: " + e.Err.Error()
	}
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

type content struct {
	Type history.Kind `json:"type"`
	Data string       `json:"data"`
}

type record struct {
	Content   content   `json:"content"`
	Timestamp timestamp `json:"timestamp"`
}

// timestamp marshals a time.Time in TimeLayout.
type timestamp struct{ time.Time }

func (t timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Local().Format(TimeLayout))
}

func (t *timestamp) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	parsed, err := time.Parse(TimeLayout, s)
	if err != nil {
		return fmt.Errorf("invalid date format %q", s)
	}
	t.Time = parsed
	return nil
}

// Encode writes entries to w in document order (head first), indented for
// readable diffs.
func Encode(w io.Writer, entries []history.Entry) error {
	records := make([]record, len(entries))
	for i, e := range entries {
		c := content{Type: e.Payload.Kind}
		switch e.Payload.Kind {
		case history.KindText:
			c.Data = e.Payload.Text
		case history.KindImage:
			c.Data = base64.StdEncoding.EncodeToString(e.Payload.Image)
		default:
			return fmt.Errorf("encode entry %s: unknown content type %q", e.ID, e.Payload.Kind)
		}
		records[i] = record{Content: c, Timestamp: timestamp{e.Timestamp}}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(records)
}

// Decode parses a document. Returned entries carry no ID; they are ordered
// as in the document. Any malformed record fails the whole decode.
func Decode(r io.Reader) ([]history.Entry, error) {
	var records []record
	dec := json.NewDecoder(r)
	if err := dec.Decode(&records); err != nil {
		return nil, &DecodeError{Err: err}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		if err == nil {
			err = errors.New("unexpected data after document")
		}
		return nil, &DecodeError{Err: err}
	}

	entries := make([]history.Entry, 0, len(records))
	for i, rec := range records {
		var p history.Payload
		switch rec.Content.Type {
		case history.KindText:
			p = history.TextPayload(rec.Content.Data)
		case history.KindImage:
			data, err := base64.StdEncoding.DecodeString(rec.Content.Data)
			if err != nil {
				return nil, &DecodeError{Err: fmt.Errorf("record %d: image data: %w", i, err)}
			}
			if len(data) == 0 {
				return nil, &DecodeError{Err: fmt.Errorf("record %d: empty image", i)}
			}
			p = history.ImagePayload(data)
		default:
			return nil, &DecodeError{Err: fmt.Errorf("record %d: unknown type %q", i, rec.Content.Type)}
		}
		if rec.Timestamp.IsZero() {
			return nil, &DecodeError{Err: fmt.Errorf("record %d: missing timestamp", i)}
		}
		entries = append(entries, history.Entry{Payload: p, Timestamp: rec.Timestamp.Time})
	}
	return entries, nil
}

// SortByRecency orders entries most recent first. Entries with equal
// timestamps keep their document order.
func SortByRecency(entries []history.Entry) []history.Entry {
	slices.SortStableFunc(entries, func(a, b history.Entry) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	return entries
}
