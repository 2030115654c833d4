// Package message defines the clipstash local protocol.
//
// All messages are newline-delimited JSON. Entry data is always
// base64-encoded so that images are safe to embed in JSON strings.
// Each message is exactly one line: <json>\n
//
// A client sends one request (LIST, COPY, DELETE, CLEAR, EXPORT, IMPORT,
// STATUS) and the daemon answers with RESULT or ERROR.
package message

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"go.klb.dev/clipstash/internal/history"
)

// Type identifies the kind of message.
type Type string

const (
	TypeList   Type = "LIST"
	TypeCopy   Type = "COPY"
	TypeDelete Type = "DELETE"
	TypeClear  Type = "CLEAR"
	TypeExport Type = "EXPORT"
	TypeImport Type = "IMPORT"
	TypeStatus Type = "STATUS"
	TypeResult Type = "RESULT"
	TypeError  Type = "ERROR"
)

// Item is one history entry on the wire. Data is always base64-encoded.
type Item struct {
	ID        string       `json:"id"`
	Kind      history.Kind `json:"type"`
	Data      string       `json:"data"`
	Size      int          `json:"size"`
	Timestamp time.Time    `json:"timestamp"`
}

// NewItem converts a history entry.
func NewItem(e history.Entry) Item {
	var raw []byte
	if e.Payload.Kind == history.KindImage {
		raw = e.Payload.Image
	} else {
		raw = []byte(e.Payload.Text)
	}
	return Item{
		ID:        e.ID,
		Kind:      e.Payload.Kind,
		Data:      base64.StdEncoding.EncodeToString(raw),
		Size:      len(raw),
		Timestamp: e.Timestamp,
	}
}

// NewItems converts a history snapshot, preserving order.
func NewItems(entries []history.Entry) []Item {
	items := make([]Item, len(entries))
	for i, e := range entries {
		items[i] = NewItem(e)
	}
	return items
}

// Decode returns the raw bytes of the item payload.
func (it Item) Decode() ([]byte, error) {
	return base64.StdEncoding.DecodeString(it.Data)
}

// Entry converts the item back into a history entry.
func (it Item) Entry() (history.Entry, error) {
	raw, err := it.Decode()
	if err != nil {
		return history.Entry{}, fmt.Errorf("item %s: %w", it.ID, err)
	}
	var p history.Payload
	switch it.Kind {
	case history.KindText:
		p = history.TextPayload(string(raw))
	case history.KindImage:
		p = history.ImagePayload(raw)
	default:
		return history.Entry{}, fmt.Errorf("item %s: unknown type %q", it.ID, it.Kind)
	}
	return history.Entry{
		ID:          it.ID,
		Payload:     p,
		Fingerprint: p.Fingerprint(),
		Timestamp:   it.Timestamp,
	}, nil
}

// Message is the top-level wire envelope.
type Message struct {
	// Always present
	Type Type `json:"type"`

	// COPY, DELETE
	ID string `json:"id,omitempty"`

	// EXPORT, IMPORT
	Path string `json:"path,omitempty"`
	Mode string `json:"mode,omitempty"`

	// RESULT
	OK      bool            `json:"ok,omitempty"`
	Message string          `json:"message,omitempty"`
	Items   []Item          `json:"items,omitempty"`
	Summary json.RawMessage `json:"summary,omitempty"`
	Status  json.RawMessage `json:"status,omitempty"`

	// ERROR
	Error string `json:"error,omitempty"`
}

// Encode serialises the message to JSON without a trailing newline.
func (m *Message) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// Decode deserialises a message from raw JSON bytes.
func Decode(b []byte) (*Message, error) {
	var m Message
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("message decode: %w", err)
	}
	return &m, nil
}

// Errorf builds an ERROR reply.
func Errorf(format string, args ...any) *Message {
	return &Message{Type: TypeError, Error: fmt.Sprintf(format, args...)}
}

// Err returns the ERROR text as an error, or nil for any other type.
func (m *Message) Err() error {
	if m.Type != TypeError {
		return nil
	}
	return fmt.Errorf("daemon: %s", m.Error)
}
