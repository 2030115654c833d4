package history

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Kind identifies which variant of a Payload is populated.
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
)

// Payload is the content of a history entry: either text or an encoded image.
// Exactly one of Text or Image is meaningful, selected by Kind.
type Payload struct {
	Kind  Kind
	Text  string
	Image []byte
}

// TextPayload returns a text Payload.
func TextPayload(s string) Payload {
	return Payload{Kind: KindText, Text: s}
}

// ImagePayload returns an image Payload. data should already be in its
// normalized encoded form (see package imaging).
func ImagePayload(data []byte) Payload {
	return Payload{Kind: KindImage, Image: data}
}

// Valid reports whether p is a well-formed text or image payload.
func (p Payload) Valid() bool {
	switch p.Kind {
	case KindText:
		return p.Image == nil
	case KindImage:
		return len(p.Image) > 0 && p.Text == ""
	default:
		return false
	}
}

// Equal reports whether p and o carry the same content.
func (p Payload) Equal(o Payload) bool {
	if p.Kind != o.Kind {
		return false
	}
	if p.Kind == KindImage {
		return bytes.Equal(p.Image, o.Image)
	}
	return p.Text == o.Text
}

// Size returns the payload length in bytes.
func (p Payload) Size() int {
	if p.Kind == KindImage {
		return len(p.Image)
	}
	return len(p.Text)
}

// clone returns a deep copy so that callers never share the image buffer
// owned by the store.
func (p Payload) clone() Payload {
	if p.Image != nil {
		p.Image = bytes.Clone(p.Image)
	}
	return p
}

func (p Payload) String() string {
	if p.Kind == KindImage {
		return fmt.Sprintf("image(%d bytes)", len(p.Image))
	}
	return fmt.Sprintf("text(%d bytes)", len(p.Text))
}

// Fingerprint is the content identity used for deduplication. Two payloads
// have the same fingerprint iff they have the same kind and identical bytes.
type Fingerprint [sha256.Size]byte

// Fingerprint derives the identity of p. The kind is mixed into the digest
// so a text payload never collides with an image holding the same bytes.
func (p Payload) Fingerprint() Fingerprint {
	h := sha256.New()
	h.Write([]byte(p.Kind))
	h.Write([]byte{0})
	if p.Kind == KindImage {
		h.Write(p.Image)
	} else {
		h.Write([]byte(p.Text))
	}
	var fp Fingerprint
	copy(fp[:], h.Sum(nil))
	return fp
}

func (f Fingerprint) String() string { return hex.EncodeToString(f[:8]) }
