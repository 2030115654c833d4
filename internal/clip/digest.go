package clip

import (
	"crypto/sha256"
	"sync"
)

// digestToken synthesizes a change token on platforms that do not expose
// one. Each observation hashes the current contents; the token advances
// whenever the hash differs from the previous observation, and on every
// write made through the backend even if the contents are unchanged.
type digestToken struct {
	mu    sync.Mutex
	last  [sha256.Size]byte
	token int64
}

func digestOf(parts ...[]byte) [sha256.Size]byte {
	h := sha256.New()
	for _, p := range parts {
		var n [8]byte
		l := len(p)
		for i := range n {
			n[i] = byte(l >> (8 * i))
		}
		h.Write(n[:])
		h.Write(p)
	}
	var d [sha256.Size]byte
	copy(d[:], h.Sum(nil))
	return d
}

// observe records the current contents and returns the token.
func (d *digestToken) observe(parts ...[]byte) int64 {
	sum := digestOf(parts...)
	d.mu.Lock()
	defer d.mu.Unlock()
	if sum != d.last {
		d.last = sum
		d.token++
	}
	return d.token
}

// wrote records a write made through the backend.
func (d *digestToken) wrote(parts ...[]byte) {
	sum := digestOf(parts...)
	d.mu.Lock()
	d.last = sum
	d.token++
	d.mu.Unlock()
}
