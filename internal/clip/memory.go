package clip

import (
	"bytes"
	"sync"
)

// Memory is an in-process clipboard. It behaves like a system clipboard that
// holds either text or an image and bumps its change token on every write.
// It backs tests and the "memory" backend used when no display is wanted.
type Memory struct {
	mu     sync.Mutex
	token  int64
	text   *string
	image  []byte
	writes int
}

// NewMemory returns an empty in-process clipboard.
func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Name() string { return "in-memory" }

func (m *Memory) ReadChangeToken() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

func (m *Memory) ReadText() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.text == nil {
		return "", false
	}
	return *m.text, true
}

func (m *Memory) ReadImage() ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.image == nil {
		return nil, false
	}
	return bytes.Clone(m.image), true
}

func (m *Memory) WriteText(text string) error {
	m.mu.Lock()
	m.writes++
	m.mu.Unlock()
	m.SetText(text)
	return nil
}

func (m *Memory) WriteImage(data []byte) error {
	m.mu.Lock()
	m.writes++
	m.mu.Unlock()
	m.SetImage(data)
	return nil
}

func (m *Memory) Close() {}

// SetText simulates another application copying text.
func (m *Memory) SetText(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = &text
	m.image = nil
	m.token++
}

// SetImage simulates another application copying an image.
func (m *Memory) SetImage(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = nil
	m.image = bytes.Clone(data)
	m.token++
}

// Writes returns how many times WriteText or WriteImage was called.
func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}
