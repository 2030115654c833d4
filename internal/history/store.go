// Package history implements the bounded, deduplicated, recency-ordered
// clipboard history.
//
// The head of the collection (index 0) is the most recently touched entry.
// No two live entries share a Fingerprint: ingesting content that is already
// present moves the existing entry to the head and refreshes its timestamp
// instead of creating a duplicate. Whenever the collection grows past its
// capacity the least recently touched entries are evicted from the tail.
package history

import (
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultCapacity is the number of entries kept when no capacity is configured.
const DefaultCapacity = 30

// ErrNotFound is returned when an entry ID is not present in the history.
var ErrNotFound = errors.New("history entry not found")

// Entry is a single item of clipboard history.
type Entry struct {
	ID          string
	Payload     Payload
	Fingerprint Fingerprint
	// Timestamp is the last time the entry was touched: its creation, or the
	// most recent re-copy.
	Timestamp time.Time
}

func (e Entry) clone() Entry {
	e.Payload = e.Payload.clone()
	return e
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for entry timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides how entry IDs are minted.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// Store is the in-memory clipboard history. It is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	entries  []Entry // head first
	capacity int

	now   func() time.Time
	newID func() string
}

// New returns an empty Store bounded to capacity entries. A capacity <= 0
// selects DefaultCapacity.
func New(capacity int, opts ...Option) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	s := &Store{
		capacity: capacity,
		now:      time.Now,
		newID:    func() string { return uuid.Must(uuid.NewV7()).String() },
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Capacity returns the maximum number of entries kept.
func (s *Store) Capacity() int { return s.capacity }

// Len returns the number of live entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// stamp returns the current time at the resolution of the persisted format,
// so that a saved history reloads with identical timestamps.
func (s *Store) stamp() time.Time {
	return s.now().Truncate(time.Second)
}

// Ingest records p as the most recently touched entry and returns its ID.
//
// If an entry with the same fingerprint exists anywhere in the history it is
// moved to the head and its timestamp refreshed; otherwise a new entry is
// created at the head. The tail is then trimmed to capacity.
func (s *Store) Ingest(p Payload) string {
	fp := p.Fingerprint()

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.stamp()
	if i := s.indexByFingerprintLocked(fp); i >= 0 {
		e := s.entries[i]
		e.Timestamp = now
		s.entries = slices.Delete(s.entries, i, i+1)
		s.entries = slices.Insert(s.entries, 0, e)
		return e.ID
	}

	e := Entry{
		ID:          s.newID(),
		Payload:     p.clone(),
		Fingerprint: fp,
		Timestamp:   now,
	}
	s.entries = slices.Insert(s.entries, 0, e)
	s.trimLocked()
	return e.ID
}

// Delete removes the entry with the given ID. The order of the remaining
// entries is unchanged.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexByIDLocked(id)
	if i < 0 {
		return ErrNotFound
	}
	s.entries = slices.Delete(s.entries, i, i+1)
	return nil
}

// Copy returns the payload of the entry with the given ID without changing
// the history. Callers that write the payload back to the clipboard are
// expected to Ingest it afterwards so the entry moves to the head.
func (s *Store) Copy(id string) (Payload, error) {
	e, err := s.Get(id)
	if err != nil {
		return Payload{}, err
	}
	return e.Payload, nil
}

// Get returns a copy of the entry with the given ID.
func (s *Store) Get(id string) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexByIDLocked(id)
	if i < 0 {
		return Entry{}, ErrNotFound
	}
	return s.entries[i].clone(), nil
}

// Snapshot returns a copy of all entries, head first.
func (s *Store) Snapshot() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.clone()
	}
	return out
}

// Clear removes every entry.
func (s *Store) Clear() {
	s.mu.Lock()
	s.entries = nil
	s.mu.Unlock()
}

// Replace discards the current history and installs entries instead.
// Entries are ordered by timestamp (most recent first, ties keep their input
// order), duplicates by fingerprint are collapsed onto the most recent one,
// the result is truncated to capacity and every entry receives a fresh ID.
func (s *Store) Replace(entries []Entry) {
	prepared := s.prepare(entries)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = dedupe(prepared)
	s.trimLocked()
}

// Merge folds entries into the current history and returns how many of them
// were added and survived truncation.
//
// An incoming entry whose fingerprint is already present is not added; the
// existing entry keeps the later of the two timestamps. The combined history
// is re-ordered by timestamp and truncated to capacity.
func (s *Store) Merge(entries []Entry) int {
	incoming := s.prepare(entries)

	s.mu.Lock()
	defer s.mu.Unlock()

	byFP := make(map[Fingerprint]int, len(s.entries)+len(incoming))
	combined := make([]Entry, 0, len(s.entries)+len(incoming))
	for _, e := range s.entries {
		byFP[e.Fingerprint] = len(combined)
		combined = append(combined, e)
	}

	added := make(map[string]struct{})
	for _, e := range incoming {
		if i, ok := byFP[e.Fingerprint]; ok {
			if e.Timestamp.After(combined[i].Timestamp) {
				combined[i].Timestamp = e.Timestamp
			}
			continue
		}
		byFP[e.Fingerprint] = len(combined)
		combined = append(combined, e)
		added[e.ID] = struct{}{}
	}

	sortByRecency(combined)
	s.entries = combined
	s.trimLocked()

	n := 0
	for _, e := range s.entries {
		if _, ok := added[e.ID]; ok {
			n++
		}
	}
	return n
}

// prepare copies entries, assigns fresh IDs and fingerprints, and sorts them
// most recent first.
func (s *Store) prepare(entries []Entry) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if !e.Payload.Valid() {
			continue
		}
		e = e.clone()
		e.ID = s.newID()
		e.Fingerprint = e.Payload.Fingerprint()
		out = append(out, e)
	}
	sortByRecency(out)
	return out
}

func (s *Store) trimLocked() {
	if len(s.entries) > s.capacity {
		clear(s.entries[s.capacity:])
		s.entries = s.entries[:s.capacity]
	}
}

func (s *Store) indexByIDLocked(id string) int {
	return slices.IndexFunc(s.entries, func(e Entry) bool { return e.ID == id })
}

func (s *Store) indexByFingerprintLocked(fp Fingerprint) int {
	return slices.IndexFunc(s.entries, func(e Entry) bool { return e.Fingerprint == fp })
}

// sortByRecency orders entries most recent first. The sort is stable so
// entries sharing a timestamp keep their relative order.
func sortByRecency(entries []Entry) {
	slices.SortStableFunc(entries, func(a, b Entry) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
}

// dedupe keeps the first entry for every fingerprint. entries must already
// be ordered most recent first.
func dedupe(entries []Entry) []Entry {
	seen := make(map[Fingerprint]struct{}, len(entries))
	out := entries[:0]
	for _, e := range entries {
		if _, ok := seen[e.Fingerprint]; ok {
			continue
		}
		seen[e.Fingerprint] = struct{}{}
		out = append(out, e)
	}
	return out
}
