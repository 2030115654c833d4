// Package monitor polls the clipboard change token and hands externally
// made changes to a Handler, while ignoring the changes the engine causes
// itself.
//
// The loop has two states. In Idle, a token change means another
// application copied something: the contents are read and handed on. In
// Suppressing, the next token change is assumed to be the engine's own
// write: it becomes the new baseline and nothing is handed on. Suppressing
// is entered before the engine writes (see WriteGuarded) and is left only
// when a token change is actually observed, so it survives any number of
// quiet ticks.
package monitor

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.klb.dev/clipstash/internal/clip"
	"go.klb.dev/clipstash/internal/history"
)

const (
	// DefaultInterval is the poll period used when none is configured.
	DefaultInterval = 500 * time.Millisecond
	// MinInterval is the fastest poll period accepted.
	MinInterval = 100 * time.Millisecond
)

// State is the suppression state of the loop.
type State int32

const (
	Idle State = iota
	Suppressing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Suppressing:
		return "suppressing"
	default:
		return "unknown"
	}
}

// Handler receives clipboard contents that changed outside the engine.
// Image payloads carry the raw clipboard bytes.
type Handler func(ctx context.Context, p history.Payload) error

// Options tunes the loop.
type Options struct {
	// Interval is the polling period. Default: 500ms, minimum 100ms.
	Interval time.Duration
	// Logger overrides the default slog logger.
	Logger *slog.Logger
}

func (o *Options) defaults() {
	if o.Interval <= 0 {
		o.Interval = DefaultInterval
	}
	if o.Interval < MinInterval {
		o.Interval = MinInterval
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// Stats are point-in-time counters.
type Stats struct {
	Ticks      int64     `json:"ticks"`
	Changes    int64     `json:"changes"`
	Suppressed int64     `json:"suppressed"`
	Ingested   int64     `json:"ingested"`
	Errors     int64     `json:"errors"`
	LastChange time.Time `json:"last_change,omitzero"`
	State      string    `json:"state"`
}

// Loop is the clipboard polling state machine. It is safe for concurrent use.
type Loop struct {
	backend clip.Backend
	handle  Handler
	opts    Options

	// mu guards the state machine. It is held across a guarded write so
	// that a tick can never observe the token between entering
	// Suppressing and the write landing.
	mu       sync.Mutex
	state    State
	baseline int64
	primed   bool

	ticks      atomic.Int64
	changes    atomic.Int64
	suppressed atomic.Int64
	ingested   atomic.Int64
	errors     atomic.Int64
	lastChange atomic.Int64 // UnixNano
}

// New returns a Loop reading from backend and delivering to handle.
func New(backend clip.Backend, handle Handler, opts Options) *Loop {
	opts.defaults()
	return &Loop{backend: backend, handle: handle, opts: opts}
}

// Interval returns the effective poll period.
func (l *Loop) Interval() time.Duration { return l.opts.Interval }

// State returns the current suppression state.
func (l *Loop) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Prime records the current token as the baseline and returns to Idle.
// Contents already on the clipboard are not handed on.
func (l *Loop) Prime() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.primeLocked()
}

func (l *Loop) primeLocked() {
	l.baseline = l.backend.ReadChangeToken()
	l.primed = true
	l.state = Idle
}

// Suppress arranges for the next observed token change to be ignored. Only
// one change is ever absorbed, however many times Suppress is called before
// it arrives.
func (l *Loop) Suppress() {
	l.mu.Lock()
	l.state = Suppressing
	l.mu.Unlock()
}

// WriteGuarded enters Suppressing and runs write while holding the loop,
// so no tick can run between the two. If write fails the clipboard did not
// change, and the previous state is restored.
func (l *Loop) WriteGuarded(write func() error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	prev := l.state
	l.state = Suppressing
	if err := write(); err != nil {
		l.state = prev
		return err
	}
	return nil
}

// Tick performs one poll. It reports whether a payload was handed on.
func (l *Loop) Tick(ctx context.Context) bool {
	l.ticks.Add(1)

	l.mu.Lock()
	if !l.primed {
		l.primeLocked()
		l.mu.Unlock()
		return false
	}
	tok := l.backend.ReadChangeToken()
	if tok == l.baseline {
		l.mu.Unlock()
		return false
	}
	l.baseline = tok
	l.changes.Add(1)
	l.lastChange.Store(time.Now().UnixNano())

	if l.state == Suppressing {
		l.state = Idle
		l.mu.Unlock()
		l.suppressed.Add(1)
		l.opts.Logger.Debug("clipboard change suppressed", "token", tok)
		return false
	}

	p, ok := l.read()
	l.mu.Unlock()
	if !ok {
		l.opts.Logger.Debug("clipboard changed to unsupported content", "token", tok)
		return false
	}

	if err := l.handle(ctx, p); err != nil {
		l.errors.Add(1)
		l.opts.Logger.Warn("clipboard change not recorded", "err", err)
		return false
	}
	l.ingested.Add(1)
	return true
}

// read returns the clipboard contents, preferring text over an image.
func (l *Loop) read() (history.Payload, bool) {
	if text, ok := l.backend.ReadText(); ok {
		return history.TextPayload(text), true
	}
	if img, ok := l.backend.ReadImage(); ok {
		return history.ImagePayload(img), true
	}
	return history.Payload{}, false
}

// Run primes the loop and polls until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	l.Prime()
	l.opts.Logger.Info("clipboard monitor started",
		"backend", l.backend.Name(),
		"interval", l.opts.Interval,
	)

	t := time.NewTicker(l.opts.Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			l.opts.Logger.Info("clipboard monitor stopped")
			return nil
		case <-t.C:
			l.Tick(ctx)
		}
	}
}

// Stats returns the loop counters.
func (l *Loop) Stats() Stats {
	s := Stats{
		Ticks:      l.ticks.Load(),
		Changes:    l.changes.Load(),
		Suppressed: l.suppressed.Load(),
		Ingested:   l.ingested.Load(),
		Errors:     l.errors.Load(),
		State:      l.State().String(),
	}
	if ns := l.lastChange.Load(); ns > 0 {
		s.LastChange = time.Unix(0, ns)
	}
	return s
}
