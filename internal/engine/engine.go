// Package engine ties the clipboard history together: it owns the store,
// drives the monitor loop, persists every change, and exposes the
// operations the CLI and the local API call.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"go.klb.dev/clipstash/internal/clip"
	"go.klb.dev/clipstash/internal/history"
	"go.klb.dev/clipstash/internal/imaging"
	"go.klb.dev/clipstash/internal/monitor"
	"go.klb.dev/clipstash/internal/paths"
	"go.klb.dev/clipstash/internal/persist"
)

// DefaultResultBuffer is the number of undelivered async results kept.
const DefaultResultBuffer = 16

// Config holds the engine's collaborators and tunables.
type Config struct {
	Backend  clip.Backend
	Paths    paths.Paths
	Capacity int
	// Interval is the clipboard poll period.
	Interval time.Duration
	Image    imaging.Options
	// Gateway overrides the default gateway on Paths.HistoryFile().
	Gateway *persist.Gateway
	// StoreOptions are passed to history.New (clock and ID overrides).
	StoreOptions []history.Option
	ResultBuffer int
}

// Status is a point-in-time view of the engine.
type Status struct {
	Backend     string        `json:"backend"`
	Entries     int           `json:"entries"`
	Capacity    int           `json:"capacity"`
	HistoryFile string        `json:"history_file"`
	Interval    time.Duration `json:"interval"`
	Monitor     monitor.Stats `json:"monitor"`
}

// Engine is safe for concurrent use.
type Engine struct {
	store   *history.Store
	loop    *monitor.Loop
	gateway *persist.Gateway
	backend clip.Backend
	paths   paths.Paths
	imgOpts imaging.Options

	// persistMu serializes snapshot+write so saves never interleave or land
	// out of order.
	persistMu sync.Mutex
	pending   atomic.Bool
	saveCh    chan struct{}

	results chan Result
	async   sync.WaitGroup
}

// New builds an Engine. The history starts empty; call Load to restore it.
func New(cfg Config) *Engine {
	if cfg.Backend == nil {
		cfg.Backend = clip.NewHeadless()
	}
	if cfg.Capacity <= 0 {
		cfg.Capacity = history.DefaultCapacity
	}
	if cfg.Gateway == nil {
		cfg.Gateway = persist.New(cfg.Paths.HistoryFile(), cfg.Capacity)
	}
	if cfg.ResultBuffer <= 0 {
		cfg.ResultBuffer = DefaultResultBuffer
	}

	e := &Engine{
		store:   history.New(cfg.Capacity, cfg.StoreOptions...),
		gateway: cfg.Gateway,
		backend: cfg.Backend,
		paths:   cfg.Paths,
		imgOpts: cfg.Image,
		saveCh:  make(chan struct{}, 1),
		results: make(chan Result, cfg.ResultBuffer),
	}
	e.loop = monitor.New(cfg.Backend, e.handleChange, monitor.Options{Interval: cfg.Interval})
	return e
}

// Monitor returns the clipboard polling loop.
func (e *Engine) Monitor() *monitor.Loop { return e.loop }

// Results delivers the outcome of LoadAsync, ImportAsync and ExportAsync.
func (e *Engine) Results() <-chan Result { return e.results }

// Run polls the clipboard and writes pending saves until ctx is done. A
// final save is flushed before it returns.
func (e *Engine) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return e.loop.Run(ctx) })
	g.Go(func() error { return e.saveLoop(ctx) })
	err := g.Wait()
	e.async.Wait()
	return err
}

func (e *Engine) saveLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			e.flush()
			return nil
		case <-e.saveCh:
			e.flush()
		}
	}
}

func (e *Engine) flush() {
	if e.pending.Swap(false) {
		if err := e.save(); err != nil {
			slog.Error("error saving history", "err", err)
		}
	}
}

// scheduleSave asks the save loop to persist the history. Requests made
// while a save is already queued are coalesced.
func (e *Engine) scheduleSave() {
	e.pending.Store(true)
	select {
	case e.saveCh <- struct{}{}:
	default:
	}
}

// handleChange is the monitor Handler: clipboard changes are ingested and
// persisted off the polling goroutine.
func (e *Engine) handleChange(_ context.Context, p history.Payload) error {
	if _, err := e.ingest(p); err != nil {
		return err
	}
	e.scheduleSave()
	return nil
}

// ingest normalizes clipboard content and records it.
func (e *Engine) ingest(p history.Payload) (string, error) {
	if p.Kind == history.KindImage {
		norm, err := imaging.Normalize(p.Image, e.imgOpts)
		if err != nil {
			return "", fmt.Errorf("normalize image: %w", err)
		}
		p = history.ImagePayload(norm)
	}
	if !p.Valid() {
		return "", fmt.Errorf("invalid payload %s", p)
	}
	id := e.store.Ingest(p)
	history.LogPayload("clipboard item recorded", id, p)
	return id, nil
}

// Ingest records p as if it had just been copied to the clipboard by
// another application, then saves.
func (e *Engine) Ingest(p history.Payload) Result {
	const op = "ingest"
	id, err := e.ingest(p)
	if err != nil {
		return failure(op, err, "Failed to record item: %v", err)
	}
	if err := e.save(); err != nil {
		return failure(op, err, "Recorded item %s but failed to save: %v", id, err)
	}
	return Result{Op: op, OK: true, Message: "Recorded item " + id}
}

// Snapshot returns the history, most recent first.
func (e *Engine) Snapshot() []history.Entry { return e.store.Snapshot() }

// Delete removes an entry and saves.
func (e *Engine) Delete(id string) Result {
	const op = "delete"
	if err := e.store.Delete(id); err != nil {
		return failure(op, err, "Failed to delete item: No item found with ID %s", id)
	}
	if err := e.save(); err != nil {
		return failure(op, err, "Deleted item with ID %s but failed to save: %v", id, err)
	}
	return success(op, "Deleted item with ID %s from clipboard", id)
}

// Copy writes an entry back to the system clipboard and moves it to the
// head of the history. The monitor is told to ignore the resulting
// clipboard change.
func (e *Engine) Copy(id string) Result {
	const op = "copy"
	p, err := e.store.Copy(id)
	if err != nil {
		return failure(op, err, "Failed to copy item: No item found with ID %s", id)
	}

	err = e.loop.WriteGuarded(func() error {
		if p.Kind == history.KindImage {
			return e.backend.WriteImage(p.Image)
		}
		return e.backend.WriteText(p.Text)
	})
	if err != nil {
		return failure(op, err, "Failed to copy to clipboard: %v", err)
	}

	// The stored payload is already normalized, so this refreshes the
	// existing entry instead of creating a new one.
	newID := e.store.Ingest(p)
	history.LogPayload("clipboard item copied", newID, p)

	if err := e.save(); err != nil {
		return failure(op, err, "Copied item %s but failed to save: %v", id, err)
	}
	return success(op, "Copied item %s to clipboard", newID)
}

// Clear removes every entry and saves.
func (e *Engine) Clear() Result {
	const op = "clear"
	e.store.Clear()
	if err := e.save(); err != nil {
		return failure(op, err, "Cleared history but failed to save: %v", err)
	}
	return success(op, "Cleared clipboard history")
}

// Status reports the engine state.
func (e *Engine) Status() Status {
	return Status{
		Backend:     e.backend.Name(),
		Entries:     e.store.Len(),
		Capacity:    e.store.Capacity(),
		HistoryFile: e.gateway.Path(),
		Interval:    e.loop.Interval(),
		Monitor:     e.loop.Stats(),
	}
}

// save writes the current history to the history file.
func (e *Engine) save() error {
	e.persistMu.Lock()
	defer e.persistMu.Unlock()
	entries := e.store.Snapshot()
	if err := e.gateway.Save(entries); err != nil {
		return err
	}
	slog.Debug("saved history", "items", len(entries), "path", e.gateway.Path())
	return nil
}

// Save writes the current history to the history file.
func (e *Engine) Save() Result {
	const op = "save"
	if err := e.save(); err != nil {
		return failure(op, err, "Error saving JSON: %v", err)
	}
	return success(op, "Saved %d items to JSON", e.store.Len())
}

// Load replaces the history with the contents of the history file. A
// missing file yields an empty history. A corrupt file also yields an empty
// history; it is moved aside so the next save does not destroy it.
func (e *Engine) Load() Result {
	const op = "load"
	e.persistMu.Lock()
	defer e.persistMu.Unlock()

	path := e.gateway.Path()
	entries, err := e.gateway.Load()
	if err != nil {
		e.store.Clear()
		var de *persist.DecodeError
		if errors.As(err, &de) {
			e.quarantine(path)
		}
		return failure(op, err, "Error loading JSON from %s: %v", path, err)
	}
	e.store.Replace(entries)
	if entries == nil {
		return success(op, "No JSON file found at %s", path)
	}
	return success(op, "Loaded %d items from %s", e.store.Len(), path)
}

func (e *Engine) quarantine(path string) {
	bad := fmt.Sprintf("%s.corrupt-%s", path, time.Now().Format("20060102T150405"))
	if err := os.Rename(path, bad); err != nil {
		slog.Warn("could not move corrupt history aside", "path", path, "err", err)
		return
	}
	slog.Warn("corrupt history moved aside", "path", bad)
}

// Export writes the whole history to path.
func (e *Engine) Export(path string) Result {
	const op = "export"
	if path == "" {
		return failure(op, ErrNoSelection, "No file selected for export")
	}
	entries := e.store.Snapshot()
	if err := e.gateway.Export(entries, path); err != nil {
		return failure(op, err, "Error exporting JSON to %s: %v", path, err)
	}
	return success(op, "Exported %d items to %s", len(entries), path)
}

// Import reads the document at path and combines it with the history
// according to mode, then saves. A document that fails to decode leaves the
// history untouched.
func (e *Engine) Import(path string, mode ImportMode) Result {
	const op = "import"
	if path == "" {
		return failure(op, ErrNoSelection, "No file selected for import")
	}
	imported, err := persist.Read(path)
	if err != nil {
		return failure(op, err, "Error importing JSON from %s: %v", path, err)
	}

	e.persistMu.Lock()
	defer e.persistMu.Unlock()

	sum := &Summary{Mode: mode.String(), Read: len(imported)}
	var r Result
	switch mode {
	case Merge:
		sum.Added = e.store.Merge(imported)
		sum.Total = e.store.Len()
		r = success(op, "Merged %d new items from %s", sum.Added, path)
	default:
		e.store.Replace(imported)
		sum.Total = e.store.Len()
		sum.Added = sum.Total
		r = success(op, "Imported %d items from %s", sum.Total, path)
	}
	r.Summary = sum

	if err := e.gateway.Save(e.store.Snapshot()); err != nil {
		return failure(op, err, "Imported from %s but failed to save: %v", path, err)
	}
	return r
}

// LoadAsync runs Load on another goroutine and publishes its Result.
func (e *Engine) LoadAsync() {
	e.goPublish(e.Load)
}

// ImportAsync runs Import on another goroutine and publishes its Result.
func (e *Engine) ImportAsync(path string, mode ImportMode) {
	e.goPublish(func() Result { return e.Import(path, mode) })
}

// ExportAsync runs Export on another goroutine and publishes its Result.
func (e *Engine) ExportAsync(path string) {
	e.goPublish(func() Result { return e.Export(path) })
}

func (e *Engine) goPublish(fn func() Result) {
	e.async.Add(1)
	go func() {
		defer e.async.Done()
		e.publish(fn())
	}()
}

// publish never blocks: when the buffer is full the oldest undelivered
// result is dropped.
func (e *Engine) publish(r Result) {
	for {
		select {
		case e.results <- r:
			return
		default:
		}
		select {
		case old := <-e.results:
			slog.Warn("dropping undelivered result", "op", old.Op, "message", old.Message)
		default:
		}
	}
}

// Wait blocks until all async operations have published their results.
func (e *Engine) Wait() { e.async.Wait() }
