package persist

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultInterval is the quiet period after the last edit before a save.
const DefaultInterval = time.Second

// EncodeFunc produces the bytes to persist.
type EncodeFunc func() ([]byte, error)

// AutoSaver coalesces bursts of edits into one encode-and-store. Every Touch
// marks the state dirty and restarts the timer; when it fires, the dirty
// flag is drained and a single save runs.
type AutoSaver struct {
	store    Store
	encode   EncodeFunc
	interval time.Duration
	log      *slog.Logger

	mu      sync.Mutex
	timer   *time.Timer
	dirty   bool
	stopped bool

	saveMu sync.Mutex
}

func NewAutoSaver(store Store, interval time.Duration, encode EncodeFunc) *AutoSaver {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &AutoSaver{
		store:    store,
		encode:   encode,
		interval: interval,
		log:      slog.Default().With("component", "autosave"),
	}
}

// Touch records an edit.
func (a *AutoSaver) Touch() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return
	}
	a.dirty = true
	if a.timer != nil {
		a.timer.Stop()
	}
	a.timer = time.AfterFunc(a.interval, func() {
		if err := a.Flush(context.Background()); err != nil {
			a.log.Warn("autosave failed", "err", err)
		}
	})
}

// Pending reports whether an edit has not been saved yet.
func (a *AutoSaver) Pending() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dirty
}

// Flush saves now if anything is dirty.
func (a *AutoSaver) Flush(ctx context.Context) error {
	a.mu.Lock()
	if !a.dirty {
		a.mu.Unlock()
		return nil
	}
	a.dirty = false
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.mu.Unlock()

	a.saveMu.Lock()
	defer a.saveMu.Unlock()
	data, err := a.encode()
	if err != nil {
		return err
	}
	if err := a.store.Save(ctx, data); err != nil {
		return err
	}
	a.log.Debug("saved", "bytes", len(data))
	return nil
}

// Stop flushes pending state; later Touches are ignored.
func (a *AutoSaver) Stop(ctx context.Context) error {
	a.mu.Lock()
	a.stopped = true
	a.mu.Unlock()
	return a.Flush(ctx)
}
