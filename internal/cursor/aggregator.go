// Package cursor keeps the remote cursor overlay in step with the hub's
// aggregate updates.
package cursor

import (
	"log/slog"
	"maps"
	"sync"

	"collabcanvas/internal/state"
)

// Aggregator holds the latest cursor map. Each update replaces the map
// wholesale, so a peer disappears as soon as an update omits it.
type Aggregator struct {
	mu       sync.RWMutex
	cursors  state.Cursors
	self     string
	width    float64
	height   float64
	onChange func(state.Cursors)
	log      *slog.Logger
}

// New returns an aggregator that keeps only cursors inside a
// width x height canvas. Zero dimensions disable bounds filtering.
func New(width, height float64) *Aggregator {
	return &Aggregator{
		cursors: state.Cursors{},
		width:   width,
		height:  height,
		log:     slog.Default().With("component", "cursor"),
	}
}

// SetSelf names the local peer, whose own entry is never shown.
func (a *Aggregator) SetSelf(id string) {
	a.mu.Lock()
	a.self = id
	delete(a.cursors, id)
	a.mu.Unlock()
}

// OnChange registers fn to receive a copy of the map after every update.
func (a *Aggregator) OnChange(fn func(state.Cursors)) {
	a.mu.Lock()
	a.onChange = fn
	a.mu.Unlock()
}

// Apply replaces the cursor map with update. Entries with non-finite or
// out-of-bounds coordinates are dropped.
func (a *Aggregator) Apply(update state.Cursors) {
	next := make(state.Cursors, len(update))
	a.mu.Lock()
	for id, c := range update {
		if id == a.self || !a.inBounds(c) {
			continue
		}
		next[id] = c
	}
	if dropped := len(update) - len(next); dropped > 0 {
		a.log.Debug("filtered cursors", "dropped", dropped)
	}
	a.cursors = next
	fn := a.onChange
	a.mu.Unlock()

	if fn != nil {
		fn(maps.Clone(next))
	}
}

func (a *Aggregator) inBounds(c state.Cursor) bool {
	p := state.Point{X: c.X, Y: c.Y}
	if !p.Finite() {
		return false
	}
	if a.width <= 0 || a.height <= 0 {
		return true
	}
	return c.X >= 0 && c.Y >= 0 && c.X <= a.width && c.Y <= a.height
}

// Snapshot returns a copy of the current map.
func (a *Aggregator) Snapshot() state.Cursors {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return maps.Clone(a.cursors)
}
