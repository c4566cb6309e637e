package net

import "sync"

// Channel is the bidirectional link between one client and its session.
// Sends are fire-and-forget; reconnect and delivery guarantees stay behind
// the implementation.
type Channel interface {
	// Send queues ev for delivery without blocking.
	Send(ev Event)
	// Subscribe registers fn for every inbound cursors-update. The returned
	// func removes the subscription.
	Subscribe(fn func(CursorsUpdate)) (cancel func())
	Close() error
}

// subscribers is a registry of cursor update callbacks.
type subscribers struct {
	mu   sync.RWMutex
	next int
	fns  map[int]func(CursorsUpdate)
}

func (s *subscribers) add(fn func(CursorsUpdate)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fns == nil {
		s.fns = make(map[int]func(CursorsUpdate))
	}
	id := s.next
	s.next++
	s.fns[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.fns, id)
	}
}

func (s *subscribers) publish(u CursorsUpdate) {
	s.mu.RLock()
	fns := make([]func(CursorsUpdate), 0, len(s.fns))
	for _, fn := range s.fns {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()
	for _, fn := range fns {
		fn(u)
	}
}

// Offline is a Channel for a session without peers. Sends are dropped and
// no cursor update ever arrives.
type Offline struct {
	subs subscribers
}

func (o *Offline) Send(Event) {}

func (o *Offline) Subscribe(fn func(CursorsUpdate)) func() {
	return o.subs.add(fn)
}

func (o *Offline) Close() error { return nil }

var (
	_ Channel = (*Offline)(nil)
	_ Channel = (*Client)(nil)
)
