package state

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// Sequence hands out strictly increasing ids starting at 1. It never
// rewinds, so an id removed by undo is not handed out again.
type Sequence struct {
	last atomic.Int64
}

func (s *Sequence) Next() int {
	return int(s.last.Add(1))
}

// Peek returns the id the next call to Next will return.
func (s *Sequence) Peek() int {
	return int(s.last.Load()) + 1
}

// NewPeerID returns a fresh identifier for a session participant.
func NewPeerID() string {
	return uuid.NewString()
}
