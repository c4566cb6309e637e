// Package history keeps the snapshot stacks behind undo and redo.
package history

import (
	"bytes"
	"slices"

	"collabcanvas/internal/state"
)

// DefaultMaxDepth bounds the undo stack unless configured otherwise.
const DefaultMaxDepth = 100

// Snapshot is a full copy of the visible canvas: the encoded raster plus the
// shape and text layers drawn over it. Dark records the theme the raster
// background was painted in.
type Snapshot struct {
	Image  []byte
	Shapes []state.ShapeRecord
	Texts  []state.TextRecord
	Dark   bool
}

// Equal reports whether both snapshots hold the same content.
func (s Snapshot) Equal(o Snapshot) bool {
	return s.Dark == o.Dark && bytes.Equal(s.Image, o.Image) &&
		slices.Equal(s.Shapes, o.Shapes) && slices.Equal(s.Texts, o.Texts)
}

func (s Snapshot) clone() Snapshot {
	return Snapshot{
		Image:  bytes.Clone(s.Image),
		Shapes: slices.Clone(s.Shapes),
		Texts:  slices.Clone(s.Texts),
		Dark:   s.Dark,
	}
}

// Target is the canvas a Manager captures and restores.
type Target interface {
	Capture() (Snapshot, error)
	Restore(Snapshot) error
}

// Manager owns the undo and redo stacks. The top of the undo stack is always
// the current state; its bottom entry is the blank-canvas sentinel and is
// never popped by Undo.
type Manager struct {
	target   Target
	undo     []Snapshot
	redo     []Snapshot
	maxDepth int
}

// New returns a manager over target. maxDepth caps the undo stack, zero
// means unbounded.
func New(target Target, maxDepth int) *Manager {
	if maxDepth < 0 {
		maxDepth = 0
	}
	return &Manager{target: target, maxDepth: maxDepth}
}

// Init resets both stacks and records the current canvas as the sentinel.
func (m *Manager) Init() error {
	snap, err := m.target.Capture()
	if err != nil {
		return err
	}
	m.undo = []Snapshot{snap}
	m.redo = nil
	return nil
}

// Commit records the current canvas and clears the redo stack.
func (m *Manager) Commit() error {
	snap, err := m.target.Capture()
	if err != nil {
		return err
	}
	m.undo = append(m.undo, snap)
	m.redo = nil
	if m.maxDepth > 0 && len(m.undo) > m.maxDepth {
		// The new bottom becomes the sentinel.
		drop := len(m.undo) - m.maxDepth
		m.undo = slices.Delete(m.undo, 0, drop)
	}
	return nil
}

// Undo moves the current state to the redo stack and restores the previous
// one. With only the sentinel left it does nothing and returns false.
func (m *Manager) Undo() (bool, error) {
	if len(m.undo) <= 1 {
		return false, nil
	}
	prev := m.undo[len(m.undo)-2]
	if err := m.target.Restore(prev.clone()); err != nil {
		return false, err
	}
	top := m.undo[len(m.undo)-1]
	m.undo = m.undo[:len(m.undo)-1]
	m.redo = append(m.redo, top)
	return true, nil
}

// Redo restores the most recently undone state. It returns false when there
// is nothing to redo.
func (m *Manager) Redo() (bool, error) {
	if len(m.redo) == 0 {
		return false, nil
	}
	next := m.redo[len(m.redo)-1]
	if err := m.target.Restore(next.clone()); err != nil {
		return false, err
	}
	m.redo = m.redo[:len(m.redo)-1]
	m.undo = append(m.undo, next)
	return true, nil
}

func (m *Manager) CanUndo() bool { return len(m.undo) > 1 }
func (m *Manager) CanRedo() bool { return len(m.redo) > 0 }

// Len returns the sizes of the undo and redo stacks.
func (m *Manager) Len() (undo, redo int) { return len(m.undo), len(m.redo) }

