// Package shape creates, moves and resizes parametric shapes drawn as an
// overlay above the raster.
package shape

import (
	"slices"

	"collabcanvas/internal/canvas"
	"collabcanvas/internal/state"
)

// HandleSize is the side of the two handles of a shape: the move grip
// centered on its top-left corner and the resize handle centered on its
// bottom-right corner.
const HandleSize = 10

// Gesture is what a pointer-down started.
type Gesture int

const (
	GestureNone Gesture = iota
	GestureCreate
	GestureDrag
	GestureResize
)

// Engine owns the shape list, the selected shape kind and at most one
// in-progress gesture.
type Engine struct {
	seq      state.Sequence
	shapes   []state.ShapeRecord
	selected state.ShapeKind

	gesture Gesture
	start   state.Point
	target  int // index into shapes for drag and resize
	orig    state.ShapeRecord
	preview *state.ShapeRecord
}

func New() *Engine { return &Engine{} }

// Select toggles kind. Picking the selected kind again deselects it and
// returns false, which callers take as a switch back to the pen.
func (e *Engine) Select(kind state.ShapeKind) bool {
	if e.selected == kind {
		e.selected = ""
		return false
	}
	e.selected = kind
	return true
}

// Selected returns the current kind, or "" when none is selected.
func (e *Engine) Selected() state.ShapeKind { return e.selected }

// Deselect clears the selected kind.
func (e *Engine) Deselect() { e.selected = "" }

// Active returns the gesture in progress.
func (e *Engine) Active() Gesture { return e.gesture }

// Begin handles a pointer-down at p. The handles of existing shapes are
// hit-tested topmost first; anywhere else, including inside another shape,
// starts a new shape of the selected kind.
func (e *Engine) Begin(p state.Point, color string) Gesture {
	if e.gesture != GestureNone || !p.Finite() {
		return GestureNone
	}
	for i := len(e.shapes) - 1; i >= 0; i-- {
		rec := e.shapes[i]
		if g := hit(rec, p); g != GestureNone {
			e.gesture, e.start, e.target, e.orig = g, p, i, rec
			return g
		}
	}
	if e.selected == "" {
		return GestureNone
	}
	e.gesture, e.start = GestureCreate, p
	e.preview = &state.ShapeRecord{Kind: e.selected, Origin: p, Color: color}
	return GestureCreate
}

func hit(rec state.ShapeRecord, p state.Point) Gesture {
	tl, w, h := rec.Bounds()
	bx, by := tl.X+w, tl.Y+h
	const half = HandleSize / 2
	switch {
	case near(p, state.Point{X: bx, Y: by}, half):
		return GestureResize
	case near(p, tl, half):
		return GestureDrag
	}
	return GestureNone
}

func near(p, c state.Point, d float64) bool {
	return p.X >= c.X-d && p.X <= c.X+d && p.Y >= c.Y-d && p.Y <= c.Y+d
}

// Move updates the gesture in progress. It reports whether anything changed.
func (e *Engine) Move(p state.Point) bool {
	if !p.Finite() {
		return false
	}
	d := p.Sub(e.start)
	switch e.gesture {
	case GestureCreate:
		e.preview.Width = d.X
		e.preview.Height = d.Y
	case GestureDrag:
		rec := e.orig
		rec.Origin = state.Point{X: e.orig.Origin.X + d.X, Y: e.orig.Origin.Y + d.Y}
		e.shapes[e.target] = rec
	case GestureResize:
		tl, w, h := e.orig.Bounds()
		rec := e.orig
		rec.Origin = tl
		rec.Width = max(1, w+d.X)
		rec.Height = max(1, h+d.Y)
		e.shapes[e.target] = rec
	default:
		return false
	}
	return true
}

// Preview returns the shape being created, if any.
func (e *Engine) Preview() (state.ShapeRecord, bool) {
	if e.preview == nil {
		return state.ShapeRecord{}, false
	}
	return *e.preview, true
}

// End finishes the gesture. A new shape gets the next id and is appended.
// It reports whether the shape list changed, in which case the caller
// commits a snapshot. A click that never moved creates nothing.
func (e *Engine) End() bool {
	g := e.gesture
	e.gesture = GestureNone
	switch g {
	case GestureCreate:
		rec := *e.preview
		e.preview = nil
		if rec.Width == 0 && rec.Height == 0 {
			return false
		}
		rec.ID = e.seq.Next()
		e.shapes = append(e.shapes, rec)
		return true
	case GestureDrag, GestureResize:
		return e.shapes[e.target] != e.orig
	}
	return false
}

// Cancel stops the gesture on a tool switch. A creation preview is
// discarded; a drag or resize keeps its result, reported like End.
func (e *Engine) Cancel() bool {
	if e.gesture == GestureCreate {
		e.gesture = GestureNone
		e.preview = nil
		return false
	}
	return e.End()
}

// Shapes returns a copy of the shape list.
func (e *Engine) Shapes() []state.ShapeRecord { return slices.Clone(e.shapes) }

// SetShapes replaces the list, as on snapshot restore. The id sequence is
// left alone so restored ids are never handed out twice.
func (e *Engine) SetShapes(shapes []state.ShapeRecord) {
	e.shapes = slices.Clone(shapes)
	e.gesture = GestureNone
	e.preview = nil
}

// NextID returns the id the next created shape will get.
func (e *Engine) NextID() int { return e.seq.Peek() }

// Render draws every shape, then the preview, onto s.
func (e *Engine) Render(s *canvas.Surface) {
	for _, rec := range e.shapes {
		s.DrawShape(rec)
	}
	if e.preview != nil {
		s.DrawShape(*e.preview)
	}
}
