// Package text places free-floating text annotations and lets them be
// dragged and resized through bounding-box hit tests.
package text

import (
	"math"
	"slices"
	"strings"

	"collabcanvas/internal/canvas"
	"collabcanvas/internal/state"
)

const (
	// MinFontSize is the floor a resize gesture clamps to.
	MinFontSize = 8
	// resizeDivisor scales horizontal pointer travel into font size.
	resizeDivisor = 10
)

// Gesture is the manipulation a pointer-down started on placed text.
type Gesture int

const (
	GestureNone Gesture = iota
	GestureDrag
	GestureResize
)

// Measurer returns the rendered width of a record.
type Measurer func(state.TextRecord) float64

// Attrs are the font attributes applied to newly committed text.
type Attrs struct {
	FontSize float64
	IsBold   bool
	IsItalic bool
	Color    string
}

// Engine owns the placed texts, the pending input and at most one drag or
// resize gesture.
type Engine struct {
	texts   []state.TextRecord
	measure Measurer

	pending bool
	at      state.Point
	input   string

	gesture Gesture
	target  int
	start   state.Point
	orig    state.TextRecord
}

// New returns an engine measuring with m. A nil m falls back to the
// approximate width.
func New(m Measurer) *Engine {
	return &Engine{measure: m}
}

// Width returns the box width of rec.
func (e *Engine) Width(rec state.TextRecord) float64 {
	if e.measure != nil {
		if w := e.measure(rec); w > 0 && !math.IsNaN(w) {
			return w
		}
	}
	return rec.ApproxWidth()
}

// Place opens a pending input at p, replacing any previous one.
func (e *Engine) Place(p state.Point) {
	e.pending, e.at, e.input = true, p, ""
}

// Pending returns the position of the open input.
func (e *Engine) Pending() (state.Point, bool) { return e.at, e.pending }

func (e *Engine) SetInput(s string) {
	if e.pending {
		e.input = s
	}
}

func (e *Engine) Input() string { return e.input }

// Commit closes the pending input. Non-blank input becomes a record at the
// placement position; blank input commits nothing and returns false.
func (e *Engine) Commit(a Attrs) (state.TextRecord, bool) {
	if !e.pending {
		return state.TextRecord{}, false
	}
	txt := strings.TrimSpace(e.input)
	e.Discard()
	if txt == "" {
		return state.TextRecord{}, false
	}
	rec := state.TextRecord{
		Text: txt, X: e.at.X, Y: e.at.Y,
		FontSize: a.FontSize, IsBold: a.IsBold, IsItalic: a.IsItalic, Color: a.Color,
	}
	e.texts = append(e.texts, rec)
	return rec, true
}

// Discard drops the pending input.
func (e *Engine) Discard() {
	e.pending, e.input = false, ""
}

// HitTest returns the topmost text under p and what a pointer-down there
// would start. Inside the box drags; on the resize handle resizes.
func (e *Engine) HitTest(p state.Point) (int, Gesture) {
	for i := len(e.texts) - 1; i >= 0; i-- {
		rec := e.texts[i]
		w, h := e.Width(rec), rec.FontSize
		if p.X >= rec.X && p.X <= rec.X+w && p.Y >= rec.Y-h && p.Y <= rec.Y {
			return i, GestureDrag
		}
		hx, hy := rec.X+w, rec.Y-h
		if p.X >= hx-canvas.HandleSize && p.X <= hx+canvas.HandleSize &&
			p.Y >= hy-canvas.HandleSize && p.Y <= hy+canvas.HandleSize {
			return i, GestureResize
		}
	}
	return -1, GestureNone
}

// Begin starts a drag or resize on the text under p. A miss starts nothing.
func (e *Engine) Begin(p state.Point) Gesture {
	if e.gesture != GestureNone || !p.Finite() {
		return GestureNone
	}
	i, g := e.HitTest(p)
	if g == GestureNone {
		return GestureNone
	}
	e.gesture, e.target, e.start, e.orig = g, i, p, e.texts[i]
	return g
}

// Active returns the gesture in progress.
func (e *Engine) Active() Gesture { return e.gesture }

// Move applies the pointer delta since Begin. It reports whether anything
// changed.
func (e *Engine) Move(p state.Point) bool {
	if !p.Finite() {
		return false
	}
	d := p.Sub(e.start)
	rec := e.orig
	switch e.gesture {
	case GestureDrag:
		rec.X += d.X
		rec.Y += d.Y
	case GestureResize:
		rec.FontSize = max(MinFontSize, e.orig.FontSize+d.X/resizeDivisor)
	default:
		return false
	}
	e.texts[e.target] = rec
	return true
}

// End finishes the gesture and reports whether one was in progress; the
// caller commits a snapshot when it is true.
func (e *Engine) End() bool {
	if e.gesture == GestureNone {
		return false
	}
	e.gesture = GestureNone
	return true
}

// Texts returns a copy of the placed texts.
func (e *Engine) Texts() []state.TextRecord { return slices.Clone(e.texts) }

// SetTexts replaces the placed texts, as on snapshot restore.
func (e *Engine) SetTexts(texts []state.TextRecord) {
	e.texts = slices.Clone(texts)
	e.gesture = GestureNone
}

// Render draws every text with its bounding box and resize handle.
func (e *Engine) Render(s *canvas.Surface) {
	for _, rec := range e.texts {
		s.DrawText(rec)
		s.DrawTextBox(rec, e.Width(rec))
	}
}
