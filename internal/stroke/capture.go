// Package stroke turns pointer samples into rasterized freehand strokes.
package stroke

import (
	"collabcanvas/internal/canvas"
	"collabcanvas/internal/net"
	"collabcanvas/internal/state"
)

const (
	highlighterAlpha = 0.05
	highlighterScale = 2.5
)

// StyleFor resolves the paint state of one segment. The eraser paints with
// background, which the caller reads from the current theme at segment time.
func StyleFor(ev state.PointEvent, background string) canvas.Style {
	switch ev.Tool {
	case state.ToolHighlighter:
		return canvas.Style{Color: ev.Color, Alpha: highlighterAlpha, Width: ev.LineWidth * highlighterScale}
	case state.ToolEraser:
		return canvas.Style{Color: background, Alpha: ev.Opacity, Width: ev.LineWidth}
	default:
		return canvas.Style{Color: ev.Color, Alpha: ev.Opacity, Width: ev.LineWidth}
	}
}

// Capture is the Idle -> Drawing -> Idle stroke state machine. It keeps only
// the previous point, so each move strokes exactly one new segment.
type Capture struct {
	drawing bool
	last    state.Point
	tool    state.Tool
}

// Drawing reports whether a stroke is in progress.
func (c *Capture) Drawing() bool { return c.drawing }

// Start begins a stroke at ev and returns the drawing-start message to
// broadcast. Tools that do not draw strokes leave the capture idle.
func (c *Capture) Start(ev state.PointEvent) []net.Event {
	if !ev.Tool.IsStroke() || !ev.Point().Finite() {
		return nil
	}
	c.drawing = true
	c.last = ev.Point()
	c.tool = ev.Tool
	return []net.Event{net.DrawingStart(ev)}
}

// Continue strokes the segment from the previous point to ev onto s and
// moves the current point to ev. It is a no-op while idle.
func (c *Capture) Continue(s *canvas.Surface, ev state.PointEvent, background string) []net.Event {
	if !c.drawing {
		return nil
	}
	p := ev.Point()
	if !p.Finite() {
		return nil
	}
	s.StrokeSegment(c.last, p, StyleFor(ev, background))
	c.last = p
	return []net.Event{net.Drawing(ev)}
}

// End finishes the stroke. ok is false when no stroke was in progress; the
// caller commits a snapshot when it is true.
func (c *Capture) End() (events []net.Event, ok bool) {
	if !c.drawing {
		return nil, false
	}
	c.drawing = false
	return []net.Event{net.DrawingEnd()}, true
}

// Cancel ends an in-progress stroke on tool switch. The segments already
// drawn stay on the surface, so it behaves exactly like End.
func (c *Capture) Cancel() (events []net.Event, ok bool) {
	return c.End()
}
