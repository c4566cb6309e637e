// Package board holds the session state of one canvas and the transitions
// that change it. Every transition returns the effects it produced; the
// Session carries them out.
package board

import (
	"image"
	"log/slog"
	"math"

	"collabcanvas/internal/canvas"
	"collabcanvas/internal/history"
	"collabcanvas/internal/net"
	"collabcanvas/internal/shape"
	"collabcanvas/internal/state"
	"collabcanvas/internal/stroke"
	"collabcanvas/internal/text"
)

// Ranges accepted by the tool panel setters.
const (
	MinLineWidth = 1
	MaxLineWidth = 50
	MinOpacity   = 0.1
	MaxOpacity   = 1
	MinFontSize  = text.MinFontSize
	MaxFontSize  = 72
)

type EffectKind int

const (
	// EffectSend carries an outbound message for the channel.
	EffectSend EffectKind = iota
	// EffectPersist marks the canvas dirty for the autosaver.
	EffectPersist
	// EffectRedraw asks the view to repaint.
	EffectRedraw
	// EffectConfirmClear asks the user to confirm a clear.
	EffectConfirmClear
)

type Effect struct {
	Kind  EffectKind
	Event net.Event
}

func sends(evs []net.Event) []Effect {
	fx := make([]Effect, 0, len(evs))
	for _, ev := range evs {
		fx = append(fx, Effect{Kind: EffectSend, Event: ev})
	}
	return fx
}

var (
	redraw    = Effect{Kind: EffectRedraw}
	persistFx = Effect{Kind: EffectPersist}
)

type gesture int

const (
	gestureNone gesture = iota
	gestureStroke
	gestureShape
	gestureText
)

// StickyNotes receives canvas clicks the engine is not using for a
// gesture. It returns true when it consumed the click.
type StickyNotes interface {
	HandleCanvasClick(p state.Point) bool
}

type Options struct {
	Width, Height int
	DarkMode      bool
	HistoryDepth  int
	Notes         StickyNotes
}

// Engine is the explicit state of one canvas session. It is not safe for
// concurrent use; Session serializes access.
type Engine struct {
	tool      state.Tool
	color     string
	lineWidth float64
	opacity   float64
	font      text.Attrs
	dark      bool

	gesture      gesture
	pendingClear bool

	raster  *canvas.Surface
	capture stroke.Capture
	shapes  *shape.Engine
	texts   *text.Engine
	history *history.Manager
	notes   StickyNotes

	log *slog.Logger
}

// NewEngine returns a blank canvas with the pen selected. The blank canvas
// is the history sentinel.
func NewEngine(opts Options) *Engine {
	if opts.Width <= 0 || opts.Height <= 0 {
		opts.Width, opts.Height = 1500, 800
	}
	e := &Engine{
		tool:      state.ToolPen,
		color:     "#000000",
		lineWidth: 5,
		opacity:   1,
		font:      text.Attrs{FontSize: 20},
		dark:      opts.DarkMode,
		raster:    canvas.NewSurface(opts.Width, opts.Height, state.Background(opts.DarkMode)),
		shapes:    shape.New(),
		notes:     opts.Notes,
		log:       slog.Default().With("component", "board"),
	}
	e.texts = text.New(e.raster.MeasureText)
	e.history = history.New(e, opts.HistoryDepth)
	if err := e.history.Init(); err != nil {
		e.log.Error("init history", "err", err)
	}
	return e
}

// Capture snapshots the raster and both overlay layers.
func (e *Engine) Capture() (history.Snapshot, error) {
	img, err := e.raster.EncodePNG()
	if err != nil {
		return history.Snapshot{}, err
	}
	return history.Snapshot{Image: img, Shapes: e.shapes.Shapes(), Texts: e.texts.Texts(), Dark: e.dark}, nil
}

// Restore repaints the raster from s, then reapplies its layers. A raster
// captured under the other theme has its background swapped.
func (e *Engine) Restore(s history.Snapshot) error {
	if err := e.raster.DecodePNG(s.Image, state.Background(s.Dark)); err != nil {
		return err
	}
	if s.Dark != e.dark {
		e.raster.Retheme(state.Background(s.Dark), state.Background(e.dark))
	}
	e.shapes.SetShapes(s.Shapes)
	e.texts.SetTexts(s.Texts)
	return nil
}

func (e *Engine) Tool() state.Tool { return e.tool }
func (e *Engine) Color() string { return e.color }
func (e *Engine) LineWidth() float64 { return e.lineWidth }
func (e *Engine) Opacity() float64 { return e.opacity }
func (e *Engine) Font() text.Attrs { return e.font }
func (e *Engine) DarkMode() bool { return e.dark }
func (e *Engine) Background() string { return state.Background(e.dark) }
func (e *Engine) PendingClear() bool { return e.pendingClear }
func (e *Engine) SelectedShape() state.ShapeKind { return e.shapes.Selected() }
func (e *Engine) Shapes() []state.ShapeRecord { return e.shapes.Shapes() }
func (e *Engine) Texts() []state.TextRecord { return e.texts.Texts() }
func (e *Engine) CanUndo() bool { return e.history.CanUndo() }
func (e *Engine) CanRedo() bool { return e.history.CanRedo() }
func (e *Engine) History() *history.Manager { return e.history }
func (e *Engine) Size() (int, int) { return e.raster.Width(), e.raster.Height() }

// Busy reports whether a pointer gesture is in progress.
func (e *Engine) Busy() bool { return e.gesture != gestureNone }

// PendingText returns the open text input, if any.
func (e *Engine) PendingText() (at state.Point, input string, ok bool) {
	at, ok = e.texts.Pending()
	return at, e.texts.Input(), ok
}

// Composite draws the visible canvas: raster, then texts with their boxes,
// then shapes.
func (e *Engine) Composite() *canvas.Surface {
	out := e.raster.Clone()
	e.texts.Render(out)
	e.shapes.Render(out)
	return out
}

func (e *Engine) commit() []Effect {
	if err := e.history.Commit(); err != nil {
		e.log.Warn("commit failed, edit not recorded", "err", err)
		return []Effect{redraw}
	}
	return []Effect{persistFx, redraw}
}

func (e *Engine) pointEvent(p state.Point) state.PointEvent {
	return state.PointEvent{X: p.X, Y: p.Y, Color: e.color, LineWidth: e.lineWidth, Opacity: e.opacity, Tool: e.tool}
}

// endGesture finishes the gesture in progress. With cancel set, as on a tool
// switch, a shape preview is discarded instead of created; everything else
// is kept and committed.
func (e *Engine) endGesture(cancel bool) []Effect {
	var fx []Effect
	switch e.gesture {
	case gestureStroke:
		evs, ok := e.capture.End()
		fx = sends(evs)
		if ok {
			fx = append(fx, e.commit()...)
		}
	case gestureShape:
		changed := false
		if cancel {
			changed = e.shapes.Cancel()
		} else {
			changed = e.shapes.End()
		}
		if changed {
			fx = append(fx, e.commit()...)
		} else {
			fx = append(fx, redraw)
		}
	case gestureText:
		if e.texts.End() {
			fx = append(fx, e.commit()...)
		}
	}
	e.gesture = gestureNone
	return fx
}

// closeText commits the open text input, if any. A successful commit
// leaves text mode for the pen.
func (e *Engine) closeText() []Effect {
	if _, ok := e.texts.Pending(); !ok {
		return nil
	}
	a := e.font
	a.Color = e.color
	if _, ok := e.texts.Commit(a); !ok {
		return []Effect{redraw}
	}
	if e.tool == state.ToolText {
		e.tool = state.ToolPen
	}
	return e.commit()
}

// SetTool makes t the active tool. Whatever the previous tool was doing is
// finished first.
func (e *Engine) SetTool(t state.Tool) []Effect {
	if !t.Valid() {
		return nil
	}
	fx := e.endGesture(true)
	fx = append(fx, e.closeText()...)
	if t != state.ToolShape {
		e.shapes.Deselect()
	}
	e.tool = t
	return append(fx, redraw)
}

// SelectShape picks kind as the shape to draw. Picking the same kind twice
// goes back to the pen.
func (e *Engine) SelectShape(kind state.ShapeKind) []Effect {
	fx := e.endGesture(true)
	fx = append(fx, e.closeText()...)
	if e.shapes.Select(kind) {
		e.tool = state.ToolShape
	} else {
		e.tool = state.ToolPen
	}
	return append(fx, redraw)
}

func (e *Engine) SetColor(hex string) []Effect {
	e.color = hex
	return nil
}

func (e *Engine) SetLineWidth(w float64) []Effect {
	e.lineWidth = clamp(w, MinLineWidth, MaxLineWidth)
	return nil
}

func (e *Engine) SetOpacity(o float64) []Effect {
	e.opacity = clamp(o, MinOpacity, MaxOpacity)
	return nil
}

// SetFont sets the attributes of the next committed text.
func (e *Engine) SetFont(size float64, bold, italic bool) []Effect {
	e.font = text.Attrs{FontSize: clamp(size, MinFontSize, MaxFontSize), IsBold: bold, IsItalic: italic}
	return nil
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return min(max(v, lo), hi)
}

// SetDarkMode switches the theme. Background pixels of the raster follow,
// so later eraser strokes match what is on screen.
func (e *Engine) SetDarkMode(dark bool) []Effect {
	if dark == e.dark {
		return nil
	}
	e.raster.Retheme(state.Background(e.dark), state.Background(dark))
	e.dark = dark
	return []Effect{persistFx, redraw}
}

// PointerDown routes a press at p to the active tool. A press while a
// gesture is active, or while a clear awaits confirmation, is ignored.
func (e *Engine) PointerDown(p state.Point) []Effect {
	if e.gesture != gestureNone || e.pendingClear || !e.raster.Contains(p) {
		return nil
	}
	if _, ok := e.texts.Pending(); ok {
		// The press blurs the open input.
		return e.closeText()
	}
	if e.notes != nil && e.notes.HandleCanvasClick(p) {
		return nil
	}

	switch {
	case e.tool.IsStroke():
		e.gesture = gestureStroke
		return sends(e.capture.Start(e.pointEvent(p)))
	case e.tool == state.ToolShape:
		if e.shapes.Begin(p, e.color) == shape.GestureNone {
			return nil
		}
		e.gesture = gestureShape
		return []Effect{redraw}
	case e.tool == state.ToolText:
		if e.texts.Begin(p) != text.GestureNone {
			e.gesture = gestureText
			return []Effect{redraw}
		}
		e.texts.Place(p)
		return []Effect{redraw}
	}
	return nil
}

// PointerMove continues the active gesture. Without one it reports the
// hover position to the other peers.
func (e *Engine) PointerMove(p state.Point) []Effect {
	if !p.Finite() {
		return nil
	}
	switch e.gesture {
	case gestureStroke:
		fx := sends(e.capture.Continue(e.raster, e.pointEvent(p), e.Background()))
		if len(fx) == 0 {
			return nil
		}
		return append(fx, persistFx, redraw)
	case gestureShape:
		if e.shapes.Move(p) {
			return []Effect{redraw}
		}
	case gestureText:
		if e.texts.Move(p) {
			return []Effect{redraw}
		}
	default:
		if e.raster.Contains(p) {
			return []Effect{{Kind: EffectSend, Event: net.CursorMove(p)}}
		}
	}
	return nil
}

// PointerUp finishes the active gesture and commits its result.
func (e *Engine) PointerUp(state.Point) []Effect {
	return e.endGesture(false)
}

// PointerLeave ends a stroke when the pointer leaves the canvas. Shape and
// text gestures keep tracking until release.
func (e *Engine) PointerLeave() []Effect {
	if e.gesture != gestureStroke {
		return nil
	}
	return e.endGesture(false)
}

// SetTextInput updates the open text input.
func (e *Engine) SetTextInput(s string) []Effect {
	e.texts.SetInput(s)
	return nil
}

// SubmitText commits the open text input, as on Enter or blur.
func (e *Engine) SubmitText() []Effect {
	return e.closeText()
}

// CancelText drops the open text input.
func (e *Engine) CancelText() []Effect {
	if _, ok := e.texts.Pending(); !ok {
		return nil
	}
	e.texts.Discard()
	return []Effect{redraw}
}

func (e *Engine) Undo() []Effect {
	fx := e.endGesture(true)
	ok, err := e.history.Undo()
	if err != nil {
		e.log.Warn("undo failed", "err", err)
	}
	if ok {
		fx = append(fx, persistFx, redraw)
	}
	return fx
}

func (e *Engine) Redo() []Effect {
	fx := e.endGesture(true)
	ok, err := e.history.Redo()
	if err != nil {
		e.log.Warn("redo failed", "err", err)
	}
	if ok {
		fx = append(fx, persistFx, redraw)
	}
	return fx
}

// ClearCanvas only asks for confirmation; nothing is cleared yet.
func (e *Engine) ClearCanvas() []Effect {
	e.pendingClear = true
	return []Effect{{Kind: EffectConfirmClear}}
}

// ConfirmClearCanvas wipes the raster and both layers and commits. It does
// nothing unless a clear was requested.
func (e *Engine) ConfirmClearCanvas() []Effect {
	if !e.pendingClear {
		return nil
	}
	e.pendingClear = false
	fx := e.endGesture(true)
	e.texts.Discard()
	e.raster.Fill(e.Background())
	e.shapes.SetShapes(nil)
	e.texts.SetTexts(nil)
	return append(fx, e.commit()...)
}

// CancelClearCanvas drops the clear request without touching the canvas.
func (e *Engine) CancelClearCanvas() []Effect {
	e.pendingClear = false
	return nil
}

// ApplyTemplate draws img over the raster at the origin and commits.
func (e *Engine) ApplyTemplate(img image.Image) []Effect {
	fx := e.endGesture(true)
	e.raster.DrawImage(img)
	return append(fx, e.commit()...)
}

// LoadPersisted replaces the raster with a saved canvas image and makes it
// the history sentinel. Undecodable data is logged and the canvas stays
// blank.
func (e *Engine) LoadPersisted(data []byte) []Effect {
	if len(data) == 0 {
		return nil
	}
	if err := e.raster.DecodePNG(data, e.Background()); err != nil {
		e.log.Warn("saved canvas is unreadable, starting blank", "err", err)
		return nil
	}
	e.shapes.SetShapes(nil)
	e.texts.SetTexts(nil)
	if err := e.history.Init(); err != nil {
		e.log.Warn("init history", "err", err)
	}
	return []Effect{redraw}
}
