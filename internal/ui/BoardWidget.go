package ui

import (
	"hash/fnv"
	"image/color"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"collabcanvas/internal/board"
	"collabcanvas/internal/state"
)

const cursorSize = 10

// cursorColors tints remote cursors; a peer keeps its color for the session.
var cursorColors = []color.NRGBA{
	{R: 230, G: 57, B: 70, A: 255},
	{R: 42, G: 157, B: 143, A: 255},
	{R: 233, G: 196, B: 106, A: 255},
	{R: 69, G: 123, B: 157, A: 255},
	{R: 157, G: 78, B: 221, A: 255},
}

// BoardWidget shows the composited canvas of a session, draws one marker
// per remote cursor and turns desktop mouse input into pointer transitions.
type BoardWidget struct {
	widget.BaseWidget
	session *board.Session
	entry   *textEntry

	mu      sync.Mutex
	cursors state.Cursors
	pressed bool
}

var (
	_ fyne.Widget       = (*BoardWidget)(nil)
	_ fyne.Draggable    = (*BoardWidget)(nil)
	_ desktop.Mouseable = (*BoardWidget)(nil)
	_ desktop.Hoverable = (*BoardWidget)(nil)
)

func NewBoardWidget(s *board.Session) *BoardWidget {
	b := &BoardWidget{session: s, entry: newTextEntry()}
	b.entry.SetPlaceHolder("Type and press Enter")
	b.entry.onEscape = func() {
		b.session.Apply(func(e *board.Engine) []board.Effect { return e.CancelText() })
		b.syncEntry()
	}
	b.entry.OnChanged = func(text string) {
		b.session.Apply(func(e *board.Engine) []board.Effect { return e.SetTextInput(text) })
	}
	b.entry.OnSubmitted = func(string) {
		b.session.Apply(func(e *board.Engine) []board.Effect { return e.SubmitText() })
		b.syncEntry()
	}
	b.entry.Hide()

	s.Cursors().OnChange(func(c state.Cursors) {
		b.mu.Lock()
		b.cursors = c
		b.mu.Unlock()
		fyne.Do(b.Refresh)
	})
	b.ExtendBaseWidget(b)
	return b
}

// textEntry is the text tool's input. Escape drops what was typed.
type textEntry struct {
	widget.Entry
	onEscape func()
}

func newTextEntry() *textEntry {
	e := &textEntry{}
	e.ExtendBaseWidget(e)
	return e
}

func (e *textEntry) TypedKey(key *fyne.KeyEvent) {
	if key.Name == fyne.KeyEscape && e.onEscape != nil {
		e.onEscape()
		return
	}
	e.Entry.TypedKey(key)
}

func toPoint(p fyne.Position) state.Point {
	return state.Point{X: float64(p.X), Y: float64(p.Y)}
}

func (b *BoardWidget) MouseDown(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary {
		return
	}
	b.mu.Lock()
	b.pressed = true
	b.mu.Unlock()
	p := toPoint(ev.Position)
	b.session.Apply(func(e *board.Engine) []board.Effect { return e.PointerDown(p) })
	b.syncEntry()
}

func (b *BoardWidget) MouseUp(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary {
		return
	}
	b.release(toPoint(ev.Position))
}

// release ends a press once; fyne may report both MouseUp and DragEnd.
func (b *BoardWidget) release(p state.Point) {
	b.mu.Lock()
	was := b.pressed
	b.pressed = false
	b.mu.Unlock()
	if was {
		b.session.Apply(func(e *board.Engine) []board.Effect { return e.PointerUp(p) })
	}
}

func (b *BoardWidget) Dragged(ev *fyne.DragEvent) {
	p := toPoint(ev.Position)
	b.session.Apply(func(e *board.Engine) []board.Effect { return e.PointerMove(p) })
}

func (b *BoardWidget) DragEnd() {
	b.release(state.Point{})
}

func (b *BoardWidget) MouseIn(*desktop.MouseEvent) {}

func (b *BoardWidget) MouseMoved(ev *desktop.MouseEvent) {
	p := toPoint(ev.Position)
	b.session.Apply(func(e *board.Engine) []board.Effect { return e.PointerMove(p) })
}

func (b *BoardWidget) MouseOut() {
	b.session.Apply(func(e *board.Engine) []board.Effect { return e.PointerLeave() })
}

// syncEntry shows the text input where text is being placed, or hides it.
func (b *BoardWidget) syncEntry() {
	var (
		at      state.Point
		pending bool
		size    float64
	)
	b.session.View(func(e *board.Engine) {
		at, _, pending = e.PendingText()
		size = e.Font().FontSize
	})
	if !pending {
		if b.entry.Visible() {
			b.entry.Hide()
			b.entry.SetText("")
		}
		return
	}
	b.entry.SetText("")
	b.entry.Move(fyne.NewPos(float32(at.X), float32(at.Y-size)))
	b.entry.Resize(fyne.NewSize(220, b.entry.MinSize().Height))
	b.entry.Show()
	if c := fyne.CurrentApp().Driver().CanvasForObject(b); c != nil {
		c.Focus(b.entry)
	}
}

func (b *BoardWidget) cursorSnapshot() state.Cursors {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cursors
}

func (b *BoardWidget) CreateRenderer() fyne.WidgetRenderer {
	img := canvas.NewImageFromImage(b.session.Render())
	img.FillMode = canvas.ImageFillOriginal
	img.ScaleMode = canvas.ImageScalePixels
	r := &boardRenderer{board: b, img: img}
	r.rebuild()
	return r
}

type boardRenderer struct {
	board   *BoardWidget
	img     *canvas.Image
	objects []fyne.CanvasObject
}

func (r *boardRenderer) size() fyne.Size {
	b := r.img.Image.Bounds()
	return fyne.NewSize(float32(b.Dx()), float32(b.Dy()))
}

func (r *boardRenderer) rebuild() {
	objects := []fyne.CanvasObject{r.img}
	for id, c := range r.board.cursorSnapshot() {
		marker := canvas.NewCircle(colorFor(id))
		marker.StrokeColor = color.White
		marker.StrokeWidth = 1
		marker.Resize(fyne.NewSize(cursorSize, cursorSize))
		marker.Move(fyne.NewPos(float32(c.X)-cursorSize/2, float32(c.Y)-cursorSize/2))
		objects = append(objects, marker)
	}
	r.objects = append(objects, r.board.entry)
}

func colorFor(peer string) color.NRGBA {
	h := fnv.New32a()
	h.Write([]byte(peer))
	return cursorColors[h.Sum32()%uint32(len(cursorColors))]
}

func (r *boardRenderer) Layout(fyne.Size) {
	r.img.Move(fyne.NewPos(0, 0))
	r.img.Resize(r.size())
}

func (r *boardRenderer) MinSize() fyne.Size { return r.size() }

func (r *boardRenderer) Refresh() {
	r.img.Image = r.board.session.Render()
	r.img.Refresh()
	r.rebuild()
	r.Layout(r.board.Size())
	canvas.Refresh(r.board)
}

func (r *boardRenderer) Objects() []fyne.CanvasObject { return r.objects }

func (r *boardRenderer) Destroy() {}
