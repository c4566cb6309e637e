package text

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collabcanvas/internal/canvas"
	"collabcanvas/internal/state"
)

var attrs = Attrs{FontSize: 20, Color: "#000000"}

// placeHi commits "Hi" at (100, 100) with the approximate measurer, giving
// the box [100, 124] x [80, 100].
func placeHi(t *testing.T) *Engine {
	t.Helper()
	e := New(nil)
	e.Place(state.Point{X: 100, Y: 100})
	e.SetInput("Hi")
	_, ok := e.Commit(attrs)
	require.True(t, ok)
	return e
}

func TestCommitAppendsRecord(t *testing.T) {
	e := New(nil)
	e.Place(state.Point{X: 10, Y: 30})
	e.SetInput("  hello ")
	rec, ok := e.Commit(Attrs{FontSize: 16, IsBold: true, Color: "#ff0000"})
	require.True(t, ok)
	assert.Equal(t, state.TextRecord{Text: "hello", X: 10, Y: 30, FontSize: 16, IsBold: true, Color: "#ff0000"}, rec)
	assert.Len(t, e.Texts(), 1)

	_, pending := e.Pending()
	assert.False(t, pending)
}

func TestEmptyCommitIsNoop(t *testing.T) {
	e := New(nil)
	e.Place(state.Point{X: 10, Y: 30})
	e.SetInput("   ")
	_, ok := e.Commit(attrs)
	assert.False(t, ok)
	assert.Empty(t, e.Texts())

	_, ok = e.Commit(attrs)
	assert.False(t, ok, "nothing pending")
}

func TestHitTestDragInsideBox(t *testing.T) {
	e := placeHi(t)
	assert.Equal(t, GestureDrag, e.Begin(state.Point{X: 110, Y: 90}))
	e.Move(state.Point{X: 130, Y: 95})
	require.True(t, e.End())
	rec := e.Texts()[0]
	assert.Equal(t, 120.0, rec.X)
	assert.Equal(t, 105.0, rec.Y)
}

func TestHitTestResizeHandle(t *testing.T) {
	e := placeHi(t)
	require.Equal(t, GestureResize, e.Begin(state.Point{X: 124, Y: 70}))

	e.Move(state.Point{X: 174, Y: 70})
	assert.Equal(t, 25.0, e.Texts()[0].FontSize)

	// Size is derived from the gesture start, not accumulated per move.
	e.Move(state.Point{X: 144, Y: 70})
	assert.Equal(t, 22.0, e.Texts()[0].FontSize)

	e.Move(state.Point{X: -1000, Y: 70})
	assert.Equal(t, float64(MinFontSize), e.Texts()[0].FontSize)
	assert.True(t, e.End())
}

func TestMissStartsNothing(t *testing.T) {
	e := placeHi(t)
	assert.Equal(t, GestureNone, e.Begin(state.Point{X: 300, Y: 300}))
	assert.False(t, e.End())
}

func TestTopmostTextWins(t *testing.T) {
	e := placeHi(t)
	e.Place(state.Point{X: 105, Y: 100})
	e.SetInput("Yo")
	_, ok := e.Commit(attrs)
	require.True(t, ok)

	i, g := e.HitTest(state.Point{X: 110, Y: 90})
	assert.Equal(t, 1, i)
	assert.Equal(t, GestureDrag, g)
}

func TestMeasurerOverridesApproximation(t *testing.T) {
	e := New(func(state.TextRecord) float64 { return 50 })
	rec := state.TextRecord{Text: "Hi", FontSize: 20}
	assert.Equal(t, 50.0, e.Width(rec))

	e = New(func(state.TextRecord) float64 { return 0 })
	assert.Equal(t, 24.0, e.Width(rec))
}

func TestRenderDrawsBoxes(t *testing.T) {
	e := placeHi(t)
	s := canvas.NewSurface(200, 150, state.LightBackground)
	e.Render(s)
	w := e.Width(e.Texts()[0])
	handle := s.At(int(100+w-5), 100-20-5)
	assert.Equal(t, canvas.ParseHex(state.BoxColor), handle)
}
