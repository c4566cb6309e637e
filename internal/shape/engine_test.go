package shape

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collabcanvas/internal/canvas"
	"collabcanvas/internal/state"
)

func create(t *testing.T, e *Engine, from, to state.Point) state.ShapeRecord {
	t.Helper()
	require.Equal(t, GestureCreate, e.Begin(from, "#ff0000"))
	require.True(t, e.Move(to))
	require.True(t, e.End())
	shapes := e.Shapes()
	return shapes[len(shapes)-1]
}

func TestCreateRectangle(t *testing.T) {
	e := New()
	e.Select(state.ShapeRectangle)
	rec := create(t, e, state.Point{X: 10, Y: 10}, state.Point{X: 50, Y: 80})
	assert.Equal(t, state.ShapeRecord{
		ID: 1, Kind: state.ShapeRectangle, Origin: state.Point{X: 10, Y: 10},
		Width: 40, Height: 70, Color: "#ff0000",
	}, rec)
}

func TestCreateInReverseKeepsSignedSize(t *testing.T) {
	e := New()
	e.Select(state.ShapeCircle)
	rec := create(t, e, state.Point{X: 100, Y: 100}, state.Point{X: 80, Y: 85})
	assert.Equal(t, -20.0, rec.Width)
	assert.Equal(t, -15.0, rec.Height)
}

func TestIDsStrictlyIncrease(t *testing.T) {
	e := New()
	e.Select(state.ShapeStar)
	a := create(t, e, state.Point{X: 10, Y: 10}, state.Point{X: 20, Y: 20})
	b := create(t, e, state.Point{X: 100, Y: 100}, state.Point{X: 120, Y: 120})
	assert.Greater(t, b.ID, a.ID)

	// Restoring an older list never rewinds the sequence.
	e.SetShapes(nil)
	c := create(t, e, state.Point{X: 200, Y: 200}, state.Point{X: 220, Y: 220})
	assert.Greater(t, c.ID, b.ID)
}

func TestSelectTogglesOff(t *testing.T) {
	e := New()
	assert.True(t, e.Select(state.ShapeSquare))
	assert.Equal(t, state.ShapeSquare, e.Selected())
	assert.True(t, e.Select(state.ShapeCircle))
	assert.False(t, e.Select(state.ShapeCircle))
	assert.Equal(t, state.ShapeKind(""), e.Selected())
}

func TestPreviewFollowsPointer(t *testing.T) {
	e := New()
	e.Select(state.ShapeRectangle)
	e.Begin(state.Point{X: 5, Y: 5}, "#000000")
	e.Move(state.Point{X: 15, Y: 25})
	p, ok := e.Preview()
	require.True(t, ok)
	assert.Equal(t, 10.0, p.Width)
	assert.Equal(t, 20.0, p.Height)
	assert.Empty(t, e.Shapes())
}

func TestClickWithoutMoveCreatesNothing(t *testing.T) {
	e := New()
	e.Select(state.ShapeRectangle)
	e.Begin(state.Point{X: 5, Y: 5}, "#000000")
	assert.False(t, e.End())
	assert.Empty(t, e.Shapes())
	assert.Equal(t, 1, e.NextID())
}

func TestNoSelectionStartsNothing(t *testing.T) {
	e := New()
	assert.Equal(t, GestureNone, e.Begin(state.Point{X: 5, Y: 5}, "#000000"))
}

func TestDragExistingShape(t *testing.T) {
	e := New()
	e.Select(state.ShapeRectangle)
	create(t, e, state.Point{X: 10, Y: 10}, state.Point{X: 50, Y: 50})

	require.Equal(t, GestureDrag, e.Begin(state.Point{X: 12, Y: 8}, "#000000"))
	e.Move(state.Point{X: 22, Y: 13})
	require.True(t, e.End())
	assert.Equal(t, state.Point{X: 20, Y: 15}, e.Shapes()[0].Origin)
}

func TestCreateInsideExistingShape(t *testing.T) {
	e := New()
	e.Select(state.ShapeRectangle)
	outer := create(t, e, state.Point{X: 10, Y: 10}, state.Point{X: 100, Y: 100})
	inner := create(t, e, state.Point{X: 20, Y: 20}, state.Point{X: 50, Y: 50})

	shapes := e.Shapes()
	require.Len(t, shapes, 2)
	assert.Equal(t, outer, shapes[0], "the outer shape is untouched")
	assert.Equal(t, state.Point{X: 20, Y: 20}, inner.Origin)
	assert.Equal(t, 30.0, inner.Width)
}

func TestResizeExistingShape(t *testing.T) {
	e := New()
	e.Select(state.ShapeRectangle)
	create(t, e, state.Point{X: 50, Y: 50}, state.Point{X: 10, Y: 10})

	require.Equal(t, GestureResize, e.Begin(state.Point{X: 50, Y: 50}, "#000000"))
	e.Move(state.Point{X: 60, Y: 70})
	require.True(t, e.End())
	rec := e.Shapes()[0]
	assert.Equal(t, state.Point{X: 10, Y: 10}, rec.Origin)
	assert.Equal(t, 50.0, rec.Width)
	assert.Equal(t, 60.0, rec.Height)
}

func TestCancelDiscardsPreview(t *testing.T) {
	e := New()
	e.Select(state.ShapeRectangle)
	e.Begin(state.Point{X: 5, Y: 5}, "#000000")
	e.Move(state.Point{X: 50, Y: 50})
	assert.False(t, e.Cancel())
	assert.Empty(t, e.Shapes())
	_, ok := e.Preview()
	assert.False(t, ok)
	assert.Equal(t, GestureNone, e.Active())
}

func TestRenderDrawsShapesAndPreview(t *testing.T) {
	e := New()
	e.Select(state.ShapeRectangle)
	create(t, e, state.Point{X: 10, Y: 10}, state.Point{X: 40, Y: 40})
	e.Begin(state.Point{X: 60, Y: 60}, "#00ff00")
	e.Move(state.Point{X: 90, Y: 90})

	s := canvas.NewSurface(100, 100, state.LightBackground)
	e.Render(s)
	white := canvas.ParseHex(state.LightBackground)
	assert.NotEqual(t, white, s.At(10, 25))
	assert.NotEqual(t, white, s.At(60, 75))
	assert.Equal(t, white, s.At(25, 25))
}
