package stroke

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collabcanvas/internal/canvas"
	"collabcanvas/internal/net"
	"collabcanvas/internal/state"
)

func pen(x, y float64) state.PointEvent {
	return state.PointEvent{X: x, Y: y, Color: "#000000", LineWidth: 5, Opacity: 1, Tool: state.ToolPen}
}

func names(evs []net.Event) []string {
	out := make([]string, 0, len(evs))
	for _, ev := range evs {
		out = append(out, ev.Name)
	}
	return out
}

func TestStyleFor(t *testing.T) {
	ev := pen(0, 0)
	ev.Opacity = 0.7
	assert.Equal(t, canvas.Style{Color: "#000000", Alpha: 0.7, Width: 5}, StyleFor(ev, state.LightBackground))

	ev.Tool = state.ToolHighlighter
	ev.Color = "#ffff00"
	assert.Equal(t, canvas.Style{Color: "#ffff00", Alpha: 0.05, Width: 12.5}, StyleFor(ev, state.LightBackground))

	ev.Tool = state.ToolEraser
	ev.Opacity = 1
	assert.Equal(t, canvas.Style{Color: state.DarkBackground, Alpha: 1, Width: 5}, StyleFor(ev, state.DarkBackground))
}

func TestCaptureEventSequence(t *testing.T) {
	s := canvas.NewSurface(100, 100, state.LightBackground)
	var c Capture

	assert.Equal(t, []string{net.EventDrawingStart}, names(c.Start(pen(10, 10))))
	assert.True(t, c.Drawing())
	assert.Equal(t, []string{net.EventDrawing}, names(c.Continue(s, pen(20, 20), state.LightBackground)))
	assert.Equal(t, []string{net.EventDrawing}, names(c.Continue(s, pen(30, 20), state.LightBackground)))

	evs, ok := c.End()
	require.True(t, ok)
	assert.Equal(t, []string{net.EventDrawingEnd}, names(evs))
	assert.False(t, c.Drawing())

	assert.NotEqual(t, canvas.ParseHex(state.LightBackground), s.At(20, 20))
}

func TestCaptureContinueWhileIdleDoesNothing(t *testing.T) {
	s := canvas.NewSurface(50, 50, state.LightBackground)
	before, err := s.EncodePNG()
	require.NoError(t, err)

	var c Capture
	assert.Empty(t, c.Continue(s, pen(10, 10), state.LightBackground))
	after, err := s.EncodePNG()
	require.NoError(t, err)
	assert.Equal(t, before, after)

	_, ok := c.End()
	assert.False(t, ok)
}

func TestCaptureIgnoresNonStrokeTools(t *testing.T) {
	var c Capture
	ev := pen(1, 1)
	ev.Tool = state.ToolText
	assert.Empty(t, c.Start(ev))
	assert.False(t, c.Drawing())
}

func TestEraserOnDarkBackgroundRestoresBackground(t *testing.T) {
	s := canvas.NewSurface(100, 100, state.DarkBackground)
	var c Capture
	c.Start(pen(20, 50))
	c.Continue(s, pen(80, 50), state.DarkBackground)
	c.End()
	require.NotEqual(t, canvas.ParseHex(state.DarkBackground), s.At(50, 50))

	eraser := pen(20, 50)
	eraser.Tool = state.ToolEraser
	eraser.LineWidth = 20
	c.Start(eraser)
	eraser.X = 80
	c.Continue(s, eraser, state.DarkBackground)
	c.End()
	assert.Equal(t, canvas.ParseHex(state.DarkBackground), s.At(50, 50))
}
