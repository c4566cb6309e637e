package canvas

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collabcanvas/internal/state"
)

var (
	white = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	dark  = color.RGBA{R: 0x28, G: 0x2c, B: 0x34, A: 0xff}
)

func TestParseHex(t *testing.T) {
	assert.Equal(t, white, ParseHex("#ffffff"))
	assert.Equal(t, white, ParseHex("fff"))
	assert.Equal(t, dark, ParseHex("#282c34"))
	assert.Equal(t, color.RGBA{R: 1, G: 2, B: 3, A: 4}, ParseHex("#01020304"))
	assert.Equal(t, color.RGBA{A: 0xff}, ParseHex("not a color"))
}

func TestNewSurface_FillsBackground(t *testing.T) {
	s := NewSurface(20, 10, state.DarkBackground)
	assert.Equal(t, 20, s.Width())
	assert.Equal(t, 10, s.Height())
	assert.Equal(t, dark, s.At(0, 0))
	assert.Equal(t, dark, s.At(19, 9))
}

func TestSurface_PNGRoundTripIsExact(t *testing.T) {
	s := NewSurface(64, 64, state.LightBackground)
	s.StrokeSegment(state.Point{X: 5, Y: 5}, state.Point{X: 60, Y: 40}, Style{Color: "#ff0000", Alpha: 0.5, Width: 7})
	data, err := s.EncodePNG()
	require.NoError(t, err)

	other := NewSurface(64, 64, state.DarkBackground)
	require.NoError(t, other.DecodePNG(data, state.DarkBackground))
	assert.Equal(t, s.Image().Pix, other.Image().Pix)
}

func TestSurface_DecodeErrorLeavesSurface(t *testing.T) {
	s := NewSurface(8, 8, state.LightBackground)
	before := append([]byte(nil), s.Image().Pix...)
	err := s.DecodePNG([]byte("garbage"), state.LightBackground)
	require.Error(t, err)
	assert.Equal(t, before, s.Image().Pix)
}

func TestSurface_DecodeSmallerImageBlitsAtOrigin(t *testing.T) {
	small := NewSurface(4, 4, "#ff0000")
	data, err := small.EncodePNG()
	require.NoError(t, err)

	s := NewSurface(8, 8, state.LightBackground)
	require.NoError(t, s.DecodePNG(data, state.DarkBackground))
	assert.Equal(t, color.RGBA{R: 0xff, A: 0xff}, s.At(0, 0))
	assert.Equal(t, dark, s.At(7, 7))
}

func TestSurface_StrokeSegmentPaints(t *testing.T) {
	s := NewSurface(40, 40, state.LightBackground)
	s.StrokeSegment(state.Point{X: 5, Y: 20}, state.Point{X: 35, Y: 20}, Style{Color: "#000000", Alpha: 1, Width: 4})
	assert.NotEqual(t, white, s.At(20, 20))
	assert.Equal(t, white, s.At(20, 5))
}

func TestSurface_Retheme(t *testing.T) {
	s := NewSurface(40, 40, state.LightBackground)
	s.StrokeSegment(state.Point{X: 5, Y: 20}, state.Point{X: 35, Y: 20}, Style{Color: "#000000", Alpha: 1, Width: 4})
	s.Retheme(state.LightBackground, state.DarkBackground)
	assert.Equal(t, dark, s.At(1, 1))
	assert.NotEqual(t, dark, s.At(20, 20))
}

func TestSurface_CloneIsIndependent(t *testing.T) {
	s := NewSurface(10, 10, state.LightBackground)
	c := s.Clone()
	c.Fill("#000000")
	assert.Equal(t, white, s.At(5, 5))
	assert.Equal(t, color.RGBA{A: 0xff}, c.At(5, 5))
}

func TestSurface_Contains(t *testing.T) {
	s := NewSurface(10, 10, state.LightBackground)
	assert.True(t, s.Contains(state.Point{X: 0, Y: 10}))
	assert.False(t, s.Contains(state.Point{X: -1, Y: 3}))
	assert.False(t, s.Contains(state.Point{X: 11, Y: 3}))
}

func TestSurface_MeasureText(t *testing.T) {
	s := NewSurface(10, 10, state.LightBackground)
	short := s.MeasureText(state.TextRecord{Text: "Hi", FontSize: 20})
	long := s.MeasureText(state.TextRecord{Text: "Hi there", FontSize: 20})
	assert.Greater(t, short, 0.0)
	assert.Greater(t, long, short)
}

func TestSurface_DrawShapeOutlines(t *testing.T) {
	s := NewSurface(100, 100, state.LightBackground)
	s.DrawShape(state.ShapeRecord{Kind: state.ShapeRectangle, Origin: state.Point{X: 80, Y: 80}, Width: -60, Height: -60, Color: "#000000"})
	assert.NotEqual(t, white, s.At(20, 50), "left edge of the normalized box")
	assert.Equal(t, white, s.At(50, 50), "outline only")
}

func TestSurface_DrawTextBox(t *testing.T) {
	s := NewSurface(200, 200, state.LightBackground)
	rec := state.TextRecord{Text: "Hi", X: 100, Y: 100, FontSize: 20}
	s.DrawTextBox(rec, 24)
	assert.NotEqual(t, white, s.At(119, 75), "handle is filled")
	assert.Equal(t, white, s.At(110, 90), "box is outlined, not filled")
}
