package canvas

import (
	"math"

	"github.com/fogleman/gg"

	"collabcanvas/internal/state"
)

// ShapeLineWidth is the outline width of rendered shapes.
const ShapeLineWidth = 2

// DrawShape outlines rec in its own color.
func (s *Surface) DrawShape(rec state.ShapeRecord) {
	tl, w, h := rec.Bounds()
	if w == 0 && h == 0 {
		return
	}
	s.dc.SetColor(ParseHex(rec.Color))
	s.dc.SetLineWidth(ShapeLineWidth)
	s.dc.SetLineJoin(gg.LineJoinRound)

	switch rec.Kind {
	case state.ShapeCircle:
		r := math.Min(w, h) / 2
		s.dc.DrawCircle(tl.X+w/2, tl.Y+h/2, r)
	case state.ShapeSquare:
		side := math.Min(w, h)
		x, y := rec.Origin.X, rec.Origin.Y
		if rec.Width < 0 {
			x -= side
		}
		if rec.Height < 0 {
			y -= side
		}
		s.dc.DrawRectangle(x, y, side, side)
	case state.ShapeRectangle:
		s.dc.DrawRectangle(tl.X, tl.Y, w, h)
	case state.ShapeStar:
		s.drawStar(tl.X+w/2, tl.Y+h/2, math.Min(w, h)/2)
	default:
		return
	}
	s.dc.Stroke()
}

// drawStar traces a five-pointed star with its top point straight up.
func (s *Surface) drawStar(cx, cy, outer float64) {
	const points = 5
	inner := outer * 0.4
	for i := 0; i < points*2; i++ {
		r := outer
		if i%2 == 1 {
			r = inner
		}
		a := -math.Pi/2 + float64(i)*math.Pi/points
		x, y := cx+r*math.Cos(a), cy+r*math.Sin(a)
		if i == 0 {
			s.dc.MoveTo(x, y)
		} else {
			s.dc.LineTo(x, y)
		}
	}
	s.dc.ClosePath()
}
