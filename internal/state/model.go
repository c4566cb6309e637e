package state

import (
	"math"
	"unicode/utf8"
)

// Tool is the exclusive interaction mode that receives pointer input.
type Tool string

const (
	ToolPen         Tool = "pen"
	ToolHighlighter Tool = "highlighter"
	ToolEraser      Tool = "eraser"
	ToolShape       Tool = "shape"
	ToolText        Tool = "text"
)

// IsStroke reports whether the tool draws freehand strokes.
func (t Tool) IsStroke() bool {
	return t == ToolPen || t == ToolHighlighter || t == ToolEraser
}

// Valid reports whether t is one of the known tools.
func (t Tool) Valid() bool {
	switch t {
	case ToolPen, ToolHighlighter, ToolEraser, ToolShape, ToolText:
		return true
	}
	return false
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Finite reports whether both coordinates are real numbers.
func (p Point) Finite() bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

// PointEvent is one sample along a stroke in canvas-local coordinates.
// Its JSON form is the payload of drawing-start and drawing messages.
type PointEvent struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Color     string  `json:"color"`
	LineWidth float64 `json:"lineWidth"`
	Opacity   float64 `json:"opacity"`
	Tool      Tool    `json:"tool"`
}

func (e PointEvent) Point() Point {
	return Point{X: e.X, Y: e.Y}
}

type ShapeKind string

const (
	ShapeCircle    ShapeKind = "circle"
	ShapeSquare    ShapeKind = "square"
	ShapeRectangle ShapeKind = "rectangle"
	ShapeStar      ShapeKind = "star"
)

// ShapeKinds lists the selectable shapes in toolbar order.
var ShapeKinds = []ShapeKind{ShapeCircle, ShapeSquare, ShapeRectangle, ShapeStar}

// ShapeRecord is a parametric shape. Width and Height are signed: a drag
// up or to the left of the origin yields negative dimensions.
type ShapeRecord struct {
	ID     int       `json:"id"`
	Kind   ShapeKind `json:"type"`
	Origin Point     `json:"origin"`
	Width  float64   `json:"width"`
	Height float64   `json:"height"`
	Color  string    `json:"color"`
}

// Bounds returns the top-left corner and the absolute size of the shape.
func (s ShapeRecord) Bounds() (topLeft Point, w, h float64) {
	topLeft = s.Origin
	w, h = s.Width, s.Height
	if w < 0 {
		topLeft.X += w
		w = -w
	}
	if h < 0 {
		topLeft.Y += h
		h = -h
	}
	return topLeft, w, h
}

// TextRecord is a placed text annotation. (X, Y) is the baseline origin.
type TextRecord struct {
	Text     string  `json:"text"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	FontSize float64 `json:"fontSize"`
	IsBold   bool    `json:"isBold"`
	IsItalic bool    `json:"isItalic"`
	Color    string  `json:"color"`
}

// ApproxWidth estimates the rendered width when no glyph metrics are at hand.
func (t TextRecord) ApproxWidth() float64 {
	return t.FontSize * float64(utf8.RuneCountInString(t.Text)) * 0.6
}

type Cursor struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Cursors maps a peer id to its last reported position.
type Cursors map[string]Cursor

const (
	LightBackground = "#ffffff"
	DarkBackground  = "#282c34"
	// BoxColor outlines text bounding boxes and resize handles.
	BoxColor = "#0000ff"
)

// Background returns the fill color of the canvas for the given theme.
func Background(dark bool) string {
	if dark {
		return DarkBackground
	}
	return LightBackground
}
