// Package canvas owns the raster surface every drawing tool writes into.
//
// A Surface wraps an *image.RGBA with a fogleman/gg context that shares the
// same pixel buffer, so pixels written by gg are visible through Image and
// survive a PNG round trip unchanged as long as they are opaque.
package canvas

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"strconv"
	"strings"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"

	"collabcanvas/internal/state"
)

// Style is the resolved paint state of one stroke segment.
type Style struct {
	Color string
	Alpha float64
	Width float64
}

type Surface struct {
	img   *image.RGBA
	dc    *gg.Context
	fonts *Fonts
}

// NewSurface returns a width x height surface filled with background.
func NewSurface(width, height int, background string) *Surface {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	s := &Surface{
		img:   img,
		dc:    gg.NewContextForRGBA(img),
		fonts: sharedFonts,
	}
	s.Fill(background)
	return s
}

func (s *Surface) Width() int  { return s.img.Bounds().Dx() }
func (s *Surface) Height() int { return s.img.Bounds().Dy() }

// Image returns the live pixel buffer. Callers must not modify it.
func (s *Surface) Image() *image.RGBA { return s.img }

// At returns the pixel at (x, y).
func (s *Surface) At(x, y int) color.RGBA {
	return s.img.RGBAAt(x, y)
}

// Contains reports whether p lies on the surface.
func (s *Surface) Contains(p state.Point) bool {
	return p.Finite() && p.X >= 0 && p.Y >= 0 && p.X <= float64(s.Width()) && p.Y <= float64(s.Height())
}

// Fill replaces every pixel with the given color.
func (s *Surface) Fill(hex string) {
	s.dc.SetColor(ParseHex(hex))
	s.dc.Clear()
}

// StrokeSegment strokes a single round-capped line from one point to the next.
func (s *Surface) StrokeSegment(from, to state.Point, st Style) {
	c := ParseHex(st.Color)
	s.dc.SetColor(color.NRGBA{R: c.R, G: c.G, B: c.B, A: alpha8(st.Alpha)})
	s.dc.SetLineWidth(st.Width)
	s.dc.SetLineCap(gg.LineCapRound)
	s.dc.SetLineJoin(gg.LineJoinRound)
	s.dc.DrawLine(from.X, from.Y, to.X, to.Y)
	s.dc.Stroke()
}

// DrawImage composites img over the surface with its top-left at the origin.
func (s *Surface) DrawImage(img image.Image) {
	draw.Draw(s.img, s.img.Bounds(), img, img.Bounds().Min, draw.Over)
}

// Clone returns an independent copy of the surface.
func (s *Surface) Clone() *Surface {
	img := image.NewRGBA(s.img.Bounds())
	copy(img.Pix, s.img.Pix)
	return &Surface{img: img, dc: gg.NewContextForRGBA(img), fonts: s.fonts}
}

// EncodePNG encodes the current pixels.
func (s *Surface) EncodePNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, s.img); err != nil {
		return nil, fmt.Errorf("encode surface: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodePNG replaces the entire surface with the encoded image. An image of
// a different size is drawn at the origin over a background fill. On a
// decode error the surface is left untouched.
func (s *Surface) DecodePNG(data []byte, background string) error {
	src, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode surface: %w", err)
	}
	if src.Bounds().Size() == s.img.Bounds().Size() {
		draw.Draw(s.img, s.img.Bounds(), src, src.Bounds().Min, draw.Src)
		return nil
	}
	s.Fill(background)
	s.DrawImage(src)
	return nil
}

// Retheme swaps every pixel that exactly matches the old background for
// the new one, so erased and untouched regions follow a theme change.
func (s *Surface) Retheme(from, to string) {
	old, repl := ParseHex(from), ParseHex(to)
	pix := s.img.Pix
	for i := 0; i+3 < len(pix); i += 4 {
		if pix[i] == old.R && pix[i+1] == old.G && pix[i+2] == old.B && pix[i+3] == old.A {
			pix[i], pix[i+1], pix[i+2], pix[i+3] = repl.R, repl.G, repl.B, repl.A
		}
	}
}

// ParseHex parses #rgb, #rrggbb or #rrggbbaa. Anything else is opaque black.
func ParseHex(hex string) color.RGBA {
	h := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) == 6 {
		h += "ff"
	}
	if len(h) != 8 {
		return color.RGBA{A: 0xff}
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{A: 0xff}
	}
	return color.RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}
}

func alpha8(a float64) uint8 {
	switch {
	case a <= 0:
		return 0
	case a >= 1:
		return 255
	}
	return uint8(math.Round(a * 255))
}
