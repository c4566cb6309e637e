package canvas

import (
	"fmt"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"

	"collabcanvas/internal/state"
)

// HandleSize is the side of the square resize handle drawn on text boxes.
const HandleSize = 10

// maxCachedFaces bounds the face cache; resize gestures produce many
// fractional sizes.
const maxCachedFaces = 64

type faceKey struct {
	bold, italic bool
	size         float64
}

// Fonts parses the embedded Go font family once and caches sized faces.
type Fonts struct {
	once  sync.Once
	err   error
	fonts [4]*truetype.Font // regular, bold, italic, bold italic

	mu    sync.Mutex
	faces map[faceKey]font.Face
}

var sharedFonts = &Fonts{}

func (f *Fonts) load() error {
	f.once.Do(func() {
		for i, ttf := range [][]byte{goregular.TTF, gobold.TTF, goitalic.TTF, gobolditalic.TTF} {
			parsed, err := truetype.Parse(ttf)
			if err != nil {
				f.err = fmt.Errorf("parse embedded font %d: %w", i, err)
				return
			}
			f.fonts[i] = parsed
		}
		f.faces = make(map[faceKey]font.Face)
	})
	return f.err
}

// Face returns the face for the given attributes.
func (f *Fonts) Face(size float64, bold, italic bool) (font.Face, error) {
	if err := f.load(); err != nil {
		return nil, err
	}
	key := faceKey{bold: bold, italic: italic, size: size}
	f.mu.Lock()
	defer f.mu.Unlock()
	if face, ok := f.faces[key]; ok {
		return face, nil
	}
	idx := 0
	if bold {
		idx |= 1
	}
	if italic {
		idx |= 2
	}
	if len(f.faces) >= maxCachedFaces {
		f.faces = make(map[faceKey]font.Face)
	}
	face := truetype.NewFace(f.fonts[idx], &truetype.Options{Size: size, Hinting: font.HintingFull})
	f.faces[key] = face
	return face, nil
}

func (s *Surface) setFace(rec state.TextRecord) bool {
	face, err := s.fonts.Face(rec.FontSize, rec.IsBold, rec.IsItalic)
	if err != nil {
		return false
	}
	s.dc.SetFontFace(face)
	return true
}

// MeasureText returns the glyph-measured advance width of rec, or its
// approximate width when no face is available.
func (s *Surface) MeasureText(rec state.TextRecord) float64 {
	if !s.setFace(rec) {
		return rec.ApproxWidth()
	}
	w, _ := s.dc.MeasureString(rec.Text)
	return w
}

// DrawText fills rec's text with its baseline at (X, Y).
func (s *Surface) DrawText(rec state.TextRecord) {
	if !s.setFace(rec) {
		return
	}
	s.dc.SetColor(ParseHex(rec.Color))
	s.dc.DrawString(rec.Text, rec.X, rec.Y)
}

// DrawTextBox outlines the bounding box of rec and fills its resize handle.
func (s *Surface) DrawTextBox(rec state.TextRecord, width float64) {
	h := rec.FontSize
	s.dc.SetColor(ParseHex(state.BoxColor))
	s.dc.SetLineWidth(1)
	s.dc.DrawRectangle(rec.X, rec.Y-h, width, h)
	s.dc.Stroke()
	s.dc.DrawRectangle(rec.X+width-HandleSize, rec.Y-h-HandleSize, HandleSize, HandleSize)
	s.dc.Fill()
}
