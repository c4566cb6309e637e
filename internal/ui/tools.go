package ui

import (
	"fmt"
	"image/color"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"collabcanvas/internal/board"
	"collabcanvas/internal/state"
)

// palette is the swatch row, in display order.
var palette = []string{"#000000", "#ff0000", "#00a000", "#0000ff", "#ffff00", "#ff8800", "#8800ff"}

type colorSwatch struct {
	widget.BaseWidget
	Hex      string
	OnTapped func(hex string)
}

func newColorSwatch(hex string, tapped func(string)) *colorSwatch {
	s := &colorSwatch{Hex: hex, OnTapped: tapped}
	s.ExtendBaseWidget(s)
	return s
}

func (s *colorSwatch) CreateRenderer() fyne.WidgetRenderer {
	c := hexColor(s.Hex)
	rect := canvas.NewRectangle(c)
	rect.SetMinSize(fyne.NewSize(28, 28))

	border := canvas.NewRectangle(color.Transparent)
	border.StrokeColor = color.Gray{Y: 150}
	border.StrokeWidth = 1

	return widget.NewSimpleRenderer(container.NewStack(rect, border))
}

func (s *colorSwatch) Tapped(*fyne.PointEvent) {
	if s.OnTapped != nil {
		s.OnTapped(s.Hex)
	}
}

func hexColor(hex string) color.NRGBA {
	var r, g, b uint8
	if _, err := fmt.Sscanf(strings.TrimPrefix(hex, "#"), "%02x%02x%02x", &r, &g, &b); err != nil {
		return color.NRGBA{A: 255}
	}
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}

// shapeLabels names the shape buttons.
var shapeLabels = map[state.ShapeKind]string{
	state.ShapeCircle:    "Circle",
	state.ShapeSquare:    "Square",
	state.ShapeRectangle: "Rect",
	state.ShapeStar:      "Star",
}

func (a *App) newToolbar() fyne.CanvasObject {
	s := a.session
	apply := func(fn func(*board.Engine) []board.Effect) func() {
		return func() { s.Apply(fn) }
	}
	tool := func(t state.Tool) func() {
		return apply(func(e *board.Engine) []board.Effect { return e.SetTool(t) })
	}

	tb := widget.NewToolbar(
		widget.NewToolbarAction(theme.DocumentCreateIcon(), tool(state.ToolPen)),
		widget.NewToolbarAction(theme.ColorChromaticIcon(), tool(state.ToolHighlighter)),
		widget.NewToolbarAction(theme.ContentClearIcon(), tool(state.ToolEraser)),
		widget.NewToolbarAction(theme.FileTextIcon(), tool(state.ToolText)),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ContentUndoIcon(), apply((*board.Engine).Undo)),
		widget.NewToolbarAction(theme.ContentRedoIcon(), apply((*board.Engine).Redo)),
		widget.NewToolbarAction(theme.DeleteIcon(), apply((*board.Engine).ClearCanvas)),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.DocumentSaveIcon(), func() { a.exportDialog(".png") }),
		widget.NewToolbarAction(theme.DocumentPrintIcon(), func() { a.exportDialog(".pdf") }),
		widget.NewToolbarAction(theme.ColorAchromaticIcon(), apply(func(e *board.Engine) []board.Effect {
			return e.SetDarkMode(!e.DarkMode())
		})),
	)

	shapes := container.NewHBox()
	for _, kind := range state.ShapeKinds {
		shapes.Add(widget.NewButton(shapeLabels[kind], apply(func(e *board.Engine) []board.Effect {
			return e.SelectShape(kind)
		})))
	}

	colors := container.NewHBox()
	for _, hex := range palette {
		colors.Add(newColorSwatch(hex, func(hex string) {
			s.Apply(func(e *board.Engine) []board.Effect { return e.SetColor(hex) })
		}))
	}

	var lineWidth, opacity, fontSize float64
	var bold, italic bool
	s.View(func(e *board.Engine) {
		lineWidth, opacity = e.LineWidth(), e.Opacity()
		f := e.Font()
		fontSize, bold, italic = f.FontSize, f.IsBold, f.IsItalic
	})

	widthSlider := widget.NewSlider(board.MinLineWidth, board.MaxLineWidth)
	widthSlider.SetValue(lineWidth)
	widthSlider.OnChanged = func(v float64) {
		s.Apply(func(e *board.Engine) []board.Effect { return e.SetLineWidth(v) })
	}

	opacitySlider := widget.NewSlider(board.MinOpacity, board.MaxOpacity)
	opacitySlider.Step = 0.1
	opacitySlider.SetValue(opacity)
	opacitySlider.OnChanged = func(v float64) {
		s.Apply(func(e *board.Engine) []board.Effect { return e.SetOpacity(v) })
	}

	fontSlider := widget.NewSlider(board.MinFontSize, board.MaxFontSize)
	fontSlider.SetValue(fontSize)
	boldCheck := widget.NewCheck("Bold", nil)
	boldCheck.SetChecked(bold)
	italicCheck := widget.NewCheck("Italic", nil)
	italicCheck.SetChecked(italic)
	setFont := func() {
		size, b, i := fontSlider.Value, boldCheck.Checked, italicCheck.Checked
		s.Apply(func(e *board.Engine) []board.Effect { return e.SetFont(size, b, i) })
	}
	fontSlider.OnChanged = func(float64) { setFont() }
	boldCheck.OnChanged = func(bool) { setFont() }
	italicCheck.OnChanged = func(bool) { setFont() }

	slider := func(w fyne.CanvasObject) fyne.CanvasObject {
		return container.New(layout.NewGridWrapLayout(fyne.NewSize(120, 35)), w)
	}

	row := container.NewHBox(
		tb,
		widget.NewSeparator(),
		shapes,
		widget.NewSeparator(),
		colors,
		layout.NewSpacer(),
	)
	if t := a.templateSelect(); t != nil {
		row.Add(t)
	}
	return container.NewVBox(row, container.NewHBox(
		widget.NewLabel("Size:"), slider(widthSlider),
		widget.NewLabel("Opacity:"), slider(opacitySlider),
		widget.NewLabel("Font:"), slider(fontSlider),
		boldCheck, italicCheck,
		layout.NewSpacer(),
	))
}
