package ui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"collabcanvas/internal/board"
	"collabcanvas/internal/export"
)

// App is the desktop window around one canvas session.
type App struct {
	fyne    fyne.App
	win     fyne.Window
	status  *widget.Label
	session *board.Session
	board   *BoardWidget
	log     *slog.Logger
}

func NewApp(title string) *App {
	a := app.NewWithID("collabcanvas")
	return &App{
		fyne:   a,
		win:    a.NewWindow(title),
		status: widget.NewLabel("Ready"),
		log:    slog.Default().With("component", "ui"),
	}
}

// SetStatus updates the status bar. It is safe to call from any goroutine.
func (a *App) SetStatus(text string) {
	fyne.Do(func() { a.status.SetText(text) })
}

// Run builds the session around engine, shows the window and blocks until
// it is closed. The session is closed, and pending edits saved, on return.
func (a *App) Run(ctx context.Context, engine *board.Engine, opts board.SessionOptions, shareLink string) error {
	opts.OnRedraw = func() {
		fyne.Do(func() {
			if a.board != nil {
				a.board.Refresh()
			}
		})
	}
	opts.OnConfirmClear = func() {
		fyne.Do(a.confirmClear)
	}
	a.session = board.NewSession(engine, opts)
	if err := a.session.Restore(ctx); err != nil {
		a.log.Warn("could not restore saved canvas", "err", err)
	}
	a.board = NewBoardWidget(a.session)

	footer := container.NewHBox(a.status)
	if shareLink != "" {
		link := widget.NewEntry()
		link.SetText(shareLink)
		footer.Add(widget.NewLabel("Share:"))
		footer.Add(link)
	}

	a.win.SetContent(container.NewBorder(a.newToolbar(), footer, nil, nil, container.NewScroll(a.board)))
	a.win.Resize(fyne.NewSize(1024, 768))
	a.addShortcuts()
	a.win.ShowAndRun()

	return a.session.Close(ctx)
}

func (a *App) addShortcuts() {
	c := a.win.Canvas()
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyZ, Modifier: fyne.KeyModifierShortcutDefault}, func(fyne.Shortcut) {
		a.session.Apply((*board.Engine).Undo)
	})
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyY, Modifier: fyne.KeyModifierShortcutDefault}, func(fyne.Shortcut) {
		a.session.Apply((*board.Engine).Redo)
	})
}

func (a *App) confirmClear() {
	dialog.ShowConfirm("Clear canvas", "Erase everything on the canvas?", func(ok bool) {
		if ok {
			a.session.Apply((*board.Engine).ConfirmClearCanvas)
		} else {
			a.session.Apply((*board.Engine).CancelClearCanvas)
		}
	}, a.win)
}

func (a *App) exportDialog(ext string) {
	d := dialog.NewFileSave(func(w fyne.URIWriteCloser, err error) {
		if err != nil {
			dialog.ShowError(err, a.win)
			return
		}
		if w == nil {
			return
		}
		defer w.Close()

		img := a.session.Render()
		write := export.PNG
		if strings.EqualFold(w.URI().Extension(), ".pdf") {
			write = export.PDF
		}
		if err := write(w, img); err != nil {
			a.log.Error("export failed", "uri", w.URI().String(), "err", err)
			dialog.ShowError(err, a.win)
			return
		}
		a.SetStatus(fmt.Sprintf("Saved %s", w.URI().Name()))
	}, a.win)
	d.SetFileName("canvas" + ext)
	d.Show()
}

// lister is implemented by template loaders that can enumerate templates.
type lister interface {
	List() ([]string, error)
}

func (a *App) templateSelect() fyne.CanvasObject {
	l, ok := a.templates().(lister)
	if !ok {
		return nil
	}
	names, err := l.List()
	if err != nil || len(names) == 0 {
		return nil
	}
	sel := widget.NewSelect(names, func(name string) {
		go func() {
			if err := a.session.ApplyTemplate(context.Background(), name); err != nil {
				a.log.Warn("template not applied", "template", name, "err", err)
				a.SetStatus("Template failed: " + name)
			}
		}()
	})
	sel.PlaceHolder = "Template"
	return sel
}

func (a *App) templates() board.TemplateLoader {
	return a.session.Templates()
}
