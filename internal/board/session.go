package board

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"collabcanvas/internal/cursor"
	"collabcanvas/internal/export"
	"collabcanvas/internal/net"
	"collabcanvas/internal/persist"
)

// TemplateLoader loads a named background image for the canvas.
type TemplateLoader interface {
	LoadTemplate(ctx context.Context, name string) (image.Image, error)
}

type SessionOptions struct {
	Channel   net.Channel
	Store     persist.Store
	Templates TemplateLoader
	Cursors   *cursor.Aggregator

	// AutosaveInterval is the quiet period before a save; zero uses
	// persist.DefaultInterval.
	AutosaveInterval time.Duration

	// OnRedraw and OnConfirmClear run outside the session lock.
	OnRedraw       func()
	OnConfirmClear func()
}

// Session owns an Engine and carries out the effects of its transitions.
// All access to the engine goes through the session lock.
type Session struct {
	mu     sync.Mutex
	engine *Engine

	channel   net.Channel
	store     persist.Store
	saver     *persist.AutoSaver
	templates TemplateLoader
	cursors   *cursor.Aggregator
	unsub     func()

	onRedraw       func()
	onConfirmClear func()
	log            *slog.Logger
}

func NewSession(engine *Engine, opts SessionOptions) *Session {
	s := &Session{
		engine:         engine,
		channel:        opts.Channel,
		store:          opts.Store,
		templates:      opts.Templates,
		cursors:        opts.Cursors,
		onRedraw:       opts.OnRedraw,
		onConfirmClear: opts.OnConfirmClear,
		log:            slog.Default().With("component", "session"),
	}
	if s.channel == nil {
		s.channel = &net.Offline{}
	}
	if s.cursors == nil {
		w, h := engine.Size()
		s.cursors = cursor.New(float64(w), float64(h))
	}
	if s.store != nil {
		s.saver = persist.NewAutoSaver(s.store, opts.AutosaveInterval, s.EncodePNG)
	}
	s.unsub = s.channel.Subscribe(func(u net.CursorsUpdate) {
		s.cursors.Apply(u.Cursors)
	})
	return s
}

// Templates returns the configured template loader, or nil.
func (s *Session) Templates() TemplateLoader { return s.templates }

// Cursors returns the remote cursor aggregator fed by the channel.
func (s *Session) Cursors() *cursor.Aggregator { return s.cursors }

// Apply runs one transition under the session lock and then carries out
// its effects.
func (s *Session) Apply(fn func(*Engine) []Effect) {
	s.mu.Lock()
	fx := fn(s.engine)
	s.mu.Unlock()
	s.dispatch(fx)
}

// View runs fn under the session lock for reading engine state.
func (s *Session) View(fn func(*Engine)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.engine)
}

func (s *Session) dispatch(fx []Effect) {
	var redraw, confirm bool
	for _, f := range fx {
		switch f.Kind {
		case EffectSend:
			s.channel.Send(f.Event)
		case EffectPersist:
			if s.saver != nil {
				s.saver.Touch()
			}
		case EffectRedraw:
			redraw = true
		case EffectConfirmClear:
			confirm = true
		}
	}
	if redraw && s.onRedraw != nil {
		s.onRedraw()
	}
	if confirm && s.onConfirmClear != nil {
		s.onConfirmClear()
	}
}

// Render returns the composited canvas.
func (s *Session) Render() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Composite().Image()
}

// EncodePNG encodes the composited canvas, the form it is persisted in.
func (s *Session) EncodePNG() ([]byte, error) {
	s.mu.Lock()
	out := s.engine.Composite()
	s.mu.Unlock()
	return out.EncodePNG()
}

// Export writes the composited canvas to path and returns the path written.
func (s *Session) Export(path string) (string, error) {
	return export.WriteFile(path, s.Render())
}

// Restore loads the persisted canvas, if any, as the starting state. A
// store error is returned; an unreadable image only starts the canvas blank.
func (s *Session) Restore(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	data, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("restore canvas: %w", err)
	}
	s.Apply(func(e *Engine) []Effect { return e.LoadPersisted(data) })
	return nil
}

// ApplyTemplate loads the named template and draws it onto the canvas.
func (s *Session) ApplyTemplate(ctx context.Context, name string) error {
	if s.templates == nil {
		return fmt.Errorf("apply template %q: no template loader", name)
	}
	img, err := s.templates.LoadTemplate(ctx, name)
	if err != nil {
		return fmt.Errorf("apply template %q: %w", name, err)
	}
	s.Apply(func(e *Engine) []Effect { return e.ApplyTemplate(img) })
	return nil
}

// Close saves pending edits and closes the channel and the store.
func (s *Session) Close(ctx context.Context) error {
	s.unsub()
	var firstErr error
	if s.saver != nil {
		if err := s.saver.Stop(ctx); err != nil {
			firstErr = fmt.Errorf("final save: %w", err)
		}
	}
	if err := s.channel.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
