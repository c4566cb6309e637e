package net

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"collabcanvas/internal/state"
)

// Event names on the wire. There is no versioning field.
const (
	EventDrawingStart  = "drawing-start"
	EventDrawing       = "drawing"
	EventDrawingEnd    = "drawing-end"
	EventCursorMove    = "cursor-move"
	EventCursorsUpdate = "cursors-update"
	EventWelcome       = "welcome"
)

// Event is the envelope for every message exchanged with a session.
type Event struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data,omitempty"`
}

// CursorsUpdate is the full replacement cursor map pushed by the hub.
type CursorsUpdate struct {
	Cursors state.Cursors
}

type welcomePayload struct {
	PeerID string `json:"peerId"`
}

func newEvent(name string, v any) Event {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Warn("dropping unencodable payload", "component", "net", "event", name, "err", err)
		return Event{Name: name}
	}
	return Event{Name: name, Data: data}
}

func DrawingStart(ev state.PointEvent) Event { return newEvent(EventDrawingStart, ev) }
func Drawing(ev state.PointEvent) Event      { return newEvent(EventDrawing, ev) }
func DrawingEnd() Event                      { return Event{Name: EventDrawingEnd} }
func CursorMove(p state.Point) Event         { return newEvent(EventCursorMove, p) }
func Cursors(c state.Cursors) Event          { return newEvent(EventCursorsUpdate, c) }
func Welcome(peerID string) Event            { return newEvent(EventWelcome, welcomePayload{PeerID: peerID}) }

// PointEvent decodes the payload of a drawing-start or drawing message.
func (e Event) PointEvent() (state.PointEvent, error) {
	var ev state.PointEvent
	if err := e.decode(&ev); err != nil {
		return ev, err
	}
	return ev, nil
}

// Point decodes the payload of a cursor-move message.
func (e Event) Point() (state.Point, error) {
	var p state.Point
	err := e.decode(&p)
	return p, err
}

// Cursors decodes the payload of a cursors-update message.
func (e Event) Cursors() (state.Cursors, error) {
	c := state.Cursors{}
	err := e.decode(&c)
	return c, err
}

// PeerID decodes the payload of a welcome message.
func (e Event) PeerID() (string, error) {
	var w welcomePayload
	err := e.decode(&w)
	return w.PeerID, err
}

func (e Event) decode(v any) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("%s: empty payload", e.Name)
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("%s: %w", e.Name, err)
	}
	return nil
}
