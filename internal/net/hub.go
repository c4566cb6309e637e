package net

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"maps"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"collabcanvas/internal/state"
)

const peerQueueSize = 64

// Peer is one client connected to the hub.
type Peer struct {
	ID   string
	conn *websocket.Conn
	send chan Event
}

// Hub is the shared session every client connects to. It assigns peer
// ids, keeps the last known cursor of each peer, pushes the full cursor
// map to everyone whenever it changes, and relays stroke events to the
// other peers.
type Hub struct {
	mu      sync.RWMutex
	peers   map[string]*Peer
	cursors state.Cursors

	upgrader websocket.Upgrader
	log      *slog.Logger
}

func NewHub() *Hub {
	return &Hub{
		peers:   make(map[string]*Peer),
		cursors: make(state.Cursors),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		log: slog.Default().With("component", "hub"),
	}
}

// Peers returns the number of connected peers.
func (h *Hub) Peers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.peers)
}

// Cursors returns a copy of the current cursor map.
func (h *Hub) Cursors() state.Cursors {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return maps.Clone(h.cursors)
}

// ListenAndServe serves the hub at addr under /ws until ctx is done.
func (h *Hub) ListenAndServe(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/ws", h)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	h.log.Info("hub listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}
	p := &Peer{ID: state.NewPeerID(), conn: conn, send: make(chan Event, peerQueueSize)}
	h.add(p)
	defer h.remove(p)

	go h.writeLoop(p)
	p.send <- Welcome(p.ID)
	h.readLoop(p)
}

func (h *Hub) add(p *Peer) {
	h.mu.Lock()
	h.peers[p.ID] = p
	h.mu.Unlock()
	h.log.Info("peer connected", "peer", p.ID, "remote", p.conn.RemoteAddr().String())
}

// remove drops the peer and its cursor; the others learn about it through
// the next cursors-update.
func (h *Hub) remove(p *Peer) {
	h.mu.Lock()
	delete(h.peers, p.ID)
	delete(h.cursors, p.ID)
	close(p.send)
	h.mu.Unlock()
	h.log.Info("peer disconnected", "peer", p.ID)
	h.broadcastCursors()
}

func (h *Hub) writeLoop(p *Peer) {
	defer p.conn.Close()
	for ev := range p.send {
		_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := p.conn.WriteJSON(ev); err != nil {
			h.log.Debug("write failed", "peer", p.ID, "err", err)
			return
		}
	}
	_ = p.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
}

func (h *Hub) readLoop(p *Peer) {
	for {
		_, buf, err := p.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Debug("read failed", "peer", p.ID, "err", err)
			}
			return
		}
		var ev Event
		if err := json.Unmarshal(buf, &ev); err != nil {
			h.log.Debug("skipping undecodable message", "peer", p.ID, "err", err)
			continue
		}
		h.handle(p, ev)
	}
}

func (h *Hub) handle(p *Peer, ev Event) {
	switch ev.Name {
	case EventDrawingStart, EventDrawing:
		pe, err := ev.PointEvent()
		if err != nil {
			h.log.Debug("skipping malformed stroke event", "peer", p.ID, "err", err)
			return
		}
		h.relay(p, ev)
		h.moveCursor(p, pe.Point())
	case EventDrawingEnd:
		h.relay(p, ev)
	case EventCursorMove:
		pt, err := ev.Point()
		if err != nil {
			return
		}
		h.moveCursor(p, pt)
	}
}

func (h *Hub) moveCursor(p *Peer, pt state.Point) {
	if !pt.Finite() {
		return
	}
	h.mu.Lock()
	h.cursors[p.ID] = state.Cursor{X: pt.X, Y: pt.Y}
	h.mu.Unlock()
	h.broadcastCursors()
}

// relay forwards ev to every peer except the sender.
func (h *Hub) relay(from *Peer, ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, p := range h.peers {
		if id != from.ID {
			h.enqueue(p, ev)
		}
	}
}

func (h *Hub) broadcastCursors() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ev := Cursors(maps.Clone(h.cursors))
	for _, p := range h.peers {
		h.enqueue(p, ev)
	}
}

// enqueue must be called with h.mu held. A slow peer loses events rather
// than stalling the hub.
func (h *Hub) enqueue(p *Peer, ev Event) {
	select {
	case p.send <- ev:
	default:
		h.log.Debug("peer queue full, dropping event", "peer", p.ID, "event", ev.Name)
	}
}
