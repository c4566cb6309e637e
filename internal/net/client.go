package net

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	defaultOutboxSize = 256
	writeWait         = 5 * time.Second
)

// ClientOptions configures a websocket Client.
type ClientOptions struct {
	URL        string
	OutboxSize int
	MinBackoff time.Duration
	MaxBackoff time.Duration
	Dialer     *websocket.Dialer

	// OnWelcome receives the peer id the hub assigned to this client.
	OnWelcome func(peerID string)
	// OnStatus is told about every connect and disconnect.
	OnStatus func(connected bool, err error)
}

// Client is a Channel backed by a websocket connection to a Hub. It dials
// in the background and reconnects with capped exponential backoff.
type Client struct {
	opts   ClientOptions
	outbox chan Event
	subs   subscribers
	log    *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Dial starts a client for opts.URL. It returns at once; the connection is
// established, and re-established, in the background until Close.
func Dial(ctx context.Context, opts ClientOptions) *Client {
	if opts.OutboxSize <= 0 {
		opts.OutboxSize = defaultOutboxSize
	}
	if opts.MinBackoff <= 0 {
		opts.MinBackoff = 250 * time.Millisecond
	}
	if opts.MaxBackoff < opts.MinBackoff {
		opts.MaxBackoff = 10 * time.Second
	}
	if opts.Dialer == nil {
		opts.Dialer = websocket.DefaultDialer
	}
	ctx, cancel := context.WithCancel(ctx)
	c := &Client{
		opts:   opts,
		outbox: make(chan Event, opts.OutboxSize),
		log:    slog.Default().With("component", "net.client", "url", opts.URL),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go c.run(ctx)
	return c
}

// Send queues ev. When the outbox is full the event is dropped.
func (c *Client) Send(ev Event) {
	select {
	case c.outbox <- ev:
	default:
		c.log.Debug("outbox full, dropping event", "event", ev.Name)
	}
}

func (c *Client) Subscribe(fn func(CursorsUpdate)) func() {
	return c.subs.add(fn)
}

// Close tears the connection down and stops reconnecting.
func (c *Client) Close() error {
	c.once.Do(c.cancel)
	<-c.done
	return nil
}

func (c *Client) run(ctx context.Context) {
	defer close(c.done)
	backoff := c.opts.MinBackoff
	for {
		conn, _, err := c.opts.Dialer.DialContext(ctx, c.opts.URL, nil)
		if err == nil {
			backoff = c.opts.MinBackoff
			c.status(true, nil)
			err = c.serve(ctx, conn)
			c.status(false, err)
		} else {
			c.log.Warn("dial failed", "err", err, "retry_in", backoff)
		}
		if ctx.Err() != nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > c.opts.MaxBackoff {
			backoff = c.opts.MaxBackoff
		}
	}
}

func (c *Client) status(connected bool, err error) {
	if connected {
		c.log.Info("connected")
	} else {
		c.log.Info("disconnected", "err", err)
	}
	if c.opts.OnStatus != nil {
		c.opts.OnStatus(connected, err)
	}
}

// serve pumps the outbox into conn until the connection breaks or ctx ends.
func (c *Client) serve(ctx context.Context, conn *websocket.Conn) error {
	defer conn.Close()
	readErr := make(chan error, 1)
	go func() { readErr <- c.readLoop(conn) }()

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return ctx.Err()
		case err := <-readErr:
			return err
		case ev := <-c.outbox:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				return err
			}
		}
	}
}

func (c *Client) readLoop(conn *websocket.Conn) error {
	for {
		_, buf, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		var ev Event
		if err := json.Unmarshal(buf, &ev); err != nil {
			c.log.Debug("skipping undecodable message", "err", err)
			continue
		}
		c.dispatch(ev)
	}
}

// dispatch hands inbound events to their consumers. Stroke events from
// other peers are not applied locally; malformed payloads are skipped.
func (c *Client) dispatch(ev Event) {
	switch ev.Name {
	case EventCursorsUpdate:
		cursors, err := ev.Cursors()
		if err != nil {
			c.log.Debug("skipping malformed cursors-update", "err", err)
			return
		}
		c.subs.publish(CursorsUpdate{Cursors: cursors})
	case EventWelcome:
		id, err := ev.PeerID()
		if err != nil || id == "" {
			c.log.Debug("skipping malformed welcome", "err", err)
			return
		}
		if c.opts.OnWelcome != nil {
			c.opts.OnWelcome(id)
		}
	}
}
