package net

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collabcanvas/internal/state"
)

func startHub(t *testing.T) (*Hub, string) {
	t.Helper()
	hub := NewHub()
	srv := httptest.NewServer(hub)
	t.Cleanup(srv.Close)
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dialPeer(t *testing.T, url string) (*websocket.Conn, string) {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	ev := readEvent(t, conn)
	require.Equal(t, EventWelcome, ev.Name)
	id, err := ev.PeerID()
	require.NoError(t, err)
	require.NotEmpty(t, id)
	return conn, id
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev Event
	require.NoError(t, conn.ReadJSON(&ev))
	return ev
}

func TestHubAssignsDistinctPeerIDs(t *testing.T) {
	hub, url := startHub(t)
	_, a := dialPeer(t, url)
	_, b := dialPeer(t, url)
	assert.NotEqual(t, a, b)
	assert.Equal(t, 2, hub.Peers())
}

func TestHubBroadcastsCursorMove(t *testing.T) {
	_, url := startHub(t)
	connA, a := dialPeer(t, url)
	connB, _ := dialPeer(t, url)

	require.NoError(t, connA.WriteJSON(CursorMove(state.Point{X: 5, Y: 6})))

	for _, conn := range []*websocket.Conn{connA, connB} {
		ev := readEvent(t, conn)
		require.Equal(t, EventCursorsUpdate, ev.Name)
		c, err := ev.Cursors()
		require.NoError(t, err)
		assert.Equal(t, state.Cursor{X: 5, Y: 6}, c[a])
	}
}

func TestHubCursorsReturnsCopy(t *testing.T) {
	hub, url := startHub(t)
	conn, id := dialPeer(t, url)
	require.NoError(t, conn.WriteJSON(CursorMove(state.Point{X: 3, Y: 4})))
	readEvent(t, conn)

	got := hub.Cursors()
	require.Equal(t, state.Cursors{id: {X: 3, Y: 4}}, got)
	got[id] = state.Cursor{X: 99, Y: 99}
	delete(got, id)
	assert.Equal(t, state.Cursors{id: {X: 3, Y: 4}}, hub.Cursors())
}

func TestHubRelaysStrokesToOtherPeers(t *testing.T) {
	_, url := startHub(t)
	connA, a := dialPeer(t, url)
	connB, _ := dialPeer(t, url)

	pe := state.PointEvent{X: 30, Y: 40, Color: "#000000", LineWidth: 5, Opacity: 1, Tool: state.ToolPen}
	require.NoError(t, connA.WriteJSON(DrawingStart(pe)))

	relayed := readEvent(t, connB)
	require.Equal(t, EventDrawingStart, relayed.Name)
	got, err := relayed.PointEvent()
	require.NoError(t, err)
	assert.Equal(t, pe, got)

	update := readEvent(t, connB)
	require.Equal(t, EventCursorsUpdate, update.Name)
	c, err := update.Cursors()
	require.NoError(t, err)
	assert.Equal(t, state.Cursor{X: 30, Y: 40}, c[a])

	// The sender only sees the cursor update, never its own stroke.
	own := readEvent(t, connA)
	assert.Equal(t, EventCursorsUpdate, own.Name)
}

func TestHubDropsCursorOnDisconnect(t *testing.T) {
	hub, url := startHub(t)
	connA, a := dialPeer(t, url)
	connB, b := dialPeer(t, url)

	require.NoError(t, connB.WriteJSON(CursorMove(state.Point{X: 1, Y: 1})))
	first := readEvent(t, connA)
	c, err := first.Cursors()
	require.NoError(t, err)
	require.Contains(t, c, b)

	require.NoError(t, connB.Close())

	ev := readEvent(t, connA)
	require.Equal(t, EventCursorsUpdate, ev.Name)
	c, err = ev.Cursors()
	require.NoError(t, err)
	assert.NotContains(t, c, b)
	assert.NotContains(t, c, a)
	assert.Eventually(t, func() bool { return hub.Peers() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestHubIgnoresMalformedMessages(t *testing.T) {
	_, url := startHub(t)
	connA, a := dialPeer(t, url)

	require.NoError(t, connA.WriteMessage(websocket.TextMessage, []byte("not json")))
	require.NoError(t, connA.WriteJSON(Event{Name: EventDrawing}))
	require.NoError(t, connA.WriteJSON(Event{Name: "unknown"}))
	require.NoError(t, connA.WriteJSON(CursorMove(state.Point{X: 7, Y: 8})))

	ev := readEvent(t, connA)
	require.Equal(t, EventCursorsUpdate, ev.Name)
	c, err := ev.Cursors()
	require.NoError(t, err)
	assert.Equal(t, state.Cursors{a: {X: 7, Y: 8}}, c)
}

func TestClientReceivesWelcomeAndCursors(t *testing.T) {
	_, url := startHub(t)

	welcome := make(chan string, 1)
	client := Dial(context.Background(), ClientOptions{
		URL:       url,
		OnWelcome: func(id string) { welcome <- id },
	})
	t.Cleanup(func() { client.Close() })

	updates := make(chan CursorsUpdate, 4)
	client.Subscribe(func(u CursorsUpdate) { updates <- u })

	var self string
	select {
	case self = <-welcome:
	case <-time.After(2 * time.Second):
		t.Fatal("no welcome from hub")
	}

	client.Send(CursorMove(state.Point{X: 3, Y: 4}))
	select {
	case u := <-updates:
		assert.Equal(t, state.Cursor{X: 3, Y: 4}, u.Cursors[self])
	case <-time.After(2 * time.Second):
		t.Fatal("no cursors-update")
	}
}

func TestSubscribeCancel(t *testing.T) {
	var s subscribers
	calls := 0
	cancel := s.add(func(CursorsUpdate) { calls++ })
	s.publish(CursorsUpdate{})
	cancel()
	s.publish(CursorsUpdate{})
	assert.Equal(t, 1, calls)
}
