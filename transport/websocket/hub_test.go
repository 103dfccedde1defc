package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/slidepuzzle/game/engine"
)

func newTestClient(hub *Hub, sessionID string) *Client {
	return &Client{hub: hub, sessionID: sessionID, send: make(chan []byte, sendBuffer)}
}

func TestHubRegisterAndUnregister(t *testing.T) {
	hub := NewHub()
	c1 := newTestClient(hub, "s1")
	c2 := newTestClient(hub, "s1")

	hub.registerClient(c1)
	hub.registerClient(c2)
	assert.Len(t, hub.sessions["s1"], 2)

	hub.unregisterClient(c1)
	assert.Len(t, hub.sessions["s1"], 1)
	assert.True(t, hub.sessions["s1"][c2])

	_, open := <-c1.send
	assert.False(t, open, "unregistering closes the send channel")

	hub.unregisterClient(c2)
	_, exists := hub.sessions["s1"]
	assert.False(t, exists, "empty sessions are cleaned up")

	// A second unregister is a no-op
	hub.unregisterClient(c2)
}

func TestHubBroadcastMessage(t *testing.T) {
	hub := NewHub()
	target := newTestClient(hub, "s1")
	other := newTestClient(hub, "s2")
	hub.registerClient(target)
	hub.registerClient(other)

	hub.broadcastMessage(&Message{SessionID: "s1", Event: "state_update", GameState: &engine.GameState{LevelID: "level-1"}})

	require.Len(t, target.send, 1)
	assert.Empty(t, other.send, "only the session's clients receive it")

	var msg Message
	require.NoError(t, json.Unmarshal(<-target.send, &msg))
	assert.Equal(t, "s1", msg.SessionID)
	assert.Equal(t, "state_update", msg.Event)
	assert.Equal(t, "level-1", msg.GameState.LevelID)
}

func TestHubDropsSlowClient(t *testing.T) {
	hub := NewHub()
	slow := &Client{hub: hub, sessionID: "s1", send: make(chan []byte)}
	hub.registerClient(slow)

	hub.broadcastMessage(&Message{SessionID: "s1", Event: "x"})

	_, exists := hub.sessions["s1"]
	assert.False(t, exists)
}

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, r.URL.Query().Get("session"))
	}))
	t.Cleanup(server.Close)
	return hub, server
}

func dial(t *testing.T, server *httptest.Server, session string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "?session=" + session
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestHubEndToEnd(t *testing.T) {
	hub, server := startHub(t)
	conn := dial(t, server, "abc")
	other := dial(t, server, "xyz")

	assert.Equal(t, "connected", readMessage(t, conn).Event)
	assert.Equal(t, "connected", readMessage(t, other).Event)

	hub.BroadcastToSession("abc", &engine.GameState{LevelID: "level-1", MoveCount: 3})
	hub.BroadcastToSession("xyz", &engine.GameState{LevelID: "level-2"})

	msg := readMessage(t, conn)
	assert.Equal(t, "abc", msg.SessionID)
	assert.Equal(t, "state_update", msg.Event)
	require.NotNil(t, msg.GameState)
	assert.Equal(t, 3, msg.GameState.MoveCount)

	msg = readMessage(t, other)
	assert.Equal(t, "level-2", msg.GameState.LevelID)
}

func TestHubEvents(t *testing.T) {
	hub := NewHub()
	client := newTestClient(hub, "s1")
	hub.registerClient(client)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	hub.BroadcastEvents("s1", []engine.Event{{Type: engine.EventPush}}, &engine.GameState{})
	hub.BroadcastEvent("s1", "level_exported", map[string]string{"level_id": "custom-1"})

	var got []Message
	for i := 0; i < 2; i++ {
		select {
		case data := <-client.send:
			var msg Message
			require.NoError(t, json.Unmarshal(data, &msg))
			got = append(got, msg)
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for broadcast")
		}
	}
	assert.Equal(t, "tick", got[0].Event)
	require.Len(t, got[0].Events, 1)
	assert.Equal(t, engine.EventPush, got[0].Events[0].Type)
	assert.Equal(t, "level_exported", got[1].Event)
}

func TestHubCommands(t *testing.T) {
	hub := NewHub()
	var mu sync.Mutex
	var received []Command
	hub.OnCommand(func(ctx context.Context, sessionID string, cmd Command) {
		mu.Lock()
		defer mu.Unlock()
		if sessionID == "cmd" {
			received = append(received, cmd)
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, "cmd")
	}))
	defer server.Close()

	conn := dial(t, server, "cmd")
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	require.NoError(t, conn.WriteJSON(Command{Action: "move", Direction: "up"}))
	require.NoError(t, conn.WriteJSON(Command{Action: "undo"}))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 2
	}, 2*time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, Command{Action: "move", Direction: "up"}, received[0])
	assert.Equal(t, "undo", received[1].Action)
}

func TestHubStopClosesClients(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, "s")
	}))
	defer server.Close()

	conn := dial(t, server, "s")
	assert.Equal(t, "connected", readMessage(t, conn).Event)
	cancel()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err, "the connection is closed when the hub stops")

	// Broadcasting after shutdown does not block
	hub.BroadcastToSession("s", &engine.GameState{})
}
