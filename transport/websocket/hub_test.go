package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/sokoban/game/engine"
)

func newTestClient(hub *Hub, sessionID string) *Client {
	return &Client{
		hub:       hub,
		sessionID: sessionID,
		send:      make(chan []byte, sendBuffer),
	}
}

func TestHubRegisterClient(t *testing.T) {
	hub := NewHub()
	client := newTestClient(hub, "test-session")

	hub.registerClient(client)

	assert.True(t, hub.sessions["test-session"][client])
	assert.Equal(t, 1, hub.ClientCount("test-session"))
}

func TestHubUnregisterClient(t *testing.T) {
	hub := NewHub()
	client := newTestClient(hub, "test-session")

	hub.registerClient(client)
	hub.unregisterClient(client)

	_, exists := hub.sessions["test-session"]
	assert.False(t, exists, "session should be cleaned up after last client unregistered")

	_, open := <-client.send
	assert.False(t, open, "send channel should be closed")

	// A second unregister is a no-op
	hub.unregisterClient(client)
}

func TestHubMultipleClientsInSession(t *testing.T) {
	hub := NewHub()
	sessionID := "multi-client-session"

	client1 := newTestClient(hub, sessionID)
	client2 := newTestClient(hub, sessionID)
	hub.registerClient(client1)
	hub.registerClient(client2)
	require.Equal(t, 2, hub.ClientCount(sessionID))

	hub.unregisterClient(client1)
	assert.Equal(t, 1, hub.ClientCount(sessionID))
	assert.True(t, hub.sessions[sessionID][client2])
}

func TestHubBroadcastMessage(t *testing.T) {
	hub := NewHub()
	client := newTestClient(hub, "broadcast-test")
	other := newTestClient(hub, "other")
	hub.registerClient(client)
	hub.registerClient(other)

	state := &engine.GameState{PlayerPos: engine.Position{X: 5, Y: 3}, Pushes: 2}
	hub.broadcastMessage(&Message{SessionID: "broadcast-test", GameState: state, Event: EventStateUpdate})

	select {
	case data := <-client.send:
		var message Message
		require.NoError(t, json.Unmarshal(data, &message))
		assert.Equal(t, "broadcast-test", message.SessionID)
		assert.Equal(t, EventStateUpdate, message.Event)
		assert.Equal(t, engine.Position{X: 5, Y: 3}, message.GameState.PlayerPos)
		assert.Equal(t, 2, message.GameState.Pushes)
	default:
		t.Fatal("no message delivered")
	}

	assert.Empty(t, other.send, "other sessions must not receive the message")
}

func TestHubDropsSlowClient(t *testing.T) {
	hub := NewHub()
	slow := &Client{hub: hub, sessionID: "slow", send: make(chan []byte, 1)}
	hub.registerClient(slow)

	hub.broadcastMessage(&Message{SessionID: "slow", Event: EventStateUpdate})
	hub.broadcastMessage(&Message{SessionID: "slow", Event: EventStateUpdate})

	assert.Equal(t, 0, hub.ClientCount("slow"))
}

func TestHubBroadcastEventQueues(t *testing.T) {
	hub := NewHub()

	hub.BroadcastEvent("event-test", EventSolved, "test-data")

	select {
	case message := <-hub.broadcast:
		assert.Equal(t, "event-test", message.SessionID)
		assert.Equal(t, EventSolved, message.Event)
		assert.Equal(t, "test-data", message.Data)
	case <-time.After(100 * time.Millisecond):
		t.Fatal("no broadcast message queued")
	}
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

func dial(t *testing.T, server *httptest.Server, sessionID string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "?session=" + sessionID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestWebSocketLifecycle(t *testing.T) {
	hub, server := startHub(t)
	conn := dial(t, server, "ws-test")

	assert.Eventually(t, func() bool { return hub.ClientCount("ws-test") == 1 },
		time.Second, 10*time.Millisecond)

	conn.Close()

	assert.Eventually(t, func() bool { return hub.ClientCount("ws-test") == 0 },
		time.Second, 10*time.Millisecond)
}

func TestWebSocketMessageReceive(t *testing.T) {
	hub, server := startHub(t)
	conn := dial(t, server, "msg-test")

	require.Eventually(t, func() bool { return hub.ClientCount("msg-test") == 1 },
		time.Second, 10*time.Millisecond)

	hub.BroadcastToSession("msg-test", &engine.GameState{
		PlayerPos: engine.Position{X: 3, Y: 1},
		Solved:    true,
	})
	hub.BroadcastEvent("msg-test", EventSolved, map[string]int{"moves": 4})

	conn.SetReadDeadline(time.Now().Add(time.Second))

	var update Message
	require.NoError(t, conn.ReadJSON(&update))
	assert.Equal(t, EventStateUpdate, update.Event)
	require.NotNil(t, update.GameState)
	assert.Equal(t, engine.Position{X: 3, Y: 1}, update.GameState.PlayerPos)
	assert.True(t, update.GameState.Solved)

	var solved Message
	require.NoError(t, conn.ReadJSON(&solved))
	assert.Equal(t, EventSolved, solved.Event)
	assert.Equal(t, map[string]interface{}{"moves": float64(4)}, solved.Data)
}
