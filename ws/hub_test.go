package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHubServer(t *testing.T) (*Hub, string) {
	t.Helper()

	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	e := echo.New()
	e.GET("/ws", ServeWS(hub))
	srv := httptest.NewServer(e)

	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &msg))
	return msg
}

func authenticate(t *testing.T, conn *websocket.Conn, token string) map[string]interface{} {
	t.Helper()
	require.NoError(t, conn.WriteJSON(AuthMessage{Type: TypeAuth, Token: token}))
	return readMessage(t, conn)
}

func TestAuthHandshake(t *testing.T) {
	_, url := startHubServer(t)
	conn := dial(t, url)

	ack := authenticate(t, conn, "user-42")
	assert.Equal(t, TypeConnected, ack["type"])
	assert.Equal(t, true, ack["authenticated"])
	assert.Nil(t, ack["error"])
}

func TestAuthWithoutTokenStaysConnected(t *testing.T) {
	hub, url := startHubServer(t)
	conn := dial(t, url)

	ack := authenticate(t, conn, "")
	assert.Equal(t, TypeConnected, ack["type"])
	assert.Equal(t, false, ack["authenticated"])
	assert.Equal(t, "missing token", ack["error"])

	// Auth failure does not evict: the client still receives broadcasts.
	hub.QueueUpdated()
	msg := readMessage(t, conn)
	assert.Equal(t, TypeQueueUpdate, msg["type"])
}

func TestMalformedMessageIsIgnored(t *testing.T) {
	_, url := startHubServer(t)
	conn := dial(t, url)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("definitely not json")))

	// The connection survives and a later AUTH still works.
	ack := authenticate(t, conn, "user-42")
	assert.Equal(t, true, ack["authenticated"])
}

func TestBroadcastReachesAllClients(t *testing.T) {
	hub, url := startHubServer(t)

	first := dial(t, url)
	second := dial(t, url)
	authenticate(t, first, "doctor-1")
	authenticate(t, second, "display-board")

	hub.QueueUpdated()

	for _, conn := range []*websocket.Conn{first, second} {
		msg := readMessage(t, conn)
		assert.Equal(t, TypeQueueUpdate, msg["type"])

		// QUEUE_UPDATE carries no payload; clients re-fetch on their own.
		assert.Len(t, msg, 1)
	}
}

func TestAuthRecordsClientIdentity(t *testing.T) {
	c := &Client{id: "c-1", send: make(chan []byte, 1)}

	c.handleAuth(AuthMessage{Type: TypeAuth, Token: "staff-3"})

	assert.Equal(t, "staff-3", c.userID)
	assert.True(t, c.authenticated)

	var ack ConnectedMessage
	require.NoError(t, json.Unmarshal(<-c.send, &ack))
	assert.True(t, ack.Authenticated)
}

func TestShutdownClosesClientsAndReleasesPumps(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	e := echo.New()
	e.GET("/ws", ServeWS(hub))
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	conn := dial(t, "ws"+strings.TrimPrefix(srv.URL, "http")+"/ws")
	authenticate(t, conn, "user-1")

	cancel()

	// The server side closes the connection.
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)

	// Pumps can still hand their clients back with no run loop on the other
	// end, instead of blocking forever.
	released := make(chan struct{})
	go func() {
		hub.drop(&Client{id: "stray", send: make(chan []byte, 1)})
		close(released)
	}()
	select {
	case <-released:
	case <-time.After(time.Second):
		t.Fatal("drop blocked after shutdown")
	}

	// And new connections are refused.
	assert.False(t, hub.add(&Client{id: "late", send: make(chan []byte, 1)}))
}

func TestUnknownMessageTypeIsIgnored(t *testing.T) {
	hub, url := startHubServer(t)
	conn := dial(t, url)
	authenticate(t, conn, "user-1")

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "PING"}))

	hub.QueueUpdated()
	msg := readMessage(t, conn)
	assert.Equal(t, TypeQueueUpdate, msg["type"])
}
