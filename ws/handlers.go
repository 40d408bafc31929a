package ws

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client is one WebSocket connection. Connections are accepted
// unauthenticated; the AUTH frame fills in the user identity.
type Client struct {
	id   string
	conn *websocket.Conn
	send chan []byte

	userID        string
	authenticated bool
}

// ServeWS upgrades the request and registers the connection with the hub.
func ServeWS(hub *Hub) echo.HandlerFunc {
	return func(c echo.Context) error {
		conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			return err
		}
		client := &Client{
			id:   uuid.NewString(),
			conn: conn,
			send: make(chan []byte, 256),
		}
		if !hub.add(client) {
			conn.Close()
			return nil
		}

		go client.writePump()
		go client.readPump(hub)
		return nil
	}
}

func (c *Client) readPump(hub *Hub) {
	defer func() {
		log.Debug().
			Str("client_id", c.id).
			Str("user_id", c.userID).
			Bool("authenticated", c.authenticated).
			Msg("ws client disconnected")
		hub.drop(c)
		c.conn.Close()
	}()
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			break
		}

		var msg AuthMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			// Malformed payloads are logged and ignored; the connection stays up.
			log.Warn().Str("client_id", c.id).Err(err).Msg("ignoring malformed ws message")
			continue
		}

		switch msg.Type {
		case TypeAuth:
			c.handleAuth(msg)
		default:
			log.Debug().Str("client_id", c.id).Str("type", msg.Type).Msg("ignoring ws message")
		}
	}
}

// handleAuth records the user identity and acknowledges with CONNECTED.
// Auth failure does not evict the client: waiting-room displays connect
// without a user token and still need the broadcast stream.
func (c *Client) handleAuth(msg AuthMessage) {
	ack := ConnectedMessage{Type: TypeConnected}
	if msg.Token == "" {
		ack.Authenticated = false
		ack.Error = "missing token"
	} else {
		c.userID = msg.Token
		c.authenticated = true
		ack.Authenticated = true
		log.Info().Str("client_id", c.id).Str("user_id", c.userID).Msg("ws client authenticated")
	}

	payload, err := json.Marshal(ack)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal CONNECTED ack")
		return
	}
	select {
	case c.send <- payload:
	default:
	}
}

func (c *Client) writePump() {
	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			break
		}
	}
	c.conn.Close()
}
