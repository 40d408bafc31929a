package ws

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// ErrClientClosed is returned by Connect after Close was called.
var ErrClientClosed = errors.New("display client closed")

// DefaultReconnectDelay is the fixed wait before a dropped connection is
// re-dialed. No backoff: one single-shot timer per disconnect.
const DefaultReconnectDelay = 5 * time.Second

// DisplayClientConfig configures a DisplayClient.
type DisplayClientConfig struct {
	// URL of the /ws endpoint, e.g. ws://host:port/ws.
	URL string
	// Token identifies the current user. An empty token means no user is
	// present: the client still connects but never reconnects on its own.
	Token string
	// OnQueueUpdate is invoked for every QUEUE_UPDATE frame. Callers re-fetch
	// the queue snapshot from here.
	OnQueueUpdate func()
	// ReconnectDelay overrides DefaultReconnectDelay when positive.
	ReconnectDelay time.Duration
}

// DisplayClient is the consumer side of the update channel, used by
// waiting-room display boards and portal processes. On an unexpected close it
// schedules exactly one reconnect attempt after a fixed delay, for as long as
// a user token is set; Close tears everything down and cancels any pending
// reconnect.
type DisplayClient struct {
	url            string
	onQueueUpdate  func()
	reconnectDelay time.Duration

	mu     sync.Mutex
	token  string
	conn   *websocket.Conn
	timer  *time.Timer
	closed bool
}

func NewDisplayClient(cfg DisplayClientConfig) *DisplayClient {
	delay := cfg.ReconnectDelay
	if delay <= 0 {
		delay = DefaultReconnectDelay
	}
	return &DisplayClient{
		url:            cfg.URL,
		token:          cfg.Token,
		onQueueUpdate:  cfg.OnQueueUpdate,
		reconnectDelay: delay,
	}
}

// Connect dials the server, sends the AUTH frame and starts reading.
func (c *DisplayClient) Connect() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClientClosed
	}
	token := c.token
	c.mu.Unlock()

	conn, _, err := websocket.DefaultDialer.Dial(c.url, nil)
	if err != nil {
		return err
	}

	auth, _ := json.Marshal(AuthMessage{Type: TypeAuth, Token: token})
	if err := conn.WriteMessage(websocket.TextMessage, auth); err != nil {
		conn.Close()
		return err
	}

	if !c.storeConn(conn) {
		conn.Close()
		return ErrClientClosed
	}

	go c.readLoop(conn)
	return nil
}

// storeConn records the dialed connection unless Close ran while the dial
// was in flight, in which case the caller must discard it.
func (c *DisplayClient) storeConn(conn *websocket.Conn) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.conn = conn
	return true
}

// SetUser swaps the user identity. Clearing it (empty string) stops future
// reconnect attempts and cancels a pending one.
func (c *DisplayClient) SetUser(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
	if token == "" && c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// Close shuts the connection down intentionally; no reconnect is scheduled.
func (c *DisplayClient) Close() {
	c.mu.Lock()
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
}

func (c *DisplayClient) readLoop(conn *websocket.Conn) {
	defer conn.Close()
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			c.handleDisconnect()
			return
		}

		var msg QueueUpdateMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.Warn().Err(err).Msg("display client: ignoring malformed frame")
			continue
		}
		if msg.Type == TypeQueueUpdate && c.onQueueUpdate != nil {
			c.onQueueUpdate()
		}
	}
}

// handleDisconnect schedules a single reconnect attempt after the fixed
// delay, provided the client was not closed and a user is still present.
func (c *DisplayClient) handleDisconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.token == "" || c.timer != nil {
		return
	}
	c.timer = time.AfterFunc(c.reconnectDelay, func() {
		c.mu.Lock()
		c.timer = nil
		closed := c.closed
		c.mu.Unlock()
		if closed {
			return
		}
		if err := c.Connect(); err != nil {
			log.Warn().Err(err).Msg("display client: reconnect failed")
			// Try again after another full delay.
			c.handleDisconnect()
		}
	})
}
