package ws

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/sohan181204/collaborative-canvas/internal/protocol"
	"github.com/sohan181204/collaborative-canvas/internal/ratelimit"
)

const maxRateLimitWarnings = 1000

// Client is one live server-side connection. roomID is owned by the hub's
// Run loop; the pumps only move frames between the socket and the hub.
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	ping      chan struct{}
	sessionID string
	roomID    string
	limiter   *ratelimit.Limiter

	aliveMu sync.Mutex
	alive   bool
}

// ServeWs upgrades an HTTP request to a session connection.
func ServeWs(hub *Hub, w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  hub.wsCfg.ReadBufferSize,
		WriteBufferSize: hub.wsCfg.WriteBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("Upgrade error:", err)
		return
	}

	sessionID := uuid.NewString()
	client := &Client{
		hub:       hub,
		conn:      conn,
		send:      make(chan []byte, hub.wsCfg.SendBufferSize),
		ping:      make(chan struct{}, 1),
		sessionID: sessionID,
		limiter:   hub.limiters.Get(sessionID),
		alive:     true,
	}

	hub.register <- client

	go client.writePump()
	go client.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	// transport-level deadline as a backstop behind the hub's sweep
	pongWait := 2*c.hub.sweepInterval + 10*time.Second
	c.conn.SetReadLimit(c.hub.wsCfg.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		c.markAlive()
		return nil
	})

	rateLimitWarnings := 0

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		if !c.limiter.Allow() {
			rateLimitWarnings++
			if rateLimitWarnings%100 == 1 {
				log.Printf("Rate limit exceeded for session %s (warning #%d)",
					c.sessionID, rateLimitWarnings)
			}
			if rateLimitWarnings > maxRateLimitWarnings {
				log.Printf("Disconnecting session %s for excessive rate limit violations", c.sessionID)
				return
			}
			continue
		}

		msg, err := protocol.Decode(data)
		if err != nil {
			log.Printf("Invalid message from session %s: %v", c.sessionID, err)
			continue
		}

		c.hub.inbound <- &inbound{client: c, msg: msg}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.hub.wsCfg.WriteTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-c.ping:
			c.conn.SetWriteDeadline(time.Now().Add(c.hub.wsCfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) heartbeatOK() bool {
	c.aliveMu.Lock()
	defer c.aliveMu.Unlock()
	return c.alive
}

func (c *Client) expectPong() {
	c.aliveMu.Lock()
	c.alive = false
	c.aliveMu.Unlock()
}

func (c *Client) markAlive() {
	c.aliveMu.Lock()
	c.alive = true
	c.aliveMu.Unlock()
}

// probe asks the write pump to send a liveness probe. Non-blocking: a probe
// already in flight is enough.
func (c *Client) probe() {
	select {
	case c.ping <- struct{}{}:
	default:
	}
}

func (c *Client) terminate() {
	if c.conn != nil {
		c.conn.Close()
	}
}
