package client

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sohan181204/collaborative-canvas/internal/protocol"
)

// ErrClosed is returned by Send after Close.
var ErrClosed = errors.New("controller closed")

// Status is the connection lifecycle state.
type Status int

const (
	StatusDisconnected Status = iota
	StatusConnecting
	StatusConnected
	StatusReconnecting
)

func (s Status) String() string {
	switch s {
	case StatusDisconnected:
		return "disconnected"
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusReconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}

// Options tune the reconnection controller. Zero values fall back to the
// defaults the original client shipped with.
type Options struct {
	MaxReconnectAttempts int
	ReconnectDelay       time.Duration
	PingInterval         time.Duration
	Dialer               *websocket.Dialer
}

func (o *Options) withDefaults() Options {
	opts := *o
	if opts.MaxReconnectAttempts == 0 {
		opts.MaxReconnectAttempts = 5
	}
	if opts.ReconnectDelay == 0 {
		opts.ReconnectDelay = 3 * time.Second
	}
	if opts.PingInterval == 0 {
		opts.PingInterval = 2 * time.Second
	}
	if opts.Dialer == nil {
		opts.Dialer = websocket.DefaultDialer
	}
	return opts
}

// Controller owns one client connection to the relay: a bounded-retry
// reconnect loop, a FIFO queue for sends issued while disconnected, and a
// ping loop that measures round-trip latency. Inbound messages are
// dispatched to per-kind handlers on the read goroutine.
type Controller struct {
	url  string
	opts Options

	mu       sync.Mutex
	status   Status
	conn     *websocket.Conn
	queue    [][]byte
	attempts int
	closed   bool
	lastPing time.Time
	latency  time.Duration

	handlers   map[protocol.Kind]func(*protocol.Message)
	onStatus   func(Status)
	handlersMu sync.RWMutex

	done chan struct{}
	wg   sync.WaitGroup
}

// New prepares a controller without touching the network. Sends issued
// before Connect are queued and flushed once the first connection is up.
func New(url string, opts Options) *Controller {
	return &Controller{
		url:      url,
		opts:     (&opts).withDefaults(),
		handlers: make(map[protocol.Kind]func(*protocol.Message)),
		done:     make(chan struct{}),
	}
}

// On registers the handler for a message kind. The pong kind is consumed
// internally for latency measurement and never dispatched.
func (c *Controller) On(kind protocol.Kind, handler func(*protocol.Message)) {
	c.handlersMu.Lock()
	c.handlers[kind] = handler
	c.handlersMu.Unlock()
}

// OnStatus registers a callback invoked on every state transition.
func (c *Controller) OnStatus(fn func(Status)) {
	c.handlersMu.Lock()
	c.onStatus = fn
	c.handlersMu.Unlock()
}

// Connect starts the connection loop. It returns immediately; the
// controller establishes and maintains the transport in the background.
func (c *Controller) Connect() {
	c.wg.Add(1)
	go c.run()
}

// Close deliberately stops the ping loop and suppresses any further
// reconnection attempts. Terminal.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	conn := c.conn
	c.mu.Unlock()

	close(c.done)
	if conn != nil {
		conn.Close()
	}
	c.wg.Wait()
	return nil
}

// Send serializes the message and writes it, or queues it when not
// connected. The queue is unbounded and preserved across reconnect
// attempts, flushed in FIFO order before any newer send.
func (c *Controller) Send(msg *protocol.Message) error {
	data, err := msg.Encode()
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if c.status != StatusConnected || c.conn == nil {
		c.queue = append(c.queue, data)
		return nil
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Status returns the current lifecycle state.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Latency returns the last measured probe round trip.
func (c *Controller) Latency() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latency
}

func (c *Controller) run() {
	defer c.wg.Done()

	for {
		c.setStatus(StatusConnecting)

		conn, _, err := c.opts.Dialer.Dial(c.url, nil)
		if err != nil {
			if !c.backoff(err) {
				return
			}
			continue
		}

		c.attach(conn)

		pingDone := make(chan struct{})
		c.wg.Add(1)
		go c.pingLoop(conn, pingDone)

		c.readLoop(conn)
		close(pingDone)

		c.mu.Lock()
		c.conn = nil
		closed := c.closed
		c.mu.Unlock()

		if closed {
			c.setStatus(StatusDisconnected)
			return
		}
		if !c.backoff(errors.New("transport lost")) {
			return
		}
	}
}

// backoff waits the fixed reconnect delay, or reports false once the
// attempt limit is exhausted or the controller was closed.
func (c *Controller) backoff(cause error) bool {
	c.mu.Lock()
	c.attempts++
	attempts := c.attempts
	c.mu.Unlock()

	if attempts > c.opts.MaxReconnectAttempts {
		log.Printf("Max reconnection attempts reached: %v", cause)
		c.setStatus(StatusDisconnected)
		return false
	}

	log.Printf("Reconnecting (attempt %d/%d): %v", attempts, c.opts.MaxReconnectAttempts, cause)
	c.setStatus(StatusReconnecting)

	select {
	case <-time.After(c.opts.ReconnectDelay):
		return true
	case <-c.done:
		c.setStatus(StatusDisconnected)
		return false
	}
}

// attach installs the new transport, flushes the queue in FIFO order and
// only then marks the controller connected, so concurrent Sends cannot
// overtake queued messages.
func (c *Controller) attach(conn *websocket.Conn) {
	c.mu.Lock()
	c.conn = conn
	c.attempts = 0
	for _, data := range c.queue {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Printf("Queue flush failed: %v", err)
			break
		}
	}
	c.queue = nil
	c.status = StatusConnected
	c.mu.Unlock()

	c.notifyStatus(StatusConnected)
}

func (c *Controller) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		msg, err := protocol.Decode(data)
		if err != nil {
			log.Printf("Invalid message from server: %v", err)
			continue
		}

		if msg.Type == protocol.KindPong {
			c.mu.Lock()
			if !c.lastPing.IsZero() {
				c.latency = time.Since(c.lastPing)
			}
			c.mu.Unlock()
			continue
		}

		c.handlersMu.RLock()
		handler := c.handlers[msg.Type]
		c.handlersMu.RUnlock()

		if handler == nil {
			log.Printf("Unhandled message type %q", msg.Type)
			continue
		}
		handler(msg)
	}
}

func (c *Controller) pingLoop(conn *websocket.Conn, stop chan struct{}) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.opts.PingInterval)
	defer ticker.Stop()

	ping, err := (&protocol.Message{Type: protocol.KindPing}).Encode()
	if err != nil {
		return
	}

	for {
		select {
		case <-ticker.C:
			c.mu.Lock()
			if c.conn != conn || c.status != StatusConnected {
				c.mu.Unlock()
				return
			}
			c.lastPing = time.Now()
			err := conn.WriteMessage(websocket.TextMessage, ping)
			c.mu.Unlock()
			if err != nil {
				return
			}
		case <-stop:
			return
		case <-c.done:
			return
		}
	}
}

func (c *Controller) setStatus(status Status) {
	c.mu.Lock()
	changed := c.status != status
	c.status = status
	c.mu.Unlock()

	if changed {
		c.notifyStatus(status)
	}
}

func (c *Controller) notifyStatus(status Status) {
	c.handlersMu.RLock()
	fn := c.onStatus
	c.handlersMu.RUnlock()
	if fn != nil {
		fn(status)
	}
}
