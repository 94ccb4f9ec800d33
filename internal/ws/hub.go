package ws

import (
	"log"
	"time"

	"github.com/sohan181204/collaborative-canvas/internal/config"
	"github.com/sohan181204/collaborative-canvas/internal/presence"
	"github.com/sohan181204/collaborative-canvas/internal/protocol"
	"github.com/sohan181204/collaborative-canvas/internal/ratelimit"
	"github.com/sohan181204/collaborative-canvas/internal/room"
)

// DefaultRoom is the room every session belongs to until its first join.
const DefaultRoom = "main"

// Hub routes drawing events between the sessions of each room. One Run
// goroutine owns the room directory, the presence store and all fan-out, so
// no two broadcasts or room mutations ever interleave.
type Hub struct {
	directory *room.Directory
	presence  *presence.Store
	limiters  *ratelimit.SessionLimiters

	// live connections by session id, owned by the Run loop
	sessions map[string]*Client

	register   chan *Client
	unregister chan *Client
	inbound    chan *inbound
	stop       chan struct{}

	sweepInterval time.Duration
	wsCfg         config.WebSocketConfig
}

type inbound struct {
	client *Client
	msg    *protocol.Message
}

func NewHub(cfg *config.Config) *Hub {
	return &Hub{
		directory:     room.NewDirectory(),
		presence:      presence.NewStore(),
		limiters:      ratelimit.NewSessionLimiters(cfg.RateLimit.MessagesPerSecond, cfg.RateLimit.Burst),
		sessions:      make(map[string]*Client),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		inbound:       make(chan *inbound, 64),
		stop:          make(chan struct{}),
		sweepInterval: cfg.Liveness.SweepInterval,
		wsCfg:         cfg.WebSocket,
	}
}

func (h *Hub) Run() {
	ticker := time.NewTicker(h.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case client := <-h.register:
			h.addClient(client)

		case client := <-h.unregister:
			h.removeClient(client)

		case in := <-h.inbound:
			h.handleMessage(in.client, in.msg)

		case <-ticker.C:
			h.sweep()

		case <-h.stop:
			return
		}
	}
}

// Stop terminates the Run loop.
func (h *Hub) Stop() {
	close(h.stop)
}

func (h *Hub) addClient(c *Client) {
	user := h.presence.Register(c.sessionID)
	h.directory.Join(DefaultRoom, c.sessionID)
	c.roomID = DefaultRoom
	h.sessions[c.sessionID] = c

	log.Printf("Session %s connected as %q", c.sessionID, user.Name)
}

func (h *Hub) removeClient(c *Client) {
	if _, ok := h.sessions[c.sessionID]; !ok {
		// already reaped by the sweep
		return
	}
	delete(h.sessions, c.sessionID)

	roomID := c.roomID
	h.directory.Leave(roomID, c.sessionID)
	h.presence.Unregister(c.sessionID)
	h.limiters.Remove(c.sessionID)
	close(c.send)

	h.broadcast(&protocol.Message{
		Type:   protocol.KindUserLeft,
		UserID: c.sessionID,
	}, roomID, "")

	if h.directory.MemberCount(roomID) == 0 {
		log.Printf("Room %s closed (empty)", roomID)
	} else {
		log.Printf("Session %s left room %s (remaining: %d)",
			c.sessionID, roomID, h.directory.MemberCount(roomID))
	}
}

func (h *Hub) handleMessage(c *Client, msg *protocol.Message) {
	if _, ok := h.sessions[c.sessionID]; !ok {
		return
	}

	switch msg.Type {
	case protocol.KindJoin:
		h.handleJoin(c, msg.RoomID)

	case protocol.KindRenameUser:
		if err := h.presence.Rename(c.sessionID, msg.NewName); err != nil {
			log.Printf("Rejected rename from %s: %v", c.sessionID, err)
			return
		}
		h.broadcast(&protocol.Message{
			Type:    protocol.KindUserRenamed,
			UserID:  c.sessionID,
			NewName: msg.NewName,
		}, c.roomID, c.sessionID)

	case protocol.KindDrawPath:
		if msg.Path == nil || len(msg.Path.Points) == 0 {
			log.Printf("Dropped empty draw-path from %s", c.sessionID)
			return
		}
		path := *msg.Path
		path.UserID = c.sessionID
		h.broadcast(&protocol.Message{
			Type:   protocol.KindDrawPath,
			Path:   &path,
			UserID: c.sessionID,
		}, c.roomID, c.sessionID)

	case protocol.KindUndo, protocol.KindRedo, protocol.KindClearCanvas, protocol.KindDrawingStart:
		h.broadcast(&protocol.Message{
			Type:   msg.Type,
			UserID: c.sessionID,
		}, c.roomID, c.sessionID)

	case protocol.KindCursorMove:
		h.broadcast(&protocol.Message{
			Type:   protocol.KindCursorMove,
			X:      msg.X,
			Y:      msg.Y,
			UserID: c.sessionID,
		}, c.roomID, c.sessionID)

	case protocol.KindPing:
		h.send(c, &protocol.Message{Type: protocol.KindPong})

	default:
		log.Printf("Unknown message type %q from %s", msg.Type, c.sessionID)
	}
}

// handleJoin moves the session into the requested room, replies with an
// init snapshot and announces the arrival to the rest of the room.
func (h *Hub) handleJoin(c *Client, roomID string) {
	if roomID == "" {
		roomID = DefaultRoom
	}

	h.directory.Join(roomID, c.sessionID)
	c.roomID = roomID

	h.send(c, &protocol.Message{
		Type:   protocol.KindInit,
		UserID: c.sessionID,
		Users:  h.presence.Snapshot(h.directory.Members(roomID)),
	})

	user, _ := h.presence.Get(c.sessionID)
	h.broadcast(&protocol.Message{
		Type:   protocol.KindUserJoined,
		UserID: c.sessionID,
		User:   &user,
	}, roomID, c.sessionID)

	log.Printf("Session %s joined room %s (total: %d)",
		c.sessionID, roomID, h.directory.MemberCount(roomID))
}

// broadcast delivers msg to every live member of the room except exclude.
// Delivery is fire-and-forget per recipient: a full send buffer is logged
// and skipped without aborting the rest of the fan-out.
func (h *Hub) broadcast(msg *protocol.Message, roomID, exclude string) {
	data, err := msg.Encode()
	if err != nil {
		log.Printf("Broadcast encode error: %v", err)
		return
	}

	for _, id := range h.directory.Members(roomID) {
		if id == exclude {
			continue
		}
		client, ok := h.sessions[id]
		if !ok {
			continue
		}
		select {
		case client.send <- data:
		default:
			log.Printf("Delivery to %s failed (buffer full), dropping message", id)
		}
	}
}

func (h *Hub) send(c *Client, msg *protocol.Message) {
	data, err := msg.Encode()
	if err != nil {
		log.Printf("Send encode error: %v", err)
		return
	}
	select {
	case c.send <- data:
	default:
		log.Printf("Delivery to %s failed (buffer full), dropping message", c.sessionID)
	}
}

// sweep terminates every session that failed to acknowledge the previous
// probe, then arms the next round. A session gets exactly one probe cycle
// of grace.
func (h *Hub) sweep() {
	for id, client := range h.sessions {
		if !client.heartbeatOK() {
			log.Printf("Session %s missed liveness probe, terminating", id)
			h.removeClient(client)
			client.terminate()
			continue
		}
		client.expectPong()
		client.probe()
	}
}

// RoomCount returns the number of non-empty rooms.
func (h *Hub) RoomCount() int {
	return h.directory.Count()
}

// ClientCount returns the number of registered identities.
func (h *Hub) ClientCount() int {
	return h.presence.Count()
}

// RoomSummary returns member counts per active room.
func (h *Hub) RoomSummary() map[string]int {
	summary := make(map[string]int)
	for _, id := range h.directory.Rooms() {
		summary[id] = h.directory.MemberCount(id)
	}
	return summary
}
