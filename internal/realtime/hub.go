// Package realtime delivers notifications to websocket clients grouped in rooms.
package realtime

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/plantpal-service/internal/domain"
	"github.com/spec-kit/plantpal-service/internal/observability"
)

const (
	EventJoinRoom     = "join_room"
	EventNotification = "notification"

	DefaultQueueSize = 16
)

// WelcomeMessage is sent to a room whenever a client joins it.
const WelcomeMessage = "⚡ Connected to PlantPal Live Service"

// Frame is a server-to-client message.
type Frame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Conn is the write side of a client connection. WriteJSON is only called
// from the client's writer goroutine.
type Conn interface {
	WriteJSON(v any) error
	Close() error
}

// ClientState tracks a connection through its lifecycle.
type ClientState int32

const (
	StateConnected ClientState = iota
	StateJoined
	StateDisconnected
)

func (s ClientState) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateJoined:
		return "joined"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Client is one connection registered with the hub.
type Client struct {
	id        string
	subjectID string
	conn      Conn
	send      chan Frame
	done      chan struct{}
	state     atomic.Int32

	// guarded by Hub.mu
	rooms map[string]struct{}
}

func (c *Client) ID() string { return c.id }

// SubjectID is the verified user id of the connection, empty when anonymous.
func (c *Client) SubjectID() string { return c.subjectID }

func (c *Client) State() ClientState { return ClientState(c.state.Load()) }

// Done is closed once the writer has stopped and the connection is closed.
func (c *Client) Done() <-chan struct{} { return c.done }

// Hub is the room table. Rooms exist only while they have members.
type Hub struct {
	mu        sync.RWMutex
	rooms     map[string]map[*Client]struct{}
	clients   map[*Client]struct{}
	queueSize int
	logger    *zap.Logger
	metrics   *observability.Metrics
}

// NewHub creates an empty hub. queueSize bounds each client's outbound queue.
func NewHub(queueSize int, logger *zap.Logger, metrics *observability.Metrics) *Hub {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		rooms:     make(map[string]map[*Client]struct{}),
		clients:   make(map[*Client]struct{}),
		queueSize: queueSize,
		logger:    logger,
		metrics:   metrics,
	}
}

// Connect registers conn and starts its writer. The client is in no room yet.
func (h *Hub) Connect(conn Conn, subjectID string) *Client {
	c := &Client{
		id:        uuid.NewString(),
		subjectID: subjectID,
		conn:      conn,
		send:      make(chan Frame, h.queueSize),
		done:      make(chan struct{}),
		rooms:     make(map[string]struct{}),
	}
	c.state.Store(int32(StateConnected))

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	h.metrics.ClientConnected()
	go h.writeLoop(c)

	h.logger.Debug("realtime client connected", zap.String("client_id", c.id), zap.String("subject_id", subjectID))
	return c
}

// Join adds c to room. Joins are additive. It reports false for a
// disconnected client or an empty room name.
func (h *Hub) Join(c *Client, room string) bool {
	if room == "" {
		return false
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if c.State() == StateDisconnected {
		return false
	}
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
	c.rooms[room] = struct{}{}
	c.state.Store(int32(StateJoined))
	return true
}

// Notify queues n for every client in room and returns how many accepted it.
// It never blocks: a client with a full queue misses the message.
func (h *Hub) Notify(room string, n domain.Notification) int {
	frame := Frame{Event: EventNotification, Data: n}

	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for c := range h.rooms[room] {
		select {
		case c.send <- frame:
			delivered++
			h.metrics.NotificationDelivered()
		default:
			h.metrics.NotificationDropped()
			h.logger.Warn("realtime queue full; dropping notification",
				zap.String("client_id", c.id),
				zap.String("room", room),
			)
		}
	}
	return delivered
}

// Disconnect removes c from every room and stops its writer. Safe to call
// more than once.
func (h *Hub) Disconnect(c *Client) {
	h.mu.Lock()
	if c.State() == StateDisconnected {
		h.mu.Unlock()
		return
	}
	c.state.Store(int32(StateDisconnected))
	for room := range c.rooms {
		if members, ok := h.rooms[room]; ok {
			delete(members, c)
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
	}
	c.rooms = map[string]struct{}{}
	delete(h.clients, c)
	close(c.send)
	h.mu.Unlock()

	h.metrics.ClientDisconnected()
	h.logger.Debug("realtime client disconnected", zap.String("client_id", c.id))
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		h.Disconnect(c)
	}
}

// RoomSize returns the number of members in room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// ClientCount returns the number of registered clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) writeLoop(c *Client) {
	defer close(c.done)
	defer c.conn.Close()

	for frame := range c.send {
		if err := c.conn.WriteJSON(frame); err != nil {
			h.logger.Debug("realtime write failed", zap.String("client_id", c.id), zap.Error(err))
			h.Disconnect(c)
			return
		}
	}
}
