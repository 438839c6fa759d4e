package broker

import (
	"encoding/json"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

var (
	hubDelivered = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hub_events_delivered_total",
			Help: "Events handed to a subscriber channel.",
		},
		[]string{"kind"}, // room | user
	)
	hubDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hub_events_dropped_total",
			Help: "Events dropped because a subscriber buffer was full.",
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(hubDelivered, hubDropped)
}

// subscriber is one attached client connection. Its channel is buffered;
// a full buffer means the consumer is too slow and the event is dropped.
type subscriber struct {
	userID string
	ch     chan []byte
	rooms  map[string]bool
}

// Hub is the in-process Dispatcher. Connections attach to receive their
// user's private channel, then join any number of room channels. All state
// lives behind one RWMutex; delivery never blocks the caller.
type Hub struct {
	log    zerolog.Logger
	buffer int

	mu    sync.RWMutex
	conns map[string]*subscriber       // connID → subscriber
	users map[string]map[string]bool   // userID → set of connIDs
	rooms map[string]map[string]bool   // roomID → set of connIDs
}

// NewHub constructs a Hub whose per-connection buffers hold buffer events
// (values < 1 are coerced to 1).
func NewHub(log zerolog.Logger, buffer int) *Hub {
	if buffer < 1 {
		buffer = 1
	}
	return &Hub{
		log:    log,
		buffer: buffer,
		conns:  make(map[string]*subscriber),
		users:  make(map[string]map[string]bool),
		rooms:  make(map[string]map[string]bool),
	}
}

// Attach registers a connection for userID and returns the channel events
// will arrive on. The channel is closed by Detach.
func (h *Hub) Attach(userID, connID string) <-chan []byte {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub := &subscriber{
		userID: userID,
		ch:     make(chan []byte, h.buffer),
		rooms:  make(map[string]bool),
	}
	h.conns[connID] = sub
	if h.users[userID] == nil {
		h.users[userID] = make(map[string]bool)
	}
	h.users[userID][connID] = true
	return sub.ch
}

// Detach removes a connection from its user and all joined rooms and closes
// its channel. Unknown connection ids are ignored.
func (h *Hub) Detach(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub, ok := h.conns[connID]
	if !ok {
		return
	}
	delete(h.conns, connID)
	if set, ok := h.users[sub.userID]; ok {
		delete(set, connID)
		if len(set) == 0 {
			delete(h.users, sub.userID)
		}
	}
	for roomID := range sub.rooms {
		if set, ok := h.rooms[roomID]; ok {
			delete(set, connID)
			if len(set) == 0 {
				delete(h.rooms, roomID)
			}
		}
	}
	close(sub.ch)
}

// Join subscribes a connection to a room's broadcast channel.
func (h *Hub) Join(connID, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub, ok := h.conns[connID]
	if !ok {
		return
	}
	sub.rooms[roomID] = true
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[string]bool)
	}
	h.rooms[roomID][connID] = true
}

// Leave unsubscribes a connection from a room.
func (h *Hub) Leave(connID, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub, ok := h.conns[connID]
	if !ok {
		return
	}
	delete(sub.rooms, roomID)
	if set, ok := h.rooms[roomID]; ok {
		delete(set, connID)
		if len(set) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

// Broadcast implements Dispatcher: delivers event to every connection
// currently joined to roomID.
func (h *Hub) Broadcast(roomID string, event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.log.Error().Err(err).Str("room_id", roomID).Msg("marshal broadcast event")
		return
	}

	// Sends stay under the read lock: Detach closes channels under the write
	// lock, so a send can never race a close.
	h.mu.RLock()
	defer h.mu.RUnlock()
	for connID := range h.rooms[roomID] {
		if sub, ok := h.conns[connID]; ok {
			h.deliver(sub, payload, "room")
		}
	}
}

// SendToUser implements Dispatcher: delivers event to every active
// connection of userID's private channel.
func (h *Hub) SendToUser(userID string, event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("marshal direct event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for connID := range h.users[userID] {
		if sub, ok := h.conns[connID]; ok {
			h.deliver(sub, payload, "user")
		}
	}
}

// deliver performs a non-blocking send: a full buffer counts as a drop.
func (h *Hub) deliver(sub *subscriber, payload []byte, kind string) {
	select {
	case sub.ch <- payload:
		hubDelivered.WithLabelValues(kind).Inc()
	default:
		hubDropped.WithLabelValues(kind).Inc()
		h.log.Warn().Str("user_id", sub.userID).Str("kind", kind).Msg("subscriber buffer full, event dropped")
	}
}
