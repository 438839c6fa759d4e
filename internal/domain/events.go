package domain

import "time"

// Event type discriminators carried in every broker payload, so clients can
// switch on a single field regardless of the delivery channel.
const (
	EventMessagePosted   = "message.posted"
	EventRequestPushed   = "request.pushed"
	EventRoomOpened      = "room.opened"
	EventRequestRejected = "request.rejected"
	EventPresenceChanged = "presence.changed"
)

// MessagePosted is broadcast to a room's channel immediately after a message
// has been persisted.
type MessagePosted struct {
	Type    string      `json:"type"`
	Message ChatMessage `json:"message"`
}

// NewMessagePosted wraps a persisted message for broadcast.
func NewMessagePosted(m ChatMessage) MessagePosted {
	return MessagePosted{Type: EventMessagePosted, Message: m}
}

// RequestPushed is delivered to the target's private channel when a handshake
// request is created. It carries both participants' public profiles so the
// client can render the invitation without extra round trips.
type RequestPushed struct {
	Type        string    `json:"type"`
	RequestID   string    `json:"request_id"`
	FromUserID  string    `json:"from_user_id"`
	ToUserID    string    `json:"to_user_id"`
	CreatedAt   time.Time `json:"created_at"`
	FromProfile Profile   `json:"from_profile"`
	ToProfile   Profile   `json:"to_profile"`
}

// RoomOpened is delivered to both participants' private channels when a
// handshake is accepted. RecentMessages lets a returning pair resume with
// context immediately.
type RoomOpened struct {
	Type           string        `json:"type"`
	RequestID      string        `json:"request_id,omitempty"`
	Room           ChatRoom      `json:"room"`
	Participants   []string      `json:"participants"`
	RecentMessages []ChatMessage `json:"recent_messages,omitempty"`
}

// RequestRejected is delivered to the original requester's private channel
// when the target declines.
type RequestRejected struct {
	Type      string `json:"type"`
	RequestID string `json:"request_id"`
}

// PresenceChanged announces a user going online or offline.
type PresenceChanged struct {
	Type   string `json:"type"`
	UserID string `json:"user_id"`
	Online bool   `json:"online"`
}
