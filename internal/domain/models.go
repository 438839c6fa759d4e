// Package domain defines the persistence models and event payloads for the
// real-time chat core: rooms, messages, handshake requests, and presence.
// Persisted types are mapped with GORM; in-memory types carry no ORM tags.
package domain

import (
	"time"
)

// ChatRoom is the canonical conversation between two users. The participant
// pair is stored in normalized (low, high) order so that lookups are
// independent of who initiated contact, and PairKey carries the uniqueness
// constraint that guarantees at most one room per unordered pair.
//
// Rooms are created lazily on the first successful handshake acceptance (or
// direct room request) and are never deleted by this core.
type ChatRoom struct {
	ID              string    `json:"id"               gorm:"type:char(36);primaryKey"`
	ParticipantLow  string    `json:"participant_low"  gorm:"type:varchar(64);not null;index:idx_room_low"`
	ParticipantHigh string    `json:"participant_high" gorm:"type:varchar(64);not null;index:idx_room_high"`
	PairKey         string    `json:"-"                gorm:"type:varchar(130);not null;uniqueIndex:ux_room_pair"`
	Category        string    `json:"category,omitempty" gorm:"type:varchar(64)"`
	CreatedAt       time.Time `json:"created_at"`
}

// TableName returns the database table name for ChatRoom.
func (ChatRoom) TableName() string { return "chat_rooms" }

// HasParticipant reports whether userID is one of the room's two participants.
func (r ChatRoom) HasParticipant(userID string) bool {
	return userID == r.ParticipantLow || userID == r.ParticipantHigh
}

// Participants returns both participant ids in canonical order.
func (r ChatRoom) Participants() []string {
	return []string{r.ParticipantLow, r.ParticipantHigh}
}

// Counterpart returns the other participant for userID, or "" when userID is
// not a participant of the room.
func (r ChatRoom) Counterpart(userID string) string {
	switch userID {
	case r.ParticipantLow:
		return r.ParticipantHigh
	case r.ParticipantHigh:
		return r.ParticipantLow
	}
	return ""
}

// ChatMessage is a single entry in a room's append-only log. The integer
// primary key auto-increments, so within a room messages are totally ordered
// by (CreatedAt, ID) and the ID doubles as a keyset-pagination cursor.
//
// Content is immutable after creation; IsRead is the only mutable field.
type ChatMessage struct {
	ID        int64     `json:"id"         gorm:"primaryKey;autoIncrement"`
	RoomID    string    `json:"room_id"    gorm:"type:char(36);not null;index:idx_room_msgs,priority:1"`
	SenderID  string    `json:"sender_id"  gorm:"type:varchar(64);not null"`
	Content   string    `json:"content"    gorm:"type:text;not null"`
	IsRead    bool      `json:"is_read"    gorm:"not null;default:false"`
	CreatedAt time.Time `json:"created_at" gorm:"index:idx_room_msgs,priority:2"`

	// Room is the owning conversation.
	Room ChatRoom `json:"-" gorm:"foreignKey:RoomID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for ChatMessage.
func (ChatMessage) TableName() string { return "chat_messages" }

// PresenceEntry records one live connection held by a user. A user may hold
// several entries at once (multi-device); the registry keeps these in memory
// only and rebuilds from scratch on process restart.
type PresenceEntry struct {
	UserID      string    `json:"user_id"`
	ConnID      string    `json:"conn_id"`
	ConnectedAt time.Time `json:"connected_at"`
}

// Profile is the public projection of a marketplace user that rides along on
// handshake notifications. The chat core never owns profile data; it is
// supplied through an injected lookup.
type Profile struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}
