package handlers

import (
	"time"

	"gorm.io/gorm"

	"github.com/tutorhive/chat-core/internal/broker"
	"github.com/tutorhive/chat-core/internal/presence"
	"github.com/tutorhive/chat-core/internal/services"
)

// Handlers bundles the dependencies shared by every endpoint. Construct one
// per process and register it through RegisterRoutes.
type Handlers struct {
	DB         *gorm.DB
	Rooms      *services.RoomService
	Messages   *services.MessageService
	Handshakes *services.HandshakeService
	Presence   *presence.Registry

	// Hub and PresenceSvc back the /events stream; both are nil when the
	// broker is NATS and delivery happens out of process.
	Hub         *broker.Hub
	PresenceSvc *services.PresenceService

	// IdempotencyTTL bounds how long a replayed Idempotency-Key returns
	// the original message. Must be positive; config validation enforces
	// this.
	IdempotencyTTL time.Duration
}

// pageMeta describes an offset-paginated collection reply.
type pageMeta struct {
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total"`
}
