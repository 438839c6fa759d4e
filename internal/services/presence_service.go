package services

import (
	"github.com/tutorhive/chat-core/internal/broker"
	"github.com/tutorhive/chat-core/internal/domain"
	"github.com/tutorhive/chat-core/internal/presence"
)

// PresenceChannel is the pseudo-room presence change events are broadcast
// on. Clients interested in who comes and goes subscribe to it like any
// other room.
const PresenceChannel = "presence"

// PresenceService is the transport-facing side of the presence registry.
// The embedding server calls Connect/Disconnect as client connections come
// and go; online/offline transitions (not every connection) are announced
// through the dispatcher.
type PresenceService struct {
	Registry   *presence.Registry
	Dispatcher broker.Dispatcher
}

// Connect records a live connection for userID. The first connection of an
// offline user broadcasts an online event; additional devices are silent.
func (s *PresenceService) Connect(userID, connID string) {
	if s.Registry.Connect(userID, connID) {
		s.Dispatcher.Broadcast(PresenceChannel, domain.PresenceChanged{
			Type:   domain.EventPresenceChanged,
			UserID: userID,
			Online: true,
		})
	}
}

// Disconnect drops the connection. The user's last connection going away
// broadcasts an offline event.
func (s *PresenceService) Disconnect(connID string) {
	userID, wentOffline := s.Registry.Disconnect(connID)
	if wentOffline {
		s.Dispatcher.Broadcast(PresenceChannel, domain.PresenceChanged{
			Type:   domain.EventPresenceChanged,
			UserID: userID,
			Online: false,
		})
	}
}
