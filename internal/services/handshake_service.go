// Package services – HandshakeService
//
// This file implements the request handshake orchestrator: a short-lived
// state machine that lets user A propose a chat connection to user B, and
// lets B accept (triggering room creation) or reject. Requests live in
// memory only, expire after a TTL, and transition to a terminal state exactly
// once; an illegal transition fails without side effects.
package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tutorhive/chat-core/internal/broker"
	"github.com/tutorhive/chat-core/internal/domain"
)

// ProfileLookup resolves a user's public profile for handshake notifications.
// Profile data is owned by the surrounding platform; a nil lookup degrades to
// bare user ids.
type ProfileLookup func(ctx context.Context, userID string) domain.Profile

// HandshakeService orchestrates the propose/accept/reject protocol.
type HandshakeService struct {
	Rooms      *RoomService
	Messages   *MessageService
	Dispatcher broker.Dispatcher
	Profiles   ProfileLookup
	Log        zerolog.Logger

	// TTL bounds the lifetime of a PENDING request; 0 means no expiry.
	TTL time.Duration
	// RecentLimit caps the message backlog included in RoomOpened.
	RecentLimit int

	// mu serializes state transitions, making each check-and-set atomic.
	// Accept holds it across room creation so a failed accept leaves the
	// request PENDING with no side effects.
	mu       sync.Mutex
	requests map[string]*domain.HandshakeRequest
}

// NewHandshakeService constructs the orchestrator with its dependencies.
func NewHandshakeService(rooms *RoomService, messages *MessageService, d broker.Dispatcher, profiles ProfileLookup, log zerolog.Logger, ttl time.Duration) *HandshakeService {
	return &HandshakeService{
		Rooms:       rooms,
		Messages:    messages,
		Dispatcher:  d,
		Profiles:    profiles,
		Log:         log,
		TTL:         ttl,
		RecentLimit: 20,
		requests:    make(map[string]*domain.HandshakeRequest),
	}
}

// Create registers a PENDING request from fromID to toID and pushes a
// RequestPushed notification to the target's private channel.
func (s *HandshakeService) Create(ctx context.Context, fromID, toID string) (*domain.HandshakeRequest, error) {
	tr := otel.Tracer("services/HandshakeService")
	ctx, span := tr.Start(ctx, "Create",
		trace.WithAttributes(
			attribute.String("user.id", fromID),
			attribute.String("peer.id", toID),
		),
	)
	defer span.End()

	if fromID == "" || toID == "" {
		return nil, ErrMissingParticipant
	}
	if fromID == toID {
		return nil, ErrSelfRequest
	}

	now := time.Now().UTC()
	req := &domain.HandshakeRequest{
		ID:         uuid.NewString(),
		FromUserID: fromID,
		ToUserID:   toID,
		Status:     domain.HandshakePending,
		CreatedAt:  now,
	}
	if s.TTL > 0 {
		req.ExpiresAt = now.Add(s.TTL)
	}

	s.mu.Lock()
	s.requests[req.ID] = req
	s.mu.Unlock()

	s.Dispatcher.SendToUser(toID, domain.RequestPushed{
		Type:        domain.EventRequestPushed,
		RequestID:   req.ID,
		FromUserID:  fromID,
		ToUserID:    toID,
		CreatedAt:   req.CreatedAt,
		FromProfile: s.profile(ctx, fromID),
		ToProfile:   s.profile(ctx, toID),
	})

	s.Log.Info().Str("request_id", req.ID).Str("from", fromID).Str("to", toID).Msg("handshake request created")
	return req, nil
}

// Accept transitions the request to ACCEPTED, resolves the canonical room
// through the room directory, and notifies both participants' private
// channels with a RoomOpened event. Only the designated target may accept;
// a terminal request or a room-directory failure leaves no trace.
func (s *HandshakeService) Accept(ctx context.Context, requestID, callerID string) (*domain.RoomOpened, error) {
	tr := otel.Tracer("services/HandshakeService")
	ctx, span := tr.Start(ctx, "Accept",
		trace.WithAttributes(
			attribute.String("request.id", requestID),
			attribute.String("user.id", callerID),
		),
	)
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	req, err := s.pendingLocked(requestID, callerID)
	if err != nil {
		return nil, err
	}

	room, err := s.Rooms.Open(ctx, req.FromUserID, req.ToUserID, "")
	if err != nil {
		// Request stays PENDING; the target may retry.
		return nil, err
	}
	req.Status = domain.HandshakeAccepted

	var recent []domain.ChatMessage
	if s.Messages != nil {
		if recent, err = s.Messages.Recent(ctx, room.ID, s.RecentLimit); err != nil {
			// History is a convenience; the room is open regardless.
			s.Log.Warn().Err(err).Str("room_id", room.ID).Msg("load recent messages")
			recent = nil
		}
	}

	opened := domain.RoomOpened{
		Type:           domain.EventRoomOpened,
		RequestID:      req.ID,
		Room:           *room,
		Participants:   room.Participants(),
		RecentMessages: recent,
	}
	s.Dispatcher.SendToUser(req.FromUserID, opened)
	s.Dispatcher.SendToUser(req.ToUserID, opened)

	s.Log.Info().Str("request_id", req.ID).Str("room_id", room.ID).Msg("handshake accepted")
	return &opened, nil
}

// Reject transitions the request to REJECTED and notifies the original
// requester. Only the designated target may reject.
func (s *HandshakeService) Reject(ctx context.Context, requestID, callerID string) error {
	tr := otel.Tracer("services/HandshakeService")
	_, span := tr.Start(ctx, "Reject",
		trace.WithAttributes(
			attribute.String("request.id", requestID),
			attribute.String("user.id", callerID),
		),
	)
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	req, err := s.pendingLocked(requestID, callerID)
	if err != nil {
		return err
	}
	req.Status = domain.HandshakeRejected

	s.Dispatcher.SendToUser(req.FromUserID, domain.RequestRejected{
		Type:      domain.EventRequestRejected,
		RequestID: req.ID,
	})

	s.Log.Info().Str("request_id", req.ID).Msg("handshake rejected")
	return nil
}

// Get returns a request by id, treating expired PENDING requests as missing.
func (s *HandshakeService) Get(requestID string) (*domain.HandshakeRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requests[requestID]
	if !ok {
		return nil, ErrRequestNotFound
	}
	if req.Status == domain.HandshakePending && req.Expired(time.Now().UTC()) {
		delete(s.requests, requestID)
		return nil, ErrRequestNotFound
	}
	cp := *req
	return &cp, nil
}

// Sweep drops requests whose TTL elapsed before now and terminal requests
// older than their expiry, returning how many were removed. Run it
// periodically from the composition root.
func (s *HandshakeService) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, req := range s.requests {
		if req.Expired(now) {
			delete(s.requests, id)
			removed++
		}
	}
	if removed > 0 {
		s.Log.Debug().Int("removed", removed).Msg("swept handshake requests")
	}
	return removed
}

// pendingLocked validates the transition preconditions under s.mu: the
// request exists, has not expired, is still PENDING, and callerID is its
// designated target.
func (s *HandshakeService) pendingLocked(requestID, callerID string) (*domain.HandshakeRequest, error) {
	req, ok := s.requests[requestID]
	if !ok {
		return nil, ErrRequestNotFound
	}
	if req.Status == domain.HandshakePending && req.Expired(time.Now().UTC()) {
		delete(s.requests, requestID)
		return nil, ErrRequestNotFound
	}
	if req.ToUserID != callerID {
		return nil, ErrNotRequestTarget
	}
	if req.Status != domain.HandshakePending {
		return nil, ErrRequestClosed
	}
	return req, nil
}

// profile resolves a participant profile, degrading to the bare id.
func (s *HandshakeService) profile(ctx context.Context, userID string) domain.Profile {
	if s.Profiles == nil {
		return domain.Profile{UserID: userID}
	}
	return s.Profiles(ctx, userID)
}
