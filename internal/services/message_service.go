// Package services – MessageService
//
// This file implements MessageService, the application-level component that
// owns the room message log. It validates inputs, checks room membership,
// persists through the append-only repository, and pushes each stored message
// to the room's broadcast channel via the injected Dispatcher.
//
// Persistence is fail-closed: when the append fails, nothing is broadcast and
// the caller must resend. Delivery is fail-open: a broadcast that reaches no
// one is not an error.
//
// Observability: public methods are OpenTelemetry-instrumented; spans include
// room/user identifiers and pagination parameters where applicable.
package services

import (
	"context"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tutorhive/chat-core/internal/broker"
	"github.com/tutorhive/chat-core/internal/domain"
	"github.com/tutorhive/chat-core/internal/repo"
)

// MessageService coordinates message persistence and fan-out.
type MessageService struct {
	DB         *gorm.DB
	Rooms      *RoomService
	Dispatcher broker.Dispatcher

	// MaxContentRunes caps message content length; 0 disables the guard.
	MaxContentRunes int
}

// Send validates content, verifies the sender participates in the room,
// persists the message, and broadcasts it to the room's channel. The
// persisted record is returned so handlers can echo it to the sender.
func (s *MessageService) Send(ctx context.Context, senderID, roomID, content string) (*domain.ChatMessage, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "Send",
		trace.WithAttributes(
			attribute.String("room.id", roomID),
			attribute.String("user.id", senderID),
		),
	)
	defer span.End()

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}
	if s.MaxContentRunes > 0 && utf8.RuneCountInString(content) > s.MaxContentRunes {
		return nil, ErrMessageTooLong
	}

	room, err := s.Rooms.Get(ctx, senderID, roomID)
	if err != nil {
		return nil, err
	}

	m, err := repo.AppendMessage(s.DB.WithContext(ctx), room.ID, senderID, content)
	if err != nil {
		return nil, err
	}

	// Best-effort fan-out after the write is durable.
	s.Dispatcher.Broadcast(room.ID, domain.NewMessagePosted(*m))
	return m, nil
}

// ListBefore returns a page of room history for a participant, newest first.
// beforeID == 0 starts at the head; otherwise only messages strictly older
// than the cursor are returned. Callers render pages in reverse for
// chronological display.
func (s *MessageService) ListBefore(ctx context.Context, userID, roomID string, beforeID int64, limit int) ([]domain.ChatMessage, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "ListBefore",
		trace.WithAttributes(
			attribute.String("room.id", roomID),
			attribute.Int64("before_id", beforeID),
			attribute.Int("limit", limit),
		),
	)
	defer span.End()

	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	if _, err := s.Rooms.Get(ctx, userID, roomID); err != nil {
		return nil, err
	}
	return repo.ListMessagesBefore(s.DB.WithContext(ctx), roomID, beforeID, limit)
}

// MarkRead flips the read flag on the counterpart's unread messages and
// returns how many rows changed.
func (s *MessageService) MarkRead(ctx context.Context, userID, roomID string) (int64, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "MarkRead",
		trace.WithAttributes(
			attribute.String("room.id", roomID),
			attribute.String("user.id", userID),
		),
	)
	defer span.End()

	if _, err := s.Rooms.Get(ctx, userID, roomID); err != nil {
		return 0, err
	}
	return repo.MarkMessagesRead(s.DB.WithContext(ctx), roomID, userID)
}

// Recent returns the newest limit messages of a room without membership
// checks. It backs the RoomOpened payload, where the orchestrator has already
// established both participants.
func (s *MessageService) Recent(ctx context.Context, roomID string, limit int) ([]domain.ChatMessage, error) {
	return repo.ListMessagesBefore(s.DB.WithContext(ctx), roomID, 0, limit)
}
