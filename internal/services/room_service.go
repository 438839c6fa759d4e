// Package services – RoomService
//
// This file implements the room directory: it maps an unordered pair of user
// ids to a single canonical room, creating the room on first contact. The
// uniqueness guarantee lives in the repository (constraint + retry); this
// layer adds input validation, participant scoping, and pagination.
package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tutorhive/chat-core/internal/domain"
)

// RoomRepo defines the repository contract required by RoomService.
type RoomRepo interface {
	// GetOrCreateRoom returns the canonical room for the unordered pair,
	// inserting it when absent. Concurrent first contact must yield one room.
	GetOrCreateRoom(ctx context.Context, db *gorm.DB, userA, userB, category string) (*domain.ChatRoom, error)

	// GetRoom fetches a room by id scoped to a participant.
	GetRoom(ctx context.Context, db *gorm.DB, id, userID string) (*domain.ChatRoom, error)

	// CountRooms returns the total number of rooms for pagination.
	CountRooms(ctx context.Context, db *gorm.DB, userID string) (int64, error)

	// ListRoomsPage returns a page of the user's rooms.
	ListRoomsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.ChatRoom, error)
}

// RoomService provides the room directory operations.
type RoomService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the room repository used by this service.
	Repo RoomRepo
}

// NewRoomService constructs a RoomService.
func NewRoomService(db *gorm.DB, r RoomRepo) *RoomService {
	return &RoomService{DB: db, Repo: r}
}

// Open returns the canonical room between selfID and otherID, creating it on
// first contact. Category is recorded on creation only. Self-pairing is
// rejected before any side effect.
func (s *RoomService) Open(ctx context.Context, selfID, otherID, category string) (*domain.ChatRoom, error) {
	tr := otel.Tracer("services/RoomService")
	ctx, span := tr.Start(ctx, "Open",
		trace.WithAttributes(
			attribute.String("user.id", selfID),
			attribute.String("peer.id", otherID),
		),
	)
	defer span.End()

	otherID = strings.TrimSpace(otherID)
	if selfID == "" || otherID == "" {
		return nil, ErrMissingParticipant
	}
	if selfID == otherID {
		return nil, ErrSelfRoom
	}
	return s.Repo.GetOrCreateRoom(ctx, s.DB, selfID, otherID, strings.TrimSpace(category))
}

// Get fetches a room the caller participates in. Rooms the caller does not
// belong to are indistinguishable from missing ones.
func (s *RoomService) Get(ctx context.Context, userID, roomID string) (*domain.ChatRoom, error) {
	r, err := s.Repo.GetRoom(ctx, s.DB, roomID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	return r, nil
}

// ListPage returns a page of the caller's rooms with the total count.
// It applies defaults for invalid page/pageSize.
func (s *RoomService) ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.ChatRoom, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := s.Repo.CountRooms(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.ChatRoom{}, 0, nil
	}

	items, err := s.Repo.ListRoomsPage(ctx, s.DB, userID, offset, pageSize)
	return items, total, err
}
