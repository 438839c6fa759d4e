// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the ChatRoom
// model, including the race-safe get-or-create used by the room directory.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a room is not found, functions return ErrNotFound.
//   - On other DB errors, the raw gorm error is propagated.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tutorhive/chat-core/internal/domain"
)

// GetRoomByPair fetches the room for the unordered pair (userA, userB), or
// ErrNotFound when the pair has never been connected.
func GetRoomByPair(ctx context.Context, db *gorm.DB, userA, userB string) (*domain.ChatRoom, error) {
	var r domain.ChatRoom
	err := db.WithContext(ctx).
		Where("pair_key = ?", domain.PairKeyOf(userA, userB)).
		First(&r).Error
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// GetOrCreateRoom returns the canonical room for the unordered pair,
// inserting it when absent. The pair is normalized to (low, high) order and
// the insert relies on the unique pair-key index: when both participants race
// on first contact, exactly one insert succeeds and the loser re-reads the
// winner's row. The conflict is never surfaced to the caller.
//
// Category is recorded on first creation only; repeat calls return the
// existing room unchanged.
func GetOrCreateRoom(ctx context.Context, db *gorm.DB, userA, userB, category string) (*domain.ChatRoom, error) {
	if r, err := GetRoomByPair(ctx, db, userA, userB); err == nil {
		return r, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	low, high := domain.CanonicalPair(userA, userB)
	r := &domain.ChatRoom{
		ID:              uuid.NewString(),
		ParticipantLow:  low,
		ParticipantHigh: high,
		PairKey:         domain.PairKeyOf(userA, userB),
		Category:        category,
		CreatedAt:       time.Now().UTC(),
	}
	err := db.WithContext(ctx).Create(r).Error
	if err == nil {
		return r, nil
	}
	if isUniqueViolation(err) {
		// Lost the race; the winner's row is now visible.
		return GetRoomByPair(ctx, db, userA, userB)
	}
	return nil, err
}

// GetRoom fetches a room by id scoped to a participant. A room that exists
// but does not include userID is reported as ErrNotFound rather than leaking
// its existence.
func GetRoom(ctx context.Context, db *gorm.DB, id, userID string) (*domain.ChatRoom, error) {
	var r domain.ChatRoom
	err := db.WithContext(ctx).
		Where("id = ? AND (participant_low = ? OR participant_high = ?)", id, userID, userID).
		First(&r).Error
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// CountRooms returns the total number of rooms that include userID.
func CountRooms(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.ChatRoom{}).
		Where("participant_low = ? OR participant_high = ?", userID, userID).
		Count(&total).Error
	return total, err
}

// ListRoomsPage returns a paginated slice of the user's rooms, ordered by
// creation time descending. Use CountRooms to obtain the total for pagination
// metadata.
func ListRoomsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.ChatRoom, error) {
	var out []domain.ChatRoom
	err := db.WithContext(ctx).
		Where("participant_low = ? OR participant_high = ?", userID, userID).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}
