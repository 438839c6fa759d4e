// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate queries used for
// conditional responses (ETag generation) in the HTTP layer.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tutorhive/chat-core/internal/domain"
)

// RoomsStats returns aggregate metadata for a user's rooms: the total number
// of rows and the greatest CreatedAt among them. When the user has no rooms,
// count is 0 and maxCreatedAt is nil.
func RoomsStats(ctx context.Context, db *gorm.DB, userID string) (count int64, maxCreatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.ChatRoom{}).
		Where("participant_low = ? OR participant_high = ?", userID, userID)

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Avoid MAX() -> TEXT coercion in SQLite.
	var row struct {
		CreatedAt time.Time
	}
	if err = q.Select("created_at").Order("created_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.CreatedAt, nil
}

// MessagesStats returns aggregate metadata for a room's messages: total row
// count and the greatest message id. When the room has no messages, count is
// 0 and maxID is 0.
func MessagesStats(ctx context.Context, db *gorm.DB, roomID string) (count int64, maxID int64, err error) {
	q := db.WithContext(ctx).Model(&domain.ChatMessage{}).Where("room_id = ?", roomID)

	if err = q.Count(&count).Error; err != nil {
		return 0, 0, err
	}
	if count == 0 {
		return 0, 0, nil
	}

	var row struct {
		ID int64
	}
	if err = q.Select("id").Order("id DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, 0, err
	}
	return count, row.ID, nil
}
