// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the ChatMessage
// model: append-only writes and keyset (cursor) pagination.
package repo

import (
	"time"

	"gorm.io/gorm"

	"github.com/tutorhive/chat-core/internal/domain"
)

// AppendMessage inserts a new message row. The id is assigned by the
// database's auto-increment sequence, which keeps ids strictly increasing
// without external coordination; CreatedAt is set server-side in UTC.
// This is the only write path for message content.
func AppendMessage(db *gorm.DB, roomID, senderID, content string) (*domain.ChatMessage, error) {
	m := &domain.ChatMessage{
		RoomID:    roomID,
		SenderID:  senderID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	return m, db.Create(m).Error
}

// ListMessagesBefore returns up to limit messages of a room, newest first.
// beforeID == 0 anchors at the head of history; otherwise only messages with
// id strictly below the cursor are returned. Because the cursor is a concrete
// row id, pages neither skip nor duplicate rows while newer messages keep
// arriving. An empty slice marks the boundary of history and is not an error.
func ListMessagesBefore(db *gorm.DB, roomID string, beforeID int64, limit int) ([]domain.ChatMessage, error) {
	out := []domain.ChatMessage{}
	q := db.Where("room_id = ?", roomID)
	if beforeID > 0 {
		q = q.Where("id < ?", beforeID)
	}
	err := q.Order("id DESC").Limit(limit).Find(&out).Error
	return out, err
}

// CountMessages uses a raw COUNT so a missing table surfaces as an error (as tests expect).
func CountMessages(db *gorm.DB, roomID string) (int64, error) {
	var total int64
	err := db.Raw("SELECT COUNT(*) FROM chat_messages WHERE room_id = ?", roomID).Scan(&total).Error
	return total, err
}

// MarkMessagesRead flips is_read on every unread message in the room that was
// sent to readerID (i.e. by the counterpart). Returns the number of rows
// updated. This is the only permitted mutation of persisted messages.
func MarkMessagesRead(db *gorm.DB, roomID, readerID string) (int64, error) {
	res := db.Model(&domain.ChatMessage{}).
		Where("room_id = ? AND sender_id <> ? AND is_read = ?", roomID, readerID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

// GetMessage fetches a message by id.
func GetMessage(db *gorm.DB, id int64) (*domain.ChatMessage, error) {
	var m domain.ChatMessage
	if err := db.Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}
