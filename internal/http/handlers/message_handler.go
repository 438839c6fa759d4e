package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tutorhive/chat-core/internal/http/middleware"
	"github.com/tutorhive/chat-core/internal/repo"
	"github.com/tutorhive/chat-core/internal/utils"
)

// sendMessageRequest is the body of POST /rooms/:id/messages.
type sendMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

// SendMessage handles POST /rooms/:id/messages. When the client supplies an
// Idempotency-Key, retries of the same send return the original message with
// 200 instead of appending a duplicate.
func (h *Handlers) SendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, CodeValidation, "content is required")
		return
	}
	selfID := middleware.UserID(c)
	roomID := c.Param("id")
	key := middleware.IdempotencyKey(c)

	if key != "" {
		rec, err := repo.GetIdempotency(c.Request.Context(), h.DB, selfID, roomID, key, time.Now().UTC())
		if err == nil {
			if m, gerr := repo.GetMessage(h.DB, rec.MessageID); gerr == nil {
				ok(c, http.StatusOK, m)
				return
			}
		} else if !errors.Is(err, repo.ErrNotFound) {
			lg := middleware.LoggerFrom(c)
			lg.Error().Err(err).Msg("idempotency lookup failed")
		}
	}

	m, err := h.Messages.Send(c.Request.Context(), selfID, roomID, req.Content)
	if err != nil {
		failFromService(c, err)
		return
	}

	if key != "" {
		if _, err := repo.CreateIdempotency(c.Request.Context(), h.DB, selfID, roomID, key, m.ID, http.StatusCreated, h.IdempotencyTTL); err != nil && !errors.Is(err, repo.ErrDuplicate) {
			lg := middleware.LoggerFrom(c)
			lg.Error().Err(err).Msg("idempotency record failed")
		}
	}
	ok(c, http.StatusCreated, m)
}

// ListMessages handles GET /rooms/:id/messages?before_id=&limit=: a
// newest-first page of room history. Clients continue backwards by passing
// the smallest id of the previous page as before_id. The append-only log
// makes (count, max id) a precise ETag for the head page.
func (h *Handlers) ListMessages(c *gin.Context) {
	selfID := middleware.UserID(c)
	roomID := c.Param("id")
	beforeID := utils.ParseInt64Default(c.Query("before_id"), 0)
	limit := utils.AtoiDefault(c.Query("limit"), 20)

	// The conditional-request path needs the membership check up front so
	// message counts never leak to outsiders.
	if beforeID == 0 {
		if _, err := h.Rooms.Get(c.Request.Context(), selfID, roomID); err != nil {
			failFromService(c, err)
			return
		}
		if count, maxID, err := repo.MessagesStats(c.Request.Context(), h.DB, roomID); err == nil {
			etag := fmt.Sprintf(`W/"msgs-%d-%d"`, count, maxID)
			c.Header("ETag", etag)
			if c.GetHeader("If-None-Match") == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	msgs, err := h.Messages.ListBefore(c.Request.Context(), selfID, roomID, beforeID, limit)
	if err != nil {
		failFromService(c, err)
		return
	}

	var nextBefore int64
	if len(msgs) > 0 {
		nextBefore = msgs[len(msgs)-1].ID
	}
	ok(c, http.StatusOK, gin.H{
		"messages":       msgs,
		"next_before_id": nextBefore,
	})
}

// MarkRead handles POST /rooms/:id/read: flags every message from the
// counterpart as read and reports how many changed.
func (h *Handlers) MarkRead(c *gin.Context) {
	selfID := middleware.UserID(c)
	n, err := h.Messages.MarkRead(c.Request.Context(), selfID, c.Param("id"))
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"marked": n})
}
