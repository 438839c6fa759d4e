package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tutorhive/chat-core/internal/domain"
	"github.com/tutorhive/chat-core/internal/http/middleware"
	"github.com/tutorhive/chat-core/internal/repo"
	"github.com/tutorhive/chat-core/internal/utils"
)

// openRoomRequest is the body of POST /rooms.
type openRoomRequest struct {
	OtherUserID string `json:"other_user_id" binding:"required"`
	Category    string `json:"category"`
}

// roomResponse decorates a room with the caller's counterpart so clients do
// not have to re-derive it from the canonical pair.
type roomResponse struct {
	domain.ChatRoom
	OtherUserID string `json:"other_user_id"`
}

func toRoomResponse(r domain.ChatRoom, selfID string) roomResponse {
	return roomResponse{ChatRoom: r, OtherUserID: r.Counterpart(selfID)}
}

// OpenRoom handles POST /rooms: get-or-create the canonical room between the
// caller and the given counterpart. Replays return the existing room with
// 200; a fresh creation returns 201.
func (h *Handlers) OpenRoom(c *gin.Context) {
	var req openRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, CodeValidation, "other_user_id is required")
		return
	}
	selfID := middleware.UserID(c)

	start := time.Now().UTC()
	room, err := h.Rooms.Open(c.Request.Context(), selfID, req.OtherUserID, req.Category)
	if err != nil {
		failFromService(c, err)
		return
	}

	// Rooms created by this call carry a CreatedAt stamped after we started.
	status := http.StatusOK
	if !room.CreatedAt.Before(start) {
		status = http.StatusCreated
	}
	ok(c, status, toRoomResponse(*room, selfID))
}

// ListRooms handles GET /rooms?page=&page_size=: the caller's rooms, newest
// first, with offset pagination metadata. A weak ETag derived from the room
// count and newest creation time lets polling clients skip unchanged lists.
func (h *Handlers) ListRooms(c *gin.Context) {
	selfID := middleware.UserID(c)
	page := utils.AtoiDefault(c.Query("page"), 1)
	pageSize := utils.AtoiDefault(c.Query("page_size"), 20)

	if count, maxCreated, err := repo.RoomsStats(c.Request.Context(), h.DB, selfID); err == nil {
		var ts int64
		if maxCreated != nil {
			ts = maxCreated.UnixNano()
		}
		etag := fmt.Sprintf(`W/"rooms-%d-%d"`, count, ts)
		c.Header("ETag", etag)
		if c.GetHeader("If-None-Match") == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}

	rooms, total, err := h.Rooms.ListPage(c.Request.Context(), selfID, page, pageSize)
	if err != nil {
		failFromService(c, err)
		return
	}

	out := make([]roomResponse, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, toRoomResponse(r, selfID))
	}
	ok(c, http.StatusOK, gin.H{
		"rooms": out,
		"meta":  pageMeta{Page: page, PageSize: pageSize, Total: total},
	})
}

// GetRoom handles GET /rooms/:id for a room the caller participates in.
func (h *Handlers) GetRoom(c *gin.Context) {
	selfID := middleware.UserID(c)
	room, err := h.Rooms.Get(c.Request.Context(), selfID, c.Param("id"))
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, toRoomResponse(*room, selfID))
}
