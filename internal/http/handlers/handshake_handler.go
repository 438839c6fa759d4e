package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tutorhive/chat-core/internal/http/middleware"
)

// createHandshakeRequest is the body of POST /handshakes.
type createHandshakeRequest struct {
	ToUserID string `json:"to_user_id" binding:"required"`
}

// CreateHandshake handles POST /handshakes: the caller proposes a connection
// to another user. The target is notified out-of-band through the dispatcher.
func (h *Handlers) CreateHandshake(c *gin.Context) {
	var req createHandshakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, CodeValidation, "to_user_id is required")
		return
	}
	hs, err := h.Handshakes.Create(c.Request.Context(), middleware.UserID(c), req.ToUserID)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusCreated, hs)
}

// GetHandshake handles GET /handshakes/:id. Visible only to the two parties.
func (h *Handlers) GetHandshake(c *gin.Context) {
	hs, err := h.Handshakes.Get(c.Param("id"))
	if err != nil {
		failFromService(c, err)
		return
	}
	selfID := middleware.UserID(c)
	if hs.FromUserID != selfID && hs.ToUserID != selfID {
		fail(c, http.StatusNotFound, CodeRequestNotFound, "connection request not found or expired")
		return
	}
	ok(c, http.StatusOK, hs)
}

// AcceptHandshake handles POST /handshakes/:id/accept: the target resolves
// the request, a room materializes, and both parties receive the opened-room
// event. The reply carries the same payload the events deliver.
func (h *Handlers) AcceptHandshake(c *gin.Context) {
	opened, err := h.Handshakes.Accept(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, opened)
}

// RejectHandshake handles POST /handshakes/:id/reject: the target declines
// and the requester is notified. No room is created.
func (h *Handlers) RejectHandshake(c *gin.Context) {
	if err := h.Handshakes.Reject(c.Request.Context(), c.Param("id"), middleware.UserID(c)); err != nil {
		failFromService(c, err)
		return
	}
	noContent(c)
}
