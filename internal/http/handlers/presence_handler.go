package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tutorhive/chat-core/internal/http/middleware"
)

// PresenceOnline handles GET /presence: the ids of all currently online users,
// excluding the caller. Order is deterministic (sorted) so polling clients
// can diff cheaply.
func (h *Handlers) PresenceOnline(c *gin.Context) {
	selfID := middleware.UserID(c)
	users := h.Presence.OnlineUsers(selfID)
	ok(c, http.StatusOK, gin.H{
		"online": users,
		"count":  len(users),
	})
}

// PresenceCheck handles GET /presence/:id: whether one user is online and
// with how many connections.
func (h *Handlers) PresenceCheck(c *gin.Context) {
	id := c.Param("id")
	ok(c, http.StatusOK, gin.H{
		"user_id":     id,
		"online":      h.Presence.IsOnline(id),
		"connections": h.Presence.Connections(id),
	})
}
