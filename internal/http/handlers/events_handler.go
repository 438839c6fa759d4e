package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tutorhive/chat-core/internal/http/middleware"
	"github.com/tutorhive/chat-core/internal/services"
)

// Events handles GET /events?rooms=: a Server-Sent Events stream carrying
// the caller's private channel (request pushes, room opens, rejections) plus
// the broadcast channels of every room listed in the rooms query (comma
// separated) and the presence channel. Attaching marks the caller online;
// the stream ending marks the connection gone.
//
// Registered only in hub mode; with a NATS broker, delivery gateways
// subscribe to the NATS subjects instead.
func (h *Handlers) Events(c *gin.Context) {
	selfID := middleware.UserID(c)

	// Membership is checked before the stream starts so a bad room id is a
	// plain error response, not a half-open stream.
	var roomIDs []string
	for _, id := range strings.Split(c.Query("rooms"), ",") {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, err := h.Rooms.Get(c.Request.Context(), selfID, id); err != nil {
			failFromService(c, err)
			return
		}
		roomIDs = append(roomIDs, id)
	}

	connID := uuid.NewString()
	ch := h.Hub.Attach(selfID, connID)
	defer h.Hub.Detach(connID)
	h.PresenceSvc.Connect(selfID, connID)
	defer h.PresenceSvc.Disconnect(connID)

	h.Hub.Join(connID, services.PresenceChannel)
	for _, id := range roomIDs {
		h.Hub.Join(connID, id)
	}

	hdr := c.Writer.Header()
	hdr.Set("Content-Type", "text/event-stream")
	hdr.Set("Cache-Control", "no-cache")
	hdr.Set("Connection", "keep-alive")
	hdr.Set("X-Accel-Buffering", "no")
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	lg := middleware.LoggerFrom(c)
	lg.Debug().Str("conn_id", connID).Int("rooms", len(roomIDs)).Msg("event stream attached")

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case payload, ok := <-ch:
			if !ok {
				return
			}
			if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", payload); err != nil {
				return
			}
			c.Writer.Flush()
		}
	}
}
