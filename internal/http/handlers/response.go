// Package handlers exposes the HTTP surface of the chat core: room opening
// and listing, message history and sends, presence queries, and the
// connection-request lifecycle. Handlers translate between wire DTOs and the
// services layer; business rules live below.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tutorhive/chat-core/internal/http/middleware"
)

// ErrorResponse is the JSON envelope for every non-2xx reply. Code is a
// stable machine-readable identifier; Message is for humans.
type ErrorResponse struct {
	RequestID string `json:"request_id,omitempty"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

// fail writes the error envelope and logs at a level matching the status.
func fail(c *gin.Context, status int, code, message string) {
	lg := middleware.LoggerFrom(c)
	evt := lg.Warn()
	if status >= http.StatusInternalServerError {
		evt = lg.Error()
	}
	evt.Int("status", status).Str("code", code).Msg(message)

	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   message,
	})
}

// ok writes a JSON body with the given status.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// noContent writes an empty 204 reply.
func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
