package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// IdempotencyHeader carries the client-chosen retry key on message sends.
	IdempotencyHeader = "Idempotency-Key"
	// idempotencyKeyCtx is the Gin context key holding the validated key.
	idempotencyKeyCtx = "idempotencyKey"
)

// IdempotencyKeyValidator rejects message-send requests whose
// Idempotency-Key header is present but not a UUID, and stashes a valid key
// in the Gin context for the handler to consume. The header itself is
// optional: absent means the send is not replay-protected.
func IdempotencyKeyValidator() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyHeader)
		if key == "" {
			c.Next()
			return
		}
		if _, err := uuid.Parse(key); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"request_id": c.Writer.Header().Get(requestIDHeader),
				"code":       "invalid_idempotency_key",
				"message":    "Idempotency-Key must be a valid UUID",
			})
			return
		}
		c.Set(idempotencyKeyCtx, key)
		c.Next()
	}
}

// IdempotencyKey returns the validated Idempotency-Key for the current
// request, or "" when the client did not send one.
func IdempotencyKey(c *gin.Context) string {
	v, _ := c.Get(idempotencyKeyCtx)
	s, _ := v.(string)
	return s
}
