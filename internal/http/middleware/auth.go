package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tutorhive/chat-core/internal/auth"
)

const (
	// userIDKey is the Gin context key carrying the authenticated user id.
	userIDKey = "userID"
	// bearerPrefix precedes the token in the Authorization header.
	bearerPrefix = "Bearer "
)

// Authenticate resolves the caller's identity through the supplied verifier
// and stores the user id in the Gin context. Requests without a valid
// credential are rejected with 401 before reaching any handler.
func Authenticate(v auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		p, err := v.Verify(token)
		if err != nil {
			lg := LoggerFrom(c)
			lg.Warn().Err(err).Msg("authentication failed")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"request_id": c.Writer.Header().Get(requestIDHeader),
				"code":       "unauthorized",
				"message":    "missing or invalid credentials",
			})
			return
		}
		c.Set(userIDKey, p.UserID)
		c.Next()
	}
}

// UserID returns the authenticated user id set by Authenticate, or "" when
// the request is anonymous.
func UserID(c *gin.Context) string {
	v, _ := c.Get(userIDKey)
	s, _ := v.(string)
	return s
}

// bearerToken extracts the credential from the Authorization header, falling
// back to the X-User-ID header so the header verifier works without a
// Bearer scheme.
func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if strings.HasPrefix(h, bearerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(h, bearerPrefix))
	}
	return strings.TrimSpace(c.GetHeader("X-User-ID"))
}
