// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging, panic recovery, metrics, CORS,
// security headers, idempotency, and rate limiting.
//
// Middleware ordering is safe-by-default: tracing first, then correlation,
// logging, recovery, and only then anything that can reject a request.
package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/tutorhive/chat-core/internal/auth"
	"github.com/tutorhive/chat-core/internal/broker"
	"github.com/tutorhive/chat-core/internal/config"
	"github.com/tutorhive/chat-core/internal/domain"
	"github.com/tutorhive/chat-core/internal/http/handlers"
	"github.com/tutorhive/chat-core/internal/http/middleware"
	"github.com/tutorhive/chat-core/internal/presence"
	"github.com/tutorhive/chat-core/internal/repo"
	"github.com/tutorhive/chat-core/internal/services"
)

// roomRepoShim adapts the repository free functions to the services.RoomRepo
// interface. This keeps services decoupled from the concrete repo package
// while reusing existing functions.
type roomRepoShim struct{}

func (roomRepoShim) GetOrCreateRoom(ctx context.Context, db *gorm.DB, userA, userB, category string) (*domain.ChatRoom, error) {
	return repo.GetOrCreateRoom(ctx, db, userA, userB, category)
}

func (roomRepoShim) GetRoom(ctx context.Context, db *gorm.DB, id, userID string) (*domain.ChatRoom, error) {
	return repo.GetRoom(ctx, db, id, userID)
}

func (roomRepoShim) CountRooms(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	return repo.CountRooms(ctx, db, userID)
}

func (roomRepoShim) ListRoomsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.ChatRoom, error) {
	return repo.ListRoomsPage(ctx, db, userID, offset, limit)
}

// Deps carries everything RegisterRoutes needs beyond the raw config:
// storage, the delivery dispatcher, identity verification, and live
// presence.
type Deps struct {
	DB         *gorm.DB
	Dispatcher broker.Dispatcher
	Verifier   auth.Verifier
	Presence   *presence.Registry
	// Hub enables the /events attachment stream when the in-process
	// dispatcher is in use; leave nil with a NATS broker.
	Hub *broker.Hub
	// Profiles resolves public profiles for handshake notifications; nil
	// degrades to bare ids.
	Profiles services.ProfileLookup
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine and returns the handshake service so the caller can run the expiry
// sweeper.
//
// Middleware order:
//  1. OpenTelemetry tracing
//  2. RequestID correlation
//  3. Structured logging
//  4. Panic recovery
//  5. Body size limit
//  6. Prometheus metrics
//  7. CORS and security headers
//  8. Authentication
//  9. Rate limiter (keyed by authenticated user)
//  10. Idempotency-Key validation
func RegisterRoutes(r *gin.Engine, deps Deps, cfg config.Config) *services.HandshakeService {
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(limitBody(1 << 20))
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if len(cfg.CORS.AllowedOrigins) == 0 {
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID", middleware.IdempotencyHeader},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	} else {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID", middleware.IdempotencyHeader},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.Use(middleware.SecurityHeaders(middleware.SecurityHeadersConfig{
		EnableHSTS:        cfg.Security.EnableHSTS,
		HSTSMaxAgeSeconds: int(cfg.Security.HSTSMaxAge / time.Second),
	}))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, handlers.ErrorResponse{
			RequestID: c.Writer.Header().Get("X-Request-ID"),
			Code:      "not_found",
			Message:   "route not found",
		})
	})
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, handlers.ErrorResponse{
			RequestID: c.Writer.Header().Get("X-Request-ID"),
			Code:      "method_not_allowed",
			Message:   "method not allowed",
		})
	})

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Dependency injection: services ← repo/db/dispatcher.
	roomSvc := services.NewRoomService(deps.DB, roomRepoShim{})
	msgSvc := &services.MessageService{
		DB:              deps.DB,
		Rooms:           roomSvc,
		Dispatcher:      deps.Dispatcher,
		MaxContentRunes: cfg.MaxMessageRunes,
	}
	hsSvc := services.NewHandshakeService(roomSvc, msgSvc, deps.Dispatcher, deps.Profiles, log.Logger, cfg.HandshakeTTL)

	h := &handlers.Handlers{
		DB:             deps.DB,
		Rooms:          roomSvc,
		Messages:       msgSvc,
		Handshakes:     hsSvc,
		Presence:       deps.Presence,
		Hub:            deps.Hub,
		PresenceSvc:    &services.PresenceService{Registry: deps.Presence, Dispatcher: deps.Dispatcher},
		IdempotencyTTL: cfg.IdempotencyTTL,
	}

	rlStore := middleware.NewRateLimiterStore(rate.Limit(cfg.RateRPS), cfg.RateBurst, 10*time.Minute)

	api := groupWithPrefix(r, cfg.APIBasePath)
	api.Use(middleware.Authenticate(deps.Verifier))
	api.Use(middleware.RateLimiter(rlStore, middleware.KeyByUserOrIP, cfg.RateBypass))
	api.Use(middleware.IdempotencyKeyValidator())
	{
		// Rooms
		api.POST("/rooms", h.OpenRoom)
		api.GET("/rooms", h.ListRooms)
		api.GET("/rooms/:id", h.GetRoom)

		// Messages
		api.GET("/rooms/:id/messages", h.ListMessages)
		api.POST("/rooms/:id/messages", h.SendMessage)
		api.POST("/rooms/:id/read", h.MarkRead)

		// Presence
		api.GET("/presence", h.PresenceOnline)
		api.GET("/presence/:id", h.PresenceCheck)

		// Event stream (hub mode only)
		if deps.Hub != nil {
			api.GET("/events", h.Events)
		}

		// Connection requests
		api.POST("/handshakes", h.CreateHandshake)
		api.GET("/handshakes/:id", h.GetHandshake)
		api.POST("/handshakes/:id/accept", h.AcceptHandshake)
		api.POST("/handshakes/:id/reject", h.RejectHandshake)
	}

	return hsSvc
}

// limitBody caps the request body size for all endpoints using
// http.MaxBytesReader. Requests exceeding the cap cause downstream body
// reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" or empty as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	p := strings.TrimSpace(prefix)
	if p == "" || p == "/" {
		return r.Group("/")
	}
	return r.Group(p)
}
