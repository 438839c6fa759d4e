// Command server runs the chat-core HTTP API: canonical rooms, message
// history, presence, and the connection-request handshake, with events
// fanned out through an in-process hub or NATS.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tutorhive/chat-core/internal/auth"
	"github.com/tutorhive/chat-core/internal/broker"
	"github.com/tutorhive/chat-core/internal/config"
	httpapi "github.com/tutorhive/chat-core/internal/http"
	"github.com/tutorhive/chat-core/internal/observability"
	"github.com/tutorhive/chat-core/internal/presence"
	"github.com/tutorhive/chat-core/internal/repo"
	"github.com/tutorhive/chat-core/internal/sysutil"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	// .env is optional; real deployments configure through the environment.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database failed")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate failed")
	}

	// In hub mode clients attach to /events for delivery; with NATS the
	// hub stays nil and gateways subscribe to the subjects instead.
	var dispatcher broker.Dispatcher
	var hub *broker.Hub
	switch cfg.Broker {
	case config.BrokerNATS:
		nd, err := broker.NewNATSDispatcher(cfg.NATSURL, log.Logger)
		if err != nil {
			log.Fatal().Err(err).Str("url", cfg.NATSURL).Msg("nats connect failed")
		}
		defer nd.Close()
		dispatcher = nd
	default:
		hub = broker.NewHub(log.Logger, cfg.HubBuffer)
		dispatcher = hub
	}

	var verifier auth.Verifier
	switch cfg.AuthMode {
	case config.AuthHeader:
		log.Warn().Msg("header auth mode is for development only")
		verifier = auth.HeaderVerifier{}
	default:
		verifier = auth.NewJWTVerifier(cfg.JWTSecret)
	}

	gin.SetMode(cfg.GinMode)
	engine := gin.New()
	handshakes := httpapi.RegisterRoutes(engine, httpapi.Deps{
		DB:         db,
		Dispatcher: dispatcher,
		Verifier:   verifier,
		Presence:   presence.NewRegistry(),
		Hub:        hub,
	}, cfg)

	// Expired pending requests are swept in the background so abandoned
	// proposals do not accumulate.
	go func() {
		tick := time.NewTicker(time.Minute)
		defer tick.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-tick.C:
				if n := handshakes.Sweep(now); n > 0 {
					log.Debug().Int("expired", n).Msg("handshake sweep")
				}
			}
		}
	}()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
