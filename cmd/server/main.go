package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/leadsplit/backend/internal/api"
	"github.com/leadsplit/backend/internal/auth"
	"github.com/leadsplit/backend/internal/config"
	"github.com/leadsplit/backend/internal/distributor"
	"github.com/leadsplit/backend/internal/metrics"
	"github.com/leadsplit/backend/internal/normalize"
	"github.com/leadsplit/backend/internal/storage"
	"github.com/leadsplit/backend/internal/websocket"
	"github.com/leadsplit/backend/pkg/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Configure logger
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Set log level
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warn().Str("level", cfg.LogLevel).Msg("invalid log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	policy, err := normalize.ParsePolicy(cfg.IngestPolicy)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid INGEST_POLICY")
	}

	log.Info().
		Str("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Str("ingest_policy", string(policy)).
		Str("log_level", cfg.LogLevel).
		Msg("starting leadsplit backend server")

	if cfg.OIDCIssuer != "" {
		if err := auth.InitJWKS(cfg.OIDCIssuer); err != nil {
			log.Fatal().Err(err).Msg("failed to initialize JWKS")
		}
	}

	// Create context for services
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create storage backend
	store, err := storage.NewStore(ctx, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize storage")
	}

	// Create WebSocket hub for the dashboard feed
	hub := websocket.NewHub(log.Logger)
	go hub.Run()
	wsHandler := websocket.NewHandler(hub, cfg, log.Logger)

	// Create the distribution service and handlers
	service := distributor.NewService(store, policy, log.Logger)
	authHandler := api.NewAuthHandler(store, cfg, log.Logger)
	agentHandler := api.NewAgentHandler(store, log.Logger)
	listHandler := api.NewListHandler(service, wsHandler, cfg.MaxUploadBytes, log.Logger)

	// Create router
	r := chi.NewRouter()

	// Add middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(log.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// Register public routes (no auth required)
	r.Get("/health", healthHandler)
	r.Post("/api/auth/register", authHandler.Register)
	r.Post("/api/auth/login", authHandler.Login)

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(cfg))

		r.Get("/api/auth/me", authHandler.Me)

		r.Route("/api/agents", func(r chi.Router) {
			r.Get("/", agentHandler.List)
			r.Post("/", agentHandler.Create)
			r.Get("/{agentId}", agentHandler.Get)
			r.Put("/{agentId}", agentHandler.Update)
			r.Delete("/{agentId}", agentHandler.Delete)
		})

		r.Route("/api/lists", func(r chi.Router) {
			r.Get("/", listHandler.GetAll)
			r.Post("/upload", listHandler.Upload)
			r.Get("/summary", listHandler.Summary)
			r.Get("/agent/{agentId}", listHandler.GetByAgent)
		})

		r.Get("/api/metrics", metrics.Get().Handler)
		r.Get("/ws", wsHandler.ServeHTTP)
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Msgf("server listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	cancel()

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Attempt graceful shutdown
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

// healthHandler handles health check requests
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"ok","service":"leadsplit-backend"}`)
}
