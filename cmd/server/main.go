package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/grand-campaign/internal/auth"
	"github.com/freeeve/grand-campaign/internal/config"
	"github.com/freeeve/grand-campaign/internal/handler"
	"github.com/freeeve/grand-campaign/internal/logger"
	"github.com/freeeve/grand-campaign/internal/middleware"
	"github.com/freeeve/grand-campaign/internal/repository/postgres"
	redisrepo "github.com/freeeve/grand-campaign/internal/repository/redis"
	"github.com/freeeve/grand-campaign/internal/service"
	"github.com/freeeve/grand-campaign/pkg/warfare"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.InitStderr("info")
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	logger.Init(logger.Options{Level: cfg.LogLevel, File: cfg.LogFile, Dev: cfg.Dev})
	log.Info().Str("port", cfg.Port).Dur("tickInterval", cfg.TickInterval).Msg("Config loaded")

	startCtx, startCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer startCancel()

	// Database
	db, err := postgres.Connect(startCtx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Database connection failed")
	}
	defer db.Close()

	// Redis
	redisClient, err := redisrepo.NewClient(startCtx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Redis connection failed")
	}
	defer redisClient.Close()

	// Repos
	campaignRepo := postgres.NewCampaignRepo(db)
	tickRepo := postgres.NewTickRepo(db)

	// Auth
	jwtMgr := auth.NewJWTManager(cfg.JWTSecret)

	// WebSocket hub
	wsHub := handler.NewHub()

	// Engine constants
	defines := warfare.DefaultDefines()
	defines.ImmunityDays = cfg.ImmunityDays
	defines.TruceYears = cfg.TruceYears

	// Services
	campaignSvc := service.NewCampaignService(campaignRepo, tickRepo, redisClient, defines)
	commandSvc := service.NewCommandService(campaignSvc, redisClient)
	tickSvc := service.NewTickService(campaignSvc, campaignRepo, tickRepo, redisClient, wsHub)
	runner := service.NewRunner(campaignSvc, tickSvc, cfg.TickInterval)

	// Handlers
	authHandler := handler.NewAuthHandler(jwtMgr, campaignSvc, cfg.Dev)
	campaignHandler := handler.NewCampaignHandler(campaignSvc, wsHub)
	commandHandler := handler.NewCommandHandler(commandSvc, wsHub)
	tickHandler := handler.NewTickHandler(tickSvc)
	wsHandler := handler.NewWSHandler(wsHub, jwtMgr, campaignSvc, cfg.AllowedOrigins)

	// Router
	mux := http.NewServeMux()
	authMw := auth.Middleware(jwtMgr)
	limiter := middleware.NewRateLimiter(cfg.CommandRate, cfg.CommandBurst)
	perSeat := middleware.RateLimit(limiter, func(r *http.Request) string {
		if seat, ok := auth.SeatFromContext(r.Context()); ok {
			return seat.CampaignID + "/" + seat.Country
		}
		return ""
	})

	// Health
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := db.PingContext(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"postgres unavailable"}`))
			return
		}
		if err := redisClient.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"redis unavailable"}`))
			return
		}
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Auth (public)
	mux.HandleFunc("POST /auth/dev", authHandler.DevLogin)

	// Campaign reads and creation (public)
	mux.HandleFunc("POST /api/v1/campaigns", campaignHandler.CreateCampaign)
	mux.HandleFunc("GET /api/v1/campaigns/{id}", campaignHandler.GetCampaign)
	mux.HandleFunc("GET /api/v1/campaigns/{id}/state", campaignHandler.GetState)
	mux.HandleFunc("GET /api/v1/campaigns/{id}/wars", campaignHandler.ListWars)
	mux.HandleFunc("GET /api/v1/campaigns/{id}/events", campaignHandler.ListEvents)
	mux.HandleFunc("GET /api/v1/campaigns/{id}/ticks", campaignHandler.ListTicks)

	// Seat-scoped routes
	api := http.NewServeMux()
	api.Handle("POST /campaigns/{id}/commands", perSeat(http.HandlerFunc(commandHandler.SubmitCommands)))
	api.HandleFunc("GET /campaigns/{id}/commands/available", commandHandler.AvailableCommands)
	api.HandleFunc("POST /campaigns/{id}/tick", tickHandler.Advance)
	api.HandleFunc("PATCH /campaigns/{id}/status", campaignHandler.SetStatus)

	mux.Handle("/api/v1/", http.StripPrefix("/api/v1", authMw(api)))

	// WebSocket (auth via query param, not middleware)
	mux.HandleFunc("GET /api/v1/ws", wsHandler.ServeWS)

	// Apply global middleware
	root := middleware.Chain(mux, middleware.Logger, middleware.CORS(cfg.AllowedOrigins), middleware.JSON)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Recover active campaigns (rehydrate Redis from Postgres after restart)
	if err := campaignSvc.RecoverActiveCampaigns(startCtx); err != nil {
		log.Error().Err(err).Msg("Failed to recover active campaigns (non-fatal)")
	}

	// Start the tick runner
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go runner.Start(ctx)

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server shutdown error")
	}
	log.Info().Msg("Server stopped")
}
