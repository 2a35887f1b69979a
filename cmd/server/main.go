package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/halfwaymeet/meetup-server-go/internal/config"
	"github.com/halfwaymeet/meetup-server-go/internal/database"
	"github.com/halfwaymeet/meetup-server-go/internal/handler"
	"github.com/halfwaymeet/meetup-server-go/internal/jobs"
	"github.com/halfwaymeet/meetup-server-go/internal/maps"
	"github.com/halfwaymeet/meetup-server-go/internal/middleware"
	"github.com/halfwaymeet/meetup-server-go/internal/redis"
	"github.com/halfwaymeet/meetup-server-go/internal/repository"
	"github.com/halfwaymeet/meetup-server-go/internal/service"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	isProduction := os.Getenv("FLY_APP_NAME") != ""
	if err := cfg.Validate(isProduction); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}
	cancel()
	log.Info().Msg("database connected")

	if err := db.Migrate(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	// Redis only caches geocode lookups; the service runs without it.
	var geocodeCache *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err := redis.NewClient(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
		geocodeCache = redisClient
		log.Info().Msg("redis connected")
	}

	sessionRepo := repository.NewSessionRepository(db.DB)
	venueRepo := repository.NewVenueRepository(db.DB)
	voteRepo := repository.NewVoteRepository(db.DB)

	mapsClient := maps.NewClient(cfg.GoogleMapsAPIKey, geocodeCache)

	sessionService := service.NewSessionService(sessionRepo, venueRepo, voteRepo, mapsClient, cfg.SessionTTL())
	computeService := service.NewComputeService(db, sessionRepo, venueRepo, sessionService, mapsClient, mapsClient)
	voteService := service.NewVoteService(db, sessionRepo, venueRepo, voteRepo, sessionService)

	createLimit := middleware.NewRateLimitMiddleware(config.SessionCreateLimit, config.SessionCreateWindow)

	sessionHandler := handler.NewSessionHandler(cfg, sessionService, computeService, voteService, createLimit)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UnixMilli(),
		})
	})

	r.Route("/api/sessions", func(r chi.Router) {
		r.Mount("/", sessionHandler.Routes())
	})

	cleanupJob := jobs.NewCleanupJob(sessionRepo, cfg.SessionTTL(), config.CleanupJobInterval)
	cleanupJob.Start()
	defer cleanupJob.Stop()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: 0,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
