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
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/memotag/memotag-server/internal/config"
	"github.com/memotag/memotag-server/internal/database"
	"github.com/memotag/memotag-server/internal/handler"
	"github.com/memotag/memotag-server/internal/jobs"
	"github.com/memotag/memotag-server/internal/middleware"
	"github.com/memotag/memotag-server/internal/redis"
	"github.com/memotag/memotag-server/internal/repository"
	"github.com/memotag/memotag-server/internal/service"
	"github.com/memotag/memotag-server/internal/session"
	"github.com/memotag/memotag-server/internal/sse"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	isProduction := os.Getenv("FLY_APP_NAME") != "" || os.Getenv("APP_ENV") == "production"
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

	var redisClient *redis.Client
	if cfg.SessionBackend == config.SessionBackendRedis || cfg.RedisURL != "" {
		redisClient, err = redis.NewClient(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
		log.Info().Msg("redis connected")
	}

	itemRepo := repository.NewItemRepository(db.DB)
	messageRepo := repository.NewMessageRepository(db.DB)

	var sessionStore session.Store
	switch cfg.SessionBackend {
	case config.SessionBackendRedis:
		sessionStore = session.NewRedisStore(redisClient.Client)
	default:
		sessionStore = session.NewMemoryStore()
	}
	sessions := session.NewManager(sessionStore, cfg.SessionTTL())
	log.Info().Str("backend", cfg.SessionBackend).Msg("session store ready")

	broker := sse.NewBroker(redisClient)
	defer broker.Close()

	authService := service.NewAuthService(cfg.AdminPasswordHash, cfg.AdminPassword, sessions)
	itemService := service.NewItemService(itemRepo, messageRepo, broker, cfg.PublicBaseURL)
	messageService := service.NewMessageService(messageRepo, itemRepo, broker)
	statsService := service.NewStatsService(itemRepo, messageRepo, broker)

	sessionMiddleware := middleware.NewSessionMiddleware(sessions)
	loginLimiter := middleware.NewLoginRateLimiter()
	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(0)
	securityHeadersMiddleware := middleware.NewSecurityHeadersMiddleware(isProduction)
	cookieMaxAge := int(cfg.SessionTTL().Seconds())
	csrfMiddleware := middleware.NewCSRFMiddleware(isProduction, cookieMaxAge)

	var rawRedis *goredis.Client
	if redisClient != nil {
		rawRedis = redisClient.Client
	}
	postRateLimit := middleware.NewIPRateLimitMiddleware(rawRedis, config.MessagePostRateLimitPerMin)

	authHandler := handler.NewAuthHandler(authService, sessionMiddleware, loginLimiter, cookieMaxAge, isProduction)
	itemHandler := handler.NewItemHandler(itemService, sessionMiddleware)
	messageHandler := handler.NewMessageHandler(messageService, sessionMiddleware, postRateLimit)
	eventsHandler := handler.NewEventsHandler(broker)
	statsHandler := handler.NewStatsHandler(statsService)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(securityHeadersMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UnixMilli(),
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
			r.Use(bodyLimitMiddleware.Handler)
			r.Use(csrfMiddleware.Handler)

			r.Mount("/auth", authHandler.Routes())
			r.Mount("/items", itemHandler.Routes())
			r.Mount("/messages", messageHandler.Routes())
			r.With(sessionMiddleware.Handler).Get("/admin/stats", statsHandler.Dashboard)
		})

		// SSE endpoints stay outside the request timeout. Item streams
		// are public, same as the memo page itself.
		r.Get("/events", eventsHandler.ServeItem)
		r.With(sessionMiddleware.Handler).Get("/admin/events", eventsHandler.ServeAdmin)
	})

	r.Handle("/*", handler.StaticFileServer(cfg.StaticDir))

	cleanupJob := jobs.NewCleanupJob(sessionStore, messageRepo, cfg.MessageRetention(), config.CleanupJobInterval)
	cleanupJob.Start()
	defer cleanupJob.Stop()

	server := &http.Server{
		Addr:        cfg.Addr(),
		Handler:     r,
		ReadTimeout: config.ServerReadTimeout,
		// WriteTimeout stays zero so SSE connections are not cut off.
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
