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
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/pedeja/chat-server-go/internal/assistant"
	"github.com/pedeja/chat-server-go/internal/config"
	"github.com/pedeja/chat-server-go/internal/database"
	"github.com/pedeja/chat-server-go/internal/gateway"
	"github.com/pedeja/chat-server-go/internal/handler"
	"github.com/pedeja/chat-server-go/internal/jobs"
	"github.com/pedeja/chat-server-go/internal/middleware"
	"github.com/pedeja/chat-server-go/internal/redis"
	"github.com/pedeja/chat-server-go/internal/repository"
	"github.com/pedeja/chat-server-go/internal/service"
)

func main() {
	_ = godotenv.Load()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	isProduction := os.Getenv("APP_ENV") == "production"
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

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected")

	tenantRepo := repository.NewTenantRepository(db.DB)
	customerRepo := repository.NewCustomerRepository(db.DB)
	catalogRepo := repository.NewCatalogRepository(db.DB)
	orderRepo := repository.NewOrderRepository(db.DB)
	convRepo := repository.NewConversationRepository(db.DB)
	msgRepo := repository.NewMessageRepository(db.DB)

	gatewayClient := gateway.NewClient(cfg.EvolutionAPIURL, cfg.EvolutionAPIKey)
	deliveryManager := gateway.NewManager(gatewayClient, tenantRepo, cfg.WebhookURL())

	assistantClient := assistant.NewClient(cfg.OpenAIAPIURL, cfg.OpenAIAPIKey, cfg.OpenAIModel)

	tenantResolver := service.NewTenantResolver(tenantRepo, redisClient)
	convService := service.NewConversationService(convRepo, customerRepo, msgRepo)
	contextBuilder := service.NewContextBuilder(catalogRepo, customerRepo, orderRepo, msgRepo, cfg.PublicBaseURL)
	pipeline := service.NewInboundPipeline(tenantResolver, convService, contextBuilder, assistantClient, deliveryManager)

	webhookHandler := handler.NewWebhookHandler(pipeline, tenantResolver, tenantRepo)

	rateLimitMiddleware := middleware.NewRedisRateLimitMiddleware(redisClient.Client, cfg.WebhookRateLimitPerMin)
	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(0)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
	r.Use(bodyLimitMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UnixMilli(),
		})
	})

	r.Route("/webhook", func(r chi.Router) {
		r.Use(rateLimitMiddleware.Handler)
		r.Post("/messaging", webhookHandler.Receive)
	})

	followUpJob := jobs.NewFollowUpJob(
		convRepo, customerRepo, tenantRepo, msgRepo, deliveryManager,
		config.FollowUpSweepInterval, config.FollowUpIdleThreshold, jobs.SystemClock,
	)
	followUpJob.Start()
	defer followUpJob.Stop()

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
