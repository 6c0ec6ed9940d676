package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	limiter "github.com/ulule/limiter/v3"
	limitermemory "github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/SscSPs/txledger/internal/core/services"
	"github.com/SscSPs/txledger/internal/handlers"
	"github.com/SscSPs/txledger/internal/middleware"
	"github.com/SscSPs/txledger/internal/outboxhttp"
	"github.com/SscSPs/txledger/internal/platform/config"
	"github.com/SscSPs/txledger/internal/platform/database"
	"github.com/SscSPs/txledger/internal/repositories/pgsql"
)

// @title txledger API
// @version 1.0
// @description Bucketed-balance ledger: post journals, track account history, dispatch outbox events.

// @host localhost:8080
// @BasePath /
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	store := pgsql.New(nil, cfg.DatabaseURL, cfg.MigrationsPath)
	if err := store.EnsureSchema(context.Background()); err != nil {
		logger.Error("failed to apply migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	pool, err := database.NewPgxPool(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.ClosePgxPool(pool)
	store.Pool = pool

	overdraft := make([]string, 0, len(cfg.SystemOverdraft))
	for id := range cfg.SystemOverdraft {
		overdraft = append(overdraft, id)
	}

	poster := services.NewJournalPoster(store, store, store, store, store, overdraft, cfg.ChaosProbability, logger)
	historySvc := services.NewHistoryService(store)
	ackSvc := services.NewAckService(store, store)

	targetCfg := outboxhttp.TargetConfig{
		AbsoluteURL: cfg.OutboxTargetURL,
		Host:        cfg.OutboxTargetHost,
		Path:        cfg.OutboxTargetPath,
	}
	dispatcher := services.NewOutboxDispatcher(store, targetCfg, logger)

	r := setupGinEngine(logger, cfg)

	handlers.RegisterRoutes(r, cfg, handlers.Services{
		Poster:     poster,
		History:    historySvc,
		Dispatcher: dispatcher,
		Acks:       ackSvc,
		Store:      store,
		Outbox:     store,
	})

	if cfg.CronEnabled {
		startOutboxCron(logger, dispatcher, cfg)
	}

	logger.Info("server starting", slog.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Error("server failed to run", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// setupGinEngine wires CORS, structured logging, recovery, and a
// per-IP rate limiter applied to every route, following the teacher's
// setupGinEngine layout.
func setupGinEngine(logger *slog.Logger, cfg *config.Config) *gin.Engine {
	r := gin.New()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "X-API-Key"}
	r.Use(cors.New(corsConfig))
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())

	rate, _ := limiter.NewRateFromFormatted("60-M")
	rateStore := limitermemory.NewStore()
	r.Use(middleware.RateLimit(limiter.New(rateStore, rate)))

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	return r
}

// startOutboxCron runs the dispatcher on a fixed interval in-process,
// the optional periodic trigger spec.md §6's configuration surface
// describes, grounded on the teacher's style of spawning a background
// goroutine from main rather than pulling in a scheduler library.
func startOutboxCron(logger *slog.Logger, dispatcher *services.OutboxDispatcher, cfg *config.Config) {
	interval := time.Duration(cfg.CronIntervalMs) * time.Millisecond
	if interval <= 0 {
		interval = 10 * time.Second
	}
	ticker := time.NewTicker(interval)
	go func() {
		for range ticker.C {
			result, err := dispatcher.ProcessOnce(context.Background(), services.ProcessOptions{})
			if err != nil {
				logger.Error("cron outbox process failed", slog.String("error", err.Error()))
				continue
			}
			logger.Info("cron outbox process completed",
				slog.Int("attempted", result.Attempted),
				slog.Int("sent", result.Sent),
				slog.Int("retried", result.Retried),
			)
		}
	}()
}
