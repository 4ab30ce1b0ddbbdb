package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"replyflow.app/relay/common/id"
	"replyflow.app/relay/common/logger"
	"replyflow.app/relay/common/otel"
	"replyflow.app/relay/core/config"
	"replyflow.app/relay/core/db"
	"replyflow.app/relay/internal/autoreply"
	"replyflow.app/relay/internal/http/middleware"
	httprouter "replyflow.app/relay/internal/http/router"
	"replyflow.app/relay/internal/publisher"
	"replyflow.app/relay/internal/queue"
	"replyflow.app/relay/internal/service"
	"replyflow.app/relay/internal/store"
	"replyflow.app/relay/internal/throttle"
)

func main() {
	fmt.Printf("%s\n", banner)
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeServer)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	// OTel must init before logger (logger uses OTel provider in production)
	telemetry, err := otel.Setup(ctx, cfg.OTel, cfg.Env)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	if telemetry != nil {
		slog.InfoContext(ctx, "otel initialized", "endpoint", cfg.OTel.Endpoint)
	} else {
		slog.InfoContext(ctx, "otel disabled (no endpoint configured)")
	}

	slog.InfoContext(ctx, "relay starting", "env", cfg.Env, "service", cfg.OTel.ServiceName)
	if err := id.Init(1); err != nil {
		slog.ErrorContext(ctx, "failed to initialize snowflake id generator", "error", err)
		os.Exit(1)
	}

	if cfg.AutoMigrate {
		if err := db.Migrate(ctx, cfg.DB.DSN); err != nil {
			slog.ErrorContext(ctx, "failed to apply migrations", "error", err)
			os.Exit(1)
		}
		slog.InfoContext(ctx, "migrations applied")
	}

	database, err := db.New(ctx, cfg.DB)
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()
	slog.InfoContext(ctx, "database connected")

	redisOpts, err := redis.ParseURL(cfg.Pipeline.RedisURL)
	if err != nil {
		slog.ErrorContext(ctx, "failed to parse redis url", "error", err)
		os.Exit(1)
	}

	redisClient := redis.NewClient(redisOpts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		slog.ErrorContext(ctx, "failed to connect to redis", "error", err)
		os.Exit(1)
	}
	slog.InfoContext(ctx, "redis connected", "stream", cfg.Pipeline.RedisStream)

	taskProducer := queue.NewRedisProducer(redisClient, cfg.Pipeline.RedisStream, slog.Default())
	defer taskProducer.Close()

	stores := store.NewStores(database.Queries())
	deps := autoreply.Deps{
		Accounts:   stores.Accounts(),
		Posts:      stores.Posts(),
		Rules:      stores.Rules(),
		Records:    stores.ReplyRecords(),
		Publishers: publisher.NewThreadsFactory(cfg.Threads.APIBaseURL, cfg.Threads.RequestTimeout),
		Limiter:    throttle.NewRedisLimiter(redisClient, cfg.Throttle, slog.Default()),
		Logger:     slog.Default(),
	}

	services := service.NewServices(
		stores,
		autoreply.NewDispatcher(deps, cfg.AutoReply),
		autoreply.NewSweeper(deps, cfg.AutoReply),
		taskProducer,
		slog.Default(),
	)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := setupRouter(cfg, services)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.InfoContext(ctx, "http server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.ErrorContext(ctx, "http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(shutdownCtx, "shutdown complete")
}

func setupRouter(cfg config.Config, services *service.Services) *gin.Engine {
	router := gin.New()

	// Order matters: OTel creates span → Recovery catches panics → Logger logs with trace context
	if cfg.OTel.Enabled() {
		router.Use(otelgin.Middleware(cfg.OTel.ServiceName))
	}
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())

	httprouter.SetupRoutes(router, services, httprouter.RouterConfig{
		AdminAPIKey:        cfg.AdminAPIKey,
		ThreadsAppSecret:   cfg.Threads.AppSecret,
		WebhookVerifyToken: cfg.Threads.WebhookVerifyToken,
	})

	return router
}

const banner = `
 ____  _____ ____  _  __   __ _____ _     _____        __
|  _ \| ____|  _ \| | \ \ / /|  ___| |   / _ \ \      / /
| |_) |  _| | |_) | |  \ V / | |_  | |  | | | \ \ /\ / /
|  _ <| |___|  __/| |___| |  |  _| | |__| |_| |\ V  V /
|_| \_\_____|_|   |_____|_|  |_|   |_____\___/  \_/\_/   server
`
