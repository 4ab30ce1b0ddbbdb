package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"replyflow.app/relay/common/id"
	"replyflow.app/relay/common/logger"
	"replyflow.app/relay/common/otel"
	"replyflow.app/relay/core/config"
	"replyflow.app/relay/core/db"
	"replyflow.app/relay/internal/autoreply"
	"replyflow.app/relay/internal/publisher"
	"replyflow.app/relay/internal/queue"
	"replyflow.app/relay/internal/store"
	"replyflow.app/relay/internal/throttle"
	"replyflow.app/relay/internal/worker"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeWorker)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	fmt.Printf("%s\n", banner)

	telemetry, err := otel.Setup(ctx, cfg.OTel, cfg.Env)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}
	logger.Setup(cfg)

	slog.InfoContext(ctx, "relay worker starting",
		"env", cfg.Env,
		"consumer_group", cfg.Pipeline.RedisGroup,
		"consumer_name", cfg.Pipeline.RedisConsumer)

	// node 2 keeps worker-reserved ids apart from the server's
	if err := id.Init(2); err != nil {
		slog.ErrorContext(ctx, "failed to initialize id generator", "error", err)
		os.Exit(1)
	}

	if cfg.AutoMigrate {
		if err := db.Migrate(ctx, cfg.DB.DSN); err != nil {
			slog.ErrorContext(ctx, "failed to apply migrations", "error", err)
			os.Exit(1)
		}
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
	defer redisClient.Close()
	slog.InfoContext(ctx, "redis connected", "stream", cfg.Pipeline.RedisStream)

	consumer, err := queue.NewRedisConsumer(ctx, redisClient, queue.ConsumerConfig{
		Stream:       cfg.Pipeline.RedisStream,
		Group:        cfg.Pipeline.RedisGroup,
		Consumer:     cfg.Pipeline.RedisConsumer,
		DLQStream:    cfg.Pipeline.RedisDLQStream,
		BatchSize:    10,
		Block:        5 * time.Second,
		MaxAttempts:  cfg.Pipeline.MaxAttempts,
		RequeueDelay: time.Second,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create consumer", "error", err)
		os.Exit(1)
	}

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

	w := worker.New(
		consumer,
		autoreply.NewDispatcher(deps, cfg.AutoReply),
		autoreply.NewSweeper(deps, cfg.AutoReply),
		worker.Config{MaxAttempts: cfg.Pipeline.MaxAttempts},
		slog.Default(),
	)

	reclaimer := worker.NewRedisReclaimer(redisClient, worker.RedisReclaimerConfig{
		Stream:    cfg.Pipeline.RedisStream,
		Group:     cfg.Pipeline.RedisGroup,
		Consumer:  cfg.Pipeline.RedisConsumer + "-reclaimer",
		MinIdle:   5 * time.Minute,
		Interval:  time.Minute,
		BatchSize: 10,
	}, consumer, w.HandleMessage, slog.Default())

	producer := queue.NewRedisProducer(redisClient, cfg.Pipeline.RedisStream, slog.Default())
	scheduler := worker.NewScheduler(stores.Accounts(), producer, worker.NewRedisTickGate(redisClient), worker.SchedulerConfig{
		PollInterval:  cfg.AutoReply.PollInterval,
		SweepInterval: cfg.AutoReply.SweepInterval,
	}, slog.Default())

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		return w.Run(gctx)
	})
	g.Go(func() error {
		reclaimer.Run(gctx)
		return nil
	})
	g.Go(func() error {
		scheduler.Run(gctx)
		return nil
	})

	slog.InfoContext(ctx, "worker initialized and running")

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	var runErr error
	select {
	case runErr = <-done:
	case <-runCtx.Done():
		slog.InfoContext(ctx, "shutting down worker...")
		select {
		case runErr = <-done:
		case <-time.After(30 * time.Second):
			slog.WarnContext(ctx, "shutdown timeout exceeded")
		}
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		slog.ErrorContext(ctx, "worker stopped with error", "error", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(ctx, "worker shutdown complete")
}

const banner = `
 ____  _____ ____  _  __   __ _____ _     _____        __
|  _ \| ____|  _ \| | \ \ / /|  ___| |   / _ \ \      / /
| |_) |  _| | |_) | |  \ V / | |_  | |  | | | \ \ /\ / /
|  _ <| |___|  __/| |___| |  |  _| | |__| |_| |\ V  V /
|_| \_\_____|_|   |_____|_|  |_|   |_____\___/  \_/\_/   worker
`
