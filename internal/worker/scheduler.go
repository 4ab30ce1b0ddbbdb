package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"replyflow.app/relay/common/logger"
	"replyflow.app/relay/internal/queue"
)

type SchedulerConfig struct {
	PollInterval  time.Duration
	SweepInterval time.Duration
}

// Scheduler enqueues poll_account and sweep_account tasks for every account with active
// rules. Each tick is gated so that only one worker process enqueues it.
type Scheduler struct {
	accounts AccountLister
	producer queue.Producer
	gate     TickGate
	cfg      SchedulerConfig
	logger   *slog.Logger
	now      func() time.Time
}

func NewScheduler(accounts AccountLister, producer queue.Producer, gate TickGate, cfg SchedulerConfig, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		accounts: accounts,
		producer: producer,
		gate:     gate,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// Run blocks until ctx is done. A non-positive interval disables that task type.
func (s *Scheduler) Run(ctx context.Context) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "relay.worker.scheduler"})

	poll := tickerFor(s.cfg.PollInterval)
	defer poll.stop()
	sweep := tickerFor(s.cfg.SweepInterval)
	defer sweep.stop()

	s.logger.InfoContext(ctx, "scheduler started",
		"poll_interval", s.cfg.PollInterval,
		"sweep_interval", s.cfg.SweepInterval)

	for {
		select {
		case <-ctx.Done():
			return
		case <-poll.c:
			s.tick(ctx, queue.TaskTypePollAccount, s.cfg.PollInterval)
		case <-sweep.c:
			s.tick(ctx, queue.TaskTypeSweepAccount, s.cfg.SweepInterval)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context, taskType queue.TaskType, interval time.Duration) {
	if _, err := s.Enqueue(ctx, taskType, interval); err != nil {
		s.logger.ErrorContext(ctx, "scheduling tasks failed", "task_type", taskType, "error", err)
	}
}

// Enqueue adds one taskType task per account with active rules, unless another process
// already did so for the current interval. It returns the number of tasks enqueued.
func (s *Scheduler) Enqueue(ctx context.Context, taskType queue.TaskType, interval time.Duration) (int, error) {
	if s.gate != nil && interval > 0 {
		slot := s.now().UTC().Truncate(interval).Unix()
		won, err := s.gate.Acquire(ctx, fmt.Sprintf("replyflow:schedule:%s:%d", taskType, slot), interval)
		if err != nil {
			return 0, fmt.Errorf("acquiring schedule slot: %w", err)
		}
		if !won {
			s.logger.DebugContext(ctx, "schedule slot taken by another worker", "task_type", taskType)
			return 0, nil
		}
	}

	sc := logger.StartSpan(ctx, "worker.schedule."+string(taskType))
	defer sc.End()
	ctx = sc.Context()

	accounts, err := s.accounts.ListWithActiveRules(ctx)
	if err != nil {
		sc.RecordError(err)
		return 0, fmt.Errorf("listing accounts with active rules: %w", err)
	}

	traceID := logger.TraceID(ctx)
	enqueued := 0
	for _, account := range accounts {
		task := queue.Task{TaskType: taskType, AccountID: account.ID}
		if traceID != "" {
			task.TraceID = &traceID
		}
		if err := s.producer.Enqueue(ctx, task); err != nil {
			s.logger.WarnContext(ctx, "enqueue failed", "account_id", account.ID, "task_type", taskType, "error", err)
			continue
		}
		enqueued++
	}

	sc.SetInt("accounts", len(accounts))
	sc.SetInt("enqueued", enqueued)
	return enqueued, nil
}

type optionalTicker struct {
	t *time.Ticker
	c <-chan time.Time
}

func tickerFor(d time.Duration) optionalTicker {
	if d <= 0 {
		return optionalTicker{}
	}
	t := time.NewTicker(d)
	return optionalTicker{t: t, c: t.C}
}

func (o optionalTicker) stop() {
	if o.t != nil {
		o.t.Stop()
	}
}

// RedisTickGate grants a key to the first caller until ttl passes.
type RedisTickGate struct {
	client redis.Cmdable
}

func NewRedisTickGate(client redis.Cmdable) *RedisTickGate {
	return &RedisTickGate{client: client}
}

func (g *RedisTickGate) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return g.client.SetNX(ctx, key, 1, ttl).Result()
}
