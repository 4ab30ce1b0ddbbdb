package throttle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"replyflow.app/relay/core/config"
)

// ErrRateLimited is returned when an account may not call the Publisher right now.
var ErrRateLimited = errors.New("rate limited")

// Limiter spaces and caps Publisher calls per account.
type Limiter interface {
	Acquire(ctx context.Context, accountID int64) error
}

// RedisLimiter keeps throttle state in Redis so every server and worker process shares it.
//
//	spacing: SET <prefix>:<account>:spacing NX PX <min spacing>
//	cap:     INCR <prefix>:<account>:hour:<yyyymmddhh>
type RedisLimiter struct {
	client     redis.Cmdable
	prefix     string
	minSpacing time.Duration
	maxPerHour int
	maxWait    time.Duration
	now        func() time.Time
	logger     *slog.Logger
}

var _ Limiter = (*RedisLimiter)(nil)

func NewRedisLimiter(client redis.Cmdable, cfg config.ThrottleConfig, logger *slog.Logger) *RedisLimiter {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisLimiter{
		client:     client,
		prefix:     "replyflow:throttle",
		minSpacing: cfg.MinSpacing,
		maxPerHour: cfg.MaxPerHour,
		maxWait:    cfg.MaxSpacingWait,
		now:        time.Now,
		logger:     logger,
	}
}

// Acquire blocks until the account's spacing slot is free, then counts the call against
// the hourly cap. It returns ErrRateLimited when the wait would exceed the configured
// maximum or the hour's budget is spent.
func (l *RedisLimiter) Acquire(ctx context.Context, accountID int64) error {
	if err := l.waitSpacing(ctx, accountID); err != nil {
		return err
	}

	if l.maxPerHour <= 0 {
		return nil
	}

	key := l.hourKey(accountID, l.now())
	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, time.Hour+time.Minute)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("counting publisher call: %w", err)
	}

	if incr.Val() > int64(l.maxPerHour) {
		l.logger.WarnContext(ctx, "hourly publisher cap reached", "account_id", accountID, "cap", l.maxPerHour)
		return fmt.Errorf("%w: %d calls this hour", ErrRateLimited, incr.Val()-1)
	}
	return nil
}

func (l *RedisLimiter) waitSpacing(ctx context.Context, accountID int64) error {
	if l.minSpacing <= 0 {
		return nil
	}

	key := l.spacingKey(accountID)
	var waited time.Duration

	for {
		ok, err := l.client.SetNX(ctx, key, "1", l.minSpacing).Result()
		if err != nil {
			return fmt.Errorf("acquiring spacing slot: %w", err)
		}
		if ok {
			return nil
		}

		ttl, err := l.client.PTTL(ctx, key).Result()
		if err != nil {
			return fmt.Errorf("reading spacing slot: %w", err)
		}
		if ttl <= 0 {
			// expired between SETNX and PTTL, or has no ttl; retry shortly
			ttl = 10 * time.Millisecond
		}

		if l.maxWait > 0 && waited+ttl > l.maxWait {
			return fmt.Errorf("%w: spacing wait over %s", ErrRateLimited, l.maxWait)
		}

		timer := time.NewTimer(ttl)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		waited += ttl
	}
}

func (l *RedisLimiter) spacingKey(accountID int64) string {
	return fmt.Sprintf("%s:%d:spacing", l.prefix, accountID)
}

func (l *RedisLimiter) hourKey(accountID int64, at time.Time) string {
	return fmt.Sprintf("%s:%d:hour:%s", l.prefix, accountID, at.UTC().Format("2006010215"))
}
