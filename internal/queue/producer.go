package queue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

type Producer interface {
	Enqueue(ctx context.Context, task Task) error
	Close() error
}

type redisProducer struct {
	client *redis.Client
	stream string
	logger *slog.Logger
}

func NewRedisProducer(client *redis.Client, stream string, logger *slog.Logger) Producer {
	if logger == nil {
		logger = slog.Default()
	}
	return &redisProducer{
		client: client,
		stream: stream,
		logger: logger,
	}
}

func (p *redisProducer) Enqueue(ctx context.Context, task Task) error {
	values, err := taskValues(task)
	if err != nil {
		return err
	}

	if err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: values,
	}).Err(); err != nil {
		return fmt.Errorf("enqueue %s task: %w", task.TaskType, err)
	}

	p.logger.InfoContext(ctx, "enqueued task",
		"task_type", task.TaskType,
		"account_id", task.AccountID,
		"attempt", values[fieldAttempt])
	return nil
}

func (p *redisProducer) Close() error {
	return p.client.Close()
}

func taskValues(task Task) (map[string]any, error) {
	if !task.TaskType.Valid() {
		return nil, fmt.Errorf("unknown task_type %q", task.TaskType)
	}
	if task.AccountID <= 0 {
		return nil, fmt.Errorf("%s task without account_id", task.TaskType)
	}

	attempt := task.Attempt
	if attempt <= 0 {
		attempt = 1
	}

	values := map[string]any{
		fieldTaskType:  string(task.TaskType),
		fieldAccountID: task.AccountID,
		fieldAttempt:   attempt,
	}

	if task.TaskType == TaskTypeInteraction {
		if task.Interaction == nil || task.Interaction.PostExternalID == "" {
			return nil, fmt.Errorf("interaction task without interaction")
		}
		interactionValues(values, task.Interaction)
	}

	if task.TraceID != nil && *task.TraceID != "" {
		values[fieldTraceID] = *task.TraceID
	}
	return values, nil
}
