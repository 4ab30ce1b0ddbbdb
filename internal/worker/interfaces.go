package worker

import (
	"context"
	"time"

	"replyflow.app/relay/internal/autoreply"
	"replyflow.app/relay/internal/model"
	"replyflow.app/relay/internal/queue"
)

// Consumer abstracts the message queue for testability.
type Consumer interface {
	Read(ctx context.Context) ([]queue.Message, error)
	Ack(ctx context.Context, msg queue.Message) error
	Requeue(ctx context.Context, msg queue.Message, errMsg string) error
	SendDLQ(ctx context.Context, msg queue.Message, errMsg string) error
}

// Dispatcher is the part of autoreply.Dispatcher the worker drives.
type Dispatcher interface {
	Process(ctx context.Context, accountID int64) (autoreply.Summary, error)
	HandleInteraction(ctx context.Context, accountID int64, in model.Interaction) (autoreply.Summary, error)
}

type Sweeper interface {
	Sweep(ctx context.Context, accountID int64) (autoreply.SweepSummary, error)
}

type AccountLister interface {
	ListWithActiveRules(ctx context.Context) ([]model.Account, error)
}

// TickGate elects one scheduler per tick across worker processes.
type TickGate interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
}
