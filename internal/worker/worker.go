package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"replyflow.app/relay/common/logger"
	"replyflow.app/relay/internal/autoreply"
	"replyflow.app/relay/internal/queue"
	"replyflow.app/relay/internal/store"
)

type Config struct {
	MaxAttempts int
}

type Worker struct {
	consumer   Consumer
	dispatcher Dispatcher
	sweeper    Sweeper
	cfg        Config
	logger     *slog.Logger

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func New(consumer Consumer, dispatcher Dispatcher, sweeper Sweeper, cfg Config, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	return &Worker{
		consumer:   consumer,
		dispatcher: dispatcher,
		sweeper:    sweeper,
		cfg:        cfg,
		logger:     logger,
		stopCh:     make(chan struct{}),
		stoppedCh:  make(chan struct{}),
	}
}

func (w *Worker) Run(ctx context.Context) error {
	defer close(w.stoppedCh)

	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "relay.worker"})
	w.logger.InfoContext(ctx, "worker started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stopCh:
			w.logger.InfoContext(ctx, "worker stopping")
			return nil
		default:
			if err := w.processOneBatch(ctx); err != nil {
				w.logger.ErrorContext(ctx, "batch processing error", "error", err)
				select {
				case <-time.After(time.Second):
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	}
}

func (w *Worker) Stop() {
	close(w.stopCh)
	<-w.stoppedCh
}

func (w *Worker) processOneBatch(ctx context.Context) error {
	messages, err := w.consumer.Read(ctx)
	if err != nil {
		return fmt.Errorf("reading from stream: %w", err)
	}

	for _, msg := range messages {
		_ = w.HandleMessage(ctx, msg)
	}
	return nil
}

// HandleMessage runs one task and settles it on the stream: ack on success or permanent
// failure, requeue while attempts remain, DLQ after that. The reclaimer reuses it.
func (w *Worker) HandleMessage(ctx context.Context, msg queue.Message) error {
	taskType := string(msg.TaskType)
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		MessageID: &msg.ID,
		AccountID: &msg.AccountID,
		TaskType:  &taskType,
	})

	err := w.processMessageSafe(ctx, msg)
	switch {
	case err == nil:
		w.ack(ctx, msg)
		return nil
	case permanent(err):
		w.logger.WarnContext(ctx, "task cannot succeed, dropping", "error", err)
		w.ack(ctx, msg)
		return nil
	}

	w.logger.ErrorContext(ctx, "message processing failed", "error", err, "attempt", msg.Attempt)
	w.handleFailedMessage(ctx, msg, err)
	return err
}

func (w *Worker) processMessageSafe(ctx context.Context, msg queue.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.ErrorContext(ctx, "panic recovered in message processing", "panic", r)
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return w.ProcessMessage(ctx, msg)
}

// ProcessMessage runs the engine for msg without touching the stream.
func (w *Worker) ProcessMessage(ctx context.Context, msg queue.Message) error {
	sc := logger.StartSpanFromTraceID(ctx, msg.TraceID, "worker."+string(msg.TaskType))
	defer sc.End()
	ctx = sc.Context()

	w.logger.InfoContext(ctx, "processing message", "attempt", msg.Attempt)
	start := time.Now()

	var err error
	switch msg.TaskType {
	case queue.TaskTypeInteraction:
		if msg.Interaction == nil {
			return fmt.Errorf("%w: interaction task without interaction", errMalformedTask)
		}
		var summary autoreply.Summary
		summary, err = w.dispatcher.HandleInteraction(ctx, msg.AccountID, *msg.Interaction)
		if err == nil {
			w.logger.InfoContext(ctx, "interaction handled",
				"processed", summary.Processed,
				"skipped", summary.Skipped,
				"failed", summary.Failed,
				"errors", summary.Errors,
				"duration_ms", time.Since(start).Milliseconds())
		}
	case queue.TaskTypePollAccount:
		var summary autoreply.Summary
		summary, err = w.dispatcher.Process(ctx, msg.AccountID)
		if err == nil {
			w.logger.InfoContext(ctx, "account polled",
				"processed", summary.Processed,
				"skipped", summary.Skipped,
				"failed", summary.Failed,
				"errors", summary.Errors,
				"duration_ms", time.Since(start).Milliseconds())
		}
	case queue.TaskTypeSweepAccount:
		var summary autoreply.SweepSummary
		summary, err = w.sweeper.Sweep(ctx, msg.AccountID)
		if err == nil {
			w.logger.InfoContext(ctx, "account swept",
				"sent", summary.Sent,
				"failed", summary.Failed,
				"waiting", summary.Waiting,
				"expired", summary.Expired,
				"duration_ms", time.Since(start).Milliseconds())
		}
	default:
		return fmt.Errorf("%w: unknown task type %q", errMalformedTask, msg.TaskType)
	}

	if err != nil {
		sc.RecordError(err)
	}
	return err
}

var errMalformedTask = errors.New("malformed task")

// permanent reports errors a retry cannot fix. ErrFinalizeFailed is retried: the record
// stays claimed so a retry never re-sends it.
func permanent(err error) bool {
	return errors.Is(err, errMalformedTask) ||
		errors.Is(err, autoreply.ErrAccountInactive) ||
		errors.Is(err, store.ErrNotFound)
}

func (w *Worker) ack(ctx context.Context, msg queue.Message) {
	if err := w.consumer.Ack(ctx, msg); err != nil {
		// the reclaimer will pick it up again; every task is idempotent
		w.logger.WarnContext(ctx, "failed to ACK message", "error", err)
	}
}

func (w *Worker) handleFailedMessage(ctx context.Context, msg queue.Message, err error) {
	if msg.Attempt >= w.cfg.MaxAttempts {
		w.logger.ErrorContext(ctx, "max attempts reached, sending to DLQ", "attempts", msg.Attempt)
		if dlqErr := w.consumer.SendDLQ(ctx, msg, err.Error()); dlqErr != nil {
			w.logger.ErrorContext(ctx, "failed to send to DLQ", "error", dlqErr)
		}
		return
	}

	w.logger.WarnContext(ctx, "requeuing failed message", "attempt", msg.Attempt)
	if requeueErr := w.consumer.Requeue(ctx, msg, err.Error()); requeueErr != nil {
		w.logger.ErrorContext(ctx, "failed to requeue message", "error", requeueErr)
	}
}
