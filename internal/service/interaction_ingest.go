package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"replyflow.app/relay/common/logger"
	"replyflow.app/relay/internal/model"
	"replyflow.app/relay/internal/queue"
	"replyflow.app/relay/internal/store"
)

var ErrAccountNotFound = errors.New("account not found")

type IngestResult struct {
	Enqueued int `json:"enqueued"`
	Dropped  int `json:"dropped"`
}

// InteractionIngestService turns webhook interactions into queued interaction tasks.
type InteractionIngestService interface {
	Ingest(ctx context.Context, externalUserID string, interactions []model.Interaction) (IngestResult, error)
}

type interactionIngestService struct {
	accounts store.AccountStore
	producer queue.Producer
	logger   *slog.Logger
}

func NewInteractionIngestService(accounts store.AccountStore, producer queue.Producer, logger *slog.Logger) InteractionIngestService {
	if logger == nil {
		logger = slog.Default()
	}
	return &interactionIngestService{
		accounts: accounts,
		producer: producer,
		logger:   logger,
	}
}

func (s *interactionIngestService) Ingest(ctx context.Context, externalUserID string, interactions []model.Interaction) (IngestResult, error) {
	var result IngestResult
	if externalUserID == "" {
		return result, fmt.Errorf("external user id is required")
	}

	account, err := s.accounts.GetByExternalUserID(ctx, externalUserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return result, ErrAccountNotFound
		}
		return result, fmt.Errorf("fetching account: %w", err)
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{AccountID: &account.ID, Component: "relay.service.ingest"})
	if !account.IsActive {
		s.logger.InfoContext(ctx, "ignoring interactions for inactive account", "count", len(interactions))
		result.Dropped = len(interactions)
		return result, nil
	}

	traceID := logger.TraceID(ctx)
	for i := range interactions {
		in := interactions[i]
		if !in.Kind.Valid() || in.PostExternalID == "" {
			s.logger.WarnContext(ctx, "dropping unusable interaction",
				"interaction_id", in.ExternalID,
				"kind", in.Kind)
			result.Dropped++
			continue
		}

		task := queue.Task{
			TaskType:    queue.TaskTypeInteraction,
			AccountID:   account.ID,
			Interaction: &in,
		}
		if traceID != "" {
			task.TraceID = &traceID
		}
		if err := s.producer.Enqueue(ctx, task); err != nil {
			// the platform redelivers the webhook on a non-2xx, and every task is idempotent
			return result, fmt.Errorf("enqueueing interaction %s: %w", in.ExternalID, err)
		}
		result.Enqueued++
	}

	return result, nil
}
