package service

import (
	"log/slog"

	"replyflow.app/relay/internal/autoreply"
	"replyflow.app/relay/internal/queue"
	"replyflow.app/relay/internal/store"
)

type Services struct {
	stores     *store.Stores
	dispatcher *autoreply.Dispatcher
	sweeper    *autoreply.Sweeper
	producer   queue.Producer
	logger     *slog.Logger
}

func NewServices(stores *store.Stores, dispatcher *autoreply.Dispatcher, sweeper *autoreply.Sweeper, producer queue.Producer, logger *slog.Logger) *Services {
	return &Services{
		stores:     stores,
		dispatcher: dispatcher,
		sweeper:    sweeper,
		producer:   producer,
		logger:     logger,
	}
}

func (s *Services) Ingest() InteractionIngestService {
	return NewInteractionIngestService(s.stores.Accounts(), s.producer, s.logger)
}

func (s *Services) AutoReply() AutoReplyService {
	return NewAutoReplyService(s.dispatcher, s.sweeper, s.stores.Rules(), s.stores.ReplyRecords())
}
