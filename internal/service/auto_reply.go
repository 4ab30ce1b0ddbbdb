package service

import (
	"context"
	"errors"
	"fmt"

	"replyflow.app/relay/internal/autoreply"
	"replyflow.app/relay/internal/model"
	"replyflow.app/relay/internal/store"
)

var ErrRuleNotFound = errors.New("rule not found")

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// Runner is the engine surface behind the admin API.
type Runner interface {
	Process(ctx context.Context, accountID int64) (autoreply.Summary, error)
}

type SweepRunner interface {
	Sweep(ctx context.Context, accountID int64) (autoreply.SweepSummary, error)
}

type AutoReplyService interface {
	Process(ctx context.Context, accountID int64) (autoreply.Summary, error)
	Sweep(ctx context.Context, accountID int64) (autoreply.SweepSummary, error)
	// History lists the rule's reply records, newest first. The rule must belong to accountID.
	History(ctx context.Context, accountID, ruleID int64, limit int32) ([]model.ReplyRecord, error)
}

type autoReplyService struct {
	dispatcher Runner
	sweeper    SweepRunner
	rules      store.RuleStore
	records    store.ReplyRecordStore
}

func NewAutoReplyService(dispatcher Runner, sweeper SweepRunner, rules store.RuleStore, records store.ReplyRecordStore) AutoReplyService {
	return &autoReplyService{
		dispatcher: dispatcher,
		sweeper:    sweeper,
		rules:      rules,
		records:    records,
	}
}

func (s *autoReplyService) Process(ctx context.Context, accountID int64) (autoreply.Summary, error) {
	summary, err := s.dispatcher.Process(ctx, accountID)
	if errors.Is(err, store.ErrNotFound) {
		return summary, ErrAccountNotFound
	}
	return summary, err
}

func (s *autoReplyService) Sweep(ctx context.Context, accountID int64) (autoreply.SweepSummary, error) {
	summary, err := s.sweeper.Sweep(ctx, accountID)
	if errors.Is(err, store.ErrNotFound) {
		return summary, ErrAccountNotFound
	}
	return summary, err
}

func (s *autoReplyService) History(ctx context.Context, accountID, ruleID int64, limit int32) ([]model.ReplyRecord, error) {
	rule, err := s.rules.GetByID(ctx, ruleID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrRuleNotFound
		}
		return nil, fmt.Errorf("fetching rule: %w", err)
	}
	if rule.AccountID != accountID {
		return nil, ErrRuleNotFound
	}

	switch {
	case limit <= 0:
		limit = defaultHistoryLimit
	case limit > maxHistoryLimit:
		limit = maxHistoryLimit
	}

	records, err := s.records.ListByRule(ctx, ruleID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing reply records: %w", err)
	}
	return records, nil
}
