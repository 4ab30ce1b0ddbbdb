package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"replyflow.app/relay/core/db/sqlc"
	"replyflow.app/relay/internal/model"
)

type ruleStore struct {
	queries *sqlc.Queries
}

func newRuleStore(queries *sqlc.Queries) RuleStore {
	return &ruleStore{queries: queries}
}

func (s *ruleStore) GetByID(ctx context.Context, id int64) (*model.Rule, error) {
	row, err := s.queries.GetAutoReplyRule(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return toRuleModel(row), nil
}

func (s *ruleStore) ListActive(ctx context.Context, accountID int64) ([]model.Rule, error) {
	rows, err := s.queries.ListActiveAutoReplyRules(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return toRuleModels(rows), nil
}

func (s *ruleStore) ListActiveForPost(ctx context.Context, accountID, postID int64) ([]model.Rule, error) {
	rows, err := s.queries.ListActiveAutoReplyRulesForPost(ctx, sqlc.ListActiveAutoReplyRulesForPostParams{
		AccountID: accountID,
		PostID:    postID,
	})
	if err != nil {
		return nil, err
	}
	return toRuleModels(rows), nil
}

func toRuleModels(rows []sqlc.AutoReplyRule) []model.Rule {
	rules := make([]model.Rule, len(rows))
	for i, row := range rows {
		rules[i] = *toRuleModel(row)
	}
	return rules
}

func toRuleModel(row sqlc.AutoReplyRule) *model.Rule {
	keywords := row.Keywords
	if keywords == nil {
		keywords = []string{}
	}

	return &model.Rule{
		ID:        row.ID,
		AccountID: row.AccountID,
		Name:      row.Name,
		Triggers: model.Triggers{
			Reply:  row.TriggerOnReply,
			Repost: row.TriggerOnRepost,
			Quote:  row.TriggerOnQuote,
			Like:   row.TriggerOnLike,
		},
		TargetPostID:     row.TargetPostID,
		KeywordCondition: model.KeywordCondition(row.KeywordCondition),
		KeywordMatchType: model.KeywordMatchType(row.KeywordMatchType),
		Keywords:         keywords,
		FilterStartDate:  timePtr(row.FilterStartDate),
		FilterEndDate:    timePtr(row.FilterEndDate),
		TimingType:       model.TimingType(row.TimingType),
		DelayMinutes:     int(row.DelayMinutes),
		LikeThreshold:    int(row.LikeThreshold),
		ReplyType:        model.ReplyType(row.ReplyType),
		ReplyContent:     row.ReplyContent,
		ReplyMediaURL:    row.ReplyMediaUrl,
		IsActive:         row.IsActive,
		CreatedAt:        row.CreatedAt.Time,
		UpdatedAt:        row.UpdatedAt.Time,
	}
}
