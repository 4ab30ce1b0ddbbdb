package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"replyflow.app/relay/core/db/sqlc"
	"replyflow.app/relay/internal/model"
)

type replyRecordStore struct {
	queries *sqlc.Queries
}

func newReplyRecordStore(queries *sqlc.Queries) ReplyRecordStore {
	return &replyRecordStore{queries: queries}
}

func (s *replyRecordStore) Reserve(ctx context.Context, record *model.ReplyRecord) (*model.ReplyRecord, error) {
	row, err := s.queries.ReserveReplyRecord(ctx, sqlc.ReserveReplyRecordParams{
		ID:                record.ID,
		AccountID:         record.AccountID,
		RuleID:            record.RuleID,
		PostID:            record.PostID,
		TriggerExternalID: record.TriggerExternalID,
		TriggerKind:       string(record.TriggerKind),
		TriggerAuthorID:   record.TriggerAuthorID,
		TriggerAuthorName: record.TriggerAuthorName,
		TriggerText:       record.TriggerText,
		ReplyType:         string(record.ReplyType),
		ReplyToExternalID: record.ReplyToExternalID,
		ReplyContent:      record.ReplyContent,
		ReplyMediaUrl:     record.ReplyMediaURL,
		LikeThreshold:     int32(record.LikeThreshold),
		Status:            string(record.Status),
		ScheduledSendAt:   optionalTimestamptz(record.ScheduledSendAt),
		ClaimedAt:         optionalTimestamptz(record.ClaimedAt),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// ON CONFLICT DO NOTHING returned nothing: someone else holds (rule, trigger)
			return nil, ErrAlreadyClaimed
		}
		return nil, err
	}
	return toReplyRecordModel(row), nil
}

func (s *replyRecordStore) GetByID(ctx context.Context, id int64) (*model.ReplyRecord, error) {
	row, err := s.queries.GetReplyRecord(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return toReplyRecordModel(row), nil
}

func (s *replyRecordStore) ListClaimedTriggerIDs(ctx context.Context, ruleID int64, triggerIDs []string) ([]string, error) {
	if len(triggerIDs) == 0 {
		return nil, nil
	}
	return s.queries.ListClaimedTriggerIDs(ctx, sqlc.ListClaimedTriggerIDsParams{
		RuleID:             ruleID,
		TriggerExternalIds: triggerIDs,
	})
}

func (s *replyRecordStore) Claim(ctx context.Context, id int64, status model.ReplyStatus) (*model.ReplyRecord, error) {
	row, err := s.queries.ClaimReplyRecord(ctx, sqlc.ClaimReplyRecordParams{
		ID:     id,
		Status: string(status),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAlreadyClaimed
		}
		return nil, err
	}
	return toReplyRecordModel(row), nil
}

func (s *replyRecordStore) MarkSent(ctx context.Context, id int64, externalMessageID string) (bool, error) {
	rows, err := s.queries.MarkReplyRecordSent(ctx, sqlc.MarkReplyRecordSentParams{
		ID:                id,
		ExternalMessageID: stringPtr(externalMessageID),
	})
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (s *replyRecordStore) MarkFailed(ctx context.Context, id int64, errMsg string) (bool, error) {
	rows, err := s.queries.MarkReplyRecordFailed(ctx, sqlc.MarkReplyRecordFailedParams{
		ID:           id,
		ErrorMessage: stringPtr(errMsg),
	})
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (s *replyRecordStore) ListDue(ctx context.Context, accountID int64, now time.Time, limit int32) ([]model.ReplyRecord, error) {
	rows, err := s.queries.ListDueReplyRecords(ctx, sqlc.ListDueReplyRecordsParams{
		AccountID: accountID,
		Limit:     limit,
		Now:       timestamptz(now),
	})
	if err != nil {
		return nil, err
	}
	return toReplyRecordModels(rows), nil
}

func (s *replyRecordStore) ListWaitingLikes(ctx context.Context, accountID int64, limit int32) ([]model.ReplyRecord, error) {
	rows, err := s.queries.ListWaitingLikesReplyRecords(ctx, sqlc.ListWaitingLikesReplyRecordsParams{
		AccountID: accountID,
		Limit:     limit,
	})
	if err != nil {
		return nil, err
	}
	return toReplyRecordModels(rows), nil
}

func (s *replyRecordStore) MarkLikesChecked(ctx context.Context, ids []int64, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	return s.queries.TouchWaitingLikesReplyRecords(ctx, sqlc.TouchWaitingLikesReplyRecordsParams{
		CheckedAt: timestamptz(at),
		Ids:       ids,
	})
}

func (s *replyRecordStore) ExpireWaitingLikes(ctx context.Context, accountID int64, createdBefore time.Time, reason string) (int64, error) {
	return s.queries.ExpireWaitingLikesReplyRecords(ctx, sqlc.ExpireWaitingLikesReplyRecordsParams{
		AccountID:     accountID,
		ErrorMessage:  stringPtr(reason),
		CreatedBefore: timestamptz(createdBefore),
	})
}

func (s *replyRecordStore) ListStaleClaims(ctx context.Context, accountID int64, claimedBefore time.Time, limit int32) ([]model.ReplyRecord, error) {
	rows, err := s.queries.ListStaleClaimedReplyRecords(ctx, sqlc.ListStaleClaimedReplyRecordsParams{
		AccountID:     accountID,
		Limit:         limit,
		ClaimedBefore: timestamptz(claimedBefore),
	})
	if err != nil {
		return nil, err
	}
	return toReplyRecordModels(rows), nil
}

func (s *replyRecordStore) ListByRule(ctx context.Context, ruleID int64, limit int32) ([]model.ReplyRecord, error) {
	rows, err := s.queries.ListReplyRecordsByRule(ctx, sqlc.ListReplyRecordsByRuleParams{
		RuleID: ruleID,
		Limit:  limit,
	})
	if err != nil {
		return nil, err
	}
	return toReplyRecordModels(rows), nil
}

func toReplyRecordModels(rows []sqlc.ReplyRecord) []model.ReplyRecord {
	records := make([]model.ReplyRecord, len(rows))
	for i, row := range rows {
		records[i] = *toReplyRecordModel(row)
	}
	return records
}

func toReplyRecordModel(row sqlc.ReplyRecord) *model.ReplyRecord {
	return &model.ReplyRecord{
		ID:                row.ID,
		AccountID:         row.AccountID,
		RuleID:            row.RuleID,
		PostID:            row.PostID,
		TriggerExternalID: row.TriggerExternalID,
		TriggerKind:       model.InteractionKind(row.TriggerKind),
		TriggerAuthorID:   row.TriggerAuthorID,
		TriggerAuthorName: row.TriggerAuthorName,
		TriggerText:       row.TriggerText,
		ReplyType:         model.ReplyType(row.ReplyType),
		ReplyToExternalID: row.ReplyToExternalID,
		ReplyContent:      row.ReplyContent,
		ReplyMediaURL:     row.ReplyMediaUrl,
		LikeThreshold:     int(row.LikeThreshold),
		Status:            model.ReplyStatus(row.Status),
		ScheduledSendAt:   timePtr(row.ScheduledSendAt),
		ClaimedAt:         timePtr(row.ClaimedAt),
		ExternalMessageID: row.ExternalMessageID,
		SentAt:            timePtr(row.SentAt),
		ErrorMessage:      row.ErrorMessage,
		CreatedAt:         row.CreatedAt.Time,
		UpdatedAt:         row.UpdatedAt.Time,
		LikesCheckedAt:    timePtr(row.LikesCheckedAt),
	}
}
