package store

import (
	"context"
	"errors"
	"time"

	"replyflow.app/relay/internal/model"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrAlreadyClaimed is returned when another caller already reserved or claimed the same
// reply. It is the expected outcome of a lost race, not a failure.
var ErrAlreadyClaimed = errors.New("reply already claimed")

// AccountStore reads connected accounts.
type AccountStore interface {
	GetByID(ctx context.Context, id int64) (*model.Account, error)
	GetByExternalUserID(ctx context.Context, externalUserID string) (*model.Account, error)
	ListWithActiveRules(ctx context.Context) ([]model.Account, error)
}

// PostStore reads posts written by the scheduled-publish path.
type PostStore interface {
	GetByID(ctx context.Context, id int64) (*model.Post, error)
	GetPublishedByExternalID(ctx context.Context, accountID int64, externalID string) (*model.Post, error)
	ListRecentPublished(ctx context.Context, accountID int64, limit int32) ([]model.Post, error)
}

// RuleStore reads auto-reply rules.
type RuleStore interface {
	GetByID(ctx context.Context, id int64) (*model.Rule, error)
	ListActive(ctx context.Context, accountID int64) ([]model.Rule, error)
	// ListActiveForPost returns rules bound to the post and rules with no bound post.
	ListActiveForPost(ctx context.Context, accountID, postID int64) ([]model.Rule, error)
}

// ReplyRecordStore is the delivery ledger.
type ReplyRecordStore interface {
	// Reserve inserts the record unless (rule, trigger) is taken, in which case it returns ErrAlreadyClaimed.
	Reserve(ctx context.Context, record *model.ReplyRecord) (*model.ReplyRecord, error)
	GetByID(ctx context.Context, id int64) (*model.ReplyRecord, error)
	// ListClaimedTriggerIDs returns the subset of triggerIDs that already have a record for the rule.
	ListClaimedTriggerIDs(ctx context.Context, ruleID int64, triggerIDs []string) ([]string, error)
	// Claim takes ownership of an unclaimed record in the given status. ErrAlreadyClaimed otherwise.
	Claim(ctx context.Context, id int64, status model.ReplyStatus) (*model.ReplyRecord, error)
	// MarkSent and MarkFailed report false when the record was already terminal.
	MarkSent(ctx context.Context, id int64, externalMessageID string) (bool, error)
	MarkFailed(ctx context.Context, id int64, errMsg string) (bool, error)
	ListDue(ctx context.Context, accountID int64, now time.Time, limit int32) ([]model.ReplyRecord, error)
	// ListWaitingLikes returns unclaimed waiting_likes records, least recently checked first.
	ListWaitingLikes(ctx context.Context, accountID int64, limit int32) ([]model.ReplyRecord, error)
	// MarkLikesChecked moves the records to the back of the ListWaitingLikes order.
	MarkLikesChecked(ctx context.Context, ids []int64, at time.Time) error
	ExpireWaitingLikes(ctx context.Context, accountID int64, createdBefore time.Time, reason string) (int64, error)
	ListStaleClaims(ctx context.Context, accountID int64, claimedBefore time.Time, limit int32) ([]model.ReplyRecord, error)
	ListByRule(ctx context.Context, ruleID int64, limit int32) ([]model.ReplyRecord, error)
}
