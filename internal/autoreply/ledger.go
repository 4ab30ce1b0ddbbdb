package autoreply

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"

	"replyflow.app/relay/common/id"
	"replyflow.app/relay/common/logger"
	"replyflow.app/relay/internal/model"
	"replyflow.app/relay/internal/store"
)

// ErrFinalizeFailed means a record could not be moved to a terminal state after its send was
// attempted. The record stays claimed, so nothing will send it again.
var ErrFinalizeFailed = errors.New("reply record not finalized")

// Reservation is everything needed to take the (rule, interaction) slot.
type Reservation struct {
	Rule        model.Rule
	Post        model.Post
	Interaction model.Interaction
	Content     string
	Status      model.ReplyStatus

	// ScheduledSendAt is set for delayed replies only.
	ScheduledSendAt *time.Time
	// Claim marks the record as owned by the caller, for replies sent right away.
	Claim bool
	// LikeThreshold is recorded for waiting_likes replies.
	LikeThreshold int
}

// Outcome of a Publisher send. Err nil means MessageID is the published reply.
type Outcome struct {
	MessageID string
	Err       error
}

// Ledger is the delivery ledger over reply_records. Reserve is the only operation that
// decides who sends; everything else acts on records the caller already owns.
type Ledger struct {
	records  store.ReplyRecordStore
	attempts int
	backoff  time.Duration
	logger   *slog.Logger
}

func NewLedger(records store.ReplyRecordStore, attempts int, backoff time.Duration, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	if attempts <= 0 {
		attempts = 1
	}
	return &Ledger{
		records:  records,
		attempts: attempts,
		backoff:  backoff,
		logger:   logger,
	}
}

// Reserve inserts the record for (rule, interaction). It returns store.ErrAlreadyClaimed when
// another trigger path got there first.
func (l *Ledger) Reserve(ctx context.Context, r Reservation, now time.Time) (*model.ReplyRecord, error) {
	record := &model.ReplyRecord{
		ID:                id.New(),
		AccountID:         r.Rule.AccountID,
		RuleID:            r.Rule.ID,
		PostID:            r.Post.ID,
		TriggerExternalID: r.Interaction.ExternalID,
		TriggerKind:       r.Interaction.Kind,
		TriggerAuthorID:   r.Interaction.AuthorID,
		TriggerAuthorName: r.Interaction.AuthorName,
		TriggerText:       r.Interaction.Text,
		ReplyType:         r.Rule.ReplyType,
		ReplyToExternalID: r.Interaction.ReplyTarget(),
		ReplyContent:      r.Content,
		ReplyMediaURL:     r.Rule.ReplyMediaURL,
		LikeThreshold:     r.LikeThreshold,
		Status:            r.Status,
		ScheduledSendAt:   r.ScheduledSendAt,
	}
	if r.Claim {
		record.ClaimedAt = &now
	}

	reserved, err := l.records.Reserve(ctx, record)
	if err != nil {
		if errors.Is(err, store.ErrAlreadyClaimed) {
			return nil, err
		}
		return nil, fmt.Errorf("reserving reply for rule %d trigger %s: %w", r.Rule.ID, r.Interaction.ExternalID, err)
	}
	return reserved, nil
}

// ClaimedTriggerIDs returns the trigger ids that already have a record for the rule.
func (l *Ledger) ClaimedTriggerIDs(ctx context.Context, ruleID int64, triggerIDs []string) (map[string]struct{}, error) {
	ids, err := l.records.ListClaimedTriggerIDs(ctx, ruleID, triggerIDs)
	if err != nil {
		return nil, fmt.Errorf("listing claimed triggers for rule %d: %w", ruleID, err)
	}

	claimed := make(map[string]struct{}, len(ids))
	for _, triggerID := range ids {
		claimed[triggerID] = struct{}{}
	}
	return claimed, nil
}

// Claim takes ownership of a reserved record still in status. It returns
// store.ErrAlreadyClaimed when another sweeper holds it or it has moved on.
func (l *Ledger) Claim(ctx context.Context, record *model.ReplyRecord, status model.ReplyStatus) (*model.ReplyRecord, error) {
	claimed, err := l.records.Claim(ctx, record.ID, status)
	if err != nil {
		if errors.Is(err, store.ErrAlreadyClaimed) {
			return nil, err
		}
		return nil, fmt.Errorf("claiming reply record %d: %w", record.ID, err)
	}
	return claimed, nil
}

// Finalize moves a record to sent or failed. Storage errors are retried with exponential
// backoff. The caller's cancellation is ignored here: once a send is attempted its outcome
// must be written.
func (l *Ledger) Finalize(ctx context.Context, record *model.ReplyRecord, out Outcome) error {
	ctx = context.WithoutCancel(ctx)
	ctx = logger.WithLogFields(ctx, logger.LogFields{RecordID: &record.ID})

	policy := backoff.NewExponentialBackOff()
	if l.backoff > 0 {
		policy.InitialInterval = l.backoff
	}

	applied, err := backoff.Retry(ctx, func() (bool, error) {
		if out.Err == nil {
			return l.records.MarkSent(ctx, record.ID, out.MessageID)
		}
		return l.records.MarkFailed(ctx, record.ID, out.Err.Error())
	}, backoff.WithBackOff(policy), backoff.WithMaxTries(uint(l.attempts)))

	if err != nil {
		if out.Err == nil {
			l.logger.ErrorContext(ctx, "reply sent but not finalized",
				"message_id", out.MessageID,
				"attempts", l.attempts,
				"error", err)
		} else {
			l.logger.ErrorContext(ctx, "failed reply not finalized",
				"send_error", out.Err.Error(),
				"attempts", l.attempts,
				"error", err)
		}
		return fmt.Errorf("%w: record %d: %v", ErrFinalizeFailed, record.ID, err)
	}

	if !applied {
		// already terminal: some other path finalized it first
		l.logger.WarnContext(ctx, "reply record already finalized")
		return nil
	}

	if out.Err == nil {
		record.Status = model.ReplyStatusSent
		record.ExternalMessageID = &out.MessageID
	} else {
		msg := out.Err.Error()
		record.Status = model.ReplyStatusFailed
		record.ErrorMessage = &msg
	}
	return nil
}
