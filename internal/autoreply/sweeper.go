package autoreply

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"replyflow.app/relay/common/logger"
	"replyflow.app/relay/core/config"
	"replyflow.app/relay/internal/model"
	"replyflow.app/relay/internal/publisher"
	"replyflow.app/relay/internal/store"
	"replyflow.app/relay/internal/throttle"
)

const waitingLikesExpiredReason = "like threshold not reached before expiry"

// errStopSweep ends the send phases of a sweep early, leaving records for the next run.
var errStopSweep = errors.New("stop sweep")

type SweepSummary struct {
	Sent        int `json:"sent"`
	Failed      int `json:"failed"`
	Skipped     int `json:"skipped"`
	Waiting     int `json:"waiting"`
	Expired     int `json:"expired"`
	StaleClaims int `json:"stale_claims"`
	Errors      int `json:"errors"`
}

// Sweeper sends replies the Dispatcher deferred: delayed replies that are due and
// waiting_likes replies whose post reached its threshold. Every send is preceded by a claim,
// so concurrent sweepers never send the same record twice.
type Sweeper struct {
	deps   Deps
	cfg    config.AutoReplyConfig
	ledger *Ledger
	logger *slog.Logger
}

func NewSweeper(deps Deps, cfg config.AutoReplyConfig) *Sweeper {
	deps = deps.withDefaults()
	return &Sweeper{
		deps:   deps,
		cfg:    cfg,
		ledger: ledgerFor(deps, cfg),
		logger: deps.Logger,
	}
}

func (s *Sweeper) Sweep(ctx context.Context, accountID int64) (SweepSummary, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{AccountID: &accountID, Component: "autoreply.sweeper"})
	sc := logger.StartSpan(ctx, "autoreply.sweep")
	defer sc.End()
	ctx = sc.Context()

	var summary SweepSummary

	account, err := loadAccount(ctx, s.deps.Accounts, accountID)
	if err != nil {
		sc.RecordError(err)
		return summary, err
	}
	pub := s.deps.Publishers.ForAccount(account)
	now := s.deps.Now()
	batch := int32(s.cfg.SweepBatchSize)

	if s.cfg.WaitingLikesTTL > 0 {
		expired, err := s.deps.Records.ExpireWaitingLikes(ctx, accountID, now.Add(-s.cfg.WaitingLikesTTL), waitingLikesExpiredReason)
		if err != nil {
			s.logger.WarnContext(ctx, "expiring waiting_likes replies failed", "error", err)
			summary.Errors++
		} else if expired > 0 {
			s.logger.InfoContext(ctx, "expired waiting_likes replies", "count", expired, "ttl", s.cfg.WaitingLikesTTL)
			summary.Expired = int(expired)
		}
	}

	s.reportStaleClaims(ctx, accountID, now, batch, &summary)

	err = s.sweepDue(ctx, account, pub, now, batch, &summary)
	if err == nil {
		err = s.sweepWaitingLikes(ctx, account, pub, now, batch, &summary)
	}
	if err != nil && !errors.Is(err, errStopSweep) {
		sc.RecordError(err)
		return summary, err
	}

	s.logger.InfoContext(ctx, "auto-reply sweep complete",
		"sent", summary.Sent,
		"failed", summary.Failed,
		"skipped", summary.Skipped,
		"waiting", summary.Waiting,
		"expired", summary.Expired,
		"stale_claims", summary.StaleClaims,
		"errors", summary.Errors)

	return summary, nil
}

// reportStaleClaims logs records that were claimed but never finalized. Whether they were
// published is unknown, so they are left for an operator and never sent again.
func (s *Sweeper) reportStaleClaims(ctx context.Context, accountID int64, now time.Time, batch int32, summary *SweepSummary) {
	if s.cfg.StaleClaimAfter <= 0 {
		return
	}

	stale, err := s.deps.Records.ListStaleClaims(ctx, accountID, now.Add(-s.cfg.StaleClaimAfter), batch)
	if err != nil {
		s.logger.WarnContext(ctx, "listing stale claims failed", "error", err)
		summary.Errors++
		return
	}

	for _, rec := range stale {
		s.logger.ErrorContext(ctx, "reply claimed but never finalized; not re-sending",
			"record_id", rec.ID,
			"rule_id", rec.RuleID,
			"status", rec.Status,
			"claimed_at", rec.ClaimedAt)
	}
	summary.StaleClaims = len(stale)
}

func (s *Sweeper) sweepDue(ctx context.Context, account *model.Account, pub publisher.Publisher, now time.Time, batch int32, summary *SweepSummary) error {
	due, err := s.deps.Records.ListDue(ctx, account.ID, now, batch)
	if err != nil {
		s.logger.WarnContext(ctx, "listing due replies failed", "error", err)
		summary.Errors++
		return nil
	}

	for i := range due {
		if err := s.claimAndSend(ctx, account, pub, &due[i], model.ReplyStatusPending, summary); err != nil {
			return err
		}
	}
	return nil
}

// sweepWaitingLikes checks a batch of waiting_likes records, least recently checked first. Every
// record left waiting is marked checked, so later sweeps rotate through the whole backlog.
func (s *Sweeper) sweepWaitingLikes(ctx context.Context, account *model.Account, pub publisher.Publisher, now time.Time, batch int32, summary *SweepSummary) error {
	waiting, err := s.deps.Records.ListWaitingLikes(ctx, account.ID, batch)
	if err != nil {
		s.logger.WarnContext(ctx, "listing waiting_likes replies failed", "error", err)
		summary.Errors++
		return nil
	}

	var checked []int64
	defer func() {
		if err := s.deps.Records.MarkLikesChecked(ctx, checked, now); err != nil {
			s.logger.WarnContext(ctx, "marking waiting_likes replies checked failed", "error", err, "count", len(checked))
			summary.Errors++
		}
	}()

	// likes are read once per post
	likes := make(map[int64]int)
	unreadable := make(map[int64]bool)

	for i := range waiting {
		rec := &waiting[i]
		postCtx := logger.WithLogFields(ctx, logger.LogFields{PostID: &rec.PostID})

		if unreadable[rec.PostID] {
			checked = append(checked, rec.ID)
			continue
		}
		count, ok := likes[rec.PostID]
		if !ok {
			count, err = s.likeCount(postCtx, pub, rec.PostID)
			if err != nil {
				s.logger.WarnContext(postCtx, "reading post likes failed", "error", err)
				summary.Errors++
				unreadable[rec.PostID] = true
				checked = append(checked, rec.ID)
				continue
			}
			likes[rec.PostID] = count
		}

		if count < rec.LikeThreshold {
			summary.Waiting++
			checked = append(checked, rec.ID)
			continue
		}

		if err := s.claimAndSend(postCtx, account, pub, rec, model.ReplyStatusWaitingLikes, summary); err != nil {
			return err
		}
	}
	return nil
}

func (s *Sweeper) likeCount(ctx context.Context, pub publisher.Publisher, postID int64) (int, error) {
	post, err := s.deps.Posts.GetByID(ctx, postID)
	if err != nil {
		return 0, err
	}
	if !post.Live() {
		return 0, errors.New("post is not published")
	}

	metrics, err := pub.GetPostMetrics(ctx, *post.ExternalID)
	if err != nil {
		return 0, err
	}
	return metrics.Likes, nil
}

// claimAndSend takes the record, publishes its stored content and finalizes it. A rate limit
// returns errStopSweep; a lost outcome returns ErrFinalizeFailed.
func (s *Sweeper) claimAndSend(ctx context.Context, account *model.Account, pub publisher.Publisher, rec *model.ReplyRecord, status model.ReplyStatus, summary *SweepSummary) error {
	ctx = logger.WithLogFields(ctx, logger.LogFields{RecordID: &rec.ID, RuleID: &rec.RuleID})

	if err := s.deps.Limiter.Acquire(ctx, account.ID); err != nil {
		if errors.Is(err, throttle.ErrRateLimited) {
			s.logger.InfoContext(ctx, "sweep postponed by rate limit", "error", err)
			summary.Skipped++
			return errStopSweep
		}
		s.logger.WarnContext(ctx, "rate limiter unavailable", "error", err)
		summary.Errors++
		return errStopSweep
	}

	claimed, err := s.ledger.Claim(ctx, rec, status)
	if err != nil {
		if errors.Is(err, store.ErrAlreadyClaimed) {
			summary.Skipped++
			return nil
		}
		s.logger.WarnContext(ctx, "claiming reply failed", "error", err)
		summary.Errors++
		return nil
	}

	messageID, sendErr := deliver(ctx, pub, claimed)
	if err := s.ledger.Finalize(ctx, claimed, Outcome{MessageID: messageID, Err: sendErr}); err != nil {
		return err
	}

	if sendErr != nil {
		s.logger.WarnContext(ctx, "deferred reply send failed", "error", sendErr)
		summary.Failed++
		return nil
	}

	s.logger.InfoContext(ctx, "deferred reply sent", "message_id", messageID)
	summary.Sent++
	return nil
}
