package autoreply

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"replyflow.app/relay/common/logger"
	"replyflow.app/relay/core/config"
	"replyflow.app/relay/internal/model"
	"replyflow.app/relay/internal/publisher"
	"replyflow.app/relay/internal/store"
	"replyflow.app/relay/internal/throttle"
)

// errSkipPost stops work on the current post for this run.
var errSkipPost = errors.New("skip post")

// Summary counts what a dispatcher run did.
// Processed covers replies sent or deferred, including those the rate limit left for the
// Sweeper. Skipped covers already-claimed and unmatched interactions. Failed counts sends
// recorded as failed. Errors counts contained per-unit failures.
type Summary struct {
	Processed int `json:"processed"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
	Errors    int `json:"errors"`
}

type Dispatcher struct {
	deps   Deps
	cfg    config.AutoReplyConfig
	ledger *Ledger
	logger *slog.Logger
}

func NewDispatcher(deps Deps, cfg config.AutoReplyConfig) *Dispatcher {
	deps = deps.withDefaults()
	return &Dispatcher{
		deps:   deps,
		cfg:    cfg,
		ledger: ledgerFor(deps, cfg),
		logger: deps.Logger,
	}
}

// dispatchRun holds state for one Process or HandleInteraction call. Rules are read once at the
// start; post metrics and the recent-post list are read at most once.
type dispatchRun struct {
	*Dispatcher
	account *model.Account
	pub     publisher.Publisher
	now     time.Time
	summary Summary

	recent       []model.Post
	recentLoaded bool
	metrics      map[int64]publisher.PostMetrics
}

func (d *Dispatcher) newRun(ctx context.Context, accountID int64) (*dispatchRun, error) {
	account, err := loadAccount(ctx, d.deps.Accounts, accountID)
	if err != nil {
		return nil, err
	}
	return &dispatchRun{
		Dispatcher: d,
		account:    account,
		pub:        d.deps.Publishers.ForAccount(account),
		now:        d.deps.Now(),
		metrics:    make(map[int64]publisher.PostMetrics),
	}, nil
}

// Process runs every active rule of the account against the current interactions on its
// target posts. Per-post and per-interaction failures are logged and counted. The run stops
// early only with ErrFinalizeFailed.
func (d *Dispatcher) Process(ctx context.Context, accountID int64) (Summary, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{AccountID: &accountID, Component: "autoreply.dispatcher"})
	sc := logger.StartSpan(ctx, "autoreply.process")
	defer sc.End()
	ctx = sc.Context()

	run, err := d.newRun(ctx, accountID)
	if err != nil {
		sc.RecordError(err)
		return Summary{}, err
	}

	rules, err := d.deps.Rules.ListActive(ctx, accountID)
	if err != nil {
		sc.RecordError(err)
		return Summary{}, fmt.Errorf("listing rules: %w", err)
	}

	for _, rule := range rules {
		if err := run.processRule(ctx, rule); err != nil {
			sc.RecordError(err)
			return run.summary, err
		}
	}

	sc.SetInt("autoreply.processed", run.summary.Processed)
	sc.SetInt("autoreply.failed", run.summary.Failed)
	d.logger.InfoContext(ctx, "auto-reply run complete",
		"rules", len(rules),
		"processed", run.summary.Processed,
		"skipped", run.summary.Skipped,
		"failed", run.summary.Failed,
		"errors", run.summary.Errors)

	return run.summary, nil
}

// HandleInteraction runs the matching step for a single pushed interaction. Rules bound to the
// parent post always apply; unbound rules apply when the post is one of the account's recent posts.
func (d *Dispatcher) HandleInteraction(ctx context.Context, accountID int64, in model.Interaction) (Summary, error) {
	if in.Kind == model.InteractionKindLike && in.ExternalID == "" {
		in.ExternalID = model.LikeInteractionID(in.PostExternalID, in.AuthorID)
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		AccountID:     &accountID,
		InteractionID: &in.ExternalID,
		Component:     "autoreply.dispatcher",
	})
	sc := logger.StartSpan(ctx, "autoreply.handle_interaction")
	defer sc.End()
	ctx = sc.Context()

	if !in.Kind.Valid() || in.ExternalID == "" || in.PostExternalID == "" {
		return Summary{}, fmt.Errorf("invalid interaction: kind %q id %q post %q", in.Kind, in.ExternalID, in.PostExternalID)
	}

	run, err := d.newRun(ctx, accountID)
	if err != nil {
		sc.RecordError(err)
		return Summary{}, err
	}

	post, err := d.deps.Posts.GetPublishedByExternalID(ctx, accountID, in.PostExternalID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			d.logger.DebugContext(ctx, "interaction on unknown post", "post_external_id", in.PostExternalID)
			return Summary{Skipped: 1}, nil
		}
		sc.RecordError(err)
		return Summary{}, fmt.Errorf("loading post %s: %w", in.PostExternalID, err)
	}
	ctx = logger.WithLogFields(ctx, logger.LogFields{PostID: &post.ID})

	rules, err := d.deps.Rules.ListActiveForPost(ctx, accountID, post.ID)
	if err != nil {
		sc.RecordError(err)
		return Summary{}, fmt.Errorf("listing rules for post %d: %w", post.ID, err)
	}

	for _, rule := range rules {
		if rule.TargetPostID == nil {
			recent, err := run.recentPosts(ctx)
			if err != nil {
				d.logger.WarnContext(ctx, "listing recent posts failed", "error", err)
				run.summary.Errors++
				continue
			}
			if !containsPost(recent, post.ID) {
				continue
			}
		}

		if !run.usable(ctx, rule) {
			continue
		}
		ruleCtx := logger.WithLogFields(ctx, logger.LogFields{RuleID: &rule.ID})

		claimed, err := d.ledger.ClaimedTriggerIDs(ruleCtx, rule.ID, []string{in.ExternalID})
		if err != nil {
			d.logger.WarnContext(ruleCtx, "checking ledger failed", "error", err)
			run.summary.Errors++
			continue
		}
		if _, ok := claimed[in.ExternalID]; ok {
			run.summary.Skipped++
			continue
		}

		if err := run.handle(ruleCtx, rule, *post, in); err != nil {
			if errors.Is(err, errSkipPost) {
				break
			}
			sc.RecordError(err)
			return run.summary, err
		}
	}

	return run.summary, nil
}

// usable filters out rules the engine cannot or need not execute.
func (r *dispatchRun) usable(ctx context.Context, rule model.Rule) bool {
	if !rule.Delivers() {
		return false
	}
	if err := rule.Validate(); err != nil {
		r.logger.WarnContext(ctx, "skipping malformed rule", "rule_id", rule.ID, "error", err)
		r.summary.Errors++
		return false
	}
	return true
}

func (r *dispatchRun) processRule(ctx context.Context, rule model.Rule) error {
	if !r.usable(ctx, rule) {
		return nil
	}
	ctx = logger.WithLogFields(ctx, logger.LogFields{RuleID: &rule.ID})

	posts, err := r.targetPosts(ctx, rule)
	if err != nil {
		r.logger.WarnContext(ctx, "resolving target posts failed", "error", err)
		r.summary.Errors++
		return nil
	}

	for _, post := range posts {
		postCtx := logger.WithLogFields(ctx, logger.LogFields{PostID: &post.ID})
		if err := r.processPost(postCtx, rule, post); err != nil {
			return err
		}
	}
	return nil
}

func (r *dispatchRun) targetPosts(ctx context.Context, rule model.Rule) ([]model.Post, error) {
	if rule.TargetPostID == nil {
		return r.recentPosts(ctx)
	}

	post, err := r.deps.Posts.GetByID(ctx, *rule.TargetPostID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("loading post %d: %w", *rule.TargetPostID, err)
	}
	if post.AccountID != r.account.ID || !post.Live() {
		return nil, nil
	}
	return []model.Post{*post}, nil
}

func (r *dispatchRun) recentPosts(ctx context.Context) ([]model.Post, error) {
	if r.recentLoaded {
		return r.recent, nil
	}

	posts, err := r.deps.Posts.ListRecentPublished(ctx, r.account.ID, int32(r.cfg.RecentPosts))
	if err != nil {
		return nil, fmt.Errorf("listing recent posts: %w", err)
	}

	r.recent = slices.DeleteFunc(posts, func(p model.Post) bool { return !p.Live() })
	r.recentLoaded = true
	return r.recent, nil
}

func containsPost(posts []model.Post, postID int64) bool {
	return slices.ContainsFunc(posts, func(p model.Post) bool { return p.ID == postID })
}

func (r *dispatchRun) processPost(ctx context.Context, rule model.Rule, post model.Post) error {
	for _, kind := range rule.Triggers.Kinds() {
		interactions, err := r.pub.ListInteractions(ctx, *post.ExternalID, kind)
		if err != nil {
			if errors.Is(err, publisher.ErrUnsupportedKind) {
				r.logger.DebugContext(ctx, "interaction kind not listable", "kind", kind)
				continue
			}
			r.logger.WarnContext(ctx, "listing interactions failed", "kind", kind, "error", err)
			r.summary.Errors++
			return nil
		}

		if limit := r.cfg.MaxInteractionsPerPost; limit > 0 && len(interactions) > limit {
			interactions = interactions[:limit]
		}

		ids := make([]string, 0, len(interactions))
		for i := range interactions {
			in := &interactions[i]
			if in.Kind == model.InteractionKindLike && in.ExternalID == "" {
				in.ExternalID = model.LikeInteractionID(in.PostExternalID, in.AuthorID)
			}
			ids = append(ids, in.ExternalID)
		}
		if len(ids) == 0 {
			continue
		}

		claimed, err := r.ledger.ClaimedTriggerIDs(ctx, rule.ID, ids)
		if err != nil {
			r.logger.WarnContext(ctx, "checking ledger failed", "error", err)
			r.summary.Errors++
			return nil
		}

		for _, in := range interactions {
			if _, ok := claimed[in.ExternalID]; ok {
				r.summary.Skipped++
				continue
			}

			inCtx := logger.WithLogFields(ctx, logger.LogFields{InteractionID: &in.ExternalID})
			if err := r.handle(inCtx, rule, post, in); err != nil {
				if errors.Is(err, errSkipPost) {
					return nil
				}
				return err
			}
		}
	}
	return nil
}

// handle matches one interaction and applies the rule's timing policy. It returns errSkipPost
// when the post cannot be evaluated this run and ErrFinalizeFailed when a send outcome was lost.
func (r *dispatchRun) handle(ctx context.Context, rule model.Rule, post model.Post, in model.Interaction) error {
	if !Matches(rule, in, r.now) {
		r.summary.Skipped++
		return nil
	}

	reservation := Reservation{
		Rule:        rule,
		Post:        post,
		Interaction: in,
		Content:     Render(rule.ReplyContent, in),
	}

	switch rule.TimingType {
	case model.TimingDelayed:
		at := r.now.Add(time.Duration(rule.DelayMinutes) * time.Minute)
		reservation.Status = model.ReplyStatusPending
		reservation.ScheduledSendAt = &at
		return r.reserveDeferred(ctx, reservation)

	case model.TimingLikeThreshold:
		metrics, err := r.postMetrics(ctx, post)
		if err != nil {
			r.logger.WarnContext(ctx, "reading post metrics failed", "error", err)
			r.summary.Errors++
			return errSkipPost
		}
		if metrics.Likes >= rule.LikeThreshold {
			return r.sendNow(ctx, reservation)
		}
		reservation.Status = model.ReplyStatusWaitingLikes
		reservation.LikeThreshold = rule.LikeThreshold
		return r.reserveDeferred(ctx, reservation)

	default:
		return r.sendNow(ctx, reservation)
	}
}

func (r *dispatchRun) postMetrics(ctx context.Context, post model.Post) (publisher.PostMetrics, error) {
	if m, ok := r.metrics[post.ID]; ok {
		return m, nil
	}
	m, err := r.pub.GetPostMetrics(ctx, *post.ExternalID)
	if err != nil {
		return publisher.PostMetrics{}, err
	}
	r.metrics[post.ID] = m
	return m, nil
}

// reserveDeferred reserves a record the Sweeper will send later.
func (r *dispatchRun) reserveDeferred(ctx context.Context, reservation Reservation) error {
	record, err := r.ledger.Reserve(ctx, reservation, r.now)
	if err != nil {
		if errors.Is(err, store.ErrAlreadyClaimed) {
			r.summary.Skipped++
			return nil
		}
		r.logger.WarnContext(ctx, "reserving reply failed", "error", err)
		r.summary.Errors++
		return nil
	}

	r.logger.InfoContext(ctx, "reply deferred", "record_id", record.ID, "status", record.Status)
	r.summary.Processed++
	return nil
}

// sendNow reserves a record due now, then takes a rate-limit slot, claims the record and
// publishes it. Losing the reservation costs no slot. A record left unclaimed because of the
// rate limit is already due, so the Sweeper sends it.
func (r *dispatchRun) sendNow(ctx context.Context, reservation Reservation) error {
	due := r.now
	reservation.Status = model.ReplyStatusPending
	reservation.ScheduledSendAt = &due
	reservation.Claim = false

	record, err := r.ledger.Reserve(ctx, reservation, r.now)
	if err != nil {
		if errors.Is(err, store.ErrAlreadyClaimed) {
			r.summary.Skipped++
			return nil
		}
		r.logger.WarnContext(ctx, "reserving reply failed", "error", err)
		r.summary.Errors++
		return nil
	}
	ctx = logger.WithLogFields(ctx, logger.LogFields{RecordID: &record.ID})

	if err := r.deps.Limiter.Acquire(ctx, r.account.ID); err != nil {
		if errors.Is(err, throttle.ErrRateLimited) {
			r.logger.InfoContext(ctx, "reply postponed by rate limit, left for the sweeper", "error", err)
			r.summary.Processed++
			return nil
		}
		r.logger.WarnContext(ctx, "rate limiter unavailable, left for the sweeper", "error", err)
		r.summary.Errors++
		return nil
	}

	claimed, err := r.ledger.Claim(ctx, record, model.ReplyStatusPending)
	if err != nil {
		if errors.Is(err, store.ErrAlreadyClaimed) {
			// a sweeper picked the due record up first
			r.summary.Skipped++
			return nil
		}
		r.logger.WarnContext(ctx, "claiming reply failed", "error", err)
		r.summary.Errors++
		return nil
	}

	messageID, sendErr := deliver(ctx, r.pub, claimed)
	if err := r.ledger.Finalize(ctx, claimed, Outcome{MessageID: messageID, Err: sendErr}); err != nil {
		return err
	}

	if sendErr != nil {
		r.logger.WarnContext(ctx, "reply send failed", "error", sendErr)
		r.summary.Failed++
		return nil
	}

	r.logger.InfoContext(ctx, "reply sent", "message_id", messageID)
	r.summary.Processed++
	return nil
}
