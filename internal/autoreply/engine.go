package autoreply

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"replyflow.app/relay/core/config"
	"replyflow.app/relay/internal/model"
	"replyflow.app/relay/internal/publisher"
	"replyflow.app/relay/internal/store"
	"replyflow.app/relay/internal/throttle"
)

var ErrAccountInactive = errors.New("account is not active")

// Deps are the collaborators shared by the Dispatcher and the Sweeper.
type Deps struct {
	Accounts   store.AccountStore
	Posts      store.PostStore
	Rules      store.RuleStore
	Records    store.ReplyRecordStore
	Publishers publisher.Factory
	Limiter    throttle.Limiter
	Logger     *slog.Logger

	// Now defaults to time.Now.
	Now func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

func loadAccount(ctx context.Context, accounts store.AccountStore, accountID int64) (*model.Account, error) {
	account, err := accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("loading account %d: %w", accountID, err)
	}
	if !account.IsActive {
		return nil, fmt.Errorf("account %d: %w", accountID, ErrAccountInactive)
	}
	return account, nil
}

// deliver sends a reserved record's stored content.
func deliver(ctx context.Context, pub publisher.Publisher, record *model.ReplyRecord) (string, error) {
	content := publisher.Content{
		Text:     record.ReplyContent,
		MediaURL: record.ReplyMediaURL,
	}
	if record.ReplyType == model.ReplyTypeQuote {
		return pub.SendQuote(ctx, record.ReplyToExternalID, content)
	}
	return pub.SendReply(ctx, record.ReplyToExternalID, content)
}

func ledgerFor(deps Deps, cfg config.AutoReplyConfig) *Ledger {
	return NewLedger(deps.Records, cfg.FinalizeAttempts, cfg.FinalizeBackoff, deps.Logger)
}
