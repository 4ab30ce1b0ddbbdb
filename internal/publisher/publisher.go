package publisher

import (
	"context"
	"errors"

	"replyflow.app/relay/internal/model"
)

// ErrUnsupportedKind is returned by ListInteractions when the platform cannot enumerate a kind.
var ErrUnsupportedKind = errors.New("interaction kind not listable")

// Content is an outgoing message. At least one of Text or MediaURL is set.
type Content struct {
	Text     string
	MediaURL *string
}

type PostMetrics struct {
	Likes   int
	Replies int
	Reposts int
	Quotes  int
}

// Publisher is the external publishing API as seen by one account.
type Publisher interface {
	ListInteractions(ctx context.Context, postExternalID string, kind model.InteractionKind) ([]model.Interaction, error)
	SendReply(ctx context.Context, replyToExternalID string, content Content) (string, error)
	SendQuote(ctx context.Context, quotedExternalID string, content Content) (string, error)
	GetPostMetrics(ctx context.Context, postExternalID string) (PostMetrics, error)
}

// Factory hands out a Publisher bound to an account's credentials.
type Factory interface {
	ForAccount(account *model.Account) Publisher
}
