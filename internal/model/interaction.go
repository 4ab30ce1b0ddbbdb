package model

import (
	"fmt"
	"time"
)

type InteractionKind string

const (
	InteractionKindReply  InteractionKind = "reply"
	InteractionKindRepost InteractionKind = "repost"
	InteractionKindQuote  InteractionKind = "quote"
	InteractionKindLike   InteractionKind = "like"
)

// InteractionKinds lists every kind in the order a poll visits them.
var InteractionKinds = []InteractionKind{
	InteractionKindReply,
	InteractionKindRepost,
	InteractionKindQuote,
	InteractionKindLike,
}

func (k InteractionKind) Valid() bool {
	switch k {
	case InteractionKindReply, InteractionKindRepost, InteractionKindQuote, InteractionKindLike:
		return true
	}
	return false
}

// Interaction is an inbound engagement on a published post. It is never persisted on its own;
// a ReplyRecord snapshots the fields a deferred send needs.
type Interaction struct {
	ExternalID     string          `json:"external_id"`
	Kind           InteractionKind `json:"kind"`
	PostExternalID string          `json:"post_external_id"`
	AuthorID       string          `json:"author_id"`
	AuthorName     string          `json:"author_name"`
	Text           string          `json:"text"`
	OccurredAt     time.Time       `json:"occurred_at"`
}

// LikeInteractionID builds the key of a like. The platform gives likes no id of their own,
// and a user can like a post once, so post and author identify it.
func LikeInteractionID(postExternalID, authorID string) string {
	return fmt.Sprintf("like:%s:%s", postExternalID, authorID)
}

// ReplyTarget is the platform id a reply to this interaction is sent against. Replies and
// quotes are threads of their own; likes and reposts are answered on the parent post.
func (i Interaction) ReplyTarget() string {
	switch i.Kind {
	case InteractionKindReply, InteractionKindQuote:
		if i.ExternalID != "" {
			return i.ExternalID
		}
	}
	return i.PostExternalID
}
