package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type (
	KeywordCondition string
	KeywordMatchType string
	TimingType       string
	ReplyType        string
)

const (
	KeywordConditionNone KeywordCondition = "none"
	KeywordConditionAny  KeywordCondition = "any"
	KeywordConditionAll  KeywordCondition = "all"
)

const (
	KeywordMatchExact   KeywordMatchType = "exact"
	KeywordMatchPartial KeywordMatchType = "partial"
)

const (
	TimingImmediate     TimingType = "immediate"
	TimingDelayed       TimingType = "delayed"
	TimingLikeThreshold TimingType = "like_threshold"
)

const (
	ReplyTypeNone  ReplyType = "none"
	ReplyTypeReply ReplyType = "reply"
	ReplyTypeQuote ReplyType = "quote"
)

var ErrMalformedRule = errors.New("malformed rule")

// Triggers is the set of interaction kinds a rule reacts to.
type Triggers struct {
	Reply  bool `json:"reply"`
	Repost bool `json:"repost"`
	Quote  bool `json:"quote"`
	Like   bool `json:"like"`
}

func (t Triggers) Has(kind InteractionKind) bool {
	switch kind {
	case InteractionKindReply:
		return t.Reply
	case InteractionKindRepost:
		return t.Repost
	case InteractionKindQuote:
		return t.Quote
	case InteractionKindLike:
		return t.Like
	}
	return false
}

// Kinds returns the enabled kinds in InteractionKinds order.
func (t Triggers) Kinds() []InteractionKind {
	var kinds []InteractionKind
	for _, k := range InteractionKinds {
		if t.Has(k) {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// Rule is read-only to the reply engine. Rule CRUD lives with the rest of the account settings.
type Rule struct {
	ID               int64            `json:"id"`
	AccountID        int64            `json:"account_id"`
	Name             string           `json:"name"`
	Triggers         Triggers         `json:"triggers"`
	TargetPostID     *int64           `json:"target_post_id,omitempty"`
	KeywordCondition KeywordCondition `json:"keyword_condition"`
	KeywordMatchType KeywordMatchType `json:"keyword_match_type"`
	Keywords         []string         `json:"keywords"`
	FilterStartDate  *time.Time       `json:"filter_start_date,omitempty"`
	FilterEndDate    *time.Time       `json:"filter_end_date,omitempty"`
	TimingType       TimingType       `json:"timing_type"`
	DelayMinutes     int              `json:"delay_minutes"`
	LikeThreshold    int              `json:"like_threshold"`
	ReplyType        ReplyType        `json:"reply_type"`
	ReplyContent     string           `json:"reply_content"`
	ReplyMediaURL    *string          `json:"reply_media_url,omitempty"`
	IsActive         bool             `json:"is_active"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// Delivers reports whether firing the rule publishes anything.
func (r Rule) Delivers() bool {
	return r.ReplyType != ReplyTypeNone
}

// Validate checks the rule can be executed. It does not check ReplyTypeNone rules for content.
func (r Rule) Validate() error {
	if len(r.Triggers.Kinds()) == 0 {
		return fmt.Errorf("%w: no trigger enabled", ErrMalformedRule)
	}

	switch r.ReplyType {
	case ReplyTypeNone:
		return nil
	case ReplyTypeReply, ReplyTypeQuote:
	default:
		return fmt.Errorf("%w: unknown reply type %q", ErrMalformedRule, r.ReplyType)
	}

	if strings.TrimSpace(r.ReplyContent) == "" && (r.ReplyMediaURL == nil || *r.ReplyMediaURL == "") {
		return fmt.Errorf("%w: reply has neither content nor media", ErrMalformedRule)
	}

	switch r.KeywordCondition {
	case KeywordConditionNone, KeywordConditionAny, KeywordConditionAll:
	default:
		return fmt.Errorf("%w: unknown keyword condition %q", ErrMalformedRule, r.KeywordCondition)
	}

	switch r.KeywordMatchType {
	case KeywordMatchExact, KeywordMatchPartial:
	default:
		return fmt.Errorf("%w: unknown keyword match type %q", ErrMalformedRule, r.KeywordMatchType)
	}

	switch r.TimingType {
	case TimingImmediate:
	case TimingDelayed:
		if r.DelayMinutes < 0 {
			return fmt.Errorf("%w: negative delay", ErrMalformedRule)
		}
	case TimingLikeThreshold:
		if r.LikeThreshold <= 0 {
			return fmt.Errorf("%w: like threshold must be positive", ErrMalformedRule)
		}
	default:
		return fmt.Errorf("%w: unknown timing type %q", ErrMalformedRule, r.TimingType)
	}

	return nil
}
