package model

import "time"

type ReplyStatus string

const (
	ReplyStatusPending      ReplyStatus = "pending"
	ReplyStatusWaitingLikes ReplyStatus = "waiting_likes"
	ReplyStatusSent         ReplyStatus = "sent"
	ReplyStatusFailed       ReplyStatus = "failed"
)

func (s ReplyStatus) Terminal() bool {
	return s == ReplyStatusSent || s == ReplyStatusFailed
}

// ReplyRecord is the ledger entry for one (rule, interaction) pair. It carries everything the
// sweeper needs to send later without rereading the rule or the interaction.
type ReplyRecord struct {
	ID                int64           `json:"id"`
	AccountID         int64           `json:"account_id"`
	RuleID            int64           `json:"rule_id"`
	PostID            int64           `json:"post_id"`
	TriggerExternalID string          `json:"trigger_external_id"`
	TriggerKind       InteractionKind `json:"trigger_kind"`
	TriggerAuthorID   string          `json:"trigger_author_id"`
	TriggerAuthorName string          `json:"trigger_author_name"`
	TriggerText       string          `json:"trigger_text"`
	ReplyType         ReplyType       `json:"reply_type"`
	ReplyToExternalID string          `json:"reply_to_external_id"`
	ReplyContent      string          `json:"reply_content"`
	ReplyMediaURL     *string         `json:"reply_media_url,omitempty"`
	LikeThreshold     int             `json:"like_threshold"`
	Status            ReplyStatus     `json:"status"`
	ScheduledSendAt   *time.Time      `json:"scheduled_send_at,omitempty"`
	ClaimedAt         *time.Time      `json:"claimed_at,omitempty"`
	ExternalMessageID *string         `json:"external_message_id,omitempty"`
	SentAt            *time.Time      `json:"sent_at,omitempty"`
	ErrorMessage      *string         `json:"error_message,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	LikesCheckedAt    *time.Time      `json:"likes_checked_at,omitempty"`
}
