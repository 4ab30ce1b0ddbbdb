package model

import "time"

type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusScheduled PostStatus = "scheduled"
	PostStatusPublished PostStatus = "published"
	PostStatusFailed    PostStatus = "failed"
)

// Post is written by the scheduled-publish path. ExternalID is set once the platform accepts it.
type Post struct {
	ID          int64      `json:"id"`
	AccountID   int64      `json:"account_id"`
	Content     string     `json:"content"`
	Status      PostStatus `json:"status"`
	ExternalID  *string    `json:"external_id,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Live reports whether interactions can exist on the post.
func (p Post) Live() bool {
	return p.Status == PostStatusPublished && p.ExternalID != nil && *p.ExternalID != ""
}
