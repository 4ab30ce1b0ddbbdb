package model

import "time"

// Account is a connected Threads profile. Replies are published with its access token.
type Account struct {
	ID             int64     `json:"id"`
	ExternalUserID string    `json:"external_user_id"`
	Username       string    `json:"username"`
	AccessToken    string    `json:"-"` // never expose tokens in API
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
