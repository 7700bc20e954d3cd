package models

import "time"

// InstagramAccount represents a creator's linked Instagram profile and its
// long-lived access credential. One account per user; ig_user_id is unique
// across all accounts, so relinking the same Instagram profile updates the
// existing row.
type InstagramAccount struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	IGUserID       string    `json:"ig_user_id"`
	Username       string    `json:"username"`
	AccessToken    string    `json:"-"` // opaque secret, never serialized
	TokenExpiresAt time.Time `json:"token_expires_at"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// AccountUpsertParams carries the fields written when an account is linked
// or relinked.
type AccountUpsertParams struct {
	UserID         string
	IGUserID       string
	Username       string
	AccessToken    string
	TokenExpiresAt time.Time
}
