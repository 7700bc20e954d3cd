package models

import "time"

// InstagramPost is one unit of synced Instagram content. Rows are unique per
// (account_id, ig_post_id); re-syncing the same post updates the mutable
// fields and refreshes fetched_at instead of duplicating.
type InstagramPost struct {
	ID           string    `json:"id"`
	IGPostID     string    `json:"ig_post_id"`
	AccountID    string    `json:"account_id"`
	Caption      string    `json:"caption"`
	MediaType    string    `json:"media_type"`
	MediaURL     string    `json:"media_url"`
	LikeCount    int       `json:"like_count"`
	CommentCount int       `json:"comment_count"`
	PostedAt     time.Time `json:"posted_at"`
	FetchedAt    time.Time `json:"fetched_at"`
}

// Engagement returns the combined like and comment count for a post.
func (p *InstagramPost) Engagement() int {
	return p.LikeCount + p.CommentCount
}
