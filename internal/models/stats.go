package models

import "time"

// WindowAggregate holds the aggregate counters for one lookback window.
type WindowAggregate struct {
	PostCount     int
	TotalLikes    int
	TotalComments int
}

// BestPost is the top-performing post of the current window, with its
// caption already truncated for display.
type BestPost struct {
	ID           string    `json:"id"`
	Caption      string    `json:"caption"`
	MediaType    string    `json:"media_type"`
	MediaURL     string    `json:"media_url"`
	LikeCount    int       `json:"like_count"`
	CommentCount int       `json:"comment_count"`
	Engagement   int       `json:"engagement"`
	PostedAt     time.Time `json:"posted_at"`
}

// GrowthStats is the derived statistics snapshot for an account over a
// requested period. Computed on read, never persisted.
type GrowthStats struct {
	TotalPosts         int       `json:"total_posts"`
	TotalLikes         int       `json:"total_likes"`
	TotalComments      int       `json:"total_comments"`
	TotalEngagement    int       `json:"total_engagement"`
	AvgLikesPerPost    float64   `json:"avg_likes_per_post"`
	AvgCommentsPerPost float64   `json:"avg_comments_per_post"`
	EngagementRate     float64   `json:"engagement_rate"`
	BestPost           *BestPost `json:"best_post,omitempty"`
	LikesTrend         float64   `json:"likes_trend"`
	CommentsTrend      float64   `json:"comments_trend"`
	PostingTrend       float64   `json:"posting_trend"`
	PostsThisWeek      int       `json:"posts_this_week"`
	PostsThisMonth     int       `json:"posts_this_month"`
	PeriodDays         int       `json:"period_days"`
	Message            string    `json:"message"`
}
