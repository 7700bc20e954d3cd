package growth

import (
	"context"
	"fmt"
	"time"

	"log/slog"

	"github.com/creatorpulse/creatorpulse/internal/models"
)

// DefaultPeriodDays is the lookback window used when the caller does not
// specify one or specifies something unrecognized.
const DefaultPeriodDays = 30

// captionLimit is the display length best-post captions are truncated to.
const captionLimit = 100

// Narrative messages, selected by the likes trend band and post counts.
const (
	msgNoPosts = "No posts yet in this period. Time to share something! 📸"
	msgOnFire  = "🔥 You're on fire! Engagement is way up."
	msgGrowing = "📈 Nice! You're growing steadily."
	msgSteady  = "😎 Holding steady - keep doing your thing."
	msgDip     = "📉 Slight dip, but no worries - it happens."
	msgDown    = "💪 Engagement is down, but consistency is key!"

	suffixQuietWeek  = " Haven't posted this week though - your audience misses you!"
	suffixHighVolume = " You've been posting a lot - great hustle!"
)

// NormalizePeriod maps the accepted period shorthands onto days. Anything
// unrecognized falls back to the default rather than erroring.
func NormalizePeriod(raw string) int {
	switch raw {
	case "7", "week":
		return 7
	case "14":
		return 14
	case "30", "month":
		return 30
	case "90":
		return 90
	default:
		return DefaultPeriodDays
	}
}

// PostStore is the read-only slice of post storage the analyzer consumes.
// Windows are half-open: [from, to).
type PostStore interface {
	WindowAggregate(ctx context.Context, accountID string, from, to time.Time) (models.WindowAggregate, error)
	BestPost(ctx context.Context, accountID string, from, to time.Time) (*models.InstagramPost, error)
	CountSince(ctx context.Context, accountID string, since time.Time) (int, error)
}

// Analyzer computes the growth statistics snapshot for an account. It is
// read-only and safe to call while a sync for the same account is running;
// a partially updated post set just shifts the aggregates slightly.
type Analyzer struct {
	posts  PostStore
	logger *slog.Logger
	now    func() time.Time
}

// NewAnalyzer creates an Analyzer.
func NewAnalyzer(posts PostStore, logger *slog.Logger) *Analyzer {
	return &Analyzer{
		posts:  posts,
		logger: logger,
		now:    time.Now,
	}
}

// ComputeStats builds the snapshot for the account over the given period in
// days. Non-positive periods fall back to the default.
func (a *Analyzer) ComputeStats(ctx context.Context, accountID string, periodDays int) (*models.GrowthStats, error) {
	if periodDays <= 0 {
		periodDays = DefaultPeriodDays
	}

	now := a.now()
	period := time.Duration(periodDays) * 24 * time.Hour
	currentFrom := now.Add(-period)
	previousFrom := now.Add(-2 * period)

	current, err := a.posts.WindowAggregate(ctx, accountID, currentFrom, now)
	if err != nil {
		return nil, fmt.Errorf("current window aggregate: %w", err)
	}

	previous, err := a.posts.WindowAggregate(ctx, accountID, previousFrom, currentFrom)
	if err != nil {
		return nil, fmt.Errorf("previous window aggregate: %w", err)
	}

	// Fixed windows, independent of the requested period.
	postsThisWeek, err := a.posts.CountSince(ctx, accountID, now.AddDate(0, 0, -7))
	if err != nil {
		return nil, fmt.Errorf("week count: %w", err)
	}
	postsThisMonth, err := a.posts.CountSince(ctx, accountID, now.AddDate(0, 0, -30))
	if err != nil {
		return nil, fmt.Errorf("month count: %w", err)
	}

	totalEngagement := current.TotalLikes + current.TotalComments

	stats := &models.GrowthStats{
		TotalPosts:      current.PostCount,
		TotalLikes:      current.TotalLikes,
		TotalComments:   current.TotalComments,
		TotalEngagement: totalEngagement,
		LikesTrend:      trend(current.TotalLikes, previous.TotalLikes),
		CommentsTrend:   trend(current.TotalComments, previous.TotalComments),
		PostingTrend:    trend(current.PostCount, previous.PostCount),
		PostsThisWeek:   postsThisWeek,
		PostsThisMonth:  postsThisMonth,
		PeriodDays:      periodDays,
	}

	if current.PostCount > 0 {
		stats.AvgLikesPerPost = float64(current.TotalLikes) / float64(current.PostCount)
		stats.AvgCommentsPerPost = float64(current.TotalComments) / float64(current.PostCount)
		stats.EngagementRate = float64(totalEngagement) / float64(current.PostCount)
	}

	best, err := a.posts.BestPost(ctx, accountID, currentFrom, now)
	if err != nil {
		return nil, fmt.Errorf("best post: %w", err)
	}
	if best != nil {
		stats.BestPost = &models.BestPost{
			ID:           best.ID,
			Caption:      truncateCaption(best.Caption),
			MediaType:    best.MediaType,
			MediaURL:     best.MediaURL,
			LikeCount:    best.LikeCount,
			CommentCount: best.CommentCount,
			Engagement:   best.Engagement(),
			PostedAt:     best.PostedAt,
		}
	}

	stats.Message = narrative(stats.TotalPosts, stats.LikesTrend, stats.PostsThisWeek)

	a.logger.Debug("growth stats computed",
		"account_id", accountID,
		"period_days", periodDays,
		"total_posts", stats.TotalPosts,
		"likes_trend", stats.LikesTrend)

	return stats, nil
}

// trend is the baseline-safe percentage change between windows. A zero
// baseline yields a flat 0% rather than an error or infinity.
func trend(current, previous int) float64 {
	if previous > 0 {
		return float64(current-previous) / float64(previous) * 100
	}
	return 0
}

// truncateCaption cuts long captions to the display limit with a trailing
// ellipsis marker.
func truncateCaption(caption string) string {
	runes := []rune(caption)
	if len(runes) <= captionLimit {
		return caption
	}
	return string(runes[:captionLimit]) + "..."
}

// narrative selects the message shown alongside the numbers. Bands are
// evaluated in order and all boundaries are exclusive, so a likes trend of
// exactly 20 reads as steady growth, not "on fire".
func narrative(totalPosts int, likesTrend float64, postsThisWeek int) string {
	if totalPosts == 0 {
		return msgNoPosts
	}

	var message string
	switch {
	case likesTrend > 20:
		message = msgOnFire
	case likesTrend > 5:
		message = msgGrowing
	case likesTrend > -5:
		message = msgSteady
	case likesTrend > -20:
		message = msgDip
	default:
		message = msgDown
	}

	if postsThisWeek == 0 {
		message += suffixQuietWeek
	} else if postsThisWeek >= 5 {
		message += suffixHighVolume
	}

	return message
}
