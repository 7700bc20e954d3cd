package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/creatorpulse/creatorpulse/internal/models"
)

// PostRepository handles synced Instagram post storage. Rows are unique per
// (account_id, ig_post_id); Upsert re-applies mutable fields and refreshes
// fetched_at so repeated syncs converge on the same row set.
type PostRepository struct {
	db *sql.DB
}

// NewPostRepository creates a new post repository.
func NewPostRepository(db *sql.DB) *PostRepository {
	return &PostRepository{db: db}
}

// Upsert inserts or updates one post keyed by (account_id, ig_post_id).
func (r *PostRepository) Upsert(ctx context.Context, post *models.InstagramPost) error {
	query := `
		INSERT INTO instagram_posts
			(id, ig_post_id, account_id, caption, media_type, media_url, like_count, comments_count, posted_at, fetched_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (account_id, ig_post_id) DO UPDATE
			SET caption = EXCLUDED.caption,
				media_type = EXCLUDED.media_type,
				media_url = EXCLUDED.media_url,
				like_count = EXCLUDED.like_count,
				comments_count = EXCLUDED.comments_count,
				posted_at = EXCLUDED.posted_at,
				fetched_at = EXCLUDED.fetched_at
	`

	_, err := r.db.ExecContext(ctx, query,
		uuid.New().String(),
		post.IGPostID,
		post.AccountID,
		post.Caption,
		post.MediaType,
		post.MediaURL,
		post.LikeCount,
		post.CommentCount,
		post.PostedAt,
		post.FetchedAt,
	)
	return err
}

// ListByAccountID returns the most recent posts for an account, newest first.
func (r *PostRepository) ListByAccountID(ctx context.Context, accountID string, limit int) ([]models.InstagramPost, error) {
	query := `
		SELECT id, ig_post_id, account_id, caption, media_type, media_url, like_count, comments_count, posted_at, fetched_at
		FROM instagram_posts
		WHERE account_id = $1
		ORDER BY posted_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []models.InstagramPost
	for rows.Next() {
		var post models.InstagramPost
		if err := rows.Scan(
			&post.ID,
			&post.IGPostID,
			&post.AccountID,
			&post.Caption,
			&post.MediaType,
			&post.MediaURL,
			&post.LikeCount,
			&post.CommentCount,
			&post.PostedAt,
			&post.FetchedAt,
		); err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}

	return posts, rows.Err()
}

// WindowAggregate returns post count and like/comment sums for posts whose
// posted_at falls inside [from, to).
func (r *PostRepository) WindowAggregate(ctx context.Context, accountID string, from, to time.Time) (models.WindowAggregate, error) {
	query := `
		SELECT
			COUNT(*)::int,
			COALESCE(SUM(like_count), 0)::int,
			COALESCE(SUM(comments_count), 0)::int
		FROM instagram_posts
		WHERE account_id = $1
			AND posted_at >= $2
			AND posted_at < $3
	`

	var agg models.WindowAggregate
	err := r.db.QueryRowContext(ctx, query, accountID, from, to).Scan(
		&agg.PostCount,
		&agg.TotalLikes,
		&agg.TotalComments,
	)
	return agg, err
}

// BestPost returns the post with the highest combined like and comment count
// inside [from, to). Ties break to the most recent posted_at, then the lowest
// ig_post_id, so the result is deterministic. Returns (nil, nil) when the
// window holds no posts.
func (r *PostRepository) BestPost(ctx context.Context, accountID string, from, to time.Time) (*models.InstagramPost, error) {
	query := `
		SELECT id, ig_post_id, account_id, caption, media_type, media_url, like_count, comments_count, posted_at, fetched_at
		FROM instagram_posts
		WHERE account_id = $1
			AND posted_at >= $2
			AND posted_at < $3
		ORDER BY (like_count + comments_count) DESC, posted_at DESC, ig_post_id ASC
		LIMIT 1
	`

	var post models.InstagramPost
	err := r.db.QueryRowContext(ctx, query, accountID, from, to).Scan(
		&post.ID,
		&post.IGPostID,
		&post.AccountID,
		&post.Caption,
		&post.MediaType,
		&post.MediaURL,
		&post.LikeCount,
		&post.CommentCount,
		&post.PostedAt,
		&post.FetchedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &post, nil
}

// CountSince returns the number of posts with posted_at at or after the
// given instant.
func (r *PostRepository) CountSince(ctx context.Context, accountID string, since time.Time) (int, error) {
	query := `
		SELECT COUNT(*)::int
		FROM instagram_posts
		WHERE account_id = $1
			AND posted_at >= $2
	`

	var count int
	err := r.db.QueryRowContext(ctx, query, accountID, since).Scan(&count)
	return count, err
}
