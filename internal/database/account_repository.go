package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/creatorpulse/creatorpulse/internal/models"
)

// AccountRepository handles linked Instagram account storage. The ig_user_id
// column is unique, so upserting a profile that is already linked updates the
// existing row instead of creating a duplicate.
type AccountRepository struct {
	db *sql.DB
}

// NewAccountRepository creates a new account repository.
func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Upsert inserts or updates an account keyed by ig_user_id and returns the
// stored row.
func (r *AccountRepository) Upsert(ctx context.Context, params models.AccountUpsertParams) (*models.InstagramAccount, error) {
	query := `
		INSERT INTO instagram_accounts
			(id, user_id, ig_user_id, username, access_token, token_expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		ON CONFLICT (ig_user_id) DO UPDATE
			SET username = EXCLUDED.username,
				access_token = EXCLUDED.access_token,
				token_expires_at = EXCLUDED.token_expires_at,
				updated_at = EXCLUDED.updated_at
		RETURNING id, user_id, ig_user_id, username, access_token, token_expires_at, created_at, updated_at
	`

	now := time.Now()

	var account models.InstagramAccount
	err := r.db.QueryRowContext(ctx, query,
		uuid.New().String(),
		params.UserID,
		params.IGUserID,
		params.Username,
		params.AccessToken,
		params.TokenExpiresAt,
		now,
	).Scan(
		&account.ID,
		&account.UserID,
		&account.IGUserID,
		&account.Username,
		&account.AccessToken,
		&account.TokenExpiresAt,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &account, nil
}

// GetByUserID retrieves the account linked by a user. Returns (nil, nil) when
// the user has no linked account.
func (r *AccountRepository) GetByUserID(ctx context.Context, userID string) (*models.InstagramAccount, error) {
	query := `
		SELECT id, user_id, ig_user_id, username, access_token, token_expires_at, created_at, updated_at
		FROM instagram_accounts
		WHERE user_id = $1
		LIMIT 1
	`
	return r.getOne(ctx, query, userID)
}

// GetByID retrieves an account by its id. Returns (nil, nil) when absent.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*models.InstagramAccount, error) {
	query := `
		SELECT id, user_id, ig_user_id, username, access_token, token_expires_at, created_at, updated_at
		FROM instagram_accounts
		WHERE id = $1
	`
	return r.getOne(ctx, query, id)
}

func (r *AccountRepository) getOne(ctx context.Context, query string, arg string) (*models.InstagramAccount, error) {
	var account models.InstagramAccount
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&account.ID,
		&account.UserID,
		&account.IGUserID,
		&account.Username,
		&account.AccessToken,
		&account.TokenExpiresAt,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &account, nil
}

// UpdateToken replaces the stored access credential after an explicit
// user-triggered refresh.
func (r *AccountRepository) UpdateToken(ctx context.Context, id, accessToken string, expiresAt time.Time) error {
	query := `
		UPDATE instagram_accounts
		SET access_token = $2, token_expires_at = $3, updated_at = $4
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, id, accessToken, expiresAt, time.Now())
	return err
}

// DeleteByUserID removes a user's linked account. Posts are removed by the
// ON DELETE CASCADE constraint. Deleting a user with no account is a no-op.
func (r *AccountRepository) DeleteByUserID(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM instagram_accounts WHERE user_id = $1`, userID)
	return err
}
