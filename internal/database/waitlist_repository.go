package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/creatorpulse/creatorpulse/internal/models"
)

// WaitlistRepository handles waitlist signup storage.
type WaitlistRepository struct {
	db *sql.DB
}

// NewWaitlistRepository creates a new waitlist repository.
func NewWaitlistRepository(db *sql.DB) *WaitlistRepository {
	return &WaitlistRepository{db: db}
}

// Add records a signup email. Returns true when the email was newly added;
// re-submitting a known email is a no-op and returns false.
func (r *WaitlistRepository) Add(ctx context.Context, email string) (bool, error) {
	query := `
		INSERT INTO waitlist (id, email)
		VALUES ($1, $2)
		ON CONFLICT (email) DO NOTHING
		RETURNING id
	`

	var id string
	err := r.db.QueryRowContext(ctx, query, uuid.New().String(), email).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}

// ListAll returns every waitlist entry, oldest first.
func (r *WaitlistRepository) ListAll(ctx context.Context) ([]models.WaitlistEntry, error) {
	query := `
		SELECT id, email, created_at
		FROM waitlist
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.WaitlistEntry
	for rows.Next() {
		var entry models.WaitlistEntry
		if err := rows.Scan(&entry.ID, &entry.Email, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}
