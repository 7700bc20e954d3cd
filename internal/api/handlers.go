package api

import (
	"context"
	"encoding/json"
	"net/http"

	"log/slog"

	"github.com/creatorpulse/creatorpulse/internal/models"
)

// UserStore is the user persistence surface the auth handlers need.
type UserStore interface {
	Create(ctx context.Context, email, passwordHash string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// AccountStore resolves the caller's linked account.
type AccountStore interface {
	GetByUserID(ctx context.Context, userID string) (*models.InstagramAccount, error)
}

// PostStore lists stored posts for the posts endpoint.
type PostStore interface {
	ListByAccountID(ctx context.Context, accountID string, limit int) ([]models.InstagramPost, error)
}

// WaitlistStore persists waitlist signups.
type WaitlistStore interface {
	Add(ctx context.Context, email string) (bool, error)
	ListAll(ctx context.Context) ([]models.WaitlistEntry, error)
}

// StatsComputer produces the growth snapshot.
type StatsComputer interface {
	ComputeStats(ctx context.Context, accountID string, periodDays int) (*models.GrowthStats, error)
}

// AccountLinker drives the OAuth linking lifecycle.
type AccountLinker interface {
	AuthorizeURL(userID, email string) (string, error)
	LinkAccount(ctx context.Context, code, state string) (*models.InstagramAccount, error)
	RefreshToken(ctx context.Context, userID string) (*models.InstagramAccount, error)
	Disconnect(ctx context.Context, userID string) error
}

// Syncer schedules detached post syncs.
type Syncer interface {
	TriggerSync(accountID string)
}

// WelcomeMailer sends the waitlist welcome email.
type WelcomeMailer interface {
	SendWelcome(ctx context.Context, to string) error
}

// accountSummary is the caller-safe account shape embedded in responses.
type accountSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

func summarize(account *models.InstagramAccount) accountSummary {
	return accountSummary{ID: account.ID, Username: account.Username}
}

func respondJSON(w http.ResponseWriter, logger *slog.Logger, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, logger *slog.Logger, status int, message string) {
	respondJSON(w, logger, status, map[string]string{"error": message})
}
