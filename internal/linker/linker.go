package linker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"log/slog"

	"github.com/creatorpulse/creatorpulse/internal/auth"
	"github.com/creatorpulse/creatorpulse/internal/config"
	"github.com/creatorpulse/creatorpulse/internal/instagram"
	"github.com/creatorpulse/creatorpulse/internal/models"
)

var (
	// ErrConfigMissing indicates the Instagram app credentials are absent.
	// This is a server misconfiguration, not a user error.
	ErrConfigMissing = errors.New("instagram app configuration missing")

	// ErrInvalidState indicates the OAuth state token failed verification or
	// expired before the callback arrived.
	ErrInvalidState = errors.New("invalid or expired state token")

	// ErrExchangeFailed indicates the provider rejected either the code
	// exchange or the long-lived token exchange.
	ErrExchangeFailed = errors.New("token exchange failed")

	// ErrProfileFetchFailed indicates the provider profile lookup failed.
	ErrProfileFetchFailed = errors.New("profile fetch failed")

	// ErrNotLinked indicates the user has no linked account.
	ErrNotLinked = errors.New("no instagram account linked")
)

// Provider is the slice of the Instagram client the linker drives.
type Provider interface {
	AuthorizeURL(state string) string
	ExchangeCode(ctx context.Context, code string) (string, error)
	ExchangeLongLived(ctx context.Context, shortToken string) (string, int64, error)
	RefreshLongLived(ctx context.Context, token string) (string, int64, error)
	FetchProfile(ctx context.Context, token string) (*instagram.Profile, error)
}

// AccountStore persists linked accounts.
type AccountStore interface {
	Upsert(ctx context.Context, params models.AccountUpsertParams) (*models.InstagramAccount, error)
	GetByUserID(ctx context.Context, userID string) (*models.InstagramAccount, error)
	DeleteByUserID(ctx context.Context, userID string) error
	UpdateToken(ctx context.Context, id, accessToken string, expiresAt time.Time) error
}

// SyncTrigger schedules a detached post sync after a successful link.
type SyncTrigger interface {
	TriggerSync(accountID string)
}

// Linker drives the OAuth authorization-code exchange that produces a linked
// account: state verification, code exchange, long-lived exchange, profile
// fetch, then the account upsert. Every step aborts the flow on failure and
// nothing is persisted before the final step, so no rollback is needed.
type Linker struct {
	igCfg    config.InstagramConfig
	authCfg  config.AuthConfig
	provider Provider
	accounts AccountStore
	syncer   SyncTrigger
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a Linker. The syncer may be nil, in which case linking skips
// the post-link sync trigger.
func New(igCfg config.InstagramConfig, authCfg config.AuthConfig, provider Provider, accounts AccountStore, syncer SyncTrigger, logger *slog.Logger) *Linker {
	return &Linker{
		igCfg:    igCfg,
		authCfg:  authCfg,
		provider: provider,
		accounts: accounts,
		syncer:   syncer,
		logger:   logger,
		now:      time.Now,
	}
}

// AuthorizeURL issues a short-lived state token bound to the user and builds
// the provider's OAuth dialog URL.
func (l *Linker) AuthorizeURL(userID, email string) (string, error) {
	if err := l.checkConfig(); err != nil {
		return "", err
	}

	state, err := auth.GenerateStateToken(userID, email, l.authCfg.JWTSecret, l.authCfg.StateTokenDuration)
	if err != nil {
		return "", fmt.Errorf("generate state token: %w", err)
	}

	return l.provider.AuthorizeURL(state), nil
}

// LinkAccount converts an authorization code plus the state token from the
// redirect into a linked account, then schedules a detached post sync whose
// outcome does not affect the linking result.
func (l *Linker) LinkAccount(ctx context.Context, code, state string) (*models.InstagramAccount, error) {
	if err := l.checkConfig(); err != nil {
		return nil, err
	}

	claims, err := auth.ValidateToken(state, l.authCfg.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}

	shortToken, err := l.provider.ExchangeCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}

	// The short-lived token is traded away immediately and never persisted.
	longToken, expiresIn, err := l.provider.ExchangeLongLived(ctx, shortToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}

	profile, err := l.provider.FetchProfile(ctx, longToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProfileFetchFailed, err)
	}

	expiresAt := l.now().Add(time.Duration(expiresIn) * time.Second)

	account, err := l.accounts.Upsert(ctx, models.AccountUpsertParams{
		UserID:         claims.UserID,
		IGUserID:       profile.ID,
		Username:       profile.Username,
		AccessToken:    longToken,
		TokenExpiresAt: expiresAt,
	})
	if err != nil {
		return nil, fmt.Errorf("save account: %w", err)
	}

	l.logger.Info("instagram account linked",
		"user_id", claims.UserID,
		"ig_user_id", account.IGUserID,
		"username", account.Username,
		"token_expires_at", account.TokenExpiresAt)

	if l.syncer != nil {
		l.syncer.TriggerSync(account.ID)
	}

	return account, nil
}

// RefreshToken performs an explicit, user-triggered refresh of the stored
// long-lived token.
func (l *Linker) RefreshToken(ctx context.Context, userID string) (*models.InstagramAccount, error) {
	account, err := l.accounts.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}
	if account == nil {
		return nil, ErrNotLinked
	}

	token, expiresIn, err := l.provider.RefreshLongLived(ctx, account.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}

	expiresAt := l.now().Add(time.Duration(expiresIn) * time.Second)
	if err := l.accounts.UpdateToken(ctx, account.ID, token, expiresAt); err != nil {
		return nil, fmt.Errorf("save refreshed token: %w", err)
	}

	account.AccessToken = token
	account.TokenExpiresAt = expiresAt

	l.logger.Info("access token refreshed", "user_id", userID, "token_expires_at", expiresAt)

	return account, nil
}

// Disconnect removes the user's linked account; its posts are removed by the
// cascade. Disconnecting with nothing linked is a no-op.
func (l *Linker) Disconnect(ctx context.Context, userID string) error {
	if err := l.accounts.DeleteByUserID(ctx, userID); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}

	l.logger.Info("instagram account disconnected", "user_id", userID)
	return nil
}

func (l *Linker) checkConfig() error {
	if l.igCfg.ClientID == "" || l.igCfg.ClientSecret == "" || l.igCfg.RedirectURI == "" {
		return ErrConfigMissing
	}
	return nil
}
