package linker

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"log/slog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creatorpulse/creatorpulse/internal/auth"
	"github.com/creatorpulse/creatorpulse/internal/config"
	"github.com/creatorpulse/creatorpulse/internal/instagram"
	"github.com/creatorpulse/creatorpulse/internal/models"
)

const testSecret = "test-secret"

type stubProvider struct {
	exchangeCodeErr  error
	longLivedErr     error
	refreshErr       error
	profileErr       error
	shortToken       string
	longToken        string
	refreshedToken   string
	expiresIn        int64
	profile          *instagram.Profile
	exchangedCode    string
	exchangedShort   string
	refreshedFrom    string
	profileFetchedBy string
}

func (s *stubProvider) AuthorizeURL(state string) string {
	return "https://provider.example/oauth?state=" + state
}

func (s *stubProvider) ExchangeCode(ctx context.Context, code string) (string, error) {
	s.exchangedCode = code
	if s.exchangeCodeErr != nil {
		return "", s.exchangeCodeErr
	}
	return s.shortToken, nil
}

func (s *stubProvider) ExchangeLongLived(ctx context.Context, shortToken string) (string, int64, error) {
	s.exchangedShort = shortToken
	if s.longLivedErr != nil {
		return "", 0, s.longLivedErr
	}
	return s.longToken, s.expiresIn, nil
}

func (s *stubProvider) RefreshLongLived(ctx context.Context, token string) (string, int64, error) {
	s.refreshedFrom = token
	if s.refreshErr != nil {
		return "", 0, s.refreshErr
	}
	return s.refreshedToken, s.expiresIn, nil
}

func (s *stubProvider) FetchProfile(ctx context.Context, token string) (*instagram.Profile, error) {
	s.profileFetchedBy = token
	if s.profileErr != nil {
		return nil, s.profileErr
	}
	return s.profile, nil
}

type stubAccountStore struct {
	upserted     *models.AccountUpsertParams
	account      *models.InstagramAccount
	deletedUser  string
	updatedToken string
	updatedID    string
	upsertErr    error
}

func (s *stubAccountStore) Upsert(ctx context.Context, params models.AccountUpsertParams) (*models.InstagramAccount, error) {
	s.upserted = &params
	if s.upsertErr != nil {
		return nil, s.upsertErr
	}
	return &models.InstagramAccount{
		ID:             "acct-1",
		UserID:         params.UserID,
		IGUserID:       params.IGUserID,
		Username:       params.Username,
		AccessToken:    params.AccessToken,
		TokenExpiresAt: params.TokenExpiresAt,
	}, nil
}

func (s *stubAccountStore) GetByUserID(ctx context.Context, userID string) (*models.InstagramAccount, error) {
	return s.account, nil
}

func (s *stubAccountStore) DeleteByUserID(ctx context.Context, userID string) error {
	s.deletedUser = userID
	return nil
}

func (s *stubAccountStore) UpdateToken(ctx context.Context, id, accessToken string, expiresAt time.Time) error {
	s.updatedID = id
	s.updatedToken = accessToken
	return nil
}

type stubSyncer struct {
	triggered []string
}

func (s *stubSyncer) TriggerSync(accountID string) {
	s.triggered = append(s.triggered, accountID)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfigs() (config.InstagramConfig, config.AuthConfig) {
	igCfg := config.InstagramConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURI:  "https://app.example/auth/instagram/callback",
		Scopes:       []string{"instagram_basic"},
	}
	authCfg := config.AuthConfig{
		JWTSecret:          testSecret,
		StateTokenDuration: 10 * time.Minute,
	}
	return igCfg, authCfg
}

func validState(t *testing.T) string {
	t.Helper()
	state, err := auth.GenerateStateToken("user-1", "creator@example.com", testSecret, 10*time.Minute)
	require.NoError(t, err)
	return state
}

func TestAuthorizeURLEmbedsState(t *testing.T) {
	igCfg, authCfg := testConfigs()
	provider := &stubProvider{}
	linker := New(igCfg, authCfg, provider, &stubAccountStore{}, nil, testLogger())

	authURL, err := linker.AuthorizeURL("user-1", "creator@example.com")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(authURL, "https://provider.example/oauth?state="))

	state := strings.TrimPrefix(authURL, "https://provider.example/oauth?state=")
	claims, err := auth.ValidateToken(state, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
}

func TestAuthorizeURLRequiresConfig(t *testing.T) {
	_, authCfg := testConfigs()
	linker := New(config.InstagramConfig{}, authCfg, &stubProvider{}, &stubAccountStore{}, nil, testLogger())

	_, err := linker.AuthorizeURL("user-1", "creator@example.com")
	assert.ErrorIs(t, err, ErrConfigMissing)
}

func TestLinkAccountHappyPath(t *testing.T) {
	igCfg, authCfg := testConfigs()
	provider := &stubProvider{
		shortToken: "short-token",
		longToken:  "long-token",
		expiresIn:  5184000, // 60 days
		profile:    &instagram.Profile{ID: "ig-123", Username: "creator"},
	}
	store := &stubAccountStore{}
	syncer := &stubSyncer{}
	linker := New(igCfg, authCfg, provider, store, syncer, testLogger())

	account, err := linker.LinkAccount(context.Background(), "auth-code", validState(t))
	require.NoError(t, err)

	assert.Equal(t, "auth-code", provider.exchangedCode)
	assert.Equal(t, "short-token", provider.exchangedShort)
	assert.Equal(t, "long-token", provider.profileFetchedBy)

	require.NotNil(t, store.upserted)
	assert.Equal(t, "user-1", store.upserted.UserID)
	assert.Equal(t, "ig-123", store.upserted.IGUserID)
	assert.Equal(t, "creator", store.upserted.Username)
	// Only the long-lived token is persisted.
	assert.Equal(t, "long-token", store.upserted.AccessToken)
	assert.WithinDuration(t, time.Now().Add(60*24*time.Hour), store.upserted.TokenExpiresAt, time.Minute)

	assert.Equal(t, "creator", account.Username)
	assert.Equal(t, []string{"acct-1"}, syncer.triggered)
}

func TestLinkAccountRejectsBadState(t *testing.T) {
	igCfg, authCfg := testConfigs()
	provider := &stubProvider{}
	store := &stubAccountStore{}
	linker := New(igCfg, authCfg, provider, store, nil, testLogger())

	tests := []struct {
		name  string
		state string
	}{
		{name: "garbage", state: "not-a-token"},
		{name: "expired", state: expiredState(t)},
		{name: "wrong secret", state: foreignState(t)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := linker.LinkAccount(context.Background(), "auth-code", tt.state)
			assert.ErrorIs(t, err, ErrInvalidState)
			assert.Empty(t, provider.exchangedCode, "exchange must not run with a bad state")
			assert.Nil(t, store.upserted, "nothing may be persisted on a failed link")
		})
	}
}

func TestLinkAccountExchangeFailures(t *testing.T) {
	igCfg, authCfg := testConfigs()

	tests := []struct {
		name     string
		provider *stubProvider
		wantErr  error
	}{
		{
			name:     "code exchange fails",
			provider: &stubProvider{exchangeCodeErr: errors.New("bad code")},
			wantErr:  ErrExchangeFailed,
		},
		{
			name:     "long-lived exchange fails",
			provider: &stubProvider{shortToken: "short", longLivedErr: errors.New("rejected")},
			wantErr:  ErrExchangeFailed,
		},
		{
			name:     "profile fetch fails",
			provider: &stubProvider{shortToken: "short", longToken: "long", expiresIn: 100, profileErr: errors.New("unavailable")},
			wantErr:  ErrProfileFetchFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &stubAccountStore{}
			syncer := &stubSyncer{}
			linker := New(igCfg, authCfg, tt.provider, store, syncer, testLogger())

			_, err := linker.LinkAccount(context.Background(), "auth-code", validState(t))
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, store.upserted, "nothing may be persisted on a failed link")
			assert.Empty(t, syncer.triggered, "no sync may be scheduled on a failed link")
		})
	}
}

func TestRefreshToken(t *testing.T) {
	igCfg, authCfg := testConfigs()
	provider := &stubProvider{refreshedToken: "fresh-token", expiresIn: 5184000}
	store := &stubAccountStore{
		account: &models.InstagramAccount{ID: "acct-1", UserID: "user-1", AccessToken: "stale-token"},
	}
	linker := New(igCfg, authCfg, provider, store, nil, testLogger())

	account, err := linker.RefreshToken(context.Background(), "user-1")
	require.NoError(t, err)

	assert.Equal(t, "stale-token", provider.refreshedFrom)
	assert.Equal(t, "acct-1", store.updatedID)
	assert.Equal(t, "fresh-token", store.updatedToken)
	assert.Equal(t, "fresh-token", account.AccessToken)
}

func TestRefreshTokenWithoutLinkedAccount(t *testing.T) {
	igCfg, authCfg := testConfigs()
	linker := New(igCfg, authCfg, &stubProvider{}, &stubAccountStore{}, nil, testLogger())

	_, err := linker.RefreshToken(context.Background(), "user-1")
	assert.ErrorIs(t, err, ErrNotLinked)
}

func TestDisconnect(t *testing.T) {
	igCfg, authCfg := testConfigs()
	store := &stubAccountStore{}
	linker := New(igCfg, authCfg, &stubProvider{}, store, nil, testLogger())

	require.NoError(t, linker.Disconnect(context.Background(), "user-1"))
	assert.Equal(t, "user-1", store.deletedUser)
}

func expiredState(t *testing.T) string {
	t.Helper()
	state, err := auth.GenerateStateToken("user-1", "creator@example.com", testSecret, -time.Minute)
	require.NoError(t, err)
	return state
}

func foreignState(t *testing.T) string {
	t.Helper()
	state, err := auth.GenerateStateToken("user-1", "creator@example.com", "other-secret", 10*time.Minute)
	require.NoError(t, err)
	return state
}
