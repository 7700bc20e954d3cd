package instagram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"log/slog"

	"github.com/creatorpulse/creatorpulse/internal/config"
)

const (
	defaultAPIBaseURL   = "https://api.instagram.com"
	defaultGraphBaseURL = "https://graph.instagram.com"
	defaultOAuthDialog  = "https://www.facebook.com/v18.0/dialog/oauth"

	requestTimeout = 15 * time.Second
)

// APIError is a non-success response from the Instagram API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("instagram API returned status %d: %s", e.StatusCode, e.Body)
}

// Client handles Instagram Graph API interactions: the OAuth token exchange
// chain, profile lookup and media listing.
type Client struct {
	cfg          config.InstagramConfig
	apiBaseURL   string
	graphBaseURL string
	oauthDialog  string
	httpClient   *http.Client
	logger       *slog.Logger
}

// NewClient creates a new Instagram API client.
func NewClient(cfg config.InstagramConfig, logger *slog.Logger) *Client {
	return &Client{
		cfg:          cfg,
		apiBaseURL:   defaultAPIBaseURL,
		graphBaseURL: defaultGraphBaseURL,
		oauthDialog:  defaultOAuthDialog,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		logger: logger,
	}
}

// Profile is the linked creator's identity as reported by the provider.
type Profile struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Media is one item from the media listing. Missing like/comment counts
// decode to zero; Timestamp stays raw and is parsed by the sync engine.
type Media struct {
	ID           string `json:"id"`
	Caption      string `json:"caption"`
	MediaType    string `json:"media_type"`
	MediaURL     string `json:"media_url"`
	Timestamp    string `json:"timestamp"`
	LikeCount    int    `json:"like_count"`
	CommentCount int    `json:"comments_count"`
}

type mediaResponse struct {
	Data []Media `json:"data"`
}

// AuthorizeURL builds the OAuth dialog URL the user is redirected to, with
// the signed state token binding the callback to the initiating user.
func (c *Client) AuthorizeURL(state string) string {
	q := url.Values{
		"client_id":     {c.cfg.ClientID},
		"redirect_uri":  {c.cfg.RedirectURI},
		"scope":         {strings.Join(c.cfg.Scopes, ",")},
		"response_type": {"code"},
		"state":         {state},
	}
	return c.oauthDialog + "?" + q.Encode()
}

// ExchangeCode exchanges an authorization code for a short-lived access token.
func (c *Client) ExchangeCode(ctx context.Context, code string) (string, error) {
	form := url.Values{
		"client_id":     {c.cfg.ClientID},
		"client_secret": {c.cfg.ClientSecret},
		"grant_type":    {"authorization_code"},
		"redirect_uri":  {c.cfg.RedirectURI},
		"code":          {code},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBaseURL+"/oauth/access_token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var result struct {
		AccessToken string `json:"access_token"`
	}
	if err := c.do(req, &result); err != nil {
		return "", fmt.Errorf("code exchange: %w", err)
	}

	return result.AccessToken, nil
}

// ExchangeLongLived trades a short-lived token for a long-lived one. Returns
// the token and its lifetime in seconds.
func (c *Client) ExchangeLongLived(ctx context.Context, shortToken string) (string, int64, error) {
	q := url.Values{
		"grant_type":    {"ig_exchange_token"},
		"client_secret": {c.cfg.ClientSecret},
		"access_token":  {shortToken},
	}

	var result struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := c.get(ctx, c.graphBaseURL+"/access_token?"+q.Encode(), &result); err != nil {
		return "", 0, fmt.Errorf("long-lived exchange: %w", err)
	}

	return result.AccessToken, result.ExpiresIn, nil
}

// RefreshLongLived refreshes a still-valid long-lived token, extending its
// lifetime. Returns the new token and its lifetime in seconds.
func (c *Client) RefreshLongLived(ctx context.Context, token string) (string, int64, error) {
	q := url.Values{
		"grant_type":   {"ig_refresh_token"},
		"access_token": {token},
	}

	var result struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := c.get(ctx, c.graphBaseURL+"/refresh_access_token?"+q.Encode(), &result); err != nil {
		return "", 0, fmt.Errorf("token refresh: %w", err)
	}

	return result.AccessToken, result.ExpiresIn, nil
}

// FetchProfile fetches the provider profile for the token's owner.
func (c *Client) FetchProfile(ctx context.Context, token string) (*Profile, error) {
	q := url.Values{
		"fields":       {"id,username"},
		"access_token": {token},
	}

	var profile Profile
	if err := c.get(ctx, c.graphBaseURL+"/me?"+q.Encode(), &profile); err != nil {
		return nil, fmt.Errorf("profile fetch: %w", err)
	}

	return &profile, nil
}

// FetchRecentMedia lists the account's most recent media, up to limit items.
func (c *Client) FetchRecentMedia(ctx context.Context, token string, limit int) ([]Media, error) {
	q := url.Values{
		"fields":       {"id,caption,media_type,media_url,timestamp,like_count,comments_count"},
		"access_token": {token},
		"limit":        {strconv.Itoa(limit)},
	}

	var result mediaResponse
	if err := c.get(ctx, c.graphBaseURL+"/me/media?"+q.Encode(), &result); err != nil {
		return nil, fmt.Errorf("media fetch: %w", err)
	}

	c.logger.Debug("fetched recent media", "count", len(result.Data))
	return result.Data, nil
}

func (c *Client) get(ctx context.Context, rawURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	return nil
}
