package api

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"log/slog"

	"github.com/creatorpulse/creatorpulse/internal/auth"
	"github.com/creatorpulse/creatorpulse/internal/linker"
)

const defaultPostsLimit = 50

// InstagramHandler handles account linking, the OAuth callback, token
// refresh, sync scheduling and the stored posts listing.
type InstagramHandler struct {
	linker      AccountLinker
	accounts    AccountStore
	posts       PostStore
	syncer      Syncer
	frontendURL string
	logger      *slog.Logger
}

// NewInstagramHandler creates a new Instagram handler.
func NewInstagramHandler(accountLinker AccountLinker, accounts AccountStore, posts PostStore, syncer Syncer, frontendURL string, logger *slog.Logger) *InstagramHandler {
	return &InstagramHandler{
		linker:      accountLinker,
		accounts:    accounts,
		posts:       posts,
		syncer:      syncer,
		frontendURL: frontendURL,
		logger:      logger,
	}
}

// Connect handles GET /api/instagram/connect
func (h *InstagramHandler) Connect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respondError(w, h.logger, http.StatusUnauthorized, "user not authenticated")
		return
	}

	authURL, err := h.linker.AuthorizeURL(claims.UserID, claims.Email)
	if err != nil {
		if errors.Is(err, linker.ErrConfigMissing) {
			h.logger.Error("instagram connect requested without app credentials")
			respondError(w, h.logger, http.StatusInternalServerError, "Instagram integration is not configured")
			return
		}
		h.logger.Error("failed to build authorize URL", "error", err)
		respondError(w, h.logger, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]string{"url": authURL})
}

// Callback handles GET /auth/instagram/callback
//
// This is the provider-facing redirect target, so failures end in a browser
// redirect back to the frontend rather than a JSON error. Only a request
// missing its code or state outright gets a 400, since that never came from
// the provider.
func (h *InstagramHandler) Callback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()
	if errCode := query.Get("error"); errCode != "" {
		h.logger.Warn("provider returned oauth error",
			"error", errCode,
			"description", query.Get("error_description"))
		h.redirectFailure(w, r, "access_denied")
		return
	}

	code := query.Get("code")
	state := query.Get("state")
	if code == "" || state == "" {
		respondError(w, h.logger, http.StatusBadRequest, "Missing code or state parameter")
		return
	}

	account, err := h.linker.LinkAccount(r.Context(), code, state)
	if err != nil {
		switch {
		case errors.Is(err, linker.ErrInvalidState):
			h.logger.Warn("oauth callback with invalid state", "error", err)
			h.redirectFailure(w, r, "invalid_state")
		case errors.Is(err, linker.ErrExchangeFailed), errors.Is(err, linker.ErrProfileFetchFailed):
			h.logger.Error("oauth exchange failed", "error", err)
			h.redirectFailure(w, r, "link_failed")
		default:
			h.logger.Error("failed to link account", "error", err)
			h.redirectFailure(w, r, "link_failed")
		}
		return
	}

	h.logger.Info("oauth callback completed", "account_id", account.ID, "username", account.Username)
	http.Redirect(w, r, h.frontendURL+"/dashboard?connected=true", http.StatusFound)
}

func (h *InstagramHandler) redirectFailure(w http.ResponseWriter, r *http.Request, reason string) {
	target := h.frontendURL + "/dashboard?error=" + url.QueryEscape(reason)
	http.Redirect(w, r, target, http.StatusFound)
}

// Status handles GET /api/instagram/status
func (h *InstagramHandler) Status(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respondError(w, h.logger, http.StatusUnauthorized, "user not authenticated")
		return
	}

	account, err := h.accounts.GetByUserID(r.Context(), claims.UserID)
	if err != nil {
		h.logger.Error("failed to load account", "error", err)
		respondError(w, h.logger, http.StatusInternalServerError, "Internal server error")
		return
	}

	if account == nil {
		respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{"connected": false})
		return
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"connected":        true,
		"account":          summarize(account),
		"token_expires_at": account.TokenExpiresAt,
	})
}

// Sync handles POST /api/instagram/sync
//
// The sync itself runs in the background; the response only acknowledges that
// it was scheduled.
func (h *InstagramHandler) Sync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respondError(w, h.logger, http.StatusUnauthorized, "user not authenticated")
		return
	}

	account, err := h.accounts.GetByUserID(r.Context(), claims.UserID)
	if err != nil {
		h.logger.Error("failed to load account", "error", err)
		respondError(w, h.logger, http.StatusInternalServerError, "Internal server error")
		return
	}
	if account == nil {
		respondError(w, h.logger, http.StatusNotFound, "No Instagram account connected")
		return
	}

	h.syncer.TriggerSync(account.ID)

	respondJSON(w, h.logger, http.StatusAccepted, map[string]string{"status": "sync scheduled"})
}

// RefreshToken handles POST /api/instagram/refresh
func (h *InstagramHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respondError(w, h.logger, http.StatusUnauthorized, "user not authenticated")
		return
	}

	account, err := h.linker.RefreshToken(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, linker.ErrNotLinked) {
			respondError(w, h.logger, http.StatusNotFound, "No Instagram account connected")
			return
		}
		h.logger.Error("failed to refresh token", "error", err)
		respondError(w, h.logger, http.StatusBadGateway, "Token refresh failed")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"account":          summarize(account),
		"token_expires_at": account.TokenExpiresAt,
	})
}

// Posts handles GET /api/instagram/posts
func (h *InstagramHandler) Posts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respondError(w, h.logger, http.StatusUnauthorized, "user not authenticated")
		return
	}

	account, err := h.accounts.GetByUserID(r.Context(), claims.UserID)
	if err != nil {
		h.logger.Error("failed to load account", "error", err)
		respondError(w, h.logger, http.StatusInternalServerError, "Internal server error")
		return
	}
	if account == nil {
		respondError(w, h.logger, http.StatusNotFound, "No Instagram account connected")
		return
	}

	limit := defaultPostsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	posts, err := h.posts.ListByAccountID(r.Context(), account.ID, limit)
	if err != nil {
		h.logger.Error("failed to list posts", "error", err)
		respondError(w, h.logger, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"account": summarize(account),
		"posts":   posts,
		"count":   len(posts),
	})
}

// Disconnect handles DELETE /api/instagram/disconnect
func (h *InstagramHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respondError(w, h.logger, http.StatusUnauthorized, "user not authenticated")
		return
	}

	if err := h.linker.Disconnect(r.Context(), claims.UserID); err != nil {
		h.logger.Error("failed to disconnect account", "error", err)
		respondError(w, h.logger, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]string{"status": "disconnected"})
}
