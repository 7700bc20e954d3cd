package api

import (
	"net/http"

	"log/slog"

	"github.com/creatorpulse/creatorpulse/internal/auth"
	"github.com/creatorpulse/creatorpulse/internal/growth"
)

// GrowthHandler serves the engagement statistics snapshot.
type GrowthHandler struct {
	accounts AccountStore
	stats    StatsComputer
	logger   *slog.Logger
}

// NewGrowthHandler creates a new growth stats handler.
func NewGrowthHandler(accounts AccountStore, stats StatsComputer, logger *slog.Logger) *GrowthHandler {
	return &GrowthHandler{
		accounts: accounts,
		stats:    stats,
		logger:   logger,
	}
}

// Stats handles GET /api/growth/stats?period=...
func (h *GrowthHandler) Stats(w http.ResponseWriter, r *http.Request) {
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

	periodDays := growth.NormalizePeriod(r.URL.Query().Get("period"))

	stats, err := h.stats.ComputeStats(r.Context(), account.ID, periodDays)
	if err != nil {
		h.logger.Error("failed to compute growth stats",
			"account_id", account.ID,
			"period_days", periodDays,
			"error", err)
		respondError(w, h.logger, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"account": summarize(account),
		"stats":   stats,
	})
}
