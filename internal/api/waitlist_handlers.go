package api

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"time"

	"log/slog"
)

// WaitlistHandler handles public waitlist signups and the admin export.
type WaitlistHandler struct {
	waitlist WaitlistStore
	mailer   WelcomeMailer
	logger   *slog.Logger
}

// NewWaitlistHandler creates a new waitlist handler. The mailer may be nil,
// in which case signups skip the welcome email.
func NewWaitlistHandler(waitlist WaitlistStore, mailer WelcomeMailer, logger *slog.Logger) *WaitlistHandler {
	return &WaitlistHandler{
		waitlist: waitlist,
		mailer:   mailer,
		logger:   logger,
	}
}

type signupRequest struct {
	Email string `json:"email"`
}

// Signup handles POST /api/waitlist
//
// Duplicate signups are accepted quietly so the form never leaks whether an
// address is already on the list.
func (h *WaitlistHandler) Signup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := ValidateEmail(req.Email); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	inserted, err := h.waitlist.Add(r.Context(), req.Email)
	if err != nil {
		h.logger.Error("failed to add waitlist entry", "error", err)
		respondError(w, h.logger, http.StatusInternalServerError, "Internal server error")
		return
	}

	if inserted {
		h.logger.Info("waitlist signup", "email", req.Email)
		if h.mailer != nil {
			// Detached from the request so a slow email provider cannot
			// delay the signup response.
			go func(to string) {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()
				if err := h.mailer.SendWelcome(ctx, to); err != nil {
					h.logger.Error("failed to send welcome email", "to", to, "error", err)
				}
			}(req.Email)
		}
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]string{
		"message": "You're on the list! Check your inbox. 🎉",
	})
}

// Export handles GET /api/admin/waitlist?format=csv
func (h *WaitlistHandler) Export(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	entries, err := h.waitlist.ListAll(r.Context())
	if err != nil {
		h.logger.Error("failed to list waitlist", "error", err)
		respondError(w, h.logger, http.StatusInternalServerError, "Internal server error")
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="waitlist.csv"`)

		writer := csv.NewWriter(w)
		if err := writer.Write([]string{"email", "created_at"}); err != nil {
			h.logger.Error("failed to write csv header", "error", err)
			return
		}
		for _, entry := range entries {
			record := []string{entry.Email, entry.CreatedAt.Format(time.RFC3339)}
			if err := writer.Write(record); err != nil {
				h.logger.Error("failed to write csv record", "error", err)
				return
			}
		}
		writer.Flush()
		if err := writer.Error(); err != nil {
			h.logger.Error("failed to flush csv", "error", err)
		}
		return
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"count":   len(entries),
	})
}
