package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"log/slog"

	"github.com/creatorpulse/creatorpulse/internal/auth"
	"github.com/creatorpulse/creatorpulse/internal/config"
	"github.com/creatorpulse/creatorpulse/internal/database"
)

// AuthHandler handles registration, login and identity lookups.
type AuthHandler struct {
	cfg    config.AuthConfig
	users  UserStore
	logger *slog.Logger
}

// NewAuthHandler creates a new authentication handler.
func NewAuthHandler(cfg config.AuthConfig, users UserStore, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		cfg:    cfg,
		users:  users,
		logger: logger,
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := ValidateEmail(req.Email); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}
	if err := ValidatePassword(req.Password); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("failed to hash password", "error", err)
		respondError(w, h.logger, http.StatusInternalServerError, "Internal server error")
		return
	}

	user, err := h.users.Create(r.Context(), req.Email, hash)
	if err != nil {
		if errors.Is(err, database.ErrDuplicateEmail) {
			respondError(w, h.logger, http.StatusConflict, "Email already in use")
			return
		}
		h.logger.Error("failed to create user", "error", err)
		respondError(w, h.logger, http.StatusInternalServerError, "Internal server error")
		return
	}

	token, err := auth.GenerateToken(user.ID, user.Email, h.cfg.JWTSecret, h.cfg.SessionTokenDuration)
	if err != nil {
		h.logger.Error("failed to generate token", "error", err)
		respondError(w, h.logger, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.logger.Info("user registered", "user_id", user.ID)

	respondJSON(w, h.logger, http.StatusCreated, sessionResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(h.cfg.SessionTokenDuration),
		UserID:    user.ID,
		Email:     user.Email,
	})
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		h.logger.Error("failed to load user", "error", err)
		respondError(w, h.logger, http.StatusInternalServerError, "Internal server error")
		return
	}

	// Same generic response for unknown email and wrong password to prevent
	// account enumeration.
	if user == nil || !auth.CheckPassword(req.Password, user.Password) {
		h.logger.Warn("failed login attempt", "ip", r.RemoteAddr)
		respondError(w, h.logger, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := auth.GenerateToken(user.ID, user.Email, h.cfg.JWTSecret, h.cfg.SessionTokenDuration)
	if err != nil {
		h.logger.Error("failed to generate token", "error", err)
		respondError(w, h.logger, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.logger.Info("successful login", "user_id", user.ID)

	respondJSON(w, h.logger, http.StatusOK, sessionResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(h.cfg.SessionTokenDuration),
		UserID:    user.ID,
		Email:     user.Email,
	})
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respondError(w, h.logger, http.StatusUnauthorized, "user not authenticated")
		return
	}

	user, err := h.users.GetByID(r.Context(), claims.UserID)
	if err != nil {
		h.logger.Error("failed to load user", "error", err)
		respondError(w, h.logger, http.StatusInternalServerError, "Internal server error")
		return
	}
	if user == nil {
		respondError(w, h.logger, http.StatusNotFound, "user not found")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, user)
}
