package api

import (
	"net/http"

	"log/slog"

	"github.com/creatorpulse/creatorpulse/internal/auth"
	"github.com/creatorpulse/creatorpulse/internal/config"
)

// RouterDeps bundles the collaborators the routes are built from.
type RouterDeps struct {
	Users    UserStore
	Accounts AccountStore
	Posts    PostStore
	Waitlist WaitlistStore
	Linker   AccountLinker
	Stats    StatsComputer
	Syncer   Syncer
	Mailer   WelcomeMailer
}

// SetupRoutes configures all API routes
func SetupRoutes(mux *http.ServeMux, cfg config.Config, deps RouterDeps, logger *slog.Logger) {
	authHandler := NewAuthHandler(cfg.Auth, deps.Users, logger)
	instagramHandler := NewInstagramHandler(deps.Linker, deps.Accounts, deps.Posts, deps.Syncer, cfg.Server.FrontendURL, logger)
	growthHandler := NewGrowthHandler(deps.Accounts, deps.Stats, logger)
	waitlistHandler := NewWaitlistHandler(deps.Waitlist, deps.Mailer, logger)

	authMiddleware := auth.Middleware(cfg.Auth)
	protected := func(h http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			authMiddleware(h).ServeHTTP(w, r)
		}
	}

	// Authentication routes (public)
	mux.HandleFunc("/api/auth/register", authHandler.Register)
	mux.HandleFunc("/api/auth/login", authHandler.Login)
	mux.HandleFunc("/api/auth/me", protected(authHandler.Me))

	// Waitlist signup (public)
	mux.HandleFunc("/api/waitlist", waitlistHandler.Signup)

	// OAuth callback is hit by the provider redirect, so it carries its own
	// state-token verification instead of the session middleware.
	mux.HandleFunc("/auth/instagram/callback", instagramHandler.Callback)

	// Instagram account routes
	mux.HandleFunc("/api/instagram/connect", protected(instagramHandler.Connect))
	mux.HandleFunc("/api/instagram/status", protected(instagramHandler.Status))
	mux.HandleFunc("/api/instagram/sync", protected(instagramHandler.Sync))
	mux.HandleFunc("/api/instagram/refresh", protected(instagramHandler.RefreshToken))
	mux.HandleFunc("/api/instagram/posts", protected(instagramHandler.Posts))
	mux.HandleFunc("/api/instagram/disconnect", protected(instagramHandler.Disconnect))

	// Growth stats
	mux.HandleFunc("/api/growth/stats", protected(growthHandler.Stats))

	// Admin routes
	mux.HandleFunc("/api/admin/waitlist", protected(waitlistHandler.Export))
}
