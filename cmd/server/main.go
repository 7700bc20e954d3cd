package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"log/slog"

	"github.com/creatorpulse/creatorpulse/internal/api"
	"github.com/creatorpulse/creatorpulse/internal/config"
	"github.com/creatorpulse/creatorpulse/internal/database"
	"github.com/creatorpulse/creatorpulse/internal/email"
	"github.com/creatorpulse/creatorpulse/internal/growth"
	"github.com/creatorpulse/creatorpulse/internal/ingestion"
	"github.com/creatorpulse/creatorpulse/internal/instagram"
	"github.com/creatorpulse/creatorpulse/internal/linker"
	"github.com/creatorpulse/creatorpulse/internal/logging"
	"github.com/creatorpulse/creatorpulse/internal/metrics"
	"github.com/creatorpulse/creatorpulse/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to init logger", "error", err)
		os.Exit(1)
	}

	logger.Info("starting creatorpulse")

	if cfg.Auth.JWTSecret == "" {
		logger.Error("JWT_SECRET is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info("connecting to database")
	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("database connected")

	// Run pending migrations (non-fatal to allow app to start even if migrations fail)
	if err := database.RunMigrations(db, "./migrations", logger); err != nil {
		logger.Warn("failed to run migrations, continuing anyway", "error", err)
	}

	// Create repositories
	userRepo := database.NewUserRepository(db)
	accountRepo := database.NewAccountRepository(db)
	postRepo := database.NewPostRepository(db)
	waitlistRepo := database.NewWaitlistRepository(db)

	collector, err := metrics.NewCollector()
	if err != nil {
		logger.Error("failed to init metrics", "error", err)
		os.Exit(1)
	}

	// Provider client and background sync engine
	igClient := instagram.NewClient(cfg.Instagram, logging.ForComponent(logger, "instagram"))
	engine := ingestion.NewEngine(accountRepo, postRepo, igClient, collector, logging.ForComponent(logger, "sync"), cfg.Sync)
	engine.Start(ctx)

	// Linking, analytics and email
	accountLinker := linker.New(cfg.Instagram, cfg.Auth, igClient, accountRepo, engine, logging.ForComponent(logger, "linker"))
	analyzer := growth.NewAnalyzer(postRepo, logging.ForComponent(logger, "growth"))
	mailer := email.NewSender(cfg.Email, logging.ForComponent(logger, "email"))

	// Setup HTTP routes
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := database.HealthCheck(r.Context(), db); err != nil {
			logger.Error("health check failed", "error", err)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unhealthy"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Service info endpoint
	mux.HandleFunc("/api/info", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"creatorpulse","status":"ready","version":"0.1.0"}`))
	})

	mux.Handle("/metrics", collector.Handler())

	logger.Info("setting up REST API")
	api.SetupRoutes(mux, cfg, api.RouterDeps{
		Users:    userRepo,
		Accounts: accountRepo,
		Posts:    postRepo,
		Waitlist: waitlistRepo,
		Linker:   accountLinker,
		Stats:    analyzer,
		Syncer:   engine,
		Mailer:   mailer,
	}, logger)

	// Start server
	srv := server.New(cfg.Server, logger, collector.InstrumentHandler(mux))

	go func() {
		if err := srv.Start(); err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	logger.Info("creatorpulse started successfully")
	logger.Info("API available", "url", fmt.Sprintf("http://localhost:%s", cfg.Server.Port))

	waitForSignal(logger)

	logger.Info("shutting down")
	if err := srv.Shutdown(context.Background()); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	cancel()
	engine.Stop()
	logger.Info("shutdown complete")
}

func waitForSignal(logger *slog.Logger) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	sig := <-c
	logger.Info("received signal", "signal", sig.String())
	signal.Stop(c)
	close(c)
}
