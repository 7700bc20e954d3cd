package config

import (
	"os"
	"testing"
	"time"

	"log/slog"
)

func TestLoadDefaults(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Server.Port != defaultPort {
		t.Errorf("expected default port %q, got %q", defaultPort, cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != defaultReadTimeout {
		t.Errorf("expected default read timeout %v, got %v", defaultReadTimeout, cfg.Server.ReadTimeout)
	}
	if cfg.Server.FrontendURL != defaultFrontendURL {
		t.Errorf("expected default frontend URL %q, got %q", defaultFrontendURL, cfg.Server.FrontendURL)
	}
	if cfg.Logging.Level != slog.LevelInfo {
		t.Errorf("expected default log level %v, got %v", slog.LevelInfo, cfg.Logging.Level)
	}
	if cfg.Logging.Format != defaultLogFormat {
		t.Errorf("expected default log format %q, got %q", defaultLogFormat, cfg.Logging.Format)
	}
	if cfg.Auth.SessionTokenDuration != defaultSessionTokenDuration {
		t.Errorf("expected default session duration %v, got %v", defaultSessionTokenDuration, cfg.Auth.SessionTokenDuration)
	}
	if cfg.Auth.StateTokenDuration != defaultStateTokenDuration {
		t.Errorf("expected default state duration %v, got %v", defaultStateTokenDuration, cfg.Auth.StateTokenDuration)
	}
	if cfg.Sync.Workers != defaultSyncWorkers {
		t.Errorf("expected default sync workers %d, got %d", defaultSyncWorkers, cfg.Sync.Workers)
	}
	if cfg.Sync.QueueSize != defaultSyncQueueSize {
		t.Errorf("expected default sync queue size %d, got %d", defaultSyncQueueSize, cfg.Sync.QueueSize)
	}
	if len(cfg.Instagram.Scopes) != len(defaultScopes) {
		t.Errorf("expected %d default scopes, got %d", len(defaultScopes), len(cfg.Instagram.Scopes))
	}
}

func TestLoadWithOverrides(t *testing.T) {
	clearConfigEnv(t)

	overrides := map[string]string{
		"SERVER_PORT":                 "9090",
		"SERVER_READ_TIMEOUT_SECONDS": "30",
		"FRONTEND_URL":                "https://app.example.com",
		"LOG_LEVEL":                   "debug",
		"LOG_FORMAT":                  "text",
		"SYNC_WORKERS":                "8",
		"SYNC_QUEUE_SIZE":             "128",
		"INSTAGRAM_SCOPES":            "instagram_basic,pages_show_list",
	}
	for key, value := range overrides {
		t.Setenv(key, value)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Server.Port != overrides["SERVER_PORT"] {
		t.Errorf("expected overridden port %q, got %q", overrides["SERVER_PORT"], cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 30*time.Second {
		t.Errorf("expected read timeout %v, got %v", 30*time.Second, cfg.Server.ReadTimeout)
	}
	if cfg.Server.FrontendURL != overrides["FRONTEND_URL"] {
		t.Errorf("expected frontend URL %q, got %q", overrides["FRONTEND_URL"], cfg.Server.FrontendURL)
	}
	if cfg.Logging.Level != slog.LevelDebug {
		t.Errorf("expected log level %v, got %v", slog.LevelDebug, cfg.Logging.Level)
	}
	if cfg.Sync.Workers != 8 {
		t.Errorf("expected sync workers 8, got %d", cfg.Sync.Workers)
	}
	if cfg.Sync.QueueSize != 128 {
		t.Errorf("expected sync queue size 128, got %d", cfg.Sync.QueueSize)
	}
	if len(cfg.Instagram.Scopes) != 2 {
		t.Errorf("expected 2 scopes, got %d", len(cfg.Instagram.Scopes))
	}
}

func TestLoadCloudRunPortTakesPrecedence(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("PORT", "8181")
	t.Setenv("SERVER_PORT", "9090")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Server.Port != "8181" {
		t.Errorf("expected PORT to win, got %q", cfg.Server.Port)
	}
}

func TestLoadWithInvalidValues(t *testing.T) {
	tests := map[string]string{
		"SERVER_READ_TIMEOUT_SECONDS":     "-1",
		"SERVER_WRITE_TIMEOUT_SECONDS":    "abc",
		"SERVER_SHUTDOWN_TIMEOUT_SECONDS": "3.5",
		"LOG_LEVEL":                       "verbose",
		"LOG_FORMAT":                      "xml",
		"DATABASE_MAX_CONNECTIONS":        "0",
		"SYNC_WORKERS":                    "0",
		"SYNC_QUEUE_SIZE":                 "-5",
	}

	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			clearConfigEnv(t)
			t.Setenv(key, value)

			if _, err := Load(); err == nil {
				t.Fatalf("expected error when %s=%q", key, value)
			}
		})
	}
}

func TestParseLogLevelAliases(t *testing.T) {
	tests := map[string]slog.Level{
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
	}

	for input, expected := range tests {
		level, err := parseLogLevel(input)
		if err != nil {
			t.Fatalf("parseLogLevel(%q) returned error: %v", input, err)
		}

		if level != expected {
			t.Errorf("parseLogLevel(%q) = %v, want %v", input, level, expected)
		}
	}
}

func TestParseSecondsRejectsInvalidInput(t *testing.T) {
	cases := []string{"-1", "abc"}

	for _, input := range cases {
		if _, err := parseSeconds(input); err == nil {
			t.Fatalf("expected error for input %q", input)
		}
	}
}

func TestLoadDoesNotPersistEnvBetweenRuns(t *testing.T) {
	clearConfigEnv(t)

	t.Setenv("SERVER_READ_TIMEOUT_SECONDS", "5")
	if _, err := Load(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := os.Unsetenv("SERVER_READ_TIMEOUT_SECONDS"); err != nil {
		t.Fatalf("failed to unset env: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.ReadTimeout != defaultReadTimeout {
		t.Errorf("expected default read timeout after reset, got %v", cfg.Server.ReadTimeout)
	}
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"PORT",
		"SERVER_PORT",
		"SERVER_READ_TIMEOUT_SECONDS",
		"SERVER_WRITE_TIMEOUT_SECONDS",
		"SERVER_SHUTDOWN_TIMEOUT_SECONDS",
		"FRONTEND_URL",
		"LOG_LEVEL",
		"LOG_FORMAT",
		"DATABASE_MAX_CONNECTIONS",
		"INSTAGRAM_SCOPES",
		"SYNC_WORKERS",
		"SYNC_QUEUE_SIZE",
	}

	for _, key := range keys {
		t.Setenv(key, "")
	}
}
