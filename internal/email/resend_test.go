package email

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"log/slog"

	"github.com/creatorpulse/creatorpulse/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSendWelcomeSkipsWithoutAPIKey(t *testing.T) {
	sender := NewSender(config.EmailConfig{FromAddress: "hello@creatorpulse.app"}, testLogger())
	sender.endpoint = "http://invalid.localhost"

	if err := sender.SendWelcome(context.Background(), "fan@example.com"); err != nil {
		t.Fatalf("expected skip without API key, got error: %v", err)
	}
}

func TestSendWelcome(t *testing.T) {
	var got sendRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer re_test_key" {
			t.Errorf("unexpected authorization header %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"email-1"}`))
	}))
	defer server.Close()

	sender := NewSender(config.EmailConfig{ResendAPIKey: "re_test_key", FromAddress: "hello@creatorpulse.app"}, testLogger())
	sender.endpoint = server.URL

	if err := sender.SendWelcome(context.Background(), "fan@example.com"); err != nil {
		t.Fatalf("SendWelcome returned error: %v", err)
	}

	if got.From != "hello@creatorpulse.app" {
		t.Errorf("unexpected from address %q", got.From)
	}
	if len(got.To) != 1 || got.To[0] != "fan@example.com" {
		t.Errorf("unexpected recipients %v", got.To)
	}
	if got.Subject == "" || got.HTML == "" {
		t.Error("expected subject and body to be set")
	}
}

func TestSendWelcomeSurfacesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"invalid from address"}`))
	}))
	defer server.Close()

	sender := NewSender(config.EmailConfig{ResendAPIKey: "re_test_key", FromAddress: "bad"}, testLogger())
	sender.endpoint = server.URL

	if err := sender.SendWelcome(context.Background(), "fan@example.com"); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}
