package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"log/slog"

	"github.com/creatorpulse/creatorpulse/internal/config"
)

const resendEndpoint = "https://api.resend.com/emails"

// Sender delivers transactional email through the Resend API. When no API
// key is configured, sends are skipped with a log line instead of failing,
// so email stays optional in development.
type Sender struct {
	cfg        config.EmailConfig
	endpoint   string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewSender creates a new email sender.
func NewSender(cfg config.EmailConfig, logger *slog.Logger) *Sender {
	return &Sender{
		cfg:      cfg,
		endpoint: resendEndpoint,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// SendWelcome sends the waitlist welcome email to one recipient.
func (s *Sender) SendWelcome(ctx context.Context, to string) error {
	if s.cfg.ResendAPIKey == "" {
		s.logger.Warn("RESEND_API_KEY not set, skipping welcome email", "to", to)
		return nil
	}

	payload := sendRequest{
		From:    s.cfg.FromAddress,
		To:      []string{to},
		Subject: "Welcome to CreatorPulse! 🎉",
		HTML:    welcomeHTML,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal email request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.ResendAPIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("resend API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	s.logger.Info("welcome email sent", "to", to)
	return nil
}

const welcomeHTML = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <style>
    body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
    .container { max-width: 600px; margin: 0 auto; padding: 20px; }
    .header { background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); color: white; padding: 30px; text-align: center; border-radius: 10px 10px 0 0; }
    .content { background: #f9f9f9; padding: 30px; border-radius: 0 0 10px 10px; }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>📈 Welcome to CreatorPulse!</h1>
    </div>
    <div class="content">
      <p>Hey there! 👋</p>
      <p>Thanks for joining the waitlist! We're excited to have you on board.</p>
      <p>We'll notify you as soon as we launch. In the meantime, get ready to:</p>
      <ul>
        <li>📊 Track your Instagram engagement in real-time</li>
        <li>🚀 Get smart insights to grow your audience</li>
        <li>⚡ See which posts perform best</li>
      </ul>
      <p>Talk soon!</p>
      <p>— The CreatorPulse Team</p>
    </div>
  </div>
</body>
</html>`
