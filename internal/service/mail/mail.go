package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mishankov/taskhub/internal/logger"
)

const defaultAPIURL = "https://send.api.mailtrap.io/api/send"

type Config struct {
	// Mailtrap API settings
	APIKey string
	APIURL string

	FromEmail string
	FromName  string
}

// Sends transactional mail through the Mailtrap HTTP API
type MailtrapSender struct {
	apiKey    string
	apiURL    string
	fromEmail string
	fromName  string

	client *http.Client
	logger logger.Logger
}

func NewMailtrapSender(cfg Config, l logger.Logger) *MailtrapSender {
	if cfg.APIURL == "" {
		cfg.APIURL = defaultAPIURL
	}
	if cfg.FromEmail == "" {
		cfg.FromEmail = "noreply@taskhub.local"
	}
	if cfg.FromName == "" {
		cfg.FromName = "TaskHub"
	}
	if l == nil {
		l = logger.NewNoOpLogger()
	}

	return &MailtrapSender{
		apiKey:    cfg.APIKey,
		apiURL:    cfg.APIURL,
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		client:    &http.Client{Timeout: 10 * time.Second},
		logger:    l,
	}
}

type address struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sendRequest struct {
	From     address   `json:"from"`
	To       []address `json:"to"`
	Subject  string    `json:"subject"`
	Text     string    `json:"text"`
	Category string    `json:"category"`
}

func (m *MailtrapSender) SendPasswordResetEmail(ctx context.Context, to string, name string, resetLink string) error {
	body := sendRequest{
		From:     address{Email: m.fromEmail, Name: m.fromName},
		To:       []address{{Email: to, Name: name}},
		Subject:  "Reset your TaskHub password",
		Category: "password-reset",
		Text: fmt.Sprintf(
			"Hi %s,\n\n"+
				"Someone asked to reset the password for your TaskHub account.\n"+
				"Follow the link below within one hour to set a new one:\n\n%s\n\n"+
				"If that was not you, just ignore this email.\n",
			name, resetLink,
		),
	}

	return m.send(ctx, body)
}

func (m *MailtrapSender) send(ctx context.Context, body sendRequest) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("error while marshaling mail request. Err: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.apiURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("error while building mail request. Err: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("error while sending mail request. Err: %w", err)
	}
	defer resp.Body.Close() // nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("mail API returned status %d: %s", resp.StatusCode, detail)
	}

	m.logger.Debug("password reset email sent", "to", body.To[0].Email)
	return nil
}

// NopSender drops mail on the floor, for development without an API key
type NopSender struct {
	logger logger.Logger
}

func NewNopSender(l logger.Logger) *NopSender {
	if l == nil {
		l = logger.NewNoOpLogger()
	}
	return &NopSender{logger: l}
}

func (n *NopSender) SendPasswordResetEmail(_ context.Context, to string, _ string, resetLink string) error {
	n.logger.Info("mail sending disabled, reset link logged instead", "to", to, "link", resetLink)
	return nil
}
