// Package resend delivers rendered reports by email through the Resend API.
package resend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/inquest-cli/internal/core/domain"
	"github.com/custodia-labs/inquest-cli/internal/core/ports/driven"
)

// Ensure Mailer implements the interface.
var _ driven.Mailer = (*Mailer)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.resend.com"
	DefaultFrom    = "inquest@localhost"
	DefaultTimeout = 30 * time.Second
)

// Config holds configuration for the Resend mailer.
type Config struct {
	// APIKey is the Resend API key (required).
	APIKey string

	// From is the sender address.
	From string

	// BaseURL is the API base URL.
	BaseURL string

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration
}

// Mailer sends reports through the Resend /emails endpoint.
type Mailer struct {
	client  *http.Client
	baseURL string
	apiKey  string
	from    string
}

// sendRequest is the /emails request format.
type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
}

// sendResponse is the /emails response format.
type sendResponse struct {
	ID string `json:"id"`
}

// New creates a new Resend mailer.
func New(cfg Config) (*Mailer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("resend: API key is required")
	}
	if cfg.From == "" {
		cfg.From = DefaultFrom
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Mailer{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		from:    cfg.From,
	}, nil
}

// Deliver sends the document. Subject is the report title.
func (m *Mailer) Deliver(ctx context.Context, subject string, document []byte, recipients []string) error {
	if len(recipients) == 0 {
		return fmt.Errorf("%w: no recipients", domain.ErrDelivery)
	}
	if len(document) == 0 {
		return fmt.Errorf("%w: empty document", domain.ErrDelivery)
	}

	jsonBody, err := json.Marshal(sendRequest{
		From:    m.from,
		To:      recipients,
		Subject: subject,
		Text:    string(document),
	})
	if err != nil {
		return fmt.Errorf("%w: marshal request: %v", domain.ErrDelivery, err)
	}

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		m.baseURL+"/emails",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return fmt.Errorf("%w: create request: %v", domain.ErrDelivery, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: resend: %v", domain.ErrDelivery, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: resend: read response: %v", domain.ErrDelivery, err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: resend status %d: %s",
			domain.ErrDelivery, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var sendResp sendResponse
	if err := json.Unmarshal(body, &sendResp); err != nil {
		return fmt.Errorf("%w: resend: decode response: %v", domain.ErrDelivery, err)
	}
	if sendResp.ID == "" {
		return fmt.Errorf("%w: resend accepted the request but returned no id", domain.ErrDelivery)
	}

	return nil
}
