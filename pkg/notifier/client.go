/**
 * @description
 * Client for the notification gateway that delivers dunning emails and SMS.
 * The gateway owns transport details (SMTP, SMS provider); this service only
 * hands it a recipient and a rendered message.
 */
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Client is a client for the notification gateway.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new notification gateway client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// SendEmail delivers an email through the gateway.
func (c *Client) SendEmail(ctx context.Context, to, subject, body string) error {
	payload := map[string]string{
		"to":      to,
		"subject": subject,
		"body":    body,
	}
	return c.post(ctx, "/messages/email", payload)
}

// SendSMS delivers an SMS through the gateway. The recipient must already be
// in E.164 format.
func (c *Client) SendSMS(ctx context.Context, to, body string) error {
	payload := map[string]string{
		"to":   to,
		"body": body,
	}
	return c.post(ctx, "/messages/sms", payload)
}

func (c *Client) post(ctx context.Context, path string, payload any) error {
	if c.baseURL == "" {
		return fmt.Errorf("notification gateway URL is not configured")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Internal-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("notification gateway returned status %d", resp.StatusCode)
	}

	return nil
}
