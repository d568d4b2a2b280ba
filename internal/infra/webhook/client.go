// internal/infra/webhook/client.go
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"birthday_notification_service/internal/domain/user"
)

// Client delivers birthday notifications by POSTing a JSON payload to a
// configured webhook URL. It implements the delivery.Client interface.
type Client struct {
	webhookURL string
	httpClient *http.Client
}

// NewClient creates a webhook delivery client. Each Send call is bounded by
// the given per-attempt timeout.
func NewClient(webhookURL string, timeout time.Duration) *Client {
	return &Client{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type payloadUser struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Timezone  string `json:"timezone"`
}

type payload struct {
	Message   string      `json:"message"`
	User      payloadUser `json:"user"`
	Timestamp string      `json:"timestamp"`
}

// Send performs a single delivery attempt. Any non-2xx response or transport
// error is returned as an error; the caller owns retries.
func (c *Client) Send(ctx context.Context, u *user.User) error {
	body, err := json.Marshal(payload{
		Message: fmt.Sprintf("Hey, %s it's your birthday", u.FullName()),
		User: payloadUser{
			ID:        u.ID,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Timezone:  u.Timezone,
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}
