// Package notify is the outbound webhook sink. The services decide whether
// and with what data to notify; this client only carries the payload.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type Embed struct {
	Description string     `json:"description"`
	Color       *int       `json:"color,omitempty"`
	Timestamp   *time.Time `json:"timestamp,omitempty"`
}

type Message struct {
	Username string  `json:"username,omitempty"`
	Content  string  `json:"content"`
	Embeds   []Embed `json:"embeds,omitempty"`
}

// Webhook posts messages to a Discord-compatible webhook URL.
type Webhook struct {
	url      string
	username string
	http     *http.Client
}

func NewWebhook(url, username string) *Webhook {
	return &Webhook{
		url:      url,
		username: username,
		http:     &http.Client{Timeout: 15 * time.Second},
	}
}

func (w *Webhook) Send(ctx context.Context, message Message) error {
	if message.Username == "" {
		message.Username = w.username
	}
	payload, err := json.Marshal(message)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("webhook: unexpected status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
