// Package whatsapp talks to the external message-processing webhook and keeps
// a record of the messages sent through the test console.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"finanzas/internal/core"
)

// Payload is the body the webhook expects.
type Payload struct {
	From      string `json:"from"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
	MessageID string `json:"message_id"`
}

// Reply is the processing outcome returned by the webhook. Unknown fields are ignored.
type Reply struct {
	Status   string `json:"estado"`
	BotReply string `json:"respuestaBot,omitempty"`
	Error    string `json:"errorMensaje,omitempty"`
}

// WebhookError reports a non-2xx answer from the webhook.
type WebhookError struct {
	Status int
	Body   string
}

func (e *WebhookError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("webhook returned %d", e.Status)
	}
	return fmt.Sprintf("webhook returned %d: %s", e.Status, e.Body)
}

// Client posts messages to the webhook.
type Client struct {
	url  string
	http *http.Client
}

func NewClient(url string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{url: url, http: &http.Client{Timeout: timeout}}
}

func (c *Client) URL() string { return c.url }

// NewPayload builds a test payload stamped with now.
func NewPayload(from, text string, now time.Time) Payload {
	return Payload{
		From:      from,
		Text:      text,
		Timestamp: now.UTC().Format(time.RFC3339Nano),
		MessageID: fmt.Sprintf("test_%d", now.UnixMilli()),
	}
}

// Send posts p and decodes the webhook's reply.
func (c *Client) Send(ctx context.Context, p Payload) (Reply, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return Reply{}, fmt.Errorf("encode payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return Reply{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Reply{}, fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return Reply{}, fmt.Errorf("read webhook response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Reply{}, &WebhookError{Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	var reply Reply
	if len(bytes.TrimSpace(raw)) == 0 {
		return reply, nil
	}
	if err := json.Unmarshal(raw, &reply); err != nil {
		// Some webhook runners answer with plain text; keep it as the bot reply.
		reply.BotReply = strings.TrimSpace(string(raw))
	}
	return reply, nil
}

// IsWebhookError reports whether err came from a non-2xx webhook answer.
func IsWebhookError(err error) bool {
	var we *WebhookError
	return errors.As(err, &we)
}

// replyStatus maps the webhook's status to ours. An accepted message with an
// unknown status is recorded as received.
func replyStatus(r Reply) core.MessageStatus {
	if st, ok := core.ParseMessageStatus(r.Status); ok {
		return st
	}
	return core.StatusReceived
}
