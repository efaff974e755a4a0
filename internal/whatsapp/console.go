package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"finanzas/internal/core"
	"finanzas/internal/log"
)

const maxErrorLen = 255

var (
	ErrInvalidPhone = errors.New("invalid phone number, expected 10 to 20 digits with optional +")
	ErrEmptyMessage = errors.New("message is required")

	phonePattern = regexp.MustCompile(`^\+?[0-9]{10,20}$`)
)

// MessageStore records console messages.
type MessageStore interface {
	SaveMessage(ctx context.Context, m core.WhatsAppMessage) (core.WhatsAppMessage, error)
	ListMessages(ctx context.Context, status core.MessageStatus, limit int) ([]core.WhatsAppMessage, error)
}

// Sender delivers a payload to the webhook.
type Sender interface {
	Send(ctx context.Context, p Payload) (Reply, error)
}

// TestRequest is the console form.
type TestRequest struct {
	Phone   string `json:"numeroTelefonico"`
	Message string `json:"mensaje"`
}

func (r TestRequest) Validate() error {
	if !phonePattern.MatchString(strings.TrimSpace(r.Phone)) {
		return &core.ValidationError{Field: "numeroTelefonico", Err: ErrInvalidPhone}
	}
	if strings.TrimSpace(r.Message) == "" {
		return &core.ValidationError{Field: "mensaje", Err: ErrEmptyMessage}
	}
	return nil
}

// DisplayConfig is what the console shows about the webhook.
type DisplayConfig struct {
	WebhookURL string `json:"webhookUrl"`
	Phone      string `json:"numeroTelefonico,omitempty"`
}

// Console sends test messages to the webhook and records every outcome.
type Console struct {
	sender  Sender
	store   MessageStore
	display DisplayConfig
	logger  *log.Logger
	now     func() time.Time
}

func NewConsole(sender Sender, store MessageStore, display DisplayConfig, logger *log.Logger) *Console {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Console{
		sender:  sender,
		store:   store,
		display: display,
		logger:  logger.WithComponent(log.ComponentWhatsApp),
		now:     time.Now,
	}
}

func (c *Console) Config() DisplayConfig { return c.display }

// Send posts the message and records what happened. A webhook failure is not
// an error here: it is recorded with status ERROR and returned as the outcome.
func (c *Console) Send(ctx context.Context, req TestRequest) (core.WhatsAppMessage, error) {
	if err := req.Validate(); err != nil {
		return core.WhatsAppMessage{}, err
	}

	now := c.now()
	payload := NewPayload(strings.TrimSpace(req.Phone), req.Message, now)
	msg := core.WhatsAppMessage{
		MessageID:  payload.MessageID,
		Phone:      payload.From,
		Text:       payload.Text,
		ReceivedAt: now.UTC(),
	}

	reply, sendErr := c.sender.Send(ctx, payload)
	processed := c.now().UTC()
	msg.ProcessedAt = &processed
	if sendErr != nil {
		msg.Status = core.StatusError
		msg.Error = truncate(sendErr.Error(), maxErrorLen)
		c.logger.WarnContext(ctx, "Webhook test message failed",
			log.FieldPhone, msg.Phone,
			"message_id", msg.MessageID,
			"error", sendErr)
	} else {
		msg.Status = replyStatus(reply)
		msg.BotReply = reply.BotReply
		msg.Error = truncate(reply.Error, maxErrorLen)
	}

	saved, err := c.store.SaveMessage(ctx, msg)
	if err != nil {
		return msg, fmt.Errorf("record message: %w", err)
	}
	c.logger.InfoContext(ctx, "Webhook test message recorded",
		"message_id", saved.MessageID,
		log.FieldMessageStatus, string(saved.Status))
	return saved, nil
}

// Messages lists recorded messages, newest first. An empty status lists all.
func (c *Console) Messages(ctx context.Context, status core.MessageStatus, limit int) ([]core.WhatsAppMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	return c.store.ListMessages(ctx, status, limit)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
