// Package notify delivers unread-message notices outside the chat.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Team-7-graduated-project/HelloB-sub001/internal/pkg/chat/application/usecase"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// WebhookNotifier POSTs each notice as JSON to a configured endpoint, typically
// the marketplace's push/e-mail gateway.
type WebhookNotifier struct {
	url        string
	httpClient *resty.Client
}

var _ usecase.Notifier = (*WebhookNotifier)(nil)

func NewWebhookNotifier(url string, serviceName string) *WebhookNotifier {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil
	}
	httpClient := resty.New().
		SetHeader("User-Agent", serviceName+"/1.0").
		SetTimeout(5 * time.Second)
	return &WebhookNotifier{url: url, httpClient: httpClient}
}

func (n *WebhookNotifier) NotifyUnread(ctx context.Context, notice usecase.UnreadNotice) error {
	resp, err := n.httpClient.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]any{
			"event":  "chat.message.unread",
			"notice": notice,
		}).
		Post(n.url)
	if err != nil {
		return fmt.Errorf("notify webhook request failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("notify webhook error (%d): %s", resp.StatusCode(), resp.String())
	}
	return nil
}

// LogNotifier writes notices to the log when no webhook is configured.
type LogNotifier struct {
	log zerolog.Logger
}

var _ usecase.Notifier = LogNotifier{}

func NewLogNotifier(log zerolog.Logger) LogNotifier {
	return LogNotifier{log: log}
}

func (n LogNotifier) NotifyUnread(ctx context.Context, notice usecase.UnreadNotice) error {
	n.log.Info().
		Str("conversation_id", notice.ConversationID).
		Str("message_id", notice.MessageID).
		Str("recipient_id", notice.RecipientID).
		Str("sender_id", notice.SenderID).
		Msg("unread message notice")
	return nil
}

// New picks the webhook notifier when a URL is configured.
func New(webhookURL, serviceName string, log zerolog.Logger) usecase.Notifier {
	if n := NewWebhookNotifier(webhookURL, serviceName); n != nil {
		return n
	}
	return NewLogNotifier(log)
}
