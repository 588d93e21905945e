package usecase

import (
	"context"
	"time"

	chat "github.com/Team-7-graduated-project/HelloB-sub001/internal/pkg/chat/application/domain"
)

// Publisher pushes a stored message to the live channels of its conversation.
type Publisher interface {
	Publish(ctx context.Context, conversationID string, m chat.Message, excludeChannelID string) int
}

// Sequencer serialises work per key; the returned func releases the key.
type Sequencer interface {
	Acquire(key string) func()
}

// UnreadScheduler arranges a later unread check for a freshly stored message.
type UnreadScheduler interface {
	ScheduleUnread(ctx context.Context, m chat.Message) error
}

// UnreadNotice describes a message the recipient has not read yet.
type UnreadNotice struct {
	ConversationID string    `json:"conversationId"`
	MessageID      string    `json:"messageId"`
	Seq            int64     `json:"seq"`
	SenderID       string    `json:"senderId"`
	SenderName     string    `json:"senderName"`
	RecipientID    string    `json:"recipientId"`
	RecipientName  string    `json:"recipientName"`
	Content        string    `json:"content"`
	SentAt         time.Time `json:"sentAt"`
}

// Notifier delivers unread notices outside the chat (push, e-mail gateway, ...).
type Notifier interface {
	NotifyUnread(ctx context.Context, notice UnreadNotice) error
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, string, chat.Message, string) int { return 0 }

type noopSequencer struct{}

func (noopSequencer) Acquire(string) func() { return func() {} }
