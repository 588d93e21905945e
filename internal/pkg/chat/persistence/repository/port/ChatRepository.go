package repository

import (
	"context"
	"time"

	chat "github.com/Team-7-graduated-project/HelloB-sub001/internal/pkg/chat/application/domain"
)

// ChatRepository defines persistence operations for the chat domain.
// Implementations must be safe for concurrent use.
type ChatRepository interface {
	// FindOrCreateConversation returns the conversation of pair, creating it
	// with an empty log when none exists. created reports which happened.
	// At most one conversation may ever exist per pair.
	FindOrCreateConversation(ctx context.Context, pair chat.Pair, now time.Time) (conv *chat.Conversation, created bool, err error)

	// GetConversation returns the conversation without its messages.
	GetConversation(ctx context.Context, conversationID string) (*chat.Conversation, error)

	// ListConversationsByUser returns the user's conversations with their full
	// message logs, most recent activity first.
	ListConversationsByUser(ctx context.Context, userID string) ([]chat.Conversation, error)

	// AppendMessage stores m as the next message of its conversation and bumps
	// the conversation's last activity in the same atomic step. When m carries
	// a dedupe key already used by the same sender, the stored message is
	// returned with replayed set and nothing is written.
	AppendMessage(ctx context.Context, m chat.Message, now time.Time) (stored *chat.Message, replayed bool, err error)

	// GetMessages returns messages with Seq > afterSeq in append order, at most
	// limit of them (all when limit <= 0).
	GetMessages(ctx context.Context, conversationID string, afterSeq int64, limit int) ([]chat.Message, error)

	// GetMessage returns a single message of the conversation.
	GetMessage(ctx context.Context, conversationID string, messageID string) (*chat.Message, error)

	// MarkRead flags messages not sent by readerID with Seq <= upToSeq as read
	// (all when upToSeq <= 0) and returns how many changed.
	MarkRead(ctx context.Context, conversationID string, readerID string, upToSeq int64) (int64, error)
}
