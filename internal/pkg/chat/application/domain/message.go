package chat

import (
	"strings"
	"time"
)

// Message is an immutable log entry in a conversation. Only Read may change
// after it has been appended.
type Message struct {
	ID             string    `db:"id" json:"id"`
	ConversationID string    `db:"conversation_id" json:"conversationId"`
	Seq            int64     `db:"seq" json:"seq"`
	SenderID       string    `db:"sender_id" json:"sender"`
	Content        string    `db:"content" json:"content"`
	CreatedAt      time.Time `db:"created_at" json:"timestamp"`
	Read           bool      `db:"read" json:"read"`
	IsActive       bool      `db:"is_active" json:"isActive"`
	IsDeleted      bool      `db:"is_deleted" json:"isDeleted"`
	// DedupeKey is the client correlation id; unique per conversation and sender.
	DedupeKey *string `db:"dedupe_key" json:"clientId,omitempty"`
}

// NewMessage validates caller input and returns a message ready to append.
// Server-owned fields (ID, Seq, CreatedAt, flags) are reset; the store assigns them.
func NewMessage(conversationID, senderID, content string, dedupeKey *string) (*Message, error) {
	if conversationID == "" || senderID == "" {
		return nil, ErrMissingIdentity
	}

	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil, ErrEmptyMessage
	}

	if dedupeKey != nil {
		k := strings.TrimSpace(*dedupeKey)
		if k == "" {
			dedupeKey = nil
		} else {
			dedupeKey = &k
		}
	}

	return &Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        trimmed,
		IsActive:       true,
		DedupeKey:      dedupeKey,
	}, nil
}

// HasDedupeKey reports whether m carries the given client correlation id.
func (m Message) HasDedupeKey(key string) bool {
	return m.DedupeKey != nil && *m.DedupeKey == key
}
