package chat

import "time"

// Conversation is the unique thread between the two users of Participants.
type Conversation struct {
	ID           string    `db:"id" json:"id"`
	Participants Pair      `db:"-" json:"participants"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	LastActivity time.Time `db:"last_activity" json:"lastActivity"`
	LastSeq      int64     `db:"last_seq" json:"lastSeq"`
	IsActive     bool      `db:"is_active" json:"isActive"`
	Messages     []Message `db:"-" json:"messages"`
}

// NewConversation opens an empty conversation for pair at now.
func NewConversation(id string, pair Pair, now time.Time) *Conversation {
	now = now.UTC()
	return &Conversation{
		ID:           id,
		Participants: pair,
		CreatedAt:    now,
		LastActivity: now,
		IsActive:     true,
		Messages:     []Message{},
	}
}

// HasParticipant tells whether userID is part of this conversation.
func (c *Conversation) HasParticipant(userID string) bool {
	if c == nil {
		return false
	}
	return c.Participants.Has(userID)
}

// OtherParticipant returns the member that is not userID.
func (c *Conversation) OtherParticipant(userID string) (string, error) {
	if c == nil {
		return "", ErrConversationNotFound
	}
	return c.Participants.Other(userID)
}

// Append applies the append rules and adds m to the log. It is meant for
// stores that hold the aggregate in memory; the caller serialises calls.
//
// Rules:
//   - conversation/message identity must match
//   - sender must be a participant
//   - content must be non-empty
//
// The message gets the next sequence number and a timestamp that never goes
// behind LastActivity, which is then advanced to that timestamp.
func (c *Conversation) Append(m Message, id string, now time.Time) (Message, error) {
	if m.ConversationID == "" || m.ConversationID != c.ID {
		return Message{}, ErrInvalidConversation
	}
	if !c.HasParticipant(m.SenderID) {
		return Message{}, ErrNotParticipant
	}
	if m.Content == "" {
		return Message{}, ErrEmptyMessage
	}

	ts := NextTimestamp(c.LastActivity, now)

	m.ID = id
	m.Seq = c.LastSeq + 1
	m.CreatedAt = ts
	m.Read = false
	m.IsActive = true
	m.IsDeleted = false

	c.Messages = append(c.Messages, m)
	c.LastSeq = m.Seq
	c.LastActivity = ts
	return m, nil
}

// FindByDedupeKey returns the message previously sent by senderID with key.
func (c *Conversation) FindByDedupeKey(senderID, key string) (Message, bool) {
	for _, m := range c.Messages {
		if m.SenderID == senderID && m.HasDedupeKey(key) {
			return m, true
		}
	}
	return Message{}, false
}

// MarkRead flags the messages received by readerID with Seq <= upToSeq as
// read. upToSeq <= 0 means every message. It returns how many changed.
func (c *Conversation) MarkRead(readerID string, upToSeq int64) int64 {
	var changed int64
	for i := range c.Messages {
		m := &c.Messages[i]
		if m.SenderID == readerID || m.Read {
			continue
		}
		if upToSeq > 0 && m.Seq > upToSeq {
			continue
		}
		m.Read = true
		changed++
	}
	return changed
}

// UnreadFor counts messages addressed to userID that are not read yet.
func (c *Conversation) UnreadFor(userID string) int {
	n := 0
	for _, m := range c.Messages {
		if m.SenderID != userID && !m.Read {
			n++
		}
	}
	return n
}

// NextTimestamp returns the timestamp for the next append: now, unless the
// clock is behind the last activity, in which case the last activity is reused.
func NextTimestamp(lastActivity, now time.Time) time.Time {
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()
	if now.Before(lastActivity) {
		return lastActivity.UTC()
	}
	return now
}
