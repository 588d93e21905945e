package adapter

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Team-7-graduated-project/HelloB-sub001/internal/infrastructure/database"
	chat "github.com/Team-7-graduated-project/HelloB-sub001/internal/pkg/chat/application/domain"
	repository "github.com/Team-7-graduated-project/HelloB-sub001/internal/pkg/chat/persistence/repository/port"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

var (
	// Bucket names
	bucketConversations = []byte("conversations")
	bucketPairs         = []byte("conversation_pairs")
	bucketMessages      = []byte("messages") // one nested bucket per conversation, keyed by seq
	bucketDedupe        = []byte("message_dedupe")
)

// BoltChatRepository stores conversations in an embedded bbolt file. Bolt
// allows a single writer transaction at a time, so every append runs
// serialised with its last-activity bump.
type BoltChatRepository struct {
	db *bolt.DB
}

var _ repository.ChatRepository = (*BoltChatRepository)(nil)

// conversationRecord is the stored header; messages live in their own bucket.
type conversationRecord struct {
	ID           string    `json:"id"`
	Participants chat.Pair `json:"participants"`
	CreatedAt    time.Time `json:"createdAt"`
	LastActivity time.Time `json:"lastActivity"`
	LastSeq      int64     `json:"lastSeq"`
	IsActive     bool      `json:"isActive"`
}

func NewBoltChatRepository(db *bolt.DB) (*BoltChatRepository, error) {
	if err := database.EnsureBuckets(db, bucketConversations, bucketPairs, bucketMessages, bucketDedupe); err != nil {
		return nil, err
	}
	return &BoltChatRepository{db: db}, nil
}

func (r *BoltChatRepository) FindOrCreateConversation(ctx context.Context, pair chat.Pair, now time.Time) (*chat.Conversation, bool, error) {
	var (
		conv    *chat.Conversation
		created bool
	)
	err := r.db.Update(func(tx *bolt.Tx) error {
		pairs := tx.Bucket(bucketPairs)
		if id := pairs.Get([]byte(pair.Key())); id != nil {
			rec, err := getConversation(tx, string(id))
			if err != nil {
				return err
			}
			conv = rec.toDomain()
			return nil
		}

		fresh := chat.NewConversation(uuid.NewString(), pair, now)
		if err := putConversation(tx, fromDomain(fresh)); err != nil {
			return err
		}
		if err := pairs.Put([]byte(pair.Key()), []byte(fresh.ID)); err != nil {
			return err
		}
		if _, err := tx.Bucket(bucketMessages).CreateBucketIfNotExists([]byte(fresh.ID)); err != nil {
			return err
		}
		conv = fresh
		conv.Messages = nil
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return conv, created, nil
}

func (r *BoltChatRepository) GetConversation(ctx context.Context, conversationID string) (*chat.Conversation, error) {
	var conv *chat.Conversation
	err := r.db.View(func(tx *bolt.Tx) error {
		rec, err := getConversation(tx, conversationID)
		if err != nil {
			return err
		}
		conv = rec.toDomain()
		return nil
	})
	return conv, err
}

func (r *BoltChatRepository) ListConversationsByUser(ctx context.Context, userID string) ([]chat.Conversation, error) {
	convs := make([]chat.Conversation, 0)
	err := r.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketConversations).ForEach(func(k, v []byte) error {
			var rec conversationRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			if !rec.Participants.Has(userID) {
				return nil
			}
			conv := rec.toDomain()
			msgs, err := readMessages(tx, rec.ID, 0, 0)
			if err != nil {
				return err
			}
			conv.Messages = msgs
			convs = append(convs, *conv)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	SortByActivity(convs)
	return convs, nil
}

func (r *BoltChatRepository) AppendMessage(ctx context.Context, m chat.Message, now time.Time) (*chat.Message, bool, error) {
	var (
		stored   chat.Message
		replayed bool
	)
	err := r.db.Update(func(tx *bolt.Tx) error {
		rec, err := getConversation(tx, m.ConversationID)
		if err != nil {
			return err
		}
		conv := rec.toDomain()
		if !conv.HasParticipant(m.SenderID) {
			return chat.ErrNotParticipant
		}

		msgs := tx.Bucket(bucketMessages).Bucket([]byte(conv.ID))
		if msgs == nil {
			return fmt.Errorf("bolt: message bucket missing for conversation %s", conv.ID)
		}

		var dedupeKey []byte
		if m.DedupeKey != nil {
			dedupeKey = dedupeIndexKey(conv.ID, m.SenderID, *m.DedupeKey)
			if seq := tx.Bucket(bucketDedupe).Get(dedupeKey); seq != nil {
				if err := json.Unmarshal(msgs.Get(seq), &stored); err != nil {
					return err
				}
				replayed = true
				return nil
			}
		}

		stored, err = conv.Append(m, uuid.NewString(), now)
		if err != nil {
			return err
		}

		data, err := json.Marshal(stored)
		if err != nil {
			return err
		}
		key := seqKey(stored.Seq)
		if err := msgs.Put(key, data); err != nil {
			return err
		}
		if dedupeKey != nil {
			if err := tx.Bucket(bucketDedupe).Put(dedupeKey, key); err != nil {
				return err
			}
		}
		return putConversation(tx, fromDomain(conv))
	})
	if err != nil {
		return nil, false, err
	}
	return &stored, replayed, nil
}

func (r *BoltChatRepository) GetMessages(ctx context.Context, conversationID string, afterSeq int64, limit int) ([]chat.Message, error) {
	var msgs []chat.Message
	err := r.db.View(func(tx *bolt.Tx) error {
		if _, err := getConversation(tx, conversationID); err != nil {
			return err
		}
		var err error
		msgs, err = readMessages(tx, conversationID, afterSeq, limit)
		return err
	})
	return msgs, err
}

func (r *BoltChatRepository) GetMessage(ctx context.Context, conversationID string, messageID string) (*chat.Message, error) {
	var found *chat.Message
	err := r.db.View(func(tx *bolt.Tx) error {
		if _, err := getConversation(tx, conversationID); err != nil {
			return err
		}
		msgs, err := readMessages(tx, conversationID, 0, 0)
		if err != nil {
			return err
		}
		for i := range msgs {
			if msgs[i].ID == messageID {
				found = &msgs[i]
				return nil
			}
		}
		return chat.ErrMessageNotFound
	})
	return found, err
}

func (r *BoltChatRepository) MarkRead(ctx context.Context, conversationID string, readerID string, upToSeq int64) (int64, error) {
	var changed int64
	err := r.db.Update(func(tx *bolt.Tx) error {
		rec, err := getConversation(tx, conversationID)
		if err != nil {
			return err
		}
		if !rec.Participants.Has(readerID) {
			return chat.ErrNotParticipant
		}
		b := tx.Bucket(bucketMessages).Bucket([]byte(conversationID))
		if b == nil {
			return nil
		}

		updates := make(map[string][]byte)
		err = b.ForEach(func(k, v []byte) error {
			var m chat.Message
			if err := json.Unmarshal(v, &m); err != nil {
				return err
			}
			if m.SenderID == readerID || m.Read || (upToSeq > 0 && m.Seq > upToSeq) {
				return nil
			}
			m.Read = true
			data, err := json.Marshal(m)
			if err != nil {
				return err
			}
			updates[string(k)] = data
			return nil
		})
		if err != nil {
			return err
		}
		// Bolt forbids writes while iterating, so apply after ForEach.
		for k, v := range updates {
			if err := b.Put([]byte(k), v); err != nil {
				return err
			}
		}
		changed = int64(len(updates))
		return nil
	})
	return changed, err
}

func getConversation(tx *bolt.Tx, id string) (*conversationRecord, error) {
	data := tx.Bucket(bucketConversations).Get([]byte(id))
	if data == nil {
		return nil, chat.ErrConversationNotFound
	}
	var rec conversationRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func putConversation(tx *bolt.Tx, rec conversationRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return tx.Bucket(bucketConversations).Put([]byte(rec.ID), data)
}

func readMessages(tx *bolt.Tx, conversationID string, afterSeq int64, limit int) ([]chat.Message, error) {
	out := make([]chat.Message, 0)
	b := tx.Bucket(bucketMessages).Bucket([]byte(conversationID))
	if b == nil {
		return out, nil
	}
	if afterSeq < 0 {
		afterSeq = 0
	}
	c := b.Cursor()
	for k, v := c.Seek(seqKey(afterSeq + 1)); k != nil; k, v = c.Next() {
		var m chat.Message
		if err := json.Unmarshal(v, &m); err != nil {
			return nil, err
		}
		out = append(out, m)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// seqKey encodes seq big-endian so cursor order is sequence order.
func seqKey(seq int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(seq))
	return b
}

func dedupeIndexKey(conversationID, senderID, key string) []byte {
	return []byte(conversationID + "\x00" + senderID + "\x00" + key)
}

func fromDomain(c *chat.Conversation) conversationRecord {
	return conversationRecord{
		ID:           c.ID,
		Participants: c.Participants,
		CreatedAt:    c.CreatedAt,
		LastActivity: c.LastActivity,
		LastSeq:      c.LastSeq,
		IsActive:     c.IsActive,
	}
}

func (rec conversationRecord) toDomain() *chat.Conversation {
	return &chat.Conversation{
		ID:           rec.ID,
		Participants: rec.Participants,
		CreatedAt:    rec.CreatedAt,
		LastActivity: rec.LastActivity,
		LastSeq:      rec.LastSeq,
		IsActive:     rec.IsActive,
	}
}
