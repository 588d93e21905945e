package adapter

import (
	"context"
	"sort"
	"sync"
	"time"

	chat "github.com/Team-7-graduated-project/HelloB-sub001/internal/pkg/chat/application/domain"
	repository "github.com/Team-7-graduated-project/HelloB-sub001/internal/pkg/chat/persistence/repository/port"

	"github.com/google/uuid"
)

// MemoryChatRepository keeps conversations in process memory.
// A single mutex serialises every write, which makes append and the
// last-activity bump one step.
type MemoryChatRepository struct {
	mu            sync.RWMutex
	conversations map[string]*chat.Conversation // id -> conversation
	pairs         map[string]string             // pair key -> id
	newID         func() string
}

var _ repository.ChatRepository = (*MemoryChatRepository)(nil)

func NewMemoryChatRepository() *MemoryChatRepository {
	return &MemoryChatRepository{
		conversations: make(map[string]*chat.Conversation),
		pairs:         make(map[string]string),
		newID:         uuid.NewString,
	}
}

func (r *MemoryChatRepository) FindOrCreateConversation(ctx context.Context, pair chat.Pair, now time.Time) (*chat.Conversation, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.pairs[pair.Key()]; ok {
		return header(r.conversations[id]), false, nil
	}

	conv := chat.NewConversation(r.newID(), pair, now)
	r.conversations[conv.ID] = conv
	r.pairs[pair.Key()] = conv.ID
	return header(conv), true, nil
}

func (r *MemoryChatRepository) GetConversation(ctx context.Context, conversationID string) (*chat.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conv, ok := r.conversations[conversationID]
	if !ok {
		return nil, chat.ErrConversationNotFound
	}
	return header(conv), nil
}

func (r *MemoryChatRepository) ListConversationsByUser(ctx context.Context, userID string) ([]chat.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]chat.Conversation, 0)
	for _, conv := range r.conversations {
		if !conv.HasParticipant(userID) {
			continue
		}
		c := header(conv)
		c.Messages = append([]chat.Message{}, conv.Messages...)
		out = append(out, *c)
	}
	SortByActivity(out)
	return out, nil
}

func (r *MemoryChatRepository) AppendMessage(ctx context.Context, m chat.Message, now time.Time) (*chat.Message, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conv, ok := r.conversations[m.ConversationID]
	if !ok {
		return nil, false, chat.ErrConversationNotFound
	}
	if m.DedupeKey != nil {
		if prev, found := conv.FindByDedupeKey(m.SenderID, *m.DedupeKey); found {
			return &prev, true, nil
		}
	}

	stored, err := conv.Append(m, r.newID(), now)
	if err != nil {
		return nil, false, err
	}
	return &stored, false, nil
}

func (r *MemoryChatRepository) GetMessages(ctx context.Context, conversationID string, afterSeq int64, limit int) ([]chat.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conv, ok := r.conversations[conversationID]
	if !ok {
		return nil, chat.ErrConversationNotFound
	}
	out := make([]chat.Message, 0)
	for _, m := range conv.Messages {
		if m.Seq <= afterSeq {
			continue
		}
		out = append(out, m)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *MemoryChatRepository) GetMessage(ctx context.Context, conversationID string, messageID string) (*chat.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conv, ok := r.conversations[conversationID]
	if !ok {
		return nil, chat.ErrConversationNotFound
	}
	for _, m := range conv.Messages {
		if m.ID == messageID {
			msg := m
			return &msg, nil
		}
	}
	return nil, chat.ErrMessageNotFound
}

func (r *MemoryChatRepository) MarkRead(ctx context.Context, conversationID string, readerID string, upToSeq int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conv, ok := r.conversations[conversationID]
	if !ok {
		return 0, chat.ErrConversationNotFound
	}
	if !conv.HasParticipant(readerID) {
		return 0, chat.ErrNotParticipant
	}
	return conv.MarkRead(readerID, upToSeq), nil
}

// header copies the conversation without its message log.
func header(c *chat.Conversation) *chat.Conversation {
	cp := *c
	cp.Messages = nil
	return &cp
}

// SortByActivity orders conversations by last activity, newest first; ties
// are broken by id so the order is stable across calls.
func SortByActivity(convs []chat.Conversation) {
	sort.SliceStable(convs, func(i, j int) bool {
		if !convs[i].LastActivity.Equal(convs[j].LastActivity) {
			return convs[i].LastActivity.After(convs[j].LastActivity)
		}
		return convs[i].ID < convs[j].ID
	})
}
