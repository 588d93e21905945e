package usecase

import (
	"context"

	chat "github.com/Team-7-graduated-project/HelloB-sub001/internal/pkg/chat/application/domain"
	repository "github.com/Team-7-graduated-project/HelloB-sub001/internal/pkg/chat/persistence/repository/port"
)

const (
	DefaultMessagePage = 100
	MaxMessagePage     = 500
)

// GetMessagesInput carries parameters to fetch messages of a conversation
// after a known sequence number.
type GetMessagesInput struct {
	ConversationID string
	UserID         string
	AfterSeq       int64
	Limit          int
}

// GetMessagesUseCase serves incremental re-fetches of a conversation log.
type GetMessagesUseCase struct {
	Repo repository.ChatRepository
}

func NewGetMessagesUseCase(repo repository.ChatRepository) *GetMessagesUseCase {
	return &GetMessagesUseCase{Repo: repo}
}

// Execute returns messages in append order honoring after_seq/limit.
func (uc *GetMessagesUseCase) Execute(ctx context.Context, in GetMessagesInput) ([]chat.Message, error) {
	if _, err := loadForParticipant(ctx, uc.Repo, in.ConversationID, in.UserID); err != nil {
		return nil, err
	}

	limit := in.Limit
	switch {
	case limit <= 0:
		limit = DefaultMessagePage
	case limit > MaxMessagePage:
		limit = MaxMessagePage
	}
	afterSeq := max(in.AfterSeq, 0)

	msgs, err := uc.Repo.GetMessages(ctx, in.ConversationID, afterSeq, limit)
	if err != nil {
		return nil, storeError(err)
	}
	return msgs, nil
}
