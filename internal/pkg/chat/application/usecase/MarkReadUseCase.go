package usecase

import (
	"context"

	repository "github.com/Team-7-graduated-project/HelloB-sub001/internal/pkg/chat/persistence/repository/port"
)

// MarkReadInput marks the counterpart's messages up to UpToSeq (all when zero).
type MarkReadInput struct {
	ConversationID string
	UserID         string
	UpToSeq        int64
}

type MarkReadUseCase struct {
	Repo repository.ChatRepository
}

func NewMarkReadUseCase(repo repository.ChatRepository) *MarkReadUseCase {
	return &MarkReadUseCase{Repo: repo}
}

// Execute returns how many messages changed to read.
func (uc *MarkReadUseCase) Execute(ctx context.Context, in MarkReadInput) (int64, error) {
	if _, err := loadForParticipant(ctx, uc.Repo, in.ConversationID, in.UserID); err != nil {
		return 0, err
	}
	n, err := uc.Repo.MarkRead(ctx, in.ConversationID, in.UserID, in.UpToSeq)
	if err != nil {
		return 0, storeError(err)
	}
	return n, nil
}
