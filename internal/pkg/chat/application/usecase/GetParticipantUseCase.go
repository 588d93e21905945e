package usecase

import (
	"context"

	chat "github.com/Team-7-graduated-project/HelloB-sub001/internal/pkg/chat/application/domain"
	repository "github.com/Team-7-graduated-project/HelloB-sub001/internal/pkg/chat/persistence/repository/port"
	userrepo "github.com/Team-7-graduated-project/HelloB-sub001/internal/repository/port"
)

// GetParticipantInput wraps the conversation and the caller whose counterpart is wanted.
type GetParticipantInput struct {
	ConversationID string
	UserID         string
}

// GetParticipantUseCase returns the profile of the other member of a conversation.
type GetParticipantUseCase struct {
	Repo  repository.ChatRepository
	Users userrepo.UserRepository
}

func NewGetParticipantUseCase(repo repository.ChatRepository, users userrepo.UserRepository) *GetParticipantUseCase {
	return &GetParticipantUseCase{Repo: repo, Users: users}
}

func (uc *GetParticipantUseCase) Execute(ctx context.Context, in GetParticipantInput) (*chat.Participant, error) {
	conv, err := loadForParticipant(ctx, uc.Repo, in.ConversationID, in.UserID)
	if err != nil {
		return nil, err
	}
	otherID, err := conv.OtherParticipant(in.UserID)
	if err != nil {
		return nil, err
	}
	p, err := loadProfile(ctx, uc.Users, otherID)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
