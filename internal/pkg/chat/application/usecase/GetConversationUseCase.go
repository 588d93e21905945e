package usecase

import (
	"context"

	chat "github.com/Team-7-graduated-project/HelloB-sub001/internal/pkg/chat/application/domain"
	repository "github.com/Team-7-graduated-project/HelloB-sub001/internal/pkg/chat/persistence/repository/port"
	userrepo "github.com/Team-7-graduated-project/HelloB-sub001/internal/repository/port"
)

type GetConversationInput struct {
	ConversationID string
	UserID         string
}

// GetConversationUseCase returns one conversation to one of its participants.
type GetConversationUseCase struct {
	Repo  repository.ChatRepository
	Users userrepo.UserRepository
}

func NewGetConversationUseCase(repo repository.ChatRepository, users userrepo.UserRepository) *GetConversationUseCase {
	return &GetConversationUseCase{Repo: repo, Users: users}
}

func (uc *GetConversationUseCase) Execute(ctx context.Context, in GetConversationInput) (*ConversationSummary, error) {
	conv, err := loadForParticipant(ctx, uc.Repo, in.ConversationID, in.UserID)
	if err != nil {
		return nil, err
	}
	msgs, err := uc.Repo.GetMessages(ctx, conv.ID, 0, 0)
	if err != nil {
		return nil, storeError(err)
	}
	conv.Messages = msgs

	profiles, err := loadProfiles(ctx, uc.Users, conv.Participants[:])
	if err != nil {
		return nil, err
	}
	summary := summarize(conv, profiles, in.UserID)
	return &summary, nil
}

// loadForParticipant fetches the conversation header and refuses callers
// outside the pair before anything else is read.
func loadForParticipant(ctx context.Context, repo repository.ChatRepository, conversationID, userID string) (*chat.Conversation, error) {
	if conversationID == "" || userID == "" {
		return nil, chat.ErrMissingIdentity
	}
	conv, err := repo.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, storeError(err)
	}
	if !conv.HasParticipant(userID) {
		return nil, chat.ErrNotParticipant
	}
	return conv, nil
}
