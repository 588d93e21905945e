package usecase

import (
	"context"
	"time"

	"github.com/Team-7-graduated-project/HelloB-sub001/internal/infrastructure/metrics"
	chat "github.com/Team-7-graduated-project/HelloB-sub001/internal/pkg/chat/application/domain"
	repository "github.com/Team-7-graduated-project/HelloB-sub001/internal/pkg/chat/persistence/repository/port"
	userrepo "github.com/Team-7-graduated-project/HelloB-sub001/internal/repository/port"
)

// FindOrCreateConversationInput names the caller and the user they want to talk to.
type FindOrCreateConversationInput struct {
	UserID        string
	ParticipantID string
}

// FindOrCreateConversationUseCase returns the single conversation of an
// unordered user pair, opening it on first contact.
type FindOrCreateConversationUseCase struct {
	Repo  repository.ChatRepository
	Users userrepo.UserRepository
}

func NewFindOrCreateConversationUseCase(repo repository.ChatRepository, users userrepo.UserRepository) *FindOrCreateConversationUseCase {
	return &FindOrCreateConversationUseCase{Repo: repo, Users: users}
}

// Execute returns the conversation and whether it was created by this call.
func (uc *FindOrCreateConversationUseCase) Execute(ctx context.Context, in FindOrCreateConversationInput) (*ConversationSummary, bool, error) {
	pair, err := chat.NewPair(in.UserID, in.ParticipantID)
	if err != nil {
		return nil, false, err
	}

	conv, created, err := uc.Repo.FindOrCreateConversation(ctx, pair, time.Now().UTC())
	if err != nil {
		return nil, false, storeError(err)
	}
	if created {
		metrics.ConversationsCreated.Inc()
	} else {
		msgs, err := uc.Repo.GetMessages(ctx, conv.ID, 0, 0)
		if err != nil {
			return nil, false, storeError(err)
		}
		conv.Messages = msgs
	}

	profiles, err := loadProfiles(ctx, uc.Users, pair[:])
	if err != nil {
		return nil, false, err
	}
	summary := summarize(conv, profiles, in.UserID)
	return &summary, created, nil
}
