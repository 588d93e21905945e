package usecase

import (
	"context"
	"strings"

	chat "github.com/Team-7-graduated-project/HelloB-sub001/internal/pkg/chat/application/domain"
	repository "github.com/Team-7-graduated-project/HelloB-sub001/internal/pkg/chat/persistence/repository/port"
	userrepo "github.com/Team-7-graduated-project/HelloB-sub001/internal/repository/port"
)

type ListConversationsInput struct {
	UserID string
}

// ListConversationsUseCase builds the caller's inbox: every conversation with
// its full log and participant profiles, most recent activity first.
type ListConversationsUseCase struct {
	Repo  repository.ChatRepository
	Users userrepo.UserRepository
}

func NewListConversationsUseCase(repo repository.ChatRepository, users userrepo.UserRepository) *ListConversationsUseCase {
	return &ListConversationsUseCase{Repo: repo, Users: users}
}

func (uc *ListConversationsUseCase) Execute(ctx context.Context, in ListConversationsInput) ([]ConversationSummary, error) {
	userID := strings.TrimSpace(in.UserID)
	if userID == "" {
		return nil, chat.ErrMissingIdentity
	}

	convs, err := uc.Repo.ListConversationsByUser(ctx, userID)
	if err != nil {
		return nil, storeError(err)
	}

	seen := make(map[string]struct{})
	ids := make([]string, 0, len(convs)+1)
	for _, c := range convs {
		for _, id := range c.Participants {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}
	profiles, err := loadProfiles(ctx, uc.Users, ids)
	if err != nil {
		return nil, err
	}

	out := make([]ConversationSummary, 0, len(convs))
	for i := range convs {
		out = append(out, summarize(&convs[i], profiles, userID))
	}
	return out, nil
}
