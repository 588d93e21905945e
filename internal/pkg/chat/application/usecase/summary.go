package usecase

import (
	"context"
	"errors"
	"time"

	chat "github.com/Team-7-graduated-project/HelloB-sub001/internal/pkg/chat/application/domain"
	userrepo "github.com/Team-7-graduated-project/HelloB-sub001/internal/repository/port"
)

// ConversationSummary is a conversation as one of its participants sees it.
type ConversationSummary struct {
	ID           string             `json:"id"`
	Participants []chat.Participant `json:"participants"`
	Messages     []chat.Message     `json:"messages"`
	LastActivity time.Time          `json:"lastActivity"`
	CreatedAt    time.Time          `json:"createdAt"`
	LastSeq      int64              `json:"lastSeq"`
	IsActive     bool               `json:"isActive"`
	UnreadCount  int                `json:"unreadCount"`
}

func summarize(conv *chat.Conversation, profiles map[string]userrepo.User, viewerID string) ConversationSummary {
	msgs := conv.Messages
	if msgs == nil {
		msgs = []chat.Message{}
	}
	return ConversationSummary{
		ID:           conv.ID,
		Participants: participantsOf(conv.Participants, profiles),
		Messages:     msgs,
		LastActivity: conv.LastActivity,
		CreatedAt:    conv.CreatedAt,
		LastSeq:      conv.LastSeq,
		IsActive:     conv.IsActive,
		UnreadCount:  conv.UnreadFor(viewerID),
	}
}

func participantsOf(pair chat.Pair, profiles map[string]userrepo.User) []chat.Participant {
	out := make([]chat.Participant, 0, len(pair))
	for _, id := range pair {
		out = append(out, profileOf(id, profiles))
	}
	return out
}

// profileOf falls back to a bare id when no profile was ever stored.
func profileOf(id string, profiles map[string]userrepo.User) chat.Participant {
	p := chat.Participant{UserID: id}
	if u, ok := profiles[id]; ok {
		p.Name = u.Name
		p.PhotoURL = u.PhotoURL
	}
	return p
}

func loadProfiles(ctx context.Context, users userrepo.UserRepository, ids []string) (map[string]userrepo.User, error) {
	if users == nil || len(ids) == 0 {
		return map[string]userrepo.User{}, nil
	}
	profiles, err := users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, storeError(err)
	}
	return profiles, nil
}

func loadProfile(ctx context.Context, users userrepo.UserRepository, id string) (chat.Participant, error) {
	if users == nil {
		return chat.Participant{UserID: id}, nil
	}
	u, err := users.FindByID(ctx, id)
	if errors.Is(err, userrepo.ErrUserNotFound) {
		return chat.Participant{UserID: id}, nil
	}
	if err != nil {
		return chat.Participant{}, storeError(err)
	}
	return chat.Participant{UserID: u.ID, Name: u.Name, PhotoURL: u.PhotoURL}, nil
}
