package usecase

import (
	"context"
	"errors"
	"time"

	cache "github.com/Team-7-graduated-project/HelloB-sub001/internal/infrastructure/cache/port"
	repository "github.com/Team-7-graduated-project/HelloB-sub001/internal/pkg/chat/persistence/repository/port"

	"github.com/rs/zerolog"
)

// CheckMembershipInput validates a request to attach a user channel to a conversation.
type CheckMembershipInput struct {
	ConversationID string
	UserID         string
}

// CheckMembershipUseCase ensures the user belongs to the conversation before a
// live channel is admitted. Positive answers are cached; participants never change.
type CheckMembershipUseCase struct {
	Repo  repository.ChatRepository
	Cache cache.Cache
	TTL   time.Duration
	Log   zerolog.Logger
}

func NewCheckMembershipUseCase(repo repository.ChatRepository, c cache.Cache, ttl time.Duration, log zerolog.Logger) *CheckMembershipUseCase {
	return &CheckMembershipUseCase{Repo: repo, Cache: c, TTL: ttl, Log: log}
}

func (uc *CheckMembershipUseCase) Execute(ctx context.Context, in CheckMembershipInput) error {
	key := membershipKey(in.ConversationID, in.UserID)
	if uc.Cache != nil && in.ConversationID != "" && in.UserID != "" {
		_, err := uc.Cache.Get(ctx, key)
		if err == nil {
			return nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			uc.Log.Warn().Err(err).Str("key", key).Msg("membership cache read failed")
		}
	}

	if _, err := loadForParticipant(ctx, uc.Repo, in.ConversationID, in.UserID); err != nil {
		return err
	}

	if uc.Cache != nil {
		if err := uc.Cache.Set(ctx, key, "1", uc.TTL); err != nil {
			uc.Log.Warn().Err(err).Str("key", key).Msg("membership cache write failed")
		}
	}
	return nil
}

// CheckMembership adapts the use case to the realtime hub.
func (uc *CheckMembershipUseCase) CheckMembership(ctx context.Context, conversationID, userID string) error {
	return uc.Execute(ctx, CheckMembershipInput{ConversationID: conversationID, UserID: userID})
}

func membershipKey(conversationID, userID string) string {
	return "chat:member:" + conversationID + ":" + userID
}
