package usecase

import (
	"context"
	"errors"

	"github.com/Team-7-graduated-project/HelloB-sub001/internal/infrastructure/metrics"
	chat "github.com/Team-7-graduated-project/HelloB-sub001/internal/pkg/chat/application/domain"
	repository "github.com/Team-7-graduated-project/HelloB-sub001/internal/pkg/chat/persistence/repository/port"
	userrepo "github.com/Team-7-graduated-project/HelloB-sub001/internal/repository/port"

	"github.com/rs/zerolog"
)

type NotifyUnreadInput struct {
	ConversationID string
	MessageID      string
}

// NotifyUnreadUseCase runs after the notify delay: if the recipient still has
// not read the message, the Notifier is asked to reach them elsewhere.
type NotifyUnreadUseCase struct {
	Repo     repository.ChatRepository
	Users    userrepo.UserRepository
	Notifier Notifier
	Log      zerolog.Logger
}

func NewNotifyUnreadUseCase(repo repository.ChatRepository, users userrepo.UserRepository, n Notifier, log zerolog.Logger) *NotifyUnreadUseCase {
	return &NotifyUnreadUseCase{Repo: repo, Users: users, Notifier: n, Log: log}
}

// Execute reports whether a notice was sent. A returned error is retryable.
func (uc *NotifyUnreadUseCase) Execute(ctx context.Context, in NotifyUnreadInput) (bool, error) {
	msg, err := uc.Repo.GetMessage(ctx, in.ConversationID, in.MessageID)
	if errors.Is(err, chat.ErrNotFound) {
		metrics.RecordNotification("missing")
		uc.Log.Warn().Str("conversation_id", in.ConversationID).Str("message_id", in.MessageID).Msg("unread check for unknown message")
		return false, nil
	}
	if err != nil {
		return false, storeError(err)
	}
	if msg.Read {
		metrics.RecordNotification("already_read")
		return false, nil
	}

	conv, err := uc.Repo.GetConversation(ctx, in.ConversationID)
	if err != nil {
		return false, storeError(err)
	}
	recipientID, err := conv.OtherParticipant(msg.SenderID)
	if err != nil {
		return false, err
	}

	profiles, err := loadProfiles(ctx, uc.Users, []string{msg.SenderID, recipientID})
	if err != nil {
		return false, err
	}
	notice := UnreadNotice{
		ConversationID: msg.ConversationID,
		MessageID:      msg.ID,
		Seq:            msg.Seq,
		SenderID:       msg.SenderID,
		SenderName:     profiles[msg.SenderID].Name,
		RecipientID:    recipientID,
		RecipientName:  profiles[recipientID].Name,
		Content:        msg.Content,
		SentAt:         msg.CreatedAt,
	}
	if err := uc.Notifier.NotifyUnread(ctx, notice); err != nil {
		metrics.RecordNotification("failed")
		return false, err
	}
	metrics.RecordNotification("sent")
	return true, nil
}
