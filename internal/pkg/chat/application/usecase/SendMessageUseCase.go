package usecase

import (
	"context"
	"time"

	"github.com/Team-7-graduated-project/HelloB-sub001/internal/infrastructure/metrics"
	chat "github.com/Team-7-graduated-project/HelloB-sub001/internal/pkg/chat/application/domain"
	repository "github.com/Team-7-graduated-project/HelloB-sub001/internal/pkg/chat/persistence/repository/port"

	"github.com/rs/zerolog"
)

// SendMessageInput carries the data needed to send a new message.
// Only Content and ClientID come from the client; identity and time are the server's.
type SendMessageInput struct {
	ConversationID string
	SenderID       string
	Content        string
	ClientID       *string
	// ExcludeChannelID skips one live channel when publishing.
	ExcludeChannelID string
}

type SendMessageOutput struct {
	Message   chat.Message
	Replayed  bool
	Delivered int
}

// SendMessageUseCase appends a message durably, then pushes it to the live
// channels of the conversation.
type SendMessageUseCase struct {
	Repo      repository.ChatRepository
	Publisher Publisher
	Sequencer Sequencer
	Scheduler UnreadScheduler
	Log       zerolog.Logger
	Now       func() time.Time
}

func NewSendMessageUseCase(repo repository.ChatRepository, pub Publisher, seq Sequencer, sched UnreadScheduler, log zerolog.Logger) *SendMessageUseCase {
	if pub == nil {
		pub = noopPublisher{}
	}
	if seq == nil {
		seq = noopSequencer{}
	}
	return &SendMessageUseCase{
		Repo:      repo,
		Publisher: pub,
		Sequencer: seq,
		Scheduler: sched,
		Log:       log,
		Now:       time.Now,
	}
}

// Execute sends/persists a new message for a conversation
func (uc *SendMessageUseCase) Execute(ctx context.Context, in SendMessageInput) (*SendMessageOutput, error) {
	if _, err := loadForParticipant(ctx, uc.Repo, in.ConversationID, in.SenderID); err != nil {
		return nil, err
	}

	msg, err := chat.NewMessage(in.ConversationID, in.SenderID, in.Content, in.ClientID)
	if err != nil {
		return nil, err
	}

	out, err := uc.appendAndPublish(ctx, *msg, in.ExcludeChannelID)
	if err != nil {
		return nil, err
	}
	metrics.RecordAppend(out.Replayed)

	if !out.Replayed && uc.Scheduler != nil {
		if err := uc.Scheduler.ScheduleUnread(ctx, out.Message); err != nil {
			uc.Log.Warn().Err(err).
				Str("conversation_id", out.Message.ConversationID).
				Str("message_id", out.Message.ID).
				Msg("schedule unread notification")
		}
	}
	return out, nil
}

// appendAndPublish holds the conversation's sequencer key so local fan-out
// follows append order. Replays are not published again.
func (uc *SendMessageUseCase) appendAndPublish(ctx context.Context, msg chat.Message, exclude string) (*SendMessageOutput, error) {
	release := uc.Sequencer.Acquire(msg.ConversationID)
	defer release()

	stored, replayed, err := uc.Repo.AppendMessage(ctx, msg, uc.Now().UTC())
	if err != nil {
		return nil, storeError(err)
	}
	out := &SendMessageOutput{Message: *stored, Replayed: replayed}
	if !replayed {
		out.Delivered = uc.Publisher.Publish(ctx, stored.ConversationID, *stored, exclude)
	}
	return out, nil
}
