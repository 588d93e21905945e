package task

import (
	"context"
	"encoding/json"
	"time"

	qport "github.com/Team-7-graduated-project/HelloB-sub001/internal/infrastructure/queue/port"
	chat "github.com/Team-7-graduated-project/HelloB-sub001/internal/pkg/chat/application/domain"
	"github.com/Team-7-graduated-project/HelloB-sub001/internal/pkg/chat/application/usecase"
)

// NotifyUnreadTaskType is the queue task name for the delayed unread check.
const NotifyUnreadTaskType = "chat:notify_unread"

// NotifyUnreadTaskPayload is the JSON payload transported via the queue.
// Kept decoupled from domain types to avoid tight coupling with JSON tags.
type NotifyUnreadTaskPayload struct {
	ConversationID string `json:"conversationId"`
	MessageID      string `json:"messageId"`
}

// UnreadScheduler enqueues the unread check for every stored message.
type UnreadScheduler struct {
	Client   qport.Client
	Delay    time.Duration
	Queue    string
	MaxRetry int
}

var _ usecase.UnreadScheduler = (*UnreadScheduler)(nil)

func NewUnreadScheduler(client qport.Client, delay time.Duration, queue string) *UnreadScheduler {
	return &UnreadScheduler{Client: client, Delay: delay, Queue: queue, MaxRetry: 5}
}

func (s *UnreadScheduler) ScheduleUnread(ctx context.Context, m chat.Message) error {
	payload, err := json.Marshal(NotifyUnreadTaskPayload{ConversationID: m.ConversationID, MessageID: m.ID})
	if err != nil {
		return err
	}
	_, err = s.Client.Enqueue(ctx, qport.Task{Type: NotifyUnreadTaskType, Payload: payload}, qport.EnqueueOption{
		Queue:     s.Queue,
		ProcessIn: s.Delay,
		MaxRetry:  s.MaxRetry,
		UniqueTTL: s.Delay + time.Minute,
	})
	return err
}

// RegisterNotifyUnreadTask binds the task handler to the provided server.
func RegisterNotifyUnreadTask(srv qport.Server, uc *usecase.NotifyUnreadUseCase) {
	srv.Register(NotifyUnreadTaskType, func(ctx context.Context, t qport.Task) error {
		var p NotifyUnreadTaskPayload
		if err := json.Unmarshal(t.Payload, &p); err != nil {
			// malformed payload: retrying will not fix it
			uc.Log.Error().Err(err).Msg("drop malformed notify_unread payload")
			return nil
		}

		// give the store and the notifier a bounded budget per attempt
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		// Errors are retried by the queue adapter.
		_, err := uc.Execute(ctx, usecase.NotifyUnreadInput{ConversationID: p.ConversationID, MessageID: p.MessageID})
		return err
	})
}
