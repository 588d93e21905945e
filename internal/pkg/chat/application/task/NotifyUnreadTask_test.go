package task

import (
	"context"
	"sync"
	"testing"
	"time"

	qadapter "github.com/Team-7-graduated-project/HelloB-sub001/internal/infrastructure/queue/adapter"
	qport "github.com/Team-7-graduated-project/HelloB-sub001/internal/infrastructure/queue/port"
	chat "github.com/Team-7-graduated-project/HelloB-sub001/internal/pkg/chat/application/domain"
	"github.com/Team-7-graduated-project/HelloB-sub001/internal/pkg/chat/application/usecase"
	chatadapter "github.com/Team-7-graduated-project/HelloB-sub001/internal/pkg/chat/persistence/repository/adapter"
	useradapter "github.com/Team-7-graduated-project/HelloB-sub001/internal/repository/adapter"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type notices struct {
	mu  sync.Mutex
	got []usecase.UnreadNotice
}

func (n *notices) NotifyUnread(ctx context.Context, notice usecase.UnreadNotice) error {
	n.mu.Lock()
	n.got = append(n.got, notice)
	n.mu.Unlock()
	return nil
}

func TestNotifyUnreadRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := chatadapter.NewMemoryChatRepository()
	pair, err := chat.NewPair("guest", "host")
	require.NoError(t, err)
	conv, _, err := repo.FindOrCreateConversation(ctx, pair, time.Now())
	require.NoError(t, err)

	q := qadapter.NewInlineQueue(zerolog.Nop())
	defer q.Stop(ctx)

	n := &notices{}
	RegisterNotifyUnreadTask(q, usecase.NewNotifyUnreadUseCase(repo, useradapter.NewMemoryUserRepository(), n, zerolog.Nop()))

	send := usecase.NewSendMessageUseCase(repo, nil, nil, NewUnreadScheduler(q, 200*time.Millisecond, "chat"), zerolog.Nop())
	_, err = send.Execute(ctx, usecase.SendMessageInput{ConversationID: conv.ID, SenderID: "guest", Content: "ping"})
	require.NoError(t, err)
	read, err := send.Execute(ctx, usecase.SendMessageInput{ConversationID: conv.ID, SenderID: "host", Content: "pong"})
	require.NoError(t, err)
	// host's message is read before its check fires; guest's is not
	_, err = repo.MarkRead(ctx, conv.ID, "guest", read.Message.Seq)
	require.NoError(t, err)

	q.Wait()

	n.mu.Lock()
	defer n.mu.Unlock()
	require.Len(t, n.got, 1)
	assert.Equal(t, "host", n.got[0].RecipientID)
	assert.Equal(t, "ping", n.got[0].Content)
}

func TestMalformedPayloadIsDropped(t *testing.T) {
	q := qadapter.NewInlineQueue(zerolog.Nop())
	defer q.Stop(context.Background())
	n := &notices{}
	RegisterNotifyUnreadTask(q, usecase.NewNotifyUnreadUseCase(chatadapter.NewMemoryChatRepository(), nil, n, zerolog.Nop()))

	_, err := q.Enqueue(context.Background(), qport.Task{Type: NotifyUnreadTaskType, Payload: []byte("{")})
	require.NoError(t, err)
	q.Wait()
	assert.Empty(t, n.got)
}
