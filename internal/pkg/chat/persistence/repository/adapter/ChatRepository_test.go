package adapter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Team-7-graduated-project/HelloB-sub001/internal/infrastructure/database"
	chat "github.com/Team-7-graduated-project/HelloB-sub001/internal/pkg/chat/application/domain"
	repository "github.com/Team-7-graduated-project/HelloB-sub001/internal/pkg/chat/persistence/repository/port"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func stores(t *testing.T) map[string]func(t *testing.T) repository.ChatRepository {
	return map[string]func(t *testing.T) repository.ChatRepository{
		"memory": func(t *testing.T) repository.ChatRepository {
			return NewMemoryChatRepository()
		},
		"bolt": func(t *testing.T) repository.ChatRepository {
			db, err := database.OpenBolt(filepath.Join(t.TempDir(), "chat.db"))
			require.NoError(t, err)
			t.Cleanup(func() { _ = db.Close() })
			repo, err := NewBoltChatRepository(db)
			require.NoError(t, err)
			return repo
		},
		"postgres": func(t *testing.T) repository.ChatRepository {
			return NewPgChatRepository(testPool(t))
		},
	}
}

// testPool connects to TEST_DB_URL, migrates it and empties the chat tables.
// Tests using it are skipped when the variable is unset.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DB_URL")
	if dsn == "" {
		t.Skip("TEST_DB_URL not set")
	}
	ctx := context.Background()

	_, err := database.Migrate(dsn)
	require.NoError(t, err)
	pool, err := database.Connect(ctx, dsn, database.WithMaxConns(16))
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, "TRUNCATE chat.message, chat.conversation")
	require.NoError(t, err)
	return pool
}

func mustPair(t *testing.T, a, b string) chat.Pair {
	t.Helper()
	p, err := chat.NewPair(a, b)
	require.NoError(t, err)
	return p
}

func newMsg(conversationID, sender, content string, clientID *string) chat.Message {
	return chat.Message{ConversationID: conversationID, SenderID: sender, Content: content, DedupeKey: clientID}
}

func strPtr(s string) *string { return &s }

func TestChatRepositoryContract(t *testing.T) {
	for name, open := range stores(t) {
		t.Run(name, func(t *testing.T) {
			t.Run("find or create is idempotent", func(t *testing.T) {
				repo := open(t)
				ctx := context.Background()

				first, created, err := repo.FindOrCreateConversation(ctx, mustPair(t, "guest", "host"), t0)
				require.NoError(t, err)
				assert.True(t, created)
				assert.NotEmpty(t, first.ID)
				assert.True(t, t0.Equal(first.LastActivity))
				assert.Empty(t, first.Messages)

				second, created, err := repo.FindOrCreateConversation(ctx, mustPair(t, "host", "guest"), t0.Add(time.Hour))
				require.NoError(t, err)
				assert.False(t, created)
				assert.Equal(t, first.ID, second.ID)
			})

			t.Run("concurrent find or create yields one conversation", func(t *testing.T) {
				repo := open(t)
				ctx := context.Background()

				const workers = 16
				pairs := []chat.Pair{mustPair(t, "guest", "host"), mustPair(t, "host", "guest")}
				ids := make([]string, workers)
				var wg sync.WaitGroup
				for i := 0; i < workers; i++ {
					wg.Add(1)
					go func(i int) {
						defer wg.Done()
						conv, _, err := repo.FindOrCreateConversation(ctx, pairs[i%2], t0)
						assert.NoError(t, err)
						if conv != nil {
							ids[i] = conv.ID
						}
					}(i)
				}
				wg.Wait()

				for _, id := range ids {
					assert.Equal(t, ids[0], id)
				}
				convs, err := repo.ListConversationsByUser(ctx, "guest")
				require.NoError(t, err)
				assert.Len(t, convs, 1)
			})

			t.Run("append assigns sequence and bumps activity", func(t *testing.T) {
				repo := open(t)
				ctx := context.Background()
				conv, _, err := repo.FindOrCreateConversation(ctx, mustPair(t, "guest", "host"), t0)
				require.NoError(t, err)

				var last *chat.Message
				for i := 1; i <= 5; i++ {
					sender := "guest"
					if i%2 == 0 {
						sender = "host"
					}
					last, _, err = repo.AppendMessage(ctx, newMsg(conv.ID, sender, fmt.Sprintf("m%d", i), nil), t0.Add(time.Duration(i)*time.Minute))
					require.NoError(t, err)
					assert.Equal(t, int64(i), last.Seq)
					assert.False(t, last.Read)
					assert.True(t, last.IsActive)
					assert.False(t, last.IsDeleted)
				}

				msgs, err := repo.GetMessages(ctx, conv.ID, 0, 0)
				require.NoError(t, err)
				require.Len(t, msgs, 5)
				for i, m := range msgs {
					assert.Equal(t, fmt.Sprintf("m%d", i+1), m.Content)
					assert.Equal(t, int64(i+1), m.Seq)
				}

				got, err := repo.GetConversation(ctx, conv.ID)
				require.NoError(t, err)
				assert.True(t, got.LastActivity.Equal(last.CreatedAt))
				assert.Equal(t, int64(5), got.LastSeq)
			})

			t.Run("timestamps never go backwards", func(t *testing.T) {
				repo := open(t)
				ctx := context.Background()
				conv, _, err := repo.FindOrCreateConversation(ctx, mustPair(t, "guest", "host"), t0)
				require.NoError(t, err)

				first, _, err := repo.AppendMessage(ctx, newMsg(conv.ID, "guest", "later", nil), t0.Add(time.Hour))
				require.NoError(t, err)
				second, _, err := repo.AppendMessage(ctx, newMsg(conv.ID, "host", "skewed clock", nil), t0)
				require.NoError(t, err)

				assert.False(t, second.CreatedAt.Before(first.CreatedAt))
				assert.Greater(t, second.Seq, first.Seq)
			})

			t.Run("failed append leaves state untouched", func(t *testing.T) {
				repo := open(t)
				ctx := context.Background()
				conv, _, err := repo.FindOrCreateConversation(ctx, mustPair(t, "guest", "host"), t0)
				require.NoError(t, err)

				_, _, err = repo.AppendMessage(ctx, newMsg(conv.ID, "stranger", "hi", nil), t0.Add(time.Minute))
				assert.ErrorIs(t, err, chat.ErrNotParticipant)
				assert.ErrorIs(t, err, chat.ErrForbidden)

				_, _, err = repo.AppendMessage(ctx, newMsg(conv.ID, "guest", "", nil), t0.Add(time.Minute))
				assert.ErrorIs(t, err, chat.ErrEmptyMessage)

				_, _, err = repo.AppendMessage(ctx, newMsg("missing", "guest", "hi", nil), t0.Add(time.Minute))
				assert.ErrorIs(t, err, chat.ErrNotFound)

				got, err := repo.GetConversation(ctx, conv.ID)
				require.NoError(t, err)
				assert.True(t, t0.Equal(got.LastActivity))
				assert.Zero(t, got.LastSeq)
				msgs, err := repo.GetMessages(ctx, conv.ID, 0, 0)
				require.NoError(t, err)
				assert.Empty(t, msgs)
			})

			t.Run("client id replays the stored message", func(t *testing.T) {
				repo := open(t)
				ctx := context.Background()
				conv, _, err := repo.FindOrCreateConversation(ctx, mustPair(t, "guest", "host"), t0)
				require.NoError(t, err)

				first, replayed, err := repo.AppendMessage(ctx, newMsg(conv.ID, "guest", "hello", strPtr("c-1")), t0.Add(time.Minute))
				require.NoError(t, err)
				assert.False(t, replayed)

				again, replayed, err := repo.AppendMessage(ctx, newMsg(conv.ID, "guest", "hello", strPtr("c-1")), t0.Add(2*time.Minute))
				require.NoError(t, err)
				assert.True(t, replayed)
				assert.Equal(t, first.ID, again.ID)
				assert.Equal(t, first.Seq, again.Seq)

				// Same client id from the other participant is a different message.
				other, replayed, err := repo.AppendMessage(ctx, newMsg(conv.ID, "host", "hello", strPtr("c-1")), t0.Add(3*time.Minute))
				require.NoError(t, err)
				assert.False(t, replayed)
				assert.Equal(t, int64(2), other.Seq)
			})

			t.Run("get messages after seq with limit", func(t *testing.T) {
				repo := open(t)
				ctx := context.Background()
				conv, _, err := repo.FindOrCreateConversation(ctx, mustPair(t, "guest", "host"), t0)
				require.NoError(t, err)
				for i := 1; i <= 6; i++ {
					_, _, err := repo.AppendMessage(ctx, newMsg(conv.ID, "guest", fmt.Sprintf("m%d", i), nil), t0.Add(time.Duration(i)*time.Second))
					require.NoError(t, err)
				}

				msgs, err := repo.GetMessages(ctx, conv.ID, 2, 3)
				require.NoError(t, err)
				require.Len(t, msgs, 3)
				assert.Equal(t, []int64{3, 4, 5}, []int64{msgs[0].Seq, msgs[1].Seq, msgs[2].Seq})

				msgs, err = repo.GetMessages(ctx, conv.ID, 6, 0)
				require.NoError(t, err)
				assert.Empty(t, msgs)

				one, err := repo.GetMessage(ctx, conv.ID, msgs0(t, repo, conv.ID).ID)
				require.NoError(t, err)
				assert.Equal(t, int64(1), one.Seq)

				_, err = repo.GetMessage(ctx, conv.ID, "nope")
				assert.ErrorIs(t, err, chat.ErrMessageNotFound)

				_, err = repo.GetMessages(ctx, "nope", 0, 0)
				assert.ErrorIs(t, err, chat.ErrConversationNotFound)
			})

			t.Run("mark read flips only received messages", func(t *testing.T) {
				repo := open(t)
				ctx := context.Background()
				conv, _, err := repo.FindOrCreateConversation(ctx, mustPair(t, "guest", "host"), t0)
				require.NoError(t, err)
				for i, sender := range []string{"guest", "host", "guest", "guest"} {
					_, _, err := repo.AppendMessage(ctx, newMsg(conv.ID, sender, "x", nil), t0.Add(time.Duration(i+1)*time.Second))
					require.NoError(t, err)
				}

				n, err := repo.MarkRead(ctx, conv.ID, "host", 3)
				require.NoError(t, err)
				assert.Equal(t, int64(2), n)

				n, err = repo.MarkRead(ctx, conv.ID, "host", 0)
				require.NoError(t, err)
				assert.Equal(t, int64(1), n)

				_, err = repo.MarkRead(ctx, conv.ID, "stranger", 0)
				assert.ErrorIs(t, err, chat.ErrNotParticipant)

				convs, err := repo.ListConversationsByUser(ctx, "host")
				require.NoError(t, err)
				require.Len(t, convs, 1)
				assert.Zero(t, convs[0].UnreadFor("host"))
				assert.Equal(t, 1, convs[0].UnreadFor("guest"))
				for _, m := range convs[0].Messages {
					assert.Equal(t, m.SenderID == "guest", m.Read)
				}
			})

			t.Run("list orders by last activity", func(t *testing.T) {
				repo := open(t)
				ctx := context.Background()
				a, _, err := repo.FindOrCreateConversation(ctx, mustPair(t, "guest", "host-a"), t0)
				require.NoError(t, err)
				b, _, err := repo.FindOrCreateConversation(ctx, mustPair(t, "guest", "host-b"), t0.Add(time.Minute))
				require.NoError(t, err)
				_, _, err = repo.FindOrCreateConversation(ctx, mustPair(t, "other", "host-b"), t0)
				require.NoError(t, err)

				convs, err := repo.ListConversationsByUser(ctx, "guest")
				require.NoError(t, err)
				require.Len(t, convs, 2)
				assert.Equal(t, b.ID, convs[0].ID)

				_, _, err = repo.AppendMessage(ctx, newMsg(a.ID, "host-a", "ping", nil), t0.Add(time.Hour))
				require.NoError(t, err)

				convs, err = repo.ListConversationsByUser(ctx, "guest")
				require.NoError(t, err)
				require.Len(t, convs, 2)
				assert.Equal(t, a.ID, convs[0].ID)
				require.Len(t, convs[0].Messages, 1)
				assert.Equal(t, "ping", convs[0].Messages[0].Content)
				assert.Empty(t, convs[1].Messages)

				none, err := repo.ListConversationsByUser(ctx, "nobody")
				require.NoError(t, err)
				assert.Empty(t, none)
			})
		})
	}
}

func msgs0(t *testing.T, repo repository.ChatRepository, conversationID string) chat.Message {
	t.Helper()
	msgs, err := repo.GetMessages(context.Background(), conversationID, 0, 1)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	return msgs[0]
}
