package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	chat "github.com/Team-7-graduated-project/HelloB-sub001/internal/pkg/chat/application/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChannel struct {
	id, user, conv string

	mu       sync.Mutex
	frames   [][]byte
	closed   bool
	code     int
	sendFail error
}

func newFakeChannel(id, user, conv string) *fakeChannel {
	return &fakeChannel{id: id, user: user, conv: conv}
}

func (f *fakeChannel) ID() string             { return f.id }
func (f *fakeChannel) UserID() string         { return f.user }
func (f *fakeChannel) ConversationID() string { return f.conv }

func (f *fakeChannel) Send(payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendFail != nil {
		return f.sendFail
	}
	f.frames = append(f.frames, payload)
	return nil
}

func (f *fakeChannel) Close(code int, reason string) {
	f.mu.Lock()
	f.closed = true
	f.code = code
	f.mu.Unlock()
}

func (f *fakeChannel) messages(t *testing.T) []chat.Message {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]chat.Message, 0, len(f.frames))
	for _, raw := range f.frames {
		var fr Frame
		require.NoError(t, json.Unmarshal(raw, &fr))
		require.Equal(t, FrameChat, fr.Type)
		var m chat.Message
		require.NoError(t, json.Unmarshal(fr.Data, &m))
		out = append(out, m)
	}
	return out
}

type membership map[string][]string

func (m membership) CheckMembership(ctx context.Context, conversationID, userID string) error {
	users, ok := m[conversationID]
	if !ok {
		return chat.ErrConversationNotFound
	}
	for _, u := range users {
		if u == userID {
			return nil
		}
	}
	return chat.ErrNotParticipant
}

type recordingBridge struct {
	mu       sync.Mutex
	calls    []string
	excludes []Exclusion
}

func (b *recordingBridge) Forward(ctx context.Context, conversationID string, payload []byte, exclude Exclusion) error {
	b.mu.Lock()
	b.calls = append(b.calls, conversationID)
	b.excludes = append(b.excludes, exclude)
	b.mu.Unlock()
	return nil
}

func newHub() *Hub {
	return NewHub(membership{
		"c1": {"alice", "bob"},
		"c2": {"alice", "carol"},
	}, zerolog.Nop())
}

func msg(conv string, seq int64) chat.Message {
	return chat.Message{
		ID:             conv + "-" + string(rune('0'+seq)),
		ConversationID: conv,
		Seq:            seq,
		SenderID:       "alice",
		Content:        "hello",
		CreatedAt:      time.Date(2024, 5, 1, 12, 0, int(seq), 0, time.UTC),
		IsActive:       true,
	}
}

func TestHubRegisterChecksMembership(t *testing.T) {
	h := newHub()

	err := h.Register(context.Background(), newFakeChannel("x", "mallory", "c1"))
	assert.ErrorIs(t, err, chat.ErrForbidden)

	err = h.Register(context.Background(), newFakeChannel("y", "alice", "nope"))
	assert.ErrorIs(t, err, chat.ErrNotFound)

	require.NoError(t, h.Register(context.Background(), newFakeChannel("z", "bob", "c1")))
	assert.Equal(t, 1, h.ChannelCount("c1"))
}

func TestHubPublishScopedAndOrdered(t *testing.T) {
	h := newHub()
	ctx := context.Background()

	a1 := newFakeChannel("a1", "alice", "c1")
	b1 := newFakeChannel("b1", "bob", "c1")
	a2 := newFakeChannel("a2", "alice", "c2")
	for _, ch := range []*fakeChannel{a1, b1, a2} {
		require.NoError(t, h.Register(ctx, ch))
	}

	for seq := int64(1); seq <= 3; seq++ {
		assert.Equal(t, 2, h.Publish(ctx, "c1", msg("c1", seq), ""))
	}
	assert.Equal(t, 1, h.Publish(ctx, "c2", msg("c2", 1), ""))

	got := b1.messages(t)
	require.Len(t, got, 3)
	for i, m := range got {
		assert.Equal(t, int64(i+1), m.Seq)
		assert.Equal(t, "c1", m.ConversationID)
	}
	assert.Len(t, a1.messages(t), 3)

	other := a2.messages(t)
	require.Len(t, other, 1)
	assert.Equal(t, "c2", other[0].ConversationID)
}

func TestHubPublishExcludesChannel(t *testing.T) {
	h := newHub()
	ctx := context.Background()
	a := newFakeChannel("a", "alice", "c1")
	b := newFakeChannel("b", "bob", "c1")
	require.NoError(t, h.Register(ctx, a))
	require.NoError(t, h.Register(ctx, b))

	assert.Equal(t, 1, h.Publish(ctx, "c1", msg("c1", 1), "a"))
	assert.Empty(t, a.messages(t))
	assert.Len(t, b.messages(t), 1)
}

func TestHubIgnoresExclusionOfAnotherUsersChannel(t *testing.T) {
	h := newHub()
	ctx := context.Background()
	a := newFakeChannel("a", "alice", "c1")
	b := newFakeChannel("b", "bob", "c1")
	require.NoError(t, h.Register(ctx, a))
	require.NoError(t, h.Register(ctx, b))

	// alice sends but names bob's channel: bob still gets the message.
	assert.Equal(t, 2, h.Publish(ctx, "c1", msg("c1", 1), "b"))
	assert.Len(t, a.messages(t), 1)
	assert.Len(t, b.messages(t), 1)

	delivered := h.Deliver("c1", []byte(`{"type":"chat","data":{}}`), Exclusion{ChannelID: "b", UserID: "alice"})
	assert.Equal(t, 2, delivered)
	assert.Equal(t, 1, h.Deliver("c1", []byte(`{"type":"chat","data":{}}`), Exclusion{ChannelID: "b", UserID: "bob"}))
}

func TestHubUnregister(t *testing.T) {
	h := newHub()
	ctx := context.Background()
	b := newFakeChannel("b", "bob", "c1")
	require.NoError(t, h.Register(ctx, b))

	h.Unregister(b)
	h.Unregister(b)

	assert.Zero(t, h.ChannelCount("c1"))
	assert.Zero(t, h.Publish(ctx, "c1", msg("c1", 1), ""))
	assert.Empty(t, b.messages(t))
}

func TestHubSkipsFailingChannel(t *testing.T) {
	h := newHub()
	ctx := context.Background()
	slow := newFakeChannel("slow", "alice", "c1")
	slow.sendFail = ErrBufferFull
	ok := newFakeChannel("ok", "bob", "c1")
	require.NoError(t, h.Register(ctx, slow))
	require.NoError(t, h.Register(ctx, ok))

	assert.Equal(t, 1, h.Publish(ctx, "c1", msg("c1", 1), ""))

	slow.sendFail = errors.New("closed")
	assert.Equal(t, 1, h.Publish(ctx, "c1", msg("c1", 2), ""))
	assert.Len(t, ok.messages(t), 2)
}

func TestHubForwardsToBridge(t *testing.T) {
	h := newHub()
	bridge := &recordingBridge{}
	h.SetBridge(bridge)

	assert.Zero(t, h.Publish(context.Background(), "c1", msg("c1", 1), "a"))
	assert.Equal(t, []string{"c1"}, bridge.calls)
	assert.Equal(t, []Exclusion{{ChannelID: "a", UserID: "alice"}}, bridge.excludes)
}

func TestHubClose(t *testing.T) {
	h := newHub()
	ctx := context.Background()
	a := newFakeChannel("a", "alice", "c1")
	require.NoError(t, h.Register(ctx, a))

	h.Close()
	assert.True(t, a.closed)
	assert.Equal(t, 1001, a.code)

	err := h.Register(ctx, newFakeChannel("b", "bob", "c1"))
	assert.ErrorIs(t, err, ErrChannelClosed)
}
