package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	v1 "github.com/Team-7-graduated-project/HelloB-sub001/cmd/api/router/v1"
	"github.com/Team-7-graduated-project/HelloB-sub001/internal/config"
	"github.com/Team-7-graduated-project/HelloB-sub001/internal/infrastructure/httpserver"
	"github.com/Team-7-graduated-project/HelloB-sub001/internal/infrastructure/realtime"
	chat "github.com/Team-7-graduated-project/HelloB-sub001/internal/pkg/chat/application/domain"
	"github.com/Team-7-graduated-project/HelloB-sub001/internal/pkg/chat/client"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		ServiceName:       "chat-test",
		Environment:       "test",
		NodeID:            "node-test",
		StoreDriver:       config.StoreMemory,
		CacheSize:         128,
		CacheTTL:          time.Minute,
		RequestTimeout:    5 * time.Second,
		ShutdownTimeout:   time.Second,
		WSWriteWait:       time.Second,
		WSPingPeriod:      time.Second,
		WSPongWait:        5 * time.Second,
		WSSendBuffer:      16,
		WSMaxMessageBytes: 1 << 16,
		WSAllowedOrigins:  []string{"*"},
		NotifyDelay:       time.Hour,
	}
}

func startServer(t *testing.T) (*Runtime, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := testConfig()
	log := zerolog.Nop()

	rt, err := New(context.Background(), cfg, log)
	require.NoError(t, err)
	server := httpserver.New(cfg, log, rt.Ready, func(engine *gin.Engine) {
		v1.RegisterRoutes(engine, rt.Validator, rt.Dependencies())
	})
	srv := httptest.NewServer(server.Handler())
	t.Cleanup(func() {
		rt.Hub.Close()
		srv.Close()
		rt.Close()
	})
	return rt, srv
}

func dial(t *testing.T, c *client.Client, conversationID string) *websocket.Conn {
	t.Helper()
	ws, _, err := websocket.DefaultDialer.Dial(c.ChannelURL(conversationID), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })

	frame := readFrame(t, ws)
	require.Equal(t, realtime.FrameReady, frame.Type)
	return ws
}

func readFrame(t *testing.T, ws *websocket.Conn) realtime.Frame {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(3*time.Second)))
	var frame realtime.Frame
	_, data, err := ws.ReadMessage()
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &frame))
	return frame
}

func readChat(t *testing.T, ws *websocket.Conn) chat.Message {
	t.Helper()
	frame := readFrame(t, ws)
	require.Equal(t, realtime.FrameChat, frame.Type, string(frame.Data))
	var m chat.Message
	require.NoError(t, json.Unmarshal(frame.Data, &m))
	return m
}

func TestLiveDelivery(t *testing.T) {
	rt, srv := startServer(t)
	ctx := context.Background()
	guest := client.New(srv.URL, client.WithUserID("guest"))
	host := client.New(srv.URL, client.WithUserID("host"))

	conv, created, err := guest.FindOrCreateConversation(ctx, "host")
	require.NoError(t, err)
	assert.True(t, created)

	again, created, err := host.FindOrCreateConversation(ctx, "guest")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, conv.ID, again.ID)

	hostWS := dial(t, host, conv.ID)
	guestWS := dial(t, guest, conv.ID)
	require.Eventually(t, func() bool { return rt.Hub.ChannelCount(conv.ID) == 2 }, time.Second, 10*time.Millisecond)

	// REST send reaches both channels.
	sent, replayed, err := guest.SendMessage(ctx, conv.ID, "is the flat free in May?", nil, "")
	require.NoError(t, err)
	assert.False(t, replayed)
	got := readChat(t, hostWS)
	assert.Equal(t, sent.ID, got.ID)
	assert.Equal(t, "guest", got.SenderID)
	assert.Equal(t, int64(1), got.Seq)
	assert.Equal(t, sent.ID, readChat(t, guestWS).ID)

	// A frame sent by the host is stored and echoed to its origin too.
	clientID := "c-1"
	raw, err := json.Marshal(realtime.InboundChat{ConversationID: conv.ID, Content: "yes it is", Sender: "spoofed", ClientID: &clientID})
	require.NoError(t, err)
	frame, err := json.Marshal(realtime.Frame{Type: realtime.FrameChat, Data: raw})
	require.NoError(t, err)
	require.NoError(t, hostWS.WriteMessage(websocket.TextMessage, frame))

	reply := readChat(t, guestWS)
	assert.Equal(t, "host", reply.SenderID)
	assert.Equal(t, int64(2), reply.Seq)
	require.NotNil(t, reply.DedupeKey)
	assert.Equal(t, "c-1", *reply.DedupeKey)
	assert.Equal(t, reply.ID, readChat(t, hostWS).ID)

	// Empty frames are answered with an error frame, not a message.
	raw, _ = json.Marshal(realtime.InboundChat{Content: "   "})
	frame, _ = json.Marshal(realtime.Frame{Type: realtime.FrameChat, Data: raw})
	require.NoError(t, hostWS.WriteMessage(websocket.TextMessage, frame))
	errFrame := readFrame(t, hostWS)
	assert.Equal(t, realtime.FrameError, errFrame.Type)

	msgs, err := guest.GetMessages(ctx, conv.ID, 0, 0)
	require.NoError(t, err)
	assert.Len(t, msgs, 2)
}

func TestMissedLiveCompensatedByInbox(t *testing.T) {
	_, srv := startServer(t)
	ctx := context.Background()
	guest := client.New(srv.URL, client.WithUserID("guest"))
	host := client.New(srv.URL, client.WithUserID("host"))

	_, err := host.UpdateProfile(ctx, "Hugo", "https://img/h.png")
	require.NoError(t, err)

	conv, _, err := guest.FindOrCreateConversation(ctx, "host")
	require.NoError(t, err)

	// host has no open channel: delivery is a no-op, the store keeps it.
	_, _, err = guest.SendMessage(ctx, conv.ID, "hello?", nil, "")
	require.NoError(t, err)

	inbox, err := host.ListConversations(ctx)
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	require.Len(t, inbox[0].Messages, 1)
	assert.Equal(t, "hello?", inbox[0].Messages[0].Content)
	assert.Equal(t, 1, inbox[0].UnreadCount)

	p, err := guest.GetParticipant(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hugo", p.Name)

	marked, err := host.MarkRead(ctx, conv.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), marked)

	inbox, err = host.ListConversations(ctx)
	require.NoError(t, err)
	assert.Zero(t, inbox[0].UnreadCount)
}

func TestIdempotentSend(t *testing.T) {
	_, srv := startServer(t)
	ctx := context.Background()
	guest := client.New(srv.URL, client.WithUserID("guest"))

	conv, _, err := guest.FindOrCreateConversation(ctx, "host")
	require.NoError(t, err)

	id := "retry-me"
	first, replayed, err := guest.SendMessage(ctx, conv.ID, "once", &id, "")
	require.NoError(t, err)
	assert.False(t, replayed)
	second, replayed, err := guest.SendMessage(ctx, conv.ID, "once", &id, "")
	require.NoError(t, err)
	assert.True(t, replayed)
	assert.Equal(t, first.ID, second.ID)

	msgs, err := guest.GetMessages(ctx, conv.ID, 0, 0)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
}

func TestAccessControl(t *testing.T) {
	_, srv := startServer(t)
	ctx := context.Background()
	guest := client.New(srv.URL, client.WithUserID("guest"))
	stranger := client.New(srv.URL, client.WithUserID("stranger"))

	conv, _, err := guest.FindOrCreateConversation(ctx, "host")
	require.NoError(t, err)

	_, err = stranger.GetConversation(ctx, conv.ID)
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
	assert.Equal(t, "forbidden_error", apiErr.Type)

	_, _, err = stranger.SendMessage(ctx, conv.ID, "let me in", nil, "")
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.Status)

	_, _, err = guest.SendMessage(ctx, conv.ID, "  ", nil, "")
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)

	_, err = guest.GetConversation(ctx, "does-not-exist")
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)

	_, resp, err := websocket.DefaultDialer.Dial(stranger.ChannelURL(conv.ID), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	anonymous := client.New(srv.URL)
	_, err = anonymous.ListConversations(ctx)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
}

func TestSessionFollowsLiveMessages(t *testing.T) {
	_, srv := startServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	guest := client.New(srv.URL, client.WithUserID("guest"))
	host := client.New(srv.URL, client.WithUserID("host"))

	conv, _, err := guest.FindOrCreateConversation(ctx, "host")
	require.NoError(t, err)
	_, _, err = host.SendMessage(ctx, conv.ID, "before open", nil, "")
	require.NoError(t, err)

	session, err := client.Open(ctx, guest, "guest", conv.ID, nil)
	require.NoError(t, err)
	go func() { _ = session.Run(ctx) }()
	require.Eventually(t, func() bool { return session.View.Status() == client.StatusLive }, 2*time.Second, 10*time.Millisecond)

	_, _, err = host.SendMessage(ctx, conv.ID, "while live", nil, "")
	require.NoError(t, err)
	_, err = session.View.Submit(ctx, "from the view")
	require.NoError(t, err)

	require.Eventually(t, func() bool { return session.View.LastSeq() == 3 }, 2*time.Second, 10*time.Millisecond)
	entries := session.View.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "before open", entries[0].Message.Content)
	assert.Equal(t, "while live", entries[1].Message.Content)
	assert.Equal(t, "from the view", entries[2].Message.Content)
}
