package client

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/Team-7-graduated-project/HelloB-sub001/internal/infrastructure/realtime"
	chat "github.com/Team-7-graduated-project/HelloB-sub001/internal/pkg/chat/application/domain"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
)

// Status is the live channel state shown next to a conversation.
type Status int

const (
	StatusConnecting Status = iota
	StatusLive
	StatusReconnecting
	StatusOffline
)

func (s Status) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusLive:
		return "live"
	case StatusReconnecting:
		return "reconnecting"
	default:
		return "offline"
	}
}

var ErrNotConnected = errors.New("channel not connected")

// ChannelHandlers receive channel events. Nil handlers are skipped; they are
// called from the channel's read goroutine.
type ChannelHandlers struct {
	OnMessage func(chat.Message)
	OnStatus  func(Status)
	OnReady   func(channelID string)
	OnError   func(realtime.ErrorData)
}

// Channel keeps a websocket open to one conversation and reconnects with
// bounded exponential backoff when it drops.
type Channel struct {
	url      string
	dialer   *websocket.Dialer
	handlers ChannelHandlers

	// MaxAttempts bounds consecutive failed dials before going offline.
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration

	mu   sync.Mutex
	conn *websocket.Conn
}

func NewChannel(url string, handlers ChannelHandlers) *Channel {
	return &Channel{
		url:             url,
		dialer:          websocket.DefaultDialer,
		handlers:        handlers,
		MaxAttempts:     8,
		InitialInterval: 250 * time.Millisecond,
		MaxInterval:     10 * time.Second,
	}
}

func (ch *Channel) setStatus(s Status) {
	if ch.handlers.OnStatus != nil {
		ch.handlers.OnStatus(s)
	}
}

func (ch *Channel) policy(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = ch.InitialInterval
	b.MaxInterval = ch.MaxInterval
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(max(ch.MaxAttempts, 0))), ctx)
}

// Run connects and serves the channel until ctx is done (nil) or retries are
// exhausted (the last dial error, status Offline).
func (ch *Channel) Run(ctx context.Context) error {
	ch.setStatus(StatusConnecting)
	for {
		var conn *websocket.Conn
		err := backoff.Retry(func() error {
			c, resp, err := ch.dialer.DialContext(ctx, ch.url, nil)
			if err != nil {
				// A refused upgrade (403/404/401) will not heal by retrying.
				if resp != nil && resp.StatusCode >= 400 && resp.StatusCode < 500 {
					return backoff.Permanent(err)
				}
				return err
			}
			conn = c
			return nil
		}, ch.policy(ctx))
		if ctx.Err() != nil {
			ch.setStatus(StatusOffline)
			return nil
		}
		if err != nil {
			ch.setStatus(StatusOffline)
			return err
		}

		ch.serve(ctx, conn)
		if ctx.Err() != nil {
			ch.setStatus(StatusOffline)
			return nil
		}
		ch.setStatus(StatusReconnecting)
	}
}

func (ch *Channel) serve(ctx context.Context, conn *websocket.Conn) {
	ch.mu.Lock()
	ch.conn = conn
	ch.mu.Unlock()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer func() {
		stop()
		ch.mu.Lock()
		ch.conn = nil
		ch.mu.Unlock()
		_ = conn.Close()
	}()

	ch.setStatus(StatusLive)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		ch.dispatch(data)
	}
}

func (ch *Channel) dispatch(data []byte) {
	var frame realtime.Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		return
	}
	switch frame.Type {
	case realtime.FrameChat:
		var m chat.Message
		if err := json.Unmarshal(frame.Data, &m); err == nil && ch.handlers.OnMessage != nil {
			ch.handlers.OnMessage(m)
		}
	case realtime.FrameReady:
		var r realtime.ReadyData
		if err := json.Unmarshal(frame.Data, &r); err == nil && ch.handlers.OnReady != nil {
			ch.handlers.OnReady(r.ChannelID)
		}
	case realtime.FrameError:
		var e realtime.ErrorData
		if err := json.Unmarshal(frame.Data, &e); err == nil && ch.handlers.OnError != nil {
			ch.handlers.OnError(e)
		}
	}
}

// SendChat submits a message over the socket instead of REST.
func (ch *Channel) SendChat(conversationID, content string, clientID *string) error {
	raw, err := json.Marshal(realtime.InboundChat{ConversationID: conversationID, Content: content, ClientID: clientID})
	if err != nil {
		return err
	}
	frame, err := json.Marshal(realtime.Frame{Type: realtime.FrameChat, Data: raw})
	if err != nil {
		return err
	}

	ch.mu.Lock()
	defer ch.mu.Unlock()
	if ch.conn == nil {
		return ErrNotConnected
	}
	return ch.conn.WriteMessage(websocket.TextMessage, frame)
}
