package client

import (
	"context"
	"sync"
	"time"

	"github.com/Team-7-graduated-project/HelloB-sub001/internal/infrastructure/realtime"
	chat "github.com/Team-7-graduated-project/HelloB-sub001/internal/pkg/chat/application/domain"
)

// DefaultPollInterval is how often a session re-fetches from the store while
// its live channel is down.
const DefaultPollInterval = 3 * time.Second

// Session binds a View to its live Channel. Whenever the channel is not live
// the view is kept current over REST.
type Session struct {
	View         *View
	Channel      *Channel
	PollInterval time.Duration

	resyncMu sync.Mutex
}

// Open loads the conversation and prepares its live channel. Call Run to
// connect. onError receives error frames; it may be nil.
func Open(ctx context.Context, c *Client, self, conversationID string, onError func(realtime.ErrorData)) (*Session, error) {
	view := NewView(c, self, conversationID)
	if err := view.Load(ctx); err != nil {
		return nil, err
	}
	return newSession(ctx, view, c.ChannelURL(conversationID), onError), nil
}

func newSession(ctx context.Context, view *View, url string, onError func(realtime.ErrorData)) *Session {
	s := &Session{View: view, PollInterval: DefaultPollInterval}
	s.Channel = NewChannel(url, ChannelHandlers{
		OnMessage: func(m chat.Message) {
			if view.Apply(m) && view.HasGap() {
				go s.resync(ctx)
			}
		},
		OnReady: view.SetChannelID,
		OnError: onError,
		OnStatus: func(st Status) {
			switch st {
			case StatusLive:
				// Anything sent before the channel came up is only in the store.
				go s.resync(ctx)
			case StatusReconnecting, StatusOffline:
				view.SetChannelID("")
				go s.resync(ctx)
			}
			view.SetStatus(st)
		},
	})
	return s
}

func (s *Session) resync(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	s.resyncMu.Lock()
	defer s.resyncMu.Unlock()
	_, _ = s.View.Resync(ctx)
}

// poll re-fetches on every tick the channel is not live.
func (s *Session) poll(ctx context.Context) {
	interval := s.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.View.Status() != StatusLive {
				s.resync(ctx)
			}
		}
	}
}

// Run serves the channel until ctx is done. When reconnects are exhausted the
// view stays Offline and keeps following the store until ctx is done; the
// channel's last error is returned then.
func (s *Session) Run(ctx context.Context) error {
	pollCtx, stop := context.WithCancel(ctx)
	defer stop()
	go s.poll(pollCtx)

	err := s.Channel.Run(ctx)
	<-ctx.Done()
	return err
}
