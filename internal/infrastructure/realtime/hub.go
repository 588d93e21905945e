package realtime

import (
	"context"
	"sync"

	"github.com/Team-7-graduated-project/HelloB-sub001/internal/infrastructure/metrics"
	chat "github.com/Team-7-graduated-project/HelloB-sub001/internal/pkg/chat/application/domain"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// MembershipChecker reports whether userID may watch conversationID. It returns
// a chat.ErrNotFound or chat.ErrForbidden kind when not.
type MembershipChecker interface {
	CheckMembership(ctx context.Context, conversationID, userID string) error
}

// Bridge forwards encoded frames to the other nodes of a deployment.
type Bridge interface {
	Forward(ctx context.Context, conversationID string, payload []byte, exclude Exclusion) error
}

// Exclusion names the sender's own channel, which already has the message.
// It only applies to a channel registered by that same user, so nobody can
// mute someone else's channel by naming it.
type Exclusion struct {
	ChannelID string `json:"channelId,omitempty"`
	UserID    string `json:"userId,omitempty"`
}

func (e Exclusion) skips(ch Channel) bool {
	return e.ChannelID != "" && ch.ID() == e.ChannelID && ch.UserID() == e.UserID
}

// Hub tracks registered channels by conversation and fans stored messages out
// to them.
type Hub struct {
	mu       sync.RWMutex
	channels map[string]Channel            // channelID -> channel
	rooms    map[string]map[string]Channel // conversationID -> channelID -> channel
	closed   bool

	members MembershipChecker
	bridge  Bridge
	log     zerolog.Logger
}

func NewHub(members MembershipChecker, log zerolog.Logger) *Hub {
	return &Hub{
		channels: make(map[string]Channel),
		rooms:    make(map[string]map[string]Channel),
		members:  members,
		log:      log,
	}
}

// SetBridge enables cross-node forwarding. Call before serving traffic.
func (h *Hub) SetBridge(b Bridge) {
	h.mu.Lock()
	h.bridge = b
	h.mu.Unlock()
}

// Register admits ch after checking its user belongs to its conversation.
func (h *Hub) Register(ctx context.Context, ch Channel) error {
	if h.members != nil {
		if err := h.members.CheckMembership(ctx, ch.ConversationID(), ch.UserID()); err != nil {
			return err
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrChannelClosed
	}
	if _, ok := h.channels[ch.ID()]; ok {
		return nil
	}
	h.channels[ch.ID()] = ch
	room := h.rooms[ch.ConversationID()]
	if room == nil {
		room = make(map[string]Channel)
		h.rooms[ch.ConversationID()] = room
	}
	room[ch.ID()] = ch
	metrics.RecordChannelRegistered()

	h.log.Debug().
		Str("channel_id", ch.ID()).
		Str("user_id", ch.UserID()).
		Str("conversation_id", ch.ConversationID()).
		Msg("channel registered")
	return nil
}

// Unregister removes ch. Safe to call more than once.
func (h *Hub) Unregister(ch Channel) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.channels[ch.ID()]; !ok {
		return
	}
	delete(h.channels, ch.ID())
	if room := h.rooms[ch.ConversationID()]; room != nil {
		delete(room, ch.ID())
		if len(room) == 0 {
			delete(h.rooms, ch.ConversationID())
		}
	}
	metrics.RecordChannelUnregistered()
	h.log.Debug().Str("channel_id", ch.ID()).Msg("channel unregistered")
}

// Publish encodes m once and delivers it to the local channels of its
// conversation, skipping excludeChannelID when it is one of the sender's
// channels, then forwards it to the bridge. It returns the local delivery count.
func (h *Hub) Publish(ctx context.Context, conversationID string, m chat.Message, excludeChannelID string) int {
	payload, err := EncodeChat(m)
	if err != nil {
		h.log.Error().Err(err).Str("message_id", m.ID).Msg("encode chat frame")
		return 0
	}
	exclude := Exclusion{ChannelID: excludeChannelID, UserID: m.SenderID}
	delivered := h.Deliver(conversationID, payload, exclude)

	h.mu.RLock()
	bridge := h.bridge
	h.mu.RUnlock()
	if bridge != nil {
		if err := bridge.Forward(ctx, conversationID, payload, exclude); err != nil {
			h.log.Warn().Err(err).Str("conversation_id", conversationID).Msg("bridge forward failed")
		}
	}
	return delivered
}

// Deliver sends an already encoded frame to local channels only.
func (h *Hub) Deliver(conversationID string, payload []byte, exclude Exclusion) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for id, ch := range h.rooms[conversationID] {
		if exclude.skips(ch) {
			continue
		}
		switch err := ch.Send(payload); err {
		case nil:
			delivered++
		case ErrBufferFull:
			metrics.DroppedChannels.Inc()
			h.log.Warn().Str("channel_id", id).Msg("channel dropped: send buffer full")
		}
	}
	metrics.Deliveries.Add(float64(delivered))
	return delivered
}

// ChannelCount returns the number of local channels of a conversation.
func (h *Hub) ChannelCount(conversationID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[conversationID])
}

// Close closes every channel with 1001 and refuses later registrations.
func (h *Hub) Close() {
	h.mu.Lock()
	channels := make([]Channel, 0, len(h.channels))
	for _, ch := range h.channels {
		channels = append(channels, ch)
	}
	h.closed = true
	h.mu.Unlock()

	for _, ch := range channels {
		ch.Close(websocket.CloseGoingAway, "server shutdown")
	}
}
