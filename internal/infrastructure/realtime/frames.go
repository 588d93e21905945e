package realtime

import (
	"encoding/json"

	chat "github.com/Team-7-graduated-project/HelloB-sub001/internal/pkg/chat/application/domain"
)

// Frame types exchanged over a channel.
const (
	FrameChat  = "chat"
	FrameReady = "ready"
	FrameError = "error"
)

// Frame is the JSON envelope of every websocket text frame.
type Frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// InboundChat is the data of a client-sent chat frame. Sender and Timestamp
// are accepted for compatibility and ignored.
type InboundChat struct {
	ConversationID string  `json:"conversationId"`
	Content        string  `json:"content"`
	Sender         string  `json:"sender,omitempty"`
	Timestamp      string  `json:"timestamp,omitempty"`
	ClientID       *string `json:"clientId,omitempty"`
}

type ReadyData struct {
	ChannelID      string `json:"channelId"`
	ConversationID string `json:"conversationId"`
}

type ErrorData struct {
	Code     string  `json:"code"`
	Message  string  `json:"message"`
	ClientID *string `json:"clientId,omitempty"`
}

func encode(frameType string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Frame{Type: frameType, Data: raw})
}

// EncodeChat builds the outbound frame for a stored message.
func EncodeChat(m chat.Message) ([]byte, error) {
	return encode(FrameChat, m)
}

func EncodeReady(channelID, conversationID string) ([]byte, error) {
	return encode(FrameReady, ReadyData{ChannelID: channelID, ConversationID: conversationID})
}

func EncodeError(code, message string, clientID *string) ([]byte, error) {
	return encode(FrameError, ErrorData{Code: code, Message: message, ClientID: clientID})
}
