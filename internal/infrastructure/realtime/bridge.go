package realtime

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/Team-7-graduated-project/HelloB-sub001/internal/infrastructure/metrics"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// DefaultBridgeChannel is the pub/sub channel shared by every node.
const DefaultBridgeChannel = "chat:fanout"

type envelope struct {
	Node           string          `json:"node"`
	ConversationID string          `json:"conversationId"`
	Exclude        Exclusion       `json:"exclude"`
	Payload        json.RawMessage `json:"payload"`
}

// RedisBridge relays encoded frames between nodes over Redis pub/sub so a
// message appended on one node reaches channels held by another.
type RedisBridge struct {
	client  *redis.Client
	nodeID  string
	channel string
	log     zerolog.Logger
}

var _ Bridge = (*RedisBridge)(nil)

func NewRedisBridge(client *redis.Client, nodeID, channel string, log zerolog.Logger) *RedisBridge {
	if channel == "" {
		channel = DefaultBridgeChannel
	}
	return &RedisBridge{client: client, nodeID: nodeID, channel: channel, log: log}
}

func (b *RedisBridge) Forward(ctx context.Context, conversationID string, payload []byte, exclude Exclusion) error {
	data, err := b.pack(conversationID, payload, exclude)
	if err != nil {
		return err
	}
	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		return err
	}
	metrics.BridgeEnvelopes.WithLabelValues("out").Inc()
	return nil
}

// Run subscribes and hands remote envelopes to deliver until ctx is done.
func (b *RedisBridge) Run(ctx context.Context, deliver func(conversationID string, payload []byte, exclude Exclusion) int) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	b.log.Info().Str("channel", b.channel).Str("node", b.nodeID).Msg("fan-out bridge subscribed")

	msgs := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return errors.New("bridge subscription closed")
			}
			env, remote, err := b.unpack([]byte(msg.Payload))
			if err != nil {
				b.log.Warn().Err(err).Msg("drop malformed bridge envelope")
				continue
			}
			if !remote {
				continue
			}
			metrics.BridgeEnvelopes.WithLabelValues("in").Inc()
			deliver(env.ConversationID, env.Payload, env.Exclude)
		}
	}
}

func (b *RedisBridge) pack(conversationID string, payload []byte, exclude Exclusion) ([]byte, error) {
	return json.Marshal(envelope{
		Node:           b.nodeID,
		ConversationID: conversationID,
		Exclude:        exclude,
		Payload:        payload,
	})
}

// unpack decodes an envelope and reports whether it came from another node.
func (b *RedisBridge) unpack(data []byte) (envelope, bool, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return env, false, err
	}
	if env.ConversationID == "" {
		return env, false, errors.New("envelope without conversation")
	}
	return env, env.Node != b.nodeID, nil
}
