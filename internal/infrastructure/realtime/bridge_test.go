package realtime

import (
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBridgeEnvelope(t *testing.T) {
	local := NewRedisBridge(nil, "node-a", "", zerolog.Nop())
	remote := NewRedisBridge(nil, "node-b", "", zerolog.Nop())
	assert.Equal(t, DefaultBridgeChannel, local.channel)

	payload, err := EncodeReady("ch", "c1")
	require.NoError(t, err)

	data, err := local.pack("c1", payload, Exclusion{ChannelID: "ch-1", UserID: "alice"})
	require.NoError(t, err)

	env, isRemote, err := remote.unpack(data)
	require.NoError(t, err)
	assert.True(t, isRemote)
	assert.Equal(t, "c1", env.ConversationID)
	assert.Equal(t, Exclusion{ChannelID: "ch-1", UserID: "alice"}, env.Exclude)
	assert.JSONEq(t, string(payload), string(env.Payload))

	_, isRemote, err = local.unpack(data)
	require.NoError(t, err)
	assert.False(t, isRemote, "own envelopes are skipped")

	_, _, err = local.unpack([]byte(`{"node":"x"}`))
	assert.Error(t, err)
}

func TestEncodeFrames(t *testing.T) {
	id := "c-1"
	raw, err := EncodeError("validation_error", "message content is required", &id)
	require.NoError(t, err)

	var fr Frame
	require.NoError(t, json.Unmarshal(raw, &fr))
	assert.Equal(t, FrameError, fr.Type)
	assert.JSONEq(t, `{"code":"validation_error","message":"message content is required","clientId":"c-1"}`, string(fr.Data))
}
