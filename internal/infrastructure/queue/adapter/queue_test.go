package adapter

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Team-7-graduated-project/HelloB-sub001/internal/infrastructure/queue/port"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQueueWeights(t *testing.T) {
	assert.Equal(t, map[string]int{"critical": 6, "chat": 3, "low": 1}, parseQueueWeights("critical=6, chat=3,low"))
	assert.Equal(t, map[string]int{"chat": 1}, parseQueueWeights("chat=-2,=4"))
	assert.Empty(t, parseQueueWeights(""))
}

func TestInlineQueueRunsTasks(t *testing.T) {
	q := NewInlineQueue(zerolog.Nop())
	defer q.Stop(context.Background())

	got := make(chan []byte, 1)
	q.Register("chat:test", func(ctx context.Context, task port.Task) error {
		got <- task.Payload
		return nil
	})

	id, err := q.Enqueue(context.Background(), port.Task{Type: "chat:test", Payload: []byte("hi")}, port.EnqueueOption{ProcessIn: 10 * time.Millisecond})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	select {
	case p := <-got:
		assert.Equal(t, "hi", string(p))
	case <-time.After(2 * time.Second):
		t.Fatal("task did not run")
	}
}

func TestInlineQueueRetries(t *testing.T) {
	q := NewInlineQueue(zerolog.Nop())
	q.retryInterval = time.Millisecond
	defer q.Stop(context.Background())

	var calls atomic.Int32
	q.Register("chat:flaky", func(ctx context.Context, task port.Task) error {
		if calls.Add(1) < 3 {
			return errors.New("not yet")
		}
		return nil
	})

	_, err := q.Enqueue(context.Background(), port.Task{Type: "chat:flaky"}, port.EnqueueOption{MaxRetry: 5})
	require.NoError(t, err)
	q.Wait()
	assert.Equal(t, int32(3), calls.Load())
}

func TestInlineQueueStopDropsDelayed(t *testing.T) {
	q := NewInlineQueue(zerolog.Nop())

	var calls atomic.Int32
	q.Register("chat:later", func(ctx context.Context, task port.Task) error {
		calls.Add(1)
		return nil
	})

	_, err := q.Enqueue(context.Background(), port.Task{Type: "chat:later"}, port.EnqueueOption{ProcessIn: time.Hour})
	require.NoError(t, err)
	require.NoError(t, q.Stop(context.Background()))
	assert.Zero(t, calls.Load())

	_, err = q.Enqueue(context.Background(), port.Task{Type: "chat:later"})
	assert.ErrorIs(t, err, errInlineStopped)
}
