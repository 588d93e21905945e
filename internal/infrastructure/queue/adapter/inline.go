package adapter

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Team-7-graduated-project/HelloB-sub001/internal/infrastructure/queue/port"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var errInlineStopped = errors.New("inline queue: stopped")

// InlineQueue runs tasks inside the current process. It is both the Client and
// the Server of a single-node deployment; delayed tasks are held in timers and
// lost on restart.
type InlineQueue struct {
	mu       sync.Mutex
	handlers map[string]port.Handler
	timers   map[string]*time.Timer
	stopped  bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	log    zerolog.Logger

	// retryInterval is the first backoff step between attempts.
	retryInterval time.Duration
}

var (
	_ port.Client = (*InlineQueue)(nil)
	_ port.Server = (*InlineQueue)(nil)
)

func NewInlineQueue(log zerolog.Logger) *InlineQueue {
	ctx, cancel := context.WithCancel(context.Background())
	return &InlineQueue{
		handlers:      make(map[string]port.Handler),
		timers:        make(map[string]*time.Timer),
		ctx:           ctx,
		cancel:        cancel,
		log:           log,
		retryInterval: 500 * time.Millisecond,
	}
}

func (q *InlineQueue) Register(taskType string, h port.Handler) {
	q.mu.Lock()
	q.handlers[taskType] = h
	q.mu.Unlock()
}

func (q *InlineQueue) Enqueue(ctx context.Context, t port.Task, opts ...port.EnqueueOption) (string, error) {
	if t.Type == "" {
		return "", errors.New("inline queue: task type is required")
	}
	var op port.EnqueueOption
	if len(opts) > 0 {
		op = opts[0]
	}
	delay := op.ProcessIn
	if !op.ProcessAt.IsZero() {
		delay = time.Until(op.ProcessAt)
	}
	if delay < 0 {
		delay = 0
	}

	id := uuid.NewString()

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.stopped {
		return "", errInlineStopped
	}
	q.wg.Add(1)
	q.timers[id] = time.AfterFunc(delay, func() {
		defer q.wg.Done()
		q.mu.Lock()
		delete(q.timers, id)
		q.mu.Unlock()
		q.process(id, t, op.MaxRetry)
	})
	return id, nil
}

func (q *InlineQueue) process(id string, t port.Task, maxRetry int) {
	q.mu.Lock()
	h, ok := q.handlers[t.Type]
	q.mu.Unlock()
	if !ok {
		q.log.Warn().Str("task_type", t.Type).Str("task_id", id).Msg("no handler registered, dropping task")
		return
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = q.retryInterval
	var b backoff.BackOff = backoff.WithContext(backoff.WithMaxRetries(policy, uint64(max(maxRetry, 0))), q.ctx)

	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		return h(q.ctx, t)
	}, b)
	if err != nil {
		q.log.Error().Err(err).Str("task_type", t.Type).Str("task_id", id).Int("attempts", attempt).Msg("inline task failed")
	}
}

// Run blocks until ctx is cancelled, then stops the queue.
func (q *InlineQueue) Run(ctx context.Context) error {
	<-ctx.Done()
	return q.Stop(context.Background())
}

// Stop drops pending delayed tasks and waits for running ones.
func (q *InlineQueue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return nil
	}
	q.stopped = true
	for id, timer := range q.timers {
		if timer.Stop() {
			q.wg.Done()
		}
		delete(q.timers, id)
	}
	q.mu.Unlock()

	q.cancel()
	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Wait blocks until every enqueued task has run. Test helper.
func (q *InlineQueue) Wait() {
	q.wg.Wait()
}

func (q *InlineQueue) Close() error {
	return nil
}
