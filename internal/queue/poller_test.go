package queue_test

import (
	"sync"
	"testing"
	"time"

	"github.com/corelog/logpp/internal/buffer"
	"github.com/corelog/logpp/internal/queue"
	"github.com/corelog/logpp/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPollerDrainsInPushOrder(t *testing.T) {
	p := queue.NewPoller()
	q := queue.New[*buffer.Event](64)

	var mu sync.Mutex
	var seen []int64

	id, err := queue.AddQueue(p, q, func(e *buffer.Event) {
		mu.Lock()
		seen = append(seen, e.Time().UnixNano())
		mu.Unlock()
	})
	require.NoError(t, err)

	const n = 500
	for i := 0; i < n; i++ {
		q.Push(newEvent(t, i))
	}

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == n
	}, time.Second, time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, n)
	for i, v := range seen {
		assert.Equal(t, int64(i), v)
	}

	_, err = p.RemoveQueue(id)
	require.NoError(t, err)
	p.Stop()
}

func TestPollerRemoveQueueDrainsResidual(t *testing.T) {
	p := queue.NewPoller()
	defer p.Stop()

	q := queue.New[*buffer.Event](64)
	for i := 0; i < 5; i++ {
		require.True(t, q.TryPush(newEvent(t, i)))
	}

	var count int
	id, err := queue.AddQueue(p, q, func(*buffer.Event) { count++ })
	require.NoError(t, err)

	drained, err := p.RemoveQueue(id)
	require.NoError(t, err)
	assert.Equal(t, 5, count)
	assert.LessOrEqual(t, drained, 5)
}

func TestPollerStopDrainsResidualBeforeExit(t *testing.T) {
	p := queue.NewPoller()
	q := queue.New[*buffer.Event](256)

	var mu sync.Mutex
	var count int
	_, err := queue.AddQueue(p, q, func(*buffer.Event) {
		mu.Lock()
		count++
		mu.Unlock()
	})
	require.NoError(t, err)

	const n = 200
	for i := 0; i < n; i++ {
		require.True(t, q.TryPush(newEvent(t, i)))
	}

	// No RemoveQueue, no wait for the poller to have caught up: Stop must
	// still observe and drain every record pushed before it was called.
	p.Stop()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, n, count)
}

func TestPollerRemoveQueueAfterStopIsPollerNotRunning(t *testing.T) {
	p := queue.NewPoller()
	q := queue.New[*buffer.Event](8)

	id, err := queue.AddQueue(p, q, func(*buffer.Event) {})
	require.NoError(t, err)

	p.Stop()

	_, err = p.RemoveQueue(id)
	assert.ErrorIs(t, err, errors.PollerNotRunning)
}
