package queue_test

import (
	"sync"
	"testing"

	"github.com/corelog/logpp/internal/buffer"
	"github.com/corelog/logpp/internal/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEvent(t *testing.T, n int) *buffer.Event {
	t.Helper()
	e := buffer.New()
	timeOff := e.WriteInt64(int64(n))
	threadOff := e.WriteUint64(0)
	msgOff, err := e.WriteString("x")
	require.NoError(t, err)
	e.FinalizeLogRecord(buffer.LogRecordOffsets{Time: timeOff, Thread: threadOff, Message: msgOff})
	return e
}

func TestQueueCapacityRoundsUpToPowerOfTwo(t *testing.T) {
	q := queue.New[*buffer.Event](10)
	assert.Equal(t, 16, q.Cap())
}

func TestTryPushTryPopFIFO(t *testing.T) {
	q := queue.New[*buffer.Event](4)

	for i := 0; i < 4; i++ {
		require.True(t, q.TryPush(newEvent(t, i)))
	}
	assert.False(t, q.TryPush(newEvent(t, 99)))

	for i := 0; i < 4; i++ {
		e, ok := q.TryPop()
		require.True(t, ok)
		assert.Equal(t, int64(i), e.Time().UnixNano())
	}

	_, ok := q.TryPop()
	assert.False(t, ok)
}

func TestConcurrentProducersPreserveCount(t *testing.T) {
	q := queue.New[*buffer.Event](1024)
	const producers = 8
	const perProducer = 2000

	var wg sync.WaitGroup
	wg.Add(producers)
	for p := 0; p < producers; p++ {
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Push(newEvent(t, p*perProducer+i))
			}
		}(p)
	}

	received := 0
	done := make(chan struct{})
	go func() {
		for received < producers*perProducer {
			if _, ok := q.TryPop(); ok {
				received++
			}
		}
		close(done)
	}()

	wg.Wait()
	<-done
	assert.Equal(t, producers*perProducer, received)
}
