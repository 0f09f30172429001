// Package queue implements the bounded, lock-free multi-producer queue
// that carries records from logger call sites to the poller goroutine
// draining them into sinks, plus the poller itself.
package queue

import (
	"runtime"
	"sync/atomic"
	"time"
)

// cell is one ring-buffer slot. sequence tracks whether the slot is free
// to write, written-but-unread, or read-and-free-again; comparing it
// against a producer/consumer's claimed position is what makes the
// algorithm lock-free. Ported from Dmitry Vyukov's bounded MPMC queue
// design (used here single-consumer, which the algorithm subsumes).
type cell[T any] struct {
	sequence uint64
	data     T
}

// Queue is a bounded, power-of-two-capacity ring buffer of T, safe for
// any number of concurrent producers and a single consumer. It never
// allocates on the hot path after construction.
type Queue[T any] struct {
	mask       uint64
	cells      []cell[T]
	enqueuePos uint64
	dequeuePos uint64
}

// New returns a Queue whose capacity is the next power of two >= capacityHint
// (minimum 2).
func New[T any](capacityHint int) *Queue[T] {
	capacity := nextPowerOfTwo(capacityHint)

	q := &Queue[T]{
		mask:  uint64(capacity - 1),
		cells: make([]cell[T], capacity),
	}
	for i := range q.cells {
		q.cells[i].sequence = uint64(i)
	}
	return q
}

func nextPowerOfTwo(n int) int {
	if n < 2 {
		return 2
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// Cap returns the queue's fixed slot count.
func (q *Queue[T]) Cap() int {
	return len(q.cells)
}

// Len estimates the number of items currently queued. It is a snapshot,
// not an atomic read of both cursors together, and is intended for
// metrics rather than control flow.
func (q *Queue[T]) Len() int {
	enq := atomic.LoadUint64(&q.enqueuePos)
	deq := atomic.LoadUint64(&q.dequeuePos)
	if enq < deq {
		return 0
	}
	return int(enq - deq)
}

// TryPush attempts a non-blocking push, returning false if the queue is
// currently full.
func (q *Queue[T]) TryPush(v T) bool {
	var c *cell[T]
	pos := atomic.LoadUint64(&q.enqueuePos)

	for {
		c = &q.cells[pos&q.mask]
		seq := atomic.LoadUint64(&c.sequence)

		switch diff := int64(seq) - int64(pos); {
		case diff == 0:
			if atomic.CompareAndSwapUint64(&q.enqueuePos, pos, pos+1) {
				c.data = v
				atomic.StoreUint64(&c.sequence, pos+1)
				return true
			}
		case diff < 0:
			return false
		default:
			pos = atomic.LoadUint64(&q.enqueuePos)
		}
	}
}

// Push blocks until v is accepted, escalating from a tight spin to
// cooperative yielding to short sleeps while the queue is full.
func (q *Queue[T]) Push(v T) {
	var b backoff
	for !q.TryPush(v) {
		b.wait()
	}
}

// TryPop attempts a non-blocking pop, returning false if the queue is
// currently empty. Only safe to call from a single consumer goroutine
// (the poller); concurrent TryPop calls would themselves be safe under
// this algorithm but logpp never needs more than one consumer.
func (q *Queue[T]) TryPop() (T, bool) {
	var c *cell[T]
	pos := atomic.LoadUint64(&q.dequeuePos)

	for {
		c = &q.cells[pos&q.mask]
		seq := atomic.LoadUint64(&c.sequence)

		switch diff := int64(seq) - int64(pos+1); {
		case diff == 0:
			if atomic.CompareAndSwapUint64(&q.dequeuePos, pos, pos+1) {
				data := c.data
				var zero T
				c.data = zero
				atomic.StoreUint64(&c.sequence, pos+q.mask+1)
				return data, true
			}
		case diff < 0:
			var zero T
			return zero, false
		default:
			pos = atomic.LoadUint64(&q.dequeuePos)
		}
	}
}

// backoff implements the idle-escalation policy used by blocking pushes
// and the poller's drain loop: spin, then cooperatively yield, then sleep
// for increasing durations capped at one millisecond.
type backoff struct {
	n int
}

func (b *backoff) wait() {
	switch {
	case b.n < 10:
		// busy spin: return and retry at once
	case b.n < 30:
		runtime.Gosched()
	case b.n < 60:
		time.Sleep(0)
	default:
		time.Sleep(time.Millisecond)
	}
	if b.n < 1<<20 {
		b.n++
	}
}

func (b *backoff) reset() {
	b.n = 0
}
