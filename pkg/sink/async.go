package sink

import (
	"github.com/corelog/logpp/internal/buffer"
	"github.com/corelog/logpp/internal/metrics"
	"github.com/corelog/logpp/internal/queue"
	"github.com/corelog/logpp/pkg/level"
)

// record is the envelope carried by an AsyncSink's queue: the routing
// metadata a sink needs (logger name, level) alongside the event itself.
type record struct {
	name string
	lvl  level.Level
	e    *buffer.Event
}

// AsyncSink makes any Sink non-blocking on the producer side: Write
// enqueues a clone of the event and returns immediately, and the poller
// goroutine registered at construction drains the queue into the
// wrapped sink. Producers that outrun the wrapped sink block on the
// queue's bounded capacity rather than growing memory without limit,
// per the blocking push contract of queue.Queue.
type AsyncSink struct {
	inner   Sink
	poller  *queue.Poller
	queue   *queue.Queue[record]
	queueID uint64
	name    string
}

// NewAsyncSink wraps inner with a capacityHint-sized queue (rounded up
// to a power of two) drained by poller.
func NewAsyncSink(poller *queue.Poller, inner Sink, queueName string, capacityHint int) (*AsyncSink, error) {
	s := &AsyncSink{
		inner: inner,
		poller: poller,
		queue: queue.New[record](capacityHint),
		name:  queueName,
	}

	id, err := queue.AddQueue(poller, s.queue, s.consume)
	if err != nil {
		return nil, err
	}
	s.queueID = id
	return s, nil
}

// Write implements Sink. The clone is necessary because the caller may
// continue mutating or recycling its Event buffer after Write returns;
// the queued copy must be independent. Write never drops a record: if
// the queue is full it blocks the caller until the poller makes room.
func (s *AsyncSink) Write(name string, lvl level.Level, e *buffer.Event) {
	s.queue.Push(record{name: name, lvl: lvl, e: e.Clone()})
	metrics.ObserveQueueDepth(s.name, s.queue.Len())
}

func (s *AsyncSink) consume(r record) {
	s.inner.Write(r.name, r.lvl, r.e)
}

// Stop unregisters the sink's queue from the poller, draining whatever
// is still queued through the wrapped sink first, and returns how many
// records were drained that way.
func (s *AsyncSink) Stop() (int, error) {
	return s.poller.RemoveQueue(s.queueID)
}

// SetOption implements Configurable when the wrapped sink does.
func (s *AsyncSink) SetOption(key, value string) error {
	if c, ok := s.inner.(Configurable); ok {
		return c.SetOption(key, value)
	}
	return &unknownOptionError{sink: "async", key: key}
}
