package queue

import (
	"sync/atomic"

	"github.com/corelog/logpp/internal/metrics"
	"github.com/corelog/logpp/pkg/errors"
)

// popper erases a Queue[T]'s element type so the poller can hold
// queues of different payload types in one registry.
type popper interface {
	tryPopAny() (any, bool)
}

func (q *Queue[T]) tryPopAny() (any, bool) {
	v, ok := q.TryPop()
	return v, ok
}

type queueEntry struct {
	queue   popper
	consume func(any)
}

type ctrlOp uint8

const (
	opAdd ctrlOp = iota
	opRemove
)

type ctrlRequest struct {
	op       ctrlOp
	entry    queueEntry
	queueID  uint64
	response chan ctrlResponse
}

type ctrlResponse struct {
	queueID uint64
	drained int
	err     error
}

// Poller is the single goroutine that drains every registered queue and
// hands each popped value to its owning consumer. Registration traffic
// (AddQueue/RemoveQueue) runs over a buffered control channel rather than
// the lock-free data path used for records, since it is rare and never
// hot-path: a plain Go channel gives request/response semantics for free.
type Poller struct {
	control chan ctrlRequest
	stop    chan struct{}
	done    chan struct{}
	running int32

	entries map[uint64]queueEntry
	nextID  uint64
}

// NewPoller constructs a Poller and starts its drain goroutine.
func NewPoller() *Poller {
	p := &Poller{
		control: make(chan ctrlRequest, 64),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
		entries: make(map[uint64]queueEntry),
		running: 1,
	}
	go p.run()
	return p
}

func (p *Poller) run() {
	defer close(p.done)

	var b backoff
	for {
		select {
		case req := <-p.control:
			p.handleControl(req)
			continue
		case <-p.stop:
			// Final drain: a producer may have pushed records between its
			// last observed pop and Stop() being called. Keep sweeping
			// every registered queue until a full pass makes no progress
			// before exiting, so no record pushed before Stop is lost.
			for p.drainOnce() {
			}
			return
		default:
		}

		if p.drainOnce() {
			metrics.PollerIdle.Set(0)
			b.reset()
		} else {
			metrics.PollerIdle.Set(1)
			b.wait()
		}
	}
}

func (p *Poller) drainOnce() bool {
	progressed := false
	for _, entry := range p.entries {
		if v, ok := entry.queue.tryPopAny(); ok {
			entry.consume(v)
			progressed = true
		}
	}
	return progressed
}

func (p *Poller) handleControl(req ctrlRequest) {
	switch req.op {
	case opAdd:
		id := p.nextID
		p.nextID++
		p.entries[id] = req.entry
		if req.response != nil {
			req.response <- ctrlResponse{queueID: id}
		}

	case opRemove:
		entry, ok := p.entries[req.queueID]
		drained := 0
		if ok {
			delete(p.entries, req.queueID)
			for {
				v, ok := entry.queue.tryPopAny()
				if !ok {
					break
				}
				entry.consume(v)
				drained++
			}
		}
		if req.response != nil {
			req.response <- ctrlResponse{drained: drained}
		}
	}
}

// AddQueue registers q with the poller; every value popped from it is
// handed to consume. It returns an opaque id for later RemoveQueue calls,
// or PollerNotRunning if the poller has already been stopped.
func AddQueue[T any](p *Poller, q *Queue[T], consume func(T)) (uint64, error) {
	resp := make(chan ctrlResponse, 1)
	req := ctrlRequest{
		op: opAdd,
		entry: queueEntry{
			queue:   q,
			consume: func(v any) { consume(v.(T)) },
		},
		response: resp,
	}

	if err := p.send(req); err != nil {
		return 0, err
	}

	select {
	case r := <-resp:
		return r.queueID, r.err
	case <-p.done:
		return 0, errors.PollerNotRunning
	}
}

// RemoveQueue unregisters the queue identified by id. It drains any
// values still queued at the moment of removal itself, through the same
// consume function, and returns how many it drained. Returns
// PollerNotRunning if the poller has already stopped.
func (p *Poller) RemoveQueue(id uint64) (int, error) {
	resp := make(chan ctrlResponse, 1)
	req := ctrlRequest{op: opRemove, queueID: id, response: resp}

	if err := p.send(req); err != nil {
		return 0, err
	}

	select {
	case r := <-resp:
		return r.drained, r.err
	case <-p.done:
		return 0, errors.PollerNotRunning
	}
}

func (p *Poller) send(req ctrlRequest) error {
	if atomic.LoadInt32(&p.running) == 0 {
		return errors.PollerNotRunning
	}
	select {
	case p.control <- req:
		return nil
	case <-p.done:
		return errors.PollerNotRunning
	}
}

// Stop halts the drain goroutine and waits for it to exit. Idempotent;
// calling Stop more than once is a no-op after the first.
func (p *Poller) Stop() {
	if !atomic.CompareAndSwapInt32(&p.running, 1, 0) {
		return
	}
	close(p.stop)
	<-p.done
}
