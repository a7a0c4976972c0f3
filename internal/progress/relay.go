package progress

import (
	"context"
	"sync"
	"time"
)

// Relay is an unbounded FIFO between one producing worker and one consuming
// loop. The worker calls Push without ever blocking; the consumer polls with
// TryPop or drives a Forward loop. Close marks the stream complete; events
// pushed before Close remain poppable afterwards.
type Relay struct {
	mu     sync.Mutex
	queue  []Event
	closed bool
}

func NewRelay() *Relay {
	return &Relay{}
}

func (r *Relay) Push(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.queue = append(r.queue, e)
}

// TryPop returns the oldest pending event. ok is false when the queue is
// momentarily empty; done is true once the relay is closed and drained.
func (r *Relay) TryPop() (e Event, ok bool, done bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.queue) > 0 {
		e = r.queue[0]
		r.queue = r.queue[1:]
		return e, true, false
	}
	return Event{}, false, r.closed
}

func (r *Relay) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
}

// Len reports the number of pending events.
func (r *Relay) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queue)
}

// Forward drains the relay into sink until the relay closes or ctx is
// cancelled. While the queue is empty it sleeps poll between checks and
// emits a heartbeat event whenever heartbeat elapses with no traffic.
func (r *Relay) Forward(ctx context.Context, poll, heartbeat time.Duration, sink Sink) error {
	lastSent := time.Now()
	for {
		e, ok, done := r.TryPop()
		if ok {
			sink.Emit(e)
			lastSent = time.Now()
			continue
		}
		if done {
			return nil
		}
		if time.Since(lastSent) >= heartbeat {
			sink.Emit(Heartbeat())
			lastSent = time.Now()
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(poll):
		}
	}
}
