// Package queue buffers round requests between the HTTP layer and the worker
// that plays them against the engine.
package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cesarion161/clawgic/internal/domain/engine"
	"github.com/cesarion161/clawgic/pkg/metrics"
)

const defaultQueueCapacity = 64

// RoundRequest asks for one round to be played.
type RoundRequest struct {
	ID string `json:"request_id"`
	// Subscribers drives demand for the round.
	Subscribers int `json:"subscribers"`
	// Revenue, when positive, is deposited into the pool before the round runs.
	Revenue float64 `json:"revenue,omitempty"`
	// Golden replaces sampling from the registered Golden Set when non-empty.
	Golden []engine.GoldenPair `json:"golden,omitempty"`

	EnqueuedAt time.Time `json:"enqueued_at"`
}

// Queue provides non-blocking enqueue and channel-based dequeue.
type Queue interface {
	// Enqueue adds a request. It fails with ErrFull or ErrClosed without blocking.
	Enqueue(ctx context.Context, r RoundRequest) error
	// Dequeue returns a channel of requests that is closed once the queue is
	// closed and drained, or ctx is done. A request taken off the queue but not
	// yet delivered when ctx ends goes back to the front of the queue.
	Dequeue(ctx context.Context) <-chan RoundRequest
	// Drain removes and returns every pending request without blocking.
	Drain(ctx context.Context) []RoundRequest
	Len(ctx context.Context) int
	// Close stops new enqueues; pending requests remain readable.
	Close() error
	IsClosed() bool
}

// InMemoryQueue implements Queue with a buffered channel.
type InMemoryQueue struct {
	requests chan RoundRequest
	capacity int

	mu     sync.RWMutex
	closed bool
	// held are requests returned by a cancelled Dequeue; they precede the channel.
	held []RoundRequest
}

// NewInMemoryQueue creates a queue with the given options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.requests = make(chan RoundRequest, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

// Enqueue implements Queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, r RoundRequest) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordQueueEnqueueError()
		return err
	}
	if r.EnqueuedAt.IsZero() {
		r.EnqueuedAt = time.Now()
	}

	select {
	case q.requests <- r:
		metrics.RecordQueueEnqueue()
		metrics.UpdateQueueSize(len(q.requests) + len(q.held))
		return nil
	default:
		metrics.RecordQueueEnqueueError()
		return fmt.Errorf("%w: %d pending", ErrFull, q.capacity)
	}
}

// Dequeue implements Queue.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan RoundRequest {
	out := make(chan RoundRequest)
	go func() {
		defer close(out)
		for {
			r, ok := q.popHeld()
			if !ok {
				select {
				case <-ctx.Done():
					return
				case r, ok = <-q.requests:
					if !ok {
						return
					}
				}
			}
			select {
			case out <- r:
				metrics.RecordQueueDequeue(float64(time.Since(r.EnqueuedAt).Milliseconds()))
				metrics.UpdateQueueSize(q.Len(ctx))
			case <-ctx.Done():
				q.pushHeld(r)
				return
			}
		}
	}()
	return out
}

func (q *InMemoryQueue) popHeld() (RoundRequest, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.held) == 0 {
		return RoundRequest{}, false
	}
	r := q.held[0]
	q.held = q.held[1:]
	return r, true
}

func (q *InMemoryQueue) pushHeld(r RoundRequest) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.held = append([]RoundRequest{r}, q.held...)
}

// Drain implements Queue.
func (q *InMemoryQueue) Drain(_ context.Context) []RoundRequest {
	q.mu.Lock()
	out := q.held
	q.held = nil
	q.mu.Unlock()

	defer metrics.UpdateQueueSize(0)
	for {
		select {
		case r, ok := <-q.requests:
			if !ok {
				return out
			}
			out = append(out, r)
		default:
			return out
		}
	}
}

// Len implements Queue.
func (q *InMemoryQueue) Len(_ context.Context) int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.requests) + len(q.held)
}

// Close implements Queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	close(q.requests)
	q.closed = true
	return nil
}

// IsClosed implements Queue.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
