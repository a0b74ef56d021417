// Package worker plays queued round requests against the simulation, one at a
// time and in arrival order.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cesarion161/clawgic/internal/adapters/mq/queue"
	"github.com/cesarion161/clawgic/pkg/logger"
	"github.com/cesarion161/clawgic/pkg/metrics"
)

// RoundRunner executes one round request.
type RoundRunner interface {
	RunRequest(ctx context.Context, req queue.RoundRequest) error
}

// RoundRunnerFunc adapts a function to RoundRunner.
type RoundRunnerFunc func(ctx context.Context, req queue.RoundRequest) error

// RunRequest calls f.
func (f RoundRunnerFunc) RunRequest(ctx context.Context, req queue.RoundRequest) error {
	return f(ctx, req)
}

// RequestAbandoner is implemented by runners that want to know about requests
// the worker received but will not run because it is stopping.
type RequestAbandoner interface {
	AbandonRequest(ctx context.Context, req queue.RoundRequest, reason error)
}

// Queue defines how the worker receives requests. The channel from Dequeue
// must be closed once ctx is done.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.RoundRequest
}

// Worker consumes round requests.
type Worker interface {
	// Run processes requests until ctx is cancelled, Shutdown is called or the
	// queue is drained after Close.
	Run(ctx context.Context)
	// Shutdown stops the worker once the request in flight finishes.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker is the single round consumer. Rounds mutate shared
// simulation state, so requests are never processed concurrently.
type InMemoryWorker struct {
	queue  Queue
	runner RoundRunner
	name   string

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a worker reading from q and running through runner.
func NewInMemoryWorker(q Queue, runner RoundRunner, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		runner:   runner,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run implements Worker. Before returning it stops the dequeue and hands any
// request already received back to the runner as abandoned.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	dctx, cancel := context.WithCancel(ctx)
	requests := w.queue.Dequeue(dctx)
	defer func() {
		cancel()
		for req := range requests {
			w.abandon(context.WithoutCancel(ctx), req)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case req, ok := <-requests:
			if !ok {
				return
			}
			if err := w.process(ctx, req); err != nil {
				w.logger.Error(ctx, "round request failed", logger.String("request_id", req.ID), logger.Error(err))
			}
		}
	}
}

func (w *InMemoryWorker) abandon(ctx context.Context, req queue.RoundRequest) {
	w.logger.Warn(ctx, "round request abandoned", logger.String("request_id", req.ID))
	if a, ok := w.runner.(RequestAbandoner); ok {
		a.AbandonRequest(ctx, req, ErrStopped)
	}
}

// Done is closed when Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

// Shutdown implements Worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) process(ctx context.Context, req queue.RoundRequest) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	if err := w.runner.RunRequest(ctx, req); err != nil {
		metrics.RecordWorkerError()
		return fmt.Errorf("request %s: %w", req.ID, err)
	}
	w.logger.Debug(ctx, "round request processed",
		logger.String("request_id", req.ID),
		logger.Duration("took", time.Since(start)),
	)
	return nil
}
