package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/scoreline/internal/adapters/mq/queue"
	"github.com/okian/scoreline/internal/domain/timeline"
	"github.com/okian/scoreline/pkg/logger"
	"github.com/okian/scoreline/pkg/metrics"
)

const poolShutdownTimeout = 30 * time.Second

// Generator produces the timeline for a job.
type Generator interface {
	GenerateSeeded(ctx context.Context, seed int64, count int) (*timeline.Timeline, error)
}

// Completer receives the outcome of each job.
type Completer interface {
	// Complete stores a generated timeline.
	Complete(ctx context.Context, job queue.Job, tl *timeline.Timeline) error
	// Fail marks the job as failed.
	Fail(ctx context.Context, job queue.Job, err error)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Worker processes generation jobs.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue closes.
	Run(ctx context.Context)

	// Shutdown stops the worker after its current job.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue     Queue
	generator Generator
	completer Completer
	name      string
	active    *atomic.Int64

	stopOnce sync.Once
	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, gen Generator, completer Completer, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     q,
		generator: gen,
		completer: completer,
		name:      "worker",
		active:    new(atomic.Int64),
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			metrics.RecordQueueDequeue()
			log := w.logger.With(logger.String("match_id", job.MatchID), logger.Int64("seed", job.Seed))
			if err := w.process(ctx, job, log); err != nil {
				log.Error(ctx, "error processing job", logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.stop()
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) stop() {
	w.stopOnce.Do(func() { close(w.shutdown) })
}

// process generates one timeline and hands it to the completer.
func (w *InMemoryWorker) process(ctx context.Context, job queue.Job, log logger.Logger) error {
	metrics.UpdateWorkerActiveCount(int(w.active.Add(1)))
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(metrics.SinceMs(start))
		metrics.UpdateWorkerActiveCount(int(w.active.Add(-1)))
	}()

	tl, err := w.generator.GenerateSeeded(ctx, job.Seed, job.Count)
	metrics.RecordGenerationLatency(metrics.SinceMs(start))
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "generation_error")
		metrics.RecordErrorByType("generation_error", "high")
		w.completer.Fail(ctx, job, err)
		return fmt.Errorf("generate match %s: %w", job.MatchID, err)
	}

	if err := w.completer.Complete(ctx, job, tl); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "store_error")
		metrics.RecordErrorByType("store_error", "high")
		w.completer.Fail(ctx, job, err)
		return fmt.Errorf("store match %s: %w", job.MatchID, err)
	}

	log.Debug(ctx, "match generated",
		logger.Int("stamps", tl.Len()),
		logger.Duration("took", time.Since(start)))
	return nil
}

// Pool manages multiple workers sharing one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	active  *atomic.Int64
	started atomic.Bool
	logger  logger.Logger
}

// NewPool creates a worker pool. A count below 1 uses one worker per CPU.
func NewPool(workerCount int, q Queue, gen Generator, completer Completer) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		active:  new(atomic.Int64),
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		w := NewInMemoryWorker(q, gen, completer, WithName("worker-"+strconv.Itoa(i)))
		w.active = pool.active
		pool.workers[i] = w
	}

	metrics.UpdateWorkerCount(workerCount)
	metrics.UpdateWorkerActiveCount(0)
	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Active returns the number of workers currently running a job.
func (p *Pool) Active() int { return int(p.active.Load()) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	if !p.started.CompareAndSwap(false, true) {
		return
	}
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Stop signals every worker and waits for them; queued jobs are left behind.
func (p *Pool) Stop() {
	for _, w := range p.workers {
		w.stop()
	}
	if !p.started.Load() {
		return
	}
	for _, w := range p.workers {
		<-w.done
	}
}

// Shutdown closes the queue and lets workers drain it before returning.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	if !p.started.Load() {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			w.stop()
			return fmt.Errorf("worker pool shutdown: %w", shutdownCtx.Err())
		}
	}
	return nil
}
