package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrShutdownTimeout is returned when workers don't stop within timeout.
var ErrShutdownTimeout = errors.New("worker pool shutdown timed out")

// ErrQueueFull is returned by Submit when the task queue is at capacity.
var ErrQueueFull = errors.New("worker queue is full")

// ErrPoolStopped is returned by Submit after the pool has been stopped.
var ErrPoolStopped = errors.New("worker pool is stopped")

// Task is one unit of work. The context is cancelled when the pool stops.
type Task func(ctx context.Context)

// Pool runs submitted tasks on a fixed number of workers over a bounded
// queue. Download and mirror work runs here so the update-dispatch loop
// never blocks on the network.
type Pool struct {
	workers int
	queue   chan Task
	logger  *slog.Logger

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// Config holds worker pool configuration.
type Config struct {
	Workers   int
	QueueSize int
}

// NewPool creates a new worker pool.
func NewPool(cfg Config, logger *slog.Logger) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 16
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Pool{
		workers: cfg.Workers,
		queue:   make(chan Task, cfg.QueueSize),
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start launches all workers.
func (p *Pool) Start() {
	p.logger.Info("starting worker pool", "workers", p.workers, "queue_size", cap(p.queue))

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Submit enqueues a task without blocking. A full queue rejects the task
// with ErrQueueFull so the caller can tell the user to try again later.
func (p *Pool) Submit(task Task) error {
	if p.ctx.Err() != nil {
		return ErrPoolStopped
	}
	select {
	case p.queue <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop gracefully stops all workers. Tasks already running get the cancelled
// context; queued tasks that no worker picked up before the deadline are
// dropped.
func (p *Pool) Stop(timeout time.Duration) error {
	p.logger.Info("stopping worker pool")
	p.cancel()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("worker pool stopped gracefully")
		return nil
	case <-time.After(timeout):
		return ErrShutdownTimeout
	}
}

// QueueDepth reports the number of tasks waiting for a worker.
func (p *Pool) QueueDepth() int {
	return len(p.queue)
}

// QueueCapacity reports the queue bound.
func (p *Pool) QueueCapacity() int {
	return cap(p.queue)
}

// Workers reports the worker count.
func (p *Pool) Workers() int {
	return p.workers
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	logger := p.logger.With("worker_id", id)
	logger.Info("worker started")

	for {
		select {
		case <-p.ctx.Done():
			logger.Info("worker stopping")
			return
		case task := <-p.queue:
			p.runTask(logger, task)
		}
	}
}

func (p *Pool) runTask(logger *slog.Logger, task Task) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("task panicked", "panic", r)
		}
	}()
	task(p.ctx)
}
