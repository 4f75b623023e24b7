package dispatch

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kbukum/ollamacmd/component"
	apperrors "github.com/kbukum/ollamacmd/errors"
	"github.com/kbukum/ollamacmd/logger"
)

// Task is a unit of work. ctx is canceled when the dispatcher stops.
type Task func(ctx context.Context)

// Stats is a snapshot of dispatcher counters.
type Stats struct {
	Workers   int   `json:"workers"`
	Queued    int   `json:"queued"`
	Active    int64 `json:"active"`
	Completed int64 `json:"completed"`
	Rejected  int64 `json:"rejected"`
	Panics    int64 `json:"panics"`
}

// Dispatcher is a fixed worker pool. It implements component.Component.
type Dispatcher struct {
	cfg Config
	log *logger.Logger

	mu      sync.RWMutex
	queue   chan Task
	running bool
	stopped bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	active    atomic.Int64
	completed atomic.Int64
	rejected  atomic.Int64
	panics    atomic.Int64
}

var _ component.Component = (*Dispatcher)(nil)

// New creates a Dispatcher. It accepts no work until Start.
func New(cfg Config, log *logger.Logger) *Dispatcher {
	cfg.ApplyDefaults()
	return &Dispatcher{
		cfg:   cfg,
		log:   logger.Named(log, "dispatch"),
		queue: make(chan Task, cfg.QueueSize),
	}
}

// Name implements component.Component.
func (d *Dispatcher) Name() string { return "dispatcher" }

// Start launches the workers. The base context handed to tasks is detached
// from ctx and lives until Stop.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return nil
	}
	if d.stopped {
		return fmt.Errorf("dispatcher: cannot restart after stop")
	}

	base, cancel := context.WithCancel(context.WithoutCancel(ctx))
	d.cancel = cancel
	d.running = true

	for i := 1; i <= d.cfg.Workers; i++ {
		d.wg.Add(1)
		go d.work(base, i)
	}
	d.log.Debug("dispatcher started", logger.Fields("workers", d.cfg.Workers, "queue_size", d.cfg.QueueSize))
	return nil
}

// Stop refuses new work, cancels running tasks and waits for the workers to
// drain the queue. Tasks still queued run with a canceled context.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return nil
	}
	d.running = false
	d.stopped = true
	d.cancel()
	close(d.queue)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.log.Debug("dispatcher stopped", logger.Fields("completed", d.completed.Load()))
		return nil
	case <-ctx.Done():
		return fmt.Errorf("dispatcher: workers did not finish: %w", ctx.Err())
	}
}

// Health implements component.Component.
func (d *Dispatcher) Health(ctx context.Context) component.Health {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if !d.running {
		return component.Health{Name: d.Name(), Status: component.StatusUnhealthy, Message: "not running"}
	}
	if len(d.queue) == cap(d.queue) {
		return component.Health{Name: d.Name(), Status: component.StatusDegraded, Message: "queue full"}
	}
	return component.Health{Name: d.Name(), Status: component.StatusHealthy}
}

// Describe implements component.Describable.
func (d *Dispatcher) Describe() component.Description {
	return component.Description{
		Name:    "Dispatcher",
		Type:    "worker-pool",
		Details: fmt.Sprintf("workers=%d queue=%d", d.cfg.Workers, d.cfg.QueueSize),
	}
}

// Submit enqueues task without blocking. It returns QUEUE_FULL when the
// queue is at capacity and SERVICE_UNAVAILABLE when the dispatcher is not
// running.
func (d *Dispatcher) Submit(task Task) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.running {
		d.rejected.Add(1)
		return apperrors.ServiceUnavailable(d.Name())
	}
	select {
	case d.queue <- task:
		return nil
	default:
		d.rejected.Add(1)
		return apperrors.QueueFull(d.cfg.QueueSize)
	}
}

// Stats returns a snapshot of the counters.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Workers:   d.cfg.Workers,
		Queued:    len(d.queue),
		Active:    d.active.Load(),
		Completed: d.completed.Load(),
		Rejected:  d.rejected.Load(),
		Panics:    d.panics.Load(),
	}
}

func (d *Dispatcher) work(ctx context.Context, id int) {
	defer d.wg.Done()
	for task := range d.queue {
		d.run(ctx, id, task)
	}
}

// run executes one task. A panicking task never takes its worker down.
func (d *Dispatcher) run(ctx context.Context, id int, task Task) {
	d.active.Add(1)
	start := time.Now()
	defer func() {
		d.active.Add(-1)
		d.completed.Add(1)
		took := logger.DurationFields("task", time.Since(start))
		if r := recover(); r != nil {
			d.panics.Add(1)
			d.log.Error("task panicked", logger.Merge(
				logger.Fields("worker", id, "stack", string(debug.Stack())),
				took,
				logger.ErrorFields("task", fmt.Errorf("panic: %v", r)),
			))
			return
		}
		d.log.Debug("task finished", logger.Merge(logger.Fields("worker", id), took))
	}()
	task(ctx)
}
