package taskrunner

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vk/dqgrid/internal/ctxlog"
)

var (
	// ErrShutdown is returned by TrySubmit after Shutdown.
	ErrShutdown = errors.New("task runner is shut down")
	// ErrQueueFull is returned by TrySubmit when no queue slot is free.
	ErrQueueFull = errors.New("task queue is full")
)

type queued struct {
	ctx  context.Context
	task *Task
}

// Runner is a bounded worker pool.
type Runner struct {
	workers int
	queue   chan queued
	wg      sync.WaitGroup

	mu     sync.RWMutex
	closed bool
	once   sync.Once

	submitted  atomic.Int64
	callerRuns atomic.Int64
	completed  atomic.Int64
	failed     atomic.Int64
}

// Stats is a snapshot of the runner's counters.
type Stats struct {
	Workers    int
	Submitted  int64
	CallerRuns int64
	Completed  int64
	Failed     int64
}

// New starts a runner with the given number of workers and queue capacity.
// Fewer than one worker is treated as one; a negative queue size as zero.
func New(workers, queueSize int) *Runner {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	r := &Runner{
		workers: workers,
		queue:   make(chan queued, queueSize),
	}
	r.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go r.worker()
	}
	return r
}

func (r *Runner) worker() {
	defer r.wg.Done()
	for q := range r.queue {
		r.execute(q.ctx, q.task)
	}
}

// Submit schedules t. If the queue is full or the runner is shut down, t
// runs on the caller before Submit returns. It reports whether t was queued.
func (r *Runner) Submit(ctx context.Context, t *Task) bool {
	r.submitted.Add(1)
	if err := r.enqueue(ctx, t); err != nil {
		ctxlog.FromContext(ctx).Debug("Running task on caller.", "task", t.Name, "reason", err)
		r.callerRuns.Add(1)
		r.execute(ctx, t)
		return false
	}
	return true
}

// Run executes t on the caller with the same listener callbacks and panic
// recovery as queued tasks. It is for work that must stay on the calling
// goroutine and is not counted as a caller run.
func (r *Runner) Run(ctx context.Context, t *Task) {
	r.submitted.Add(1)
	r.execute(ctx, t)
}

// TrySubmit queues t without the caller-runs fallback.
func (r *Runner) TrySubmit(ctx context.Context, t *Task) error {
	if err := r.enqueue(ctx, t); err != nil {
		return err
	}
	r.submitted.Add(1)
	return nil
}

func (r *Runner) enqueue(ctx context.Context, t *Task) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return ErrShutdown
	}
	select {
	case r.queue <- queued{ctx: ctx, task: t}:
		return nil
	default:
		return ErrQueueFull
	}
}

func (r *Runner) execute(ctx context.Context, t *Task) {
	if t.Listener != nil {
		t.Listener.OnBegin(t)
	}
	start := time.Now()
	err := r.call(ctx, t)
	if err != nil {
		r.failed.Add(1)
		if t.Listener != nil {
			t.Listener.OnError(t, err)
		}
		return
	}
	r.completed.Add(1)
	if t.Listener != nil {
		t.Listener.OnComplete(t, time.Since(start))
	}
}

func (r *Runner) call(ctx context.Context, t *Task) (err error) {
	defer func() {
		if v := recover(); v != nil {
			ctxlog.FromContext(ctx).Error("Task panicked.", "task", t.Name, "panic", v, "stack", string(debug.Stack()))
			err = &PanicError{Task: t.Name, Value: v}
		}
	}()
	if t.Fn == nil {
		return nil
	}
	return t.Fn(ctx)
}

// Shutdown stops accepting queued work and waits for the workers to drain
// the queue. Calling it again is a no-op.
func (r *Runner) Shutdown() {
	r.once.Do(func() {
		r.mu.Lock()
		r.closed = true
		close(r.queue)
		r.mu.Unlock()
	})
	r.wg.Wait()
}

// Workers returns the pool width.
func (r *Runner) Workers() int { return r.workers }

// Stats returns a snapshot of the runner's counters.
func (r *Runner) Stats() Stats {
	return Stats{
		Workers:    r.workers,
		Submitted:  r.submitted.Load(),
		CallerRuns: r.callerRuns.Load(),
		Completed:  r.completed.Load(),
		Failed:     r.failed.Load(),
	}
}
