package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Task is the opaque handle of a running service task.
type Task struct {
	id        string
	params    LaunchParams
	startedAt time.Time

	cancel context.CancelFunc
	done   chan struct{}

	mu  sync.Mutex
	err error
}

// Spawn runs fn in its own goroutine and returns its handle. The task context
// keeps the values of ctx (trace ids) but not its deadline; it is cancelled by
// Task.Cancel only.
func Spawn(ctx context.Context, params LaunchParams, fn func(ctx context.Context) error) *Task {
	taskCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	t := &Task{
		id:        uuid.NewString(),
		params:    params,
		startedAt: time.Now(),
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	go func() {
		defer close(t.done)
		defer cancel()
		err := fn(taskCtx)
		t.mu.Lock()
		t.err = err
		t.mu.Unlock()
	}()
	return t
}

func (t *Task) ID() string               { return t.id }
func (t *Task) Identity() Identity       { return t.params.Identity }
func (t *Task) Name() string             { return t.params.Name }
func (t *Task) Priority() Priority       { return t.params.Priority }
func (t *Task) StackSize() uint32        { return t.params.StackSize }
func (t *Task) MemoryClass() MemoryClass { return t.params.MemoryClass }
func (t *Task) StartedAt() time.Time     { return t.startedAt }

// Done is closed when the task function returns.
func (t *Task) Done() <-chan struct{} { return t.done }

// Running reports whether the task function is still executing.
func (t *Task) Running() bool {
	select {
	case <-t.done:
		return false
	default:
		return true
	}
}

// Err is the task function's return value; nil while running.
func (t *Task) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Cancel asks the task to exit.
func (t *Task) Cancel() { t.cancel() }

// Wait blocks until the task exits or ctx is done.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop cancels the task and waits for it; context.Canceled from the task
// itself counts as a clean exit.
func (t *Task) Stop(ctx context.Context) error {
	t.Cancel()
	err := t.Wait(ctx)
	if errors.Is(err, context.Canceled) && ctx.Err() == nil {
		return nil
	}
	return err
}
