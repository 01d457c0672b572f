package service

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/components/logging"
)

const tracerName = "servicemgr/service"

// Metrics receives runner observations.
type Metrics interface {
	LaunchObserved(service string, ok bool, d time.Duration)
	KillObserved(service string)
}

type noopMetrics struct{}

func (noopMetrics) LaunchObserved(string, bool, time.Duration) {}
func (noopMetrics) KillObserved(string)                        {}

// Runner launches and tears down services described by descriptors.
type Runner struct {
	budget  *MemoryBudget
	metrics Metrics
	tracer  trace.Tracer
}

type RunnerOption func(*Runner)

// WithBudget enables memory class accounting; without it launches are not limited.
func WithBudget(b *MemoryBudget) RunnerOption {
	return func(r *Runner) { r.budget = b }
}

func WithMetrics(m Metrics) RunnerOption {
	return func(r *Runner) {
		if m != nil {
			r.metrics = m
		}
	}
}

func WithTracer(t trace.Tracer) RunnerOption {
	return func(r *Runner) {
		if t != nil {
			r.tracer = t
		}
	}
}

func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{metrics: noopMetrics{}}
	for _, opt := range opts {
		opt(r)
	}
	if r.tracer == nil {
		r.tracer = otel.Tracer(tracerName)
	}
	return r
}

func (r *Runner) Budget() *MemoryBudget { return r.budget }

// Run starts the service described by d. On success the handle is stored in
// d and returned. Every failure is a *LaunchError and leaves d's slot empty.
func (r *Runner) Run(ctx context.Context, d *Descriptor) (*Task, error) {
	if err := d.Validate(); err != nil {
		return nil, &LaunchError{Name: d.Name, Identity: d.Identity, Err: err}
	}
	if d.Handle() != nil {
		return nil, &LaunchError{Name: d.Name, Identity: d.Identity, Err: ErrAlreadyRunning}
	}

	ctx, span := r.tracer.Start(ctx, "service.launch", trace.WithAttributes(
		attribute.String("service.name", d.Name),
		attribute.String("service.identity", d.Identity.String()),
		attribute.Int("service.priority", int(d.Priority)),
		attribute.Int64("service.stack_size", int64(d.StackSize)),
		attribute.String("service.memory_class", d.MemoryClass.String()),
	))
	defer span.End()

	start := time.Now()
	task, err := r.launch(ctx, d)
	elapsed := time.Since(start)
	r.metrics.LaunchObserved(d.Name, err == nil, elapsed)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logging.Error(ctx, "service launch failed",
			zap.String("service", d.Name),
			zap.Stringer("identity", d.Identity),
			zap.Error(err))
		return nil, &LaunchError{Name: d.Name, Identity: d.Identity, Err: err}
	}

	span.SetAttributes(attribute.String("service.task_id", task.ID()))
	logging.Info(ctx, "service launched",
		zap.String("service", d.Name),
		zap.String("task_id", task.ID()),
		zap.Uint8("priority", uint8(d.Priority)),
		zap.Uint32("stack_size", d.StackSize),
		zap.Stringer("memory_class", d.MemoryClass),
		zap.Duration("elapsed", elapsed))
	return task, nil
}

func (r *Runner) launch(ctx context.Context, d *Descriptor) (*Task, error) {
	if r.budget != nil {
		if err := r.budget.Reserve(d.MemoryClass, d.StackSize); err != nil {
			return nil, err
		}
	}
	task, err := r.start(ctx, d)
	if err == nil && task == nil {
		err = ErrNilTask
	}
	if err == nil && !d.setHandle(task) {
		// lost a race with another launch of the same descriptor
		if stopErr := d.Service.Stop(ctx, task); stopErr != nil {
			logging.Warn(ctx, "stopping duplicate launch returned error",
				zap.String("service", d.Name),
				zap.String("task_id", task.ID()),
				zap.Error(stopErr))
		}
		err = ErrAlreadyRunning
	}
	if err != nil {
		if r.budget != nil {
			r.budget.Release(d.MemoryClass, d.StackSize)
		}
		return nil, err
	}
	return task, nil
}

// start calls the service entry point, turning a panic into an error.
func (r *Runner) start(ctx context.Context, d *Descriptor) (task *Task, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			task, err = nil, fmt.Errorf("start panicked: %v", rec)
		}
	}()
	return d.Service.Start(ctx, d.params())
}

// Kill tears down the running task of d and clears its slot. An empty slot is
// a no-op.
func (r *Runner) Kill(ctx context.Context, d *Descriptor) error {
	task := d.takeHandle()
	if task == nil {
		return nil
	}
	if r.budget != nil {
		defer r.budget.Release(d.MemoryClass, d.StackSize)
	}
	r.metrics.KillObserved(d.Name)

	err := d.Service.Stop(ctx, task)
	if err != nil {
		logging.Warn(ctx, "service stop returned error",
			zap.String("service", d.Name),
			zap.String("task_id", task.ID()),
			zap.Error(err))
		return fmt.Errorf("stop %s: %w", d.Name, err)
	}
	logging.Info(ctx, "service stopped",
		zap.String("service", d.Name),
		zap.String("task_id", task.ID()))
	return nil
}
