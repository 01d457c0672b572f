package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/components/logging"
)

// stubService spawns a task that blocks until cancelled, or fails Start.
type stubService struct {
	mu       sync.Mutex
	startErr error
	panicMsg string
	starts   []LaunchParams
	stops    int
}

func (s *stubService) Start(ctx context.Context, p LaunchParams) (*Task, error) {
	s.mu.Lock()
	s.starts = append(s.starts, p)
	s.mu.Unlock()
	if s.panicMsg != "" {
		panic(s.panicMsg)
	}
	if s.startErr != nil {
		return nil, s.startErr
	}
	return Spawn(ctx, p, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}), nil
}

func (s *stubService) Stop(ctx context.Context, t *Task) error {
	s.mu.Lock()
	s.stops++
	s.mu.Unlock()
	return t.Stop(ctx)
}

type recordingMetrics struct {
	mu       sync.Mutex
	launches map[string][]bool
	kills    []string
}

func (m *recordingMetrics) LaunchObserved(service string, ok bool, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.launches == nil {
		m.launches = map[string][]bool{}
	}
	m.launches[service] = append(m.launches[service], ok)
}

func (m *recordingMetrics) KillObserved(service string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.kills = append(m.kills, service)
}

func newDescriptor(svc Service) *Descriptor {
	return &Descriptor{
		Identity:    UI,
		Name:        "ui",
		MemoryClass: MemoryExternal,
		StackSize:   8192,
		Priority:    5,
		Service:     svc,
	}
}

func TestRunnerRunSuccessStoresHandle(t *testing.T) {
	svc := &stubService{}
	d := newDescriptor(svc)
	m := &recordingMetrics{}
	r := NewRunner(WithMetrics(m))

	task, err := r.Run(context.Background(), d)
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.Same(t, task, d.Handle())
	assert.True(t, task.Running())
	assert.NotEmpty(t, task.ID())
	assert.Equal(t, UI, task.Identity())
	assert.Equal(t, Priority(5), task.Priority())
	assert.Equal(t, uint32(8192), task.StackSize())

	require.Len(t, svc.starts, 1)
	assert.Equal(t, LaunchParams{
		Identity: UI, Name: "ui", Priority: 5, StackSize: 8192, MemoryClass: MemoryExternal,
	}, svc.starts[0])
	assert.Equal(t, []bool{true}, m.launches["ui"])

	require.NoError(t, r.Kill(context.Background(), d))
	assert.Nil(t, d.Handle())
	assert.False(t, task.Running())
	assert.Equal(t, []string{"ui"}, m.kills)
}

func TestRunnerRunFailureLeavesSlotEmpty(t *testing.T) {
	boom := errors.New("stack exhausted")
	d := newDescriptor(&stubService{startErr: boom})
	m := &recordingMetrics{}
	r := NewRunner(WithMetrics(m))

	task, err := r.Run(context.Background(), d)
	assert.Nil(t, task)
	assert.Nil(t, d.Handle())

	var le *LaunchError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "ui", le.Name)
	assert.Equal(t, UI, le.Identity)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []bool{false}, m.launches["ui"])
}

func TestRunnerRunPanicIsLaunchError(t *testing.T) {
	d := newDescriptor(&stubService{panicMsg: "bad init"})
	r := NewRunner()

	_, err := r.Run(context.Background(), d)
	var le *LaunchError
	require.ErrorAs(t, err, &le)
	assert.Contains(t, err.Error(), "bad init")
	assert.Nil(t, d.Handle())
}

func TestRunnerRunTwiceIsAlreadyRunning(t *testing.T) {
	svc := &stubService{}
	d := newDescriptor(svc)
	r := NewRunner()

	first, err := r.Run(context.Background(), d)
	require.NoError(t, err)

	_, err = r.Run(context.Background(), d)
	assert.ErrorIs(t, err, ErrAlreadyRunning)
	assert.Same(t, first, d.Handle())
	assert.Len(t, svc.starts, 1)

	require.NoError(t, r.Kill(context.Background(), d))
}

func TestRunnerRejectsInvalidDescriptor(t *testing.T) {
	svc := &stubService{}
	d := newDescriptor(svc)
	d.StackSize = 0
	r := NewRunner()

	_, err := r.Run(context.Background(), d)
	assert.ErrorIs(t, err, ErrInvalidDescriptor)
	assert.Empty(t, svc.starts)
}

func TestRunnerBudgetExceeded(t *testing.T) {
	budget := NewMemoryBudget(0, 10000)
	r := NewRunner(WithBudget(budget))

	a := newDescriptor(&stubService{})
	_, err := r.Run(context.Background(), a)
	require.NoError(t, err)
	used, capacity := budget.Usage(MemoryExternal)
	assert.Equal(t, uint64(8192), used)
	assert.Equal(t, uint64(10000), capacity)

	b := newDescriptor(&stubService{})
	b.Identity, b.Name = Messaging, "messaging"
	_, err = r.Run(context.Background(), b)
	assert.ErrorIs(t, err, ErrBudgetExceeded)
	assert.Nil(t, b.Handle())

	require.NoError(t, r.Kill(context.Background(), a))
	used, _ = budget.Usage(MemoryExternal)
	assert.Zero(t, used)

	_, err = r.Run(context.Background(), b)
	require.NoError(t, err)
	require.NoError(t, r.Kill(context.Background(), b))
}

func TestRunnerFailedLaunchReleasesBudget(t *testing.T) {
	budget := NewMemoryBudget(0, 0)
	r := NewRunner(WithBudget(budget))
	d := newDescriptor(&stubService{startErr: errors.New("no")})

	_, err := r.Run(context.Background(), d)
	require.Error(t, err)
	used, _ := budget.Usage(MemoryExternal)
	assert.Zero(t, used)
}

func TestRunnerKillEmptySlotIsNoop(t *testing.T) {
	svc := &stubService{}
	r := NewRunner()
	require.NoError(t, r.Kill(context.Background(), newDescriptor(svc)))
	assert.Zero(t, svc.stops)
}

// racingService fills the descriptor slot from inside Start, as a concurrent
// launch would, and fails its Stop.
type racingService struct {
	d       *Descriptor
	winner  *Task
	stopErr error
}

func block(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

func (s *racingService) Start(ctx context.Context, p LaunchParams) (*Task, error) {
	s.winner = Spawn(ctx, p, block)
	s.d.setHandle(s.winner)
	return Spawn(ctx, p, block), nil
}

func (s *racingService) Stop(ctx context.Context, t *Task) error {
	_ = t.Stop(ctx)
	return s.stopErr
}

type warnLogger struct {
	mu    sync.Mutex
	warns []string
}

func (l *warnLogger) Debug(context.Context, string, ...zap.Field) {}
func (l *warnLogger) Info(context.Context, string, ...zap.Field)  {}
func (l *warnLogger) Warn(_ context.Context, msg string, _ ...zap.Field) {
	l.mu.Lock()
	l.warns = append(l.warns, msg)
	l.mu.Unlock()
}
func (l *warnLogger) Error(context.Context, string, ...zap.Field) {}
func (l *warnLogger) With(...zap.Field) logging.Logger            { return l }
func (l *warnLogger) Sync() error                                 { return nil }

func TestRunnerLostRaceLogsStopError(t *testing.T) {
	logs := &warnLogger{}
	logging.SetGlobalLogger(logs)
	t.Cleanup(logging.ResetGlobalLogger)

	svc := &racingService{stopErr: errors.New("radio busy")}
	d := newDescriptor(svc)
	svc.d = d

	task, err := NewRunner().Run(context.Background(), d)
	assert.Nil(t, task)
	assert.ErrorIs(t, err, ErrAlreadyRunning)
	assert.Same(t, svc.winner, d.Handle())
	t.Cleanup(func() { _ = svc.winner.Stop(context.Background()) })

	logs.mu.Lock()
	defer logs.mu.Unlock()
	assert.Contains(t, logs.warns, "stopping duplicate launch returned error")
}
