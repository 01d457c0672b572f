package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/hooks"
)

// recordingComponent appends start/stop events to a shared log.
type recordingComponent struct {
	*BaseComponent
	log      *[]string
	startErr error
}

func newRecording(name string, log *[]string, deps ...string) *recordingComponent {
	return &recordingComponent{BaseComponent: NewBaseComponent(name, deps...), log: log}
}

func (r *recordingComponent) Start(ctx context.Context) error {
	if r.startErr != nil {
		return r.startErr
	}
	*r.log = append(*r.log, "start:"+r.Name())
	return r.BaseComponent.Start(ctx)
}

func (r *recordingComponent) Stop(ctx context.Context) error {
	*r.log = append(*r.log, "stop:"+r.Name())
	return r.BaseComponent.Stop(ctx)
}

func TestStartAllFollowsDependencies(t *testing.T) {
	var log []string
	c := NewContainer()
	require.NoError(t, c.Register("supervisor", newRecording("supervisor", &log, "bus", "logging")))
	require.NoError(t, c.Register("bus", newRecording("bus", &log, "logging")))
	require.NoError(t, c.Register("logging", newRecording("logging", &log)))

	lm := NewLifecycleManager(c, nil)
	require.NoError(t, lm.StartAll(context.Background()))
	lm.StopAll(context.Background())
	lm.StopAll(context.Background())

	require.Equal(t, []string{
		"start:logging", "start:bus", "start:supervisor",
		"stop:supervisor", "stop:bus", "stop:logging",
	}, log)
}

func TestStartAllRollsBackOnFailure(t *testing.T) {
	var log []string
	c := NewContainer()
	require.NoError(t, c.Register("a", newRecording("a", &log)))
	bad := newRecording("b", &log, "a")
	bad.startErr = errors.New("no transport")
	require.NoError(t, c.Register("b", bad))

	lm := NewLifecycleManager(c, nil)
	err := lm.StartAll(context.Background())
	require.Error(t, err)
	require.ErrorIs(t, err, bad.startErr)
	require.Equal(t, []string{"start:a", "stop:a"}, log)
}

func TestHooksRunAroundStart(t *testing.T) {
	var log []string
	c := NewContainer()
	require.NoError(t, c.Register("a", newRecording("a", &log)))

	lm := NewLifecycleManager(c, hooks.NewManager())
	require.NoError(t, lm.AddHook("before", hooks.BeforeStart, func(context.Context) error {
		log = append(log, "hook:before")
		return nil
	}, 1))
	require.NoError(t, lm.AddHook("after", hooks.AfterStart, func(context.Context) error {
		log = append(log, "hook:after")
		return nil
	}, 1))

	require.NoError(t, lm.StartAll(context.Background()))
	require.Equal(t, []string{"hook:before", "start:a", "hook:after"}, log)
}

func TestContainerDetectsCycles(t *testing.T) {
	var log []string
	c := NewContainer()
	require.NoError(t, c.Register("a", newRecording("a", &log, "b")))
	require.NoError(t, c.Register("b", newRecording("b", &log, "a")))
	_, err := c.SortComponentsByDependencies()
	require.Error(t, err)
}

func TestResolveAs(t *testing.T) {
	var log []string
	c := NewContainer()
	require.NoError(t, c.Register("a", newRecording("a", &log)))
	require.Error(t, c.Register("a", newRecording("a", &log)))

	got, err := ResolveAs[*recordingComponent](c, "a")
	require.NoError(t, err)
	require.Equal(t, "a", got.Name())

	_, err = ResolveAs[*BaseComponent](c, "a")
	require.Error(t, err)
	_, err = ResolveAs[*recordingComponent](c, "missing")
	require.Error(t, err)
}

func TestValidateDependenciesReportsMissing(t *testing.T) {
	var log []string
	c := NewContainer()
	require.NoError(t, c.Register("supervisor", newRecording("supervisor", &log, "bus")))
	_, err := c.ValidateDependencies("supervisor")
	require.ErrorContains(t, err, "supervisor -> [bus]")
}
