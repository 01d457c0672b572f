package supervisor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/apps/bridge"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/apps/messaging"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/apps/ui"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/bus"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/components/logging"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/manifest"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/platform"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/service"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/singleton"
)

// recordingLogger keeps error messages so tests can count them.
type recordingLogger struct {
	mu     sync.Mutex
	errors []string
}

func (l *recordingLogger) Debug(context.Context, string, ...zap.Field) {}
func (l *recordingLogger) Info(context.Context, string, ...zap.Field)  {}
func (l *recordingLogger) Warn(context.Context, string, ...zap.Field)  {}
func (l *recordingLogger) Error(_ context.Context, msg string, _ ...zap.Field) {
	l.mu.Lock()
	l.errors = append(l.errors, msg)
	l.mu.Unlock()
}
func (l *recordingLogger) With(...zap.Field) logging.Logger { return l }
func (l *recordingLogger) Sync() error                      { return nil }

func (l *recordingLogger) count(msg string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, m := range l.errors {
		if m == msg {
			n++
		}
	}
	return n
}

func installLogger(t *testing.T) *recordingLogger {
	t.Helper()
	l := &recordingLogger{}
	logging.SetGlobalLogger(l)
	t.Cleanup(logging.ResetGlobalLogger)
	return l
}

// failingService fails its start entry point.
type failingService struct{}

func (failingService) Start(context.Context, service.LaunchParams) (*service.Task, error) {
	return nil, errors.New("radio init failed")
}

func (failingService) Stop(context.Context, *service.Task) error { return nil }

const tick = time.Millisecond

func catalog(failBridge bool) *manifest.Catalog {
	c := manifest.NewCatalog()
	c.MustAdd(manifest.Entry{
		Identity: service.UI, StackSize: 8192, MemoryClass: service.MemoryExternal, Priority: 5,
		Resolve: func(reg *singleton.Registry, client bus.Client) (service.Service, error) {
			return singleton.Get(reg, func() (*ui.App, error) { return ui.New(client, tick), nil })
		},
	})
	c.MustAdd(manifest.Entry{
		Identity: service.ProtocolBridge, StackSize: 10240, Priority: 5,
		Resolve: func(reg *singleton.Registry, client bus.Client) (service.Service, error) {
			if failBridge {
				return failingService{}, nil
			}
			return singleton.Get(reg, func() (*bridge.App, error) { return bridge.New(client, tick), nil })
		},
	})
	c.MustAdd(manifest.Entry{
		Identity: service.Messaging, StackSize: 6144, MemoryClass: service.MemoryExternal, Priority: 4,
		Resolve: func(reg *singleton.Registry, client bus.Client) (service.Service, error) {
			return singleton.Get(reg, func() (*messaging.App, error) { return messaging.New(client, tick), nil })
		},
	})
	return c
}

type harness struct {
	sup    *Supervisor
	bus    *bus.Bus
	reg    *singleton.Registry
	m      *manifest.Manifest
	states *stateLog
	cancel context.CancelFunc
	done   chan error
}

type stateLog struct {
	mu     sync.Mutex
	states []State
}

func (s *stateLog) StateChanged(state int) {
	s.mu.Lock()
	s.states = append(s.states, State(state))
	s.mu.Unlock()
}

func (s *stateLog) get() []State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]State(nil), s.states...)
}

func start(t *testing.T, b *bus.Bus, cat *manifest.Catalog, cfg manifest.Config, mutate func(*Options)) *harness {
	t.Helper()
	m, err := manifest.Build(cat, cfg)
	require.NoError(t, err)

	h := &harness{bus: b, reg: singleton.New(), m: m, states: &stateLog{}, done: make(chan error, 1)}
	opts := Options{Bus: b, Manifest: m, Registry: h.reg, Runner: service.NewRunner(), Tick: tick, Observer: h.states}
	if mutate != nil {
		mutate(&opts)
	}
	h.sup, err = New(opts)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() { h.done <- h.sup.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-h.done
		_ = h.sup.Shutdown(context.Background())
	})

	select {
	case <-h.sup.Active():
	case <-time.After(2 * time.Second):
		t.Fatalf("supervisor stuck in %s", h.sup.State())
	}
	return h
}

func initedBus(t *testing.T) *bus.Bus {
	t.Helper()
	b := bus.New(bus.NewMemoryTransport())
	require.NoError(t, b.Init(context.Background()))
	return b
}

func TestStateSequenceVisitedOnce(t *testing.T) {
	h := start(t, initedBus(t), catalog(false), nil, nil)

	// let the loop spin in ACTIVE for a while
	time.Sleep(20 * tick)
	assert.Equal(t, []State{StateIdle, StateInit, StateStart, StateActive}, h.states.get())
	assert.Equal(t, StateActive, h.sup.State())

	h.sup.step(context.Background())
	assert.Equal(t, StateActive, h.sup.State())
	assert.Len(t, h.states.get(), 4)

	assert.Error(t, h.sup.Run(context.Background()))
}

func TestAllServicesLaunchAndRegister(t *testing.T) {
	h := start(t, initedBus(t), catalog(false), nil, nil)

	for _, id := range []service.Identity{service.UI, service.ProtocolBridge, service.Messaging} {
		d := h.m.Table().MustLookup(id)
		assert.NotNil(t, d.Handle(), id.String())
		require.Eventually(t, func() bool { return h.bus.Registered(id) }, time.Second, time.Millisecond, id.String())
	}
	assert.True(t, h.bus.Registered(service.ServiceManager))
	assert.Equal(t, 3, h.reg.Len())
	assert.Empty(t, h.sup.LaunchErrors())
}

func TestBridgeFailureIsIsolated(t *testing.T) {
	logs := installLogger(t)
	h := start(t, initedBus(t), catalog(true), nil, nil)

	assert.NotNil(t, h.m.Table().MustLookup(service.UI).Handle())
	assert.NotNil(t, h.m.Table().MustLookup(service.Messaging).Handle())
	assert.Nil(t, h.m.Table().MustLookup(service.ProtocolBridge).Handle())
	assert.Equal(t, StateActive, h.sup.State())

	errs := h.sup.LaunchErrors()
	require.Len(t, errs, 1)
	var le *service.LaunchError
	require.ErrorAs(t, errs[0], &le)
	assert.Equal(t, service.ProtocolBridge, le.Identity)
	assert.Equal(t, 1, logs.count("service launch failed"))

	st, ok := h.sup.Service("protocol_bridge")
	require.True(t, ok)
	assert.False(t, st.Running)
	assert.Contains(t, st.LastError, "radio init failed")
}

func TestBusInitFailureStillReachesActive(t *testing.T) {
	tr := bus.NewMemoryTransport()
	tr.OpenErr = errors.New("transport down")
	b := bus.New(tr)
	require.Error(t, b.Init(context.Background()))

	h := start(t, b, catalog(false), nil, nil)

	assert.Equal(t, []State{StateIdle, StateInit, StateStart, StateActive}, h.states.get())
	assert.False(t, b.Registered(service.ServiceManager))
	assert.NotNil(t, h.m.Table().MustLookup(service.UI).Handle())
}

func TestDisabledServiceNeverRegisters(t *testing.T) {
	off := false
	b := initedBus(t)
	h := start(t, b, catalog(false), manifest.Config{"protocol_bridge": {Enabled: &off}}, nil)

	_, ok := h.m.Table().Lookup(service.ProtocolBridge)
	assert.False(t, ok)

	require.Eventually(t, func() bool {
		return b.Registered(service.UI) && b.Registered(service.Messaging)
	}, time.Second, time.Millisecond)
	time.Sleep(10 * tick)
	assert.False(t, b.Registered(service.ProtocolBridge))
	_, ok = singleton.Lookup[*bridge.App](h.reg)
	assert.False(t, ok)

	err := h.sup.Kill(context.Background(), service.ProtocolBridge)
	assert.ErrorIs(t, err, ErrUnknownService)
}

func TestDegradedBootPublishesLinkStatusAndRecordsBoot(t *testing.T) {
	store := platform.NewMemoryStore()
	b := initedBus(t)
	h := start(t, b, catalog(false), nil, func(o *Options) {
		o.Degraded = true
		o.DegradedReason = "link wait timed out"
		o.Store = store
		o.BootID = "boot-1"
	})

	uiApp, ok := singleton.Lookup[*ui.App](h.reg)
	require.True(t, ok)
	require.Eventually(t, func() bool { return uiApp.Status().Screen == ui.ScreenOffline }, time.Second, time.Millisecond)
	assert.False(t, uiApp.Status().LinkUp)
	assert.Contains(t, uiApp.Status().ReadyPeers, "service_manager")

	snap := h.sup.Snapshot()
	assert.Equal(t, "ACTIVE", snap.State)
	assert.True(t, snap.Degraded)
	assert.Equal(t, "boot-1", snap.BootID)
	assert.Equal(t, int64(1), snap.BootCount)
	require.Len(t, snap.Services, 3)

	v, ok, err := store.Get(context.Background(), platform.KeyLastBootDegraded)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "true", v)
}

// 服务在 START 内登记，ready 与 link status 广播每次启动都能送达
func TestServicesSeeStartupBroadcasts(t *testing.T) {
	for i := 0; i < 20; i++ {
		t.Run(fmt.Sprintf("boot%d", i), func(t *testing.T) {
			h := start(t, initedBus(t), catalog(false), nil, nil)

			uiApp, ok := singleton.Lookup[*ui.App](h.reg)
			require.True(t, ok)
			bridgeApp, ok := singleton.Lookup[*bridge.App](h.reg)
			require.True(t, ok)
			msgApp, ok := singleton.Lookup[*messaging.App](h.reg)
			require.True(t, ok)

			require.Eventually(t, func() bool { return uiApp.Status().Screen == ui.ScreenHome }, time.Second, time.Millisecond)
			assert.True(t, uiApp.Status().LinkUp)
			assert.Contains(t, uiApp.Status().ReadyPeers, "service_manager")
			require.Eventually(t, func() bool { return bridgeApp.Status().Online }, time.Second, time.Millisecond)
			require.Eventually(t, func() bool { return msgApp.Status().Connected }, time.Second, time.Millisecond)
		})
	}
}

func TestKillAndShutdown(t *testing.T) {
	h := start(t, initedBus(t), catalog(false), nil, nil)

	d := h.m.Table().MustLookup(service.UI)
	task := d.Handle()
	require.NotNil(t, task)

	require.NoError(t, h.sup.Kill(context.Background(), service.UI))
	assert.Nil(t, d.Handle())
	assert.False(t, task.Running())
	require.NoError(t, h.sup.Kill(context.Background(), service.UI))

	id, ok := h.sup.Lookup("messaging")
	require.True(t, ok)
	assert.Equal(t, service.Messaging, id)

	require.NoError(t, h.sup.Shutdown(context.Background()))
	for _, st := range h.sup.Snapshot().Services {
		assert.False(t, st.Running, st.Name)
	}
}

func TestNewRequiresBusAndManifest(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
	_, err = New(Options{Bus: bus.New(bus.NewMemoryTransport())})
	assert.Error(t, err)
}
