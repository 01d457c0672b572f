package orchestrator

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/bus"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/components/logging"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/consts"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/core"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/manifest"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/platform"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/service"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/singleton"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/supervisor"
)

// LinkState 由 link 组件提供
type LinkState interface {
	Degraded() bool
	Err() error
}

// Deps 构造时注入的协作方；除 Bus 外均可为空
type Deps struct {
	Bus      bus.Client
	Link     LinkState
	Store    func() platform.Store
	Metrics  service.Metrics
	Observer supervisor.Observer
}

// SupervisorComponent 在独立 goroutine 中运行 supervisor 控制循环，
// 停止时按启动逆序关闭所有服务
type SupervisorComponent struct {
	*core.BaseComponent
	cfg      *Config
	deps     Deps
	manifest *manifest.Manifest
	registry *singleton.Registry

	sup    atomic.Pointer[supervisor.Supervisor]
	cancel context.CancelFunc
	done   chan struct{}
}

func Create(cfg *Config, cat *manifest.Catalog, services manifest.Config, deps Deps) (*SupervisorComponent, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, fmt.Errorf("supervisor component disabled")
	}
	if deps.Bus == nil {
		return nil, fmt.Errorf("supervisor requires the bus component")
	}
	if cat == nil {
		cat = manifest.NewCatalog()
	}
	if cfg.Tick <= 0 {
		cfg.Tick = supervisor.DefaultTick
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	m, err := manifest.Build(cat, services)
	if err != nil {
		return nil, err
	}
	return &SupervisorComponent{
		BaseComponent: core.NewBaseComponent(
			consts.COMPONENT_SUPERVISOR,
			consts.COMPONENT_LOGGING,
			consts.COMPONENT_TELEMETRY,
			consts.COMPONENT_PROMETHEUS,
			consts.COMPONENT_STORAGE,
			consts.COMPONENT_BUS,
			consts.COMPONENT_LINK,
		),
		cfg:      cfg,
		deps:     deps,
		manifest: m,
		registry: singleton.New(),
	}, nil
}

func (sc *SupervisorComponent) budget(ctx context.Context) *service.MemoryBudget {
	external := sc.cfg.ExternalMemory
	if external == 0 {
		avail, err := service.HostAvailableMemory()
		if err != nil {
			logging.Warn(ctx, "host memory unknown, external budget unlimited", zap.Error(err))
		} else {
			external = avail
		}
	}
	return service.NewMemoryBudget(sc.cfg.InternalMemory, external)
}

func (sc *SupervisorComponent) Start(ctx context.Context) error {
	if err := sc.BaseComponent.Start(ctx); err != nil {
		return err
	}
	for _, name := range sc.manifest.Skipped() {
		logging.Warn(ctx, "service enabled in config but not built in", zap.String("service", name))
	}
	for _, name := range sc.manifest.Disabled() {
		logging.Info(ctx, "service disabled by config", zap.String("service", name))
	}

	opts := supervisor.Options{
		Bus:      sc.deps.Bus,
		Manifest: sc.manifest,
		Registry: sc.registry,
		Runner: service.NewRunner(
			service.WithBudget(sc.budget(ctx)),
			service.WithMetrics(sc.deps.Metrics),
		),
		Tick:     sc.cfg.Tick,
		Observer: sc.deps.Observer,
	}
	if sc.deps.Link != nil && sc.deps.Link.Degraded() {
		opts.Degraded = true
		if err := sc.deps.Link.Err(); err != nil {
			opts.DegradedReason = err.Error()
		}
	}
	if sc.deps.Store != nil {
		opts.Store = sc.deps.Store()
	}
	sup, err := supervisor.New(opts)
	if err != nil {
		return err
	}
	sc.sup.Store(sup)

	// 控制循环不随启动超时 ctx 结束，只由 Stop 取消
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	sc.cancel = cancel
	sc.done = make(chan struct{})
	go func() {
		defer close(sc.done)
		if err := sup.Run(runCtx); err != nil {
			logging.Error(runCtx, "supervisor loop failed", zap.Error(err))
		}
	}()
	logging.Info(ctx, "supervisor component started",
		zap.String("boot_id", sup.BootID()),
		zap.Int("services", sc.manifest.Len()),
		zap.Bool("degraded", opts.Degraded))
	return nil
}

func (sc *SupervisorComponent) Stop(ctx context.Context) error {
	defer sc.BaseComponent.Stop(ctx)
	sup := sc.sup.Load()
	if sup == nil {
		return nil
	}
	sc.cancel()
	<-sc.done

	stopCtx, cancel := context.WithTimeout(ctx, sc.cfg.ShutdownTimeout)
	defer cancel()
	if err := sup.Shutdown(stopCtx); err != nil {
		return fmt.Errorf("supervisor shutdown: %w", err)
	}
	logging.Info(ctx, "supervisor component stopped")
	return nil
}

func (sc *SupervisorComponent) HealthCheck() error {
	if err := sc.BaseComponent.HealthCheck(); err != nil {
		return err
	}
	if sup := sc.sup.Load(); sup == nil || sup.State() != supervisor.StateActive {
		return fmt.Errorf("supervisor not active")
	}
	return nil
}

func (sc *SupervisorComponent) Manifest() *manifest.Manifest { return sc.manifest }

// Supervisor 在 Start 之前为 nil
func (sc *SupervisorComponent) Supervisor() *supervisor.Supervisor { return sc.sup.Load() }

func (sc *SupervisorComponent) Snapshot() (supervisor.Snapshot, bool) {
	sup := sc.sup.Load()
	if sup == nil {
		return supervisor.Snapshot{}, false
	}
	return sup.Snapshot(), true
}

func (sc *SupervisorComponent) KillService(ctx context.Context, name string) error {
	sup := sc.sup.Load()
	if sup == nil {
		return supervisor.ErrNotActive
	}
	id, ok := sup.Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %s", supervisor.ErrUnknownService, name)
	}
	return sup.Kill(ctx, id)
}
