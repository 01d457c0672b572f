// Package supervisor runs the startup state machine that brings the services
// up, and tears them down again on shutdown.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/bus"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/components/logging"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/manifest"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/platform"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/service"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/singleton"
)

const DefaultTick = time.Millisecond

type Options struct {
	Bus      bus.Client
	Manifest *manifest.Manifest
	Registry *singleton.Registry
	Runner   *service.Runner
	// Tick is the pause between loop iterations.
	Tick time.Duration
	// Degraded marks a boot that continued past a failed prerequisite.
	Degraded       bool
	DegradedReason string
	Store          platform.Store
	Observer       Observer
	BootID         string
}

type Supervisor struct {
	bus      bus.Client
	manifest *manifest.Manifest
	registry *singleton.Registry
	runner   *service.Runner
	tick     time.Duration
	store    platform.Store
	observer Observer
	tracer   trace.Tracer

	bootID         string
	degraded       bool
	degradedReason string
	bootCount      atomic.Int64

	state  atomic.Int32
	active chan struct{}
	ran    atomic.Bool

	mu           sync.Mutex
	lastErrs     [service.IdentityCount]error
	launchErrors []error
}

func New(opts Options) (*Supervisor, error) {
	if opts.Bus == nil {
		return nil, errors.New("supervisor: bus client required")
	}
	if opts.Manifest == nil {
		return nil, errors.New("supervisor: manifest required")
	}
	if opts.Registry == nil {
		opts.Registry = singleton.New()
	}
	if opts.Runner == nil {
		opts.Runner = service.NewRunner()
	}
	if opts.Tick <= 0 {
		opts.Tick = DefaultTick
	}
	if opts.Observer == nil {
		opts.Observer = noopObserver{}
	}
	if opts.BootID == "" {
		opts.BootID = uuid.NewString()
	}
	return &Supervisor{
		bus:            opts.Bus,
		manifest:       opts.Manifest,
		registry:       opts.Registry,
		runner:         opts.Runner,
		tick:           opts.Tick,
		store:          opts.Store,
		observer:       opts.Observer,
		tracer:         otel.Tracer("servicemgr/supervisor"),
		bootID:         opts.BootID,
		degraded:       opts.Degraded,
		degradedReason: opts.DegradedReason,
		active:         make(chan struct{}),
	}, nil
}

func (s *Supervisor) State() State { return State(s.state.Load()) }

// Active is closed once the supervisor reaches ACTIVE.
func (s *Supervisor) Active() <-chan struct{} { return s.active }

func (s *Supervisor) BootID() string { return s.bootID }

// Run is the control loop: drain the manager mailbox, advance the state
// machine, pause for one tick. It returns when ctx is done. Run may be
// called once.
func (s *Supervisor) Run(ctx context.Context) error {
	if !s.ran.CompareAndSwap(false, true) {
		return errors.New("supervisor: already running")
	}
	logging.Info(ctx, "supervisor loop started",
		zap.String("boot_id", s.bootID),
		zap.Int("services", s.manifest.Len()),
		zap.Duration("tick", s.tick))
	s.observer.StateChanged(int(StateIdle))

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()
	for {
		s.drain(ctx)
		s.step(ctx)
		select {
		case <-ctx.Done():
			logging.Info(ctx, "supervisor loop stopped", zap.Stringer("state", s.State()))
			return nil
		case <-ticker.C:
		}
	}
}

func (s *Supervisor) drain(ctx context.Context) {
	var pkt bus.Packet
	for s.bus.Receive(service.ServiceManager, &pkt) {
		s.handlePacket(ctx, pkt)
	}
}

func (s *Supervisor) handlePacket(ctx context.Context, pkt bus.Packet) {
	fields := []zap.Field{zap.Stringer("kind", pkt.Kind), zap.Stringer("source", pkt.Source)}
	if pkt.Kind == bus.KindEvent {
		var ev bus.Event
		if err := pkt.DecodePayload(&ev); err == nil {
			fields = append(fields, zap.String("event", ev.Name), zap.Any("fields", ev.Fields))
		}
	}
	logging.Debug(ctx, "supervisor received packet", fields...)
}

// step runs one state's entry action and advances. In ACTIVE it does nothing.
// Only the Run goroutine calls it.
func (s *Supervisor) step(ctx context.Context) {
	switch s.State() {
	case StateIdle:
		s.enter(ctx, StateInit)
	case StateInit:
		s.bus.Register(service.ServiceManager)
		s.enter(ctx, StateStart)
	case StateStart:
		s.startServices(ctx)
		s.bus.NotifyReady(service.ServiceManager)
		s.publishLinkStatus(ctx)
		s.recordBoot(ctx)
		s.enter(ctx, StateActive)
	case StateActive:
	}
}

func (s *Supervisor) enter(ctx context.Context, next State) {
	prev := s.State()
	_, span := s.tracer.Start(ctx, "supervisor.transition", trace.WithAttributes(
		attribute.String("from", prev.String()),
		attribute.String("to", next.String()),
	))
	s.state.Store(int32(next))
	span.End()

	s.observer.StateChanged(int(next))
	logging.Info(ctx, "supervisor state changed",
		zap.Stringer("from", prev), zap.Stringer("to", next))
	if next == StateActive {
		close(s.active)
	}
}

func (s *Supervisor) startServices(ctx context.Context) {
	for _, slot := range s.manifest.Slots() {
		d := slot.Descriptor
		if err := s.launch(ctx, slot); err != nil {
			s.mu.Lock()
			s.lastErrs[d.Identity] = err
			s.launchErrors = append(s.launchErrors, err)
			s.mu.Unlock()
			continue
		}
		s.mu.Lock()
		s.lastErrs[d.Identity] = nil
		s.mu.Unlock()
	}
}

func (s *Supervisor) launch(ctx context.Context, slot manifest.Slot) error {
	d := slot.Descriptor
	if d.Service == nil {
		svc, err := slot.Entry.Resolve(s.registry, s.bus)
		if err != nil {
			logging.Error(ctx, "service resolve failed", zap.String("service", d.Name), zap.Error(err))
			return &service.LaunchError{Name: d.Name, Identity: d.Identity, Err: err}
		}
		d.Service = svc
	}
	_, err := s.runner.Run(ctx, d)
	return err
}

func (s *Supervisor) publishLinkStatus(ctx context.Context) {
	pkt, err := bus.EncodePacket(service.ServiceManager, bus.KindLinkStatus, bus.LinkStatus{
		Up:     !s.degraded,
		BootID: s.bootID,
		Reason: s.degradedReason,
	})
	if err != nil {
		logging.Warn(ctx, "link status not published", zap.Error(err))
		return
	}
	s.bus.Send(pkt)
}

// recordBoot keeps boot bookkeeping in the store. Failures are logged only.
func (s *Supervisor) recordBoot(ctx context.Context) {
	if s.store == nil {
		return
	}
	n, err := s.store.Incr(ctx, platform.KeyBootCount)
	if err != nil {
		logging.Warn(ctx, "boot count not recorded", zap.String("store", s.store.Name()), zap.Error(err))
		return
	}
	s.bootCount.Store(n)
	if err := s.store.Set(ctx, platform.KeyLastBootDegraded, strconv.FormatBool(s.degraded)); err != nil {
		logging.Warn(ctx, "boot state not recorded", zap.Error(err))
	}
	if err := s.store.Set(ctx, platform.KeyLastBootID, s.bootID); err != nil {
		logging.Warn(ctx, "boot id not recorded", zap.Error(err))
	}
}

// LaunchErrors returns the launch failures of this boot.
func (s *Supervisor) LaunchErrors() []error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]error(nil), s.launchErrors...)
}

var (
	ErrUnknownService = errors.New("service not in manifest")
	ErrNotActive      = errors.New("supervisor not active")
)

// Kill tears one service down by identity. Only allowed once ACTIVE.
func (s *Supervisor) Kill(ctx context.Context, id service.Identity) error {
	if s.State() != StateActive {
		return ErrNotActive
	}
	d, ok := s.manifest.Table().Lookup(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownService, id)
	}
	return s.runner.Kill(ctx, d)
}

// Shutdown kills every running service in reverse launch order.
func (s *Supervisor) Shutdown(ctx context.Context) error {
	slots := s.manifest.Slots()
	var errs []error
	for i := len(slots) - 1; i >= 0; i-- {
		if err := s.runner.Kill(ctx, slots[i].Descriptor); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
