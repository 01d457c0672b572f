// Package bridge is the home-automation protocol bridge service. The bridged
// protocol stack is out of scope; the service follows link state and
// answers identify commands.
package bridge

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/apps"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/bus"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/components/logging"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/service"
)

const (
	EventOnline   = "bridge.online"
	EventOffline  = "bridge.offline"
	EventIdentify = "bridge.identified"

	CommandIdentify = "identify"
)

type Status struct {
	Online     bool `json:"online"`
	Identifies int  `json:"identifies"`
}

type App struct {
	bus  bus.Client
	tick time.Duration

	mu     sync.RWMutex
	status Status
}

func New(client bus.Client, tick time.Duration) *App {
	return &App{bus: client, tick: tick}
}

func (a *App) Start(ctx context.Context, p service.LaunchParams) (*service.Task, error) {
	if a.bus == nil {
		return nil, errors.New("bridge: no bus client")
	}
	a.bus.Register(p.Identity)
	return service.Spawn(ctx, p, func(ctx context.Context) error {
		return apps.Loop(ctx, a.bus, p.Identity, a.tick, a.handler(p.Identity))
	}), nil
}

func (a *App) Stop(ctx context.Context, t *service.Task) error { return t.Stop(ctx) }

func (a *App) handler(self service.Identity) apps.Handler {
	return func(ctx context.Context, pkt bus.Packet) {
		switch pkt.Kind {
		case bus.KindLinkStatus:
			var ls bus.LinkStatus
			if err := pkt.DecodePayload(&ls); err != nil {
				logging.Warn(ctx, "bridge: bad link status", zap.Error(err))
				return
			}
			a.mu.Lock()
			changed := a.status.Online != ls.Up
			a.status.Online = ls.Up
			a.mu.Unlock()
			if !changed {
				return
			}
			name := EventOffline
			if ls.Up {
				name = EventOnline
			}
			apps.Emit(ctx, a.bus, self, bus.Event{Name: name})
		case bus.KindCommand:
			var cmd bus.Event
			if err := pkt.DecodePayload(&cmd); err != nil || cmd.Name != CommandIdentify {
				logging.Debug(ctx, "bridge: ignoring command", zap.Stringer("from", pkt.Source))
				return
			}
			a.mu.Lock()
			a.status.Identifies++
			a.mu.Unlock()
			apps.Emit(ctx, a.bus, self, bus.Event{Name: EventIdentify})
		}
	}
}

func (a *App) Status() Status {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.status
}
