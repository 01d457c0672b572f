// Package messaging is the telemetry/messaging client service. It connects
// once the link is up and reports publishes to the manager; the broker
// protocol itself is out of scope.
package messaging

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/apps"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/bus"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/components/logging"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/service"
)

const (
	EventConnected = "messaging.connected"
	EventPublished = "messaging.published"

	CommandPublish = "publish"
)

type Status struct {
	Connected bool `json:"connected"`
	Published int  `json:"published"`
	// Pending counts publishes requested while disconnected.
	Pending int `json:"pending"`
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
		return nil, errors.New("messaging: no bus client")
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
				logging.Warn(ctx, "messaging: bad link status", zap.Error(err))
				return
			}
			if !ls.Up {
				return
			}
			a.mu.Lock()
			already := a.status.Connected
			a.status.Connected = true
			flushed := a.status.Pending
			a.status.Published += flushed
			a.status.Pending = 0
			a.mu.Unlock()
			if !already {
				apps.Emit(ctx, a.bus, self, bus.Event{
					Name:   EventConnected,
					Fields: map[string]string{"boot_id": ls.BootID, "flushed": strconv.Itoa(flushed)},
				})
			}
		case bus.KindCommand:
			var cmd bus.Event
			if err := pkt.DecodePayload(&cmd); err != nil || cmd.Name != CommandPublish {
				logging.Debug(ctx, "messaging: ignoring command", zap.Stringer("from", pkt.Source))
				return
			}
			a.mu.Lock()
			connected := a.status.Connected
			if connected {
				a.status.Published++
			} else {
				a.status.Pending++
			}
			a.mu.Unlock()
			if connected {
				apps.Emit(ctx, a.bus, self, bus.Event{Name: EventPublished, Fields: cmd.Fields})
			}
		}
	}
}

func (a *App) Status() Status {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.status
}
