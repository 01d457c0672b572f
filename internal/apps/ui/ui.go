// Package ui is the display service. It tracks what the screen should show;
// drawing is out of scope.
package ui

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

// Screen names.
const (
	ScreenSplash  = "splash"
	ScreenHome    = "home"
	ScreenOffline = "offline"
)

type Status struct {
	Screen     string   `json:"screen"`
	LinkUp     bool     `json:"link_up"`
	ReadyPeers []string `json:"ready_peers"`
}

type App struct {
	bus  bus.Client
	tick time.Duration

	mu     sync.RWMutex
	status Status
}

func New(client bus.Client, tick time.Duration) *App {
	return &App{bus: client, tick: tick, status: Status{Screen: ScreenSplash}}
}

func (a *App) Start(ctx context.Context, p service.LaunchParams) (*service.Task, error) {
	if a.bus == nil {
		return nil, errors.New("ui: no bus client")
	}
	a.bus.Register(p.Identity)
	return service.Spawn(ctx, p, func(ctx context.Context) error {
		return apps.Loop(ctx, a.bus, p.Identity, a.tick, a.handle)
	}), nil
}

func (a *App) Stop(ctx context.Context, t *service.Task) error { return t.Stop(ctx) }

func (a *App) handle(ctx context.Context, pkt bus.Packet) {
	a.mu.Lock()
	defer a.mu.Unlock()
	switch pkt.Kind {
	case bus.KindReady:
		a.status.ReadyPeers = append(a.status.ReadyPeers, pkt.Source.String())
	case bus.KindLinkStatus:
		var ls bus.LinkStatus
		if err := pkt.DecodePayload(&ls); err != nil {
			logging.Warn(ctx, "ui: bad link status", zap.Error(err))
			return
		}
		a.status.LinkUp = ls.Up
		if ls.Up {
			a.status.Screen = ScreenHome
		} else {
			a.status.Screen = ScreenOffline
		}
	}
}

func (a *App) Status() Status {
	a.mu.RLock()
	defer a.mu.RUnlock()
	s := a.status
	s.ReadyPeers = append([]string(nil), a.status.ReadyPeers...)
	return s
}
