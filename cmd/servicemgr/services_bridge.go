//go:build !no_bridge

package main

import (
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/apps"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/apps/bridge"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/bus"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/manifest"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/registry"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/service"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/singleton"
)

func init() {
	registry.RegisterService(manifest.Entry{
		Identity:    service.ProtocolBridge,
		StackSize:   10 * 1024,
		MemoryClass: service.MemoryInternal,
		Priority:    5,
		Resolve: func(reg *singleton.Registry, client bus.Client) (service.Service, error) {
			return singleton.Get(reg, func() (*bridge.App, error) { return bridge.New(client, apps.DefaultTick), nil })
		},
	})
}
