//go:build !no_messaging

package main

import (
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/apps"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/apps/messaging"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/bus"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/manifest"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/registry"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/service"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/singleton"
)

func init() {
	registry.RegisterService(manifest.Entry{
		Identity:    service.Messaging,
		StackSize:   6 * 1024,
		MemoryClass: service.MemoryExternal,
		Priority:    4,
		Resolve: func(reg *singleton.Registry, client bus.Client) (service.Service, error) {
			return singleton.Get(reg, func() (*messaging.App, error) { return messaging.New(client, apps.DefaultTick), nil })
		},
	})
}
