//go:build !no_ui

package main

import (
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/apps"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/apps/ui"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/bus"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/manifest"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/registry"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/service"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/singleton"
)

func init() {
	registry.RegisterService(manifest.Entry{
		Identity:    service.UI,
		StackSize:   8 * 1024,
		MemoryClass: service.MemoryExternal,
		Priority:    5,
		Resolve: func(reg *singleton.Registry, client bus.Client) (service.Service, error) {
			return singleton.Get(reg, func() (*ui.App, error) { return ui.New(client, apps.DefaultTick), nil })
		},
	})
}
