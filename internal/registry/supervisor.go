package registry

import (
	"fmt"

	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/components/link"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/components/message_bus"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/components/orchestrator"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/components/storage"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/config"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/consts"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/core"
)

func init() {
	RegisterWithDeps(consts.COMPONENT_SUPERVISOR,
		[]string{consts.COMPONENT_BUS, consts.COMPONENT_LINK, consts.COMPONENT_STORAGE, consts.COMPONENT_PROMETHEUS},
		func(cfg *config.AppConfig, c *core.Container) (bool, core.Component, error) {
			if cfg.Supervisor == nil || !cfg.Supervisor.Enabled {
				return false, nil, nil
			}
			bc, ok := optional[*message_bus.BusComponent](c, consts.COMPONENT_BUS)
			if !ok {
				return true, nil, fmt.Errorf("supervisor requires the bus component")
			}
			deps := orchestrator.Deps{Bus: bc.Bus()}
			if lc, ok := optional[*link.LinkComponent](c, consts.COMPONENT_LINK); ok {
				deps.Link = lc
			}
			if sc, ok := optional[*storage.StorageComponent](c, consts.COMPONENT_STORAGE); ok {
				deps.Store = sc.Store
			}
			if m := orchestrationMetrics(c); m != nil {
				deps.Metrics = m
				deps.Observer = m
			}
			comp, err := orchestrator.Create(cfg.Supervisor, Catalog(), cfg.Services, deps)
			if err != nil {
				return true, nil, err
			}
			return true, comp, nil
		})
}
