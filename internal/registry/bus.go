package registry

import (
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/bus"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/components/message_bus"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/config"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/consts"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/core"
)

func init() {
	RegisterWithDeps(consts.COMPONENT_BUS, []string{consts.COMPONENT_REDIS, consts.COMPONENT_PROMETHEUS},
		func(cfg *config.AppConfig, c *core.Container) (bool, core.Component, error) {
			if cfg.Bus == nil || !cfg.Bus.Enabled {
				return false, nil, nil
			}
			var metrics bus.Metrics
			if m := orchestrationMetrics(c); m != nil {
				metrics = m
			}
			comp, err := message_bus.Create(cfg.Bus, redisClient(c), metrics)
			if err != nil {
				return true, nil, err
			}
			return true, comp, nil
		})
}
