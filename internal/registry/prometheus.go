package registry

import (
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/components/prometheus"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/config"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/consts"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/core"
)

func init() {
	Register(consts.COMPONENT_PROMETHEUS, func(cfg *config.AppConfig, c *core.Container) (bool, core.Component, error) {
		if cfg.Prometheus == nil || !cfg.Prometheus.Enabled {
			return false, nil, nil
		}
		factory := prometheus.NewFactory()
		comp, err := factory.Create(cfg.Prometheus)
		if err != nil {
			return true, nil, err
		}
		return true, comp, nil
	})
}

// orchestrationMetrics returns nil when prometheus is disabled so callers can
// keep their noop defaults.
func orchestrationMetrics(c *core.Container) *prometheus.OrchestrationMetrics {
	p, ok := optional[*prometheus.Component](c, consts.COMPONENT_PROMETHEUS)
	if !ok {
		return nil
	}
	return p.Orchestration()
}
