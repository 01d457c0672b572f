package registry

import (
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/components/link"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/config"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/consts"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/core"
)

func init() {
	RegisterWithDeps(consts.COMPONENT_LINK, []string{consts.COMPONENT_REDIS},
		func(cfg *config.AppConfig, c *core.Container) (bool, core.Component, error) {
			if cfg.Link == nil || !cfg.Link.Enabled {
				return false, nil, nil
			}
			comp, err := link.Create(cfg.Link, redisClient(c))
			if err != nil {
				return true, nil, err
			}
			return true, comp, nil
		})
}
