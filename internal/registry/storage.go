package registry

import (
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/components/storage"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/config"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/consts"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/core"
)

func init() {
	RegisterWithDeps(consts.COMPONENT_STORAGE, []string{consts.COMPONENT_REDIS},
		func(cfg *config.AppConfig, c *core.Container) (bool, core.Component, error) {
			if cfg.Storage == nil || !cfg.Storage.Enabled {
				return false, nil, nil
			}
			comp, err := storage.Create(cfg.Storage, redisClient(c))
			if err != nil {
				return true, nil, err
			}
			return true, comp, nil
		})
}
