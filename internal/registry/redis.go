package registry

import (
	goredis "github.com/redis/go-redis/v9"

	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/components/redis"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/config"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/consts"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/core"
)

func init() {
	Register(consts.COMPONENT_REDIS, func(cfg *config.AppConfig, c *core.Container) (bool, core.Component, error) {
		if cfg.Redis == nil || !cfg.Redis.Enabled {
			return false, nil, nil
		}
		factory := redis.NewFactory()
		comp, err := factory.Create(cfg.Redis)
		if err != nil {
			return true, nil, err
		}
		return true, comp, nil
	})
}

// redisClient 返回共享客户端，redis 未启用时为 nil
func redisClient(c *core.Container) goredis.UniversalClient {
	rc, ok := optional[*redis.RedisComponent](c, consts.COMPONENT_REDIS)
	if !ok {
		return nil
	}
	return rc.Client()
}
