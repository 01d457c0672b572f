// internal/components/redis/redis_component.go
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/components/logging"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/consts"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/core"
)

// RedisComponent 持有共享的 UniversalClient，供 storage 与 bus 的 redis 后端使用
type RedisComponent struct {
	*core.BaseComponent
	cfg    *Config
	client redis.UniversalClient
}

func NewRedisComponent(cfg *Config) *RedisComponent {
	return &RedisComponent{
		BaseComponent: core.NewBaseComponent(consts.COMPONENT_REDIS, consts.COMPONENT_LOGGING),
		cfg:           cfg,
		client: redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:        cfg.Addresses,
			DB:           cfg.DB,
			Username:     cfg.Username,
			Password:     cfg.Password,
			MasterName:   cfg.SentinelMaster,
			PoolSize:     cfg.PoolSize,
			MinIdleConns: cfg.MinIdleConns,
			DialTimeout:  cfg.DialTimeout,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		}),
	}
}

func (rc *RedisComponent) Start(ctx context.Context) error {
	if err := rc.BaseComponent.Start(ctx); err != nil {
		return err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	// 连接失败不阻断启动：依赖方（bus/storage）各自处理不可用的情况
	if err := rc.client.Ping(pingCtx).Err(); err != nil {
		logging.Warn(ctx, "redis ping failed, continuing degraded",
			zap.Strings("addrs", rc.cfg.Addresses), zap.Error(err))
		return nil
	}
	logging.Info(ctx, "redis component started",
		zap.String("mode", rc.cfg.Mode),
		zap.Strings("addrs", rc.cfg.Addresses),
	)
	return nil
}

func (rc *RedisComponent) Stop(ctx context.Context) error {
	defer rc.BaseComponent.Stop(ctx)
	if rc.client == nil {
		return nil
	}
	if err := rc.client.Close(); err != nil {
		return fmt.Errorf("redis close: %w", err)
	}
	logging.Info(ctx, "redis component stopped")
	return nil
}

func (rc *RedisComponent) HealthCheck() error {
	if err := rc.BaseComponent.HealthCheck(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return rc.client.Ping(ctx).Err()
}

// Client 返回共享客户端；组件构造时即创建，Start 之前也可用于注入
func (rc *RedisComponent) Client() redis.UniversalClient { return rc.client }
