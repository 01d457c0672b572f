package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/components/logging"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/consts"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/core"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/platform"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// StorageComponent 启动前置条件：持久化存储可用；不可用时退化为内存存储继续启动
type StorageComponent struct {
	*core.BaseComponent
	cfg      *Config
	primary  platform.Store
	store    platform.Store
	degraded bool
}

func Create(cfg *Config, client redis.UniversalClient) (*StorageComponent, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, fmt.Errorf("storage component disabled")
	}
	cfg.Backend = strings.ToLower(cfg.Backend)
	if cfg.Backend == "" {
		cfg.Backend = BackendMemory
	}

	deps := []string{consts.COMPONENT_LOGGING}
	var primary platform.Store
	switch cfg.Backend {
	case BackendMemory:
		primary = platform.NewMemoryStore()
	case BackendRedis:
		if client == nil {
			return nil, fmt.Errorf("storage backend redis requires the redis component")
		}
		primary = platform.NewRedisStore(client, cfg.Prefix)
		deps = append(deps, consts.COMPONENT_REDIS)
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Backend)
	}
	return &StorageComponent{
		BaseComponent: core.NewBaseComponent(consts.COMPONENT_STORAGE, deps...),
		cfg:           cfg,
		primary:       primary,
		store:         primary,
	}, nil
}

func (sc *StorageComponent) Start(ctx context.Context) error {
	if err := sc.BaseComponent.Start(ctx); err != nil {
		return err
	}
	store, degraded, err := platform.PrepareStore(ctx, sc.primary)
	sc.store, sc.degraded = store, degraded
	if err != nil {
		logging.Warn(ctx, "storage unavailable, using memory store", zap.Error(err))
		return nil
	}
	logging.Info(ctx, "storage component started", zap.String("backend", store.Name()))
	return nil
}

func (sc *StorageComponent) Stop(ctx context.Context) error {
	defer sc.BaseComponent.Stop(ctx)
	return sc.store.Close()
}

// Store 返回实际使用的存储（可能是退化后的内存存储）
func (sc *StorageComponent) Store() platform.Store { return sc.store }

func (sc *StorageComponent) Degraded() bool { return sc.degraded }
