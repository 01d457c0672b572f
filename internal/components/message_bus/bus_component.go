package message_bus

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/bus"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/components/logging"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/consts"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/core"
)

const (
	TransportMemory = "memory"
	TransportRedis  = "redis"
)

// BusComponent 持有进程内唯一的总线客户端。
// 传输层初始化失败只记录日志，不阻断启动：后续的总线操作静默丢弃。
type BusComponent struct {
	*core.BaseComponent
	cfg     *Config
	bus     *bus.Bus
	initErr error
}

func Create(cfg *Config, client redis.UniversalClient, metrics bus.Metrics) (*BusComponent, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, fmt.Errorf("bus component disabled")
	}
	cfg.Transport = strings.ToLower(cfg.Transport)
	if cfg.Transport == "" {
		cfg.Transport = TransportMemory
	}

	deps := []string{consts.COMPONENT_LOGGING}
	var transport bus.Transport
	switch cfg.Transport {
	case TransportMemory:
		transport = bus.NewMemoryTransport()
	case TransportRedis:
		if client == nil {
			return nil, fmt.Errorf("bus transport redis requires the redis component")
		}
		transport = bus.NewRedisTransport(client, cfg.ChannelPrefix)
		deps = append(deps, consts.COMPONENT_REDIS)
	default:
		return nil, fmt.Errorf("unsupported bus transport: %s", cfg.Transport)
	}

	return &BusComponent{
		BaseComponent: core.NewBaseComponent(consts.COMPONENT_BUS, deps...),
		cfg:           cfg,
		bus: bus.New(transport,
			bus.WithMailboxSize(cfg.MailboxSize),
			bus.WithPublishTimeout(cfg.PublishTimeout),
			bus.WithMetrics(metrics),
		),
	}, nil
}

func (bc *BusComponent) Start(ctx context.Context) error {
	if err := bc.BaseComponent.Start(ctx); err != nil {
		return err
	}
	if err := bc.bus.Init(ctx); err != nil {
		bc.initErr = err
		logging.Error(ctx, "bus init failed, continuing without bus", zap.Error(err))
		return nil
	}
	logging.Info(ctx, "bus component started", zap.String("transport", bc.cfg.Transport))
	return nil
}

func (bc *BusComponent) Stop(ctx context.Context) error {
	defer bc.BaseComponent.Stop(ctx)
	if err := bc.bus.Close(); err != nil {
		return fmt.Errorf("bus close: %w", err)
	}
	return nil
}

func (bc *BusComponent) HealthCheck() error {
	if err := bc.BaseComponent.HealthCheck(); err != nil {
		return err
	}
	if bc.initErr != nil {
		return bc.initErr
	}
	return nil
}

func (bc *BusComponent) Bus() *bus.Bus { return bc.bus }

// InitErr 返回启动时的 *bus.InitError（如有）
func (bc *BusComponent) InitErr() error { return bc.initErr }
