package link

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/components/logging"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/consts"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/core"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/platform"
)

const (
	ProbeNone  = "none"
	ProbeTCP   = "tcp"
	ProbeRedis = "redis"

	DefaultTimeout = 30 * time.Second
)

// LinkComponent 在 supervisor 之前等待网络就绪，等待有上限；
// 超时记录 LinkWaitError 并以降级模式继续启动。
type LinkComponent struct {
	*core.BaseComponent
	cfg   *Config
	probe platform.Probe

	mu      sync.RWMutex
	waitErr error
}

func Create(cfg *Config, client redis.UniversalClient) (*LinkComponent, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, fmt.Errorf("link component disabled")
	}
	cfg.Probe = strings.ToLower(cfg.Probe)
	if cfg.Probe == "" {
		cfg.Probe = ProbeNone
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	deps := []string{consts.COMPONENT_LOGGING, consts.COMPONENT_BUS}
	var probe platform.Probe
	switch cfg.Probe {
	case ProbeNone:
		probe = platform.AlwaysUp
	case ProbeTCP:
		if cfg.Address == "" {
			return nil, errors.New("link probe tcp requires address")
		}
		probe = platform.TCPProbe(cfg.Address)
	case ProbeRedis:
		if client == nil {
			return nil, errors.New("link probe redis requires the redis component")
		}
		probe = platform.RedisProbe(client)
		deps = append(deps, consts.COMPONENT_REDIS)
	default:
		return nil, fmt.Errorf("unsupported link probe: %s", cfg.Probe)
	}
	return &LinkComponent{
		BaseComponent: core.NewBaseComponent(consts.COMPONENT_LINK, deps...),
		cfg:           cfg,
		probe:         probe,
	}, nil
}

func (lc *LinkComponent) Start(ctx context.Context) error {
	if err := lc.BaseComponent.Start(ctx); err != nil {
		return err
	}
	err := platform.WaitForLink(ctx, lc.probe, platform.LinkOptions{
		Timeout:         lc.cfg.Timeout,
		InitialInterval: lc.cfg.InitialInterval,
		MaxInterval:     lc.cfg.MaxInterval,
	})
	lc.mu.Lock()
	lc.waitErr = err
	lc.mu.Unlock()
	if err != nil {
		logging.Error(ctx, "link wait failed, boot continues degraded",
			zap.String("probe", lc.cfg.Probe), zap.Error(err))
	}
	return nil
}

// Degraded 链路未在时限内就绪
func (lc *LinkComponent) Degraded() bool {
	lc.mu.RLock()
	defer lc.mu.RUnlock()
	return lc.waitErr != nil
}

func (lc *LinkComponent) Err() error {
	lc.mu.RLock()
	defer lc.mu.RUnlock()
	return lc.waitErr
}

// Timeout 供 app 调整组件启动超时
func (lc *LinkComponent) Timeout() time.Duration { return lc.cfg.Timeout }
