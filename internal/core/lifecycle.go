// internal/core/lifecycle.go
package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/hooks"
)

// LifecycleManager 生命周期管理器
type LifecycleManager struct {
	container   *Container
	hookManager *hooks.Manager
	timeout     time.Duration

	mutex          sync.Mutex
	started        []Component
	shutdownCalled bool
}

// NewLifecycleManager 创建新的生命周期管理器；hm 为 nil 时使用空的钩子管理器
func NewLifecycleManager(container *Container, hm *hooks.Manager) *LifecycleManager {
	if hm == nil {
		hm = hooks.NewManager()
	}
	return &LifecycleManager{
		container:   container,
		hookManager: hm,
		timeout:     30 * time.Second,
	}
}

// SetTimeout 设置组件启动/停止超时时间
func (lm *LifecycleManager) SetTimeout(timeout time.Duration) {
	if timeout > 0 {
		lm.timeout = timeout
	}
}

// AddHook 添加生命周期钩子
func (lm *LifecycleManager) AddHook(name string, phase hooks.Phase, function hooks.HookFunc, priority int) error {
	return lm.hookManager.Register(&hooks.Hook{
		Name:     name,
		Phase:    phase,
		Function: function,
		Priority: priority,
	})
}

// StartAll 按依赖顺序启动所有组件；任一组件失败则回滚已启动的组件
func (lm *LifecycleManager) StartAll(ctx context.Context) error {
	if err := lm.hookManager.Execute(ctx, hooks.BeforeStart); err != nil {
		return fmt.Errorf("before_start hooks failed: %w", err)
	}

	components, err := lm.container.SortComponentsByDependencies()
	if err != nil {
		return fmt.Errorf("failed to sort components: %w", err)
	}

	for _, comp := range components {
		startCtx, cancel := context.WithTimeout(ctx, lm.timeout)
		err := comp.Start(startCtx)
		cancel()

		if err != nil {
			zap.L().Error("component start failed", zap.String("component", comp.Name()), zap.Error(err))
			lm.stopStarted(context.Background())
			return fmt.Errorf("failed to start component %s: %w", comp.Name(), err)
		}

		lm.mutex.Lock()
		lm.started = append(lm.started, comp)
		lm.mutex.Unlock()
		zap.L().Info("component started", zap.String("component", comp.Name()))
	}

	if err := lm.hookManager.Execute(ctx, hooks.AfterStart); err != nil {
		zap.L().Warn("after_start hooks failed", zap.Error(err))
	}

	return nil
}

// StopAll 逆序停止所有已启动组件，多次调用只生效一次
func (lm *LifecycleManager) StopAll(ctx context.Context) {
	lm.mutex.Lock()
	if lm.shutdownCalled {
		lm.mutex.Unlock()
		return
	}
	lm.shutdownCalled = true
	lm.mutex.Unlock()

	if err := lm.hookManager.Execute(ctx, hooks.BeforeShutdown); err != nil {
		zap.L().Warn("before_shutdown hooks failed", zap.Error(err))
	}

	lm.stopStarted(ctx)

	if err := lm.hookManager.Execute(ctx, hooks.AfterShutdown); err != nil {
		zap.L().Warn("after_shutdown hooks failed", zap.Error(err))
	}
}

func (lm *LifecycleManager) stopStarted(ctx context.Context) {
	lm.mutex.Lock()
	started := lm.started
	lm.started = nil
	lm.mutex.Unlock()

	for i := len(started) - 1; i >= 0; i-- {
		comp := started[i]
		if !comp.IsActive() {
			continue
		}
		stopCtx, cancel := context.WithTimeout(ctx, lm.timeout)
		if err := comp.Stop(stopCtx); err != nil {
			zap.L().Error("component stop failed", zap.String("component", comp.Name()), zap.Error(err))
		}
		cancel()
	}
}
