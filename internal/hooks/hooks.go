// internal/hooks/hooks.go
package hooks

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// HookFunc 钩子函数类型
type HookFunc func(ctx context.Context) error

// Phase 生命周期阶段
type Phase string

const (
	BeforeStart    Phase = "before_start"
	AfterStart     Phase = "after_start"
	BeforeShutdown Phase = "before_shutdown"
	AfterShutdown  Phase = "after_shutdown"
)

var validPhases = map[Phase]struct{}{
	BeforeStart:    {},
	AfterStart:     {},
	BeforeShutdown: {},
	AfterShutdown:  {},
}

// Hook 钩子结构
type Hook struct {
	Name     string
	Phase    Phase
	Function HookFunc
	Priority int // 优先级，数值越小优先级越高
}

// Manager 钩子管理器
type Manager struct {
	hooks map[Phase][]*Hook
	mutex sync.RWMutex
}

// NewManager 创建新的钩子管理器
func NewManager() *Manager {
	return &Manager{
		hooks: make(map[Phase][]*Hook),
	}
}

// Register 注册钩子；同一阶段内同名钩子视为重复
func (m *Manager) Register(hook *Hook) error {
	if hook == nil {
		return fmt.Errorf("hook cannot be nil")
	}
	if hook.Function == nil {
		return fmt.Errorf("hook function cannot be nil")
	}
	if _, ok := validPhases[hook.Phase]; !ok {
		return fmt.Errorf("invalid hook phase: %s", hook.Phase)
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	for _, h := range m.hooks[hook.Phase] {
		if h.Name == hook.Name {
			return fmt.Errorf("hook %s already registered for phase %s", hook.Name, hook.Phase)
		}
	}
	m.hooks[hook.Phase] = append(m.hooks[hook.Phase], hook)

	// 按优先级排序，同优先级保持注册顺序
	sort.SliceStable(m.hooks[hook.Phase], func(i, j int) bool {
		return m.hooks[hook.Phase][i].Priority < m.hooks[hook.Phase][j].Priority
	})

	return nil
}

// Execute 执行指定阶段的所有钩子，遇到第一个错误即返回
func (m *Manager) Execute(ctx context.Context, phase Phase) error {
	m.mutex.RLock()
	hooks := make([]*Hook, len(m.hooks[phase]))
	copy(hooks, m.hooks[phase])
	m.mutex.RUnlock()

	for _, hook := range hooks {
		if err := hook.Function(ctx); err != nil {
			return fmt.Errorf("hook %s failed: %w", hook.Name, err)
		}
	}

	return nil
}
