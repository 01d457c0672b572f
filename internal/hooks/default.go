// internal/hooks/default.go
package hooks

import (
	"context"

	"go.uber.org/zap"
)

// RegisterDefaults 注册默认的日志钩子
func RegisterDefaults(m *Manager) error {
	defaults := []struct {
		name  string
		phase Phase
		msg   string
	}{
		{"log_startup", BeforeStart, "servicemgr is starting"},
		{"log_started", AfterStart, "servicemgr started"},
		{"log_shutdown", BeforeShutdown, "servicemgr is shutting down"},
		{"log_shutdown_complete", AfterShutdown, "servicemgr shutdown completed"},
	}
	for _, d := range defaults {
		msg := d.msg
		hook := &Hook{
			Name:  d.name,
			Phase: d.phase,
			Function: func(ctx context.Context) error {
				zap.L().Info(msg)
				return nil
			},
			Priority: 100,
		}
		if err := m.Register(hook); err != nil {
			return err
		}
	}
	return nil
}
