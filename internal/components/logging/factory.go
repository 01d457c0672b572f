// internal/components/logging/factory.go
package logging

import (
	"fmt"
	"strings"

	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/core"
)

// Factory 日志组件工厂
type Factory struct{}

// NewFactory 创建日志组件工厂
func NewFactory() *Factory {
	return &Factory{}
}

// Create 创建日志组件实例
func (f *Factory) Create(cfg *LoggingConfig) (core.Component, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, fmt.Errorf("logging component is disabled")
	}

	f.setDefaults(cfg)
	if err := f.validate(cfg); err != nil {
		return nil, err
	}

	return NewLoggerComponent(cfg), nil
}

// setDefaults 设置默认配置值
func (f *Factory) setDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	if cfg.Format == "" {
		cfg.Format = "console"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
	if cfg.Output == "file" && cfg.FileConfig == nil {
		cfg.FileConfig = &FileConfig{Dir: "./logs", Filename: "servicemgr"}
	}
	if cfg.RotateConfig != nil && cfg.RotateConfig.Enabled && cfg.RotateConfig.MaxSizeMB == 0 {
		cfg.RotateConfig.MaxSizeMB = 4
	}
}

// validate performs explicit validation rules without applying hidden defaults.
func (f *Factory) validate(cfg *LoggingConfig) error {
	switch strings.ToLower(cfg.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", cfg.Format)
	}
	if cfg.RotateConfig != nil && cfg.RotateConfig.Enabled {
		if cfg.RotateConfig.MaxSizeMB < 0 {
			return fmt.Errorf("logging.rotate_config.max_size_mb must be >= 0")
		}
		if cfg.RotateConfig.MaxAge < 0 {
			return fmt.Errorf("logging.rotate_config.max_age must be >= 0")
		}
	}
	return nil
}
