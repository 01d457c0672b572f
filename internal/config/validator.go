// config/validator.go
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/components/link"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/components/message_bus"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/components/storage"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/consts"
)

// Validator 配置验证器
type Validator struct{}

// NewValidator 创建配置验证器
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateAppConfig 校验跨组件约束；各组件自身字段在其 factory 中校验
func (v *Validator) ValidateAppConfig(config *AppConfig) error {
	if config == nil {
		return fmt.Errorf("config cannot be nil")
	}
	var errs []error
	if err := config.Services.Validate(); err != nil {
		errs = append(errs, err)
	}
	redisOn := config.Redis != nil && config.Redis.Enabled

	if b := config.Bus; b != nil && b.Enabled {
		switch strings.ToLower(b.Transport) {
		case "", message_bus.TransportMemory:
		case message_bus.TransportRedis:
			if !redisOn {
				errs = append(errs, errors.New("bus.transport redis requires redis.enabled"))
			}
		default:
			errs = append(errs, fmt.Errorf("bus.transport %q unknown", b.Transport))
		}
		if b.MailboxSize < 0 {
			errs = append(errs, errors.New("bus.mailbox_size must be >= 0"))
		}
	}
	if s := config.Storage; s != nil && s.Enabled {
		switch strings.ToLower(s.Backend) {
		case "", storage.BackendMemory:
		case storage.BackendRedis:
			if !redisOn {
				errs = append(errs, errors.New("storage.backend redis requires redis.enabled"))
			}
		default:
			errs = append(errs, fmt.Errorf("storage.backend %q unknown", s.Backend))
		}
	}
	if l := config.Link; l != nil && l.Enabled {
		if strings.ToLower(l.Probe) == link.ProbeRedis && !redisOn {
			errs = append(errs, errors.New("link.probe redis requires redis.enabled"))
		}
		if l.Timeout < 0 {
			errs = append(errs, errors.New("link.timeout must be >= 0"))
		}
	}
	if s := config.Supervisor; s != nil && s.Enabled {
		if config.Bus == nil || !config.Bus.Enabled {
			errs = append(errs, errors.New("supervisor requires bus.enabled"))
		}
		if s.Tick < 0 {
			errs = append(errs, errors.New("supervisor.tick must be >= 0"))
		}
	}
	return errors.Join(errs...)
}

func (v *Validator) validateConfigFilePath(env string, path string) error {
	if path == "" {
		return fmt.Errorf("config file path cannot be empty")
	}
	if len(path) > 255 {
		return fmt.Errorf("config file path is too long")
	}

	// 验证config file 存在
	if !fileExists(path) {
		return fmt.Errorf("config file does not exist: %s", path)
	}

	if err := v.validateEnv(env); err != nil {
		return err
	}
	return nil
}

func (v *Validator) validateEnv(env string) error {
	switch env {
	case consts.ENV_DEVELOPMENT, consts.ENV_TEST, consts.ENV_PRODUCTION:
		return nil
	default:
		return fmt.Errorf("running environment is not valid: %s", env)
	}
}
