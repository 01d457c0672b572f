// config/config_manager.go
package config

import "fmt"

// ConfigManager 组合加载与校验；LoadConfig 成功后 GetConfig 才有值
type ConfigManager struct {
	loader    *Loader
	validator *Validator
	appConfig *AppConfig
}

func NewConfigManager(env string, configPath string) *ConfigManager {
	return &ConfigManager{
		loader:    NewLoader(env, configPath),
		validator: NewValidator(),
	}
}

func (cm *ConfigManager) GetConfig() *AppConfig { return cm.appConfig }

// Env 返回生效的运行环境
func (cm *ConfigManager) Env() string { return cm.loader.env }

// Path 返回配置文件路径
func (cm *ConfigManager) Path() string { return cm.loader.configPath }

func (cm *ConfigManager) LoadConfig() error {
	if err := cm.validator.validateConfigFilePath(cm.loader.env, cm.loader.configPath); err != nil {
		return err
	}
	cfg, err := cm.loader.LoadConfig()
	if err != nil {
		return err
	}
	if err := cm.validator.ValidateAppConfig(cfg); err != nil {
		return fmt.Errorf("invalid config %s: %w", cm.loader.configPath, err)
	}
	cm.appConfig = cfg
	return nil
}
