// config/loader.go
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/consts"
)

// Loader 配置加载器
type Loader struct {
	env        string
	configPath string
}

// NewLoader 创建配置加载器
func NewLoader(env string, configPath string) *Loader {
	if env == "" {
		env = consts.ENV_DEVELOPMENT
	}
	if configPath == "" {
		configPath = consts.DEFAULT_CONFIG_PATH
	}
	return &Loader{env: env, configPath: configPath}
}

// LoadConfig 按扩展名解析 yaml / json
func (l *Loader) LoadConfig() (*AppConfig, error) {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err := Parse(filepath.Ext(l.configPath), data)
	if err != nil {
		return nil, err
	}
	l.mergeEnvVars(cfg)
	return cfg, nil
}

// Parse 解析配置内容；ext 为 ".yaml" / ".yml" / ".json"
func Parse(ext string, data []byte) (*AppConfig, error) {
	var cfg AppConfig
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", ext)
	}
	return &cfg, nil
}

// mergeEnvVars 运行环境以启动参数为准，并把应用名注入需要它的组件配置
func (l *Loader) mergeEnvVars(cfg *AppConfig) {
	if cfg.APPInfo == nil {
		cfg.APPInfo = &APPInfo{}
	}
	if cfg.APPInfo.APPName == "" {
		cfg.APPInfo.APPName = "servicemgr"
	}
	cfg.APPInfo.ENV = l.env
	if cfg.HTTPServer != nil {
		cfg.HTTPServer.ServiceName = cfg.APPInfo.APPName
	}
	if cfg.Telemetry != nil && cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.APPInfo.APPName
	}
}

// fileExists 检查文件是否存在
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
