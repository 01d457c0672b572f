// config/schema.go
package config

import (
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/components/http_server"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/components/link"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/components/logging"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/components/message_bus"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/components/orchestrator"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/components/prometheus"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/components/redis"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/components/storage"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/components/telemetry"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/manifest"
)

// AppConfig 应用程序配置结构
type AppConfig struct {
	APPInfo    *APPInfo                      `yaml:"app_info" json:"app_info"`
	Logging    *logging.LoggingConfig        `yaml:"logging" json:"logging"`
	Telemetry  *telemetry.Config             `yaml:"telemetry" json:"telemetry"`
	Prometheus *prometheus.Config            `yaml:"prometheus" json:"prometheus"`
	Redis      *redis.Config                 `yaml:"redis" json:"redis"`
	HTTPServer *http_server.HTTPServerConfig `yaml:"http_server" json:"http_server"`
	Storage    *storage.Config               `yaml:"storage" json:"storage"`
	Bus        *message_bus.Config           `yaml:"bus" json:"bus"`
	Link       *link.Config                  `yaml:"link" json:"link"`
	Supervisor *orchestrator.Config          `yaml:"supervisor" json:"supervisor"`
	// Services 按服务名覆盖默认启动参数；未出现的服务保持开启
	Services manifest.Config `yaml:"services" json:"services"`
}

type APPInfo struct {
	APPName string `yaml:"app_name" json:"app_name"`
	ENV     string `yaml:"env" json:"env"`
}
