package http_server

import "time"

// HTTPServerConfig defines server settings. GracefulTimeout bounds in-flight
// requests on shutdown.
type HTTPServerConfig struct {
	Enabled         bool          `yaml:"enabled" json:"enabled"`
	Address         string        `yaml:"address" json:"address"`
	ReadTimeout     time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" json:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" json:"idle_timeout"`
	GracefulTimeout time.Duration `yaml:"graceful_timeout" json:"graceful_timeout"`
	// Built-in endpoints
	EnableHealth bool `yaml:"enable_health" json:"enable_health"`
	EnableStatus bool `yaml:"enable_status" json:"enable_status"`
	// ServiceName injected from APPInfo.APPName
	ServiceName string `yaml:"-" json:"-"`
}
