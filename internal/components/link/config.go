package link

import "time"

// Config 网络链路就绪等待；probe: none | tcp | redis
type Config struct {
	Enabled         bool          `yaml:"enabled" json:"enabled"`
	Probe           string        `yaml:"probe" json:"probe"`
	Address         string        `yaml:"address" json:"address"` // tcp probe 目标
	Timeout         time.Duration `yaml:"timeout" json:"timeout"` // 最长等待，超时后降级启动
	InitialInterval time.Duration `yaml:"initial_interval" json:"initial_interval"`
	MaxInterval     time.Duration `yaml:"max_interval" json:"max_interval"`
}
