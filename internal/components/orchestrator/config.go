package orchestrator

import "time"

// Config supervisor 配置
type Config struct {
	Enabled         bool          `yaml:"enabled" json:"enabled"`
	Tick            time.Duration `yaml:"tick" json:"tick"` // 控制循环间隔，默认 1ms
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout"`
	// 内存预算（字节），0 表示不限制；外部内存为 0 时取主机可用内存
	InternalMemory uint64 `yaml:"internal_memory_bytes" json:"internal_memory_bytes"`
	ExternalMemory uint64 `yaml:"external_memory_bytes" json:"external_memory_bytes"`
}
