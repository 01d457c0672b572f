package storage

// Config 持久化存储配置；backend: memory | redis
type Config struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Backend string `yaml:"backend" json:"backend"`
	Prefix  string `yaml:"prefix" json:"prefix"` // redis key 前缀
}
