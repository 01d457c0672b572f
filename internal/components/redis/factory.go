// internal/components/redis/factory.go
package redis

import (
	"fmt"
	"strings"
	"time"
)

type Factory struct{}

func NewFactory() *Factory { return &Factory{} }

func (f *Factory) Create(rc *Config) (*RedisComponent, error) {
	if rc == nil || !rc.Enabled {
		return nil, fmt.Errorf("redis component disabled")
	}
	setDefaults(rc)
	if err := validate(rc); err != nil {
		return nil, err
	}
	return NewRedisComponent(rc), nil
}

func setDefaults(c *Config) {
	if c.Mode == "" {
		c.Mode = "single"
	}
	c.Mode = strings.ToLower(c.Mode)
	if len(c.Addresses) == 0 {
		switch c.Mode {
		case "single":
			c.Addresses = []string{"127.0.0.1:6379"}
		case "sentinel":
			c.Addresses = []string{"127.0.0.1:26379"}
		}
	}
	// 设备侧连接数很少：bus 订阅 + 存储读写
	if c.PoolSize <= 0 {
		c.PoolSize = 4
	}
	if c.MinIdleConns < 0 || c.MinIdleConns > c.PoolSize {
		c.MinIdleConns = 0
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = 5 * time.Second
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 3 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 3 * time.Second
	}
	if c.DB < 0 {
		c.DB = 0
	}
}

func validate(c *Config) error {
	switch c.Mode {
	case "single", "cluster", "sentinel":
	default:
		return fmt.Errorf("unknown redis mode: %s", c.Mode)
	}
	if len(c.Addresses) == 0 {
		return fmt.Errorf("redis addresses empty for mode %s", c.Mode)
	}
	if c.Mode == "sentinel" && c.SentinelMaster == "" {
		return fmt.Errorf("sentinel mode requires sentinel_master")
	}
	return nil
}
