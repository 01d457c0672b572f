package prometheus

import (
	"fmt"

	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/consts"
)

type Factory struct{}

func NewFactory() *Factory { return &Factory{} }

func (f *Factory) Create(c *Config) (*Component, error) {
	if c == nil || !c.Enabled {
		return nil, fmt.Errorf("prometheus component disabled")
	}
	if c.Address == "" {
		c.Address = ":9090"
	}
	if c.Path == "" {
		c.Path = "/metrics"
	}
	if c.Namespace == "" {
		c.Namespace = consts.METRICS_NAMESPACE
	}
	if c.CollectGoMetrics == nil {
		on := true
		c.CollectGoMetrics = &on
	}
	if c.CollectProcess == nil {
		on := true
		c.CollectProcess = &on
	}
	return NewComponent(c), nil
}
