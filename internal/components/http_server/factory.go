package http_server

import (
	"fmt"

	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/core"
)

type Factory struct {
	container *core.Container
}

func NewFactory(c *core.Container) *Factory { return &Factory{container: c} }

func (f *Factory) Create(cfg *HTTPServerConfig) (*HTTPServerComponent, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, fmt.Errorf("http_server component disabled")
	}
	return NewHTTPServerComponent(cfg, f.container), nil
}
