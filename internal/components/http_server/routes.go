package http_server

import (
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/core"
)

// RouteRegisterFunc mounts routes; the container gives access to other components.
type RouteRegisterFunc func(r chi.Router, c *core.Container) error

var (
	routeMu    sync.Mutex
	registrars []RouteRegisterFunc
)

// RegisterRoutes adds a registrar applied to every http_server started afterwards.
// Usually called from init().
func RegisterRoutes(fn RouteRegisterFunc) {
	if fn == nil {
		return
	}
	routeMu.Lock()
	registrars = append(registrars, fn)
	routeMu.Unlock()
}

func snapshot() []RouteRegisterFunc {
	routeMu.Lock()
	defer routeMu.Unlock()
	out := make([]RouteRegisterFunc, len(registrars))
	copy(out, registrars)
	return out
}
