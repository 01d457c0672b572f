package http_server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/consts"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/core"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/supervisor"
)

// StatusSource is implemented by the supervisor component.
type StatusSource interface {
	Snapshot() (supervisor.Snapshot, bool)
	KillService(ctx context.Context, name string) error
}

type statusHandler struct {
	container *core.Container
}

func (h *statusHandler) source() (StatusSource, bool) {
	comp, err := h.container.Resolve(consts.COMPONENT_SUPERVISOR)
	if err != nil {
		return nil, false
	}
	src, ok := comp.(StatusSource)
	return src, ok
}

func (h *statusHandler) mount(r chi.Router) {
	r.Get("/status", h.status)
	r.Get("/services/{name}", h.service)
	r.Post("/services/{name}/kill", h.kill)
}

func (h *statusHandler) status(w http.ResponseWriter, r *http.Request) {
	src, ok := h.source()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "supervisor not registered")
		return
	}
	snap, ok := src.Snapshot()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "supervisor not started")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *statusHandler) service(w http.ResponseWriter, r *http.Request) {
	src, ok := h.source()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "supervisor not registered")
		return
	}
	snap, ok := src.Snapshot()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "supervisor not started")
		return
	}
	name := chi.URLParam(r, "name")
	for _, st := range snap.Services {
		if st.Name == name || st.Identity == name {
			writeJSON(w, http.StatusOK, st)
			return
		}
	}
	writeError(w, http.StatusNotFound, "unknown service "+name)
}

func (h *statusHandler) kill(w http.ResponseWriter, r *http.Request) {
	src, ok := h.source()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "supervisor not registered")
		return
	}
	err := src.KillService(r.Context(), chi.URLParam(r, "name"))
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, supervisor.ErrUnknownService):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, supervisor.ErrNotActive):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
