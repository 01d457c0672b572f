package http_server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/consts"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/core"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/supervisor"
)

// fakeSupervisor stands in for the supervisor component.
type fakeSupervisor struct {
	*core.BaseComponent
	snap   supervisor.Snapshot
	killed []string
}

func (f *fakeSupervisor) Snapshot() (supervisor.Snapshot, bool) { return f.snap, true }

func (f *fakeSupervisor) KillService(_ context.Context, name string) error {
	if name != "ui" {
		return supervisor.ErrUnknownService
	}
	f.killed = append(f.killed, name)
	return nil
}

func newTestServer(t *testing.T, healthy bool) (*httptest.Server, *fakeSupervisor) {
	t.Helper()
	c := core.NewContainer()
	sup := &fakeSupervisor{
		BaseComponent: core.NewBaseComponent(consts.COMPONENT_SUPERVISOR),
		snap: supervisor.Snapshot{
			State:  "ACTIVE",
			BootID: "b1",
			Services: []supervisor.ServiceStatus{
				{Name: "ui", Identity: "ui", Running: true},
				{Name: "messaging", Identity: "messaging", LastError: "launch failed"},
			},
		},
	}
	if healthy {
		sup.SetActive(true)
	}
	require.NoError(t, c.Register(consts.COMPONENT_SUPERVISOR, sup))

	hc, err := NewFactory(c).Create(&HTTPServerConfig{Enabled: true, EnableHealth: true, EnableStatus: true})
	require.NoError(t, err)
	require.NoError(t, hc.AddRouteRegistrar(nil))
	require.NoError(t, hc.buildRouter())

	srv := httptest.NewServer(hc.Router())
	t.Cleanup(srv.Close)
	return srv, sup
}

func TestStatusEndpoints(t *testing.T) {
	srv, sup := newTestServer(t, true)

	resp, err := http.Get(srv.URL + "/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var snap supervisor.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	assert.Equal(t, "ACTIVE", snap.State)
	assert.Len(t, snap.Services, 2)

	resp2, err := http.Get(srv.URL + "/services/messaging")
	require.NoError(t, err)
	defer resp2.Body.Close()
	var st supervisor.ServiceStatus
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&st))
	assert.Equal(t, "launch failed", st.LastError)

	resp3, err := http.Get(srv.URL + "/services/protocol_bridge")
	require.NoError(t, err)
	resp3.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp3.StatusCode)

	resp4, err := http.Post(srv.URL+"/services/ui/kill", "application/json", nil)
	require.NoError(t, err)
	resp4.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp4.StatusCode)
	assert.Equal(t, []string{"ui"}, sup.killed)

	resp5, err := http.Post(srv.URL+"/services/nope/kill", "application/json", nil)
	require.NoError(t, err)
	resp5.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp5.StatusCode)
}

func TestHealthzReportsUnhealthyComponents(t *testing.T) {
	srv, _ := newTestServer(t, false)
	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Contains(t, body, consts.COMPONENT_SUPERVISOR)

	srv2, _ := newTestServer(t, true)
	resp2, err := http.Get(srv2.URL + "/healthz")
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, http.StatusOK, resp2.StatusCode)
}

func TestFactoryDisabled(t *testing.T) {
	_, err := NewFactory(core.NewContainer()).Create(&HTTPServerConfig{})
	assert.Error(t, err)
}
