package prometheus

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func newTestComponent(t *testing.T) *Component {
	t.Helper()
	off := false
	comp, err := NewFactory().Create(&Config{Enabled: true, CollectGoMetrics: &off, CollectProcess: &off})
	require.NoError(t, err)
	return comp
}

func TestOrchestrationMetricsRecord(t *testing.T) {
	comp := newTestComponent(t)
	m := comp.Orchestration()

	m.LaunchObserved("ui", true, time.Millisecond)
	m.LaunchObserved("protocol_bridge", false, time.Millisecond)
	m.LaunchObserved("ui", true, time.Millisecond)
	m.StateChanged(3)
	m.PacketSent("ready")
	m.PacketDropped("event", "mailbox_full")

	require.Equal(t, 2.0, testutil.ToFloat64(m.launches.WithLabelValues("ui", "ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.launches.WithLabelValues("protocol_bridge", "failed")))
	require.Equal(t, 3.0, testutil.ToFloat64(m.state))
	require.Equal(t, 1.0, testutil.ToFloat64(m.packetsDropped.WithLabelValues("event", "mailbox_full")))
}

func TestFactoryDefaults(t *testing.T) {
	cfg := &Config{Enabled: true}
	comp, err := NewFactory().Create(cfg)
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.Address)
	require.Equal(t, "/metrics", cfg.Path)
	require.Equal(t, "servicemgr_supervisor_state", comp.fqName("supervisor_state"))

	_, err = NewFactory().Create(&Config{Enabled: false})
	require.Error(t, err)
}
