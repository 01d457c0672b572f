package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OrchestrationMetrics implements the metric sinks declared by the service,
// supervisor and bus packages.
type OrchestrationMetrics struct {
	launches       *prometheus.CounterVec
	launchDuration *prometheus.HistogramVec
	kills          *prometheus.CounterVec
	state          prometheus.Gauge
	packetsSent    *prometheus.CounterVec
	packetsDropped *prometheus.CounterVec
}

func NewOrchestrationMetrics(c *Component) *OrchestrationMetrics {
	return &OrchestrationMetrics{
		launches: c.NewCounter("service_launch_total",
			"Service launch attempts by outcome.", []string{"service", "result"}),
		launchDuration: c.NewHistogram("service_launch_duration_seconds",
			"Time spent inside a service start entry point.", []string{"service"},
			[]float64{.0005, .001, .005, .01, .05, .1, .5, 1}),
		kills: c.NewCounter("service_kill_total",
			"Service teardowns.", []string{"service"}),
		state: c.NewGauge("supervisor_state",
			"Current supervisor state (0 idle, 1 init, 2 start, 3 active)."),
		packetsSent: c.NewCounter("bus_sent_total",
			"Packets accepted for delivery by kind.", []string{"kind"}),
		packetsDropped: c.NewCounter("bus_dropped_total",
			"Packets dropped by kind and reason.", []string{"kind", "reason"}),
	}
}

func (m *OrchestrationMetrics) LaunchObserved(service string, ok bool, d time.Duration) {
	result := "ok"
	if !ok {
		result = "failed"
	}
	m.launches.WithLabelValues(service, result).Inc()
	m.launchDuration.WithLabelValues(service).Observe(d.Seconds())
}

func (m *OrchestrationMetrics) KillObserved(service string) {
	m.kills.WithLabelValues(service).Inc()
}

func (m *OrchestrationMetrics) StateChanged(state int) {
	m.state.Set(float64(state))
}

func (m *OrchestrationMetrics) PacketSent(kind string) {
	m.packetsSent.WithLabelValues(kind).Inc()
}

func (m *OrchestrationMetrics) PacketDropped(kind, reason string) {
	m.packetsDropped.WithLabelValues(kind, reason).Inc()
}
