// Package rfmetrics exposes rfclientd's prometheus instrumentation.
// Grounded on grimm-is-glacic/internal/metrics' registry-per-subsystem
// idiom, narrowed to a handful of gauges/counters. PortMapFrames is
// registered and exported, but no component increments it, so it always
// reads zero.
package rfmetrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles every counter/gauge rfclientd's components update.
type Metrics struct {
	UnresolvedRoutes prometheus.Gauge
	OutstandingMods  prometheus.Gauge
	PortCacheDepth   *prometheus.GaugeVec
	FlowModsSent     *prometheus.CounterVec
	DuplicateRoutes  prometheus.Counter
	PortMapFrames    prometheus.Counter
}

// New registers and returns a fresh Metrics bundle against reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		UnresolvedRoutes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "rfclientd",
			Name:      "unresolved_routes",
			Help:      "Routes currently awaiting gateway resolution.",
		}),
		OutstandingMods: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "rfclientd",
			Name:      "outstanding_route_mods",
			Help:      "Flow-mods sent but not yet acknowledged by the controller.",
		}),
		PortCacheDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "rfclientd",
			Name:      "port_cache_depth",
			Help:      "Flow-mods cached per port while that port is inactive.",
		}, []string{"port"}),
		FlowModsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rfclientd",
			Name:      "flow_mods_sent_total",
			Help:      "Flow-mods sent to the controller, by operation.",
		}, []string{"op"}),
		DuplicateRoutes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rfclientd",
			Name:      "duplicate_routes_total",
			Help:      "ADDs rejected because the key already exists in the route table.",
		}),
		PortMapFrames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rfclientd",
			Name:      "port_map_frames_sent_total",
			Help:      "Raw port-mapping discovery frames sent.",
		}),
	}

	reg.MustRegister(
		m.UnresolvedRoutes,
		m.OutstandingMods,
		m.PortCacheDepth,
		m.FlowModsSent,
		m.DuplicateRoutes,
		m.PortMapFrames,
	)
	return m
}
