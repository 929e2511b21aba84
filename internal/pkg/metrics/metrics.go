package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// MessagesTotal counts protocol messages moved through the stack.
	MessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agrolink_stack_messages_total",
			Help: "Total number of protocol messages processed by the stack.",
		},
		[]string{"direction"}, // direction: sent/received
	)

	// BytesTotal counts payload bytes buffered through the stack.
	BytesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agrolink_stack_bytes_total",
			Help: "Total payload bytes buffered through the stack.",
		},
		[]string{"direction"},
	)

	// DTCGenerated counts diagnostic trouble codes by severity.
	DTCGenerated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agrolink_dtc_generated_total",
			Help: "Total diagnostic trouble codes generated.",
		},
		[]string{"severity"},
	)

	// HealthScore tracks the most recent overall communication health score.
	HealthScore = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "agrolink_comm_health_score",
			Help: "Overall communication health score (0.0..1.0) of the last monitoring tick.",
		},
	)

	// LostPeers tracks how many peers the last monitoring tick classified as lost.
	LostPeers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "agrolink_comm_lost_peers",
			Help: "Number of peers classified as lost in the last monitoring tick.",
		},
	)

	// FailsafeMode tracks the controller's current mode as an enum gauge
	// (0=full connectivity, 1=degraded, 2=isolated, 3=emergency isolated).
	FailsafeMode = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "agrolink_failsafe_mode",
			Help: "Current fail-safe mode (0=full, 1=degraded, 2=isolated, 3=emergency).",
		},
	)

	// ModeTransitionsTotal counts fail-safe mode transitions by destination mode.
	ModeTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agrolink_failsafe_transitions_total",
			Help: "Total fail-safe mode transitions.",
		},
		[]string{"to"},
	)
)

func init() {
	prometheus.MustRegister(
		MessagesTotal,
		BytesTotal,
		DTCGenerated,
		HealthScore,
		LostPeers,
		FailsafeMode,
		ModeTransitionsTotal,
	)
}
