package failsafe

import (
	"time"
)

// LossClassification labels the network condition of one monitoring tick.
type LossClassification string

const (
	// LossNominal: every peer active and healthy.
	LossNominal LossClassification = "nominal"

	// LossSingleTractor: exactly one peer lost.
	LossSingleTractor LossClassification = "single_tractor_loss"

	// LossMultipleTractor: more than one peer lost.
	LossMultipleTractor LossClassification = "multiple_tractor_loss"

	// LossDegraded: all peers active but at least one with a success rate
	// below the degraded threshold.
	LossDegraded LossClassification = "degraded_connectivity"

	// LossCompleteNetwork: no peers known at all.
	LossCompleteNetwork LossClassification = "complete_network_loss"

	// LossEmergencyWithLoss: peers lost while a safety-critical emergency
	// is active on this machine.
	LossEmergencyWithLoss LossClassification = "emergency_with_loss"
)

// PeerTelemetry is one peer's heartbeat/ack sample, supplied externally
// per monitoring tick.
type PeerTelemetry struct {
	PeerID             string    `json:"peer_id"`
	LastHeartbeat      time.Time `json:"last_heartbeat"`
	MessageSuccessRate float64   `json:"message_success_rate"`
}

// Health is one tick's independent snapshot of communication health. It is
// never persisted or merged across ticks.
type Health struct {
	ActivePeers        []string           `json:"active_peers"`
	LostPeers          []string           `json:"lost_peers"`
	OverallHealthScore float64            `json:"overall_health_score"`
	PartitionDetected  bool               `json:"partition_detected"`
	Classification     LossClassification `json:"classification"`
}

// MonitorConfig holds the health monitor thresholds.
type MonitorConfig struct {
	// HeartbeatTimeout is how stale a peer's heartbeat may be before the
	// peer counts as lost.
	HeartbeatTimeout time.Duration

	// DegradedThreshold is the success rate below which an active peer
	// degrades the network classification.
	DegradedThreshold float64
}

// DefaultMonitorConfig returns the thresholds used in the field unless
// overridden.
func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		HeartbeatTimeout:  10 * time.Second,
		DegradedThreshold: 0.8,
	}
}

// Monitor classifies communication health from peer telemetry. It holds no
// state between ticks; every Snapshot is computed fresh from its inputs.
type Monitor struct {
	cfg MonitorConfig

	// now is indirected so tests can pin the clock.
	now func() time.Time
}

// NewMonitor creates a health monitor with the given thresholds.
func NewMonitor(cfg MonitorConfig) *Monitor {
	if cfg.HeartbeatTimeout <= 0 {
		cfg.HeartbeatTimeout = DefaultMonitorConfig().HeartbeatTimeout
	}
	if cfg.DegradedThreshold <= 0 {
		cfg.DegradedThreshold = DefaultMonitorConfig().DegradedThreshold
	}
	return &Monitor{cfg: cfg, now: time.Now}
}

// Snapshot computes an independent health snapshot from the current peer
// telemetry. A peer is active iff its heartbeat is within the timeout and
// its success rate is positive; everything else counts as lost. The overall
// score averages active peers' success rates over the total peer count, so
// lost peers drag it toward zero.
//
// emergencyActive marks a safety-critical condition on this machine (an
// active critical DTC). It upgrades a lossy snapshot to emergency-with-loss
// and a clean one to at least degraded.
func (m *Monitor) Snapshot(peers []PeerTelemetry, emergencyActive bool) Health {
	h := Health{
		ActivePeers: []string{},
		LostPeers:   []string{},
	}

	if len(peers) == 0 {
		h.Classification = LossCompleteNetwork
		if emergencyActive {
			h.Classification = LossEmergencyWithLoss
		}
		h.PartitionDetected = true
		return h
	}

	now := m.now()
	var rateSum float64
	belowThreshold := false

	for _, p := range peers {
		sinceHeartbeat := now.Sub(p.LastHeartbeat)
		if sinceHeartbeat <= m.cfg.HeartbeatTimeout && p.MessageSuccessRate > 0 {
			h.ActivePeers = append(h.ActivePeers, p.PeerID)
			rateSum += p.MessageSuccessRate
			if p.MessageSuccessRate < m.cfg.DegradedThreshold {
				belowThreshold = true
			}
		} else {
			h.LostPeers = append(h.LostPeers, p.PeerID)
		}
	}

	// Lost peers contribute zero to the mean.
	h.OverallHealthScore = rateSum / float64(len(peers))
	h.PartitionDetected = len(h.LostPeers) > 0

	switch {
	case len(h.LostPeers) == 1:
		h.Classification = LossSingleTractor
	case len(h.LostPeers) > 1:
		h.Classification = LossMultipleTractor
	case belowThreshold:
		h.Classification = LossDegraded
	default:
		h.Classification = LossNominal
	}

	if emergencyActive {
		if h.PartitionDetected {
			h.Classification = LossEmergencyWithLoss
		} else if h.Classification == LossNominal {
			// A safety-critical fault with the network intact still demands
			// a degraded posture upstream.
			h.Classification = LossDegraded
		}
	}

	return h
}
