package fieldagent

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/agrolink-io/agrolink/internal/failsafe"
	"github.com/agrolink-io/agrolink/pkg/log"
)

// TelemetryStore keeps the latest heartbeat/ack sample per peer. The MQTT
// subscription is the single writer; the monitor loop reads snapshots.
type TelemetryStore struct {
	selfID string

	mu    sync.Mutex
	peers map[string]failsafe.PeerTelemetry
}

// NewTelemetryStore creates a store that ignores samples from selfID.
func NewTelemetryStore(selfID string) *TelemetryStore {
	return &TelemetryStore{
		selfID: selfID,
		peers:  make(map[string]failsafe.PeerTelemetry),
	}
}

// HandleMessage is the MQTT handler for telemetry topics. Malformed
// payloads are logged and dropped; a bad sample from one peer must not
// poison the monitoring tick.
func (s *TelemetryStore) HandleMessage(ctx context.Context, topic string, payload []byte) {
	var sample failsafe.PeerTelemetry
	if err := json.Unmarshal(payload, &sample); err != nil {
		log.Warn("Dropping malformed telemetry payload", "topic", topic, "error", err)
		return
	}
	if sample.PeerID == "" || sample.PeerID == s.selfID {
		return
	}

	s.mu.Lock()
	s.peers[sample.PeerID] = sample
	s.mu.Unlock()
}

// Snapshot returns an independent copy of the current per-peer telemetry,
// ready for one monitoring tick.
func (s *TelemetryStore) Snapshot() []failsafe.PeerTelemetry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]failsafe.PeerTelemetry, 0, len(s.peers))
	for _, sample := range s.peers {
		out = append(out, sample)
	}
	return out
}

// Forget drops a peer, e.g. after fleet coordination confirms the machine
// was taken out of service.
func (s *TelemetryStore) Forget(peerID string) {
	s.mu.Lock()
	delete(s.peers, peerID)
	s.mu.Unlock()
}
