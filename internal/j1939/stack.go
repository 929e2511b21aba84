package j1939

import (
	"sync"
	"time"

	"github.com/agrolink-io/agrolink/internal/pkg/metrics"
	"github.com/agrolink-io/agrolink/pkg/log"
)

// Thresholds above which dispatched engine data synthesizes trouble codes.
const (
	coolantOverTempC   = 110.0
	engineOverspeedRPM = 2800.0
)

// Throughput is a snapshot of the stack's buffered traffic counters.
type Throughput struct {
	MessagesSent     uint64
	MessagesReceived uint64
	BytesSent        uint64
	BytesReceived    uint64
}

// Stack is the protocol composition root: it builds outbound messages with
// the claimed source address and table priority, dispatches inbound messages
// to the parser and diagnostic layers, and tracks the peers it has heard
// from. Message construction and parsing are pure; the peer table and
// active-DTC list are the only shared state and are mutex guarded.
type Stack struct {
	arbiter *Arbiter
	diags   *DiagnosticManager
	logger  log.Logger

	mu         sync.Mutex
	peers      map[uint8]time.Time
	activeDTCs []DTC
	throughput Throughput
}

// NewStack creates a protocol stack for the device with the given NAME.
func NewStack(name DeviceName, logger log.Logger) *Stack {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Stack{
		arbiter: NewArbiter(name),
		diags:   NewDiagnosticManager(),
		logger:  logger.WithName("j1939"),
		peers:   make(map[uint8]time.Time),
	}
}

// Arbiter exposes the stack's address arbiter.
func (s *Stack) Arbiter() *Arbiter {
	return s.arbiter
}

// Diagnostics exposes the stack's diagnostic manager.
func (s *Stack) Diagnostics() *DiagnosticManager {
	return s.diags
}

// BuildMessage constructs an outbound message for the given subsystem. The
// priority comes from the fixed subsystem table and the source address from
// the current claim (the null address before any claim succeeds). Payloads
// larger than 8 bytes must go through Segment before hitting the wire.
func (s *Stack) BuildMessage(subsystem string, pgn uint32, destination uint8, payload []byte) Message {
	source := AddressNull
	if addr := s.arbiter.ClaimedAddress(); addr != nil {
		source = *addr
	}

	msg := Message{
		PGN:         pgn,
		Priority:    PriorityFor(subsystem),
		Source:      source,
		Destination: destination,
		Data:        append([]byte(nil), payload...),
		Timestamp:   time.Now(),
	}

	s.mu.Lock()
	s.throughput.MessagesSent++
	s.throughput.BytesSent += uint64(len(payload))
	s.mu.Unlock()

	metrics.MessagesTotal.WithLabelValues("sent").Inc()
	metrics.BytesTotal.WithLabelValues("sent").Add(float64(len(payload)))

	return msg
}

// Dispatch decodes an inbound message, records the sending peer, and feeds
// the diagnostic layer. Malformed or unknown payloads degrade to labeled
// results; Dispatch never fails.
func (s *Stack) Dispatch(msg Message) ParameterData {
	s.mu.Lock()
	s.peers[msg.Source] = msg.Timestamp
	s.throughput.MessagesReceived++
	s.throughput.BytesReceived += uint64(len(msg.Data))
	s.mu.Unlock()

	metrics.MessagesTotal.WithLabelValues("received").Inc()
	metrics.BytesTotal.WithLabelValues("received").Add(float64(len(msg.Data)))

	data := Parse(msg.PGN, msg.Data)
	s.inspect(msg, data)
	return data
}

// inspect synthesizes trouble codes from parameter values that cross fixed
// thresholds.
func (s *Stack) inspect(msg Message, data ParameterData) {
	switch d := data.(type) {
	case EngineTemperature:
		if d.CoolantTempC != nil && *d.CoolantTempC > coolantOverTempC {
			s.RaiseDTC(s.diags.GenerateDTC(SPNCoolantTemperature, 0, 1, msg.Source))
		}
	case EngineController:
		if d.EngineSpeedRPM != nil && *d.EngineSpeedRPM > engineOverspeedRPM {
			s.RaiseDTC(s.diags.GenerateDTC(SPNEngineSpeed, 0, 1, msg.Source))
		}
	case UnknownParameterGroup:
		s.logger.Debug("Unknown parameter group", "pgn", d.Label, "source", msg.Source)
	}
}

// RaiseDTC records a trouble code as active.
func (s *Stack) RaiseDTC(dtc DTC) {
	s.mu.Lock()
	s.activeDTCs = append(s.activeDTCs, dtc)
	s.mu.Unlock()

	metrics.DTCGenerated.WithLabelValues(string(dtc.Severity)).Inc()

	if dtc.SafetyCritical() {
		s.logger.Warn("Safety-critical trouble code raised",
			"spn", dtc.SPN, "fmi", dtc.FMI, "source", dtc.SourceAddress)
	}
}

// ActiveDTCs returns the active trouble codes ordered by priority level.
func (s *Stack) ActiveDTCs() []DTC {
	s.mu.Lock()
	snapshot := append([]DTC(nil), s.activeDTCs...)
	s.mu.Unlock()
	return s.diags.Prioritize(snapshot)
}

// HasSafetyCriticalDTC reports whether any active code must escalate to the
// fail-safe controller's health classification.
func (s *Stack) HasSafetyCriticalDTC() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, dtc := range s.activeDTCs {
		if dtc.SafetyCritical() {
			return true
		}
	}
	return false
}

// ClearDTCs drops all active trouble codes, e.g. after operator service.
func (s *Stack) ClearDTCs() {
	s.mu.Lock()
	s.activeDTCs = nil
	s.mu.Unlock()
}

// Peers returns the source addresses the stack has heard from and when each
// was last seen.
func (s *Stack) Peers() map[uint8]time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[uint8]time.Time, len(s.peers))
	for addr, seen := range s.peers {
		out[addr] = seen
	}
	return out
}

// Throughput returns a snapshot of the stack's traffic counters.
func (s *Stack) Throughput() Throughput {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.throughput
}
