package j1939

import (
	"testing"
)

func TestCANIDRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
	}{
		{"broadcast PDU2", Message{
			PGN: PGNEngineTemperature, Priority: 3, Source: 0x80, Destination: AddressBroadcast,
		}},
		{"addressed PDU1", Message{
			PGN: PGNAddressClaimed, Priority: 6, Source: 0x80, Destination: 0x12,
		}},
		{"highest priority", Message{
			PGN: PGNEngineController, Priority: 0, Source: 0x01, Destination: AddressBroadcast,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseCANID(tt.msg.CANID())
			if got.PGN != tt.msg.PGN {
				t.Errorf("PGN = 0x%X, want 0x%X", got.PGN, tt.msg.PGN)
			}
			if got.Priority != tt.msg.Priority {
				t.Errorf("Priority = %d, want %d", got.Priority, tt.msg.Priority)
			}
			if got.Source != tt.msg.Source {
				t.Errorf("Source = 0x%X, want 0x%X", got.Source, tt.msg.Source)
			}
			if got.Destination != tt.msg.Destination {
				t.Errorf("Destination = 0x%X, want 0x%X", got.Destination, tt.msg.Destination)
			}
		})
	}
}

func TestCANIDLayout(t *testing.T) {
	msg := Message{PGN: PGNEngineTemperature, Priority: 6, Source: 0x25, Destination: AddressBroadcast}
	// 6<<26 | 0xFEEE<<8 | 0x25
	if got, want := msg.CANID(), uint32(0x18FEEE25); got != want {
		t.Errorf("CANID = 0x%08X, want 0x%08X", got, want)
	}
}

func TestBuildMessage(t *testing.T) {
	s := NewStack(DeviceName{IdentityNumber: 1}, nil)

	// Before any claim the source is the null address.
	msg := s.BuildMessage(SubsystemEngineData, PGNEngineController, AddressBroadcast, EncodeEngineSpeed(1500))
	if msg.Source != AddressNull {
		t.Errorf("Source = %d, want null address before claim", msg.Source)
	}
	if msg.Priority != 3 {
		t.Errorf("Priority = %d, want 3 for engine data", msg.Priority)
	}

	s.Arbiter().ClaimAddress(0x42)
	msg = s.BuildMessage(SubsystemEmergencyStop, 0xFE00, 0x10, nil)
	if msg.Source != 0x42 {
		t.Errorf("Source = 0x%X, want claimed 0x42", msg.Source)
	}
	if msg.Priority != 0 {
		t.Errorf("Priority = %d, want 0 for emergency stop", msg.Priority)
	}

	tp := s.Throughput()
	if tp.MessagesSent != 2 {
		t.Errorf("MessagesSent = %d, want 2", tp.MessagesSent)
	}
}

func TestDispatchRecordsPeersAndRaisesDTCs(t *testing.T) {
	s := NewStack(DeviceName{}, nil)

	// 130 degC coolant crosses the overtemperature threshold.
	data := s.Dispatch(Message{
		PGN:    PGNEngineTemperature,
		Source: 0x30,
		Data:   EncodeEngineTemperature(130, 40),
	})
	if _, ok := data.(EngineTemperature); !ok {
		t.Fatalf("decode type = %T", data)
	}

	if _, seen := s.Peers()[0x30]; !seen {
		t.Error("dispatch should record the sending peer")
	}

	if !s.HasSafetyCriticalDTC() {
		t.Fatal("coolant overtemperature should raise a safety-critical code")
	}
	codes := s.ActiveDTCs()
	if len(codes) != 1 || codes[0].SPN != SPNCoolantTemperature {
		t.Errorf("ActiveDTCs = %+v", codes)
	}

	s.ClearDTCs()
	if s.HasSafetyCriticalDTC() {
		t.Error("ClearDTCs should drop all active codes")
	}
}

func TestDispatchNominalValuesRaiseNothing(t *testing.T) {
	s := NewStack(DeviceName{}, nil)

	s.Dispatch(Message{PGN: PGNEngineTemperature, Source: 0x30, Data: EncodeEngineTemperature(85, 40)})
	s.Dispatch(Message{PGN: PGNEngineController, Source: 0x31, Data: EncodeEngineSpeed(1800)})

	if len(s.ActiveDTCs()) != 0 {
		t.Errorf("ActiveDTCs = %+v, want none for nominal values", s.ActiveDTCs())
	}
	if tp := s.Throughput(); tp.MessagesReceived != 2 {
		t.Errorf("MessagesReceived = %d, want 2", tp.MessagesReceived)
	}
}

func TestDispatchUnknownGroup(t *testing.T) {
	s := NewStack(DeviceName{}, nil)
	data := s.Dispatch(Message{PGN: 0x1F000, Source: 0x05, Data: []byte{1, 2, 3}})
	if _, ok := data.(UnknownParameterGroup); !ok {
		t.Errorf("decode type = %T, want UnknownParameterGroup", data)
	}
}
