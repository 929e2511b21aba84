package j1939

import (
	"sync"
	"testing"
)

func TestGenerateDTC(t *testing.T) {
	m := NewDiagnosticManager()

	tests := []struct {
		name          string
		spn           uint32
		fmi           uint8
		source        uint8
		wantSeverity  DTCSeverity
		wantPriority  int
		wantImmediate bool
	}{
		{"routine fault", 5000, 3, 0x30, SeverityWarning, 3, false},
		{"worst case FMI", 5000, FMIWorstCase, 0x30, SeverityCritical, 1, true},
		{"coolant temperature SPN", SPNCoolantTemperature, 1, 0x30, SeverityCritical, 1, true},
		{"engine controller address", 5000, 3, 0x00, SeverityCritical, 1, true},
		{"brake controller address", 5000, 3, 0x0B, SeverityCritical, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dtc := m.GenerateDTC(tt.spn, tt.fmi, 1, tt.source)
			if dtc.Severity != tt.wantSeverity {
				t.Errorf("Severity = %s, want %s", dtc.Severity, tt.wantSeverity)
			}
			if dtc.PriorityLevel != tt.wantPriority {
				t.Errorf("PriorityLevel = %d, want %d", dtc.PriorityLevel, tt.wantPriority)
			}
			if dtc.RequiresImmediateAction != tt.wantImmediate {
				t.Errorf("RequiresImmediateAction = %v, want %v", dtc.RequiresImmediateAction, tt.wantImmediate)
			}
		})
	}
}

func TestGenerateEquipmentDTC(t *testing.T) {
	m := NewDiagnosticManager()

	dtc := m.GenerateEquipmentDTC("planter", "seed_flow", SeverityWarning, "row 4 underfeeding")
	if dtc.SPN <= 520192 {
		t.Errorf("SPN = %d, want proprietary range above 520192", dtc.SPN)
	}
	if dtc.RecommendedAction != "check seed meter and clear the delivery tubes" {
		t.Errorf("RecommendedAction = %q", dtc.RecommendedAction)
	}
	if dtc.RequiresImmediateAction {
		t.Error("warning severity should not require immediate action")
	}

	second := m.GenerateEquipmentDTC("sprayer", "spray_nozzle", SeverityCritical, "nozzle 2 clogged")
	if second.SPN == dtc.SPN {
		t.Error("equipment SPNs must be distinct")
	}
	if !second.RequiresImmediateAction || second.PriorityLevel != 1 {
		t.Error("critical equipment code should be priority 1 and immediate")
	}

	unknown := m.GenerateEquipmentDTC("harvester", "mystery_fault", SeverityWarning, "")
	if unknown.RecommendedAction != "consult equipment manual" {
		t.Errorf("RecommendedAction = %q, want fallback", unknown.RecommendedAction)
	}
}

func TestGenerateEquipmentDTCConcurrent(t *testing.T) {
	m := NewDiagnosticManager()

	const workers = 8
	const perWorker = 100

	results := make(chan uint32, workers*perWorker)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				dtc := m.GenerateEquipmentDTC("planter", "seed_flow", SeverityWarning, "")
				results <- dtc.SPN
			}
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[uint32]bool, workers*perWorker)
	for spn := range results {
		if seen[spn] {
			t.Fatalf("SPN %d assigned twice under concurrent generation", spn)
		}
		seen[spn] = true
	}
	if len(seen) != workers*perWorker {
		t.Errorf("got %d distinct SPNs, want %d", len(seen), workers*perWorker)
	}
}

func TestPrioritizeStableSort(t *testing.T) {
	m := NewDiagnosticManager()
	in := []DTC{
		{SPN: 1, PriorityLevel: 3},
		{SPN: 2, PriorityLevel: 1},
		{SPN: 3, PriorityLevel: 5},
		{SPN: 4, PriorityLevel: 3},
	}

	out := m.Prioritize(in)

	wantSPN := []uint32{2, 1, 4, 3}
	for i, want := range wantSPN {
		if out[i].SPN != want {
			t.Errorf("position %d: SPN = %d, want %d", i, out[i].SPN, want)
		}
	}

	// Input order untouched.
	if in[0].SPN != 1 {
		t.Error("Prioritize mutated its input")
	}
}

func TestSafetyCritical(t *testing.T) {
	critical := DTC{Severity: SeverityCritical, RequiresImmediateAction: true}
	if !critical.SafetyCritical() {
		t.Error("critical immediate code should be safety critical")
	}

	warning := DTC{Severity: SeverityWarning, RequiresImmediateAction: true}
	if warning.SafetyCritical() {
		t.Error("warning severity should not be safety critical")
	}
}
