package topic

import (
	"testing"
)

func TestBuilder(t *testing.T) {
	b := NewBuilder("agri/v1")

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"telemetry", b.Telemetry("tractor-07"), "agri/v1/telemetry/tractor-07"},
		{"telemetry wildcard", b.TelemetryWildcard(), "agri/v1/telemetry/+"},
		{"failsafe", b.Failsafe("tractor-07"), "agri/v1/failsafe/tractor-07"},
		{"restoration", b.Restoration("tractor-07"), "agri/v1/restoration/tractor-07"},
		{"diagnostic", b.Diagnostic("tractor-07"), "agri/v1/diagnostic/tractor-07"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}
