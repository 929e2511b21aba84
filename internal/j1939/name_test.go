package j1939

import (
	"bytes"
	"testing"
)

func TestNamePackRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   DeviceName
	}{
		{"zero name", DeviceName{}},
		{"typical tractor", DeviceName{
			ArbitraryAddressCapable: true,
			IndustryGroup:           2,
			VehicleSystem:           1,
			Function:                25,
			ManufacturerCode:        1981,
			IdentityNumber:          123456,
		}},
		{"all fields at max width", DeviceName{
			ArbitraryAddressCapable: true,
			IndustryGroup:           0x7,
			VehicleSystemInstance:   0xF,
			VehicleSystem:           0x7F,
			Function:                0x1FF,
			FunctionInstance:        0x1F,
			ECUInstance:             0x7,
			ManufacturerCode:        0x7FF,
			IdentityNumber:          0x1FFFFF,
		}},
		{"instances only", DeviceName{
			VehicleSystemInstance: 3,
			FunctionInstance:      7,
			ECUInstance:           2,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := UnpackName(tt.in.Pack())
			if got != tt.in {
				t.Errorf("round trip mismatch:\n in: %+v\nout: %+v", tt.in, got)
			}
		})
	}
}

func TestNamePackTruncatesOversizedFields(t *testing.T) {
	in := DeviceName{
		Function:       0x3FF,    // 10 bits set, field is 9 wide
		IdentityNumber: 0x3FFFFF, // 22 bits set, field is 21 wide
	}
	got := UnpackName(in.Pack())
	if got.Function != 0x1FF {
		t.Errorf("Function = 0x%X, want truncation to 0x1FF", got.Function)
	}
	if got.IdentityNumber != 0x1FFFFF {
		t.Errorf("IdentityNumber = 0x%X, want truncation to 0x1FFFFF", got.IdentityNumber)
	}
}

func TestNameMarshalBinary(t *testing.T) {
	n := DeviceName{IdentityNumber: 0x0102}
	data, err := n.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}
	if len(data) != 8 {
		t.Fatalf("len = %d, want 8", len(data))
	}
	// Identity occupies the low bits, serialized little-endian first.
	if !bytes.Equal(data[:2], []byte{0x02, 0x01}) {
		t.Errorf("low bytes = % X, want 02 01", data[:2])
	}

	if got := UnmarshalName(data); got != n {
		t.Errorf("UnmarshalName = %+v, want %+v", got, n)
	}
}

func TestUnmarshalNameShortInput(t *testing.T) {
	for _, size := range []int{0, 1, 7} {
		if got := UnmarshalName(make([]byte, size)); got != (DeviceName{}) {
			t.Errorf("UnmarshalName(%d bytes) = %+v, want zero name", size, got)
		}
	}
}
