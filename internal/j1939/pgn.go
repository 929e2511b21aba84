package j1939

import (
	"fmt"
)

// Well-known parameter group numbers handled by this stack.
const (
	// PGNAddressClaimed is the address arbitration group: 8-byte NAME payload.
	PGNAddressClaimed uint32 = 0xEE00

	// PGNEngineTemperature carries coolant and fuel temperatures.
	PGNEngineTemperature uint32 = 0xFEEE

	// PGNEngineController carries the electronic engine controller data
	// (engine speed).
	PGNEngineController uint32 = 0xF004

	// PGNVehiclePosition carries latitude/longitude.
	PGNVehiclePosition uint32 = 0xFEF3

	// PGNAgriculturalGuidance is the equipment-specific guidance extension.
	PGNAgriculturalGuidance uint32 = 0xAC00
)

// Scaling constants defined by the parameter group layouts.
const (
	temperatureOffset = 40    // offset-binary, -40 degC bias
	engineSpeedScale  = 0.125 // RPM per raw unit
	positionScale     = 1e-7  // degrees per raw unit
)

// pgnNames maps known groups to their display labels. Loaded once; never
// mutated at runtime.
var pgnNames = map[uint32]string{
	PGNAddressClaimed:       "Address Claimed",
	PGNEngineTemperature:    "Engine Temperature",
	PGNEngineController:     "Electronic Engine Controller",
	PGNVehiclePosition:      "Vehicle Position",
	PGNAgriculturalGuidance: "Agricultural Guidance",
}

// PGNName returns the display label for a parameter group. Unknown groups
// degrade to a hex-formatted label rather than an error.
func PGNName(pgn uint32) string {
	if name, ok := pgnNames[pgn]; ok {
		return name
	}
	return fmt.Sprintf("Unknown PGN 0x%05X", pgn)
}

// ParameterData is the decoded form of one parameter group payload. Each
// variant carries only the fields that are semantically valid for its group;
// optional fields are nil when the payload was too short to populate them.
// Decoded values are built fresh per Parse call and never mutated afterwards.
type ParameterData interface {
	// PGN identifies the parameter group the data was decoded from.
	PGN() uint32
}

// EngineTemperature is the decode of PGNEngineTemperature.
type EngineTemperature struct {
	CoolantTempC *float64
	FuelTempC    *float64
}

func (EngineTemperature) PGN() uint32 { return PGNEngineTemperature }

// EngineController is the decode of PGNEngineController.
type EngineController struct {
	EngineSpeedRPM *float64
}

func (EngineController) PGN() uint32 { return PGNEngineController }

// VehiclePosition is the decode of PGNVehiclePosition. AccuracyClass is set
// when both coordinates decoded.
type VehiclePosition struct {
	LatitudeDeg   *float64
	LongitudeDeg  *float64
	AccuracyClass string
}

func (VehiclePosition) PGN() uint32 { return PGNVehiclePosition }

// GuidanceStatus is the decode of PGNAgriculturalGuidance.
type GuidanceStatus struct {
	Active            *bool
	SteeringAngleDeg  *float64
	CrossTrackErrorCm *float64
}

func (GuidanceStatus) PGN() uint32 { return PGNAgriculturalGuidance }

// AddressClaim is the decode of PGNAddressClaimed.
type AddressClaim struct {
	Name *DeviceName
}

func (AddressClaim) PGN() uint32 { return PGNAddressClaimed }

// UnknownParameterGroup is the decode of any group not in the registry.
// It is a labeled result, not an error: unknown traffic is normal on a
// shared bus.
type UnknownParameterGroup struct {
	ID    uint32
	Data  []byte
	Label string
}

func (u UnknownParameterGroup) PGN() uint32 { return u.ID }

// Parse decodes a parameter group payload. Parsing is pure and total: short
// payloads leave the affected optional fields nil, and unknown groups decode
// to UnknownParameterGroup.
func Parse(pgn uint32, payload []byte) ParameterData {
	switch pgn {
	case PGNEngineTemperature:
		return parseEngineTemperature(payload)
	case PGNEngineController:
		return parseEngineController(payload)
	case PGNVehiclePosition:
		return parseVehiclePosition(payload)
	case PGNAgriculturalGuidance:
		return parseGuidance(payload)
	case PGNAddressClaimed:
		return parseAddressClaim(payload)
	default:
		return UnknownParameterGroup{
			ID:    pgn,
			Data:  append([]byte(nil), payload...),
			Label: PGNName(pgn),
		}
	}
}

// Byte 0: coolant temperature, byte 1: fuel temperature. Both offset-binary
// with a fixed -40 bias.
func parseEngineTemperature(payload []byte) EngineTemperature {
	var d EngineTemperature
	if len(payload) >= 1 {
		d.CoolantTempC = f64(float64(payload[0]) - temperatureOffset)
	}
	if len(payload) >= 2 {
		d.FuelTempC = f64(float64(payload[1]) - temperatureOffset)
	}
	return d
}

// Bytes 0-1: little-endian raw engine speed, 0.125 RPM per unit.
func parseEngineController(payload []byte) EngineController {
	var d EngineController
	if len(payload) >= 2 {
		raw := uint16(payload[0]) | uint16(payload[1])<<8
		d.EngineSpeedRPM = f64(float64(raw) * engineSpeedScale)
	}
	return d
}

// Bytes 0-3: latitude raw, bytes 4-7: longitude raw. Little-endian 32-bit
// fixed point, 1e-7 degrees per unit.
func parseVehiclePosition(payload []byte) VehiclePosition {
	var d VehiclePosition
	if len(payload) >= 4 {
		raw := uint32(payload[0]) | uint32(payload[1])<<8 | uint32(payload[2])<<16 | uint32(payload[3])<<24
		d.LatitudeDeg = f64(float64(raw) * positionScale)
	}
	if len(payload) >= 8 {
		raw := uint32(payload[4]) | uint32(payload[5])<<8 | uint32(payload[6])<<16 | uint32(payload[7])<<24
		d.LongitudeDeg = f64(float64(raw) * positionScale)
	}
	if d.LatitudeDeg != nil && d.LongitudeDeg != nil {
		d.AccuracyClass = "standard"
	}
	return d
}

// Byte 0 bit 0: guidance active. Byte 1: steering angle as a signed byte
// (values >= 128 wrap to negative degrees). Byte 2: cross-track error in
// centimeters.
func parseGuidance(payload []byte) GuidanceStatus {
	var d GuidanceStatus
	if len(payload) >= 1 {
		active := payload[0]&0x01 == 0x01
		d.Active = &active
	}
	if len(payload) >= 2 {
		angle := float64(payload[1])
		if payload[1] >= 128 {
			angle -= 256
		}
		d.SteeringAngleDeg = &angle
	}
	if len(payload) >= 3 {
		d.CrossTrackErrorCm = f64(float64(payload[2]))
	}
	return d
}

func parseAddressClaim(payload []byte) AddressClaim {
	var d AddressClaim
	if len(payload) >= 8 {
		name := UnmarshalName(payload)
		d.Name = &name
	}
	return d
}

// EncodeEngineTemperature builds the 2-byte engine temperature payload.
func EncodeEngineTemperature(coolantC, fuelC float64) []byte {
	return []byte{
		uint8(coolantC + temperatureOffset),
		uint8(fuelC + temperatureOffset),
	}
}

// EncodeEngineSpeed builds the 2-byte engine controller payload.
func EncodeEngineSpeed(rpm float64) []byte {
	buf := make([]byte, 2)
	putUint16LE(buf, uint16(rpm/engineSpeedScale))
	return buf
}

// EncodePosition builds the 8-byte vehicle position payload.
func EncodePosition(latDeg, lonDeg float64) []byte {
	buf := make([]byte, 8)
	putUint32LE(buf[0:4], uint32(latDeg/positionScale))
	putUint32LE(buf[4:8], uint32(lonDeg/positionScale))
	return buf
}

// EncodeGuidance builds the 3-byte agricultural guidance payload.
func EncodeGuidance(active bool, steeringAngleDeg float64, crossTrackCm uint8) []byte {
	var b0 byte
	if active {
		b0 = 0x01
	}
	angle := int(steeringAngleDeg)
	if angle < 0 {
		angle += 256
	}
	return []byte{b0, byte(angle), crossTrackCm}
}

func f64(v float64) *float64 { return &v }
