package j1939

import (
	"encoding/binary"
)

// DeviceName is the 64-bit structured identity a device presents during
// address arbitration.
//
// Packed layout, most significant bit first:
//
//	arbitrary_address_capable(1) | industry_group(3) | vehicle_system_instance(4) |
//	vehicle_system(7) | function(9) | function_instance(5) | ecu_instance(3) |
//	manufacturer_code(11) | identity_number(21)
//
// The packed form is serialized little-endian as 8 bytes.
type DeviceName struct {
	ArbitraryAddressCapable bool
	IndustryGroup           uint8  // 3 bits
	VehicleSystemInstance   uint8  // 4 bits
	VehicleSystem           uint8  // 7 bits
	Function                uint16 // 9 bits
	FunctionInstance        uint8  // 5 bits
	ECUInstance             uint8  // 3 bits
	ManufacturerCode        uint16 // 11 bits
	IdentityNumber          uint32 // 21 bits
}

// Field widths and shifts within the packed 64-bit value.
const (
	nameShiftIdentity     = 0
	nameShiftManufacturer = 21
	nameShiftECUInstance  = 32
	nameShiftFuncInstance = 35
	nameShiftFunction     = 40
	nameShiftVehicleSys   = 49
	nameShiftVehicleInst  = 56
	nameShiftIndustry     = 60
	nameShiftArbitrary    = 63

	nameMaskIdentity     = 0x1FFFFF // 21 bits
	nameMaskManufacturer = 0x7FF    // 11 bits
	nameMaskECUInstance  = 0x7      // 3 bits
	nameMaskFuncInstance = 0x1F     // 5 bits
	nameMaskFunction     = 0x1FF    // 9 bits
	nameMaskVehicleSys   = 0x7F     // 7 bits
	nameMaskVehicleInst  = 0xF      // 4 bits
	nameMaskIndustry     = 0x7      // 3 bits
)

// Pack encodes the name into its 64-bit wire representation. Field values
// wider than their allotted bit width are truncated to it.
func (n DeviceName) Pack() uint64 {
	var v uint64
	if n.ArbitraryAddressCapable {
		v |= 1 << nameShiftArbitrary
	}
	v |= (uint64(n.IndustryGroup) & nameMaskIndustry) << nameShiftIndustry
	v |= (uint64(n.VehicleSystemInstance) & nameMaskVehicleInst) << nameShiftVehicleInst
	v |= (uint64(n.VehicleSystem) & nameMaskVehicleSys) << nameShiftVehicleSys
	v |= (uint64(n.Function) & nameMaskFunction) << nameShiftFunction
	v |= (uint64(n.FunctionInstance) & nameMaskFuncInstance) << nameShiftFuncInstance
	v |= (uint64(n.ECUInstance) & nameMaskECUInstance) << nameShiftECUInstance
	v |= (uint64(n.ManufacturerCode) & nameMaskManufacturer) << nameShiftManufacturer
	v |= (uint64(n.IdentityNumber) & nameMaskIdentity) << nameShiftIdentity
	return v
}

// MarshalBinary serializes the packed name little-endian as exactly 8 bytes.
func (n DeviceName) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, n.Pack())
	return buf, nil
}

// UnpackName decodes a packed 64-bit name back into its fields.
func UnpackName(v uint64) DeviceName {
	return DeviceName{
		ArbitraryAddressCapable: v>>nameShiftArbitrary&1 == 1,
		IndustryGroup:           uint8(v >> nameShiftIndustry & nameMaskIndustry),
		VehicleSystemInstance:   uint8(v >> nameShiftVehicleInst & nameMaskVehicleInst),
		VehicleSystem:           uint8(v >> nameShiftVehicleSys & nameMaskVehicleSys),
		Function:                uint16(v >> nameShiftFunction & nameMaskFunction),
		FunctionInstance:        uint8(v >> nameShiftFuncInstance & nameMaskFuncInstance),
		ECUInstance:             uint8(v >> nameShiftECUInstance & nameMaskECUInstance),
		ManufacturerCode:        uint16(v >> nameShiftManufacturer & nameMaskManufacturer),
		IdentityNumber:          uint32(v >> nameShiftIdentity & nameMaskIdentity),
	}
}

// UnmarshalName decodes an 8-byte little-endian serialized name.
// Shorter input yields the zero name; extra bytes are ignored.
func UnmarshalName(data []byte) DeviceName {
	if len(data) < 8 {
		return DeviceName{}
	}
	return UnpackName(binary.LittleEndian.Uint64(data[:8]))
}
