package j1939

import (
	"encoding/binary"
	"time"
)

// Address constants. Source addresses occupy 0..253; 254 is the null
// address and 255 addresses every node on the bus.
const (
	AddressMax       uint8 = 253
	AddressNull      uint8 = 254
	AddressBroadcast uint8 = 255
)

// Message is one parameter-group transmission. It is immutable once built;
// the layer that constructed it owns it until handing it to the next stage.
type Message struct {
	PGN         uint32
	Priority    uint8
	Source      uint8
	Destination uint8 // AddressBroadcast when not addressed to a single node
	Data        []byte
	Timestamp   time.Time
}

// Broadcast reports whether the message is not addressed to a single node.
func (m Message) Broadcast() bool {
	return m.Destination == AddressBroadcast
}

// CANID builds the 29-bit extended CAN identifier for the message:
// priority in bits 26..28, the 18-bit parameter group in bits 8..25, and the
// source address in bits 0..7. For PDU1 (destination-addressed) groups the
// low PGN byte carries the destination address.
func (m Message) CANID() uint32 {
	pgn := m.PGN & 0x3FFFF
	if pduFormat(pgn) < 240 && m.Destination != AddressBroadcast {
		pgn = pgn&^0xFF | uint32(m.Destination)
	}
	return uint32(m.Priority&0x7)<<26 | pgn<<8 | uint32(m.Source)
}

// ParseCANID splits a 29-bit extended CAN identifier into a Message header.
// Data and Timestamp are left for the caller to fill.
func ParseCANID(canID uint32) Message {
	m := Message{
		Priority:    uint8(canID>>26) & 0x7,
		Source:      uint8(canID),
		Destination: AddressBroadcast,
	}
	pf := uint8(canID >> 16)
	ps := uint8(canID >> 8)
	dp := canID >> 24 & 0x3
	pgn := dp<<16 | uint32(pf)<<8
	if pf < 240 {
		// PDU1: the PS byte is a destination address, not part of the PGN.
		m.Destination = ps
		m.PGN = pgn
	} else {
		m.PGN = pgn | uint32(ps)
	}
	return m
}

func pduFormat(pgn uint32) uint8 {
	return uint8(pgn >> 8)
}

// putUint16LE appends v little-endian, the byte order every parameter group
// in this stack uses for multi-byte fields.
func putUint16LE(dst []byte, v uint16) {
	binary.LittleEndian.PutUint16(dst, v)
}

func putUint32LE(dst []byte, v uint32) {
	binary.LittleEndian.PutUint32(dst, v)
}
