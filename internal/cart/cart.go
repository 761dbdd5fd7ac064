// cart.go - DS cartridge header parser
//
// License: GPLv3 or later

// Package cart parses the 368-byte (0x170) DS cartridge header: the two CPU
// load descriptors and the fields needed to derive a KEY1 table for
// the cartridge's secure-area traffic (spec §4.6 supplement),
// grounded on original_source/spa/src/ds/card/header.rs.
package cart

import (
	"encoding/binary"
	"fmt"
)

// HeaderSize is the minimum number of bytes a valid header covers.
const HeaderSize = 0x170

// Header is a parsed, read-only view over a cartridge header image.
// It keeps the raw bytes, mirroring the teacher's copy-in-constructor
// pattern for small immutable descriptors.
type Header struct {
	raw []byte
}

// Parse validates that data is at least HeaderSize bytes and wraps it
// in a Header. data is not retained by reference beyond this call's
// need to read it; Parse is grounded on CardHeader::new, which takes
// ownership of the buffer outright.
func Parse(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, fmt.Errorf("cart: header is %d bytes, want at least %d", len(data), HeaderSize)
	}
	raw := make([]byte, len(data))
	copy(raw, data)
	return Header{raw: raw}, nil
}

func (h Header) u32(at int) uint32 {
	return binary.LittleEndian.Uint32(h.raw[at : at+4])
}

// GameName is the header-defined 12-byte ASCII game title.
func (h Header) GameName() string {
	return string(h.raw[0x0:0xC])
}

// GameCode is the 4-character game code at offset 0xC, commonly used
// as the seed id-code for a cartridge's KEY1 table (spec §4.5).
func (h Header) GameCode() uint32 {
	return h.u32(0xC)
}

// IconTitleOffset is the ROM offset of the icon/title segment.
func (h Header) IconTitleOffset() uint32 { return h.u32(0x68) }

// ARM9RomOffset is where the initial ARM9 code is read from in ROM.
func (h Header) ARM9RomOffset() uint32 { return h.u32(0x20) }

// ARM9EntryAddr is the ARM9 execution entry point.
func (h Header) ARM9EntryAddr() uint32 { return h.u32(0x24) }

// ARM9RAMAddr is where the initial ARM9 code is loaded to in RAM.
func (h Header) ARM9RAMAddr() uint32 { return h.u32(0x28) }

// ARM9Size is the number of bytes to copy from ROM to RAM for ARM9.
func (h Header) ARM9Size() uint32 { return h.u32(0x2C) }

// ARM7RomOffset is where the initial ARM7 code is read from in ROM.
func (h Header) ARM7RomOffset() uint32 { return h.u32(0x30) }

// ARM7EntryAddr is the ARM7 execution entry point.
func (h Header) ARM7EntryAddr() uint32 { return h.u32(0x34) }

// ARM7RAMAddr is where the initial ARM7 code is loaded to in RAM.
func (h Header) ARM7RAMAddr() uint32 { return h.u32(0x38) }

// ARM7Size is the number of bytes to copy from ROM to RAM for ARM7.
func (h Header) ARM7Size() uint32 { return h.u32(0x3C) }

// ROMControl is the card-read control word recorded in the header.
func (h Header) ROMControl() uint32 { return h.u32(0x60) }

// Bytes returns the full raw header image.
func (h Header) Bytes() []byte { return h.raw }

// LoadDescriptor names where one CPU's initial code block is read
// from ROM, where it lands in RAM, how big it is, and where it starts
// executing.
type LoadDescriptor struct {
	ROMOffset uint32
	RAMAddr   uint32
	Size      uint32
	EntryAddr uint32
}

// ARM9Load returns the ARM9 CPU's load descriptor.
func (h Header) ARM9Load() LoadDescriptor {
	return LoadDescriptor{
		ROMOffset: h.ARM9RomOffset(),
		RAMAddr:   h.ARM9RAMAddr(),
		Size:      h.ARM9Size(),
		EntryAddr: h.ARM9EntryAddr(),
	}
}

// ARM7Load returns the ARM7 CPU's load descriptor.
func (h Header) ARM7Load() LoadDescriptor {
	return LoadDescriptor{
		ROMOffset: h.ARM7RomOffset(),
		RAMAddr:   h.ARM7RAMAddr(),
		Size:      h.ARM7Size(),
		EntryAddr: h.ARM7EntryAddr(),
	}
}
