// This file is part of dualnds.
//
// dualnds is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// dualnds is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with dualnds.  If not, see <https://www.gnu.org/licenses/>.

// Package cartridge implements the bit-exact cartridge header layout
// (§6 "Bit-exact formats") this core's DirectBoot path reads, grounded
// on the original's dual::nds::Header (header.hpp) with the unit
// code/region/autostart fields and the capacity/size cross-check
// original_source's cartridge.cpp additionally performs (§12
// SUPPLEMENTED FEATURES).
package cartridge

import "github.com/dualnds/dualnds/logger"

// HeaderSize is the number of bytes at ROM offset 0 that ParseHeader
// decodes: every field it reads lies in this first part of the 0x200-byte
// cartridge header, and the rest of the header is not read.
const HeaderSize = 0x40

// Binary describes one CPU's boot image within the ROM: file_address is
// where it starts in the ROM image, entrypoint and load_address are
// where the CPU starts executing and where the bytes get copied to.
type Binary struct {
	FileAddress uint32
	Entrypoint  uint32
	LoadAddress uint32
	Size        uint32
}

// Header holds the fields parsed from the first 0x40 bytes of the
// cartridge header (§6).
type Header struct {
	GameTitle  [12]byte
	GameCode   [4]byte
	MakerCode  [2]byte
	UnitCode   uint8
	SeedSelect uint8
	Capacity   uint8
	Region     uint8
	Version    uint8
	Autostart  uint8

	ARM9 Binary
	ARM7 Binary
}

// capacityMismatch is logged, not faulted: original_source's
// cartridge.cpp validates device_capacity against the ROM's actual size
// and treats a mismatch as informational only, never refusing to boot.
func capacityMismatch(header *Header, romSize int, permission logger.Permission) {
	declared := 1 << (17 + int(header.Capacity))
	if declared != romSize {
		logger.Logf(permission, "cartridge!", "header capacity byte (%d, %d bytes) does not match ROM size (%d bytes)", header.Capacity, declared, romSize)
	}
}

func readU32(b []byte, offset int) uint32 {
	return uint32(b[offset]) | uint32(b[offset+1])<<8 | uint32(b[offset+2])<<16 | uint32(b[offset+3])<<24
}

func readBinary(b []byte, offset int) Binary {
	return Binary{
		FileAddress: readU32(b, offset),
		Entrypoint:  readU32(b, offset+4),
		LoadAddress: readU32(b, offset+8),
		Size:        readU32(b, offset+12),
	}
}

// ParseHeader decodes the HeaderSize-byte cartridge header at the start
// of data (normally the first bytes read from ROM offset 0), logging
// (not faulting) a capacity/size mismatch against romSize the way the
// original's loader does.
func ParseHeader(data []byte, romSize int, permission logger.Permission) *Header {
	h := &Header{}

	copy(h.GameTitle[:], data[0:12])
	copy(h.GameCode[:], data[12:16])
	copy(h.MakerCode[:], data[16:18])
	h.UnitCode = data[18]
	h.SeedSelect = data[19]
	h.Capacity = data[20]
	h.Region = data[29]
	h.Version = data[30]
	h.Autostart = data[31]

	h.ARM9 = readBinary(data, 0x20)
	h.ARM7 = readBinary(data, 0x30)

	capacityMismatch(h, romSize, permission)

	return h
}
