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

// Package swram implements the 32 KiB of shared WRAM that WRAMCNT
// splits between the two CPUs (§4.4): one allocation mode gives it all
// to ARM9, one all to ARM7, and two split it into equal 16 KiB halves.
package swram

// Allocation describes one CPU's view of shared WRAM: a window into
// the backing array (possibly empty) and the mask that wraps an
// address down to that window's size.
type Allocation struct {
	data []byte
	mask uint32
}

// Read8 reads a byte relative to this allocation's window, or returns
// 0 if the CPU currently has no shared WRAM mapped at all.
func (a Allocation) Read8(offset uint32) uint8 {
	if a.data == nil {
		return 0
	}
	return a.data[offset&a.mask]
}

// Write8 writes a byte relative to this allocation's window; a no-op
// if the CPU currently has no shared WRAM mapped.
func (a Allocation) Write8(offset uint32, value uint8) {
	if a.data == nil {
		return
	}
	a.data[offset&a.mask] = value
}

// Mapped reports whether this allocation currently has any backing.
func (a Allocation) Mapped() bool { return a.data != nil }

// SWRAM is the shared 32 KiB block plus the two CPU-facing windows
// WRAMCNT currently carves out of it.
type SWRAM struct {
	data    [0x8000]byte
	wramcnt uint8

	ARM9 Allocation
	ARM7 Allocation
}

// New creates a SWRAM in its post-reset allocation (mode 3: all to ARM7).
func New() *SWRAM {
	s := &SWRAM{}
	s.Reset()
	return s
}

// Reset clears the backing array and restores the mode-3 allocation.
func (s *SWRAM) Reset() {
	for i := range s.data {
		s.data[i] = 0
	}
	s.wramcnt = 0xFF // force the mode-3 remap below to actually run
	s.WriteWRAMCNT(3)
}

// ReadWRAMCNT returns the current allocation mode.
func (s *SWRAM) ReadWRAMCNT() uint8 { return s.wramcnt }

// WriteWRAMCNT selects a new allocation mode (only the low 2 bits of
// value matter) and remaps ARM9/ARM7's windows accordingly.
func (s *SWRAM) WriteWRAMCNT(value uint8) {
	allocation := value & 3
	if allocation == s.wramcnt {
		return
	}

	switch allocation {
	case 0b00:
		s.ARM9 = Allocation{data: s.data[0:], mask: 0x7FFF}
		s.ARM7 = Allocation{}
	case 0b01:
		s.ARM9 = Allocation{data: s.data[0x4000:], mask: 0x3FFF}
		s.ARM7 = Allocation{data: s.data[0x0000:], mask: 0x3FFF}
	case 0b10:
		s.ARM9 = Allocation{data: s.data[0x0000:], mask: 0x3FFF}
		s.ARM7 = Allocation{data: s.data[0x4000:], mask: 0x3FFF}
	default:
		s.ARM9 = Allocation{}
		s.ARM7 = Allocation{data: s.data[0:], mask: 0x7FFF}
	}

	s.wramcnt = allocation
}
