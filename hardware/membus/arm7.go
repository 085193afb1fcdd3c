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

package membus

import (
	"github.com/dualnds/dualnds/hardware/dma"
	"github.com/dualnds/dualnds/hardware/ipc"
	"github.com/dualnds/dualnds/hardware/irq"
	"github.com/dualnds/dualnds/hardware/keypad"
	"github.com/dualnds/dualnds/hardware/swram"
	"github.com/dualnds/dualnds/hardware/timer"
	"github.com/dualnds/dualnds/hardware/video/scanline"
	"github.com/dualnds/dualnds/hardware/vram"
	"github.com/dualnds/dualnds/logger"
)

// ARM7HW bundles the peripherals ARM7Bus routes IO accesses to.
type ARM7HW struct {
	IRQ      *irq.Controller
	Timer    *timer.Timer
	DMA      *dma.Controller
	IPC      *ipc.IPC
	SWRAM    *swram.SWRAM
	VRAM     *vram.Router
	Keypad   *keypad.Controller
	Scanline *scanline.Pipeline
}

// ARM7Bus is the ARM7TDMI's view of NDS memory: the same 4 MiB of
// EWRAM, a private 64 KiB IWRAM, shared WRAM, the VRAM banks the
// router has lent it as plain WRAM (mst=2), and its own IO register
// file — a narrower one than ARM9's (no VRAMCNT writes, no DMAFILL).
type ARM7Bus struct {
	hw ARM7HW

	ewram [0x400000]byte
	iwram [0x10000]byte

	permission logger.Permission
}

// NewARM7Bus creates an ARM7Bus wired to hw.
func NewARM7Bus(hw ARM7HW, permission logger.Permission) *ARM7Bus {
	return &ARM7Bus{hw: hw, permission: permission}
}

// SetScanline rewires the scanline pipeline onto the bus once it
// exists. The pipeline is constructed from both PPUs, and ARM9's PPU is
// constructed from ARM9Bus's own PRAM/OAM storage, so by the time a
// System can build the pipeline, both buses already exist — the same
// two-phase reason as hardware/dma.Controller.SetBus.
func (b *ARM7Bus) SetScanline(p *scanline.Pipeline) {
	b.hw.Scanline = p
}

// Reset clears EWRAM and the private IWRAM.
func (b *ARM7Bus) Reset() {
	b.ewram = [0x400000]byte{}
	b.iwram = [0x10000]byte{}
}

// ReadByte reads a byte from address.
func (b *ARM7Bus) ReadByte(address uint32) uint8 {
	switch address >> 24 {
	case 0x02:
		return b.ewram[address&0x3FFFFF]
	case 0x03:
		return b.wram(address).Read8(address)
	case 0x04:
		return b.readRegisterByte(address)
	case 0x06:
		return b.hw.VRAM.RegionARM7WRAM.Read8(address & 0x1FFFF)
	default:
		logger.Logf(b.permission, "membus7!", "unhandled 8-bit read from 0x%08X", address)
		return 0
	}
}

// ReadHalf reads a halfword from address, aligning down to an even address.
func (b *ARM7Bus) ReadHalf(address uint32) uint16 {
	address &^= 1

	switch address >> 24 {
	case 0x02:
		return uint16(b.ewram[address&0x3FFFFF]) | uint16(b.ewram[(address&0x3FFFFF)+1])<<8
	case 0x03:
		w := b.wram(address)
		return uint16(w.Read8(address)) | uint16(w.Read8(address+1))<<8
	case 0x04:
		return uint16(b.readRegisterWord(address, 0xFFFF<<((address&2)*8)) >> ((address & 2) * 8))
	case 0x06:
		return b.hw.VRAM.RegionARM7WRAM.Read16(address & 0x1FFFF)
	default:
		logger.Logf(b.permission, "membus7!", "unhandled 16-bit read from 0x%08X", address)
		return 0
	}
}

// ReadWord reads a word from address, aligning down to a 4-byte address.
func (b *ARM7Bus) ReadWord(address uint32) uint32 {
	address &^= 3

	switch address >> 24 {
	case 0x02:
		off := address & 0x3FFFFF
		return uint32(b.ewram[off]) | uint32(b.ewram[off+1])<<8 | uint32(b.ewram[off+2])<<16 | uint32(b.ewram[off+3])<<24
	case 0x03:
		w := b.wram(address)
		return uint32(w.Read8(address)) | uint32(w.Read8(address+1))<<8 | uint32(w.Read8(address+2))<<16 | uint32(w.Read8(address+3))<<24
	case 0x04:
		return b.readRegisterWord(address, 0xFFFFFFFF)
	case 0x06:
		return uint32(b.hw.VRAM.RegionARM7WRAM.Read16(address&0x1FFFF)) | uint32(b.hw.VRAM.RegionARM7WRAM.Read16((address&0x1FFFF)+2))<<16
	default:
		logger.Logf(b.permission, "membus7!", "unhandled 32-bit read from 0x%08X", address)
		return 0
	}
}

// WriteByte writes a byte to address.
func (b *ARM7Bus) WriteByte(address uint32, value uint8) {
	switch address >> 24 {
	case 0x02:
		b.ewram[address&0x3FFFFF] = value
	case 0x03:
		b.wram(address).Write8(address, value)
	case 0x04:
		word := uint32(value) * 0x01010101
		b.writeRegisterByte(address, word)
	case 0x06:
		b.hw.VRAM.RegionARM7WRAM.Write8(address&0x1FFFF, value)
	default:
		logger.Logf(b.permission, "membus7!", "unhandled 8-bit write to 0x%08X = 0x%02X", address, value)
	}
}

// WriteHalf writes a halfword to address, aligning down to an even address.
func (b *ARM7Bus) WriteHalf(address uint32, value uint16) {
	address &^= 1

	switch address >> 24 {
	case 0x02:
		off := address & 0x3FFFFF
		b.ewram[off] = byte(value)
		b.ewram[off+1] = byte(value >> 8)
	case 0x03:
		w := b.wram(address)
		w.Write8(address, byte(value))
		w.Write8(address+1, byte(value>>8))
	case 0x04:
		word := uint32(value) * 0x00010001
		b.writeRegisterWord(address, word, 0xFFFF<<((address&2)*8))
	case 0x06:
		b.hw.VRAM.RegionARM7WRAM.Write16(address&0x1FFFF, value)
	default:
		logger.Logf(b.permission, "membus7!", "unhandled 16-bit write to 0x%08X = 0x%04X", address, value)
	}
}

// WriteWord writes a word to address, aligning down to a 4-byte address.
func (b *ARM7Bus) WriteWord(address uint32, value uint32) {
	address &^= 3

	switch address >> 24 {
	case 0x02:
		off := address & 0x3FFFFF
		b.ewram[off] = byte(value)
		b.ewram[off+1] = byte(value >> 8)
		b.ewram[off+2] = byte(value >> 16)
		b.ewram[off+3] = byte(value >> 24)
	case 0x03:
		w := b.wram(address)
		w.Write8(address, byte(value))
		w.Write8(address+1, byte(value>>8))
		w.Write8(address+2, byte(value>>16))
		w.Write8(address+3, byte(value>>24))
	case 0x04:
		b.writeRegisterWord(address, value, 0xFFFFFFFF)
	case 0x06:
		b.hw.VRAM.RegionARM7WRAM.Write16(address&0x1FFFF, uint16(value))
		b.hw.VRAM.RegionARM7WRAM.Write16((address&0x1FFFF)+2, uint16(value>>16))
	default:
		logger.Logf(b.permission, "membus7!", "unhandled 32-bit write to 0x%08X = 0x%08X", address, value)
	}
}

// byteWindow lets the shared-WRAM and private-IWRAM branches of wram
// share a single Read8/Write8 call shape.
type byteWindow interface {
	Read8(address uint32) uint8
	Write8(address uint32, value uint8)
}

type privateIWRAM struct{ data *[0x10000]byte }

func (w privateIWRAM) Read8(address uint32) uint8        { return w.data[address&0xFFFF] }
func (w privateIWRAM) Write8(address uint32, value uint8) { w.data[address&0xFFFF] = value }

// wram routes 0x03xxxxxx to the shared-WRAM allocation (if WRAMCNT has
// lent ARM7 any) or its own private IWRAM otherwise, matching the
// original's m_swram/m_iwram split (§4.4).
func (b *ARM7Bus) wram(address uint32) byteWindow {
	if address < 0x03800000 && b.hw.SWRAM.ARM7.Mapped() {
		return b.hw.SWRAM.ARM7
	}
	return privateIWRAM{&b.iwram}
}

func reg7(address uint32) uint32 { return address >> 2 }

func (b *ARM7Bus) readRegisterByte(address uint32) uint8 {
	word := b.readRegisterWord(address&^3, 0xFF<<((address&3)*8))
	return uint8(word >> ((address & 3) * 8))
}

func (b *ARM7Bus) writeRegisterByte(address uint32, word uint32) {
	shift := (address & 3) * 8
	b.writeRegisterWord(address&^3, word, 0xFF<<shift)
}

func (b *ARM7Bus) readRegisterWord(address uint32, mask uint32) uint32 {
	switch reg7(address) {
	case reg7(0x04000180):
		return b.hw.IPC.ReadSYNC(ipc.ARM7)
	case reg7(0x04000184):
		return b.hw.IPC.ReadFIFOCNT(ipc.ARM7)
	case reg7(0x04000100):
		return b.hw.Timer.ReadTMCNT(0)
	case reg7(0x04000104):
		return b.hw.Timer.ReadTMCNT(1)
	case reg7(0x04000108):
		return b.hw.Timer.ReadTMCNT(2)
	case reg7(0x0400010C):
		return b.hw.Timer.ReadTMCNT(3)
	case reg7(0x040000B8):
		return b.hw.DMA.ReadDMACNT(0)
	case reg7(0x040000C4):
		return b.hw.DMA.ReadDMACNT(1)
	case reg7(0x040000D0):
		return b.hw.DMA.ReadDMACNT(2)
	case reg7(0x040000DC):
		return b.hw.DMA.ReadDMACNT(3)
	case reg7(0x04000208):
		return b.hw.IRQ.ReadIME()
	case reg7(0x04000210):
		return b.hw.IRQ.ReadIE()
	case reg7(0x04000214):
		return b.hw.IRQ.ReadIF()
	case reg7(0x04000130):
		// KEYCNT (the high halfword) is not implemented; reads back 0.
		return uint32(b.hw.Keypad.ReadKeyInput())
	case reg7(0x04000134):
		// RCNT (the low halfword, real-time-clock SPI control) is an
		// external collaborator this core does not model; reads back 0.
		return uint32(b.hw.Keypad.ReadExtKeyIn()) << 16
	case reg7(0x04000004):
		return uint32(b.hw.Scanline.ReadDispstat7()) | uint32(b.hw.Scanline.VCount())<<16
	case reg7(0x04100000):
		return b.hw.IPC.ReadFIFORECV(ipc.ARM7)
	case reg7(0x04000240):
		// VRAMSTAT shares VRAMCNT_A's address on the ARM7 side; the
		// upper 3 bytes of this word are unmapped on this CPU.
		return uint32(b.hw.VRAM.ReadVRAMSTAT())
	case reg7(0x04000244):
		return uint32(b.hw.SWRAM.ReadWRAMCNT()) << 24
	default:
		logger.Logf(b.permission, "membus7!", "unhandled IO read from 0x%08X", address)
		return 0
	}
}

func (b *ARM7Bus) writeRegisterWord(address uint32, value, mask uint32) {
	switch reg7(address) {
	case reg7(0x04000180):
		b.hw.IPC.WriteSYNC(ipc.ARM7, value, mask)
	case reg7(0x04000184):
		b.hw.IPC.WriteFIFOCNT(ipc.ARM7, value, mask)
	case reg7(0x04000188):
		if mask != 0 {
			b.hw.IPC.WriteFIFOSEND(ipc.ARM7, value)
		}
	case reg7(0x04000100):
		b.hw.Timer.WriteTMCNT(0, value, mask)
	case reg7(0x04000104):
		b.hw.Timer.WriteTMCNT(1, value, mask)
	case reg7(0x04000108):
		b.hw.Timer.WriteTMCNT(2, value, mask)
	case reg7(0x0400010C):
		b.hw.Timer.WriteTMCNT(3, value, mask)
	case reg7(0x040000B0):
		b.hw.DMA.WriteDMASAD(0, value, mask)
	case reg7(0x040000B4):
		b.hw.DMA.WriteDMADAD(0, value, mask)
	case reg7(0x040000B8):
		b.hw.DMA.WriteDMACNT(0, value, mask)
	case reg7(0x040000BC):
		b.hw.DMA.WriteDMASAD(1, value, mask)
	case reg7(0x040000C0):
		b.hw.DMA.WriteDMADAD(1, value, mask)
	case reg7(0x040000C4):
		b.hw.DMA.WriteDMACNT(1, value, mask)
	case reg7(0x040000C8):
		b.hw.DMA.WriteDMASAD(2, value, mask)
	case reg7(0x040000CC):
		b.hw.DMA.WriteDMADAD(2, value, mask)
	case reg7(0x040000D0):
		b.hw.DMA.WriteDMACNT(2, value, mask)
	case reg7(0x040000D4):
		b.hw.DMA.WriteDMASAD(3, value, mask)
	case reg7(0x040000D8):
		b.hw.DMA.WriteDMADAD(3, value, mask)
	case reg7(0x040000DC):
		b.hw.DMA.WriteDMACNT(3, value, mask)
	case reg7(0x04000208):
		b.hw.IRQ.WriteIME(value, mask)
	case reg7(0x04000210):
		b.hw.IRQ.WriteIE(value, mask)
	case reg7(0x04000214):
		b.hw.IRQ.WriteIF(value, mask)
	case reg7(0x04000004):
		b.hw.Scanline.WriteDispstat7(uint16(value), uint16(mask))
	case reg7(0x04000244):
		if mask&0xFF000000 != 0 {
			b.hw.SWRAM.WriteWRAMCNT(uint8(value >> 24))
		}
	default:
		logger.Logf(b.permission, "membus7!", "unhandled IO write to 0x%08X = 0x%08X (mask 0x%08X)", address, value, mask)
	}
}
