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

// Package membus implements the per-CPU address decoding the ARM cores
// see (§4.4): ARM9Bus and ARM7Bus each route byte/half/word accesses to
// EWRAM, VRAM, and an IO register file built from the peripherals
// already wired up (IRQ, timer, DMA, IPC, VRAM router). Shared WRAM
// (0x03xxxxxx) is routed on ARM7Bus only; ARM9Bus has no case for that
// region, so ARM9 accesses there are logged as unhandled and read 0.
package membus

import (
	"github.com/dualnds/dualnds/hardware/dma"
	"github.com/dualnds/dualnds/hardware/ipc"
	"github.com/dualnds/dualnds/hardware/irq"
	"github.com/dualnds/dualnds/hardware/keypad"
	"github.com/dualnds/dualnds/hardware/swram"
	"github.com/dualnds/dualnds/hardware/timer"
	"github.com/dualnds/dualnds/hardware/video/ppu"
	"github.com/dualnds/dualnds/hardware/video/scanline"
	"github.com/dualnds/dualnds/hardware/vram"
	"github.com/dualnds/dualnds/logger"
)

// ARM9HW bundles the peripherals ARM9Bus routes IO accesses to.
type ARM9HW struct {
	IRQ      *irq.Controller
	Timer    *timer.Timer
	DMA      *dma.Controller
	IPC      *ipc.IPC
	SWRAM    *swram.SWRAM
	VRAM     *vram.Router
	Keypad   *keypad.Controller
	Scanline *scanline.Pipeline

	// PPU is both engines, index 0 (top screen by default) and 1
	// (bottom). PRAM/OAM are plain byte arrays rather than a
	// hardware/vram.Region, so (unlike the VRAM banks, dirtied through
	// Region.AddCallback) ARM9Bus notifies each half's owning PPU of a
	// write directly.
	PPU [2]*ppu.PPU
}

// tcmWindow is the virtual address range CP15's DTCM/ITCM region
// registers map onto a fixed-size physical TCM array (§CP15 MCR C9).
type tcmWindow struct {
	enabled bool
	base    uint32
	high    uint32
}

func (w tcmWindow) contains(address uint32) bool {
	return w.enabled && address >= w.base && address < w.high
}

// ARM9Bus is the ARM946E-S's view of NDS memory: 4 MiB of EWRAM, a
// 16 KiB DTCM and 32 KiB ITCM (the ARM946E-S's fixed physical sizes;
// unbacked until SetupDTCM/SetupITCM is called by CP15), the VRAM
// router's PPU-facing regions, and the IO register file. Shared WRAM
// is not mapped on this bus.
type ARM9Bus struct {
	hw ARM9HW

	ewram [0x400000]byte
	pram  [0x800]byte
	oam   [0x800]byte

	dtcm       [0x4000]byte
	itcm       [0x8000]byte
	dtcmWindow tcmWindow
	itcmWindow tcmWindow

	permission logger.Permission
}

// NewARM9Bus creates an ARM9Bus wired to hw.
func NewARM9Bus(hw ARM9HW, permission logger.Permission) *ARM9Bus {
	return &ARM9Bus{hw: hw, permission: permission}
}

// SetPPU rewires both PPU engines onto the bus once they exist. Mirrors
// hardware/dma.Controller.SetBus's two-phase init: each PPU is
// constructed from a slice of ARM9Bus's own PRAM/OAM arrays (PRAM/OAM),
// so the bus has to exist before the PPUs do, and this ties the PPUs
// back in once they're built.
func (b *ARM9Bus) SetPPU(ppu9, ppu7 *ppu.PPU) {
	b.hw.PPU = [2]*ppu.PPU{ppu9, ppu7}
}

// SetScanline rewires the scanline pipeline onto the bus once it
// exists, for the same two-phase reason as SetPPU: the pipeline is
// constructed from the PPUs, which are constructed from this bus.
func (b *ARM9Bus) SetScanline(p *scanline.Pipeline) {
	b.hw.Scanline = p
}

// Reset clears EWRAM, PRAM, OAM and both TCMs, and tears down their
// address windows; they stay disabled until CP15 writes its TCM region
// registers again (as CP15.DirectBoot does).
func (b *ARM9Bus) Reset() {
	b.ewram = [0x400000]byte{}
	b.pram = [0x800]byte{}
	b.oam = [0x800]byte{}
	b.dtcm = [0x4000]byte{}
	b.itcm = [0x8000]byte{}
	b.dtcmWindow = tcmWindow{}
	b.itcmWindow = tcmWindow{}
}

// PRAM returns the backing 2 KiB standard palette RAM, shared between
// both PPUs' engine A/B halves (each gets a 0x400-byte slice of it): the
// window System wiring needs to construct each ppu.New's pram argument.
func (b *ARM9Bus) PRAM() []byte { return b.pram[:] }

// OAM returns the backing 2 KiB OAM, split the same way as PRAM.
func (b *ARM9Bus) OAM() []byte { return b.oam[:] }

// notifyPRAMWrite tells whichever PPU owns offset (0 for the low
// 0x400-byte half, 1 for the high) that its shadow copy of PRAM needs
// refreshing — PRAM/OAM are plain byte arrays rather than a
// hardware/vram.Region, so (unlike the VRAM banks, dirtied through
// Region.AddCallback) ARM9Bus notifies the owning PPU directly.
func (b *ARM9Bus) notifyPRAMWrite(offset uint32, size int) {
	if offset < 0x400 {
		b.hw.PPU[0].OnWritePRAM(int(offset), int(offset)+size)
	} else {
		b.hw.PPU[1].OnWritePRAM(int(offset-0x400), int(offset-0x400)+size)
	}
}

// notifyOAMWrite is notifyPRAMWrite's OAM equivalent.
func (b *ARM9Bus) notifyOAMWrite(offset uint32, size int) {
	if offset < 0x400 {
		b.hw.PPU[0].OnWriteOAM(int(offset), int(offset)+size)
	} else {
		b.hw.PPU[1].OnWriteOAM(int(offset-0x400), int(offset-0x400)+size)
	}
}

// SetupDTCM installs the virtual address window CP15's DTCM region
// register maps onto the 16 KiB physical DTCM array.
func (b *ARM9Bus) SetupDTCM(enabled bool, base, high uint32) {
	b.dtcmWindow = tcmWindow{enabled: enabled, base: base, high: high}
}

// SetupITCM installs the virtual address window CP15's ITCM region
// register maps onto the 32 KiB physical ITCM array.
func (b *ARM9Bus) SetupITCM(enabled bool, base, high uint32) {
	b.itcmWindow = tcmWindow{enabled: enabled, base: base, high: high}
}

func (b *ARM9Bus) vramBGRegion(address uint32) *vram.Region {
	return b.hw.VRAM.RegionPPUBackground[(address>>21)&1]
}

func (b *ARM9Bus) vramOBJRegion(address uint32) *vram.Region {
	return b.hw.VRAM.RegionPPUObject[(address>>21)&1]
}

// ReadByte reads a byte from address.
func (b *ARM9Bus) ReadByte(address uint32) uint8 {
	if b.itcmWindow.contains(address) {
		return b.itcm[(address-b.itcmWindow.base)&0x7FFF]
	}
	if b.dtcmWindow.contains(address) {
		return b.dtcm[(address-b.dtcmWindow.base)&0x3FFF]
	}

	switch address >> 24 {
	case 0x02:
		return b.ewram[address&0x3FFFFF]
	case 0x04:
		return b.readRegisterByte(address)
	case 0x05:
		return b.pram[address&0x7FF]
	case 0x06:
		return b.readVRAM8(address)
	case 0x07:
		return b.oam[address&0x7FF]
	default:
		logger.Logf(b.permission, "membus9!", "unhandled 8-bit read from 0x%08X", address)
		return 0
	}
}

// ReadHalf reads a halfword from address, aligning down to an even address.
func (b *ARM9Bus) ReadHalf(address uint32) uint16 {
	address &^= 1

	if b.itcmWindow.contains(address) {
		off := (address - b.itcmWindow.base) & 0x7FFF
		return uint16(b.itcm[off]) | uint16(b.itcm[off+1])<<8
	}
	if b.dtcmWindow.contains(address) {
		off := (address - b.dtcmWindow.base) & 0x3FFF
		return uint16(b.dtcm[off]) | uint16(b.dtcm[off+1])<<8
	}

	switch address >> 24 {
	case 0x02:
		return uint16(b.ewram[address&0x3FFFFF]) | uint16(b.ewram[(address&0x3FFFFF)+1])<<8
	case 0x04:
		return uint16(b.readRegisterWord(address, 0xFFFF<<((address&2)*8)) >> ((address & 2) * 8))
	case 0x05:
		return uint16(b.pram[address&0x7FF]) | uint16(b.pram[(address&0x7FF)+1])<<8
	case 0x06:
		return b.readVRAM16(address)
	case 0x07:
		return uint16(b.oam[address&0x7FF]) | uint16(b.oam[(address&0x7FF)+1])<<8
	default:
		logger.Logf(b.permission, "membus9!", "unhandled 16-bit read from 0x%08X", address)
		return 0
	}
}

// ReadWord reads a word from address, aligning down to a 4-byte address.
func (b *ARM9Bus) ReadWord(address uint32) uint32 {
	address &^= 3

	if b.itcmWindow.contains(address) {
		off := (address - b.itcmWindow.base) & 0x7FFF
		return uint32(b.itcm[off]) | uint32(b.itcm[off+1])<<8 | uint32(b.itcm[off+2])<<16 | uint32(b.itcm[off+3])<<24
	}
	if b.dtcmWindow.contains(address) {
		off := (address - b.dtcmWindow.base) & 0x3FFF
		return uint32(b.dtcm[off]) | uint32(b.dtcm[off+1])<<8 | uint32(b.dtcm[off+2])<<16 | uint32(b.dtcm[off+3])<<24
	}

	switch address >> 24 {
	case 0x02:
		off := address & 0x3FFFFF
		return uint32(b.ewram[off]) | uint32(b.ewram[off+1])<<8 | uint32(b.ewram[off+2])<<16 | uint32(b.ewram[off+3])<<24
	case 0x04:
		return b.readRegisterWord(address, 0xFFFFFFFF)
	case 0x05:
		off := address & 0x7FF
		return uint32(b.pram[off]) | uint32(b.pram[off+1])<<8 | uint32(b.pram[off+2])<<16 | uint32(b.pram[off+3])<<24
	case 0x06:
		return uint32(b.readVRAM16(address)) | uint32(b.readVRAM16(address+2))<<16
	case 0x07:
		off := address & 0x7FF
		return uint32(b.oam[off]) | uint32(b.oam[off+1])<<8 | uint32(b.oam[off+2])<<16 | uint32(b.oam[off+3])<<24
	default:
		logger.Logf(b.permission, "membus9!", "unhandled 32-bit read from 0x%08X", address)
		return 0
	}
}

// WriteByte writes a byte to address.
func (b *ARM9Bus) WriteByte(address uint32, value uint8) {
	if b.itcmWindow.contains(address) {
		b.itcm[(address-b.itcmWindow.base)&0x7FFF] = value
		return
	}
	if b.dtcmWindow.contains(address) {
		b.dtcm[(address-b.dtcmWindow.base)&0x3FFF] = value
		return
	}

	switch address >> 24 {
	case 0x02:
		b.ewram[address&0x3FFFFF] = value
	case 0x04:
		word := uint32(value) * 0x01010101
		b.writeRegisterByte(address, word)
	case 0x05:
		b.pram[address&0x7FF] = value
		b.notifyPRAMWrite(address&0x7FF, 1)
	case 0x06:
		b.vramBGOrOBJ(address).Write8(address&0x1FFFFF, value)
	case 0x07:
		b.oam[address&0x7FF] = value
		b.notifyOAMWrite(address&0x7FF, 1)
	default:
		logger.Logf(b.permission, "membus9!", "unhandled 8-bit write to 0x%08X = 0x%02X", address, value)
	}
}

// WriteHalf writes a halfword to address, aligning down to an even address.
func (b *ARM9Bus) WriteHalf(address uint32, value uint16) {
	address &^= 1

	if b.itcmWindow.contains(address) {
		off := (address - b.itcmWindow.base) & 0x7FFF
		b.itcm[off] = byte(value)
		b.itcm[off+1] = byte(value >> 8)
		return
	}
	if b.dtcmWindow.contains(address) {
		off := (address - b.dtcmWindow.base) & 0x3FFF
		b.dtcm[off] = byte(value)
		b.dtcm[off+1] = byte(value >> 8)
		return
	}

	switch address >> 24 {
	case 0x02:
		off := address & 0x3FFFFF
		b.ewram[off] = byte(value)
		b.ewram[off+1] = byte(value >> 8)
	case 0x04:
		word := uint32(value) * 0x00010001
		b.writeRegisterWord(address, word, 0xFFFF<<((address&2)*8))
	case 0x05:
		off := address & 0x7FF
		b.pram[off] = byte(value)
		b.pram[off+1] = byte(value >> 8)
		b.notifyPRAMWrite(off, 2)
	case 0x06:
		b.vramBGOrOBJ(address).Write16(address&0x1FFFFF, value)
	case 0x07:
		off := address & 0x7FF
		b.oam[off] = byte(value)
		b.oam[off+1] = byte(value >> 8)
		b.notifyOAMWrite(off, 2)
	default:
		logger.Logf(b.permission, "membus9!", "unhandled 16-bit write to 0x%08X = 0x%04X", address, value)
	}
}

// WriteWord writes a word to address, aligning down to a 4-byte address.
func (b *ARM9Bus) WriteWord(address uint32, value uint32) {
	address &^= 3

	if b.itcmWindow.contains(address) {
		off := (address - b.itcmWindow.base) & 0x7FFF
		b.itcm[off] = byte(value)
		b.itcm[off+1] = byte(value >> 8)
		b.itcm[off+2] = byte(value >> 16)
		b.itcm[off+3] = byte(value >> 24)
		return
	}
	if b.dtcmWindow.contains(address) {
		off := (address - b.dtcmWindow.base) & 0x3FFF
		b.dtcm[off] = byte(value)
		b.dtcm[off+1] = byte(value >> 8)
		b.dtcm[off+2] = byte(value >> 16)
		b.dtcm[off+3] = byte(value >> 24)
		return
	}

	switch address >> 24 {
	case 0x02:
		off := address & 0x3FFFFF
		b.ewram[off] = byte(value)
		b.ewram[off+1] = byte(value >> 8)
		b.ewram[off+2] = byte(value >> 16)
		b.ewram[off+3] = byte(value >> 24)
	case 0x04:
		b.writeRegisterWord(address, value, 0xFFFFFFFF)
	case 0x05:
		off := address & 0x7FF
		b.pram[off] = byte(value)
		b.pram[off+1] = byte(value >> 8)
		b.pram[off+2] = byte(value >> 16)
		b.pram[off+3] = byte(value >> 24)
		b.notifyPRAMWrite(off, 4)
	case 0x06:
		b.vramBGOrOBJ(address).Write32(address&0x1FFFFF, value)
	case 0x07:
		off := address & 0x7FF
		b.oam[off] = byte(value)
		b.oam[off+1] = byte(value >> 8)
		b.oam[off+2] = byte(value >> 16)
		b.oam[off+3] = byte(value >> 24)
		b.notifyOAMWrite(off, 4)
	default:
		logger.Logf(b.permission, "membus9!", "unhandled 32-bit write to 0x%08X = 0x%08X", address, value)
	}
}

// vramBGOrOBJ routes a VRAM-range access to the background or object
// region of the addressed PPU, mirroring the 2 MiB-per-PPU windows the
// original's ReadVRAM_PPU_BG/OBJ templates select between.
func (b *ARM9Bus) vramBGOrOBJ(address uint32) *vram.Region {
	if address&0x400000 != 0 {
		return b.vramOBJRegion(address)
	}
	return b.vramBGRegion(address)
}

func (b *ARM9Bus) readVRAM8(address uint32) uint8 {
	return b.vramBGOrOBJ(address).Read8(address & 0x1FFFFF)
}

func (b *ARM9Bus) readVRAM16(address uint32) uint16 {
	return b.vramBGOrOBJ(address).Read16(address & 0x1FFFFF)
}

// REG mirrors the original's `REG(address)` macro: IO registers are
// dispatched on the word-aligned register index.
func reg(address uint32) uint32 { return address >> 2 }

func (b *ARM9Bus) readRegisterByte(address uint32) uint8 {
	word := b.readRegisterWord(address&^3, 0xFF<<((address&3)*8))
	return uint8(word >> ((address & 3) * 8))
}

func (b *ARM9Bus) writeRegisterByte(address uint32, word uint32) {
	shift := (address & 3) * 8
	b.writeRegisterWord(address&^3, word, 0xFF<<shift)
}

func (b *ARM9Bus) readRegisterWord(address uint32, mask uint32) uint32 {
	switch reg(address) {
	case reg(0x04000180):
		return b.hw.IPC.ReadSYNC(ipc.ARM9)
	case reg(0x04000184):
		return b.hw.IPC.ReadFIFOCNT(ipc.ARM9)
	case reg(0x04000100):
		return b.hw.Timer.ReadTMCNT(0)
	case reg(0x04000104):
		return b.hw.Timer.ReadTMCNT(1)
	case reg(0x04000108):
		return b.hw.Timer.ReadTMCNT(2)
	case reg(0x0400010C):
		return b.hw.Timer.ReadTMCNT(3)
	case reg(0x040000B8):
		return b.hw.DMA.ReadDMACNT(0)
	case reg(0x040000C4):
		return b.hw.DMA.ReadDMACNT(1)
	case reg(0x040000D0):
		return b.hw.DMA.ReadDMACNT(2)
	case reg(0x040000DC):
		return b.hw.DMA.ReadDMACNT(3)
	case reg(0x04000208):
		return b.hw.IRQ.ReadIME()
	case reg(0x04000210):
		return b.hw.IRQ.ReadIE()
	case reg(0x04000214):
		return b.hw.IRQ.ReadIF()
	case reg(0x04000130):
		// KEYCNT (the high halfword, key-IRQ control) is not
		// implemented; it reads back 0.
		return uint32(b.hw.Keypad.ReadKeyInput())
	case reg(0x04000004):
		return uint32(b.hw.Scanline.ReadDispstat9()) | uint32(b.hw.Scanline.VCount())<<16
	case reg(0x04100000):
		return b.hw.IPC.ReadFIFORECV(ipc.ARM9)
	case reg(0x04000240):
		return uint32(b.hw.VRAM.ReadVRAMCNT(vram.BankA)) |
			uint32(b.hw.VRAM.ReadVRAMCNT(vram.BankB))<<8 |
			uint32(b.hw.VRAM.ReadVRAMCNT(vram.BankC))<<16 |
			uint32(b.hw.VRAM.ReadVRAMCNT(vram.BankD))<<24
	case reg(0x04000244):
		return uint32(b.hw.VRAM.ReadVRAMCNT(vram.BankE)) |
			uint32(b.hw.VRAM.ReadVRAMCNT(vram.BankF))<<8 |
			uint32(b.hw.VRAM.ReadVRAMCNT(vram.BankG))<<16 |
			uint32(b.hw.SWRAM.ReadWRAMCNT())<<24
	case reg(0x04000248):
		return uint32(b.hw.VRAM.ReadVRAMCNT(vram.BankH)) |
			uint32(b.hw.VRAM.ReadVRAMCNT(vram.BankI))<<8
	default:
		logger.Logf(b.permission, "membus9!", "unhandled IO read from 0x%08X", address)
		return 0
	}
}

func (b *ARM9Bus) writeRegisterWord(address uint32, value, mask uint32) {
	switch reg(address) {
	case reg(0x04000180):
		b.hw.IPC.WriteSYNC(ipc.ARM9, value, mask)
	case reg(0x04000184):
		b.hw.IPC.WriteFIFOCNT(ipc.ARM9, value, mask)
	case reg(0x04000188):
		if mask != 0 {
			b.hw.IPC.WriteFIFOSEND(ipc.ARM9, value)
		}
	case reg(0x04000100):
		b.hw.Timer.WriteTMCNT(0, value, mask)
	case reg(0x04000104):
		b.hw.Timer.WriteTMCNT(1, value, mask)
	case reg(0x04000108):
		b.hw.Timer.WriteTMCNT(2, value, mask)
	case reg(0x0400010C):
		b.hw.Timer.WriteTMCNT(3, value, mask)
	case reg(0x040000B0):
		b.hw.DMA.WriteDMASAD(0, value, mask)
	case reg(0x040000B4):
		b.hw.DMA.WriteDMADAD(0, value, mask)
	case reg(0x040000B8):
		b.hw.DMA.WriteDMACNT(0, value, mask)
	case reg(0x040000BC):
		b.hw.DMA.WriteDMASAD(1, value, mask)
	case reg(0x040000C0):
		b.hw.DMA.WriteDMADAD(1, value, mask)
	case reg(0x040000C4):
		b.hw.DMA.WriteDMACNT(1, value, mask)
	case reg(0x040000C8):
		b.hw.DMA.WriteDMASAD(2, value, mask)
	case reg(0x040000CC):
		b.hw.DMA.WriteDMADAD(2, value, mask)
	case reg(0x040000D0):
		b.hw.DMA.WriteDMACNT(2, value, mask)
	case reg(0x040000D4):
		b.hw.DMA.WriteDMASAD(3, value, mask)
	case reg(0x040000D8):
		b.hw.DMA.WriteDMADAD(3, value, mask)
	case reg(0x040000DC):
		b.hw.DMA.WriteDMACNT(3, value, mask)
	case reg(0x040000E0):
		b.hw.DMA.WriteDMAFILL(0, value, mask)
	case reg(0x040000E4):
		b.hw.DMA.WriteDMAFILL(1, value, mask)
	case reg(0x040000E8):
		b.hw.DMA.WriteDMAFILL(2, value, mask)
	case reg(0x040000EC):
		b.hw.DMA.WriteDMAFILL(3, value, mask)
	case reg(0x04000208):
		b.hw.IRQ.WriteIME(value, mask)
	case reg(0x04000210):
		b.hw.IRQ.WriteIE(value, mask)
	case reg(0x04000214):
		b.hw.IRQ.WriteIF(value, mask)
	case reg(0x04000004):
		// VCOUNT (the high halfword) is read-only and ignores mask bits
		// above 0xFFFF.
		b.hw.Scanline.WriteDispstat9(uint16(value), uint16(mask))
	case reg(0x04000240):
		if mask&0xFF != 0 {
			b.hw.VRAM.WriteVRAMCNT(vram.BankA, uint8(value))
		}
		if mask&0xFF00 != 0 {
			b.hw.VRAM.WriteVRAMCNT(vram.BankB, uint8(value>>8))
		}
		if mask&0xFF0000 != 0 {
			b.hw.VRAM.WriteVRAMCNT(vram.BankC, uint8(value>>16))
		}
		if mask&0xFF000000 != 0 {
			b.hw.VRAM.WriteVRAMCNT(vram.BankD, uint8(value>>24))
		}
	case reg(0x04000244):
		if mask&0xFF != 0 {
			b.hw.VRAM.WriteVRAMCNT(vram.BankE, uint8(value))
		}
		if mask&0xFF00 != 0 {
			b.hw.VRAM.WriteVRAMCNT(vram.BankF, uint8(value>>8))
		}
		if mask&0xFF0000 != 0 {
			b.hw.VRAM.WriteVRAMCNT(vram.BankG, uint8(value>>16))
		}
		if mask&0xFF000000 != 0 {
			b.hw.SWRAM.WriteWRAMCNT(uint8(value >> 24))
		}
	case reg(0x04000248):
		if mask&0xFF != 0 {
			b.hw.VRAM.WriteVRAMCNT(vram.BankH, uint8(value))
		}
		if mask&0xFF00 != 0 {
			b.hw.VRAM.WriteVRAMCNT(vram.BankI, uint8(value>>8))
		}
	default:
		logger.Logf(b.permission, "membus9!", "unhandled IO write to 0x%08X = 0x%08X (mask 0x%08X)", address, value, mask)
	}
}
