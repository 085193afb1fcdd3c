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

package vram

import "github.com/dualnds/dualnds/logger"

// Bank identifies one of the nine physical VRAM banks.
type Bank int

const (
	BankA Bank = iota
	BankB
	BankC
	BankD
	BankE
	BankF
	BankG
	BankH
	BankI
	bankCount
)

// Bank sizes in bytes (§4.5).
const (
	sizeA = 0x20000
	sizeB = 0x20000
	sizeC = 0x20000
	sizeD = 0x20000
	sizeE = 0x10000
	sizeF = 0x4000
	sizeG = 0x4000
	sizeH = 0x8000
	sizeI = 0x4000
)

// vramcnt bit layout: mst (bits 0-2), offset (bits 3-4), mapped (bit 7).
const (
	vramcntMSTMask    = 0x07
	vramcntOffsetMask = 0x18
	vramcntOffsetShift = 3
	vramcntMapped     = 0x80
	vramcntWriteMask  = 0x9F
)

// Router is the nine-bank VRAM subsystem: physical storage plus the
// eight logical regions banks are routed into via VRAMCNT.
type Router struct {
	bank [bankCount][]byte
	cnt  [bankCount]uint8

	// PPU A/B background and object graphics regions.
	RegionPPUBackground [2]*Region
	RegionPPUObject     [2]*Region

	// ARM9 direct-access "LCDC" view of all VRAM.
	RegionLCDC *Region

	// ARM7's window onto banks C/D when routed to WRAM.
	RegionARM7WRAM *Region

	// Extended palette regions.
	RegionPPUBackgroundExtPal [2]*Region
	RegionPPUObjectExtPal     [2]*Region

	// 3D GPU texture and palette regions.
	RegionGPUTexture *Region
	RegionGPUPalette *Region

	permission logger.Permission
}

// NewRouter allocates all nine banks and the eight logical regions
// they can be routed into, per §4.5's fixed region sizes.
func NewRouter(permission logger.Permission) *Router {
	r := &Router{permission: permission}

	r.bank[BankA] = make([]byte, sizeA)
	r.bank[BankB] = make([]byte, sizeB)
	r.bank[BankC] = make([]byte, sizeC)
	r.bank[BankD] = make([]byte, sizeD)
	r.bank[BankE] = make([]byte, sizeE)
	r.bank[BankF] = make([]byte, sizeF)
	r.bank[BankG] = make([]byte, sizeG)
	r.bank[BankH] = make([]byte, sizeH)
	r.bank[BankI] = make([]byte, sizeI)

	r.RegionPPUBackground[0] = NewRegion(32, 31, DefaultPageSize)
	r.RegionPPUBackground[1] = NewRegion(32, 7, DefaultPageSize)
	r.RegionPPUObject[0] = NewRegion(16, 15, DefaultPageSize)
	r.RegionPPUObject[1] = NewRegion(16, 7, DefaultPageSize)
	r.RegionLCDC = NewRegion(64, 63, DefaultPageSize)
	r.RegionARM7WRAM = NewRegion(16, 15, DefaultPageSize)
	r.RegionPPUBackgroundExtPal[0] = NewRegion(4, 3, 8192)
	r.RegionPPUBackgroundExtPal[1] = NewRegion(4, 3, 8192)
	r.RegionPPUObjectExtPal[0] = NewRegion(1, 0, 8192)
	r.RegionPPUObjectExtPal[1] = NewRegion(1, 0, 8192)
	r.RegionGPUTexture = NewRegion(4, 3, 131072)
	r.RegionGPUPalette = NewRegion(8, 7, DefaultPageSize)

	return r
}

// Reset clears every bank and unmaps every VRAMCNT register.
func (r *Router) Reset() {
	for i := range r.bank {
		for j := range r.bank[i] {
			r.bank[i][j] = 0
		}
	}
	for b := Bank(0); b < bankCount; b++ {
		r.WriteVRAMCNT(b, 0)
	}
}

// ReadVRAMSTAT composes VRAMSTAT from whether banks C and D (by bank
// identity, not by logical region) are currently routed to the ARM7
// WRAM region (mst==2) (§12 SUPPLEMENTED FEATURES).
func (r *Router) ReadVRAMSTAT() uint8 {
	var stat uint8
	if r.mapped(BankC) && r.mst(BankC) == 2 {
		stat |= 1
	}
	if r.mapped(BankD) && r.mst(BankD) == 2 {
		stat |= 2
	}
	return stat
}

// ReadVRAMCNT returns bank's VRAMCNT register.
func (r *Router) ReadVRAMCNT(bank Bank) uint8 {
	return r.cnt[bank]
}

func (r *Router) mapped(bank Bank) bool { return r.cnt[bank]&vramcntMapped != 0 }
func (r *Router) mst(bank Bank) uint8   { return r.cnt[bank] & vramcntMSTMask }
func (r *Router) offset(bank Bank) uint8 {
	return (r.cnt[bank] & vramcntOffsetMask) >> vramcntOffsetShift
}

// WriteVRAMCNT writes bank's VRAMCNT register, unmapping its current
// route (if any) before applying the new value and remapping.
func (r *Router) WriteVRAMCNT(bank Bank, value uint8) {
	if r.mapped(bank) {
		r.unmap(bank)
	}

	r.cnt[bank] = value & vramcntWriteMask

	if r.mapped(bank) {
		r.mapBank(bank)
	}
}

func (r *Router) unmap(bank Bank) {
	mst := r.mst(bank)
	offset := uint32(r.offset(bank))
	data := r.bank[bank]

	switch bank {
	case BankA:
		switch mst {
		case 0:
			r.RegionLCDC.Unmap(0x00000, data, len(data))
		case 1:
			r.RegionPPUBackground[0].Unmap(0x20000*offset, data, len(data))
		case 2:
			r.RegionPPUObject[0].Unmap(0x20000*(offset&1), data, len(data))
		case 3:
			r.RegionGPUTexture.Unmap(offset*0x20000, data, len(data))
		}
	case BankB:
		switch mst {
		case 0:
			r.RegionLCDC.Unmap(0x20000, data, len(data))
		case 1:
			r.RegionPPUBackground[0].Unmap(0x20000*offset, data, len(data))
		case 2:
			r.RegionPPUObject[0].Unmap(0x20000*(offset&1), data, len(data))
		case 3:
			r.RegionGPUTexture.Unmap(offset*0x20000, data, len(data))
		}
	case BankC:
		switch mst {
		case 0:
			r.RegionLCDC.Unmap(0x40000, data, len(data))
		case 1:
			r.RegionPPUBackground[0].Unmap(0x20000*offset, data, len(data))
		case 2:
			r.RegionARM7WRAM.Unmap(0x20000*(offset&1), data, len(data))
		case 3:
			r.RegionGPUTexture.Unmap(offset*0x20000, data, len(data))
		case 4:
			r.RegionPPUBackground[1].Unmap(0x00000, data, len(data))
		}
	case BankD:
		switch mst {
		case 0:
			r.RegionLCDC.Unmap(0x60000, data, len(data))
		case 1:
			r.RegionPPUBackground[0].Unmap(0x20000*offset, data, len(data))
		case 2:
			r.RegionARM7WRAM.Unmap(0x20000*(offset&1), data, len(data))
		case 3:
			r.RegionGPUTexture.Unmap(offset*0x20000, data, len(data))
		case 4:
			r.RegionPPUObject[1].Unmap(0x00000, data, len(data))
		}
	case BankE:
		switch mst {
		case 0:
			r.RegionLCDC.Unmap(0x80000, data, len(data))
		case 1:
			r.RegionPPUBackground[0].Unmap(0x00000, data, len(data))
		case 2:
			r.RegionPPUObject[0].Unmap(0x00000, data, len(data))
		case 3:
			r.RegionGPUPalette.Unmap(0, data, len(data))
		case 4:
			r.RegionPPUBackgroundExtPal[0].Unmap(0, data, 0x8000)
		}
	case BankF:
		off := 0x4000*uint32(offset&1) + 0x10000*((offset>>1)&1)
		switch mst {
		case 0:
			r.RegionLCDC.Unmap(0x90000, data, len(data))
		case 1:
			r.RegionPPUBackground[0].Unmap(off, data, len(data))
		case 2:
			r.RegionPPUObject[0].Unmap(off, data, len(data))
		case 3:
			r.RegionGPUPalette.Unmap(off, data, len(data))
		case 4:
			r.RegionPPUBackgroundExtPal[0].Unmap(0x4000*(offset&1), data, len(data))
		case 5:
			r.RegionPPUObjectExtPal[0].Unmap(0, data, 0x2000)
		}
	case BankG:
		off := 0x4000*uint32(offset&1) + 0x10000*((offset>>1)&1)
		switch mst {
		case 0:
			r.RegionLCDC.Unmap(0x94000, data, len(data))
		case 1:
			r.RegionPPUBackground[0].Unmap(off, data, len(data))
		case 2:
			r.RegionPPUObject[0].Unmap(off, data, len(data))
		case 3:
			r.RegionGPUPalette.Unmap(off, data, len(data))
		case 4:
			r.RegionPPUBackgroundExtPal[0].Unmap(0x4000*(offset&1), data, len(data))
		case 5:
			r.RegionPPUObjectExtPal[0].Unmap(0, data, 0x2000)
		}
	case BankH:
		switch mst {
		case 0:
			r.RegionLCDC.Unmap(0x98000, data, len(data))
		case 1:
			r.RegionPPUBackground[1].Unmap(0x00000, data, len(data))
		case 2:
			r.RegionPPUBackgroundExtPal[1].Unmap(0, data, len(data))
		}
	case BankI:
		switch mst {
		case 0:
			r.RegionLCDC.Unmap(0xA0000, data, len(data))
		case 1:
			r.RegionPPUBackground[1].Unmap(0x08000, data, len(data))
		case 2:
			r.RegionPPUObject[1].Unmap(0x00000, data, len(data))
		case 3:
			r.RegionPPUObjectExtPal[1].Unmap(0, data, 0x2000)
		}
	}
}

func (r *Router) mapBank(bank Bank) {
	mst := r.mst(bank)
	offset := uint32(r.offset(bank))
	data := r.bank[bank]

	switch bank {
	case BankA:
		switch mst {
		case 0:
			r.RegionLCDC.Map(0x00000, data, len(data))
		case 1:
			r.RegionPPUBackground[0].Map(0x20000*offset, data, len(data))
		case 2:
			r.RegionPPUObject[0].Map(0x20000*(offset&1), data, len(data))
		case 3:
			r.RegionGPUTexture.Map(offset*0x20000, data, len(data))
		default:
			r.refuse(bank, uint32(mst), offset)
		}
	case BankB:
		switch mst {
		case 0:
			r.RegionLCDC.Map(0x20000, data, len(data))
		case 1:
			r.RegionPPUBackground[0].Map(0x20000*offset, data, len(data))
		case 2:
			r.RegionPPUObject[0].Map(0x20000*(offset&1), data, len(data))
		case 3:
			r.RegionGPUTexture.Map(offset*0x20000, data, len(data))
		default:
			r.refuse(bank, uint32(mst), offset)
		}
	case BankC:
		switch mst {
		case 0:
			r.RegionLCDC.Map(0x40000, data, len(data))
		case 1:
			r.RegionPPUBackground[0].Map(0x20000*offset, data, len(data))
		case 2:
			r.RegionARM7WRAM.Map(0x20000*(offset&1), data, len(data))
		case 3:
			r.RegionGPUTexture.Map(offset*0x20000, data, len(data))
		case 4:
			r.RegionPPUBackground[1].Map(0x00000, data, len(data))
		default:
			r.refuse(bank, uint32(mst), offset)
		}
	case BankD:
		switch mst {
		case 0:
			r.RegionLCDC.Map(0x60000, data, len(data))
		case 1:
			r.RegionPPUBackground[0].Map(0x20000*offset, data, len(data))
		case 2:
			r.RegionARM7WRAM.Map(0x20000*(offset&1), data, len(data))
		case 3:
			r.RegionGPUTexture.Map(offset*0x20000, data, len(data))
		case 4:
			r.RegionPPUObject[1].Map(0x00000, data, len(data))
		default:
			r.refuse(bank, uint32(mst), offset)
		}
	case BankE:
		switch mst {
		case 0:
			r.RegionLCDC.Map(0x80000, data, len(data))
		case 1:
			r.RegionPPUBackground[0].Map(0x00000, data, len(data))
		case 2:
			r.RegionPPUObject[0].Map(0x00000, data, len(data))
		case 3:
			r.RegionGPUPalette.Map(0, data, len(data))
		case 4:
			r.RegionPPUBackgroundExtPal[0].Map(0, data, 0x8000)
		default:
			r.refuse(bank, uint32(mst), offset)
		}
	case BankF:
		off := 0x4000*uint32(offset&1) + 0x10000*((offset>>1)&1)
		switch mst {
		case 0:
			r.RegionLCDC.Map(0x90000, data, len(data))
		case 1:
			r.RegionPPUBackground[0].Map(off, data, len(data))
		case 2:
			r.RegionPPUObject[0].Map(off, data, len(data))
		case 3:
			r.RegionGPUPalette.Map(off, data, len(data))
		case 4:
			r.RegionPPUBackgroundExtPal[0].Map(0x4000*(offset&1), data, len(data))
		case 5:
			r.RegionPPUObjectExtPal[0].Map(0, data, 0x2000)
		default:
			r.refuse(bank, uint32(mst), offset)
		}
	case BankG:
		off := 0x4000*uint32(offset&1) + 0x10000*((offset>>1)&1)
		switch mst {
		case 0:
			r.RegionLCDC.Map(0x94000, data, len(data))
		case 1:
			r.RegionPPUBackground[0].Map(off, data, len(data))
		case 2:
			r.RegionPPUObject[0].Map(off, data, len(data))
		case 3:
			r.RegionGPUPalette.Map(off, data, len(data))
		case 4:
			r.RegionPPUBackgroundExtPal[0].Map(0x4000*(offset&1), data, len(data))
		case 5:
			r.RegionPPUObjectExtPal[0].Map(0, data, 0x2000)
		default:
			r.refuse(bank, uint32(mst), offset)
		}
	case BankH:
		switch mst {
		case 0:
			r.RegionLCDC.Map(0x98000, data, len(data))
		case 1:
			r.RegionPPUBackground[1].Map(0x00000, data, len(data))
		case 2:
			r.RegionPPUBackgroundExtPal[1].Map(0, data, len(data))
		default:
			r.refuse(bank, uint32(mst), offset)
		}
	case BankI:
		switch mst {
		case 0:
			r.RegionLCDC.Map(0xA0000, data, len(data))
		case 1:
			r.RegionPPUBackground[1].Map(0x08000, data, len(data))
		case 2:
			r.RegionPPUObject[1].Map(0x00000, data, len(data))
		case 3:
			r.RegionPPUObjectExtPal[1].Map(0, data, 0x2000)
		default:
			r.refuse(bank, uint32(mst), offset)
		}
	}
}

// refuse logs an unsupported bank/mst/offset combination. The write
// already happened (VRAMCNT reads back as written, §4.5's
// ConfigurationFault is reported rather than raised, per §7's
// propagation rule) but the bank is left unrouted.
func (r *Router) refuse(bank Bank, mst, offset uint32) {
	logger.Logf(r.permission, "vram!", "bank %d: unsupported configuration: mst=%d offset=%d", bank, mst, offset)
}
