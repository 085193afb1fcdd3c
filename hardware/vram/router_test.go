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

package vram_test

import (
	"testing"

	"github.com/dualnds/dualnds/hardware/vram"
	"github.com/dualnds/dualnds/logger"
	"github.com/dualnds/dualnds/test"
)

func TestBankARoutesToBackgroundRegionAndReadsBack(t *testing.T) {
	r := vram.NewRouter(logger.Allow)

	// mst=1 (BG), offset=0, mapped
	r.WriteVRAMCNT(vram.BankA, 0x81)

	r.RegionPPUBackground[0].Write32(0, 0xDEADBEEF)

	test.ExpectEquality(t, r.RegionPPUBackground[0].Read32(0), uint32(0xDEADBEEF))
}

func TestUnmappingBankClearsTheRegionWindow(t *testing.T) {
	r := vram.NewRouter(logger.Allow)

	r.WriteVRAMCNT(vram.BankA, 0x81)
	r.RegionPPUBackground[0].Write32(0, 0xDEADBEEF)

	// unmap
	r.WriteVRAMCNT(vram.BankA, 0x01)

	test.ExpectEquality(t, r.RegionPPUBackground[0].Read32(0), uint32(0))
}

func TestOverlappingBanksORCombineReads(t *testing.T) {
	r := vram.NewRouter(logger.Allow)

	// bank A and bank B both mst=1 offset=0 -> both map to offset 0 of
	// the background region, producing an overlapping page.
	r.WriteVRAMCNT(vram.BankA, 0x81)
	r.WriteVRAMCNT(vram.BankB, 0x81)

	r.RegionPPUBackground[0].Write8(0, 0x0F)

	test.ExpectEquality(t, r.RegionPPUBackground[0].Read8(0), uint8(0x0F))
}

func TestOverlappingBanksBroadcastWrites(t *testing.T) {
	r := vram.NewRouter(logger.Allow)

	r.WriteVRAMCNT(vram.BankA, 0x81)
	r.WriteVRAMCNT(vram.BankB, 0x81)

	r.RegionPPUBackground[0].Write8(0, 0x42)

	// unmap B; the write should still be visible through A alone.
	r.WriteVRAMCNT(vram.BankB, 0x01)

	test.ExpectEquality(t, r.RegionPPUBackground[0].Read8(0), uint8(0x42))
}

func TestVRAMSTATReflectsBankCAndDRoutedToARM7WRAM(t *testing.T) {
	r := vram.NewRouter(logger.Allow)

	test.ExpectEquality(t, r.ReadVRAMSTAT(), uint8(0))

	r.WriteVRAMCNT(vram.BankC, 0x82) // mst=2, mapped
	test.ExpectEquality(t, r.ReadVRAMSTAT(), uint8(1))

	r.WriteVRAMCNT(vram.BankD, 0x82)
	test.ExpectEquality(t, r.ReadVRAMSTAT(), uint8(3))
}

func TestVRAMCNTReadsBackWrittenMaskedValue(t *testing.T) {
	r := vram.NewRouter(logger.Allow)

	r.WriteVRAMCNT(vram.BankA, 0xFF)

	test.ExpectEquality(t, r.ReadVRAMCNT(vram.BankA), uint8(0x9F))
}

func TestResetClearsBanksAndUnmapsEverything(t *testing.T) {
	r := vram.NewRouter(logger.Allow)
	r.WriteVRAMCNT(vram.BankA, 0x81)
	r.RegionPPUBackground[0].Write8(0, 0xFF)

	r.Reset()

	test.ExpectEquality(t, r.ReadVRAMCNT(vram.BankA), uint8(0))
	test.ExpectEquality(t, r.RegionPPUBackground[0].Read8(0), uint8(0))
}
