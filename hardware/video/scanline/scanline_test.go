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

package scanline_test

import (
	"testing"

	"github.com/dualnds/dualnds/hardware/clocks"
	"github.com/dualnds/dualnds/hardware/dma"
	"github.com/dualnds/dualnds/hardware/irq"
	"github.com/dualnds/dualnds/hardware/scheduler"
	"github.com/dualnds/dualnds/hardware/video/ppu"
	"github.com/dualnds/dualnds/hardware/video/scanline"
	"github.com/dualnds/dualnds/test"
)

type fakeRegion struct{}

func (fakeRegion) Read8(uint32) uint8 { return 0 }

type fakeBus struct {
	mem [0x1000]byte
}

func (b *fakeBus) ReadHalf(addr uint32) uint16     { return 0 }
func (b *fakeBus) WriteHalf(addr uint32, v uint16) {}
func (b *fakeBus) ReadWord(addr uint32) uint32     { return 0 }
func (b *fakeBus) WriteWord(addr uint32, v uint32) {}

type fixture struct {
	sched *scheduler.Scheduler
	pipe  *scanline.Pipeline
	irq9  *irq.Controller
	irq7  *irq.Controller
	dma9  *dma.Controller
	dma7  *dma.Controller
}

func newFixture() *fixture {
	sched := scheduler.New()
	var r fakeRegion
	ppu9 := ppu.New(0, r, r, r, r, r, make([]byte, 0x400), make([]byte, 0x400))
	ppu7 := ppu.New(1, r, r, r, r, r, make([]byte, 0x400), make([]byte, 0x400))

	irq9 := irq.NewController(true)
	irq7 := irq.NewController(false)

	dma9 := dma.New(dma.ARM9, &fakeBus{}, irq9)
	dma7 := dma.New(dma.ARM7, &fakeBus{}, irq7)

	pipe := scanline.New(sched, ppu9, ppu7, dma9, dma7, irq9, irq7)
	pipe.Reset()

	return &fixture{sched: sched, pipe: pipe, irq9: irq9, irq7: irq7, dma9: dma9, dma7: dma7}
}

func TestResetStartsAtScanlineZeroInHDraw(t *testing.T) {
	f := newFixture()
	test.ExpectEquality(t, f.pipe.VCount(), uint16(0))
	test.ExpectEquality(t, f.pipe.ReadDispstat9()&1, uint16(0))
	test.ExpectEquality(t, f.pipe.ReadDispstat9()&2, uint16(0))
}

func TestHBlankFlagSetsPartwayThroughAScanline(t *testing.T) {
	f := newFixture()

	f.sched.AddCycles(1606)
	f.sched.Step()

	test.ExpectEquality(t, f.pipe.ReadDispstat9()&2, uint16(2))
	test.ExpectEquality(t, f.pipe.VCount(), uint16(0))
}

func TestVCountAdvancesAfterOneFullScanline(t *testing.T) {
	f := newFixture()

	f.sched.AddCycles(uint64(clocks.ScanlineCycles))
	f.sched.Step()

	test.ExpectEquality(t, f.pipe.VCount(), uint16(1))
	test.ExpectEquality(t, f.pipe.ReadDispstat9()&2, uint16(0))
}

func TestVBlankBeginsAtScanline192AndRaisesIRQOnBothCPUs(t *testing.T) {
	f := newFixture()
	f.pipe.WriteDispstat9(1<<3, 0xFFFF)
	f.pipe.WriteDispstat7(1<<3, 0xFFFF)

	f.sched.AddCycles(uint64(clocks.ScanlineCycles) * 192)
	f.sched.Step()

	test.ExpectEquality(t, f.pipe.VCount(), uint16(192))
	test.ExpectEquality(t, f.pipe.ReadDispstat9()&1, uint16(1))
	test.ExpectEquality(t, f.pipe.ReadDispstat7()&1, uint16(1))
	test.ExpectEquality(t, f.irq9.ReadIF()&uint32(irq.VBlank), uint32(irq.VBlank))
	test.ExpectEquality(t, f.irq7.ReadIF()&uint32(irq.VBlank), uint32(irq.VBlank))
}

func TestVBlankClearsAtLastScanlineAndWrapsToZero(t *testing.T) {
	f := newFixture()

	f.sched.AddCycles(uint64(clocks.ScanlineCycles) * uint64(clocks.ScanlinesPerFrame))
	f.sched.Step()

	test.ExpectEquality(t, f.pipe.VCount(), uint16(0))
	test.ExpectEquality(t, f.pipe.ReadDispstat9()&1, uint16(0))
}

func TestVMatchRaisesIRQOnRisingEdgeOnly(t *testing.T) {
	f := newFixture()

	// VCount-match setting 1 (bit7 clear, bits8-15 = 1<<8), IRQ enabled.
	f.pipe.WriteDispstat9(1<<5|1<<8, 0xFFFF)

	f.sched.AddCycles(uint64(clocks.ScanlineCycles))
	f.sched.Step()

	test.ExpectEquality(t, f.pipe.VCount(), uint16(1))
	test.ExpectEquality(t, f.pipe.ReadDispstat9()&4, uint16(4))
	test.ExpectEquality(t, f.irq9.ReadIF()&uint32(irq.VMatch), uint32(irq.VMatch))

	f.irq9.WriteIF(uint32(irq.VMatch), 0xFFFFFFFF)

	f.sched.AddCycles(uint64(clocks.ScanlineCycles))
	f.sched.Step()

	test.ExpectEquality(t, f.pipe.VCount(), uint16(2))
	test.ExpectEquality(t, f.irq9.ReadIF()&uint32(irq.VMatch), uint32(0))
}

func TestHBlankTimedDMATriggersDuringVisibleScanlines(t *testing.T) {
	f := newFixture()

	// DMA0: immediate-disabled, HBlank timing, enable bit set, tiny length.
	f.dma9.WriteDMASAD(0, 0, 0xFFFFFFFF)
	f.dma9.WriteDMADAD(0, 0x100, 0xFFFFFFFF)
	f.dma9.WriteDMACNT(0, 0x80000001|uint32(dma.HBlank)<<27, 0xFFFFFFFF)

	f.sched.AddCycles(1606)
	f.sched.Step()

	// The channel fired (and, without repeat, disabled itself).
	test.ExpectEquality(t, f.dma9.ReadDMACNT(0)&0x80000000, uint32(0))
}
