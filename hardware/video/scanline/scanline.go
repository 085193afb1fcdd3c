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

// Package scanline implements the H-draw/H-blank/V-blank state machine
// that drives both PPUs and the scanline-timed IRQ/DMA triggers (§4.7):
// one shared 263-line refresh cycle, scheduled entirely through events
// rather than being stepped once per cycle.
package scanline

import (
	"github.com/dualnds/dualnds/hardware/clocks"
	"github.com/dualnds/dualnds/hardware/dma"
	"github.com/dualnds/dualnds/hardware/irq"
	"github.com/dualnds/dualnds/hardware/scheduler"
	"github.com/dualnds/dualnds/hardware/video/ppu"
)

// hDrawCycles and hBlankCycles split one scanline's 2130 system ticks
// (clocks.ScanlineCycles, 355 dots at 6 ticks/dot) into a 1606-tick
// H-draw period and the remaining 524-tick H-blank period.
const (
	hDrawCycles  = 1606
	hBlankCycles = clocks.ScanlineCycles - hDrawCycles
)

// cpu indexes the two DISPSTAT/IRQ owners the pipeline drives in
// lock-step: both see the same vcount, but latch and signal
// independently.
const (
	arm9 = 0
	arm7 = 1
)

// DispStat is one CPU's DISPSTAT: the vblank/hblank/vmatch status bits
// visible to software, plus the three corresponding IRQ-enable bits and
// the 9-bit VCount-match setting. Bits 0-2 are hardware-driven and
// read-only from the CPU side; WriteHalf masks them out.
type DispStat struct {
	Half uint16
}

const (
	dispstatVBlank          = 1 << 0
	dispstatHBlank          = 1 << 1
	dispstatVMatch          = 1 << 2
	dispstatVBlankIRQEnable = 1 << 3
	dispstatHBlankIRQEnable = 1 << 4
	dispstatVMatchIRQEnable = 1 << 5
	dispstatVCountMSB       = 1 << 7
	dispstatWriteMask       = 0xFFF8
)

func (d *DispStat) VBlank() bool          { return d.Half&dispstatVBlank != 0 }
func (d *DispStat) HBlank() bool          { return d.Half&dispstatHBlank != 0 }
func (d *DispStat) VMatch() bool          { return d.Half&dispstatVMatch != 0 }
func (d *DispStat) VBlankIRQEnable() bool { return d.Half&dispstatVBlankIRQEnable != 0 }
func (d *DispStat) HBlankIRQEnable() bool { return d.Half&dispstatHBlankIRQEnable != 0 }
func (d *DispStat) VMatchIRQEnable() bool { return d.Half&dispstatVMatchIRQEnable != 0 }

// VCountSetting is the 9-bit scanline value VMatch compares vcount
// against: the high bit lives at DISPSTAT bit 7, the low 8 at bits 8-15.
func (d *DispStat) VCountSetting() uint16 {
	high := uint16(0)
	if d.Half&dispstatVCountMSB != 0 {
		high = 1 << 8
	}
	return high | (d.Half >> 8)
}

func (d *DispStat) ReadHalf() uint16 { return d.Half }

func (d *DispStat) WriteHalf(value, mask uint16) {
	writeMask := dispstatWriteMask & mask
	d.Half = (value & writeMask) | (d.Half &^ writeMask)
}

func (d *DispStat) setFlag(bit uint16, set bool) {
	if set {
		d.Half |= bit
	} else {
		d.Half &^= bit
	}
}

// Pipeline is the shared scanline state machine driving both PPUs.
// Reset schedules its own first H-draw; after that it is entirely
// self-scheduling through sched, never stepped directly.
type Pipeline struct {
	sched *scheduler.Scheduler

	ppu [2]*ppu.PPU

	dma9 *dma.Controller
	dma7 *dma.Controller

	irq9 *irq.Controller
	irq7 *irq.Controller

	dispstat [2]DispStat
	vcount   uint16

	event *scheduler.Event

	// OnPresent, if set, is called once per frame at the vcount==192
	// transition with both screens' just-completed frame buffers, after
	// each PPU's render worker has caught up and swapped buffers (§6
	// "Per-scanline presentation callback").
	OnPresent func(top, bottom []uint32)
}

// New creates a Pipeline driving ppu9/ppu7 (ARM9's and ARM7's PPU,
// respectively index 0 and 1 in every per-CPU pair here) and raising
// HBlank/VBlank/VMatch IRQs and HBlank/VBlank-timed DMA requests
// through the given controllers.
func New(sched *scheduler.Scheduler, ppu9, ppu7 *ppu.PPU, dma9, dma7 *dma.Controller, irq9, irq7 *irq.Controller) *Pipeline {
	return &Pipeline{
		sched: sched,
		ppu:   [2]*ppu.PPU{ppu9, ppu7},
		dma9:  dma9,
		dma7:  dma7,
		irq9:  irq9,
		irq7:  irq7,
	}
}

// Reset returns the pipeline to scanline 0, H-draw, and schedules the
// first H-blank transition.
func (p *Pipeline) Reset() {
	if p.event != nil {
		p.sched.Cancel(p.event)
		p.event = nil
	}
	p.vcount = 0
	p.dispstat[arm9] = DispStat{}
	p.dispstat[arm7] = DispStat{}
	p.beginHDraw(0)
}

// VCount is the current scanline, 0-262.
func (p *Pipeline) VCount() uint16 { return p.vcount }

func (p *Pipeline) ReadDispstat9() uint16            { return p.dispstat[arm9].ReadHalf() }
func (p *Pipeline) WriteDispstat9(value, mask uint16) { p.dispstat[arm9].WriteHalf(value, mask) }
func (p *Pipeline) ReadDispstat7() uint16            { return p.dispstat[arm7].ReadHalf() }
func (p *Pipeline) WriteDispstat7(value, mask uint16) { p.dispstat[arm7].WriteHalf(value, mask) }

// beginHDraw starts a new H-draw period for the current vcount: the
// PPUs snapshot their MMIO for this scanline, and an H-blank event is
// scheduled hDrawCycles out, less however late this transition ran.
func (p *Pipeline) beginHDraw(cyclesLate int) {
	p.dispstat[arm9].setFlag(dispstatHBlank, false)
	p.dispstat[arm7].setFlag(dispstatHBlank, false)

	if p.vcount < clocks.VisibleScanlines {
		// Display capture (DISPCAPCNT) is out of scope (§REDESIGN: no
		// GPU-backed 3D engine to capture from in this core), so the
		// capture flag the original threads through here is always off.
		p.ppu[arm9].OnDrawScanlineBegin(p.vcount, false)
		p.ppu[arm7].OnDrawScanlineBegin(p.vcount, false)
	} else {
		p.ppu[arm9].OnBlankScanlineBegin(p.vcount)
		p.ppu[arm7].OnBlankScanlineBegin(p.vcount)
	}

	p.event, _ = p.sched.Schedule(uint64(hDrawCycles-cyclesLate), func(late int) { p.beginHBlank(late) })
}

// beginHBlank starts the H-blank period: HBlank IRQs fire, ARM9's
// HBlank-timed DMA channels trigger, and the visible-scanline PPUs
// finish advancing their mosaic/affine scanline state. The next H-draw
// (and the vcount advance that goes with it) is scheduled hBlankCycles
// out, less however late this transition ran.
func (p *Pipeline) beginHBlank(cyclesLate int) {
	p.dispstat[arm9].setFlag(dispstatHBlank, true)
	p.dispstat[arm7].setFlag(dispstatHBlank, true)

	if p.dispstat[arm9].HBlankIRQEnable() {
		p.irq9.Raise(irq.HBlank)
	}
	if p.dispstat[arm7].HBlankIRQEnable() {
		p.irq7.Raise(irq.HBlank)
	}

	if p.vcount < clocks.VisibleScanlines {
		p.dma9.Request(dma.HBlank)
		p.ppu[arm9].OnDrawScanlineEnd()
		p.ppu[arm7].OnDrawScanlineEnd()
	}

	p.event, _ = p.sched.Schedule(uint64(hBlankCycles-cyclesLate), func(late int) {
		p.advanceVCount()
		p.beginHDraw(late)
	})
}

// advanceVCount moves to the next scanline, handling the two vertical
// transitions (entering V-blank at 192, leaving it at the last
// scanline, 262, before the wrap back to 0) and re-evaluating VMatch
// for both CPUs.
func (p *Pipeline) advanceVCount() {
	p.vcount++
	if p.vcount >= clocks.ScanlinesPerFrame {
		p.vcount = 0
	}

	switch p.vcount {
	case clocks.VisibleScanlines:
		p.dispstat[arm9].setFlag(dispstatVBlank, true)
		p.dispstat[arm7].setFlag(dispstatVBlank, true)
		if p.dispstat[arm9].VBlankIRQEnable() {
			p.irq9.Raise(irq.VBlank)
		}
		if p.dispstat[arm7].VBlankIRQEnable() {
			p.irq7.Raise(irq.VBlank)
		}
		p.dma9.Request(dma.VBlank)
		p.dma7.Request(dma.VBlank)

		if p.OnPresent != nil {
			p.ppu[arm9].WaitForRenderWorker()
			p.ppu[arm9].SwapBuffers()
			p.ppu[arm7].WaitForRenderWorker()
			p.ppu[arm7].SwapBuffers()
			p.OnPresent(p.ppu[arm9].GetFrameBuffer(), p.ppu[arm7].GetFrameBuffer())
		}
	case clocks.ScanlinesPerFrame - 1:
		p.dispstat[arm9].setFlag(dispstatVBlank, false)
		p.dispstat[arm7].setFlag(dispstatVBlank, false)
	}

	p.updateVMatch(arm9, p.irq9)
	p.updateVMatch(arm7, p.irq7)
}

func (p *Pipeline) updateVMatch(cpu int, controller *irq.Controller) {
	d := &p.dispstat[cpu]
	matched := p.vcount == d.VCountSetting()
	rising := matched && !d.VMatch()
	d.setFlag(dispstatVMatch, matched)
	if rising && d.VMatchIRQEnable() {
		controller.Raise(irq.VMatch)
	}
}
