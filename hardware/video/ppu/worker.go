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

package ppu

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// renderWorker decouples scanline rendering from the scheduler thread
// that drives OnDrawScanlineBegin/OnBlankScanlineBegin, the same
// producer/consumer split the original gives its own worker thread
// (PPU::SetupRenderWorker/StopRenderWorker): the scheduler only needs
// to hand off "everything up to vcount is ready", not wait for each
// scanline's pixels before continuing emulation. Translated into Go's
// goroutine-plus-channel idiom the way the teacher hands off completed
// frames to its UI goroutine (gui/sdlimgui/screen.go's emuWait/
// emuWaitAck rendezvous channels) rather than a raw mutex+condvar pair.
type renderWorker struct {
	submit chan int // highest vcount now available to render
	quit   chan struct{}
	done   sync.WaitGroup

	vcount    int32 // atomic: next vcount the worker will process
	vcountMax int32 // atomic: highest vcount submitted so far
}

// Close stops this PPU's render worker and waits for it to exit. Exposed
// for Coordinator, which stops both PPUs' workers as a unit.
func (p *PPU) Close() error {
	p.stopRenderWorker()
	return nil
}

func (p *PPU) startRenderWorker() {
	p.stopRenderWorker()

	atomic.StoreInt32(&p.worker.vcount, 0)
	atomic.StoreInt32(&p.worker.vcountMax, -1)
	p.worker.submit = make(chan int, 1)
	p.worker.quit = make(chan struct{})
	p.worker.done.Add(1)

	go p.renderWorkerLoop()
}

func (p *PPU) stopRenderWorker() {
	if p.worker.quit == nil {
		return
	}
	close(p.worker.quit)
	p.worker.done.Wait()
	p.worker.quit = nil
}

func (p *PPU) renderWorkerLoop() {
	defer p.worker.done.Done()

	for {
		select {
		case <-p.worker.quit:
			return
		case vmax := <-p.worker.submit:
			atomic.StoreInt32(&p.worker.vcountMax, int32(vmax))
		}

		for atomic.LoadInt32(&p.worker.vcount) <= atomic.LoadInt32(&p.worker.vcountMax) {
			vcount := uint16(atomic.LoadInt32(&p.worker.vcount))

			mmio := &p.mmioCopy[vcount]
			if mmio.DispCnt.Enable[EnableWin0] {
				p.renderWindow(0, vcount)
			}
			if mmio.DispCnt.Enable[EnableWin1] {
				p.renderWindow(1, vcount)
			}

			if vcount < 192 {
				p.renderScanline(vcount, p.mmioCopy[vcount].CaptureBGAnd3D)
			}

			atomic.AddInt32(&p.worker.vcount, 1)
		}
	}
}

// WaitForRenderWorker blocks until the render worker has processed
// every scanline submitted so far, the synchronous point OnRegionWrite
// needs before patching the render-side shadow copy directly mid-frame.
// Matches the original's busy-spin (PPU::WaitForRenderWorker) rather
// than a blocking channel receive, since the worker is usually already
// caught up and a channel round-trip would cost more than the spin.
func (p *PPU) WaitForRenderWorker() {
	for atomic.LoadInt32(&p.worker.vcount) <= atomic.LoadInt32(&p.worker.vcountMax) {
		runtime.Gosched()
	}
}

// submitScanline hands vcount's MMIO snapshot (and, at vcount 0, the
// accumulated dirty VRAM/PRAM/OAM ranges) to the render worker.
func (p *PPU) submitScanline(vcount uint16, captureBGAnd3D bool) {
	p.mmio.CaptureBGAnd3D = captureBGAnd3D

	if vcount < 192 {
		p.mmioCopy[vcount] = p.mmio
	} else {
		p.mmioCopy[vcount].DispCnt = p.mmio.DispCnt
		p.mmioCopy[vcount].WinH = p.mmio.WinH
		p.mmioCopy[vcount].WinV = p.mmio.WinV
	}

	if vcount == 0 {
		p.flushDirtyRegion(p.renderVRAMBG, &p.vramBGDirty, p.vramBG.Read8)
		p.flushDirtyRegion(p.renderVRAMOBJ, &p.vramOBJDirty, p.vramOBJ.Read8)
		p.flushDirtyRegion(p.renderExtPalBG, &p.extPalBGDirty, p.extPalBG.Read8)
		p.flushDirtyRegion(p.renderExtPalOBJ, &p.extPalOBJDirty, p.extPalOBJ.Read8)
		p.flushDirtyRegion(p.renderVRAMLCDC, &p.vramLCDCDirty, p.vramLCDC.Read8)
		p.flushDirtyBytes(p.renderPRAM, &p.pramDirty, p.pram)
		p.flushDirtyBytes(p.renderOAM, &p.oamDirty, p.oam)

		atomic.StoreInt32(&p.worker.vcount, 0)
	}

	atomic.StoreInt32(&p.worker.vcountMax, int32(vcount))

	// submit holds only the most recently announced vcountMax: draining
	// a stale value before pushing the new one means the worker never
	// reads an announcement older than what the atomic already reflects.
	select {
	case p.worker.submit <- int(vcount):
	default:
		select {
		case <-p.worker.submit:
		default:
		}
		p.worker.submit <- int(vcount)
	}
}

func (p *PPU) flushDirtyRegion(dst []byte, dirty *addressRange, read func(uint32) byte) {
	if dirty.valid {
		for addr := dirty.lo; addr < dirty.hi; addr++ {
			dst[addr] = read(uint32(addr))
		}
	}
	dirty.reset()
}

func (p *PPU) flushDirtyBytes(dst []byte, dirty *addressRange, src []byte) {
	if dirty.valid {
		copy(dst[dirty.lo:dirty.hi], src[dirty.lo:dirty.hi])
	}
	dirty.reset()
}
