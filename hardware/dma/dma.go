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

// Package dma implements the four-channel DMA block present on each
// CPU (§4.8). Both CPUs share the same register layout and transfer
// loop; they differ only in which StartTime values exist and whether
// DMAFILL is present, which New's variant parameter selects.
package dma

import "github.com/dualnds/dualnds/hardware/irq"

// StartTime identifies what triggers a DMA channel armed with repeat
// or matched against on Request.
type StartTime uint32

const (
	Immediate StartTime = 0
	VBlank    StartTime = 1

	// ARM7-only encoding: HBlank's slot is Slot1, and there's a fourth
	// "Special" trigger instead of the ARM9's HDraw..GxFIFO set.
	Slot1ARM7 StartTime = 2
	Special   StartTime = 3

	// ARM9-only encoding.
	HBlank            StartTime = 2
	HDraw             StartTime = 3
	MainMemoryDisplay StartTime = 4
	Slot1             StartTime = 5
	Slot2             StartTime = 6
	GxFIFO            StartTime = 7
)

// Variant selects which CPU's DMA register behaviour a Controller
// implements: ARM9 carries DMAFILL and an 8-way timing field; ARM7
// has neither.
type Variant int

const (
	ARM7 Variant = iota
	ARM9
)

var addressOffset = [4]int32{1, -1, 0, 1}

// Bus is the subset of the memory bus a DMA channel needs to move
// data between two addresses.
type Bus interface {
	ReadHalf(addr uint32) uint16
	WriteHalf(addr uint32, value uint16)
	ReadWord(addr uint32) uint32
	WriteWord(addr uint32, value uint32)
}

const (
	dmacntLengthMask9   = 0x001FFFFF
	dmacntLengthMask7   = 0x0000FFFF
	dmacntDstModeShift  = 21
	dmacntDstModeMask   = 0x3 << dmacntDstModeShift
	dmacntSrcModeShift  = 23
	dmacntSrcModeMask   = 0x3 << dmacntSrcModeShift
	dmacntRepeat        = 1 << 25
	dmacntTransfer32    = 1 << 26
	dmacntTimingShift9  = 27
	dmacntTimingMask9   = 0x7 << dmacntTimingShift9
	dmacntTimingShift7  = 28
	dmacntTimingMask7   = 0x3 << dmacntTimingShift7
	dmacntEnableIRQ     = 1 << 30
	dmacntEnable        = 1 << 31

	addressMaskSAD = 0x0FFFFFFF
	addressMaskDAD = 0x0FFFFFFF
)

type latch struct {
	sad    uint32
	dad    uint32
	length uint32
}

type channel struct {
	sad    uint32
	dad    uint32
	dmacnt uint32
	fill   uint32
	latch  latch
}

func (c *channel) lengthField(variant Variant) uint32 {
	if variant == ARM9 {
		return c.dmacnt & dmacntLengthMask9
	}
	return c.dmacnt & dmacntLengthMask7
}

func (c *channel) dstAddressMode() uint32 {
	return (c.dmacnt & dmacntDstModeMask) >> dmacntDstModeShift
}

func (c *channel) srcAddressMode() uint32 {
	return (c.dmacnt & dmacntSrcModeMask) >> dmacntSrcModeShift
}

func (c *channel) repeat() bool { return c.dmacnt&dmacntRepeat != 0 }

func (c *channel) transfer32() bool { return c.dmacnt&dmacntTransfer32 != 0 }

func (c *channel) timing(variant Variant) StartTime {
	if variant == ARM9 {
		return StartTime((c.dmacnt & dmacntTimingMask9) >> dmacntTimingShift9)
	}
	return StartTime((c.dmacnt & dmacntTimingMask7) >> dmacntTimingShift7)
}

func (c *channel) irqEnabled() bool { return c.dmacnt&dmacntEnableIRQ != 0 }

func (c *channel) enabled() bool { return c.dmacnt&dmacntEnable != 0 }

func (c *channel) setEnabled(v bool) {
	if v {
		c.dmacnt |= dmacntEnable
	} else {
		c.dmacnt &^= dmacntEnable
	}
}

// Controller is one CPU's four-channel DMA block.
type Controller struct {
	variant Variant
	bus     Bus
	irq     *irq.Controller
	channel [4]channel
}

// New creates a Controller of the given variant, transferring over bus
// and raising completion interrupts on irqController.
func New(variant Variant, bus Bus, irqController *irq.Controller) *Controller {
	return &Controller{variant: variant, bus: bus, irq: irqController}
}

// SetBus rewires the Controller onto bus. System wiring constructs the
// DMA controller before the memory bus it moves data over (the bus
// itself is built from a hardware struct that embeds the DMA
// controller), so the two are connected with a nil Bus first and tied
// together with SetBus once the real bus exists.
func (d *Controller) SetBus(bus Bus) {
	d.bus = bus
}

// Reset clears every channel's registers and in-flight latch.
func (d *Controller) Reset() {
	for i := range d.channel {
		d.channel[i] = channel{}
	}
}

// Request runs every enabled channel whose timing field matches timing.
// Used by the PPU/scanline state machine (VBlank/HBlank/HDraw/MainMemoryDisplay)
// and by the cartridge/GX FIFO backends (Slot1/Slot2/GxFIFO) to fire
// matching channels without each caller knowing which channels care.
func (d *Controller) Request(timing StartTime) {
	for id := 0; id < 4; id++ {
		ch := &d.channel[id]
		if ch.enabled() && ch.timing(d.variant) == timing {
			d.run(id)
		}
	}
}

// ReadDMASAD returns channel id's source address register.
func (d *Controller) ReadDMASAD(id int) uint32 { return d.channel[id].sad }

// WriteDMASAD applies a masked write to channel id's source address.
func (d *Controller) WriteDMASAD(id int, value, mask uint32) {
	writeMask := addressMaskSAD & mask
	ch := &d.channel[id]
	ch.sad = (value & writeMask) | (ch.sad &^ writeMask)
}

// ReadDMADAD returns channel id's destination address register.
func (d *Controller) ReadDMADAD(id int) uint32 { return d.channel[id].dad }

// WriteDMADAD applies a masked write to channel id's destination address.
func (d *Controller) WriteDMADAD(id int, value, mask uint32) {
	writeMask := addressMaskDAD & mask
	ch := &d.channel[id]
	ch.dad = (value & writeMask) | (ch.dad &^ writeMask)
}

// ReadDMACNT returns channel id's control register.
func (d *Controller) ReadDMACNT(id int) uint32 { return d.channel[id].dmacnt }

// WriteDMACNT applies a masked write to channel id's control register.
// A disabled-to-enabled transition latches SAD/DAD/length (treating a
// zero length field as the maximum transfer size) and, if the channel
// is armed for Immediate timing, runs it right away.
func (d *Controller) WriteDMACNT(id int, value, mask uint32) {
	ch := &d.channel[id]
	wasEnabled := ch.enabled()

	ch.dmacnt = (value & mask) | (ch.dmacnt &^ mask)

	if !wasEnabled && ch.enabled() {
		ch.latch.sad = ch.sad
		ch.latch.dad = ch.dad
		ch.latch.length = d.maxLength(ch)

		if ch.timing(d.variant) == Immediate {
			d.run(id)
		}
	}
}

// ReadDMAFILL returns channel id's fill register (ARM9 only).
func (d *Controller) ReadDMAFILL(id int) uint32 { return d.channel[id].fill }

// WriteDMAFILL applies a masked write to channel id's fill register
// (ARM9 only; the ARM7 variant never exposes this register to a caller).
func (d *Controller) WriteDMAFILL(id int, value, mask uint32) {
	ch := &d.channel[id]
	ch.fill = (value & mask) | (ch.fill &^ mask)
}

func (d *Controller) maxLength(ch *channel) uint32 {
	length := ch.lengthField(d.variant)
	if length == 0 {
		// length=0 latches the maximum transfer length: 2^21 words/
		// halfwords on ARM9, 2^14 on ARM7 (§4.8).
		if d.variant == ARM9 {
			return 0x200000
		}
		return 0x4000
	}
	return length
}

func (d *Controller) run(id int) {
	ch := &d.channel[id]

	shift := uint(1)
	if ch.transfer32() {
		shift = 2
	}

	sadOffset := addressOffset[ch.srcAddressMode()] << shift
	dadOffset := addressOffset[ch.dstAddressMode()] << shift

	for ch.latch.length > 0 {
		if ch.transfer32() {
			d.bus.WriteWord(ch.latch.dad, d.bus.ReadWord(ch.latch.sad))
		} else {
			d.bus.WriteHalf(ch.latch.dad, d.bus.ReadHalf(ch.latch.sad))
		}

		ch.latch.sad = uint32(int64(ch.latch.sad) + int64(sadOffset))
		ch.latch.dad = uint32(int64(ch.latch.dad) + int64(dadOffset))
		ch.latch.length--
	}

	if ch.repeat() && ch.timing(d.variant) != Immediate {
		if ch.dstAddressMode() == 3 {
			ch.latch.dad = ch.dad
		}
		ch.latch.length = d.maxLength(ch)
	} else {
		ch.setEnabled(false)
	}

	if ch.irqEnabled() {
		d.irq.Raise(irq.Source(uint32(irq.DMA0) << uint(id)))
	}
}
