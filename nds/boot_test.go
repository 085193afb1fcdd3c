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

package nds_test

import (
	"encoding/binary"
	"testing"

	"github.com/dualnds/dualnds/hardware/arm"
	"github.com/dualnds/dualnds/hardware/arm9/cp15"
	"github.com/dualnds/dualnds/hardware/dma"
	"github.com/dualnds/dualnds/hardware/ipc"
	"github.com/dualnds/dualnds/hardware/irq"
	"github.com/dualnds/dualnds/hardware/membus"
	"github.com/dualnds/dualnds/hardware/scheduler"
	"github.com/dualnds/dualnds/hardware/swram"
	"github.com/dualnds/dualnds/hardware/timer"
	"github.com/dualnds/dualnds/hardware/vram"
	"github.com/dualnds/dualnds/logger"
	"github.com/dualnds/dualnds/nds"
	"github.com/dualnds/dualnds/nds/cartridge"
	"github.com/dualnds/dualnds/test"
)

// fakeROM is an in-memory ROM image built by the test itself: a header
// at offset 0 plus the two binaries DirectBoot copies out.
type fakeROM struct {
	data []byte
}

func (r *fakeROM) Size() int { return len(r.data) }

func (r *fakeROM) Read(dst []byte, offset, length int) {
	copy(dst, r.data[offset:offset+length])
}

func buildROM(arm9Entry, arm7Entry uint32) *fakeROM {
	const arm9FileAddr, arm9Size = 0x4000, 0x40
	const arm7FileAddr, arm7Size = 0x8000, 0x20

	data := make([]byte, arm7FileAddr+arm7Size)

	putBinary := func(offset int, fileAddress, entrypoint, loadAddress, size uint32) {
		binary.LittleEndian.PutUint32(data[offset:], fileAddress)
		binary.LittleEndian.PutUint32(data[offset+4:], entrypoint)
		binary.LittleEndian.PutUint32(data[offset+8:], loadAddress)
		binary.LittleEndian.PutUint32(data[offset+12:], size)
	}
	putBinary(0x20, arm9FileAddr, arm9Entry, 0x02000000, arm9Size)
	putBinary(0x30, arm7FileAddr, arm7Entry, 0x02380000, arm7Size)

	for i := 0; i < arm9Size; i++ {
		data[arm9FileAddr+i] = byte(0xA0 + i)
	}
	for i := 0; i < arm7Size; i++ {
		data[arm7FileAddr+i] = byte(0xB0 + i)
	}

	return &fakeROM{data: data}
}

func TestDirectBootCopiesBinariesAndSetsBothEntrypoints(t *testing.T) {
	irq9 := irq.NewController(true)
	irq7 := irq.NewController(false)
	sched := scheduler.New()
	tm9 := timer.New(sched, irq9)
	tm7 := timer.New(sched, irq7)
	sw := swram.New()
	vr := vram.NewRouter(logger.Allow)
	pc := ipc.New(irq9, irq7, logger.Allow)
	d9 := dma.New(dma.ARM9, nil, irq9)
	d7 := dma.New(dma.ARM7, nil, irq7)

	arm9Bus := membus.NewARM9Bus(membus.ARM9HW{IRQ: irq9, Timer: tm9, DMA: d9, IPC: pc, SWRAM: sw, VRAM: vr}, logger.Allow)
	arm7Bus := membus.NewARM7Bus(membus.ARM7HW{IRQ: irq7, Timer: tm7, DMA: d7, IPC: pc, SWRAM: sw, VRAM: vr}, logger.Allow)

	arm9Core := arm.NewCore(arm9Bus)
	arm7Core := arm.NewCore(arm7Bus)

	cp := cp15.New(arm9Core, arm9Bus)
	var cart cartridge.Controller

	rom := buildROM(0x02000004, 0x02380008)

	header := nds.DirectBoot(rom, arm9Core, arm7Core, arm9Bus, arm7Bus, cp, &cart, logger.Allow)

	test.ExpectEquality(t, header.ARM9.Entrypoint, uint32(0x02000004))
	test.ExpectEquality(t, header.ARM7.Entrypoint, uint32(0x02380008))

	test.ExpectEquality(t, arm9Core.Regs.Get(15), uint32(0x02000004))
	test.ExpectEquality(t, arm7Core.Regs.Get(15), uint32(0x02380008))

	test.ExpectEquality(t, arm9Core.CPSR.Mode, arm.ModeSystem)
	test.ExpectEquality(t, arm7Core.CPSR.Mode, arm.ModeSystem)

	test.ExpectEquality(t, cart.DataMode, cartridge.DataModeMainDataLoad)

	test.ExpectEquality(t, arm9Bus.ReadByte(0x02000000), byte(0xA0))
	test.ExpectEquality(t, arm7Bus.ReadByte(0x02380000), byte(0xB0))
}

func TestDirectBootSeedsSystemModeStackPointers(t *testing.T) {
	irq9 := irq.NewController(true)
	irq7 := irq.NewController(false)
	sched := scheduler.New()
	tm9 := timer.New(sched, irq9)
	tm7 := timer.New(sched, irq7)
	sw := swram.New()
	vr := vram.NewRouter(logger.Allow)
	pc := ipc.New(irq9, irq7, logger.Allow)
	d9 := dma.New(dma.ARM9, nil, irq9)
	d7 := dma.New(dma.ARM7, nil, irq7)

	arm9Bus := membus.NewARM9Bus(membus.ARM9HW{IRQ: irq9, Timer: tm9, DMA: d9, IPC: pc, SWRAM: sw, VRAM: vr}, logger.Allow)
	arm7Bus := membus.NewARM7Bus(membus.ARM7HW{IRQ: irq7, Timer: tm7, DMA: d7, IPC: pc, SWRAM: sw, VRAM: vr}, logger.Allow)

	arm9Core := arm.NewCore(arm9Bus)
	arm7Core := arm.NewCore(arm7Bus)

	cp := cp15.New(arm9Core, arm9Bus)
	var cart cartridge.Controller

	rom := buildROM(0x02000004, 0x02380008)
	nds.DirectBoot(rom, arm9Core, arm7Core, arm9Bus, arm7Bus, cp, &cart, logger.Allow)

	test.ExpectEquality(t, arm9Core.Regs.Get(13), uint32(0x03007F00))
	test.ExpectEquality(t, arm7Core.Regs.Get(13), uint32(0x0380FE00))
}
