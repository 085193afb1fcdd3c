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

package membus_test

import (
	"testing"

	"github.com/dualnds/dualnds/hardware/dma"
	"github.com/dualnds/dualnds/hardware/ipc"
	"github.com/dualnds/dualnds/hardware/irq"
	"github.com/dualnds/dualnds/hardware/membus"
	"github.com/dualnds/dualnds/hardware/scheduler"
	"github.com/dualnds/dualnds/hardware/swram"
	"github.com/dualnds/dualnds/hardware/timer"
	"github.com/dualnds/dualnds/hardware/vram"
	"github.com/dualnds/dualnds/logger"
	"github.com/dualnds/dualnds/test"
)

func newARM9Bus() *membus.ARM9Bus {
	irq9 := irq.NewController(true)
	irq7 := irq.NewController(false)
	sched := scheduler.New()
	tm := timer.New(sched, irq9)
	sw := swram.New()
	vr := vram.NewRouter(logger.Allow)
	pc := ipc.New(irq9, irq7, logger.Allow)
	d := dma.New(dma.ARM9, nil, irq9)

	return membus.NewARM9Bus(membus.ARM9HW{
		IRQ: irq9, Timer: tm, DMA: d, IPC: pc, SWRAM: sw, VRAM: vr,
	}, logger.Allow)
}

func TestARM9BusRoutesEWRAMAccesses(t *testing.T) {
	b := newARM9Bus()

	b.WriteWord(0x02000100, 0xCAFEBABE)
	test.ExpectEquality(t, b.ReadWord(0x02000100), uint32(0xCAFEBABE))
}

func TestARM9BusRoutesIMEThroughToTheIRQController(t *testing.T) {
	b := newARM9Bus()

	b.WriteWord(0x04000208, 1)
	test.ExpectEquality(t, b.ReadWord(0x04000208), uint32(1))
}

func TestARM9BusRoutesVRAMBackgroundWindow(t *testing.T) {
	b := newARM9Bus()

	b.WriteWord(0x04000240, 0x81) // bank A: mst=1, mapped
	b.WriteWord(0x06000000, 0x11223344)

	test.ExpectEquality(t, b.ReadWord(0x06000000), uint32(0x11223344))
}

func TestARM7BusRoutesPrivateIWRAMWhenNoSharedAllocation(t *testing.T) {
	irq9 := irq.NewController(true)
	irq7 := irq.NewController(false)
	sched := scheduler.New()
	tm := timer.New(sched, irq7)
	sw := swram.New()
	sw.WriteWRAMCNT(0) // all shared WRAM to ARM9; ARM7 falls back to private IWRAM
	vr := vram.NewRouter(logger.Allow)
	pc := ipc.New(irq9, irq7, logger.Allow)
	d := dma.New(dma.ARM7, nil, irq7)

	b := membus.NewARM7Bus(membus.ARM7HW{
		IRQ: irq7, Timer: tm, DMA: d, IPC: pc, SWRAM: sw, VRAM: vr,
	}, logger.Allow)

	b.WriteByte(0x03000000, 0x42)
	test.ExpectEquality(t, b.ReadByte(0x03000000), uint8(0x42))
}
