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

package cp15_test

import (
	"testing"

	"github.com/dualnds/dualnds/hardware/arm9/cp15"
)

type fakeCPU struct {
	vectorBase uint32
	halted     bool
}

func (c *fakeCPU) SetVectorBase(base uint32) { c.vectorBase = base }
func (c *fakeCPU) Halt()                     { c.halted = true }

type dtcmSetup struct{ enabled bool; base, high uint32 }
type itcmSetup struct{ enabled bool; base, high uint32 }

type fakeBus struct {
	dtcm dtcmSetup
	itcm itcmSetup
}

func (b *fakeBus) SetupDTCM(enabled bool, base, high uint32) {
	b.dtcm = dtcmSetup{enabled, base, high}
}

func (b *fakeBus) SetupITCM(enabled bool, base, high uint32) {
	b.itcm = itcmSetup{enabled, base, high}
}

func TestMainIDAndCacheTypeAreFixedConstants(t *testing.T) {
	p := cp15.New(&fakeCPU{}, &fakeBus{})

	if got := p.MRC(0, 0, 0, 0); got != 0x41059461 {
		t.Fatalf("expected main ID 0x41059461, got %#x", got)
	}
	if got := p.MRC(0, 0, 0, 1); got != 0x0F0D2112 {
		t.Fatalf("expected cache type 0x0F0D2112, got %#x", got)
	}
}

func TestControlRegisterWriteIsMaskedAndReadsBack(t *testing.T) {
	p := cp15.New(&fakeCPU{}, &fakeBus{})

	p.MCR(0, 1, 0, 0, 0xFFFFFFFF)

	got := p.MRC(0, 1, 0, 0)
	want := uint32(0xFFFFFFFF)&0x000FF085 | 0x78
	if got != want {
		t.Fatalf("expected control register masked to %#x, got %#x", want, got)
	}
}

func TestAlternateVectorSelectRelocatesExceptionBase(t *testing.T) {
	cpu := &fakeCPU{}
	p := cp15.New(cpu, &fakeBus{})

	p.MCR(0, 1, 0, 0, 1<<13)
	if cpu.vectorBase != 0xFFFF0000 {
		t.Fatalf("expected high vector base, got %#x", cpu.vectorBase)
	}

	p.MCR(0, 1, 0, 0, 0)
	if cpu.vectorBase != 0 {
		t.Fatalf("expected vector base reset to 0, got %#x", cpu.vectorBase)
	}
}

func TestWaitForIRQHaltsTheCPU(t *testing.T) {
	cpu := &fakeCPU{}
	p := cp15.New(cpu, &fakeBus{})

	p.MCR(0, 7, 0, 4, 0)

	if !cpu.halted {
		t.Fatalf("expected wait-for-IRQ MCR to halt the CPU")
	}
}

func TestDirectBootConfiguresDTCMAndITCMWindows(t *testing.T) {
	cpu := &fakeCPU{}
	bus := &fakeBus{}
	p := cp15.New(cpu, bus)

	p.DirectBoot()

	if !bus.dtcm.enabled || bus.dtcm.base != 0x03000000 || bus.dtcm.high != 0x03000000+0x4000 {
		t.Fatalf("expected DTCM enabled at 0x03000000 size 16KiB, got %+v", bus.dtcm)
	}
	if !bus.itcm.enabled || bus.itcm.base != 0 {
		t.Fatalf("expected ITCM enabled based at 0, got %+v", bus.itcm)
	}
}

func TestDTCMRegionWriteWithoutEnableBitLeavesWindowDisabled(t *testing.T) {
	bus := &fakeBus{}
	p := cp15.New(&fakeCPU{}, bus)

	p.MCR(0, 9, 1, 0, 0x0300000A)

	if bus.dtcm.enabled {
		t.Fatalf("expected DTCM window to stay disabled until the control register's enable bit is set")
	}
}
