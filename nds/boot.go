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

package nds

import (
	"github.com/dualnds/dualnds/hardware/arm"
	"github.com/dualnds/dualnds/hardware/arm9/cp15"
	"github.com/dualnds/dualnds/hardware/membus"
	"github.com/dualnds/dualnds/logger"
	"github.com/dualnds/dualnds/nds/cartridge"
)

// ROM is the input capability DirectBoot reads the header and binaries
// from (§6 External Interfaces): size in bytes, plus a bounded read.
// Fetching and caching the underlying ROM image is a host concern; this
// core only ever reads through this interface.
type ROM interface {
	Size() int
	Read(dst []byte, offset, length int)
}

// Well-known ARM9/ARM7 direct-boot stack pointers. These are not part of
// original_source's surviving excerpt — its NDS::DirectBoot stub only
// reads the cartridge header — so they are carried here as the
// platform's documented HLE-boot convention rather than attributed to
// the original.
const (
	arm9SupervisorSP = 0x03007FE0
	arm9IRQSP        = 0x03007FA0
	arm9SystemSP     = 0x03007F00

	arm7SupervisorSP = 0x0380FFC0
	arm7IRQSP        = 0x0380FFA0
	arm7SystemSP     = 0x0380FE00
)

type writableBus interface {
	WriteByte(address uint32, value uint8)
}

func loadBinary(bus writableBus, loadAddress uint32, data []byte) {
	for i, b := range data {
		bus.WriteByte(loadAddress+uint32(i), b)
	}
}

// seedStacks walks a freshly-Reset core (Supervisor mode) through the
// mode banks DirectBoot needs a stack for, leaving it parked in System
// mode — the mode a direct-booted NDS binary runs user code in.
func seedStacks(core *arm.Core, supervisorSP, irqSP, systemSP uint32) {
	core.Regs.Set(13, supervisorSP)
	core.Regs.SwitchMode(arm.ModeSupervisor, arm.ModeIRQ)
	core.Regs.Set(13, irqSP)
	core.Regs.SwitchMode(arm.ModeIRQ, arm.ModeSystem)
	core.Regs.Set(13, systemSP)
	core.CPSR.Mode = arm.ModeSystem
}

// DirectBoot reads the cartridge header out of rom, copies the ARM9 and
// ARM7 binaries to their load addresses, seeds CP15's TCM/vector state,
// parks both cores in System mode with their direct-boot stacks, sets
// both program counters to the header's entrypoints, and marks the
// cartridge controller as past its secure-area boot sequence — the
// sequence real hardware's BIOS performs before handing off to a
// cartridge that skips it (§6 DirectBoot).
func DirectBoot(rom ROM, arm9Core, arm7Core *arm.Core, arm9Bus *membus.ARM9Bus, arm7Bus *membus.ARM7Bus, cp *cp15.CP15, cart *cartridge.Controller, permission logger.Permission) *cartridge.Header {
	headerBytes := make([]byte, cartridge.HeaderSize)
	rom.Read(headerBytes, 0, cartridge.HeaderSize)
	header := cartridge.ParseHeader(headerBytes, rom.Size(), permission)

	arm9Binary := make([]byte, header.ARM9.Size)
	rom.Read(arm9Binary, int(header.ARM9.FileAddress), int(header.ARM9.Size))
	loadBinary(arm9Bus, header.ARM9.LoadAddress, arm9Binary)

	arm7Binary := make([]byte, header.ARM7.Size)
	rom.Read(arm7Binary, int(header.ARM7.FileAddress), int(header.ARM7.Size))
	loadBinary(arm7Bus, header.ARM7.LoadAddress, arm7Binary)

	cp.DirectBoot()
	cart.DirectBoot()

	seedStacks(arm9Core, arm9SupervisorSP, arm9IRQSP, arm9SystemSP)
	seedStacks(arm7Core, arm7SupervisorSP, arm7IRQSP, arm7SystemSP)

	arm9Core.SetPC(header.ARM9.Entrypoint)
	arm7Core.SetPC(header.ARM7.Entrypoint)

	return header
}
