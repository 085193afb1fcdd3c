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

package arm

// Core is one of the NDS's two ARM cores: the ARM946E-S running as
// ARM9, or the ARM7TDMI running as ARM7. Both share this same register
// bank, CPSR/SPSR, exception-entry and condition-evaluation contract
// (§4.2); what differs between the two CPUs is the Memory they are
// wired to (hardware/membus's ARM9Bus vs ARM7Bus) and, on ARM9 alone,
// the CP15 coprocessor layered on top in hardware/arm9/cp15.
//
// Scope note: Core implements the full register/CPSR/mode-banking/
// condition-code/exception-entry contract, and decodes a representative
// subset of the ARM and Thumb instruction sets (data processing,
// branches, single and block data transfer, software interrupt) rather
// than the complete ARMv4T/ARMv5TE encoding space the teacher's
// arm7tdmi.ARM and arm.ARM decode in full (hardware/memory/cartridge/
// arm7tdmi/arm7.go, hardware/memory/cartridge/arm/arm.go). Instructions
// outside that subset decode to an undefined-instruction trap (the same
// path a genuinely unimplemented or corrupt opcode takes on real
// hardware), rather than being silently skipped.
type Core struct {
	Regs Registers
	CPSR CPSR

	mem Memory

	// two-word prefetch pipeline (§4.2): fetched holds the next
	// instruction to execute, fetching the one behind it, so r15 as
	// read by an executing instruction is always two instructions
	// (or one, in Thumb state) ahead of the one actually running.
	fetched      uint32
	fetching     uint32
	havePipeline bool

	irqLine bool

	// vector base address for the exception table; CP15 may relocate
	// this to 0xFFFF0000 on ARM9 (§REDESIGN high vector control bit).
	VectorBase uint32

	haltedForIRQ bool
}

// NewCore wires a Core to the bus it executes against.
func NewCore(mem Memory) *Core {
	c := &Core{mem: mem}
	c.Reset()
	return c
}

// Reset puts the core at its reset vector, Supervisor mode, IRQ/FIQ
// disabled, ARM state, and drains the prefetch pipeline so the next
// Step performs two fetches before the first instruction executes.
func (c *Core) Reset() {
	c.Regs.Reset()
	c.CPSR.Reset()
	c.havePipeline = false
	c.haltedForIRQ = false
	c.Regs.Set(15, c.VectorBase)
}

// SetVectorBase relocates the exception vector table, the effect of
// ARM9's CP15 control-register alternate-vector-select bit (normally
// 0x00000000, or 0xFFFF0000 when CP15 enables high vectors).
func (c *Core) SetVectorBase(base uint32) {
	c.VectorBase = base
}

// SetPC forces execution to resume at pc, draining the prefetch
// pipeline the same way Reset and exception entry do so the next Step
// performs a fresh two-stage fetch rather than running from stale
// pipeline contents. Used by DirectBoot to jump straight to a header's
// entrypoint without going through the reset vector.
func (c *Core) SetPC(pc uint32) {
	c.Regs.Set(15, pc)
	c.havePipeline = false
}

// SetIRQFlag implements hardware/irq.Line: the IRQ controller calls
// this whenever its composite IRQ output changes level.
func (c *Core) SetIRQFlag(asserted bool) {
	c.irqLine = asserted
	if asserted {
		c.haltedForIRQ = false
	}
}

// Step executes one instruction (or services a pending IRQ) and
// returns the number of cycles it took. A bounded, not cycle-accurate,
// cost model: 1 cycle for every executed instruction (branches
// included) and for every idle step while halted, 2 for IRQ entry;
// not a real bus-cycle trace.
func (c *Core) Step() int {
	if c.haltedForIRQ {
		if c.irqLine && !c.CPSR.IRQDisable {
			c.haltedForIRQ = false
		} else {
			return 1
		}
	}

	if c.irqLine && !c.CPSR.IRQDisable {
		c.enterException(ModeIRQ, 0x18, 4)
		return 2
	}

	if !c.havePipeline {
		c.fetching = c.fetch()
		c.advancePC()
		c.fetched = c.fetching
		c.fetching = c.fetch()
		c.advancePC()
		c.havePipeline = true
	}

	opcode := c.fetched
	c.fetched = c.fetching
	c.fetching = c.fetch()

	branched := c.execute(opcode)
	if branched {
		c.havePipeline = false
	} else {
		c.advancePC()
	}

	return 1
}

func (c *Core) instructionSize() uint32 {
	if c.CPSR.Thumb {
		return 2
	}
	return 4
}

func (c *Core) advancePC() {
	c.Regs.Set(15, c.Regs.Get(15)+c.instructionSize())
}

func (c *Core) fetch() uint32 {
	pc := c.Regs.Get(15)
	if c.CPSR.Thumb {
		return uint32(c.mem.ReadHalf(pc))
	}
	return c.mem.ReadWord(pc)
}

// execute decodes and runs opcode, returning true if it altered
// control flow (so the caller must refill the prefetch pipeline).
func (c *Core) execute(opcode uint32) bool {
	if c.CPSR.Thumb {
		return c.executeThumb(uint16(opcode))
	}

	cond := uint8(opcode >> 28)
	if !c.CPSR.EvaluateCondition(cond) {
		return false
	}
	return c.executeARM(opcode)
}

// Halt parks the core until its IRQ line is next asserted, the
// behaviour of the ARM7's low-power HALT/ARM9's CP15 wait-for-interrupt
// write (§REDESIGN low-power states).
func (c *Core) Halt() {
	c.haltedForIRQ = true
}

// enterException performs the generic ARM exception-entry sequence
// shared by IRQ, SWI, undefined-instruction and (ARM9-only) prefetch/
// data abort: save CPSR to the new mode's SPSR, bank registers into the
// target mode, set the mode/interrupt-mask bits, and load the PC from
// vectorOffset relative to VectorBase. pcBias accounts for the
// prefetch pipeline's lead when computing the return address stashed
// in LR (4 for IRQ/abort, 2 for Thumb-mode SWI — fixed up by callers
// that need different return semantics than this default).
func (c *Core) enterException(mode Mode, vectorOffset uint32, pcBias uint32) {
	returnAddress := c.Regs.Get(15) - pcBias
	savedCPSR := c.CPSR

	c.Regs.SwitchMode(c.CPSR.Mode, mode)
	c.CPSR.Mode = mode
	c.Regs.SetSPSR(mode, savedCPSR)
	c.Regs.Set(14, returnAddress)

	c.CPSR.IRQDisable = true
	if mode == ModeFIQ {
		c.CPSR.FIQDisable = true
	}
	c.CPSR.Thumb = false

	c.Regs.Set(15, c.VectorBase+vectorOffset)
	c.havePipeline = false
}

// ExceptionReturn restores CPSR from the current mode's SPSR and
// resumes at the address left in LR, the effect of MOVS pc, lr /
// SUBS pc, lr, #n executed on exception exit.
func (c *Core) ExceptionReturn(returnAddress uint32) {
	restored := c.Regs.SPSR(c.CPSR.Mode)
	fromMode := c.CPSR.Mode

	c.CPSR = restored
	c.Regs.SwitchMode(fromMode, c.CPSR.Mode)
	c.Regs.Set(15, returnAddress)
	c.havePipeline = false
}
