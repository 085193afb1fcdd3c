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

// executeThumb runs one 16-bit Thumb-state instruction. Mirrors the
// teacher's Thumb format grouping (hardware/memory/cartridge/arm7tdmi/
// arm7.go's executeMoveShiftedRegister/executeMovCmpAddSubImm/
// executeHiRegisterOps/... family) over the representative subset named
// in Core's scope note: shifts, immediate move/compare/add/subtract,
// ALU operations, hi-register moves and branch-exchange, word/byte
// load-store with immediate offset, and the three branch formats.
func (c *Core) executeThumb(opcode uint16) bool {
	switch {
	case opcode&0xF800 == 0x1800: // add/subtract (format 2)
		return c.thumbAddSubtract(opcode)
	case opcode&0xE000 == 0x0000: // move shifted register (format 1)
		return c.thumbMoveShifted(opcode)
	case opcode&0xE000 == 0x2000: // move/compare/add/subtract immediate (format 3)
		return c.thumbImmediate(opcode)
	case opcode&0xFC00 == 0x4000: // ALU operations (format 4)
		return c.thumbALU(opcode)
	case opcode&0xFC00 == 0x4400: // hi register operations / BX (format 5)
		return c.thumbHiRegister(opcode)
	case opcode&0xE000 == 0x6000: // load/store imm offset (format 9)
		return c.thumbLoadStoreImmOffset(opcode)
	case opcode&0xFF00 == 0xDF00: // SWI
		c.enterException(ModeSupervisor, 0x08, 2)
		return true
	case opcode&0xF000 == 0xD000: // conditional branch (format 16)
		return c.thumbConditionalBranch(opcode)
	case opcode&0xF800 == 0xE000: // unconditional branch (format 18)
		return c.thumbUnconditionalBranch(opcode)
	case opcode&0xF000 == 0xF000: // long branch with link (format 19)
		return c.thumbLongBranchLink(opcode)
	default:
		c.enterException(ModeUndefined, 0x04, 2)
		return true
	}
}

func (c *Core) thumbMoveShifted(opcode uint16) bool {
	shiftType := uint32(opcode>>11) & 0x3
	amount := uint32(opcode>>6) & 0x1F
	rs := int((opcode >> 3) & 0x7)
	rd := int(opcode & 0x7)

	result, carry := shiftWithCarry(shiftType, c.Regs.Get(rs), amount, c.CPSR.Carry)
	c.Regs.Set(rd, result)
	c.setNZ(result)
	c.CPSR.Carry = carry
	return false
}

func (c *Core) thumbAddSubtract(opcode uint16) bool {
	rs := int((opcode >> 3) & 0x7)
	rd := int(opcode & 0x7)
	immediate := opcode&(1<<10) != 0
	subtract := opcode&(1<<9) != 0
	field := uint32((opcode >> 6) & 0x7)

	var operand uint32
	if immediate {
		operand = field
	} else {
		operand = c.Regs.Get(int(field))
	}

	lhs := c.Regs.Get(rs)
	var result uint32
	if subtract {
		result = lhs - operand
		c.CPSR.Carry = lhs >= operand
		c.CPSR.Overflow = overflowSub(lhs, operand, result)
	} else {
		result = lhs + operand
		c.CPSR.Carry = result < lhs
		c.CPSR.Overflow = overflowAdd(lhs, operand, result)
	}

	c.Regs.Set(rd, result)
	c.setNZ(result)
	return false
}

func (c *Core) thumbImmediate(opcode uint16) bool {
	op := (opcode >> 11) & 0x3
	rd := int((opcode >> 8) & 0x7)
	imm := uint32(opcode & 0xFF)
	lhs := c.Regs.Get(rd)

	switch op {
	case 0: // MOV
		c.Regs.Set(rd, imm)
		c.setNZ(imm)
	case 1: // CMP
		result := lhs - imm
		c.setNZ(result)
		c.CPSR.Carry = lhs >= imm
		c.CPSR.Overflow = overflowSub(lhs, imm, result)
	case 2: // ADD
		result := lhs + imm
		c.Regs.Set(rd, result)
		c.setNZ(result)
		c.CPSR.Carry = result < lhs
		c.CPSR.Overflow = overflowAdd(lhs, imm, result)
	case 3: // SUB
		result := lhs - imm
		c.Regs.Set(rd, result)
		c.setNZ(result)
		c.CPSR.Carry = lhs >= imm
		c.CPSR.Overflow = overflowSub(lhs, imm, result)
	}
	return false
}

func (c *Core) thumbALU(opcode uint16) bool {
	op := (opcode >> 6) & 0xF
	rs := int((opcode >> 3) & 0x7)
	rd := int(opcode & 0x7)
	lhs := c.Regs.Get(rd)
	rhs := c.Regs.Get(rs)

	var result uint32
	write := true

	switch op {
	case 0x0: // AND
		result = lhs & rhs
	case 0x1: // EOR
		result = lhs ^ rhs
	case 0x2: // LSL
		result, c.CPSR.Carry = shiftWithCarry(0, lhs, rhs&0xFF, c.CPSR.Carry)
	case 0x3: // LSR
		result, c.CPSR.Carry = shiftWithCarry(1, lhs, rhs&0xFF, c.CPSR.Carry)
	case 0x4: // ASR
		result, c.CPSR.Carry = shiftWithCarry(2, lhs, rhs&0xFF, c.CPSR.Carry)
	case 0x7: // ROR
		result, c.CPSR.Carry = shiftWithCarry(3, lhs, rhs&0xFF, c.CPSR.Carry)
	case 0x8: // TST
		result = lhs & rhs
		write = false
	case 0x9: // NEG
		result = 0 - rhs
		c.CPSR.Carry = 0 >= rhs
		c.CPSR.Overflow = overflowSub(0, rhs, result)
	case 0xA: // CMP
		result = lhs - rhs
		c.CPSR.Carry = lhs >= rhs
		c.CPSR.Overflow = overflowSub(lhs, rhs, result)
		write = false
	case 0xB: // CMN
		result = lhs + rhs
		c.CPSR.Carry = result < lhs
		c.CPSR.Overflow = overflowAdd(lhs, rhs, result)
		write = false
	case 0xC: // ORR
		result = lhs | rhs
	case 0xD: // MUL
		result = lhs * rhs
	case 0xE: // BIC
		result = lhs &^ rhs
	case 0xF: // MVN
		result = ^rhs
	default:
		c.enterException(ModeUndefined, 0x04, 2)
		return true
	}

	if write {
		c.Regs.Set(rd, result)
	}
	c.setNZ(result)
	return false
}

func (c *Core) thumbHiRegister(opcode uint16) bool {
	op := (opcode >> 8) & 0x3
	rdHi := opcode&(1<<7) != 0
	rsHi := opcode&(1<<6) != 0
	rd := int(opcode&0x7) | boolToInt(rdHi)<<3
	rs := int((opcode>>3)&0x7) | boolToInt(rsHi)<<3

	switch op {
	case 0: // ADD
		c.Regs.Set(rd, c.Regs.Get(rd)+c.Regs.Get(rs))
	case 1: // CMP
		result := c.Regs.Get(rd) - c.Regs.Get(rs)
		c.setNZ(result)
		c.CPSR.Carry = c.Regs.Get(rd) >= c.Regs.Get(rs)
		c.CPSR.Overflow = overflowSub(c.Regs.Get(rd), c.Regs.Get(rs), result)
		return false
	case 2: // MOV
		c.Regs.Set(rd, c.Regs.Get(rs))
	case 3: // BX
		target := c.Regs.Get(rs)
		c.CPSR.Thumb = target&1 != 0
		c.Regs.Set(15, target&^uint32(1))
		return true
	}

	return rd == 15
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (c *Core) thumbLoadStoreImmOffset(opcode uint16) bool {
	byteTransfer := opcode&(1<<12) != 0
	load := opcode&(1<<11) != 0
	offset := uint32((opcode >> 6) & 0x1F)
	rb := int((opcode >> 3) & 0x7)
	rd := int(opcode & 0x7)

	if !byteTransfer {
		offset <<= 2
	}

	addr := c.Regs.Get(rb) + offset
	if load {
		if byteTransfer {
			c.Regs.Set(rd, uint32(c.mem.ReadByte(addr)))
		} else {
			c.Regs.Set(rd, c.mem.ReadWord(addr))
		}
	} else {
		if byteTransfer {
			c.mem.WriteByte(addr, uint8(c.Regs.Get(rd)))
		} else {
			c.mem.WriteWord(addr, c.Regs.Get(rd))
		}
	}
	return false
}

func (c *Core) thumbConditionalBranch(opcode uint16) bool {
	cond := uint8((opcode >> 8) & 0xF)
	if !c.CPSR.EvaluateCondition(cond) {
		return false
	}
	offset := int32(int8(opcode&0xFF)) * 2
	c.Regs.Set(15, uint32(int32(c.Regs.Get(15))+offset))
	return true
}

func (c *Core) thumbUnconditionalBranch(opcode uint16) bool {
	offset := (int32(opcode&0x7FF) << 21) >> 20 // sign-extend 11-bit word offset to bytes
	c.Regs.Set(15, uint32(int32(c.Regs.Get(15))+offset))
	return true
}

func (c *Core) thumbLongBranchLink(opcode uint16) bool {
	high := opcode&(1<<11) == 0
	offset := uint32(opcode & 0x7FF)

	if high {
		signExtended := (int32(offset) << 21) >> 9 // bits[10:0] into a 23-bit signed offset, shifted left 12
		lr := uint32(int32(c.Regs.Get(15)) + signExtended)
		c.Regs.Set(14, lr)
		return false
	}

	next := c.Regs.Get(15) - 2
	target := c.Regs.Get(14) + offset<<1
	c.Regs.Set(15, target)
	c.Regs.Set(14, next|1)
	return true
}
