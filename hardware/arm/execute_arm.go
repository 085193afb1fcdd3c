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

import "math/bits"

// executeARM runs one 32-bit ARM-state instruction, already past its
// condition-code gate. It covers branch, branch-and-exchange, data
// processing, single data transfer and block data transfer — the
// encodings named in the scope note on Core — dispatched the way the
// teacher's arm7tdmi.ARM.Run groups opcodes into executeXxx handlers
// (hardware/memory/cartridge/arm7tdmi/arm7.go), just switched on the
// ARM-state bit-27..25 group instead of a cached Thumb function map.
// Anything outside that subset traps as an undefined instruction.
func (c *Core) executeARM(opcode uint32) bool {
	switch {
	case opcode&0x0FFFFFF0 == 0x012FFF10: // BX Rn
		return c.armBranchExchange(opcode)
	case opcode&0x0E000000 == 0x0A000000: // B, BL
		return c.armBranch(opcode)
	case opcode&0x0F000000 == 0x0F000000: // SWI
		c.enterException(ModeSupervisor, 0x08, 4)
		return true
	case opcode&0x0C000000 == 0x00000000: // data processing
		return c.armDataProcessing(opcode)
	case opcode&0x0C000000 == 0x04000000: // single data transfer
		return c.armSingleDataTransfer(opcode)
	case opcode&0x0E000000 == 0x08000000: // block data transfer
		return c.armBlockDataTransfer(opcode)
	default:
		c.enterException(ModeUndefined, 0x04, 4)
		return true
	}
}

func (c *Core) armBranchExchange(opcode uint32) bool {
	target := c.Regs.Get(int(opcode & 0xF))
	c.CPSR.Thumb = target&1 != 0
	c.Regs.Set(15, target&^uint32(1))
	return true
}

func (c *Core) armBranch(opcode uint32) bool {
	link := opcode&(1<<24) != 0
	offset := int32(opcode&0x00FFFFFF) << 8 >> 6 // sign-extend 24-bit word offset to bytes
	if link {
		c.Regs.Set(14, c.Regs.Get(15)-4)
	}
	c.Regs.Set(15, uint32(int32(c.Regs.Get(15))+offset))
	return true
}

// armOperand2 evaluates the shifter operand of a data-processing
// instruction, returning its value and the carry out it produces (used
// only when the instruction's S bit requests flag updates).
func (c *Core) armOperand2(opcode uint32) (uint32, bool) {
	if opcode&(1<<25) != 0 {
		imm := opcode & 0xFF
		rotate := (opcode >> 8) & 0xF * 2
		value := bits.RotateLeft32(imm, -int(rotate))
		carry := c.CPSR.Carry
		if rotate != 0 {
			carry = value&(1<<31) != 0
		}
		return value, carry
	}

	rm := c.Regs.Get(int(opcode & 0xF))
	shiftType := (opcode >> 5) & 0x3
	var amount uint32
	if opcode&(1<<4) != 0 {
		amount = c.Regs.Get(int((opcode>>8)&0xF)) & 0xFF
	} else {
		amount = (opcode >> 7) & 0x1F
	}

	return shiftWithCarry(shiftType, rm, amount, c.CPSR.Carry)
}

func shiftWithCarry(shiftType, value, amount uint32, carryIn bool) (uint32, bool) {
	if amount == 0 {
		switch shiftType {
		case 0: // LSL #0
			return value, carryIn
		case 1: // LSR #0 means LSR #32
			amount = 32
		case 2: // ASR #0 means ASR #32
			amount = 32
		case 3: // ROR #0 means RRX
			carry := value&1 != 0
			result := value >> 1
			if carryIn {
				result |= 1 << 31
			}
			return result, carry
		}
	}

	switch shiftType {
	case 0: // LSL
		if amount >= 32 {
			if amount == 32 {
				return 0, value&1 != 0
			}
			return 0, false
		}
		return value << amount, value&(1<<(32-amount)) != 0
	case 1: // LSR
		if amount >= 32 {
			return 0, amount == 32 && value&(1<<31) != 0
		}
		return value >> amount, value&(1<<(amount-1)) != 0
	case 2: // ASR
		if amount >= 32 {
			if int32(value) < 0 {
				return 0xFFFFFFFF, true
			}
			return 0, false
		}
		return uint32(int32(value) >> amount), value&(1<<(amount-1)) != 0
	default: // ROR
		amount &= 31
		if amount == 0 {
			return value, value&(1<<31) != 0
		}
		return bits.RotateLeft32(value, -int(amount)), value&(1<<(amount-1)) != 0
	}
}

func (c *Core) setNZ(result uint32) {
	c.CPSR.Zero = result == 0
	c.CPSR.Negative = result&(1<<31) != 0
}

func (c *Core) armDataProcessing(opcode uint32) bool {
	rn := int((opcode >> 16) & 0xF)
	rd := int((opcode >> 12) & 0xF)
	setFlags := opcode&(1<<20) != 0
	op := (opcode >> 21) & 0xF
	op2, shiftCarry := c.armOperand2(opcode)
	lhs := c.Regs.Get(rn)

	var result uint32
	writesResult := true

	switch op {
	case 0x0: // AND
		result = lhs & op2
	case 0x1: // EOR
		result = lhs ^ op2
	case 0x2: // SUB
		result = lhs - op2
	case 0x3: // RSB
		result = op2 - lhs
	case 0x4: // ADD
		result = lhs + op2
	case 0x8: // TST
		result = lhs & op2
		writesResult = false
	case 0x9: // TEQ
		result = lhs ^ op2
		writesResult = false
	case 0xA: // CMP
		result = lhs - op2
		writesResult = false
	case 0xB: // CMN
		result = lhs + op2
		writesResult = false
	case 0xC: // ORR
		result = lhs | op2
	case 0xD: // MOV
		result = op2
	case 0xE: // BIC
		result = lhs &^ op2
	case 0xF: // MVN
		result = ^op2
	default:
		c.enterException(ModeUndefined, 0x04, 4)
		return true
	}

	if writesResult {
		c.Regs.Set(rd, result)
	}

	if setFlags {
		if rd == 15 && writesResult {
			c.ExceptionReturn(result)
			return true
		}
		c.setNZ(result)
		switch op {
		case 0x2, 0xA: // SUB, CMP
			c.CPSR.Carry = lhs >= op2
			c.CPSR.Overflow = overflowSub(lhs, op2, result)
		case 0x3: // RSB
			c.CPSR.Carry = op2 >= lhs
			c.CPSR.Overflow = overflowSub(op2, lhs, result)
		case 0x4, 0xB: // ADD, CMN
			c.CPSR.Carry = result < lhs
			c.CPSR.Overflow = overflowAdd(lhs, op2, result)
		default:
			c.CPSR.Carry = shiftCarry
		}
	}

	return rd == 15 && writesResult
}

func overflowAdd(a, b, result uint32) bool {
	return (a^result)&(b^result)&(1<<31) != 0
}

func overflowSub(a, b, result uint32) bool {
	return (a^b)&(a^result)&(1<<31) != 0
}

func (c *Core) armSingleDataTransfer(opcode uint32) bool {
	rn := int((opcode >> 16) & 0xF)
	rd := int((opcode >> 12) & 0xF)
	preIndex := opcode&(1<<24) != 0
	up := opcode&(1<<23) != 0
	byteTransfer := opcode&(1<<22) != 0
	writeBack := opcode&(1<<21) != 0
	load := opcode&(1<<20) != 0

	var offset uint32
	if opcode&(1<<25) != 0 {
		offset, _ = shiftWithCarry((opcode>>5)&0x3, c.Regs.Get(int(opcode&0xF)), (opcode>>7)&0x1F, c.CPSR.Carry)
	} else {
		offset = opcode & 0xFFF
	}

	base := c.Regs.Get(rn)
	addr := base
	if preIndex {
		if up {
			addr = base + offset
		} else {
			addr = base - offset
		}
	}

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

	if !preIndex {
		if up {
			addr = base + offset
		} else {
			addr = base - offset
		}
		c.Regs.Set(rn, addr)
	} else if writeBack {
		c.Regs.Set(rn, addr)
	}

	return load && rd == 15
}

func (c *Core) armBlockDataTransfer(opcode uint32) bool {
	rn := int((opcode >> 16) & 0xF)
	load := opcode&(1<<20) != 0
	writeBack := opcode&(1<<21) != 0
	up := opcode&(1<<23) != 0
	preIndex := opcode&(1<<24) != 0
	registerList := opcode & 0xFFFF

	addr := c.Regs.Get(rn)
	step := uint32(4)
	if !up {
		step = -step
	}

	branched := false
	for r := 0; r < 16; r++ {
		bit := r
		if !up {
			bit = 15 - r
		}
		if registerList&(1<<bit) == 0 {
			continue
		}

		if preIndex {
			addr += step
		}

		if load {
			c.Regs.Set(bit, c.mem.ReadWord(addr))
			if bit == 15 {
				branched = true
			}
		} else {
			c.mem.WriteWord(addr, c.Regs.Get(bit))
		}

		if !preIndex {
			addr += step
		}
	}

	if writeBack {
		c.Regs.Set(rn, addr)
	}

	return branched
}
