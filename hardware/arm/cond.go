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

// EvaluateCondition decides whether an instruction carrying the 4-bit
// condition field cond executes against the current NZCV flags.
func (cpsr *CPSR) EvaluateCondition(cond uint8) bool {
	switch cond {
	case 0b0000: // EQ
		return cpsr.Zero
	case 0b0001: // NE
		return !cpsr.Zero
	case 0b0010: // CS/HS
		return cpsr.Carry
	case 0b0011: // CC/LO
		return !cpsr.Carry
	case 0b0100: // MI
		return cpsr.Negative
	case 0b0101: // PL
		return !cpsr.Negative
	case 0b0110: // VS
		return cpsr.Overflow
	case 0b0111: // VC
		return !cpsr.Overflow
	case 0b1000: // HI
		return cpsr.Carry && !cpsr.Zero
	case 0b1001: // LS
		return !cpsr.Carry || cpsr.Zero
	case 0b1010: // GE
		return cpsr.Negative == cpsr.Overflow
	case 0b1011: // LT
		return cpsr.Negative != cpsr.Overflow
	case 0b1100: // GT
		return !cpsr.Zero && cpsr.Negative == cpsr.Overflow
	case 0b1101: // LE
		return cpsr.Zero || cpsr.Negative != cpsr.Overflow
	case 0b1110: // AL
		return true
	default: // 0b1111, reserved on ARMv4T
		return false
	}
}
