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

// Package arm implements the ARM7TDMI/ARM946E-S register and
// exception-entry contract shared by both NDS CPUs (§4.2): 16 general
// registers with mode-banked shadows, a CPSR/SPSR pair, the 4-bit
// condition truth table, and the fixed exception vector table.
package arm

// Mode is the 5-bit M[4:0] field of CPSR/SPSR.
type Mode uint32

const (
	ModeUser       Mode = 0x10
	ModeFIQ        Mode = 0x11
	ModeIRQ        Mode = 0x12
	ModeSupervisor Mode = 0x13
	ModeAbort      Mode = 0x17
	ModeUndefined  Mode = 0x1B
	ModeSystem     Mode = 0x1F
)

// Privileged reports whether this mode runs with full register and
// CPSR-write access (every mode except User).
func (m Mode) Privileged() bool { return m != ModeUser }

// bankIndex selects which banked register set backs r8-r14 (and the
// SPSR) for this mode. User and System share the same unbanked set.
func (m Mode) bankIndex() int {
	switch m {
	case ModeFIQ:
		return bankFIQ
	case ModeIRQ:
		return bankIRQ
	case ModeSupervisor:
		return bankSupervisor
	case ModeAbort:
		return bankAbort
	case ModeUndefined:
		return bankUndefined
	default:
		return bankUser
	}
}

const (
	bankUser = iota
	bankFIQ
	bankIRQ
	bankSupervisor
	bankAbort
	bankUndefined
	bankCount
)
