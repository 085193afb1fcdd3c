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

import "strings"

// CPSR is the 32-bit current program status register (and, banked per
// privileged mode, the SPSR a mode's IRQ/exception entry copies it
// into). Unlike the teacher's Cortex-M Status — which tracks only NZCV
// because its single cartridge-coprocessor execution mode never
// changes privilege level — the NDS's ARM7TDMI/ARM946E-S cores switch
// mode on every exception, so CPSR additionally carries M[4:0]/T/F/I.
type CPSR struct {
	Negative bool
	Zero     bool
	Carry    bool
	Overflow bool

	IRQDisable bool
	FIQDisable bool
	Thumb      bool

	Mode Mode
}

// Reset puts CPSR in Supervisor mode with IRQ/FIQ disabled and ARM
// (non-Thumb) state, matching the ARM exception model's reset entry.
func (cpsr *CPSR) Reset() {
	*cpsr = CPSR{Mode: ModeSupervisor, IRQDisable: true, FIQDisable: true}
}

// Read packs CPSR into its 32-bit hardware representation.
func (cpsr *CPSR) Read() uint32 {
	var v uint32

	if cpsr.Negative {
		v |= 1 << 31
	}
	if cpsr.Zero {
		v |= 1 << 30
	}
	if cpsr.Carry {
		v |= 1 << 29
	}
	if cpsr.Overflow {
		v |= 1 << 28
	}
	if cpsr.IRQDisable {
		v |= 1 << 7
	}
	if cpsr.FIQDisable {
		v |= 1 << 6
	}
	if cpsr.Thumb {
		v |= 1 << 5
	}

	return v | uint32(cpsr.Mode)
}

// Write unpacks value into CPSR. Writes from User mode (privileged
// false) may only change the NZCV flags, matching real hardware's
// refusal to let unprivileged code change mode or mask bits.
func (cpsr *CPSR) Write(value uint32, privileged bool) {
	cpsr.Negative = value&(1<<31) != 0
	cpsr.Zero = value&(1<<30) != 0
	cpsr.Carry = value&(1<<29) != 0
	cpsr.Overflow = value&(1<<28) != 0

	if !privileged {
		return
	}

	cpsr.IRQDisable = value&(1<<7) != 0
	cpsr.FIQDisable = value&(1<<6) != 0
	cpsr.Thumb = value&(1<<5) != 0
	cpsr.Mode = Mode(value & 0x1F)
}

func (cpsr *CPSR) String() string {
	s := strings.Builder{}

	flag := func(set bool, r rune) {
		if set {
			s.WriteRune(r)
		} else {
			s.WriteRune(r + ('a' - 'A'))
		}
	}

	flag(cpsr.Negative, 'N')
	flag(cpsr.Zero, 'Z')
	flag(cpsr.Carry, 'C')
	flag(cpsr.Overflow, 'V')
	flag(cpsr.IRQDisable, 'I')
	flag(cpsr.FIQDisable, 'F')
	flag(cpsr.Thumb, 'T')

	return s.String()
}
