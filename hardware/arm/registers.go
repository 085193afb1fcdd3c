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

// Registers holds the 16 general-purpose registers currently visible
// (r[15] is the program counter) plus the shadow copies of r8-r14 and
// the SPSR that FIQ/IRQ/Supervisor/Abort/Undefined mode each bank
// separately. SwitchMode copies the active set out to its bank and the
// new mode's bank in, the same swap the real core performs on every
// mode change.
type Registers struct {
	r [16]uint32

	// bankedLow[bankFIQ] holds FIQ's own r8-r12, and bankedLow[bankUser]
	// holds the shared set every other mode uses while FIQ is active;
	// the remaining slots are unused.
	bankedLow [bankCount][5]uint32

	bankedHigh [bankCount][2]uint32 // r13 (SP), r14 (LR)
	spsr       [bankCount]CPSR
}

// Reset zeroes every register and banked shadow.
func (r *Registers) Reset() {
	*r = Registers{}
}

// Get reads register n (0-15) from the currently active bank.
func (r *Registers) Get(n int) uint32 { return r.r[n] }

// Set writes register n (0-15) in the currently active bank.
func (r *Registers) Set(n int, value uint32) { r.r[n] = value }

// PC returns the raw program counter register (r15); callers account
// for the prefetch pipeline's lead (§4.2) themselves.
func (r *Registers) PC() uint32 { return r.r[15] }

// SwitchMode banks out r8-r14 (FIQ) or r13-r14 (every other mode) from
// the current mode into its shadow, then banks the target mode's
// shadow into the live registers. SPSR follows the same scheme: it is
// not touched by this call, only read/written via SPSR/SetSPSR.
func (r *Registers) SwitchMode(from, to Mode) {
	if from == to {
		return
	}

	fromBank := from.bankIndex()
	toBank := to.bankIndex()

	if fromBank == bankFIQ {
		copy(r.bankedLow[bankFIQ][:], r.r[8:13])
	} else if toBank == bankFIQ {
		// leaving a non-FIQ mode for FIQ: stash the User/System r8-r12
		// so ModeUser/ModeSystem see them again when FIQ exits.
		copy(r.bankedLow[bankUser][:], r.r[8:13])
	}

	r.bankedHigh[fromBank][0] = r.r[13]
	r.bankedHigh[fromBank][1] = r.r[14]

	if toBank == bankFIQ {
		copy(r.r[8:13], r.bankedLow[bankFIQ][:])
	} else if fromBank == bankFIQ {
		copy(r.r[8:13], r.bankedLow[bankUser][:])
	}

	r.r[13] = r.bankedHigh[toBank][0]
	r.r[14] = r.bankedHigh[toBank][1]
}

// SPSR returns mode's saved program status register. User/System mode
// have no SPSR of their own; reading it there returns the zero value,
// matching the real core's "unpredictable" read treated as inert here.
func (r *Registers) SPSR(mode Mode) CPSR {
	return r.spsr[mode.bankIndex()]
}

// SetSPSR writes mode's saved program status register.
func (r *Registers) SetSPSR(mode Mode, value CPSR) {
	r.spsr[mode.bankIndex()] = value
}
