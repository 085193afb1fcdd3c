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

// Package clocks defines the constant values that define the speed of
// the two CPU clock domains in the console, and the shift the cycle
// counter (§3) applies to bring ARM7 cycles into the shared system
// timestamp that ARM9 already runs in natively.
//
// Values taken from the console's documented crystal frequency (ARM9
// clocked directly off it, ARM7 clocked at half rate).
package clocks

const (
	// ARM9Hz is the ARM9's clock rate in Hz.
	ARM9Hz = 67027964

	// ARM7Hz is the ARM7's clock rate in Hz, exactly half of ARM9Hz.
	ARM7Hz = ARM9Hz / 2
)

// ARM7Shift is the left-shift applied to an ARM7 cycle count to convert
// it into the shared system timestamp domain that ARM9 already uses
// natively (§3 Cycle Counter). ARM9 runs at 2x ARM7, so one ARM7 cycle
// is worth two system ticks.
const ARM7Shift = 1

// ScanlineCycles is the number of system ticks (ARM9 cycles) per
// scanline, including H-blank (§4.7): 355 dots at 6 cycles/dot.
const ScanlineCycles = 355 * 6

// ScanlinesPerFrame is the total scanline count including the
// off-screen V-blank scanlines (§4.7).
const ScanlinesPerFrame = 263

// VisibleScanlines is the number of drawn (non-V-blank) scanlines.
const VisibleScanlines = 192
