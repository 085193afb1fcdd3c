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

// Package cycle converts a CPU's own device-clock-domain cycle count
// into the single shared system timestamp the scheduler runs on (§3).
// This core's shared system timestamp is ARM9-native (clocks.ARM7Shift):
// ARM9 itself needs no conversion (shift 0); ARM7 runs at half ARM9's
// rate, so its device cycles are worth *more* system ticks, not fewer —
// the opposite relationship a same-or-faster "device" clock would need.
package cycle

// Counter tracks a device's own cycle count alongside the shared
// system timestamp it maps to. A positive shift describes a device
// running faster than the shared rate (its cycles are scaled down); a
// negative shift describes one running slower (its cycles are scaled
// up) — ARM7 against this core's ARM9-native system timestamp is the
// latter case, constructed with -clocks.ARM7Shift.
type Counter struct {
	deviceClockRateShift int
	timestampDev         uint64
	timestampSys         uint64
}

// NewCounter creates a Counter for a device whose own clock runs at
// 2^shift times the shared system rate (shift may be negative).
func NewCounter(shift int) *Counter {
	return &Counter{deviceClockRateShift: shift}
}

// Reset zeroes both the device and system timestamps.
func (c *Counter) Reset() {
	c.timestampDev = 0
	c.timestampSys = 0
}

// Now returns the shared system timestamp this counter has reached.
func (c *Counter) Now() uint64 {
	return c.timestampSys
}

// AddDeviceCycles advances the counter by cycles in the device's own
// clock domain, updating the shared system timestamp accordingly.
func (c *Counter) AddDeviceCycles(cycles uint) {
	c.timestampDev += uint64(cycles)
	if c.deviceClockRateShift >= 0 {
		c.timestampSys = c.timestampDev >> c.deviceClockRateShift
	} else {
		c.timestampSys = c.timestampDev << -c.deviceClockRateShift
	}
}
