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

package cartridge

// DataMode is the cartridge command-protocol state the original's
// Cartridge tracks across its SecureAreaLoad/MainDataLoad command
// sequence. The AUXSPICNT/ROMCTRL/CARDCMD register protocol and the
// KEY1/KEY2 encryption state machine that drive transitions between
// these states in the original are an external collaborator out of
// scope for this core (§2 SYSTEM OVERVIEW) — Controller here only
// tracks the one transition DirectBoot itself is responsible for.
type DataMode int

const (
	DataModeUnencrypted DataMode = iota
	DataModeSecureAreaLoad
	DataModeMainDataLoad
)

// Controller is the minimal slice of the cartridge command-protocol
// state this core's DirectBoot contract touches.
type Controller struct {
	DataMode DataMode
}

// Reset returns the controller to its power-on data mode.
func (c *Controller) Reset() {
	c.DataMode = DataModeUnencrypted
}

// DirectBoot marks the controller as if the BIOS's secure-area boot
// sequence had already run and handed off to the loaded binaries,
// mirroring the original's Cartridge::DirectBoot (m_data_mode =
// DataMode::MainDataLoad).
func (c *Controller) DirectBoot() {
	c.DataMode = DataModeMainDataLoad
}
