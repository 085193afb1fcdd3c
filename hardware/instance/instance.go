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

// Package instance defines those parts of the emulation that might
// change from instance to instance of the System type, but are not the
// System itself. Particularly useful when running more than one
// instance of the emulation in parallel (e.g. a regression-test
// instance alongside the main one).
package instance

import "github.com/dualnds/dualnds/config"

// Instance holds the per-run configuration distinct from the System's
// own state. Unlike the teacher's equivalent there is no per-instance
// randomisation source: ARM reset (§4.2) is specified to zero every
// register deterministically, so there is nothing here that varies
// except configuration.
type Instance struct {
	Config *config.Config
}

// NewInstance is the preferred method of initialisation for the
// Instance type.
func NewInstance(cfg *config.Config) *Instance {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Instance{Config: cfg}
}

// Normalise ensures the instance is in a known default state. Useful
// for regression testing where the initial state must be the same for
// every run of the test.
func (ins *Instance) Normalise() {
	*ins.Config = *config.Default()
}
