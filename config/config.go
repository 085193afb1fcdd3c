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

// Package config holds the runtime choices the core itself makes,
// distinct from host/front-end preferences. The core never picks a
// file path; the host loads/saves through Load/Save at whatever path
// it wants.
package config

import (
	"encoding/json"
	"os"
)

// Config is the full set of runtime-tunable core behaviours.
type Config struct {
	// TrapUnalignedAccess records whether an unaligned half/word bus
	// access should fault instead of masking the low address bits
	// (§4.4). It is loaded and saved only: no bus reads it, and the
	// buses always mask.
	TrapUnalignedAccess bool `json:"trap_unaligned_access"`

	// DirectBoot records whether the host boots through the cartridge
	// header (§6 DirectBoot). It is loaded and saved only: no component
	// reads it, and System.DirectBoot runs whenever the host calls it.
	DirectBoot bool `json:"direct_boot"`

	// RenderWorkerLagScanlines is a scanline-lag ceiling for the render
	// worker. It is loaded and saved only: no component reads it, and
	// nothing logs or acts on how far the worker falls behind.
	RenderWorkerLagScanlines int `json:"render_worker_lag_scanlines"`
}

// Default returns the configuration the core uses when the host does
// not supply one.
func Default() *Config {
	return &Config{
		TrapUnalignedAccess:      false,
		DirectBoot:               false,
		RenderWorkerLagScanlines: 8,
	}
}

// Load reads a Config from path, filling in Default() for any field
// missing from the file (a partial JSON document is legal).
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := json.Unmarshal(b, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to path as indented JSON.
func Save(path string, cfg *Config) error {
	b, err := json.MarshalIndent(cfg, "", "\t")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}
