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

// Package backup models the cartridge's persisted-state contract (§6
// "Persisted state"): a backup memory image sized to one of the NDS's
// nine fixed FRAM/EEPROM/flash capacities. Loading and saving the image
// file itself is host/file-I/O and explicitly out of scope (§1
// Non-goals); this package only owns the in-memory image and the
// bounds-checked access the core's SPI-facing contract consumes from it
// (the SPI protocol state machine itself is an external collaborator
// per §2 SYSTEM OVERVIEW).
package backup

import "github.com/dualnds/dualnds/errors"

// Size is one of the nine backup capacities the console supports.
type Size int

const (
	Size512B  Size = 512
	Size8KiB  Size = 8 * 1024
	Size32KiB Size = 32 * 1024
	Size64KiB Size = 64 * 1024
	Size128KiB Size = 128 * 1024
	Size256KiB Size = 256 * 1024
	Size512KiB Size = 512 * 1024
	Size1MiB  Size = 1024 * 1024
	Size8MiB  Size = 8 * 1024 * 1024
)

// sizes lists every valid capacity in ascending order, the table
// DetectSize rounds a hint or an existing image's length up against.
var sizes = []Size{Size512B, Size8KiB, Size32KiB, Size64KiB, Size128KiB, Size256KiB, Size512KiB, Size1MiB, Size8MiB}

// Valid reports whether size is one of the nine supported capacities.
func (s Size) Valid() bool {
	for _, v := range sizes {
		if v == s {
			return true
		}
	}
	return false
}

// DetectSize picks the canonical capacity for an existing image of
// existingLength bytes, or — if existingLength is zero (no save file
// yet) — the smallest capacity at least as large as hint. Used by the
// host's loader before calling New; this package never touches a file
// itself.
func DetectSize(existingLength int, hint Size) Size {
	if existingLength > 0 {
		for _, v := range sizes {
			if int(v) >= existingLength {
				return v
			}
		}
		return sizes[len(sizes)-1]
	}
	if hint.Valid() {
		return hint
	}
	for _, v := range sizes {
		if v >= hint {
			return v
		}
	}
	return sizes[len(sizes)-1]
}

// Image is a backup memory image of one fixed Size. A freshly created
// Image (New, not NewFromData) is filled with 0xFF, matching blank
// FRAM/EEPROM/flash.
type Image struct {
	size Size
	data []byte
}

// New creates a blank Image of the given size, filled with 0xFF.
func New(size Size) *Image {
	data := make([]byte, size)
	for i := range data {
		data[i] = 0xFF
	}
	return &Image{size: size, data: data}
}

// NewFromData wraps an existing image loaded by the host (e.g. from a
// save file). len(data) must already be one of the nine valid
// capacities — the host is expected to have sized it via DetectSize.
func NewFromData(data []byte) *Image {
	return &Image{size: Size(len(data)), data: data}
}

// Size returns the image's fixed capacity.
func (img *Image) Size() Size { return img.size }

// Bytes returns the image's backing storage directly, for the host to
// persist to a file.
func (img *Image) Bytes() []byte { return img.data }

// Read returns the byte at offset, faulting InvariantViolation on an
// out-of-range access (§7 Error Handling Design) rather than silently
// wrapping or returning zero.
func (img *Image) Read(offset int) (byte, error) {
	if offset < 0 || offset >= len(img.data) {
		return 0, errors.New(errors.InvariantViolation, "backup", "read offset %d out of range for %d-byte image", offset, len(img.data))
	}
	return img.data[offset], nil
}

// Write stores value at offset, faulting InvariantViolation on an
// out-of-range access.
func (img *Image) Write(offset int, value byte) error {
	if offset < 0 || offset >= len(img.data) {
		return errors.New(errors.InvariantViolation, "backup", "write offset %d out of range for %d-byte image", offset, len(img.data))
	}
	img.data[offset] = value
	return nil
}
