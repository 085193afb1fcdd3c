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

// Package errors defines the core's error taxonomy. Only Kind
// InvariantViolation is meant to unwind a call stack; every other kind is
// local and register-observable, and is usually logged rather than
// returned at all. See the error handling design for the full
// propagation rule.
package errors

import "fmt"

// Kind is a closed set of the ways a core component can fail.
type Kind int

const (
	// ConfigurationFault is a VRAMCNT combination or CP15 write the core
	// refuses to emulate. Reported and the write is otherwise a no-op.
	ConfigurationFault Kind = iota

	// UnmappedIO is an IO read/write to an address not in any device's
	// jurisdiction. Reads return 0, writes are discarded.
	UnmappedIO

	// InvariantViolation is a scheduler heap overflow, an out-of-range
	// backup access, or ROM access out of bounds with wrap disabled.
	// Fatal: the host is expected to stop stepping the core.
	InvariantViolation

	// BackupSurface is a FRAM/EEPROM protect-mode block. Not a fault in
	// the normal sense — the SPI transfer that hit it returns 0xFF.
	BackupSurface

	// FifoError is an IPC FIFO under/overflow. Reported via the
	// FIFOCNT.error_flag register bit, never returned as an error to a
	// caller that isn't directly inspecting that register.
	FifoError
)

func (k Kind) String() string {
	switch k {
	case ConfigurationFault:
		return "configuration fault"
	case UnmappedIO:
		return "unmapped IO"
	case InvariantViolation:
		return "invariant violation"
	case BackupSurface:
		return "backup surface"
	case FifoError:
		return "fifo error"
	default:
		return "unknown error kind"
	}
}

// Fault is the error type used throughout the core. Component names the
// owning device (e.g. "vram", "ipc", "scheduler") and Detail is a
// human-readable description.
type Fault struct {
	kind      Kind
	Component string
	Detail    string
}

// New creates a Fault of the given kind.
func New(kind Kind, component, format string, args ...interface{}) *Fault {
	return &Fault{
		kind:      kind,
		Component: component,
		Detail:    fmt.Sprintf(format, args...),
	}
}

// Kind returns the fault's kind.
func (f *Fault) Kind() Kind {
	return f.kind
}

// Error implements the error interface.
func (f *Fault) Error() string {
	return fmt.Sprintf("%s: %s: %s", f.Component, f.kind, f.Detail)
}

// Is supports errors.Is(err, target) matching by Kind: two *Fault values
// are considered equal for errors.Is purposes if their Kind matches,
// regardless of Component/Detail.
func (f *Fault) Is(target error) bool {
	other, ok := target.(*Fault)
	if !ok {
		return false
	}
	return f.kind == other.kind
}

// Sentinel faults usable as errors.Is targets, one per Kind, with no
// component/detail of their own.
var (
	ErrConfigurationFault = &Fault{kind: ConfigurationFault}
	ErrUnmappedIO         = &Fault{kind: UnmappedIO}
	ErrInvariantViolation = &Fault{kind: InvariantViolation}
	ErrBackupSurface      = &Fault{kind: BackupSurface}
	ErrFifoError          = &Fault{kind: FifoError}
)
