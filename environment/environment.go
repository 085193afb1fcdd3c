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

// Package environment provides the shared context threaded through the
// core's constructors, so components don't reach for global state and
// don't need to import each other just to ask "should I log" or "what
// is my configuration".
package environment

import (
	"github.com/dualnds/dualnds/config"
	"github.com/go-audio/audio"
)

// Label distinguishes between different instances of the core running
// side by side (e.g. a primary emulation versus a headless comparison
// instance used by a test).
type Label string

// MainEmulation is the label used for the primary, user-facing emulation.
const MainEmulation = Label("main")

// Presenter receives each completed frame once both screens' render
// workers have caught up, at the vcount==192 transition (§4.6, §6
// "Per-scanline presentation callback"). The host implements this; both
// slices are 256*192 packed ARGB8888 pixels, owned by the caller only
// for the duration of the call — Present must copy anything it needs to
// keep.
type Presenter interface {
	Present(top, bottom []uint32)
}

// AudioDriver is the host's audio output, queued into by whatever
// produces samples on the core's behalf (§6 "Audio driver capability").
// The core itself never generates or times audio — APU mixing is an
// external collaborator (§1 Non-goals) — so this is a pass-through
// contract: Queue accepts interleaved samples already mixed to the
// driver's configured rate, typed against go-audio's IntBuffer so a
// caller can hand over samples without the core depending on any one
// driver's own buffer type.
type AudioDriver interface {
	Open(rate int, bufferSize int) error
	Close() error
	Queue(samples *audio.IntBuffer) error
	QueuedCount() int
	BufferSize() int
}

// Environment carries per-instance context: a label, the presenter the
// render worker reports to, the audio driver samples are queued into,
// and the instance's configuration.
type Environment struct {
	// Label distinguishes this instance from others (e.g. a thumbnailer
	// or regression-test instance running alongside the main emulation).
	Label Label

	// Presenter receives completed frames. May be nil, in which case
	// completed frames are simply discarded (useful for throughput
	// testing).
	Presenter Presenter

	// Audio receives queued sample buffers. May be nil, in which case
	// anything queued is simply discarded.
	Audio AudioDriver

	// Config is this instance's runtime configuration.
	Config *config.Config
}

// NewEnvironment is the preferred method of initialisation for the
// Environment type. cfg may be nil, in which case config.Default() is
// used.
func NewEnvironment(label Label, presenter Presenter, cfg *config.Config) *Environment {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Environment{
		Label:     label,
		Presenter: presenter,
		Config:    cfg,
	}
}

// IsEmulation checks the environment's label and returns true if it
// matches.
func (env *Environment) IsEmulation(label Label) bool {
	return env.Label == label
}

// AllowLogging implements logger.Permission: only the main emulation
// logs by default, so a headless regression-test instance doesn't spam
// the shared ring buffer with another instance's entries.
func (env *Environment) AllowLogging() bool {
	if env == nil {
		return true
	}
	return env.IsEmulation(MainEmulation)
}
