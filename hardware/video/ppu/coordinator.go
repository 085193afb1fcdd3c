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

package ppu

import "golang.org/x/sync/errgroup"

// Coordinator stops both PPUs' render workers as a unit on System
// shutdown. The two workers have no ordering dependency on each other,
// so errgroup.Group's concurrent Go/Wait pair is a closer fit than a
// hand-rolled sync.WaitGroup plus a side channel for "did either worker
// fail to stop cleanly" — Wait already collects and returns that.
type Coordinator struct {
	ppu0, ppu1 *PPU
}

// NewCoordinator builds a Coordinator over the system's two PPUs.
func NewCoordinator(ppu0, ppu1 *PPU) *Coordinator {
	return &Coordinator{ppu0: ppu0, ppu1: ppu1}
}

// Close stops both PPUs' render workers, blocking until both have exited.
func (c *Coordinator) Close() error {
	var g errgroup.Group
	g.Go(c.ppu0.Close)
	g.Go(c.ppu1.Close)
	return g.Wait()
}
