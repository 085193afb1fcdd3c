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

// Package scheduler implements the discrete-event scheduler that drives
// the whole system (§4.1): a fixed 64-slot min-heap of pending events
// ordered by timestamp, with a single shared "now" that both CPUs
// advance as they execute instructions.
//
// Every peripheral that needs to fire later (a timer overflow, a DMA
// transfer completion, the next scanline boundary) schedules an Event
// rather than polling. Event handles stay valid across heap reordering:
// an Event always knows its own current slot, even after a Swap moves
// it.
package scheduler

import (
	"math"

	"github.com/dualnds/dualnds/errors"
)

// EventLimit is the maximum number of events the scheduler can hold at
// once. This is a fixed array, not a growable slice, matching the
// original implementation's pool-of-64 design: 64 is comfortably more
// than the IRQ/timer/DMA/video event set this system ever schedules at
// once, and a fixed pool means Schedule never allocates.
const EventLimit = 64

// Callback is invoked when an event's timestamp is reached or passed.
// cyclesLate is how many cycles past the event's own timestamp the
// scheduler's "now" had already advanced to when it ran (0 if exact).
type Callback func(cyclesLate int)

// Event is a single scheduled callback. The zero value is not usable;
// Events are only obtained from Scheduler.Schedule.
type Event struct {
	callback  Callback
	handle    int
	timestamp uint64
}

// Scheduler is a min-heap of Events ordered by timestamp, plus the
// shared system timestamp itself. Not safe for concurrent use: it is
// only ever driven from the emulation thread (§5).
type Scheduler struct {
	now      uint64
	heapSize int
	heap     [EventLimit]*Event
	pool     [EventLimit]Event
}

// New creates a Scheduler with its event pool wired up and ready to use.
func New() *Scheduler {
	s := &Scheduler{}
	for i := range s.pool {
		s.heap[i] = &s.pool[i]
		s.heap[i].handle = i
	}
	return s
}

// Now returns the current system timestamp.
func (s *Scheduler) Now() uint64 {
	return s.now
}

// Target returns the timestamp of the earliest pending event, or
// math.MaxUint64 if nothing is scheduled.
func (s *Scheduler) Target() uint64 {
	if s.heapSize == 0 {
		return math.MaxUint64
	}
	return s.heap[0].timestamp
}

// RemainingCycles returns how many cycles remain until the earliest
// pending event. Never negative as seen from a caller that always
// calls Step before it would go negative.
func (s *Scheduler) RemainingCycles() int {
	return int(s.Target() - s.Now())
}

// AddCycles advances the system timestamp. Callers feed it cycles
// consumed by CPU instruction execution; it does not itself run any
// due events (call Step for that).
func (s *Scheduler) AddCycles(cycles int) {
	s.now += uint64(cycles)
}

// Reset empties the event heap and returns the timestamp to zero.
func (s *Scheduler) Reset() {
	s.heapSize = 0
	s.now = 0
}

// Step runs every event whose timestamp is at or before now, in
// timestamp order, removing each from the heap before invoking its
// callback (a callback is free to reschedule itself or anything else).
func (s *Scheduler) Step() {
	now := s.Now()

	for s.heapSize > 0 && s.heap[0].timestamp <= now {
		event := s.heap[0]
		cyclesLate := int(now - event.timestamp)

		s.remove(event.handle)
		event.callback(cyclesLate)
	}
}

// Schedule adds a new event to fire delay cycles from now, returning a
// handle usable with Cancel. It fails with an InvariantViolation fault
// if the scheduler's fixed capacity is already exhausted.
func (s *Scheduler) Schedule(delay uint64, callback Callback) (*Event, error) {
	if s.heapSize >= EventLimit {
		return nil, errors.New(errors.InvariantViolation, "scheduler", "exceeded maximum of %d scheduler events", EventLimit)
	}

	n := s.heapSize
	s.heapSize++
	p := parent(n)

	event := s.heap[n]
	event.timestamp = s.Now() + delay
	event.callback = callback

	for n != 0 && s.heap[p].timestamp > s.heap[n].timestamp {
		s.swap(n, p)
		n = p
		p = parent(n)
	}

	return event, nil
}

// Cancel removes a previously scheduled event. Cancelling an event
// that has already fired is a no-op (its handle points past the live
// heap), as long as no later Schedule has reused its pool slot.
func (s *Scheduler) Cancel(event *Event) {
	if event.handle >= s.heapSize {
		return
	}
	s.remove(event.handle)
}

func (s *Scheduler) remove(n int) {
	s.heapSize--
	s.swap(n, s.heapSize)

	p := parent(n)

	if n != 0 && s.heap[p].timestamp > s.heap[n].timestamp {
		for n != 0 && s.heap[p].timestamp > s.heap[n].timestamp {
			s.swap(n, p)
			n = p
			p = parent(n)
		}
	} else {
		s.heapify(n)
	}
}

func (s *Scheduler) swap(i, j int) {
	s.heap[i], s.heap[j] = s.heap[j], s.heap[i]
	s.heap[i].handle = i
	s.heap[j].handle = j
}

func (s *Scheduler) heapify(n int) {
	l := leftChild(n)
	r := rightChild(n)

	if l < s.heapSize && s.heap[l].timestamp < s.heap[n].timestamp {
		s.swap(l, n)
		s.heapify(l)
	}

	if r < s.heapSize && s.heap[r].timestamp < s.heap[n].timestamp {
		s.swap(r, n)
		s.heapify(r)
	}
}

func parent(n int) int     { return (n - 1) >> 1 }
func leftChild(n int) int  { return n*2 + 1 }
func rightChild(n int) int { return n*2 + 2 }
