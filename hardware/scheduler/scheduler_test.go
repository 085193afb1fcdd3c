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

package scheduler_test

import (
	"errors"
	"math"
	"testing"

	"github.com/dualnds/dualnds/hardware/scheduler"
	dnderrors "github.com/dualnds/dualnds/errors"
	"github.com/dualnds/dualnds/test"
)

func TestEmptySchedulerTargetsMax(t *testing.T) {
	s := scheduler.New()
	test.ExpectEquality(t, s.Target(), uint64(math.MaxUint64))
	test.ExpectEquality(t, s.Now(), uint64(0))
}

func TestStepFiresDueEventsInOrder(t *testing.T) {
	s := scheduler.New()

	var order []string

	s.Schedule(10, func(int) { order = append(order, "a") })
	s.Schedule(5, func(int) { order = append(order, "b") })
	s.Schedule(15, func(int) { order = append(order, "c") })

	s.AddCycles(20)
	s.Step()

	test.ExpectEquality(t, order, []string{"b", "a", "c"})
	test.ExpectEquality(t, s.Target(), uint64(math.MaxUint64))
}

func TestStepReportsCyclesLate(t *testing.T) {
	s := scheduler.New()

	var late int
	s.Schedule(10, func(cyclesLate int) { late = cyclesLate })

	s.AddCycles(14)
	s.Step()

	test.ExpectEquality(t, late, 4)
}

func TestCancelRemovesAnEventBeforeItFires(t *testing.T) {
	s := scheduler.New()

	fired := false
	event, err := s.Schedule(10, func(int) { fired = true })
	test.ExpectSuccess(t, err)

	s.Cancel(event)

	s.AddCycles(20)
	s.Step()

	test.ExpectEquality(t, fired, false)
}

func TestEventCallbackCanScheduleAnotherEvent(t *testing.T) {
	s := scheduler.New()

	var order []string
	s.Schedule(5, func(int) {
		order = append(order, "first")
		s.Schedule(1, func(int) { order = append(order, "second") })
	})

	s.AddCycles(10)
	s.Step()

	// "second" was scheduled 1 cycle after now (10), so it is due at 11.
	s.AddCycles(1)
	s.Step()

	test.ExpectEquality(t, order, []string{"first", "second"})
}

func TestScheduleFailsOnceCapacityIsExhausted(t *testing.T) {
	s := scheduler.New()

	for i := 0; i < scheduler.EventLimit; i++ {
		_, err := s.Schedule(uint64(1000+i), func(int) {})
		test.ExpectSuccess(t, err)
	}

	_, err := s.Schedule(2000, func(int) {})
	test.ExpectFailure(t, err)

	var fault *dnderrors.Fault
	test.ExpectSuccess(t, errors.As(err, &fault))
	test.ExpectEquality(t, fault.Kind(), dnderrors.InvariantViolation)
}

func TestResetEmptiesTheHeapAndZeroesNow(t *testing.T) {
	s := scheduler.New()

	s.Schedule(10, func(int) {})
	s.AddCycles(5)

	s.Reset()

	test.ExpectEquality(t, s.Now(), uint64(0))
	test.ExpectEquality(t, s.Target(), uint64(math.MaxUint64))
}
