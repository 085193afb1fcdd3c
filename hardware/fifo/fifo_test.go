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

package fifo_test

import (
	"testing"

	"github.com/dualnds/dualnds/hardware/fifo"
	"github.com/dualnds/dualnds/test"
)

func TestNewFIFOIsEmpty(t *testing.T) {
	f := fifo.New[uint32](4)
	test.ExpectEquality(t, f.IsEmpty(), true)
	test.ExpectEquality(t, f.IsFull(), false)
	test.ExpectEquality(t, f.Count(), 0)
}

func TestWriteReadRoundTrip(t *testing.T) {
	f := fifo.New[uint32](4)
	f.Write(1)
	f.Write(2)
	f.Write(3)

	test.ExpectEquality(t, f.Count(), 3)
	test.ExpectEquality(t, f.Read(), uint32(1))
	test.ExpectEquality(t, f.Read(), uint32(2))
	test.ExpectEquality(t, f.Count(), 1)
}

func TestFIFOBecomesFullAtCapacity(t *testing.T) {
	f := fifo.New[uint32](2)
	f.Write(1)
	f.Write(2)
	test.ExpectEquality(t, f.IsFull(), true)

	// writing past capacity is a silent no-op
	f.Write(3)
	test.ExpectEquality(t, f.Count(), 2)
	test.ExpectEquality(t, f.Read(), uint32(1))
}

func TestReadingEmptyFIFOReturnsZeroValue(t *testing.T) {
	f := fifo.New[uint32](2)
	test.ExpectEquality(t, f.Read(), uint32(0))
	test.ExpectEquality(t, f.IsEmpty(), true)
}

func TestPeekDoesNotRemove(t *testing.T) {
	f := fifo.New[uint32](2)
	f.Write(7)
	test.ExpectEquality(t, f.Peek(), uint32(7))
	test.ExpectEquality(t, f.Count(), 1)
}

func TestResetEmptiesTheQueue(t *testing.T) {
	f := fifo.New[uint32](4)
	f.Write(1)
	f.Write(2)
	f.Reset()
	test.ExpectEquality(t, f.IsEmpty(), true)
	test.ExpectEquality(t, f.Count(), 0)
}

func TestWrapAround(t *testing.T) {
	f := fifo.New[uint32](3)
	f.Write(1)
	f.Write(2)
	f.Read()
	f.Write(3)
	f.Write(4)

	test.ExpectEquality(t, f.Read(), uint32(2))
	test.ExpectEquality(t, f.Read(), uint32(3))
	test.ExpectEquality(t, f.Read(), uint32(4))
}
