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

package swram_test

import (
	"testing"

	"github.com/dualnds/dualnds/hardware/swram"
	"github.com/dualnds/dualnds/test"
)

func TestDefaultAllocationGivesAllSWRAMToARM7(t *testing.T) {
	s := swram.New()

	test.ExpectEquality(t, s.ARM9.Mapped(), false)
	test.ExpectEquality(t, s.ARM7.Mapped(), true)

	s.ARM7.Write8(0, 0x42)
	test.ExpectEquality(t, s.ARM7.Read8(0), uint8(0x42))
}

func TestModeOneSplitsSWRAMIntoTwoHalves(t *testing.T) {
	s := swram.New()
	s.WriteWRAMCNT(1)

	s.ARM7.Write8(0, 0x11)
	s.ARM9.Write8(0, 0x22)

	test.ExpectEquality(t, s.ARM7.Read8(0), uint8(0x11))
	test.ExpectEquality(t, s.ARM9.Read8(0), uint8(0x22))
}

func TestModeZeroGivesAllSWRAMToARM9(t *testing.T) {
	s := swram.New()
	s.WriteWRAMCNT(0)

	test.ExpectEquality(t, s.ARM9.Mapped(), true)
	test.ExpectEquality(t, s.ARM7.Mapped(), false)
}

func TestWritingTheSameAllocationIsANoOp(t *testing.T) {
	s := swram.New()
	s.ARM7.Write8(0, 0x99)

	s.WriteWRAMCNT(3) // already mode 3

	test.ExpectEquality(t, s.ARM7.Read8(0), uint8(0x99))
}
