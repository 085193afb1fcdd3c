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

package cartridge_test

import (
	"encoding/binary"
	"testing"

	"github.com/dualnds/dualnds/logger"
	"github.com/dualnds/dualnds/nds/cartridge"
	"github.com/dualnds/dualnds/test"
)

func buildHeader() []byte {
	data := make([]byte, cartridge.HeaderSize)
	copy(data[0:12], []byte("GAME TITLE  "))
	copy(data[12:16], []byte("ABCE"))
	data[20] = 9 // capacity byte: 1 << (17+9) = 64 MiB... overridden by test ROM sizes below

	putBinary := func(offset int, fileAddress, entrypoint, loadAddress, size uint32) {
		binary.LittleEndian.PutUint32(data[offset:], fileAddress)
		binary.LittleEndian.PutUint32(data[offset+4:], entrypoint)
		binary.LittleEndian.PutUint32(data[offset+8:], loadAddress)
		binary.LittleEndian.PutUint32(data[offset+12:], size)
	}
	putBinary(0x20, 0x4000, 0x02000000, 0x02000000, 0x1000)
	putBinary(0x30, 0x8000, 0x02380000, 0x02380000, 0x800)

	return data
}

func TestParseHeaderDecodesBothBinaryRecords(t *testing.T) {
	h := cartridge.ParseHeader(buildHeader(), 0, logger.Allow)

	test.ExpectEquality(t, h.ARM9.FileAddress, uint32(0x4000))
	test.ExpectEquality(t, h.ARM9.Entrypoint, uint32(0x02000000))
	test.ExpectEquality(t, h.ARM9.LoadAddress, uint32(0x02000000))
	test.ExpectEquality(t, h.ARM9.Size, uint32(0x1000))

	test.ExpectEquality(t, h.ARM7.FileAddress, uint32(0x8000))
	test.ExpectEquality(t, h.ARM7.Entrypoint, uint32(0x02380000))
	test.ExpectEquality(t, h.ARM7.LoadAddress, uint32(0x02380000))
	test.ExpectEquality(t, h.ARM7.Size, uint32(0x800))
}

func TestParseHeaderReadsGameTitleAndGameCode(t *testing.T) {
	h := cartridge.ParseHeader(buildHeader(), 0, logger.Allow)
	test.ExpectEquality(t, string(h.GameTitle[:]), "GAME TITLE  ")
	test.ExpectEquality(t, string(h.GameCode[:]), "ABCE")
}

func TestParseHeaderToleratesACapacityMismatchAgainstROMSize(t *testing.T) {
	// A mismatch is logged, not an error: parsing still succeeds and
	// returns the rest of the header intact.
	h := cartridge.ParseHeader(buildHeader(), 0, logger.Allow)
	test.ExpectEquality(t, h.Capacity, uint8(9))
}
