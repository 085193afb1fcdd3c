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

package nds_test

import (
	"encoding/binary"
	"testing"

	"github.com/dualnds/dualnds/hardware/keypad"
	"github.com/dualnds/dualnds/nds"
	"github.com/dualnds/dualnds/nds/backup"
	"github.com/dualnds/dualnds/nds/cartridge"
	"github.com/dualnds/dualnds/test"
	"github.com/go-audio/audio"
)

// fakeROM mirrors boot_test.go's builder: a header at offset 0 plus the
// two binaries DirectBoot copies out.
type fakeROM struct {
	data []byte
}

func (r *fakeROM) Size() int { return len(r.data) }

func (r *fakeROM) Read(dst []byte, offset, length int) {
	copy(dst, r.data[offset:offset+length])
}

func buildROM(arm9Entry, arm7Entry uint32) *fakeROM {
	const arm9FileAddr, arm9Size = 0x4000, 0x40
	const arm7FileAddr, arm7Size = 0x8000, 0x20

	data := make([]byte, arm7FileAddr+arm7Size)

	putBinary := func(offset int, fileAddress, entrypoint, loadAddress, size uint32) {
		binary.LittleEndian.PutUint32(data[offset:], fileAddress)
		binary.LittleEndian.PutUint32(data[offset+4:], entrypoint)
		binary.LittleEndian.PutUint32(data[offset+8:], loadAddress)
		binary.LittleEndian.PutUint32(data[offset+12:], size)
	}
	putBinary(0x20, arm9FileAddr, arm9Entry, 0x02000000, arm9Size)
	putBinary(0x30, arm7FileAddr, arm7Entry, 0x02380000, arm7Size)

	for i := 0; i < arm9Size; i++ {
		data[arm9FileAddr+i] = byte(0xA0 + i)
	}
	for i := 0; i < arm7Size; i++ {
		data[arm7FileAddr+i] = byte(0xB0 + i)
	}

	return &fakeROM{data: data}
}

func TestNewSystemIsUsableWithANilEnvironment(t *testing.T) {
	s := nds.NewSystem(nil)
	test.ExpectInequality(t, s, nil)
	test.ExpectInequality(t, s.Config(), nil)
}

func TestDirectBootThroughSystem(t *testing.T) {
	s := nds.NewSystem(nil)
	s.LoadROM(buildROM(0x02000004, 0x02380008))

	header := s.DirectBoot()
	test.ExpectEquality(t, header.ARM9.Entrypoint, uint32(0x02000004))
	test.ExpectEquality(t, header.ARM7.Entrypoint, uint32(0x02380008))
}

func TestStepAdvancesBothCoresWithoutPanicking(t *testing.T) {
	s := nds.NewSystem(nil)
	s.LoadROM(buildROM(0x02000004, 0x02380008))
	s.DirectBoot()

	// A few thousand ARM7 clocks is enough to exercise several
	// instructions on both cores plus at least one scheduler pass,
	// without needing a ROM that does anything meaningful once booted.
	s.Step(4096)
}

func TestSetKeyAndTouchStateDoNotPanicBeforeBoot(t *testing.T) {
	s := nds.NewSystem(nil)
	s.SetKeyState(keypad.A, true)
	s.SetKeyState(keypad.A, false)
	s.SetTouchState(true, 100, 80)
	s.SetTouchState(false, 0, 0)
}

func TestLoadBackupRoundTrips(t *testing.T) {
	s := nds.NewSystem(nil)
	test.ExpectEquality(t, s.Backup(), (*backup.Image)(nil))

	img := backup.New(backup.Size64KiB)
	s.LoadBackup(img)
	test.ExpectEquality(t, s.Backup(), img)
}

func TestCloseStopsBothRenderWorkersCleanly(t *testing.T) {
	s := nds.NewSystem(nil)
	s.LoadROM(buildROM(0x02000004, 0x02380008))
	s.DirectBoot()
	s.Step(256)
	test.ExpectSuccess(t, s.Close())
}

func TestQueueAudioWithoutADriverIsANoop(t *testing.T) {
	s := nds.NewSystem(nil)
	buf := &audio.IntBuffer{
		Format: &audio.Format{NumChannels: 2, SampleRate: 32768},
		Data:   []int{0, 0, 1, -1},
	}
	test.ExpectSuccess(t, s.QueueAudio(buf))
}

func TestResetIsSafeToCallRepeatedly(t *testing.T) {
	s := nds.NewSystem(nil)
	s.LoadROM(buildROM(0x02000004, 0x02380008))
	s.DirectBoot()
	s.Step(256)
	s.Reset()
	s.Reset()
}

func TestDirectBootThroughSystemReturnsANonNilHeader(t *testing.T) {
	s := nds.NewSystem(nil)
	s.LoadROM(buildROM(0x02000004, 0x02380008))
	header := s.DirectBoot()
	test.ExpectInequality(t, header, (*cartridge.Header)(nil))
}
