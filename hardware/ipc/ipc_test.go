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

package ipc_test

import (
	"testing"

	"github.com/dualnds/dualnds/hardware/ipc"
	"github.com/dualnds/dualnds/hardware/irq"
	"github.com/dualnds/dualnds/logger"
	"github.com/dualnds/dualnds/test"
)

func newLink() (*ipc.IPC, *irq.Controller, *irq.Controller) {
	irq9 := irq.NewController(true)
	irq7 := irq.NewController(false)
	return ipc.New(irq9, irq7, logger.Allow), irq9, irq7
}

func TestSyncSendMirrorsIntoPeerRecv(t *testing.T) {
	link, _, _ := newLink()

	link.WriteSYNC(ipc.ARM9, 0x0500, 0xFFFF)

	test.ExpectEquality(t, link.ReadSYNC(ipc.ARM7)&0x000F, uint32(0x0005))
}

func TestSyncStrobeRaisesIRQOnPeerWhenEnabled(t *testing.T) {
	link, irq9, irq7 := newLink()
	irq7.WriteIME(1, 1)
	irq7.WriteIE(uint32(irq.IPCSync), 0xFFFFFFFF)

	// ARM7 enables remote irq on its own SYNC register.
	link.WriteSYNC(ipc.ARM7, 0x4000, 0xFFFF)

	fake := &fakeLine{}
	irq7.SetCPU(fake)

	// ARM9 strobes.
	link.WriteSYNC(ipc.ARM9, 0x2000, 0xFFFF)

	test.ExpectEquality(t, fake.asserted, true)
	_ = irq9
}

type fakeLine struct{ asserted bool }

func (f *fakeLine) SetIRQFlag(asserted bool) { f.asserted = asserted }

func TestFIFOSendAndReceiveRoundTrip(t *testing.T) {
	link, _, _ := newLink()
	link.WriteFIFOCNT(ipc.ARM9, uint32(0x8000), 0xFFFF) // enable
	link.WriteFIFOCNT(ipc.ARM7, uint32(0x8000), 0xFFFF)

	link.WriteFIFOSEND(ipc.ARM9, 0xCAFEBABE)

	test.ExpectEquality(t, link.ReadFIFORECV(ipc.ARM7), uint32(0xCAFEBABE))
}

func TestFIFOReadEmptySetsErrorFlag(t *testing.T) {
	link, _, _ := newLink()
	link.WriteFIFOCNT(ipc.ARM7, uint32(0x8000), 0xFFFF)

	link.ReadFIFORECV(ipc.ARM7)

	test.ExpectEquality(t, link.ReadFIFOCNT(ipc.ARM7)&0x4000, uint32(0x4000))
}

func TestFIFOWriteFullSetsErrorFlag(t *testing.T) {
	link, _, _ := newLink()
	link.WriteFIFOCNT(ipc.ARM9, uint32(0x8000), 0xFFFF)

	for i := 0; i < ipc.FIFODepth+1; i++ {
		link.WriteFIFOSEND(ipc.ARM9, uint32(i))
	}

	test.ExpectEquality(t, link.ReadFIFOCNT(ipc.ARM9)&0x4000, uint32(0x4000))
}

func TestFIFOCNTClearBitClearsErrorFlag(t *testing.T) {
	link, _, _ := newLink()
	link.WriteFIFOCNT(ipc.ARM7, uint32(0x8000), 0xFFFF)
	link.ReadFIFORECV(ipc.ARM7)
	test.ExpectEquality(t, link.ReadFIFOCNT(ipc.ARM7)&0x4000, uint32(0x4000))

	link.WriteFIFOCNT(ipc.ARM7, uint32(0x4000), 0xFFFF)

	test.ExpectEquality(t, link.ReadFIFOCNT(ipc.ARM7)&0x4000, uint32(0))
}

func TestFIFOCNTSendClearResetsTheQueue(t *testing.T) {
	link, _, _ := newLink()
	link.WriteFIFOCNT(ipc.ARM9, uint32(0x8000), 0xFFFF)
	link.WriteFIFOSEND(ipc.ARM9, 1)
	link.WriteFIFOSEND(ipc.ARM9, 2)

	link.WriteFIFOCNT(ipc.ARM9, uint32(0x0008), 0xFFFF)

	test.ExpectEquality(t, link.ReadFIFOCNT(ipc.ARM9)&1, uint32(1)) // empty flag set
}

func TestResetClearsSyncAndFIFOState(t *testing.T) {
	link, _, _ := newLink()
	link.WriteSYNC(ipc.ARM9, 0x0F00, 0xFFFF)
	link.WriteFIFOCNT(ipc.ARM9, uint32(0x8000), 0xFFFF)
	link.WriteFIFOSEND(ipc.ARM9, 42)

	link.Reset()

	test.ExpectEquality(t, link.ReadSYNC(ipc.ARM9), uint32(0))
	test.ExpectEquality(t, link.ReadFIFOCNT(ipc.ARM9)&1, uint32(1))
}
