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

// Package ipc implements the inter-CPU communication hardware (§4.9):
// the SYNC register byte-passing mechanism with a strobe-triggered
// cross-CPU IRQ, and a pair of bidirectional 16-entry FIFOs with
// error_flag/overflow/underflow semantics.
package ipc

import (
	"github.com/dualnds/dualnds/hardware/fifo"
	"github.com/dualnds/dualnds/hardware/irq"
	"github.com/dualnds/dualnds/logger"
)

// CPU selects which side of the IPC link a register access targets.
type CPU int

const (
	ARM7 CPU = 0
	ARM9 CPU = 1
)

func (c CPU) other() CPU {
	return c ^ 1
}

// FIFODepth is the fixed capacity of each side's outgoing FIFO (§4.9).
const FIFODepth = 16

// IPCSYNC bit layout, carried from the reference implementation's
// Write_SYNC (§12 SUPPLEMENTED FEATURES): only the send nibble and the
// enable-remote-irq bit are stored; the strobe bit (0x2000) is
// momentary and never retained, and the recv nibble is read-only,
// mirrored from the peer's send nibble on every write.
const (
	syncRecvMask           = 0x000F
	syncSendMask           = 0x0F00
	syncSendShift          = 8
	syncEnableRemoteIRQMask = 0x4000
	syncStrobeMask         = 0x2000
	syncWriteMask          = 0x4F00
)

// FIFOCNT bit layout, carried from Write_FIFOCNT/Read_FIFOCNT: bits 2,
// 10 and 15 are the only generically stored control bits; bit 3 and
// bit 14 are one-shot actions (clear the send FIFO, clear error_flag)
// applied directly rather than through the generic mask, and bit 14
// (error_flag) is otherwise a plain stored bit set by the FIFO
// read/write paths themselves.
const (
	fifocntSendEmptyIRQEnable = 0x0004
	fifocntSendClear          = 0x0008
	fifocntRecvNotEmptyIRQEnable = 0x0400
	fifocntErrorFlag          = 0x4000
	fifocntEnable             = 0x8000
	fifocntWriteMask          = 0x8404
)

type syncSide struct {
	word uint32
}

type fifoSide struct {
	control uint32
	send    *fifo.FIFO[uint32]
	latch   uint32
}

// IPC is the pair of IPCSYNC/IPCFIFO register files shared by ARM7 and
// ARM9, plus the IRQ controllers it raises lines on.
type IPC struct {
	irq  [2]*irq.Controller
	sync [2]syncSide
	fifo [2]fifoSide

	permission logger.Permission
}

// New creates an IPC wired to both CPUs' interrupt controllers.
func New(irq9, irq7 *irq.Controller, permission logger.Permission) *IPC {
	i := &IPC{permission: permission}
	i.irq[ARM9] = irq9
	i.irq[ARM7] = irq7
	i.fifo[ARM7].send = fifo.New[uint32](FIFODepth)
	i.fifo[ARM9].send = fifo.New[uint32](FIFODepth)
	return i
}

// Reset clears both SYNC registers and both FIFOs.
func (i *IPC) Reset() {
	i.sync[ARM7] = syncSide{}
	i.sync[ARM9] = syncSide{}
	i.fifo[ARM7] = fifoSide{send: fifo.New[uint32](FIFODepth)}
	i.fifo[ARM9] = fifoSide{send: fifo.New[uint32](FIFODepth)}
}

// ReadSYNC returns cpu's IPCSYNC register.
func (i *IPC) ReadSYNC(cpu CPU) uint32 {
	return i.sync[cpu].word
}

// WriteSYNC applies a masked write to cpu's IPCSYNC register, mirrors
// the send nibble into the peer's recv nibble, and raises IPCSync on
// the peer if the strobe bit was set and the peer has remote-IRQ
// enabled.
func (i *IPC) WriteSYNC(cpu CPU, value, mask uint32) {
	writeMask := uint32(syncWriteMask) & mask

	tx := &i.sync[cpu]
	rx := &i.sync[cpu.other()]

	tx.word = (value & writeMask) | (tx.word &^ writeMask)

	send := (tx.word & syncSendMask) >> syncSendShift
	rx.word = (rx.word &^ syncRecvMask) | send

	if (value&mask)&syncStrobeMask != 0 && rx.word&syncEnableRemoteIRQMask != 0 {
		i.irq[cpu.other()].Raise(irq.IPCSync)
	}
}

// ReadFIFOCNT returns cpu's IPCFIFOCNT register, composed from its own
// control bits plus both FIFOs' live empty/full status (§12).
func (i *IPC) ReadFIFOCNT(cpu CPU) uint32 {
	tx := &i.fifo[cpu]
	rx := &i.fifo[cpu.other()]

	word := tx.control

	if tx.send.IsEmpty() {
		word |= 1
	}
	if tx.send.IsFull() {
		word |= 2
	}
	if rx.send.IsEmpty() {
		word |= 256
	}
	if rx.send.IsFull() {
		word |= 512
	}

	return word
}

// WriteFIFOCNT applies a masked write to cpu's IPCFIFOCNT register,
// handling the one-shot send-clear and error-clear bits, and raising
// the send-empty / receive-not-empty IRQs if enabling them finds the
// condition already true (§12).
func (i *IPC) WriteFIFOCNT(cpu CPU, value, mask uint32) {
	writeMask := uint32(fifocntWriteMask) & mask

	tx := &i.fifo[cpu]
	rx := &i.fifo[cpu.other()]

	oldSendIRQ := tx.control&fifocntSendEmptyIRQEnable != 0
	oldRecvIRQ := tx.control&fifocntRecvNotEmptyIRQEnable != 0

	tx.control = (value & writeMask) | (tx.control &^ writeMask)

	if value&mask&fifocntErrorFlag != 0 {
		tx.control &^= fifocntErrorFlag
	}

	if value&mask&fifocntSendClear != 0 {
		tx.send.Reset()
	}

	newSendIRQ := tx.control&fifocntSendEmptyIRQEnable != 0
	newRecvIRQ := tx.control&fifocntRecvNotEmptyIRQEnable != 0

	if !oldSendIRQ && newSendIRQ && tx.send.IsEmpty() {
		i.irq[cpu].Raise(irq.IPCSendEmpty)
	}

	if !oldRecvIRQ && newRecvIRQ && !rx.send.IsEmpty() {
		i.irq[cpu].Raise(irq.IPCReceiveNotEmpty)
	}
}

// ReadFIFORECV pops the next value sent to cpu by its peer. Reading
// while FIFOs are disabled, or reading an empty queue, logs and
// returns the last successfully latched value without consuming
// anything, and an empty read additionally sets the error_flag bit
// (§4.9).
func (i *IPC) ReadFIFORECV(cpu CPU) uint32 {
	tx := &i.fifo[cpu]
	rx := &i.fifo[cpu.other()]

	if tx.control&fifocntEnable == 0 {
		logger.Logf(i.permission, "ipc!", "cpu %d: attempted to read FIFO but FIFOs are disabled", cpu)
		return tx.latch
	}

	if rx.send.IsEmpty() {
		logger.Logf(i.permission, "ipc!", "cpu %d: attempted to read an empty FIFO", cpu)
		tx.control |= fifocntErrorFlag
		return tx.latch
	}

	tx.latch = rx.send.Read()

	if rx.send.IsEmpty() && rx.control&fifocntSendEmptyIRQEnable != 0 {
		i.irq[cpu.other()].Raise(irq.IPCSendEmpty)
	}

	return tx.latch
}

// WriteFIFOSEND pushes value onto cpu's outgoing FIFO, raising the
// peer's IPCReceiveNotEmpty IRQ if the peer wants it and the queue was
// empty. Writing while FIFOs are disabled or while the queue is full
// logs and sets error_flag (on overflow) instead of writing (§4.9).
func (i *IPC) WriteFIFOSEND(cpu CPU, value uint32) {
	tx := &i.fifo[cpu]
	rx := &i.fifo[cpu.other()]

	if tx.control&fifocntEnable == 0 {
		logger.Logf(i.permission, "ipc!", "cpu %d: attempted to write FIFO but FIFOs are disabled", cpu)
		return
	}

	if tx.send.IsFull() {
		tx.control |= fifocntErrorFlag
		logger.Logf(i.permission, "ipc!", "cpu %d: attempted to write to an already full FIFO", cpu)
		return
	}

	if tx.send.IsEmpty() && rx.control&fifocntRecvNotEmptyIRQEnable != 0 {
		i.irq[cpu.other()].Raise(irq.IPCReceiveNotEmpty)
	}

	tx.send.Write(value)
}
