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

// Package nds assembles every hardware/* component into the complete
// system (§2 SYSTEM OVERVIEW's dependency-ordered component list):
// scheduler, both ARM cores and their memory buses, the VRAM router,
// shared WRAM, both IRQ controllers, IPC, both timer blocks, both DMA
// engines, the keypad, both PPUs and the scanline pipeline driving
// them, cartridge header/controller and backup image. System.Step is
// the one outer loop a host ever calls.
package nds

import (
	"github.com/dualnds/dualnds/config"
	"github.com/dualnds/dualnds/environment"
	"github.com/dualnds/dualnds/hardware/arm"
	"github.com/dualnds/dualnds/hardware/arm9/cp15"
	"github.com/dualnds/dualnds/hardware/clocks"
	"github.com/dualnds/dualnds/hardware/cycle"
	"github.com/dualnds/dualnds/hardware/dma"
	"github.com/dualnds/dualnds/hardware/instance"
	"github.com/dualnds/dualnds/hardware/ipc"
	"github.com/dualnds/dualnds/hardware/irq"
	"github.com/dualnds/dualnds/hardware/keypad"
	"github.com/dualnds/dualnds/hardware/membus"
	"github.com/dualnds/dualnds/hardware/scheduler"
	"github.com/dualnds/dualnds/hardware/swram"
	"github.com/dualnds/dualnds/hardware/timer"
	"github.com/dualnds/dualnds/hardware/video/ppu"
	"github.com/dualnds/dualnds/hardware/video/scanline"
	"github.com/dualnds/dualnds/hardware/vram"
	"github.com/dualnds/dualnds/nds/backup"
	"github.com/dualnds/dualnds/nds/cartridge"
	"github.com/go-audio/audio"
)

const (
	bootROM9Size = 32 * 1024
	bootROM7Size = 16 * 1024
)

// System is the whole console: two CPUs, the peripherals their buses
// route to, and the video pipeline both PPUs feed into.
type System struct {
	ins *instance.Instance
	env *environment.Environment

	sched *scheduler.Scheduler

	arm9Core *arm.Core
	arm7Core *arm.Core

	arm9Bus *membus.ARM9Bus
	arm7Bus *membus.ARM7Bus

	arm9Cycles *cycle.Counter
	arm7Cycles *cycle.Counter

	cp15 *cp15.CP15

	irq9 *irq.Controller
	irq7 *irq.Controller

	timer9 *timer.Timer
	timer7 *timer.Timer

	dma9 *dma.Controller
	dma7 *dma.Controller

	swram *swram.SWRAM
	vram  *vram.Router
	ipc   *ipc.IPC

	keypad *keypad.Controller

	ppu9 *ppu.PPU
	ppu7 *ppu.PPU

	ppuCoordinator *ppu.Coordinator

	scanline *scanline.Pipeline

	cart *cartridge.Controller

	backup *backup.Image

	rom      ROM
	bootROM9 [bootROM9Size]byte
	bootROM7 [bootROM7Size]byte
}

// NewSystem assembles a System. env may be nil, in which case a default
// main-emulation Environment is used.
func NewSystem(env *environment.Environment) *System {
	if env == nil {
		env = environment.NewEnvironment(environment.MainEmulation, nil, nil)
	}

	s := &System{
		ins: instance.NewInstance(env.Config),
		env: env,

		sched: scheduler.New(),

		arm9Cycles: cycle.NewCounter(0),
		arm7Cycles: cycle.NewCounter(-clocks.ARM7Shift),

		irq9: irq.NewController(true),
		irq7: irq.NewController(false),

		swram: swram.New(),
		vram:  vram.NewRouter(env),

		keypad: keypad.New(),

		cart: &cartridge.Controller{},
	}

	s.timer9 = timer.New(s.sched, s.irq9)
	s.timer7 = timer.New(s.sched, s.irq7)

	s.ipc = ipc.New(s.irq9, s.irq7, env)

	// DMA controllers are constructed against a nil Bus first: each
	// bus's HW struct embeds the DMA controller that moves data over
	// it, so the controller has to exist before the bus does.
	// Controller.SetBus ties the two together once the real buses exist.
	s.dma9 = dma.New(dma.ARM9, nil, s.irq9)
	s.dma7 = dma.New(dma.ARM7, nil, s.irq7)

	// The buses themselves are built next, with PPU/Scanline left zero:
	// both PPUs are constructed from slices of ARM9Bus's own PRAM/OAM
	// storage (below), and the scanline pipeline from both PPUs, so
	// neither can exist yet. SetPPU/SetScanline tie them in afterward,
	// the same two-phase pattern as Controller.SetBus.
	s.arm9Bus = membus.NewARM9Bus(membus.ARM9HW{
		IRQ:    s.irq9,
		Timer:  s.timer9,
		DMA:    s.dma9,
		IPC:    s.ipc,
		SWRAM:  s.swram,
		VRAM:   s.vram,
		Keypad: s.keypad,
	}, env)

	s.arm7Bus = membus.NewARM7Bus(membus.ARM7HW{
		IRQ:    s.irq7,
		Timer:  s.timer7,
		DMA:    s.dma7,
		IPC:    s.ipc,
		SWRAM:  s.swram,
		VRAM:   s.vram,
		Keypad: s.keypad,
	}, env)

	s.dma9.SetBus(s.arm9Bus)
	s.dma7.SetBus(s.arm7Bus)

	// PRAM/OAM live on ARM9Bus only (real hardware maps them through the
	// ARM9 side); each PPU gets a private 0x400-byte half of the shared
	// 0x800-byte arrays.
	s.ppu9 = ppu.New(0,
		s.vram.RegionPPUBackground[0], s.vram.RegionPPUObject[0],
		s.vram.RegionPPUBackgroundExtPal[0], s.vram.RegionPPUObjectExtPal[0],
		s.vram.RegionLCDC, s.arm9Bus.PRAM()[:0x400], s.arm9Bus.OAM()[:0x400])
	s.ppu7 = ppu.New(1,
		s.vram.RegionPPUBackground[1], s.vram.RegionPPUObject[1],
		s.vram.RegionPPUBackgroundExtPal[1], s.vram.RegionPPUObjectExtPal[1],
		s.vram.RegionLCDC, s.arm9Bus.PRAM()[0x400:], s.arm9Bus.OAM()[0x400:])

	s.arm9Bus.SetPPU(s.ppu9, s.ppu7)
	s.ppuCoordinator = ppu.NewCoordinator(s.ppu9, s.ppu7)

	s.scanline = scanline.New(s.sched, s.ppu9, s.ppu7, s.dma9, s.dma7, s.irq9, s.irq7)
	s.scanline.OnPresent = func(top, bottom []uint32) {
		if s.env.Presenter != nil {
			s.env.Presenter.Present(top, bottom)
		}
	}
	s.arm9Bus.SetScanline(s.scanline)
	s.arm7Bus.SetScanline(s.scanline)

	s.arm9Core = arm.NewCore(s.arm9Bus)
	s.arm7Core = arm.NewCore(s.arm7Bus)

	s.irq9.SetCPU(s.arm9Core)
	s.irq7.SetCPU(s.arm7Core)

	s.cp15 = cp15.New(s.arm9Core, s.arm9Bus)

	s.wireVRAMDirtyCallbacks()

	s.Reset()

	return s
}

// wireVRAMDirtyCallbacks registers the (offset, size)-shaped
// hardware/vram.Region callbacks that keep each PPU's render-side VRAM
// shadow copy current, adapting them to the PPU's (lo, hi int) OnWrite*
// shape (§4.6.1 dirty-range tracking).
func (s *System) wireVRAMDirtyCallbacks() {
	adapt := func(notify func(lo, hi int)) func(offset uint32, size int) {
		return func(offset uint32, size int) {
			notify(int(offset), int(offset)+size)
		}
	}

	s.vram.RegionPPUBackground[0].AddCallback(adapt(s.ppu9.OnWriteVRAM_BG))
	s.vram.RegionPPUObject[0].AddCallback(adapt(s.ppu9.OnWriteVRAM_OBJ))
	s.vram.RegionPPUBackgroundExtPal[0].AddCallback(adapt(s.ppu9.OnWriteExtPal_BG))
	s.vram.RegionPPUObjectExtPal[0].AddCallback(adapt(s.ppu9.OnWriteExtPal_OBJ))

	s.vram.RegionPPUBackground[1].AddCallback(adapt(s.ppu7.OnWriteVRAM_BG))
	s.vram.RegionPPUObject[1].AddCallback(adapt(s.ppu7.OnWriteVRAM_OBJ))
	s.vram.RegionPPUBackgroundExtPal[1].AddCallback(adapt(s.ppu7.OnWriteExtPal_BG))
	s.vram.RegionPPUObjectExtPal[1].AddCallback(adapt(s.ppu7.OnWriteExtPal_OBJ))

	// RegionLCDC is shared between both PPUs' direct-access windows;
	// either engine's OnWriteVRAM_LCDC flush is sufficient since the
	// shadow it refreshes is a read-through of the same region.
	s.vram.RegionLCDC.AddCallback(adapt(s.ppu9.OnWriteVRAM_LCDC))
	s.vram.RegionLCDC.AddCallback(adapt(s.ppu7.OnWriteVRAM_LCDC))
}

// Reset returns every component to its post-power-on state (§3 ARM CPU
// State lifecycle: "reset zeros everything except CPSR mode=Supervisor
// with I/F masked").
func (s *System) Reset() {
	s.sched.Reset()
	s.arm9Cycles.Reset()
	s.arm7Cycles.Reset()

	s.irq9.Reset()
	s.irq7.Reset()
	s.timer9.Reset()
	s.timer7.Reset()
	s.dma9.Reset()
	s.dma7.Reset()
	s.swram.Reset()
	s.vram.Reset()
	s.ipc.Reset()
	s.keypad.Reset()

	s.arm9Bus.Reset()
	s.arm7Bus.Reset()

	s.cp15.Reset()

	s.arm9Core.Reset()
	s.arm7Core.Reset()

	s.ppu9.Reset()
	s.ppu7.Reset()
	s.scanline.Reset()

	s.cart.Reset()
}

// LoadROM attaches rom as the cartridge image DirectBoot reads from.
func (s *System) LoadROM(rom ROM) {
	s.rom = rom
}

// LoadBootROM9 installs the ARM9 BIOS/firmware image. Executing from
// it (the non-DirectBoot boot path) is not modeled — this core only
// boots through DirectBoot (§6) — so the image is retained but never
// mapped onto ARM9Bus's address space.
func (s *System) LoadBootROM9(data []byte) {
	s.bootROM9 = [bootROM9Size]byte{}
	copy(s.bootROM9[:], data)
}

// LoadBootROM7 is LoadBootROM9's ARM7 equivalent.
func (s *System) LoadBootROM7(data []byte) {
	s.bootROM7 = [bootROM7Size]byte{}
	copy(s.bootROM7[:], data)
}

// DirectBoot parses the cartridge header, copies both CPUs' binaries
// from the loaded ROM, seeds CP15 and both CPUs' entrypoints/stack
// pointers, and marks the cartridge controller MainDataLoad (§6
// DirectBoot).
func (s *System) DirectBoot() *cartridge.Header {
	return DirectBoot(s.rom, s.arm9Core, s.arm7Core, s.arm9Bus, s.arm7Bus, s.cp15, s.cart, s.env)
}

// LoadBackup attaches img as the cartridge's persisted backup memory
// (§6 "Persisted state"); loading/saving the image file itself is
// host file I/O and out of scope (§1 Non-goals).
func (s *System) LoadBackup(img *backup.Image) {
	s.backup = img
}

// Backup returns the attached backup image, or nil if none has been
// loaded.
func (s *System) Backup() *backup.Image {
	return s.backup
}

// SetTouchState forwards the touchscreen's pen-down state to the
// keypad controller; x/y are accepted but otherwise unused, since the
// ADC/SPI touchscreen sampling protocol is an external collaborator
// (§2 SYSTEM OVERVIEW).
func (s *System) SetTouchState(penDown bool, x, y uint8) {
	s.keypad.SetTouchState(penDown, x, y)
}

// SetKeyState forwards a button's pressed/released state to the
// keypad controller (§6 "SetKeyState(Key, bool)").
func (s *System) SetKeyState(key keypad.Key, down bool) {
	s.keypad.SetKeyState(key, down)
}

// QueueAudio forwards a buffer of already-mixed samples to the attached
// environment.AudioDriver. APU mixing itself is an external collaborator
// (§1 Non-goals) — this is only the queueing boundary the core exposes
// for whatever produces those samples on its behalf. A nil driver
// discards samples silently, matching a nil Presenter's behaviour.
func (s *System) QueueAudio(samples *audio.IntBuffer) error {
	if s.env.Audio == nil {
		return nil
	}
	return s.env.Audio.Queue(samples)
}

// Step advances emulation by up to cycles ARM7 clocks (§6), alternating
// ARM9 and ARM7 instruction execution and feeding each CPU's own
// cycles through its cycle.Counter into the single ARM9-native system
// timestamp the scheduler runs on, running due scheduler events after
// every system-tick advance.
func (s *System) Step(cycles int) {
	target := s.arm7Cycles.Now() + uint64(cycles)<<clocks.ARM7Shift

	for s.arm7Cycles.Now() < target {
		before9 := s.arm9Cycles.Now()
		s.arm9Cycles.AddDeviceCycles(uint(s.arm9Core.Step()))
		s.sched.AddCycles(int(s.arm9Cycles.Now() - before9))
		s.sched.Step()

		before7 := s.arm7Cycles.Now()
		s.arm7Cycles.AddDeviceCycles(uint(s.arm7Core.Step()))
		s.sched.AddCycles(int(s.arm7Cycles.Now() - before7))
		s.sched.Step()
	}
}

// Config returns the instance's runtime configuration.
func (s *System) Config() *config.Config {
	return s.env.Config
}

// Close stops both PPUs' render workers, blocking until both have
// exited. Call once the System is no longer going to be stepped.
func (s *System) Close() error {
	return s.ppuCoordinator.Close()
}
