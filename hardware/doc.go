// Package hardware is the base package for the NDS emulation core. It and
// its sub-packages contain everything required for a headless, two-CPU
// emulation: the scheduler, both ARM cores, the VRAM router, the two
// PPUs and their decoupled render workers, and the IPC/DMA/timer
// peripherals that tie ARM7 and ARM9 together.
//
// The System type in the top-level nds package is the root of the
// emulation and holds references to both CPUs and every shared
// peripheral. From there the emulation is stepped one scheduler target
// at a time; there is no free-running "run continuously" mode because
// the host always owns the frame/audio pacing loop.
package hardware
