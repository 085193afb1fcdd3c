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

package ppu

// addressRange tracks the lowest/highest dirty byte in one VRAM-backed
// region between render-worker catch-ups, the same lazy-flush scheme
// PPU::AddressRange/OnRegionWrite uses in the original so a scanline's
// worth of small VRAM pokes doesn't force a synchronous copy each time.
type addressRange struct {
	lo, hi int
	valid  bool
}

func (r *addressRange) expand(lo, hi int) {
	if !r.valid {
		r.lo, r.hi, r.valid = lo, hi, true
		return
	}
	if lo < r.lo {
		r.lo = lo
	}
	if hi > r.hi {
		r.hi = hi
	}
}

func (r *addressRange) reset() { *r = addressRange{} }

// Sizes of the render-side VRAM/PRAM/OAM shadow copies the worker reads
// from, matching the original's fixed backing arrays.
const (
	sizeVRAMBG    = 512 * 1024
	sizeVRAMOBJ   = 256 * 1024
	sizeExtPalBG  = 32 * 1024
	sizeExtPalOBJ = 8 * 1024
	sizeVRAMLCDC  = 1024 * 1024
	sizePRAM      = 0x400
	sizeOAM       = 0x400
)

// regionReader is the read side of a hardware/vram.Region: the subset
// of the shared VRAM router a PPU reads from, named locally so this
// package doesn't need the router's write/mapping surface.
type regionReader interface {
	Read8(offset uint32) uint8
}

// PPU is one of the NDS's two 2D picture-processing units (PPU A drives
// the top screen and can read the 3D engine's output, PPU B the bottom
// screen, text-mode/affine/extended-BG and OBJ rendering only) (§4.6).
//
// Scope note: the full MMIO register file, dirty-range VRAM tracking,
// and render-worker handshake are implemented in full; the actual
// per-pixel rendering path covers text-mode backgrounds (BG mode 0-5's
// text layers) and regular (non-affine) OBJ sprites, window gating and
// all four colour special effects. Affine and extended-rotation
// backgrounds, the large-bitmap BG6 layer, affine OBJ sprites and the
// 3D-engine BG0 passthrough are out of scope for this representative
// rendering path (mirroring hardware/arm.Core's representative
// instruction-decode subset) and render as an empty (transparent)
// layer rather than being silently mis-rendered as text-mode.
type PPU struct {
	id int

	vramBG    regionReader
	vramOBJ   regionReader
	extPalBG  regionReader
	extPalOBJ regionReader
	vramLCDC  regionReader

	pram []byte
	oam  []byte

	mmio MMIO

	frame       int
	frameBuffer [2][256 * 192]uint32

	render renderState

	mmioCopy [263]MMIO

	renderVRAMBG    []byte
	renderVRAMOBJ   []byte
	renderExtPalBG  []byte
	renderExtPalOBJ []byte
	renderVRAMLCDC  []byte
	renderPRAM      []byte
	renderOAM       []byte

	vramBGDirty    addressRange
	vramOBJDirty   addressRange
	extPalBGDirty  addressRange
	extPalOBJDirty addressRange
	vramLCDCDirty  addressRange
	pramDirty      addressRange
	oamDirty       addressRange

	vcount int

	worker renderWorker
}

// New creates PPU id (0 = the engine driving the top screen by default,
// 1 = the bottom screen), backed by pram/oam (each this PPU's private
// 0x400-byte bank, sliced by the caller out of the shared 2x0x400-byte
// system palette/OAM) and the four hardware/vram.Region windows (plus
// the system-wide LCDC region) this PPU reads tile/map/bitmap data and
// extended palettes from (§4.5).
func New(id int, vramBG, vramOBJ, extPalBG, extPalOBJ, vramLCDC regionReader, pram, oam []byte) *PPU {
	p := &PPU{
		id:        id,
		vramBG:    vramBG,
		vramOBJ:   vramOBJ,
		extPalBG:  extPalBG,
		extPalOBJ: extPalOBJ,
		vramLCDC:  vramLCDC,
		pram:      pram,
		oam:       oam,

		renderVRAMBG:    make([]byte, sizeVRAMBG),
		renderVRAMOBJ:   make([]byte, sizeVRAMOBJ),
		renderExtPalBG:  make([]byte, sizeExtPalBG),
		renderExtPalOBJ: make([]byte, sizeExtPalOBJ),
		renderVRAMLCDC:  make([]byte, sizeVRAMLCDC),
		renderPRAM:      make([]byte, sizePRAM),
		renderOAM:       make([]byte, sizeOAM),
	}

	if id == 0 {
		p.mmio.DispCnt.Mask = 0xFFFFFFFF
	} else {
		p.mmio.DispCnt.Mask = 0xC033FFF7
	}

	p.Reset()
	return p
}

// Reset clears both frame buffers, restores MMIO reset defaults (the
// affine matrices' identity scale, everything else zero) and marks
// every shadow region fully dirty so the first SubmitScanline after
// reset performs a full copy, then (re)starts the render worker.
func (p *PPU) Reset() {
	p.frameBuffer[0] = [256 * 192]uint32{}
	p.frameBuffer[1] = [256 * 192]uint32{}

	mask := p.mmio.DispCnt.Mask
	p.mmio = MMIO{}
	p.mmio.DispCnt.Mask = mask

	for i := range p.mmio.BGPA {
		p.mmio.BGPA[i].Half = 0x0100
		p.mmio.BGPD[i].Half = 0x0100
	}

	p.vcount = 0

	p.vramBGDirty.expand(0, sizeVRAMBG)
	p.vramOBJDirty.expand(0, sizeVRAMOBJ)
	p.extPalBGDirty.expand(0, sizeExtPalBG)
	p.extPalOBJDirty.expand(0, sizeExtPalOBJ)
	p.vramLCDCDirty.expand(0, sizeVRAMLCDC)
	p.pramDirty.expand(0, sizePRAM)
	p.oamDirty.expand(0, sizeOAM)

	p.startRenderWorker()
}

// GetFrameBuffer returns the currently-displayed frame, 256x192 packed
// 0xAARRGGBB pixels.
func (p *PPU) GetFrameBuffer() []uint32 {
	return p.frameBuffer[p.frame][:]
}

// SwapBuffers flips which of the two frame buffers GetFrameBuffer
// exposes, the VBlank-time double-buffer swap (§4.6).
func (p *PPU) SwapBuffers() {
	p.frame ^= 1
}

// MMIO returns the live (not per-scanline-shadowed) register file for
// the memory bus to route MMIO reads/writes against.
func (p *PPU) MMIO() *MMIO { return &p.mmio }

// OnWriteVRAM_BG records a write into this PPU's background VRAM
// window, copying it into the render-side shadow immediately if the
// render worker is still drawing the visible area (so mid-frame writes
// are picture-accurate) or deferring it to the next SubmitScanline(0)
// flush otherwise (§4.6 dirty-range tracking).
func (p *PPU) OnWriteVRAM_BG(lo, hi int) {
	p.onRegionWrite(p.renderVRAMBG, &p.vramBGDirty, lo, hi, func(addr int) byte { return p.vramBG.Read8(uint32(addr)) })
}

func (p *PPU) OnWriteVRAM_OBJ(lo, hi int) {
	p.onRegionWrite(p.renderVRAMOBJ, &p.vramOBJDirty, lo, hi, func(addr int) byte { return p.vramOBJ.Read8(uint32(addr)) })
}

func (p *PPU) OnWriteExtPal_BG(lo, hi int) {
	p.onRegionWrite(p.renderExtPalBG, &p.extPalBGDirty, lo, hi, func(addr int) byte { return p.extPalBG.Read8(uint32(addr)) })
}

func (p *PPU) OnWriteExtPal_OBJ(lo, hi int) {
	p.onRegionWrite(p.renderExtPalOBJ, &p.extPalOBJDirty, lo, hi, func(addr int) byte { return p.extPalOBJ.Read8(uint32(addr)) })
}

func (p *PPU) OnWriteVRAM_LCDC(lo, hi int) {
	p.onRegionWrite(p.renderVRAMLCDC, &p.vramLCDCDirty, lo, hi, func(addr int) byte { return p.vramLCDC.Read8(uint32(addr)) })
}

func (p *PPU) OnWritePRAM(lo, hi int) {
	p.onRegionWrite(p.renderPRAM, &p.pramDirty, lo, hi, func(addr int) byte { return p.pram[addr] })
}

func (p *PPU) OnWriteOAM(lo, hi int) {
	p.onRegionWrite(p.renderOAM, &p.oamDirty, lo, hi, func(addr int) byte { return p.oam[addr] })
}

func (p *PPU) onRegionWrite(dst []byte, dirty *addressRange, lo, hi int, read func(int) byte) {
	if p.vcount < 192 {
		p.WaitForRenderWorker()
		for addr := lo; addr < hi; addr++ {
			dst[addr] = read(addr)
		}
		return
	}
	dirty.expand(lo, hi)
}

// OnDrawScanlineBegin is called at the start of every visible
// scanline's draw period; capturBGAnd3D marks this line for capture to
// main/video memory by the display-capture unit (§4.6.1).
func (p *PPU) OnDrawScanlineBegin(vcount uint16, captureBGAnd3D bool) {
	p.vcount = int(vcount)
	p.submitScanline(vcount, captureBGAnd3D)
}

// OnDrawScanlineEnd advances the mosaic counters and affine reference
// point accumulators, called once per visible scanline after its pixel
// data has been submitted.
func (p *PPU) OnDrawScanlineEnd() {
	mosaic := &p.mmio.Mosaic

	mosaic.BG.counterY++
	if mosaic.BG.counterY == mosaic.BG.SizeY {
		mosaic.BG.counterY = 0
	}
	mosaic.OBJ.counterY++
	if mosaic.OBJ.counterY == mosaic.OBJ.SizeY {
		mosaic.OBJ.counterY = 0
	}

	if p.mmio.DispCnt.BGMode != 0 {
		for i := 0; i < 2; i++ {
			if p.mmio.BGCnt[2+i].EnableMosaic() {
				if mosaic.BG.counterY == 0 {
					p.mmio.BGX[i].Current += int32(mosaic.BG.SizeY) * int32(int16(p.mmio.BGPB[i].Half))
					p.mmio.BGY[i].Current += int32(mosaic.BG.SizeY) * int32(int16(p.mmio.BGPD[i].Half))
				}
			} else {
				p.mmio.BGX[i].Current += int32(int16(p.mmio.BGPB[i].Half))
				p.mmio.BGY[i].Current += int32(int16(p.mmio.BGPD[i].Half))
			}
		}
	}
}

// OnBlankScanlineBegin is called at the start of every VBlank-region
// scanline's blank period (vcount 192-262); at vcount 192 it also
// reloads the affine reference points and mosaic counters for the next
// frame.
func (p *PPU) OnBlankScanlineBegin(vcount uint16) {
	p.vcount = int(vcount)

	if vcount == 192 {
		p.mmio.Mosaic.BG.counterY = 0
		p.mmio.Mosaic.OBJ.counterY = 0

		p.mmio.BGX[0].Current = int32(p.mmio.BGX[0].Initial)
		p.mmio.BGY[0].Current = int32(p.mmio.BGY[0].Initial)
		p.mmio.BGX[1].Current = int32(p.mmio.BGX[1].Initial)
		p.mmio.BGY[1].Current = int32(p.mmio.BGY[1].Initial)
	}

	p.submitScanline(vcount, false)
}

// renderScanline dispatches to one of DISPCNT's four display modes:
// normal (rendered BG/OBJ composite), VRAM-display (a raw framebuffer
// bank), main-memory display (out of scope, see renderMainMemoryDisplay)
// or display-off (white).
func (p *PPU) renderScanline(vcount uint16, captureBGAnd3D bool) {
	displayMode := p.mmioCopy[vcount].DispCnt.DisplayMode

	if captureBGAnd3D || displayMode == 1 {
		p.renderBackgroundsAndComposite(vcount)
	}

	switch displayMode {
	case 0:
		p.renderDisplayOff(vcount)
	case 1:
		p.renderNormal(vcount)
	case 2:
		p.renderVideoMemoryDisplay(vcount)
	case 3:
		p.renderMainMemoryDisplay(vcount)
	}
}

func (p *PPU) outputLine(vcount uint16) []uint32 {
	return p.frameBuffer[p.frame][int(vcount)*256 : int(vcount)*256+256]
}

func (p *PPU) renderDisplayOff(vcount uint16) {
	line := p.outputLine(vcount)
	colour := bgr555ToARGB8888(0x7FFF)
	for x := range line {
		line[x] = colour
	}
}

func (p *PPU) renderNormal(vcount uint16) {
	line := p.outputLine(vcount)
	for x := 0; x < 256; x++ {
		line[x] = bgr555ToARGB8888(p.render.composeLine[x])
	}
	p.renderMasterBrightness(vcount)
}

func (p *PPU) renderVideoMemoryDisplay(vcount uint16) {
	line := p.outputLine(vcount)
	block := p.mmioCopy[vcount].DispCnt.VRAMBlock
	base := block*0x20000 + int(vcount)*256*2

	for x := 0; x < 256; x++ {
		colour := readU16(p.renderVRAMLCDC, uint(base+x*2))
		line[x] = bgr555ToARGB8888(colour)
	}

	p.renderMasterBrightness(vcount)
}

// renderMainMemoryDisplay: display mode 3 (ARM7-authored main-memory
// framebuffer capture) has no defined behaviour in the original either
// (ATOM_PANIC("unimplemented")); we render it as display-off rather
// than panic, since a misconfigured guest must not be able to crash the
// core (§ ERROR HANDLING DESIGN: never panic on guest-controlled input).
func (p *PPU) renderMainMemoryDisplay(vcount uint16) {
	p.renderDisplayOff(vcount)
}

// renderMasterBrightness applies MASTER_BRIGHT's whole-screen brighten/
// darken after compositing, using the same packed-channel saturating
// arithmetic as the original (operating on two channels at once via the
// 0xFF00FF/0x00FF00 masks) rather than an unpacked per-channel loop.
func (p *PPU) renderMasterBrightness(vcount uint16) {
	mb := p.mmioCopy[vcount].MasterBright
	if mb.Mode == MasterBrightnessDisable || mb.Factor == 0 {
		return
	}

	factor := uint32(mb.Factor)
	if factor > 16 {
		factor = 16
	}

	line := p.outputLine(vcount)

	if mb.Mode == MasterBrightnessUp {
		for x := range line {
			rgba := line[x]
			inv := ^rgba
			rgba += ((((inv & 0xFF00FF) * factor) & 0xFF00FF0) | (((inv & 0x00FF00) * factor) & 0x00FF000)) >> 4
			line[x] = rgba
		}
	} else {
		for x := range line {
			rgba := line[x]
			rgba -= ((((rgba & 0xFF00FF) * factor) & 0xFF00FF0) | (((rgba & 0x00FF00) * factor) & 0x00FF000)) >> 4
			line[x] = rgba
		}
	}
}

func (p *PPU) renderBackgroundsAndComposite(vcount uint16) {
	mmio := &p.mmioCopy[vcount]

	if mmio.DispCnt.ForcedBlank {
		for x := range p.render.composeLine {
			p.render.composeLine[x] = 0xFFFF
		}
		return
	}

	if mmio.DispCnt.Enable[EnableOBJ] {
		p.renderLayerOAM(vcount)
	} else {
		for i := range p.render.obj {
			p.render.obj[i] = objectPixel{color: colorTransparent}
		}
		p.render.lineContainsAlphaOBJ = false
	}

	bg0Is3D := mmio.DispCnt.EnableBG0_3D || mmio.DispCnt.BGMode == 6

	if mmio.DispCnt.Enable[EnableBG0] {
		if bg0Is3D {
			// 3D-engine BG0 passthrough: out of scope, no 3D engine in
			// this core (§REDESIGN, no GPU-backed renderer); leave BG0
			// transparent rather than drawing stale tile data.
			p.clearBGLine(0)
		} else {
			p.renderLayerText(0, vcount)
		}
	}

	if mmio.DispCnt.Enable[EnableBG1] && mmio.DispCnt.BGMode != 6 {
		p.renderLayerText(1, vcount)
	}

	if mmio.DispCnt.Enable[EnableBG2] {
		switch mmio.DispCnt.BGMode {
		case 0, 1, 3:
			p.renderLayerText(2, vcount)
		default:
			// Affine/extended/large-bitmap BG2: out of scope (see type
			// doc comment); leave transparent.
			p.clearBGLine(2)
		}
	}

	if mmio.DispCnt.Enable[EnableBG3] {
		switch mmio.DispCnt.BGMode {
		case 0:
			p.renderLayerText(3, vcount)
		default:
			p.clearBGLine(3)
		}
	}

	p.composeScanline(vcount, 0, 3)
}

func (p *PPU) clearBGLine(id int) {
	for i := range p.render.bgLine[id] {
		p.render.bgLine[id][i] = colorTransparent
	}
}
