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

// Package ppu implements the NDS's two 2D picture-processing units and
// the scanline compositor they each drive (§4.6, §4.7).
package ppu

// BlendMode is BLDCNT's two-bit colour special-effect selector.
type BlendMode int

const (
	BlendOff BlendMode = iota
	BlendAlphaMode
	BlendBrighten
	BlendDarken
)

// Layer indices as addressed by window layer-enable bits and blend
// source/destination target masks: BG0-3, then OBJ, then the backdrop.
const (
	LayerBG0 = 0
	LayerBG1 = 1
	LayerBG2 = 2
	LayerBG3 = 3
	LayerOBJ = 4
	LayerSFX = 5
	LayerBD  = 5
)

// Enable bit indices within DISPCNT's per-layer enable byte.
const (
	EnableBG0 = 0
	EnableBG1 = 1
	EnableBG2 = 2
	EnableBG3 = 3
	EnableOBJ = 4
	EnableWin0 = 5
	EnableWin1 = 6
	EnableOBJWin = 7
)

// Mapping is OBJ tile mapping mode (DISPCNT bits 4 and 6).
type Mapping int

const (
	MappingTwoDimensional Mapping = iota
	MappingOneDimensional
)

// DisplayControl is DISPCNT (per-PPU, at 0x04000000/0x04001000).
type DisplayControl struct {
	BGMode          int
	EnableBG0_3D    bool
	ForcedBlank     bool
	Enable          [8]bool
	DisplayMode     int
	VRAMBlock       int
	HBlankOAMUpdate bool
	TileBlock       int
	MapBlock        int
	EnableExtPalBG  bool
	EnableExtPalOBJ bool

	TileObjMapping    Mapping
	TileObjBoundary   int
	BitmapObjMapping  Mapping
	BitmapObjDimension int
	BitmapObjBoundary  int

	Mask uint32
}

func NewDisplayControl() *DisplayControl {
	return &DisplayControl{Mask: 0xFFFFFFFF}
}

func (d *DisplayControl) Reset() {
	mask := d.Mask
	*d = DisplayControl{Mask: mask}
}

func (d *DisplayControl) ReadByte(offset uint) uint8 {
	switch offset {
	case 0:
		v := uint8(d.BGMode)
		if d.EnableBG0_3D {
			v |= 8
		}
		v |= uint8(d.TileObjMapping) << 4
		v |= uint8(d.BitmapObjDimension) << 5
		v |= uint8(d.BitmapObjMapping) << 6
		if d.ForcedBlank {
			v |= 128
		}
		return v
	case 1:
		var v uint8
		for i := 0; i < 8; i++ {
			if d.Enable[i] {
				v |= 1 << uint(i)
			}
		}
		return v
	case 2:
		v := uint8(d.DisplayMode) | uint8(d.VRAMBlock)<<2 | uint8(d.TileObjBoundary)<<4 | uint8(d.BitmapObjBoundary)<<6
		if d.HBlankOAMUpdate {
			v |= 128
		}
		return v
	case 3:
		v := uint8(d.TileBlock) | uint8(d.MapBlock)<<3
		if d.EnableExtPalBG {
			v |= 64
		}
		if d.EnableExtPalOBJ {
			v |= 128
		}
		return v
	}
	return 0
}

func (d *DisplayControl) WriteByte(offset uint, value uint8) {
	value &= uint8(d.Mask >> (offset * 8))

	switch offset {
	case 0:
		d.BGMode = int(value & 7)
		d.EnableBG0_3D = value&8 != 0
		d.TileObjMapping = Mapping((value >> 4) & 1)
		d.BitmapObjDimension = int((value >> 5) & 1)
		d.BitmapObjMapping = Mapping((value >> 6) & 1)
		d.ForcedBlank = value&128 != 0
	case 1:
		for i := 0; i < 8; i++ {
			d.Enable[i] = value&(1<<uint(i)) != 0
		}
	case 2:
		d.DisplayMode = int(value & 3)
		d.VRAMBlock = int((value >> 2) & 3)
		d.TileObjBoundary = int((value >> 4) & 3)
		d.BitmapObjBoundary = int((value >> 6) & 1)
		d.HBlankOAMUpdate = value&128 != 0
	case 3:
		d.TileBlock = int(value & 7)
		d.MapBlock = int((value >> 3) & 7)
		d.EnableExtPalBG = value&64 != 0
		d.EnableExtPalOBJ = value&128 != 0
	}
}

func (d *DisplayControl) ReadWord() uint32 {
	return uint32(d.ReadByte(0)) | uint32(d.ReadByte(1))<<8 | uint32(d.ReadByte(2))<<16 | uint32(d.ReadByte(3))<<24
}

func (d *DisplayControl) WriteWord(value, mask uint32) {
	if mask&0x000000FF != 0 {
		d.WriteByte(0, uint8(value))
	}
	if mask&0x0000FF00 != 0 {
		d.WriteByte(1, uint8(value>>8))
	}
	if mask&0x00FF0000 != 0 {
		d.WriteByte(2, uint8(value>>16))
	}
	if mask&0xFF000000 != 0 {
		d.WriteByte(3, uint8(value>>24))
	}
}

// BackgroundControl is one BGxCNT register.
type BackgroundControl struct {
	Half uint16
}

func (b *BackgroundControl) Priority() uint16     { return b.Half & 0x3 }
func (b *BackgroundControl) TileBlock() uint16    { return (b.Half >> 2) & 0xF }
func (b *BackgroundControl) EnableMosaic() bool   { return b.Half&(1<<6) != 0 }
func (b *BackgroundControl) FullPalette() bool    { return b.Half&(1<<7) != 0 }
func (b *BackgroundControl) MapBlock() uint16     { return (b.Half >> 8) & 0x1F }
func (b *BackgroundControl) PaletteSlot() uint16  { return (b.Half >> 13) & 0x1 }
func (b *BackgroundControl) Wraparound() bool     { return b.Half&(1<<13) != 0 }
func (b *BackgroundControl) Size() uint16         { return (b.Half >> 14) & 0x3 }

func (b *BackgroundControl) ReadHalf() uint16 { return b.Half }

func (b *BackgroundControl) WriteHalf(value, mask uint16) {
	b.Half = (value & mask) | (b.Half &^ mask)
}

// BackgroundOffset is one BGxHOFS/BGxVOFS register: a 9-bit scroll value.
type BackgroundOffset struct {
	Half uint16
}

func (o *BackgroundOffset) ReadHalf() uint16 { return o.Half }

func (o *BackgroundOffset) WriteHalf(value, mask uint16) {
	writeMask := 0x01FF & mask
	o.Half = (value & writeMask) | (o.Half &^ writeMask)
}

// ReferencePoint is one BGxX/BGxY affine reference-point register: a
// 28-bit signed fixed-point value, sign-extended to 32 bits on write.
type ReferencePoint struct {
	Initial uint32
	Current int32
}

func (r *ReferencePoint) ReadWord() uint32 { return r.Initial }

func (r *ReferencePoint) WriteWord(value, mask uint32) {
	r.Initial = (value & mask & 0x0FFFFFFF) | (r.Initial &^ mask)
	if r.Initial&0x08000000 != 0 {
		r.Initial |= 0xF0000000
	}
	r.Current = int32(r.Initial)
}

// RotateScaleParameter is one BGxPA/PB/PC/PD affine matrix element: a
// 16-bit signed 8.8 fixed-point value.
type RotateScaleParameter struct {
	Half uint16
}

func (p *RotateScaleParameter) WriteHalf(value, mask uint16) {
	p.Half = (value & mask) | (p.Half &^ mask)
}

// WindowRange is one WINxH/WINxV register: an 8-bit max/min pixel range.
type WindowRange struct {
	Half    uint16
	Changed bool
}

func (w *WindowRange) Max() uint16 { return w.Half & 0xFF }
func (w *WindowRange) Min() uint16 { return (w.Half >> 8) & 0xFF }

func (w *WindowRange) WriteHalf(value, mask uint16) {
	w.Half = (value & mask) | (w.Half &^ mask)
	w.Changed = true
}

// WindowLayerSelect is WININ or WINOUT: per-window 6-bit layer masks.
type WindowLayerSelect struct {
	Half uint16
}

func (w *WindowLayerSelect) Win0LayerEnable() uint16 { return w.Half & 0x3F }
func (w *WindowLayerSelect) Win1LayerEnable() uint16 { return (w.Half >> 8) & 0x3F }

func (w *WindowLayerSelect) ReadHalf() uint16 { return w.Half }

func (w *WindowLayerSelect) WriteHalf(value, mask uint16) {
	writeMask := 0x3F3F & mask
	w.Half = (value & writeMask) | (w.Half &^ writeMask)
}

// BlendControl is BLDCNT: special-effect selection and src/dst targets.
type BlendControl struct {
	Half uint16
}

func (b *BlendControl) DstTargets() uint16 { return b.Half & 0x3F }
func (b *BlendControl) BlendMode() BlendMode { return BlendMode((b.Half >> 6) & 0x3) }
func (b *BlendControl) SrcTargets() uint16 { return (b.Half >> 8) & 0x3F }

func (b *BlendControl) ReadHalf() uint16 { return b.Half }

func (b *BlendControl) WriteHalf(value, mask uint16) {
	writeMask := 0x3FFF & mask
	b.Half = (value & writeMask) | (b.Half &^ writeMask)
}

// BlendAlpha is BLDALPHA: the two 5-bit blend weights used by alpha
// blending (EVA/EVB).
type BlendAlpha struct {
	A int
	B int
}

func (b *BlendAlpha) Reset() {
	b.WriteByte(0, 0)
	b.WriteByte(1, 0)
}

func (b *BlendAlpha) ReadByte(offset uint) uint8 {
	if offset == 0 {
		return uint8(b.A)
	}
	return uint8(b.B)
}

func (b *BlendAlpha) WriteByte(offset uint, value uint8) {
	if offset == 0 {
		b.A = int(value & 31)
	} else {
		b.B = int(value & 31)
	}
}

func (b *BlendAlpha) ReadHalf() uint16 {
	return uint16(b.ReadByte(0)) | uint16(b.ReadByte(1))<<8
}

func (b *BlendAlpha) WriteHalf(value, mask uint16) {
	if mask&0x00FF != 0 {
		b.WriteByte(0, uint8(value))
	}
	if mask&0xFF00 != 0 {
		b.WriteByte(1, uint8(value>>8))
	}
}

// BlendBrightness is BLDY: the 5-bit EVY weight used by brighten/darken.
type BlendBrightness struct {
	Half uint16
}

func (b *BlendBrightness) WriteHalf(value, mask uint16) {
	writeMask := 0x001F & mask
	b.Half = (value & writeMask) | (b.Half &^ writeMask)
}

// mosaicAxis holds a mosaic block size and the scanline repeat counter
// used while rendering (not exposed by any register read).
type mosaicAxis struct {
	SizeX     int
	SizeY     int
	counterY  int
}

// Mosaic is MOSAIC: independent background and OBJ mosaic block sizes.
// The original leaves MOSAIC's byte-level packing undocumented in the
// surviving source; we follow the GBA/NDS-documented layout (4-bit
// size-1 fields, BG then OBJ, X then Y per byte) since nothing in the
// corpus contradicts it.
type Mosaic struct {
	BG  mosaicAxis
	OBJ mosaicAxis
}

func (m *Mosaic) Reset() {
	m.WriteByte(0, 0)
	m.WriteByte(1, 0)
}

func (m *Mosaic) WriteByte(offset uint, value uint8) {
	switch offset {
	case 0:
		m.BG.SizeX = int(value&0xF) + 1
		m.BG.SizeY = int((value>>4)&0xF) + 1
	case 1:
		m.OBJ.SizeX = int(value&0xF) + 1
		m.OBJ.SizeY = int((value>>4)&0xF) + 1
	}
}

func (m *Mosaic) WriteHalf(value, mask uint16) {
	if mask&0x00FF != 0 {
		m.WriteByte(0, uint8(value))
	}
	if mask&0xFF00 != 0 {
		m.WriteByte(1, uint8(value>>8))
	}
}

// MasterBrightnessMode selects whole-screen post-composite brighten,
// darken, or no adjustment.
type MasterBrightnessMode int

const (
	MasterBrightnessDisable MasterBrightnessMode = iota
	MasterBrightnessUp
	MasterBrightnessDown
	MasterBrightnessReserved
)

// MasterBrightness is MASTER_BRIGHT: the final whole-screen brighten/
// darken applied after compositing (§ RenderMasterBrightness below).
type MasterBrightness struct {
	Mode   MasterBrightnessMode
	Factor int
}

func (m *MasterBrightness) Reset() {
	m.WriteByte(0, 0)
	m.WriteByte(1, 0)
}

func (m *MasterBrightness) ReadByte(offset uint) uint8 {
	if offset == 0 {
		return uint8(m.Factor)
	}
	return uint8(m.Mode) << 6
}

func (m *MasterBrightness) WriteByte(offset uint, value uint8) {
	if offset == 0 {
		m.Factor = int(value & 0x1F)
	} else {
		m.Mode = MasterBrightnessMode((value >> 6) & 0x3)
	}
}

func (m *MasterBrightness) ReadHalf() uint16 {
	return uint16(m.ReadByte(0)) | uint16(m.ReadByte(1))<<8
}

func (m *MasterBrightness) WriteHalf(value, mask uint16) {
	if mask&0x00FF != 0 {
		m.WriteByte(0, uint8(value))
	}
	if mask&0xFF00 != 0 {
		m.WriteByte(1, uint8(value>>8))
	}
}

// MMIO is one PPU's full register file, snapshotted once per scanline
// into the per-vcount shadow copy the render worker reads from (§4.6).
type MMIO struct {
	DispCnt DisplayControl

	BGCnt  [4]BackgroundControl
	BGHOfs [4]BackgroundOffset
	BGVOfs [4]BackgroundOffset
	BGPA   [2]RotateScaleParameter
	BGPB   [2]RotateScaleParameter
	BGPC   [2]RotateScaleParameter
	BGPD   [2]RotateScaleParameter
	BGX    [2]ReferencePoint
	BGY    [2]ReferencePoint

	WinH [2]WindowRange
	WinV [2]WindowRange
	WinIn  WindowLayerSelect
	WinOut WindowLayerSelect

	BldCnt   BlendControl
	BldAlpha BlendAlpha
	BldY     BlendBrightness

	Mosaic Mosaic

	MasterBright MasterBrightness

	CaptureBGAnd3D bool
}
