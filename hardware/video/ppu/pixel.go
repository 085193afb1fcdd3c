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

// colorTransparent marks a decoded pixel as carrying no colour (palette
// index 0, or an OBJ pixel with nothing drawn there). It borrows bit 15
// of the BGR555 colour space, which genuine opaque colours never set.
const colorTransparent uint16 = 0x8000

// readPalette16 reads one BGR555 colour from a 16-colour sub-palette:
// bank 0 is the background palette, bank 1 the OBJ palette, each split
// into sixteen 16-entry slots (PRAM is 0x400 bytes, 0x200 per bank).
func readPalette16(pram []byte, bank, palette, index uint) uint16 {
	offset := bank<<9 | palette<<5 | index<<1
	return readU16(pram, offset) & 0x7FFF
}

// readPaletteFull reads one BGR555 colour from a bank's flat 256-colour
// palette (full-palette / 8bpp mode without an extended palette).
func readPaletteFull(pram []byte, bank, index uint) uint16 {
	return readU16(pram, bank<<9|index<<1) & 0x7FFF
}

func readU16(mem []byte, offset uint) uint16 {
	return uint16(mem[offset]) | uint16(mem[offset+1])<<8
}

func readU32(mem []byte, offset uint) uint32 {
	return uint32(mem[offset]) | uint32(mem[offset+1])<<8 | uint32(mem[offset+2])<<16 | uint32(mem[offset+3])<<24
}

// decodeTileLine4BPP unpacks one 8-pixel row of a 4bpp background tile
// (4 bits/pixel, one 32-bit word per row) into buffer, applying
// horizontal flip and resolving palette index 0 to transparent.
func decodeTileLine4BPP(buffer []uint16, vram []byte, pram []byte, base uint32, palette, number, y uint, flip bool) {
	xorX := 0
	if flip {
		xorX = 7
	}
	data := readU32(vram, uint(base)+(number<<5|y<<2))

	for x := 0; x < 8; x++ {
		index := uint(data & 0xF)
		if index == 0 {
			buffer[x^xorX] = colorTransparent
		} else {
			buffer[x^xorX] = readPalette16(pram, 0, palette, index)
		}
		data >>= 4
	}
}

// decodeTileLine8BPP unpacks one 8-pixel row of an 8bpp background tile
// (8 bits/pixel, 64 bits per row), resolving through extended palette
// slot extpalSlot whenever extpalEnabled (DISPCNT's enable_extpal_bg)
// is set; the layer's own BGxCNT bit only picks the slot.
func decodeTileLine8BPP(buffer []uint16, vram []byte, pram []byte, extpal []byte, base uint32, palette, extpalSlot, number, y uint, flip, extpalEnabled bool) {
	xorX := 0
	if flip {
		xorX = 7
	}
	rowOffset := uint(base) + (number<<6 | y<<3)

	for x := uint(0); x < 8; x++ {
		index := uint(vram[rowOffset+x])

		switch {
		case index == 0:
			buffer[x^uint(xorX)] = colorTransparent
		case extpalEnabled:
			buffer[x^uint(xorX)] = readU16(extpal, extpalSlot<<13|palette<<9|index<<1) & 0x7FFF
		default:
			buffer[x^uint(xorX)] = readPaletteFull(pram, 0, index)
		}
	}
}

// decodeTilePixel4BPPObj decodes a single OBJ pixel from 4bpp tile data
// addressed directly by (x,y) rather than a whole row at a time, since
// sprite rendering walks pixels in possibly-flipped, possibly-scaled
// affine order.
func decodeTilePixel4BPPObj(vram []byte, pram []byte, address uint32, palette uint, x, y int) uint16 {
	tuple := vram[uint(address)+uint(y<<2|x>>1)]
	var index uint8
	if x&1 != 0 {
		index = tuple >> 4
	} else {
		index = tuple & 0xF
	}
	if index == 0 {
		return colorTransparent
	}
	return readPalette16(pram, 1, palette, uint(index))
}

func decodeTilePixel8BPPBG(vram []byte, pram []byte, extpal []byte, address uint32, enableExtpal bool, palette, extpalSlot uint, x, y int) uint16 {
	index := vram[uint(address)+uint(y<<3)+uint(x)]
	switch {
	case index == 0:
		return colorTransparent
	case enableExtpal:
		return readU16(extpal, extpalSlot<<13|palette<<9|uint(index)<<1) & 0x7FFF
	default:
		return readPaletteFull(pram, 0, uint(index))
	}
}

func decodeTilePixel8BPPObj(vram []byte, pram []byte, extpal []byte, address uint32, extpalEnabled bool, palette uint, x, y int) uint16 {
	index := vram[uint(address)+uint(y<<3)+uint(x)]
	if index == 0 {
		return colorTransparent
	}
	if extpalEnabled {
		return readU16(extpal, (palette<<9|uint(index)<<1)&0x1FFF) & 0x7FFF
	}
	return readPaletteFull(pram, 1, uint(index))
}

// blend applies one of BLDCNT's colour special effects to target1 in
// place, mixing in target2 for alpha blending. Each channel is clamped
// to its 5-bit range, matching the saturating integer math of the
// original's PPU::Blend.
func blend(target1 uint16, target2 uint16, mode BlendMode, alpha BlendAlpha, brightness BlendBrightness) uint16 {
	r1 := int(target1>>0) & 0x1F
	g1 := int(target1>>5) & 0x1F
	b1 := int(target1>>10) & 0x1F

	switch mode {
	case BlendAlphaMode:
		eva := min(16, alpha.A)
		evb := min(16, alpha.B)

		r2 := int(target2>>0) & 0x1F
		g2 := int(target2>>5) & 0x1F
		b2 := int(target2>>10) & 0x1F

		r1 = min((r1*eva+r2*evb)>>4, 31)
		g1 = min((g1*eva+g2*evb)>>4, 31)
		b1 = min((b1*eva+b2*evb)>>4, 31)
	case BlendBrighten:
		evy := min(16, int(brightness.Half))
		r1 += ((31 - r1) * evy) >> 4
		g1 += ((31 - g1) * evy) >> 4
		b1 += ((31 - b1) * evy) >> 4
	case BlendDarken:
		evy := min(16, int(brightness.Half))
		r1 -= (r1 * evy) >> 4
		g1 -= (g1 * evy) >> 4
		b1 -= (b1 * evy) >> 4
	}

	return uint16(r1) | uint16(g1)<<5 | uint16(b1)<<10
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// expand5to8 widens a 5-bit BGR555 channel to 8 bits the way real
// hardware DACs do: replicate the top 3 bits into the low bits rather
// than a plain left-shift, so white (0x1F) maps to 0xFF rather than
// 0xF8.
func expand5to8(c uint16) uint8 {
	return uint8(c<<3) | uint8(c>>2)
}

// bgr555ToARGB8888 converts one composited BGR555 pixel (as produced by
// ComposeScanline, with bit 15 always set) into a 32-bit ARGB colour
// suitable for the double-buffered frame buffer GetFrameBuffer exposes.
func bgr555ToARGB8888(c uint16) uint32 {
	r := expand5to8(c & 0x1F)
	g := expand5to8((c >> 5) & 0x1F)
	b := expand5to8((c >> 10) & 0x1F)
	return 0xFF000000 | uint32(r)<<16 | uint32(g)<<8 | uint32(b)
}
