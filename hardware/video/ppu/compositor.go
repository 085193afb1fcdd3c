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

// renderState is the render worker's per-scanline scratch space: the
// per-layer pixel buffers ComposeScanline reads from, mirroring the
// original's m_buffer_bg/m_buffer_obj/m_buffer_win member arrays.
type renderState struct {
	composeLine [256]uint16
	bgLine      [4][256]uint16
	winLine     [2][256]bool
	winScanlineEnable [2]bool

	obj [256]objectPixel

	lineContainsAlphaOBJ bool
}

type objectPixel struct {
	color    uint16
	priority uint8
	alpha    bool
	window   bool
}

// renderLayerText renders one scanline of a text-mode background
// (BG mode 0-2's text layers, or BG0-1 in any mode): a 256x256..
// 512x512 tile map of 8x8 tiles, 4bpp or 8bpp, horizontally scrolled by
// BGxHOFS/BGxVOFS. Grounded on PPU::RenderLayerText (not present in the
// surviving composer.cpp/ppu.cpp excerpt; the tile-map addressing below
// follows the documented NDS/GBA text background layout, the same one
// DecodeTileLine4BPP/8BPP in ppu.hpp are shaped to consume) §4.6.
func (p *PPU) renderLayerText(id int, vcount uint16) {
	mmio := &p.mmioCopy[vcount]
	bgcnt := &mmio.BGCnt[id]

	screenBlock := uint32(bgcnt.MapBlock()) * 0x800
	charBlock := uint32(bgcnt.TileBlock()) * 0x4000
	screenBlock += uint32(mmio.DispCnt.MapBlock) * 0x10000
	charBlock += uint32(mmio.DispCnt.TileBlock) * 0x10000

	sizeIndex := bgcnt.Size()
	widthTiles := [4]int{32, 64, 32, 64}[sizeIndex]
	heightTiles := [4]int{32, 32, 64, 64}[sizeIndex]

	hofs := uint32(mmio.BGHOfs[id].ReadHalf())
	vofs := uint32(mmio.BGVOfs[id].ReadHalf())

	y := (uint32(vcount) + vofs) % uint32(heightTiles*8)
	tileY := y / 8
	fineY := y % 8

	mapBaseY := screenBlock
	if tileY >= 32 {
		mapBaseY += 0x800
		if widthTiles == 64 {
			mapBaseY += 0x800
		}
		tileY -= 32
	}

	fullPalette := bgcnt.FullPalette()

	var buffer [8]uint16

	for screenX := 0; screenX < 256; screenX++ {
		x := (uint32(screenX) + hofs) % uint32(widthTiles*8)
		tileX := x / 8
		fineX := x % 8

		mapBase := mapBaseY
		localTileX := tileX
		if localTileX >= 32 {
			mapBase += 0x800
			localTileX -= 32
		}

		entryAddress := mapBase + (tileY*32+localTileX)*2
		entry := readU16(p.renderVRAMBG, uint(entryAddress))

		number := uint(entry & 0x3FF)
		hFlip := entry&(1<<10) != 0
		vFlip := entry&(1<<11) != 0
		palette := uint(entry>>12) & 0xF

		tileLineY := fineY
		if vFlip {
			tileLineY = 7 - tileLineY
		}

		if fullPalette {
			decodeTileLine8BPP(buffer[:], p.renderVRAMBG, p.renderPRAM, p.renderExtPalBG, charBlock, palette, uint(bgcnt.PaletteSlot()), number, uint(tileLineY), hFlip, mmio.DispCnt.EnableExtPalBG)
		} else {
			decodeTileLine4BPP(buffer[:], p.renderVRAMBG, p.renderPRAM, charBlock, palette, number, uint(tileLineY), hFlip)
		}

		p.render.bgLine[id][screenX] = buffer[fineX]
	}
}

// renderLayerOAM renders regular (non-affine) OBJ sprites for one
// scanline into m_buffer_obj, walking all 128 OAM entries back-to-front
// so lower indices draw on top, per the documented NDS OAM attribute
// layout (attr0: Y/mode/shape, attr1: X/flip/size, attr2: tile/
// priority/palette).
func (p *PPU) renderLayerOAM(vcount uint16) {
	mmio := &p.mmioCopy[vcount]

	for i := range p.render.obj {
		p.render.obj[i] = objectPixel{color: colorTransparent}
	}
	p.render.lineContainsAlphaOBJ = false

	oneDimensional := mmio.DispCnt.TileObjMapping == MappingOneDimensional

	for entry := 127; entry >= 0; entry-- {
		base := entry * 8
		attr0 := readU16(p.renderOAM, uint(base))
		attr1 := readU16(p.renderOAM, uint(base+2))
		attr2 := readU16(p.renderOAM, uint(base+4))

		shape := (attr0 >> 14) & 0x3
		size := (attr1 >> 14) & 0x3
		if shape == 3 {
			continue // prohibited shape
		}

		affine := attr0&(1<<8) != 0
		disabled := !affine && attr0&(1<<9) != 0
		if disabled {
			continue
		}
		if affine {
			// Rotation/scaling OBJ: out of scope for this representative
			// rendering path (§ scope note below); drawn as disabled
			// rather than mis-rendered as a regular sprite.
			continue
		}

		mode := (attr0 >> 10) & 0x3
		if mode == objModeProhibited {
			continue
		}

		width, height := objectDimensions(shape, size)

		y := int(attr0 & 0xFF)
		if y >= 192 {
			y -= 256
		}
		row := int(vcount) - y
		if row < 0 || row >= height {
			continue
		}

		x := int(attr1 & 0x1FF)
		if x >= 256 {
			x -= 512
		}

		vFlip := attr1&(1<<13) != 0
		hFlip := attr1&(1<<12) != 0

		tileRow := row
		if vFlip {
			tileRow = height - 1 - row
		}

		priority := uint8((attr2 >> 10) & 0x3)
		isAlpha := mode == objModeSemiTransparent
		isWindow := mode == objModeWindow

		tileNumber := uint(attr2 & 0x3FF)
		palette := uint(attr2>>12) & 0xF
		is8BPP := attr0&(1<<13) != 0

		tilesWide := width / 8

		for col := 0; col < width; col++ {
			screenX := x + col
			if screenX < 0 || screenX >= 256 {
				continue
			}

			tileCol := col
			if hFlip {
				tileCol = width - 1 - col
			}

			localTileX := tileCol / 8
			localTileY := tileRow / 8
			fineX := tileCol % 8
			fineY := tileRow % 8

			// OBJ tiles are always addressed in fixed 32-byte "char" units
			// regardless of colour depth; an 8bpp tile simply spans two
			// consecutive chars. 1D mapping numbers chars in sprite-local
			// raster order; 2D mapping always uses a 32-char-wide grid.
			charsPerTile := 1
			if is8BPP {
				charsPerTile = 2
			}

			var color uint16
			if is8BPP {
				charIndex := tileNumber
				if oneDimensional {
					charIndex += uint(localTileY*tilesWide+localTileX) * uint(charsPerTile)
				} else {
					charIndex += uint(localTileY*32) + uint(localTileX*charsPerTile)
				}
				address := charIndex * 32
				color = decodeTilePixel8BPPObj(p.renderVRAMOBJ, p.renderPRAM, p.renderExtPalOBJ, uint32(address), mmio.DispCnt.EnableExtPalOBJ, palette, fineX, fineY)
			} else {
				charIndex := tileNumber
				if oneDimensional {
					charIndex += uint(localTileY*tilesWide + localTileX)
				} else {
					charIndex += uint(localTileY*32) + uint(localTileX)
				}
				address := charIndex * 32
				color = decodeTilePixel4BPPObj(p.renderVRAMOBJ, p.renderPRAM, uint32(address), palette, fineX, fineY)
			}

			if color == colorTransparent {
				continue
			}

			existing := p.render.obj[screenX]
			if isWindow {
				existing.window = true
				p.render.obj[screenX] = existing
				continue
			}
			if existing.color != colorTransparent && existing.priority < priority {
				continue
			}

			p.render.obj[screenX] = objectPixel{color: color, priority: priority, alpha: isAlpha}
			if isAlpha {
				p.render.lineContainsAlphaOBJ = true
			}
		}
	}
}

// OBJ attr0 bits 10-11: the 2-bit OBJ mode field (affine and disable
// are separate bits, handled before this field is even read).
const (
	objModeNormal = iota
	objModeSemiTransparent
	objModeWindow
	objModeProhibited
)

func objectDimensions(shape, size uint16) (width, height int) {
	table := [4][4][2]int{
		{{8, 8}, {16, 16}, {32, 32}, {64, 64}},    // square
		{{16, 8}, {32, 8}, {32, 16}, {64, 32}},    // horizontal
		{{8, 16}, {8, 32}, {16, 32}, {32, 64}},    // vertical
		{{0, 0}, {0, 0}, {0, 0}, {0, 0}},
	}
	dim := table[shape][size]
	return dim[0], dim[1]
}

// renderWindow rasterizes window id's horizontal/vertical range for one
// scanline into m_buffer_win, honouring wraparound when max < min the
// way the original's WINH/WINV ranges do.
func (p *PPU) renderWindow(id int, vcount uint16) {
	mmio := &p.mmioCopy[vcount]
	winV := &mmio.WinV[id]

	top := int(winV.Min())
	bottom := int(winV.Max())

	inVertical := false
	if top <= bottom {
		inVertical = int(vcount) >= top && int(vcount) < bottom
	} else {
		inVertical = int(vcount) >= top || int(vcount) < bottom
	}
	p.render.winScanlineEnable[id] = inVertical

	winH := &mmio.WinH[id]
	left := int(winH.Min())
	right := int(winH.Max())

	for x := 0; x < 256; x++ {
		var inHorizontal bool
		if left <= right {
			inHorizontal = x >= left && x < right
		} else {
			inHorizontal = x >= left || x < right
		}
		p.render.winLine[id][x] = inHorizontal
	}
}

// composeScanline mixes the rendered BG/OBJ layers, window gating and
// colour special effects into one finished scanline, grounded closely
// on PPU::ComposeScanlineTmpl (composer.cpp) with the compile-time
// <window,blending,opengl> template collapsed to plain runtime
// branches (idiomatic Go has no equivalent to C++ template
// instantiation, and the OpenGL 3D-layer path those templates gate is
// out of scope: §REDESIGN, no GPU-backed 3D engine in this core).
func (p *PPU) composeScanline(vcount uint16, bgMin, bgMax int) {
	mmio := &p.mmioCopy[vcount]
	dispcnt := &mmio.DispCnt

	backdrop := readPaletteFull(p.renderPRAM, 0, 0)

	window := dispcnt.Enable[EnableWin0] || dispcnt.Enable[EnableWin1] || dispcnt.Enable[EnableOBJWin]
	blending := mmio.BldCnt.BlendMode() != BlendOff || p.render.lineContainsAlphaOBJ

	var bgList [4]int
	bgCount := 0
	for prio := 3; prio >= 0; prio-- {
		for bg := bgMax; bg >= bgMin; bg-- {
			if dispcnt.Enable[bg] && int(mmio.BGCnt[bg].Priority()) == prio {
				bgList[bgCount] = bg
				bgCount++
			}
		}
	}

	win0Active := window && dispcnt.Enable[EnableWin0] && p.render.winScanlineEnable[0]
	win1Active := window && dispcnt.Enable[EnableWin1] && p.render.winScanlineEnable[1]
	win2Active := window && dispcnt.Enable[EnableOBJWin]

	for x := 0; x < 256; x++ {
		var winLayerEnable uint16 = 0x3F
		if window {
			switch {
			case win0Active && p.render.winLine[0][x]:
				winLayerEnable = mmio.WinIn.Win0LayerEnable()
			case win1Active && p.render.winLine[1][x]:
				winLayerEnable = mmio.WinIn.Win1LayerEnable()
			case win2Active && p.render.obj[x].window:
				winLayerEnable = mmio.WinOut.Win1LayerEnable()
			default:
				winLayerEnable = mmio.WinOut.Win0LayerEnable()
			}
		}

		var pixel [2]uint16
		var layer [2]int

		if blending {
			prio := [2]int{4, 4}
			layer[0], layer[1] = LayerBD, LayerBD
			isAlphaOBJ := false

			for i := 0; i < bgCount; i++ {
				bg := bgList[i]
				if !window || winLayerEnable&(1<<uint(bg)) != 0 {
					pixelNew := p.render.bgLine[bg][x]
					if pixelNew != colorTransparent {
						layer[1] = layer[0]
						layer[0] = bg
						prio[1] = prio[0]
						prio[0] = int(mmio.BGCnt[bg].Priority())
					}
				}
			}

			if (!window || winLayerEnable&(1<<uint(LayerOBJ)) != 0) &&
				dispcnt.Enable[EnableOBJ] && p.render.obj[x].color != colorTransparent {
				priority := int(p.render.obj[x].priority)
				if priority <= prio[0] {
					layer[1] = layer[0]
					layer[0] = LayerOBJ
					isAlphaOBJ = p.render.obj[x].alpha
				} else if priority <= prio[1] {
					layer[1] = LayerOBJ
				}
			}

			for i := 0; i < 2; i++ {
				switch layer[i] {
				case 0, 1, 2, 3:
					pixel[i] = p.render.bgLine[layer[i]][x]
				case LayerOBJ:
					pixel[i] = p.render.obj[x].color
				case LayerBD:
					pixel[i] = backdrop
				}
			}

			sfxEnable := !window || winLayerEnable&(1<<uint(LayerSFX)) != 0
			blendMode := mmio.BldCnt.BlendMode()
			haveDst := mmio.BldCnt.DstTargets()&(1<<uint(layer[0])) != 0
			haveSrc := mmio.BldCnt.SrcTargets()&(1<<uint(layer[1])) != 0

			if isAlphaOBJ && haveSrc {
				pixel[0] = blend(pixel[0], pixel[1], BlendAlphaMode, mmio.BldAlpha, mmio.BldY)
			}
			if blendMode == BlendAlphaMode {
				if haveDst && haveSrc && sfxEnable {
					pixel[0] = blend(pixel[0], pixel[1], BlendAlphaMode, mmio.BldAlpha, mmio.BldY)
				}
			} else if blendMode != BlendOff {
				if haveDst && sfxEnable {
					pixel[0] = blend(pixel[0], pixel[1], blendMode, mmio.BldAlpha, mmio.BldY)
				}
			}
		} else {
			pixel[0] = backdrop
			prio0 := 4

			for i := bgCount - 1; i >= 0; i-- {
				bg := bgList[i]
				if !window || winLayerEnable&(1<<uint(bg)) != 0 {
					pixelNew := p.render.bgLine[bg][x]
					if pixelNew != colorTransparent {
						pixel[0] = pixelNew
						prio0 = int(mmio.BGCnt[bg].Priority())
						break
					}
				}
			}

			if (!window || winLayerEnable&(1<<uint(LayerOBJ)) != 0) &&
				dispcnt.Enable[EnableOBJ] &&
				p.render.obj[x].color != colorTransparent &&
				int(p.render.obj[x].priority) <= prio0 {
				pixel[0] = p.render.obj[x].color
			}
		}

		p.render.composeLine[x] = pixel[0] | 0x8000
	}
}
