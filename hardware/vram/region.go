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

// Package vram implements the VRAM router (§4.5): nine physical banks
// (A-I) that VRAMCNT maps into eight overlapping logical regions, each
// built from fixed-size pages that can be empty, backed by a single
// bank, or backed by more than one overlapping bank (whose reads
// OR-combine and whose writes broadcast to every backing bank).
package vram

import (
	"math/bits"
	"unsafe"
)

// DefaultPageSize is the page granularity every region uses unless it
// requests a smaller one (the extended-palette and texture regions).
const DefaultPageSize = 16384

type pageDescriptor struct {
	// page is the single backing bank page for this slot, or nil if the
	// slot is empty or overlapping (backed by 2+ banks, in pages below).
	page []byte

	// pages holds every backing bank page once more than one bank has
	// been mapped onto this slot. Reads across it OR-combine; writes
	// broadcast to all of them.
	pages [][]byte
}

// Region is a logical VRAM window built from a fixed number of pages,
// each independently mappable to a physical bank's pages.
type Region struct {
	pageShift uint32
	pageMask  uint32
	pageSize  uint32
	mask      uint32
	pages     []pageDescriptor
	callbacks []func(offset uint32, size int)
}

// NewRegion creates a Region of pageCount pages, each pageSize bytes,
// wrapping the incoming offset to mask pages (mask is pageCount-1 for
// every region this router uses, matching the original's fixed masks).
func NewRegion(pageCount int, mask uint32, pageSize uint32) *Region {
	shift := bits.TrailingZeros32(pageSize)
	return &Region{
		pageShift: uint32(shift),
		pageMask:  pageSize - 1,
		pageSize:  pageSize,
		mask:      mask,
		pages:     make([]pageDescriptor, pageCount),
	}
}

func (r *Region) descriptor(offset uint32) *pageDescriptor {
	return &r.pages[(offset>>r.pageShift)&r.mask]
}

func readLE(b []byte, off uint32, size uint32) uint64 {
	var v uint64
	for i := uint32(0); i < size; i++ {
		v |= uint64(b[off+i]) << (8 * i)
	}
	return v
}

func writeLE(b []byte, off uint32, size uint32, value uint64) {
	for i := uint32(0); i < size; i++ {
		b[off+i] = byte(value >> (8 * i))
	}
}

func (r *Region) read(offset uint32, size uint32) uint64 {
	desc := r.descriptor(offset)
	off := offset & r.pageMask &^ (size - 1)

	if desc.page != nil {
		return readLE(desc.page, off, size)
	}

	if desc.pages != nil {
		var value uint64
		for _, page := range desc.pages {
			value |= readLE(page, off, size)
		}
		return value
	}

	return 0
}

func (r *Region) write(offset uint32, size uint32, value uint64) {
	desc := r.descriptor(offset)
	off := offset & r.pageMask &^ (size - 1)
	aligned := offset &^ (size - 1)

	if desc.page != nil {
		writeLE(desc.page, off, size, value)
	} else if desc.pages != nil {
		for _, page := range desc.pages {
			writeLE(page, off, size, value)
		}
	} else {
		return
	}

	for _, cb := range r.callbacks {
		cb(aligned, int(size))
	}
}

// Read8 reads a single byte at offset.
func (r *Region) Read8(offset uint32) uint8 { return uint8(r.read(offset, 1)) }

// Read16 reads a halfword at offset, aligning down to an even address.
func (r *Region) Read16(offset uint32) uint16 { return uint16(r.read(offset, 2)) }

// Read32 reads a word at offset, aligning down to a 4-byte address.
func (r *Region) Read32(offset uint32) uint32 { return uint32(r.read(offset, 4)) }

// Write8 writes a single byte at offset.
func (r *Region) Write8(offset uint32, value uint8) { r.write(offset, 1, uint64(value)) }

// Write16 writes a halfword at offset, aligning down to an even address.
func (r *Region) Write16(offset uint32, value uint16) { r.write(offset, 2, uint64(value)) }

// Write32 writes a word at offset, aligning down to a 4-byte address.
func (r *Region) Write32(offset uint32, value uint32) { r.write(offset, 4, uint64(value)) }

func pageOf(data []byte, pageSize uint32) []byte {
	return data[:pageSize]
}

func samePage(a, b []byte) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	return unsafe.SliceData(a) == unsafe.SliceData(b)
}

// Map backs size bytes of this region, starting at offset, with pages
// taken from bank. A page already backed by one other bank becomes
// overlapping (OR-combine reads, broadcast writes); a page already
// overlapping simply gains one more backing bank.
func (r *Region) Map(offset uint32, bank []byte, size int) {
	id := int(offset >> r.pageShift)
	finalID := id + size/int(r.pageSize)
	data := bank

	for id < finalID {
		desc := &r.pages[id]
		id++
		page := pageOf(data, r.pageSize)

		switch {
		case desc.page != nil:
			desc.pages = [][]byte{desc.page, page}
			desc.page = nil
		case desc.pages != nil:
			desc.pages = append(desc.pages, page)
		default:
			desc.page = page
		}

		data = data[r.pageSize:]
	}

	for _, cb := range r.callbacks {
		cb(offset, size)
	}
}

// Unmap removes bank's pages from size bytes of this region, starting
// at offset, collapsing an overlapping slot back to a single backing
// bank once only one remains.
func (r *Region) Unmap(offset uint32, bank []byte, size int) {
	id := int(offset >> r.pageShift)
	finalID := id + size/int(r.pageSize)
	data := bank

	for id < finalID {
		desc := &r.pages[id]
		id++
		page := pageOf(data, r.pageSize)

		switch {
		case samePage(desc.page, page):
			desc.page = nil
		case desc.pages != nil:
			for i, p := range desc.pages {
				if samePage(p, page) {
					desc.pages = append(desc.pages[:i], desc.pages[i+1:]...)
					break
				}
			}
			if len(desc.pages) == 1 {
				desc.page = desc.pages[0]
				desc.pages = nil
			}
		}

		data = data[r.pageSize:]
	}

	for _, cb := range r.callbacks {
		cb(offset, size)
	}
}

// AddCallback registers a callback invoked after every Map/Unmap on
// this region, receiving the same (offset, size) that was just
// (un)mapped. Used by the PPU render worker to know when a dirty-range
// re-copy of its VRAM shadow is required (§4.6.1).
func (r *Region) AddCallback(callback func(offset uint32, size int)) {
	r.callbacks = append(r.callbacks, callback)
}
