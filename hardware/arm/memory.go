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

package arm

// Memory is everything a Core fetches instructions from and reads or
// writes data through. hardware/membus's ARM9Bus and ARM7Bus each
// satisfy it; the core never knows which CPU's bus it has been handed.
type Memory interface {
	ReadByte(address uint32) uint8
	WriteByte(address uint32, value uint8)
	ReadHalf(address uint32) uint16
	WriteHalf(address uint32, value uint16)
	ReadWord(address uint32) uint32
	WriteWord(address uint32, value uint32)
}
