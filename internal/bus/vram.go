package bus

import (
	"nescore/internal/cartridge"
)

// VRAM implements the PPU's 16KB address space.
//
//	$0000-$1FFF  pattern tables, through the cartridge mapper
//	$2000-$3EFF  nametables, mirrored per the cartridge's mode
//	$3F00-$3FFF  palette RAM, 32 bytes mirrored
//
// Nametable RAM is 4KB so four-screen boards get distinct tables; the
// other mirroring modes only ever index the first 2KB.
type VRAM struct {
	cart       *cartridge.Cartridge
	nametables [0x1000]uint8
	palette    [32]uint8
}

// NewVRAM creates the PPU address space for a cartridge.
func NewVRAM(cart *cartridge.Cartridge) *VRAM {
	return &VRAM{cart: cart}
}

// Read services a PPU read.
func (v *VRAM) Read(address uint16) uint8 {
	address &= 0x3FFF
	switch {
	case address < 0x2000:
		return v.cart.ReadCHR(address)
	case address < 0x3F00:
		return v.nametables[v.nametableIndex(address)]
	default:
		return v.palette[paletteIndex(address)]
	}
}

// Write services a PPU write.
func (v *VRAM) Write(address uint16, value uint8) {
	address &= 0x3FFF
	switch {
	case address < 0x2000:
		v.cart.WriteCHR(address, value)
	case address < 0x3F00:
		v.nametables[v.nametableIndex(address)] = value
	default:
		v.palette[paletteIndex(address)] = value
	}
}

// nametableIndex folds a $2000-$3EFF address into nametable RAM
// according to the cartridge's current mirroring. The mode is read per
// access because mappers switch it at runtime.
func (v *VRAM) nametableIndex(address uint16) int {
	address &= 0x0FFF
	table := int(address >> 10)
	offset := int(address & 0x03FF)

	switch v.cart.Mirror() {
	case cartridge.MirrorHorizontal:
		// Tables 0,1 share the first bank; 2,3 the second.
		table >>= 1
	case cartridge.MirrorVertical:
		table &= 1
	case cartridge.MirrorSingleScreen0:
		table = 0
	case cartridge.MirrorSingleScreen1:
		table = 1
	case cartridge.MirrorFourScreen:
		// All four tables are distinct.
	}
	return table<<10 | offset
}

// paletteIndex folds a $3F00-$3FFF address into the 32-byte palette.
// The sprite backdrop entries $3F10/$3F14/$3F18/$3F1C mirror their
// background counterparts.
func paletteIndex(address uint16) int {
	index := int(address & 0x1F)
	if index >= 16 && index%4 == 0 {
		index -= 16
	}
	return index
}
