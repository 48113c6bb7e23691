package cartridge

// mapperNROM implements NROM (iNES mapper 0), the board with no bank
// switching at all. 16KB PRG ROMs are mirrored across the 32KB window;
// CHR is a single fixed 8KB bank.
type mapperNROM struct {
	baseMapper
}

func newMapperNROM(cart *Cartridge) *mapperNROM {
	return &mapperNROM{baseMapper{cart}}
}

func (m *mapperNROM) ReadPRG(address uint16) uint8 {
	switch {
	case address >= 0x8000:
		offset := int(address-0x8000) % len(m.cart.prgROM)
		return m.cart.prgROM[offset]
	case address >= 0x6000:
		return m.cart.readSRAM(address)
	default:
		return 0
	}
}

func (m *mapperNROM) WritePRG(address uint16, value uint8) {
	if address >= 0x6000 && address < 0x8000 {
		m.cart.writeSRAM(address, value)
	}
	// Writes to the ROM window have no registers to hit on NROM.
}

func (m *mapperNROM) ReadCHR(address uint16) uint8 {
	return m.cart.chrMem[int(address)%len(m.cart.chrMem)]
}

func (m *mapperNROM) WriteCHR(address uint16, value uint8) {
	if m.cart.hasCHRRAM {
		m.cart.chrMem[int(address)%len(m.cart.chrMem)] = value
	}
}
