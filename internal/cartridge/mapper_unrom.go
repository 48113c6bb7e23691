package cartridge

// mapperUNROM implements the UxROM boards (iNES mapper 2). A single
// register selects the 16KB PRG bank at $8000-$BFFF; $C000-$FFFF is
// hardwired to the last bank. CHR is an unbanked 8KB, usually RAM.
type mapperUNROM struct {
	baseMapper

	bankSelect uint8
}

func newMapperUNROM(cart *Cartridge) *mapperUNROM {
	return &mapperUNROM{baseMapper: baseMapper{cart}}
}

func (m *mapperUNROM) ReadPRG(address uint16) uint8 {
	switch {
	case address >= 0xC000:
		rom := m.cart.prgROM
		last := len(rom)/prgBankSize - 1
		return rom[int(address&0x3FFF)+last*prgBankSize]
	case address >= 0x8000:
		rom := m.cart.prgROM
		offset := int(address&0x3FFF) + int(m.bankSelect)*prgBankSize
		return rom[offset%len(rom)]
	case address >= 0x6000:
		return m.cart.readSRAM(address)
	default:
		return 0
	}
}

func (m *mapperUNROM) WritePRG(address uint16, value uint8) {
	switch {
	case address >= 0x8000:
		m.bankSelect = value & 0x0F
	case address >= 0x6000:
		m.cart.writeSRAM(address, value)
	}
}

func (m *mapperUNROM) ReadCHR(address uint16) uint8 {
	return m.cart.chrMem[int(address)%len(m.cart.chrMem)]
}

func (m *mapperUNROM) WriteCHR(address uint16, value uint8) {
	if m.cart.hasCHRRAM {
		m.cart.chrMem[int(address)%len(m.cart.chrMem)] = value
	}
}
