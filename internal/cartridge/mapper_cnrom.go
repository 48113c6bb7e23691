package cartridge

// mapperCNROM implements the CNROM boards (iNES mapper 3). PRG is fixed
// like NROM; a single register selects one of up to four 8KB CHR banks.
// The real board has two extra security bits which are ignored here.
type mapperCNROM struct {
	baseMapper

	bankSelect uint8
}

func newMapperCNROM(cart *Cartridge) *mapperCNROM {
	return &mapperCNROM{baseMapper: baseMapper{cart}}
}

func (m *mapperCNROM) ReadPRG(address uint16) uint8 {
	switch {
	case address >= 0x8000:
		rom := m.cart.prgROM
		return rom[int(address-0x8000)%len(rom)]
	case address >= 0x6000:
		return m.cart.readSRAM(address)
	default:
		return 0
	}
}

func (m *mapperCNROM) WritePRG(address uint16, value uint8) {
	switch {
	case address >= 0x8000:
		m.bankSelect = value & 0x03
	case address >= 0x6000:
		m.cart.writeSRAM(address, value)
	}
}

func (m *mapperCNROM) chrOffset(address uint16) int {
	return int(address&0x1FFF) + int(m.bankSelect)*chrBankSize
}

func (m *mapperCNROM) ReadCHR(address uint16) uint8 {
	return m.cart.chrMem[m.chrOffset(address)%len(m.cart.chrMem)]
}

func (m *mapperCNROM) WriteCHR(address uint16, value uint8) {
	if m.cart.hasCHRRAM {
		m.cart.chrMem[m.chrOffset(address)%len(m.cart.chrMem)] = value
	}
}
