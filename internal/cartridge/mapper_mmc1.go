package cartridge

// mapperMMC1 implements the SxROM boards (iNES mapper 1). Registers are
// loaded serially: five writes to $8000-$FFFF shift one bit each into a
// load register, and the fifth write commits it to the register selected
// by the address. A write with bit 7 set resets the shifter and forces
// PRG mode 3.
type mapperMMC1 struct {
	baseMapper

	loadRegister uint8
	control      uint8
	chrBank0     uint8
	chrBank1     uint8
	prgBank      uint8
}

func newMapperMMC1(cart *Cartridge) *mapperMMC1 {
	return &mapperMMC1{
		baseMapper: baseMapper{cart},
		// Power-on: shifter empty, PRG mode 3 (fix last bank at $C000).
		loadRegister: 0x10,
		control:      0x1C,
	}
}

func (m *mapperMMC1) ReadPRG(address uint16) uint8 {
	switch {
	case address >= 0x8000:
		rom := m.cart.prgROM
		bankCount := len(rom) / prgBankSize
		var offset int
		switch (m.control >> 2) & 0x03 {
		case 0, 1:
			// 32KB mode: low bit of the bank number is ignored.
			offset = int(address&0x7FFF) + int(m.prgBank&0x0E)*prgBankSize
		case 2:
			// First bank fixed at $8000, selected bank at $C000.
			if address < 0xC000 {
				offset = int(address & 0x3FFF)
			} else {
				offset = int(address&0x3FFF) + int(m.prgBank&0x0F)*prgBankSize
			}
		default:
			// Selected bank at $8000, last bank fixed at $C000.
			if address < 0xC000 {
				offset = int(address&0x3FFF) + int(m.prgBank&0x0F)*prgBankSize
			} else {
				offset = int(address&0x3FFF) + (bankCount-1)*prgBankSize
			}
		}
		return rom[offset%len(rom)]
	case address >= 0x6000:
		return m.cart.readSRAM(address)
	default:
		return 0
	}
}

func (m *mapperMMC1) WritePRG(address uint16, value uint8) {
	switch {
	case address >= 0x8000:
		if value&0x80 != 0 {
			m.loadRegister = 0x10
			m.control |= 0x0C
			return
		}
		commit := m.loadRegister&0x01 != 0
		m.loadRegister = (m.loadRegister >> 1) | ((value & 0x01) << 4)
		if commit {
			switch address & 0x6000 {
			case 0x0000:
				m.control = m.loadRegister
			case 0x2000:
				m.chrBank0 = m.loadRegister
			case 0x4000:
				m.chrBank1 = m.loadRegister
			case 0x6000:
				m.prgBank = m.loadRegister
			}
			m.loadRegister = 0x10
		}
	case address >= 0x6000:
		m.cart.writeSRAM(address, value)
	}
}

func (m *mapperMMC1) chrOffset(address uint16) int {
	const bank4K = 0x1000
	if m.control&0x10 == 0 {
		// 8KB mode: low bit of the bank number is ignored.
		return int(address) + int(m.chrBank0&0x1E)*bank4K
	}
	if address < 0x1000 {
		return int(address&0x0FFF) + int(m.chrBank0)*bank4K
	}
	return int(address&0x0FFF) + int(m.chrBank1)*bank4K
}

func (m *mapperMMC1) ReadCHR(address uint16) uint8 {
	return m.cart.chrMem[m.chrOffset(address)%len(m.cart.chrMem)]
}

func (m *mapperMMC1) WriteCHR(address uint16, value uint8) {
	if m.cart.hasCHRRAM {
		m.cart.chrMem[m.chrOffset(address)%len(m.cart.chrMem)] = value
	}
}

func (m *mapperMMC1) Mirror() MirrorMode {
	switch m.control & 0x03 {
	case 0:
		return MirrorSingleScreen0
	case 1:
		return MirrorSingleScreen1
	case 2:
		return MirrorVertical
	default:
		return MirrorHorizontal
	}
}
