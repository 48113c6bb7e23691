package cartridge

// mapperMMC3 implements the TxROM boards (iNES mapper 4). Eight bank
// registers cover 8KB PRG and 1KB/2KB CHR windows, selected through a
// bank-control register at $8000. The board also carries a scanline
// counter clocked at the end of each rendered line that can raise an
// IRQ, which games use for raster effects and status bars.
type mapperMMC3 struct {
	cart *Cartridge

	bankControl uint8
	bankSelect  [8]uint8
	mirror      MirrorMode

	prgRAMWriteProtect bool
	prgRAMEnabled      bool

	irqCounter    uint8
	irqReload     uint8
	irqReloadFlag bool
	irqEnabled    bool
	irqPending    bool
}

func newMapperMMC3(cart *Cartridge) *mapperMMC3 {
	return &mapperMMC3{
		cart:   cart,
		mirror: cart.mirror,
	}
}

func (m *mapperMMC3) ReadPRG(address uint16) uint8 {
	switch {
	case address >= 0x8000:
		rom := m.cart.prgROM
		bankCount := len(rom) / 0x2000
		var offset int
		swap := m.bankControl&0x40 != 0
		switch {
		case address < 0xA000:
			if swap {
				offset = int(address&0x1FFF) + (bankCount-2)*0x2000
			} else {
				offset = int(address&0x1FFF) + int(m.bankSelect[6])*0x2000
			}
		case address < 0xC000:
			offset = int(address&0x1FFF) + int(m.bankSelect[7])*0x2000
		case address < 0xE000:
			if swap {
				offset = int(address&0x1FFF) + int(m.bankSelect[6])*0x2000
			} else {
				offset = int(address&0x1FFF) + (bankCount-2)*0x2000
			}
		default:
			offset = int(address&0x1FFF) + (bankCount-1)*0x2000
		}
		return rom[offset%len(rom)]
	case address >= 0x6000:
		return m.cart.readSRAM(address)
	default:
		return 0
	}
}

func (m *mapperMMC3) WritePRG(address uint16, value uint8) {
	switch {
	case address >= 0x8000:
		even := address&0x01 == 0
		switch {
		case address < 0xA000:
			if even {
				m.bankControl = value
			} else {
				m.bankSelect[m.bankControl&0x07] = value
			}
		case address < 0xC000:
			if even {
				if value&0x01 != 0 {
					m.mirror = MirrorHorizontal
				} else {
					m.mirror = MirrorVertical
				}
			} else {
				m.prgRAMWriteProtect = value&0x40 != 0
				m.prgRAMEnabled = value&0x80 != 0
			}
		case address < 0xE000:
			if even {
				m.irqReload = value
			} else {
				m.irqCounter = m.irqReload
				m.irqReloadFlag = true
			}
		default:
			if even {
				m.irqEnabled = false
				m.irqPending = false
			} else {
				m.irqEnabled = true
			}
		}
	case address >= 0x6000:
		if !m.prgRAMWriteProtect {
			m.cart.writeSRAM(address, value)
		}
	}
}

// chrOffset resolves a PPU address through the six CHR bank registers.
// Registers 0-1 select 2KB banks and 2-5 select 1KB banks; bank-control
// bit 7 swaps which half of the pattern space each group covers.
func (m *mapperMMC3) chrOffset(address uint16) int {
	const bank1K = 0x0400
	a := address & 0x1FFF
	if m.bankControl&0x80 != 0 {
		a ^= 0x1000
	}
	switch {
	case a < 0x0800:
		return int(a&0x07FF) + int(m.bankSelect[0]&0xFE)*bank1K
	case a < 0x1000:
		return int(a&0x07FF) + int(m.bankSelect[1]&0xFE)*bank1K
	case a < 0x1400:
		return int(a&0x03FF) + int(m.bankSelect[2])*bank1K
	case a < 0x1800:
		return int(a&0x03FF) + int(m.bankSelect[3])*bank1K
	case a < 0x1C00:
		return int(a&0x03FF) + int(m.bankSelect[4])*bank1K
	default:
		return int(a&0x03FF) + int(m.bankSelect[5])*bank1K
	}
}

func (m *mapperMMC3) ReadCHR(address uint16) uint8 {
	return m.cart.chrMem[m.chrOffset(address)%len(m.cart.chrMem)]
}

func (m *mapperMMC3) WriteCHR(address uint16, value uint8) {
	if m.cart.hasCHRRAM {
		m.cart.chrMem[m.chrOffset(address)%len(m.cart.chrMem)] = value
	}
}

func (m *mapperMMC3) Mirror() MirrorMode {
	if m.cart.mirror == MirrorFourScreen {
		// Four-screen boards ignore the mirroring register.
		return MirrorFourScreen
	}
	return m.mirror
}

func (m *mapperMMC3) OnScanlineEnd() {
	if m.irqCounter == 0 && m.irqEnabled {
		m.irqPending = true
	}
	if m.irqCounter == 0 || m.irqReloadFlag {
		m.irqCounter = m.irqReload
		m.irqReloadFlag = false
	} else {
		m.irqCounter--
	}
}

func (m *mapperMMC3) PendingIRQ() bool {
	pending := m.irqPending
	m.irqPending = false
	return pending
}
