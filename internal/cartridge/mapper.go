package cartridge

import "fmt"

// Mapper models the bank-switching circuit on the cartridge board. All
// variants expose the same read/write contract; IRQ-capable boards
// additionally drive a scanline counter through OnScanlineEnd.
type Mapper interface {
	ReadPRG(address uint16) uint8
	WritePRG(address uint16, value uint8)
	ReadCHR(address uint16) uint8
	WriteCHR(address uint16, value uint8)

	// Mirror returns the effective nametable mirroring. Most boards
	// hardwire it from the header; MMC1 and MMC3 switch it at runtime.
	Mirror() MirrorMode

	// OnScanlineEnd is called once per rendered scanline.
	OnScanlineEnd()

	// PendingIRQ reports and clears a pending mapper interrupt.
	PendingIRQ() bool
}

// newMapper constructs the mapper variant for the given iNES id. The
// supported set is closed; anything else is a load error.
func newMapper(id uint8, cart *Cartridge) (Mapper, error) {
	switch id {
	case 0:
		return newMapperNROM(cart), nil
	case 1:
		return newMapperMMC1(cart), nil
	case 2:
		return newMapperUNROM(cart), nil
	case 3:
		return newMapperCNROM(cart), nil
	case 4:
		return newMapperMMC3(cart), nil
	default:
		return nil, fmt.Errorf("%w: id %d", ErrUnsupportedMapper, id)
	}
}

// baseMapper carries the behavior shared by all boards: header
// mirroring, no IRQ line, and the SRAM window at $6000-$7FFF.
type baseMapper struct {
	cart *Cartridge
}

func (m *baseMapper) Mirror() MirrorMode { return m.cart.mirror }
func (m *baseMapper) OnScanlineEnd()     {}
func (m *baseMapper) PendingIRQ() bool   { return false }
