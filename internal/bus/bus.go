// Package bus wires the CPU and PPU address spaces to their devices:
// internal RAM, PPU registers, the controller ports and the cartridge.
package bus

import (
	"nescore/internal/cartridge"
	"nescore/internal/input"
	"nescore/internal/ppu"
)

const ramSize = 0x0800

// Bus implements the CPU's 64KB address space.
//
//	$0000-$1FFF  2KB internal RAM, mirrored every $0800
//	$2000-$3FFF  PPU registers, mirrored every 8 bytes
//	$4000-$4017  APU and I/O ($4014 OAM DMA, $4016/$4017 controllers)
//	$4018-$5FFF  unmapped, reads return the open-bus latch
//	$6000-$FFFF  cartridge space
type Bus struct {
	ram  [ramSize]uint8
	ppu  *ppu.PPU
	cart *cartridge.Cartridge

	controller1 *input.Controller
	controller2 *input.Controller

	// Last value driven onto the bus, returned by unmapped reads.
	openBus uint8

	dmaPending bool
	dmaPage    uint8
}

// New creates a bus connecting the given devices.
func New(cart *cartridge.Cartridge, p *ppu.PPU, controller1, controller2 *input.Controller) *Bus {
	return &Bus{
		ppu:         p,
		cart:        cart,
		controller1: controller1,
		controller2: controller2,
	}
}

// Read services a CPU read.
func (b *Bus) Read(address uint16) uint8 {
	var value uint8
	switch {
	case address < 0x2000:
		value = b.ram[address&0x07FF]
	case address < 0x4000:
		value = b.ppu.ReadRegister(address)
	case address == 0x4016:
		value = b.controller1.Read() | b.openBus&0xE0
	case address == 0x4017:
		value = b.controller2.Read() | b.openBus&0xE0
	case address < 0x4018:
		// APU and write-only I/O registers.
		value = b.openBus
	case address < 0x6000:
		value = b.openBus
	default:
		value = b.cart.ReadPRG(address)
	}
	b.openBus = value
	return value
}

// Write services a CPU write.
func (b *Bus) Write(address uint16, value uint8) {
	b.openBus = value
	switch {
	case address < 0x2000:
		b.ram[address&0x07FF] = value
	case address < 0x4000:
		b.ppu.WriteRegister(address, value)
	case address == 0x4014:
		// OAM DMA is performed by the console loop so the stall
		// cycles land between instructions.
		b.dmaPending = true
		b.dmaPage = value
	case address == 0x4016:
		b.controller1.Write(value)
		b.controller2.Write(value)
	case address < 0x4018:
		// APU registers accept writes but audio is not emulated.
	case address < 0x6000:
		// Unmapped.
	default:
		b.cart.WritePRG(address, value)
	}
}

// TakeDMA reports and clears a pending OAM DMA request, returning the
// source page.
func (b *Bus) TakeDMA() (page uint8, pending bool) {
	if !b.dmaPending {
		return 0, false
	}
	b.dmaPending = false
	return b.dmaPage, true
}

// RunOAMDMA copies the 256-byte page into PPU OAM. The copy goes
// through OAMDATA so it starts at the current OAMADDR and wraps, as the
// hardware DMA unit does.
func (b *Bus) RunOAMDMA(page uint8) {
	base := uint16(page) << 8
	for i := 0; i < 256; i++ {
		b.ppu.WriteRegister(0x2004, b.Read(base+uint16(i)))
	}
}
