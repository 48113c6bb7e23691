// Package cartridge implements iNES ROM parsing and the cartridge
// mapper circuits for the NES.
package cartridge

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Load errors. Callers can match these with errors.Is to distinguish a
// malformed file from an unsupported cartridge.
var (
	ErrInvalidMagic      = errors.New("cartridge: missing iNES magic")
	ErrNoPRGBanks        = errors.New("cartridge: PRG ROM bank count is zero")
	ErrUnsupportedMapper = errors.New("cartridge: unsupported mapper")
	ErrTruncated         = errors.New("cartridge: data shorter than header declares")
	ErrOversized         = errors.New("cartridge: data longer than header declares")
)

const (
	prgBankSize = 16 * 1024
	chrBankSize = 8 * 1024
	trainerSize = 512
	chrRAMSize  = 8 * 1024
	sramSize    = 8 * 1024
)

// MirrorMode represents nametable mirroring.
type MirrorMode uint8

const (
	MirrorHorizontal MirrorMode = iota
	MirrorVertical
	MirrorSingleScreen0
	MirrorSingleScreen1
	MirrorFourScreen
)

// Cartridge holds the ROM banks and the mapper circuit of a loaded
// cartridge. PRG and CHR data are immutable after load except through
// the mapper's banking state (CHR-RAM writes, SRAM writes).
type Cartridge struct {
	prgROM []uint8
	chrMem []uint8 // CHR ROM, or 8KB CHR RAM when the header declares zero banks

	mapperID uint8
	mapper   Mapper

	mirror     MirrorMode
	hasBattery bool
	hasTrainer bool
	hasCHRRAM  bool

	trainer [trainerSize]uint8
	sram    [sramSize]uint8
}

// iNES file header.
type inesHeader struct {
	Magic      [4]uint8
	PRGROMSize uint8 // in 16KB units
	CHRROMSize uint8 // in 8KB units
	Flags6     uint8
	Flags7     uint8
	PRGRAMSize uint8
	TVSystem1  uint8
	TVSystem2  uint8
	Padding    [5]uint8
}

var inesMagic = [4]uint8{'N', 'E', 'S', 0x1A}

// Load parses an iNES image from a byte slice. Unlike LoadFromReader it
// knows the total length, so trailing bytes beyond what the header
// declares are rejected.
func Load(data []byte) (*Cartridge, error) {
	r := bytes.NewReader(data)
	cart, err := LoadFromReader(r)
	if err != nil {
		return nil, err
	}
	if r.Len() > 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrOversized, r.Len())
	}
	return cart, nil
}

// LoadFromReader parses an iNES image from an io.Reader.
// The cartridge is fully usable or rejected outright; there is no
// partial-success state.
func LoadFromReader(r io.Reader) (*Cartridge, error) {
	var header inesHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTruncated, err)
	}

	if header.Magic != inesMagic {
		return nil, ErrInvalidMagic
	}
	if header.PRGROMSize == 0 {
		return nil, ErrNoPRGBanks
	}

	cart := &Cartridge{
		mapperID:   (header.Flags6 >> 4) | (header.Flags7 & 0xF0),
		hasBattery: (header.Flags6 & 0x02) != 0,
		hasTrainer: (header.Flags6 & 0x04) != 0,
	}

	if (header.Flags6 & 0x08) != 0 {
		cart.mirror = MirrorFourScreen
	} else if (header.Flags6 & 0x01) != 0 {
		cart.mirror = MirrorVertical
	} else {
		cart.mirror = MirrorHorizontal
	}

	if cart.hasTrainer {
		if _, err := io.ReadFull(r, cart.trainer[:]); err != nil {
			return nil, fmt.Errorf("%w: trainer: %v", ErrTruncated, err)
		}
	}

	cart.prgROM = make([]uint8, int(header.PRGROMSize)*prgBankSize)
	if _, err := io.ReadFull(r, cart.prgROM); err != nil {
		return nil, fmt.Errorf("%w: PRG ROM: %v", ErrTruncated, err)
	}

	if header.CHRROMSize > 0 {
		cart.chrMem = make([]uint8, int(header.CHRROMSize)*chrBankSize)
		if _, err := io.ReadFull(r, cart.chrMem); err != nil {
			return nil, fmt.Errorf("%w: CHR ROM: %v", ErrTruncated, err)
		}
	} else {
		// No CHR ROM: the cartridge carries 8KB of writable CHR RAM.
		cart.chrMem = make([]uint8, chrRAMSize)
		cart.hasCHRRAM = true
	}

	mapper, err := newMapper(cart.mapperID, cart)
	if err != nil {
		return nil, err
	}
	cart.mapper = mapper

	return cart, nil
}

// ReadPRG reads from the CPU-visible cartridge space ($4020-$FFFF)
// through the mapper.
func (c *Cartridge) ReadPRG(address uint16) uint8 {
	return c.mapper.ReadPRG(address)
}

// WritePRG writes to the CPU-visible cartridge space. Writes into the
// ROM window drive the mapper's bank-select registers.
func (c *Cartridge) WritePRG(address uint16, value uint8) {
	c.mapper.WritePRG(address, value)
}

// ReadCHR reads pattern data ($0000-$1FFF in PPU space) through the
// mapper's CHR banking.
func (c *Cartridge) ReadCHR(address uint16) uint8 {
	return c.mapper.ReadCHR(address)
}

// WriteCHR writes pattern data where the cartridge carries CHR RAM.
func (c *Cartridge) WriteCHR(address uint16, value uint8) {
	c.mapper.WriteCHR(address, value)
}

// Mirror returns the effective nametable mirroring, which bank-switching
// mappers may override at runtime.
func (c *Cartridge) Mirror() MirrorMode {
	return c.mapper.Mirror()
}

// MapperID returns the iNES mapper identifier.
func (c *Cartridge) MapperID() uint8 {
	return c.mapperID
}

// HasBattery reports whether the header declares battery-backed SRAM.
func (c *Cartridge) HasBattery() bool {
	return c.hasBattery
}

// HasTrainer reports whether a 512-byte trainer block was present.
func (c *Cartridge) HasTrainer() bool {
	return c.hasTrainer
}

// OnScanlineEnd notifies the mapper that a rendered scanline finished,
// driving the scanline counter on IRQ-capable mappers.
func (c *Cartridge) OnScanlineEnd() {
	c.mapper.OnScanlineEnd()
}

// PendingIRQ reports and clears the mapper's pending interrupt request.
func (c *Cartridge) PendingIRQ() bool {
	return c.mapper.PendingIRQ()
}

// readSRAM and writeSRAM back the $6000-$7FFF window shared by all
// mapper variants.
func (c *Cartridge) readSRAM(address uint16) uint8 {
	return c.sram[(address-0x6000)%sramSize]
}

func (c *Cartridge) writeSRAM(address uint16, value uint8) {
	c.sram[(address-0x6000)%sramSize] = value
}
