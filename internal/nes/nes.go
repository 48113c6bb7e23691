// Package nes assembles the console: CPU, PPU, bus, cartridge and
// controller ports, clocked at the NTSC 1:3 CPU:PPU ratio.
//
// The console is single threaded and deterministic: the same cartridge
// and the same controller inputs produce the same frames.
package nes

import (
	"fmt"
	"os"

	"nescore/internal/bus"
	"nescore/internal/cartridge"
	"nescore/internal/cpu"
	"nescore/internal/input"
	"nescore/internal/ppu"
)

// OAM DMA suspends the CPU for 513 cycles, 514 when it starts on an
// odd CPU cycle.
const dmaStallCycles = 513

// Nes is a complete console.
type Nes struct {
	cpu  *cpu.CPU
	ppu  *ppu.PPU
	bus  *bus.Bus
	cart *cartridge.Cartridge

	controller1 *input.Controller
	controller2 *input.Controller

	cycleCount uint64
}

// New builds a console around a loaded cartridge and runs the power-on
// reset.
func New(cart *cartridge.Cartridge) *Nes {
	controller1 := input.New()
	controller2 := input.New()

	vram := bus.NewVRAM(cart)
	p := ppu.New(vram)
	b := bus.New(cart, p, controller1, controller2)
	c := cpu.New(b)

	n := &Nes{
		cpu:         c,
		ppu:         p,
		bus:         b,
		cart:        cart,
		controller1: controller1,
		controller2: controller2,
	}
	p.SetNMICallback(c.TriggerNMI)
	p.SetScanlineCallback(cart.OnScanlineEnd)

	n.Reset()
	return n
}

// Load parses an iNES image and builds a console around it.
func Load(data []byte) (*Nes, error) {
	cart, err := cartridge.Load(data)
	if err != nil {
		return nil, err
	}
	return New(cart), nil
}

// LoadFile reads an iNES file from disk and builds a console around it.
func LoadFile(path string) (*Nes, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rom: %w", err)
	}
	n, err := Load(data)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return n, nil
}

// Reset performs a console reset. Cartridge and controller state
// survive; CPU and PPU return to their power-on state.
func (n *Nes) Reset() {
	n.ppu.Reset()
	n.cpu.Reset()
	n.controller1.Reset()
	n.controller2.Reset()
	n.cycleCount = n.cpu.Cycles()
	// The reset sequence itself takes 7 CPU cycles.
	n.ppu.TickN(3 * 7)
}

// Cycle executes one CPU instruction (or one interrupt sequence) and
// advances the PPU three dots per CPU cycle. An OAM DMA triggered by
// the instruction runs to completion, including its stall cycles.
// Returns the CPU cycles consumed.
func (n *Nes) Cycle() uint64 {
	cycles := n.cpu.Step()

	if page, pending := n.bus.TakeDMA(); pending {
		n.bus.RunOAMDMA(page)
		stall := uint64(dmaStallCycles)
		if (n.cycleCount+cycles)&1 == 1 {
			stall++
		}
		cycles += stall
	}
	n.cycleCount += cycles

	n.ppu.TickN(3 * cycles)

	if n.cart.PendingIRQ() {
		n.cpu.TriggerIRQ()
	}
	return cycles
}

// Frame runs the console until the PPU completes the current frame,
// then returns the frame buffer.
func (n *Nes) Frame() []uint32 {
	start := n.ppu.FrameCount()
	for n.ppu.FrameCount() == start {
		n.Cycle()
	}
	return n.ppu.FrameBuffer()
}

// FrameBuffer returns the PPU frame buffer, one 0xAARRGGBB value per
// pixel in row-major order.
func (n *Nes) FrameBuffer() []uint32 {
	return n.ppu.FrameBuffer()
}

// FrameCount returns the number of frames completed since power-on.
func (n *Nes) FrameCount() uint64 {
	return n.ppu.FrameCount()
}

// Cycles returns the total CPU cycles executed since power-on.
func (n *Nes) Cycles() uint64 {
	return n.cycleCount
}

// UpdateControllerOne sets the button state of the first controller
// port, or disconnects it when buttons is nil. Bit layout from bit 0:
// A, B, Select, Start, Up, Down, Left, Right.
func (n *Nes) UpdateControllerOne(buttons *uint8) {
	n.controller1.Update(buttons)
}

// UpdateControllerTwo sets the button state of the second controller
// port, or disconnects it when buttons is nil.
func (n *Nes) UpdateControllerTwo(buttons *uint8) {
	n.controller2.Update(buttons)
}

// Cartridge returns the inserted cartridge.
func (n *Nes) Cartridge() *cartridge.Cartridge {
	return n.cart
}
