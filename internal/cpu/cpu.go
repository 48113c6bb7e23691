// Package cpu implements the 6502 CPU core of the NES.
//
// The opcode table is total over the 256-value opcode space. Unofficial
// opcodes with stable, commonly accepted behavior (LAX, SAX, DCP, ISB,
// SLO, RLA, SRE, RRA, SBC $EB and the NOP family) are implemented; the
// remaining unstable ones decode as NOPs of their documented length.
package cpu

// AddressingMode enumerates the 6502 addressing modes.
type AddressingMode int

const (
	Implied AddressingMode = iota
	Accumulator
	Immediate
	ZeroPage
	ZeroPageX
	ZeroPageY
	Relative
	Absolute
	AbsoluteX
	AbsoluteY
	Indirect
	IndexedIndirect // (zp,X)
	IndirectIndexed // (zp),Y
)

const (
	stackBase = 0x0100

	flagC      = 0x01
	flagZ      = 0x02
	flagI      = 0x04
	flagD      = 0x08
	flagB      = 0x10
	flagUnused = 0x20
	flagV      = 0x40
	flagN      = 0x80

	nmiVector   = 0xFFFA
	resetVector = 0xFFFC
	irqVector   = 0xFFFE

	pageMask = 0xFF00
)

// Instruction describes one opcode: mnemonic, byte length, base cycle
// count, and addressing mode.
type Instruction struct {
	Name   string
	Bytes  uint8
	Cycles uint8
	Mode   AddressingMode
}

// Memory is the CPU's window onto the system bus. Every memory access
// the CPU makes goes through it, so instruction execution is the sole
// driver of bus side effects.
type Memory interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
}

// CPU models the 2A03's 6502 core (decimal mode absent on the NES but
// the D flag is still tracked).
type CPU struct {
	A  uint8  // accumulator
	X  uint8  // index X
	Y  uint8  // index Y
	SP uint8  // stack pointer
	PC uint16 // program counter

	// Status flags
	C bool // carry
	Z bool // zero
	I bool // interrupt disable
	D bool // decimal (unused on the NES)
	B bool // break
	V bool // overflow
	N bool // negative

	memory Memory
	cycles uint64

	nmiPending bool
	irqPending bool
}

// New creates a CPU attached to the given memory. Reset must be called
// before stepping.
func New(memory Memory) *CPU {
	return &CPU{
		memory: memory,
		SP:     0xFD,
	}
}

// Reset performs the power-on/reset sequence: registers to their
// documented state, status = I and unused set, PC loaded from the reset
// vector. The sequence consumes 7 cycles like the real part.
func (cpu *CPU) Reset() {
	cpu.A = 0
	cpu.X = 0
	cpu.Y = 0
	cpu.SP = 0xFD

	cpu.C = false
	cpu.Z = false
	cpu.I = true
	cpu.D = false
	cpu.B = true
	cpu.V = false
	cpu.N = false

	cpu.nmiPending = false
	cpu.irqPending = false

	cpu.PC = cpu.readWord(resetVector)
	cpu.cycles += 7
}

// Step services a pending interrupt if one is due, otherwise executes
// exactly one instruction. Returns the number of cycles consumed, which
// the caller uses to drive the 1:3 CPU:PPU clock ratio.
func (cpu *CPU) Step() uint64 {
	// Interrupts are polled before the next opcode fetch. NMI wins and
	// cannot be masked; IRQ is gated by the I flag.
	if cpu.nmiPending {
		cpu.nmiPending = false
		cpu.interrupt(nmiVector)
		return 7
	}
	if cpu.irqPending && !cpu.I {
		cpu.irqPending = false
		cpu.interrupt(irqVector)
		return 7
	}

	opcode := cpu.memory.Read(cpu.PC)
	instruction := &opcodeTable[opcode]

	address, pageCrossed := cpu.operandAddress(instruction.Mode)
	extra := cpu.execute(opcode, address, pageCrossed)

	if pageCrossed && pageCrossPenalty[opcode] {
		extra++
	}

	total := uint64(instruction.Cycles) + uint64(extra)
	cpu.cycles += total
	return total
}

// TriggerNMI latches a non-maskable interrupt for the next Step.
func (cpu *CPU) TriggerNMI() {
	cpu.nmiPending = true
}

// TriggerIRQ latches a maskable interrupt. It stays pending while the
// I flag is set and is serviced once the flag clears.
func (cpu *CPU) TriggerIRQ() {
	cpu.irqPending = true
}

// Cycles returns the total cycles executed since power-on.
func (cpu *CPU) Cycles() uint64 {
	return cpu.cycles
}

// interrupt pushes PC and status (B clear, unused set) and vectors.
func (cpu *CPU) interrupt(vector uint16) {
	cpu.pushWord(cpu.PC)
	cpu.push((cpu.Status() &^ flagB) | flagUnused)
	cpu.I = true
	cpu.PC = cpu.readWord(vector)
	cpu.cycles += 7
}

// operandAddress resolves the effective address for the addressing mode
// and advances PC past the operand bytes. The second return reports a
// page-boundary crossing for cycle accounting.
func (cpu *CPU) operandAddress(mode AddressingMode) (uint16, bool) {
	switch mode {
	case Implied, Accumulator:
		cpu.PC++
		return 0, false

	case Immediate:
		address := cpu.PC + 1
		cpu.PC += 2
		return address, false

	case ZeroPage:
		address := uint16(cpu.memory.Read(cpu.PC + 1))
		cpu.PC += 2
		return address, false

	case ZeroPageX:
		address := uint16(cpu.memory.Read(cpu.PC+1) + cpu.X)
		cpu.PC += 2
		return address, false

	case ZeroPageY:
		address := uint16(cpu.memory.Read(cpu.PC+1) + cpu.Y)
		cpu.PC += 2
		return address, false

	case Relative:
		offset := int8(cpu.memory.Read(cpu.PC + 1))
		next := cpu.PC + 2
		target := uint16(int32(next) + int32(offset))
		cpu.PC = next // branch instructions move PC themselves when taken
		return target, (next & pageMask) != (target & pageMask)

	case Absolute:
		address := cpu.readWord(cpu.PC + 1)
		cpu.PC += 3
		return address, false

	case AbsoluteX:
		base := cpu.readWord(cpu.PC + 1)
		address := base + uint16(cpu.X)
		cpu.PC += 3
		return address, (base & pageMask) != (address & pageMask)

	case AbsoluteY:
		base := cpu.readWord(cpu.PC + 1)
		address := base + uint16(cpu.Y)
		cpu.PC += 3
		return address, (base & pageMask) != (address & pageMask)

	case Indirect:
		ptr := cpu.readWord(cpu.PC + 1)
		cpu.PC += 3
		return cpu.readWordBug(ptr), false

	case IndexedIndirect:
		ptr := cpu.memory.Read(cpu.PC+1) + cpu.X
		low := uint16(cpu.memory.Read(uint16(ptr)))
		high := uint16(cpu.memory.Read(uint16(ptr + 1))) // wraps in zero page
		cpu.PC += 2
		return high<<8 | low, false

	case IndirectIndexed:
		ptr := cpu.memory.Read(cpu.PC + 1)
		low := uint16(cpu.memory.Read(uint16(ptr)))
		high := uint16(cpu.memory.Read(uint16(ptr + 1)))
		base := high<<8 | low
		address := base + uint16(cpu.Y)
		cpu.PC += 2
		return address, (base & pageMask) != (address & pageMask)

	default:
		cpu.PC++
		return 0, false
	}
}

func (cpu *CPU) readWord(address uint16) uint16 {
	low := uint16(cpu.memory.Read(address))
	high := uint16(cpu.memory.Read(address + 1))
	return high<<8 | low
}

// readWordBug reproduces the JMP (indirect) page-wrap bug: when the
// pointer sits at $xxFF the high byte is fetched from $xx00.
func (cpu *CPU) readWordBug(address uint16) uint16 {
	low := uint16(cpu.memory.Read(address))
	highAddr := (address & pageMask) | uint16(uint8(address)+1)
	high := uint16(cpu.memory.Read(highAddr))
	return high<<8 | low
}

// Stack helpers.

func (cpu *CPU) push(value uint8) {
	cpu.memory.Write(stackBase+uint16(cpu.SP), value)
	cpu.SP--
}

func (cpu *CPU) pop() uint8 {
	cpu.SP++
	return cpu.memory.Read(stackBase + uint16(cpu.SP))
}

func (cpu *CPU) pushWord(value uint16) {
	cpu.push(uint8(value >> 8))
	cpu.push(uint8(value))
}

func (cpu *CPU) popWord() uint16 {
	low := uint16(cpu.pop())
	high := uint16(cpu.pop())
	return high<<8 | low
}

// setZN updates the zero and negative flags from a result value.
func (cpu *CPU) setZN(value uint8) {
	cpu.Z = value == 0
	cpu.N = value&flagN != 0
}

// Status packs the flags into the status register byte; the unused bit
// always reads as set.
func (cpu *CPU) Status() uint8 {
	status := uint8(flagUnused)
	if cpu.C {
		status |= flagC
	}
	if cpu.Z {
		status |= flagZ
	}
	if cpu.I {
		status |= flagI
	}
	if cpu.D {
		status |= flagD
	}
	if cpu.B {
		status |= flagB
	}
	if cpu.V {
		status |= flagV
	}
	if cpu.N {
		status |= flagN
	}
	return status
}

// SetStatus unpacks the status register byte into the flags.
func (cpu *CPU) SetStatus(status uint8) {
	cpu.C = status&flagC != 0
	cpu.Z = status&flagZ != 0
	cpu.I = status&flagI != 0
	cpu.D = status&flagD != 0
	cpu.B = status&flagB != 0
	cpu.V = status&flagV != 0
	cpu.N = status&flagN != 0
}
