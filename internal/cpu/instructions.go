package cpu

// execute runs the operation for the decoded opcode. The returned value
// is the number of extra cycles beyond the table's base count (branch
// taken / branch page-cross penalties).
func (cpu *CPU) execute(opcode uint8, address uint16, pageCrossed bool) uint8 {
	switch opcode {
	// Load/store
	case 0xA9, 0xA5, 0xB5, 0xAD, 0xBD, 0xB9, 0xA1, 0xB1: // LDA
		cpu.A = cpu.memory.Read(address)
		cpu.setZN(cpu.A)
	case 0xA2, 0xA6, 0xB6, 0xAE, 0xBE: // LDX
		cpu.X = cpu.memory.Read(address)
		cpu.setZN(cpu.X)
	case 0xA0, 0xA4, 0xB4, 0xAC, 0xBC: // LDY
		cpu.Y = cpu.memory.Read(address)
		cpu.setZN(cpu.Y)
	case 0x85, 0x95, 0x8D, 0x9D, 0x99, 0x81, 0x91: // STA
		cpu.memory.Write(address, cpu.A)
	case 0x86, 0x96, 0x8E: // STX
		cpu.memory.Write(address, cpu.X)
	case 0x84, 0x94, 0x8C: // STY
		cpu.memory.Write(address, cpu.Y)

	// Arithmetic
	case 0x69, 0x65, 0x75, 0x6D, 0x7D, 0x79, 0x61, 0x71: // ADC
		cpu.adc(cpu.memory.Read(address))
	case 0xE9, 0xEB, 0xE5, 0xF5, 0xED, 0xFD, 0xF9, 0xE1, 0xF1: // SBC ($EB unofficial)
		cpu.adc(cpu.memory.Read(address) ^ 0xFF)

	// Logic
	case 0x29, 0x25, 0x35, 0x2D, 0x3D, 0x39, 0x21, 0x31: // AND
		cpu.A &= cpu.memory.Read(address)
		cpu.setZN(cpu.A)
	case 0x09, 0x05, 0x15, 0x0D, 0x1D, 0x19, 0x01, 0x11: // ORA
		cpu.A |= cpu.memory.Read(address)
		cpu.setZN(cpu.A)
	case 0x49, 0x45, 0x55, 0x4D, 0x5D, 0x59, 0x41, 0x51: // EOR
		cpu.A ^= cpu.memory.Read(address)
		cpu.setZN(cpu.A)
	case 0x24, 0x2C: // BIT
		value := cpu.memory.Read(address)
		cpu.N = value&flagN != 0
		cpu.V = value&flagV != 0
		cpu.Z = cpu.A&value == 0

	// Shifts and rotates
	case 0x0A: // ASL A
		cpu.A = cpu.asl(cpu.A)
	case 0x06, 0x16, 0x0E, 0x1E: // ASL
		cpu.memory.Write(address, cpu.asl(cpu.memory.Read(address)))
	case 0x4A: // LSR A
		cpu.A = cpu.lsr(cpu.A)
	case 0x46, 0x56, 0x4E, 0x5E: // LSR
		cpu.memory.Write(address, cpu.lsr(cpu.memory.Read(address)))
	case 0x2A: // ROL A
		cpu.A = cpu.rol(cpu.A)
	case 0x26, 0x36, 0x2E, 0x3E: // ROL
		cpu.memory.Write(address, cpu.rol(cpu.memory.Read(address)))
	case 0x6A: // ROR A
		cpu.A = cpu.ror(cpu.A)
	case 0x66, 0x76, 0x6E, 0x7E: // ROR
		cpu.memory.Write(address, cpu.ror(cpu.memory.Read(address)))

	// Compares
	case 0xC9, 0xC5, 0xD5, 0xCD, 0xDD, 0xD9, 0xC1, 0xD1: // CMP
		cpu.compare(cpu.A, cpu.memory.Read(address))
	case 0xE0, 0xE4, 0xEC: // CPX
		cpu.compare(cpu.X, cpu.memory.Read(address))
	case 0xC0, 0xC4, 0xCC: // CPY
		cpu.compare(cpu.Y, cpu.memory.Read(address))

	// Increments and decrements
	case 0xE6, 0xF6, 0xEE, 0xFE: // INC
		value := cpu.memory.Read(address) + 1
		cpu.memory.Write(address, value)
		cpu.setZN(value)
	case 0xC6, 0xD6, 0xCE, 0xDE: // DEC
		value := cpu.memory.Read(address) - 1
		cpu.memory.Write(address, value)
		cpu.setZN(value)
	case 0xE8: // INX
		cpu.X++
		cpu.setZN(cpu.X)
	case 0xCA: // DEX
		cpu.X--
		cpu.setZN(cpu.X)
	case 0xC8: // INY
		cpu.Y++
		cpu.setZN(cpu.Y)
	case 0x88: // DEY
		cpu.Y--
		cpu.setZN(cpu.Y)

	// Register transfers
	case 0xAA: // TAX
		cpu.X = cpu.A
		cpu.setZN(cpu.X)
	case 0x8A: // TXA
		cpu.A = cpu.X
		cpu.setZN(cpu.A)
	case 0xA8: // TAY
		cpu.Y = cpu.A
		cpu.setZN(cpu.Y)
	case 0x98: // TYA
		cpu.A = cpu.Y
		cpu.setZN(cpu.A)
	case 0xBA: // TSX
		cpu.X = cpu.SP
		cpu.setZN(cpu.X)
	case 0x9A: // TXS
		cpu.SP = cpu.X

	// Stack
	case 0x48: // PHA
		cpu.push(cpu.A)
	case 0x68: // PLA
		cpu.A = cpu.pop()
		cpu.setZN(cpu.A)
	case 0x08: // PHP
		cpu.push(cpu.Status() | flagB)
	case 0x28: // PLP
		cpu.SetStatus(cpu.pop())

	// Flags
	case 0x18: // CLC
		cpu.C = false
	case 0x38: // SEC
		cpu.C = true
	case 0x58: // CLI
		cpu.I = false
	case 0x78: // SEI
		cpu.I = true
	case 0xB8: // CLV
		cpu.V = false
	case 0xD8: // CLD
		cpu.D = false
	case 0xF8: // SED
		cpu.D = true

	// Control flow
	case 0x4C, 0x6C: // JMP
		cpu.PC = address
	case 0x20: // JSR
		cpu.pushWord(cpu.PC - 1)
		cpu.PC = address
	case 0x60: // RTS
		cpu.PC = cpu.popWord() + 1
	case 0x40: // RTI
		cpu.SetStatus(cpu.pop())
		cpu.PC = cpu.popWord()
	case 0x00: // BRK
		// BRK pushes the address of the byte after its padding byte.
		cpu.PC++
		cpu.pushWord(cpu.PC)
		cpu.push(cpu.Status() | flagB)
		cpu.I = true
		cpu.PC = cpu.readWord(irqVector)

	// Branches
	case 0x90: // BCC
		return cpu.branch(!cpu.C, address, pageCrossed)
	case 0xB0: // BCS
		return cpu.branch(cpu.C, address, pageCrossed)
	case 0xD0: // BNE
		return cpu.branch(!cpu.Z, address, pageCrossed)
	case 0xF0: // BEQ
		return cpu.branch(cpu.Z, address, pageCrossed)
	case 0x10: // BPL
		return cpu.branch(!cpu.N, address, pageCrossed)
	case 0x30: // BMI
		return cpu.branch(cpu.N, address, pageCrossed)
	case 0x50: // BVC
		return cpu.branch(!cpu.V, address, pageCrossed)
	case 0x70: // BVS
		return cpu.branch(cpu.V, address, pageCrossed)

	// Stable unofficial opcodes
	case 0xA3, 0xA7, 0xAF, 0xB3, 0xB7, 0xBF: // LAX
		cpu.A = cpu.memory.Read(address)
		cpu.X = cpu.A
		cpu.setZN(cpu.A)
	case 0x83, 0x87, 0x8F, 0x97: // SAX
		cpu.memory.Write(address, cpu.A&cpu.X)
	case 0xC3, 0xC7, 0xCF, 0xD3, 0xD7, 0xDB, 0xDF: // DCP = DEC + CMP
		value := cpu.memory.Read(address) - 1
		cpu.memory.Write(address, value)
		cpu.compare(cpu.A, value)
	case 0xE3, 0xE7, 0xEF, 0xF3, 0xF7, 0xFB, 0xFF: // ISB = INC + SBC
		value := cpu.memory.Read(address) + 1
		cpu.memory.Write(address, value)
		cpu.adc(value ^ 0xFF)
	case 0x03, 0x07, 0x0F, 0x13, 0x17, 0x1B, 0x1F: // SLO = ASL + ORA
		value := cpu.asl(cpu.memory.Read(address))
		cpu.memory.Write(address, value)
		cpu.A |= value
		cpu.setZN(cpu.A)
	case 0x23, 0x27, 0x2F, 0x33, 0x37, 0x3B, 0x3F: // RLA = ROL + AND
		value := cpu.rol(cpu.memory.Read(address))
		cpu.memory.Write(address, value)
		cpu.A &= value
		cpu.setZN(cpu.A)
	case 0x43, 0x47, 0x4F, 0x53, 0x57, 0x5B, 0x5F: // SRE = LSR + EOR
		value := cpu.lsr(cpu.memory.Read(address))
		cpu.memory.Write(address, value)
		cpu.A ^= value
		cpu.setZN(cpu.A)
	case 0x63, 0x67, 0x6F, 0x73, 0x77, 0x7B, 0x7F: // RRA = ROR + ADC
		value := cpu.ror(cpu.memory.Read(address))
		cpu.memory.Write(address, value)
		cpu.adc(value)

	default:
		// NOP family and the unstable opcodes decoded as NOPs. The
		// operand bytes were already consumed by operandAddress.
	}
	return 0
}

// adc adds value and carry into A, setting C, V, Z and N. SBC routes
// through here with the operand inverted.
func (cpu *CPU) adc(value uint8) {
	carry := uint16(0)
	if cpu.C {
		carry = 1
	}
	result := uint16(cpu.A) + uint16(value) + carry
	// Overflow when both inputs share a sign the result does not.
	cpu.V = (cpu.A^uint8(result))&(value^uint8(result))&0x80 != 0
	cpu.C = result > 0xFF
	cpu.A = uint8(result)
	cpu.setZN(cpu.A)
}

func (cpu *CPU) compare(register, value uint8) {
	cpu.C = register >= value
	cpu.setZN(register - value)
}

func (cpu *CPU) asl(value uint8) uint8 {
	cpu.C = value&0x80 != 0
	value <<= 1
	cpu.setZN(value)
	return value
}

func (cpu *CPU) lsr(value uint8) uint8 {
	cpu.C = value&0x01 != 0
	value >>= 1
	cpu.setZN(value)
	return value
}

func (cpu *CPU) rol(value uint8) uint8 {
	carry := cpu.C
	cpu.C = value&0x80 != 0
	value <<= 1
	if carry {
		value |= 0x01
	}
	cpu.setZN(value)
	return value
}

func (cpu *CPU) ror(value uint8) uint8 {
	carry := cpu.C
	cpu.C = value&0x01 != 0
	value >>= 1
	if carry {
		value |= 0x80
	}
	cpu.setZN(value)
	return value
}

// branch moves PC when taken: +1 cycle, +2 when the target sits on a
// different page than the instruction after the branch.
func (cpu *CPU) branch(taken bool, address uint16, pageCrossed bool) uint8 {
	if !taken {
		return 0
	}
	cpu.PC = address
	if pageCrossed {
		return 2
	}
	return 1
}
