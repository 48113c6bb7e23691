package cpu

import "testing"

// MockMemory is a flat 64KB space for exercising the CPU in isolation.
type MockMemory struct {
	data       [0x10000]uint8
	readCount  int
	writeCount int
}

func (m *MockMemory) Read(address uint16) uint8 {
	m.readCount++
	return m.data[address]
}

func (m *MockMemory) Write(address uint16, value uint8) {
	m.writeCount++
	m.data[address] = value
}

// newTestCPU returns a CPU reset to execute from 0x8000.
func newTestCPU() (*CPU, *MockMemory) {
	memory := &MockMemory{}
	memory.data[resetVector] = 0x00
	memory.data[resetVector+1] = 0x80
	cpu := New(memory)
	cpu.Reset()
	return cpu, memory
}

// loadProgram places code at the PC and returns after arming it.
func loadProgram(memory *MockMemory, program ...uint8) {
	copy(memory.data[0x8000:], program)
}

func TestResetState(t *testing.T) {
	cpu, _ := newTestCPU()

	if cpu.PC != 0x8000 {
		t.Errorf("PC = %04X, want 8000", cpu.PC)
	}
	if cpu.SP != 0xFD {
		t.Errorf("SP = %02X, want FD", cpu.SP)
	}
	if !cpu.I {
		t.Error("interrupt disable not set after reset")
	}
	if cpu.Cycles() != 7 {
		t.Errorf("cycles = %d, want 7", cpu.Cycles())
	}
}

func TestLDAImmediateFlags(t *testing.T) {
	tests := []struct {
		value uint8
		zero  bool
		neg   bool
	}{
		{0x42, false, false},
		{0x00, true, false},
		{0x80, false, true},
	}
	for _, tt := range tests {
		cpu, memory := newTestCPU()
		loadProgram(memory, 0xA9, tt.value)

		cycles := cpu.Step()

		if cpu.A != tt.value {
			t.Errorf("A = %02X, want %02X", cpu.A, tt.value)
		}
		if cpu.Z != tt.zero || cpu.N != tt.neg {
			t.Errorf("value %02X: Z=%v N=%v, want Z=%v N=%v", tt.value, cpu.Z, cpu.N, tt.zero, tt.neg)
		}
		if cycles != 2 {
			t.Errorf("cycles = %d, want 2", cycles)
		}
	}
}

func TestADCCarryAndOverflow(t *testing.T) {
	tests := []struct {
		a, operand uint8
		carryIn    bool
		result     uint8
		carry      bool
		overflow   bool
	}{
		{0x01, 0x01, false, 0x02, false, false},
		{0xFF, 0x01, false, 0x00, true, false},
		{0x7F, 0x01, false, 0x80, false, true},
		{0x80, 0xFF, false, 0x7F, true, true},
		{0x00, 0x00, true, 0x01, false, false},
	}
	for _, tt := range tests {
		cpu, memory := newTestCPU()
		loadProgram(memory, 0x69, tt.operand)
		cpu.A = tt.a
		cpu.C = tt.carryIn

		cpu.Step()

		if cpu.A != tt.result || cpu.C != tt.carry || cpu.V != tt.overflow {
			t.Errorf("%02X+%02X(C=%v): A=%02X C=%v V=%v, want A=%02X C=%v V=%v",
				tt.a, tt.operand, tt.carryIn, cpu.A, cpu.C, cpu.V, tt.result, tt.carry, tt.overflow)
		}
	}
}

func TestSBCBorrow(t *testing.T) {
	cpu, memory := newTestCPU()
	loadProgram(memory, 0xE9, 0x10)
	cpu.A = 0x50
	cpu.C = true // no borrow

	cpu.Step()

	if cpu.A != 0x40 {
		t.Errorf("A = %02X, want 40", cpu.A)
	}
	if !cpu.C {
		t.Error("carry cleared, want set (no borrow)")
	}
}

func TestAbsoluteXPageCrossCycles(t *testing.T) {
	// LDA $80F0,X with X=0x20 crosses into $8110.
	cpu, memory := newTestCPU()
	loadProgram(memory, 0xBD, 0xF0, 0x80)
	cpu.X = 0x20
	memory.data[0x8110] = 0x55

	cycles := cpu.Step()

	if cpu.A != 0x55 {
		t.Errorf("A = %02X, want 55", cpu.A)
	}
	if cycles != 5 {
		t.Errorf("cycles = %d, want 5 (4 + page cross)", cycles)
	}

	// Same read without a crossing stays at the base count.
	cpu, memory = newTestCPU()
	loadProgram(memory, 0xBD, 0x10, 0x80)
	cpu.X = 0x20

	if cycles := cpu.Step(); cycles != 4 {
		t.Errorf("cycles = %d, want 4", cycles)
	}
}

func TestStoreHasNoPageCrossPenalty(t *testing.T) {
	cpu, memory := newTestCPU()
	loadProgram(memory, 0x9D, 0xF0, 0x80) // STA $80F0,X
	cpu.X = 0x20
	cpu.A = 0xAA

	if cycles := cpu.Step(); cycles != 5 {
		t.Errorf("cycles = %d, want 5", cycles)
	}
	if memory.data[0x8110] != 0xAA {
		t.Errorf("stored %02X, want AA", memory.data[0x8110])
	}
}

func TestBranchCycles(t *testing.T) {
	// Not taken: 2 cycles.
	cpu, memory := newTestCPU()
	loadProgram(memory, 0xD0, 0x10) // BNE +16
	cpu.Z = true
	if cycles := cpu.Step(); cycles != 2 {
		t.Errorf("not taken: cycles = %d, want 2", cycles)
	}
	if cpu.PC != 0x8002 {
		t.Errorf("not taken: PC = %04X, want 8002", cpu.PC)
	}

	// Taken, same page: 3 cycles.
	cpu, memory = newTestCPU()
	loadProgram(memory, 0xD0, 0x10)
	cpu.Z = false
	if cycles := cpu.Step(); cycles != 3 {
		t.Errorf("taken: cycles = %d, want 3", cycles)
	}
	if cpu.PC != 0x8012 {
		t.Errorf("taken: PC = %04X, want 8012", cpu.PC)
	}

	// Taken across a page: 4 cycles.
	cpu, memory = newTestCPU()
	memory.data[0x80F0] = 0xD0
	memory.data[0x80F1] = 0x7F
	cpu.PC = 0x80F0
	cpu.Z = false
	if cycles := cpu.Step(); cycles != 4 {
		t.Errorf("page cross: cycles = %d, want 4", cycles)
	}
	if cpu.PC != 0x8171 {
		t.Errorf("page cross: PC = %04X, want 8171", cpu.PC)
	}
}

func TestJSRAndRTS(t *testing.T) {
	cpu, memory := newTestCPU()
	loadProgram(memory, 0x20, 0x00, 0x90) // JSR $9000
	memory.data[0x9000] = 0x60            // RTS

	cpu.Step()
	if cpu.PC != 0x9000 {
		t.Fatalf("after JSR: PC = %04X, want 9000", cpu.PC)
	}

	cpu.Step()
	if cpu.PC != 0x8003 {
		t.Errorf("after RTS: PC = %04X, want 8003", cpu.PC)
	}
	if cpu.SP != 0xFD {
		t.Errorf("SP = %02X, want FD", cpu.SP)
	}
}

func TestJMPIndirectPageWrapBug(t *testing.T) {
	cpu, memory := newTestCPU()
	loadProgram(memory, 0x6C, 0xFF, 0x30) // JMP ($30FF)
	memory.data[0x30FF] = 0x34
	memory.data[0x3100] = 0x12 // would be the high byte without the bug
	memory.data[0x3000] = 0x56 // actual high byte source

	cpu.Step()

	if cpu.PC != 0x5634 {
		t.Errorf("PC = %04X, want 5634", cpu.PC)
	}
}

func TestNMITakesPriorityAndPushesState(t *testing.T) {
	cpu, memory := newTestCPU()
	memory.data[nmiVector] = 0x00
	memory.data[nmiVector+1] = 0x90
	loadProgram(memory, 0xA9, 0x42)
	cpu.TriggerNMI()

	cycles := cpu.Step()

	if cycles != 7 {
		t.Errorf("cycles = %d, want 7", cycles)
	}
	if cpu.PC != 0x9000 {
		t.Errorf("PC = %04X, want 9000", cpu.PC)
	}
	// Pushed status has B clear and the unused bit set.
	pushed := memory.data[stackBase+uint16(cpu.SP)+1]
	if pushed&flagB != 0 {
		t.Error("pushed status has B set")
	}
	if pushed&flagUnused == 0 {
		t.Error("pushed status missing unused bit")
	}
	// The interrupted PC (0x8000) sits above the status byte.
	low := memory.data[stackBase+uint16(cpu.SP)+2]
	high := memory.data[stackBase+uint16(cpu.SP)+3]
	if low != 0x00 || high != 0x80 {
		t.Errorf("pushed PC = %02X%02X, want 8000", high, low)
	}
}

func TestIRQMaskedByInterruptDisable(t *testing.T) {
	cpu, memory := newTestCPU()
	memory.data[irqVector] = 0x00
	memory.data[irqVector+1] = 0xA0
	loadProgram(memory, 0x58, 0xEA) // CLI; NOP
	cpu.TriggerIRQ()

	cpu.Step() // CLI executes, IRQ still pending
	if cpu.PC != 0x8001 {
		t.Fatalf("PC = %04X, want 8001", cpu.PC)
	}

	cpu.Step() // IRQ now serviced before the NOP
	if cpu.PC != 0xA000 {
		t.Errorf("PC = %04X, want A000", cpu.PC)
	}
	if !cpu.I {
		t.Error("interrupt disable not set while servicing IRQ")
	}
}

func TestRTIRestoresStateAfterIRQ(t *testing.T) {
	cpu, memory := newTestCPU()
	memory.data[irqVector] = 0x00
	memory.data[irqVector+1] = 0xA0
	memory.data[0xA000] = 0x40 // RTI
	loadProgram(memory, 0xEA)
	cpu.I = false
	cpu.TriggerIRQ()

	cpu.Step() // IRQ
	cpu.Step() // RTI

	if cpu.PC != 0x8000 {
		t.Errorf("PC = %04X, want 8000", cpu.PC)
	}
	if cpu.I {
		t.Error("interrupt disable still set after RTI")
	}
}

func TestBRKPushesReturnPastPadding(t *testing.T) {
	cpu, memory := newTestCPU()
	memory.data[irqVector] = 0x00
	memory.data[irqVector+1] = 0xB0
	memory.data[0xB000] = 0x40 // RTI
	loadProgram(memory, 0x00, 0xFF, 0xEA)

	cpu.Step() // BRK
	if cpu.PC != 0xB000 {
		t.Fatalf("PC = %04X, want B000", cpu.PC)
	}
	cpu.Step() // RTI lands past the padding byte
	if cpu.PC != 0x8002 {
		t.Errorf("PC = %04X, want 8002", cpu.PC)
	}
}

func TestUnofficialLAX(t *testing.T) {
	cpu, memory := newTestCPU()
	loadProgram(memory, 0xA7, 0x10) // LAX $10
	memory.data[0x0010] = 0xC3

	cpu.Step()

	if cpu.A != 0xC3 || cpu.X != 0xC3 {
		t.Errorf("A=%02X X=%02X, want C3 C3", cpu.A, cpu.X)
	}
	if !cpu.N {
		t.Error("negative flag not set")
	}
}

func TestUnofficialDCP(t *testing.T) {
	cpu, memory := newTestCPU()
	loadProgram(memory, 0xC7, 0x10) // DCP $10
	memory.data[0x0010] = 0x41
	cpu.A = 0x40

	cpu.Step()

	if memory.data[0x0010] != 0x40 {
		t.Errorf("memory = %02X, want 40", memory.data[0x0010])
	}
	if !cpu.Z || !cpu.C {
		t.Errorf("Z=%v C=%v, want both set after equal compare", cpu.Z, cpu.C)
	}
}

func TestUnstableOpcodesDecodeAsNOPs(t *testing.T) {
	// JAM opcodes must advance PC instead of hanging execution.
	cpu, memory := newTestCPU()
	loadProgram(memory, 0x02, 0xEA)

	cpu.Step()

	if cpu.PC != 0x8001 {
		t.Errorf("PC = %04X, want 8001", cpu.PC)
	}
}

func TestOpcodeTableIsTotal(t *testing.T) {
	for opcode := 0; opcode < 256; opcode++ {
		entry := opcodeTable[opcode]
		if entry.Name == "" {
			t.Errorf("opcode %02X has no table entry", opcode)
		}
		if entry.Bytes < 1 || entry.Bytes > 3 {
			t.Errorf("opcode %02X: bytes = %d", opcode, entry.Bytes)
		}
		if entry.Cycles < 2 || entry.Cycles > 8 {
			t.Errorf("opcode %02X: cycles = %d", opcode, entry.Cycles)
		}
	}
}

func TestStatusRoundTrip(t *testing.T) {
	cpu, _ := newTestCPU()
	cpu.SetStatus(0xC3)
	if got := cpu.Status(); got != 0xC3|flagUnused {
		t.Errorf("status = %02X, want %02X", got, 0xC3|flagUnused)
	}
}
