package ppu

import "testing"

// flatMemory is a fully writable 16KB PPU address space for testing
// register side effects without a cartridge.
type flatMemory struct {
	data [0x4000]uint8
}

func (m *flatMemory) Read(address uint16) uint8 {
	return m.data[address&0x3FFF]
}

func (m *flatMemory) Write(address uint16, value uint8) {
	m.data[address&0x3FFF] = value
}

func newTestPPU() (*PPU, *flatMemory) {
	memory := &flatMemory{}
	p := New(memory)
	p.Reset()
	return p, memory
}

// tickTo advances the PPU from power-on to just after the given
// position has been processed.
func tickTo(p *PPU, scanline, dot int) {
	p.TickN(uint64(scanline*dotsPerScanline+dot) + 1)
}

func TestVBlankFlagTiming(t *testing.T) {
	p, _ := newTestPPU()

	tickTo(p, vblankStartLine, 0)
	if p.status&statusVBlank != 0 {
		t.Fatal("vblank flag set before scanline 241 dot 1")
	}
	p.Tick() // dot 1
	if p.status&statusVBlank == 0 {
		t.Fatal("vblank flag not set at scanline 241 dot 1")
	}
}

func TestVBlankFlagClearsOnPreRenderLine(t *testing.T) {
	p, _ := newTestPPU()

	tickTo(p, preRenderLine, 1)
	if p.status&statusVBlank != 0 {
		t.Error("vblank flag survived the pre-render line")
	}
}

func TestNMIFiresWhenEnabled(t *testing.T) {
	p, _ := newTestPPU()
	fired := 0
	p.SetNMICallback(func() { fired++ })
	p.WriteRegister(0x2000, ctrlNMIEnable)

	tickTo(p, vblankStartLine, 1)
	if fired != 1 {
		t.Errorf("NMI fired %d times, want 1", fired)
	}
}

func TestNMISuppressedWhenDisabled(t *testing.T) {
	p, _ := newTestPPU()
	fired := 0
	p.SetNMICallback(func() { fired++ })

	tickTo(p, vblankStartLine, 1)
	if fired != 0 {
		t.Errorf("NMI fired %d times with NMI disabled", fired)
	}
}

func TestEnablingNMIDuringVBlankFiresImmediately(t *testing.T) {
	p, _ := newTestPPU()
	fired := 0
	p.SetNMICallback(func() { fired++ })

	tickTo(p, vblankStartLine, 10)
	p.WriteRegister(0x2000, ctrlNMIEnable)
	if fired != 1 {
		t.Errorf("NMI fired %d times, want 1", fired)
	}
}

func TestStatusReadClearsVBlankAndToggle(t *testing.T) {
	p, _ := newTestPPU()
	tickTo(p, vblankStartLine, 1)

	// Half a $2005 write pair leaves the toggle set.
	p.WriteRegister(0x2005, 0x10)

	first := p.ReadRegister(0x2002)
	if first&statusVBlank == 0 {
		t.Fatal("first status read missing vblank flag")
	}
	second := p.ReadRegister(0x2002)
	if second&statusVBlank != 0 {
		t.Error("vblank flag not cleared by status read")
	}
	if p.w {
		t.Error("write toggle not cleared by status read")
	}
}

func TestScrollAndAddressSharedToggle(t *testing.T) {
	p, _ := newTestPPU()

	p.WriteRegister(0x2005, 0x7D) // coarse X = 15, fine X = 5
	if p.t&0x001F != 15 || p.x != 5 {
		t.Errorf("after first scroll write: t=%04X x=%d", p.t, p.x)
	}
	p.WriteRegister(0x2005, 0x5E) // coarse Y = 11, fine Y = 6
	if (p.t>>5)&0x1F != 11 || (p.t>>12)&0x07 != 6 {
		t.Errorf("after second scroll write: t=%04X", p.t)
	}
}

func TestAddressWritesSetV(t *testing.T) {
	p, _ := newTestPPU()

	p.WriteRegister(0x2006, 0x21)
	if p.v != 0 {
		t.Error("v updated before the low address byte")
	}
	p.WriteRegister(0x2006, 0x08)
	if p.v != 0x2108 {
		t.Errorf("v = %04X, want 2108", p.v)
	}
}

func TestDataReadIsBuffered(t *testing.T) {
	p, memory := newTestPPU()
	memory.data[0x2100] = 0xAB
	memory.data[0x2101] = 0xCD

	p.WriteRegister(0x2006, 0x21)
	p.WriteRegister(0x2006, 0x00)

	if got := p.ReadRegister(0x2007); got != 0 {
		t.Errorf("first read = %02X, want 00 (stale buffer)", got)
	}
	if got := p.ReadRegister(0x2007); got != 0xAB {
		t.Errorf("second read = %02X, want AB", got)
	}
	if got := p.ReadRegister(0x2007); got != 0xCD {
		t.Errorf("third read = %02X, want CD", got)
	}
}

func TestPaletteReadIsImmediate(t *testing.T) {
	p, memory := newTestPPU()
	memory.data[0x3F00] = 0x21

	p.WriteRegister(0x2006, 0x3F)
	p.WriteRegister(0x2006, 0x00)

	if got := p.ReadRegister(0x2007); got != 0x21 {
		t.Errorf("palette read = %02X, want 21", got)
	}
}

func TestDataWriteIncrement(t *testing.T) {
	p, memory := newTestPPU()

	p.WriteRegister(0x2006, 0x20)
	p.WriteRegister(0x2006, 0x00)
	p.WriteRegister(0x2007, 0x11)
	p.WriteRegister(0x2007, 0x22)
	if memory.data[0x2000] != 0x11 || memory.data[0x2001] != 0x22 {
		t.Error("sequential writes did not land at +1 increments")
	}

	p.WriteRegister(0x2000, ctrlIncrement32)
	p.WriteRegister(0x2006, 0x20)
	p.WriteRegister(0x2006, 0x40)
	p.WriteRegister(0x2007, 0x33)
	p.WriteRegister(0x2007, 0x44)
	if memory.data[0x2040] != 0x33 || memory.data[0x2060] != 0x44 {
		t.Error("writes did not land at +32 increments")
	}
}

func TestOAMDataReadWrite(t *testing.T) {
	p, _ := newTestPPU()

	p.WriteRegister(0x2003, 0x10)
	p.WriteRegister(0x2004, 0xAA)
	p.WriteRegister(0x2004, 0xBB)

	p.WriteRegister(0x2003, 0x10)
	if got := p.ReadRegister(0x2004); got != 0xAA {
		t.Errorf("OAM[10] = %02X, want AA", got)
	}
	if p.oam[0x11] != 0xBB {
		t.Errorf("OAM[11] = %02X, want BB", p.oam[0x11])
	}
}

func TestSpriteOverflowFlag(t *testing.T) {
	p, _ := newTestPPU()
	p.WriteRegister(0x2001, maskSprites)

	// Nine sprites on the line that renders at scanline 11.
	for i := 0; i < 9; i++ {
		p.WriteOAM(uint8(i*4), 10)
	}
	// Park the rest of OAM off screen.
	for i := 9; i < 64; i++ {
		p.WriteOAM(uint8(i*4), 0xFF)
	}

	tickTo(p, 11, 1)
	if p.status&statusOverflow == 0 {
		t.Error("sprite overflow flag not set with nine sprites on a line")
	}
	if len(p.lineSprites) != 8 {
		t.Errorf("%d sprites latched, want 8", len(p.lineSprites))
	}
}

func TestSpriteZeroHit(t *testing.T) {
	p, memory := newTestPPU()

	// Tile 0 is fully opaque in both pattern tables.
	for i := 0; i < 8; i++ {
		memory.data[i] = 0xFF
	}
	// Sprite 0 at the top-left corner, rendering on scanline 10.
	p.WriteOAM(0, 9)
	p.WriteOAM(1, 0)
	p.WriteOAM(2, 0)
	p.WriteOAM(3, 0)
	for i := 1; i < 64; i++ {
		p.WriteOAM(uint8(i*4), 0xFF)
	}
	p.WriteRegister(0x2001, maskBackground|maskSprites|maskBackgroundLeft|maskSpritesLeft)

	tickTo(p, 10, 2)
	if p.status&statusSprite0Hit == 0 {
		t.Error("sprite zero hit not flagged")
	}
}

func TestFrameCountAdvances(t *testing.T) {
	p, _ := newTestPPU()

	p.TickN(dotsPerScanline*scanlinesPerFrame - 1)
	if p.FrameCount() != 0 {
		t.Fatalf("frame count = %d before the frame ended", p.FrameCount())
	}
	p.Tick()
	if p.FrameCount() != 1 {
		t.Errorf("frame count = %d, want 1", p.FrameCount())
	}
	if p.Scanline() != 0 || p.Dot() != 0 {
		t.Errorf("position = (%d,%d), want (0,0)", p.Scanline(), p.Dot())
	}
}

func TestScanlineCallbackCountPerFrame(t *testing.T) {
	p, _ := newTestPPU()
	calls := 0
	p.SetScanlineCallback(func() { calls++ })
	p.WriteRegister(0x2001, maskBackground)

	p.TickN(dotsPerScanline * scanlinesPerFrame)
	// 240 visible scanlines plus the pre-render line.
	if calls != 241 {
		t.Errorf("scanline callback ran %d times, want 241", calls)
	}
}

func TestBackdropFillsFrameWhenRenderingDisabled(t *testing.T) {
	p, memory := newTestPPU()
	memory.data[0x3F00] = 0x21 // light blue

	p.TickN(dotsPerScanline * scanlinesPerFrame)

	frame := p.FrameBuffer()
	if len(frame) != FrameWidth*FrameHeight {
		t.Fatalf("frame buffer length = %d", len(frame))
	}
	want := Color(0x21)
	for _, pixel := range []int{0, 123*FrameWidth + 45, FrameWidth*FrameHeight - 1} {
		if frame[pixel] != want {
			t.Errorf("pixel %d = %08X, want %08X", pixel, frame[pixel], want)
		}
	}
}

func TestPaletteAlphaIsOpaque(t *testing.T) {
	for i, color := range nesPalette {
		if color>>24 != 0xFF {
			t.Errorf("palette entry %02X alpha = %02X", i, color>>24)
		}
	}
}
