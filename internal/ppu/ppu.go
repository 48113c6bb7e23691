// Package ppu implements the NES picture processing unit.
//
// The PPU is stepped one dot at a time. A frame is 262 scanlines of 341
// dots: scanlines 0-239 render pixels, 240 is idle, 241-260 are the
// vertical blank and 261 is the pre-render line. The vblank flag rises
// at dot 1 of scanline 241 (raising NMI when enabled) and falls at dot
// 1 of the pre-render line together with the sprite flags.
package ppu

// Frame dimensions in pixels.
const (
	FrameWidth  = 256
	FrameHeight = 240
)

const (
	dotsPerScanline   = 341
	scanlinesPerFrame = 262
	postRenderLine    = 240
	vblankStartLine   = 241
	preRenderLine     = 261
)

// PPUCTRL bits.
const (
	ctrlNametable       = 0x03
	ctrlIncrement32     = 0x04
	ctrlSpriteTable     = 0x08
	ctrlBackgroundTable = 0x10
	ctrlSpriteSize      = 0x20
	ctrlNMIEnable       = 0x80
)

// PPUMASK bits.
const (
	maskBackgroundLeft = 0x02
	maskSpritesLeft    = 0x04
	maskBackground     = 0x08
	maskSprites        = 0x10
)

// PPUSTATUS bits.
const (
	statusOverflow   = 0x20
	statusSprite0Hit = 0x40
	statusVBlank     = 0x80
)

// Memory is the PPU's window onto its address space: pattern tables
// through the cartridge, nametables and palette RAM.
type Memory interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
}

// sprite is one secondary-OAM entry latched for the current scanline.
type sprite struct {
	index      int // position in OAM, 0 is the sprite-zero-hit sprite
	y          uint8
	tile       uint8
	attributes uint8
	x          uint8
}

// PPU models the 2C02.
type PPU struct {
	memory Memory

	// Register file. ctrl/mask/status hold the raw $2000/$2001/$2002
	// bytes; busLatch is the decayless open-bus value that fills the
	// undriven status bits.
	ctrl     uint8
	mask     uint8
	status   uint8
	oamAddr  uint8
	busLatch uint8

	// Internal scroll state: current and temporary VRAM address, fine
	// X scroll and the shared $2005/$2006 write toggle.
	v uint16
	t uint16
	x uint8
	w bool

	readBuffer uint8

	oam          [256]uint8
	lineSprites  []sprite
	spriteBuffer [8]sprite

	scanline int
	dot      int

	frameBuffer [FrameWidth * FrameHeight]uint32
	frameCount  uint64
	oddFrame    bool
	cycleCount  uint64

	nmiCallback      func()
	scanlineCallback func()
}

// New creates a PPU attached to the given memory.
func New(memory Memory) *PPU {
	return &PPU{
		memory:      memory,
		lineSprites: make([]sprite, 0, 8),
	}
}

// SetNMICallback registers the callback raised when the vblank NMI
// fires.
func (p *PPU) SetNMICallback(callback func()) {
	p.nmiCallback = callback
}

// SetScanlineCallback registers the callback raised at the end of each
// rendered scanline while rendering is enabled. The cartridge mapper
// hangs its IRQ counter off this.
func (p *PPU) SetScanlineCallback(callback func()) {
	p.scanlineCallback = callback
}

// Reset returns the PPU to its power-on state. The frame buffer is not
// cleared; it simply stops being updated until rendering is re-enabled.
func (p *PPU) Reset() {
	p.ctrl = 0
	p.mask = 0
	p.status = 0
	p.oamAddr = 0
	p.busLatch = 0
	p.v = 0
	p.t = 0
	p.x = 0
	p.w = false
	p.readBuffer = 0
	p.scanline = 0
	p.dot = 0
	p.oddFrame = false
	p.lineSprites = p.lineSprites[:0]
}

// FrameBuffer returns the current frame buffer, one 0xAARRGGBB value
// per pixel in row-major order. The returned slice aliases the PPU's
// buffer and is only stable between frames.
func (p *PPU) FrameBuffer() []uint32 {
	return p.frameBuffer[:]
}

// FrameCount returns the number of completed frames since power-on.
func (p *PPU) FrameCount() uint64 {
	return p.frameCount
}

// Scanline returns the current scanline, 0-261.
func (p *PPU) Scanline() int {
	return p.scanline
}

// Dot returns the current dot within the scanline, 0-340.
func (p *PPU) Dot() int {
	return p.dot
}

// Cycles returns the total dots stepped since power-on.
func (p *PPU) Cycles() uint64 {
	return p.cycleCount
}

// ReadRegister services a CPU read of $2000-$2007 (after mirroring).
// Write-only registers return the open-bus latch.
func (p *PPU) ReadRegister(address uint16) uint8 {
	switch address & 0x0007 {
	case 0x0002: // PPUSTATUS
		value := p.status&0xE0 | p.busLatch&0x1F
		p.status &^= statusVBlank
		p.w = false
		p.busLatch = value
		return value
	case 0x0004: // OAMDATA
		value := p.oam[p.oamAddr]
		p.busLatch = value
		return value
	case 0x0007: // PPUDATA
		value := p.readData()
		p.busLatch = value
		return value
	default:
		return p.busLatch
	}
}

// WriteRegister services a CPU write to $2000-$2007 (after mirroring).
func (p *PPU) WriteRegister(address uint16, value uint8) {
	p.busLatch = value
	switch address & 0x0007 {
	case 0x0000: // PPUCTRL
		wasEnabled := p.ctrl&ctrlNMIEnable != 0
		p.ctrl = value
		p.t = p.t&0xF3FF | uint16(value&ctrlNametable)<<10
		// Enabling NMI while the vblank flag is already set raises the
		// interrupt immediately.
		if !wasEnabled && p.nmiOutput() && p.status&statusVBlank != 0 && p.nmiCallback != nil {
			p.nmiCallback()
		}
	case 0x0001: // PPUMASK
		p.mask = value
	case 0x0003: // OAMADDR
		p.oamAddr = value
	case 0x0004: // OAMDATA
		p.oam[p.oamAddr] = value
		p.oamAddr++
	case 0x0005: // PPUSCROLL
		if !p.w {
			p.t = p.t&0xFFE0 | uint16(value)>>3
			p.x = value & 0x07
		} else {
			p.t = p.t&0x8C1F | uint16(value&0xF8)<<2 | uint16(value&0x07)<<12
		}
		p.w = !p.w
	case 0x0006: // PPUADDR
		if !p.w {
			p.t = p.t&0x00FF | uint16(value&0x3F)<<8
		} else {
			p.t = p.t&0xFF00 | uint16(value)
			p.v = p.t
		}
		p.w = !p.w
	case 0x0007: // PPUDATA
		p.memory.Write(p.v&0x3FFF, value)
		p.v += p.addressIncrement()
	}
}

// WriteOAM stores one byte of sprite memory; the bus drives this during
// OAM DMA.
func (p *PPU) WriteOAM(address uint8, value uint8) {
	p.oam[address] = value
}

// readData implements the buffered $2007 read. Reads below the palette
// return the previous buffer contents; palette reads are immediate but
// still refill the buffer with the nametable byte underneath.
func (p *PPU) readData() uint8 {
	address := p.v & 0x3FFF
	p.v += p.addressIncrement()

	if address >= 0x3F00 {
		p.readBuffer = p.memory.Read(address - 0x1000)
		return p.memory.Read(address)
	}
	value := p.readBuffer
	p.readBuffer = p.memory.Read(address)
	return value
}

func (p *PPU) addressIncrement() uint16 {
	if p.ctrl&ctrlIncrement32 != 0 {
		return 32
	}
	return 1
}

func (p *PPU) nmiOutput() bool {
	return p.ctrl&ctrlNMIEnable != 0
}

func (p *PPU) renderingEnabled() bool {
	return p.mask&(maskBackground|maskSprites) != 0
}

func (p *PPU) spriteHeight() int {
	if p.ctrl&ctrlSpriteSize != 0 {
		return 16
	}
	return 8
}

// Tick advances the PPU by one dot.
func (p *PPU) Tick() {
	p.cycleCount++

	switch {
	case p.scanline < postRenderLine:
		p.tickVisible()
	case p.scanline == vblankStartLine && p.dot == 1:
		p.status |= statusVBlank
		if p.nmiOutput() && p.nmiCallback != nil {
			p.nmiCallback()
		}
	case p.scanline == preRenderLine:
		p.tickPreRender()
	}

	p.advance()
}

// TickN advances the PPU by n dots.
func (p *PPU) TickN(n uint64) {
	for i := uint64(0); i < n; i++ {
		p.Tick()
	}
}

func (p *PPU) tickVisible() {
	rendering := p.renderingEnabled()

	if p.dot == 1 && rendering {
		p.evaluateSprites()
	}

	if p.dot >= 1 && p.dot <= FrameWidth {
		p.renderDot()
	}

	if rendering {
		switch {
		case p.dot >= 1 && p.dot <= FrameWidth:
			// incrementX already handled per pixel in renderDot.
			if p.dot == FrameWidth {
				p.incrementY()
			}
		case p.dot == 257:
			p.copyX()
		case p.dot == 260:
			if p.scanlineCallback != nil {
				p.scanlineCallback()
			}
		}
	}
}

func (p *PPU) tickPreRender() {
	rendering := p.renderingEnabled()

	switch {
	case p.dot == 1:
		p.status &^= statusVBlank | statusSprite0Hit | statusOverflow
	case p.dot == 256 && rendering:
		p.incrementY()
	case p.dot == 257 && rendering:
		p.copyX()
	case p.dot == 260 && rendering:
		if p.scanlineCallback != nil {
			p.scanlineCallback()
		}
	case p.dot >= 280 && p.dot <= 304 && rendering:
		p.copyY()
	}
}

// advance moves to the next dot, wrapping scanlines and frames. On odd
// frames with rendering enabled the pre-render line is one dot short.
func (p *PPU) advance() {
	p.dot++
	if p.scanline == preRenderLine && p.oddFrame && p.renderingEnabled() && p.dot == dotsPerScanline-1 {
		p.dot = dotsPerScanline
	}
	if p.dot < dotsPerScanline {
		return
	}
	p.dot = 0
	p.scanline++
	if p.scanline >= scanlinesPerFrame {
		p.scanline = 0
		p.frameCount++
		p.oddFrame = !p.oddFrame
	}
}

// renderDot produces the frame buffer pixel for the current dot and
// walks the horizontal scroll counter.
func (p *PPU) renderDot() {
	x := p.dot - 1
	y := p.scanline

	backdrop := p.memory.Read(0x3F00)
	color := backdrop

	var bgColor uint8
	if p.mask&maskBackground != 0 && (x >= 8 || p.mask&maskBackgroundLeft != 0) {
		bgColor = p.backgroundPixel(x)
	}
	spColor, behind, zero := uint8(0), false, false
	if p.mask&maskSprites != 0 && (x >= 8 || p.mask&maskSpritesLeft != 0) {
		spColor, behind, zero = p.spritePixel(x, y)
	}

	switch {
	case bgColor == 0 && spColor != 0:
		color = p.memory.Read(0x3F10 + uint16(spColor))
	case bgColor != 0 && spColor == 0:
		color = p.memory.Read(0x3F00 + uint16(bgColor))
	case bgColor != 0 && spColor != 0:
		if zero && x < 255 {
			p.status |= statusSprite0Hit
		}
		if behind {
			color = p.memory.Read(0x3F00 + uint16(bgColor))
		} else {
			color = p.memory.Read(0x3F10 + uint16(spColor))
		}
	}

	p.frameBuffer[y*FrameWidth+x] = nesPalette[color&0x3F]

	// The coarse X counter steps whenever the fine X position wraps,
	// keeping v pointed at the tile under the next pixel.
	if p.renderingEnabled() && (x+int(p.x))&0x07 == 0x07 {
		p.incrementX()
	}
}

// backgroundPixel returns the 4-bit palette offset (attribute<<2 |
// pattern) of the background under the given screen x, or 0 when the
// pattern is transparent. The tile is addressed through v; only the
// fine X position within the tile depends on x.
func (p *PPU) backgroundPixel(x int) uint8 {
	fineX := (x + int(p.x)) & 0x07
	fineY := (p.v >> 12) & 0x07

	tileAddr := 0x2000 | p.v&0x0FFF
	tileID := p.memory.Read(tileAddr)

	table := uint16(0x0000)
	if p.ctrl&ctrlBackgroundTable != 0 {
		table = 0x1000
	}
	patternAddr := table + uint16(tileID)*16 + fineY
	low := p.memory.Read(patternAddr)
	high := p.memory.Read(patternAddr + 8)

	shift := 7 - fineX
	pattern := (low>>shift)&0x01 | ((high>>shift)&0x01)<<1
	if pattern == 0 {
		return 0
	}

	attrAddr := 0x23C0 | p.v&0x0C00 | (p.v>>4)&0x38 | (p.v>>2)&0x07
	attribute := p.memory.Read(attrAddr)
	// Each attribute byte covers a 4x4 tile block in 2x2 quadrants.
	shiftAmount := (p.v>>4)&0x04 | p.v&0x02
	palette := (attribute >> shiftAmount) & 0x03

	return palette<<2 | pattern
}

// spritePixel returns the palette offset of the frontmost opaque sprite
// under (x, y), its priority bit and whether it is OAM sprite zero.
func (p *PPU) spritePixel(x, y int) (color uint8, behind bool, zero bool) {
	height := p.spriteHeight()

	for _, s := range p.lineSprites {
		column := x - int(s.x)
		if column < 0 || column > 7 {
			continue
		}
		// Sprites render one line below their OAM Y coordinate.
		row := y - int(s.y) - 1

		if s.attributes&0x40 != 0 {
			column = 7 - column
		}
		if s.attributes&0x80 != 0 {
			row = height - 1 - row
		}

		var patternAddr uint16
		if height == 16 {
			table := uint16(s.tile&0x01) * 0x1000
			tile := uint16(s.tile & 0xFE)
			if row >= 8 {
				tile++
				row -= 8
			}
			patternAddr = table + tile*16 + uint16(row)
		} else {
			table := uint16(0x0000)
			if p.ctrl&ctrlSpriteTable != 0 {
				table = 0x1000
			}
			patternAddr = table + uint16(s.tile)*16 + uint16(row)
		}

		low := p.memory.Read(patternAddr)
		high := p.memory.Read(patternAddr + 8)
		shift := 7 - column
		pattern := (low>>shift)&0x01 | ((high>>shift)&0x01)<<1
		if pattern == 0 {
			continue
		}

		palette := s.attributes & 0x03
		return palette<<2 | pattern, s.attributes&0x20 != 0, s.index == 0
	}
	return 0, false, false
}

// evaluateSprites fills the secondary OAM with the first eight sprites
// visible on the current scanline, setting the overflow flag when more
// than eight qualify.
func (p *PPU) evaluateSprites() {
	height := p.spriteHeight()
	p.lineSprites = p.lineSprites[:0]

	for i := 0; i < 64; i++ {
		y := p.oam[i*4]
		row := p.scanline - int(y) - 1
		if row < 0 || row >= height {
			continue
		}
		if len(p.lineSprites) == 8 {
			p.status |= statusOverflow
			break
		}
		p.spriteBuffer[len(p.lineSprites)] = sprite{
			index:      i,
			y:          y,
			tile:       p.oam[i*4+1],
			attributes: p.oam[i*4+2],
			x:          p.oam[i*4+3],
		}
		p.lineSprites = p.spriteBuffer[:len(p.lineSprites)+1]
	}
}

// Scroll counter helpers, operating on the 15-bit v register:
// yyy NN YYYYY XXXXX (fine Y, nametable, coarse Y, coarse X).

// incrementX steps coarse X, wrapping into the neighboring horizontal
// nametable.
func (p *PPU) incrementX() {
	if p.v&0x001F == 0x001F {
		p.v &^= 0x001F
		p.v ^= 0x0400
	} else {
		p.v++
	}
}

// incrementY steps fine Y, carrying into coarse Y. Coarse Y wraps at
// 30 into the neighboring vertical nametable; rows 30-31 (the
// attribute area) wrap without switching.
func (p *PPU) incrementY() {
	if p.v&0x7000 != 0x7000 {
		p.v += 0x1000
		return
	}
	p.v &^= 0x7000
	coarseY := (p.v >> 5) & 0x001F
	switch coarseY {
	case 29:
		coarseY = 0
		p.v ^= 0x0800
	case 31:
		coarseY = 0
	default:
		coarseY++
	}
	p.v = p.v&^0x03E0 | coarseY<<5
}

// copyX reloads the horizontal bits of v from t.
func (p *PPU) copyX() {
	p.v = p.v&^0x041F | p.t&0x041F
}

// copyY reloads the vertical bits of v from t.
func (p *PPU) copyY() {
	p.v = p.v&^0x7BE0 | p.t&0x7BE0
}
