// Package ppu implements the scanline-at-once background/sprite renderer.
// Grounded on the teacher's internal/ppu package; the teacher's dot-based
// STAT/LYC mode timing and FIFO fetcher (fetcher.go, scanline.go) are
// dropped in favor of a single draw-the-whole-line call once per 456
// T-states, since mid-scanline effects and the window layer are out of
// scope here. VRAM and OAM are not owned by the PPU itself — like the
// CPU, it borrows the Bus for the one tick it runs and never holds a
// back-reference to it.
package ppu

// Width and Height are the DMG framebuffer dimensions in pixels.
const (
	Width  = 160
	Height = 144
)

// LinesPerFrame is the total scanline count including the 10-line VBlank.
const LinesPerFrame = 154

// TStatesPerLine is how many T-states elapse before the PPU advances to
// the next scanline.
const TStatesPerLine = 456

// Bus is the minimal interface the PPU needs from its host: byte reads for
// tile data, OAM, and its own registers, and a byte write to publish LY.
type Bus interface {
	Read(addr uint16) byte
	Write(addr uint16, value byte)
}

// PPU owns only scanline-position and IRQ bookkeeping. Tile/sprite memory
// and LCDC/SCX/SCY/BGP registers live on the Bus, the same way the CPU
// reads and writes them.
type PPU struct {
	currentLine    byte
	nextLineTState uint64

	irqVBlank bool
	irqLCD    bool

	framebuffer [Width * Height]byte
}

// New returns a PPU parked at line 0 with its first gate at T-state 456.
func New() *PPU {
	return &PPU{nextLineTState: TStatesPerLine}
}

// Framebuffer returns the live 160x144 pixel buffer, row-major,
// index = y*160+x, values in 0..3.
func (p *PPU) Framebuffer() []byte { return p.framebuffer[:] }

// CurrentLine returns the scanline the PPU is about to draw or just
// finished (0..153).
func (p *PPU) CurrentLine() byte { return p.currentLine }

// Tick advances the PPU's scanline gate against the master clock. If the
// gate has not elapsed it returns immediately; otherwise it draws one
// scanline (or enters VBlank) and advances to the next line.
func (p *PPU) Tick(now uint64, bus Bus) {
	if now < p.nextLineTState {
		return
	}
	p.nextLineTState += TStatesPerLine
	bus.Write(0xFF44, p.currentLine)

	if p.currentLine < 144 {
		lcdc := bus.Read(0xFF40)
		if lcdc&0x80 != 0 {
			if lcdc&0x01 != 0 {
				p.drawBackground(bus, p.currentLine, lcdc)
			}
			if lcdc&0x02 != 0 {
				p.drawObjects(bus, p.currentLine, lcdc)
			}
		}
	} else if p.currentLine == 144 {
		p.irqVBlank = true
	}
	p.currentLine = byte((int(p.currentLine) + 1) % LinesPerFrame)
}

// ConsumeIRQs returns and clears the pending VBlank/LCD interrupt flags.
// irqLCD is always false in this core: the STAT interrupt sources
// (LYC match, mode-change) are not implemented.
func (p *PPU) ConsumeIRQs() (vblank, lcd bool) {
	vblank, lcd = p.irqVBlank, p.irqLCD
	p.irqVBlank, p.irqLCD = false, false
	return
}

func (p *PPU) drawBackground(bus Bus, y byte, lcdc byte) {
	altTiles := lcdc&0x10 == 0
	bgMapBase := uint16(0x9800)
	if lcdc&0x08 != 0 {
		bgMapBase = 0x9C00
	}
	scx := bus.Read(0xFF43)
	scy := bus.Read(0xFF42)
	palette := bus.Read(0xFF47)

	sy := scy + y
	tilemapY := uint16(sy / 8)
	tileY := sy % 8

	for x := 0; x < Width; x++ {
		sx := scx + byte(x)
		tilemapX := uint16(sx / 8)
		tileX := sx % 8

		tileID := int(bus.Read(bgMapBase + tilemapY*32 + tilemapX))
		if altTiles && tileID < 128 {
			tileID += 256
		}

		rowAddr := 0x8000 + uint16(tileID)*16 + uint16(tileY)*2
		lo := bus.Read(rowAddr)
		hi := bus.Read(rowAddr + 1)

		bit := 7 - tileX
		lsb := (lo >> bit) & 1
		msb := (hi >> bit) & 1
		colorID := lsb | msb<<1

		color := (palette >> (colorID * 2)) & 0x03
		p.framebuffer[int(y)*Width+x] = color
	}
}

type oamEntry struct {
	y, x, tile, attr byte
}

func (p *PPU) drawObjects(bus Bus, y byte, lcdc byte) {
	height := 8
	if lcdc&0x04 != 0 {
		height = 16
	}

	var candidates []oamEntry
	for i := 0; i < 40 && len(candidates) < 10; i++ {
		base := uint16(0xFE00 + i*4)
		oy := bus.Read(base)
		if int(oy) > int(y)+16-height && int(oy) <= int(y)+16 {
			candidates = append(candidates, oamEntry{
				y:    oy,
				x:    bus.Read(base + 1),
				tile: bus.Read(base + 2),
				attr: bus.Read(base + 3),
			})
		}
	}

	for _, obj := range candidates {
		tileY := int(y) + 16 - int(obj.y)
		if obj.attr&0x40 != 0 {
			tileY = height - 1 - tileY
		}
		rowAddr := 0x8000 + uint16(obj.tile)*16 + uint16(tileY)*2
		lo := bus.Read(rowAddr)
		hi := bus.Read(rowAddr + 1)

		paletteAddr := uint16(0xFF48)
		if obj.attr&0x10 != 0 {
			paletteAddr = 0xFF49
		}
		palette := bus.Read(paletteAddr)

		for i := 0; i < 8; i++ {
			screenX := int(obj.x) - 8 + i
			if screenX < 0 || screenX >= Width {
				continue
			}
			tileX := i
			if obj.attr&0x20 != 0 {
				tileX = 7 - i
			}
			bit := 7 - tileX
			lsb := (lo >> bit) & 1
			msb := (hi >> bit) & 1
			colorID := lsb | msb<<1
			if colorID == 0 {
				continue
			}
			color := (palette >> (colorID * 2)) & 0x03
			p.framebuffer[int(y)*Width+screenX] = color
		}
	}
}

// SaveState/LoadState serialize scanline position and pending IRQ flags;
// the framebuffer is not persisted — it repopulates on the next frame.
func (p *PPU) SaveState() []byte {
	vb, lcd := byte(0), byte(0)
	if p.irqVBlank {
		vb = 1
	}
	if p.irqLCD {
		lcd = 1
	}
	return []byte{
		p.currentLine,
		byte(p.nextLineTState), byte(p.nextLineTState >> 8),
		byte(p.nextLineTState >> 16), byte(p.nextLineTState >> 24),
		byte(p.nextLineTState >> 32), byte(p.nextLineTState >> 40),
		byte(p.nextLineTState >> 48), byte(p.nextLineTState >> 56),
		vb, lcd,
	}
}

func (p *PPU) LoadState(data []byte) {
	if len(data) < 11 {
		return
	}
	p.currentLine = data[0]
	p.nextLineTState = uint64(data[1]) | uint64(data[2])<<8 |
		uint64(data[3])<<16 | uint64(data[4])<<24 |
		uint64(data[5])<<32 | uint64(data[6])<<40 |
		uint64(data[7])<<48 | uint64(data[8])<<56
	p.irqVBlank = data[9] != 0
	p.irqLCD = data[10] != 0
}
