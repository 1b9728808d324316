// Package cpu implements the SM83 instruction interpreter: the full
// unprefixed and CB-prefixed opcode tables, interrupt dispatch, and the
// cooldown-gated timing model that lets the CPU advance in lockstep with
// the rest of the machine off a single monotonic T-state counter.
//
// Grounded on the teacher's internal/cpu package; its Step()-returns-cycles
// model and the CPU's permanent *bus.Bus field are both dropped. The CPU
// never imports internal/bus: it declares its own minimal Bus interface
// and is handed the bus fresh on every Tick call, the same borrowing
// pattern internal/ppu uses.
package cpu

// Flag bit positions within F. The low nibble of F is unused and always
// reads zero.
const (
	flagZ byte = 1 << 7
	flagN byte = 1 << 6
	flagH byte = 1 << 5
	flagC byte = 1 << 4
)

// Interrupt bit indices within IF/IE, in dispatch priority order.
const (
	IntVBlank = 0
	IntLCD    = 1
	IntTimer  = 2
	IntSerial = 3
	IntJoypad = 4
)

// Bus is the minimal interface the CPU needs from its host: byte-addressed
// reads and writes. The CPU holds no reference to it outside a Tick call.
type Bus interface {
	Read(addr uint16) byte
	Write(addr uint16, value byte)
}

const logDepth = 20

// LogEntry records one fetched instruction's address and opcode byte.
type LogEntry struct {
	PC uint16
	Op byte
}

// CPU holds SM83 register state and the cooldown gate that paces
// instruction execution against the master clock.
type CPU struct {
	A, F byte
	B, C byte
	D, E byte
	H, L byte

	SP uint16
	PC uint16

	ime       bool
	halting   bool
	eiPending bool

	nextInstTState uint64

	log      [logDepth]LogEntry
	logPos   int
	logCount int

	bus Bus // valid only during a Tick call
}

// New returns a CPU already reset to its post-boot entry state.
func New() *CPU {
	c := &CPU{}
	c.Reset()
	return c
}

// Reset parks the CPU at the values a DMG leaves after the boot ROM hands
// off control: A=01 F=80 BC=0013 DE=00D8 HL=014D SP=FFFE PC=0100, IME off.
func (c *CPU) Reset() {
	c.A, c.F = 0x01, 0x80
	c.B, c.C = 0x00, 0x13
	c.D, c.E = 0x00, 0xD8
	c.H, c.L = 0x01, 0x4D
	c.SP = 0xFFFE
	c.PC = 0x0100
	c.ime = false
	c.halting = false
	c.eiPending = false
	c.nextInstTState = 0
	c.logPos, c.logCount = 0, 0
}

// IME reports whether the interrupt master enable flip-flop is set.
func (c *CPU) IME() bool { return c.ime }

// Halting reports whether the CPU is parked in HALT.
func (c *CPU) Halting() bool { return c.halting }

// Log returns up to the last 20 fetched (PC, opcode) pairs, oldest first.
func (c *CPU) Log() []LogEntry {
	out := make([]LogEntry, c.logCount)
	start := c.logPos - c.logCount
	for i := 0; i < c.logCount; i++ {
		idx := (start + i + logDepth) % logDepth
		out[i] = c.log[idx]
	}
	return out
}

func (c *CPU) recordLog(pc uint16, op byte) {
	c.log[c.logPos] = LogEntry{PC: pc, Op: op}
	c.logPos = (c.logPos + 1) % logDepth
	if c.logCount < logDepth {
		c.logCount++
	}
}

func (c *CPU) setZNHC(z, n, h, carry bool) {
	var f byte
	if z {
		f |= flagZ
	}
	if n {
		f |= flagN
	}
	if h {
		f |= flagH
	}
	if carry {
		f |= flagC
	}
	c.F = f
}

func (c *CPU) add8(a, b byte) (res byte, z, n, h, cy bool) {
	r := uint16(a) + uint16(b)
	res = byte(r)
	z = res == 0
	n = false
	h = ((a & 0x0F) + (b & 0x0F)) > 0x0F
	cy = r > 0xFF
	return
}

func (c *CPU) adc8(a, b byte, carryIn bool) (res byte, z, n, h, cy bool) {
	ci := byte(0)
	if carryIn {
		ci = 1
	}
	r := uint16(a) + uint16(b) + uint16(ci)
	res = byte(r)
	z = res == 0
	n = false
	h = ((a & 0x0F) + (b & 0x0F) + ci) > 0x0F
	cy = r > 0xFF
	return
}

func (c *CPU) sub8(a, b byte) (res byte, z, n, h, cy bool) {
	r := int16(a) - int16(b)
	res = byte(r)
	z = res == 0
	n = true
	h = (a & 0x0F) < (b & 0x0F)
	cy = int16(a) < int16(b)
	return
}

// sbc8's half-carry compares a's low nibble against b's low nibble plus
// the incoming carry, not against b alone: b&0xF+carry can itself exceed
// 0xF, which a naive (a&0xF)<(b&0xF) || carry-only check gets wrong.
func (c *CPU) sbc8(a, b byte, carryIn bool) (res byte, z, n, h, cy bool) {
	ci := byte(0)
	if carryIn {
		ci = 1
	}
	r := int16(a) - int16(b) - int16(ci)
	res = byte(r)
	z = res == 0
	n = true
	h = (a & 0x0F) < ((b & 0x0F) + ci)
	cy = int16(a) < int16(b)+int16(ci)
	return
}

func (c *CPU) and8(a, b byte) (res byte, z, n, h, cy bool) {
	res = a & b
	z = res == 0
	n, h, cy = false, true, false
	return
}

func (c *CPU) xor8(a, b byte) (res byte, z, n, h, cy bool) {
	res = a ^ b
	z = res == 0
	n, h, cy = false, false, false
	return
}

func (c *CPU) or8(a, b byte) (res byte, z, n, h, cy bool) {
	res = a | b
	z = res == 0
	n, h, cy = false, false, false
	return
}

func (c *CPU) cp8(a, b byte) (z, n, h, cy bool) {
	_, z, n, h, cy = c.sub8(a, b)
	return
}

func (c *CPU) read8(addr uint16) byte     { return c.bus.Read(addr) }
func (c *CPU) write8(addr uint16, v byte) { c.bus.Write(addr, v) }

func (c *CPU) fetch8() byte {
	b := c.read8(c.PC)
	c.PC++
	return b
}

func (c *CPU) fetch16() uint16 {
	lo := uint16(c.fetch8())
	hi := uint16(c.fetch8())
	return lo | (hi << 8)
}

func (c *CPU) read16(addr uint16) uint16 {
	lo := uint16(c.read8(addr))
	hi := uint16(c.read8(addr + 1))
	return lo | (hi << 8)
}

func (c *CPU) write16(addr uint16, v uint16) {
	c.write8(addr, byte(v&0x00FF))
	c.write8(addr+1, byte(v>>8))
}

func (c *CPU) getAF() uint16  { return uint16(c.A)<<8 | uint16(c.F&0xF0) }
func (c *CPU) setAF(v uint16) { c.A = byte(v >> 8); c.F = byte(v) & 0xF0 }
func (c *CPU) getBC() uint16  { return uint16(c.B)<<8 | uint16(c.C) }
func (c *CPU) setBC(v uint16) { c.B = byte(v >> 8); c.C = byte(v) }
func (c *CPU) getDE() uint16  { return uint16(c.D)<<8 | uint16(c.E) }
func (c *CPU) setDE(v uint16) { c.D = byte(v >> 8); c.E = byte(v) }
func (c *CPU) getHL() uint16  { return uint16(c.H)<<8 | uint16(c.L) }
func (c *CPU) setHL(v uint16) { c.H = byte(v >> 8); c.L = byte(v) }

func (c *CPU) push16(v uint16) {
	c.SP -= 2
	c.write16(c.SP, v)
}

func (c *CPU) pop16() uint16 {
	v := c.read16(c.SP)
	c.SP += 2
	return v
}

// IntReq sets bit `kind` in IF through the bus and, if the CPU is parked
// in HALT and IE already enables that interrupt, un-halts it. Dispatch
// itself happens on the next Tick, not here.
func (c *CPU) IntReq(bus Bus, kind int) {
	cur := bus.Read(0xFF0F)
	bus.Write(0xFF0F, cur|byte(1<<uint(kind)))
	ie := bus.Read(0xFFFF)
	if c.halting && ie&byte(1<<uint(kind)) != 0 {
		c.halting = false
	}
}

// Tick advances the CPU against the master clock. If the instruction
// cooldown has not elapsed it returns immediately. Otherwise it: un-halts
// if a HALT is resolved by a pending and enabled interrupt, dispatches the
// lowest-numbered (highest-priority) pending and enabled interrupt if IME
// is set, or else
// fetches, logs, and executes one instruction and re-arms the cooldown
// with that instruction's cost.
func (c *CPU) Tick(now uint64, bus Bus) {
	if now < c.nextInstTState {
		return
	}
	c.bus = bus

	if c.halting {
		ifReg := bus.Read(0xFF0F) & 0x1F
		ie := bus.Read(0xFFFF) & 0x1F
		if ifReg&ie == 0 {
			c.nextInstTState = now + 4
			return
		}
		c.halting = false
	}

	ifReg := bus.Read(0xFF0F) & 0x1F
	ie := bus.Read(0xFFFF) & 0x1F
	pending := ifReg & ie
	if c.ime && pending != 0 {
		var bit uint
		for bit = 0; bit < 5; bit++ {
			if pending&(1<<bit) != 0 {
				break
			}
		}
		bus.Write(0xFF0F, ifReg&^(1<<bit))
		c.ime = false
		c.push16(c.PC)
		c.PC = 0x40 + uint16(bit)*8
		c.nextInstTState = now + 5*4
		return
	}

	pcBefore := c.PC
	op := c.fetch8()
	c.recordLog(pcBefore, op)

	mCycles := c.execute(op)

	if c.eiPending {
		c.ime = true
		c.eiPending = false
	}

	c.nextInstTState = now + uint64(mCycles)*4
}

// execute runs one already-fetched opcode and returns its cost in
// m-cycles, including any extra cost for a taken conditional branch.
func (c *CPU) execute(op byte) int {
	switch op {
	case 0x00: // NOP
		return 1

	case 0x10: // STOP
		panic("cpu: STOP (0x10) encountered")

	// LD r,d8
	case 0x06:
		c.B = c.fetch8()
		return 2
	case 0x0E:
		c.C = c.fetch8()
		return 2
	case 0x16:
		c.D = c.fetch8()
		return 2
	case 0x1E:
		c.E = c.fetch8()
		return 2
	case 0x26:
		c.H = c.fetch8()
		return 2
	case 0x2E:
		c.L = c.fetch8()
		return 2
	case 0x3E:
		c.A = c.fetch8()
		return 2

	// LD r,r' / LD (HL),r / LD r,(HL) / HALT
	case 0x40, 0x41, 0x42, 0x43, 0x44, 0x45, 0x46, 0x47,
		0x48, 0x49, 0x4A, 0x4B, 0x4C, 0x4D, 0x4E, 0x4F,
		0x50, 0x51, 0x52, 0x53, 0x54, 0x55, 0x56, 0x57,
		0x58, 0x59, 0x5A, 0x5B, 0x5C, 0x5D, 0x5E, 0x5F,
		0x60, 0x61, 0x62, 0x63, 0x64, 0x65, 0x66, 0x67,
		0x68, 0x69, 0x6A, 0x6B, 0x6C, 0x6D, 0x6E, 0x6F,
		0x70, 0x71, 0x72, 0x73, 0x74, 0x75, 0x77,
		0x78, 0x79, 0x7A, 0x7B, 0x7C, 0x7D, 0x7E, 0x7F:
		d := (op >> 3) & 7
		s := op & 7
		val := c.regGet(s)
		c.regSet(d, val)
		if d == 6 || s == 6 {
			return 2
		}
		return 1

	case 0x76: // HALT
		c.halting = true
		return 1

	// 16-bit loads
	case 0x01:
		c.setBC(c.fetch16())
		return 3
	case 0x11:
		c.setDE(c.fetch16())
		return 3
	case 0x21:
		c.setHL(c.fetch16())
		return 3
	case 0x31:
		c.SP = c.fetch16()
		return 3
	case 0x08: // LD (a16),SP
		addr := c.fetch16()
		c.write16(addr, c.SP)
		return 5

	case 0x36: // LD (HL),d8
		c.write8(c.getHL(), c.fetch8())
		return 3

	case 0x02:
		c.write8(c.getBC(), c.A)
		return 2
	case 0x12:
		c.write8(c.getDE(), c.A)
		return 2
	case 0x0A:
		c.A = c.read8(c.getBC())
		return 2
	case 0x1A:
		c.A = c.read8(c.getDE())
		return 2

	case 0x22: // LD (HL+),A
		hl := c.getHL()
		c.write8(hl, c.A)
		c.setHL(hl + 1)
		return 2
	case 0x2A: // LD A,(HL+)
		hl := c.getHL()
		c.A = c.read8(hl)
		c.setHL(hl + 1)
		return 2
	case 0x32: // LD (HL-),A
		hl := c.getHL()
		c.write8(hl, c.A)
		c.setHL(hl - 1)
		return 2
	case 0x3A: // LD A,(HL-)
		hl := c.getHL()
		c.A = c.read8(hl)
		c.setHL(hl - 1)
		return 2

	case 0xE0: // LDH (a8),A
		n := uint16(c.fetch8())
		c.write8(0xFF00+n, c.A)
		return 3
	case 0xF0: // LDH A,(a8)
		n := uint16(c.fetch8())
		c.A = c.read8(0xFF00 + n)
		return 3
	case 0xE2: // LD (C),A
		c.write8(0xFF00+uint16(c.C), c.A)
		return 2
	case 0xF2: // LD A,(C)
		c.A = c.read8(0xFF00 + uint16(c.C))
		return 2

	case 0x07: // RLCA
		cval := (c.A >> 7) & 1
		c.A = (c.A << 1) | cval
		c.setZNHC(false, false, false, cval == 1)
		return 1
	case 0x0F: // RRCA
		cval := c.A & 1
		c.A = (c.A >> 1) | (cval << 7)
		c.setZNHC(false, false, false, cval == 1)
		return 1
	case 0x17: // RLA
		cval := (c.A >> 7) & 1
		cin := byte(0)
		if c.F&flagC != 0 {
			cin = 1
		}
		c.A = (c.A << 1) | cin
		c.setZNHC(false, false, false, cval == 1)
		return 1
	case 0x1F: // RRA
		cval := c.A & 1
		cin := byte(0)
		if c.F&flagC != 0 {
			cin = 1
		}
		c.A = (c.A >> 1) | (cin << 7)
		c.setZNHC(false, false, false, cval == 1)
		return 1
	case 0x27: // DAA
		a := c.A
		cf := c.F&flagC != 0
		if c.F&flagN == 0 {
			if cf || a > 0x99 {
				a += 0x60
				cf = true
			}
			if c.F&flagH != 0 || (a&0x0F) > 9 {
				a += 0x06
			}
		} else {
			if cf {
				a -= 0x60
			}
			if c.F&flagH != 0 {
				a -= 0x06
			}
		}
		c.A = a
		c.setZNHC(c.A == 0, c.F&flagN != 0, false, cf)
		return 1
	case 0x2F: // CPL
		c.A = ^c.A
		c.F = (c.F & (flagZ | flagC)) | flagN | flagH
		return 1
	case 0x37: // SCF
		c.F = (c.F & flagZ) | flagC
		return 1
	case 0x3F: // CCF
		if c.F&flagC != 0 {
			c.F = c.F &^ flagC
		} else {
			c.F |= flagC
		}
		c.F &= flagZ | flagC
		return 1

	// INC r / DEC r
	case 0x04, 0x0C, 0x14, 0x1C, 0x24, 0x2C, 0x3C:
		idx := (op >> 3) & 7
		old := c.regGet(idx)
		v := old + 1
		c.regSet(idx, v)
		c.setZNHC(v == 0, false, (old&0x0F) == 0x0F, c.F&flagC != 0)
		return 1
	case 0x34: // INC (HL)
		addr := c.getHL()
		old := c.read8(addr)
		v := old + 1
		c.write8(addr, v)
		c.setZNHC(v == 0, false, (old&0x0F) == 0x0F, c.F&flagC != 0)
		return 3
	case 0x05, 0x0D, 0x15, 0x1D, 0x25, 0x2D, 0x3D:
		idx := (op >> 3) & 7
		old := c.regGet(idx)
		v := old - 1
		c.regSet(idx, v)
		c.setZNHC(v == 0, true, (old&0x0F) == 0x00, c.F&flagC != 0)
		return 1
	case 0x35: // DEC (HL)
		addr := c.getHL()
		old := c.read8(addr)
		v := old - 1
		c.write8(addr, v)
		c.setZNHC(v == 0, true, (old&0x0F) == 0x00, c.F&flagC != 0)
		return 3

	// ALU A,r
	case 0x80, 0x81, 0x82, 0x83, 0x84, 0x85, 0x87:
		r, z, n, h, cy := c.add8(c.A, c.regGet(op&7))
		c.A = r
		c.setZNHC(z, n, h, cy)
		return 1
	case 0x88, 0x89, 0x8A, 0x8B, 0x8C, 0x8D, 0x8F:
		r, z, n, h, cy := c.adc8(c.A, c.regGet(op&7), c.F&flagC != 0)
		c.A = r
		c.setZNHC(z, n, h, cy)
		return 1
	case 0x90, 0x91, 0x92, 0x93, 0x94, 0x95, 0x97:
		r, z, n, h, cy := c.sub8(c.A, c.regGet(op&7))
		c.A = r
		c.setZNHC(z, n, h, cy)
		return 1
	case 0x98, 0x99, 0x9A, 0x9B, 0x9C, 0x9D, 0x9F:
		r, z, n, h, cy := c.sbc8(c.A, c.regGet(op&7), c.F&flagC != 0)
		c.A = r
		c.setZNHC(z, n, h, cy)
		return 1
	case 0xA0, 0xA1, 0xA2, 0xA3, 0xA4, 0xA5, 0xA7:
		r, z, n, h, cy := c.and8(c.A, c.regGet(op&7))
		c.A = r
		c.setZNHC(z, n, h, cy)
		return 1
	case 0xA8, 0xA9, 0xAA, 0xAB, 0xAC, 0xAD, 0xAF:
		r, z, n, h, cy := c.xor8(c.A, c.regGet(op&7))
		c.A = r
		c.setZNHC(z, n, h, cy)
		return 1
	case 0xB0, 0xB1, 0xB2, 0xB3, 0xB4, 0xB5, 0xB7:
		r, z, n, h, cy := c.or8(c.A, c.regGet(op&7))
		c.A = r
		c.setZNHC(z, n, h, cy)
		return 1
	case 0xB8, 0xB9, 0xBA, 0xBB, 0xBC, 0xBD, 0xBF:
		z, n, h, cy := c.cp8(c.A, c.regGet(op&7))
		c.setZNHC(z, n, h, cy)
		return 1

	// ALU A,(HL)
	case 0x86:
		r, z, n, h, cy := c.add8(c.A, c.read8(c.getHL()))
		c.A = r
		c.setZNHC(z, n, h, cy)
		return 2
	case 0x8E:
		r, z, n, h, cy := c.adc8(c.A, c.read8(c.getHL()), c.F&flagC != 0)
		c.A = r
		c.setZNHC(z, n, h, cy)
		return 2
	case 0x96:
		r, z, n, h, cy := c.sub8(c.A, c.read8(c.getHL()))
		c.A = r
		c.setZNHC(z, n, h, cy)
		return 2
	case 0x9E:
		r, z, n, h, cy := c.sbc8(c.A, c.read8(c.getHL()), c.F&flagC != 0)
		c.A = r
		c.setZNHC(z, n, h, cy)
		return 2
	case 0xA6:
		r, z, n, h, cy := c.and8(c.A, c.read8(c.getHL()))
		c.A = r
		c.setZNHC(z, n, h, cy)
		return 2
	case 0xAE:
		r, z, n, h, cy := c.xor8(c.A, c.read8(c.getHL()))
		c.A = r
		c.setZNHC(z, n, h, cy)
		return 2
	case 0xB6:
		r, z, n, h, cy := c.or8(c.A, c.read8(c.getHL()))
		c.A = r
		c.setZNHC(z, n, h, cy)
		return 2
	case 0xBE:
		z, n, h, cy := c.cp8(c.A, c.read8(c.getHL()))
		c.setZNHC(z, n, h, cy)
		return 2

	// ALU A,d8
	case 0xC6:
		r, z, n, h, cy := c.add8(c.A, c.fetch8())
		c.A = r
		c.setZNHC(z, n, h, cy)
		return 2
	case 0xCE:
		r, z, n, h, cy := c.adc8(c.A, c.fetch8(), c.F&flagC != 0)
		c.A = r
		c.setZNHC(z, n, h, cy)
		return 2
	case 0xD6:
		r, z, n, h, cy := c.sub8(c.A, c.fetch8())
		c.A = r
		c.setZNHC(z, n, h, cy)
		return 2
	case 0xDE:
		r, z, n, h, cy := c.sbc8(c.A, c.fetch8(), c.F&flagC != 0)
		c.A = r
		c.setZNHC(z, n, h, cy)
		return 2
	case 0xE6:
		r, z, n, h, cy := c.and8(c.A, c.fetch8())
		c.A = r
		c.setZNHC(z, n, h, cy)
		return 2
	case 0xEE:
		r, z, n, h, cy := c.xor8(c.A, c.fetch8())
		c.A = r
		c.setZNHC(z, n, h, cy)
		return 2
	case 0xF6:
		r, z, n, h, cy := c.or8(c.A, c.fetch8())
		c.A = r
		c.setZNHC(z, n, h, cy)
		return 2
	case 0xFE:
		z, n, h, cy := c.cp8(c.A, c.fetch8())
		c.setZNHC(z, n, h, cy)
		return 2

	case 0xEA: // LD (a16),A
		c.write8(c.fetch16(), c.A)
		return 4
	case 0xFA: // LD A,(a16)
		c.A = c.read8(c.fetch16())
		return 4

	case 0xC3: // JP a16
		c.PC = c.fetch16()
		return 4
	case 0xE9: // JP (HL)
		c.PC = c.getHL()
		return 1
	case 0x18: // JR r8
		off := int8(c.fetch8())
		c.PC = uint16(int32(c.PC) + int32(off))
		return 3

	case 0x20: // JR NZ
		off := int8(c.fetch8())
		if c.F&flagZ == 0 {
			c.PC = uint16(int32(c.PC) + int32(off))
			return 3
		}
		return 2
	case 0x28: // JR Z
		off := int8(c.fetch8())
		if c.F&flagZ != 0 {
			c.PC = uint16(int32(c.PC) + int32(off))
			return 3
		}
		return 2
	case 0x30: // JR NC
		off := int8(c.fetch8())
		if c.F&flagC == 0 {
			c.PC = uint16(int32(c.PC) + int32(off))
			return 3
		}
		return 2
	case 0x38: // JR C
		off := int8(c.fetch8())
		if c.F&flagC != 0 {
			c.PC = uint16(int32(c.PC) + int32(off))
			return 3
		}
		return 2

	case 0xCD: // CALL a16
		addr := c.fetch16()
		c.push16(c.PC)
		c.PC = addr
		return 6
	case 0xC9: // RET
		c.PC = c.pop16()
		return 4
	case 0xD9: // RETI
		c.PC = c.pop16()
		c.ime = true
		return 4

	case 0xC7:
		c.push16(c.PC)
		c.PC = 0x00
		return 4
	case 0xCF:
		c.push16(c.PC)
		c.PC = 0x08
		return 4
	case 0xD7:
		c.push16(c.PC)
		c.PC = 0x10
		return 4
	case 0xDF:
		c.push16(c.PC)
		c.PC = 0x18
		return 4
	case 0xE7:
		c.push16(c.PC)
		c.PC = 0x20
		return 4
	case 0xEF:
		c.push16(c.PC)
		c.PC = 0x28
		return 4
	case 0xF7:
		c.push16(c.PC)
		c.PC = 0x30
		return 4
	case 0xFF:
		c.push16(c.PC)
		c.PC = 0x38
		return 4

	case 0xC4: // CALL NZ
		addr := c.fetch16()
		if c.F&flagZ == 0 {
			c.push16(c.PC)
			c.PC = addr
			return 6
		}
		return 3
	case 0xCC: // CALL Z
		addr := c.fetch16()
		if c.F&flagZ != 0 {
			c.push16(c.PC)
			c.PC = addr
			return 6
		}
		return 3
	case 0xD4: // CALL NC
		addr := c.fetch16()
		if c.F&flagC == 0 {
			c.push16(c.PC)
			c.PC = addr
			return 6
		}
		return 3
	case 0xDC: // CALL C
		addr := c.fetch16()
		if c.F&flagC != 0 {
			c.push16(c.PC)
			c.PC = addr
			return 6
		}
		return 3

	case 0xC0: // RET NZ
		if c.F&flagZ == 0 {
			c.PC = c.pop16()
			return 5
		}
		return 2
	case 0xC8: // RET Z
		if c.F&flagZ != 0 {
			c.PC = c.pop16()
			return 5
		}
		return 2
	case 0xD0: // RET NC
		if c.F&flagC == 0 {
			c.PC = c.pop16()
			return 5
		}
		return 2
	case 0xD8: // RET C
		if c.F&flagC != 0 {
			c.PC = c.pop16()
			return 5
		}
		return 2

	case 0xC2: // JP NZ
		addr := c.fetch16()
		if c.F&flagZ == 0 {
			c.PC = addr
			return 4
		}
		return 3
	case 0xCA: // JP Z
		addr := c.fetch16()
		if c.F&flagZ != 0 {
			c.PC = addr
			return 4
		}
		return 3
	case 0xD2: // JP NC
		addr := c.fetch16()
		if c.F&flagC == 0 {
			c.PC = addr
			return 4
		}
		return 3
	case 0xDA: // JP C
		addr := c.fetch16()
		if c.F&flagC != 0 {
			c.PC = addr
			return 4
		}
		return 3

	case 0x03:
		c.setBC(c.getBC() + 1)
		return 2
	case 0x13:
		c.setDE(c.getDE() + 1)
		return 2
	case 0x23:
		c.setHL(c.getHL() + 1)
		return 2
	case 0x33:
		c.SP++
		return 2
	case 0x0B:
		c.setBC(c.getBC() - 1)
		return 2
	case 0x1B:
		c.setDE(c.getDE() - 1)
		return 2
	case 0x2B:
		c.setHL(c.getHL() - 1)
		return 2
	case 0x3B:
		c.SP--
		return 2

	case 0x09: // ADD HL,BC
		c.addHL(c.getBC())
		return 2
	case 0x19: // ADD HL,DE
		c.addHL(c.getDE())
		return 2
	case 0x29: // ADD HL,HL
		c.addHL(c.getHL())
		return 2
	case 0x39: // ADD HL,SP
		c.addHL(c.SP)
		return 2

	case 0xF8: // LD HL,SP+r8
		off := int8(c.fetch8())
		res := uint16(int32(int16(c.SP)) + int32(off))
		low := byte(c.SP & 0xFF)
		_, _, _, h, cy := c.add8(low, byte(off))
		c.setHL(res)
		c.setZNHC(false, false, h, cy)
		return 3
	case 0xF9: // LD SP,HL
		c.SP = c.getHL()
		return 2
	case 0xE8: // ADD SP,r8
		off := int8(c.fetch8())
		low := byte(c.SP & 0xFF)
		_, _, _, h, cy := c.add8(low, byte(off))
		c.SP = uint16(int32(int16(c.SP)) + int32(off))
		c.setZNHC(false, false, h, cy)
		return 4

	case 0xF3: // DI
		c.ime = false
		c.eiPending = false
		return 1
	case 0xFB: // EI
		c.eiPending = true
		return 1

	case 0xCB:
		return c.executeCB()

	case 0xF5:
		c.push16(c.getAF())
		return 4
	case 0xC5:
		c.push16(c.getBC())
		return 4
	case 0xD5:
		c.push16(c.getDE())
		return 4
	case 0xE5:
		c.push16(c.getHL())
		return 4
	case 0xF1:
		c.setAF(c.pop16())
		return 3
	case 0xC1:
		c.setBC(c.pop16())
		return 3
	case 0xD1:
		c.setDE(c.pop16())
		return 3
	case 0xE1:
		c.setHL(c.pop16())
		return 3

	default:
		// Undefined primary opcode (0xD3, 0xDB, 0xDD, 0xE3, 0xE4, 0xEB,
		// 0xEC, 0xED, 0xF4, 0xFC, 0xFD): no instruction is defined for
		// this byte. Treated as a 1 m-cycle no-op rather than crashing,
		// since no ROM that reaches this CPU should ever emit one.
		return 1
	}
}

// regGet/regSet index the 3-bit register field used throughout the
// unprefixed and CB-prefixed tables: 0=B 1=C 2=D 3=E 4=H 5=L 6=(HL) 7=A.
func (c *CPU) regGet(idx byte) byte {
	switch idx {
	case 0:
		return c.B
	case 1:
		return c.C
	case 2:
		return c.D
	case 3:
		return c.E
	case 4:
		return c.H
	case 5:
		return c.L
	case 6:
		return c.read8(c.getHL())
	default:
		return c.A
	}
}

func (c *CPU) regSet(idx byte, v byte) {
	switch idx {
	case 0:
		c.B = v
	case 1:
		c.C = v
	case 2:
		c.D = v
	case 3:
		c.E = v
	case 4:
		c.H = v
	case 5:
		c.L = v
	case 6:
		c.write8(c.getHL(), v)
	default:
		c.A = v
	}
}

func (c *CPU) addHL(rr uint16) {
	hl := c.getHL()
	r := uint32(hl) + uint32(rr)
	h := ((hl & 0x0FFF) + (rr & 0x0FFF)) > 0x0FFF
	c.setHL(uint16(r))
	c.setZNHC(c.F&flagZ != 0, false, h, r > 0xFFFF)
}

// executeCB fetches the CB sub-opcode and dispatches the rotate/shift/
// swap, BIT, RES, and SET groups. An [HL] operand costs 2 extra m-cycles
// for the read-modify-write groups, or 1 extra for BIT (which only reads).
func (c *CPU) executeCB() int {
	cb := c.fetch8()
	reg := cb & 7
	group := (cb >> 6) & 3
	y := (cb >> 3) & 7

	mCycles := 2
	switch {
	case reg == 6 && group == 1:
		mCycles = 3
	case reg == 6:
		mCycles = 4
	}

	switch group {
	case 0: // rotate/shift/swap
		v := c.regGet(reg)
		var cflag byte
		switch y {
		case 0: // RLC
			cflag = (v >> 7) & 1
			v = (v << 1) | cflag
		case 1: // RRC
			cflag = v & 1
			v = (v >> 1) | (cflag << 7)
		case 2: // RL
			cflag = (v >> 7) & 1
			cin := byte(0)
			if c.F&flagC != 0 {
				cin = 1
			}
			v = (v << 1) | cin
		case 3: // RR
			cflag = v & 1
			cin := byte(0)
			if c.F&flagC != 0 {
				cin = 1
			}
			v = (v >> 1) | (cin << 7)
		case 4: // SLA
			cflag = (v >> 7) & 1
			v <<= 1
		case 5: // SRA
			cflag = v & 1
			v = (v >> 1) | (v & 0x80)
		case 6: // SWAP
			v = (v << 4) | (v >> 4)
			cflag = 0
		case 7: // SRL
			cflag = v & 1
			v >>= 1
		}
		c.regSet(reg, v)
		c.setZNHC(v == 0, false, false, cflag == 1)

	case 1: // BIT y,r
		v := c.regGet(reg)
		bit := (v >> y) & 1
		c.F = (c.F & flagC) | flagH
		if bit == 0 {
			c.F |= flagZ
		}

	case 2: // RES y,r
		c.regSet(reg, c.regGet(reg)&^(1<<y))

	case 3: // SET y,r
		c.regSet(reg, c.regGet(reg)|(1<<y))
	}

	return mCycles
}
