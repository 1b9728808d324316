// Package emu assembles the Bus, CPU, PPU, and master Clock into the
// single facade a frontend drives: load a ROM, push buttons, step a
// frame, read back the framebuffer. Grounded on the teacher's
// internal/emu package; its APU pull queue, save-state-slot management,
// and CGB compat-palette heuristics are dropped since sound and CGB mode
// are both out of scope here — what remains is the per-tick ordering the
// teacher's Machine already used, generalized to this core's Tick-based
// CPU and PPU.
package emu

import (
	"fmt"

	"github.com/hollowgb/gbcore/internal/bus"
	"github.com/hollowgb/gbcore/internal/cart"
	"github.com/hollowgb/gbcore/internal/clock"
	"github.com/hollowgb/gbcore/internal/cpu"
	"github.com/hollowgb/gbcore/internal/ppu"
)

// tStatesPerTick is how many T-states the master clock advances per
// outer Tick call. The timer (which runs at T-state granularity) is
// walked this many times per Tick so its falling-edge detection never
// skips a step; the CPU and PPU each see a single Tick(now, bus) call
// since both gate their own internal work against now.
const tStatesPerTick = 4

// Buttons mirrors the eight DMG joypad inputs the frontend polls.
type Buttons struct {
	A, B, Start, Select   bool
	Up, Down, Left, Right bool
}

// Machine wires a cartridge, Bus, CPU, PPU, and Clock into a single
// steppable unit. It holds no UI, audio, or persistence state of its
// own; callers that want battery saves go through LoadBattery/SaveBattery.
type Machine struct {
	cfg   Config
	clock *clock.Clock
	bus   *bus.Bus
	cpu   *cpu.CPU
	ppu   *ppu.PPU

	romPath string
	header  *cart.Header
}

// New returns a Machine with no cartridge loaded. Call LoadCartridge
// before Tick/StepFrame.
func New(cfg Config) *Machine {
	return &Machine{cfg: cfg}
}

// LoadCartridge builds a fresh Bus/CPU/PPU/Clock around rom. boot is
// accepted for API symmetry with the teacher's loader but unused: this
// core always starts from the DMG post-boot register state named in
// cpu.Reset rather than executing a boot ROM.
func (m *Machine) LoadCartridge(rom []byte, boot []byte) error {
	b, err := bus.New(rom)
	if err != nil {
		return fmt.Errorf("emu: load cartridge: %w", err)
	}
	h, err := cart.ParseHeader(rom)
	if err != nil {
		return fmt.Errorf("emu: parse header: %w", err)
	}
	m.bus = b
	m.cpu = cpu.New()
	m.ppu = ppu.New()
	m.clock = clock.New()
	m.header = h
	return nil
}

// LoadROMFromFile is a convenience wrapper used by the headless and
// ebiten frontends to both load rom and remember its path for save-RAM
// placement.
func (m *Machine) LoadROMFromFile(path string, rom []byte) error {
	if err := m.LoadCartridge(rom, nil); err != nil {
		return err
	}
	m.romPath = path
	return nil
}

// ROMPath returns the path LoadROMFromFile was given, or "" if the
// machine was loaded via LoadCartridge directly or not at all.
func (m *Machine) ROMPath() string { return m.romPath }

// ROMTitle returns the cartridge header title, or "" if no cartridge is
// loaded.
func (m *Machine) ROMTitle() string {
	if m.header == nil {
		return ""
	}
	return m.header.Title
}

// LoadBattery restores cartridge RAM from a prior SaveBattery, returning
// false if no cartridge is loaded or the cartridge has no battery RAM.
func (m *Machine) LoadBattery(data []byte) bool {
	if m.bus == nil {
		return false
	}
	bb, ok := m.bus.Cart().(cart.BatteryBacked)
	if !ok || bb.SaveRAM() == nil {
		return false
	}
	bb.LoadRAM(data)
	return true
}

// SaveBattery returns a copy of cartridge RAM suitable for LoadBattery,
// or (nil, false) if the cartridge has no battery RAM.
func (m *Machine) SaveBattery() ([]byte, bool) {
	if m.bus == nil {
		return nil, false
	}
	bb, ok := m.bus.Cart().(cart.BatteryBacked)
	if !ok {
		return nil, false
	}
	data := bb.SaveRAM()
	if data == nil {
		return nil, false
	}
	return data, true
}

// SaveState and LoadState snapshot/restore the Bus state only (memory,
// I/O registers, IF/IE, timer registers, held buttons, cartridge banking).
// CPU registers and the PPU's scanline position are not included.
func (m *Machine) SaveState() []byte {
	return m.bus.SaveState()
}

func (m *Machine) LoadState(data []byte) {
	m.bus.LoadState(data)
}

// SetButtons applies the frontend's current button state to the Bus's
// gamepad component.
func (m *Machine) SetButtons(btn Buttons) {
	g := m.bus.Gamepad()
	g.A, g.B, g.Select, g.Start = btn.A, btn.B, btn.Select, btn.Start
	g.Up, g.Down, g.Left, g.Right = btn.Up, btn.Down, btn.Left, btn.Right
}

// Tick advances the whole machine by one tStatesPerTick window: the CPU
// and PPU each see one call gated against the clock's current T-state,
// the timer is walked T-state by T-state so its edge detection can't
// skip a transition, and any interrupts either component raised this
// tick are delivered before the clock advances.
func (m *Machine) Tick() {
	now := m.clock.Now()
	m.cpu.Tick(now, m.bus)
	m.ppu.Tick(now, m.bus)

	if vblank, lcd := m.ppu.ConsumeIRQs(); vblank || lcd {
		if vblank {
			m.cpu.IntReq(m.bus, cpu.IntVBlank)
		}
		if lcd {
			m.cpu.IntReq(m.bus, cpu.IntLCD)
		}
	}

	for i := 0; i < tStatesPerTick; i++ {
		if m.bus.TickTimer() {
			m.cpu.IntReq(m.bus, cpu.IntTimer)
		}
	}

	m.clock.Advance(tStatesPerTick)
}

// ticksPerFrame is the number of Tick calls needed to advance one
// 154-scanline frame: 154 lines * 456 T-states, divided by the
// T-states advanced per Tick.
const ticksPerFrame = (ppu.LinesPerFrame * ppu.TStatesPerLine) / tStatesPerTick

// StepFrame advances the machine by exactly one video frame.
func (m *Machine) StepFrame() {
	for i := 0; i < ticksPerFrame; i++ {
		m.Tick()
	}
}

// Framebuffer returns the live 160x144 index-color (0..3) pixel buffer
// the PPU is drawing into, row-major.
func (m *Machine) Framebuffer() []byte {
	return m.ppu.Framebuffer()
}

// Bus exposes the underlying Bus for frontends that need direct access
// (trace logging, debugger views).
func (m *Machine) Bus() *bus.Bus { return m.bus }

// CPU exposes the underlying CPU for trace logging.
func (m *Machine) CPU() *cpu.CPU { return m.cpu }
