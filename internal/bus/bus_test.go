package bus

import "testing"

func mustNew(t *testing.T, rom []byte) *Bus {
	t.Helper()
	b, err := New(rom)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return b
}

func TestBus_ROMAndRAM(t *testing.T) {
	rom := make([]byte, 0x8000)
	rom[0x0100] = 0x42
	b := mustNew(t, rom)

	if got := b.Read(0x0100); got != 0x42 {
		t.Fatalf("ROM read got %02x, want 42", got)
	}

	b.Write(0xC000, 0x99)
	if got := b.Read(0xC000); got != 0x99 {
		t.Fatalf("RAM read got %02x, want 99", got)
	}

	// ROM-only cart has no SRAM: reads return 0x00, not 0xFF.
	if got := b.Read(0xA123); got != 0x00 {
		t.Fatalf("Ext RAM (absent) got %02x, want 00", got)
	}
}

// TestBus_EchoRAMMirror pins invariant 4: Echo RAM and WRAM are
// byte-identical over their overlapping range, in both directions.
func TestBus_EchoRAMMirror(t *testing.T) {
	b := mustNew(t, make([]byte, 0x8000))

	b.Write(0xC000, 0x55)
	if got := b.Read(0xE000); got != 0x55 {
		t.Fatalf("WRAM write not visible via Echo: got %02x", got)
	}

	b.Write(0xE010, 0x77)
	if got := b.Read(0xC010); got != 0x77 {
		t.Fatalf("Echo write did not mirror to WRAM: got %02x", got)
	}
}

func TestBus_VRAM_OAM(t *testing.T) {
	b := mustNew(t, make([]byte, 0x8000))

	b.Write(0x8000, 0x11)
	if got := b.Read(0x8000); got != 0x11 {
		t.Fatalf("VRAM read got %02x, want 11", got)
	}

	b.Write(0xFE00, 0x22)
	if got := b.Read(0xFE00); got != 0x22 {
		t.Fatalf("OAM read got %02x, want 22", got)
	}
}

func TestBus_UnusableRegion(t *testing.T) {
	b := mustNew(t, make([]byte, 0x8000))
	b.Write(0xFEA0, 0x42) // should be ignored
	if got := b.Read(0xFEA0); got != 0xFF {
		t.Fatalf("unusable region got %02x, want FF", got)
	}
}

// TestBus_IFIEMasking pins invariant 5: top 3 bits always read as 1.
func TestBus_IFIEMasking(t *testing.T) {
	b := mustNew(t, make([]byte, 0x8000))

	b.Write(0xFF0F, 0x05)
	if got := b.Read(0xFF0F); got&0xE0 != 0xE0 {
		t.Fatalf("IF top bits not forced to 1: got %02x", got)
	}
	if got := b.Read(0xFF0F); got&0x1F != 0x05 {
		t.Fatalf("IF low bits got %02x, want 05", got&0x1F)
	}

	b.Write(0xFFFF, 0x1B)
	if got := b.Read(0xFFFF); got != (0x1B | 0xE0) {
		t.Fatalf("IE got %02x, want %02x", got, 0x1B|0xE0)
	}
}

func TestBus_RequestInterruptMasksToo(t *testing.T) {
	b := mustNew(t, make([]byte, 0x8000))
	b.RequestInterrupt(2)
	if got := b.Read(0xFF0F); got != (0x04 | 0xE0) {
		t.Fatalf("RequestInterrupt got %02x, want %02x", got, 0x04|0xE0)
	}
}

func TestBus_GamepadRouting(t *testing.T) {
	b := mustNew(t, make([]byte, 0x8000))

	b.Write(0xFF00, 0x20) // bit5 set, bit4 clear -> DPad
	b.Gamepad().Right = true
	b.Gamepad().Up = true
	if got := b.Read(0xFF00) & 0x0F; got != 0x0A { // right(0) and up(2) cleared -> 1010
		t.Fatalf("DPad read got %04b want 1010", got)
	}

	b.Write(0xFF00, 0x10) // bit5 clear -> Buttons
	b.Gamepad().A = true
	b.Gamepad().Start = true
	if got := b.Read(0xFF00) & 0x0F; got != 0x06 { // a(0) start(3) -> 0110
		t.Fatalf("Buttons read got %04b want 0110", got)
	}
}

func TestBus_TimerRegisterRouting(t *testing.T) {
	b := mustNew(t, make([]byte, 0x8000))

	b.Write(0xFF04, 0x12) // any write resets DIV
	if got := b.Read(0xFF04); got != 0x00 {
		t.Fatalf("DIV got %02x want 00", got)
	}
	b.Write(0xFF05, 0x77)
	if got := b.Read(0xFF05); got != 0x77 {
		t.Fatalf("TIMA got %02x want 77", got)
	}
	b.Write(0xFF06, 0x88)
	if got := b.Read(0xFF06); got != 0x88 {
		t.Fatalf("TMA got %02x want 88", got)
	}
	b.Write(0xFF07, 0xFD)
	if got := b.Read(0xFF07); got != 0xFD {
		t.Fatalf("TAC got %02x want FD", got)
	}
}

func TestBus_SerialWritesIgnoredReadsZero(t *testing.T) {
	b := mustNew(t, make([]byte, 0x8000))
	b.Write(0xFF01, 0x41)
	b.Write(0xFF02, 0x81)
	if got := b.Read(0xFF01); got != 0 {
		t.Fatalf("serial data read got %02x want 00", got)
	}
	if got := b.Read(0xFF02); got != 0 {
		t.Fatalf("serial control read got %02x want 00", got)
	}
}

// TestBus_S5_DMAFromC100 pins scenario S5: writing 0xC1 to 0xFF46 with
// WRAM filled with ascending bytes starting at 0xC100 copies OAM[0..159]
// to 0x00..0x9F.
func TestBus_S5_DMAFromC100(t *testing.T) {
	b := mustNew(t, make([]byte, 0x8000))
	for i := 0; i < 0xA0; i++ {
		b.Write(0xC100+uint16(i), byte(i))
	}
	b.Write(0xFF46, 0xC1)
	for i := 0; i < 0xA0; i++ {
		if got := b.Read(0xFE00 + uint16(i)); got != byte(i) {
			t.Fatalf("OAM[%d] = %02x, want %02x", i, got, byte(i))
		}
	}
}

func TestBus_VRAMOAMLocks(t *testing.T) {
	b := mustNew(t, make([]byte, 0x8000))

	b.SetVRAMLock(true)
	b.Write(0x8000, 0xAB)
	if got := b.Read(0x8000); got != 0x00 {
		t.Fatalf("VRAM write landed while locked: got %02x", got)
	}
	b.SetVRAMLock(false)
	b.Write(0x8000, 0xAB)
	if got := b.Read(0x8000); got != 0xAB {
		t.Fatalf("VRAM write did not land once unlocked: got %02x", got)
	}

	b.SetOAMLock(true)
	b.Write(0xFE00, 0xCD)
	if got := b.Read(0xFE00); got != 0x00 {
		t.Fatalf("OAM write landed while locked: got %02x", got)
	}
}

func TestBus_SaveLoadStateRoundTrip(t *testing.T) {
	rom := make([]byte, 0x8000)
	b := mustNew(t, rom)
	b.Write(0xC000, 0x42)
	b.Write(0xFF05, 0x99)
	b.Write(0xFFFF, 0x1F)

	data := b.SaveState()
	n := mustNew(t, rom)
	n.LoadState(data)

	if got := n.Read(0xC000); got != 0x42 {
		t.Fatalf("WRAM not restored: got %02x", got)
	}
	if got := n.Read(0xFF05); got != 0x99 {
		t.Fatalf("TIMA not restored: got %02x", got)
	}
	if got := n.Read(0xFFFF); got != (0x1F | 0xE0) {
		t.Fatalf("IE not restored: got %02x", got)
	}
}

func TestBus_UnsupportedCartTypeIsFatal(t *testing.T) {
	rom := make([]byte, 0x8000)
	rom[0x0147] = 0x05 // MBC2, unsupported in this core
	rom[0x0148] = 0x00
	if _, err := New(rom); err == nil {
		t.Fatalf("expected error constructing Bus with unsupported cart type")
	}
}
