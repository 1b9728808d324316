package cart

import "testing"

func TestMBC5_ROMBanking(t *testing.T) {
	rom := make([]byte, 1024*1024)
	for bank := 0; bank < 64; bank++ {
		rom[bank*0x4000] = byte(bank)
	}
	m := NewMBC5(rom, 0)

	if got := m.Read(0x4000); got != 0x01 {
		t.Fatalf("default bank1 read got %02X want 01", got)
	}
	m.Write(0x2000, 0x00)
	if got := m.Read(0x4000); got != 0x00 {
		t.Fatalf("MBC5 must allow landing on bank 0, got %02X", got)
	}
	m.Write(0x2000, 0x22)
	if got := m.Read(0x4000); got != 0x22 {
		t.Fatalf("bank34 read got %02X want 22", got)
	}
}

func TestMBC5_ROMBankHighBit(t *testing.T) {
	rom := make([]byte, 0x101*0x4000)
	rom[0x100*0x4000] = 0xAA
	m := NewMBC5(rom, 0)
	m.Write(0x2000, 0x00)
	m.Write(0x3000, 0x01) // set bit 8
	if got := m.Read(0x4000); got != 0xAA {
		t.Fatalf("bank 0x100 read got %02X want AA", got)
	}
}

func TestMBC5_SRAMBanking(t *testing.T) {
	rom := make([]byte, 0x8000)
	m := NewMBC5(rom, 4*0x2000)
	m.Write(0x4000, 0x03)
	m.Write(0xA000, 0x5A)
	if got := m.Read(0xA000); got != 0x5A {
		t.Fatalf("SRAM bank3 RW failed: got %02X", got)
	}
	m.Write(0x4000, 0x00)
	if got := m.Read(0xA000); got == 0x5A {
		t.Fatalf("bank0 read should not alias bank3 data")
	}
}

func TestMBC5_SRAMAbsentReadsZero(t *testing.T) {
	rom := make([]byte, 0x8000)
	m := NewMBC5(rom, 0)
	if got := m.Read(0xA000); got != 0x00 {
		t.Fatalf("absent SRAM read got %02X want 00", got)
	}
}

func TestMBC5_SaveLoadState(t *testing.T) {
	rom := make([]byte, 0x8000)
	m := NewMBC5(rom, 0)
	m.Write(0x2000, 0x34)
	m.Write(0x3000, 0x01)
	m.Write(0x4000, 0x07)
	data := m.SaveState()

	n := NewMBC5(rom, 0)
	n.LoadState(data)
	if n.romBank != 0x134 || n.sramBank != 0x07 {
		t.Fatalf("state not restored: romBank=%#x sramBank=%#x", n.romBank, n.sramBank)
	}
}

func TestMBC5_SaveLoadRAM(t *testing.T) {
	rom := make([]byte, 0x8000)
	m := NewMBC5(rom, 0x2000)
	m.Write(0xA000, 0x42)
	data := m.SaveRAM()

	n := NewMBC5(rom, 0x2000)
	n.LoadRAM(data)
	if got := n.Read(0xA000); got != 0x42 {
		t.Fatalf("RAM not restored: got %02X", got)
	}
}
