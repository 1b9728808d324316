// Command gbcore runs a ROM headlessly for a fixed number of frames,
// optionally dumping the last framebuffer to PNG and/or asserting its
// CRC32. Grounded on the -headless path the teacher's cmd/gbemu used to
// carry; split into its own binary since it needs neither ebiten's
// window nor its event loop, only the core and stdlib image/png.
package main

import (
	"flag"
	"fmt"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"log"
	"os"
	"strings"
	"time"

	"github.com/hollowgb/gbcore/internal/cart"
	"github.com/hollowgb/gbcore/internal/emu"
)

var dmgPalette = color.Palette{
	color.RGBA{0xE0, 0xF8, 0xD0, 0xFF},
	color.RGBA{0x88, 0xC0, 0x70, 0xFF},
	color.RGBA{0x34, 0x68, 0x56, 0xFF},
	color.RGBA{0x08, 0x18, 0x20, 0xFF},
}

func saveFramePNG(fb []byte, path string) error {
	img := image.NewPaletted(image.Rect(0, 0, 160, 144), dmgPalette)
	copy(img.Pix, fb)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

func main() {
	romPath := flag.String("rom", "", "path to ROM (.gb)")
	frames := flag.Int("frames", 300, "frames to run")
	pngOut := flag.String("outpng", "", "write last framebuffer to PNG at path")
	expect := flag.String("expect", "", "assert framebuffer CRC32 (hex)")
	saveRAM := flag.Bool("save", false, "persist battery RAM to ROM.sav on exit and load on start")
	flag.Parse()

	if *romPath == "" {
		log.Fatal("-rom is required")
	}
	rom, err := os.ReadFile(*romPath)
	if err != nil {
		log.Fatalf("read rom: %v", err)
	}
	if h, err := cart.ParseHeader(rom); err == nil {
		log.Printf("ROM: %q type=%s banks=%d ram=%dB", h.Title, h.CartTypeStr, h.ROMBanks, h.RAMSizeBytes)
	}

	m := emu.New(emu.Config{})
	if err := m.LoadROMFromFile(*romPath, rom); err != nil {
		log.Fatalf("load cart: %v", err)
	}

	savPath := strings.TrimSuffix(*romPath, ".gb") + ".sav"
	if *saveRAM {
		if data, err := os.ReadFile(savPath); err == nil {
			m.LoadBattery(data)
		}
	}

	n := *frames
	if n <= 0 {
		n = 1
	}
	start := time.Now()
	for i := 0; i < n; i++ {
		m.StepFrame()
	}
	dur := time.Since(start)

	fb := m.Framebuffer()
	crc := crc32.ChecksumIEEE(fb)
	log.Printf("headless: frames=%d elapsed=%s fps=%.2f fb_crc32=%08x",
		n, dur.Truncate(time.Millisecond), float64(n)/dur.Seconds(), crc)

	if *pngOut != "" {
		if err := saveFramePNG(fb, *pngOut); err != nil {
			log.Fatalf("write PNG: %v", err)
		}
		log.Printf("wrote %s", *pngOut)
	}

	if *saveRAM {
		if data, ok := m.SaveBattery(); ok {
			if err := os.WriteFile(savPath, data, 0o644); err == nil {
				log.Printf("wrote %s", savPath)
			}
		}
	}

	if *expect != "" {
		want := strings.TrimPrefix(strings.ToLower(*expect), "0x")
		got := fmt.Sprintf("%08x", crc)
		if got != want {
			log.Fatalf("checksum mismatch: got %s, want %s", got, want)
		}
	}
}
