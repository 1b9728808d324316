// Command gbemu runs a ROM through the ebiten desktop frontend.
// Grounded on the teacher's cmd/gbemu; its headless/PNG/CRC32 path now
// lives in cmd/gbcore, which needs none of ebiten's windowing.
package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"github.com/hollowgb/gbcore/internal/cart"
	"github.com/hollowgb/gbcore/internal/emu"
	"github.com/hollowgb/gbcore/internal/ui"
)

func main() {
	romPath := flag.String("rom", "", "path to ROM (.gb)")
	scale := flag.Int("scale", 3, "window scale")
	title := flag.String("title", "gbemu", "window title")
	trace := flag.Bool("trace", false, "CPU trace log (not read by the core; no trace is written)")
	saveRAM := flag.Bool("save", true, "persist battery RAM to ROM.sav on exit and load on start")
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

	m := emu.New(emu.Config{Trace: *trace, LimitFPS: true})
	if err := m.LoadROMFromFile(*romPath, rom); err != nil {
		log.Fatalf("load cart: %v", err)
	}

	savPath := strings.TrimSuffix(*romPath, ".gb") + ".sav"
	if *saveRAM {
		if data, err := os.ReadFile(savPath); err == nil {
			if m.LoadBattery(data) {
				log.Printf("loaded save RAM: %s (%d bytes)", savPath, len(data))
			}
		}
	}

	app := ui.NewApp(ui.Config{Title: *title, Scale: *scale}, m)
	runErr := app.Run()

	if *saveRAM {
		if data, ok := m.SaveBattery(); ok {
			if err := os.WriteFile(savPath, data, 0o644); err == nil {
				log.Printf("wrote %s", savPath)
			}
		}
	}
	if runErr != nil {
		log.Fatal(runErr)
	}
}
