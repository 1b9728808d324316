// Command gbterm runs a ROM through the tcell terminal frontend.
// Grounded on jeebie's terminal backend for the rendering technique and
// on the teacher's cmd/gbemu for CLI/battery-RAM plumbing, with
// urfave/cli standing in for stdlib flag the way the pack's
// cli-driven examples set up their commands.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli"

	"github.com/hollowgb/gbcore/internal/emu"
	"github.com/hollowgb/gbcore/internal/termui"
)

func main() {
	app := cli.NewApp()
	app.Name = "gbterm"
	app.Usage = "play a Game Boy ROM in the terminal"
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "rom", Usage: "path to ROM (.gb)"},
		cli.BoolFlag{Name: "save", Usage: "persist battery RAM to ROM.sav on exit and load on start"},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	romPath := c.String("rom")
	if romPath == "" {
		return cli.NewExitError("rom flag is required", 1)
	}
	rom, err := os.ReadFile(romPath)
	if err != nil {
		return fmt.Errorf("read rom: %w", err)
	}

	m := emu.New(emu.Config{})
	if err := m.LoadROMFromFile(romPath, rom); err != nil {
		return fmt.Errorf("load cart: %w", err)
	}
	slog.Info("cartridge loaded", "rom", romPath, "title", m.ROMTitle())

	savPath := strings.TrimSuffix(romPath, ".gb") + ".sav"
	saveRAM := c.Bool("save")
	if saveRAM {
		if data, err := os.ReadFile(savPath); err == nil {
			if m.LoadBattery(data) {
				slog.Info("save RAM loaded", "path", savPath, "bytes", len(data))
			}
		}
	}

	term, err := termui.New(m)
	if err != nil {
		return err
	}
	runErr := term.Run()

	if saveRAM {
		if data, ok := m.SaveBattery(); ok {
			if err := os.WriteFile(savPath, data, 0o644); err == nil {
				slog.Info("save RAM written", "path", savPath, "bytes", len(data))
			}
		}
	}
	return runErr
}
