// Package ui implements the ebiten-backed desktop frontend: a 160x144
// framebuffer blit, keyboard-to-joypad mapping, pause/single-step, and a
// single quick save-state slot. Grounded on the teacher's internal/ui
// package; its audio pipeline, ROM-picker/settings/keybinding menu
// system, save-state slot bank, and CGB shell-overlay skin are dropped
// along with the APU and CGB compat layer they depended on — what
// remains is the teacher's Update/Draw game-loop shape, retargeted at
// this core's index-color Framebuffer and Tick-based Machine.
package ui

import (
	"image/color"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/hollowgb/gbcore/internal/emu"
)

// dmgPalette maps the PPU's 0..3 color indices to the classic
// green-tinted DMG screen colors.
var dmgPalette = [4]color.RGBA{
	{0xE0, 0xF8, 0xD0, 0xFF},
	{0x88, 0xC0, 0x70, 0xFF},
	{0x34, 0x68, 0x56, 0xFF},
	{0x08, 0x18, 0x20, 0xFF},
}

// App implements ebiten.Game around a Machine.
type App struct {
	cfg    Config
	m      *emu.Machine
	tex    *ebiten.Image
	pixels []byte // RGBA scratch buffer, refilled from m.Framebuffer() each Draw

	paused bool

	toastMsg   string
	toastUntil time.Time
}

// NewApp returns a ready-to-run App. A ROM must already be loaded on m.
func NewApp(cfg Config, m *emu.Machine) *App {
	cfg.Defaults()
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(160*cfg.Scale, 144*cfg.Scale)
	if t := m.ROMTitle(); t != "" {
		ebiten.SetWindowTitle(cfg.Title + " - [" + t + "]")
	}
	return &App{cfg: cfg, m: m, pixels: make([]byte, 160*144*4)}
}

// Run starts the ebiten game loop; it blocks until the window closes.
func (a *App) Run() error { return ebiten.RunGame(a) }

func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) { return 160, 144 }

func (a *App) toast(msg string) {
	a.toastMsg = msg
	a.toastUntil = time.Now().Add(2 * time.Second)
}

func (a *App) statePath() string {
	if a.m.ROMPath() == "" {
		return ""
	}
	return a.m.ROMPath() + ".state"
}

func (a *App) quickSave() {
	path := a.statePath()
	if path == "" {
		a.toast("no ROM loaded")
		return
	}
	if err := os.WriteFile(path, a.m.SaveState(), 0o644); err != nil {
		a.toast("save failed: " + err.Error())
		return
	}
	a.toast("state saved")
}

func (a *App) quickLoad() {
	path := a.statePath()
	if path == "" {
		a.toast("no ROM loaded")
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		a.toast("no saved state")
		return
	}
	a.m.LoadState(data)
	a.toast("state loaded")
}

// Update polls keyboard state and applies it to the Machine.
func (a *App) Update() error {
	var btn emu.Buttons
	btn.Right = ebiten.IsKeyPressed(ebiten.KeyRight)
	btn.Left = ebiten.IsKeyPressed(ebiten.KeyLeft)
	btn.Up = ebiten.IsKeyPressed(ebiten.KeyUp)
	btn.Down = ebiten.IsKeyPressed(ebiten.KeyDown)
	btn.A = ebiten.IsKeyPressed(ebiten.KeyZ)
	btn.B = ebiten.IsKeyPressed(ebiten.KeyX)
	btn.Start = ebiten.IsKeyPressed(ebiten.KeyEnter)
	btn.Select = ebiten.IsKeyPressed(ebiten.KeyShiftRight)
	a.m.SetButtons(btn)

	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		a.paused = !a.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyN) && a.paused {
		a.m.StepFrame()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF5) {
		a.quickSave()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF9) {
		a.quickLoad()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF11) {
		ebiten.SetFullscreen(!ebiten.IsFullscreen())
	}

	if !a.paused {
		a.m.StepFrame()
	}
	return nil
}

// Draw converts the Machine's index-color framebuffer into RGBA and
// blits it, scaled, into screen.
func (a *App) Draw(screen *ebiten.Image) {
	if a.tex == nil {
		a.tex = ebiten.NewImage(160, 144)
	}
	fb := a.m.Framebuffer()
	for i, idx := range fb {
		c := dmgPalette[idx&0x03]
		a.pixels[i*4+0] = c.R
		a.pixels[i*4+1] = c.G
		a.pixels[i*4+2] = c.B
		a.pixels[i*4+3] = c.A
	}
	a.tex.WritePixels(a.pixels)
	screen.DrawImage(a.tex, nil)

	if a.toastMsg != "" && time.Now().Before(a.toastUntil) {
		ebitenutil.DebugPrintAt(screen, a.toastMsg, 4, 4)
	}
	if a.paused {
		ebitenutil.DebugPrintAt(screen, "PAUSED", 4, 132)
	}
}
