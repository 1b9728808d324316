// Package termui implements a tcell-backed terminal frontend: the
// framebuffer is downsampled two rows at a time into half-block
// characters (▀) whose foreground/background pair encodes the top and
// bottom pixel's shade, the same technique jeebie's terminal backend
// uses for its Game Boy Color (GBColor) framebuffer. Keyboard polling
// maps the arrow keys + Z/X/Enter/Space to the eight joypad buttons.
package termui

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/hollowgb/gbcore/internal/emu"
	"github.com/hollowgb/gbcore/internal/ppu"
)

var shadeColors = [4]tcell.Color{
	tcell.ColorWhite,
	tcell.ColorSilver,
	tcell.ColorGray,
	tcell.ColorBlack,
}

// halfBlockChar picks the glyph/foreground/background triple that
// renders a pair of stacked pixel shades as one terminal cell.
func halfBlockChar(top, bottom int) (rune, tcell.Color, tcell.Color) {
	if top == bottom {
		return ' ', tcell.ColorDefault, shadeColors[top]
	}
	return '▀', shadeColors[top], shadeColors[bottom]
}

// Terminal drives a Machine inside a tcell screen until the user quits.
type Terminal struct {
	screen  tcell.Screen
	m       *emu.Machine
	paused  bool
	running bool
}

// New allocates and initializes a tcell screen for m.
func New(m *emu.Machine) (*Terminal, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("termui: new screen: %v", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("termui: init screen: %v", err)
	}
	screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	screen.Clear()
	return &Terminal{screen: screen, m: m}, nil
}

// Run blocks, driving the Machine at ~60Hz and redrawing each frame,
// until the user presses q or Ctrl-C.
func (t *Terminal) Run() error {
	defer t.screen.Fini()
	t.running = true

	ticker := time.NewTicker(time.Second / 60)
	defer ticker.Stop()

	for t.running {
		t.pollInput()
		if !t.paused {
			t.m.StepFrame()
		}
		t.draw()
		<-ticker.C
	}
	return nil
}

func (t *Terminal) pollInput() {
	var btn emu.Buttons
	for t.screen.HasPendingEvent() {
		ev := t.screen.PollEvent()
		switch ev := ev.(type) {
		case *tcell.EventResize:
			t.screen.Sync()
		case *tcell.EventKey:
			switch ev.Key() {
			case tcell.KeyCtrlC, tcell.KeyEscape:
				t.running = false
			case tcell.KeyUp:
				btn.Up = true
			case tcell.KeyDown:
				btn.Down = true
			case tcell.KeyLeft:
				btn.Left = true
			case tcell.KeyRight:
				btn.Right = true
			case tcell.KeyEnter:
				btn.Start = true
			}
			switch ev.Rune() {
			case 'q':
				t.running = false
			case 'p':
				t.paused = !t.paused
			case 'z':
				btn.A = true
			case 'x':
				btn.B = true
			case ' ':
				btn.Select = true
			}
		}
	}
	t.m.SetButtons(btn)
}

func (t *Terminal) draw() {
	fb := t.m.Framebuffer()
	t.screen.Clear()
	for y := 0; y < ppu.Height; y += 2 {
		for x := 0; x < ppu.Width; x++ {
			top := int(fb[y*ppu.Width+x])
			bottom := top
			if y+1 < ppu.Height {
				bottom = int(fb[(y+1)*ppu.Width+x])
			}
			ch, fg, bg := halfBlockChar(top, bottom)
			t.screen.SetContent(x, y/2, ch, nil, tcell.StyleDefault.Foreground(fg).Background(bg))
		}
	}
	status := "running"
	if t.paused {
		status = "paused"
	}
	msg := fmt.Sprintf(" %s  [p]ause [q]uit ", status)
	for i, ch := range msg {
		t.screen.SetContent(i, ppu.Height/2+1, ch, nil, tcell.StyleDefault)
	}
	t.screen.Show()
}
