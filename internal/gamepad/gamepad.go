// Package gamepad models the DMG joypad matrix exposed at 0xFF00: eight
// button booleans plus the currently selected read-out column.
package gamepad

// Region identifies which half of the button matrix JOYP currently exposes
// in its low nibble.
type Region int

const (
	RegionNone Region = iota
	RegionDPad
	RegionButtons
)

// Gamepad holds the logical (active-high, easy to set from a frontend)
// button state and the column select written by the CPU.
type Gamepad struct {
	Up, Down, Left, Right bool
	A, B, Select, Start   bool

	region Region
}

// New returns a Gamepad with no buttons pressed and no column selected.
func New() *Gamepad {
	return &Gamepad{}
}

// WriteSelect decodes bits 5-4 of a write to 0xFF00 into the active region.
//
// Hardware ORs the two halves of the matrix together when both select bits
// are driven low at once; this core represents the selection as a single
// tri-state Region and cannot express "both at once". The preserved, MUST
// NOT be silently resolved without a flag: when both bits are clear, we
// follow the documented policy of exposing Buttons (see gamepad_test.go),
// but a real DMG would mix in D-Pad bits too.
func (g *Gamepad) WriteSelect(v byte) {
	bit5Clear := v&0x20 == 0
	bit4Clear := v&0x10 == 0
	switch {
	case bit5Clear:
		g.region = RegionButtons
	case bit4Clear:
		g.region = RegionDPad
	default:
		g.region = RegionNone
	}
}

// Read returns the low nibble JOYP exposes for the currently selected
// region: active-low, bit order (bit0..bit3) = (right,left,up,down) for the
// D-Pad or (a,b,select,start) for Buttons. With no region selected, the
// whole byte reads 0.
func (g *Gamepad) Read() byte {
	switch g.region {
	case RegionDPad:
		return activeLow(g.Right, g.Left, g.Up, g.Down)
	case RegionButtons:
		return activeLow(g.A, g.B, g.Select, g.Start)
	default:
		return 0
	}
}

func activeLow(b0, b1, b2, b3 bool) byte {
	v := byte(0x0F)
	if b0 {
		v &^= 0x01
	}
	if b1 {
		v &^= 0x02
	}
	if b2 {
		v &^= 0x04
	}
	if b3 {
		v &^= 0x08
	}
	return v
}
