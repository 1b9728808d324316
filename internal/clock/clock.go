// Package clock implements the master T-state counter shared by the CPU,
// PPU, and timer. It is the single source of truth for "how far has the
// system advanced" that every other component gates its work against.
package clock

// Clock is a monotonic T-state counter. It never wraps in practice: a
// uint64 at 4.194304 MHz would take over 139,000 years to overflow.
type Clock struct {
	t uint64
}

// New returns a Clock reset to T-state 0.
func New() *Clock {
	return &Clock{}
}

// Now returns the current T-state count.
func (c *Clock) Now() uint64 {
	return c.t
}

// Advance moves the clock forward by n T-states.
func (c *Clock) Advance(n uint64) {
	c.t += n
}
