package ui

// Config contains window/input related settings. Grounded on the
// teacher's ui.Config; audio buffering, shell-overlay skins, and
// per-ROM CGB palette preferences are dropped along with the APU and
// CGB compat layer they configured.
type Config struct {
	Title string // window title
	Scale int    // integer upscaling factor
}

// Defaults fills missing fields with reasonable defaults.
func (c *Config) Defaults() {
	if c.Title == "" {
		c.Title = "gbemu"
	}
	if c.Scale <= 0 {
		c.Scale = 3
	}
}
