package tracking

import "time"

// Config holds controller tuning
type Config struct {
	// Channels
	CommandBuffer int // Pending start/stop commands before opposite pairs are merged
	EventBuffer   int // Capture results waiting for the control goroutine

	// Projection defaults for callers that don't track their own camera
	FOVDegrees   float64
	BaseDistance float64

	// Render tick used by the presentation adapter
	RenderInterval time.Duration
}

// DefaultConfig returns the recommended configuration
func DefaultConfig() Config {
	return Config{
		CommandBuffer: 16,
		EventBuffer:   8,

		FOVDegrees:   DefaultFOVDegrees,
		BaseDistance: DefaultBaseDistance,

		RenderInterval: 16 * time.Millisecond, // ~60 fps
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.CommandBuffer <= 0 {
		c.CommandBuffer = d.CommandBuffer
	}
	if c.EventBuffer <= 0 {
		c.EventBuffer = d.EventBuffer
	}
	if !validFOV(c.FOVDegrees) {
		c.FOVDegrees = d.FOVDegrees
	}
	if c.BaseDistance <= 0 {
		c.BaseDistance = d.BaseDistance
	}
	if c.RenderInterval <= 0 {
		c.RenderInterval = d.RenderInterval
	}
	return c
}
