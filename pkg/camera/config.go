// Package camera owns the capture device lifecycle for face tracking.
// It opens a webcam, pulls frames on a background goroutine and hands
// them to a single consumer, dropping frames while the consumer is busy.
package camera

import "fmt"

// Config holds the capture parameters applied when a device is opened.
// Changes made through a Manager take effect on the next Start.
type Config struct {
	// DeviceID is the OS camera index (0 = default camera).
	DeviceID int `json:"device_id"`

	// === Capture preset ===
	Width     int `json:"width"`     // Frame width in pixels
	Height    int `json:"height"`    // Frame height in pixels
	Framerate int `json:"framerate"` // Requested FPS

	// MaxReadFailures is how many consecutive failed reads end the
	// session with ErrDeviceUnavailable.
	MaxReadFailures int `json:"max_read_failures"`
}

// Capture limits accepted by Validate.
const (
	MinWidth     = 160
	MinHeight    = 120
	MaxWidth     = 3840
	MaxHeight    = 2160
	MaxFramerate = 120
	MaxDeviceID  = 63
)

// DefaultConfig returns the VGA capture preset.
// Face detection needs nothing larger and VGA keeps inference well under a frame period.
func DefaultConfig() Config {
	return Config{
		DeviceID:        0,
		Width:           640,
		Height:          480,
		Framerate:       30,
		MaxReadFailures: 30,
	}
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	if c.DeviceID < 0 || c.DeviceID > MaxDeviceID {
		errors = append(errors, fmt.Sprintf("device_id must be between 0 and %d", MaxDeviceID))
	}
	if c.Width < MinWidth || c.Width > MaxWidth {
		errors = append(errors, fmt.Sprintf("width must be between %d and %d", MinWidth, MaxWidth))
	}
	if c.Height < MinHeight || c.Height > MaxHeight {
		errors = append(errors, fmt.Sprintf("height must be between %d and %d", MinHeight, MaxHeight))
	}
	if c.Framerate < 1 || c.Framerate > MaxFramerate {
		errors = append(errors, fmt.Sprintf("framerate must be between 1 and %d", MaxFramerate))
	}
	if c.MaxReadFailures < 1 {
		errors = append(errors, "max_read_failures must be at least 1")
	}

	return errors
}
