package tracking

import (
	"math"

	"github.com/teslashibe/go-parallax/pkg/tracking/detection"
)

// SmoothingAlpha is the EMA weight given to each new face reading.
const SmoothingAlpha = 0.3

// Offset is a smoothed face offset from the frame center.
// Both axes are in [-1, 1]; X is mirrored so that moving right in front of
// the camera moves the offset left, as in a mirror.
type Offset struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// RawOffset converts an observation into an unsmoothed offset.
// An absent face yields the zero offset.
func RawOffset(obs detection.Observation) Offset {
	if !obs.Present {
		return Offset{}
	}
	return Offset{
		X: -(2 * (obs.CenterX - 0.5)),
		Y: 2 * (obs.CenterY - 0.5),
	}
}

// Smoother is a first-order low-pass filter over face observations.
// Frames without a face leave the filter untouched, so the output holds
// its last value until a face is seen again.
// A Smoother is not safe for concurrent use; the capture worker owns it.
type Smoother struct {
	alpha float64
	value Offset
}

// NewSmoother creates a smoother at the zero offset.
func NewSmoother() *Smoother {
	return &Smoother{alpha: SmoothingAlpha}
}

// Update feeds one observation and returns the smoothed offset and whether
// a face was present.
func (s *Smoother) Update(obs detection.Observation) (Offset, bool) {
	if !obs.Present {
		return s.value, false
	}

	raw := RawOffset(obs)
	s.value = Offset{
		X: clamp(s.value.X+s.alpha*(raw.X-s.value.X), -1, 1),
		Y: clamp(s.value.Y+s.alpha*(raw.Y-s.value.Y), -1, 1),
	}
	return s.value, true
}

// Value returns the current smoothed offset.
func (s *Smoother) Value() Offset {
	return s.value
}

// Reset returns the filter to the zero offset.
func (s *Smoother) Reset() {
	s.value = Offset{}
}

// clamp restricts v to [lo, hi]. NaN maps to lo.
func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
