package tracking

import "math"

// Field of view bounds accepted by the projector, in degrees (exclusive).
const (
	MinFOVDegrees = 0.0
	MaxFOVDegrees = 180.0
)

// Degrees converts radians to degrees for logging/display.
func Degrees(radians float64) float64 {
	return radians * 180.0 / math.Pi
}

// Radians converts degrees to radians.
func Radians(degrees float64) float64 {
	return degrees * math.Pi / 180.0
}

func validFOV(deg float64) bool {
	return deg > MinFOVDegrees && deg < MaxFOVDegrees
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
