// Package detection provides face detection using computer vision
package detection

import (
	"errors"
	"fmt"

	"github.com/teslashibe/go-parallax/pkg/camera"
)

// Backend names accepted by New
const (
	BackendYuNet = "yunet"
	BackendPigo  = "pigo"
)

// ErrUnknownBackend is returned by New for an unsupported backend name.
var ErrUnknownBackend = errors.New("detection: unknown backend")

// Detection represents a detected face
type Detection struct {
	X, Y       float64 // Top-left corner (0-1 normalized, y down)
	W, H       float64 // Width and height (0-1 normalized)
	Confidence float64 // Detection confidence (0-1)
}

// Center returns the center point of the detection
func (d Detection) Center() (x, y float64) {
	return d.X + d.W/2, d.Y + d.H/2
}

// Area returns the area of the bounding box
func (d Detection) Area() float64 {
	return d.W * d.H
}

// Observation is the per-frame detector output consumed by the smoother.
// CenterX grows to the right and CenterY grows upward (origin bottom-left),
// the same orientation as the 3D scene.
type Observation struct {
	Present bool    `json:"present"`
	CenterX float64 `json:"center_x"`
	CenterY float64 `json:"center_y"`
}

// Detector is the interface for face detection backends
type Detector interface {
	// Detect finds faces in the frame and returns their positions
	Detect(frame camera.Frame) ([]Detection, error)

	// Close releases resources
	Close() error
}

// Func adapts a function to the Detector interface.
type Func func(frame camera.Frame) ([]Detection, error)

// Detect calls f(frame).
func (f Func) Detect(frame camera.Frame) ([]Detection, error) {
	return f(frame)
}

// Close is a no-op.
func (f Func) Close() error {
	return nil
}

// Config holds detector configuration
type Config struct {
	Backend          string  // "yunet" or "pigo"
	ModelPath        string  // Path to ONNX model (yunet)
	CascadePath      string  // Path to facefinder cascade (pigo)
	ConfidenceThresh float64 // Minimum confidence (default 0.5)
	QualityThresh    float64 // Minimum pigo cluster quality
	InputWidth       int     // Model input width
	InputHeight      int     // Model input height
	MinFaceSize      int     // Smallest face searched for, in pixels (pigo)
}

// DefaultConfig returns production defaults for YuNet
func DefaultConfig() Config {
	return Config{
		Backend:          BackendYuNet,
		ModelPath:        "models/face_detection_yunet.onnx",
		CascadePath:      "models/facefinder",
		ConfidenceThresh: 0.5,
		QualityThresh:    5.0,
		InputWidth:       320,
		InputHeight:      320,
		MinFaceSize:      40,
	}
}

// New creates the detector selected by cfg.Backend.
func New(cfg Config) (Detector, error) {
	switch cfg.Backend {
	case BackendYuNet, "":
		return NewYuNet(cfg)
	case BackendPigo:
		return NewPigo(cfg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}

// First converts the first detection into an observation.
// When several faces are present the first one wins; there is no ranking.
func First(dets []Detection) Observation {
	if len(dets) == 0 {
		return Observation{}
	}

	cx, cy := dets[0].Center()
	return Observation{
		Present: true,
		CenterX: clamp01(cx),
		CenterY: clamp01(1 - cy),
	}
}

// Observe runs d on one frame and reduces the result to a single observation.
func Observe(d Detector, frame camera.Frame) (Observation, error) {
	dets, err := d.Detect(frame)
	if err != nil {
		return Observation{}, err
	}
	return First(dets), nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
