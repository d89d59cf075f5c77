package detection

import (
	"errors"
	"math"
	"testing"

	"github.com/teslashibe/go-parallax/pkg/camera"
)

func TestDetection_Center(t *testing.T) {
	tests := []struct {
		name    string
		det     Detection
		expectX float64
		expectY float64
	}{
		{
			name:    "center of image",
			det:     Detection{X: 0.25, Y: 0.25, W: 0.5, H: 0.5},
			expectX: 0.5,
			expectY: 0.5,
		},
		{
			name:    "top left corner",
			det:     Detection{X: 0, Y: 0, W: 0.2, H: 0.2},
			expectX: 0.1,
			expectY: 0.1,
		},
		{
			name:    "bottom right corner",
			det:     Detection{X: 0.8, Y: 0.8, W: 0.2, H: 0.2},
			expectX: 0.9,
			expectY: 0.9,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			x, y := tc.det.Center()
			if math.Abs(x-tc.expectX) > 1e-9 {
				t.Errorf("Center X: got %.2f, want %.2f", x, tc.expectX)
			}
			if math.Abs(y-tc.expectY) > 1e-9 {
				t.Errorf("Center Y: got %.2f, want %.2f", y, tc.expectY)
			}
		})
	}
}

func TestDetection_Area(t *testing.T) {
	det := Detection{X: 0, Y: 0, W: 0.1, H: 0.2}
	if diff := det.Area() - 0.02; diff < -0.0001 || diff > 0.0001 {
		t.Errorf("Area: got %.4f, want 0.02", det.Area())
	}
}

func TestFirst(t *testing.T) {
	tests := []struct {
		name       string
		detections []Detection
		expect     Observation
	}{
		{
			name:       "no faces",
			detections: nil,
			expect:     Observation{},
		},
		{
			name:       "centered face",
			detections: []Detection{{X: 0.4, Y: 0.4, W: 0.2, H: 0.2, Confidence: 0.9}},
			expect:     Observation{Present: true, CenterX: 0.5, CenterY: 0.5},
		},
		{
			name:       "face near top of image is high in the scene",
			detections: []Detection{{X: 0.7, Y: 0.0, W: 0.1, H: 0.2, Confidence: 0.9}},
			expect:     Observation{Present: true, CenterX: 0.75, CenterY: 0.9},
		},
		{
			name: "first result wins over a more confident one",
			detections: []Detection{
				{X: 0.0, Y: 0.4, W: 0.2, H: 0.2, Confidence: 0.5},
				{X: 0.6, Y: 0.4, W: 0.2, H: 0.2, Confidence: 0.99},
			},
			expect: Observation{Present: true, CenterX: 0.1, CenterY: 0.5},
		},
		{
			name:       "box partly outside the frame is clamped",
			detections: []Detection{{X: 0.9, Y: -0.3, W: 0.4, H: 0.4, Confidence: 0.9}},
			expect:     Observation{Present: true, CenterX: 1.0, CenterY: 1.0},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := First(tc.detections)
			if got.Present != tc.expect.Present ||
				math.Abs(got.CenterX-tc.expect.CenterX) > 1e-9 ||
				math.Abs(got.CenterY-tc.expect.CenterY) > 1e-9 {
				t.Errorf("First: got %+v, want %+v", got, tc.expect)
			}
		})
	}
}

func TestObserve(t *testing.T) {
	det := Func(func(frame camera.Frame) ([]Detection, error) {
		if frame.Seq == 2 {
			return nil, errors.New("inference failed")
		}
		return []Detection{{X: 0.2, Y: 0.2, W: 0.2, H: 0.2}}, nil
	})

	obs, err := Observe(det, camera.Frame{Seq: 1})
	if err != nil {
		t.Fatalf("Observe failed: %v", err)
	}
	if !obs.Present {
		t.Error("Expected a face")
	}

	if _, err := Observe(det, camera.Frame{Seq: 2}); err == nil {
		t.Error("Expected detector error to propagate")
	}
}

func TestNew_UnknownBackend(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Backend = "haar"

	_, err := New(cfg)
	if !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("Expected ErrUnknownBackend, got %v", err)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Backend != BackendYuNet {
		t.Errorf("DefaultConfig: expected yunet backend, got %q", cfg.Backend)
	}

	if cfg.ModelPath == "" {
		t.Error("DefaultConfig: ModelPath should not be empty")
	}

	if cfg.ConfidenceThresh <= 0 || cfg.ConfidenceThresh > 1 {
		t.Errorf("DefaultConfig: ConfidenceThresh should be 0-1, got %f", cfg.ConfidenceThresh)
	}

	if cfg.InputWidth <= 0 {
		t.Errorf("DefaultConfig: InputWidth should be positive, got %d", cfg.InputWidth)
	}

	if cfg.InputHeight <= 0 {
		t.Errorf("DefaultConfig: InputHeight should be positive, got %d", cfg.InputHeight)
	}
}
