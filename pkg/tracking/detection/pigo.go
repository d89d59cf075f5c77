package detection

import (
	"errors"
	"fmt"
	"image"
	"os"
	"sync"

	pigo "github.com/esimov/pigo/core"
	"github.com/teslashibe/go-parallax/pkg/camera"
	"github.com/teslashibe/go-parallax/pkg/debug"
)

// Pigo cascade parameters
const (
	pigoShiftFactor  = 0.1 // Detection window shift
	pigoScaleFactor  = 1.1 // Image pyramid scale step
	pigoIoUThreshold = 0.2 // Clustering threshold
)

// PigoDetector is a pure-Go cascade face detector.
// It needs no OpenCV runtime, at lower accuracy than YuNet.
type PigoDetector struct {
	classifier *pigo.Pigo
	config     Config
	mu         sync.Mutex
}

// NewPigo loads the facefinder cascade from cfg.CascadePath.
func NewPigo(cfg Config) (*PigoDetector, error) {
	data, err := os.ReadFile(cfg.CascadePath)
	if err != nil {
		return nil, fmt.Errorf("read cascade file: %w", err)
	}

	classifier, err := pigo.NewPigo().Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("unpack cascade: %w", err)
	}

	return &PigoDetector{
		classifier: classifier,
		config:     cfg,
	}, nil
}

// Detect finds faces in the frame
func (d *PigoDetector) Detect(frame camera.Frame) ([]Detection, error) {
	if frame.Image == nil {
		return nil, errors.New("empty frame")
	}

	bounds := frame.Image.Bounds()
	cols, rows := bounds.Dx(), bounds.Dy()
	if cols == 0 || rows == 0 {
		return nil, errors.New("empty image")
	}

	maxSize := cols
	if rows < maxSize {
		maxSize = rows
	}

	params := pigo.CascadeParams{
		MinSize:     d.config.MinFaceSize,
		MaxSize:     maxSize,
		ShiftFactor: pigoShiftFactor,
		ScaleFactor: pigoScaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: toGrayscale(frame.Image),
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}

	d.mu.Lock()
	if d.classifier == nil {
		d.mu.Unlock()
		return nil, errors.New("detector closed")
	}
	dets := d.classifier.RunCascade(params, 0.0)
	dets = d.classifier.ClusterDetections(dets, pigoIoUThreshold)
	d.mu.Unlock()

	w, h := float64(cols), float64(rows)
	var detections []Detection
	for _, det := range dets {
		if float64(det.Q) < d.config.QualityThresh {
			continue
		}
		// Pigo reports a square by center (Row, Col) and side length Scale
		half := float64(det.Scale) / 2
		detections = append(detections, Detection{
			X:          (float64(det.Col) - half) / w,
			Y:          (float64(det.Row) - half) / h,
			W:          float64(det.Scale) / w,
			H:          float64(det.Scale) / h,
			Confidence: clamp01(float64(det.Q) / 100.0),
		})
	}

	if len(detections) > 0 {
		debug.TrackLog("pigo detections", "frame", frame.Seq, "faces", len(detections))
	}

	return detections, nil
}

// Close releases the cascade.
func (d *PigoDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.classifier = nil
	return nil
}

// toGrayscale converts an image to the row-major luma buffer pigo expects.
func toGrayscale(img image.Image) []uint8 {
	bounds := img.Bounds()
	cols := bounds.Dx()
	gray := make([]uint8, cols*bounds.Dy())

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			lum := (299*r + 587*g + 114*b) / 1000
			gray[(y-bounds.Min.Y)*cols+(x-bounds.Min.X)] = uint8(lum >> 8)
		}
	}

	return gray
}
