package camera

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gocv.io/x/gocv"
)

// OpenCVOpener opens webcams through OpenCV's VideoCapture.
type OpenCVOpener struct {
	Logger *slog.Logger
}

// Open opens the camera at cfg.DeviceID and applies the capture preset.
func (o OpenCVOpener) Open(cfg Config) (Device, error) {
	logger := o.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if err := probeDevice(cfg.DeviceID); err != nil {
		return nil, err
	}

	vc, err := gocv.OpenVideoCapture(cfg.DeviceID)
	if err != nil {
		return nil, fmt.Errorf("%w: open device %d: %v", ErrDeviceUnavailable, cfg.DeviceID, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("%w: device %d did not open", ErrDeviceUnavailable, cfg.DeviceID)
	}

	vc.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	vc.Set(gocv.VideoCaptureFPS, float64(cfg.Framerate))

	logger.Debug("opencv device opened",
		"device", cfg.DeviceID,
		"width", vc.Get(gocv.VideoCaptureFrameWidth),
		"height", vc.Get(gocv.VideoCaptureFrameHeight),
	)

	return &openCVDevice{
		vc:  vc,
		mat: gocv.NewMat(),
	}, nil
}

// openCVDevice is only read from the source's reader goroutine.
type openCVDevice struct {
	vc  *gocv.VideoCapture
	mat gocv.Mat
	seq uint64
}

func (d *openCVDevice) Read(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}

	if ok := d.vc.Read(&d.mat); !ok {
		return Frame{}, fmt.Errorf("%w: read failed", ErrDeviceUnavailable)
	}
	if d.mat.Empty() {
		return Frame{}, ErrEmptyFrame
	}

	img, err := d.mat.ToImage()
	if err != nil {
		return Frame{}, fmt.Errorf("convert frame: %w", err)
	}

	d.seq++
	return Frame{
		Seq:         d.seq,
		Width:       d.mat.Cols(),
		Height:      d.mat.Rows(),
		Orientation: OrientationUp,
		Image:       img,
		Timestamp:   time.Now(),
	}, nil
}

func (d *openCVDevice) Close() error {
	d.mat.Close()
	return d.vc.Close()
}
