// Package render drives the per-tick scene update that consumes the
// tracking output: camera pose from the face offset plus the model's
// pop-out placement and idle animation.
package render

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/teslashibe/go-parallax/pkg/tracking"
)

// Idle animation, matching the overlay's scene controller
var (
	idleSpin = mgl64.Vec3{0.4, 0.8, 0.3} // Radians per idleSpinPeriod
)

const (
	idleSpinPeriod = 6 * time.Second
	hoverHeight    = 0.25
	hoverHalfCycle = 1600 * time.Millisecond
)

// Tracker is the part of the tracking controller the loop reads.
type Tracker interface {
	State() tracking.State
	Project(depthEffect float64, viewport tracking.Viewport, fovDegrees, baseDistance float64) tracking.CameraPose
}

// ModelPose places the displayed model.
type ModelPose struct {
	Position mgl64.Vec3 `json:"position"`
	Rotation mgl64.Vec3 `json:"rotation"` // Euler angles in radians
}

// Matrix returns the model-to-world transform.
func (m ModelPose) Matrix() mgl64.Mat4 {
	rot := mgl64.AnglesToQuat(m.Rotation.X(), m.Rotation.Y(), m.Rotation.Z(), mgl64.XYZ)
	return mgl64.Translate3D(m.Position.X(), m.Position.Y(), m.Position.Z()).Mul4(rot.Mat4())
}

// Frame is one render tick.
type Frame struct {
	Tick         uint64              `json:"tick"`
	Camera       tracking.CameraPose `json:"camera"`
	Model        ModelPose           `json:"model"`
	Viewport     tracking.Viewport   `json:"viewport"`
	FaceDetected bool                `json:"face_detected"`
	Tracking     bool                `json:"tracking"`
}

// Loop calls the projector once per tick with the current viewport.
type Loop struct {
	tracker  Tracker
	settings *tracking.SettingsStore
	config   tracking.Config
	logger   *slog.Logger

	mu       sync.RWMutex
	viewport tracking.Viewport

	// Owned by the ticking goroutine
	tick  uint64
	last  time.Time
	spin  float64 // Seconds of idle rotation accumulated
	hover float64 // Seconds into the hover cycle
}

// NewLoop creates a loop with a 1280x720 viewport until SetViewport is called.
func NewLoop(tracker Tracker, settings *tracking.SettingsStore, config tracking.Config, logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		tracker:  tracker,
		settings: settings,
		config:   config,
		logger:   logger,
		viewport: tracking.Viewport{Width: 1280, Height: 720},
	}
}

// SetViewport changes the render surface size used from the next tick.
func (l *Loop) SetViewport(v tracking.Viewport) {
	l.mu.Lock()
	l.viewport = v
	l.mu.Unlock()
}

// Viewport returns the current render surface size.
func (l *Loop) Viewport() tracking.Viewport {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.viewport
}

// Tick advances the scene to now and returns the frame to draw.
func (l *Loop) Tick(now time.Time) Frame {
	var dt float64
	if !l.last.IsZero() {
		dt = now.Sub(l.last).Seconds()
	}
	l.last = now
	l.tick++

	settings := l.settings.Get()
	state := l.tracker.State()
	vp := l.Viewport()

	if settings.AutoRotate {
		l.spin += dt
		l.hover += dt
	}

	camera := l.tracker.Project(settings.DepthEffect, vp, l.config.FOVDegrees, l.config.BaseDistance)

	model := ModelPose{
		Position: tracking.PopOutPosition(settings.PopOutDirection, settings.PopOutStrength),
		Rotation: idleSpin.Mul(l.spin / idleSpinPeriod.Seconds()),
	}
	model.Position[1] += hoverOffset(l.hover)

	return Frame{
		Tick:         l.tick,
		Camera:       camera,
		Model:        model,
		Viewport:     vp,
		FaceDetected: state.IsFaceDetected,
		Tracking:     state.IsTracking,
	}
}

// Run ticks at the configured render interval, handing each frame to draw,
// until ctx is cancelled.
func (l *Loop) Run(ctx context.Context, draw func(Frame)) {
	ticker := time.NewTicker(l.config.RenderInterval)
	defer ticker.Stop()

	l.logger.Info("render loop started", "interval", l.config.RenderInterval)
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			draw(l.Tick(now))
		}
	}
}

// hoverOffset eases up over one half cycle and back down over the next.
func hoverOffset(seconds float64) float64 {
	half := hoverHalfCycle.Seconds()
	p := math.Mod(seconds, 2*half) / half
	if p <= 1 {
		return hoverHeight * smoothstep(p)
	}
	return hoverHeight * (1 - smoothstep(p-1))
}

func smoothstep(x float64) float64 {
	return x * x * (3 - 2*x)
}
