package tracking

import (
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

// Projection constants
const (
	DepthDamping        = 0.6  // Scales depth effect to keep the camera from overshooting
	DefaultFOVDegrees   = 60.0 // Vertical field of view of the scene camera
	DefaultBaseDistance = 8.0  // Camera distance from the origin
)

// Viewport is the size of the render surface in points or pixels.
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Aspect returns width/height.
func (v Viewport) Aspect() float64 {
	return v.Width / v.Height
}

// Degenerate reports whether the viewport has no area.
func (v Viewport) Degenerate() bool {
	return !(v.Width > 0 && v.Height > 0) || !finite(v.Width, v.Height)
}

// ProjectionInput is everything one render tick needs to place the camera.
type ProjectionInput struct {
	Offset       Offset
	DepthEffect  float64
	Viewport     Viewport
	FOVDegrees   float64
	BaseDistance float64
}

// CameraPose is a camera position looking at Target.
type CameraPose struct {
	Position mgl64.Vec3 `json:"position"`
	Target   mgl64.Vec3 `json:"target"`
}

// DefaultPose is the pose before any projection: centered at the base distance.
func DefaultPose() CameraPose {
	return CameraPose{Position: mgl64.Vec3{0, 0, DefaultBaseDistance}}
}

func (p CameraPose) X() float64 { return p.Position.X() }
func (p CameraPose) Y() float64 { return p.Position.Y() }
func (p CameraPose) Z() float64 { return p.Position.Z() }

// View returns the right-handed view matrix for the pose with +Y up.
func (p CameraPose) View() mgl64.Mat4 {
	return mgl64.LookAtV(p.Position, p.Target, mgl64.Vec3{0, 1, 0})
}

// Projector maps smoothed face offsets to camera poses. Lateral camera
// travel is scaled by the visible half-extent of the scene at the base
// distance, so the parallax stays proportional when the viewport resizes.
// Safe for concurrent use.
type Projector struct {
	mu   sync.Mutex
	last CameraPose
}

// NewProjector creates a projector holding the default pose.
func NewProjector() *Projector {
	return &Projector{last: DefaultPose()}
}

// Project computes the camera pose for in. Degenerate input (empty
// viewport, FOV outside (0, 180), non-positive distance) returns the
// previous pose unchanged.
func (p *Projector) Project(in ProjectionInput) CameraPose {
	p.mu.Lock()
	defer p.mu.Unlock()

	if in.Viewport.Degenerate() || !validFOV(in.FOVDegrees) || !(in.BaseDistance > 0) ||
		!finite(in.FOVDegrees, in.BaseDistance, in.DepthEffect, in.Offset.X, in.Offset.Y) {
		return p.last
	}

	effect := math.Max(in.DepthEffect, 0) * DepthDamping
	ox := clamp(in.Offset.X, -1, 1)
	oy := clamp(in.Offset.Y, -1, 1)

	halfHeight := math.Tan(Radians(in.FOVDegrees)/2) * in.BaseDistance
	halfWidth := halfHeight * in.Viewport.Aspect()

	p.last = CameraPose{
		Position: mgl64.Vec3{
			ox * halfWidth * effect,
			oy * halfHeight * effect,
			in.BaseDistance,
		},
	}
	return p.last
}

// Last returns the most recent pose.
func (p *Projector) Last() CameraPose {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

// PopOutPosition places the model on the floor plane at directionDegrees
// around the Y axis, strength units from the origin.
func PopOutPosition(directionDegrees, strength float64) mgl64.Vec3 {
	theta := Radians(directionDegrees)
	return mgl64.Vec3{math.Cos(theta) * strength, 0, math.Sin(theta) * strength}
}
