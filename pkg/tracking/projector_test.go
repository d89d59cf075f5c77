package tracking

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func input(ox, oy, w, h float64) ProjectionInput {
	return ProjectionInput{
		Offset:       Offset{X: ox, Y: oy},
		DepthEffect:  1.0,
		Viewport:     Viewport{Width: w, Height: h},
		FOVDegrees:   DefaultFOVDegrees,
		BaseDistance: DefaultBaseDistance,
	}
}

func TestProjector_CenteredOffset(t *testing.T) {
	p := NewProjector()

	for _, depth := range []float64{0, 0.5, 1, 5} {
		for _, vp := range []Viewport{{100, 100}, {1920, 1080}, {300, 900}} {
			in := input(0, 0, vp.Width, vp.Height)
			in.DepthEffect = depth
			pose := p.Project(in)
			if pose.X() != 0 || pose.Y() != 0 {
				t.Errorf("depth %v viewport %+v: got (%v, %v), want (0, 0)", depth, vp, pose.X(), pose.Y())
			}
			if pose.Z() != DefaultBaseDistance {
				t.Errorf("Z: got %v, want %v", pose.Z(), DefaultBaseDistance)
			}
		}
	}
}

func TestProjector_Values(t *testing.T) {
	p := NewProjector()

	pose := p.Project(input(1, 1, 200, 100))

	halfHeight := math.Tan(Radians(30)) * DefaultBaseDistance
	wantX := halfHeight * 2 * DepthDamping
	wantY := halfHeight * DepthDamping

	if math.Abs(pose.X()-wantX) > 1e-9 {
		t.Errorf("X: got %v, want %v", pose.X(), wantX)
	}
	if math.Abs(pose.Y()-wantY) > 1e-9 {
		t.Errorf("Y: got %v, want %v", pose.Y(), wantY)
	}
	if pose.Target != (mgl64.Vec3{}) {
		t.Errorf("Target: got %v, want origin", pose.Target)
	}
}

func TestProjector_ScalesWithAspect(t *testing.T) {
	p := NewProjector()

	base := p.Project(input(1, 0, 100, 100)).X()
	for _, width := range []float64{150, 200, 400} {
		got := p.Project(input(1, 0, width, 100)).X()
		want := base * width / 100
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("width %v: got %v, want %v", width, got, want)
		}
		if math.Abs(got) <= math.Abs(base) {
			t.Errorf("width %v: |x| should grow with aspect", width)
		}
	}
}

func TestProjector_DegenerateKeepsLastPose(t *testing.T) {
	p := NewProjector()

	if got := p.Project(input(0.5, 0.5, 0, 100)); got != DefaultPose() {
		t.Errorf("before any projection: got %+v, want default pose", got)
	}

	good := p.Project(input(0.5, -0.5, 640, 480))

	bad := []ProjectionInput{
		input(1, 1, 0, 480),
		input(1, 1, 640, 0),
		input(1, 1, -10, 480),
		input(1, 1, math.NaN(), 480),
	}
	fov := input(1, 1, 640, 480)
	fov.FOVDegrees = 180
	bad = append(bad, fov)
	dist := input(1, 1, 640, 480)
	dist.BaseDistance = 0
	bad = append(bad, dist)

	for i, in := range bad {
		got := p.Project(in)
		if got != good {
			t.Errorf("case %d: got %+v, want %+v", i, got, good)
		}
		if math.IsNaN(got.X()) || math.IsInf(got.X(), 0) {
			t.Errorf("case %d: non-finite pose", i)
		}
	}

	if p.Last() != good {
		t.Error("Last should return the held pose")
	}
}

func TestProjector_ClampsOffsetAndDepth(t *testing.T) {
	p := NewProjector()

	clamped := p.Project(input(1, 0, 100, 100))
	over := p.Project(input(3, 0, 100, 100))
	if math.Abs(over.X()-clamped.X()) > 1e-9 {
		t.Errorf("offset not clamped: %v vs %v", over.X(), clamped.X())
	}

	neg := input(1, 1, 100, 100)
	neg.DepthEffect = -2
	pose := p.Project(neg)
	if pose.X() != 0 || pose.Y() != 0 {
		t.Errorf("negative depth should act as zero, got (%v, %v)", pose.X(), pose.Y())
	}
}

func TestCameraPose_View(t *testing.T) {
	pose := DefaultPose()
	view := pose.View()

	// The origin sits straight ahead of the camera at the base distance
	p := view.Mul4x1(mgl64.Vec4{0, 0, 0, 1})
	if math.Abs(p.X()) > 1e-9 || math.Abs(p.Y()) > 1e-9 {
		t.Errorf("origin off-axis in view space: %v", p)
	}
	if math.Abs(p.Z()+DefaultBaseDistance) > 1e-9 {
		t.Errorf("origin depth: got %v, want %v", p.Z(), -DefaultBaseDistance)
	}
}

func TestPopOutPosition(t *testing.T) {
	got := PopOutPosition(90, 2)
	if math.Abs(got.X()) > 1e-9 || got.Y() != 0 || math.Abs(got.Z()-2) > 1e-9 {
		t.Errorf("PopOutPosition(90, 2) = %v", got)
	}

	got = PopOutPosition(0, 0.8)
	if math.Abs(got.X()-0.8) > 1e-9 || math.Abs(got.Z()) > 1e-9 {
		t.Errorf("PopOutPosition(0, 0.8) = %v", got)
	}
}
