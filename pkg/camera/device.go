package camera

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"
)

// Sentinel errors for capture failures.
var (
	// ErrNoDevice is returned when no camera is present.
	ErrNoDevice = errors.New("camera: no capture device found")

	// ErrPermissionDenied is returned when camera access was refused.
	ErrPermissionDenied = errors.New("camera: permission denied")

	// ErrDeviceUnavailable is returned when the device is busy or failed.
	ErrDeviceUnavailable = errors.New("camera: device busy or failed")

	// ErrEmptyFrame is returned for a read that produced no pixels.
	ErrEmptyFrame = errors.New("camera: empty frame")

	// ErrClosed is returned when reading from a closed device.
	ErrClosed = errors.New("camera: device closed")
)

// Orientation tags how a frame's pixels map to the upright scene.
type Orientation int

const (
	OrientationUp Orientation = iota
	OrientationUpMirrored
)

// Frame is one decoded video frame. It is only valid for the duration of
// a single detection call and must not be retained past it.
type Frame struct {
	Seq         uint64
	Width       int
	Height      int
	Orientation Orientation
	Image       image.Image
	Timestamp   time.Time
}

// Device is an opened capture device.
type Device interface {
	// Read blocks until the next frame is available.
	Read(ctx context.Context) (Frame, error)

	// Close releases the device. It is only called once no Read is in progress.
	Close() error
}

// Opener opens capture devices.
type Opener interface {
	Open(cfg Config) (Device, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(cfg Config) (Device, error)

// Open calls f(cfg).
func (f OpenerFunc) Open(cfg Config) (Device, error) {
	return f(cfg)
}

// AuthStatus is the OS-level camera permission state.
type AuthStatus int

const (
	AuthNotDetermined AuthStatus = iota
	AuthAuthorized
	AuthDenied
	AuthRestricted
)

func (s AuthStatus) String() string {
	switch s {
	case AuthNotDetermined:
		return "not_determined"
	case AuthAuthorized:
		return "authorized"
	case AuthDenied:
		return "denied"
	case AuthRestricted:
		return "restricted"
	default:
		return fmt.Sprintf("AuthStatus(%d)", int(s))
	}
}

// Authorizer reports and requests camera permission.
type Authorizer interface {
	Status() AuthStatus

	// Request asks the user for access. It may block until they answer.
	Request(ctx context.Context) (bool, error)
}

// Authorize resolves camera permission, requesting access at most once.
// A nil Authorizer means the platform has no permission gate.
func Authorize(ctx context.Context, a Authorizer) error {
	if a == nil {
		return nil
	}

	switch a.Status() {
	case AuthAuthorized:
		return nil
	case AuthNotDetermined:
		granted, err := a.Request(ctx)
		if err != nil {
			return fmt.Errorf("request camera access: %w", err)
		}
		if !granted {
			return ErrPermissionDenied
		}
		return nil
	default:
		return ErrPermissionDenied
	}
}
