package tracking

import (
	"context"
	"errors"

	"github.com/teslashibe/go-parallax/pkg/camera"
)

// ErrDetectionFailed wraps a failed or panicking inference on one frame.
// It is never surfaced in State; the frame is skipped.
var ErrDetectionFailed = errors.New("tracking: detection failed")

// MessageFor returns the user-facing message for a session error.
//
// Only Linux can report ErrPermissionDenied before opening the device.
// Elsewhere a denied camera fails to open, so the ErrDeviceUnavailable
// message also points at privacy settings.
func MessageFor(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, camera.ErrPermissionDenied):
		return "Camera access denied. Allow camera access in system settings, then start tracking again."
	case errors.Is(err, camera.ErrNoDevice):
		return "No camera found."
	case errors.Is(err, camera.ErrDeviceUnavailable):
		return "Camera is unavailable. It may be in use by another application or blocked in privacy settings."
	case errors.Is(err, context.Canceled):
		return ""
	default:
		return "Camera error: " + err.Error()
	}
}
