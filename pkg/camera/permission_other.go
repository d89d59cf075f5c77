//go:build !linux

package camera

import "context"

// probeDevice cannot enumerate devices here; OpenCV reports absence on open.
func probeDevice(id int) error {
	return nil
}

// SystemAuthorizer defers to the OS prompt raised by the capture backend
// the first time the device is opened. The backend reports a denied camera
// as a failed open, so denial surfaces as ErrDeviceUnavailable here and
// cannot be told apart from a device held by another application.
type SystemAuthorizer struct {
	DeviceID int
}

// Status always reports AuthAuthorized.
func (a SystemAuthorizer) Status() AuthStatus {
	return AuthAuthorized
}

// Request grants access unless ctx is done.
func (a SystemAuthorizer) Request(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return true, nil
}
