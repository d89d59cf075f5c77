//go:build linux

package camera

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

func devicePath(id int) string {
	return fmt.Sprintf("/dev/video%d", id)
}

// probeDevice reports ErrNoDevice when the V4L2 node does not exist.
func probeDevice(id int) error {
	path := devicePath(id)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNoDevice, path)
	}
	return nil
}

// SystemAuthorizer checks access to the V4L2 device node.
// Linux has no interactive prompt: access is decided by file permissions
// (usually membership of the "video" group).
type SystemAuthorizer struct {
	DeviceID int
}

// Status reports AuthDenied when the device node cannot be opened for reading.
func (a SystemAuthorizer) Status() AuthStatus {
	f, err := os.OpenFile(devicePath(a.DeviceID), os.O_RDONLY, 0)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return AuthDenied
		}
		// Missing nodes are reported by the opener as ErrNoDevice
		return AuthAuthorized
	}
	f.Close()
	return AuthAuthorized
}

// Request re-checks the node; there is nothing to prompt.
func (a SystemAuthorizer) Request(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return a.Status() == AuthAuthorized, nil
}
