package camera

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// MockDevice is a Device fed by the caller. Each Push blocks until the
// reader has taken the frame, which lets tests step the pipeline frame by frame.
type MockDevice struct {
	frames chan Frame
	errs   chan error

	closeOnce sync.Once
	closed    chan struct{}
	seq       atomic.Uint64
}

// NewMockDevice creates an empty mock device.
func NewMockDevice() *MockDevice {
	return &MockDevice{
		frames: make(chan Frame),
		errs:   make(chan error),
		closed: make(chan struct{}),
	}
}

// Push delivers a frame to the next Read. Frames without a sequence number
// are numbered in push order. Returns false if the device closed first.
func (m *MockDevice) Push(frame Frame) bool {
	if frame.Seq == 0 {
		frame.Seq = m.seq.Add(1)
	}
	if frame.Width == 0 && frame.Height == 0 {
		frame.Width, frame.Height = 640, 480
	}
	if frame.Timestamp.IsZero() {
		frame.Timestamp = time.Now()
	}

	select {
	case m.frames <- frame:
		return true
	case <-m.closed:
		return false
	}
}

// Fail makes the next Read return err.
func (m *MockDevice) Fail(err error) bool {
	select {
	case m.errs <- err:
		return true
	case <-m.closed:
		return false
	}
}

// Read blocks until a frame or error is pushed, ctx is done or the device closes.
func (m *MockDevice) Read(ctx context.Context) (Frame, error) {
	select {
	case frame := <-m.frames:
		return frame, nil
	case err := <-m.errs:
		return Frame{}, err
	case <-ctx.Done():
		return Frame{}, ctx.Err()
	case <-m.closed:
		return Frame{}, ErrClosed
	}
}

// Close releases the device.
func (m *MockDevice) Close() error {
	m.closeOnce.Do(func() { close(m.closed) })
	return nil
}

// Closed reports whether Close has been called.
func (m *MockDevice) Closed() bool {
	select {
	case <-m.closed:
		return true
	default:
		return false
	}
}

// MockOpener returns a fixed device or error and counts open attempts.
type MockOpener struct {
	Device Device
	Err    error

	// NewDevice, if set, is called on every Open instead of returning Device.
	NewDevice func() Device

	opens atomic.Int64
}

// Open returns o.Err if set, otherwise a device.
func (o *MockOpener) Open(cfg Config) (Device, error) {
	o.opens.Add(1)
	if o.Err != nil {
		return nil, o.Err
	}
	if o.NewDevice != nil {
		return o.NewDevice(), nil
	}
	if o.Device == nil {
		return nil, ErrNoDevice
	}
	return o.Device, nil
}

// Opens returns how many times Open was called.
func (o *MockOpener) Opens() int64 {
	return o.opens.Load()
}

// MockAuthorizer is an Authorizer with a scripted answer.
type MockAuthorizer struct {
	mu       sync.Mutex
	status   AuthStatus
	grant    bool
	requests int

	// Gate, if set, blocks Request until it is closed or ctx is done.
	Gate chan struct{}
}

// NewMockAuthorizer returns an authorizer in the given state that answers
// Request with grant.
func NewMockAuthorizer(status AuthStatus, grant bool) *MockAuthorizer {
	return &MockAuthorizer{status: status, grant: grant}
}

func (a *MockAuthorizer) Status() AuthStatus {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

func (a *MockAuthorizer) Request(ctx context.Context) (bool, error) {
	a.mu.Lock()
	a.requests++
	gate := a.Gate
	a.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.grant {
		a.status = AuthAuthorized
	} else {
		a.status = AuthDenied
	}
	return a.grant, nil
}

// Requests returns how many times Request was called.
func (a *MockAuthorizer) Requests() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.requests
}
