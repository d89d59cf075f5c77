package camera

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
)

// Handler processes one frame on the worker goroutine.
// The returned function, if non-nil, runs after the in-flight slot has been
// released, so whatever it publishes is observed only once the worker can
// accept the next frame.
type Handler func(Frame) func()

// Stats contains capture counters for a Source.
type Stats struct {
	Read      uint64 `json:"read"`      // Frames pulled from the device
	Processed uint64 `json:"processed"` // Frames handed to the handler
	Dropped   uint64 `json:"dropped"`   // Frames discarded because the handler was busy
	Failed    uint64 `json:"failed"`    // Failed or empty reads
}

// Source pulls frames from a Device and feeds a single Handler.
// Exactly one frame is in flight at a time; frames that arrive while the
// handler is busy are dropped, never queued.
type Source struct {
	cfg    Config
	opener Opener
	logger *slog.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
	err     error

	busy atomic.Bool
	work chan Frame

	read      atomic.Uint64
	processed atomic.Uint64
	dropped   atomic.Uint64
	failed    atomic.Uint64
}

// NewSource creates a source that opens its device through opener.
func NewSource(cfg Config, opener Opener, logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.Default()
	}
	return &Source{
		cfg:    cfg,
		opener: opener,
		logger: logger,
	}
}

// Start opens the device and begins capture. Calling Start on a running
// source is a no-op. Open failures are returned as-is so callers can match
// ErrNoDevice and ErrDeviceUnavailable.
func (s *Source) Start(ctx context.Context, handle Handler) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}
	if errs := s.cfg.Validate(); len(errs) > 0 {
		return fmt.Errorf("%w: invalid config: %s", ErrDeviceUnavailable, strings.Join(errs, "; "))
	}
	if s.opener == nil {
		return ErrNoDevice
	}

	dev, err := s.opener.Open(s.cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.work = make(chan Frame, 1)
	s.err = nil
	s.busy.Store(false)
	s.running = true

	s.logger.Info("capture started",
		"device", s.cfg.DeviceID,
		"width", s.cfg.Width,
		"height", s.cfg.Height,
		"fps", s.cfg.Framerate,
	)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.readLoop(ctx, cancel, dev)
	}()
	go func() {
		defer wg.Done()
		s.workLoop(ctx, handle, s.work)
	}()

	done := s.done
	go func() {
		wg.Wait()
		if err := dev.Close(); err != nil {
			s.logger.Warn("closing capture device", "error", err)
		}
		close(done)
	}()

	return nil
}

// Stop halts capture and waits until the device is released.
// A frame being processed is allowed to finish. Safe to call multiple times.
func (s *Source) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	cancel()
	<-done

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	s.logger.Info("capture stopped", "device", s.cfg.DeviceID)
	return nil
}

// Done is closed once the device has been released, whether by Stop or by
// a device failure. It is nil before the first Start.
func (s *Source) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// Err returns the failure that ended capture, if any.
func (s *Source) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Stats returns a snapshot of the capture counters.
func (s *Source) Stats() Stats {
	return Stats{
		Read:      s.read.Load(),
		Processed: s.processed.Load(),
		Dropped:   s.dropped.Load(),
		Failed:    s.failed.Load(),
	}
}

func (s *Source) readLoop(ctx context.Context, cancel context.CancelFunc, dev Device) {
	failures := 0
	for ctx.Err() == nil {
		frame, err := dev.Read(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, ErrClosed) {
				return
			}
			s.failed.Add(1)
			failures++
			if failures >= s.cfg.MaxReadFailures {
				s.fail(fmt.Errorf("%w: %d consecutive failed reads: %v", ErrDeviceUnavailable, failures, err))
				cancel()
				return
			}
			continue
		}

		failures = 0
		s.read.Add(1)
		s.offer(frame)
	}
}

// offer hands frame to the worker unless it is still busy with the previous one.
func (s *Source) offer(frame Frame) {
	if !s.busy.CompareAndSwap(false, true) {
		s.dropped.Add(1)
		return
	}
	s.work <- frame
}

func (s *Source) workLoop(ctx context.Context, handle Handler, work <-chan Frame) {
	for {
		select {
		case <-ctx.Done():
			return
		case frame := <-work:
			publish := handle(frame)
			s.processed.Add(1)
			s.busy.Store(false)
			if publish != nil {
				publish()
			}
		}
	}
}

func (s *Source) fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
	s.logger.Error("capture failed", "device", s.cfg.DeviceID, "error", err)
}
