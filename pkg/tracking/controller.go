// Package tracking turns camera frames into a smoothed face offset and
// maps that offset to a parallax camera pose.
package tracking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/teslashibe/go-parallax/pkg/camera"
	"github.com/teslashibe/go-parallax/pkg/debug"
	"github.com/teslashibe/go-parallax/pkg/tracking/detection"
)

// Deps are the collaborators a Controller drives.
type Deps struct {
	Opener     camera.Opener     // Opens the capture device for each session
	Authorizer camera.Authorizer // Camera permission; nil means no permission gate
	Detector   detection.Detector
	Cameras    *camera.Manager // Capture config read at each start; nil uses defaults
	Logger     *slog.Logger
}

// Stats contains pipeline counters for the current or last session. They
// reset when a new session starts.
type Stats struct {
	Capture          camera.Stats `json:"capture"`
	DetectorFailures uint64       `json:"detector_failures"`
}

type command int

const (
	cmdStart command = iota
	cmdStop
)

// Events posted to the control goroutine. Each carries the generation of
// the session that produced it; events from older sessions are discarded.
type (
	startedEvent struct{ gen uint64 }
	endedEvent   struct {
		gen uint64
		err error
	}
	frameEvent struct {
		gen     uint64
		seq     uint64
		present bool
		offset  Offset
	}
)

type session struct {
	gen      uint64
	id       uuid.UUID
	cancel   context.CancelFunc
	smoother *Smoother // Owned by the capture worker
}

// Controller runs the capture pipeline and owns the tracking state.
//
// All state changes happen on the goroutine running Run. Start and Stop
// only post commands; the capture side only posts immutable events.
// Readers get the latest published snapshot.
type Controller struct {
	config    Config
	deps      Deps
	logger    *slog.Logger
	projector *Projector

	cmdMu   sync.Mutex
	pending []command
	wake    chan struct{}
	events  chan any
	closing chan struct{}

	snapshot atomic.Pointer[State]
	source   atomic.Pointer[camera.Source]
	failures atomic.Uint64

	subMu sync.Mutex
	subs  map[chan State]struct{}

	// Owned by the Run goroutine
	state          State
	gen            uint64
	current        *session
	pendingRestart bool
	sessions       sync.WaitGroup
}

// New creates a controller in the idle state. Call Run to process commands.
func New(config Config, deps Deps) *Controller {
	config = config.withDefaults()
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Cameras == nil {
		deps.Cameras = camera.NewManager()
	}

	c := &Controller{
		config:    config,
		deps:      deps,
		logger:    logger,
		projector: NewProjector(),
		wake:      make(chan struct{}, 1),
		events:    make(chan any, config.EventBuffer),
		closing:   make(chan struct{}),
		subs:      make(map[chan State]struct{}),
	}
	initial := State{Phase: PhaseIdle}
	c.snapshot.Store(&initial)
	return c
}

// Start begins tracking. It returns immediately; State reports Running once
// the camera is open. No-op while starting or running.
func (c *Controller) Start() {
	c.send(cmdStart)
}

// Stop ends tracking. It returns immediately and is never dropped; State
// reports Idle once the camera is released. No-op while idle.
func (c *Controller) Stop() {
	c.send(cmdStop)
}

// send queues cmd for the control goroutine without blocking. A repeat of
// the last pending command is a no-op. Once CommandBuffer commands are
// pending, an opposite pair at the tail is merged away, so the most recent
// command always takes effect.
func (c *Controller) send(cmd command) {
	c.cmdMu.Lock()
	n := len(c.pending)
	switch {
	case n > 0 && c.pending[n-1] == cmd:
	case n >= max(c.config.CommandBuffer, 2):
		// Pending commands alternate, so pending[n-2] == cmd.
		c.pending = c.pending[:n-1]
		c.logger.Debug("tracking commands merged", "pending", n-1)
	default:
		c.pending = append(c.pending, cmd)
	}
	c.cmdMu.Unlock()

	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *Controller) takePending() []command {
	c.cmdMu.Lock()
	defer c.cmdMu.Unlock()
	cmds := c.pending
	c.pending = nil
	return cmds
}

// State returns the latest published snapshot.
func (c *Controller) State() State {
	return *c.snapshot.Load()
}

// Subscribe returns a channel receiving each new snapshot. Slow readers
// only see the latest one. Call the returned function to unsubscribe.
func (c *Controller) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)

	c.subMu.Lock()
	ch <- c.State()
	c.subs[ch] = struct{}{}
	c.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.subMu.Lock()
			delete(c.subs, ch)
			c.subMu.Unlock()
		})
	}
}

// Project places the camera for the current face offset. Degenerate
// viewports return the previous pose.
func (c *Controller) Project(depthEffect float64, viewport Viewport, fovDegrees, baseDistance float64) CameraPose {
	return c.projector.Project(ProjectionInput{
		Offset:       c.State().FacePosition,
		DepthEffect:  depthEffect,
		Viewport:     viewport,
		FOVDegrees:   fovDegrees,
		BaseDistance: baseDistance,
	})
}

// Config returns the controller configuration.
func (c *Controller) Config() Config {
	return c.config
}

// Cameras returns the capture config manager used at each start.
func (c *Controller) Cameras() *camera.Manager {
	return c.deps.Cameras
}

// Stats returns counters for the current or last session.
func (c *Controller) Stats() Stats {
	var st Stats
	if src := c.source.Load(); src != nil {
		st.Capture = src.Stats()
	}
	st.DetectorFailures = c.failures.Load()
	return st
}

// Run processes commands and capture events until ctx is cancelled, then
// stops any running session and waits for the camera to be released.
func (c *Controller) Run(ctx context.Context) {
	defer func() {
		if c.current != nil {
			c.current.cancel()
		}
		close(c.closing)
		c.sessions.Wait()
		c.current = nil
		c.update(func(s *State) { *s = State{Phase: PhaseIdle} })
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.wake:
			for _, cmd := range c.takePending() {
				c.handleCommand(ctx, cmd)
			}
		case ev := <-c.events:
			c.handleEvent(ctx, ev)
		}
	}
}

func (c *Controller) handleCommand(ctx context.Context, cmd command) {
	switch cmd {
	case cmdStart:
		switch c.state.Phase {
		case PhaseIdle:
			c.begin(ctx)
		case PhaseStopping:
			c.pendingRestart = true
		}
	case cmdStop:
		switch c.state.Phase {
		case PhaseStarting, PhaseRunning:
			c.logger.Info("tracking stopping", "session", c.current.id)
			c.current.cancel()
			c.update(func(s *State) { s.Phase = PhaseStopping })
		case PhaseStopping:
			c.pendingRestart = false
		}
	}
}

func (c *Controller) handleEvent(ctx context.Context, ev any) {
	switch ev := ev.(type) {
	case startedEvent:
		if !c.isCurrent(ev.gen) || c.state.Phase != PhaseStarting {
			return
		}
		c.logger.Info("tracking started", "session", c.current.id)
		c.update(func(s *State) {
			s.Phase = PhaseRunning
			s.IsTracking = true
			s.ErrorMessage = ""
		})

	case frameEvent:
		if !c.isCurrent(ev.gen) || c.state.Phase != PhaseRunning {
			return
		}
		c.update(func(s *State) {
			s.IsFaceDetected = ev.present
			s.FacePosition = ev.offset
			s.Frame = ev.seq
		})

	case endedEvent:
		if !c.isCurrent(ev.gen) {
			return
		}
		c.end(ctx, ev.err)
	}
}

func (c *Controller) isCurrent(gen uint64) bool {
	return c.current != nil && c.current.gen == gen
}

// begin launches a new session in the Starting phase.
func (c *Controller) begin(ctx context.Context) {
	c.gen++
	sctx, cancel := context.WithCancel(ctx)
	sess := &session{
		gen:      c.gen,
		id:       uuid.New(),
		cancel:   cancel,
		smoother: NewSmoother(),
	}
	c.current = sess
	c.pendingRestart = false
	c.failures.Store(0)
	c.source.Store(nil)

	c.logger.Info("tracking starting", "session", sess.id)
	c.update(func(s *State) {
		*s = State{Phase: PhaseStarting, SessionID: sess.id.String()}
	})

	cfg := c.deps.Cameras.GetConfig()
	c.sessions.Add(1)
	go func() {
		defer c.sessions.Done()
		c.runSession(sctx, sess, cfg)
	}()
}

// end handles the capture side confirming a session is over.
func (c *Controller) end(ctx context.Context, err error) {
	stopping := c.state.Phase == PhaseStopping
	sess := c.current
	sess.cancel()
	c.current = nil

	msg := ""
	if !stopping {
		msg = MessageFor(err)
	}
	if msg != "" {
		c.logger.Error("tracking ended", "session", sess.id, "error", err)
	} else {
		c.logger.Info("tracking stopped", "session", sess.id)
	}

	c.update(func(s *State) {
		*s = State{Phase: PhaseIdle, ErrorMessage: msg, SessionID: sess.id.String()}
	})

	if stopping && c.pendingRestart && ctx.Err() == nil {
		c.begin(ctx)
	}
}

// update mutates the owned state and publishes a copy.
func (c *Controller) update(fn func(*State)) {
	fn(&c.state)
	if !c.state.IsTracking {
		c.state.IsFaceDetected = false
	}

	snap := c.state
	c.snapshot.Store(&snap)

	c.subMu.Lock()
	for ch := range c.subs {
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
	c.subMu.Unlock()
}

// post delivers ev to the control goroutine unless it has exited.
func (c *Controller) post(ev any) {
	select {
	case c.events <- ev:
	case <-c.closing:
	}
}

// runSession acquires the camera and streams frames until ctx is cancelled
// or the device fails. It always posts exactly one endedEvent.
func (c *Controller) runSession(ctx context.Context, sess *session, cfg camera.Config) {
	logger := c.logger.With("session", sess.id)

	if err := camera.Authorize(ctx, c.deps.Authorizer); err != nil {
		c.post(endedEvent{gen: sess.gen, err: err})
		return
	}

	src := camera.NewSource(cfg, c.deps.Opener, logger)
	if err := src.Start(ctx, c.handler(sess)); err != nil {
		c.post(endedEvent{gen: sess.gen, err: err})
		return
	}
	c.source.Store(src)
	c.post(startedEvent{gen: sess.gen})

	select {
	case <-ctx.Done():
	case <-src.Done():
	}
	src.Stop()

	err := src.Err()
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	c.post(endedEvent{gen: sess.gen, err: err})
}

// handler runs detection and smoothing on the capture worker. The result is
// posted only after the worker is ready for the next frame.
func (c *Controller) handler(sess *session) camera.Handler {
	return func(frame camera.Frame) func() {
		obs, err := c.detect(frame)
		if err != nil {
			c.failures.Add(1)
			debug.TrackLog("frame skipped", "frame", frame.Seq, "error", err)
			return nil
		}

		offset, present := sess.smoother.Update(obs)
		ev := frameEvent{gen: sess.gen, seq: frame.Seq, present: present, offset: offset}
		return func() { c.post(ev) }
	}
}

// detect runs the detector on one frame, converting errors and panics
// into ErrDetectionFailed.
func (c *Controller) detect(frame camera.Frame) (obs detection.Observation, err error) {
	if c.deps.Detector == nil {
		return obs, fmt.Errorf("%w: no detector", ErrDetectionFailed)
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrDetectionFailed, r)
		}
	}()

	obs, err = detection.Observe(c.deps.Detector, frame)
	if err != nil && !errors.Is(err, ErrDetectionFailed) {
		err = fmt.Errorf("%w: %v", ErrDetectionFailed, err)
	}
	return obs, err
}
