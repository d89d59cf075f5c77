// Package web provides the local control and status API for the tracker
package web

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"github.com/teslashibe/go-parallax/pkg/camera"
	"github.com/teslashibe/go-parallax/pkg/hub"
	"github.com/teslashibe/go-parallax/pkg/render"
	"github.com/teslashibe/go-parallax/pkg/tracking"
)

// Tracker is the tracking controller as seen by the API.
type Tracker interface {
	Start()
	Stop()
	State() tracking.State
	Subscribe() (<-chan tracking.State, func())
	Project(depthEffect float64, viewport tracking.Viewport, fovDegrees, baseDistance float64) tracking.CameraPose
	Stats() tracking.Stats
	Config() tracking.Config
	Cameras() *camera.Manager
}

// Server is the control API server
type Server struct {
	app    *fiber.App
	addr   string
	logger *slog.Logger

	tracker  Tracker
	settings *tracking.SettingsStore
	loop     *render.Loop

	// Hubs for websocket broadcast (thread-safe!)
	statusHub *hub.Hub
	poseHub   *hub.Hub
}

// Options configures a Server.
type Options struct {
	Addr      string // Listen address, e.g. ":8080"
	StaticDir string // Optional directory served at /
	Logger    *slog.Logger
}

// NewServer creates a new API server
func NewServer(opts Options, tracker Tracker, settings *tracking.SettingsStore, loop *render.Loop) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		addr:      opts.Addr,
		logger:    logger,
		tracker:   tracker,
		settings:  settings,
		loop:      loop,
		statusHub: hub.NewReplay("status"),
		poseHub:   hub.New("pose"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "Parallax",
		DisableStartupMessage: true,
	})

	// CORS for local development
	app.Use(cors.New())

	if opts.StaticDir != "" {
		app.Static("/", opts.StaticDir)
	}

	// API routes
	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Post("/tracking/start", s.handleStart)
	api.Post("/tracking/stop", s.handleStop)
	api.Get("/settings", s.handleGetSettings)
	api.Put("/settings", s.handleUpdateSettings)
	api.Get("/camera", s.handleGetCamera)
	api.Put("/camera", s.handleUpdateCamera)
	api.Get("/pose", s.handlePose)
	api.Get("/viewport", s.handleGetViewport)
	api.Put("/viewport", s.handleSetViewport)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	// WebSocket routes
	app.Get("/ws/status", websocket.New(s.handleStatusWS))
	app.Get("/ws/pose", websocket.New(s.handlePoseWS))

	s.app = app
	return s
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Run serves the API until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	go s.statusHub.Run(ctx)
	go s.poseHub.Run(ctx)
	go s.forwardState(ctx)

	go func() {
		<-ctx.Done()
		if err := s.app.Shutdown(); err != nil {
			s.logger.Warn("web shutdown", "error", err)
		}
	}()

	s.logger.Info("control API listening", "addr", s.addr)
	return s.app.Listen(s.addr)
}

// SendPose broadcasts a render frame to pose stream clients.
func (s *Server) SendPose(f render.Frame) {
	if s.poseHub.ClientCount() == 0 {
		return
	}
	if err := s.poseHub.BroadcastJSON(f); err != nil {
		s.logger.Warn("encode pose", "error", err)
	}
}

// forwardState pushes every tracking snapshot to status stream clients.
func (s *Server) forwardState(ctx context.Context) {
	states, unsubscribe := s.tracker.Subscribe()
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case st := <-states:
			if err := s.statusHub.BroadcastJSON(st); err != nil {
				s.logger.Warn("encode state", "error", err)
			}
		}
	}
}
