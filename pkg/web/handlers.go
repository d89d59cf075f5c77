package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/teslashibe/go-parallax/pkg/camera"
	"github.com/teslashibe/go-parallax/pkg/hub"
	"github.com/teslashibe/go-parallax/pkg/tracking"
)

// StatusResponse is returned by GET /api/status
type StatusResponse struct {
	State    tracking.State    `json:"state"`
	Stats    tracking.Stats    `json:"stats"`
	Settings tracking.Settings `json:"settings"`
	Camera   camera.Config     `json:"camera"`
	Viewport tracking.Viewport `json:"viewport"`
}

// CameraResponse is returned by the camera endpoints
type CameraResponse struct {
	Config  camera.Config `json:"config"`
	Presets []string      `json:"presets"`
}

// PoseResponse is returned by GET /api/pose
type PoseResponse struct {
	Camera   tracking.CameraPose `json:"camera"`
	Viewport tracking.Viewport   `json:"viewport"`
	Offset   tracking.Offset     `json:"offset"`
}

func badRequest(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": err.Error(),
	})
}

// handleStatus returns the tracker's current state
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(StatusResponse{
		State:    s.tracker.State(),
		Stats:    s.tracker.Stats(),
		Settings: s.settings.Get(),
		Camera:   s.tracker.Cameras().GetConfig(),
		Viewport: s.loop.Viewport(),
	})
}

// handleStart requests tracking to start. The state reaches running asynchronously.
func (s *Server) handleStart(c *fiber.Ctx) error {
	s.tracker.Start()
	return c.Status(fiber.StatusAccepted).JSON(s.tracker.State())
}

// handleStop requests tracking to stop
func (s *Server) handleStop(c *fiber.Ctx) error {
	s.tracker.Stop()
	return c.Status(fiber.StatusAccepted).JSON(s.tracker.State())
}

func (s *Server) handleGetSettings(c *fiber.Ctx) error {
	return c.JSON(s.settings.Get())
}

// handleUpdateSettings applies a partial settings update
func (s *Server) handleUpdateSettings(c *fiber.Ctx) error {
	var patch tracking.SettingsPatch
	if err := c.BodyParser(&patch); err != nil {
		return badRequest(c, err)
	}

	settings, err := s.settings.Update(patch)
	if err != nil {
		return badRequest(c, err)
	}
	return c.JSON(settings)
}

func (s *Server) handleGetCamera(c *fiber.Ctx) error {
	return c.JSON(CameraResponse{
		Config:  s.tracker.Cameras().GetConfig(),
		Presets: camera.PresetNames(),
	})
}

// handleUpdateCamera changes capture settings. They apply on the next start.
func (s *Server) handleUpdateCamera(c *fiber.Ctx) error {
	var params map[string]interface{}
	if err := c.BodyParser(&params); err != nil {
		return badRequest(c, err)
	}

	manager := s.tracker.Cameras()
	if err := manager.UpdateConfig(params); err != nil {
		return badRequest(c, err)
	}
	return c.JSON(CameraResponse{
		Config:  manager.GetConfig(),
		Presets: camera.PresetNames(),
	})
}

// handlePose projects the current face offset once. width and height
// default to the render viewport.
func (s *Server) handlePose(c *fiber.Ctx) error {
	vp := s.loop.Viewport()
	if c.Query("width") != "" {
		vp.Width = c.QueryFloat("width", -1)
	}
	if c.Query("height") != "" {
		vp.Height = c.QueryFloat("height", -1)
	}

	cfg := s.tracker.Config()
	pose := s.tracker.Project(s.settings.Get().DepthEffect, vp, cfg.FOVDegrees, cfg.BaseDistance)

	return c.JSON(PoseResponse{
		Camera:   pose,
		Viewport: vp,
		Offset:   s.tracker.State().FacePosition,
	})
}

func (s *Server) handleGetViewport(c *fiber.Ctx) error {
	return c.JSON(s.loop.Viewport())
}

// handleSetViewport sets the render surface size. A zero size is accepted
// (minimized window); the camera then holds its last pose.
func (s *Server) handleSetViewport(c *fiber.Ctx) error {
	var vp tracking.Viewport
	if err := c.BodyParser(&vp); err != nil {
		return badRequest(c, err)
	}
	if vp.Width < 0 || vp.Height < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "viewport size must not be negative",
		})
	}

	s.loop.SetViewport(vp)
	return c.JSON(vp)
}

// handleStatusWS streams tracking state snapshots
func (s *Server) handleStatusWS(c *websocket.Conn) {
	hub.Serve(s.statusHub, c)
}

// handlePoseWS streams render frames
func (s *Server) handlePoseWS(c *websocket.Conn) {
	hub.Serve(s.poseHub, c)
}
