// Parallax - face-tracked camera parallax for a 3D overlay
// Tracks the user's face with the webcam and streams camera poses to the renderer
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/teslashibe/go-parallax/internal/config"
	"github.com/teslashibe/go-parallax/internal/log"
	"github.com/teslashibe/go-parallax/pkg/camera"
	"github.com/teslashibe/go-parallax/pkg/debug"
	"github.com/teslashibe/go-parallax/pkg/render"
	"github.com/teslashibe/go-parallax/pkg/tracking"
	"github.com/teslashibe/go-parallax/pkg/tracking/detection"
	"github.com/teslashibe/go-parallax/pkg/web"
)

// Config holds command configuration.
type Config struct {
	Port      string
	StaticDir string
	AutoStart bool

	Camera   camera.Config
	Detector detection.Config
	Settings tracking.Settings

	LogLevel string
	LogFile  string
}

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "loading .env: %v\n", err)
	}

	cfg, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Configuration error: %v\n", err)
		os.Exit(2)
	}

	log.Setup(log.Options{Level: cfg.LogLevel, File: cfg.LogFile})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg); err != nil {
		log.Error("parallax exited", "error", err)
		os.Exit(1)
	}
}

// parseFlags parses command line flags over environment defaults.
func parseFlags() (Config, error) {
	cfg := Config{
		Camera:   camera.DefaultConfig(),
		Detector: detection.DefaultConfig(),
		Settings: tracking.DefaultSettings(),
	}

	port := flag.String("port", config.Port(), "HTTP port for the control API")
	static := flag.String("static", "", "Directory served at / (optional dashboard)")
	autoStart := flag.Bool("autostart", config.Bool("PARALLAX_AUTOSTART", true), "Start tracking on launch")
	device := flag.Int("camera", config.CameraDevice(), "Camera device index")
	preset := flag.String("preset", camera.PresetVGA, "Capture preset: default, vga, low, 720p, 1080p")
	backend := flag.String("detector", config.Detector(), "Face detector: yunet, pigo")
	model := flag.String("model", config.ModelPath(), "YuNet ONNX model path")
	cascade := flag.String("cascade", config.CascadePath(), "Pigo facefinder cascade path")
	depth := flag.Float64("depth", cfg.Settings.DepthEffect, "Depth effect (0-5)")
	logLevel := flag.String("log-level", config.LogLevel(), "Log level: debug, info, warn, error")
	logFile := flag.String("log-file", config.LogFile(), "Also write logs to this rotating file")
	debugFlag := flag.Bool("debug", false, "Enable verbose debug logging")
	debugTracking := flag.Bool("debug-tracking", false, "Log every detection and dropped frame")
	flag.Parse()

	p := camera.GetPreset(*preset)
	if p == nil {
		return cfg, fmt.Errorf("unknown preset %q", *preset)
	}
	cfg.Camera = *p
	cfg.Camera.DeviceID = *device

	cfg.Detector.Backend = *backend
	cfg.Detector.ModelPath = *model
	cfg.Detector.CascadePath = *cascade

	cfg.Settings.DepthEffect = *depth
	if err := cfg.Settings.Validate(); err != nil {
		return cfg, err
	}

	cfg.Port, cfg.StaticDir, cfg.AutoStart = *port, *static, *autoStart
	cfg.LogLevel, cfg.LogFile = *logLevel, *logFile

	debug.Enabled = *debugFlag
	debug.Tracking = *debugTracking
	if debug.Enabled {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

func run(ctx context.Context, cfg Config) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	logger := log.L()

	det, err := detection.New(cfg.Detector)
	if err != nil {
		return fmt.Errorf("face detector: %w", err)
	}
	defer det.Close()
	logger.Info("face detector ready", "backend", cfg.Detector.Backend)

	cameras := camera.NewManagerWithConfig(cfg.Camera)
	cameras.OnConfigChange = func(c camera.Config) {
		logger.Info("camera config updated, applies on next start",
			"device", c.DeviceID, "width", c.Width, "height", c.Height, "fps", c.Framerate)
	}

	ctrl := tracking.New(tracking.DefaultConfig(), tracking.Deps{
		Opener:     camera.OpenCVOpener{Logger: logger},
		Authorizer: cameras.Authorizer(),
		Detector:   det,
		Cameras:    cameras,
		Logger:     logger.With("component", "tracking"),
	})

	settings := tracking.NewSettingsStore(cfg.Settings)
	settings.OnChange = func(s tracking.Settings) {
		logger.Info("settings updated", "depth_effect", s.DepthEffect, "auto_rotate", s.AutoRotate)
	}

	loop := render.NewLoop(ctrl, settings, ctrl.Config(), logger.With("component", "render"))
	srv := web.NewServer(web.Options{
		Addr:      ":" + cfg.Port,
		StaticDir: cfg.StaticDir,
		Logger:    logger.With("component", "web"),
	}, ctrl, settings, loop)

	ctrlDone := make(chan struct{})
	go func() {
		ctrl.Run(ctx)
		close(ctrlDone)
	}()
	go loop.Run(ctx, srv.SendPose)

	if cfg.AutoStart {
		ctrl.Start()
	}

	err = srv.Run(ctx)
	cancel()
	<-ctrlDone
	logger.Info("parallax stopped")

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
