package web

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/teslashibe/go-parallax/pkg/camera"
	"github.com/teslashibe/go-parallax/pkg/render"
	"github.com/teslashibe/go-parallax/pkg/tracking"
	"github.com/teslashibe/go-parallax/pkg/tracking/detection"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type fixture struct {
	server     *Server
	controller *tracking.Controller
	device     *camera.MockDevice
	settings   *tracking.SettingsStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dev := camera.NewMockDevice()
	ctrl := tracking.New(tracking.DefaultConfig(), tracking.Deps{
		Opener: &camera.MockOpener{Device: dev},
		Detector: detection.Func(func(camera.Frame) ([]detection.Detection, error) {
			return []detection.Detection{{X: 0.85, Y: 0.45, W: 0.1, H: 0.1}}, nil
		}),
		Logger: quietLogger,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		ctrl.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	settings := tracking.NewSettingsStore(tracking.DefaultSettings())
	loop := render.NewLoop(ctrl, settings, ctrl.Config(), quietLogger)
	srv := NewServer(Options{Addr: ":0", Logger: quietLogger}, ctrl, settings, loop)

	return &fixture{server: srv, controller: ctrl, device: dev, settings: settings}
}

func (f *fixture) do(t *testing.T, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := f.server.App().Test(req, 2000)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, data
}

func (f *fixture) waitPhase(t *testing.T, p tracking.Phase) tracking.State {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s := f.controller.State(); s.Phase == p {
			return s
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %v, state %+v", p, f.controller.State())
	return tracking.State{}
}

func TestStatus(t *testing.T) {
	f := newFixture(t)

	resp, body := f.do(t, http.MethodGet, "/api/status", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d: %s", resp.StatusCode, body)
	}

	var got StatusResponse
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.State.Phase != tracking.PhaseIdle || got.State.IsTracking {
		t.Errorf("state: %+v", got.State)
	}
	if got.Settings != tracking.DefaultSettings() {
		t.Errorf("settings: %+v", got.Settings)
	}
	if got.Camera != camera.DefaultConfig() {
		t.Errorf("camera: %+v", got.Camera)
	}
}

func TestStartStop(t *testing.T) {
	f := newFixture(t)

	resp, _ := f.do(t, http.MethodPost, "/api/tracking/start", "")
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("start: status %d", resp.StatusCode)
	}
	f.waitPhase(t, tracking.PhaseRunning)

	f.device.Push(camera.Frame{})
	deadline := time.Now().Add(2 * time.Second)
	for f.controller.State().Frame != 1 {
		if time.Now().After(deadline) {
			t.Fatal("frame not processed")
		}
		time.Sleep(time.Millisecond)
	}

	_, body := f.do(t, http.MethodGet, "/api/pose?width=800&height=600", "")
	var pose PoseResponse
	if err := json.Unmarshal(body, &pose); err != nil {
		t.Fatalf("decode pose: %v", err)
	}
	if pose.Camera.X() >= 0 {
		t.Errorf("face on the right should move the camera left: %v", pose.Camera.Position)
	}
	if pose.Viewport != (tracking.Viewport{Width: 800, Height: 600}) {
		t.Errorf("viewport: %+v", pose.Viewport)
	}

	resp, _ = f.do(t, http.MethodPost, "/api/tracking/stop", "")
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("stop: status %d", resp.StatusCode)
	}
	s := f.waitPhase(t, tracking.PhaseIdle)
	if s.IsFaceDetected || s.FacePosition != (tracking.Offset{}) {
		t.Errorf("after stop: %+v", s)
	}
}

func TestPose_DegenerateViewport(t *testing.T) {
	f := newFixture(t)

	_, body := f.do(t, http.MethodGet, "/api/pose?width=0&height=600", "")
	var pose PoseResponse
	if err := json.Unmarshal(body, &pose); err != nil {
		t.Fatalf("decode pose: %v", err)
	}
	if pose.Camera != tracking.DefaultPose() {
		t.Errorf("degenerate viewport should hold the last pose, got %+v", pose.Camera)
	}
}

func TestSettings(t *testing.T) {
	f := newFixture(t)

	resp, body := f.do(t, http.MethodPut, "/api/settings", `{"depth_effect": 3, "auto_rotate": false}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d: %s", resp.StatusCode, body)
	}
	got := f.settings.Get()
	if got.DepthEffect != 3 || got.AutoRotate {
		t.Errorf("settings not applied: %+v", got)
	}

	resp, _ = f.do(t, http.MethodPut, "/api/settings", `{"depth_effect": 7}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("out of range: status %d", resp.StatusCode)
	}

	resp, _ = f.do(t, http.MethodPut, "/api/settings", `{not json`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad body: status %d", resp.StatusCode)
	}
}

func TestCamera(t *testing.T) {
	f := newFixture(t)

	resp, body := f.do(t, http.MethodPut, "/api/camera", `{"preset": "720p"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d: %s", resp.StatusCode, body)
	}
	var got CameraResponse
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatal(err)
	}
	if got.Config.Width != 1280 || got.Config.Height != 720 {
		t.Errorf("preset not applied: %+v", got.Config)
	}
	if len(got.Presets) == 0 {
		t.Error("expected preset names")
	}

	resp, _ = f.do(t, http.MethodPut, "/api/camera", `{"width": 1}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("invalid width: status %d", resp.StatusCode)
	}
}

func TestViewport(t *testing.T) {
	f := newFixture(t)

	resp, _ := f.do(t, http.MethodPut, "/api/viewport", `{"width": 1024, "height": 512}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	_, body := f.do(t, http.MethodGet, "/api/viewport", "")
	var vp tracking.Viewport
	if err := json.Unmarshal(body, &vp); err != nil {
		t.Fatal(err)
	}
	if vp != (tracking.Viewport{Width: 1024, Height: 512}) {
		t.Errorf("viewport: %+v", vp)
	}

	resp, _ = f.do(t, http.MethodPut, "/api/viewport", `{"width": -1, "height": 512}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("negative viewport: status %d", resp.StatusCode)
	}
}

func TestWebsocketRequiresUpgrade(t *testing.T) {
	f := newFixture(t)

	resp, _ := f.do(t, http.MethodGet, "/ws/status", "")
	if resp.StatusCode != http.StatusUpgradeRequired {
		t.Errorf("status %d, want 426", resp.StatusCode)
	}
}
