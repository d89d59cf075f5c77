// Package config provides configuration helpers for go-parallax commands.
package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Default configuration.
const (
	DefaultPort     = "8080"
	DefaultDetector = "yunet"
	DefaultModel    = "models/face_detection_yunet.onnx"
	DefaultCascade  = "models/facefinder"
	DefaultLogLevel = "info"
)

// LoadDotEnv loads variables from the given .env files (default ".env")
// without overriding ones already set. Missing files are not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// String returns the env var key, or def if unset or empty.
func String(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Int returns the env var key parsed as an int, or def if unset or invalid.
func Int(key string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return def
}

// Bool returns the env var key parsed as a bool, or def if unset or invalid.
func Bool(key string, def bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return def
}

// CameraDevice returns the capture device index from PARALLAX_CAMERA.
func CameraDevice() int {
	return Int("PARALLAX_CAMERA", 0)
}

// Detector returns the detector backend from PARALLAX_DETECTOR.
func Detector() string {
	return String("PARALLAX_DETECTOR", DefaultDetector)
}

// ModelPath returns the YuNet model path from PARALLAX_MODEL.
func ModelPath() string {
	return String("PARALLAX_MODEL", DefaultModel)
}

// CascadePath returns the pigo cascade path from PARALLAX_CASCADE.
func CascadePath() string {
	return String("PARALLAX_CASCADE", DefaultCascade)
}

// Port returns the API port from PARALLAX_PORT.
func Port() string {
	return String("PARALLAX_PORT", DefaultPort)
}

// LogLevel returns LOG_LEVEL.
func LogLevel() string {
	return String("LOG_LEVEL", DefaultLogLevel)
}

// LogFile returns LOG_FILE; empty means stdout only.
func LogFile() string {
	return os.Getenv("LOG_FILE")
}
