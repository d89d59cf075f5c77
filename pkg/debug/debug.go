// Package debug provides global debug logging flags
package debug

import "log/slog"

// Enabled controls whether debug logging is active
var Enabled bool

// Tracking controls whether verbose per-frame logs are shown (detections, drops).
// Use --debug-tracking flag to enable these very verbose logs
var Tracking bool

// Log writes a debug record only if debug mode is enabled
func Log(msg string, args ...any) {
	if Enabled {
		slog.Debug(msg, args...)
	}
}

// TrackLog writes a per-frame record only if tracking debug mode is enabled.
// Records are emitted at info level so they show without LOG_LEVEL=debug.
func TrackLog(msg string, args ...any) {
	if Tracking {
		slog.Info(msg, args...)
	}
}
