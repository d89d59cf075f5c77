package camera

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// Manager holds the current capture configuration and handles updates.
type Manager struct {
	config Config
	mu     sync.RWMutex

	// OnConfigChange is called after a successful update.
	OnConfigChange func(cfg Config)
}

// NewManager creates a new camera manager with default config.
func NewManager() *Manager {
	return NewManagerWithConfig(DefaultConfig())
}

// NewManagerWithConfig creates a manager seeded with cfg.
func NewManagerWithConfig(cfg Config) *Manager {
	return &Manager{config: cfg}
}

// GetConfig returns the current camera configuration.
func (m *Manager) GetConfig() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// SetConfig validates and stores cfg.
func (m *Manager) SetConfig(cfg Config) error {
	if errs := cfg.Validate(); len(errs) > 0 {
		return fmt.Errorf("validation failed: %s", strings.Join(errs, "; "))
	}

	m.mu.Lock()
	m.config = cfg
	callback := m.OnConfigChange
	m.mu.Unlock()

	if callback != nil {
		callback(cfg)
	}
	return nil
}

// UpdateConfig updates specific fields of the configuration.
// Accepts a map of field names to values; "preset" is applied first.
func (m *Manager) UpdateConfig(params map[string]interface{}) error {
	cfg := m.GetConfig()

	if presetName, ok := params["preset"].(string); ok {
		preset := GetPreset(presetName)
		if preset == nil {
			return fmt.Errorf("unknown preset: %s", presetName)
		}
		// Keep the selected device across preset switches
		deviceID := cfg.DeviceID
		cfg = *preset
		cfg.DeviceID = deviceID
	}

	for key, value := range params {
		switch key {
		case "preset":
		case "device_id":
			if v, ok := toInt(value); ok {
				cfg.DeviceID = v
			}
		case "width":
			if v, ok := toInt(value); ok {
				cfg.Width = v
			}
		case "height":
			if v, ok := toInt(value); ok {
				cfg.Height = v
			}
		case "framerate":
			if v, ok := toInt(value); ok {
				cfg.Framerate = v
			}
		case "max_read_failures":
			if v, ok := toInt(value); ok {
				cfg.MaxReadFailures = v
			}
		default:
			return fmt.Errorf("unknown camera parameter: %s", key)
		}
	}

	return m.SetConfig(cfg)
}

func toInt(v interface{}) (int, bool) {
	switch val := v.(type) {
	case int:
		return val, true
	case int64:
		return int(val), true
	case float64:
		return int(val), true
	case json.Number:
		i, err := val.Int64()
		if err == nil {
			return int(i), true
		}
	}
	return 0, false
}

// Authorizer returns the platform authorizer for whichever device is
// configured at the time of each check.
func (m *Manager) Authorizer() Authorizer {
	return managedAuthorizer{m: m}
}

type managedAuthorizer struct {
	m *Manager
}

func (a managedAuthorizer) Status() AuthStatus {
	return SystemAuthorizer{DeviceID: a.m.GetConfig().DeviceID}.Status()
}

func (a managedAuthorizer) Request(ctx context.Context) (bool, error) {
	return SystemAuthorizer{DeviceID: a.m.GetConfig().DeviceID}.Request(ctx)
}
