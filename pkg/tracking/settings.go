package tracking

import (
	"fmt"
	"sync"
)

// MaxDepthEffect is the upper bound of the depth effect slider.
const MaxDepthEffect = 5.0

// Settings holds the real-time adjustable presentation parameters.
// They can be modified without restarting tracking.
type Settings struct {
	DepthEffect     float64 `json:"depth_effect"`      // Parallax strength (0-5)
	AutoRotate      bool    `json:"auto_rotate"`       // Idle model rotation, render only
	PopOutDirection float64 `json:"pop_out_direction"` // Degrees around the vertical axis
	PopOutStrength  float64 `json:"pop_out_strength"`  // Distance the model floats out
}

// DefaultSettings returns the settings a fresh install starts with.
func DefaultSettings() Settings {
	return Settings{
		DepthEffect:     1.0,
		AutoRotate:      true,
		PopOutDirection: 15,
		PopOutStrength:  0.8,
	}
}

// SettingsPatch updates a subset of Settings. Nil fields are left alone.
type SettingsPatch struct {
	DepthEffect     *float64 `json:"depth_effect,omitempty"`
	AutoRotate      *bool    `json:"auto_rotate,omitempty"`
	PopOutDirection *float64 `json:"pop_out_direction,omitempty"`
	PopOutStrength  *float64 `json:"pop_out_strength,omitempty"`
}

// SettingsStore guards the current settings.
type SettingsStore struct {
	mu       sync.RWMutex
	settings Settings

	// OnChange is called after every successful update.
	OnChange func(Settings)
}

// NewSettingsStore creates a store holding s.
func NewSettingsStore(s Settings) *SettingsStore {
	return &SettingsStore{settings: s}
}

// Get returns current settings.
func (st *SettingsStore) Get() Settings {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.settings
}

// Set replaces the settings after validation.
func (st *SettingsStore) Set(s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}

	st.mu.Lock()
	st.settings = s
	callback := st.OnChange
	st.mu.Unlock()

	if callback != nil {
		callback(s)
	}
	return nil
}

// Update applies p on top of the current settings.
func (st *SettingsStore) Update(p SettingsPatch) (Settings, error) {
	st.mu.Lock()
	s := st.settings
	if p.DepthEffect != nil {
		s.DepthEffect = *p.DepthEffect
	}
	if p.AutoRotate != nil {
		s.AutoRotate = *p.AutoRotate
	}
	if p.PopOutDirection != nil {
		s.PopOutDirection = *p.PopOutDirection
	}
	if p.PopOutStrength != nil {
		s.PopOutStrength = *p.PopOutStrength
	}
	if err := s.Validate(); err != nil {
		st.mu.Unlock()
		return st.Get(), err
	}
	st.settings = s
	callback := st.OnChange
	st.mu.Unlock()

	if callback != nil {
		callback(s)
	}
	return s, nil
}

// Validate checks ranges.
func (s Settings) Validate() error {
	if !finite(s.DepthEffect, s.PopOutDirection, s.PopOutStrength) {
		return fmt.Errorf("settings must be finite numbers")
	}
	if s.DepthEffect < 0 || s.DepthEffect > MaxDepthEffect {
		return fmt.Errorf("depth_effect must be between 0 and %.0f", MaxDepthEffect)
	}
	if s.PopOutStrength < 0 {
		return fmt.Errorf("pop_out_strength must not be negative")
	}
	return nil
}
