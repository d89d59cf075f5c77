package tracking

import (
	"math"
	"testing"
)

func ptr[T any](v T) *T { return &v }

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	if err := s.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	if s.DepthEffect != 1.0 || !s.AutoRotate {
		t.Errorf("unexpected defaults: %+v", s)
	}
}

func TestSettings_Validate(t *testing.T) {
	tests := []struct {
		name  string
		patch func(*Settings)
		ok    bool
	}{
		{"defaults", func(*Settings) {}, true},
		{"zero depth", func(s *Settings) { s.DepthEffect = 0 }, true},
		{"max depth", func(s *Settings) { s.DepthEffect = MaxDepthEffect }, true},
		{"depth too high", func(s *Settings) { s.DepthEffect = MaxDepthEffect + 0.1 }, false},
		{"negative depth", func(s *Settings) { s.DepthEffect = -1 }, false},
		{"NaN depth", func(s *Settings) { s.DepthEffect = math.NaN() }, false},
		{"negative strength", func(s *Settings) { s.PopOutStrength = -0.1 }, false},
		{"any direction", func(s *Settings) { s.PopOutDirection = -270 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.patch(&s)
			if err := s.Validate(); (err == nil) != tt.ok {
				t.Errorf("Validate() = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}

func TestSettingsStore_Update(t *testing.T) {
	st := NewSettingsStore(DefaultSettings())

	var notified []Settings
	st.OnChange = func(s Settings) { notified = append(notified, s) }

	got, err := st.Update(SettingsPatch{DepthEffect: ptr(2.5), AutoRotate: ptr(false)})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.DepthEffect != 2.5 || got.AutoRotate {
		t.Errorf("patched settings: %+v", got)
	}
	if got.PopOutStrength != DefaultSettings().PopOutStrength {
		t.Error("unpatched fields should be kept")
	}

	if _, err := st.Update(SettingsPatch{DepthEffect: ptr(9.0)}); err == nil {
		t.Error("expected validation error")
	}
	if st.Get().DepthEffect != 2.5 {
		t.Error("rejected update should not change settings")
	}

	if len(notified) != 1 {
		t.Errorf("OnChange called %d times, want 1", len(notified))
	}
}

func TestSettingsStore_Set(t *testing.T) {
	st := NewSettingsStore(DefaultSettings())

	bad := DefaultSettings()
	bad.DepthEffect = -1
	if err := st.Set(bad); err == nil {
		t.Error("expected validation error")
	}

	good := DefaultSettings()
	good.PopOutDirection = 90
	if err := st.Set(good); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if st.Get() != good {
		t.Errorf("Get: %+v", st.Get())
	}
}

func TestConfig_WithDefaults(t *testing.T) {
	cfg := Config{FOVDegrees: 200}.withDefaults()
	d := DefaultConfig()

	if cfg.FOVDegrees != d.FOVDegrees {
		t.Errorf("invalid FOV should fall back, got %v", cfg.FOVDegrees)
	}
	if cfg.CommandBuffer != d.CommandBuffer || cfg.EventBuffer != d.EventBuffer {
		t.Errorf("buffers: %+v", cfg)
	}
	if cfg.RenderInterval != d.RenderInterval || cfg.BaseDistance != d.BaseDistance {
		t.Errorf("render defaults: %+v", cfg)
	}
}

func TestPhase_Text(t *testing.T) {
	for _, p := range []Phase{PhaseIdle, PhaseStarting, PhaseRunning, PhaseStopping} {
		text, err := p.MarshalText()
		if err != nil {
			t.Fatal(err)
		}
		var back Phase
		if err := back.UnmarshalText(text); err != nil || back != p {
			t.Errorf("%v: round trip gave %v", p, back)
		}
	}
}

func TestDegreesRadians(t *testing.T) {
	if math.Abs(Degrees(math.Pi)-180) > 1e-9 {
		t.Errorf("Degrees(pi) = %v", Degrees(math.Pi))
	}
	if math.Abs(Radians(90)-math.Pi/2) > 1e-9 {
		t.Errorf("Radians(90) = %v", Radians(90))
	}
}
