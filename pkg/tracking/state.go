package tracking

// Phase is the controller lifecycle phase.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseStarting
	PhaseRunning
	PhaseStopping
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseStarting:
		return "starting"
	case PhaseRunning:
		return "running"
	case PhaseStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// MarshalText encodes the phase by name.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// State is a snapshot of the controller as seen by the presentation layer.
// IsFaceDetected is never true while IsTracking is false.
type State struct {
	IsTracking     bool   `json:"is_tracking"`
	IsFaceDetected bool   `json:"is_face_detected"`
	FacePosition   Offset `json:"face_position"`
	ErrorMessage   string `json:"error_message,omitempty"`

	Phase     Phase  `json:"phase"`
	SessionID string `json:"session_id,omitempty"`
	Frame     uint64 `json:"frame"` // Sequence number of the last published frame
}

// UnmarshalText decodes a phase name. Unknown names decode as idle.
func (p *Phase) UnmarshalText(text []byte) error {
	switch string(text) {
	case "starting":
		*p = PhaseStarting
	case "running":
		*p = PhaseRunning
	case "stopping":
		*p = PhaseStopping
	default:
		*p = PhaseIdle
	}
	return nil
}
