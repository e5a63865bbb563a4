package controller

import (
	"time"

	"github.com/Lucalangella/NEWTON-LAB/internal/core/physics"
)

// ObjectState is the per-object slice of a telemetry snapshot.
type ObjectState struct {
	Handle      uint64     `json:"handle"`
	Kind        string     `json:"kind"`
	Shape       string     `json:"shape"`
	Mode        string     `json:"mode"`
	Position    [3]float32 `json:"position"`
	Orientation [4]float32 `json:"orientation"`
	Scale       [3]float32 `json:"scale"`
	Speed       float32    `json:"speed"`
	Selected    bool       `json:"selected"`
}

// Snapshot is the immutable state view published after every tick. The
// inspector and SDK read these; nothing outside the controller actor ever
// touches live state.
type Snapshot struct {
	Tick        uint64    `json:"tick"`
	Time        time.Time `json:"time"`
	ObjectCount int       `json:"object_count"`

	Config     physics.Config `json:"config"`
	GlobalMode string         `json:"global_mode"`

	EnvironmentMode string  `json:"environment_mode"`
	Scanned         bool    `json:"scanned"`
	RampEnabled     bool    `json:"ramp_enabled"`
	WallsEnabled    bool    `json:"walls_enabled"`
	WallHeight      float32 `json:"wall_height"`

	CurrentSpeed float32    `json:"current_speed"`
	LastRelease  [3]float32 `json:"last_release"`

	Objects []ObjectState `json:"objects"`
}
