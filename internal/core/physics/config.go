package physics

// Config is the broadcastable physics property set. A single process-wide
// instance is mutated by control events and consumed by the broadcaster;
// last write wins, there is no versioning.
type Config struct {
	Mass            float32 `json:"mass" yaml:"mass"`
	StaticFriction  float32 `json:"static_friction" yaml:"static_friction"`
	DynamicFriction float32 `json:"dynamic_friction" yaml:"dynamic_friction"`
	Restitution     float32 `json:"restitution" yaml:"restitution"`
	LinearDamping   float32 `json:"linear_damping" yaml:"linear_damping"`
	AngularDamping  float32 `json:"angular_damping" yaml:"angular_damping"`
	GravityY        float32 `json:"gravity_y" yaml:"gravity_y"`
	AirDensity      float32 `json:"air_density" yaml:"air_density"`
	AdvancedDrag    bool    `json:"advanced_drag" yaml:"advanced_drag"`
	TraceEnabled    bool    `json:"trace_enabled" yaml:"trace_enabled"`
}

// DefaultConfig returns the stock property set: unit mass, earth gravity,
// sea-level air density.
func DefaultConfig() Config {
	return Config{
		Mass:            1.0,
		StaticFriction:  0.5,
		DynamicFriction: 0.5,
		Restitution:     0.3,
		LinearDamping:   0.0,
		AngularDamping:  0.0,
		GravityY:        -9.81,
		AirDensity:      1.225,
	}
}

// Material is the shared friction/restitution descriptor regenerated from
// the config on every broadcast.
type Material struct {
	StaticFriction  float32 `json:"static_friction"`
	DynamicFriction float32 `json:"dynamic_friction"`
	Restitution     float32 `json:"restitution"`
}

// MaterialFrom extracts the shared material descriptor from a config.
func MaterialFrom(cfg Config) Material {
	return Material{
		StaticFriction:  cfg.StaticFriction,
		DynamicFriction: cfg.DynamicFriction,
		Restitution:     cfg.Restitution,
	}
}
