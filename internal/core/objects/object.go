package objects

import (
	"github.com/cespare/xxhash/v2"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Lucalangella/NEWTON-LAB/internal/core/geometry"
)

// Handle is a stable identifier for a simulated object: arena slot index in
// the low 32 bits, slot generation in the high 32. A handle never changes
// while its object is alive and is never reused until the slot cycles.
type Handle uint64

// NilHandle is the zero value and never refers to a live object.
const NilHandle Handle = 0

func makeHandle(slot, generation uint32) Handle {
	return Handle(uint64(generation)<<32 | uint64(slot))
}

func (h Handle) slot() uint32       { return uint32(h) }
func (h Handle) generation() uint32 { return uint32(h >> 32) }

// AnchorTag derives a stable uint64 tag for an externally supplied anchor
// identifier, used to correlate AR anchors with the scenery objects they
// spawned across update/remove events.
func AnchorTag(anchorID string) uint64 {
	return xxhash.Sum64String(anchorID)
}

// BodyMode is the simulation mode of an object. Exactly one mode is active
// at any time.
type BodyMode uint8

const (
	// ModeDynamic bodies are fully simulated.
	ModeDynamic BodyMode = iota
	// ModeStatic bodies are immovable and have infinite mass.
	ModeStatic
	// ModeKinematic bodies follow an externally driven transform and
	// collide, but ignore forces.
	ModeKinematic
)

func (m BodyMode) String() string {
	switch m {
	case ModeDynamic:
		return "dynamic"
	case ModeStatic:
		return "static"
	case ModeKinematic:
		return "kinematic"
	default:
		return "unknown"
	}
}

// Kind separates interactive bodies from scenery and markers. Gesture
// dispatch filters on this tag, never on entity names.
type Kind uint8

const (
	KindInteractive Kind = iota
	KindGround
	KindWall
	KindFloor
	KindTraceMarker
	KindHandJoint
	KindAnchor
)

// Interactive reports whether gestures may target this kind. The ground ramp
// is draggable and rotatable (with its own constraints), everything else
// non-interactive is ignored before any state mutation.
func (k Kind) Interactive() bool {
	return k == KindInteractive || k == KindGround
}

// Simulated reports whether the broadcaster's per-tick effects (drag force,
// void net, trace markers) apply to this kind.
func (k Kind) Simulated() bool {
	return k == KindInteractive
}

// SimulatedObject is one arena slot. Transform fields are the controller's
// desired state, pushed to the physics host; Mode is the currently active
// body mode, which the gesture machine may hold at kinematic independently
// of the configured steady-state mode.
type SimulatedObject struct {
	Handle    Handle
	Kind      Kind
	Shape     geometry.Descriptor
	Collision geometry.Collision
	MassProps geometry.MassProperties

	Position    mgl32.Vec3
	Orientation mgl32.Quat
	Scale       mgl32.Vec3

	Mode          BodyMode
	SpawnPosition mgl32.Vec3

	// AnchorTag is non-zero for scenery created from an AR anchor event.
	AnchorTag uint64
}
