package gesture

import (
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Lucalangella/NEWTON-LAB/internal/core/objects"
)

// Kind is the gesture family. Drag, scale and rotate run as independent
// state machines that may be active simultaneously on the same object.
type Kind uint8

const (
	Drag Kind = iota
	Scale
	Rotate
	Tap
)

func (k Kind) String() string {
	switch k {
	case Drag:
		return "drag"
	case Scale:
		return "scale"
	case Rotate:
		return "rotate"
	case Tap:
		return "tap"
	default:
		return "unknown"
	}
}

// Phase is the gesture lifecycle phase delivered by the input source. There
// is no explicit "began": the first changed event for an object opens the
// session.
type Phase uint8

const (
	Changed Phase = iota
	Ended
)

// Event is one continuous gesture update from the pointer/hand input source.
// Translation is the accumulated drag translation since the gesture start,
// Magnification the scalar scale factor, Rotation the incremental rotation
// since start. Only the member matching Kind is meaningful.
type Event struct {
	Kind   Kind
	Phase  Phase
	Target objects.Handle

	Translation   mgl32.Vec3
	Magnification float32
	Rotation      mgl32.Quat

	At time.Time
}
