package gesture

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Lucalangella/NEWTON-LAB/internal/core/objects"
	"github.com/Lucalangella/NEWTON-LAB/internal/core/physics"
	"github.com/Lucalangella/NEWTON-LAB/internal/core/observability/log"
)

// session is the transient per-(object, gesture-kind) state. It exists from
// the first changed event to the ended event.
type session struct {
	startPos    mgl32.Vec3
	startOrient mgl32.Quat
	startScale  mgl32.Vec3
	est         VelocityEstimator
}

type sessionKey struct {
	target objects.Handle
	kind   Kind
}

// Machine turns continuous gesture events into kinematic object transforms
// and release velocities. Sessions are tracked per (object, gesture kind),
// so two objects mid-gesture through two independent inputs never share
// state, and magnify+rotate on one object is an ordinary overlap.
//
// While any session is open on an object its body mode is held at
// kinematic; the configured mode comes back exactly once, when the last
// session closes.
type Machine struct {
	reg  *objects.Registry
	host physics.Host

	sessions  map[sessionKey]*session
	openCount map[objects.Handle]int

	floorMinY      float32
	configuredMode objects.BodyMode

	lastRelease    mgl32.Vec3
	lastInteracted objects.Handle
	onRelease      func(objects.Handle, mgl32.Vec3)

	logger log.Log
}

func NewMachine(reg *objects.Registry, host physics.Host, logger log.Log) *Machine {
	if logger == nil {
		logger = log.Provide()
	}
	return &Machine{
		reg:            reg,
		host:           host,
		sessions:       make(map[sessionKey]*session),
		openCount:      make(map[objects.Handle]int),
		floorMinY:      0.16,
		configuredMode: objects.ModeDynamic,
		logger:         logger,
	}
}

// SetFloor sets the minimum Y a dragged object may reach. The environment
// updates it on mode switch.
func (m *Machine) SetFloor(minY float32) { m.floorMinY = minY }

// SetConfiguredMode sets the steady-state body mode restored after the last
// session on an object closes.
func (m *Machine) SetConfiguredMode(mode objects.BodyMode) { m.configuredMode = mode }

// ConfiguredMode returns the steady-state body mode.
func (m *Machine) ConfiguredMode() objects.BodyMode { return m.configuredMode }

// OpenSessions returns how many gesture sessions are open on an object.
func (m *Machine) OpenSessions(h objects.Handle) int { return m.openCount[h] }

// LastReleaseVelocity returns the velocity imparted by the most recent
// dynamic release, for display.
func (m *Machine) LastReleaseVelocity() mgl32.Vec3 { return m.lastRelease }

// OnRelease registers a callback invoked after a dynamic release.
func (m *Machine) OnRelease(fn func(objects.Handle, mgl32.Vec3)) { m.onRelease = fn }

// LastInteracted returns the object most recently touched by a gesture.
func (m *Machine) LastInteracted() objects.Handle { return m.lastInteracted }

// Reset drops all open sessions without restoring modes; used on scene
// reset where the objects are going away anyway.
func (m *Machine) Reset() {
	m.sessions = make(map[sessionKey]*session)
	m.openCount = make(map[objects.Handle]int)
	m.lastRelease = mgl32.Vec3{}
	m.lastInteracted = objects.NilHandle
}

// Handle processes one gesture event. Events targeting unknown handles or
// non-interactive kinds (markers, walls, hand joints, anchors) are dropped
// before any state mutation. Tap is routed by the controller, not here.
func (m *Machine) Handle(ev Event) {
	obj, ok := m.reg.Get(ev.Target)
	if !ok {
		m.logger.Debug("gesture on unknown handle dropped", log.Uint64("handle", uint64(ev.Target)))
		return
	}
	if !obj.Kind.Interactive() || ev.Kind == Tap {
		return
	}

	switch ev.Phase {
	case Changed:
		m.changed(obj, ev)
	case Ended:
		m.ended(obj, ev)
	}
}

func (m *Machine) changed(obj *objects.SimulatedObject, ev Event) {
	key := sessionKey{obj.Handle, ev.Kind}
	s, open := m.sessions[key]
	if !open {
		s = m.openSession(obj, ev)
		m.sessions[key] = s
	}
	m.lastInteracted = obj.Handle

	switch ev.Kind {
	case Drag:
		pos := s.startPos.Add(ev.Translation)
		if obj.Kind == objects.KindGround {
			// The ramp stays glued to the floor.
			pos[1] = 0
		} else if pos.Y() < m.floorMinY {
			pos[1] = m.floorMinY
		}
		s.est.Sample(pos, ev.At)
		obj.Position = pos
	case Scale:
		obj.Scale = s.startScale.Mul(ev.Magnification)
	case Rotate:
		orient := ev.Rotation.Mul(s.startOrient)
		if obj.Kind == objects.KindGround {
			orient = yawOnly(orient)
		}
		obj.Orientation = orient.Normalize()
	}

	m.host.ApplyTransform(obj.Handle, obj.Position, obj.Orientation, obj.Scale)
}

// openSession captures the start transform and holds the object kinematic.
// The first drag change also zeroes any residual simulated velocity so the
// body does not keep drifting under the hand.
func (m *Machine) openSession(obj *objects.SimulatedObject, ev Event) *session {
	s := &session{
		startPos:    obj.Position,
		startOrient: obj.Orientation,
		startScale:  obj.Scale,
	}
	if obj.Mode != objects.ModeKinematic {
		obj.Mode = objects.ModeKinematic
		m.host.SetBodyMode(obj.Handle, objects.ModeKinematic)
	}
	if ev.Kind == Drag {
		m.host.SetLinearVelocity(obj.Handle, mgl32.Vec3{})
		m.host.SetAngularVelocity(obj.Handle, mgl32.Vec3{})
		s.est.Reset(obj.Position, ev.At)
	}
	m.openCount[obj.Handle]++
	return s
}

func (m *Machine) ended(obj *objects.SimulatedObject, ev Event) {
	key := sessionKey{obj.Handle, ev.Kind}
	s, open := m.sessions[key]
	if !open {
		// Ended with no matching session: stale input, ignore.
		m.logger.Debug("stale gesture end dropped",
			log.Uint64("handle", uint64(obj.Handle)), log.String("kind", ev.Kind.String()))
		return
	}
	delete(m.sessions, key)

	m.openCount[obj.Handle]--
	if m.openCount[obj.Handle] > 0 {
		return
	}
	delete(m.openCount, obj.Handle)

	// Last session on this object closed: single restore to the configured
	// steady-state mode.
	mode := m.configuredMode
	if obj.Kind == objects.KindGround {
		mode = objects.ModeStatic
	}
	obj.Mode = mode
	m.host.SetBodyMode(obj.Handle, mode)

	if mode == objects.ModeDynamic {
		var vel mgl32.Vec3
		if ev.Kind == Drag {
			vel = s.est.ReleaseVelocity(ev.At)
		}
		m.host.SetLinearVelocity(obj.Handle, vel)
		m.host.SetAngularVelocity(obj.Handle, mgl32.Vec3{})
		m.lastRelease = vel
		if m.onRelease != nil {
			m.onRelease(obj.Handle, vel)
		}
	}
}

// yawOnly projects an orientation onto rotation about the up axis by
// extracting the rotated forward vector and rebuilding a yaw quaternion
// from it. Keeps the ramp from tipping over.
func yawOnly(q mgl32.Quat) mgl32.Quat {
	forward := q.Rotate(mgl32.Vec3{0, 0, 1})
	yaw := math32.Atan2(forward.X(), forward.Z())
	return mgl32.QuatRotate(yaw, mgl32.Vec3{0, 1, 0})
}
