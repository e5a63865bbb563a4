package physics

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Lucalangella/NEWTON-LAB/internal/core/geometry"
	"github.com/Lucalangella/NEWTON-LAB/internal/core/objects"
)

// BodyState is the headless host's view of one entity, exposed so callers
// and tests can inspect what the controller pushed.
type BodyState struct {
	Collision geometry.Collision
	Position  mgl32.Vec3
	Orient    mgl32.Quat
	Scale     mgl32.Vec3

	Velocity        mgl32.Vec3
	AngularVelocity mgl32.Vec3

	Mode      objects.BodyMode
	Material  Material
	MassProps geometry.MassProperties
	LinDamp   float32
	AngDamp   float32

	// Force accumulated since the last Step; LastForce keeps the previous
	// step's total for inspection.
	Force     mgl32.Vec3
	LastForce mgl32.Vec3
}

// HeadlessHost is an in-memory Host: it records every descriptor push and
// integrates dynamic bodies with plain gravity + damping so the controller
// can run without a real engine behind it. It is the host used by tests and
// by labserver when no engine bridge is configured. It is not a collision
// solver.
type HeadlessHost struct {
	bodies  map[objects.Handle]*BodyState
	gravity mgl32.Vec3
	markers []mgl32.Vec3
}

var _ Host = (*HeadlessHost)(nil)

func NewHeadlessHost() *HeadlessHost {
	return &HeadlessHost{bodies: make(map[objects.Handle]*BodyState)}
}

func (hh *HeadlessHost) body(h objects.Handle) *BodyState {
	b, ok := hh.bodies[h]
	if !ok {
		b = &BodyState{Orient: mgl32.QuatIdent(), Scale: mgl32.Vec3{1, 1, 1}}
		hh.bodies[h] = b
	}
	return b
}

func (hh *HeadlessHost) UpsertEntity(h objects.Handle, col geometry.Collision) {
	hh.body(h).Collision = col
}

func (hh *HeadlessHost) RemoveEntity(h objects.Handle) {
	delete(hh.bodies, h)
}

func (hh *HeadlessHost) ApplyTransform(h objects.Handle, pos mgl32.Vec3, orient mgl32.Quat, scale mgl32.Vec3) {
	b := hh.body(h)
	b.Position, b.Orient, b.Scale = pos, orient, scale
}

func (hh *HeadlessHost) SetBodyMode(h objects.Handle, mode objects.BodyMode) {
	hh.body(h).Mode = mode
}

func (hh *HeadlessHost) SetMaterial(h objects.Handle, mat Material) {
	hh.body(h).Material = mat
}

func (hh *HeadlessHost) SetMassProperties(h objects.Handle, props geometry.MassProperties) {
	hh.body(h).MassProps = props
}

func (hh *HeadlessHost) SetDamping(h objects.Handle, linear, angular float32) {
	b := hh.body(h)
	b.LinDamp, b.AngDamp = linear, angular
}

func (hh *HeadlessHost) SetLinearVelocity(h objects.Handle, v mgl32.Vec3) {
	hh.body(h).Velocity = v
}

func (hh *HeadlessHost) SetAngularVelocity(h objects.Handle, v mgl32.Vec3) {
	hh.body(h).AngularVelocity = v
}

func (hh *HeadlessHost) ApplyForce(h objects.Handle, f mgl32.Vec3) {
	b := hh.body(h)
	b.Force = b.Force.Add(f)
}

func (hh *HeadlessHost) SetGravity(g mgl32.Vec3) { hh.gravity = g }
func (hh *HeadlessHost) Gravity() mgl32.Vec3    { return hh.gravity }

func (hh *HeadlessHost) Position(h objects.Handle) mgl32.Vec3 {
	return hh.body(h).Position
}

func (hh *HeadlessHost) LinearVelocity(h objects.Handle) mgl32.Vec3 {
	return hh.body(h).Velocity
}

func (hh *HeadlessHost) PlaceTraceMarker(pos mgl32.Vec3) {
	hh.markers = append(hh.markers, pos)
}

func (hh *HeadlessHost) ClearTraceMarkers() { hh.markers = nil }

// Markers returns the trace markers placed so far.
func (hh *HeadlessHost) Markers() []mgl32.Vec3 { return hh.markers }

// Body returns a snapshot of the entity state; the second result is false
// for entities the host has never seen.
func (hh *HeadlessHost) Body(h objects.Handle) (BodyState, bool) {
	b, ok := hh.bodies[h]
	if !ok {
		return BodyState{}, false
	}
	return *b, true
}

// Step integrates dynamic bodies: v += (g + F/m)*dt with linear damping,
// then p += v*dt. Kinematic and static bodies keep their driven transforms.
func (hh *HeadlessHost) Step(dt float32) {
	for _, b := range hh.bodies {
		b.LastForce = b.Force
		if b.Mode != objects.ModeDynamic {
			b.Force = mgl32.Vec3{}
			continue
		}
		mass := b.MassProps.Mass
		if mass <= 0 {
			mass = 1
		}
		accel := hh.gravity.Add(b.Force.Mul(1 / mass))
		b.Velocity = b.Velocity.Add(accel.Mul(dt))
		if b.LinDamp > 0 {
			b.Velocity = b.Velocity.Mul(1 / (1 + dt*b.LinDamp))
		}
		b.Position = b.Position.Add(b.Velocity.Mul(dt))
		b.Force = mgl32.Vec3{}
	}
}
