package physics

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Lucalangella/NEWTON-LAB/internal/core/geometry"
	"github.com/Lucalangella/NEWTON-LAB/internal/core/objects"
)

// Host is the boundary to the rendering/physics engine that actually
// simulates rigid bodies. The controller only ever pushes descriptors and
// reads simulation state back; it never integrates motion itself.
type Host interface {
	// Entity lifecycle

	UpsertEntity(h objects.Handle, col geometry.Collision)
	RemoveEntity(h objects.Handle)

	// Descriptor pushes

	ApplyTransform(h objects.Handle, pos mgl32.Vec3, orient mgl32.Quat, scale mgl32.Vec3)
	SetBodyMode(h objects.Handle, mode objects.BodyMode)
	SetMaterial(h objects.Handle, mat Material)
	SetMassProperties(h objects.Handle, props geometry.MassProperties)
	SetDamping(h objects.Handle, linear, angular float32)
	SetLinearVelocity(h objects.Handle, v mgl32.Vec3)
	SetAngularVelocity(h objects.Handle, v mgl32.Vec3)
	ApplyForce(h objects.Handle, f mgl32.Vec3)
	SetGravity(g mgl32.Vec3)

	// Simulation read-back

	Position(h objects.Handle) mgl32.Vec3
	LinearVelocity(h objects.Handle) mgl32.Vec3

	// Trace visualization

	PlaceTraceMarker(pos mgl32.Vec3)
	ClearTraceMarkers()
}

// Steppable is implemented by hosts that need the controller to advance
// their simulation, rather than an engine running its own loop. The
// controller steps such hosts inside its tick, so all host access stays on
// the one actor goroutine.
type Steppable interface {
	Step(dt float32)
}
