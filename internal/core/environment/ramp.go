package environment

import (
	"github.com/Lucalangella/NEWTON-LAB/internal/core/geometry"
	"github.com/Lucalangella/NEWTON-LAB/internal/core/objects"
	"github.com/Lucalangella/NEWTON-LAB/internal/core/observability/log"
	"github.com/go-gl/mathgl/mgl32"
)

// SetRampEnabled toggles the ramp. The ramp exists only in Virtual mode.
func (e *Environment) SetRampEnabled(enabled bool) {
	e.rampEnabled = enabled
	if enabled && e.mode == Virtual {
		e.buildRamp()
	} else {
		e.teardownRamp()
	}
}

// RampEnabled reports whether the ramp toggle is on.
func (e *Environment) RampEnabled() bool { return e.rampEnabled }

// SetRampParams updates the wedge parameters and rebuilds the ramp if it is
// live. Invalid parameters keep the previous wedge.
func (e *Environment) SetRampParams(p RampParams) {
	if _, err := geometry.Wedge(p.Angle, p.Length, p.Width); err != nil {
		e.logger.Warn("ramp parameters rejected", log.Error(err))
		return
	}
	e.rampParams = p
	if e.rampEnabled && e.mode == Virtual {
		e.buildRamp()
	}
}

// RampParams returns the current wedge parameters.
func (e *Environment) Params() RampParams { return e.rampParams }

// RampHandle returns the ramp's object handle, or NilHandle when disabled.
func (e *Environment) RampHandle() objects.Handle { return e.rampHandle }

// RampCollision returns the ramp's current collision volume, valid while
// the ramp is live.
func (e *Environment) RampCollision() (geometry.Collision, bool) {
	obj, ok := e.reg.Get(e.rampHandle)
	if !ok {
		return geometry.Collision{}, false
	}
	return obj.Collision, true
}

// buildRamp regenerates the wedge mesh and replaces the ramp's collision
// volume with the convex hull of the new mesh. The existing handle is kept
// so open gestures on the ramp survive a parameter change.
func (e *Environment) buildRamp() {
	mesh, err := geometry.Wedge(e.rampParams.Angle, e.rampParams.Length, e.rampParams.Width)
	if err != nil {
		e.logger.Warn("ramp rebuild failed", log.Error(err))
		return
	}
	col := geometry.Collision{Kind: geometry.CollisionHull, Points: geometry.ConvexHull(mesh.Vertices)}
	e.rampMesh = mesh

	if obj, ok := e.reg.Get(e.rampHandle); ok {
		obj.Collision = col
	} else {
		e.rampHandle = e.reg.SpawnScenery(objects.KindGround, col, mgl32.Vec3{0, 0, 0}, 0)
	}
	e.host.UpsertEntity(e.rampHandle, col)
}

func (e *Environment) teardownRamp() {
	if e.rampHandle == objects.NilHandle {
		return
	}
	e.host.RemoveEntity(e.rampHandle)
	e.reg.Delete(e.rampHandle)
	e.rampHandle = objects.NilHandle
	e.rampMesh = nil
}
