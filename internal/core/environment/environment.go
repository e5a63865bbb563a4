package environment

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Lucalangella/NEWTON-LAB/internal/core/geometry"
	"github.com/Lucalangella/NEWTON-LAB/internal/core/objects"
	"github.com/Lucalangella/NEWTON-LAB/internal/core/observability/log"
	"github.com/Lucalangella/NEWTON-LAB/internal/core/physics"
)

// Mode selects between the synthetic room and real-world surfaces.
type Mode uint8

const (
	Virtual Mode = iota
	MixedReality
)

func (m Mode) String() string {
	if m == MixedReality {
		return "mixed_reality"
	}
	return "virtual"
}

const (
	// VirtualFloorMinY is the drag clamp above the synthetic floor.
	VirtualFloorMinY = 0.16
	// MixedFloorMinY effectively unclamps dragging in mixed reality; real
	// surfaces stop the object instead.
	MixedFloorMinY = -1.0

	// FloorSize is the fixed side length of the virtual floor.
	FloorSize = 4.0
	// FloorThickness is the slab thickness used for floor and walls.
	FloorThickness = 0.05
	// MaxWallHeight bounds the wall height slider.
	MaxWallHeight = 3.0
	// CeilingThreshold: the ceiling slab only appears once the walls are
	// near their maximum height.
	CeilingThreshold = 0.95 * MaxWallHeight
)

// RampParams is the procedural wedge parameter set. Any change rebuilds the
// wedge mesh and its convex hull.
type RampParams struct {
	Angle  float32 `json:"angle" yaml:"angle"`
	Length float32 `json:"length" yaml:"length"`
	Width  float32 `json:"width" yaml:"width"`
}

// DefaultRampParams returns the stock ramp: 30 degrees, one meter slope.
func DefaultRampParams() RampParams {
	return RampParams{Angle: 0.5236, Length: 1.0, Width: 0.8}
}

// Environment owns the derived, non-simulated scenery: virtual floor, ramp
// and walls, and the Virtual/MixedReality switch that gates them. It also
// decides the initial body mode for spawns (objects must not fall in mixed
// reality until a real surface has been scanned).
type Environment struct {
	reg  *objects.Registry
	host physics.Host

	mode    Mode
	scanned bool

	rampEnabled bool
	rampParams  RampParams
	rampHandle  objects.Handle
	rampMesh    *geometry.TriMesh

	wallsEnabled bool
	wallHeight   float32
	wallHandles  []objects.Handle

	floorHandle objects.Handle

	// onRulesChanged re-runs the property broadcast so objects already in
	// flight pick up new damping/mode rules after a mode switch.
	onRulesChanged func()

	logger log.Log
}

func New(reg *objects.Registry, host physics.Host, logger log.Log) *Environment {
	if logger == nil {
		logger = log.Provide()
	}
	e := &Environment{
		reg:        reg,
		host:       host,
		rampParams: DefaultRampParams(),
		wallHeight: 1.0,
		logger:     logger,
	}
	e.buildFloor()
	return e
}

// OnRulesChanged registers the controller hook invoked after a mode switch.
func (e *Environment) OnRulesChanged(fn func()) { e.onRulesChanged = fn }

// Mode returns the active environment mode.
func (e *Environment) Mode() Mode { return e.mode }

// FloorMinY returns the drag clamp for the active mode.
func (e *Environment) FloorMinY() float32 {
	if e.mode == MixedReality {
		return MixedFloorMinY
	}
	return VirtualFloorMinY
}

// SpawnMode resolves the initial body mode for a new object: kinematic in
// mixed reality until the real floor has been scanned, otherwise the
// configured mode.
func (e *Environment) SpawnMode(configured objects.BodyMode) objects.BodyMode {
	if e.mode == MixedReality && !e.scanned {
		return objects.ModeKinematic
	}
	return configured
}

// MarkScanned records that scene reconstruction has delivered a real
// surface; subsequent spawns may be dynamic.
func (e *Environment) MarkScanned() { e.scanned = true }

// Scanned reports whether a real surface has been scanned this session.
func (e *Environment) Scanned() bool { return e.scanned }

// SetMode switches between the virtual room and mixed reality. The virtual
// floor, ramp and walls only exist in Virtual mode; switching re-runs the
// property broadcast via the registered hook.
func (e *Environment) SetMode(mode Mode) {
	if mode == e.mode {
		return
	}
	e.mode = mode
	switch mode {
	case Virtual:
		e.buildFloor()
		if e.rampEnabled {
			e.buildRamp()
		}
		if e.wallsEnabled {
			e.buildWalls()
		}
	case MixedReality:
		e.scanned = false
		e.teardownFloor()
		e.teardownRamp()
		e.teardownWalls()
	}
	e.logger.Info("environment mode switched", log.String("mode", mode.String()))
	if e.onRulesChanged != nil {
		e.onRulesChanged()
	}
}

// Teardown removes all scenery this environment created. Used on shutdown.
func (e *Environment) Teardown() {
	e.teardownFloor()
	e.teardownRamp()
	e.teardownWalls()
}

func (e *Environment) buildFloor() {
	if e.floorHandle != objects.NilHandle {
		return
	}
	mesh := geometry.Slab(mgl32.Vec3{0, -FloorThickness / 2, 0},
		mgl32.Vec3{FloorSize, FloorThickness, FloorSize})
	col := geometry.Collision{Kind: geometry.CollisionHull, Points: geometry.ConvexHull(mesh.Vertices)}
	e.floorHandle = e.reg.SpawnScenery(objects.KindFloor, col, mgl32.Vec3{}, 0)
	e.host.UpsertEntity(e.floorHandle, col)
}

func (e *Environment) teardownFloor() {
	if e.floorHandle == objects.NilHandle {
		return
	}
	e.host.RemoveEntity(e.floorHandle)
	e.reg.Delete(e.floorHandle)
	e.floorHandle = objects.NilHandle
}
