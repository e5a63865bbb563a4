package environment

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Lucalangella/NEWTON-LAB/internal/core/geometry"
	"github.com/Lucalangella/NEWTON-LAB/internal/core/objects"
)

// SetWallsEnabled toggles the four boundary walls. Virtual mode only.
func (e *Environment) SetWallsEnabled(enabled bool) {
	e.wallsEnabled = enabled
	if enabled && e.mode == Virtual {
		e.buildWalls()
	} else {
		e.teardownWalls()
	}
}

// WallsEnabled reports whether the wall toggle is on.
func (e *Environment) WallsEnabled() bool { return e.wallsEnabled }

// SetWallHeight clamps the height to the slider range and rebuilds the
// walls from scratch.
func (e *Environment) SetWallHeight(h float32) {
	if h < 0 {
		h = 0
	}
	if h > MaxWallHeight {
		h = MaxWallHeight
	}
	e.wallHeight = h
	if e.wallsEnabled && e.mode == Virtual {
		e.buildWalls()
	}
}

// WallHeight returns the current wall height.
func (e *Environment) WallHeight() float32 { return e.wallHeight }

// WallCount returns the number of live wall slabs, including the ceiling
// when present.
func (e *Environment) WallCount() int { return len(e.wallHandles) }

// buildWalls rebuilds the four vertical slabs framing the floor, adding a
// ceiling slab only once the height reaches the near-maximum threshold.
func (e *Environment) buildWalls() {
	e.teardownWalls()
	if e.wallHeight <= 0 {
		return
	}

	half := float32(FloorSize / 2)
	midY := e.wallHeight / 2
	slabs := []*geometry.TriMesh{
		geometry.Slab(mgl32.Vec3{0, midY, -half}, mgl32.Vec3{FloorSize, e.wallHeight, FloorThickness}),
		geometry.Slab(mgl32.Vec3{0, midY, half}, mgl32.Vec3{FloorSize, e.wallHeight, FloorThickness}),
		geometry.Slab(mgl32.Vec3{-half, midY, 0}, mgl32.Vec3{FloorThickness, e.wallHeight, FloorSize}),
		geometry.Slab(mgl32.Vec3{half, midY, 0}, mgl32.Vec3{FloorThickness, e.wallHeight, FloorSize}),
	}
	if e.wallHeight >= CeilingThreshold {
		slabs = append(slabs, geometry.Slab(
			mgl32.Vec3{0, e.wallHeight + FloorThickness/2, 0},
			mgl32.Vec3{FloorSize, FloorThickness, FloorSize}))
	}

	for _, mesh := range slabs {
		col := geometry.Collision{Kind: geometry.CollisionHull, Points: geometry.ConvexHull(mesh.Vertices)}
		h := e.reg.SpawnScenery(objects.KindWall, col, mgl32.Vec3{}, 0)
		e.host.UpsertEntity(h, col)
		e.wallHandles = append(e.wallHandles, h)
	}
}

func (e *Environment) teardownWalls() {
	for _, h := range e.wallHandles {
		e.host.RemoveEntity(h)
		e.reg.Delete(h)
	}
	e.wallHandles = nil
}
