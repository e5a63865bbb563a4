package geometry

import (
	"errors"

	"github.com/go-gl/mathgl/mgl32"
)

var (
	ErrEmptyMesh     = errors.New("mesh has no vertices")
	ErrBadDimensions = errors.New("invalid shape dimensions")
)

// TriMesh is an indexed triangle mesh. Imported models and the procedural
// ramp both land here before collision geometry is derived.
type TriMesh struct {
	Vertices []mgl32.Vec3
	Indices  []uint32
}

// Bounds returns the axis-aligned bounding box of the mesh vertices.
func (m *TriMesh) Bounds() (min, max mgl32.Vec3) {
	if len(m.Vertices) == 0 {
		return mgl32.Vec3{}, mgl32.Vec3{}
	}
	min, max = m.Vertices[0], m.Vertices[0]
	for _, v := range m.Vertices[1:] {
		for i := 0; i < 3; i++ {
			if v[i] < min[i] {
				min[i] = v[i]
			}
			if v[i] > max[i] {
				max[i] = v[i]
			}
		}
	}
	return min, max
}

// Centroid returns the mean of the mesh vertices.
func (m *TriMesh) Centroid() mgl32.Vec3 {
	if len(m.Vertices) == 0 {
		return mgl32.Vec3{}
	}
	var sum mgl32.Vec3
	for _, v := range m.Vertices {
		sum = sum.Add(v)
	}
	return sum.Mul(1 / float32(len(m.Vertices)))
}
