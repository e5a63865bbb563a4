package geometry

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Wedge builds the ramp solid for the given inclination angle (radians),
// slope length and width. Height and base follow from the slope:
// height = length*sin(angle), base = length*cos(angle). The wedge sits on
// y=0 with the tall back face at z=0 and the thin edge at z=base, centered
// in x.
func Wedge(angle, length, width float32) (*TriMesh, error) {
	if angle <= 0 || angle >= math32.Pi/2 || length <= 0 || width <= 0 {
		return nil, ErrBadDimensions
	}
	height := length * math32.Sin(angle)
	base := length * math32.Cos(angle)
	hw := width / 2

	// 0..2 left profile, 3..5 right profile, each (back-bottom, back-top, toe).
	verts := []mgl32.Vec3{
		{-hw, 0, 0}, {-hw, height, 0}, {-hw, 0, base},
		{hw, 0, 0}, {hw, height, 0}, {hw, 0, base},
	}
	indices := []uint32{
		0, 1, 2, // left side
		3, 5, 4, // right side
		0, 4, 1, 0, 3, 4, // back face
		1, 4, 5, 1, 5, 2, // slope
		0, 2, 5, 0, 5, 3, // bottom
	}
	return &TriMesh{Vertices: verts, Indices: indices}, nil
}

// Slab builds an axis-aligned box mesh with the given center and full size,
// used for the virtual floor, walls and ceiling.
func Slab(center, size mgl32.Vec3) *TriMesh {
	h := size.Mul(0.5)
	verts := make([]mgl32.Vec3, 0, 8)
	for _, x := range [2]float32{-h.X(), h.X()} {
		for _, y := range [2]float32{-h.Y(), h.Y()} {
			for _, z := range [2]float32{-h.Z(), h.Z()} {
				verts = append(verts, center.Add(mgl32.Vec3{x, y, z}))
			}
		}
	}
	// Vertex order: x*4 + y*2 + z with 0=min, 1=max per axis.
	indices := []uint32{
		0, 1, 3, 0, 3, 2, // x-
		4, 7, 5, 4, 6, 7, // x+
		0, 5, 1, 0, 4, 5, // y-
		2, 3, 7, 2, 7, 6, // y+
		0, 2, 6, 0, 6, 4, // z-
		1, 5, 7, 1, 7, 3, // z+
	}
	return &TriMesh{Vertices: verts, Indices: indices}
}
