package geometry

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"
)

func TestWedge(t *testing.T) {
	t.Run("Solid Shape", func(t *testing.T) {
		mesh, err := Wedge(0.5236, 1.0, 0.8)
		require.NoError(t, err)
		require.Len(t, mesh.Vertices, 6)
		require.Len(t, mesh.Indices, 24)
	})

	t.Run("Height And Base", func(t *testing.T) {
		angle := float32(0.5236)
		mesh, err := Wedge(angle, 1.0, 0.8)
		require.NoError(t, err)

		min, max := mesh.Bounds()
		require.InDelta(t, float64(math32.Sin(angle)), float64(max.Y()-min.Y()), 1e-5)
		require.InDelta(t, float64(math32.Cos(angle)), float64(max.Z()-min.Z()), 1e-5)
		require.InDelta(t, 0.8, float64(max.X()-min.X()), 1e-5)
		require.InDelta(t, 0, float64(min.Y()), 1e-6)
	})

	t.Run("Rejects Bad Parameters", func(t *testing.T) {
		_, err := Wedge(0, 1, 1)
		require.ErrorIs(t, err, ErrBadDimensions)
		_, err = Wedge(math32.Pi/2, 1, 1)
		require.ErrorIs(t, err, ErrBadDimensions)
		_, err = Wedge(0.5, -1, 1)
		require.ErrorIs(t, err, ErrBadDimensions)
		_, err = Wedge(0.5, 1, 0)
		require.ErrorIs(t, err, ErrBadDimensions)
	})
}

func TestConvexHull(t *testing.T) {
	t.Run("Keeps Convex Vertices Exactly", func(t *testing.T) {
		cube := []mgl32.Vec3{
			{-1, -1, -1}, {1, -1, -1}, {-1, 1, -1}, {1, 1, -1},
			{-1, -1, 1}, {1, -1, 1}, {-1, 1, 1}, {1, 1, 1},
		}
		hull := ConvexHull(cube)
		require.Len(t, hull, 8)
	})

	t.Run("Drops Interior Points", func(t *testing.T) {
		pts := []mgl32.Vec3{
			{-1, -1, -1}, {1, -1, -1}, {-1, 1, -1}, {1, 1, -1},
			{-1, -1, 1}, {1, -1, 1}, {-1, 1, 1}, {1, 1, 1},
			{0, 0, 0}, {0.2, 0.1, -0.3},
		}
		hull := ConvexHull(pts)
		require.Len(t, hull, 8)
		for _, p := range hull {
			require.InDelta(t, 1, float64(math32.Abs(p.X())), 1e-5)
		}
	})

	t.Run("Deduplicates", func(t *testing.T) {
		pts := []mgl32.Vec3{{1, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}, {0, 0, 0}}
		hull := ConvexHull(pts)
		require.LessOrEqual(t, len(hull), 4)
	})

	t.Run("Skewed Cloud Keeps All Extremes", func(t *testing.T) {
		// A far outlier pulls the centroid away from the near cluster;
		// the near corners are still hull vertices.
		pts := []mgl32.Vec3{
			{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}, {10, 10, 10},
		}
		hull := ConvexHull(pts)
		require.Len(t, hull, 5)
		for _, p := range pts {
			require.Contains(t, hull, p)
		}
	})

	t.Run("Skewed Cloud Still Drops Interior", func(t *testing.T) {
		pts := []mgl32.Vec3{
			{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}, {10, 10, 10},
			{0.5, 0.5, 0.5},
		}
		hull := ConvexHull(pts)
		require.Len(t, hull, 5)
		require.NotContains(t, hull, mgl32.Vec3{0.5, 0.5, 0.5})
	})

	t.Run("Planar Cloud Falls Back To Distinct Points", func(t *testing.T) {
		pts := []mgl32.Vec3{
			{0, 0, 0}, {1, 0, 0}, {0, 0, 1}, {1, 0, 1}, {0.5, 0, 0.5},
		}
		hull := ConvexHull(pts)
		require.Len(t, hull, 5)
	})

	t.Run("Cylinder Ring Survives", func(t *testing.T) {
		col, err := Generate(NewCylinder(0.15, 0.3))
		require.NoError(t, err)
		require.Equal(t, CollisionHull, col.Kind)
		// Two rings of 16 segments; every ring vertex is on the hull.
		require.Len(t, col.Points, 32)
	})
}

func TestGenerate(t *testing.T) {
	t.Run("Box", func(t *testing.T) {
		col, err := Generate(NewBox(mgl32.Vec3{0.3, 0.3, 0.3}))
		require.NoError(t, err)
		require.Equal(t, CollisionBox, col.Kind)
		require.Equal(t, mgl32.Vec3{0.15, 0.15, 0.15}, col.HalfExtents)
	})

	t.Run("Sphere", func(t *testing.T) {
		col, err := Generate(NewSphere(0.15))
		require.NoError(t, err)
		require.Equal(t, CollisionSphere, col.Kind)
		require.Equal(t, float32(0.15), col.Radius)
	})

	t.Run("Cone Has Apex", func(t *testing.T) {
		col, err := Generate(NewCone(0.15, 0.3))
		require.NoError(t, err)
		require.Equal(t, CollisionHull, col.Kind)
		require.Len(t, col.Points, 17)
	})

	t.Run("Rejects Bad Dimensions", func(t *testing.T) {
		_, err := Generate(NewSphere(0))
		require.ErrorIs(t, err, ErrBadDimensions)
		_, err = Generate(NewBox(mgl32.Vec3{0.3, 0, 0.3}))
		require.ErrorIs(t, err, ErrBadDimensions)
	})
}

func TestGenerateFromMesh(t *testing.T) {
	t.Run("Auto Picks Box For Cubic Bounds", func(t *testing.T) {
		mesh := Slab(mgl32.Vec3{}, mgl32.Vec3{1, 1, 1})
		col, err := GenerateFromMesh(mesh, FitAuto)
		require.NoError(t, err)
		require.Equal(t, CollisionBox, col.Kind)
		require.Equal(t, mgl32.Vec3{0.5, 0.5, 0.5}, col.HalfExtents)
	})

	t.Run("Auto Falls Back To Hull For Slim Bounds", func(t *testing.T) {
		mesh, err := Wedge(0.5236, 1.0, 0.8)
		require.NoError(t, err)
		col, err := GenerateFromMesh(mesh, FitAuto)
		require.NoError(t, err)
		require.Equal(t, CollisionHull, col.Kind)
		require.Len(t, col.Points, 6)
	})

	t.Run("Explicit Fit Wins", func(t *testing.T) {
		mesh := Slab(mgl32.Vec3{}, mgl32.Vec3{1, 1, 1})
		col, err := GenerateFromMesh(mesh, FitSphere)
		require.NoError(t, err)
		require.Equal(t, CollisionSphere, col.Kind)
	})

	t.Run("Empty Mesh", func(t *testing.T) {
		_, err := GenerateFromMesh(&TriMesh{}, FitAuto)
		require.ErrorIs(t, err, ErrEmptyMesh)
		_, err = GenerateFromMesh(nil, FitAuto)
		require.ErrorIs(t, err, ErrEmptyMesh)
	})
}

func TestDragCoefficients(t *testing.T) {
	require.Equal(t, float32(1.05), DragCoefficient(ShapeBox))
	require.Equal(t, float32(0.47), DragCoefficient(ShapeSphere))
	require.Equal(t, float32(0.82), DragCoefficient(ShapeCylinder))
	require.Equal(t, float32(0.50), DragCoefficient(ShapeCone))
	require.Equal(t, float32(1.0), DragCoefficient(ShapeMesh))
}

func TestCrossSectionalArea(t *testing.T) {
	t.Run("Box Uses Footprint", func(t *testing.T) {
		d := NewBox(mgl32.Vec3{0.3, 1.0, 0.3})
		require.InDelta(t, 0.09, float64(d.CrossSectionalArea()), 1e-5)
	})

	t.Run("Sphere Uses Disc", func(t *testing.T) {
		d := NewSphere(0.15)
		require.InDelta(t, float64(math32.Pi*0.15*0.15), float64(d.CrossSectionalArea()), 1e-5)
	})
}

func TestDeriveMass(t *testing.T) {
	t.Run("Box Inertia", func(t *testing.T) {
		col, err := Generate(NewBox(mgl32.Vec3{0.3, 0.3, 0.3}))
		require.NoError(t, err)
		mp, err := DeriveMass(col, 2)
		require.NoError(t, err)
		require.Equal(t, float32(2), mp.Mass)
		require.InDelta(t, 2.0/12*(0.09+0.09), float64(mp.Inertia.X()), 1e-5)
	})

	t.Run("Hull Center Of Mass Is Centroid", func(t *testing.T) {
		col := Collision{Kind: CollisionHull, Points: []mgl32.Vec3{
			{0, 0, 0}, {2, 0, 0}, {0, 2, 0}, {0, 0, 2},
		}}
		mp, err := DeriveMass(col, 1)
		require.NoError(t, err)
		require.Equal(t, mgl32.Vec3{0.5, 0.5, 0.5}, mp.CenterOfMass)
	})

	t.Run("Rejects Nonpositive Mass", func(t *testing.T) {
		col, _ := Generate(NewSphere(0.15))
		_, err := DeriveMass(col, 0)
		require.ErrorIs(t, err, ErrBadDimensions)
	})
}

func TestWithMass(t *testing.T) {
	col := Collision{Kind: CollisionHull, Points: []mgl32.Vec3{
		{0, 0, 0}, {2, 0, 0}, {0, 2, 0}, {0, 0, 2},
	}}
	mp, err := DeriveMass(col, 1)
	require.NoError(t, err)

	heavier := mp.WithMass(4)
	require.Equal(t, float32(4), heavier.Mass)
	// A live mass edit keeps the center of mass and scales inertia
	// linearly.
	require.Equal(t, mp.CenterOfMass, heavier.CenterOfMass)
	require.InDelta(t, float64(mp.Inertia.X()*4), float64(heavier.Inertia.X()), 1e-5)
}
