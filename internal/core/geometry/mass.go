package geometry

import (
	"github.com/go-gl/mathgl/mgl32"
)

// MassProperties carries the mass descriptor applied to the physics host.
// Inertia is the principal diagonal in local space.
type MassProperties struct {
	Mass         float32
	CenterOfMass mgl32.Vec3
	Inertia      mgl32.Vec3
}

// DeriveMass computes mass properties for a collision volume at the given
// mass. Hulls use their AABB as the inertia reference and the vertex centroid
// as the center of mass.
func DeriveMass(c Collision, mass float32) (MassProperties, error) {
	if mass <= 0 {
		return MassProperties{}, ErrBadDimensions
	}
	switch c.Kind {
	case CollisionBox:
		return MassProperties{
			Mass:    mass,
			Inertia: boxInertia(mass, c.HalfExtents),
		}, nil
	case CollisionSphere:
		i := 0.4 * mass * c.Radius * c.Radius
		return MassProperties{
			Mass:    mass,
			Inertia: mgl32.Vec3{i, i, i},
		}, nil
	case CollisionHull:
		if len(c.Points) == 0 {
			return MassProperties{}, ErrGeometryGeneration
		}
		min, max := pointBounds(c.Points)
		var com mgl32.Vec3
		for _, p := range c.Points {
			com = com.Add(p)
		}
		com = com.Mul(1 / float32(len(c.Points)))
		return MassProperties{
			Mass:         mass,
			CenterOfMass: com,
			Inertia:      boxInertia(mass, max.Sub(min).Mul(0.5)),
		}, nil
	default:
		return MassProperties{}, ErrGeometryGeneration
	}
}

// WithMass returns a copy with a new mass and rescaled inertia, preserving
// the previously derived center of mass. Broadcasting a mass edit must not
// move the center of mass, only a spawn or import recomputes it.
func (mp MassProperties) WithMass(mass float32) MassProperties {
	if mass <= 0 || mp.Mass <= 0 {
		return mp
	}
	scale := mass / mp.Mass
	return MassProperties{
		Mass:         mass,
		CenterOfMass: mp.CenterOfMass,
		Inertia:      mp.Inertia.Mul(scale),
	}
}

func boxInertia(mass float32, half mgl32.Vec3) mgl32.Vec3 {
	x := half.X() * 2
	y := half.Y() * 2
	z := half.Z() * 2
	return mgl32.Vec3{
		mass / 12 * (y*y + z*z),
		mass / 12 * (x*x + z*z),
		mass / 12 * (x*x + y*y),
	}
}

func pointBounds(points []mgl32.Vec3) (min, max mgl32.Vec3) {
	min, max = points[0], points[0]
	for _, p := range points[1:] {
		for i := 0; i < 3; i++ {
			if p[i] < min[i] {
				min[i] = p[i]
			}
			if p[i] > max[i] {
				max[i] = p[i]
			}
		}
	}
	return min, max
}
