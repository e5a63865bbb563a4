package geometry

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// ShapeKind enumerates the spawnable shapes.
type ShapeKind uint8

const (
	ShapeBox ShapeKind = iota
	ShapeSphere
	ShapeCylinder
	ShapeCone
	ShapeMesh
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeBox:
		return "box"
	case ShapeSphere:
		return "sphere"
	case ShapeCylinder:
		return "cylinder"
	case ShapeCone:
		return "cone"
	case ShapeMesh:
		return "mesh"
	default:
		return "unknown"
	}
}

// Descriptor describes the geometry of a spawnable shape. Size holds full
// extents for boxes; Radius/Height cover the round primitives; Mesh is set
// only for imported models.
type Descriptor struct {
	Kind   ShapeKind
	Size   mgl32.Vec3
	Radius float32
	Height float32
	Mesh   *TriMesh
}

// Default primitive dimensions, shared with the spawn path.
const (
	DefaultBoxSide = 0.3
	DefaultRadius  = 0.15
	DefaultHeight  = 0.3
)

// NewBox returns a box descriptor with the given full extents.
func NewBox(size mgl32.Vec3) Descriptor {
	return Descriptor{Kind: ShapeBox, Size: size}
}

// NewSphere returns a sphere descriptor.
func NewSphere(radius float32) Descriptor {
	return Descriptor{Kind: ShapeSphere, Radius: radius}
}

// NewCylinder returns a cylinder descriptor with a vertical axis.
func NewCylinder(radius, height float32) Descriptor {
	return Descriptor{Kind: ShapeCylinder, Radius: radius, Height: height}
}

// NewCone returns a cone descriptor with the apex up.
func NewCone(radius, height float32) Descriptor {
	return Descriptor{Kind: ShapeCone, Radius: radius, Height: height}
}

// NewMesh returns a descriptor wrapping an imported triangle mesh.
func NewMesh(mesh *TriMesh) Descriptor {
	return Descriptor{Kind: ShapeMesh, Mesh: mesh}
}

// DefaultDescriptor returns the stock descriptor used when spawning a shape
// without explicit dimensions.
func DefaultDescriptor(kind ShapeKind) Descriptor {
	switch kind {
	case ShapeSphere:
		return NewSphere(DefaultRadius)
	case ShapeCylinder:
		return NewCylinder(DefaultRadius, DefaultHeight)
	case ShapeCone:
		return NewCone(DefaultRadius, DefaultHeight)
	default:
		return NewBox(mgl32.Vec3{DefaultBoxSide, DefaultBoxSide, DefaultBoxSide})
	}
}

// DragCoefficient returns the aerodynamic drag coefficient for a shape kind.
// Imported meshes use a flat-plate-ish catch-all.
func DragCoefficient(kind ShapeKind) float32 {
	switch kind {
	case ShapeBox:
		return 1.05
	case ShapeSphere:
		return 0.47
	case ShapeCylinder:
		return 0.82
	case ShapeCone:
		return 0.50
	default:
		return 1.0
	}
}

// CrossSectionalArea returns the reference area used by the drag model.
// The area is fixed per shape rather than recomputed against the motion
// direction every step.
func (d Descriptor) CrossSectionalArea() float32 {
	switch d.Kind {
	case ShapeBox:
		return d.Size.X() * d.Size.Z()
	case ShapeSphere, ShapeCylinder, ShapeCone:
		return math32.Pi * d.Radius * d.Radius
	case ShapeMesh:
		if d.Mesh == nil || len(d.Mesh.Vertices) == 0 {
			return 0
		}
		min, max := d.Mesh.Bounds()
		return (max.X() - min.X()) * (max.Z() - min.Z())
	default:
		return 0
	}
}
