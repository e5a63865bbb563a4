package geometry

import (
	"errors"
	"math"
	"sort"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

var ErrGeometryGeneration = errors.New("collision geometry generation failed")

// CollisionKind enumerates supported collision volume types.
type CollisionKind uint8

const (
	CollisionBox CollisionKind = iota
	CollisionSphere
	CollisionHull
)

// FitMode selects how an imported mesh is turned into a collision volume.
type FitMode uint8

const (
	FitAuto FitMode = iota
	FitBox
	FitSphere
	FitConvex
)

// Collision is a collision volume in local space. Exactly one of the unioned
// members is meaningful for a given Kind.
type Collision struct {
	Kind        CollisionKind
	HalfExtents mgl32.Vec3
	Radius      float32
	Points      []mgl32.Vec3
}

// roundSegments is the ring tessellation used when turning cylinders and
// cones into convex hulls.
const roundSegments = 16

// Generate derives a collision volume from a shape descriptor. Cylinders and
// cones become convex hulls of their ring vertices so they can roll and tip
// the way the visual shape suggests.
func Generate(d Descriptor) (Collision, error) {
	switch d.Kind {
	case ShapeBox:
		if d.Size.X() <= 0 || d.Size.Y() <= 0 || d.Size.Z() <= 0 {
			return Collision{}, ErrBadDimensions
		}
		return Collision{Kind: CollisionBox, HalfExtents: d.Size.Mul(0.5)}, nil
	case ShapeSphere:
		if d.Radius <= 0 {
			return Collision{}, ErrBadDimensions
		}
		return Collision{Kind: CollisionSphere, Radius: d.Radius}, nil
	case ShapeCylinder:
		if d.Radius <= 0 || d.Height <= 0 {
			return Collision{}, ErrBadDimensions
		}
		pts := make([]mgl32.Vec3, 0, roundSegments*2)
		pts = append(pts, ringVertices(d.Radius, -d.Height/2)...)
		pts = append(pts, ringVertices(d.Radius, d.Height/2)...)
		return Collision{Kind: CollisionHull, Points: ConvexHull(pts)}, nil
	case ShapeCone:
		if d.Radius <= 0 || d.Height <= 0 {
			return Collision{}, ErrBadDimensions
		}
		pts := append(ringVertices(d.Radius, -d.Height/2), mgl32.Vec3{0, d.Height / 2, 0})
		return Collision{Kind: CollisionHull, Points: ConvexHull(pts)}, nil
	case ShapeMesh:
		return GenerateFromMesh(d.Mesh, FitAuto)
	default:
		return Collision{}, ErrGeometryGeneration
	}
}

// GenerateFromMesh fits a collision volume to an imported mesh. FitAuto picks
// a box for near-cubic bounds, a sphere for near-spherical ones, and falls
// back to a convex hull of the vertices otherwise.
func GenerateFromMesh(mesh *TriMesh, fit FitMode) (Collision, error) {
	if mesh == nil || len(mesh.Vertices) == 0 {
		return Collision{}, ErrEmptyMesh
	}
	min, max := mesh.Bounds()
	extents := max.Sub(min)
	if extents.X() <= 0 || extents.Y() <= 0 || extents.Z() <= 0 {
		return Collision{}, ErrGeometryGeneration
	}

	if fit == FitAuto {
		longest := math32.Max(extents.X(), math32.Max(extents.Y(), extents.Z()))
		shortest := math32.Min(extents.X(), math32.Min(extents.Y(), extents.Z()))
		switch {
		case shortest/longest > 0.9 && sphericalFill(mesh, extents) > 0.8:
			fit = FitSphere
		case shortest/longest > 0.75:
			fit = FitBox
		default:
			fit = FitConvex
		}
	}

	switch fit {
	case FitBox:
		return Collision{Kind: CollisionBox, HalfExtents: extents.Mul(0.5)}, nil
	case FitSphere:
		return Collision{Kind: CollisionSphere, Radius: extents.Len() / 2 / float32(math32.Sqrt(3))}, nil
	case FitConvex:
		hull := ConvexHull(mesh.Vertices)
		if len(hull) < 4 {
			return Collision{}, ErrGeometryGeneration
		}
		return Collision{Kind: CollisionHull, Points: hull}, nil
	default:
		return Collision{}, ErrGeometryGeneration
	}
}

// sphericalFill estimates how sphere-like a mesh is: the fraction of vertices
// that sit close to the bounding radius around the centroid.
func sphericalFill(mesh *TriMesh, extents mgl32.Vec3) float32 {
	c := mesh.Centroid()
	r := math32.Max(extents.X(), math32.Max(extents.Y(), extents.Z())) / 2
	if r <= 0 {
		return 0
	}
	near := 0
	for _, v := range mesh.Vertices {
		if math32.Abs(v.Sub(c).Len()-r)/r < 0.15 {
			near++
		}
	}
	return float32(near) / float32(len(mesh.Vertices))
}

func ringVertices(radius, y float32) []mgl32.Vec3 {
	pts := make([]mgl32.Vec3, 0, roundSegments)
	for i := 0; i < roundSegments; i++ {
		a := 2 * math32.Pi * float32(i) / roundSegments
		pts = append(pts, mgl32.Vec3{radius * math32.Cos(a), y, radius * math32.Sin(a)})
	}
	return pts
}

const hullEps = 1e-5

// ConvexHull returns the vertices of the convex hull of a point cloud, built
// incrementally: start from a tetrahedron of extreme points, then fold each
// remaining point in by replacing the faces it can see with a fan to the
// horizon. Points strictly inside the current hull drop out; the vertex sets
// produced by the primitive generators and the ramp wedge (all in convex
// position) come back exactly. Degenerate clouds (collinear or coplanar)
// return every distinct point, which spans the same hull.
func ConvexHull(points []mgl32.Vec3) []mgl32.Vec3 {
	unique := dedupePoints(points)
	if len(unique) <= 4 {
		return unique
	}

	pts := make([]mgl64.Vec3, len(unique))
	for i, p := range unique {
		pts[i] = mgl64.Vec3{float64(p.X()), float64(p.Y()), float64(p.Z())}
	}

	faces, seed, ok := initialTetrahedron(pts)
	if !ok {
		return unique
	}
	interior := pts[seed[0]].Add(pts[seed[1]]).Add(pts[seed[2]]).Add(pts[seed[3]]).Mul(0.25)

	for i := range pts {
		if i == seed[0] || i == seed[1] || i == seed[2] || i == seed[3] {
			continue
		}
		faces = foldPointIn(pts, faces, i, interior)
	}

	onHull := make(map[int]struct{}, len(unique))
	for _, f := range faces {
		onHull[f.a] = struct{}{}
		onHull[f.b] = struct{}{}
		onHull[f.c] = struct{}{}
	}
	idx := make([]int, 0, len(onHull))
	for i := range onHull {
		idx = append(idx, i)
	}
	sort.Ints(idx)

	hull := make([]mgl32.Vec3, 0, len(idx))
	for _, i := range idx {
		hull = append(hull, unique[i])
	}
	return hull
}

func dedupePoints(points []mgl32.Vec3) []mgl32.Vec3 {
	unique := make([]mgl32.Vec3, 0, len(points))
	for _, p := range points {
		dup := false
		for _, u := range unique {
			if p.Sub(u).Len() < hullEps {
				dup = true
				break
			}
		}
		if !dup {
			unique = append(unique, p)
		}
	}
	return unique
}

// hullFace is one oriented triangle of the working hull. The unit normal
// points away from the hull interior.
type hullFace struct {
	a, b, c int
	normal  mgl64.Vec3
	offset  float64
}

func (f hullFace) dist(p mgl64.Vec3) float64 {
	return f.normal.Dot(p) - f.offset
}

// newHullFace builds a face over three indices, oriented so the given
// interior point sits on its negative side. Nearly collinear triples are
// rejected.
func newHullFace(pts []mgl64.Vec3, a, b, c int, interior mgl64.Vec3) (hullFace, bool) {
	n := pts[b].Sub(pts[a]).Cross(pts[c].Sub(pts[a]))
	l := n.Len()
	if l < 1e-12 {
		return hullFace{}, false
	}
	n = n.Mul(1 / l)
	if n.Dot(interior.Sub(pts[a])) > 0 {
		b, c = c, b
		n = n.Mul(-1)
	}
	return hullFace{a: a, b: b, c: c, normal: n, offset: n.Dot(pts[a])}, true
}

// initialTetrahedron picks four points in general position: the two most
// separated along X, the point farthest from their line, and the point
// farthest from their plane. Failing any of those means the cloud is
// degenerate.
func initialTetrahedron(pts []mgl64.Vec3) ([]hullFace, [4]int, bool) {
	var seed [4]int

	lo, hi := 0, 0
	for i, p := range pts {
		if p.X() < pts[lo].X() {
			lo = i
		}
		if p.X() > pts[hi].X() {
			hi = i
		}
	}
	if lo == hi {
		return nil, seed, false
	}
	seed[0], seed[1] = lo, hi

	axis := pts[seed[1]].Sub(pts[seed[0]])
	seed[2] = -1
	best := float64(hullEps)
	for i, p := range pts {
		if d := axis.Cross(p.Sub(pts[seed[0]])).Len() / axis.Len(); d > best {
			best = d
			seed[2] = i
		}
	}
	if seed[2] < 0 {
		return nil, seed, false
	}

	n := axis.Cross(pts[seed[2]].Sub(pts[seed[0]])).Normalize()
	seed[3] = -1
	best = hullEps
	for i, p := range pts {
		if d := math.Abs(n.Dot(p.Sub(pts[seed[0]]))); d > best {
			best = d
			seed[3] = i
		}
	}
	if seed[3] < 0 {
		return nil, seed, false
	}

	interior := pts[seed[0]].Add(pts[seed[1]]).Add(pts[seed[2]]).Add(pts[seed[3]]).Mul(0.25)
	faces := make([]hullFace, 0, 4)
	for _, tri := range [][3]int{
		{seed[0], seed[1], seed[2]},
		{seed[0], seed[1], seed[3]},
		{seed[0], seed[2], seed[3]},
		{seed[1], seed[2], seed[3]},
	} {
		f, ok := newHullFace(pts, tri[0], tri[1], tri[2], interior)
		if !ok {
			return nil, seed, false
		}
		faces = append(faces, f)
	}
	return faces, seed, true
}

// foldPointIn grows the hull with one point: faces the point sees (including
// faces it is coplanar with, so vertices on a shared facet survive) are
// replaced by a fan from the point to the horizon edges.
func foldPointIn(pts []mgl64.Vec3, faces []hullFace, i int, interior mgl64.Vec3) []hullFace {
	p := pts[i]

	visible := make([]bool, len(faces))
	maxDist := math.Inf(-1)
	for fi, f := range faces {
		d := f.dist(p)
		if d > maxDist {
			maxDist = d
		}
		visible[fi] = d > -hullEps
	}
	if maxDist < -hullEps {
		return faces
	}

	// An undirected edge of the visible region that only one visible face
	// uses borders an invisible face: that is the horizon.
	type dirEdge struct{ u, v int }
	count := make(map[[2]int]int)
	winding := make(map[[2]int]dirEdge)
	for fi, f := range faces {
		if !visible[fi] {
			continue
		}
		for _, e := range [][2]int{{f.a, f.b}, {f.b, f.c}, {f.c, f.a}} {
			key := [2]int{e[0], e[1]}
			if key[0] > key[1] {
				key[0], key[1] = key[1], key[0]
			}
			count[key]++
			winding[key] = dirEdge{u: e[0], v: e[1]}
		}
	}

	next := make([]hullFace, 0, len(faces))
	for fi, f := range faces {
		if !visible[fi] {
			next = append(next, f)
		}
	}
	for key, n := range count {
		if n != 1 {
			continue
		}
		e := winding[key]
		if f, ok := newHullFace(pts, e.u, e.v, i, interior); ok {
			next = append(next, f)
		}
	}
	return next
}
