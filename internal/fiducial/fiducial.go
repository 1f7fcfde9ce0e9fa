package fiducial

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/coilsim/internal/diag"
	"github.com/san-kum/coilsim/internal/geom"
	"github.com/san-kum/coilsim/internal/mesh"
)

// Set holds the four scalp landmarks in world space: nasion (front),
// inion (back), and the left and right pre-auricular points.
type Set struct {
	Nasion mgl64.Vec3
	Inion  mgl64.Vec3
	LPA    mgl64.Vec3
	RPA    mgl64.Vec3
}

func (s *Set) points() [4]mgl64.Vec3 {
	return [4]mgl64.Vec3{s.Nasion, s.Inion, s.LPA, s.RPA}
}

const (
	// MinSpacing is the smallest believable distance between two
	// landmarks, in meters. Anything closer means corrupted input.
	MinSpacing = 0.01
	// MinBaseRadius is the smallest usable in-plane radius.
	MinBaseRadius = 0.02
	// DefaultBaseRadius stands in when no usable landmarks or source
	// mesh exist at all.
	DefaultBaseRadius = 0.09
	// FallbackRadiusFactor scales the source bounding-sphere radius
	// down to an equator-level base radius.
	FallbackRadiusFactor = 0.55
)

// Plane is the head-relative reference frame: an orthonormal basis with
// U pointing anterior, N up, V completing the right-handed set, plus a
// planar origin and base radius. A plane is immutable once estimated.
type Plane struct {
	Origin     mgl64.Vec3
	U          mgl64.Vec3
	V          mgl64.Vec3
	N          mgl64.Vec3
	BaseRadius float64
}

// Dir converts head-relative spherical angles to a world direction.
// Yaw sweeps in the plane from +U toward +V; pitch lifts toward +N.
func (p Plane) Dir(yaw, pitch float64) mgl64.Vec3 {
	cp := math.Cos(pitch)
	planar := p.U.Mul(math.Cos(yaw) * cp).Add(p.V.Mul(math.Sin(yaw) * cp))
	return planar.Add(p.N.Mul(math.Sin(pitch)))
}

// Angles inverts Dir for a world-space point: the spherical coordinates
// of the direction from the plane origin to the point.
func (p Plane) Angles(world mgl64.Vec3) (yaw, pitch float64) {
	d := world.Sub(p.Origin)
	x := d.Dot(p.U)
	y := d.Dot(p.V)
	z := d.Dot(p.N)
	yaw = geom.WrapTwoPi(math.Atan2(y, x))
	pitch = math.Atan2(z, math.Hypot(x, y))
	return yaw, pitch
}

// Posterior is the fixed backward reference direction in the plane,
// used as the preferred handle direction by the orientation builder.
func (p Plane) Posterior() mgl64.Vec3 {
	return p.U.Mul(-1)
}

// EstimatePlane derives the reference plane from the landmark set, or
// from the source mesh's bounding sphere when the landmarks are absent
// or degenerate. It always returns a usable plane.
func EstimatePlane(set *Set, src *mesh.Mesh, d *diag.Diagnostics) Plane {
	if p, ok := fromSet(set); ok {
		return p
	}
	d.Log.Warn().Msg("fiducial: landmarks unusable, deriving plane from source bounding sphere")
	return fallbackPlane(src)
}

func fromSet(set *Set) (Plane, bool) {
	if set == nil {
		return Plane{}, false
	}
	pts := set.points()
	for i := 0; i < len(pts); i++ {
		for j := i + 1; j < len(pts); j++ {
			if pts[i].Sub(pts[j]).Len() < MinSpacing {
				return Plane{}, false
			}
		}
	}

	origin := pts[0].Add(pts[1]).Add(pts[2]).Add(pts[3]).Mul(0.25)

	ap := set.Nasion.Sub(set.Inion)
	lr := set.LPA.Sub(set.RPA)
	n := ap.Cross(lr)
	if n.Len() < 1e-9 {
		return Plane{}, false
	}
	n = n.Normalize()
	if n.Y() < 0 {
		n = n.Mul(-1)
	}

	u := geom.TangentProject(ap, n)
	if u.Len() < 1e-9 {
		return Plane{}, false
	}
	u = u.Normalize()
	v := n.Cross(u)

	radius := 0.0
	for _, pt := range pts {
		radius += geom.TangentProject(pt.Sub(origin), n).Len()
	}
	radius /= float64(len(pts))
	if radius < MinBaseRadius {
		return Plane{}, false
	}

	return Plane{Origin: origin, U: u, V: v, N: n, BaseRadius: radius}, true
}

func fallbackPlane(src *mesh.Mesh) Plane {
	p := Plane{
		U:          mgl64.Vec3{1, 0, 0},
		V:          mgl64.Vec3{0, 0, -1},
		N:          mgl64.Vec3{0, 1, 0},
		BaseRadius: DefaultBaseRadius,
	}
	if src == nil {
		return p
	}
	s := src.BoundingSphere()
	if r := s.Radius * FallbackRadiusFactor; r > MinBaseRadius {
		p.Origin = s.Center
		p.BaseRadius = r
	}
	return p
}
