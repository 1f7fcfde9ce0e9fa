package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// rayEpsilon rejects intersections at the ray origin and near-parallel hits.
const rayEpsilon = 1e-9

type Ray struct {
	Origin mgl64.Vec3
	Dir    mgl64.Vec3
}

func (r Ray) At(t float64) mgl64.Vec3 {
	return r.Origin.Add(r.Dir.Mul(t))
}

// IntersectTriangle tests r against triangle (a, b, c) using the
// Moller-Trumbore algorithm. Both facings count as hits. On success it
// returns the distance t along the ray and the barycentric weights u, v
// of vertices b and c (the weight of a is 1-u-v).
func IntersectTriangle(r Ray, a, b, c mgl64.Vec3) (t, u, v float64, ok bool) {
	e1 := b.Sub(a)
	e2 := c.Sub(a)
	p := r.Dir.Cross(e2)
	det := e1.Dot(p)
	if math.Abs(det) < rayEpsilon {
		return 0, 0, 0, false
	}
	inv := 1.0 / det
	s := r.Origin.Sub(a)
	u = s.Dot(p) * inv
	if u < 0 || u > 1 {
		return 0, 0, 0, false
	}
	q := s.Cross(e1)
	v = r.Dir.Dot(q) * inv
	if v < 0 || u+v > 1 {
		return 0, 0, 0, false
	}
	t = e2.Dot(q) * inv
	if t <= rayEpsilon {
		return 0, 0, 0, false
	}
	return t, u, v, true
}
