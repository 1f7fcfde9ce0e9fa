package mesh

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/coilsim/internal/geom"
)

type Hit struct {
	Point mgl64.Vec3
	T     float64
	Tri   int
	Bary  [3]float64
}

// NormalAt interpolates the smooth vertex normals at a hit point.
func (m *Mesh) NormalAt(h Hit) mgl64.Vec3 {
	t := m.Tris[h.Tri]
	n := m.Normals[t[0]].Mul(h.Bary[0]).
		Add(m.Normals[t[1]].Mul(h.Bary[1])).
		Add(m.Normals[t[2]].Mul(h.Bary[2]))
	if l := n.Len(); l > 1e-12 {
		return n.Mul(1 / l)
	}
	return m.FaceNormal(h.Tri)
}

// RaycastAll returns every intersection of r with the mesh, in triangle
// order. Callers pick a hit with FirstHit or NearestHitTo.
func (m *Mesh) RaycastAll(r geom.Ray) []Hit {
	var hits []Hit
	for i, tri := range m.Tris {
		a := m.Positions[tri[0]]
		b := m.Positions[tri[1]]
		c := m.Positions[tri[2]]
		t, u, v, ok := geom.IntersectTriangle(r, a, b, c)
		if !ok {
			continue
		}
		hits = append(hits, Hit{
			Point: r.At(t),
			T:     t,
			Tri:   i,
			Bary:  [3]float64{1 - u - v, u, v},
		})
	}
	return hits
}

// FirstHit selects the intersection nearest the ray origin.
func FirstHit(hits []Hit) (Hit, bool) {
	if len(hits) == 0 {
		return Hit{}, false
	}
	best := hits[0]
	for _, h := range hits[1:] {
		if h.T < best.T {
			best = h
		}
	}
	return best, true
}

// NearestHitTo selects the intersection closest to a reference point.
// This is the continuity rule: when a grazing ray crosses the surface in
// several places, the tracked point must stay on its own side rather
// than jump to whichever intersection happens to come first.
func NearestHitTo(hits []Hit, ref mgl64.Vec3) (Hit, bool) {
	if len(hits) == 0 {
		return Hit{}, false
	}
	best := hits[0]
	bestD := best.Point.Sub(ref).Len()
	for _, h := range hits[1:] {
		if d := h.Point.Sub(ref).Len(); d < bestD {
			bestD = d
			best = h
		}
	}
	return best, true
}
