package mesh

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/coilsim/internal/geom"
)

type Mesh struct {
	Positions []mgl64.Vec3
	Tris      [][3]uint32
	Normals   []mgl64.Vec3
}

type Sphere struct {
	Center mgl64.Vec3
	Radius float64
}

func (s Sphere) Contains(p mgl64.Vec3) bool {
	return p.Sub(s.Center).Len() <= s.Radius
}

func (m *Mesh) Centroid() mgl64.Vec3 {
	if len(m.Positions) == 0 {
		return mgl64.Vec3{}
	}
	sum := mgl64.Vec3{}
	for _, p := range m.Positions {
		sum = sum.Add(p)
	}
	return sum.Mul(1 / float64(len(m.Positions)))
}

// BoundingSphere computes an approximate minimal bounding sphere with
// Ritter's two-pass method: a diameter guess from the two mutually
// furthest-ish points, then a growth pass over every vertex.
func (m *Mesh) BoundingSphere() Sphere {
	if len(m.Positions) == 0 {
		return Sphere{}
	}
	far := func(from mgl64.Vec3) mgl64.Vec3 {
		best := m.Positions[0]
		bestD := -1.0
		for _, p := range m.Positions {
			if d := p.Sub(from).Len(); d > bestD {
				bestD = d
				best = p
			}
		}
		return best
	}
	a := far(m.Positions[0])
	b := far(a)

	center := geom.Lerp(a, b, 0.5)
	radius := b.Sub(a).Len() / 2

	for _, p := range m.Positions {
		d := p.Sub(center).Len()
		if d <= radius {
			continue
		}
		radius = (radius + d) / 2
		center = center.Add(p.Sub(center).Mul((d - radius) / d))
	}
	return Sphere{Center: center, Radius: radius}
}

// Adjacency builds the vertex-neighbor lists from the triangle indices.
// Neighbor lists are deduplicated; vertex degree stays small on the
// meshes this package handles, so the linear membership check is fine.
func (m *Mesh) Adjacency() [][]uint32 {
	adj := make([][]uint32, len(m.Positions))
	add := func(a, b uint32) {
		for _, n := range adj[a] {
			if n == b {
				return
			}
		}
		adj[a] = append(adj[a], b)
	}
	for _, tri := range m.Tris {
		add(tri[0], tri[1])
		add(tri[1], tri[0])
		add(tri[1], tri[2])
		add(tri[2], tri[1])
		add(tri[2], tri[0])
		add(tri[0], tri[2])
	}
	return adj
}

func (m *Mesh) FaceNormal(tri int) mgl64.Vec3 {
	t := m.Tris[tri]
	a := m.Positions[t[0]]
	b := m.Positions[t[1]]
	c := m.Positions[t[2]]
	n := b.Sub(a).Cross(c.Sub(a))
	if l := n.Len(); l > 1e-12 {
		return n.Mul(1 / l)
	}
	return mgl64.Vec3{0, 1, 0}
}

// RecomputeNormals rebuilds smooth per-vertex normals by accumulating
// the unnormalized face normals of incident triangles, which weights
// each face by its area.
func (m *Mesh) RecomputeNormals() {
	normals := make([]mgl64.Vec3, len(m.Positions))
	for _, tri := range m.Tris {
		a := m.Positions[tri[0]]
		b := m.Positions[tri[1]]
		c := m.Positions[tri[2]]
		fn := b.Sub(a).Cross(c.Sub(a))
		normals[tri[0]] = normals[tri[0]].Add(fn)
		normals[tri[1]] = normals[tri[1]].Add(fn)
		normals[tri[2]] = normals[tri[2]].Add(fn)
	}
	for i, n := range normals {
		if l := n.Len(); l > 1e-12 {
			normals[i] = n.Mul(1 / l)
		} else {
			normals[i] = mgl64.Vec3{0, 1, 0}
		}
	}
	m.Normals = normals
}
