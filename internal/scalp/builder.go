package scalp

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/coilsim/internal/diag"
	"github.com/san-kum/coilsim/internal/fiducial"
	"github.com/san-kum/coilsim/internal/geom"
	"github.com/san-kum/coilsim/internal/mesh"
)

// DomeRadiusFactor oversizes the initial dome relative to the base
// radius so the wrap pass always starts outside the scalp equator.
const DomeRadiusFactor = 1.15

type BuildOptions struct {
	Rings            int     // latitude subdivisions between equator and pole
	Segments         int     // longitude subdivisions per ring
	Offset           float64 // outward standoff from the source surface, meters
	SmoothIterations int
	SmoothLambda     float64
	RimMargin        float64 // pitch fraction of the pole angle treated as rim
}

func DefaultBuildOptions() BuildOptions {
	return BuildOptions{
		Rings:            24,
		Segments:         48,
		Offset:           0.005,
		SmoothIterations: 8,
		SmoothLambda:     0.28,
		RimMargin:        0.03,
	}
}

func (o BuildOptions) sanitized() BuildOptions {
	def := DefaultBuildOptions()
	if o.Rings < 4 {
		o.Rings = def.Rings
	}
	if o.Segments < 8 {
		o.Segments = def.Segments
	}
	if o.Offset < 0 {
		o.Offset = def.Offset
	}
	if o.SmoothIterations < 0 {
		o.SmoothIterations = def.SmoothIterations
	}
	if o.SmoothLambda < 0 || o.SmoothLambda > 1 {
		o.SmoothLambda = def.SmoothLambda
	}
	if o.RimMargin < 0 || o.RimMargin >= 1 {
		o.RimMargin = def.RimMargin
	}
	return o
}

// Build generates the proxy surface for one head: a hemispherical dome
// over the reference plane, shrink-wrapped vertex by vertex onto the
// source mesh, rim-projected onto the base circle, Laplacian-smoothed,
// and finished with outward smooth normals. A wrap ray that misses the
// source leaves its vertex at the dome position; the build itself
// never fails.
func Build(plane fiducial.Plane, src *mesh.Mesh, opts BuildOptions, d *diag.Diagnostics) *mesh.Mesh {
	opts = opts.sanitized()

	m, pitches := dome(plane, opts)

	rim := make([]bool, len(m.Positions))
	rimPitch := opts.RimMargin * math.Pi / 2
	for i, pitch := range pitches {
		rim[i] = pitch <= rimPitch
	}

	wrap(m, plane, src, rim, opts, d)
	projectRim(m, plane, rim)

	m.SmoothLaplacian(opts.SmoothIterations, opts.SmoothLambda, rim)
	m.RecomputeNormals()
	orientNormalsOutward(m, plane.Origin)

	d.ProxyRebuilds++
	d.Log.Debug().
		Int("vertices", len(m.Positions)).
		Int("triangles", len(m.Tris)).
		Int("ray_misses", d.BuildRayMisses).
		Float64("base_radius", plane.BaseRadius).
		Msg("scalp: proxy surface built")
	return m
}

// dome tessellates a hemisphere of radius baseRadius*DomeRadiusFactor:
// Rings latitude rings of Segments vertices from the equator upward,
// closed by a single pole vertex. It returns the mesh and each
// vertex's pitch angle.
func dome(plane fiducial.Plane, opts BuildOptions) (*mesh.Mesh, []float64) {
	radius := plane.BaseRadius * DomeRadiusFactor
	count := opts.Rings*opts.Segments + 1

	m := &mesh.Mesh{Positions: make([]mgl64.Vec3, 0, count)}
	pitches := make([]float64, 0, count)

	for r := 0; r < opts.Rings; r++ {
		pitch := (math.Pi / 2) * float64(r) / float64(opts.Rings)
		for s := 0; s < opts.Segments; s++ {
			yaw := 2 * math.Pi * float64(s) / float64(opts.Segments)
			m.Positions = append(m.Positions, plane.Origin.Add(plane.Dir(yaw, pitch).Mul(radius)))
			pitches = append(pitches, pitch)
		}
	}
	pole := uint32(len(m.Positions))
	m.Positions = append(m.Positions, plane.Origin.Add(plane.N.Mul(radius)))
	pitches = append(pitches, math.Pi/2)

	idx := func(r, s int) uint32 {
		return uint32(r*opts.Segments + s%opts.Segments)
	}
	for r := 0; r < opts.Rings-1; r++ {
		for s := 0; s < opts.Segments; s++ {
			a := idx(r, s)
			b := idx(r, s+1)
			c := idx(r+1, s+1)
			e := idx(r+1, s)
			m.Tris = append(m.Tris, [3]uint32{a, b, c}, [3]uint32{a, c, e})
		}
	}
	for s := 0; s < opts.Segments; s++ {
		m.Tris = append(m.Tris, [3]uint32{idx(opts.Rings-1, s), idx(opts.Rings-1, s+1), pole})
	}
	return m, pitches
}

// wrap casts a ray from the wrap center through every non-rim vertex
// and pulls the vertex onto the outermost source intersection plus the
// configured offset along the outward-corrected face normal.
func wrap(m *mesh.Mesh, plane fiducial.Plane, src *mesh.Mesh, rim []bool, opts BuildOptions, d *diag.Diagnostics) {
	if src == nil || len(src.Tris) == 0 {
		misses := 0
		for i := range m.Positions {
			if !rim[i] {
				misses++
			}
		}
		d.BuildRayMisses += misses
		d.Log.Warn().Msg("scalp: no source mesh, proxy keeps dome shape")
		return
	}

	center := wrapCenter(plane, src)
	missed := make([]bool, len(m.Positions))

	parallelFor(len(m.Positions), 64, func(start, end int) {
		for i := start; i < end; i++ {
			if rim[i] {
				continue
			}
			dir := m.Positions[i].Sub(center)
			if l := dir.Len(); l > 1e-12 {
				dir = dir.Mul(1 / l)
			} else {
				dir = plane.N
			}

			hits := src.RaycastAll(geom.Ray{Origin: center, Dir: dir})
			hit, ok := outermost(hits)
			if !ok {
				missed[i] = true
				continue
			}

			n := src.FaceNormal(hit.Tri)
			if n.Dot(hit.Point.Sub(center)) < 0 {
				n = n.Mul(-1)
			}
			m.Positions[i] = hit.Point.Add(n.Mul(opts.Offset))
		}
	})

	misses := 0
	for _, miss := range missed {
		if miss {
			misses++
		}
	}
	if misses > 0 {
		d.BuildRayMisses += misses
		d.Log.Warn().Int("count", misses).Msg("scalp: wrap rays missed the source mesh")
	}
}

// wrapCenter estimates the point the wrap rays fan out from: halfway
// between the source's bounding-sphere center and the plane origin,
// which stays inside the head even when the source extends well below
// the reference plane.
func wrapCenter(plane fiducial.Plane, src *mesh.Mesh) mgl64.Vec3 {
	s := src.BoundingSphere()
	return geom.Lerp(s.Center, plane.Origin, 0.5)
}

// outermost picks the hit furthest along the ray, the scalp-side
// intersection when a ray crosses interior geometry first.
func outermost(hits []mesh.Hit) (mesh.Hit, bool) {
	if len(hits) == 0 {
		return mesh.Hit{}, false
	}
	best := hits[0]
	for _, h := range hits[1:] {
		if h.T > best.T {
			best = h
		}
	}
	return best, true
}

// projectRim drops the rim vertices radially onto the base circle,
// giving the proxy a flat, clean boundary at exactly baseRadius.
func projectRim(m *mesh.Mesh, plane fiducial.Plane, rim []bool) {
	for i := range m.Positions {
		if !rim[i] {
			continue
		}
		planar := geom.TangentProject(m.Positions[i].Sub(plane.Origin), plane.N)
		if l := planar.Len(); l > 1e-12 {
			planar = planar.Mul(1 / l)
		} else {
			planar = plane.U
		}
		m.Positions[i] = plane.Origin.Add(planar.Mul(plane.BaseRadius))
	}
}

func orientNormalsOutward(m *mesh.Mesh, center mgl64.Vec3) {
	for i, n := range m.Normals {
		if n.Dot(m.Positions[i].Sub(center)) < 0 {
			m.Normals[i] = n.Mul(-1)
		}
	}
}
