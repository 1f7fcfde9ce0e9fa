// Package headmodel generates a deterministic, deliberately coarse
// scalp mesh and its landmark set. The rest of the system treats head
// meshes as externally owned input; this package is the stand-in
// provider used by the CLI, the viewers and the tests. The coarseness
// is the point: it exercises the proxy-surface smoothing the same way
// a low-resolution scan would.
package headmodel

import (
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/coilsim/internal/fiducial"
	"github.com/san-kum/coilsim/internal/mesh"
)

// Ellipsoid semi-axes in meters: X anterior-posterior, Y up, Z
// left-right. Head-sized on purpose; downstream thresholds assume
// metric world units.
const (
	SemiAP     = 0.095
	SemiUp     = 0.080
	SemiLR     = 0.075
	BumpAmp    = 0.004 // per-vertex radial noise, +-4 mm
	baseFactor = 0.55  // fraction of SemiUp the base is flattened at
)

// Mesh resolution. Low by design.
const (
	stacks = 13
	slices = 18
)

// Generate builds the scalp mesh and fiducials for a seed. The same
// seed always yields the same head.
func Generate(seed int64) (*mesh.Mesh, *fiducial.Set) {
	rng := rand.New(rand.NewSource(seed))

	m := &mesh.Mesh{}

	// Lat-long ellipsoid with shared pole vertices, bumped radially.
	top := uint32(0)
	m.Positions = append(m.Positions, bump(mgl64.Vec3{0, SemiUp, 0}, rng))
	for i := 1; i < stacks; i++ {
		theta := math.Pi * float64(i) / float64(stacks)
		for j := 0; j < slices; j++ {
			phi := 2 * math.Pi * float64(j) / float64(slices)
			p := mgl64.Vec3{
				SemiAP * math.Sin(theta) * math.Cos(phi),
				SemiUp * math.Cos(theta),
				SemiLR * math.Sin(theta) * math.Sin(phi),
			}
			m.Positions = append(m.Positions, bump(p, rng))
		}
	}
	bottom := uint32(len(m.Positions))
	m.Positions = append(m.Positions, mgl64.Vec3{0, -SemiUp, 0})

	// Flatten everything below the neck line into a base plane.
	floor := -SemiUp * baseFactor
	for i, p := range m.Positions {
		if p.Y() < floor {
			m.Positions[i] = mgl64.Vec3{p.X(), floor, p.Z()}
		}
	}

	ring := func(i, j int) uint32 {
		return 1 + uint32((i-1)*slices+j%slices)
	}
	for j := 0; j < slices; j++ {
		m.Tris = append(m.Tris, [3]uint32{top, ring(1, j+1), ring(1, j)})
	}
	for i := 1; i < stacks-1; i++ {
		for j := 0; j < slices; j++ {
			a := ring(i, j)
			b := ring(i, j+1)
			c := ring(i+1, j+1)
			d := ring(i+1, j)
			m.Tris = append(m.Tris, [3]uint32{a, b, c}, [3]uint32{a, c, d})
		}
	}
	for j := 0; j < slices; j++ {
		m.Tris = append(m.Tris, [3]uint32{ring(stacks-1, j), ring(stacks-1, j+1), bottom})
	}
	m.RecomputeNormals()

	fids := &fiducial.Set{
		Nasion: mgl64.Vec3{SemiAP * 0.97, 0.01, 0},
		Inion:  mgl64.Vec3{-SemiAP * 0.97, 0.015, 0},
		LPA:    mgl64.Vec3{0, 0, -SemiLR * 0.97},
		RPA:    mgl64.Vec3{0, 0, SemiLR * 0.97},
	}
	return m, fids
}

func bump(p mgl64.Vec3, rng *rand.Rand) mgl64.Vec3 {
	l := p.Len()
	if l < 1e-12 {
		return p
	}
	r := l + (rng.Float64()*2-1)*BumpAmp
	return p.Mul(r / l)
}
