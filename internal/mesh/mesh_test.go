package mesh

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/coilsim/internal/geom"
)

// octahedron returns a unit octahedron centered at the origin with
// consistently outward-wound faces.
func octahedron() *Mesh {
	return &Mesh{
		Positions: []mgl64.Vec3{
			{1, 0, 0}, {-1, 0, 0},
			{0, 1, 0}, {0, -1, 0},
			{0, 0, 1}, {0, 0, -1},
		},
		Tris: [][3]uint32{
			{0, 2, 4}, {2, 1, 4}, {1, 3, 4}, {3, 0, 4},
			{2, 0, 5}, {1, 2, 5}, {3, 1, 5}, {0, 3, 5},
		},
	}
}

// sheet returns a 2x2 square at the given x, facing +x.
func sheet(x float64) *Mesh {
	return &Mesh{
		Positions: []mgl64.Vec3{
			{x, -1, -1}, {x, 1, -1}, {x, 1, 1}, {x, -1, 1},
		},
		Tris: [][3]uint32{{0, 1, 2}, {0, 2, 3}},
	}
}

func TestBoundingSphere(t *testing.T) {
	m := octahedron()
	s := m.BoundingSphere()

	if s.Center.Len() > 0.2 {
		t.Errorf("center should be near origin, got %v", s.Center)
	}
	if s.Radius < 1 || s.Radius > 1.3 {
		t.Errorf("radius should be close to 1, got %v", s.Radius)
	}
	for _, p := range m.Positions {
		if p.Sub(s.Center).Len() > s.Radius+1e-9 {
			t.Errorf("vertex %v outside bounding sphere", p)
		}
	}
}

func TestBoundingSphere_Empty(t *testing.T) {
	var m Mesh
	s := m.BoundingSphere()
	if s.Radius != 0 {
		t.Errorf("empty mesh should give zero sphere, got radius %v", s.Radius)
	}
}

func TestCentroid(t *testing.T) {
	m := octahedron()
	c := m.Centroid()
	if c.Len() > 1e-12 {
		t.Errorf("octahedron centroid should be origin, got %v", c)
	}
}

func TestAdjacency(t *testing.T) {
	m := &Mesh{
		Positions: []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}},
		Tris:      [][3]uint32{{0, 1, 2}, {0, 2, 3}},
	}
	adj := m.Adjacency()

	if len(adj[0]) != 3 {
		t.Errorf("vertex 0 should have 3 neighbors, got %d (%v)", len(adj[0]), adj[0])
	}
	if len(adj[1]) != 2 {
		t.Errorf("vertex 1 should have 2 neighbors, got %d (%v)", len(adj[1]), adj[1])
	}
	if len(adj[2]) != 3 {
		t.Errorf("vertex 2 should have 3 neighbors, got %d (%v)", len(adj[2]), adj[2])
	}
}

func TestRecomputeNormals_Outward(t *testing.T) {
	m := octahedron()
	m.RecomputeNormals()

	if len(m.Normals) != len(m.Positions) {
		t.Fatalf("expected %d normals, got %d", len(m.Positions), len(m.Normals))
	}
	for i, n := range m.Normals {
		if math.Abs(n.Len()-1) > 1e-9 {
			t.Errorf("normal %d not unit length: %v", i, n.Len())
		}
		// On a centered octahedron the smooth vertex normal is radial.
		if !n.ApproxEqualThreshold(m.Positions[i], 1e-9) {
			t.Errorf("normal %d should be radial: got %v at %v", i, n, m.Positions[i])
		}
	}
}

func TestRaycastAll_ThroughCenter(t *testing.T) {
	m := octahedron()
	dir := mgl64.Vec3{0.2, 0.3, 0.8}.Normalize()
	r := geom.Ray{Origin: dir.Mul(3), Dir: dir.Mul(-1)}

	hits := m.RaycastAll(r)
	if len(hits) != 2 {
		t.Fatalf("expected entry and exit hits, got %d", len(hits))
	}

	first, ok := FirstHit(hits)
	if !ok {
		t.Fatal("FirstHit failed on non-empty hits")
	}
	// Entry hit is on the same side as the origin.
	if first.Point.Dot(dir) < 0 {
		t.Errorf("first hit on wrong side: %v", first.Point)
	}
	// Octahedron surface satisfies |x|+|y|+|z| = 1.
	for _, h := range hits {
		sum := math.Abs(h.Point.X()) + math.Abs(h.Point.Y()) + math.Abs(h.Point.Z())
		if math.Abs(sum-1) > 1e-9 {
			t.Errorf("hit %v not on octahedron surface (L1=%v)", h.Point, sum)
		}
	}
}

func TestNearestHitTo_PrefersReferenceSide(t *testing.T) {
	m := sheet(1)
	far := sheet(-1)
	m.Positions = append(m.Positions, far.Positions...)
	for _, tri := range far.Tris {
		m.Tris = append(m.Tris, [3]uint32{tri[0] + 4, tri[1] + 4, tri[2] + 4})
	}

	r := geom.Ray{Origin: mgl64.Vec3{5, 0.2, 0.1}, Dir: mgl64.Vec3{-1, 0, 0}}
	hits := m.RaycastAll(r)
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}

	ref := mgl64.Vec3{-1, 0, 0}
	h, ok := NearestHitTo(hits, ref)
	if !ok {
		t.Fatal("selection failed")
	}
	if h.Point.X() > 0 {
		t.Errorf("should have selected the sheet near the reference, got %v", h.Point)
	}

	// Without the reference rule the entry hit wins instead.
	f, _ := FirstHit(hits)
	if f.Point.X() < 0 {
		t.Errorf("entry hit should be the near sheet, got %v", f.Point)
	}
}

func TestNearestHitTo_Empty(t *testing.T) {
	if _, ok := NearestHitTo(nil, mgl64.Vec3{}); ok {
		t.Error("expected failure on empty hits")
	}
	if _, ok := FirstHit(nil); ok {
		t.Error("expected failure on empty hits")
	}
}

func TestNormalAt_Interpolates(t *testing.T) {
	m := octahedron()
	m.RecomputeNormals()

	dir := mgl64.Vec3{0.2, 0.3, 0.8}.Normalize()
	r := geom.Ray{Origin: dir.Mul(3), Dir: dir.Mul(-1)}
	hits := m.RaycastAll(r)
	h, ok := FirstHit(hits)
	if !ok {
		t.Fatal("expected a hit")
	}

	n := m.NormalAt(h)
	if math.Abs(n.Len()-1) > 1e-9 {
		t.Errorf("interpolated normal not unit: %v", n.Len())
	}
	// Radial vertex normals interpolate to something close to radial.
	if n.Dot(h.Point.Normalize()) < 0.8 {
		t.Errorf("interpolated normal points badly off radial: %v at %v", n, h.Point)
	}
}

func TestSmoothLaplacian_PullsTowardNeighbors(t *testing.T) {
	grid := func() *Mesh {
		return &Mesh{
			Positions: []mgl64.Vec3{
				{-1, 0, -1}, {0, 0, -1}, {1, 0, -1},
				{-1, 0, 0}, {0, 1, 0}, {1, 0, 0},
				{-1, 0, 1}, {0, 0, 1}, {1, 0, 1},
			},
			Tris: [][3]uint32{
				{0, 1, 3}, {1, 4, 3}, {1, 2, 4}, {2, 5, 4},
				{3, 4, 6}, {4, 7, 6}, {4, 5, 7}, {5, 8, 7},
			},
		}
	}

	m := grid()
	m.SmoothLaplacian(1, 0.5, nil)
	// Center vertex has 6 flat neighbors; one pass at lambda 0.5 halves
	// its height exactly.
	if got := m.Positions[4].Y(); math.Abs(got-0.5) > 1e-12 {
		t.Errorf("center height after one pass = %v, want 0.5", got)
	}

	m = grid()
	pinned := make([]bool, 9)
	pinned[4] = true
	m.SmoothLaplacian(3, 0.5, pinned)
	if got := m.Positions[4].Y(); got != 1.0 {
		t.Errorf("pinned vertex moved: %v", got)
	}
}

func TestSmoothLaplacian_NoIterationsNoChange(t *testing.T) {
	m := octahedron()
	before := make([]mgl64.Vec3, len(m.Positions))
	copy(before, m.Positions)

	m.SmoothLaplacian(0, 0.5, nil)
	for i := range before {
		if m.Positions[i] != before[i] {
			t.Fatalf("vertex %d moved with zero iterations", i)
		}
	}
}
