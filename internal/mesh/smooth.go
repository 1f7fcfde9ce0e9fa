package mesh

import "github.com/go-gl/mathgl/mgl64"

// SmoothLaplacian applies uniform Laplacian smoothing over the vertex
// adjacency graph: v <- v + lambda*(neighborCentroid - v). Vertices
// flagged in pinned keep their positions; pass nil to smooth everything.
func (m *Mesh) SmoothLaplacian(iterations int, lambda float64, pinned []bool) {
	if iterations <= 0 || lambda == 0 || len(m.Positions) == 0 {
		return
	}
	adj := m.Adjacency()

	cur := m.Positions
	next := make([]mgl64.Vec3, len(cur))
	for it := 0; it < iterations; it++ {
		for i := range cur {
			if (pinned != nil && pinned[i]) || len(adj[i]) == 0 {
				next[i] = cur[i]
				continue
			}
			sum := mgl64.Vec3{}
			for _, n := range adj[i] {
				sum = sum.Add(cur[n])
			}
			centroid := sum.Mul(1 / float64(len(adj[i])))
			next[i] = cur[i].Add(centroid.Sub(cur[i]).Mul(lambda))
		}
		cur, next = next, cur
	}
	m.Positions = cur
}
