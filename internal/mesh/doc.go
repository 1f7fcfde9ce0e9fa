// Package mesh provides the triangle-mesh container used by the surface
// pipeline, with the operations the pipeline needs: bounding volumes,
// vertex adjacency, Laplacian smoothing, normal recomputation, and
// exhaustive raycasting with continuity-aware hit selection.
//
// Meshes here are small (hundreds to a few thousand triangles), so
// raycasts test every triangle rather than maintaining a spatial index.
package mesh
