// Package geom provides the low-level geometric primitives shared by the
// surface pipeline: rays, ray-triangle intersection, angle wrapping, and
// frame-rate-independent damping factors.
//
// Conventions:
//
//   - Ray directions are unit vectors; intersection parameters are world
//     distances along the ray.
//   - Angles are radians. Yaw is wrapped to [0, 2*pi).
//   - All vectors are mgl64.Vec3 in world space.
package geom
