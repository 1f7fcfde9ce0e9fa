package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// WrapTwoPi maps an angle to [0, 2*pi).
func WrapTwoPi(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	if a >= 2*math.Pi {
		a = 0
	}
	return a
}

// DampFactor returns the exponential interpolation weight 1-exp(-k*dt).
// Advancing a follower by this fraction each tick converges on the target
// at a rate independent of tick size and never overshoots.
func DampFactor(k, dt float64) float64 {
	if k <= 0 || dt <= 0 {
		return 0
	}
	return 1 - math.Exp(-k*dt)
}

// Lerp interpolates between two points. t outside [0,1] extrapolates.
func Lerp(a, b mgl64.Vec3, t float64) mgl64.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}

// TangentProject removes from v its component along the unit normal n,
// leaving the projection of v onto the tangent plane of n.
func TangentProject(v, n mgl64.Vec3) mgl64.Vec3 {
	return v.Sub(n.Mul(v.Dot(n)))
}

// Perpendicular returns a unit vector orthogonal to n, preferring the
// cross with world up and falling back to world forward when n is
// nearly vertical.
func Perpendicular(n mgl64.Vec3) mgl64.Vec3 {
	p := n.Cross(mgl64.Vec3{0, 1, 0})
	if p.Len() < 1e-9 {
		p = n.Cross(mgl64.Vec3{0, 0, 1})
	}
	return p.Normalize()
}
