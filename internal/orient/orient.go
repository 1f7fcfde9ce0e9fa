package orient

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/coilsim/internal/fiducial"
	"github.com/san-kum/coilsim/internal/geom"
)

// HandleEpsilon is the shortest tangent projection still accepted as a
// handle direction; anything shorter switches to the fallback axis.
const HandleEpsilon = 1e-6

// Local axes of the coil model. A pose maps LocalUp onto the surface
// normal, so the contact face looks down the normal, and LocalHandle
// onto the resolved handle direction.
var (
	LocalSide   = mgl64.Vec3{1, 0, 0}
	LocalUp     = mgl64.Vec3{0, 1, 0}
	LocalHandle = mgl64.Vec3{0, 0, 1}
)

// Builder turns surface normals into stable pose quaternions. Posterior
// is the preferred handle reference ("the handle wants to point
// backward"); Lateral takes over at spots where Posterior is parallel
// to the normal and its tangent projection vanishes. Both come from the
// reference plane, so poses are reproducible across sessions.
type Builder struct {
	Posterior mgl64.Vec3
	Lateral   mgl64.Vec3
}

func NewBuilder(p fiducial.Plane) Builder {
	return Builder{
		Posterior: p.Posterior(),
		Lateral:   p.V.Mul(-1),
	}
}

// Pose builds the orientation at a contact: the contact axis aligned to
// the inverted normal, the handle toward the tangent-projected
// reference, then twist about the normal and tilt about the twisted
// side axis.
func (b Builder) Pose(normal mgl64.Vec3, twist, tilt float64) mgl64.Quat {
	h := b.handleDir(normal)
	side := normal.Cross(h)

	q := mgl64.Mat4ToQuat(mgl64.Mat4FromCols(
		side.Vec4(0),
		normal.Vec4(0),
		h.Vec4(0),
		mgl64.Vec4{0, 0, 0, 1},
	))

	if twist != 0 {
		q = mgl64.QuatRotate(twist, normal).Mul(q)
	}
	if tilt != 0 {
		axis := mgl64.QuatRotate(twist, normal).Rotate(side)
		q = mgl64.QuatRotate(tilt, axis).Mul(q)
	}
	return q.Normalize()
}

// handleDir resolves the handle direction for a normal, falling back
// from posterior to lateral to an arbitrary perpendicular. The last
// step only fires for callers that configure degenerate axes; with a
// plane-derived Builder the lateral axis always survives wherever the
// posterior one dies.
func (b Builder) handleDir(normal mgl64.Vec3) mgl64.Vec3 {
	h := geom.TangentProject(b.Posterior, normal)
	if h.Len() < HandleEpsilon {
		h = geom.TangentProject(b.Lateral, normal)
	}
	if h.Len() < HandleEpsilon {
		h = geom.Perpendicular(normal)
	}
	return h.Normalize()
}

// HandleDir returns the world handle direction of a pose.
func HandleDir(q mgl64.Quat) mgl64.Vec3 {
	return q.Rotate(LocalHandle)
}

// ContactDir returns the world direction the contact face looks along.
func ContactDir(q mgl64.Quat) mgl64.Vec3 {
	return q.Rotate(LocalUp.Mul(-1))
}
