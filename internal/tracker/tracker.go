package tracker

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/coilsim/internal/fiducial"
	"github.com/san-kum/coilsim/internal/geom"
	"github.com/san-kum/coilsim/internal/mesh"
)

// Sample is a successful surface query: a point on the proxy surface
// and the smooth normal there, corrected to point away from the head
// center.
type Sample struct {
	Point  mgl64.Vec3
	Normal mgl64.Vec3
}

// Reference carries the caller's previous surface point into a query.
// When valid and a ray crosses the surface more than once, the tracker
// selects the intersection closest to it, keeping grazing rays from
// teleporting the tracked point across the head.
type Reference struct {
	Point mgl64.Vec3
	Valid bool
}

// Tracker answers point and ray queries against one immutable proxy
// surface. Queries are synchronous and side-effect-free: a session
// swaps in a whole new Tracker when the head changes.
type Tracker struct {
	proxy  *mesh.Mesh
	plane  fiducial.Plane
	center mgl64.Vec3
	reach  float64
}

func New(proxy *mesh.Mesh, plane fiducial.Plane) *Tracker {
	t := &Tracker{
		proxy:  proxy,
		plane:  plane,
		center: plane.Origin,
	}
	maxDist := plane.BaseRadius
	for _, p := range proxy.Positions {
		if d := p.Sub(t.center).Len(); d > maxDist {
			maxDist = d
		}
	}
	t.reach = maxDist * 2
	return t
}

func (t *Tracker) Plane() fiducial.Plane { return t.plane }

func (t *Tracker) Center() mgl64.Vec3 { return t.center }

func (t *Tracker) Surface() *mesh.Mesh { return t.proxy }

// Angles converts a world point to its head-relative spherical
// coordinates, the inverse of ProjectSpherical's direction encoding.
func (t *Tracker) Angles(world mgl64.Vec3) (yaw, pitch float64) {
	return t.plane.Angles(world)
}

// ClosestSurfacePoint finds the surface point radially aligned with an
// approximate position, by casting from the head center through it.
func (t *Tracker) ClosestSurfacePoint(approx mgl64.Vec3, ref Reference) (Sample, bool) {
	dir := approx.Sub(t.center)
	l := dir.Len()
	if l < 1e-12 {
		return Sample{}, false
	}
	dir = dir.Mul(1 / l)

	hits := t.proxy.RaycastAll(geom.Ray{Origin: t.center, Dir: dir})
	return t.pick(hits, ref, func(hs []mesh.Hit) (mesh.Hit, bool) {
		return mesh.NearestHitTo(hs, approx)
	})
}

// RaycastScreenRay intersects an arbitrary world ray with the surface,
// used for direct pointer-drag placement.
func (t *Tracker) RaycastScreenRay(r geom.Ray, ref Reference) (Sample, bool) {
	hits := t.proxy.RaycastAll(r)
	return t.pick(hits, ref, mesh.FirstHit)
}

// ProjectSpherical finds the surface point in the direction encoded by
// head-relative (yaw, pitch): a ray from outside the dome back toward
// the head center along that direction.
func (t *Tracker) ProjectSpherical(yaw, pitch float64, ref Reference) (Sample, bool) {
	dir := t.plane.Dir(yaw, pitch)
	origin := t.center.Add(dir.Mul(t.reach))

	hits := t.proxy.RaycastAll(geom.Ray{Origin: origin, Dir: dir.Mul(-1)})
	return t.pick(hits, ref, mesh.FirstHit)
}

func (t *Tracker) pick(hits []mesh.Hit, ref Reference, fallback func([]mesh.Hit) (mesh.Hit, bool)) (Sample, bool) {
	var h mesh.Hit
	var ok bool
	if ref.Valid && len(hits) > 1 {
		h, ok = mesh.NearestHitTo(hits, ref.Point)
	} else {
		h, ok = fallback(hits)
	}
	if !ok {
		return Sample{}, false
	}
	return t.sample(h), true
}

func (t *Tracker) sample(h mesh.Hit) Sample {
	n := t.proxy.NormalAt(h)
	if n.Dot(h.Point.Sub(t.center)) < 0 {
		n = n.Mul(-1)
	}
	return Sample{Point: h.Point, Normal: n}
}
