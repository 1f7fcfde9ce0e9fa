// Package ghost owns the authoritative placement intent of the coil as
// head-relative spherical coordinates, decoupled from what gets drawn.
// Every movement tick proposes candidate coordinates, projects them
// through the tracker, and commits them only when the projection hits
// the surface. A smoothed follower of the committed pose is the only
// thing renderers ever see, so a rejected tick shows up as the coil
// simply not moving, never as a glitch.
package ghost

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/coilsim/internal/fiducial"
	"github.com/san-kum/coilsim/internal/geom"
	"github.com/san-kum/coilsim/internal/input"
	"github.com/san-kum/coilsim/internal/orient"
	"github.com/san-kum/coilsim/internal/tracker"
)

// Coords is the ghost state: placement intent in head-relative
// spherical coordinates plus the two orientation sub-axes. Yaw and
// twist are wrapped to [0, 2*pi); pitch and tilt are clamped.
type Coords struct {
	Yaw   float64
	Pitch float64
	Twist float64
	Tilt  float64
}

// Transform is a committed pose on the surface. Valid is false until
// the first successful projection.
type Transform struct {
	Position    mgl64.Vec3
	Normal      mgl64.Vec3
	Orientation mgl64.Quat
	Valid       bool
}

// Outcome reports what one movement tick did.
type Outcome struct {
	Committed bool
	RayMiss   bool
}

type Options struct {
	YawRate   float64 // rad/s at unit axis input
	PitchRate float64
	TwistRate float64
	TiltRate  float64

	MinPitch float64 // rad, keeps the ghost off the rim
	MaxPitch float64 // rad, keeps the ghost short of the pole singularity
	MaxTilt  float64 // rad, symmetric about zero

	PosDamping float64 // smoothing rate for position
	RotDamping float64 // smoothing rate for orientation
}

func DefaultOptions() Options {
	return Options{
		YawRate:    1.2,
		PitchRate:  1.0,
		TwistRate:  1.5,
		TiltRate:   0.8,
		MinPitch:   0.05,
		MaxPitch:   1.45,
		MaxTilt:    30 * math.Pi / 180,
		PosDamping: 14,
		RotDamping: 18,
	}
}

// Controller drives the ghost state. Single-threaded: one Update per
// frame, snaps and drags between updates belong to the same tick.
type Controller struct {
	opts     Options
	coords   Coords
	target   Transform
	smoothed Transform
	locked   bool
}

func NewController(opts Options) *Controller {
	return &Controller{
		opts: opts,
		smoothed: Transform{
			Orientation: mgl64.QuatIdent(),
		},
		target: Transform{
			Orientation: mgl64.QuatIdent(),
		},
	}
}

func (c *Controller) Coords() Coords      { return c.coords }
func (c *Controller) Target() Transform   { return c.target }
func (c *Controller) Smoothed() Transform { return c.smoothed }

func (c *Controller) Locked() bool        { return c.locked }
func (c *Controller) SetLocked(lock bool) { c.locked = lock }

func (c *Controller) clampPitch(p float64) float64 {
	return mgl64.Clamp(p, c.opts.MinPitch, c.opts.MaxPitch)
}

// Update runs one movement tick: orientation sub-axes accumulate
// unconditionally, yaw/pitch move only if their spherical projection
// hits the surface, and the smoothed transform chases the target.
func (c *Controller) Update(frame input.Frame, dt float64, tr *tracker.Tracker) Outcome {
	var out Outcome
	if c.locked || tr == nil {
		c.smooth(dt)
		return out
	}

	yawAxis, pitchAxis, twistAxis, tiltAxis := frame.Axes()

	// Twist and tilt depend on no geometric query; they commit always.
	dirty := false
	if twistAxis != 0 {
		c.coords.Twist = geom.WrapTwoPi(c.coords.Twist + twistAxis*c.opts.TwistRate*dt)
		dirty = true
	}
	if tiltAxis != 0 {
		c.coords.Tilt = mgl64.Clamp(c.coords.Tilt+tiltAxis*c.opts.TiltRate*dt, -c.opts.MaxTilt, c.opts.MaxTilt)
		dirty = true
	}

	if yawAxis != 0 || pitchAxis != 0 || !c.target.Valid {
		yaw := geom.WrapTwoPi(c.coords.Yaw + yawAxis*c.opts.YawRate*dt)
		pitch := c.clampPitch(c.coords.Pitch + pitchAxis*c.opts.PitchRate*dt)

		s, ok := tr.ProjectSpherical(yaw, pitch, c.reference())
		if ok {
			c.coords.Yaw = yaw
			c.coords.Pitch = pitch
			c.setTarget(s, tr.Plane())
			out.Committed = true
			dirty = false
		} else {
			out.RayMiss = true
		}
	}

	if dirty && c.target.Valid {
		c.target.Orientation = c.pose(c.target.Normal, tr.Plane())
	}

	c.smooth(dt)
	return out
}

// Snap jumps the ghost to the surface point nearest a world position.
// On success the smoothed transform is set equal to the target, so the
// coil appears there immediately with no damped travel.
func (c *Controller) Snap(world mgl64.Vec3, tr *tracker.Tracker) bool {
	yaw, pitch := tr.Angles(world)
	return c.snapAngles(yaw, pitch, tracker.Reference{Point: world, Valid: true}, tr)
}

// SnapCoords jumps to explicit spherical coordinates.
func (c *Controller) SnapCoords(yaw, pitch float64, tr *tracker.Tracker) bool {
	return c.snapAngles(yaw, pitch, tracker.Reference{}, tr)
}

func (c *Controller) snapAngles(yaw, pitch float64, ref tracker.Reference, tr *tracker.Tracker) bool {
	yaw = geom.WrapTwoPi(yaw)
	pitch = c.clampPitch(pitch)

	s, ok := tr.ProjectSpherical(yaw, pitch, ref)
	if !ok {
		return false
	}
	c.coords.Yaw = yaw
	c.coords.Pitch = pitch
	c.setTarget(s, tr.Plane())
	c.smoothed = c.target
	return true
}

// PlaceByRay drags the ghost to where a pointer ray hits the surface.
// Unlike Snap the smoothed transform keeps chasing, so a drag glides.
func (c *Controller) PlaceByRay(r geom.Ray, tr *tracker.Tracker) bool {
	s, ok := tr.RaycastScreenRay(r, c.reference())
	if !ok {
		return false
	}
	yaw, pitch := tr.Angles(s.Point)
	c.coords.Yaw = geom.WrapTwoPi(yaw)
	c.coords.Pitch = c.clampPitch(pitch)
	c.setTarget(s, tr.Plane())
	return true
}

func (c *Controller) reference() tracker.Reference {
	if !c.target.Valid {
		return tracker.Reference{}
	}
	return tracker.Reference{Point: c.target.Position, Valid: true}
}

func (c *Controller) setTarget(s tracker.Sample, plane fiducial.Plane) {
	c.target = Transform{
		Position:    s.Point,
		Normal:      s.Normal,
		Orientation: c.pose(s.Normal, plane),
		Valid:       true,
	}
	if !c.smoothed.Valid {
		c.smoothed = c.target
	}
}

func (c *Controller) pose(normal mgl64.Vec3, plane fiducial.Plane) mgl64.Quat {
	return orient.NewBuilder(plane).Pose(normal, c.coords.Twist, c.coords.Tilt)
}

func (c *Controller) smooth(dt float64) {
	if !c.target.Valid || !c.smoothed.Valid {
		return
	}
	f := geom.DampFactor(c.opts.PosDamping, dt)
	c.smoothed.Position = geom.Lerp(c.smoothed.Position, c.target.Position, f)
	c.smoothed.Normal = geom.Lerp(c.smoothed.Normal, c.target.Normal, f)
	if l := c.smoothed.Normal.Len(); l > 1e-12 {
		c.smoothed.Normal = c.smoothed.Normal.Mul(1 / l)
	}
	c.smoothed.Orientation = mgl64.QuatSlerp(
		c.smoothed.Orientation,
		c.target.Orientation,
		geom.DampFactor(c.opts.RotDamping, dt),
	).Normalize()
}

// Reset clears the ghost back to its unplaced state.
func (c *Controller) Reset() {
	coords := Coords{}
	c.coords = coords
	c.target = Transform{Orientation: mgl64.QuatIdent()}
	c.smoothed = Transform{Orientation: mgl64.QuatIdent()}
	c.locked = false
}
