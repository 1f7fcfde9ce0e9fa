// Package session wires the geometry stack and the pulse scheduler
// into one tick-driven engine. A session owns the proxy surface, the
// ghost controller and the scheduler; frontends feed it input frames
// and consume the per-tick output. Everything is single-threaded: one
// Update per render frame.
package session

import (
	"errors"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/coilsim/internal/diag"
	"github.com/san-kum/coilsim/internal/fiducial"
	"github.com/san-kum/coilsim/internal/ghost"
	"github.com/san-kum/coilsim/internal/input"
	"github.com/san-kum/coilsim/internal/mesh"
	"github.com/san-kum/coilsim/internal/protocol"
	"github.com/san-kum/coilsim/internal/scalp"
	"github.com/san-kum/coilsim/internal/scheduler"
	"github.com/san-kum/coilsim/internal/tracker"
)

var (
	// ErrNoSourceMesh indicates a head load without usable geometry.
	ErrNoSourceMesh = errors.New("session: source mesh is empty")

	// ErrNoHead indicates a protocol start before any head was loaded.
	ErrNoHead = errors.New("session: no head loaded")
)

type Options struct {
	Ghost ghost.Options
	Build scalp.BuildOptions

	// MaxDt clamps incoming tick deltas so a hitch cannot trigger a
	// pathological catch-up in movement or scheduling.
	MaxDt float64

	// Initial ghost placement after a head load.
	InitialYaw   float64
	InitialPitch float64
}

func DefaultOptions() Options {
	return Options{
		Ghost:        ghost.DefaultOptions(),
		Build:        scalp.DefaultBuildOptions(),
		MaxDt:        0.1,
		InitialYaw:   0,
		InitialPitch: 0.9,
	}
}

// TickOutput is the engine's per-tick contract with renderers and
// recorders.
type TickOutput struct {
	Position    mgl64.Vec3
	Normal      mgl64.Vec3
	Orientation mgl64.Quat

	Pulses              int
	InInterTrain        bool
	InterTrainProgress  float64
	InterTrainRemaining float64

	Committed bool
	Done      bool
}

// Observer receives every tick output after it is assembled.
type Observer interface {
	OnTick(out TickOutput, t float64)
}

type Engine struct {
	opts Options
	d    *diag.Diagnostics

	tracker *tracker.Tracker
	ctrl    *ghost.Controller

	proto  protocol.Protocol
	sched  scheduler.Scheduler
	paused bool

	lastSnapToken uint64
	time          float64
	observers     []Observer
}

func New(opts Options, d *diag.Diagnostics) *Engine {
	if d == nil {
		d = diag.Nop()
	}
	return &Engine{
		opts: opts,
		d:    d,
		ctrl: ghost.NewController(opts.Ghost),
	}
}

func (e *Engine) AddObserver(o Observer) { e.observers = append(e.observers, o) }

func (e *Engine) Tracker() *tracker.Tracker { return e.tracker }

func (e *Engine) Controller() *ghost.Controller { return e.ctrl }

func (e *Engine) Protocol() protocol.Protocol { return e.proto }

func (e *Engine) Scheduler() scheduler.Scheduler { return e.sched }

func (e *Engine) Time() float64 { return e.time }

func (e *Engine) Diagnostics() *diag.Diagnostics { return e.d }

func (e *Engine) Paused() bool { return e.paused }

func (e *Engine) SetPaused(pause bool) { e.paused = pause }

// LoadHead replaces the session's surface: plane estimation, a full
// proxy build, then one atomic tracker swap. Queries in the same tick
// see either the old surface or the new one, never a half-built mesh.
// The ghost is re-placed at the configured initial pose.
func (e *Engine) LoadHead(src *mesh.Mesh, fids *fiducial.Set) error {
	if src == nil || len(src.Tris) == 0 {
		return ErrNoSourceMesh
	}

	plane := fiducial.EstimatePlane(fids, src, e.d)
	proxy := scalp.Build(plane, src, e.opts.Build, e.d)
	next := tracker.New(proxy, plane)

	e.tracker = next
	e.ctrl.Reset()
	if !e.ctrl.SnapCoords(e.opts.InitialYaw, e.opts.InitialPitch, next) {
		// A proxy the initial pose cannot land on still leaves a
		// usable session; the first committed move places the ghost.
		e.d.SnapRejects++
		e.d.Log.Warn().Msg("session: initial placement missed the proxy surface")
	}
	return nil
}

// StartProtocol validates the protocol and arms the scheduler. No
// session state changes when validation fails.
func (e *Engine) StartProtocol(p protocol.Protocol) error {
	if e.tracker == nil {
		return ErrNoHead
	}
	s, err := scheduler.New(p)
	if err != nil {
		return err
	}
	e.proto = p
	e.sched = s
	e.paused = false
	return nil
}

// StopProtocol disarms the scheduler without touching placement.
func (e *Engine) StopProtocol() {
	e.sched = nil
	e.paused = false
}

// Update advances the session by one tick: snap-token gating, pointer
// drag, ghost movement, then pulse scheduling.
func (e *Engine) Update(frame input.Frame, dt float64) TickOutput {
	if dt > e.opts.MaxDt {
		dt = e.opts.MaxDt
		e.d.DtClamps++
	}
	if dt < 0 {
		dt = 0
	}

	var out TickOutput
	if e.tracker != nil {
		e.consumeSnap(frame.Snap)

		if frame.Drag != nil {
			if !e.ctrl.PlaceByRay(*frame.Drag, e.tracker) {
				e.d.MoveRayMisses++
			}
		}

		res := e.ctrl.Update(frame, dt, e.tracker)
		if res.RayMiss {
			e.d.MoveRayMisses++
			e.d.RejectedCommits++
		}
		out.Committed = res.Committed

		sm := e.ctrl.Smoothed()
		out.Position = sm.Position
		out.Normal = sm.Normal
		out.Orientation = sm.Orientation
	}

	if e.sched != nil && !e.paused {
		out.Pulses = e.sched.Tick(dt)
		out.InInterTrain = e.sched.InInterTrain()
		out.InterTrainProgress = e.sched.InterTrainProgress()
		out.InterTrainRemaining = e.sched.InterTrainRemaining()
		out.Done = e.sched.Done()
	}

	e.time += dt
	for _, o := range e.observers {
		o.OnTick(out, e.time)
	}
	return out
}

// consumeSnap acts on a snap request at most once per token value.
func (e *Engine) consumeSnap(req *input.SnapRequest) {
	if req == nil || req.Token <= e.lastSnapToken {
		return
	}
	e.lastSnapToken = req.Token

	var ok bool
	if req.World != nil {
		ok = e.ctrl.Snap(*req.World, e.tracker)
	} else {
		ok = e.ctrl.SnapCoords(req.Yaw, req.Pitch, e.tracker)
	}
	if !ok {
		e.d.SnapRejects++
		e.d.Log.Debug().Uint64("token", req.Token).Msg("session: snap rejected")
	}
}
