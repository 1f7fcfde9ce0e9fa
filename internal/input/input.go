// Package input defines the logical control surface of a session: held
// actions, an optional pointer-drag ray, and snap requests. Frontends
// translate their own keys, mice and cameras into these head-relative
// actions, which keeps movement semantics identical across the TUI,
// the GUI and scripted runs.
package input

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/coilsim/internal/geom"
)

// Action is one logical control. Move actions are head-relative: toward
// the vertex, toward the rim, and around the head in either direction.
type Action int

const (
	MoveUp Action = iota
	MoveDown
	MoveLeft
	MoveRight
	TwistCW
	TwistCCW
	TiltForward
	TiltBack
	Precision
	Sprint

	numActions
)

var actionNames = map[string]Action{
	"up":           MoveUp,
	"down":         MoveDown,
	"left":         MoveLeft,
	"right":        MoveRight,
	"twist_cw":     TwistCW,
	"twist_ccw":    TwistCCW,
	"tilt_forward": TiltForward,
	"tilt_back":    TiltBack,
	"precision":    Precision,
	"sprint":       Sprint,
}

// ParseAction maps a scenario action name to its Action.
func ParseAction(name string) (Action, bool) {
	a, ok := actionNames[name]
	return a, ok
}

// Rate modifiers applied when the corresponding action is held.
const (
	PrecisionScale = 0.25
	SprintScale    = 2.5
)

// SnapRequest asks for an instantaneous jump to a target. Token values
// are strictly increasing per frontend; the session acts on each value
// at most once, so a request held across frames fires a single snap.
// World takes precedence over the angle pair when set.
type SnapRequest struct {
	Token uint64
	Yaw   float64
	Pitch float64
	World *mgl64.Vec3
}

// Frame is one tick of input. Held reports the actions currently down;
// missing keys read as released. Drag, when set, requests direct ray
// placement for this tick.
type Frame struct {
	Held map[Action]bool
	Drag *geom.Ray
	Snap *SnapRequest
}

func (f Frame) IsDown(a Action) bool {
	return f.Held[a]
}

// Axes folds the held move/rotate actions into signed axis deltas in
// [-1, 1] each, pre-scaled by the precision and sprint modifiers.
// Yaw is positive toward MoveRight, pitch positive toward MoveUp.
func (f Frame) Axes() (yaw, pitch, twist, tilt float64) {
	if f.IsDown(MoveRight) {
		yaw += 1
	}
	if f.IsDown(MoveLeft) {
		yaw -= 1
	}
	if f.IsDown(MoveUp) {
		pitch += 1
	}
	if f.IsDown(MoveDown) {
		pitch -= 1
	}
	if f.IsDown(TwistCW) {
		twist += 1
	}
	if f.IsDown(TwistCCW) {
		twist -= 1
	}
	if f.IsDown(TiltForward) {
		tilt += 1
	}
	if f.IsDown(TiltBack) {
		tilt -= 1
	}

	scale := 1.0
	if f.IsDown(Precision) {
		scale *= PrecisionScale
	}
	if f.IsDown(Sprint) {
		scale *= SprintScale
	}
	return yaw * scale, pitch * scale, twist * scale, tilt * scale
}
