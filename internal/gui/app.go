// Package gui is the raylib frontend: wireframe proxy surface, coil
// pose, fiducial markers and a session HUD in one 3D viewport.
package gui

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/coilsim/internal/audio"
	"github.com/san-kum/coilsim/internal/fiducial"
	"github.com/san-kum/coilsim/internal/geom"
	"github.com/san-kum/coilsim/internal/headmodel"
	"github.com/san-kum/coilsim/internal/input"
	"github.com/san-kum/coilsim/internal/protocol"
	"github.com/san-kum/coilsim/internal/session"
)

// Theme colors, monochrome with two accents.
var (
	ColBg      = rl.NewColor(10, 10, 10, 255)
	ColSurface = rl.NewColor(70, 90, 110, 255)
	ColAccent  = rl.NewColor(0, 200, 255, 255)
	ColSelect  = rl.NewColor(255, 255, 255, 255)
	ColText    = rl.NewColor(140, 140, 140, 255)
	ColTextDim = rl.NewColor(60, 60, 60, 255)
	ColPulse   = rl.NewColor(255, 204, 0, 255)
)

// renderScale maps meters to raylib units; the head reads as a ~5 unit
// sphere, comfortable for the default clip planes.
const renderScale = 50.0

// flashDecay controls the pulse flash falloff, ~120 ms to invisible.
const flashDecay = 25.0

type App struct {
	Eng   *session.Engine
	Fids  *fiducial.Set
	Audio *audio.Processor
	Font  rl.Font

	// Orbit camera around the head center.
	Camera   rl.Camera3D
	OrbitYaw float64
	OrbitPit float64
	OrbitDst float64
	camYaw   float64
	camPit   float64
	camDst   float64

	snapToken uint64
	flash     float64
	delivered int
	last      session.TickOutput
}

func initWindow() {
	rl.InitWindow(1280, 720, "coilsim")
	rl.SetTargetFPS(60)
	rl.SetExitKey(0)
}

func loadFont() rl.Font {
	font := rl.LoadFontEx("/usr/share/fonts/liberation/LiberationMono-Regular.ttf", 32, nil, 0)
	rl.SetTextureFilter(font.Texture, rl.FilterBilinear)
	return font
}

// NewApp builds the session, generates a head, and arms the protocol
// preset when one is named. sound toggles the pulse click output.
func NewApp(presetName string, seed int64, sound bool) (*App, error) {
	eng := session.New(session.DefaultOptions(), nil)
	src, fids := headmodel.Generate(seed)
	if err := eng.LoadHead(src, fids); err != nil {
		return nil, err
	}
	if presetName != "" {
		p := protocol.GetPreset(presetName)
		if p == nil {
			loaded, err := protocol.Load(presetName)
			if err != nil {
				return nil, err
			}
			p = loaded
		}
		if err := eng.StartProtocol(*p); err != nil {
			return nil, err
		}
	}

	app := &App{
		Eng:      eng,
		Fids:     fids,
		OrbitYaw: 0.6,
		OrbitPit: 0.5,
		OrbitDst: 14,
		camYaw:   0.6,
		camPit:   0.5,
		camDst:   14,
	}
	app.Camera = rl.NewCamera3D(
		rl.NewVector3(0, 4, 12),
		app.headCenter(),
		rl.NewVector3(0, 1, 0),
		45.0,
		rl.CameraPerspective,
	)

	if sound {
		proc := audio.NewProcessor()
		if proc.Start() == nil {
			app.Audio = proc
		}
	}
	return app, nil
}

// Run opens the window and blocks until it closes.
func Run(presetName string, seed int64, sound bool) error {
	initWindow()
	defer rl.CloseWindow()

	app, err := NewApp(presetName, seed, sound)
	if err != nil {
		return err
	}
	app.Font = loadFont()
	defer func() {
		if app.Audio != nil {
			app.Audio.Stop()
		}
	}()

	for !rl.WindowShouldClose() {
		if rl.IsKeyPressed(rl.KeyEscape) {
			break
		}
		app.Update()
		app.Draw()
	}
	return nil
}

func (a *App) headCenter() rl.Vector3 {
	origin := a.Eng.Tracker().Plane().Origin
	return toRl(origin.Add(a.Eng.Tracker().Plane().N.Mul(0.04)))
}

func toRl(v mgl64.Vec3) rl.Vector3 {
	return rl.NewVector3(
		float32(v.X()*renderScale),
		float32(v.Y()*renderScale),
		float32(v.Z()*renderScale),
	)
}

var keyActions = map[int32]input.Action{
	rl.KeyUp:    input.MoveUp,
	rl.KeyW:     input.MoveUp,
	rl.KeyDown:  input.MoveDown,
	rl.KeyS:     input.MoveDown,
	rl.KeyLeft:  input.MoveLeft,
	rl.KeyA:     input.MoveLeft,
	rl.KeyRight: input.MoveRight,
	rl.KeyD:     input.MoveRight,
	rl.KeyE:     input.TwistCW,
	rl.KeyQ:     input.TwistCCW,
	rl.KeyR:     input.TiltForward,
	rl.KeyF:     input.TiltBack,
}

func (a *App) Update() {
	dt := float64(rl.GetFrameTime())

	held := make(map[input.Action]bool, len(keyActions)+2)
	for key, action := range keyActions {
		if rl.IsKeyDown(key) {
			held[action] = true
		}
	}
	if rl.IsKeyDown(rl.KeyC) {
		held[input.Precision] = true
	}
	if rl.IsKeyDown(rl.KeyLeftShift) {
		held[input.Sprint] = true
	}

	frame := input.Frame{Held: held}

	if rl.IsKeyPressed(rl.KeyG) {
		a.snapToken++
		frame.Snap = &input.SnapRequest{Token: a.snapToken, Yaw: 0, Pitch: 0.9}
	}
	if rl.IsKeyPressed(rl.KeySpace) {
		a.Eng.SetPaused(!a.Eng.Paused())
	}
	if rl.IsKeyPressed(rl.KeyL) {
		c := a.Eng.Controller()
		c.SetLocked(!c.Locked())
	}

	// Left-drag places the coil under the pointer.
	if rl.IsMouseButtonDown(rl.MouseLeftButton) {
		ray := rl.GetMouseRay(rl.GetMousePosition(), a.Camera)
		frame.Drag = &geom.Ray{
			Origin: mgl64.Vec3{
				float64(ray.Position.X) / renderScale,
				float64(ray.Position.Y) / renderScale,
				float64(ray.Position.Z) / renderScale,
			},
			Dir: mgl64.Vec3{
				float64(ray.Direction.X),
				float64(ray.Direction.Y),
				float64(ray.Direction.Z),
			},
		}
	}

	out := a.Eng.Update(frame, dt)
	a.last = out
	a.delivered += out.Pulses
	if out.Pulses > 0 {
		a.flash = 1
		if a.Audio != nil {
			a.Audio.Pulse(out.Pulses)
		}
	}
	a.flash *= math.Exp(-flashDecay * dt)

	a.updateCamera(dt)
}

// Right-drag orbits, the wheel zooms, and the camera eases toward its
// target with the same damping the coil uses.
func (a *App) updateCamera(dt float64) {
	if rl.IsMouseButtonDown(rl.MouseRightButton) {
		delta := rl.GetMouseDelta()
		a.OrbitYaw += float64(delta.X) * 0.008
		a.OrbitPit = mgl64.Clamp(a.OrbitPit+float64(delta.Y)*0.008, -1.2, 1.45)
	}
	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		a.OrbitDst = mgl64.Clamp(a.OrbitDst-float64(wheel)*1.2, 6, 40)
	}

	f := geom.DampFactor(8, dt)
	a.camYaw += (a.OrbitYaw - a.camYaw) * f
	a.camPit += (a.OrbitPit - a.camPit) * f
	a.camDst += (a.OrbitDst - a.camDst) * f

	center := a.headCenter()
	a.Camera.Target = center
	a.Camera.Position = rl.NewVector3(
		center.X+float32(a.camDst*math.Cos(a.camPit)*math.Sin(a.camYaw)),
		center.Y+float32(a.camDst*math.Sin(a.camPit)),
		center.Z+float32(a.camDst*math.Cos(a.camPit)*math.Cos(a.camYaw)),
	)
}
