package gui

import (
	"fmt"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/coilsim/internal/orient"
)

func (a *App) Draw() {
	rl.BeginDrawing()
	rl.ClearBackground(ColBg)

	rl.BeginMode3D(a.Camera)
	a.drawSurface()
	a.drawFiducials()
	a.drawCoil()
	rl.EndMode3D()

	a.drawHUD()

	// Pulse flash as a brief screen-edge tint.
	if a.flash > 0.02 {
		alpha := uint8(a.flash * 90)
		rl.DrawRectangleLinesEx(
			rl.NewRectangle(0, 0, 1280, 720), 8,
			rl.NewColor(ColPulse.R, ColPulse.G, ColPulse.B, alpha))
	}

	rl.EndDrawing()
}

func (a *App) drawSurface() {
	proxy := a.Eng.Tracker().Surface()
	for _, tri := range proxy.Tris {
		p0 := toRl(proxy.Positions[tri[0]])
		p1 := toRl(proxy.Positions[tri[1]])
		p2 := toRl(proxy.Positions[tri[2]])
		rl.DrawLine3D(p0, p1, ColSurface)
		rl.DrawLine3D(p1, p2, ColSurface)
		rl.DrawLine3D(p2, p0, ColSurface)
	}
}

func (a *App) drawFiducials() {
	marks := []struct {
		pos mgl64.Vec3
		col rl.Color
	}{
		{a.Fids.Nasion, rl.NewColor(120, 255, 120, 255)},
		{a.Fids.Inion, rl.NewColor(255, 120, 120, 255)},
		{a.Fids.LPA, rl.NewColor(120, 160, 255, 255)},
		{a.Fids.RPA, rl.NewColor(255, 200, 120, 255)},
	}
	for _, m := range marks {
		rl.DrawSphere(toRl(m.pos), 0.12, m.col)
	}
}

// drawCoil renders the smoothed pose as a figure-of-eight: two loops in
// the tangent plane on either side of the contact point, the handle as
// a line along the pose's handle axis.
func (a *App) drawCoil() {
	sm := a.Eng.Controller().Smoothed()
	if !sm.Valid {
		return
	}

	q := sm.Orientation
	side := q.Rotate(orient.LocalSide)
	up := q.Rotate(orient.LocalUp)
	handle := q.Rotate(orient.LocalHandle)

	const loopR = 0.022 // meters
	const standoff = 0.004

	center := sm.Position.Add(up.Mul(standoff))
	col := ColAccent
	if a.flash > 0.05 {
		col = ColPulse
	}

	for _, s := range []float64{-1, 1} {
		loopC := center.Add(side.Mul(s * loopR))
		a.drawLoop(loopC, side, handle, loopR, col)
	}

	rl.DrawLine3D(toRl(center), toRl(center.Add(handle.Mul(0.05))), col)
	rl.DrawSphere(toRl(center.Add(handle.Mul(0.05))), 0.06, col)

	// Contact normal, for reading tilt at a glance.
	rl.DrawLine3D(toRl(sm.Position), toRl(sm.Position.Add(up.Mul(0.025))), ColTextDim)

	if a.Eng.Controller().Locked() {
		rl.DrawCircle3D(toRl(center), float32(loopR*2.6*renderScale), rl.NewVector3(1, 0, 0), 90, ColSelect)
	}
}

func (a *App) drawLoop(center, u, v mgl64.Vec3, r float64, col rl.Color) {
	const segments = 24
	prev := center.Add(u.Mul(r))
	for i := 1; i <= segments; i++ {
		ang := 2 * math.Pi * float64(i) / segments
		p := center.Add(u.Mul(r * math.Cos(ang))).Add(v.Mul(r * math.Sin(ang)))
		rl.DrawLine3D(toRl(prev), toRl(p), col)
		prev = p
	}
}

func (a *App) drawHUD() {
	a.drawText("coilsim", 30, 30, 24, ColSelect)

	if a.Eng.Scheduler() != nil {
		p := a.Eng.Protocol()
		a.drawText(fmt.Sprintf(":: %s", p.Name), 150, 34, 16, ColText)

		status := "RUNNING"
		col := ColSelect
		switch {
		case a.Eng.Paused():
			status, col = "PAUSED", ColTextDim
		case a.last.Done:
			status, col = "COMPLETE", ColText
		case a.last.InInterTrain:
			status, col = fmt.Sprintf("INTER-TRAIN %.1fs", a.last.InterTrainRemaining), ColPulse
		}
		a.drawText(status, 1000, 30, 16, col)

		a.drawText(fmt.Sprintf("pulses %d / %d", a.delivered, p.TotalPulses), 30, 64, 16, ColAccent)

		// Train progress bar during the wait.
		if a.last.InInterTrain {
			w := int32(300 * a.last.InterTrainProgress)
			rl.DrawRectangle(30, 92, 300, 6, ColTextDim)
			rl.DrawRectangle(30, 92, w, 6, ColPulse)
		}
	} else {
		a.drawText(":: free movement", 150, 34, 16, ColText)
	}

	coords := a.Eng.Controller().Coords()
	a.drawText(fmt.Sprintf("yaw %.2f  pitch %.2f  twist %.2f  tilt %.2f",
		coords.Yaw, coords.Pitch, coords.Twist, coords.Tilt), 30, 650, 14, ColText)

	a.drawText("WASD MOVE  Q/E TWIST  R/F TILT  SHIFT SPRINT  C PRECISION  DRAG PLACE  G SNAP  [SPACE] PAUSE  [ESC] QUIT", 480, 680, 14, ColTextDim)
	a.drawText(fmt.Sprintf("%d FPS", int32(rl.GetFPS())), 30, 680, 14, ColTextDim)
}

func (a *App) drawText(text string, x, y int, size int, color rl.Color) {
	rl.DrawTextEx(a.Font, text, rl.NewVector2(float32(x), float32(y)), float32(size), 1, color)
}
