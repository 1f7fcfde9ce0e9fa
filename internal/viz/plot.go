package viz

import (
	"math"

	"github.com/san-kum/coilsim/internal/fiducial"
	"github.com/san-kum/coilsim/internal/session"
)

// TrackPlot renders a top-down view of the coil path: the fiducial rim
// as a circle, the recorded positions as a polyline, and a small cross
// at every tick that emitted a pulse. w and h are character cells.
func TrackPlot(plane fiducial.Plane, ticks []session.TickOutput, w, h int) string {
	c := NewCanvas(w, h)

	cx, cy := c.DotWidth()/2, c.DotHeight()/2
	radius := float64(minInt(c.DotWidth(), c.DotHeight()))*0.5 - 2
	if radius < 1 {
		radius = 1
	}
	scale := 1.0
	if plane.BaseRadius > 0 {
		scale = radius / plane.BaseRadius
	}
	c.Circle(cx, cy, int(radius))

	toDot := func(t session.TickOutput) (int, int) {
		rel := t.Position.Sub(plane.Origin)
		u := rel.Dot(plane.U) * scale
		v := rel.Dot(plane.V) * scale
		// V up on screen.
		return cx + int(math.Round(u)), cy - int(math.Round(v))
	}

	havePrev := false
	px, py := 0, 0
	for _, t := range ticks {
		x, y := toDot(t)
		if havePrev {
			c.Line(px, py, x, y)
		} else {
			c.Set(x, y)
		}
		if t.Pulses > 0 {
			c.Set(x-1, y)
			c.Set(x+1, y)
			c.Set(x, y-1)
			c.Set(x, y+1)
		}
		px, py = x, y
		havePrev = true
	}
	return c.String()
}

// Timeline compresses a run's pulse activity into one line of width
// columns: a solid block where pulses landed, shade during inter-train
// waits, a rule while the protocol ran silently, space when idle.
func Timeline(ticks []session.TickOutput, width int) string {
	if width <= 0 || len(ticks) == 0 {
		return ""
	}

	out := make([]rune, width)
	for col := 0; col < width; col++ {
		lo := col * len(ticks) / width
		hi := (col + 1) * len(ticks) / width
		if hi <= lo {
			hi = lo + 1
		}

		pulses, iti, active := 0, false, false
		for _, t := range ticks[lo:hi] {
			pulses += t.Pulses
			iti = iti || t.InInterTrain
			active = active || t.Pulses > 0 || t.InInterTrain || !t.Done
		}

		switch {
		case pulses > 0:
			out[col] = '█'
		case iti:
			out[col] = '░'
		case active:
			out[col] = '─'
		default:
			out[col] = ' '
		}
	}
	return string(out)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
