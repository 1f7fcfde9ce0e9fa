// Package export writes session artifacts to files: braille canvases
// and coil tracks as SVG, proxy surface maps as WebP.
package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/coilsim/internal/fiducial"
	"github.com/san-kum/coilsim/internal/session"
	"github.com/san-kum/coilsim/internal/viz"
)

// CanvasToSVG renders each set braille dot as a filled circle. scale is
// pixels per dot.
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}

	width := float64(canvas.DotWidth()) * scale
	height := float64(canvas.DotHeight()) * scale

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<g fill="#00ff00">
`, width, height, width, height))

	dotRadius := scale * 0.4
	for y := 0; y < canvas.DotHeight(); y++ {
		for x := 0; x < canvas.DotWidth(); x++ {
			if !canvas.IsSet(x, y) {
				continue
			}
			cx := float64(x)*scale + scale/2
			cy := float64(y)*scale + scale/2
			sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="%.1f"/>
`, cx, cy, dotRadius))
		}
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// TrackToSVG draws the coil path of a run top-down in the fiducial
// plane: the rim as a dashed circle, the path as a polyline, pulse
// ticks as filled markers.
func TrackToSVG(plane fiducial.Plane, ticks []session.TickOutput, size int) string {
	if len(ticks) < 2 || size <= 0 {
		return ""
	}

	half := float64(size) / 2
	scale := 1.0
	if plane.BaseRadius > 0 {
		scale = (half - 8) / plane.BaseRadius
	}
	toPx := func(t session.TickOutput) (float64, float64) {
		rel := t.Position.Sub(plane.Origin)
		return half + rel.Dot(plane.U)*scale, half - rel.Dot(plane.V)*scale
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<circle cx="%.1f" cy="%.1f" r="%.1f" fill="none" stroke="#334455" stroke-dasharray="4 3"/>
<path fill="none" stroke="#00c8ff" stroke-width="1.5" d="M`,
		size, size, size, size,
		half, half, plane.BaseRadius*scale))

	for i, t := range ticks {
		x, y := toPx(t)
		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}
	sb.WriteString("\"/>\n<g fill=\"#ffcc00\">\n")

	for _, t := range ticks {
		if t.Pulses == 0 {
			continue
		}
		x, y := toPx(t)
		sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="2.2"/>
`, x, y))
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}
