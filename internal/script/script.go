// Package script runs yaml-defined movement scenarios against a
// session engine, for headless runs and reproducible demos: each step
// holds a set of logical actions for a duration, optionally preceded
// by a snap to explicit spherical coordinates.
package script

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/coilsim/internal/input"
	"github.com/san-kum/coilsim/internal/session"
)

type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Steps       []Step `yaml:"steps"`
}

type Step struct {
	// Hold lists action names held for the whole step: up, down,
	// left, right, twist_cw, twist_ccw, tilt_forward, tilt_back,
	// precision, sprint.
	Hold    []string `yaml:"hold,omitempty"`
	Seconds float64  `yaml:"seconds"`
	Snap    *Snap    `yaml:"snap,omitempty"`
}

type Snap struct {
	Yaw   float64 `yaml:"yaw"`
	Pitch float64 `yaml:"pitch"`
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

func (sc *Scenario) Validate() error {
	if len(sc.Steps) == 0 {
		return fmt.Errorf("scenario %q has no steps", sc.Name)
	}
	for i, step := range sc.Steps {
		if step.Seconds < 0 {
			return fmt.Errorf("step %d: negative duration", i+1)
		}
		for _, name := range step.Hold {
			if _, ok := input.ParseAction(name); !ok {
				return fmt.Errorf("step %d: unknown action %q", i+1, name)
			}
		}
	}
	return nil
}

// Run drives the engine through the scenario at a fixed tick size.
// Snap requests carry strictly increasing tokens, one per snap step.
func Run(ctx context.Context, eng *session.Engine, sc *Scenario, dt float64) error {
	if dt <= 0 {
		return fmt.Errorf("script: non-positive dt %v", dt)
	}

	token := uint64(0)
	for i, step := range sc.Steps {
		held := make(map[input.Action]bool, len(step.Hold))
		for _, name := range step.Hold {
			a, _ := input.ParseAction(name)
			held[a] = true
		}

		frame := input.Frame{Held: held}
		if step.Snap != nil {
			token++
			frame.Snap = &input.SnapRequest{
				Token: token,
				Yaw:   step.Snap.Yaw,
				Pitch: step.Snap.Pitch,
			}
		}

		ticks := int(step.Seconds / dt)
		if ticks == 0 && step.Snap != nil {
			ticks = 1 // a pure snap step still needs one tick to apply
		}
		for n := 0; n < ticks; n++ {
			select {
			case <-ctx.Done():
				return fmt.Errorf("step %d: %w", i+1, ctx.Err())
			default:
			}
			eng.Update(frame, dt)
			frame.Snap = nil
		}
	}
	return nil
}
