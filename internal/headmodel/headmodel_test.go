package headmodel

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/coilsim/internal/geom"
)

func TestGenerate_Deterministic(t *testing.T) {
	m1, f1 := Generate(42)
	m2, f2 := Generate(42)

	if len(m1.Positions) != len(m2.Positions) || len(m1.Tris) != len(m2.Tris) {
		t.Fatal("same seed produced different topology")
	}
	for i := range m1.Positions {
		if m1.Positions[i] != m2.Positions[i] {
			t.Fatalf("vertex %d differs between identical seeds", i)
		}
	}
	if *f1 != *f2 {
		t.Error("fiducials differ between identical seeds")
	}

	m3, _ := Generate(43)
	same := true
	for i := range m1.Positions {
		if m1.Positions[i] != m3.Positions[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different seeds produced identical vertices")
	}
}

func TestGenerate_FiducialLayout(t *testing.T) {
	_, f := Generate(1)

	if f.Nasion.X() <= 0 || f.Inion.X() >= 0 {
		t.Error("nasion should be anterior (+X) and inion posterior")
	}
	if f.LPA.Z() >= 0 || f.RPA.Z() <= 0 {
		t.Error("LPA/RPA should sit on opposite sides of the midline")
	}
	if math.Abs(f.LPA.Z()+f.RPA.Z()) > 1e-12 {
		t.Error("ear points should be symmetric about the midline")
	}
}

func TestGenerate_RadialRaycastsFromCenterHit(t *testing.T) {
	m, _ := Generate(99)
	center := m.BoundingSphere().Center

	// The proxy builder depends on rays from inside the head finding
	// the scalp in (almost) any upward direction.
	for pitch := 0.1; pitch < 1.5; pitch += 0.2 {
		for yaw := 0.0; yaw < 2*math.Pi; yaw += 0.5 {
			cp := math.Cos(pitch)
			dir := mgl64.Vec3{math.Cos(yaw) * cp, math.Sin(pitch), math.Sin(yaw) * cp}
			hits := m.RaycastAll(geom.Ray{Origin: center, Dir: dir})
			if len(hits) == 0 {
				t.Fatalf("no surface hit along yaw=%v pitch=%v", yaw, pitch)
			}
		}
	}
}

func TestGenerate_FlattenedBase(t *testing.T) {
	m, _ := Generate(5)
	floor := -SemiUp * baseFactor
	for i, p := range m.Positions {
		if p.Y() < floor-1e-12 {
			t.Fatalf("vertex %d below the base plane: %v", i, p.Y())
		}
	}
}
