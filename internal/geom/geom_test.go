package geom

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestWrapTwoPi(t *testing.T) {
	tests := []struct {
		in       float64
		expected float64
	}{
		{0, 0},
		{1.5, 1.5},
		{2 * math.Pi, 0},
		{2*math.Pi + 0.25, 0.25},
		{-0.25, 2*math.Pi - 0.25},
		{-4 * math.Pi, 0},
		{7 * math.Pi, math.Pi},
	}

	for _, tt := range tests {
		if got := WrapTwoPi(tt.in); math.Abs(got-tt.expected) > 1e-12 {
			t.Errorf("WrapTwoPi(%v) = %v, want %v", tt.in, got, tt.expected)
		}
	}
}

func TestWrapTwoPi_Range(t *testing.T) {
	for a := -20.0; a < 20.0; a += 0.137 {
		got := WrapTwoPi(a)
		if got < 0 || got >= 2*math.Pi {
			t.Fatalf("WrapTwoPi(%v) = %v outside [0, 2pi)", a, got)
		}
	}
}

func TestDampFactor(t *testing.T) {
	if got := DampFactor(10, 0); got != 0 {
		t.Errorf("zero dt should give zero factor, got %v", got)
	}
	if got := DampFactor(0, 0.016); got != 0 {
		t.Errorf("zero rate should give zero factor, got %v", got)
	}

	f := DampFactor(12, 0.016)
	if f <= 0 || f >= 1 {
		t.Errorf("factor out of (0,1): %v", f)
	}

	// Two half-steps must land where one full step lands.
	full := DampFactor(12, 0.032)
	half := DampFactor(12, 0.016)
	composed := half + (1-half)*half
	if math.Abs(full-composed) > 1e-12 {
		t.Errorf("damping not tick-size independent: full=%v composed=%v", full, composed)
	}
}

func TestLerp(t *testing.T) {
	a := mgl64.Vec3{0, 0, 0}
	b := mgl64.Vec3{2, 4, 6}

	mid := Lerp(a, b, 0.5)
	if math.Abs(mid.X()-1) > 1e-12 || math.Abs(mid.Y()-2) > 1e-12 || math.Abs(mid.Z()-3) > 1e-12 {
		t.Errorf("Lerp midpoint wrong: %v", mid)
	}
	if got := Lerp(a, b, 0); !got.ApproxEqualThreshold(a, 1e-12) {
		t.Errorf("Lerp(0) should return start, got %v", got)
	}
	if got := Lerp(a, b, 1); !got.ApproxEqualThreshold(b, 1e-12) {
		t.Errorf("Lerp(1) should return end, got %v", got)
	}
}

func TestIntersectTriangle_Hit(t *testing.T) {
	a := mgl64.Vec3{-1, 0, -1}
	b := mgl64.Vec3{1, 0, -1}
	c := mgl64.Vec3{0, 0, 1}

	r := Ray{Origin: mgl64.Vec3{0, 2, 0}, Dir: mgl64.Vec3{0, -1, 0}}
	dist, u, v, ok := IntersectTriangle(r, a, b, c)
	if !ok {
		t.Fatal("expected hit")
	}
	if math.Abs(dist-2) > 1e-9 {
		t.Errorf("expected t=2, got %v", dist)
	}
	w := 1 - u - v
	p := a.Mul(w).Add(b.Mul(u)).Add(c.Mul(v))
	if !p.ApproxEqualThreshold(mgl64.Vec3{0, 0, 0}, 1e-9) {
		t.Errorf("barycentric reconstruction off: %v", p)
	}
}

func TestIntersectTriangle_BackFace(t *testing.T) {
	a := mgl64.Vec3{-1, 0, -1}
	b := mgl64.Vec3{1, 0, -1}
	c := mgl64.Vec3{0, 0, 1}

	// Approaching from below hits the back side; both facings count.
	r := Ray{Origin: mgl64.Vec3{0, -3, 0}, Dir: mgl64.Vec3{0, 1, 0}}
	dist, _, _, ok := IntersectTriangle(r, a, b, c)
	if !ok {
		t.Fatal("expected back-face hit")
	}
	if math.Abs(dist-3) > 1e-9 {
		t.Errorf("expected t=3, got %v", dist)
	}
}

func TestIntersectTriangle_Miss(t *testing.T) {
	a := mgl64.Vec3{-1, 0, -1}
	b := mgl64.Vec3{1, 0, -1}
	c := mgl64.Vec3{0, 0, 1}

	tests := []struct {
		name string
		r    Ray
	}{
		{"outside", Ray{Origin: mgl64.Vec3{5, 2, 0}, Dir: mgl64.Vec3{0, -1, 0}}},
		{"parallel", Ray{Origin: mgl64.Vec3{0, 1, 0}, Dir: mgl64.Vec3{1, 0, 0}}},
		{"behind origin", Ray{Origin: mgl64.Vec3{0, -2, 0}, Dir: mgl64.Vec3{0, -1, 0}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, _, ok := IntersectTriangle(tt.r, a, b, c); ok {
				t.Error("expected miss")
			}
		})
	}
}

func TestTangentProject(t *testing.T) {
	n := mgl64.Vec3{0, 1, 0}
	v := mgl64.Vec3{1, 5, 2}
	p := TangentProject(v, n)
	if math.Abs(p.Dot(n)) > 1e-12 {
		t.Errorf("projection not orthogonal to normal: dot=%v", p.Dot(n))
	}
	if !p.ApproxEqualThreshold(mgl64.Vec3{1, 0, 2}, 1e-12) {
		t.Errorf("unexpected projection: %v", p)
	}
}

func TestPerpendicular(t *testing.T) {
	dirs := []mgl64.Vec3{
		{1, 0, 0},
		{0, 1, 0},
		{0, -1, 0},
		{0, 0, 1},
		mgl64.Vec3{1, 1, 1}.Normalize(),
	}
	for _, n := range dirs {
		p := Perpendicular(n)
		if math.Abs(p.Len()-1) > 1e-9 {
			t.Errorf("Perpendicular(%v) not unit: %v", n, p.Len())
		}
		if math.Abs(p.Dot(n)) > 1e-9 {
			t.Errorf("Perpendicular(%v) not orthogonal: dot=%v", n, p.Dot(n))
		}
	}
}
