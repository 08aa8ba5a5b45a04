package surface

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"

	"github.com/df07/go-optics/pkg/core"
)

func TestSimpleGrating_DispAxis(t *testing.T) {
	g := NewSimpleGrating(1, 100, 0)
	if g.Order() != 1 {
		t.Errorf("Expected order 1, got %d", g.Order())
	}
	for _, p := range [][2]float64{{0, 0}, {1, 2}, {-3.5, 0.25}, {1e6, -1e6}} {
		if axis := g.DispAxis(p[0], p[1]); axis != core.NewVec3(1, 0, 0) {
			t.Errorf("DispAxis(%g, %g) = %v, expected (1,0,0)", p[0], p[1], axis)
		}
		if n := g.N(p[0], p[1]); n != 100 {
			t.Errorf("N(%g, %g) = %g, expected 100", p[0], p[1], n)
		}
	}
}

func TestSimpleGrating_RotatedAxis(t *testing.T) {
	tests := []struct {
		name     string
		rot      float64
		expected core.Vec3
	}{
		{"quarter turn", math.Pi / 2, core.NewVec3(0, 1, 0)},
		{"half turn", math.Pi, core.NewVec3(-1, 0, 0)},
		{"thirty degrees", math.Pi / 6, core.NewVec3(math.Sqrt(3)/2, 0.5, 0)},
		{"negative", -math.Pi / 4, core.NewVec3(math.Sqrt2/2, -math.Sqrt2/2, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			axis := NewSimpleGrating(2, 1e5, tt.rot).DispAxis(0.3, 0.4)
			if !axis.ApproxEqual(tt.expected, 1e-12) {
				t.Errorf("Expected axis %v, got %v", tt.expected, axis)
			}
			if math.Abs(axis.Length()-1) > 1e-12 {
				t.Errorf("Axis %v is not a unit vector", axis)
			}
		})
	}
}

func TestGrating_FlatGeometry(t *testing.T) {
	gratings := []Grating{
		NewGrating(1),
		NewSimpleGrating(-1, 300, 0.2),
		DefaultHologramGrating(),
	}

	for _, g := range gratings {
		if s := g.Sag(0.1, -0.2); s != 0 {
			t.Errorf("%v: sag should be 0, got %g", g, s)
		}
		if n := g.Normal(0.1, -0.2); n != core.NewVec3(0, 0, 1) {
			t.Errorf("%v: normal should be (0,0,1), got %v", g, n)
		}
		dt, ok := g.TimeToIntersect(core.NewVec3(0, 0, -2), core.NewVec3(0, 0.6, 0.8))
		if !ok || math.Abs(dt-2.5) > 1e-12 {
			t.Errorf("%v: expected t=2.5, got t=%g ok=%t", g, dt, ok)
		}
		if _, ok := g.TimeToIntersect(core.NewVec3(0, 0, -2), core.NewVec3(1, 0, 0)); ok {
			t.Errorf("%v: parallel ray should miss", g)
		}
	}
}

func TestBaseGrating_Defaults(t *testing.T) {
	g := NewGrating(3)
	if g.N(1, 1) != 0 {
		t.Errorf("Expected N=0, got %g", g.N(1, 1))
	}
	if axis := g.DispAxis(1, 1); axis != core.NewVec3(1, 0, 0) {
		t.Errorf("Expected axis (1,0,0), got %v", axis)
	}
}

func TestHologramGrating_SymmetricSources(t *testing.T) {
	g := DefaultHologramGrating()

	// On the axis both sources sit at angle theta from the normal
	d := math.Hypot(1e-2, 5e-2)
	sinTheta := 1e-2 / d
	expected := 2 * sinTheta / 500e-9

	if n := g.N(0, 0); !scalar.EqualWithinRel(n, expected, 1e-12) {
		t.Errorf("Expected N=%g, got %g", expected, n)
	}
	if axis := g.DispAxis(0, 0); !axis.ApproxEqual(core.NewVec3(1, 0, 0), 1e-15) {
		t.Errorf("Expected axis (1,0,0), got %v", axis)
	}
}

func TestHologramGrating_MatchesPathDifferenceGradient(t *testing.T) {
	g := NewHologramGrating(1, 633e-9, core.NewVec3(-2e-2, 1e-2, 6e-2), core.NewVec3(3e-2, -1e-2, 4e-2))
	pathDiff := func(x, y float64) float64 {
		p := core.NewVec3(x, y, 0)
		return (p.Subtract(g.SourceA()).Length() - p.Subtract(g.SourceB()).Length()) / g.LambdaRec()
	}

	const h = 1e-6
	for _, p := range [][2]float64{{0, 0}, {5e-3, -2e-3}, {-1e-2, 7e-3}} {
		x, y := p[0], p[1]
		gx := (pathDiff(x+h, y) - pathDiff(x-h, y)) / (2 * h)
		gy := (pathDiff(x, y+h) - pathDiff(x, y-h)) / (2 * h)
		expected := math.Copysign(math.Hypot(gx, gy), gx)

		if n := g.N(x, y); !scalar.EqualWithinRel(n, expected, 1e-6) {
			t.Errorf("N(%g, %g) = %g, expected %g", x, y, n, expected)
		}

		axis := g.DispAxis(x, y)
		if math.Abs(axis.Length()-1) > 1e-12 || axis.Z != 0 {
			t.Errorf("DispAxis(%g, %g) = %v is not an in-plane unit vector", x, y, axis)
		}
	}
}

func TestHologramGrating_DegenerateGradient(t *testing.T) {
	// Sources stacked in x: dndx vanishes on the x = 0 line
	g := NewHologramGrating(1, 1e-6, core.NewVec3(0, -1e-2, 5e-2), core.NewVec3(0, 1e-2, 5e-2))

	n := g.N(0, 0)
	if math.IsNaN(n) || math.IsInf(n, 0) {
		t.Fatalf("Expected finite N, got %g", n)
	}
	_, dndy := g.gradient(0, 0)
	if n != math.Abs(dndy) {
		t.Errorf("Expected N=|dndy|=%g, got %g", math.Abs(dndy), n)
	}

	axis := g.DispAxis(0, 0)
	expected := core.NewVec3(math.Sqrt2/2, math.Sqrt2/2, 0)
	if !axis.ApproxEqual(expected, 1e-12) {
		t.Errorf("Expected axis %v, got %v", expected, axis)
	}

	// Both sources coincide with the evaluation point: no gradient at all
	flat := NewHologramGrating(1, 1e-6, core.NewVec3(0, 0, 0), core.NewVec3(0, 0, 0))
	if n := flat.N(0, 0); n != 0 {
		t.Errorf("Expected N=0, got %g", n)
	}
	if axis := flat.DispAxis(0, 0); axis != core.NewVec3(1, 0, 0) {
		t.Errorf("Expected axis (1,0,0), got %v", axis)
	}
}
