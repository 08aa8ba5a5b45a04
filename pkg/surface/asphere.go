package surface

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/df07/go-optics/pkg/core"
	"github.com/df07/go-optics/pkg/device"
	"github.com/df07/go-optics/pkg/solver"
)

// asphereSeedWindow is the width of the initial bracket placed after the
// quadric seed.
const asphereSeedWindow = 1e-2

// Asphere is a quadric plus an even polynomial in r:
//
//	z(r) = quadric(r) + Σ coefs[i] r^(4+2i)
type Asphere struct {
	Quadric
	coefs     []float64
	dzdrCoefs []float64 // coefs[i] * (4+2i)
	solver    solver.Config
}

// NewAsphere creates a new asphere. The coefficient slice is copied.
func NewAsphere(R, conic float64, coefs []float64) *Asphere {
	return newAsphere(R, conic, append([]float64(nil), coefs...))
}

func newAsphere(R, conic float64, coefs []float64) *Asphere {
	return &Asphere{
		Quadric:   Quadric{r: R, conic: conic},
		coefs:     coefs,
		dzdrCoefs: dzdrCoefficients(coefs),
		solver:    DefaultAsphereSolverConfig(),
	}
}

// DefaultAsphereSolverConfig returns the root finder settings used for
// asphere intersection
func DefaultAsphereSolverConfig() solver.Config {
	cfg := solver.DefaultConfig()
	cfg.XTolerance = 1e-12
	return cfg
}

func dzdrCoefficients(coefs []float64) []float64 {
	return lo.Map(coefs, func(c float64, i int) float64 {
		return c * float64(4+2*i)
	})
}

// Coefs returns a copy of the polynomial coefficients
func (a *Asphere) Coefs() []float64 {
	return append([]float64(nil), a.coefs...)
}

// Equal reports whether other is an Asphere with the same parameters
func (a *Asphere) Equal(other Surface) bool {
	o, ok := other.(*Asphere)
	return ok && o.r == a.r && o.conic == a.conic && slices.Equal(o.coefs, a.coefs)
}

// Sag returns the asphere height at (x, y)
func (a *Asphere) Sag(x, y float64) float64 {
	r2 := x*x + y*y
	rr := r2
	result := a.Quadric.Sag(x, y)
	for _, c := range a.coefs {
		rr *= r2
		result += c * rr
	}
	return result
}

// Normal returns the unit normal at (x, y). The axis is special-cased so the
// vertex normal is exactly +z.
func (a *Asphere) Normal(x, y float64) core.Vec3 {
	r := math.Hypot(x, y)
	if r == 0 {
		return core.NewVec3(0, 0, 1)
	}
	return normalFromSlope(x, y, r, a.dzdr(r))
}

func (a *Asphere) dzdr(r float64) float64 {
	result := a.Quadric.dzdr(r)
	rr := r * r
	rrr := rr * r
	for _, c := range a.dzdrCoefs {
		result += c * rrr
		rrr *= rr
	}
	return result
}

// TimeToIntersect seeds a root search with the base quadric's closed-form
// intersection. A quadric miss is an asphere miss, and so is any failure to
// bracket or converge or a root behind the ray.
func (a *Asphere) TimeToIntersect(p, v core.Vec3) (float64, bool) {
	t0, ok := a.Quadric.TimeToIntersect(p, v)
	if !ok {
		return 0, false
	}
	residual := func(t float64) float64 {
		q := p.Add(v.Multiply(t))
		return a.Sag(q.X, q.Y) - q.Z
	}
	t, err := solver.Solve(residual, t0, t0+asphereSeedWindow, a.solver)
	if err != nil || t < 0 {
		return 0, false
	}
	return t, true
}

// DevPtr returns the device copy of the asphere, including its
// coefficients
func (a *Asphere) DevPtr(dev *device.Device) (device.Ptr, error) {
	return a.mirror.Get(dev, func() device.Record {
		return device.Record{
			Kind:    device.KindAsphere,
			Scalars: []float64{a.r, a.conic},
			Arrays:  [][]float64{a.coefs},
		}
	})
}

func (a *Asphere) String() string {
	coefs := lo.Map(a.coefs, func(c float64, _ int) string {
		return fmt.Sprintf("%g", c)
	})
	return fmt.Sprintf("Asphere(%g, %g, [%s])", a.r, a.conic, strings.Join(coefs, ", "))
}
