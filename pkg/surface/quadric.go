package surface

import (
	"fmt"
	"math"

	"github.com/df07/go-optics/pkg/core"
	"github.com/df07/go-optics/pkg/device"
)

// Quadric is a conic section of revolution with vertex at the origin:
//
//	z(r) = r² / (R (1 + sqrt(1 - (1+k) r²/R²)))
//
// R must be non-zero.
type Quadric struct {
	r      float64 // Radius of curvature at the vertex
	conic  float64 // Conic constant k
	mirror device.Mirror
}

// NewQuadric creates a new quadric with radius of curvature R and conic
// constant k
func NewQuadric(R, conic float64) *Quadric {
	return &Quadric{r: R, conic: conic}
}

// NewSphere creates a sphere of radius R tangent to z = 0
func NewSphere(R float64) *Quadric {
	return NewQuadric(R, 0)
}

// NewParaboloid creates a paraboloid with vertex radius of curvature R
func NewParaboloid(R float64) *Quadric {
	return NewQuadric(R, -1)
}

// R returns the vertex radius of curvature
func (q *Quadric) R() float64 {
	return q.r
}

// Conic returns the conic constant
func (q *Quadric) Conic() float64 {
	return q.conic
}

// Equal reports whether other is a Quadric with the same R and conic.
// An Asphere is never equal to a Quadric.
func (q *Quadric) Equal(other Surface) bool {
	o, ok := other.(*Quadric)
	return ok && o.r == q.r && o.conic == q.conic
}

// Sag returns the conic height at (x, y)
func (q *Quadric) Sag(x, y float64) float64 {
	r2 := x*x + y*y
	return r2 / (q.r * (1 + math.Sqrt(1-(1+q.conic)*r2/(q.r*q.r))))
}

// Normal returns the unit normal at (x, y)
func (q *Quadric) Normal(x, y float64) core.Vec3 {
	r := math.Hypot(x, y)
	if r == 0 {
		return core.NewVec3(0, 0, 1)
	}
	return normalFromSlope(x, y, r, q.dzdr(r))
}

// dzdr is the radial slope of the sag
func (q *Quadric) dzdr(r float64) float64 {
	return r / (q.r * math.Sqrt(1-r*r*(1+q.conic)/(q.r*q.r)))
}

// TimeToIntersect substitutes the ray into r² - 2Rz + (1+k)z² = 0 and picks
// the earliest non-negative root that lies on the sheet containing the
// vertex.
func (q *Quadric) TimeToIntersect(p, v core.Vec3) (float64, bool) {
	cp1 := 1 + q.conic
	a := v.X*v.X + v.Y*v.Y + cp1*v.Z*v.Z
	b := 2 * (v.X*p.X + v.Y*p.Y + cp1*p.Z*v.Z - q.r*v.Z)
	c := p.X*p.X + p.Y*p.Y + cp1*p.Z*p.Z - 2*q.r*p.Z

	// Degenerate to a linear equation, e.g. a paraboloid hit along its axis
	if a == 0 {
		if b == 0 {
			return 0, false
		}
		return q.pick(p, v, -c/b)
	}

	discriminant := b*b - 4*a*c
	if discriminant < 0 {
		return 0, false
	}

	// Numerically stable pair of roots
	h := -0.5 * (b + math.Copysign(math.Sqrt(discriminant), b))
	t1 := h / a
	t2 := t1
	if h != 0 {
		t2 = c / h
	}
	if t2 < t1 {
		t1, t2 = t2, t1
	}
	if t, ok := q.pick(p, v, t1); ok {
		return t, true
	}
	return q.pick(p, v, t2)
}

// pick accepts a root when it is forward in time and on the vertex sheet
func (q *Quadric) pick(p, v core.Vec3, t float64) (float64, bool) {
	if t < 0 || math.IsNaN(t) {
		return 0, false
	}
	z := p.Z + v.Z*t
	if 1-(1+q.conic)*z/q.r < 0 {
		return 0, false
	}
	return t, true
}

// DevPtr returns the device copy of the quadric
func (q *Quadric) DevPtr(dev *device.Device) (device.Ptr, error) {
	return q.mirror.Get(dev, q.record)
}

func (q *Quadric) record() device.Record {
	return device.Record{
		Kind:    device.KindQuadric,
		Scalars: []float64{q.r, q.conic},
	}
}

// Close releases the device copy
func (q *Quadric) Close() error {
	return q.mirror.Release()
}

func (q *Quadric) String() string {
	return fmt.Sprintf("Quadric(%g, %g)", q.r, q.conic)
}
