package surface

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/df07/go-optics/pkg/core"
	"github.com/df07/go-optics/pkg/device"
)

// HologramGrating is recorded by interfering two point sources A and B at
// wavelength lambdaRec. Its fringes follow the contours of the path
// difference |PA| - |PB|.
type HologramGrating struct {
	BaseGrating
	lambdaRec float64
	a, b      r3.Vec
}

// NewHologramGrating creates a holographic grating from its recording
// geometry
func NewHologramGrating(order int, lambdaRec float64, a, b core.Vec3) *HologramGrating {
	return &HologramGrating{
		BaseGrating: BaseGrating{order: order},
		lambdaRec:   lambdaRec,
		a:           a.R3(),
		b:           b.R3(),
	}
}

// DefaultHologramGrating returns a first order grating recorded at 500e-9
// with sources 1e-2 either side of the axis, 5e-2 above the surface
func DefaultHologramGrating() *HologramGrating {
	return NewHologramGrating(1, 500e-9, core.NewVec3(-1e-2, 0, 5e-2), core.NewVec3(1e-2, 0, 5e-2))
}

// LambdaRec returns the recording wavelength
func (g *HologramGrating) LambdaRec() float64 {
	return g.lambdaRec
}

// SourceA returns the position of virtual source A
func (g *HologramGrating) SourceA() core.Vec3 {
	return core.FromR3(g.a)
}

// SourceB returns the position of virtual source B
func (g *HologramGrating) SourceB() core.Vec3 {
	return core.FromR3(g.b)
}

// Equal reports whether other is a HologramGrating with the same recording
// geometry
func (g *HologramGrating) Equal(other Surface) bool {
	o, ok := other.(*HologramGrating)
	return ok && o.order == g.order && o.lambdaRec == g.lambdaRec && o.a == g.a && o.b == g.b
}

// gradient returns the in-plane gradient of the path difference at (x, y, 0),
// in fringes per unit length. A source coinciding with the point contributes
// nothing.
func (g *HologramGrating) gradient(x, y float64) (dndx, dndy float64) {
	p := r3.Vec{X: x, Y: y}
	if rA := r3.Norm(r3.Sub(p, g.a)); rA != 0 {
		dndx += (x - g.a.X) / rA
		dndy += (y - g.a.Y) / rA
	}
	if rB := r3.Norm(r3.Sub(p, g.b)); rB != 0 {
		dndx += (g.b.X - x) / rB
		dndy += (g.b.Y - y) / rB
	}
	return dndx / g.lambdaRec, dndy / g.lambdaRec
}

// effectiveN is the signed gradient magnitude, carrying the sign of dndx.
// With dndx == 0 it is |dndy|.
func effectiveN(dndx, dndy float64) float64 {
	if dndx == 0 {
		return math.Abs(dndy)
	}
	return dndx * math.Sqrt(1+(dndy*dndy)/(dndx*dndx))
}

// N returns the local fringe density
func (g *HologramGrating) N(x, y float64) float64 {
	return effectiveN(g.gradient(x, y))
}

// DispAxis returns the local dispersion direction
func (g *HologramGrating) DispAxis(x, y float64) core.Vec3 {
	dndx, dndy := g.gradient(x, y)
	sin, cos := math.Sincos(math.Atan2(dndy, effectiveN(dndx, dndy)))
	return core.NewVec3(cos, sin, 0)
}

// DevPtr returns the device copy of the grating
func (g *HologramGrating) DevPtr(dev *device.Device) (device.Ptr, error) {
	return g.mirror.Get(dev, func() device.Record {
		return device.Record{
			Kind:  device.KindHologramGrating,
			Order: g.order,
			Scalars: []float64{
				g.lambdaRec,
				g.a.X, g.a.Y, g.a.Z,
				g.b.X, g.b.Y, g.b.Z,
			},
		}
	})
}

func (g *HologramGrating) String() string {
	return fmt.Sprintf("HologramGrating(%d, %g, %v, %v)", g.order, g.lambdaRec, g.SourceA(), g.SourceB())
}
