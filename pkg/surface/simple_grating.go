package surface

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/df07/go-optics/pkg/core"
	"github.com/df07/go-optics/pkg/device"
)

// SimpleGrating has a constant groove density and a fixed dispersion axis
type SimpleGrating struct {
	BaseGrating
	n    float64   // Grooves per unit length
	rot  float64   // Rotation of the dispersion axis about z, radians
	axis core.Vec3 // Dispersion axis, fixed at construction
}

// NewSimpleGrating creates a grating with N grooves per unit length whose
// dispersion axis is +x rotated by rot about the surface normal
func NewSimpleGrating(order int, N, rot float64) *SimpleGrating {
	return &SimpleGrating{
		BaseGrating: BaseGrating{order: order},
		n:           N,
		rot:         rot,
		axis:        dispersionAxis(rot),
	}
}

func dispersionAxis(rot float64) core.Vec3 {
	x := r3.Vec{X: 1}
	if rot == 0 {
		return core.FromR3(x)
	}
	return core.FromR3(r3.NewRotation(rot, r3.Vec{Z: 1}).Rotate(x))
}

// Rot returns the dispersion axis rotation
func (g *SimpleGrating) Rot() float64 {
	return g.rot
}

// N returns the constant groove density
func (g *SimpleGrating) N(x, y float64) float64 {
	return g.n
}

// DispAxis returns the fixed dispersion axis
func (g *SimpleGrating) DispAxis(x, y float64) core.Vec3 {
	return g.axis
}

// Equal reports whether other is a SimpleGrating with the same order,
// density and rotation
func (g *SimpleGrating) Equal(other Surface) bool {
	o, ok := other.(*SimpleGrating)
	return ok && o.order == g.order && o.n == g.n && o.rot == g.rot
}

// DevPtr returns the device copy of the grating
func (g *SimpleGrating) DevPtr(dev *device.Device) (device.Ptr, error) {
	return g.mirror.Get(dev, func() device.Record {
		return device.Record{
			Kind:    device.KindSimpleGrating,
			Order:   g.order,
			Scalars: []float64{g.n, g.rot},
		}
	})
}

func (g *SimpleGrating) String() string {
	return fmt.Sprintf("SimpleGrating(%d, %g, %g)", g.order, g.n, g.rot)
}
