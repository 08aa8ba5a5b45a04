package surface

import (
	"fmt"

	"github.com/df07/go-optics/pkg/core"
	"github.com/df07/go-optics/pkg/device"
)

// Grating is a diffraction grating riding on the plane z = 0
type Grating interface {
	Surface

	// Order returns the diffraction order.
	Order() int

	// N returns the local groove density at (x, y).
	N(x, y float64) float64

	// DispAxis returns the unit in-plane dispersion direction at (x, y).
	DispAxis(x, y float64) core.Vec3
}

// BaseGrating is a flat grating with no grooves. The other gratings embed
// it for their geometry.
type BaseGrating struct {
	order  int
	mirror device.Mirror
}

// NewGrating creates a grating with the given diffraction order
func NewGrating(order int) *BaseGrating {
	return &BaseGrating{order: order}
}

// Order returns the diffraction order
func (g *BaseGrating) Order() int {
	return g.order
}

// Equal reports whether other is a BaseGrating of the same order
func (g *BaseGrating) Equal(other Surface) bool {
	o, ok := other.(*BaseGrating)
	return ok && o.order == g.order
}

// Sag is identically zero
func (g *BaseGrating) Sag(x, y float64) float64 {
	return 0
}

// Normal is always +z
func (g *BaseGrating) Normal(x, y float64) core.Vec3 {
	return core.NewVec3(0, 0, 1)
}

// TimeToIntersect intersects the reference plane. Backward times are
// allowed.
func (g *BaseGrating) TimeToIntersect(p, v core.Vec3) (float64, bool) {
	if v.Z == 0 {
		return 0, false
	}
	return -p.Z / v.Z, true
}

// N is zero for the base grating
func (g *BaseGrating) N(x, y float64) float64 {
	return 0
}

// DispAxis is +x for the base grating
func (g *BaseGrating) DispAxis(x, y float64) core.Vec3 {
	return core.NewVec3(1, 0, 0)
}

// DevPtr returns the device copy of the grating
func (g *BaseGrating) DevPtr(dev *device.Device) (device.Ptr, error) {
	return g.mirror.Get(dev, func() device.Record {
		return device.Record{Kind: device.KindGrating, Order: g.order}
	})
}

// Close releases the device copy
func (g *BaseGrating) Close() error {
	return g.mirror.Release()
}

func (g *BaseGrating) String() string {
	return fmt.Sprintf("Grating(%d)", g.order)
}
