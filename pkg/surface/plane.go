package surface

import (
	"github.com/df07/go-optics/pkg/core"
	"github.com/df07/go-optics/pkg/device"
)

// Plane is the flat surface z = 0
type Plane struct {
	allowReverse bool // Accept intersections behind the ray
	mirror       device.Mirror
}

// NewPlane creates a new plane. Unless allowReverse is set, an intersection
// that would require propagating backwards is a miss.
func NewPlane(allowReverse bool) *Plane {
	return &Plane{allowReverse: allowReverse}
}

// AllowReverse reports whether backward intersections are accepted
func (p *Plane) AllowReverse() bool {
	return p.allowReverse
}

// Equal reports whether other is a Plane with the same reverse policy
func (p *Plane) Equal(other Surface) bool {
	o, ok := other.(*Plane)
	return ok && o.allowReverse == p.allowReverse
}

// Sag is identically zero
func (p *Plane) Sag(x, y float64) float64 {
	return 0
}

// Normal is always +z
func (p *Plane) Normal(x, y float64) core.Vec3 {
	return core.NewVec3(0, 0, 1)
}

// TimeToIntersect solves z + vz*t = 0
func (p *Plane) TimeToIntersect(pos, v core.Vec3) (float64, bool) {
	// Parallel rays never reach the plane
	if v.Z == 0 {
		return 0, false
	}
	dt := -pos.Z / v.Z
	if !p.allowReverse && dt < 0 {
		return 0, false
	}
	return dt, true
}

// DevPtr returns the device copy of the plane
func (p *Plane) DevPtr(dev *device.Device) (device.Ptr, error) {
	return p.mirror.Get(dev, func() device.Record {
		return device.Record{
			Kind:    device.KindPlane,
			Scalars: []float64{boolScalar(p.allowReverse)},
		}
	})
}

// Close releases the device copy
func (p *Plane) Close() error {
	return p.mirror.Release()
}

func (p *Plane) String() string {
	if p.allowReverse {
		return "Plane(allowReverse=True)"
	}
	return "Plane()"
}
