// Package surface defines optical surfaces in their local coordinate system:
// the sag z(x, y), the unit normal, and the time at which a ray meets the
// surface.
//
// Every surface can be mirrored onto a device.Device with DevPtr and rebuilt
// there with Load, so that the same numerical methods run on either side.
package surface

import (
	"github.com/df07/go-optics/pkg/core"
	"github.com/df07/go-optics/pkg/device"
)

// Surface is a surface that rays can be intersected with
type Surface interface {
	// Sag returns the surface height at (x, y).
	Sag(x, y float64) float64

	// Normal returns the unit surface normal at (x, y).
	Normal(x, y float64) core.Vec3

	// TimeToIntersect returns the propagation time from position p with
	// velocity v to the surface. ok is false when the ray misses.
	TimeToIntersect(p, v core.Vec3) (dt float64, ok bool)
}

// Mirrored is implemented by objects with a device-resident copy
type Mirrored interface {
	// DevPtr returns the device copy, creating it on first use.
	DevPtr(dev *device.Device) (device.Ptr, error)

	// Close releases the device copy if one was created.
	Close() error
}

// Intersect propagates r to its intersection with s. Rays that miss come
// back marked failed; already failed rays are returned untouched.
func Intersect(s Surface, r core.Ray) core.Ray {
	if r.Failed {
		return r
	}
	dt, ok := s.TimeToIntersect(r.Origin, r.Velocity)
	if !ok {
		return r.Fail()
	}
	return r.Propagate(dt)
}

// normalFromSlope builds the unit normal of a rotationally symmetric surface
// with radial slope dzdr at (x, y), r = hypot(x, y) > 0.
func normalFromSlope(x, y, r, dzdr float64) core.Vec3 {
	return core.NewVec3(-dzdr*x/r, -dzdr*y/r, 1).Normalize()
}

func boolScalar(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
