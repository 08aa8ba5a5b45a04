package coating

import (
	"fmt"

	"github.com/df07/go-optics/pkg/device"
)

// SimpleCoating has coefficients that are constant in wavelength and angle
type SimpleCoating struct {
	reflectivity   float64
	transmissivity float64
	mirror         device.Mirror
}

// NewSimpleCoating creates a new constant coating
func NewSimpleCoating(reflectivity, transmissivity float64) *SimpleCoating {
	return &SimpleCoating{reflectivity: reflectivity, transmissivity: transmissivity}
}

// Coefs ignores both arguments
func (c *SimpleCoating) Coefs(wavelength, cosIncidenceAngle float64) (float64, float64) {
	return c.reflectivity, c.transmissivity
}

// Reflect returns the reflectivity
func (c *SimpleCoating) Reflect(wavelength, cosIncidenceAngle float64) float64 {
	return c.reflectivity
}

// Transmit returns the transmissivity
func (c *SimpleCoating) Transmit(wavelength, cosIncidenceAngle float64) float64 {
	return c.transmissivity
}

// Equal reports whether other is a SimpleCoating with the same constants
func (c *SimpleCoating) Equal(other Coating) bool {
	o, ok := other.(*SimpleCoating)
	return ok && o.reflectivity == c.reflectivity && o.transmissivity == c.transmissivity
}

// DevPtr returns the device copy of the coating
func (c *SimpleCoating) DevPtr(dev *device.Device) (device.Ptr, error) {
	return c.mirror.Get(dev, func() device.Record {
		return device.Record{
			Kind:    device.KindSimpleCoating,
			Scalars: []float64{c.reflectivity, c.transmissivity},
		}
	})
}

// Close releases the device copy
func (c *SimpleCoating) Close() error {
	return c.mirror.Release()
}

func (c *SimpleCoating) String() string {
	return fmt.Sprintf("SimpleCoating(%g, %g)", c.reflectivity, c.transmissivity)
}
