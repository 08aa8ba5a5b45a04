package coating

import (
	"fmt"
	"math"
	"slices"

	"github.com/df07/go-optics/pkg/device"
)

// TableCoating interpolates coefficients linearly in wavelength.
//
// The three slices are borrowed, not copied: the caller must keep them
// alive and unmodified for as long as the coating is in use. Wavelengths
// must be strictly increasing and all slices must share a length of at least
// two; neither is checked. Incidence angle is not modelled yet and is
// ignored.
type TableCoating struct {
	wavelengths      []float64
	reflectivities   []float64
	transmissivities []float64
	mirror           device.Mirror
}

// NewTableCoating creates a table coating over the caller's slices
func NewTableCoating(wavelengths, reflectivities, transmissivities []float64) *TableCoating {
	return &TableCoating{
		wavelengths:      wavelengths,
		reflectivities:   reflectivities,
		transmissivities: transmissivities,
	}
}

// Size returns the number of table nodes
func (c *TableCoating) Size() int {
	return len(c.wavelengths)
}

// Wavelengths returns the borrowed wavelength column
func (c *TableCoating) Wavelengths() []float64 {
	return c.wavelengths
}

// Coefs returns both interpolated coefficients
func (c *TableCoating) Coefs(wavelength, cosIncidenceAngle float64) (float64, float64) {
	return c.Reflect(wavelength, cosIncidenceAngle), c.Transmit(wavelength, cosIncidenceAngle)
}

// Reflect returns the interpolated reflectivity, or NaN outside the table
func (c *TableCoating) Reflect(wavelength, cosIncidenceAngle float64) float64 {
	return c.interpolate(c.reflectivities, wavelength)
}

// Transmit returns the interpolated transmissivity, or NaN outside the
// table
func (c *TableCoating) Transmit(wavelength, cosIncidenceAngle float64) float64 {
	return c.interpolate(c.transmissivities, wavelength)
}

// interpolate does a linear scan, which is cheap for the handful of nodes a
// coating curve has.
func (c *TableCoating) interpolate(values []float64, wavelength float64) float64 {
	args := c.wavelengths
	last := len(args) - 1
	if wavelength < args[0] || wavelength > args[last] {
		return math.NaN()
	}
	if wavelength == args[last] {
		return values[last]
	}
	upperIdx := 1
	for ; upperIdx < last; upperIdx++ {
		if wavelength < args[upperIdx] {
			break
		}
	}
	lowerIdx := upperIdx - 1
	out := wavelength - args[lowerIdx]
	out *= values[upperIdx] - values[lowerIdx]
	out /= args[upperIdx] - args[lowerIdx]
	return out + values[lowerIdx]
}

// Equal reports whether other is a TableCoating with identical tables
func (c *TableCoating) Equal(other Coating) bool {
	o, ok := other.(*TableCoating)
	return ok &&
		slices.Equal(c.wavelengths, o.wavelengths) &&
		slices.Equal(c.reflectivities, o.reflectivities) &&
		slices.Equal(c.transmissivities, o.transmissivities)
}

// DevPtr copies the tables into device storage on first use and returns the
// device copy
func (c *TableCoating) DevPtr(dev *device.Device) (device.Ptr, error) {
	return c.mirror.Get(dev, func() device.Record {
		return device.Record{
			Kind:   device.KindTableCoating,
			Arrays: [][]float64{c.wavelengths, c.reflectivities, c.transmissivities},
		}
	})
}

// Close releases the device copy and its tables
func (c *TableCoating) Close() error {
	return c.mirror.Release()
}

func (c *TableCoating) String() string {
	return fmt.Sprintf("TableCoating(%v, %v, %v)", c.wavelengths, c.reflectivities, c.transmissivities)
}
