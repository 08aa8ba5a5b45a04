// Package coating models the wavelength and incidence-angle dependent
// reflection and transmission coefficients of an optical interface.
package coating

import (
	"fmt"

	"github.com/df07/go-optics/pkg/device"
)

// Coating returns reflection and transmission coefficients. The
// coefficients need not sum to one; the remainder is absorbed.
type Coating interface {
	Coefs(wavelength, cosIncidenceAngle float64) (reflect, transmit float64)
	Reflect(wavelength, cosIncidenceAngle float64) float64
	Transmit(wavelength, cosIncidenceAngle float64) float64
}

// Load rebuilds the coating stored at p on dev. Table coatings returned by
// Load read their tables straight from device storage.
func Load(dev *device.Device, p device.Ptr) (Coating, error) {
	rec, err := dev.Load(p)
	if err != nil {
		return nil, err
	}
	switch rec.Kind {
	case device.KindSimpleCoating:
		if err := rec.Require(device.KindSimpleCoating, 2, 0); err != nil {
			return nil, err
		}
		return NewSimpleCoating(rec.Scalars[0], rec.Scalars[1]), nil
	case device.KindTableCoating:
		if err := rec.Require(device.KindTableCoating, 0, 3); err != nil {
			return nil, err
		}
		w, r, t := rec.Arrays[0], rec.Arrays[1], rec.Arrays[2]
		if len(r) != len(w) || len(t) != len(w) {
			return nil, fmt.Errorf("%w: table columns have lengths %d, %d, %d",
				device.ErrMalformed, len(w), len(r), len(t))
		}
		return NewTableCoating(w, r, t), nil
	default:
		return nil, fmt.Errorf("%w: %v is not a coating", device.ErrUnknownKind, rec.Kind)
	}
}
