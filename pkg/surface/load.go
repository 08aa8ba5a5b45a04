package surface

import (
	"fmt"

	"github.com/df07/go-optics/pkg/core"
	"github.com/df07/go-optics/pkg/device"
)

// Load rebuilds the surface stored at p on dev. The result refers to device
// storage for its arrays and is meant for evaluation inside
// device.Launch kernels; it is never mirrored again.
func Load(dev *device.Device, p device.Ptr) (Surface, error) {
	rec, err := dev.Load(p)
	if err != nil {
		return nil, err
	}
	switch rec.Kind {
	case device.KindPlane:
		if err := rec.Require(device.KindPlane, 1, 0); err != nil {
			return nil, err
		}
		return &Plane{allowReverse: rec.Scalars[0] != 0}, nil
	case device.KindQuadric:
		if err := rec.Require(device.KindQuadric, 2, 0); err != nil {
			return nil, err
		}
		return &Quadric{r: rec.Scalars[0], conic: rec.Scalars[1]}, nil
	case device.KindAsphere:
		if err := rec.Require(device.KindAsphere, 2, 1); err != nil {
			return nil, err
		}
		return newAsphere(rec.Scalars[0], rec.Scalars[1], rec.Arrays[0]), nil
	case device.KindGrating, device.KindSimpleGrating, device.KindHologramGrating:
		return loadGrating(rec)
	default:
		return nil, fmt.Errorf("%w: %v is not a surface", device.ErrUnknownKind, rec.Kind)
	}
}

// LoadGrating is Load restricted to gratings
func LoadGrating(dev *device.Device, p device.Ptr) (Grating, error) {
	rec, err := dev.Load(p)
	if err != nil {
		return nil, err
	}
	return loadGrating(rec)
}

func loadGrating(rec device.Record) (Grating, error) {
	switch rec.Kind {
	case device.KindGrating:
		return &BaseGrating{order: rec.Order}, nil
	case device.KindSimpleGrating:
		if err := rec.Require(device.KindSimpleGrating, 2, 0); err != nil {
			return nil, err
		}
		return NewSimpleGrating(rec.Order, rec.Scalars[0], rec.Scalars[1]), nil
	case device.KindHologramGrating:
		if err := rec.Require(device.KindHologramGrating, 7, 0); err != nil {
			return nil, err
		}
		s := rec.Scalars
		return NewHologramGrating(rec.Order, s[0],
			core.NewVec3(s[1], s[2], s[3]),
			core.NewVec3(s[4], s[5], s[6])), nil
	default:
		return nil, fmt.Errorf("%w: %v is not a grating", device.ErrUnknownKind, rec.Kind)
	}
}
