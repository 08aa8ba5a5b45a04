package device

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrDeviceMismatch is returned when a mirror already lives on a
	// different device.
	ErrDeviceMismatch = errors.New("device: object is mirrored on another device")

	// ErrReleased is returned when a released mirror is requested again.
	ErrReleased = errors.New("device: mirror already released")
)

// Mirror caches the device copy of one host object. The zero value is ready
// to use and must not be copied after first use.
//
// The first Get allocates; concurrent callers wait on the lock and then see
// the same fully written Ptr.
type Mirror struct {
	mu       sync.Mutex
	dev      *Device
	ptr      Ptr
	released bool
}

// Get returns the cached pointer, building and allocating the record on the
// first call.
func (m *Mirror) Get(dev *Device, build func() Record) (Ptr, error) {
	if dev == nil {
		return 0, fmt.Errorf("%w: nil device", ErrInvalidPtr)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.released {
		return 0, ErrReleased
	}
	if m.ptr != 0 {
		if m.dev != dev {
			return 0, fmt.Errorf("%w: bound to %s, requested %s", ErrDeviceMismatch, m.dev.Name(), dev.Name())
		}
		return m.ptr, nil
	}
	p, err := dev.Alloc(build())
	if err != nil {
		return 0, err
	}
	m.dev, m.ptr = dev, p
	return p, nil
}

// Cached reports the pointer without allocating.
func (m *Mirror) Cached() (Ptr, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ptr, m.ptr != 0
}

// Release frees the device copy, if any. Only the first call has an effect.
func (m *Mirror) Release() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.released {
		return nil
	}
	m.released = true
	if m.ptr == 0 {
		return nil
	}
	dev, p := m.dev, m.ptr
	m.dev, m.ptr = nil, 0
	if err := dev.Free(p); err != nil && !errors.Is(err, ErrClosed) {
		return err
	}
	return nil
}
