// Package device models an accelerator memory space that is disjoint from
// the host heap.
//
// Host objects never share memory with the device: Alloc deep-copies a plain
// data Record into device storage and hands back a Ptr, which is only
// meaningful to the Device that issued it. Records carry a Kind tag instead
// of behaviour, so the code that evaluates them on the device side
// pattern-matches on the tag and rebuilds a value variant around the device
// resident arrays.
package device

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/df07/go-optics/pkg/core"
)

var (
	// ErrInvalidPtr is returned for a nil, stale or foreign Ptr.
	ErrInvalidPtr = errors.New("device: invalid pointer")

	// ErrClosed is returned by a Device after Close.
	ErrClosed = errors.New("device: closed")

	// ErrUnknownKind is returned when a record tag has no evaluator.
	ErrUnknownKind = errors.New("device: unknown record kind")

	// ErrMalformed is returned when a record lacks the parameters its
	// kind requires.
	ErrMalformed = errors.New("device: malformed record")
)

// Kind tags the variant stored in a Record
type Kind uint8

const (
	KindInvalid Kind = iota
	KindPlane
	KindQuadric
	KindAsphere
	KindGrating
	KindSimpleGrating
	KindHologramGrating
	KindSimpleCoating
	KindTableCoating
)

var kindNames = [...]string{
	KindInvalid:         "invalid",
	KindPlane:           "plane",
	KindQuadric:         "quadric",
	KindAsphere:         "asphere",
	KindGrating:         "grating",
	KindSimpleGrating:   "simple-grating",
	KindHologramGrating: "hologram-grating",
	KindSimpleCoating:   "simple-coating",
	KindTableCoating:    "table-coating",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", k)
}

// Ptr addresses a record inside one Device. The zero Ptr is nil.
type Ptr uint32

// Record is the plain-data image of a host object
type Record struct {
	Kind    Kind
	Order   int         // Diffraction order for gratings
	Scalars []float64   // Constructor parameters
	Arrays  [][]float64 // Backing arrays (coefficients, tables)
}

// Config contains configuration for a device
type Config struct {
	Workers   int // Parallel lanes used by Launch (0 = GOMAXPROCS)
	ChunkSize int // Work items per lane dispatch
}

// DefaultConfig returns sensible default values
func DefaultConfig() Config {
	return Config{
		Workers:   0,
		ChunkSize: 256,
	}
}

type slot struct {
	rec  Record
	used bool
}

// Device is an emulated accelerator memory space
type Device struct {
	name   string
	config Config
	logger core.Logger

	mu     sync.RWMutex
	slots  []slot
	free   []Ptr
	live   int
	closed bool
}

// New creates a device with its own storage
func New(name string, config Config, logger core.Logger) *Device {
	if config.Workers <= 0 {
		config.Workers = runtime.GOMAXPROCS(0)
	}
	if config.ChunkSize <= 0 {
		config.ChunkSize = DefaultConfig().ChunkSize
	}
	if logger == nil {
		logger = core.NopLogger{}
	}
	return &Device{name: name, config: config, logger: logger}
}

// Name returns the device name
func (d *Device) Name() string {
	return d.name
}

// Workers returns the number of parallel lanes
func (d *Device) Workers() int {
	return d.config.Workers
}

// Alloc copies rec, including every backing array, into device storage.
func (d *Device) Alloc(rec Record) (Ptr, error) {
	if rec.Kind == KindInvalid {
		return 0, fmt.Errorf("%w: cannot allocate %v", ErrUnknownKind, rec.Kind)
	}
	dev := Record{
		Kind:    rec.Kind,
		Order:   rec.Order,
		Scalars: append([]float64(nil), rec.Scalars...),
	}
	if len(rec.Arrays) > 0 {
		dev.Arrays = make([][]float64, len(rec.Arrays))
		for i, arr := range rec.Arrays {
			dev.Arrays[i] = append([]float64(nil), arr...)
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return 0, ErrClosed
	}
	var p Ptr
	if n := len(d.free); n > 0 {
		p = d.free[n-1]
		d.free = d.free[:n-1]
	} else {
		d.slots = append(d.slots, slot{})
		p = Ptr(len(d.slots))
	}
	d.slots[p-1] = slot{rec: dev, used: true}
	d.live++
	d.logger.Printf("device %s: allocated %v at %d (%d live)\n", d.name, rec.Kind, p, d.live)
	return p, nil
}

// Free releases the record at p and its arrays.
func (d *Device) Free(p Ptr) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	if !d.valid(p) {
		return fmt.Errorf("%w: free of %d", ErrInvalidPtr, p)
	}
	kind := d.slots[p-1].rec.Kind
	d.slots[p-1] = slot{}
	d.free = append(d.free, p)
	d.live--
	d.logger.Printf("device %s: released %v at %d (%d live)\n", d.name, kind, p, d.live)
	return nil
}

// Load returns the record stored at p. The returned slices alias device
// storage and must be treated as read-only.
func (d *Device) Load(p Ptr) (Record, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return Record{}, ErrClosed
	}
	if !d.valid(p) {
		return Record{}, fmt.Errorf("%w: load of %d", ErrInvalidPtr, p)
	}
	return d.slots[p-1].rec, nil
}

// Live returns the number of resident records
func (d *Device) Live() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.live
}

// Close drops all device storage. Mirrors that still point here report
// ErrClosed when released.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	d.slots = nil
	d.free = nil
	d.live = 0
	return nil
}

// Require checks that rec has the expected kind and at least the given
// number of scalars and arrays.
func (rec Record) Require(kind Kind, scalars, arrays int) error {
	if rec.Kind != kind {
		return fmt.Errorf("%w: %v is not %v", ErrUnknownKind, rec.Kind, kind)
	}
	if len(rec.Scalars) < scalars || len(rec.Arrays) < arrays {
		return fmt.Errorf("%w: %v needs %d scalars and %d arrays, has %d and %d",
			ErrMalformed, kind, scalars, arrays, len(rec.Scalars), len(rec.Arrays))
	}
	return nil
}

func (d *Device) valid(p Ptr) bool {
	return p != 0 && int(p) <= len(d.slots) && d.slots[p-1].used
}
