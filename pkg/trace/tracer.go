// Package trace drives batches of rays against a surface or a coating, on
// the host through a worker pool or on a device through device.Launch.
package trace

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/df07/go-optics/pkg/coating"
	"github.com/df07/go-optics/pkg/core"
	"github.com/df07/go-optics/pkg/device"
	"github.com/df07/go-optics/pkg/surface"
)

// ErrLengthMismatch is returned when parallel input slices differ in length
var ErrLengthMismatch = errors.New("trace: input lengths differ")

// Config contains configuration for batch tracing
type Config struct {
	NumWorkers int // Number of parallel workers (0 = use CPU count)
	ChunkSize  int // Rays per worker task
}

// DefaultConfig returns sensible default values
func DefaultConfig() Config {
	return Config{
		NumWorkers: 0,
		ChunkSize:  1024,
	}
}

// MirroredSurface is a surface that can be copied to a device
type MirroredSurface interface {
	surface.Surface
	surface.Mirrored
}

// MirroredCoating is a coating that can be copied to a device
type MirroredCoating interface {
	coating.Coating
	DevPtr(dev *device.Device) (device.Ptr, error)
}

// Tracer intersects and weights ray batches
type Tracer struct {
	config Config
	logger core.Logger
}

// NewTracer creates a tracer. A nil logger discards output.
func NewTracer(config Config, logger core.Logger) *Tracer {
	if config.ChunkSize <= 0 {
		config.ChunkSize = DefaultConfig().ChunkSize
	}
	if logger == nil {
		logger = core.NopLogger{}
	}
	return &Tracer{config: config, logger: logger}
}

// IntersectBatch moves every ray in rays to its intersection with surf, in
// place. Rays that miss are marked failed; rays that were already failed are
// left alone.
func (t *Tracer) IntersectBatch(ctx context.Context, surf surface.Surface, rays []core.Ray) (Stats, error) {
	stats, err := t.run(ctx, len(rays), func(start, end int) Stats {
		var s Stats
		for i := start; i < end; i++ {
			s = s.Add(intersectOne(surf, &rays[i]))
		}
		return s
	})
	if err != nil {
		return stats, err
	}
	t.logger.Printf("trace: %v on host: %v\n", surf, stats)
	return stats, nil
}

// IntersectBatchDevice does the work of IntersectBatch on dev. The surface
// is mirrored to dev on first use and evaluated from its device copy.
func (t *Tracer) IntersectBatchDevice(ctx context.Context, dev *device.Device, surf MirroredSurface, rays []core.Ray) (Stats, error) {
	p, err := surf.DevPtr(dev)
	if err != nil {
		return Stats{}, fmt.Errorf("mirroring %v: %w", surf, err)
	}
	devSurf, err := surface.Load(dev, p)
	if err != nil {
		return Stats{}, fmt.Errorf("loading %v from %s: %w", surf, dev.Name(), err)
	}

	var hit, failed, skipped atomic.Int64
	err = dev.Launch(ctx, len(rays), func(i int) error {
		s := intersectOne(devSurf, &rays[i])
		hit.Add(int64(s.Hit))
		failed.Add(int64(s.Failed))
		skipped.Add(int64(s.Skipped))
		return nil
	})
	stats := Stats{
		Total:   len(rays),
		Hit:     int(hit.Load()),
		Failed:  int(failed.Load()),
		Skipped: int(skipped.Load()),
	}
	if err != nil {
		return stats, err
	}
	t.logger.Printf("trace: %v on %s: %v\n", surf, dev.Name(), stats)
	return stats, nil
}

// CoefsBatch evaluates c at each (wavelength, cosine) pair
func (t *Tracer) CoefsBatch(ctx context.Context, c coating.Coating, wavelengths, cos []float64) (reflect, transmit []float64, err error) {
	if len(wavelengths) != len(cos) {
		return nil, nil, fmt.Errorf("%w: %d wavelengths, %d cosines", ErrLengthMismatch, len(wavelengths), len(cos))
	}
	reflect = make([]float64, len(wavelengths))
	transmit = make([]float64, len(wavelengths))
	_, err = t.run(ctx, len(wavelengths), func(start, end int) Stats {
		for i := start; i < end; i++ {
			reflect[i], transmit[i] = c.Coefs(wavelengths[i], cos[i])
		}
		return Stats{Total: end - start}
	})
	if err != nil {
		return nil, nil, err
	}
	return reflect, transmit, nil
}

// CoefsBatchDevice does the work of CoefsBatch on dev
func (t *Tracer) CoefsBatchDevice(ctx context.Context, dev *device.Device, c MirroredCoating, wavelengths, cos []float64) (reflect, transmit []float64, err error) {
	if len(wavelengths) != len(cos) {
		return nil, nil, fmt.Errorf("%w: %d wavelengths, %d cosines", ErrLengthMismatch, len(wavelengths), len(cos))
	}
	p, err := c.DevPtr(dev)
	if err != nil {
		return nil, nil, fmt.Errorf("mirroring %v: %w", c, err)
	}
	devCoating, err := coating.Load(dev, p)
	if err != nil {
		return nil, nil, fmt.Errorf("loading %v from %s: %w", c, dev.Name(), err)
	}

	reflect = make([]float64, len(wavelengths))
	transmit = make([]float64, len(wavelengths))
	err = dev.Launch(ctx, len(wavelengths), func(i int) error {
		reflect[i], transmit[i] = devCoating.Coefs(wavelengths[i], cos[i])
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return reflect, transmit, nil
}

// run splits n items into chunks and processes them on a worker pool
func (t *Tracer) run(ctx context.Context, n int, kernel ChunkKernel) (Stats, error) {
	tasks := chunks(n, t.config.ChunkSize)
	if len(tasks) == 0 {
		return Stats{}, ctx.Err()
	}

	pool := NewWorkerPool(kernel, len(tasks), t.config.NumWorkers)
	pool.Start(ctx)
	for _, task := range tasks {
		pool.SubmitTask(task)
	}
	pool.Stop()

	var stats Stats
	var firstErr error
	for range tasks {
		result, ok := pool.GetResult()
		if !ok {
			return stats, fmt.Errorf("worker pool closed unexpectedly")
		}
		if result.Error != nil && firstErr == nil {
			firstErr = result.Error
		}
		stats = stats.Add(result.Stats)
	}
	return stats, firstErr
}

func intersectOne(surf surface.Surface, r *core.Ray) Stats {
	if r.Failed {
		return Stats{Total: 1, Skipped: 1}
	}
	*r = surface.Intersect(surf, *r)
	if r.Failed {
		return Stats{Total: 1, Failed: 1}
	}
	return Stats{Total: 1, Hit: 1}
}
