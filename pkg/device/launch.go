package device

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Launch runs kernel for every index in [0, n) across the device lanes.
// Indices are independent and may run in any order. The first kernel error
// stops dispatch of further chunks and is returned.
func (d *Device) Launch(ctx context.Context, n int, kernel func(i int) error) error {
	if n <= 0 {
		return nil
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.config.Workers)

	chunk := d.config.ChunkSize
	for start := 0; start < n; start += chunk {
		if gctx.Err() != nil {
			break
		}
		lo, hi := start, min(start+chunk, n)
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if err := kernel(i); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
