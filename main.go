package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/df07/go-optics/pkg/coating"
	"github.com/df07/go-optics/pkg/core"
	"github.com/df07/go-optics/pkg/device"
	"github.com/df07/go-optics/pkg/interaction"
	"github.com/df07/go-optics/pkg/loaders"
	"github.com/df07/go-optics/pkg/surface"
	"github.com/df07/go-optics/pkg/trace"
)

// Options controls a single demo run
type Options struct {
	Surface    string  // Surface type
	Radius     float64 // Radius of curvature for curved surfaces
	Conic      float64 // Conic constant for quadric and asphere
	NumRays    int     // Rays per side of the square ray grid
	Aperture   float64 // Half-width of the ray grid
	Wavelength float64 // Wavelength in metres
	Index      float64 // Refractive index behind the surface
	Coating    string  // Optional coating table (microns)
	Device     bool    // Trace on an emulated device
	Workers    int     // Parallel workers (0 = use CPU count)
}

func main() {
	// Parse command line flags
	opts := Options{}
	flag.StringVar(&opts.Surface, "surface", "asphere", "Surface type: plane, sphere, paraboloid, quadric, asphere, grating or hologram")
	flag.Float64Var(&opts.Radius, "radius", 20, "Radius of curvature")
	flag.Float64Var(&opts.Conic, "conic", -1, "Conic constant")
	flag.IntVar(&opts.NumRays, "rays", 64, "Rays per side of the ray grid")
	flag.Float64Var(&opts.Aperture, "aperture", 2, "Half-width of the ray grid")
	wavelengthNm := flag.Float64("wavelength", 500, "Wavelength in nanometres")
	flag.Float64Var(&opts.Index, "index", 1.5, "Refractive index behind the surface")
	flag.StringVar(&opts.Coating, "coating", "", "Coating table: wavelength (microns), reflectivity, transmissivity")
	flag.BoolVar(&opts.Device, "device", false, "Trace on an emulated device")
	flag.IntVar(&opts.Workers, "workers", 0, "Number of parallel workers (0 = use CPU count)")
	help := flag.Bool("help", false, "Show help information")
	flag.Parse()

	if *help {
		fmt.Println("Optics ray tracer")
		fmt.Println("Usage: optics [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		return
	}
	opts.Wavelength = *wavelengthNm * 1e-9

	if err := run(context.Background(), opts, core.NewDefaultLogger()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run traces a square grid of rays falling along -z onto the chosen
// surface, splits each ray into reflected and transmitted parts, and logs a
// summary of both.
func run(ctx context.Context, opts Options, logger core.Logger) error {
	surf, err := createSurface(opts)
	if err != nil {
		return err
	}
	defer surf.Close()

	var c coating.Coating
	if opts.Coating != "" {
		table, err := loaders.LoadCoatingTable(opts.Coating, loaders.MicronsToMetres)
		if err != nil {
			return err
		}
		defer table.Close()
		logger.Printf("Using %v\n", table)
		c = table
	}

	rays := rayGrid(opts.NumRays, opts.Aperture, opts.Wavelength)
	tracer := trace.NewTracer(trace.Config{NumWorkers: opts.Workers, ChunkSize: trace.DefaultConfig().ChunkSize}, logger)

	logger.Printf("Tracing %d rays onto %v...\n", len(rays), surf)
	startTime := time.Now()

	var stats trace.Stats
	if opts.Device {
		dev := device.New("emulated", device.Config{Workers: opts.Workers}, logger)
		defer dev.Close()
		stats, err = tracer.IntersectBatchDevice(ctx, dev, surf, rays)
	} else {
		stats, err = tracer.IntersectBatch(ctx, surf, rays)
	}
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}

	index := opts.Index
	if index <= 0 {
		index = 1
	}
	reflected := make([]core.Ray, len(rays))
	transmitted := make([]core.Ray, len(rays))
	grating, isGrating := surf.(surface.Grating)
	for i, r := range rays {
		if isGrating {
			reflected[i], transmitted[i] = interaction.SplitGrating(r, grating, 1, index, c)
		} else {
			reflected[i], transmitted[i] = interaction.Split(r, surf.Normal(r.Origin.X, r.Origin.Y), 1, index, c)
		}
	}

	logger.Printf("Traced in %v: %v (hit rate %.1f%%)\n", time.Since(startTime), stats, 100*stats.HitRate())
	for _, branch := range []struct {
		name string
		rays []core.Ray
	}{{"Reflected", reflected}, {"Transmitted", transmitted}} {
		summary := summarize(branch.rays)
		logger.Printf("%s: %d live rays, mean flux %.4f, mean direction %v\n",
			branch.name, summary.live, summary.meanFlux, summary.meanDirection)
	}
	return nil
}

// createSurface builds the surface named in opts
func createSurface(opts Options) (trace.MirroredSurface, error) {
	switch opts.Surface {
	case "plane":
		return surface.NewPlane(false), nil
	case "sphere":
		return surface.NewSphere(opts.Radius), nil
	case "paraboloid":
		return surface.NewParaboloid(opts.Radius), nil
	case "quadric":
		return surface.NewQuadric(opts.Radius, opts.Conic), nil
	case "asphere":
		return surface.NewAsphere(opts.Radius, opts.Conic, []float64{1e-4, -1e-6}), nil
	case "grating":
		return surface.NewSimpleGrating(1, 6e5, 0), nil
	case "hologram":
		return surface.DefaultHologramGrating(), nil
	default:
		return nil, fmt.Errorf("unknown surface type: %q", opts.Surface)
	}
}

// rayGrid returns n*n rays starting at z = 1 on a square of half-width
// aperture, all travelling along -z
func rayGrid(n int, aperture, wavelength float64) []core.Ray {
	if n <= 0 {
		return nil
	}
	rays := make([]core.Ray, 0, n*n)
	step := 0.0
	if n > 1 {
		step = 2 * aperture / float64(n-1)
	}
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			x := -aperture + float64(i)*step
			y := -aperture + float64(j)*step
			if n == 1 {
				x, y = 0, 0
			}
			rays = append(rays, core.NewRay(core.NewVec3(x, y, 1), core.NewVec3(0, 0, -1), wavelength))
		}
	}
	return rays
}

type raySummary struct {
	live          int
	meanFlux      float64
	meanDirection core.Vec3
}

func summarize(rays []core.Ray) raySummary {
	var s raySummary
	var flux float64
	var dir core.Vec3
	for _, r := range rays {
		if r.Failed {
			continue
		}
		s.live++
		if !math.IsNaN(r.Flux) {
			flux += r.Flux
		}
		dir = dir.Add(r.Velocity.Normalize())
	}
	if s.live > 0 {
		s.meanFlux = flux / float64(s.live)
		s.meanDirection = dir.Multiply(1 / float64(s.live))
	}
	return s
}
