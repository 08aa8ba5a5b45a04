package trace

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"sync"
	"testing"

	"github.com/df07/go-optics/pkg/coating"
	"github.com/df07/go-optics/pkg/core"
	"github.com/df07/go-optics/pkg/device"
	"github.com/df07/go-optics/pkg/surface"
)

type recordingLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *recordingLogger) Printf(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, fmt.Sprintf(format, args...))
}

// rayFan returns rays falling straight down from z = 1. Every fifth ray is
// already failed and every seventh points sideways and misses.
func rayFan(n int, seed int64) []core.Ray {
	rng := rand.New(rand.NewSource(seed))
	rays := make([]core.Ray, n)
	for i := range rays {
		origin := core.NewVec3(rng.Float64()-0.5, rng.Float64()-0.5, 1)
		velocity := core.NewVec3(0, 0, -1)
		if i%7 == 0 {
			velocity = core.NewVec3(1, 0, 0)
		}
		rays[i] = core.NewRay(origin, velocity, 500e-9)
		if i%5 == 0 {
			rays[i] = rays[i].Fail()
		}
	}
	return rays
}

func expectedStats(rays []core.Ray, surf surface.Surface) Stats {
	var s Stats
	for _, r := range rays {
		s = s.Add(intersectOne(surf, &r))
	}
	return s
}

func TestIntersectBatch_MatchesSequential(t *testing.T) {
	surf := surface.NewAsphere(4, -1.2, []float64{1e-3, -2e-5})
	rays := rayFan(1000, 42)
	want := make([]core.Ray, len(rays))
	for i, r := range rays {
		want[i] = surface.Intersect(surf, r)
	}
	wantStats := expectedStats(rays, surf)

	logger := &recordingLogger{}
	tracer := NewTracer(Config{NumWorkers: 4, ChunkSize: 33}, logger)
	stats, err := tracer.IntersectBatch(context.Background(), surf, rays)
	if err != nil {
		t.Fatalf("IntersectBatch failed: %v", err)
	}

	if stats != wantStats {
		t.Errorf("Expected stats %v, got %v", wantStats, stats)
	}
	if stats.Total != 1000 || stats.Skipped != 200 {
		t.Errorf("Unexpected stats %v", stats)
	}
	for i := range rays {
		if rays[i] != want[i] {
			t.Fatalf("Ray %d: expected %v, got %v", i, want[i], rays[i])
		}
	}
	if len(logger.lines) != 1 || !strings.Contains(logger.lines[0], stats.String()) {
		t.Errorf("Expected one log line with the stats, got %q", logger.lines)
	}
}

func TestIntersectBatch_LandsOnSurface(t *testing.T) {
	surf := surface.NewParaboloid(2)
	rays := rayFan(200, 7)
	tracer := NewTracer(DefaultConfig(), nil)
	if _, err := tracer.IntersectBatch(context.Background(), surf, rays); err != nil {
		t.Fatalf("IntersectBatch failed: %v", err)
	}
	for i, r := range rays {
		if r.Failed {
			continue
		}
		if d := math.Abs(r.Origin.Z - surf.Sag(r.Origin.X, r.Origin.Y)); d > 1e-12 {
			t.Errorf("Ray %d is %g off the surface", i, d)
		}
	}
}

func TestIntersectBatchDevice_MatchesHost(t *testing.T) {
	surfaces := []MirroredSurface{
		surface.NewPlane(false),
		surface.NewSphere(3),
		surface.NewAsphere(4, -1.2, []float64{1e-3, -2e-5}),
		surface.NewSimpleGrating(1, 1e6, 0.3),
	}

	dev := device.New("test", device.Config{Workers: 3, ChunkSize: 17}, nil)
	defer dev.Close()
	tracer := NewTracer(Config{NumWorkers: 2, ChunkSize: 50}, nil)

	for _, surf := range surfaces {
		t.Run(fmt.Sprint(surf), func(t *testing.T) {
			defer surf.Close()
			host := rayFan(300, 3)
			onDevice := rayFan(300, 3)

			hostStats, err := tracer.IntersectBatch(context.Background(), surf, host)
			if err != nil {
				t.Fatalf("host: %v", err)
			}
			devStats, err := tracer.IntersectBatchDevice(context.Background(), dev, surf, onDevice)
			if err != nil {
				t.Fatalf("device: %v", err)
			}
			if hostStats != devStats {
				t.Errorf("Expected device stats %v, got %v", hostStats, devStats)
			}
			for i := range host {
				if host[i] != onDevice[i] {
					t.Fatalf("Ray %d: host %v, device %v", i, host[i], onDevice[i])
				}
			}
		})
	}
	if dev.Live() != 0 {
		t.Errorf("Expected device memory to be released, %d records live", dev.Live())
	}
}

func TestIntersectBatchDevice_Released(t *testing.T) {
	dev := device.New("test", device.DefaultConfig(), nil)
	defer dev.Close()

	surf := surface.NewSphere(1)
	surf.Close()
	_, err := NewTracer(DefaultConfig(), nil).IntersectBatchDevice(context.Background(), dev, surf, rayFan(10, 1))
	if !errors.Is(err, device.ErrReleased) {
		t.Errorf("Expected ErrReleased, got %v", err)
	}
}

func TestIntersectBatch_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rays := rayFan(100, 1)
	before := append([]core.Ray(nil), rays...)
	tracer := NewTracer(Config{NumWorkers: 2, ChunkSize: 10}, nil)
	if _, err := tracer.IntersectBatch(ctx, surface.NewSphere(3), rays); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	for i := range rays {
		if rays[i] != before[i] {
			t.Fatalf("Ray %d was traced after cancellation", i)
		}
	}
}

func TestIntersectBatch_Empty(t *testing.T) {
	stats, err := NewTracer(DefaultConfig(), nil).IntersectBatch(context.Background(), surface.NewSphere(1), nil)
	if err != nil || stats != (Stats{}) {
		t.Errorf("Expected empty result, got %v, %v", stats, err)
	}
}

func TestCoefsBatch(t *testing.T) {
	table := coating.NewTableCoating(
		[]float64{400e-9, 500e-9, 700e-9},
		[]float64{0.1, 0.2, 0.4},
		[]float64{0.9, 0.7, 0.5},
	)
	defer table.Close()

	n := 500
	wavelengths := make([]float64, n)
	cos := make([]float64, n)
	for i := range wavelengths {
		wavelengths[i] = 350e-9 + 400e-9*float64(i)/float64(n)
		cos[i] = 1
	}

	tracer := NewTracer(Config{NumWorkers: 3, ChunkSize: 64}, nil)
	r, tr, err := tracer.CoefsBatch(context.Background(), table, wavelengths, cos)
	if err != nil {
		t.Fatalf("CoefsBatch failed: %v", err)
	}

	dev := device.New("test", device.DefaultConfig(), nil)
	defer dev.Close()
	dr, dtr, err := tracer.CoefsBatchDevice(context.Background(), dev, table, wavelengths, cos)
	if err != nil {
		t.Fatalf("CoefsBatchDevice failed: %v", err)
	}

	for i, w := range wavelengths {
		wantR, wantT := table.Coefs(w, 1)
		if !sameFloat(r[i], wantR) || !sameFloat(tr[i], wantT) {
			t.Errorf("host %g: expected (%g, %g), got (%g, %g)", w, wantR, wantT, r[i], tr[i])
		}
		if !sameFloat(dr[i], wantR) || !sameFloat(dtr[i], wantT) {
			t.Errorf("device %g: expected (%g, %g), got (%g, %g)", w, wantR, wantT, dr[i], dtr[i])
		}
	}
}

func TestCoefsBatch_LengthMismatch(t *testing.T) {
	tracer := NewTracer(DefaultConfig(), nil)
	c := coating.NewSimpleCoating(0.5, 0.5)
	if _, _, err := tracer.CoefsBatch(context.Background(), c, []float64{1, 2}, []float64{1}); !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("Expected ErrLengthMismatch, got %v", err)
	}
	dev := device.New("test", device.DefaultConfig(), nil)
	defer dev.Close()
	if _, _, err := tracer.CoefsBatchDevice(context.Background(), dev, c, nil, []float64{1}); !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("Expected ErrLengthMismatch, got %v", err)
	}
}

func sameFloat(a, b float64) bool {
	return a == b || (math.IsNaN(a) && math.IsNaN(b))
}
