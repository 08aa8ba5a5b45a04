package surface

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/df07/go-optics/pkg/core"
	"github.com/df07/go-optics/pkg/device"
)

type mirroredSurface interface {
	Surface
	Mirrored
}

func newTestDevice() *device.Device {
	return device.New("test", device.DefaultConfig(), nil)
}

func TestLoad_MatchesHost(t *testing.T) {
	dev := newTestDevice()
	defer dev.Close()

	surfaces := []mirroredSurface{
		NewPlane(false),
		NewPlane(true),
		NewQuadric(10, -1),
		NewSphere(-4),
		NewAsphere(20, -0.3, []float64{1e-4, -3e-6}),
		NewGrating(1),
		NewSimpleGrating(1, 1000, 0.3),
		DefaultHologramGrating(),
	}
	origin := core.NewVec3(0.2, -0.1, -1)
	velocity := core.NewVec3(0.01, 0.02, 1).Normalize()

	for _, host := range surfaces {
		p, err := host.DevPtr(dev)
		if err != nil {
			t.Fatalf("%v: DevPtr failed: %v", host, err)
		}
		mirror, err := Load(dev, p)
		if err != nil {
			t.Fatalf("%v: Load failed: %v", host, err)
		}

		if hs, ms := host.Sag(0.3, 0.4), mirror.Sag(0.3, 0.4); hs != ms {
			t.Errorf("%v: host sag %g, device sag %g", host, hs, ms)
		}
		if hn, mn := host.Normal(0.3, 0.4), mirror.Normal(0.3, 0.4); hn != mn {
			t.Errorf("%v: host normal %v, device normal %v", host, hn, mn)
		}
		ht, hok := host.TimeToIntersect(origin, velocity)
		mt, mok := mirror.TimeToIntersect(origin, velocity)
		if ht != mt || hok != mok {
			t.Errorf("%v: host (%g, %t), device (%g, %t)", host, ht, hok, mt, mok)
		}
	}

	if dev.Live() != len(surfaces) {
		t.Errorf("Expected %d live records, got %d", len(surfaces), dev.Live())
	}
	for _, s := range surfaces {
		if err := s.Close(); err != nil {
			t.Errorf("%v: Close failed: %v", s, err)
		}
	}
	if dev.Live() != 0 {
		t.Errorf("Expected no live records after Close, got %d", dev.Live())
	}
}

func TestLoadGrating_MatchesHost(t *testing.T) {
	dev := newTestDevice()
	defer dev.Close()

	host := NewHologramGrating(-2, 400e-9, core.NewVec3(-1e-2, 2e-3, 4e-2), core.NewVec3(2e-2, 0, 6e-2))
	defer host.Close()

	p, err := host.DevPtr(dev)
	if err != nil {
		t.Fatalf("DevPtr failed: %v", err)
	}
	g, err := LoadGrating(dev, p)
	if err != nil {
		t.Fatalf("LoadGrating failed: %v", err)
	}
	if g.Order() != -2 {
		t.Errorf("Expected order -2, got %d", g.Order())
	}
	if hn, gn := host.N(1e-3, 2e-3), g.N(1e-3, 2e-3); hn != gn {
		t.Errorf("Host N %g, device N %g", hn, gn)
	}
	if ha, ga := host.DispAxis(1e-3, 2e-3), g.DispAxis(1e-3, 2e-3); ha != ga {
		t.Errorf("Host axis %v, device axis %v", ha, ga)
	}

	q := NewQuadric(1, 0)
	defer q.Close()
	qp, _ := q.DevPtr(dev)
	if _, err := LoadGrating(dev, qp); !errors.Is(err, device.ErrUnknownKind) {
		t.Errorf("Expected ErrUnknownKind loading a quadric as a grating, got %v", err)
	}
}

func TestDevPtr_Idempotent(t *testing.T) {
	dev := newTestDevice()
	defer dev.Close()

	a := NewAsphere(5, 0, []float64{1e-3})
	first, err := a.DevPtr(dev)
	if err != nil {
		t.Fatalf("DevPtr failed: %v", err)
	}
	second, err := a.DevPtr(dev)
	if err != nil {
		t.Fatalf("DevPtr failed: %v", err)
	}
	if first != second {
		t.Errorf("Expected the cached pointer %d, got %d", first, second)
	}
	if dev.Live() != 1 {
		t.Errorf("Expected a single device record, got %d", dev.Live())
	}

	if err := a.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Errorf("Second Close should be a no-op, got %v", err)
	}
	if _, err := a.DevPtr(dev); !errors.Is(err, device.ErrReleased) {
		t.Errorf("Expected ErrReleased after Close, got %v", err)
	}
}

func TestDevPtr_Concurrent(t *testing.T) {
	dev := newTestDevice()
	defer dev.Close()

	g := NewSimpleGrating(1, 600, 0)
	defer g.Close()

	const callers = 32
	ptrs := make([]device.Ptr, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := g.DevPtr(dev)
			if err != nil {
				t.Errorf("DevPtr failed: %v", err)
			}
			ptrs[i] = p
		}()
	}
	wg.Wait()

	for i, p := range ptrs {
		if p != ptrs[0] {
			t.Errorf("Caller %d got %d, expected %d", i, p, ptrs[0])
		}
	}
	if dev.Live() != 1 {
		t.Errorf("Expected one device record, got %d", dev.Live())
	}
}

func TestDevPtr_DeviceMismatch(t *testing.T) {
	a, b := newTestDevice(), device.New("other", device.DefaultConfig(), nil)
	defer a.Close()
	defer b.Close()

	q := NewQuadric(3, 0)
	defer q.Close()
	if _, err := q.DevPtr(a); err != nil {
		t.Fatalf("DevPtr failed: %v", err)
	}
	if _, err := q.DevPtr(b); !errors.Is(err, device.ErrDeviceMismatch) {
		t.Errorf("Expected ErrDeviceMismatch, got %v", err)
	}
}

func TestLoad_KernelEvaluation(t *testing.T) {
	dev := newTestDevice()
	defer dev.Close()

	host := NewAsphere(-15, -1.2, []float64{2e-5, 1e-7})
	defer host.Close()
	p, err := host.DevPtr(dev)
	if err != nil {
		t.Fatalf("DevPtr failed: %v", err)
	}
	s, err := Load(dev, p)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	const n = 1000
	times := make([]float64, n)
	err = dev.Launch(context.Background(), n, func(i int) error {
		x := -2 + 4*float64(i)/n
		dt, ok := s.TimeToIntersect(core.NewVec3(x, 0.5, -10), core.NewVec3(0, 0, 1))
		if !ok {
			dt = math.NaN()
		}
		times[i] = dt
		return nil
	})
	if err != nil {
		t.Fatalf("Launch failed: %v", err)
	}

	for i, dt := range times {
		x := -2 + 4*float64(i)/n
		expected, ok := host.TimeToIntersect(core.NewVec3(x, 0.5, -10), core.NewVec3(0, 0, 1))
		if !ok || dt != expected {
			t.Errorf("Ray %d: device t=%g, host t=%g (ok=%t)", i, dt, expected, ok)
		}
	}
}
