package core

import "fmt"

// Ray is a light ray in the local coordinates of the surface it is being
// traced against. Velocity has magnitude 1/n in a medium of index n.
type Ray struct {
	Origin     Vec3    // Position at Time
	Velocity   Vec3    // Propagation velocity
	Time       float64 // Time at which the ray is at Origin
	Wavelength float64 // Vacuum wavelength
	Flux       float64 // Carried energy fraction
	Vignetted  bool    // Blocked by an obscuration, still propagated
	Failed     bool    // Terminal: no further geometry is valid
}

// NewRay creates a new ray with unit flux at time 0
func NewRay(origin, velocity Vec3, wavelength float64) Ray {
	return Ray{
		Origin:     origin,
		Velocity:   velocity,
		Wavelength: wavelength,
		Flux:       1,
	}
}

// FailedRay returns a ray in the terminal failed state
func FailedRay() Ray {
	return Ray{Failed: true, Vignetted: true}
}

// At returns the position after propagating for dt
func (r Ray) At(dt float64) Vec3 {
	return r.Origin.Add(r.Velocity.Multiply(dt))
}

// PositionAtTime returns the position at absolute time t
func (r Ray) PositionAtTime(t float64) Vec3 {
	return r.At(t - r.Time)
}

// Propagate returns the ray moved forward by dt
func (r Ray) Propagate(dt float64) Ray {
	r.Origin = r.At(dt)
	r.Time += dt
	return r
}

// Fail marks the ray as failed. Failed rays are also vignetted.
func (r Ray) Fail() Ray {
	r.Failed = true
	r.Vignetted = true
	return r
}

func (r Ray) String() string {
	if r.Failed {
		return "Ray(failed)"
	}
	return fmt.Sprintf("Ray(%v, %v, t=%g, wavelength=%g, flux=%g, vignetted=%t)",
		r.Origin, r.Velocity, r.Time, r.Wavelength, r.Flux, r.Vignetted)
}
