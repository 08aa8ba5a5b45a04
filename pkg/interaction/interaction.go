// Package interaction redirects a ray at a surface it has just reached:
// specular reflection, refraction and grating diffraction. Each function
// takes the ray at the intersection point and returns the outgoing ray with
// its flux weighted by an optional coating.
package interaction

import (
	"math"

	"github.com/df07/go-optics/pkg/coating"
	"github.com/df07/go-optics/pkg/core"
	"github.com/df07/go-optics/pkg/surface"
)

// Reflect mirrors the ray about normal. The speed of the ray is unchanged.
func Reflect(r core.Ray, normal core.Vec3, c coating.Coating) core.Ray {
	if r.Failed {
		return r
	}
	n, cosi := orient(r.Velocity.Normalize(), normal)
	r.Velocity = reflectVector(r.Velocity, n)
	if c != nil {
		r.Flux *= c.Reflect(r.Wavelength, cosi)
	}
	return r
}

// Refract bends the ray from a medium of index n1 into one of index n2
// using the vector form of Snell's law. Total internal reflection fails the
// ray.
func Refract(r core.Ray, normal core.Vec3, n1, n2 float64, c coating.Coating) core.Ray {
	if r.Failed {
		return r
	}
	d := r.Velocity.Normalize()
	n, cosi := orient(d, normal)
	dir, ok := refractVector(d, n, cosi, n1/n2)
	if !ok {
		return r.Fail()
	}
	r.Velocity = dir.Multiply(1 / n2)
	if c != nil {
		r.Flux *= c.Transmit(r.Wavelength, cosi)
	}
	return r
}

// Diffract sends the ray into the grating's diffraction order. The
// tangential direction cosine gains order*wavelength*N along the local
// dispersion axis. With reflect set the ray stays in the n1 medium,
// otherwise it is transmitted into n2. Evanescent orders fail the ray.
func Diffract(r core.Ray, g surface.Grating, n1, n2 float64, reflect bool, c coating.Coating) core.Ray {
	if r.Failed {
		return r
	}
	x, y := r.Origin.X, r.Origin.Y
	d := r.Velocity.Normalize()
	n, cosi := orient(d, g.Normal(x, y))

	nOut := n2
	if reflect {
		nOut = n1
	}

	// Tangential part of the incident direction, scaled by index.
	tangent := d.Add(n.Multiply(cosi)).Multiply(n1)
	shift := float64(g.Order()) * r.Wavelength * g.N(x, y)
	tangent = tangent.Add(g.DispAxis(x, y).Multiply(shift)).Multiply(1 / nOut)

	sin2 := tangent.LengthSquared()
	if sin2 > 1 {
		return r.Fail()
	}
	cosOut := math.Sqrt(1 - sin2)
	// n faces the incoming ray, so transmitted light continues along -n.
	if !reflect {
		cosOut = -cosOut
	}
	r.Velocity = tangent.Add(n.Multiply(cosOut)).Multiply(1 / nOut)

	if c != nil {
		if reflect {
			r.Flux *= c.Reflect(r.Wavelength, cosi)
		} else {
			r.Flux *= c.Transmit(r.Wavelength, cosi)
		}
	}
	return r
}

// Split divides the ray at an interface between indices n1 and n2 into a
// reflected and a refracted ray. The coating is evaluated once and weights
// each branch. With no coating the Schlick reflectance is used and the rest
// is transmitted. Total internal reflection fails only the refracted ray.
func Split(r core.Ray, normal core.Vec3, n1, n2 float64, c coating.Coating) (reflected, refracted core.Ray) {
	if r.Failed {
		return r, r
	}
	_, cosi := orient(r.Velocity.Normalize(), normal)
	reflect, transmit := splitCoefs(c, r.Wavelength, cosi, n1, n2)

	reflected = Reflect(r, normal, nil)
	reflected.Flux *= reflect
	refracted = Refract(r, normal, n1, n2, nil)
	refracted.Flux *= transmit
	return reflected, refracted
}

// SplitGrating divides the ray at a grating into its reflected and
// transmitted diffraction orders, weighted like Split. An evanescent order
// fails only its own branch.
func SplitGrating(r core.Ray, g surface.Grating, n1, n2 float64, c coating.Coating) (reflected, transmitted core.Ray) {
	if r.Failed {
		return r, r
	}
	_, cosi := orient(r.Velocity.Normalize(), g.Normal(r.Origin.X, r.Origin.Y))
	reflect, transmit := splitCoefs(c, r.Wavelength, cosi, n1, n2)

	reflected = Diffract(r, g, n1, n2, true, nil)
	reflected.Flux *= reflect
	transmitted = Diffract(r, g, n1, n2, false, nil)
	transmitted.Flux *= transmit
	return reflected, transmitted
}

func splitCoefs(c coating.Coating, wavelength, cosi, n1, n2 float64) (reflect, transmit float64) {
	if c == nil {
		reflect = Schlick(cosi, n1, n2)
		return reflect, 1 - reflect
	}
	return c.Coefs(wavelength, cosi)
}

// Schlick approximates the Fresnel reflectance of an interface between
// indices n1 and n2.
func Schlick(cosine, n1, n2 float64) float64 {
	r0 := (n1 - n2) / (n1 + n2)
	r0 = r0 * r0
	return r0 + (1-r0)*math.Pow(1-cosine, 5)
}

// orient flips normal to face against d and returns it with the incidence
// cosine.
func orient(d, normal core.Vec3) (core.Vec3, float64) {
	cosi := -d.Dot(normal)
	if cosi < 0 {
		return normal.Negate(), -cosi
	}
	return normal, cosi
}

// reflectVector calculates the reflection of v off a surface with normal n
func reflectVector(v, n core.Vec3) core.Vec3 {
	// r = v - 2*dot(v,n)*n
	return v.Subtract(n.Multiply(2 * v.Dot(n)))
}

// refractVector returns the unit refracted direction of the unit vector d
func refractVector(d, n core.Vec3, cosi, eta float64) (core.Vec3, bool) {
	k := 1 - eta*eta*(1-cosi*cosi)
	if k < 0 {
		return core.Vec3{}, false
	}
	return d.Multiply(eta).Add(n.Multiply(eta*cosi - math.Sqrt(k))), true
}
