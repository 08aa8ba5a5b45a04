// Package solver finds roots of scalar functions that have no closed form.
//
// Bracket grows an initial interval until the residual changes sign and Root
// refines a bracketing interval with Brent's method. Both report failure as
// an error wrapping ErrBracket or ErrConvergence; geometry callers turn those
// into a missed intersection.
package solver

import (
	"errors"
	"fmt"
	"math"
)

const machineEpsilon = 0x1p-52

var (
	// ErrBracket means no sign change was found in the search interval.
	ErrBracket = errors.New("solver: root not bracketed")

	// ErrConvergence means the iteration budget ran out before the
	// interval shrank below the tolerance.
	ErrConvergence = errors.New("solver: root did not converge")
)

// Func is a continuous scalar residual.
type Func func(t float64) float64

// Config controls bracketing and refinement
type Config struct {
	XTolerance    float64 // Absolute tolerance on the root location
	MaxIter       int     // Maximum Brent iterations
	BracketTries  int     // Maximum interval expansions
	BracketFactor float64 // Growth factor per expansion
}

// DefaultConfig returns the settings used for surface intersection
func DefaultConfig() Config {
	return Config{
		XTolerance:    1e-12,
		MaxIter:       100,
		BracketTries:  50,
		BracketFactor: 1.6,
	}
}

// Solve brackets a root starting from [a, b] and refines it.
func Solve(f Func, a, b float64, cfg Config) (float64, error) {
	a, b, err := Bracket(f, a, b, cfg)
	if err != nil {
		return 0, err
	}
	return Root(f, a, b, cfg)
}

// Bracket expands [a, b] until f changes sign across it. The endpoint whose
// residual is smaller in magnitude is pushed away from the other one.
func Bracket(f Func, a, b float64, cfg Config) (float64, float64, error) {
	if a == b {
		return a, b, fmt.Errorf("%w: empty initial interval at %g", ErrBracket, a)
	}
	fa, fb := f(a), f(b)
	for i := 0; ; i++ {
		if math.IsNaN(fa) || math.IsNaN(fb) {
			return a, b, fmt.Errorf("%w: residual is NaN on [%g, %g]", ErrBracket, a, b)
		}
		if brackets(fa, fb) {
			return a, b, nil
		}
		if i >= cfg.BracketTries {
			break
		}
		if math.Abs(fa) < math.Abs(fb) {
			a += cfg.BracketFactor * (a - b)
			fa = f(a)
		} else {
			b += cfg.BracketFactor * (b - a)
			fb = f(b)
		}
	}
	return a, b, fmt.Errorf("%w: no sign change after %d expansions", ErrBracket, cfg.BracketTries)
}

// Root refines a bracketing interval [a, b] with Brent's method.
func Root(f Func, a, b float64, cfg Config) (float64, error) {
	fa, fb := f(a), f(b)
	if fa == 0 {
		return a, nil
	}
	if fb == 0 {
		return b, nil
	}
	if !brackets(fa, fb) {
		return 0, fmt.Errorf("%w: f(%g)=%g and f(%g)=%g share a sign", ErrBracket, a, fa, b, fb)
	}

	c, fc := b, fb
	var d, e float64
	for i := 0; i < cfg.MaxIter; i++ {
		if (fb > 0) == (fc > 0) {
			// Keep the root between b and c.
			c, fc = a, fa
			d = b - a
			e = d
		}
		if math.Abs(fc) < math.Abs(fb) {
			a, b, c = b, c, b
			fa, fb, fc = fb, fc, fb
		}
		tol := 2*machineEpsilon*math.Abs(b) + 0.5*cfg.XTolerance
		xm := 0.5 * (c - b)
		if math.Abs(xm) <= tol || fb == 0 {
			return b, nil
		}
		if math.Abs(e) >= tol && math.Abs(fa) > math.Abs(fb) {
			var p, q float64
			s := fb / fa
			if a == c {
				// Secant step
				p = 2 * xm * s
				q = 1 - s
			} else {
				// Inverse quadratic interpolation
				q = fa / fc
				r := fb / fc
				p = s * (2*xm*q*(q-r) - (b-a)*(r-1))
				q = (q - 1) * (r - 1) * (s - 1)
			}
			if p > 0 {
				q = -q
			}
			p = math.Abs(p)
			if 2*p < math.Min(3*xm*q-math.Abs(tol*q), math.Abs(e*q)) {
				e = d
				d = p / q
			} else {
				d = xm
				e = d
			}
		} else {
			d = xm
			e = d
		}
		a, fa = b, fb
		if math.Abs(d) > tol {
			b += d
		} else {
			b += math.Copysign(tol, xm)
		}
		fb = f(b)
		if math.IsNaN(fb) {
			return 0, fmt.Errorf("%w: residual became NaN at %g", ErrConvergence, b)
		}
	}
	return 0, fmt.Errorf("%w: %d iterations exhausted", ErrConvergence, cfg.MaxIter)
}

func brackets(fa, fb float64) bool {
	return fa == 0 || fb == 0 || (fa > 0) != (fb > 0)
}
