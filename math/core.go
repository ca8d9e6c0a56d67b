// math/core.go
// Copyright(c) 2025-2026 flighttrack contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

import (
	gomath "math"

	"golang.org/x/exp/constraints"
)

// Degrees converts an angle expressed in radians to degrees
func Degrees(r float64) float64 {
	return r * 180 / gomath.Pi
}

// Radians converts an angle expressed in degrees to radians
func Radians(d float64) float64 {
	return d / 180 * gomath.Pi
}

// A number of utility functions for evaluating transcendentals and the
// like follow; map geometry is done in float64 throughout since tile
// coordinates at high zoom levels need more precision than float32 offers.

func Floor(v float64) float64 {
	return gomath.Floor(v)
}

func Ceil(v float64) float64 {
	return gomath.Ceil(v)
}

func Sqrt(a float64) float64 {
	return gomath.Sqrt(a)
}

func Pow(a, b float64) float64 {
	return gomath.Pow(a, b)
}

func Log2(a float64) float64 {
	return gomath.Log2(a)
}

func Log10(a float64) float64 {
	return gomath.Log10(a)
}

func Exp2(a float64) float64 {
	return gomath.Exp2(a)
}

func Sin(a float64) float64 {
	return gomath.Sin(a)
}

func Cos(a float64) float64 {
	return gomath.Cos(a)
}

func SinCos(a float64) (sin, cos float64) {
	return gomath.Sincos(a)
}

func Abs[V constraints.Integer | constraints.Float](x V) V {
	if x < 0 {
		return -x
	}
	return x
}

func Sqr[V constraints.Integer | constraints.Float](v V) V { return v * v }

func Clamp[T constraints.Ordered](x T, low T, high T) T {
	if x < low {
		return low
	} else if x > high {
		return high
	}
	return x
}

func Lerp(x, a, b float64) float64 {
	return (1-x)*a + x*b
}

// Remap linearly remaps v from the range [inLow, inHigh] to the range
// [outLow, outHigh]. The division happens before the multiplication so
// that the endpoints map exactly.
func Remap(v, inLow, inHigh, outLow, outHigh float64) float64 {
	return outLow + (v-inLow)/(inHigh-inLow)*(outHigh-outLow)
}

// FloorMod returns the non-negative remainder of a/b (for b > 0), unlike
// math.Mod which follows the sign of a.
func FloorMod(a, b float64) float64 {
	m := gomath.Mod(a, b)
	if m < 0 {
		m += b
	}
	return m
}

// FloorDiv is integer division rounding toward negative infinity.
func FloorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// ModuloCeil returns the smallest integer multiple of m that is >= v.
func ModuloCeil(v, m float64) float64 {
	return m * gomath.Ceil(v/m)
}
