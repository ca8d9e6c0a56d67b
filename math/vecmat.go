// math/vecmat.go
// Copyright(c) 2025-2026 flighttrack contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

///////////////////////////////////////////////////////////////////////////
// point 2d

// Various useful functions for arithmetic with 2D points/vectors.
// Names are brief in order to avoid clutter when they're used.

// a+b
func Add2d(a [2]float64, b [2]float64) [2]float64 {
	return [2]float64{a[0] + b[0], a[1] + b[1]}
}

// a-b
func Sub2d(a [2]float64, b [2]float64) [2]float64 {
	return [2]float64{a[0] - b[0], a[1] - b[1]}
}

// a*s
func Scale2d(a [2]float64, s float64) [2]float64 {
	return [2]float64{s * a[0], s * a[1]}
}

// Length of v
func Length2d(v [2]float64) float64 {
	return Sqrt(v[0]*v[0] + v[1]*v[1])
}

// ClampLength2d scales v down if needed so that its length does not
// exceed maxLength. Spurious input deltas (e.g. from window focus
// changes) are bounded this way before being applied to the camera.
func ClampLength2d(v [2]float64, maxLength float64) [2]float64 {
	l := Length2d(v)
	if l <= maxLength || l == 0 {
		return v
	}
	return Scale2d(v, maxLength/l)
}
