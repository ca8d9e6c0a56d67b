// math/geo.go
// Copyright(c) 2025-2026 flighttrack contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

import gomath "math"

// World coordinates follow the standard normalized slippy-map scheme: x
// runs [0,1) from 180°W eastward and wraps, y runs [0,1] from the
// northern Web-Mercator extent southward. A tile at integer zoom z spans
// 1/2^z world units on each axis.

// MercatorLatMax is the northernmost latitude representable in the
// projection; latitudes are clamped to ±MercatorLatMax.
const MercatorLatMax = 85.051128779806604

// XFromLongitude returns the normalized world x coordinate for a
// longitude given in degrees.
func XFromLongitude(lng float64) float64 {
	return (lng + 180) / 360
}

// LongitudeFromX inverts XFromLongitude.
func LongitudeFromX(x float64) float64 {
	return x*360 - 180
}

// YFromLatitude returns the normalized world y coordinate for a latitude
// given in degrees, using the Web-Mercator projection.
func YFromLatitude(lat float64) float64 {
	lat = Clamp(lat, -MercatorLatMax, MercatorLatMax)
	phi := Radians(lat)
	return (1 - gomath.Log(gomath.Tan(phi)+1/gomath.Cos(phi))/gomath.Pi) / 2
}

// LatitudeFromY inverts YFromLatitude.
func LatitudeFromY(y float64) float64 {
	return Degrees(gomath.Atan(gomath.Sinh(gomath.Pi * (1 - 2*y))))
}

// WrapX wraps a world x coordinate into [0,1); longitude is periodic,
// latitude is not.
func WrapX(x float64) float64 {
	return FloorMod(x, 1)
}

// WorldWidthFromLongitude converts a longitude span in degrees to a span
// in world units.
func WorldWidthFromLongitude(lng float64) float64 {
	return lng / 360
}
