// mapview/graticule.go
// Copyright(c) 2025-2026 flighttrack contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package mapview

import (
	"fmt"

	"github.com/mmp/flighttrack/math"
	"github.com/mmp/flighttrack/tiles"
	"github.com/mmp/flighttrack/util"
)

// The graticule spacing aims for a grid line roughly every 500 screen
// pixels, snapped to round degree intervals. A candidate spacing is only
// accepted once the window would show at least two intervals of it.
const graticuleTargetPixels = 500
const graticuleScale = 2.0

// Spacings that align with familiar map graticules; finer grids fall
// back to decade-scaled 0.5/0.2/0.1 steps.
var niceLineDistances = []float64{45, 15, 5, 2, 1}

// LineDistanceForViewportDegrees returns the grid line spacing in
// degrees for a viewport spanning worldRange world units across an axis
// of dimensionPx window pixels.
func LineDistanceForViewportDegrees(worldRange, dimensionPx float64) float64 {
	rangeDegrees := worldRange * 180
	mapped := rangeDegrees * graticuleTargetPixels / dimensionPx

	for _, d := range niceLineDistances {
		if mapped > d*graticuleScale {
			return d
		}
	}

	power := math.Log10(mapped / graticuleScale)
	frac := math.FloorMod(power, 1)
	scale := math.Pow(10, math.Ceil(power))
	switch {
	case frac >= 0.5:
		return 0.5 * scale
	case frac >= 0.2:
		return 0.2 * scale
	default:
		return 0.1 * scale
	}
}

// labelPrecision returns the number of fractional digits needed to
// distinguish labels at the given spacing.
func labelPrecision(spacing float64) int {
	if l := math.Log10(spacing); l < 0 {
		return int(-math.Floor(l))
	}
	return 0
}

// GridLine is one latitude or longitude line to draw: its centered
// window coordinate along the perpendicular axis, its position in
// degrees, and a formatted label.
type GridLine struct {
	ScreenPos float64
	Degrees   float64
	Label     string
}

// LatitudeLines returns the latitude grid lines crossing the viewport,
// top to bottom. Spacing adapts to the window so lines stay legible at
// any zoom.
func LatitudeLines(vp tiles.Viewport, width, height float64) []GridLine {
	if vp.Empty() || height <= 0 {
		return nil
	}

	dist := LineDistanceForViewportDegrees(vp.BottomRight[1]-vp.TopLeft[1], height)
	prec := labelPrecision(dist)

	latTop := math.LatitudeFromY(math.FloorMod(vp.TopLeft[1], 1))
	latBottom := math.LatitudeFromY(math.FloorMod(vp.BottomRight[1], 1))
	latStart := math.ModuloCeil(latTop, dist)
	n := int(math.Ceil((latTop-latBottom)/dist + 1))

	var lines []GridLine
	for i := 0; i < n; i++ {
		lat := latStart - float64(i)*dist
		label := fmt.Sprintf("%.*f°%s", prec, math.Abs(lat), util.Select(lat < 0, "S", "N"))
		lines = append(lines, GridLine{
			ScreenPos: WorldYToPixelY(math.YFromLatitude(lat), vp, height),
			Degrees:   lat,
			Label:     label,
		})
	}
	return lines
}

// LongitudeLines returns the longitude grid lines crossing the viewport,
// left to right, wrapping across the antimeridian as needed.
func LongitudeLines(vp tiles.Viewport, width, height float64) []GridLine {
	if vp.Empty() || width <= 0 {
		return nil
	}

	dist := LineDistanceForViewportDegrees(vp.BottomRight[0]-vp.TopLeft[0], width)
	prec := labelPrecision(dist)
	distWorld := math.WorldWidthFromLongitude(dist)

	lngStart := math.ModuloCeil(math.LongitudeFromX(math.FloorMod(vp.TopLeft[0], 1)), dist)
	xStart := math.ModuloCeil(vp.TopLeft[0], distWorld)
	n := int(math.Ceil((vp.BottomRight[0]-vp.TopLeft[0])/distWorld + 1))

	var lines []GridLine
	for i := 0; i < n; i++ {
		// Fold into (-180, 180] so labels stay sane past the antimeridian.
		lng := 180 - math.FloorMod(180-(lngStart+float64(i)*dist), 360)
		label := fmt.Sprintf("%.*f°%s", prec, math.Abs(lng), util.Select(lng < 0, "W", "E"))
		lines = append(lines, GridLine{
			ScreenPos: WorldXToPixelX(xStart+float64(i)*distWorld, vp, width),
			Degrees:   lng,
			Label:     label,
		})
	}
	return lines
}
