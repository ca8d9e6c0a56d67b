// mapview/graticule_test.go
// Copyright(c) 2025-2026 flighttrack contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package mapview

import (
	"testing"

	"github.com/mmp/flighttrack/math"
	"github.com/mmp/flighttrack/tiles"
)

func TestLineDistanceForViewportDegrees(t *testing.T) {
	for _, tc := range []struct {
		worldRange, dimension float64
		want                  float64
	}{
		{0.1, 720, 5},   // 12.5 mapped degrees
		{0.5, 720, 15},  // 62.5 mapped degrees
		{1.0, 720, 45},  // whole-world view
		{0.02, 720, 1},  // 2.5 mapped degrees
		{0.018, 720, 1}, // 2.25 mapped degrees, just over the threshold
	} {
		got := LineDistanceForViewportDegrees(tc.worldRange, tc.dimension)
		if got != tc.want {
			t.Errorf("LineDistance(%v, %v) = %v, want %v", tc.worldRange, tc.dimension, got, tc.want)
		}
	}
}

func TestLineDistanceFineFallback(t *testing.T) {
	// Below the smallest listed spacing, decade-scaled steps take over.
	for _, tc := range []struct {
		worldRange float64
		want       float64
	}{
		{0.0056, 0.5}, // 0.7 mapped degrees
		{0.004, 0.2},
		{0.0008, 0.05},
		{0.0003, 0.02},
	} {
		got := LineDistanceForViewportDegrees(tc.worldRange, 720)
		if math.Abs(got-tc.want) > 1e-12 {
			t.Errorf("LineDistance(%v, 720) = %v, want %v", tc.worldRange, got, tc.want)
		}
	}
}

func TestLineDistanceMonotonic(t *testing.T) {
	// Shrinking the visible range never widens the spacing.
	prev := 0.0
	for r := 1e-6; r <= 1.0; r *= 1.05 {
		d := LineDistanceForViewportDegrees(r, 720)
		if d < prev {
			t.Fatalf("spacing %v at range %v, below %v at a smaller range", d, r, prev)
		}
		prev = d
	}
}

func TestLabelPrecision(t *testing.T) {
	for _, tc := range []struct {
		spacing float64
		want    int
	}{
		{45, 0}, {5, 0}, {1, 0},
		{0.5, 1}, {0.2, 1}, {0.1, 1},
		{0.05, 2}, {0.01, 2},
	} {
		if got := labelPrecision(tc.spacing); got != tc.want {
			t.Errorf("labelPrecision(%v) = %d, want %d", tc.spacing, got, tc.want)
		}
	}
}

func viewportAround(lat, lng, zoom float64, w, h float64) tiles.Viewport {
	return NewTileView(lat, lng, zoom, 256).GetViewport(w, h)
}

func TestLatitudeLines(t *testing.T) {
	const w, h = 1280, 720
	vp := viewportAround(40, -100, 6, w, h)
	lines := LatitudeLines(vp, w, h)
	if len(lines) == 0 {
		t.Fatal("no latitude lines for a mid-latitude view")
	}

	dist := LineDistanceForViewportDegrees(vp.BottomRight[1]-vp.TopLeft[1], h)
	latTop := math.LatitudeFromY(vp.TopLeft[1])
	for i, l := range lines {
		// Lines land on multiples of the spacing, descending from the
		// first multiple at or below the top edge.
		if m := math.FloorMod(l.Degrees, dist); math.Abs(m) > 1e-9 && math.Abs(m-dist) > 1e-9 {
			t.Errorf("line %d at %v° is not a multiple of %v", i, l.Degrees, dist)
		}
		if l.Degrees > latTop+dist {
			t.Errorf("line %d at %v° is above the visible range", i, l.Degrees)
		}
		if i > 0 && math.Abs(lines[i-1].Degrees-l.Degrees-dist) > 1e-9 {
			t.Errorf("lines %d..%d are %v° apart, want %v", i-1, i, lines[i-1].Degrees-l.Degrees, dist)
		}
		// Screen positions descend with latitude.
		if i > 0 && lines[i-1].ScreenPos <= l.ScreenPos {
			t.Errorf("line %d does not descend: %v then %v", i, lines[i-1].ScreenPos, l.ScreenPos)
		}
	}

	// 40°N itself is visible and labeled.
	found := false
	for _, l := range lines {
		if l.Degrees == 40 {
			found = true
			if l.Label != "40°N" {
				t.Errorf("label %q for 40°N", l.Label)
			}
			if math.Abs(l.ScreenPos) > 1 {
				t.Errorf("40°N at screen y %v, want the window center", l.ScreenPos)
			}
		}
	}
	if !found {
		t.Error("no line at 40°N for a view centered there")
	}
}

func TestLatitudeLineLabelsSouth(t *testing.T) {
	const w, h = 1280, 720
	vp := viewportAround(-30, 140, 6, w, h)
	for _, l := range LatitudeLines(vp, w, h) {
		if l.Degrees < 0 {
			want := "S"
			if got := l.Label[len(l.Label)-1:]; got != want {
				t.Errorf("southern line %v° labeled %q", l.Degrees, l.Label)
			}
			return
		}
	}
	t.Error("no southern lines for a view centered at 30°S")
}

func TestLongitudeLines(t *testing.T) {
	const w, h = 1280, 720
	vp := viewportAround(40, -100, 6, w, h)
	lines := LongitudeLines(vp, w, h)
	if len(lines) == 0 {
		t.Fatal("no longitude lines for a mid-latitude view")
	}

	dist := LineDistanceForViewportDegrees(vp.BottomRight[0]-vp.TopLeft[0], w)
	// Lines may overhang the window edges by up to two spacings.
	slack := 2 * math.WorldWidthFromLongitude(dist) / (vp.BottomRight[0] - vp.TopLeft[0]) * w
	for i, l := range lines {
		if m := math.FloorMod(l.Degrees, dist); math.Abs(m) > 1e-9 && math.Abs(m-dist) > 1e-9 {
			t.Errorf("line %d at %v° is not a multiple of %v", i, l.Degrees, dist)
		}
		if l.ScreenPos < -w/2-slack || l.ScreenPos > w/2+slack {
			t.Errorf("line %d at screen x %v, far outside the window", i, l.ScreenPos)
		}
		// Positions ascend left to right.
		if i > 0 && lines[i-1].ScreenPos >= l.ScreenPos {
			t.Errorf("line %d does not ascend: %v then %v", i, lines[i-1].ScreenPos, l.ScreenPos)
		}
	}

	found := false
	for _, l := range lines {
		if l.Degrees == -100 {
			found = true
			if l.Label != "100°W" {
				t.Errorf("label %q for 100°W", l.Label)
			}
		}
	}
	if !found {
		t.Error("no line at 100°W for a view centered there")
	}
}

func TestLongitudeLinesAcrossAntimeridian(t *testing.T) {
	const w, h = 1280, 720
	vp := viewportAround(0, 179.5, 5, w, h)
	lines := LongitudeLines(vp, w, h)
	if len(lines) == 0 {
		t.Fatal("no longitude lines across the antimeridian")
	}
	sawEast, sawWest := false, false
	for _, l := range lines {
		if l.Degrees > 90 {
			sawEast = true
		}
		if l.Degrees < -90 {
			sawWest = true
		}
		if l.Degrees <= -180 || l.Degrees > 180 {
			t.Errorf("line at %v°, outside (-180, 180]", l.Degrees)
		}
	}
	if !sawEast || !sawWest {
		t.Errorf("lines on both sides of the antimeridian: east=%v west=%v", sawEast, sawWest)
	}
}

func TestGridLinesEmptyViewport(t *testing.T) {
	var vp tiles.Viewport
	if got := LatitudeLines(vp, 1280, 720); got != nil {
		t.Errorf("latitude lines %v for an empty viewport", got)
	}
	if got := LongitudeLines(vp, 1280, 720); got != nil {
		t.Errorf("longitude lines %v for an empty viewport", got)
	}
}
