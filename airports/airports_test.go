// airports/airports_test.go
// Copyright(c) 2025-2026 flighttrack contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package airports

import (
	"path/filepath"
	"testing"

	"github.com/mmp/flighttrack/math"
	"github.com/mmp/flighttrack/tiles"
)

var testAirports = []Airport{
	{Icao: "KSNA", Iata: "SNA", Name: "John Wayne Airport", Type: "large_airport",
		Latitude: 33.6757, Longitude: -117.8682, Elevation: 56},
	{Icao: "KLAX", Iata: "LAX", Name: "Los Angeles International", Type: "large_airport",
		Latitude: 33.9425, Longitude: -118.408, Elevation: 125},
	{Icao: "NZSP", Name: "South Pole Station", Type: "small_airport",
		Latitude: -90, Longitude: 0, Elevation: 9300},
}

func TestLoadWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "airports.msgpack.zst")
	if err := Write(path, testAirports); err != nil {
		t.Fatalf("Write: %v", err)
	}

	ap, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(ap) != len(testAirports) {
		t.Fatalf("%d airports loaded, want %d", len(ap), len(testAirports))
	}
	for i := range ap {
		if ap[i] != testAirports[i] {
			t.Errorf("airport %d: %+v != %+v", i, ap[i], testAirports[i])
		}
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.msgpack.zst")); err == nil {
		t.Error("no error loading a nonexistent database")
	}
}

func viewportAround(lat, lng, halfWidth float64) tiles.Viewport {
	cx, cy := math.XFromLongitude(lng), math.YFromLatitude(lat)
	return tiles.Viewport{
		TopLeft:     [2]float64{cx - halfWidth, cy - halfWidth},
		BottomRight: [2]float64{cx + halfWidth, cy + halfWidth},
	}
}

func TestInView(t *testing.T) {
	// A tight view around KSNA excludes KLAX and the pole.
	got := InView(testAirports, viewportAround(33.6757, -117.8682, 0.0005))
	if len(got) != 1 || got[0].Icao != "KSNA" {
		t.Errorf("tight view sees %+v, want just KSNA", got)
	}

	// A wide LA-basin view includes both.
	got = InView(testAirports, viewportAround(33.8, -118.1, 0.005))
	if len(got) != 2 {
		t.Errorf("basin view sees %d airports, want 2", len(got))
	}

	// A view straddling the antimeridian still finds airports just east
	// of it.
	akl := []Airport{{Icao: "NZAA", Latitude: -37.008, Longitude: 174.792}}
	vp := viewportAround(-37, 179.9, 0.02)
	if got = InView(akl, vp); len(got) != 1 {
		t.Errorf("antimeridian view misses NZAA (viewport %+v)", vp)
	}

	if got = InView(testAirports, tiles.Viewport{}); got != nil {
		t.Errorf("empty viewport sees %+v", got)
	}
}
