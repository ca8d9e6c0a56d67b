// airports/airports.go
// Copyright(c) 2025-2026 flighttrack contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package airports loads the packed airport database that is drawn
// under the traffic. The database is a zstd-compressed msgpack array of
// records, built from the OurAirports CSV dump by cmd/packairports.
package airports

import (
	"fmt"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/mmp/flighttrack/math"
	"github.com/mmp/flighttrack/tiles"
	"github.com/mmp/flighttrack/util"
)

// Airport is one record from the packed database. Latitude and
// Longitude are WGS84 degrees; Elevation is feet.
type Airport struct {
	Icao      string
	Iata      string
	Name      string
	Type      string
	Latitude  float64
	Longitude float64
	Elevation float64
}

// Load reads a packed airport database.
func Load(path string) ([]Airport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	zr, err := zstd.NewReader(f, zstd.WithDecoderConcurrency(0))
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var ap []Airport
	if err := msgpack.NewDecoder(zr).Decode(&ap); err != nil {
		return nil, fmt.Errorf("%s: decoding airports: %w", path, err)
	}
	return ap, nil
}

// Write writes a packed airport database.
func Write(path string, ap []Airport) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	zw, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		f.Close()
		return err
	}
	if err := msgpack.NewEncoder(zw).Encode(ap); err != nil {
		zw.Close()
		f.Close()
		return err
	}
	if err := zw.Close(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// InView returns the airports whose position falls inside the viewport,
// taking wrapping across the antimeridian into account.
func InView(ap []Airport, vp tiles.Viewport) []Airport {
	if vp.Empty() {
		return nil
	}
	width := vp.BottomRight[0] - vp.TopLeft[0]
	return util.FilterSlice(ap, func(a Airport) bool {
		y := math.YFromLatitude(a.Latitude)
		if y < vp.TopLeft[1] || y > vp.BottomRight[1] {
			return false
		}
		dx := math.FloorMod(math.XFromLongitude(a.Longitude)-vp.TopLeft[0], 1)
		return dx <= width
	})
}
