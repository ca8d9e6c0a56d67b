// cmd/packairports/main.go
// Copyright(c) 2025-2026 flighttrack contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// packairports converts the OurAirports airports.csv dump into the
// packed msgpack+zstd database that flighttrack loads at startup.
// Usage: packairports [-types large_airport,medium_airport] <airports.csv> <out.msgpack.zst>

package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/mmp/flighttrack/airports"
)

var keepTypes = flag.String("types", "large_airport,medium_airport,small_airport",
	"comma-separated airport types to include")

func main() {
	flag.Parse()
	if flag.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "Usage: packairports [flags] <airports.csv> <out.msgpack.zst>")
		flag.PrintDefaults()
		os.Exit(1)
	}

	ap, err := convert(flag.Arg(0), strings.Split(*keepTypes, ","))
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", flag.Arg(0), err)
		os.Exit(1)
	}
	if err := airports.Write(flag.Arg(1), ap); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", flag.Arg(1), err)
		os.Exit(1)
	}
	fmt.Printf("packed %d airports to %s\n", len(ap), flag.Arg(1))
}

func convert(path string, types []string) ([]airports.Airport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return parseCSV(f, types)
}

func parseCSV(r io.Reader, types []string) ([]airports.Airport, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	col := make(map[string]int)
	for i, name := range header {
		col[name] = i
	}
	for _, name := range []string{"ident", "type", "name", "latitude_deg", "longitude_deg"} {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("column %q missing from header", name)
		}
	}

	field := func(rec []string, name string) string {
		if i, ok := col[name]; ok && i < len(rec) {
			return rec[i]
		}
		return ""
	}

	var ap []airports.Airport
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		}

		typ := field(rec, "type")
		if !slices.Contains(types, typ) {
			continue
		}

		lat, err := strconv.ParseFloat(field(rec, "latitude_deg"), 64)
		if err != nil {
			fmt.Fprintf(os.Stderr, "line %d: bad latitude %q; skipping\n", line, field(rec, "latitude_deg"))
			continue
		}
		lng, err := strconv.ParseFloat(field(rec, "longitude_deg"), 64)
		if err != nil {
			fmt.Fprintf(os.Stderr, "line %d: bad longitude %q; skipping\n", line, field(rec, "longitude_deg"))
			continue
		}
		// Elevation is often empty; treat it as sea level.
		elev, _ := strconv.ParseFloat(field(rec, "elevation_ft"), 64)

		ap = append(ap, airports.Airport{
			Icao:      field(rec, "ident"),
			Iata:      field(rec, "iata_code"),
			Name:      field(rec, "name"),
			Type:      typ,
			Latitude:  lat,
			Longitude: lng,
			Elevation: elev,
		})
	}
	return ap, nil
}
