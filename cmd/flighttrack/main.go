// cmd/flighttrack/main.go
// Copyright(c) 2025-2026 flighttrack contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// flighttrack renders a snapshot of the live air traffic picture: map
// tiles fetched from the configured imagery layers, an adaptive
// latitude/longitude graticule, nearby airports from the packed
// database, and aircraft polled from the network feed or received over
// a serial ADS-B/GPS link.
package main

import (
	"context"
	"flag"
	"fmt"
	"image/png"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mmp/flighttrack/adsb"
	"github.com/mmp/flighttrack/airports"
	"github.com/mmp/flighttrack/log"
	"github.com/mmp/flighttrack/mapview"
	"github.com/mmp/flighttrack/math"
	"github.com/mmp/flighttrack/nmea"
	"github.com/mmp/flighttrack/renderer"
	"github.com/mmp/flighttrack/tiles"
	"github.com/mmp/flighttrack/util"
)

var (
	center     = flag.String("center", "33.6757,-117.8682", "map center as lat,lng")
	zoom       = flag.Float64("zoom", 10, "map zoom level (0-20)")
	width      = flag.Int("width", 1280, "output width in pixels")
	height     = flag.Int("height", 720, "output height in pixels")
	output     = flag.String("output", "flighttrack.png", "output PNG path")
	layers     = flag.String("layers", tiles.SatelliteLayer, "comma-separated tile layers to draw")
	airportsDB = flag.String("airports", "", "packed airport database to draw")
	traffic    = flag.Bool("traffic", false, "poll the network feed for live traffic")
	nmeaDevice = flag.String("nmea", "", "serial device to read GPS/ADS-B sentences from")
	timeout    = flag.Duration("timeout", 30*time.Second, "maximum time to wait for tiles and traffic")
	logLevel   = flag.String("loglevel", "info", "logging level: debug, info, warn, error")
	logDir     = flag.String("logdir", "", "directory for rotated log files (default stderr)")
	cpuProfile = flag.String("cpuprofile", "", "write CPU profile to file")
	memProfile = flag.String("memprofile", "", "write memory profile to file")
)

func main() {
	flag.Parse()

	lg := log.New(*logLevel, *logDir)

	prof, err := util.CreateProfiler(*cpuProfile, *memProfile)
	if err != nil {
		lg.Errorf("profiler: %v", err)
		os.Exit(1)
	}
	defer prof.Cleanup()

	lat, lng, err := parseCenter(*center)
	if err != nil {
		lg.Errorf("-center %q: %v", *center, err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := run(ctx, lat, lng, lg); err != nil {
		lg.Errorf("%v", err)
		os.Exit(1)
	}
}

func parseCenter(s string) (lat, lng float64, err error) {
	f := strings.Split(s, ",")
	if len(f) != 2 {
		return 0, 0, fmt.Errorf("expected lat,lng")
	}
	if lat, err = strconv.ParseFloat(strings.TrimSpace(f[0]), 64); err != nil {
		return
	}
	lng, err = strconv.ParseFloat(strings.TrimSpace(f[1]), 64)
	return
}

func run(ctx context.Context, lat, lng float64, lg *log.Logger) error {
	view := mapview.NewTileView(lat, lng, *zoom, 256)

	// A GPS fix from the receiver recenters the view on the observer.
	if *nmeaDevice != "" {
		if fix, ok := awaitFix(ctx, lg); ok {
			lg.Infof("gps fix: %.4f, %.4f", fix.Latitude, fix.Longitude)
			view = mapview.NewTileView(fix.Latitude, fix.Longitude, *zoom, 256)
		}
	}

	pipelines := selectedPipelines(lg)
	if len(pipelines) == 0 {
		return fmt.Errorf("-layers %q selects no tile layers", *layers)
	}
	defer func() {
		for _, p := range pipelines {
			p.Close()
		}
	}()

	w, h := float64(*width), float64(*height)
	vp := view.GetViewport(w, h)

	// Warm every layer's tile cache concurrently before the frame loop.
	var eg errgroup.Group
	for _, p := range pipelines {
		p := p
		eg.Go(func() error { return p.Prefetch(ctx, vp) })
	}
	if err := eg.Wait(); err != nil {
		lg.Warnf("prefetch: %v", err)
	}

	var provider *adsb.Provider
	if *traffic {
		provider = adsb.NewProvider(func() (float64, float64, float64, float64) {
			vp := view.GetViewport(w, h)
			return math.LatitudeFromY(math.Clamp(vp.BottomRight[1], 0, 1)),
				math.LatitudeFromY(math.Clamp(vp.TopLeft[1], 0, 1)),
				math.LongitudeFromX(math.WrapX(vp.TopLeft[0])),
				math.LongitudeFromX(math.WrapX(vp.BottomRight[0]))
		}, lg)
		go provider.Run(ctx)
	}

	var airportList []airports.Airport
	if *airportsDB != "" {
		var err error
		if airportList, err = airports.Load(*airportsDB); err != nil {
			return err
		}
		lg.Infof("loaded %d airports from %s", len(airportList), *airportsDB)
	}

	r := renderer.NewSoftwareRenderer()
	fp := util.NewFrameProfiler()

	// Pump the pipelines until every layer has its viewport resident or
	// the deadline passes; tiles that failed upstream fall back to
	// coarser imagery in the composite.
	for !allResident(pipelines, vp) && ctx.Err() == nil {
		for _, p := range pipelines {
			p.Update(vp, r, fp)
		}
		select {
		case <-ctx.Done():
		case <-time.After(20 * time.Millisecond):
		}
	}
	for _, p := range pipelines {
		p.Update(vp, r, fp)
	}
	if !allResident(pipelines, vp) {
		lg.Warnf("deadline reached with tiles still missing")
	}

	if provider != nil {
		waitForTraffic(ctx, provider, lg)
	}

	img := compose(r, view, pipelines, provider, airportList, fp)

	snap := fp.Snapshot()
	for _, name := range util.SortedMapKeys(snap) {
		s := snap[name]
		lg.Debugf("%s: %d calls, %s total", name, s.Calls, s.Total)
	}

	f, err := os.Create(*output)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	lg.Infof("wrote %dx%d snapshot to %s", *width, *height, *output)
	return nil
}

func selectedPipelines(lg *log.Logger) []*tiles.Pipeline {
	all := tiles.Pipelines(lg)
	var ps []*tiles.Pipeline
	for _, name := range util.MapSlice(strings.Split(*layers, ","), strings.TrimSpace) {
		if p, ok := all[name]; ok {
			ps = append(ps, p)
		} else {
			lg.Warnf("unknown tile layer %q", name)
		}
	}
	// Close the layers we aren't using.
	for name, p := range all {
		used := false
		for _, sel := range ps {
			used = used || sel == p
		}
		if !used {
			p.Close()
			delete(all, name)
		}
	}
	return ps
}

func allResident(pipelines []*tiles.Pipeline, vp tiles.Viewport) bool {
	for _, p := range pipelines {
		for _, id := range vp.Coverage(0).Tiles() {
			if _, ok := p.GetTile(id); !ok {
				return false
			}
		}
	}
	return true
}

// waitForTraffic gives the first poll a chance to land before the
// snapshot is composed.
func waitForTraffic(ctx context.Context, provider *adsb.Provider, lg *log.Logger) {
	deadline := time.After(6 * time.Second)
	for len(provider.Aircraft()) == 0 {
		select {
		case <-ctx.Done():
			return
		case <-deadline:
			lg.Warnf("no traffic received before the deadline")
			return
		case <-time.After(100 * time.Millisecond):
		}
	}
}

func awaitFix(ctx context.Context, lg *log.Logger) (nmea.Fix, bool) {
	driver := nmea.NewDriver(*nmeaDevice, 0, lg)
	dctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go driver.Run(dctx)

	select {
	case fix := <-driver.Fixes():
		return fix, true
	case <-ctx.Done():
		lg.Warnf("no GPS fix from %s before the deadline", *nmeaDevice)
		return nmea.Fix{}, false
	}
}
