// tiles/pipelines.go
// Copyright(c) 2025-2026 flighttrack contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package tiles

import "github.com/mmp/flighttrack/log"

// Default tile backends for the two visual layers. The weather layer
// returns transparent tiles where there is no precipitation, so it
// composites over the imagery.
const (
	SatelliteURLTemplate = "https://server.arcgisonline.com/ArcGIS/rest/services/World_Imagery/MapServer/tile/{z}/{y}/{x}"
	WeatherURLTemplate   = "https://tilecache.rainviewer.com/v2/radar/nowcast/256/{z}/{x}/{y}/8/1_1.png"
)

const (
	SatelliteLayer = "satellite"
	WeatherLayer   = "weather"
)

// Pipelines returns the standard layer set, keyed by layer name, each
// with its own cache and fetch workers.
func Pipelines(lg *log.Logger) map[string]*Pipeline {
	return map[string]*Pipeline{
		SatelliteLayer: NewPipeline(SatelliteLayer, NewHTTPFetcher(SatelliteURLTemplate), Config{}, lg),
		WeatherLayer:   NewPipeline(WeatherLayer, NewHTTPFetcher(WeatherURLTemplate), Config{}, lg),
	}
}
