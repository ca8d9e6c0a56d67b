// cmd/flighttrack/compose.go
// Copyright(c) 2025-2026 flighttrack contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

import (
	"image"
	"image/color"

	"github.com/mmp/flighttrack/adsb"
	"github.com/mmp/flighttrack/airports"
	"github.com/mmp/flighttrack/mapview"
	"github.com/mmp/flighttrack/math"
	"github.com/mmp/flighttrack/renderer"
	"github.com/mmp/flighttrack/tiles"
	"github.com/mmp/flighttrack/util"
)

var (
	backgroundColor = color.RGBA{R: 8, G: 12, B: 24, A: 255}
	graticuleColor  = color.RGBA{R: 255, G: 255, B: 255, A: 56}
	airportColor    = color.RGBA{R: 255, G: 255, B: 255, A: 220}

	airlineColors = map[adsb.Airline]color.RGBA{
		adsb.AirlineSpirit:    {R: 255, G: 236, B: 0, A: 255},
		adsb.AirlineAmerican:  {R: 223, G: 56, B: 62, A: 255},
		adsb.AirlineSouthwest: {R: 48, G: 76, B: 178, A: 255},
		adsb.AirlineUnited:    {R: 0, G: 93, B: 170, A: 255},
		adsb.AirlineDelta:     {R: 155, G: 27, B: 48, A: 255},
		adsb.AirlineOther:     {R: 230, G: 230, B: 230, A: 255},
	}
)

// markerSlot is one symbol to draw over the map. Slots are arena
// allocated and only live for the frame being composed.
type markerSlot struct {
	x, y    float64 // image coordinates
	color   color.RGBA
	halfPx  int
	heading float64 // degrees true; negative for none
	speed   float64
}

var markerArena util.ObjectArena[markerSlot]

func compose(r *renderer.SoftwareRenderer, view *mapview.TileView,
	pipelines []*tiles.Pipeline, provider *adsb.Provider,
	airportList []airports.Airport, fp *util.FrameProfiler) *image.RGBA {
	defer fp.Scope("compose")()

	w, h := float64(*width), float64(*height)
	img := image.NewRGBA(image.Rect(0, 0, *width, *height))
	r.FillRect(img, img.Bounds(), backgroundColor)

	vp := view.GetViewport(w, h)

	for _, p := range pipelines {
		drawTiles(r, img, p, view, w, h, fp)
	}
	drawGraticule(r, img, vp, w, h)

	markerArena.Reset()
	var slots []*markerSlot
	slots = appendAirportSlots(slots, airportList, vp, w, h)
	if provider != nil {
		slots = appendAircraftSlots(slots, provider.Aircraft(), vp, w, h)
	}
	drawSlots(r, img, slots)

	return img
}

// imageXY converts centered, y-up window coordinates to image
// coordinates.
func imageXY(x, y, w, h float64) (float64, float64) {
	return w/2 + x, h/2 - y
}

func drawTiles(r *renderer.SoftwareRenderer, img *image.RGBA, p *tiles.Pipeline,
	view *mapview.TileView, w, h float64, fp *util.FrameProfiler) {
	defer fp.Scope(p.Name() + " draw")()

	for _, layer := range mapview.BuildRenderLayers(p, view, w, h) {
		for _, pt := range layer.Tiles {
			x, y := imageXY(pt.Pos[0], pt.Pos[1], w, h)
			half := math.Scale2d(layer.Size, 0.5)
			tl := math.Sub2d([2]float64{x, y}, half)
			br := math.Add2d([2]float64{x, y}, half)
			r.Blit(img, pt.TexId, image.Rect(int(tl[0]), int(tl[1]), int(br[0]), int(br[1])))
		}
	}
}

func drawGraticule(r *renderer.SoftwareRenderer, img *image.RGBA, vp tiles.Viewport, w, h float64) {
	for _, line := range mapview.LatitudeLines(vp, w, h) {
		_, y := imageXY(0, line.ScreenPos, w, h)
		r.DrawLine(img, 0, y, w-1, y, graticuleColor)
	}
	for _, line := range mapview.LongitudeLines(vp, w, h) {
		x, _ := imageXY(line.ScreenPos, 0, w, h)
		r.DrawLine(img, x, 0, x, h-1, graticuleColor)
	}
}

func appendAirportSlots(slots []*markerSlot, ap []airports.Airport,
	vp tiles.Viewport, w, h float64) []*markerSlot {
	for _, a := range airports.InView(ap, vp) {
		px := mapview.WorldXToPixelX(math.XFromLongitude(a.Longitude), vp, w)
		py := mapview.WorldYToPixelY(math.YFromLatitude(a.Latitude), vp, h)

		s := markerArena.AllocClear()
		s.x, s.y = imageXY(px, py, w, h)
		s.color = airportColor
		s.halfPx = 2
		s.heading = -1
		slots = append(slots, s)
	}
	return slots
}

func appendAircraftSlots(slots []*markerSlot, aircraft []adsb.Aircraft,
	vp tiles.Viewport, w, h float64) []*markerSlot {
	width := vp.BottomRight[0] - vp.TopLeft[0]
	for _, ac := range aircraft {
		worldY := math.YFromLatitude(ac.Latitude)
		if worldY < vp.TopLeft[1] || worldY > vp.BottomRight[1] {
			continue
		}
		worldX := math.XFromLongitude(ac.Longitude)
		if math.FloorMod(worldX-vp.TopLeft[0], 1) > width {
			continue
		}

		px := mapview.WorldXToPixelX(worldX, vp, w)
		py := mapview.WorldYToPixelY(worldY, vp, h)

		s := markerArena.AllocClear()
		s.x, s.y = imageXY(px, py, w, h)
		s.color = airlineColors[ac.Airline]
		s.halfPx = 3
		s.heading = ac.Track
		s.speed = ac.GroundSpeed
		slots = append(slots, s)
	}
	return slots
}

func drawSlots(r *renderer.SoftwareRenderer, img *image.RGBA, slots []*markerSlot) {
	for _, s := range slots {
		rect := image.Rect(int(s.x)-s.halfPx, int(s.y)-s.halfPx,
			int(s.x)+s.halfPx+1, int(s.y)+s.halfPx+1)
		r.FillRect(img, rect, s.color)

		if s.heading >= 0 {
			// Speed vector: one minute of travel, roughly scaled.
			l := 8 + s.speed/8
			sin, cos := math.SinCos(math.Radians(s.heading))
			r.DrawLine(img, s.x, s.y, s.x+sin*l, s.y-cos*l, s.color)
		}
	}
}
