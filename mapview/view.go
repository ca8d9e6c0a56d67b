// mapview/view.go
// Copyright(c) 2025-2026 flighttrack contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package mapview implements the camera for a slippy-map display: a
// center position and fractional zoom level over the Mercator-projected
// world, with conversions between world coordinates and window pixel
// coordinates, enumeration of the tiles a window covers, compositing of
// cached tiles into render layers with coarser-zoom fallback, and
// placement of latitude/longitude grid lines.
//
// Window pixel coordinates throughout this package are centered: the
// origin is the middle of the window, x increases to the right, and y
// increases upward.
package mapview

import (
	"github.com/mmp/flighttrack/math"
	"github.com/mmp/flighttrack/tiles"
)

const (
	// MaxZoomStep bounds how far a single MultiplyZoom call can move the
	// zoom level.
	MaxZoomStep = 0.5
	// MaxPanPixels bounds how far a single MoveCameraPixels call can move
	// the camera.
	MaxPanPixels = 300
)

// TileView is the camera over the tiled world map: a center point in
// world coordinates plus a fractional zoom level. It is owned by the
// rendering goroutine and is not safe for concurrent use.
type TileView struct {
	center     [2]float64
	zoom       float64
	pixelScale float64
}

// NewTileView returns a camera centered on the given latitude and
// longitude at the given zoom level. pixelScale is the number of window
// pixels spanned by one map tile at an integer zoom level; it is
// normally the tile provider's native tile size, with larger values
// rendering the map enlarged.
func NewTileView(latitude, longitude, zoom, pixelScale float64) *TileView {
	if pixelScale <= 0 {
		pixelScale = 256
	}
	return &TileView{
		center:     [2]float64{math.XFromLongitude(longitude), math.YFromLatitude(latitude)},
		zoom:       math.Clamp(zoom, 0, tiles.MaxZoom),
		pixelScale: pixelScale,
	}
}

// Zoom returns the current fractional zoom level.
func (v *TileView) Zoom() float64 { return v.zoom }

// Center returns the camera center as latitude and longitude in degrees.
func (v *TileView) Center() (latitude, longitude float64) {
	return math.LatitudeFromY(v.center[1]), math.LongitudeFromX(v.center[0])
}

// pixelsPerWorldUnit returns the current map scale: how many window
// pixels span the full [0,1) world range along one axis.
func (v *TileView) pixelsPerWorldUnit() float64 {
	return v.pixelScale * math.Exp2(v.zoom)
}

// MultiplyZoom scales the camera's linear magnification by factor. The
// equivalent change in zoom level is clamped to MaxZoomStep per call so
// that a burst of scroll events cannot jump the view, and the resulting
// zoom is clamped to [0, tiles.MaxZoom]. Non-positive factors are
// ignored.
func (v *TileView) MultiplyZoom(factor float64) {
	if factor <= 0 {
		return
	}
	delta := math.Clamp(math.Log2(factor), -MaxZoomStep, MaxZoomStep)
	v.zoom = math.Clamp(v.zoom+delta, 0, tiles.MaxZoom)
}

// MoveCameraPixels pans the camera by the given window-pixel delta,
// following the usual drag convention: x to the right, y downward. The
// delta's length is clamped to MaxPanPixels. Horizontal motion wraps
// around the antimeridian; vertical motion is clamped to the projected
// world.
func (v *TileView) MoveCameraPixels(delta [2]float64) {
	delta = math.ClampLength2d(delta, MaxPanPixels)
	s := v.pixelsPerWorldUnit()
	v.center[0] = math.WrapX(v.center[0] + delta[0]/s)
	v.center[1] = math.Clamp(v.center[1]+delta[1]/s, 0, 1)
}

// GetViewport returns the world-coordinate rectangle visible in a
// window of the given pixel dimensions. The returned x range is
// unwrapped: BottomRight[0] may exceed 1 when the view straddles the
// antimeridian. A non-positive window dimension yields an empty
// viewport.
func (v *TileView) GetViewport(width, height float64) tiles.Viewport {
	if width <= 0 || height <= 0 {
		return tiles.Viewport{Zoom: v.zoom}
	}
	s := v.pixelsPerWorldUnit()
	halfW, halfH := width/2/s, height/2/s
	return tiles.Viewport{
		TopLeft:     [2]float64{v.center[0] - halfW, v.center[1] - halfH},
		BottomRight: [2]float64{v.center[0] + halfW, v.center[1] + halfH},
		Zoom:        v.zoom,
	}
}

// WorldXToPixelX converts a world x coordinate to a centered window x
// coordinate for the given viewport and window width. When the viewport
// is narrower than the world the coordinate is first wrapped, so that
// positions just across the antimeridian from the viewport's left edge
// project onto the window rather than a world-width away; a viewport
// spanning a full world or more projects unwrapped.
func WorldXToPixelX(worldX float64, vp tiles.Viewport, width float64) float64 {
	if vp.Empty() {
		return 0
	}
	span := vp.BottomRight[0] - vp.TopLeft[0]
	dx := worldX - vp.TopLeft[0]
	if span < 1 {
		dx = math.FloorMod(dx, 1)
	}
	return math.Remap(dx, 0, span, -width/2, width/2)
}

// WorldYToPixelY converts a world y coordinate to a centered, y-up
// window y coordinate for the given viewport and window height.
func WorldYToPixelY(worldY float64, vp tiles.Viewport, height float64) float64 {
	if vp.Empty() {
		return 0
	}
	return math.Remap(worldY, vp.BottomRight[1], vp.TopLeft[1], -height/2, height/2)
}

// TileIter describes the grid of tiles needed to cover a window: the
// tile range at the floor integer zoom with one tile of padding on each
// edge, the on-screen size of each tile, and the centered window
// position of the top-left corner of the first tile.
type TileIter struct {
	tiles.TileRange

	// TileSize is the on-screen size in pixels of one tile at this zoom.
	TileSize [2]float64
	// PixelOffset is the centered, y-up window position of the top-left
	// corner of tile (X0, Y0).
	PixelOffset [2]float64
}

// TilesVertically returns the number of tile rows in the range.
func (it TileIter) TilesVertically() int { return it.Y1 - it.Y0 + 1 }

// TileIter returns the tile grid covering a window of the given pixel
// dimensions. tilePx is the provider's native tile size; a zero range is
// returned if it is not yet known or the window has no area.
func (v *TileView) TileIter(tilePx int, width, height float64) TileIter {
	if tilePx <= 0 || width <= 0 || height <= 0 {
		return TileIter{}
	}
	vp := v.GetViewport(width, height)
	rng := vp.Coverage(1)

	iz := float64(vp.IntZoom())
	size := v.pixelScale * math.Exp2(v.zoom-iz)
	s := v.pixelsPerWorldUnit()
	n := math.Exp2(iz)
	return TileIter{
		TileRange: rng,
		TileSize:  [2]float64{size, size},
		PixelOffset: [2]float64{
			-width/2 + (float64(rng.X0)/n-vp.TopLeft[0])*s,
			height/2 - (float64(rng.Y0)/n-vp.TopLeft[1])*s,
		},
	}
}
