// tiles/tile.go
// Copyright(c) 2025-2026 flighttrack contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package tiles

import (
	"fmt"

	"github.com/mmp/flighttrack/math"
)

// MaxZoom is the deepest tile zoom level the engine will request.
const MaxZoom = 20

// TileId addresses one map tile in the standard power-of-two tiling
// scheme: 0 <= x,y < 2^zoom.
type TileId struct {
	X, Y uint32
	Zoom uint32
}

// TileAt returns the TileId for possibly-unwrapped integer tile
// coordinates at the given zoom: x wraps around the antimeridian, y does
// not. ok is false if y or zoom is out of range.
func TileAt(x, y, zoom int) (TileId, bool) {
	if zoom < 0 || zoom > MaxZoom {
		return TileId{}, false
	}
	n := 1 << zoom
	if y < 0 || y >= n {
		return TileId{}, false
	}
	x = ((x % n) + n) % n
	return TileId{X: uint32(x), Y: uint32(y), Zoom: uint32(zoom)}, true
}

func (t TileId) Valid() bool {
	if t.Zoom > MaxZoom {
		return false
	}
	n := uint32(1) << t.Zoom
	return t.X < n && t.Y < n
}

// Parent returns the tile one zoom level up that contains this tile.
func (t TileId) Parent() TileId {
	return TileId{X: t.X / 2, Y: t.Y / 2, Zoom: t.Zoom - 1}
}

func (t TileId) String() string {
	return fmt.Sprintf("%d/%d/%d", t.Zoom, t.X, t.Y)
}

///////////////////////////////////////////////////////////////////////////
// Viewport

// Viewport is the rectangle of world coordinates currently visible,
// rederived from the camera every frame. The x coordinates are continuous
// around the camera center and so may fall outside [0,1); consumers wrap
// when converting to tile or longitude space. Zoom carries the camera's
// fractional zoom so that the pipeline can derive the integer tile zoom
// without reaching back into the view.
type Viewport struct {
	TopLeft     [2]float64
	BottomRight [2]float64
	Zoom        float64
}

// Empty reports whether the viewport has no area (e.g. a minimized
// window); all projection through an empty viewport must short-circuit.
func (v Viewport) Empty() bool {
	return v.BottomRight[0] <= v.TopLeft[0] || v.BottomRight[1] <= v.TopLeft[1]
}

// IntZoom is the integer tile zoom that the viewport needs: the floor of
// the fractional camera zoom.
func (v Viewport) IntZoom() int {
	return math.Clamp(int(math.Floor(v.Zoom)), 0, MaxZoom)
}

// TileRange is an inclusive range of integer tile coordinates at one zoom
// level. X0/X1 are unwrapped (continuous across the antimeridian); Y is
// clamped to the valid range.
type TileRange struct {
	X0, X1 int
	Y0, Y1 int
	Zoom   int
}

// Coverage returns the tiles the viewport needs at its integer zoom, with
// pad extra tiles on each edge.
func (v Viewport) Coverage(pad int) TileRange {
	zoom := v.IntZoom()
	n := 1 << zoom

	r := TileRange{
		X0:   int(math.Floor(v.TopLeft[0]*float64(n))) - pad,
		X1:   int(math.Floor(v.BottomRight[0]*float64(n))) + pad,
		Y0:   max(0, int(math.Floor(v.TopLeft[1]*float64(n)))-pad),
		Y1:   min(n-1, int(math.Floor(v.BottomRight[1]*float64(n)))+pad),
		Zoom: zoom,
	}
	// Never wrap all the way around and visit tiles twice.
	if r.X1-r.X0+1 > n {
		r.X1 = r.X0 + n - 1
	}
	return r
}

// Tiles enumerates the range column-major (x outer, y inner), wrapping x.
func (r TileRange) Tiles() []TileId {
	var ids []TileId
	for x := r.X0; x <= r.X1; x++ {
		for y := r.Y0; y <= r.Y1; y++ {
			if id, ok := TileAt(x, y, r.Zoom); ok {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

// Interested reports whether the tile falls within factor times the
// viewport's extent about its center; tiles outside this region are
// eviction candidates. Works across zoom levels by comparing in world
// space, with x distance taken modulo the world width.
func (v Viewport) Interested(id TileId, factor float64) bool {
	if v.Empty() {
		return false
	}

	tileW := 1 / float64(uint64(1)<<id.Zoom)
	tcx := (float64(id.X) + 0.5) * tileW
	tcy := (float64(id.Y) + 0.5) * tileW

	cx := (v.TopLeft[0] + v.BottomRight[0]) / 2
	cy := (v.TopLeft[1] + v.BottomRight[1]) / 2
	halfW := (v.BottomRight[0] - v.TopLeft[0]) / 2
	halfH := (v.BottomRight[1] - v.TopLeft[1]) / 2

	dx := math.FloorMod(tcx-cx, 1)
	if dx > 0.5 {
		dx = 1 - dx
	}
	dy := math.Abs(tcy - cy)

	return dx <= halfW*factor+tileW/2 && dy <= halfH*factor+tileW/2
}
