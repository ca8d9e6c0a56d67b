// mapview/layers.go
// Copyright(c) 2025-2026 flighttrack contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package mapview

import (
	"slices"

	"github.com/mmp/flighttrack/math"
	"github.com/mmp/flighttrack/renderer"
	"github.com/mmp/flighttrack/tiles"
)

// TileSource is the subset of the tile pipeline the compositor needs; it
// only consults tiles already resident, never triggering fetches.
type TileSource interface {
	GetTile(tiles.TileId) (renderer.TextureID, bool)
	TileSize() (w, h int, ok bool)
}

// PlacedTile is one tile positioned on the window: the centered, y-up
// pixel coordinates of the tile's center plus its unwrapped tile
// coordinates at the owning layer's zoom.
type PlacedTile struct {
	Pos   [2]float64
	X, Y  int
	TexId renderer.TextureID
}

// RenderLayer is a set of same-zoom tiles to draw at a common on-screen
// size.
type RenderLayer struct {
	Size  [2]float64
	Zoom  int
	Tiles []PlacedTile
}

// BuildRenderLayers composites the tiles needed to cover a window of the
// given dimensions from whatever src has resident. Cells with no tile at
// the view's integer zoom are covered by the nearest resident ancestor,
// drawn at the correspondingly larger size and offset so the right
// quadrant lands under the missing cell. Layers are returned coarsest
// first so that drawing them in order paints fine imagery over coarse.
//
// Two properties hold: every requested cell is covered by some layer once
// the zoom-0 tile is resident, and no layer places two tiles on the same
// cell.
func BuildRenderLayers(src TileSource, view *TileView, width, height float64) []RenderLayer {
	tw, _, ok := src.TileSize()
	if !ok {
		return nil
	}
	it := view.TileIter(tw, width, height)
	if it.TileSize[0] <= 0 {
		return nil
	}

	size := it.TileSize
	zoom := it.Zoom
	missing := make([]PlacedTile, 0, (it.X1-it.X0+1)*it.TilesVertically())
	for x := it.X0; x <= it.X1; x++ {
		for y := it.Y0; y <= it.Y1; y++ {
			missing = append(missing, PlacedTile{
				Pos: [2]float64{
					it.PixelOffset[0] + (float64(x-it.X0)+0.5)*size[0],
					it.PixelOffset[1] - (float64(y-it.Y0)+0.5)*size[1],
				},
				X: x, Y: y,
			})
		}
	}

	var layers []RenderLayer
	for len(missing) > 0 {
		resolved := RenderLayer{Size: size, Zoom: zoom}
		var parents []PlacedTile
		// Siblings of one parent project to the same parent placement, so
		// dedup as we promote.
		seen := make(map[[2]int]bool)
		for _, pt := range missing {
			if id, ok := tiles.TileAt(pt.X, pt.Y, zoom); ok {
				if tex, got := src.GetTile(id); got {
					pt.TexId = tex
					resolved.Tiles = append(resolved.Tiles, pt)
					continue
				}
			}
			if zoom == 0 {
				continue
			}
			px, py := math.FloorDiv(pt.X, 2), math.FloorDiv(pt.Y, 2)
			if seen[[2]int{px, py}] {
				continue
			}
			seen[[2]int{px, py}] = true
			// Position the parent so this tile's quadrant of it covers
			// this tile's cell.
			qx, qy := pt.X-2*px, pt.Y-2*py
			parents = append(parents, PlacedTile{
				Pos: [2]float64{
					pt.Pos[0] - float64(qx)*size[0] + size[0]/2,
					pt.Pos[1] + float64(qy)*size[1] - size[1]/2,
				},
				X: px, Y: py,
			})
		}
		if len(resolved.Tiles) > 0 {
			layers = append(layers, resolved)
		}
		if zoom == 0 {
			break
		}
		zoom--
		size = math.Scale2d(size, 2)
		missing = parents
	}

	slices.Reverse(layers)
	return layers
}
