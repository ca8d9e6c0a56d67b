// renderer/software.go
// Copyright(c) 2025-2026 flighttrack contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package renderer

import (
	"image"
	"image/color"
	gomath "math"

	xdraw "golang.org/x/image/draw"
)

// SoftwareRenderer implements Renderer on the CPU, keeping textures as
// RGBA images. It backs the headless snapshot tool and the tests; a GPU
// renderer would satisfy the same interface.
type SoftwareRenderer struct {
	textures map[TextureID]*softwareTexture
	nextID   TextureID
}

type softwareTexture struct {
	img        *image.RGBA
	magNearest bool
}

func NewSoftwareRenderer() *SoftwareRenderer {
	return &SoftwareRenderer{
		textures: make(map[TextureID]*softwareTexture),
		nextID:   1,
	}
}

func (r *SoftwareRenderer) CreateTextureFromImage(img image.Image, magNearest bool) TextureID {
	id := r.nextID
	r.nextID++
	r.textures[id] = &softwareTexture{img: toRGBA(img), magNearest: magNearest}
	return id
}

func (r *SoftwareRenderer) UpdateTextureFromImage(id TextureID, img image.Image, magNearest bool) {
	if tex, ok := r.textures[id]; ok {
		tex.img = toRGBA(img)
		tex.magNearest = magNearest
	}
}

func (r *SoftwareRenderer) DestroyTexture(id TextureID) {
	delete(r.textures, id)
}

// Texture returns the backing image for a handle; used by tests and by
// draw calls below.
func (r *SoftwareRenderer) Texture(id TextureID) (*image.RGBA, bool) {
	tex, ok := r.textures[id]
	if !ok {
		return nil, false
	}
	return tex.img, true
}

// TextureCount reports how many textures are currently live.
func (r *SoftwareRenderer) TextureCount() int {
	return len(r.textures)
}

// Blit draws the texture scaled into dst over the given rectangle.
// Nearest-neighbor or bilinear sampling follows the texture's
// magnification setting.
func (r *SoftwareRenderer) Blit(dst *image.RGBA, id TextureID, rect image.Rectangle) {
	tex, ok := r.textures[id]
	if !ok {
		return
	}

	var scaler xdraw.Scaler = xdraw.ApproxBiLinear
	if tex.magNearest {
		scaler = xdraw.NearestNeighbor
	}
	scaler.Scale(dst, rect, tex.img, tex.img.Bounds(), xdraw.Over, nil)
}

// DrawLine draws a one pixel wide line between two points, alpha-blended
// over the destination.
func (r *SoftwareRenderer) DrawLine(dst *image.RGBA, x0, y0, x1, y1 float64, c color.RGBA) {
	// DDA; lines here are graticule overlays, not performance-critical.
	dx, dy := x1-x0, y1-y0
	steps := int(gomath.Max(gomath.Abs(dx), gomath.Abs(dy)))
	if steps == 0 {
		blendPixel(dst, int(x0), int(y0), c)
		return
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		blendPixel(dst, int(x0+t*dx), int(y0+t*dy), c)
	}
}

// FillRect fills an axis-aligned rectangle, alpha-blended; used for
// simple overlay markers.
func (r *SoftwareRenderer) FillRect(dst *image.RGBA, rect image.Rectangle, c color.RGBA) {
	rect = rect.Intersect(dst.Bounds())
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			blendPixel(dst, x, y, c)
		}
	}
}

func blendPixel(dst *image.RGBA, x, y int, c color.RGBA) {
	if !(image.Point{x, y}).In(dst.Bounds()) {
		return
	}
	old := dst.RGBAAt(x, y)
	a := uint32(c.A)
	blend := func(s, d uint8) uint8 {
		return uint8((uint32(s)*a + uint32(d)*(255-a)) / 255)
	}
	dst.SetRGBA(x, y, color.RGBA{
		R: blend(c.R, old.R),
		G: blend(c.G, old.G),
		B: blend(c.B, old.B),
		A: 255,
	})
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	rgba := image.NewRGBA(img.Bounds())
	xdraw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, xdraw.Src)
	return rgba
}
