// renderer/renderer.go
// Copyright(c) 2025-2026 flighttrack contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package renderer

import "image"

// TextureID is an opaque handle to an uploaded texture. Handles are only
// meaningful to the Renderer that created them.
type TextureID uint32

// Renderer abstracts the "decoded raster bytes -> drawable handle"
// boundary. All methods must be called from the render thread; tile
// uploads happen inside the per-frame cache update, never from fetch
// workers.
type Renderer interface {
	// CreateTextureFromImage uploads the given image and returns a
	// handle for it. magNearest selects nearest-neighbor magnification
	// rather than bilinear.
	CreateTextureFromImage(img image.Image, magNearest bool) TextureID

	// UpdateTextureFromImage replaces the contents of an existing
	// texture.
	UpdateTextureFromImage(id TextureID, img image.Image, magNearest bool)

	// DestroyTexture releases the texture; the handle must not be used
	// afterward.
	DestroyTexture(id TextureID)
}
