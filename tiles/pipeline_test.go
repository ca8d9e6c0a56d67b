// tiles/pipeline_test.go
// Copyright(c) 2025-2026 flighttrack contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package tiles

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/mmp/flighttrack/renderer"
)

// pngBytes returns an encoded size x size PNG for feeding fake fetchers.
func pngBytes(t *testing.T, size int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.SetRGBA(x, y, color.RGBA{128, 128, 128, 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding png: %v", err)
	}
	return buf.Bytes()
}

// fakeFetcher serves canned bytes (or a canned error) and counts calls
// per tile.
type fakeFetcher struct {
	mu    sync.Mutex
	raw   []byte
	err   error
	calls map[TileId]int
	gate  chan struct{} // if non-nil, fetches block until it is closed
}

func (f *fakeFetcher) FetchTile(ctx context.Context, id TileId) ([]byte, error) {
	f.mu.Lock()
	if f.calls == nil {
		f.calls = make(map[TileId]int)
	}
	f.calls[id]++
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.raw, f.err
}

func (f *fakeFetcher) count(id TileId) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[id]
}

func testViewport(zoom float64) Viewport {
	return Viewport{
		TopLeft:     [2]float64{0.45, 0.45},
		BottomRight: [2]float64{0.55, 0.55},
		Zoom:        zoom,
	}
}

// pumpUntil repeatedly calls Update until pred is satisfied or a timeout
// expires.
func pumpUntil(t *testing.T, p *Pipeline, vp Viewport, r renderer.Renderer, pred func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		p.Update(vp, r, nil)
		if pred() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for pipeline state")
}

func TestPipelineFetchAndGet(t *testing.T) {
	fetcher := &fakeFetcher{raw: pngBytes(t, 256)}
	p := NewPipeline("test", fetcher, Config{}, nil)
	defer p.Close()
	r := renderer.NewSoftwareRenderer()

	vp := testViewport(2)
	if _, _, ok := p.TileSize(); ok {
		t.Errorf("TileSize should be unknown before any fetch")
	}

	id, _ := TileAt(1, 1, 2)
	pumpUntil(t, p, vp, r, func() bool {
		_, ok := p.GetTile(id)
		return ok
	})

	tex, ok := p.GetTile(id)
	if !ok {
		t.Fatalf("tile not resolved")
	}
	// GetTile is a pure read: identical results between Updates.
	for i := 0; i < 3; i++ {
		tex2, ok2 := p.GetTile(id)
		if !ok2 || tex2 != tex {
			t.Errorf("GetTile not idempotent: (%v, %v) vs (%v, %v)", tex2, ok2, tex, ok)
		}
	}

	if w, h, ok := p.TileSize(); !ok || w != 256 || h != 256 {
		t.Errorf("TileSize = %d, %d, %v; expected 256, 256, true", w, h, ok)
	}

	// Every tile the viewport needs eventually resolves exactly once.
	pumpUntil(t, p, vp, r, func() bool {
		for _, id := range vp.Coverage(1).Tiles() {
			if _, ok := p.GetTile(id); !ok {
				return false
			}
		}
		return true
	})
	for _, id := range vp.Coverage(1).Tiles() {
		if n := fetcher.count(id); n != 1 {
			t.Errorf("%v: fetched %d times, expected 1", id, n)
		}
	}
}

func TestPipelineNoDuplicateFetches(t *testing.T) {
	gate := make(chan struct{})
	fetcher := &fakeFetcher{raw: pngBytes(t, 64), gate: gate}
	p := NewPipeline("test", fetcher, Config{}, nil)
	defer p.Close()
	r := renderer.NewSoftwareRenderer()

	vp := testViewport(2)
	// Updates while every fetch is blocked must not enqueue a tile
	// twice.
	for i := 0; i < 10; i++ {
		p.Update(vp, r, nil)
	}
	time.Sleep(10 * time.Millisecond)

	id, _ := TileAt(1, 1, 2)
	if n := fetcher.count(id); n > 1 {
		t.Errorf("tile %v fetched %d times while outstanding", id, n)
	}
	close(gate)
}

func TestPipelineQueueOverflow(t *testing.T) {
	// With a one-deep request queue and a single blocked worker, the
	// first Update can only hand off two of the sixteen tiles the
	// viewport needs; the rest are dropped at the full queue. Later
	// frames must re-enqueue those pending tiles rather than leaving
	// them stuck on fallback forever.
	gate := make(chan struct{})
	fetcher := &fakeFetcher{raw: pngBytes(t, 64), gate: gate}
	p := NewPipeline("test", fetcher, Config{FetchWorkers: 1, QueueSize: 1}, nil)
	defer p.Close()
	r := renderer.NewSoftwareRenderer()

	vp := testViewport(3)
	p.Update(vp, r, nil)
	close(gate)

	pumpUntil(t, p, vp, r, func() bool {
		for _, id := range vp.Coverage(1).Tiles() {
			if _, ok := p.GetTile(id); !ok {
				return false
			}
		}
		return true
	})
	for _, id := range vp.Coverage(1).Tiles() {
		if n := fetcher.count(id); n != 1 {
			t.Errorf("%v: fetched %d times, expected 1", id, n)
		}
	}
}

func TestPipelineFailureAndRetry(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("server on fire")}
	p := NewPipeline("test", fetcher, Config{RetryDelay: 20 * time.Millisecond}, nil)
	defer p.Close()
	r := renderer.NewSoftwareRenderer()

	vp := testViewport(2)
	id, _ := TileAt(1, 1, 2)

	pumpUntil(t, p, vp, r, func() bool { return fetcher.count(id) >= 1 })
	if _, ok := p.GetTile(id); ok {
		t.Errorf("failed tile should not be resolved")
	}

	// No retry before the backoff elapses.
	p.Update(vp, r, nil)
	if n := fetcher.count(id); n != 1 {
		t.Errorf("retried too early: %d fetches", n)
	}

	// After the backoff the tile is refetched, and succeeds this time.
	time.Sleep(30 * time.Millisecond)
	fetcher.mu.Lock()
	fetcher.err = nil
	fetcher.raw = pngBytes(t, 64)
	fetcher.mu.Unlock()

	pumpUntil(t, p, vp, r, func() bool {
		_, ok := p.GetTile(id)
		return ok
	})
	if n := fetcher.count(id); n != 2 {
		t.Errorf("expected exactly one retry, got %d fetches", n)
	}
}

func TestPipelineDecodeFailure(t *testing.T) {
	fetcher := &fakeFetcher{raw: []byte("not a png")}
	p := NewPipeline("test", fetcher, Config{}, nil)
	defer p.Close()
	r := renderer.NewSoftwareRenderer()

	vp := testViewport(2)
	id, _ := TileAt(1, 1, 2)
	pumpUntil(t, p, vp, r, func() bool { return fetcher.count(id) >= 1 })

	p.Update(vp, r, nil)
	if _, ok := p.GetTile(id); ok {
		t.Errorf("undecodable tile should be failed, not ready")
	}
	if _, _, ok := p.TileSize(); ok {
		t.Errorf("TileSize should remain unknown after decode failures")
	}
}

func TestPipelineEviction(t *testing.T) {
	fetcher := &fakeFetcher{raw: pngBytes(t, 64)}
	p := NewPipeline("test", fetcher, Config{MaxTiles: 16}, nil)
	defer p.Close()
	r := renderer.NewSoftwareRenderer()

	// Resolve one area, then roam the camera far away; the first area's
	// tiles must be evicted rather than accumulating without bound. The
	// two viewports are separated vertically since longitude wraps.
	top := Viewport{
		TopLeft:     [2]float64{0.45, 0.05},
		BottomRight: [2]float64{0.55, 0.15},
		Zoom:        4,
	}
	pumpUntil(t, p, top, r, func() bool {
		for _, id := range top.Coverage(1).Tiles() {
			if _, ok := p.GetTile(id); !ok {
				return false
			}
		}
		return true
	})

	bottom := Viewport{
		TopLeft:     [2]float64{0.45, 0.85},
		BottomRight: [2]float64{0.55, 0.95},
		Zoom:        4,
	}
	pumpUntil(t, p, bottom, r, func() bool {
		for _, id := range bottom.Coverage(1).Tiles() {
			if _, ok := p.GetTile(id); !ok {
				return false
			}
		}
		return true
	})

	// A few more frames for eviction to catch up.
	for i := 0; i < 5; i++ {
		p.Update(bottom, r, nil)
	}

	if n := len(p.cache); n > 16 {
		t.Errorf("cache grew to %d entries; eviction is not bounding it", n)
	}
	old, _ := TileAt(7, 1, 4)
	if _, ok := p.GetTile(old); ok {
		t.Errorf("stale tile %v survived eviction", old)
	}
	if r.TextureCount() != readyCount(p) {
		t.Errorf("%d live textures but %d ready entries; evicted textures not destroyed",
			r.TextureCount(), readyCount(p))
	}
}

func readyCount(p *Pipeline) int {
	n := 0
	for _, e := range p.cache {
		if e.state == stateReady {
			n++
		}
	}
	return n
}

func TestPipelineEmptyViewport(t *testing.T) {
	fetcher := &fakeFetcher{raw: pngBytes(t, 64)}
	p := NewPipeline("test", fetcher, Config{}, nil)
	defer p.Close()
	r := renderer.NewSoftwareRenderer()

	// A minimized window must not fetch anything.
	var empty Viewport
	for i := 0; i < 3; i++ {
		p.Update(empty, r, nil)
	}
	time.Sleep(10 * time.Millisecond)
	fetcher.mu.Lock()
	n := len(fetcher.calls)
	fetcher.mu.Unlock()
	if n != 0 {
		t.Errorf("empty viewport caused %d fetches", n)
	}
}

func TestPipelinePrefetch(t *testing.T) {
	fetcher := &fakeFetcher{raw: pngBytes(t, 64)}
	p := NewPipeline("test", fetcher, Config{}, nil)
	defer p.Close()
	r := renderer.NewSoftwareRenderer()

	vp := testViewport(2)
	if err := p.Prefetch(context.Background(), vp); err != nil {
		t.Fatalf("Prefetch: %v", err)
	}

	// A single Update installs everything from the encoded cache; no
	// polling needed.
	p.Update(vp, r, nil)
	for _, id := range vp.Coverage(1).Tiles() {
		if _, ok := p.GetTile(id); !ok {
			t.Errorf("%v: not resolved after Prefetch + Update", id)
		}
	}
}

func TestPipelinePrefetchError(t *testing.T) {
	fetcher := &fakeFetcher{err: fmt.Errorf("no route to host")}
	p := NewPipeline("test", fetcher, Config{}, nil)
	defer p.Close()

	if err := p.Prefetch(context.Background(), testViewport(2)); err == nil {
		t.Errorf("expected error from Prefetch")
	}
}
