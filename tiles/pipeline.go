// tiles/pipeline.go
// Copyright(c) 2025-2026 flighttrack contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package tiles

import (
	"bytes"
	"context"
	"image"
	"slices"
	"time"

	// Tile backends serve PNG or JPEG; register the decoders.
	_ "image/jpeg"
	_ "image/png"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/errgroup"

	"github.com/mmp/flighttrack/log"
	"github.com/mmp/flighttrack/renderer"
	"github.com/mmp/flighttrack/util"
)

// Config holds the tunables for one Pipeline. The zero value of any field
// is replaced by its default; the eviction bounds in particular are
// deliberately configurable rather than load-bearing constants.
type Config struct {
	// FetchWorkers is the number of concurrent tile fetches.
	FetchWorkers int
	// QueueSize bounds the fetch request queue; when it is full,
	// enqueueing is retried on a later frame.
	QueueSize int
	// MaxTiles is the soft cap on cached entries; eviction runs once the
	// cache exceeds it.
	MaxTiles int
	// InterestFactor scales the viewport extent to form the region whose
	// tiles are considered recently visible and so exempt from eviction.
	InterestFactor float64
	// RetryDelay is how long a failed tile waits before it may be
	// refetched.
	RetryDelay time.Duration
	// EncodedCacheSize/EncodedCacheTTL bound the cache of raw encoded
	// tile bytes kept so that an evicted-then-revisited tile can be
	// reuploaded without a network round trip.
	EncodedCacheSize int
	EncodedCacheTTL  time.Duration
}

func (c Config) withDefaults() Config {
	if c.FetchWorkers == 0 {
		c.FetchWorkers = 4
	}
	if c.QueueSize == 0 {
		c.QueueSize = 256
	}
	if c.MaxTiles == 0 {
		c.MaxTiles = 512
	}
	if c.InterestFactor == 0 {
		c.InterestFactor = 3
	}
	if c.RetryDelay == 0 {
		c.RetryDelay = 15 * time.Second
	}
	if c.EncodedCacheSize == 0 {
		c.EncodedCacheSize = 256
	}
	if c.EncodedCacheTTL == 0 {
		c.EncodedCacheTTL = 5 * time.Minute
	}
	return c
}

type entryState int

const (
	statePending entryState = iota
	stateReady
	stateFailed
)

type cacheEntry struct {
	state      entryState
	tex        renderer.TextureID
	retryAfter time.Time
	// lastSeen is the frame counter value when the tile was last inside
	// the interest region; eviction removes least-recently-seen first.
	lastSeen uint64
}

type fetchResult struct {
	id  TileId
	raw []byte
	err error
}

// Pipeline is one independently fetched and cached tile layer (e.g.
// satellite imagery or the weather overlay). Fetches run on a fixed pool
// of worker goroutines; results come back through a mailbox channel that
// is drained, decoded and uploaded only inside Update, which must be
// called from the render thread once per frame. GetTile and TileSize are
// pure reads and are stable between Update calls.
type Pipeline struct {
	name    string
	fetcher Fetcher
	cfg     Config
	lg      *log.Logger

	ctx    context.Context
	cancel context.CancelFunc

	requests chan TileId
	results  chan fetchResult

	// Render-thread state; only Update and its callees touch these.
	cache        map[TileId]*cacheEntry
	outstanding  map[TileId]struct{}
	encoded      *expirable.LRU[TileId, []byte]
	tileSize     [2]int
	haveTileSize bool
	frame        uint64
}

func NewPipeline(name string, fetcher Fetcher, cfg Config, lg *log.Logger) *Pipeline {
	cfg = cfg.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())

	p := &Pipeline{
		name:        name,
		fetcher:     fetcher,
		cfg:         cfg,
		lg:          lg,
		ctx:         ctx,
		cancel:      cancel,
		requests:    make(chan TileId, cfg.QueueSize),
		results:     make(chan fetchResult, cfg.QueueSize),
		cache:       make(map[TileId]*cacheEntry),
		outstanding: make(map[TileId]struct{}),
		encoded:     expirable.NewLRU[TileId, []byte](cfg.EncodedCacheSize, nil, cfg.EncodedCacheTTL),
	}

	for i := 0; i < cfg.FetchWorkers; i++ {
		go p.fetchWorker()
	}

	return p
}

// Name identifies the pipeline in logs and profiling scopes.
func (p *Pipeline) Name() string { return p.name }

// Close stops the fetch workers. In-flight fetches finish and their
// results are discarded; cancellation of individual tiles is cooperative
// only.
func (p *Pipeline) Close() {
	p.cancel()
	close(p.requests)
}

func (p *Pipeline) fetchWorker() {
	for id := range p.requests {
		raw, err := p.fetcher.FetchTile(p.ctx, id)
		select {
		case p.results <- fetchResult{id: id, raw: raw, err: err}:
		case <-p.ctx.Done():
			return
		}
	}
}

// GetTile returns the texture handle for the tile if it is resolved. It
// has no side effects; repeated calls between Updates return identical
// results.
func (p *Pipeline) GetTile(id TileId) (renderer.TextureID, bool) {
	if e, ok := p.cache[id]; ok && e.state == stateReady {
		return e.tex, true
	}
	return 0, false
}

// TileSize returns the native pixel dimensions of this layer's tiles, and
// false if no tile has ever been decoded (the first few frames).
func (p *Pipeline) TileSize() (int, int, bool) {
	return p.tileSize[0], p.tileSize[1], p.haveTileSize
}

// Update advances the pipeline by one frame: completed fetches are
// decoded and uploaded through r, missing tiles that the viewport needs
// at its integer zoom are queued for fetching (deduplicated against the
// outstanding set so no tile is fetched twice concurrently), expired
// failures are retried, and stale entries are evicted. Must be called
// from the render thread.
func (p *Pipeline) Update(vp Viewport, r renderer.Renderer, prof *util.FrameProfiler) {
	defer prof.Scope(p.name + " tile cache update")()

	p.frame++
	p.drainResults(r)

	if vp.Empty() {
		return
	}

	now := time.Now()
	for _, id := range vp.Coverage(1).Tiles() {
		e, ok := p.cache[id]
		if !ok {
			if raw, ok := p.encoded.Get(id); ok {
				// Still have the encoded bytes from before this tile
				// was evicted; reupload without refetching.
				p.install(id, raw, r)
			} else {
				p.cache[id] = &cacheEntry{state: statePending, lastSeen: p.frame}
				p.enqueue(id)
			}
			continue
		}

		switch e.state {
		case statePending:
			// The request queue may have been full when this tile was
			// first seen; enqueue dedups against in-flight fetches, so
			// this is a no-op unless the request was dropped.
			p.enqueue(id)
		case stateFailed:
			if now.After(e.retryAfter) {
				p.enqueue(id)
			}
		}
	}

	// Tiles well outside the viewport keep their old stamp and become
	// eviction candidates.
	for id, e := range p.cache {
		if vp.Interested(id, p.cfg.InterestFactor) {
			e.lastSeen = p.frame
		}
	}

	p.evict(r)
}

func (p *Pipeline) enqueue(id TileId) {
	if _, ok := p.outstanding[id]; ok {
		return
	}
	select {
	case p.requests <- id:
		p.outstanding[id] = struct{}{}
	default:
		// Queue full; the tile stays unresolved and is retried on a
		// later frame.
	}
}

func (p *Pipeline) drainResults(r renderer.Renderer) {
	for {
		select {
		case res := <-p.results:
			delete(p.outstanding, res.id)
			if res.err != nil {
				p.fail(res.id, res.err)
			} else {
				p.install(res.id, res.raw, r)
			}
		default:
			return
		}
	}
}

func (p *Pipeline) fail(id TileId, err error) {
	e, ok := p.cache[id]
	if !ok {
		e = &cacheEntry{lastSeen: p.frame}
		p.cache[id] = e
	}
	e.state = stateFailed
	e.retryAfter = time.Now().Add(p.cfg.RetryDelay)
	p.lg.Warnf("%s: %s: tile fetch failed: %v", p.name, id, err)
}

// install decodes raw tile bytes and uploads the result, transitioning
// the entry to ready, or to failed if the bytes don't decode.
func (p *Pipeline) install(id TileId, raw []byte, r renderer.Renderer) {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		p.encoded.Remove(id)
		p.fail(id, err)
		return
	}

	if !p.haveTileSize {
		b := img.Bounds()
		p.tileSize = [2]int{b.Dx(), b.Dy()}
		p.haveTileSize = true
	}

	e, ok := p.cache[id]
	if !ok {
		// The viewport moved on while the fetch was in flight; install
		// anyway and let eviction clean it up.
		e = &cacheEntry{lastSeen: p.frame}
		p.cache[id] = e
	}

	if e.state == stateReady {
		r.UpdateTextureFromImage(e.tex, img, false)
	} else {
		e.tex = r.CreateTextureFromImage(img, false)
	}
	e.state = stateReady
	e.retryAfter = time.Time{}
	p.encoded.Add(id, raw)
}

// evict removes least-recently-visible entries once the cache exceeds its
// soft cap. Entries stamped this frame and entries with an outstanding
// fetch are never evicted.
func (p *Pipeline) evict(r renderer.Renderer) {
	excess := len(p.cache) - p.cfg.MaxTiles
	if excess <= 0 {
		return
	}

	type victim struct {
		id       TileId
		lastSeen uint64
	}
	var candidates []victim
	for id, e := range p.cache {
		if e.lastSeen == p.frame {
			continue
		}
		if _, ok := p.outstanding[id]; ok {
			continue
		}
		candidates = append(candidates, victim{id, e.lastSeen})
	}

	slices.SortFunc(candidates, func(a, b victim) int {
		if a.lastSeen != b.lastSeen {
			return int(a.lastSeen) - int(b.lastSeen)
		}
		// Stable order among equals so eviction is deterministic.
		if a.id.Zoom != b.id.Zoom {
			return int(a.id.Zoom) - int(b.id.Zoom)
		}
		if a.id.X != b.id.X {
			return int(a.id.X) - int(b.id.X)
		}
		return int(a.id.Y) - int(b.id.Y)
	})

	evicted := 0
	for _, v := range candidates {
		if evicted >= excess {
			break
		}
		if e := p.cache[v.id]; e.state == stateReady {
			r.DestroyTexture(e.tex)
		}
		delete(p.cache, v.id)
		evicted++
	}
	if evicted > 0 {
		p.lg.Debugf("%s: evicted %d tiles, %d cached", p.name, evicted, len(p.cache))
	}
}

// Prefetch synchronously fetches every tile the viewport needs into the
// encoded-bytes cache, a bounded number at a time; a following Update
// uploads them. Used by the headless snapshot tool to warm the cache
// before rendering.
func (p *Pipeline) Prefetch(ctx context.Context, vp Viewport) error {
	if vp.Empty() {
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.FetchWorkers)

	for _, id := range vp.Coverage(1).Tiles() {
		id := id
		if _, ok := p.GetTile(id); ok {
			continue
		}
		if _, ok := p.encoded.Get(id); ok {
			continue
		}
		g.Go(func() error {
			raw, err := p.fetcher.FetchTile(ctx, id)
			if err != nil {
				return err
			}
			p.encoded.Add(id, raw)
			return nil
		})
	}

	return g.Wait()
}
