// tiles/fetch.go
// Copyright(c) 2025-2026 flighttrack contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package tiles

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Fetcher retrieves the encoded raster bytes for one tile. Fetchers are
// called from multiple worker goroutines and must be safe for concurrent
// use.
type Fetcher interface {
	FetchTile(ctx context.Context, id TileId) ([]byte, error)
}

// HTTPFetcher fetches tiles from a slippy-map HTTP endpoint. The URL
// template uses {z}, {x} and {y} placeholders, so backends that order the
// path differently (e.g. z/y/x) need no special casing.
type HTTPFetcher struct {
	client      *http.Client
	urlTemplate string
}

const fetchTimeout = 15 * time.Second

// Most public tile servers require an identifying User-Agent and reject
// anonymous clients.
const userAgent = "flighttrack/1.0 (+https://github.com/mmp/flighttrack)"

func NewHTTPFetcher(urlTemplate string) *HTTPFetcher {
	return &HTTPFetcher{
		client:      &http.Client{Timeout: fetchTimeout},
		urlTemplate: urlTemplate,
	}
}

// URL expands the template for the given tile.
func (f *HTTPFetcher) URL(id TileId) string {
	r := strings.NewReplacer(
		"{z}", strconv.FormatUint(uint64(id.Zoom), 10),
		"{x}", strconv.FormatUint(uint64(id.X), 10),
		"{y}", strconv.FormatUint(uint64(id.Y), 10))
	return r.Replace(f.urlTemplate)
}

func (f *HTTPFetcher) FetchTile(ctx context.Context, id TileId) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL(id), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "image/png,image/jpeg,image/*")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: returned status %d", f.URL(id), resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
