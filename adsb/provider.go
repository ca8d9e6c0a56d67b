// adsb/provider.go
// Copyright(c) 2025-2026 flighttrack contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package adsb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/exp/maps"

	"github.com/mmp/flighttrack/log"
)

const statesURL = "https://opensky-network.org/api/states/all"

// Provider polls a state-vector feed for aircraft inside a bounding box
// and keeps the most recent report per aircraft. Aircraft returns a
// snapshot; the polling loop runs on its own goroutine.
type Provider struct {
	mu       sync.Mutex
	aircraft map[string]Aircraft

	url      string
	client   *http.Client
	interval time.Duration
	maxAge   time.Duration
	bounds   func() (latMin, latMax, lonMin, lonMax float64)
	lg       *log.Logger
}

// NewProvider returns a Provider that polls for aircraft inside the
// bounding box that bounds reports; bounds is called before each poll so
// the query follows the camera.
func NewProvider(bounds func() (latMin, latMax, lonMin, lonMax float64), lg *log.Logger) *Provider {
	return &Provider{
		aircraft: make(map[string]Aircraft),
		url:      statesURL,
		client:   &http.Client{Timeout: 10 * time.Second},
		interval: 5 * time.Second,
		maxAge:   time.Minute,
		bounds:   bounds,
		lg:       lg,
	}
}

// Aircraft returns a snapshot of the tracked aircraft, ordered by
// ICAO24 address so successive snapshots are stable.
func (p *Provider) Aircraft() []Aircraft {
	p.mu.Lock()
	defer p.mu.Unlock()
	ac := maps.Values(p.aircraft)
	slices.SortFunc(ac, func(a, b Aircraft) int { return strings.Compare(a.Icao24, b.Icao24) })
	return ac
}

// Report records a single aircraft state from an out-of-band source
// (e.g. a local receiver); it supersedes any older report for the same
// aircraft.
func (p *Provider) Report(ac Aircraft) {
	if ac.Icao24 == "" {
		return
	}
	if ac.LastSeen.IsZero() {
		ac.LastSeen = time.Now()
	}
	ac.Airline = AirlineFromCallsign(ac.Callsign)

	p.mu.Lock()
	defer p.mu.Unlock()
	if prev, ok := p.aircraft[ac.Icao24]; !ok || !ac.LastSeen.Before(prev.LastSeen) {
		p.aircraft[ac.Icao24] = ac
	}
}

// Run polls until the context is canceled. The next poll starts one
// interval after the previous one started, so slow requests do not
// stack delay on top of the polling period. Errors are logged and
// polling continues.
func (p *Provider) Run(ctx context.Context) {
	for {
		start := time.Now()
		if err := p.poll(ctx); err != nil && ctx.Err() == nil {
			p.lg.Warnf("adsb: poll: %v", err)
		}
		p.expire(time.Now())

		wait := p.interval - time.Since(start)
		if wait < 0 {
			wait = 0
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

// stateVectors is the feed's response: each state is a heterogeneous
// array, indexed positionally.
type stateVectors struct {
	Time   int64               `json:"time"`
	States [][]json.RawMessage `json:"states"`
}

func (p *Provider) poll(ctx context.Context) error {
	latMin, latMax, lonMin, lonMax := p.bounds()

	q := url.Values{}
	q.Set("lamin", fmt.Sprintf("%.4f", latMin))
	q.Set("lamax", fmt.Sprintf("%.4f", latMax))
	q.Set("lomin", fmt.Sprintf("%.4f", lonMin))
	q.Set("lomax", fmt.Sprintf("%.4f", lonMax))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: returned status %d", p.url, resp.StatusCode)
	}

	var sv stateVectors
	if err := json.NewDecoder(resp.Body).Decode(&sv); err != nil {
		return fmt.Errorf("decoding state vectors: %w", err)
	}

	now := time.Now()
	n := 0
	p.mu.Lock()
	for _, state := range sv.States {
		if ac, ok := decodeState(state, now); ok {
			p.aircraft[ac.Icao24] = ac
			n++
		}
	}
	p.mu.Unlock()

	p.lg.Debugf("adsb: %d aircraft from %d state vectors", n, len(sv.States))
	return nil
}

// Positional indices into a state vector array.
const (
	svIcao24 = iota
	svCallsign
	_ // origin country
	_ // time of position
	_ // last contact
	svLongitude
	svLatitude
	svBaroAltitude
	svOnGround
	svVelocity
	svTrueTrack
	svVerticalRate
	svMinFields
)

func decodeState(state []json.RawMessage, now time.Time) (Aircraft, bool) {
	if len(state) < svMinFields {
		return Aircraft{}, false
	}
	str := func(i int) string {
		var s string
		if json.Unmarshal(state[i], &s) != nil {
			return ""
		}
		return strings.TrimSpace(s)
	}
	num := func(i int) (float64, bool) {
		var v float64
		if json.Unmarshal(state[i], &v) != nil { // null for missing fields
			return 0, false
		}
		return v, true
	}

	ac := Aircraft{
		Icao24:   str(svIcao24),
		Callsign: str(svCallsign),
		LastSeen: now,
	}
	ac.Airline = AirlineFromCallsign(ac.Callsign)

	// A target without a position can't be drawn; skip it.
	var ok bool
	if ac.Longitude, ok = num(svLongitude); !ok {
		return Aircraft{}, false
	}
	if ac.Latitude, ok = num(svLatitude); !ok {
		return Aircraft{}, false
	}
	if ac.Icao24 == "" {
		return Aircraft{}, false
	}

	ac.Altitude, _ = num(svBaroAltitude)
	ac.GroundSpeed, _ = num(svVelocity)
	ac.Track, _ = num(svTrueTrack)
	ac.VerticalRate, _ = num(svVerticalRate)
	json.Unmarshal(state[svOnGround], &ac.OnGround)

	return ac, true
}

// expire drops aircraft that have not reported recently; a target that
// left the bounding box would otherwise hang on the map forever.
func (p *Provider) expire(now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for icao, ac := range p.aircraft {
		if now.Sub(ac.LastSeen) > p.maxAge {
			delete(p.aircraft, icao)
		}
	}
}
