// adsb/adsb.go
// Copyright(c) 2025-2026 flighttrack contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package adsb maintains a live picture of aircraft near the viewed
// area, polled from a network state-vector feed and merged with
// positions decoded locally from an NMEA/ADS-B receiver.
package adsb

import (
	"strings"
	"time"
)

// Airline identifies the operators the display distinguishes by marker
// color; everything else is lumped into AirlineOther.
type Airline int

const (
	AirlineOther Airline = iota
	AirlineSpirit
	AirlineAmerican
	AirlineSouthwest
	AirlineUnited
	AirlineDelta
)

func (a Airline) String() string {
	switch a {
	case AirlineSpirit:
		return "Spirit"
	case AirlineAmerican:
		return "American"
	case AirlineSouthwest:
		return "Southwest"
	case AirlineUnited:
		return "United"
	case AirlineDelta:
		return "Delta"
	default:
		return "Other"
	}
}

// AirlineFromCallsign classifies a flight by the ICAO telephony prefix
// of its callsign.
func AirlineFromCallsign(callsign string) Airline {
	if len(callsign) < 3 {
		return AirlineOther
	}
	switch strings.ToUpper(callsign[:3]) {
	case "NKS":
		return AirlineSpirit
	case "AAL":
		return AirlineAmerican
	case "SWA":
		return AirlineSouthwest
	case "UAL":
		return AirlineUnited
	case "DAL":
		return AirlineDelta
	default:
		return AirlineOther
	}
}

// Aircraft is one tracked target. Positions are WGS84 degrees,
// altitude is barometric meters, speed is meters per second over the
// ground, and track is degrees clockwise from true north.
type Aircraft struct {
	Icao24       string
	Callsign     string
	Airline      Airline
	Latitude     float64
	Longitude    float64
	Altitude     float64
	GroundSpeed  float64
	Track        float64
	VerticalRate float64
	OnGround     bool
	LastSeen     time.Time
}
