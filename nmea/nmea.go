// nmea/nmea.go
// Copyright(c) 2025-2026 flighttrack contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package nmea reads position fixes from a serial GPS receiver so the
// map can follow the observer. The driver owns the port: it reopens it
// with backoff when reads fail and delivers parsed fixes over a bounded
// channel, dropping fixes rather than stalling the reader when the
// consumer falls behind.
package nmea

import (
	"bufio"
	"context"
	"strings"
	"time"

	gonmea "github.com/adrianmo/go-nmea"
	"go.bug.st/serial"

	"github.com/mmp/flighttrack/log"
)

// Fix is one position report from the receiver. GroundSpeed is knots
// and Track is degrees true; Altitude is meters and only present on
// fixes derived from GGA sentences. Time is zero when the sentence
// carried no date.
type Fix struct {
	Latitude    float64
	Longitude   float64
	Altitude    float64
	GroundSpeed float64
	Track       float64
	Time        time.Time
}

// Driver streams fixes from a serial NMEA source.
type Driver struct {
	device string
	baud   int
	fixes  chan Fix
	lg     *log.Logger
}

const fixChannelDepth = 16

// NewDriver returns a driver for the given serial device (e.g.
// /dev/ttyUSB0) at the given baud rate; 0 selects the customary 9600.
func NewDriver(device string, baud int, lg *log.Logger) *Driver {
	if baud == 0 {
		baud = 9600
	}
	return &Driver{
		device: device,
		baud:   baud,
		fixes:  make(chan Fix, fixChannelDepth),
		lg:     lg,
	}
}

// Fixes returns the channel fixes are delivered on.
func (d *Driver) Fixes() <-chan Fix { return d.fixes }

// Run reads from the port until the context is canceled, reopening the
// port with exponential backoff after open or read failures; receivers
// get unplugged and replugged all the time.
func (d *Driver) Run(ctx context.Context) {
	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		start := time.Now()
		err := d.readPort(ctx)
		if ctx.Err() != nil {
			return
		}
		if time.Since(start) > time.Minute {
			// It worked for a while; start the backoff over.
			backoff = time.Second
		}
		d.lg.Warnf("nmea: %s: %v; reopening in %s", d.device, err, backoff)

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff = min(2*backoff, maxBackoff)
	}
}

func (d *Driver) readPort(ctx context.Context) error {
	port, err := serial.Open(d.device, &serial.Mode{BaudRate: d.baud})
	if err != nil {
		return err
	}
	defer port.Close()

	// Closing the port unblocks a pending read on cancellation.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			port.Close()
		case <-done:
		}
	}()

	d.lg.Infof("nmea: reading from %s at %d baud", d.device, d.baud)
	scanner := bufio.NewScanner(port)
	for scanner.Scan() {
		d.handleSentence(strings.TrimSpace(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return nil
}

func (d *Driver) handleSentence(line string) {
	if line == "" {
		return
	}
	s, err := gonmea.Parse(line)
	if err != nil {
		// Garbled sentences are routine on serial links.
		d.lg.Debugf("nmea: %q: %v", line, err)
		return
	}

	switch m := s.(type) {
	case gonmea.RMC:
		if m.Validity != gonmea.ValidRMC {
			return
		}
		d.send(Fix{
			Latitude:    m.Latitude,
			Longitude:   m.Longitude,
			GroundSpeed: m.Speed,
			Track:       m.Course,
			Time:        fixTime(m.Date, m.Time),
		})
	case gonmea.GGA:
		if m.FixQuality == gonmea.Invalid {
			return
		}
		d.send(Fix{
			Latitude:  m.Latitude,
			Longitude: m.Longitude,
			Altitude:  m.Altitude,
		})
	}
}

func (d *Driver) send(fix Fix) {
	select {
	case d.fixes <- fix:
	default:
		d.lg.Warnf("nmea: fix channel full, dropping fix")
	}
}

func fixTime(date gonmea.Date, tod gonmea.Time) time.Time {
	if !date.Valid || !tod.Valid {
		return time.Time{}
	}
	year := 2000 + date.YY
	if date.YY >= 80 {
		year = 1900 + date.YY
	}
	return time.Date(year, time.Month(date.MM), date.DD,
		tod.Hour, tod.Minute, tod.Second, tod.Millisecond*int(time.Millisecond),
		time.UTC)
}
