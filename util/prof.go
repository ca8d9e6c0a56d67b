// util/prof.go
// Copyright(c) 2025-2026 flighttrack contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"fmt"
	"os"
	"os/signal"
	"runtime/pprof"
	"time"
)

type Profiler struct {
	cpu, mem *os.File
}

func CreateProfiler(cpu, mem string) (Profiler, error) {
	p := Profiler{}

	var err error
	if cpu != "" {
		if p.cpu, err = os.Create(cpu); err != nil {
			return Profiler{}, fmt.Errorf("%s: unable to create CPU profile file: %v", cpu, err)
		} else if err = pprof.StartCPUProfile(p.cpu); err != nil {
			p.cpu.Close()
			return Profiler{}, fmt.Errorf("unable to start CPU profile: %v", err)
		}
	}

	if mem != "" {
		if p.mem, err = os.Create(mem); err != nil {
			return Profiler{}, fmt.Errorf("%s: unable to create memory profile file: %v", mem, err)
		}
	}

	if p.cpu != nil || p.mem != nil {
		// Catch ctrl-c and write out the profile before exiting
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt)

		go func() {
			<-sig
			p.Cleanup()
			os.Exit(0)
		}()
	}

	return p, nil
}

func (p *Profiler) Cleanup() {
	if p.cpu != nil {
		pprof.StopCPUProfile()
		p.cpu.Close()
		p.cpu = nil
	}
	if p.mem != nil {
		if err := pprof.WriteHeapProfile(p.mem); err != nil {
			fmt.Fprintf(os.Stderr, "unable to write memory profile file: %v", err)
		}
		p.mem.Close()
		p.mem = nil
	}
}

///////////////////////////////////////////////////////////////////////////
// FrameProfiler

// FrameProfiler accumulates named timing scopes over the course of a
// frame. It is passed explicitly into the render/update call chain; there
// is no process-wide profiling state. All methods tolerate a nil receiver
// so that profiling can be disabled by passing nil.
type FrameProfiler struct {
	scopes map[string]ScopeStats
}

type ScopeStats struct {
	Calls int
	Total time.Duration
}

func NewFrameProfiler() *FrameProfiler {
	return &FrameProfiler{scopes: make(map[string]ScopeStats)}
}

// Scope starts a named timing scope and returns a function that ends it.
//
//	defer prof.Scope("Tile Cache Update")()
func (p *FrameProfiler) Scope(name string) func() {
	if p == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		s := p.scopes[name]
		s.Calls++
		s.Total += time.Since(start)
		p.scopes[name] = s
	}
}

// Snapshot returns a copy of the accumulated per-scope statistics.
func (p *FrameProfiler) Snapshot() map[string]ScopeStats {
	if p == nil {
		return nil
	}
	snap := make(map[string]ScopeStats, len(p.scopes))
	for name, s := range p.scopes {
		snap[name] = s
	}
	return snap
}

// Reset clears all accumulated scopes; called at the top of each frame.
func (p *FrameProfiler) Reset() {
	if p == nil {
		return
	}
	clear(p.scopes)
}
