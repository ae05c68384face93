// Copyright (c) 2021–2024 The smu2600 developers. All rights reserved.
// Project site: https://github.com/gotmc/smu2600
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

package smu2600

import (
	"time"

	"github.com/pkg/errors"
)

// maxBufferValues caps how many buffer entries one bus read may return.
// Larger reads overrun the session's read window, so the capture buffer is
// drained in pages of at most this many values.
const maxBufferValues = 1000

// SweepSpec describes a linear staircase sweep executed by the instrument
// itself: Points steps from Start to Stop, each held for SettlingTime
// before its measurement is taken.
type SweepSpec struct {
	Start        float64
	Stop         float64
	SettlingTime time.Duration
	Points       int
}

// SweepResult holds the two series captured by a sweep, ordered by step
// index. Source holds the staircase levels actually programmed; Measured
// holds the complementary quantity read back at each step.
type SweepResult struct {
	Swept    Quantity
	Source   []float64
	Measured []float64
}

// CurrentVoltage returns the result as (current, voltage) regardless of
// which quantity was swept, the stable convention for callers.
func (r *SweepResult) CurrentVoltage() (current, voltage []float64) {
	if r.Swept == Voltage {
		return r.Measured, r.Source
	}
	return r.Source, r.Measured
}

// sweepState tracks the sweep engine for failure reporting.
type sweepState int

const (
	sweepIdle sweepState = iota
	sweepBufferArmed
	sweepTriggered
	sweepPolling
	sweepDraining
	sweepComplete
)

func (s sweepState) String() string {
	switch s {
	case sweepIdle:
		return "idle"
	case sweepBufferArmed:
		return "arming the buffer"
	case sweepTriggered:
		return "triggering"
	case sweepPolling:
		return "polling"
	case sweepDraining:
		return "draining the buffer"
	case sweepComplete:
		return "complete"
	}
	return "unknown"
}

// bufferPage is a 1-based inclusive index range into the capture buffer.
type bufferPage struct {
	First, Last int
}

// bufferPages splits 1..points into contiguous pages of at most pageSize
// entries.
func bufferPages(points, pageSize int) []bufferPage {
	var pages []bufferPage
	for first := 1; first <= points; first += pageSize {
		last := first + pageSize - 1
		if last > points {
			last = points
		}
		pages = append(pages, bufferPage{First: first, Last: last})
	}
	return pages
}

// SweepVoltage runs a staircase voltage sweep and measures current at each
// step.
func (c *Channel) SweepVoltage(spec SweepSpec) (*SweepResult, error) {
	return c.sweep(Voltage, spec)
}

// SweepCurrent runs a staircase current sweep and measures voltage at each
// step.
func (c *Channel) SweepCurrent(spec SweepSpec) (*SweepResult, error) {
	return c.sweep(Current, spec)
}

// sweep drives the buffered sweep end to end: arm the capture buffer,
// trigger the staircase, poll until the instrument answers again, then
// drain both series in pages. Any bus error or instrument fault discards
// the partial buffer contents; there is no partial result.
func (c *Channel) sweep(q Quantity, spec SweepSpec) (*SweepResult, error) {
	if spec.Points <= 0 {
		return nil, errors.Errorf("sweep needs a positive point count, got %d", spec.Points)
	}

	state := sweepIdle
	fault := func(err error) error {
		return errors.Wrapf(err, "sweep faulted while %s", state)
	}

	state = sweepBufferArmed
	if err := c.smu.writeLua(cmdBufferArm(c.id)); err != nil {
		return nil, fault(err)
	}

	// The instrument is busy for the sweep's whole duration and will not
	// answer the error-queue query, so the trigger goes out unchecked.
	state = sweepTriggered
	trigger := cmdSweep(c.id, q, spec.Start, spec.Stop, spec.SettlingTime.Seconds(), spec.Points)
	if err := c.smu.writeLuaUnchecked(trigger); err != nil {
		return nil, fault(err)
	}

	// Ask a harmless question until the instrument answers. A timeout
	// means the sweep is still running; sweep duration is unbounded and
	// instrument-determined, so there is no attempt cap and no backoff.
	state = sweepPolling
	for {
		_, err := c.smu.queryLuaUnchecked(livenessQuery)
		if err == nil {
			break
		}
		if !IsTimeout(err) {
			return nil, fault(err)
		}
	}
	// Drop any stray bytes left over from the just-finished sweep.
	if err := c.smu.tr.Clear(); err != nil {
		return nil, fault(err)
	}

	state = sweepDraining
	pages := bufferPages(spec.Points, maxBufferValues)
	measured, err := c.drainSeries(seriesReadings, pages, spec.Points)
	if err != nil {
		return nil, fault(err)
	}
	source, err := c.drainSeries(seriesSourceValues, pages, spec.Points)
	if err != nil {
		return nil, fault(err)
	}

	state = sweepComplete
	return &SweepResult{Swept: q, Source: source, Measured: measured}, nil
}

// drainSeries reads one capture-buffer series page by page, reassembling
// it in step order. The input buffer is cleared after every page so a long
// dump cannot desynchronize the next reply.
func (c *Channel) drainSeries(s bufferSeries, pages []bufferPage, points int) ([]float64, error) {
	out := make([]float64, 0, points)
	for _, p := range pages {
		reply, err := c.smu.queryLuaUnchecked(cmdPrintBuffer(c.id, p.First, p.Last, s))
		if err != nil {
			return nil, err
		}
		vals, err := parseFloats(reply, sepBuffer, p.Last-p.First+1)
		if err != nil {
			return nil, err
		}
		out = append(out, vals...)
		if err := c.smu.tr.Clear(); err != nil {
			return nil, err
		}
	}
	return out, nil
}
