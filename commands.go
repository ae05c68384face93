// Copyright (c) 2021–2024 The smu2600 developers. All rights reserved.
// Project site: https://github.com/gotmc/smu2600
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

package smu2600

import (
	"fmt"
	"strconv"
	"strings"
)

// ChannelID selects one SMU channel. The values match the smuX node names
// in the TSP command language.
type ChannelID string

// Channels of a 2600-series SMU. Every unit has channel A.
const (
	ChannelA ChannelID = "a"
	ChannelB ChannelID = "b"
)

// Quantity is a sourced or measured electrical quantity.
type Quantity string

// Quantities that can be sourced, ranged and limited. The values match the
// TSP attribute suffixes (rangev, leveli, ...).
const (
	Voltage Quantity = "v"
	Current Quantity = "i"
)

// measureUnit extends Quantity with measure-only functions.
type measureUnit string

const (
	measureVoltage        measureUnit = "v"
	measureCurrent        measureUnit = "i"
	measureResistance     measureUnit = "r"
	measurePower          measureUnit = "p"
	measureCurrentVoltage measureUnit = "iv"
)

// SourceMode selects whether a channel sources voltage or current.
type SourceMode string

const (
	VoltageSource SourceMode = "DCVOLTS"
	CurrentSource SourceMode = "DCAMPS"
)

// DisplayFunc selects the measurement shown on the front panel.
type DisplayFunc string

const (
	DisplayVoltage    DisplayFunc = "DCVOLTS"
	DisplayCurrent    DisplayFunc = "DCAMPS"
	DisplayResistance DisplayFunc = "OHMS"
	DisplayPower      DisplayFunc = "WATTS"
)

// SenseMode selects 2-wire (local) or 4-wire (remote) sensing.
type SenseMode string

const (
	Sense2Wire SenseMode = "SENSE_LOCAL"
	Sense4Wire SenseMode = "SENSE_REMOTE"
)

// Speed is the ADC integration aperture in power line cycles. Shorter
// apertures measure faster at reduced accuracy.
type Speed float64

const (
	SpeedFast       Speed = 0.01 // ~5000 readings/s
	SpeedMedium     Speed = 0.1  // ~500 readings/s
	SpeedNormal     Speed = 1    // ~50 readings/s
	SpeedHiAccuracy Speed = 10   // ~5 readings/s
)

// Fixed TSP fragments.
const (
	errorQueueClear = "errorqueue.clear()"
	errorQueueNext  = "errorcode, message = errorqueue.next()\nprint(errorcode, message)"
	identifyQuery   = "print(localnode.model)"
	livenessQuery   = `print("Are you alive?")`
)

// Reply field separators: single readings come back tab-separated, buffer
// dumps comma-separated.
const (
	sepReading = "\t"
	sepBuffer  = ","
)

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func onOff(enabled bool) string {
	if enabled {
		return "ON"
	}
	return "OFF"
}

func cmdReset(ch ChannelID) string {
	return fmt.Sprintf("smu%s.reset()", ch)
}

func cmdSourceFunc(ch ChannelID, m SourceMode) string {
	return fmt.Sprintf("smu%s.source.func = smu%s.OUTPUT_%s", ch, ch, m)
}

func cmdDisplay(ch ChannelID, d DisplayFunc) string {
	return fmt.Sprintf("display.smu%s.measure.func = display.MEASURE_%s", ch, d)
}

func cmdSpeed(ch ChannelID, s Speed) string {
	return fmt.Sprintf("smu%s.measure.nplc = %s", ch, formatValue(float64(s)))
}

func cmdSense(ch ChannelID, s SenseMode) string {
	return fmt.Sprintf("smu%s.sense = smu%s.%s", ch, ch, s)
}

func cmdSourceAutorange(ch ChannelID, q Quantity, enabled bool) string {
	return fmt.Sprintf("smu%s.source.autorange%s = smu%s.AUTORANGE_%s", ch, q, ch, onOff(enabled))
}

func cmdMeasureAutorange(ch ChannelID, q Quantity, enabled bool) string {
	return fmt.Sprintf("smu%s.measure.autorange%s = smu%s.AUTORANGE_%s", ch, q, ch, onOff(enabled))
}

func cmdSourceRange(ch ChannelID, q Quantity, v float64) string {
	return fmt.Sprintf("smu%s.source.range%s = %s", ch, q, formatValue(v))
}

func cmdMeasureRange(ch ChannelID, q Quantity, v float64) string {
	return fmt.Sprintf("smu%s.measure.range%s = %s", ch, q, formatValue(v))
}

func cmdLimit(ch ChannelID, q Quantity, v float64) string {
	return fmt.Sprintf("smu%s.source.limit%s = %s", ch, q, formatValue(v))
}

func cmdLevel(ch ChannelID, q Quantity, v float64) string {
	return fmt.Sprintf("smu%s.source.level%s = %s", ch, q, formatValue(v))
}

func cmdOutput(ch ChannelID, enabled bool) string {
	return fmt.Sprintf("smu%s.source.output = smu%s.OUTPUT_%s", ch, ch, onOff(enabled))
}

func cmdMeasure(ch ChannelID, u measureUnit) string {
	return fmt.Sprintf("print(smu%s.measure.%s())", ch, u)
}

// cmdMeasureBoth reads the same quantity on both channels in one trigger,
// so the two readings are time-correlated.
func cmdMeasureBoth(u measureUnit) string {
	return fmt.Sprintf("ChA = smua.measure.%s()\nChB = smub.measure.%s()\nprint(ChA, ChB)", u, u)
}

// cmdMeasureIVBoth reads current and voltage on both channels, four values.
func cmdMeasureIVBoth() string {
	return "iChA, vChA = smua.measure.iv()\n" +
		"iChB, vChB = smub.measure.iv()\n" +
		"print(iChA, vChA, iChB, vChB)"
}

// cmdBufferArm prepares nvbuffer1 for a sweep: cleared, append mode, source
// values captured alongside readings, one reading per step.
func cmdBufferArm(ch ChannelID) string {
	return fmt.Sprintf("smu%s.nvbuffer1.clear()\n", ch) +
		fmt.Sprintf("smu%s.nvbuffer1.appendmode = 1\n", ch) +
		fmt.Sprintf("smu%s.nvbuffer1.collectsourcevalues = 1\n", ch) +
		fmt.Sprintf("smu%s.measure.count = 1", ch)
}

// cmdSweep builds the factory linear staircase sweep call, e.g.
// SweepVLinMeasureI(smua, -2, 5, 0.01, 71).
func cmdSweep(ch ChannelID, q Quantity, start, stop, settle float64, points int) string {
	sweepUnit, measUnit := "V", "I"
	if q == Current {
		sweepUnit, measUnit = "I", "V"
	}
	return fmt.Sprintf("Sweep%sLinMeasure%s(smu%s, %s, %s, %s, %d)",
		sweepUnit, measUnit, ch,
		formatValue(start), formatValue(stop), formatValue(settle), points)
}

// bufferSeries names one of the two capture-buffer tables.
type bufferSeries string

const (
	seriesReadings     bufferSeries = "readings"
	seriesSourceValues bufferSeries = "sourcevalues"
)

// cmdPrintBuffer dumps buffer entries first..last (1-based, inclusive).
func cmdPrintBuffer(ch ChannelID, first, last int, s bufferSeries) string {
	return fmt.Sprintf("printbuffer(%d, %d, smu%s.nvbuffer1.%s)", first, last, ch, s)
}

// parseFloats decodes a reply into exactly want floating-point numbers
// split on sep. want == 0 accepts any nonzero count (buffer pages).
func parseFloats(raw, sep string, want int) ([]float64, error) {
	trimmed := strings.TrimSpace(strings.ReplaceAll(raw, "'", ""))
	parts := strings.Split(trimmed, sep)
	if want > 0 && len(parts) != want {
		return nil, &ParseError{Raw: raw, Want: want}
	}
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, &ParseError{Raw: raw, Want: want, Err: err}
		}
		out = append(out, v)
	}
	return out, nil
}

// parseErrorRecord splits an error-queue reply into its code and message.
// ok is false when the reply does not have the code<TAB>message shape; the
// caller must treat that as a fault, never as success.
func parseErrorRecord(raw string) (code int, message string, ok bool) {
	parts := strings.SplitN(strings.TrimSpace(raw), "\t", 2)
	if len(parts) != 2 {
		return 0, "", false
	}
	// The instrument prints the code as a Lua number, e.g. "-2.86000e+02".
	f, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, "", false
	}
	return int(f), strings.TrimSpace(parts[1]), true
}
