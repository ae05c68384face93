// Copyright (c) 2021–2024 The smu2600 developers. All rights reserved.
// Project site: https://github.com/gotmc/smu2600
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

package smu2600

import (
	"errors"
	"math"
	"testing"
)

func TestChannelBOnSingleChannelUnit(t *testing.T) {
	smu, tr := newTestInstrument(t, "2611B")
	_, err := smu.Channel(ChannelB)
	if !errors.Is(err, ErrUnsupportedChannel) {
		t.Fatalf("Channel(B) error = %v, want ErrUnsupportedChannel", err)
	}
	if len(tr.sent) != 0 {
		t.Errorf("channel validation reached the bus: %q", tr.sent)
	}
}

func TestChannelBOnDualChannelUnit(t *testing.T) {
	smu, _ := newTestInstrument(t, "2612B")
	ch, err := smu.Channel(ChannelB)
	if err != nil {
		t.Fatalf("Channel(B): %s", err)
	}
	if got := ch.Identify(); got != "2612B Channel B" {
		t.Errorf("Identify() = %q", got)
	}
}

func TestSetRangeSelectsCeiling(t *testing.T) {
	smu, tr := newTestInstrument(t, "2612B")
	ch, _ := smu.Channel(ChannelA)

	// 10 V is not a table entry; the 20 V range is the ceiling.
	if err := ch.SetRange(Voltage, 10); err != nil {
		t.Fatalf("SetRange: %s", err)
	}
	if ch.voltageRange != 20 {
		t.Errorf("last selected range = %g, want 20", ch.voltageRange)
	}
	for _, want := range []string{
		"smua.source.rangev = 20",
		"smua.measure.rangev = 20",
	} {
		if tr.commandsMatching(want) != 1 {
			t.Errorf("missing command %q in %q", want, tr.sent)
		}
	}
}

func TestSetRangeTooLarge(t *testing.T) {
	smu, tr := newTestInstrument(t, "2612B")
	ch, _ := smu.Channel(ChannelA)

	err := ch.SetRange(Current, 10)
	if !errors.Is(err, ErrNoSuitableRange) {
		t.Fatalf("SetRange error = %v, want ErrNoSuitableRange", err)
	}
	if len(tr.sent) != 0 {
		t.Errorf("failed range selection reached the bus: %q", tr.sent)
	}
	if ch.currentRange != 0 {
		t.Errorf("failed range selection mutated state: %g", ch.currentRange)
	}
}

func TestSetLimitRequiresRange(t *testing.T) {
	smu, tr := newTestInstrument(t, "2612B")
	ch, _ := smu.Channel(ChannelA)

	err := ch.SetLimit(Current, 0.01)
	if !errors.Is(err, ErrRangeViolation) {
		t.Fatalf("SetLimit error = %v, want ErrRangeViolation", err)
	}
	if len(tr.sent) != 0 {
		t.Errorf("limit without range reached the bus: %q", tr.sent)
	}
}

func TestSetLimitAgainstSelectedRange(t *testing.T) {
	smu, tr := newTestInstrument(t, "2612B")
	ch, _ := smu.Channel(ChannelA)
	if err := ch.SetRange(Current, 0.1); err != nil {
		t.Fatalf("SetRange: %s", err)
	}
	tr.sent = nil

	// Within the selected range.
	if err := ch.SetLimit(Current, 0.05); err != nil {
		t.Fatalf("SetLimit(0.05): %s", err)
	}
	if tr.commandsMatching("smua.source.limiti = 0.05") != 1 {
		t.Errorf("limit command not sent: %q", tr.sent)
	}

	// Above the selected range: rejected locally, state untouched.
	tr.sent = nil
	err := ch.SetLimit(Current, 0.2)
	if !errors.Is(err, ErrRangeViolation) {
		t.Fatalf("SetLimit(0.2) error = %v, want ErrRangeViolation", err)
	}
	if len(tr.sent) != 0 {
		t.Errorf("rejected limit reached the bus: %q", tr.sent)
	}
	if ch.currentRange != 0.1 {
		t.Errorf("rejected limit mutated the selected range: %g", ch.currentRange)
	}

	// The voltage quantity has no range selected yet.
	if err := ch.SetLimit(Voltage, 0.05); !errors.Is(err, ErrRangeViolation) {
		t.Errorf("SetLimit(Voltage) error = %v, want ErrRangeViolation", err)
	}
}

func TestSetAutorangeProgramsBothSides(t *testing.T) {
	smu, tr := newTestInstrument(t, "2612B")
	ch, _ := smu.Channel(ChannelA)
	if err := ch.SetAutorange(Current, true); err != nil {
		t.Fatalf("SetAutorange: %s", err)
	}
	for _, want := range []string{
		"smua.source.autorangei = smua.AUTORANGE_ON",
		"smua.measure.autorangei = smua.AUTORANGE_ON",
	} {
		if tr.commandsMatching(want) != 1 {
			t.Errorf("missing command %q in %q", want, tr.sent)
		}
	}
}

func TestMeasureSingle(t *testing.T) {
	smu, tr := newTestInstrument(t, "2612B")
	tr.handle = func(cmd string) (string, error, bool) {
		if cmd == "print(smua.measure.i())" {
			return "1.234567e-03", nil, true
		}
		return "", nil, false
	}
	ch, _ := smu.Channel(ChannelA)
	got, err := ch.MeasureCurrent()
	if err != nil {
		t.Fatalf("MeasureCurrent: %s", err)
	}
	if math.Abs(got-1.234567e-3) > 1e-12 {
		t.Errorf("MeasureCurrent = %g", got)
	}
}

func TestMeasureCurrentAndVoltage(t *testing.T) {
	smu, tr := newTestInstrument(t, "2612B")
	tr.handle = func(cmd string) (string, error, bool) {
		if cmd == "print(smua.measure.iv())" {
			return "2.5e-03\t4.99e+00", nil, true
		}
		return "", nil, false
	}
	ch, _ := smu.Channel(ChannelA)
	current, voltage, err := ch.MeasureCurrentAndVoltage()
	if err != nil {
		t.Fatalf("MeasureCurrentAndVoltage: %s", err)
	}
	if current != 2.5e-3 || voltage != 4.99 {
		t.Errorf("got (%g, %g), want (0.0025, 4.99)", current, voltage)
	}
}

func TestConfigureAppliesInDependencyOrder(t *testing.T) {
	smu, tr := newTestInstrument(t, "2612B")
	ch, _ := smu.Channel(ChannelA)
	err := ch.Configure(Config{
		Mode:         VoltageSource,
		VoltageRange: 10,
		VoltageLimit: 10,
		Display:      DisplayCurrent,
		Sense:        Sense2Wire,
		Speed:        SpeedNormal,
	})
	if err != nil {
		t.Fatalf("Configure: %s", err)
	}

	// The range must be programmed before the limit that depends on it.
	rangeIdx, limitIdx := -1, -1
	for n, cmd := range tr.sent {
		switch cmd {
		case "smua.source.rangev = 20":
			rangeIdx = n
		case "smua.source.limitv = 10":
			limitIdx = n
		}
	}
	if rangeIdx < 0 || limitIdx < 0 {
		t.Fatalf("range or limit command missing: %q", tr.sent)
	}
	if rangeIdx > limitIdx {
		t.Errorf("limit programmed before its range: %q", tr.sent)
	}
	if tr.commandsMatching("smua.measure.nplc = 1") != 1 {
		t.Errorf("speed command missing: %q", tr.sent)
	}
}

func TestConfigureLimitWithoutRangeFails(t *testing.T) {
	smu, _ := newTestInstrument(t, "2612B")
	ch, _ := smu.Channel(ChannelA)
	err := ch.Configure(Config{CurrentLimit: 0.1})
	if !errors.Is(err, ErrRangeViolation) {
		t.Errorf("Configure error = %v, want ErrRangeViolation", err)
	}
}
