// Copyright (c) 2021–2024 The smu2600 developers. All rights reserved.
// Project site: https://github.com/gotmc/smu2600
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

package smu2600

import (
	"fmt"
	"strings"

	"github.com/gotmc/query"
	"github.com/pkg/errors"
)

// Channel configures and measures one SMU channel. It holds a back
// reference to the owning Instrument, never a copy: capability data stays
// single-sourced, and a channel is invalid once the instrument is closed.
//
// The last selected voltage and current ranges are tracked per channel so
// that a limit can be validated against the matching range before any
// command is sent. They are written only by SetRange.
type Channel struct {
	smu *Instrument
	id  ChannelID

	voltageRange float64 // last selected, zero until a range is set
	currentRange float64
}

// ID returns the channel tag.
func (c *Channel) ID() ChannelID { return c.id }

// Identify returns a model and channel identification string, e.g.
// "2612B Channel A".
func (c *Channel) Identify() string {
	return fmt.Sprintf("%s Channel %s", c.smu.model, strings.ToUpper(string(c.id)))
}

// Reset restores the channel to the instrument's default settings.
func (c *Channel) Reset() error {
	return c.smu.writeLua(cmdReset(c.id))
}

// SetMode puts the channel into voltage-source or current-source mode.
func (c *Channel) SetMode(m SourceMode) error {
	return c.smu.writeLua(cmdSourceFunc(c.id, m))
}

// SetAutorange enables or disables autoranging for the given quantity, on
// the source side and the measurement side together.
func (c *Channel) SetAutorange(q Quantity, enabled bool) error {
	if err := c.smu.writeLua(cmdSourceAutorange(c.id, q, enabled)); err != nil {
		return err
	}
	return c.smu.writeLua(cmdMeasureAutorange(c.id, q, enabled))
}

// SetRange selects the fixed range for the given quantity. The request is
// rounded up to the nearest legal range for this model, which becomes the
// channel's last selected range; source and measurement ranges are then
// programmed to that identical value. A request above the largest legal
// range fails with ErrNoSuitableRange.
func (c *Channel) SetRange(q Quantity, request float64) error {
	chosen, err := selectRange(request, c.smu.caps.rangeTable(q))
	if err != nil {
		return errors.Wrapf(err, "range request %s", formatValue(request))
	}
	c.setLastRange(q, chosen)
	if err := c.smu.writeLua(cmdSourceRange(c.id, q, chosen)); err != nil {
		return err
	}
	return c.smu.writeLua(cmdMeasureRange(c.id, q, chosen))
}

// SetLimit programs the source limit for the given quantity. The limit
// must not exceed the last selected range for the same quantity, and a
// range must have been selected first; violations fail locally with
// ErrRangeViolation and leave the channel untouched.
func (c *Channel) SetLimit(q Quantity, value float64) error {
	r := c.lastRange(q)
	if r == 0 {
		return errors.Wrapf(ErrRangeViolation, "no %s range selected", quantityName(q))
	}
	if value > r {
		return errors.Wrapf(ErrRangeViolation, "limit %s exceeds selected range %s",
			formatValue(value), formatValue(r))
	}
	return c.smu.writeLua(cmdLimit(c.id, q, value))
}

// SetLevel programs the source output level. The sign sets the polarity;
// the instrument clamps the level to its active source range on its own.
func (c *Channel) SetLevel(q Quantity, value float64) error {
	return c.smu.writeLua(cmdLevel(c.id, q, value))
}

// EnableOutput switches the source output on. The channel then sources
// whichever quantity SetMode selected.
func (c *Channel) EnableOutput() error {
	return c.smu.writeLua(cmdOutput(c.id, true))
}

// DisableOutput switches the source output off. The output goes to low
// impedance, so mind high-power devices under test.
func (c *Channel) DisableOutput() error {
	return c.smu.writeLua(cmdOutput(c.id, false))
}

// SetDisplay selects the measurement shown on the front panel for this
// channel.
func (c *Channel) SetDisplay(d DisplayFunc) error {
	return c.smu.writeLua(cmdDisplay(c.id, d))
}

// SetSense selects 2-wire (local) or 4-wire (remote) sensing.
func (c *Channel) SetSense(s SenseMode) error {
	return c.smu.writeLua(cmdSense(c.id, s))
}

// SetSpeed sets the ADC integration aperture in power line cycles.
func (c *Channel) SetSpeed(s Speed) error {
	return c.smu.writeLua(cmdSpeed(c.id, s))
}

// MeasureVoltage triggers a single voltage reading in volts.
func (c *Channel) MeasureVoltage() (float64, error) { return c.measure(measureVoltage) }

// MeasureCurrent triggers a single current reading in amperes.
func (c *Channel) MeasureCurrent() (float64, error) { return c.measure(measureCurrent) }

// MeasureResistance triggers a single resistance reading in ohms.
func (c *Channel) MeasureResistance() (float64, error) { return c.measure(measureResistance) }

// MeasurePower triggers a single power reading in watts.
func (c *Channel) MeasurePower() (float64, error) { return c.measure(measurePower) }

func (c *Channel) measure(u measureUnit) (float64, error) {
	return query.Float64(checkedQuerier{c.smu}, cmdMeasure(c.id, u))
}

// MeasureCurrentAndVoltage triggers one simultaneous current and voltage
// reading, for exact time correlation between the two.
func (c *Channel) MeasureCurrentAndVoltage() (current, voltage float64, err error) {
	reply, err := c.smu.queryLua(cmdMeasure(c.id, measureCurrentVoltage))
	if err != nil {
		return 0, 0, err
	}
	vals, err := parseFloats(reply, sepReading, 2)
	if err != nil {
		return 0, 0, err
	}
	return vals[0], vals[1], nil
}

// Config collects the usual channel setup in one struct. Zero-valued
// fields are skipped, so a partial Config only touches what it names.
type Config struct {
	Mode             SourceMode
	VoltageRange     float64
	CurrentRange     float64
	VoltageLimit     float64
	CurrentLimit     float64
	AutorangeVoltage bool
	AutorangeCurrent bool
	Display          DisplayFunc
	Sense            SenseMode
	Speed            Speed
}

// Configure applies cfg in dependency order: mode first, then ranges, then
// the limits that are validated against them, then autorange, display,
// sense and speed.
func (c *Channel) Configure(cfg Config) error {
	if cfg.Mode != "" {
		if err := c.SetMode(cfg.Mode); err != nil {
			return err
		}
	}
	if cfg.VoltageRange != 0 {
		if err := c.SetRange(Voltage, cfg.VoltageRange); err != nil {
			return err
		}
	}
	if cfg.CurrentRange != 0 {
		if err := c.SetRange(Current, cfg.CurrentRange); err != nil {
			return err
		}
	}
	if cfg.VoltageLimit != 0 {
		if err := c.SetLimit(Voltage, cfg.VoltageLimit); err != nil {
			return err
		}
	}
	if cfg.CurrentLimit != 0 {
		if err := c.SetLimit(Current, cfg.CurrentLimit); err != nil {
			return err
		}
	}
	if cfg.AutorangeVoltage {
		if err := c.SetAutorange(Voltage, true); err != nil {
			return err
		}
	}
	if cfg.AutorangeCurrent {
		if err := c.SetAutorange(Current, true); err != nil {
			return err
		}
	}
	if cfg.Display != "" {
		if err := c.SetDisplay(cfg.Display); err != nil {
			return err
		}
	}
	if cfg.Sense != "" {
		if err := c.SetSense(cfg.Sense); err != nil {
			return err
		}
	}
	if cfg.Speed != 0 {
		if err := c.SetSpeed(cfg.Speed); err != nil {
			return err
		}
	}
	return nil
}

func (c *Channel) lastRange(q Quantity) float64 {
	if q == Current {
		return c.currentRange
	}
	return c.voltageRange
}

func (c *Channel) setLastRange(q Quantity, v float64) {
	if q == Current {
		c.currentRange = v
	} else {
		c.voltageRange = v
	}
}

func quantityName(q Quantity) string {
	if q == Current {
		return "current"
	}
	return "voltage"
}
