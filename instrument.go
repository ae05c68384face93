// Copyright (c) 2021–2024 The smu2600 developers. All rights reserved.
// Project site: https://github.com/gotmc/smu2600
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

// Package smu2600 drives Keithley 2600B-series source-measure units using
// the TSP command language over a line-oriented bus session (VCP serial or
// raw LAN socket). It covers channel configuration, fixed-range selection,
// single and dual-channel readings, and hardware-executed linear sweeps.
package smu2600

import (
	"io"
	"log"
	"strings"

	"github.com/gotmc/query"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Instrument is one connected source-measure unit. It owns the bus session
// and the capability profile discovered at connect time. All operations
// are blocking round trips; the instrument must not be shared between
// goroutines without external serialization.
type Instrument struct {
	tr        Transport
	connected bool
	debug     bool // if true, log every TSP command and reply
	model     string
	caps      Capabilities
	profiles  map[string]Capabilities
}

// Option applies an option to the instrument.
type Option func(*Instrument)

// WithDebug logs all TSP traffic, including the error-queue validation
// round trips. Observability only.
func WithDebug() Option { return func(i *Instrument) { i.debug = true } }

// WithProfile registers an additional capability profile, matched against
// the model identification string by substring. It overrides a built-in
// profile with the same substring.
func WithProfile(modelSubstring string, caps Capabilities) Option {
	return func(i *Instrument) { i.profiles[modelSubstring] = caps }
}

// New connects to the SMU over the given session: it clears the error
// queue and any stale input, identifies the model, and looks up its
// capability profile. Unknown models fail with ErrUnsupportedModel.
func New(tr Transport, opts ...Option) (*Instrument, error) {
	smu := &Instrument{
		tr:        tr,
		connected: true,
		profiles:  make(map[string]Capabilities, len(defaultProfiles)),
	}
	for substr, caps := range defaultProfiles {
		smu.profiles[substr] = caps
	}
	for _, opt := range opts {
		opt(smu)
	}

	if err := smu.writeLua(errorQueueClear); err != nil {
		return nil, errors.Wrap(err, "clearing error queue")
	}
	if err := tr.Clear(); err != nil {
		return nil, err
	}
	model, err := query.String(checkedQuerier{smu}, identifyQuery)
	if err != nil {
		return nil, errors.Wrap(err, "model identification failed")
	}
	smu.model = strings.TrimSpace(model)
	caps, err := lookupCapabilities(smu.model, smu.profiles)
	if err != nil {
		return nil, errors.Wrap(err, smu.model)
	}
	smu.caps = caps
	return smu, nil
}

// Model returns the model identification string, e.g. "2612B".
func (i *Instrument) Model() string { return i.model }

// AvailableVoltageRanges returns the legal voltage ranges for this model.
func (i *Instrument) AvailableVoltageRanges() []float64 {
	return append([]float64(nil), i.caps.VoltageRanges...)
}

// AvailableCurrentRanges returns the legal current ranges for this model.
func (i *Instrument) AvailableCurrentRanges() []float64 {
	return append([]float64(nil), i.caps.CurrentRanges...)
}

// SetDebug switches TSP traffic logging on or off.
func (i *Instrument) SetDebug(on bool) { i.debug = on }

// Channel returns a handle for configuring and measuring one channel.
// Requesting channel B on a single-channel unit fails immediately, before
// any command is issued.
func (i *Instrument) Channel(id ChannelID) (*Channel, error) {
	switch id {
	case ChannelA:
	case ChannelB:
		if !i.caps.ChannelBPresent {
			return nil, errors.Wrapf(ErrUnsupportedChannel, "model %s", i.model)
		}
	default:
		return nil, errors.Errorf("invalid channel %q", id)
	}
	return &Channel{smu: i, id: id}, nil
}

// Close drains the session and closes the underlying connection if it owns
// one. The instrument is unusable afterwards.
func (i *Instrument) Close() error {
	if !i.connected {
		return nil
	}
	i.connected = false
	err := i.tr.Clear()
	if c, ok := i.tr.(io.Closer); ok {
		err = multierr.Append(err, c.Close())
	}
	return err
}

// writeLua sends a TSP command and validates it against the error queue.
func (i *Instrument) writeLua(cmd string) error {
	if err := i.writeLuaUnchecked(cmd); err != nil {
		return err
	}
	return i.checkErrorQueue()
}

// writeLuaUnchecked sends a TSP command without the error-queue round
// trip. Used where the instrument will not answer, e.g. while a sweep is
// executing, since the validation query would itself time out.
func (i *Instrument) writeLuaUnchecked(cmd string) error {
	if !i.connected {
		return ErrNotConnected
	}
	if i.debug {
		log.Printf("write: %s", cmd)
	}
	return i.tr.Command(cmd)
}

// queryLua sends a TSP command, reads one reply line, and validates the
// command against the error queue.
func (i *Instrument) queryLua(cmd string) (string, error) {
	reply, err := i.queryLuaUnchecked(cmd)
	if err != nil {
		return "", err
	}
	if err := i.checkErrorQueue(); err != nil {
		return "", err
	}
	return reply, nil
}

func (i *Instrument) queryLuaUnchecked(cmd string) (string, error) {
	if !i.connected {
		return "", ErrNotConnected
	}
	if i.debug {
		log.Printf("query: %s", cmd)
	}
	reply, err := i.tr.Query(cmd)
	if err != nil {
		return "", err
	}
	if i.debug {
		log.Printf("answer: %s", reply)
	}
	return reply, nil
}

// checkErrorQueue pops one entry from the instrument's error queue. A
// nonzero code is an InstrumentFault; a reply that does not parse as
// code<TAB>message is a fault carrying the raw reply, never a success.
func (i *Instrument) checkErrorQueue() error {
	reply, err := i.tr.Query(errorQueueNext)
	if err != nil {
		return err
	}
	if i.debug {
		log.Printf("errorqueue: %s", reply)
	}
	code, message, ok := parseErrorRecord(reply)
	if !ok {
		return &InstrumentFault{Message: reply}
	}
	if code != 0 {
		return &InstrumentFault{Code: code, Message: message}
	}
	return nil
}

// checkedQuerier adapts the validated query path to query.Querier.
type checkedQuerier struct{ smu *Instrument }

func (q checkedQuerier) Query(s string) (string, error) { return q.smu.queryLua(s) }

// measureBoth triggers the same measurement on both channels and decodes
// want tab-separated readings.
func (i *Instrument) measureBoth(u measureUnit, want int) ([]float64, error) {
	if !i.caps.ChannelBPresent {
		return nil, errors.Wrap(ErrUnsupportedChannel,
			"this unit has one channel; use the channel measurement instead")
	}
	cmd := cmdMeasureBoth(u)
	if u == measureCurrentVoltage {
		cmd = cmdMeasureIVBoth()
	}
	reply, err := i.queryLua(cmd)
	if err != nil {
		return nil, err
	}
	return parseFloats(reply, sepReading, want)
}

// MeasureBothVoltage triggers a time-correlated voltage reading on both
// channels.
func (i *Instrument) MeasureBothVoltage() (chA, chB float64, err error) {
	return i.measurePair(measureVoltage)
}

// MeasureBothCurrent triggers a time-correlated current reading on both
// channels.
func (i *Instrument) MeasureBothCurrent() (chA, chB float64, err error) {
	return i.measurePair(measureCurrent)
}

// MeasureBothResistance triggers a time-correlated resistance reading on
// both channels.
func (i *Instrument) MeasureBothResistance() (chA, chB float64, err error) {
	return i.measurePair(measureResistance)
}

// MeasureBothPower triggers a time-correlated power reading on both
// channels.
func (i *Instrument) MeasureBothPower() (chA, chB float64, err error) {
	return i.measurePair(measurePower)
}

func (i *Instrument) measurePair(u measureUnit) (chA, chB float64, err error) {
	vals, err := i.measureBoth(u, 2)
	if err != nil {
		return 0, 0, err
	}
	return vals[0], vals[1], nil
}

// MeasureBothCurrentAndVoltage triggers a simultaneous current and voltage
// reading on both channels.
func (i *Instrument) MeasureBothCurrentAndVoltage() (iChA, vChA, iChB, vChB float64, err error) {
	vals, err := i.measureBoth(measureCurrentVoltage, 4)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	return vals[0], vals[1], vals[2], vals[3], nil
}
