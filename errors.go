// Copyright (c) 2021–2024 The smu2600 developers. All rights reserved.
// Project site: https://github.com/gotmc/smu2600
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

package smu2600

import (
	"errors"
	"fmt"
)

// Errors detected locally, before any command reaches the instrument.
var (
	ErrRangeViolation     = errors.New("limit exceeds the selected range; set the range first")
	ErrNoSuitableRange    = errors.New("no suitable range found")
	ErrUnsupportedModel   = errors.New("unknown model number")
	ErrUnsupportedChannel = errors.New("channel not present on this model")
	ErrNotConnected       = errors.New("instrument is disconnected")
)

// BusError reports an I/O failure or timeout on the instrument bus.
type BusError struct {
	Op      string // "write", "read" or "clear"
	Timeout bool
	Err     error
}

func (e *BusError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("bus %s timeout: %s", e.Op, e.Err)
	}
	return fmt.Sprintf("bus %s error: %s", e.Op, e.Err)
}

func (e *BusError) Unwrap() error { return e.Err }

// IsTimeout reports whether err is a bus timeout. During a sweep the
// liveness poll treats timeouts as "still busy" rather than as failures.
func IsTimeout(err error) bool {
	var be *BusError
	return errors.As(err, &be) && be.Timeout
}

// InstrumentFault is a nonzero entry popped from the instrument's error
// queue, or an error-queue reply that could not be parsed at all. In the
// unparsable case Code is zero and Message holds the raw reply.
type InstrumentFault struct {
	Code    int
	Message string
}

func (e *InstrumentFault) Error() string {
	if e.Code == 0 {
		return fmt.Sprintf("instrument fault: %q", e.Message)
	}
	return fmt.Sprintf("instrument fault %d: %s", e.Code, e.Message)
}

// ParseError reports a reply that did not decode to the expected number of
// numeric fields.
type ParseError struct {
	Raw  string // the reply as received
	Want int    // expected field count
	Err  error  // underlying conversion error, if any
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cannot parse reply %q as %d value(s): %s", e.Raw, e.Want, e.Err)
	}
	return fmt.Sprintf("cannot parse reply %q as %d value(s)", e.Raw, e.Want)
}

func (e *ParseError) Unwrap() error { return e.Err }
