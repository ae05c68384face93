// Copyright (c) 2021–2024 The smu2600 developers. All rights reserved.
// Project site: https://github.com/gotmc/smu2600
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

package smu2600

import (
	"strconv"
	"strings"
	"testing"
)

// fakeTransport scripts the instrument side of the bus session. Queries
// not claimed by handle fall through to a healthy 2612B: empty error
// queue, liveness answered. handle returns ok=false to defer to those
// defaults.
type fakeTransport struct {
	t       *testing.T
	model   string
	handle  func(cmd string) (reply string, err error, ok bool)
	cmdErr  func(cmd string) error
	sent    []string
	cleared int
	closed  bool
}

func (f *fakeTransport) Command(cmd string) error {
	f.sent = append(f.sent, cmd)
	if f.cmdErr != nil {
		return f.cmdErr(cmd)
	}
	return nil
}

func (f *fakeTransport) Query(cmd string) (string, error) {
	f.sent = append(f.sent, cmd)
	if f.handle != nil {
		if reply, err, ok := f.handle(cmd); ok {
			return reply, err
		}
	}
	switch cmd {
	case errorQueueNext:
		return "0.00000e+00\tQueue Is Empty", nil
	case identifyQuery:
		return f.model, nil
	case livenessQuery:
		return "Are you alive?", nil
	}
	f.t.Fatalf("unscripted query %q", cmd)
	return "", nil
}

func (f *fakeTransport) Clear() error {
	f.cleared++
	return nil
}

func (f *fakeTransport) Close() error {
	f.closed = true
	return nil
}

// commandsMatching counts sent commands containing substr.
func (f *fakeTransport) commandsMatching(substr string) int {
	n := 0
	for _, cmd := range f.sent {
		if strings.Contains(cmd, substr) {
			n++
		}
	}
	return n
}

func newTestInstrument(t *testing.T, model string, opts ...Option) (*Instrument, *fakeTransport) {
	t.Helper()
	tr := &fakeTransport{t: t, model: model}
	smu, err := New(tr, opts...)
	if err != nil {
		t.Fatalf("connect failed: %s", err)
	}
	// Drop the connect traffic and its input-buffer clear; tests inspect
	// their own.
	tr.sent = nil
	tr.cleared = 0
	return smu, tr
}

func joinFloats(vals []float64) string {
	parts := make([]string, len(vals))
	for n, v := range vals {
		parts[n] = strconv.FormatFloat(v, 'e', 6, 64)
	}
	return strings.Join(parts, ", ")
}
