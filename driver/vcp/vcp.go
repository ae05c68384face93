// Copyright (c) 2021–2024 The smu2600 developers. All rights reserved.
// Project site: https://github.com/gotmc/smu2600
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

// Package vcp opens a Virtual COM Port serial connection suitable for the
// smu2600 session layer.
package vcp

import (
	"os"
	"time"

	"go.bug.st/serial"
)

// VCP is a serial port with a read timeout that the session layer can
// recognize as such.
type VCP struct {
	port serial.Port
}

// VCPOption applies an option to the port.
type VCPOption func(*config)

type config struct {
	baud    int
	timeout time.Duration
}

// WithBaudRate overrides the default 115200 baud.
func WithBaudRate(baud int) VCPOption { return func(c *config) { c.baud = baud } }

// WithReadTimeout overrides the default 1 s read timeout.
func WithReadTimeout(d time.Duration) VCPOption { return func(c *config) { c.timeout = d } }

// NewVCP opens the named serial port, 8N1.
func NewVCP(portName string, opts ...VCPOption) (*VCP, error) {
	cfg := config{baud: 115200, timeout: time.Second}
	for _, opt := range opts {
		opt(&cfg)
	}
	port, err := serial.Open(portName, &serial.Mode{BaudRate: cfg.baud})
	if err != nil {
		return nil, err
	}
	if err := port.SetReadTimeout(cfg.timeout); err != nil {
		port.Close()
		return nil, err
	}
	return &VCP{port: port}, nil
}

// Read reads from the port. An expired read timeout surfaces as
// os.ErrDeadlineExceeded instead of the library's silent empty read, so
// the session can tell "still busy" from "broken".
func (v *VCP) Read(p []byte) (n int, err error) {
	n, err = v.port.Read(p)
	if n == 0 && err == nil {
		return 0, os.ErrDeadlineExceeded
	}
	return n, err
}

// Write writes to the port.
func (v *VCP) Write(p []byte) (n int, err error) {
	return v.port.Write(p)
}

// SetReadTimeout changes the read timeout.
func (v *VCP) SetReadTimeout(d time.Duration) error {
	return v.port.SetReadTimeout(d)
}

// ResetInputBuffer discards unread data buffered by the port.
func (v *VCP) ResetInputBuffer() error {
	return v.port.ResetInputBuffer()
}

// Close closes the port.
func (v *VCP) Close() error {
	return v.port.Close()
}
