// Copyright (c) 2021–2024 The smu2600 developers. All rights reserved.
// Project site: https://github.com/gotmc/smu2600
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

// Package lan connects to an instrument's raw command socket over TCP.
package lan

import (
	"net"
	"os"
	"strings"
	"time"
)

// DefaultPort is the raw-socket command port of the 2600 series.
const DefaultPort = "5025"

// LAN is a TCP connection to the instrument. It embeds net.Conn, so the
// session layer can arm per-read deadlines on it.
type LAN struct {
	net.Conn
}

// NewLAN dials the instrument at host or host:port.
func NewLAN(addr string) (*LAN, error) {
	conn, err := net.DialTimeout("tcp", hostPort(addr), 5*time.Second)
	if err != nil {
		return nil, err
	}
	return &LAN{Conn: conn}, nil
}

// hostPort appends the default port unless addr already carries one. A
// bare or bracketed IPv6 literal gets bracketed with the default port.
func hostPort(addr string) string {
	if _, _, err := net.SplitHostPort(addr); err == nil {
		return addr
	}
	return net.JoinHostPort(strings.Trim(addr, "[]"), DefaultPort)
}

// ResetInputBuffer drains whatever the instrument has already sent,
// reading with a short deadline until the line goes quiet.
func (l *LAN) ResetInputBuffer() error {
	defer l.Conn.SetReadDeadline(time.Time{})
	buf := make([]byte, 4096)
	for {
		if err := l.Conn.SetReadDeadline(time.Now().Add(50 * time.Millisecond)); err != nil {
			return err
		}
		n, err := l.Conn.Read(buf)
		if os.IsTimeout(err) {
			return nil
		}
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
	}
}
