// Copyright (c) 2021–2024 The smu2600 developers. All rights reserved.
// Project site: https://github.com/gotmc/smu2600
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

package smu2600

import (
	"bufio"
	"io"
	"log"
	"os"
	"strings"
	"time"
)

// Transport is one command/response session with the instrument. A command
// is a line of text; a reply is a line of text with the terminator already
// stripped. Clear discards any unread input so the next reply starts at a
// line boundary. Implementations are not safe for concurrent use: the
// driver owns the session exclusively and serializes every round trip.
type Transport interface {
	Command(cmd string) error
	Query(cmd string) (string, error)
	Clear() error
}

// Session implements Transport over any line-oriented io.ReadWriter, such
// as a VCP serial port or a raw LAN socket on port 5025.
type Session struct {
	rw      io.ReadWriter
	r       *bufio.Reader
	term    byte
	timeout time.Duration
	debug   bool // if true, log every command/response pair
}

// SessionOption applies an option to the session.
type SessionOption func(*Session)

// WithTimeout sets the per-read timeout. It applies to transports that
// support read deadlines; serial ports configure their timeout at open.
func WithTimeout(d time.Duration) SessionOption {
	return func(s *Session) { s.timeout = d }
}

// WithTerminator overrides the reply line terminator (default '\n').
func WithTerminator(b byte) SessionOption {
	return func(s *Session) { s.term = b }
}

// WithSessionDebug logs every command and reply on the session.
func WithSessionDebug() SessionOption {
	return func(s *Session) { s.debug = true }
}

// NewSession wraps rw in a line-oriented instrument session.
func NewSession(rw io.ReadWriter, opts ...SessionOption) *Session {
	s := &Session{
		rw:      rw,
		r:       bufio.NewReader(rw),
		term:    '\n',
		timeout: time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Command sends a command to the instrument. All leading and trailing
// whitespace is removed before the terminator is appended.
func (s *Session) Command(cmd string) error {
	out := strings.TrimSpace(cmd) + string(s.term)
	if s.debug {
		log.Printf("cmd %q", out)
	}
	if _, err := io.WriteString(s.rw, out); err != nil {
		return &BusError{Op: "write", Timeout: isTimeoutErr(err), Err: err}
	}
	return nil
}

// Query sends a command and reads one reply line, stripping trailing line
// terminators.
func (s *Session) Query(cmd string) (string, error) {
	if err := s.Command(cmd); err != nil {
		return "", err
	}
	s.armReadDeadline()
	reply, err := s.r.ReadString(s.term)
	if err != nil && !(err == io.EOF && reply != "") {
		return "", &BusError{Op: "read", Timeout: isTimeoutErr(err), Err: err}
	}
	reply = strings.TrimRight(reply, "\r\n")
	if s.debug {
		log.Printf("reply %q", reply)
	}
	return reply, nil
}

// Clear discards any unread input on the session, resynchronizing the
// reply stream after a paginated buffer read.
func (s *Session) Clear() error {
	if s.debug {
		log.Printf("clearing input buffer (%d buffered)", s.r.Buffered())
	}
	if n := s.r.Buffered(); n > 0 {
		if _, err := s.r.Discard(n); err != nil {
			return &BusError{Op: "clear", Err: err}
		}
	}
	// Serial ports expose a hardware-level input flush.
	if fl, ok := s.rw.(interface{ ResetInputBuffer() error }); ok {
		if err := fl.ResetInputBuffer(); err != nil {
			return &BusError{Op: "clear", Err: err}
		}
	}
	return nil
}

// Close closes the underlying connection when it supports closing.
func (s *Session) Close() error {
	if c, ok := s.rw.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// armReadDeadline applies the session timeout on deadline-capable
// transports (net.Conn). Serial ports own their timeout instead.
func (s *Session) armReadDeadline() {
	if dl, ok := s.rw.(interface{ SetReadDeadline(time.Time) error }); ok && s.timeout > 0 {
		_ = dl.SetReadDeadline(time.Now().Add(s.timeout))
	}
}

func isTimeoutErr(err error) bool {
	if os.IsTimeout(err) {
		return true
	}
	if te, ok := err.(interface{ Timeout() bool }); ok {
		return te.Timeout()
	}
	return false
}
