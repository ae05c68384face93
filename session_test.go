// Copyright (c) 2021–2024 The smu2600 developers. All rights reserved.
// Project site: https://github.com/gotmc/smu2600
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

package smu2600

import (
	"bytes"
	"io"
	"os"
	"testing"
)

// fakePort is an in-memory line device: writes accumulate in wrote, reads
// are served from a pre-loaded reply buffer.
type fakePort struct {
	wrote   bytes.Buffer
	replies bytes.Buffer
	readErr error
	flushed int
}

func (p *fakePort) Write(b []byte) (int, error) { return p.wrote.Write(b) }

func (p *fakePort) Read(b []byte) (int, error) {
	if p.readErr != nil && p.replies.Len() == 0 {
		return 0, p.readErr
	}
	return p.replies.Read(b)
}

func (p *fakePort) ResetInputBuffer() error {
	p.flushed++
	return nil
}

func TestSessionCommandAppendsTerminator(t *testing.T) {
	port := &fakePort{}
	sess := NewSession(port)
	if err := sess.Command("  smua.reset()  "); err != nil {
		t.Fatalf("Command: %s", err)
	}
	if got := port.wrote.String(); got != "smua.reset()\n" {
		t.Errorf("wrote %q, want %q", got, "smua.reset()\n")
	}
}

func TestSessionQueryStripsLineEndings(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  string
	}{
		{"lf", "2612B\n", "2612B"},
		{"crlf", "2612B\r\n", "2612B"},
		{"tabs survive", "0.00000e+00\tQueue Is Empty\r\n", "0.00000e+00\tQueue Is Empty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			port := &fakePort{}
			port.replies.WriteString(tt.reply)
			sess := NewSession(port)
			got, err := sess.Query("print(localnode.model)")
			if err != nil {
				t.Fatalf("Query: %s", err)
			}
			if got != tt.want {
				t.Errorf("Query = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSessionQueryToleratesEOFWithData(t *testing.T) {
	// A reply whose final line lacks a terminator is still a reply.
	port := &fakePort{readErr: io.EOF}
	port.replies.WriteString("2612B")
	sess := NewSession(port)
	got, err := sess.Query("print(localnode.model)")
	if err != nil {
		t.Fatalf("Query: %s", err)
	}
	if got != "2612B" {
		t.Errorf("Query = %q, want %q", got, "2612B")
	}
}

func TestSessionQueryTimeout(t *testing.T) {
	port := &fakePort{readErr: os.ErrDeadlineExceeded}
	sess := NewSession(port)
	_, err := sess.Query("print(1)")
	if err == nil {
		t.Fatal("empty read did not fail")
	}
	if !IsTimeout(err) {
		t.Errorf("IsTimeout(%v) = false, want true", err)
	}
}

func TestSessionQueryNonTimeoutError(t *testing.T) {
	port := &fakePort{readErr: io.ErrClosedPipe}
	sess := NewSession(port)
	_, err := sess.Query("print(1)")
	if err == nil {
		t.Fatal("failed read did not fail the query")
	}
	if IsTimeout(err) {
		t.Errorf("IsTimeout(%v) = true for a non-timeout failure", err)
	}
}

func TestSessionClear(t *testing.T) {
	port := &fakePort{}
	port.replies.WriteString("first\nleftover bytes")
	sess := NewSession(port)
	if _, err := sess.Query("print(1)"); err != nil {
		t.Fatalf("Query: %s", err)
	}
	if err := sess.Clear(); err != nil {
		t.Fatalf("Clear: %s", err)
	}
	if port.flushed != 1 {
		t.Errorf("hardware input flush ran %d times, want 1", port.flushed)
	}
	// The leftover must be gone: the next reply starts clean.
	port.replies.Reset()
	port.replies.WriteString("second\n")
	got, err := sess.Query("print(2)")
	if err != nil {
		t.Fatalf("Query after Clear: %s", err)
	}
	if got != "second" {
		t.Errorf("Query after Clear = %q, want %q", got, "second")
	}
}

func TestSessionCustomTerminator(t *testing.T) {
	port := &fakePort{}
	port.replies.WriteString("2612B\r")
	sess := NewSession(port, WithTerminator('\r'))
	got, err := sess.Query("print(localnode.model)")
	if err != nil {
		t.Fatalf("Query: %s", err)
	}
	if got != "2612B" {
		t.Errorf("Query = %q, want %q", got, "2612B")
	}
	if want := "print(localnode.model)\r"; port.wrote.String() != want {
		t.Errorf("wrote %q, want %q", port.wrote.String(), want)
	}
}
