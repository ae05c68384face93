package connutil

import (
	"io"
	"log"
	"os"
	"time"

	"github.com/gotmc/smu2600"
	"github.com/gotmc/smu2600/driver/lan"
	"github.com/soypat/cereal"
)

// Conn collects the connection settings for one SMU and, after Setup, the
// live session.
type Conn struct {
	Resource string // serial device path, or host[:port] with Lan set
	Lan      bool
	Timeout  time.Duration
	Debug    bool

	// Session is the live bus session, valid after Setup returns nil.
	Session *smu2600.Session
}

// Setup opens the bus, connects to the instrument and returns it together
// with a cleanup closure that shuts the output path down and closes the
// connection.
func (c *Conn) Setup(opts []smu2600.Option) (smu *smu2600.Instrument, cleanup func(), err error) {
	nocleanup := func() {}
	if c.Timeout == 0 {
		c.Timeout = time.Second
	}

	var rw io.ReadWriteCloser
	if c.Lan {
		rw, err = lan.NewLAN(c.Resource)
	} else {
		cimpl := cereal.Tarm{}
		var port io.ReadWriteCloser
		port, err = cimpl.OpenPort(c.Resource, cereal.Mode{
			BaudRate:    115200,
			ReadTimeout: c.Timeout,
		})
		rw = timeoutReader{port}
	}
	if err != nil {
		return nil, nocleanup, err
	}

	sessOpts := []smu2600.SessionOption{smu2600.WithTimeout(c.Timeout)}
	if c.Debug {
		sessOpts = append(sessOpts, smu2600.WithSessionDebug())
	}
	c.Session = smu2600.NewSession(rw, sessOpts...)

	smu, err = smu2600.New(c.Session, opts...)
	if err != nil {
		rw.Close()
		return nil, nocleanup, err
	}

	cleanup = func() {
		if err := smu.Close(); err != nil {
			log.Printf("error disconnecting: %s", err)
		}
	}
	return smu, cleanup, nil
}

// timeoutReader maps the tarm driver's silent empty read on an expired
// timeout to os.ErrDeadlineExceeded, which the session classifies as a
// bus timeout.
type timeoutReader struct {
	io.ReadWriteCloser
}

func (t timeoutReader) Read(p []byte) (int, error) {
	n, err := t.ReadWriteCloser.Read(p)
	if n == 0 && err == nil {
		return 0, os.ErrDeadlineExceeded
	}
	return n, err
}
