// Package transport provides the byte-stream endpoints the I/O tasks read
// and write: a real serial port wrapper and an in-process duplex pipe that
// is indistinguishable from a real port at the codec-feeding layer.
package transport

import (
	"fmt"
	"io"

	"github.com/pkg/term"
)

// Stream is the contract every radio/amp I/O task reads and writes.
// Both a real serial port and an in-process duplex pipe satisfy it, which
// is what lets a virtual radio be wired in wherever real hardware would
// go.
type Stream interface {
	io.ReadWriteCloser
}

// SerialPort wraps github.com/pkg/term for a real, OS-backed serial
// device, grounded on the same raw-mode-open/set-speed pattern the
// examples pack uses for its own serial radio link.
type SerialPort struct {
	t *term.Term
}

// OpenSerial opens devicename in raw mode and sets the given baud rate.
// An unsupported rate is rejected rather than silently substituted, since
// silently picking a different CAT baud rate would desync the radio.
func OpenSerial(devicename string, baud int) (*SerialPort, error) {
	t, err := term.Open(devicename, term.RawMode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", devicename, err)
	}

	switch baud {
	case 1200, 2400, 4800, 9600, 19200, 38400, 57600, 115200, 230400:
		if err := t.SetSpeed(baud); err != nil {
			t.Close()
			return nil, fmt.Errorf("set speed %d on %s: %w", baud, devicename, err)
		}
	default:
		t.Close()
		return nil, fmt.Errorf("unsupported baud rate %d", baud)
	}

	return &SerialPort{t: t}, nil
}

func (s *SerialPort) Read(p []byte) (int, error)  { return s.t.Read(p) }
func (s *SerialPort) Write(p []byte) (int, error) { return s.t.Write(p) }
func (s *SerialPort) Close() error                 { return s.t.Close() }
