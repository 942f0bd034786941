package portscan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kb9vty/catmux/pkg/catproto"
	"github.com/kb9vty/catmux/pkg/transport"
)

func TestScanPortsSkipsUnsafeClassifications(t *testing.T) {
	s := NewScanner(DefaultScannerConfig(), NewProber(fastProbeConfig()))
	ports := []PortInfo{
		{Device: "/dev/ttyUSB0", Classification: KnownAdapter},
		{Device: "/dev/ttyUSB1", Classification: Unknown},
	}

	opened := false
	open := func(device string, baud int) (ReadWriteCloser, error) {
		opened = true
		_, b := transport.NewDuplexPipe()
		return b, nil
	}

	detected := s.ScanPorts(ports, open)
	assert.Empty(t, detected)
	assert.False(t, opened, "unsafe-to-probe ports must never be opened")
}

func TestScanPortsSkipsPatternMatches(t *testing.T) {
	cfg := DefaultScannerConfig()
	s := NewScanner(cfg, NewProber(fastProbeConfig()))
	ports := []PortInfo{
		{Device: "/dev/ttyUSB-Bluetooth0", Classification: KnownRadio},
	}

	opened := false
	open := func(device string, baud int) (ReadWriteCloser, error) {
		opened = true
		_, b := transport.NewDuplexPipe()
		return b, nil
	}

	detected := s.ScanPorts(ports, open)
	assert.Empty(t, detected)
	assert.False(t, opened)
}

func TestScanPortsProbesSafePortsAndDetectsRadio(t *testing.T) {
	s := NewScanner(DefaultScannerConfig(), NewProber(fastProbeConfig()))
	ports := []PortInfo{
		{Device: "/dev/ttyACM0", Classification: KnownRadio},
	}

	open := func(device string, baud int) (ReadWriteCloser, error) {
		a, b := transport.NewDuplexPipe()
		respond(t, a, func(req []byte) []byte {
			if string(req) == "ID;" {
				return []byte("ID019;")
			}
			return nil
		})
		return b, nil
	}

	detected := s.ScanPorts(ports, open)
	require.Len(t, detected, 1)
	assert.Equal(t, catproto.Kenwood, detected[0].Result.Protocol)
	assert.Equal(t, "/dev/ttyACM0", detected[0].Port.Device)
}
