// Package portscan discovers serial ports likely to have a radio attached
// and probes the safe ones for a CAT protocol, grounded on the same
// enumerate-then-probe split the original Rust scanner uses. No example
// repo in the corpus carries a USB-serial enumeration library, so port
// discovery here reads /sys/class/tty directly on Linux (stdlib-only,
// documented as a deliberate exception) while probing itself reuses
// pkg/catproto's exported probe helpers and pkg/transport.
package portscan

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/kb9vty/catmux/pkg/logging"
)

// PortInfo describes one serial device found during enumeration.
type PortInfo struct {
	Device         string
	VID            uint16
	PID            uint16
	HaveUSB        bool
	AdapterName    string
	Classification Classification
	ClassifyHint   string
}

func (p PortInfo) IsKnownAdapter() bool { return p.AdapterName != "" }

// ScannerConfig controls enumeration and probing behavior.
type ScannerConfig struct {
	BaudRates          []uint32
	SkipPatterns       []string
	FilterKnownAdapter bool
}

// DefaultScannerConfig matches the original scanner's defaults.
func DefaultScannerConfig() ScannerConfig {
	return ScannerConfig{
		BaudRates:    []uint32{38400, 19200, 9600, 4800, 115200},
		SkipPatterns: []string{"Bluetooth", "debug"},
	}
}

// Scanner enumerates and probes serial ports.
type Scanner struct {
	cfg    ScannerConfig
	prober *Prober
}

func NewScanner(cfg ScannerConfig, prober *Prober) *Scanner {
	return &Scanner{cfg: cfg, prober: prober}
}

// EnumeratePorts lists /dev/ttyUSB*, /dev/ttyACM*, and /dev/ttyS* devices,
// reading each one's USB VID/PID from sysfs when available, then filters
// out anything matching a skip pattern.
func EnumeratePorts() ([]PortInfo, error) {
	var devices []string
	for _, pattern := range []string{"/dev/ttyUSB*", "/dev/ttyACM*", "/dev/ttyS*"} {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			continue
		}
		devices = append(devices, matches...)
	}
	sort.Strings(devices)

	var ports []PortInfo
	for _, dev := range devices {
		vid, pid, haveUSB := lookupUSBIDs(dev)
		cls, hint := classify(vid, pid, haveUSB)
		adapter, _ := adapterName(vid)
		ports = append(ports, PortInfo{
			Device:         dev,
			VID:            vid,
			PID:            pid,
			HaveUSB:        haveUSB,
			AdapterName:    adapter,
			Classification: cls,
			ClassifyHint:   hint,
		})
	}
	return ports, nil
}

// lookupUSBIDs reads a tty device's USB vendor/product ID from sysfs
// (Linux only). Devices with no USB ancestor, or running on a non-Linux
// OS where the path doesn't exist, report haveUSB=false.
func lookupUSBIDs(device string) (vid, pid uint16, haveUSB bool) {
	name := filepath.Base(device)
	base := "/sys/class/tty/" + name + "/device"
	// The tty device directory is typically two levels below the USB
	// interface directory that carries idVendor/idProduct.
	for _, rel := range []string{"../..", "..", "."} {
		dir := filepath.Join(base, rel)
		v, p, ok := readVendorProduct(dir)
		if ok {
			return v, p, true
		}
	}
	return 0, 0, false
}

func readVendorProduct(dir string) (uint16, uint16, bool) {
	vidBytes, err := os.ReadFile(filepath.Join(dir, "idVendor"))
	if err != nil {
		return 0, 0, false
	}
	pidBytes, err := os.ReadFile(filepath.Join(dir, "idProduct"))
	if err != nil {
		return 0, 0, false
	}
	vid, err := strconv.ParseUint(strings.TrimSpace(string(vidBytes)), 16, 16)
	if err != nil {
		return 0, 0, false
	}
	pid, err := strconv.ParseUint(strings.TrimSpace(string(pidBytes)), 16, 16)
	if err != nil {
		return 0, 0, false
	}
	return uint16(vid), uint16(pid), true
}

func (s *Scanner) shouldSkip(p PortInfo) bool {
	for _, pattern := range s.cfg.SkipPatterns {
		if strings.Contains(p.Device, pattern) {
			return true
		}
	}
	return false
}

// DetectedRadio is the result of a successful probe on a port.
type DetectedRadio struct {
	Port     PortInfo
	Result   ProbeResult
	BaudRate uint32
}

// Scan enumerates ports and probes every one classified safe to probe
// (known radios), at each configured baud rate, stopping at the first
// response per port.
func (s *Scanner) Scan(openFn OpenStreamFunc) []DetectedRadio {
	ports, err := EnumeratePorts()
	if err != nil {
		logging.Warnf("portscan", "enumeration failed: %v", err)
		return nil
	}
	return s.ScanPorts(ports, openFn)
}

// ScanPorts probes an already-enumerated port list; split out from Scan so
// callers (and tests) can supply a port list without touching sysfs.
func (s *Scanner) ScanPorts(ports []PortInfo, openFn OpenStreamFunc) []DetectedRadio {
	var detected []DetectedRadio
	for _, port := range ports {
		if s.shouldSkip(port) {
			continue
		}
		if !port.Classification.IsSafeToProbe() {
			logging.Debugf("portscan", "skipping %s: %s (not safe to auto-probe)", port.Device, port.Classification)
			continue
		}
		if s.cfg.FilterKnownAdapter && !port.IsKnownAdapter() {
			continue
		}
		if radio, ok := s.probePort(port, openFn); ok {
			detected = append(detected, radio)
		}
	}
	return detected
}

// OpenStreamFunc opens a port at a given baud rate; callers supply
// transport.OpenSerial (or a fake, in tests).
type OpenStreamFunc func(device string, baud int) (ReadWriteCloser, error)

// ReadWriteCloser is the minimal contract the prober needs; satisfied by
// transport.Stream without this package importing it directly (keeps
// portscan testable against an in-memory fake).
type ReadWriteCloser interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
}

func (s *Scanner) probePort(port PortInfo, openFn OpenStreamFunc) (DetectedRadio, bool) {
	for _, baud := range s.cfg.BaudRates {
		stream, err := openFn(port.Device, int(baud))
		if err != nil {
			logging.Debugf("portscan", "open %s at %d failed: %v", port.Device, baud, err)
			continue
		}
		result, ok := s.prober.Probe(stream)
		stream.Close()
		if ok {
			return DetectedRadio{Port: port, Result: result, BaudRate: baud}, true
		}
	}
	return DetectedRadio{}, false
}
