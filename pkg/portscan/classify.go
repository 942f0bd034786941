package portscan

// Classification tags a discovered serial port by how safe it is to probe
// automatically, without disturbing other equipment that might be using
// it (a GPS puck, a debug console, a modem).
type Classification int

const (
	// Unknown is any port with no identifying information.
	Unknown Classification = iota
	// KnownAdapter is a generic USB-serial bridge (FTDI, CP210x, CH340)
	// that could be attached to anything; not safe to auto-probe.
	KnownAdapter
	// KnownRadio is a port whose USB VID/PID matches a radio with a
	// built-in USB-serial interface; safe to auto-probe.
	KnownRadio
)

func (c Classification) String() string {
	switch c {
	case KnownRadio:
		return "known radio"
	case KnownAdapter:
		return "known adapter"
	default:
		return "unknown"
	}
}

// IsSafeToProbe reports whether a scan should send probe bytes to a port
// with this classification unattended.
func (c Classification) IsSafeToProbe() bool { return c == KnownRadio }

// usbAdapter maps a VID to a human adapter name, for display only.
var usbAdapters = map[uint16]string{
	0x0403: "FTDI",
	0x10C4: "CP210x",
	0x1A86: "CH340",
}

// icomRadioVIDPIDs lists USB VID/PID pairs for Icom radios with built-in
// USB-serial interfaces, so the scanner can mark them safe to probe
// without needing a response first.
var icomRadioVIDPIDs = map[[2]uint16]string{
	{0x0C26, 0x0036}: "IC-7300",
	{0x0C26, 0x001A}: "IC-7100",
	{0x0C26, 0x0034}: "IC-7610",
	{0x0C26, 0x0040}: "IC-705",
}

// classify determines a port's Classification and a short display hint
// from its USB VID/PID, if known.
func classify(vid, pid uint16, haveUSB bool) (Classification, string) {
	if !haveUSB {
		return Unknown, ""
	}
	if name, ok := icomRadioVIDPIDs[[2]uint16{vid, pid}]; ok {
		return KnownRadio, name + " (Icom USB)"
	}
	if name, ok := usbAdapters[vid]; ok {
		return KnownAdapter, name
	}
	return Unknown, ""
}

func adapterName(vid uint16) (string, bool) {
	name, ok := usbAdapters[vid]
	return name, ok
}
