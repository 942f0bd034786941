// Package mux implements the multiplexer actor: the single authoritative
// state machine owning radio state, active-radio selection, and amplifier
// shadow state. It is the most important component in catmux — every
// mutation of shared state flows through its command channel, and every
// observable state transition is the total FIFO order of that channel.
package mux

import (
	"time"

	"github.com/kb9vty/catmux/pkg/catproto"
)

// SwitchingMode controls which radio becomes active in response to radio
// traffic.
type SwitchingMode int

const (
	// Manual: only an explicit SetActiveRadio command changes the active radio.
	Manual SwitchingMode = iota
	// FrequencyTriggered: any radio reporting a new frequency while the
	// lockout has expired becomes active.
	FrequencyTriggered
	// Automatic: PTT-on or a new frequency from a non-active radio, lockout
	// permitting, becomes active.
	Automatic
)

func (m SwitchingMode) String() string {
	switch m {
	case Manual:
		return "manual"
	case FrequencyTriggered:
		return "frequency_triggered"
	case Automatic:
		return "automatic"
	default:
		return "unknown"
	}
}

// RadioState is the mux's per-radio record. Owned exclusively by the actor
// goroutine; never shared or mutated outside it.
type RadioState struct {
	Handle      catproto.RadioHandle
	Meta        catproto.RadioChannelMeta
	FrequencyHz *uint64
	Mode        *catproto.OperatingMode
	Ptt         *bool
	LastUpdate  time.Time
}

// clone returns a value copy safe to hand to an event or API response
// without aliasing the actor's own pointers.
func (s RadioState) clone() RadioState {
	cp := s
	if s.FrequencyHz != nil {
		f := *s.FrequencyHz
		cp.FrequencyHz = &f
	}
	if s.Mode != nil {
		m := *s.Mode
		cp.Mode = &m
	}
	if s.Ptt != nil {
		p := *s.Ptt
		cp.Ptt = &p
	}
	return cp
}

// shadowAmpState is what the amplifier has been told (or would be told if
// it asked). Reset whenever the amplifier channel disconnects.
type shadowAmpState struct {
	FrequencyHz  *uint64
	Mode         *catproto.OperatingMode
	Ptt          bool
	ControlBand  *uint8
	TransmitBand *uint8
	RxVfo        *uint8
	Split        bool
}

func (s *shadowAmpState) reset() {
	*s = shadowAmpState{}
}

// ampChannel holds everything the actor needs to talk to the connected
// amplifier: its declared meta, whether it is connected, and the writer
// that sends bytes to it. Inbound amp bytes arrive as AmpRawData and are
// parsed by the actor's own ampCodec, not by the amplifier I/O task.
type ampChannel struct {
	meta       catproto.AmplifierChannelMeta
	connected  bool
	autoInfo   bool
	writer     func(data []byte)
}
