package mux

import "github.com/kb9vty/catmux/pkg/catproto"

// EventKind tags the variant carried by an Event.
type EventKind int

const (
	EventRadioConnected EventKind = iota
	EventRadioDisconnected
	EventRadioStateChanged
	EventActiveRadioChanged
	EventSwitchingModeChanged
	EventSwitchingBlocked
	EventRadioDataIn
	EventRadioDataOut
	EventAmpConnected
	EventAmpDisconnected
	EventAmpDataIn
	EventAmpDataOut
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventRadioConnected:
		return "RadioConnected"
	case EventRadioDisconnected:
		return "RadioDisconnected"
	case EventRadioStateChanged:
		return "RadioStateChanged"
	case EventActiveRadioChanged:
		return "ActiveRadioChanged"
	case EventSwitchingModeChanged:
		return "SwitchingModeChanged"
	case EventSwitchingBlocked:
		return "SwitchingBlocked"
	case EventRadioDataIn:
		return "RadioDataIn"
	case EventRadioDataOut:
		return "RadioDataOut"
	case EventAmpConnected:
		return "AmpConnected"
	case EventAmpDisconnected:
		return "AmpDisconnected"
	case EventAmpDataIn:
		return "AmpDataIn"
	case EventAmpDataOut:
		return "AmpDataOut"
	case EventError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Event is broadcast on the actor's single ordered event channel, consumed
// by the control API's websocket stream and by anything else (tests, a
// future UI) that needs to observe mux state transitions.
type Event struct {
	Kind EventKind

	Handle catproto.RadioHandle
	Meta   *catproto.RadioChannelMeta

	// RadioStateChanged: only the fields that actually changed are set.
	FrequencyHz *uint64
	Mode        *catproto.OperatingMode
	Ptt         *bool

	// ActiveRadioChanged
	From catproto.RadioHandle
	To   catproto.RadioHandle

	// SwitchingModeChanged
	Mode2 SwitchingMode

	// SwitchingBlocked
	Requested   catproto.RadioHandle
	Current     catproto.RadioHandle
	RemainingMs int64

	// RadioDataIn / RadioDataOut / AmpDataIn / AmpDataOut
	Bytes []byte

	// Error
	Source  string
	Message string
}
