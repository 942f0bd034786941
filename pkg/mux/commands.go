package mux

import "github.com/kb9vty/catmux/pkg/catproto"

// CommandKind tags the variant carried by a Command.
type CommandKind int

const (
	CmdRegisterRadio CommandKind = iota
	CmdUnregisterRadio
	CmdRadioRawData
	CmdRadioRawDataOut
	CmdAmpRawData
	CmdSetActiveRadio
	CmdSetSwitchingMode
	CmdConnectAmplifier
	CmdDisconnectAmplifier
	CmdSetAmplifierConfig
	CmdQueryRadioState
	CmdQueryRegistry
	CmdShutdown
)

// Command is the sum type accepted on the actor's inbound channel. Exactly
// one actor goroutine ever reads this channel, which is what makes its
// processing order the system's total order of observable state changes.
type Command struct {
	Kind CommandKind

	// RegisterRadio
	Meta     catproto.RadioChannelMeta
	ReplyH   chan catproto.RadioHandle

	// UnregisterRadio / RadioRawData / RadioRawDataOut / QueryRadioState /
	// SetActiveRadio
	Handle catproto.RadioHandle

	// RadioRawData / RadioRawDataOut / AmpRawData
	Bytes []byte

	// SetSwitchingMode
	Mode SwitchingMode

	// ConnectAmplifier
	AmpMeta   catproto.AmplifierChannelMeta
	AmpWriter func(data []byte)

	// SetAmplifierConfig
	AmpProtocol   *catproto.Protocol
	AmpBaudRate   *uint32
	AmpCivAddress *uint8

	// QueryRadioState reply
	ReplyState chan *RadioState

	// QueryRegistry reply
	ReplyRegistry chan []RadioState

	// Shutdown
	ReplyDone chan struct{}
}
