package mux

import (
	"context"

	"github.com/kb9vty/catmux/pkg/catproto"
)

// RegisterRadio allocates a handle for a newly connected radio and
// installs its codec. Blocks (with back-pressure) until the actor accepts
// the command or ctx is cancelled.
func (a *Actor) RegisterRadio(ctx context.Context, meta catproto.RadioChannelMeta) (catproto.RadioHandle, error) {
	reply := make(chan catproto.RadioHandle, 1)
	if err := a.Submit(ctx, Command{Kind: CmdRegisterRadio, Meta: meta, ReplyH: reply}); err != nil {
		return 0, err
	}
	select {
	case h := <-reply:
		return h, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// UnregisterRadio removes a radio's state and tears down its registration.
func (a *Actor) UnregisterRadio(ctx context.Context, h catproto.RadioHandle) error {
	return a.Submit(ctx, Command{Kind: CmdUnregisterRadio, Handle: h})
}

// FeedRadioBytes forwards raw bytes read from a radio's stream into the
// mux, which owns the codec and does the parsing (component D's contract).
func (a *Actor) FeedRadioBytes(ctx context.Context, h catproto.RadioHandle, data []byte) error {
	return a.Submit(ctx, Command{Kind: CmdRadioRawData, Handle: h, Bytes: data})
}

// NoteRadioBytesOut emits a traffic event for bytes an I/O task wrote to a
// radio; best-effort, never blocks.
func (a *Actor) NoteRadioBytesOut(h catproto.RadioHandle, data []byte) {
	a.TrySubmit(Command{Kind: CmdRadioRawDataOut, Handle: h, Bytes: data})
}

// FeedAmpBytes forwards raw bytes read from the amplifier's stream,
// interpreted as requests.
func (a *Actor) FeedAmpBytes(ctx context.Context, data []byte) error {
	return a.Submit(ctx, Command{Kind: CmdAmpRawData, Bytes: data})
}

// SetActiveRadio attempts to switch the active radio, subject to the
// configured SwitchingMode and lockout window.
func (a *Actor) SetActiveRadio(ctx context.Context, h catproto.RadioHandle) error {
	return a.Submit(ctx, Command{Kind: CmdSetActiveRadio, Handle: h})
}

// SetSwitchingMode persists a new switching policy.
func (a *Actor) SetSwitchingMode(ctx context.Context, mode SwitchingMode) error {
	return a.Submit(ctx, Command{Kind: CmdSetSwitchingMode, Mode: mode})
}

// ConnectAmplifier installs the amplifier channel, resetting shadow state.
func (a *Actor) ConnectAmplifier(ctx context.Context, meta catproto.AmplifierChannelMeta, writer func([]byte)) error {
	return a.Submit(ctx, Command{Kind: CmdConnectAmplifier, AmpMeta: meta, AmpWriter: writer})
}

// DisconnectAmplifier drops the amplifier channel and clears shadow state.
func (a *Actor) DisconnectAmplifier(ctx context.Context) error {
	return a.Submit(ctx, Command{Kind: CmdDisconnectAmplifier})
}

// SetAmplifierConfig updates the protocol/baud/CI-V address the
// translation engine uses for the amp, without tearing down the
// connection.
func (a *Actor) SetAmplifierConfig(ctx context.Context, protocol *catproto.Protocol, baud *uint32, civ *uint8) error {
	return a.Submit(ctx, Command{Kind: CmdSetAmplifierConfig, AmpProtocol: protocol, AmpBaudRate: baud, AmpCivAddress: civ})
}

// QueryRadioState returns a snapshot of a radio's state, or nil if the
// handle is not registered.
func (a *Actor) QueryRadioState(ctx context.Context, h catproto.RadioHandle) (*RadioState, error) {
	reply := make(chan *RadioState, 1)
	if err := a.Submit(ctx, Command{Kind: CmdQueryRadioState, Handle: h, ReplyState: reply}); err != nil {
		return nil, err
	}
	select {
	case s := <-reply:
		return s, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// QueryRegistry returns a snapshot of every registered radio's state.
func (a *Actor) QueryRegistry(ctx context.Context) ([]RadioState, error) {
	reply := make(chan []RadioState, 1)
	if err := a.Submit(ctx, Command{Kind: CmdQueryRegistry, ReplyRegistry: reply}); err != nil {
		return nil, err
	}
	select {
	case s := <-reply:
		return s, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Shutdown drains and stops the actor loop, blocking until it has exited.
func (a *Actor) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	if err := a.Submit(ctx, Command{Kind: CmdShutdown, ReplyDone: done}); err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
