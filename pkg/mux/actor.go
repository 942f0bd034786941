package mux

import (
	"context"
	"time"

	"github.com/kb9vty/catmux/pkg/catproto"
	"github.com/kb9vty/catmux/pkg/logging"
	"github.com/kb9vty/catmux/pkg/translate"
)

const (
	cmdChannelSize   = 256
	eventChannelSize = 256
	ai2Interval      = 1 * time.Second
)

// radioEntry is the actor's private per-radio bookkeeping. The codec lives
// here, not on the public RadioState, because nothing outside the actor
// goroutine is ever allowed to touch it.
type radioEntry struct {
	state RadioState
	codec catproto.Codec
}

// Actor is the mux's single authoritative state machine. Exactly one
// goroutine ever runs (*Actor).Run; every other goroutine in the process
// talks to it exclusively through Submit/TrySubmit and the Events channel.
type Actor struct {
	cmdCh   chan Command
	eventCh chan Event

	radios      map[catproto.RadioHandle]*radioEntry
	nextHandle  catproto.RadioHandle
	activeRadio catproto.RadioHandle // 0 = none active

	switchingMode SwitchingMode
	lockoutMs     int64
	lockoutUntil  time.Time

	amp       ampChannel
	ampCodec  catproto.Codec
	shadow    shadowAmpState
	ampAuto   bool

	translateCfg translate.Config
}

// NewActor builds an idle actor. Call Run in its own goroutine to start
// processing; Submit/TrySubmit are safe to call from any goroutine once
// Run has been started.
func NewActor(lockoutMs int64, translateCfg translate.Config) *Actor {
	return &Actor{
		cmdCh:         make(chan Command, cmdChannelSize),
		eventCh:       make(chan Event, eventChannelSize),
		radios:        make(map[catproto.RadioHandle]*radioEntry),
		switchingMode: Manual,
		lockoutMs:     lockoutMs,
		translateCfg:  translateCfg,
	}
}

// Events returns the receive end of the actor's event stream. There is
// exactly one stream; fan-out to multiple subscribers (e.g. several
// websocket clients) is the caller's responsibility.
func (a *Actor) Events() <-chan Event { return a.eventCh }

// Submit blocks until cmd is accepted or ctx is done, giving state-critical
// commands (register, radio responses) back-pressure instead of silent
// drops.
func (a *Actor) Submit(ctx context.Context, cmd Command) error {
	select {
	case a.cmdCh <- cmd:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TrySubmit is a non-blocking send used for best-effort traffic-logging
// commands (RadioRawDataOut); on a full channel it logs and drops rather
// than blocking the caller.
func (a *Actor) TrySubmit(cmd Command) {
	select {
	case a.cmdCh <- cmd:
	default:
		logging.Warnf("mux", "command channel full, dropping %v", cmd.Kind)
	}
}

// Run is the actor's main loop. It returns when ctx is cancelled or a
// Shutdown command is processed. Every iteration processes exactly one
// command or one heartbeat tick, preserving the FIFO order spec.md
// requires of the command channel.
func (a *Actor) Run(ctx context.Context) {
	ticker := time.NewTicker(ai2Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-a.cmdCh:
			if !a.dispatch(cmd) {
				return
			}
		case <-ticker.C:
			a.sendHeartbeat()
		}
	}
}

func (a *Actor) dispatch(cmd Command) (keepRunning bool) {
	defer func() {
		if r := recover(); r != nil {
			logging.Errorf("mux", "recovered panic processing %v: %v", cmd.Kind, r)
			a.emit(Event{Kind: EventError, Source: "mux", Message: "internal error recovered"})
		}
	}()

	switch cmd.Kind {
	case CmdRegisterRadio:
		a.handleRegisterRadio(cmd)
	case CmdUnregisterRadio:
		a.handleUnregisterRadio(cmd)
	case CmdRadioRawData:
		a.handleRadioRawData(cmd)
	case CmdRadioRawDataOut:
		a.emit(Event{Kind: EventRadioDataOut, Handle: cmd.Handle, Bytes: cmd.Bytes})
	case CmdAmpRawData:
		a.handleAmpRawData(cmd)
	case CmdSetActiveRadio:
		a.handleSetActiveRadio(cmd.Handle)
	case CmdSetSwitchingMode:
		a.switchingMode = cmd.Mode
		a.emit(Event{Kind: EventSwitchingModeChanged, Mode2: cmd.Mode})
	case CmdConnectAmplifier:
		a.handleConnectAmplifier(cmd)
	case CmdDisconnectAmplifier:
		a.handleDisconnectAmplifier()
	case CmdSetAmplifierConfig:
		a.handleSetAmplifierConfig(cmd)
	case CmdQueryRadioState:
		a.handleQueryRadioState(cmd)
	case CmdQueryRegistry:
		a.handleQueryRegistry(cmd)
	case CmdShutdown:
		if cmd.ReplyDone != nil {
			close(cmd.ReplyDone)
		}
		return false
	}
	return true
}

func (a *Actor) emit(e Event) {
	select {
	case a.eventCh <- e:
	default:
		logging.Warnf("mux", "event channel full, dropping %s event", e.Kind)
	}
}

func (a *Actor) handleRegisterRadio(cmd Command) {
	a.nextHandle++
	h := a.nextHandle
	entry := &radioEntry{
		state: RadioState{Handle: h, Meta: cmd.Meta, LastUpdate: time.Now()},
		codec: catproto.NewCodec(cmd.Meta.Protocol),
	}
	a.radios[h] = entry
	if cmd.ReplyH != nil {
		cmd.ReplyH <- h
	}
	meta := cmd.Meta
	a.emit(Event{Kind: EventRadioConnected, Handle: h, Meta: &meta})
}

func (a *Actor) handleUnregisterRadio(cmd Command) {
	if _, ok := a.radios[cmd.Handle]; !ok {
		return
	}
	delete(a.radios, cmd.Handle)
	if a.activeRadio == cmd.Handle {
		a.activeRadio = 0
	}
	a.emit(Event{Kind: EventRadioDisconnected, Handle: cmd.Handle})
}

func (a *Actor) handleQueryRadioState(cmd Command) {
	entry, ok := a.radios[cmd.Handle]
	if !ok {
		cmd.ReplyState <- nil
		return
	}
	s := entry.state.clone()
	cmd.ReplyState <- &s
}

func (a *Actor) handleQueryRegistry(cmd Command) {
	out := make([]RadioState, 0, len(a.radios))
	for _, entry := range a.radios {
		out = append(out, entry.state.clone())
	}
	cmd.ReplyRegistry <- out
}

func (a *Actor) handleConnectAmplifier(cmd Command) {
	a.amp = ampChannel{meta: cmd.AmpMeta, connected: true, writer: cmd.AmpWriter}
	a.ampCodec = catproto.NewCodec(cmd.AmpMeta.Protocol)
	a.shadow.reset()
	a.ampAuto = false
	a.emit(Event{Kind: EventAmpConnected})
}

func (a *Actor) handleDisconnectAmplifier() {
	a.amp = ampChannel{}
	a.ampCodec = nil
	a.shadow.reset()
	a.ampAuto = false
	a.emit(Event{Kind: EventAmpDisconnected})
}

func (a *Actor) handleSetAmplifierConfig(cmd Command) {
	if cmd.AmpProtocol != nil {
		a.amp.meta.Protocol = *cmd.AmpProtocol
		a.ampCodec = catproto.NewCodec(*cmd.AmpProtocol)
	}
	if cmd.AmpBaudRate != nil {
		a.amp.meta.BaudRate = *cmd.AmpBaudRate
	}
	if cmd.AmpCivAddress != nil {
		a.amp.meta.CivAddress = cmd.AmpCivAddress
	}
}

// sendHeartbeat keeps every radio's shadow state fresh on its own terms:
// the ASCII dialects and IcomCIV are told once, at connect time, to
// report changes unsolicited (see buildInitSequence in cmd/catmuxd), so
// they need no heartbeat traffic here. Yaesu's binary dialect has no such
// command, so it is re-polled on every tick instead.
func (a *Actor) sendHeartbeat() {
	for _, entry := range a.radios {
		switch entry.state.Meta.Protocol {
		case catproto.Kenwood, catproto.Elecraft, catproto.YaesuAscii, catproto.FlexRadio:
			a.emit(Event{Kind: EventRadioDataOut, Handle: entry.state.Handle, Bytes: []byte("AI2;")})
		case catproto.Yaesu:
			a.emit(Event{Kind: EventRadioDataOut, Handle: entry.state.Handle, Bytes: catproto.ProbeCommandYaesu()})
		}
	}
}

func (a *Actor) ampCivAddress() uint8 {
	if a.amp.meta.CivAddress != nil {
		return *a.amp.meta.CivAddress
	}
	return 0
}

func (a *Actor) writeToAmp(data []byte) {
	if !a.amp.connected || a.amp.writer == nil {
		return
	}
	a.amp.writer(data)
	a.emit(Event{Kind: EventAmpDataOut, Bytes: data})
}
