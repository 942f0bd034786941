// Package virtualradio implements an in-process actor that behaves as a
// real radio: it holds its own state, parses inbound requests through the
// same codec a real radio's bytes would be parsed with, and emits encoded
// responses and unsolicited reports over a duplex byte stream. A Radio
// I/O task holding the other end of that stream cannot tell a virtual
// radio apart from hardware.
package virtualradio

import (
	"context"
	"io"

	"github.com/kb9vty/catmux/pkg/catproto"
	"github.com/kb9vty/catmux/pkg/logging"
)

// Command is a direct operator action on the virtual radio (a UI band
// button, a PTT toggle), distinct from wire traffic arriving over the
// byte stream.
type Command struct {
	Kind       CommandKind
	FrequencyHz uint64
	Mode        catproto.OperatingMode
	Ptt         bool
}

type CommandKind int

const (
	CmdSetFrequency CommandKind = iota
	CmdSetMode
	CmdSetPtt
)

// Radio is a virtual transceiver: its own state machine, driven by a byte
// stream (one end of transport.NewDuplexPipe) and a UI command channel.
type Radio struct {
	protocol   catproto.Protocol
	model      catproto.RadioModel
	civAddress *uint8
	codec      catproto.Codec
	stream     io.ReadWriter

	cmdCh chan Command

	frequencyHz uint64
	mode        catproto.OperatingMode
	ptt         bool
	autoInfo    bool
}

// New builds a virtual radio bound to one end of a duplex stream. The
// stream is expected to be fully owned by this Radio for its lifetime.
func New(protocol catproto.Protocol, model catproto.RadioModel, civAddress *uint8, stream io.ReadWriter) *Radio {
	return &Radio{
		protocol:    protocol,
		model:       model,
		civAddress:  civAddress,
		codec:       catproto.NewCodec(protocol),
		stream:      stream,
		cmdCh:       make(chan Command, 32),
		frequencyHz: 14_250_000,
		mode:        catproto.ModeUSB,
	}
}

// Commands returns the channel used to deliver direct operator actions
// (band buttons, PTT toggle) to the radio.
func (r *Radio) Commands() chan<- Command { return r.cmdCh }

// Run drives the radio until ctx is cancelled or the stream closes. Reads
// happen on a dedicated goroutine so Run can select over both wire bytes
// and UI commands.
func (r *Radio) Run(ctx context.Context) {
	rawCh := make(chan []byte, 32)
	go r.readLoop(ctx, rawCh)

	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-rawCh:
			if !ok {
				return
			}
			r.handleInbound(data)
		case cmd := <-r.cmdCh:
			r.handleCommand(cmd)
		}
	}
}

func (r *Radio) readLoop(ctx context.Context, out chan<- []byte) {
	defer close(out)
	buf := make([]byte, 256)
	for {
		n, err := r.stream.Read(buf)
		if n > 0 {
			chunk := append([]byte(nil), buf[:n]...)
			select {
			case out <- chunk:
			case <-ctx.Done():
				return
			}
		}
		if err != nil {
			if err != io.EOF {
				logging.Debugf("virtualradio", "stream read ended: %v", err)
			}
			return
		}
		if ctx.Err() != nil {
			return
		}
	}
}

func (r *Radio) handleInbound(data []byte) {
	r.codec.PushBytes(data)
	for {
		req, _, ok := r.codec.NextRequestWithBytes()
		if !ok {
			break
		}
		r.handleRequest(req)
	}
}

func (r *Radio) handleCommand(cmd Command) {
	switch cmd.Kind {
	case CmdSetFrequency:
		r.frequencyHz = cmd.FrequencyHz
		r.reportIfAutoInfo(catproto.RespFreq(r.frequencyHz))
	case CmdSetMode:
		r.mode = cmd.Mode
		r.reportIfAutoInfo(catproto.RespModeOf(r.mode))
	case CmdSetPtt:
		r.ptt = cmd.Ptt
		r.reportIfAutoInfo(catproto.RespPttOf(r.ptt))
	}
}

// handleRequest answers a single parsed wire request: a Get* is answered
// from current state, a Set* applies the state change and, if auto-info
// is enabled, immediately reports it back (mirroring what a real radio
// does in transceive mode).
func (r *Radio) handleRequest(req catproto.RadioRequest) {
	switch req.Kind {
	case catproto.ReqGetFrequency:
		r.respond(catproto.RespFreq(r.frequencyHz))
	case catproto.ReqSetFrequency:
		r.frequencyHz = req.FrequencyHz
		r.reportIfAutoInfo(catproto.RespFreq(r.frequencyHz))
	case catproto.ReqGetMode:
		r.respond(catproto.RespModeOf(r.mode))
	case catproto.ReqSetMode:
		r.mode = req.Mode
		r.reportIfAutoInfo(catproto.RespModeOf(r.mode))
	case catproto.ReqGetPtt:
		r.respond(catproto.RespPttOf(r.ptt))
	case catproto.ReqSetPtt:
		r.ptt = req.Ptt
		r.reportIfAutoInfo(catproto.RespPttOf(r.ptt))
	case catproto.ReqGetId:
		r.respond(catproto.RespIdOf(r.synthesizedID()))
	case catproto.ReqGetAutoInfo:
		r.respond(catproto.RespAutoInfoOf(r.autoInfo))
	case catproto.ReqSetAutoInfo:
		r.autoInfo = req.AutoInfo
	}
}

// synthesizedID builds the radio's ID response from its configured model,
// per spec.md 4.C ("the virtual radio's ID response is synthesized from
// its configured model").
func (r *Radio) synthesizedID() string {
	if r.model.Model != "" {
		return r.model.Model
	}
	return "VIRTUAL"
}

func (r *Radio) respond(resp catproto.RadioResponse) {
	r.writeResponse(resp)
}

// reportIfAutoInfo emits an unsolicited report only when auto-info is
// enabled; otherwise the radio stays silent until explicitly asked.
func (r *Radio) reportIfAutoInfo(resp catproto.RadioResponse) {
	if r.autoInfo {
		r.writeResponse(resp)
	}
}

func (r *Radio) writeResponse(resp catproto.RadioResponse) {
	bytes, ok := r.encode(resp)
	if !ok {
		return
	}
	if _, err := r.stream.Write(bytes); err != nil {
		logging.Debugf("virtualradio", "stream write failed: %v", err)
	}
}

func (r *Radio) encode(resp catproto.RadioResponse) ([]byte, bool) {
	switch r.protocol {
	case catproto.Kenwood:
		cmd, ok := catproto.KenwoodCommandFromResponse(resp)
		if !ok {
			return nil, false
		}
		return cmd.Encode(), true
	case catproto.Elecraft:
		cmd, ok := catproto.ElecraftCommandFromResponse(resp)
		if !ok {
			return nil, false
		}
		return cmd.Encode(), true
	case catproto.YaesuAscii:
		cmd, ok := catproto.YaesuAsciiCommandFromResponse(resp)
		if !ok {
			return nil, false
		}
		return cmd.Encode(), true
	case catproto.FlexRadio:
		cmd, ok := catproto.FlexCommandFromResponse(resp)
		if !ok {
			return nil, false
		}
		return cmd.Encode(), true
	case catproto.IcomCIV:
		to := catproto.ControllerAddr
		cmd, ok := catproto.CivCommandFromResponse(resp, to)
		if !ok {
			return nil, false
		}
		return cmd.Encode(), true
	case catproto.Yaesu:
		cmd, ok := catproto.YaesuCommandFromResponse(resp)
		if !ok {
			return nil, false
		}
		return cmd.Encode(), true
	default:
		return nil, false
	}
}
