package mux

import (
	"github.com/kb9vty/catmux/pkg/catproto"
	"github.com/kb9vty/catmux/pkg/translate"
)

// handleRadioRawData feeds bytes into the owning radio's codec and
// processes every complete frame the codec yields, in order, before any
// other command is handled — this is the "batch" guarantee spec.md
// requires for a single RadioRawData command.
func (a *Actor) handleRadioRawData(cmd Command) {
	entry, ok := a.radios[cmd.Handle]
	if !ok {
		return // invariant 2: responses referencing unknown handles are rejected
	}
	a.emit(Event{Kind: EventRadioDataIn, Handle: cmd.Handle, Bytes: cmd.Bytes})

	entry.codec.PushBytes(cmd.Bytes)
	for {
		resp, _, ok := entry.codec.NextResponseWithBytes()
		if !ok {
			break
		}
		a.processRadioResponse(entry, resp)
	}
}

// processRadioResponse applies a single parsed response to per-radio
// state, runs CB/TB inference and the switching policy, and forwards
// changes to the amplifier when appropriate.
func (a *Actor) processRadioResponse(entry *radioEntry, resp catproto.RadioResponse) {
	if resp.Kind == catproto.RespUnknown {
		return // invariant 4: state is never modified by a codec validation failure
	}

	isActive := a.activeRadio == entry.state.Handle

	if isActive {
		a.applyCbTbInference(resp)
	}

	var freqChanged, modeChanged, pttChanged bool

	switch resp.Kind {
	case catproto.RespFrequency:
		if entry.state.FrequencyHz == nil || *entry.state.FrequencyHz != resp.FrequencyHz {
			freqChanged = true
		}
		hz := resp.FrequencyHz
		entry.state.FrequencyHz = &hz
	case catproto.RespMode:
		if entry.state.Mode == nil || *entry.state.Mode != resp.Mode {
			modeChanged = true
		}
		m := resp.Mode
		entry.state.Mode = &m
	case catproto.RespPtt:
		if entry.state.Ptt == nil || *entry.state.Ptt != resp.Ptt {
			pttChanged = true
		}
		p := resp.Ptt
		entry.state.Ptt = &p
	case catproto.RespStatus:
		if resp.Status.FrequencyHz != nil && (entry.state.FrequencyHz == nil || *entry.state.FrequencyHz != *resp.Status.FrequencyHz) {
			freqChanged = true
			hz := *resp.Status.FrequencyHz
			entry.state.FrequencyHz = &hz
		}
		if resp.Status.Mode != nil && (entry.state.Mode == nil || *entry.state.Mode != *resp.Status.Mode) {
			modeChanged = true
			m := *resp.Status.Mode
			entry.state.Mode = &m
		}
		if resp.Status.Ptt != nil && (entry.state.Ptt == nil || *entry.state.Ptt != *resp.Status.Ptt) {
			pttChanged = true
			p := *resp.Status.Ptt
			entry.state.Ptt = &p
		}
	}

	if freqChanged || modeChanged || pttChanged {
		entry.state.touch()
		a.emitStateChanged(entry.state.Handle, freqChanged, modeChanged, pttChanged, entry.state)
	}

	a.runAutoSwitch(entry, resp, freqChanged, pttChanged)

	if a.activeRadio == entry.state.Handle && a.amp.connected && a.ampAuto && (freqChanged || modeChanged || pttChanged) {
		a.forwardChangesToAmp(entry.state, freqChanged, modeChanged, pttChanged)
	}
}

func (s *RadioState) touch() { s.LastUpdate = nowFunc() }

func (a *Actor) emitStateChanged(h catproto.RadioHandle, freqChanged, modeChanged, pttChanged bool, state RadioState) {
	e := Event{Kind: EventRadioStateChanged, Handle: h}
	if freqChanged {
		e.FrequencyHz = state.FrequencyHz
	}
	if modeChanged {
		e.Mode = state.Mode
	}
	if pttChanged {
		e.Ptt = state.Ptt
	}
	a.emit(e)
}

// forwardChangesToAmp translates each changed field to the amp's protocol,
// writes it, and updates the shadow state to match — the shadow always
// reflects what the amp has actually been told.
func (a *Actor) forwardChangesToAmp(state RadioState, freqChanged, modeChanged, pttChanged bool) {
	if freqChanged && state.FrequencyHz != nil {
		a.sendAndShadowFrequency(*state.FrequencyHz)
	}
	if modeChanged && state.Mode != nil {
		a.sendAndShadowMode(*state.Mode)
	}
	if pttChanged && state.Ptt != nil {
		a.sendAndShadowPtt(*state.Ptt)
	}
}

func (a *Actor) sendAndShadowFrequency(hz uint64) {
	bytes, err := translate.TranslateResponse(catproto.RespFreq(hz), a.amp.meta.Protocol, a.translateCfg, a.ampCivAddress())
	if err != nil {
		return
	}
	rounded := translate.RoundFrequency(hz, a.translateCfg.FrequencyPrecisionHz)
	a.shadow.FrequencyHz = &rounded
	a.writeToAmp(bytes)
}

func (a *Actor) sendAndShadowMode(m catproto.OperatingMode) {
	bytes, err := translate.TranslateResponse(catproto.RespModeOf(m), a.amp.meta.Protocol, a.translateCfg, a.ampCivAddress())
	if err != nil {
		return
	}
	a.shadow.Mode = &m
	a.writeToAmp(bytes)
}

func (a *Actor) sendAndShadowPtt(ptt bool) {
	bytes, err := translate.TranslateResponse(catproto.RespPttOf(ptt), a.amp.meta.Protocol, a.translateCfg, a.ampCivAddress())
	if err != nil {
		return
	}
	a.shadow.Ptt = ptt
	a.writeToAmp(bytes)
}

// handleAmpRawData feeds bytes into the amp's codec and answers every
// complete request from cached shadow state. Frequency and mode queries
// go unanswered while the shadow does not know them; a PTT query is always
// answered from the shadow's PTT flag, which is off until a PTT report
// arrives, and CB/TB queries default to 0 when unknown.
func (a *Actor) handleAmpRawData(cmd Command) {
	if a.ampCodec == nil {
		return
	}
	a.emit(Event{Kind: EventAmpDataIn, Bytes: cmd.Bytes})

	a.ampCodec.PushBytes(cmd.Bytes)
	for {
		req, _, ok := a.ampCodec.NextRequestWithBytes()
		if !ok {
			break
		}
		a.processAmpRequest(req)
	}
}

const kenwoodMasterID = "022"

func (a *Actor) processAmpRequest(req catproto.RadioRequest) {
	switch req.Kind {
	case catproto.ReqGetFrequency:
		if a.shadow.FrequencyHz != nil {
			a.sendAndShadowFrequency(*a.shadow.FrequencyHz)
		}
	case catproto.ReqGetMode:
		if a.shadow.Mode != nil {
			a.sendAndShadowMode(*a.shadow.Mode)
		}
	case catproto.ReqGetPtt:
		a.sendAndShadowPtt(a.shadow.Ptt)
	case catproto.ReqGetId:
		// ID is deliberately excluded from the forwarding allow-list, but
		// the amp's identity query is a fixed exception the mux always
		// answers, regardless of active radio.
		if bytes, err := translate.EncodeResponse(catproto.RespIdOf(kenwoodMasterID), a.amp.meta.Protocol, a.translateCfg, a.ampCivAddress()); err == nil {
			a.writeToAmp(bytes)
		}
	case catproto.ReqGetControlBand:
		band := uint8(0)
		if a.shadow.ControlBand != nil {
			band = *a.shadow.ControlBand
		}
		if bytes, err := translate.EncodeResponse(catproto.RespControlBandOf(band), a.amp.meta.Protocol, a.translateCfg, a.ampCivAddress()); err == nil {
			a.writeToAmp(bytes)
		}
	case catproto.ReqGetTransmitBand:
		band := uint8(0)
		if a.shadow.TransmitBand != nil {
			band = *a.shadow.TransmitBand
		}
		if bytes, err := translate.EncodeResponse(catproto.RespTransmitBandOf(band), a.amp.meta.Protocol, a.translateCfg, a.ampCivAddress()); err == nil {
			a.writeToAmp(bytes)
		}
	case catproto.ReqGetAutoInfo:
		if bytes, err := translate.EncodeResponse(catproto.RespAutoInfoOf(a.ampAuto), a.amp.meta.Protocol, a.translateCfg, a.ampCivAddress()); err == nil {
			a.writeToAmp(bytes)
		}
	case catproto.ReqSetAutoInfo:
		a.ampAuto = req.AutoInfo
		if a.ampAuto {
			a.seedAmpFromShadow()
		}
	}
}

// seedAmpFromShadow pushes the known shadow frequency and mode to the amp
// as soon as it asks to be kept up to date, so it doesn't start from a
// blank state until the next radio event happens to fire. PTT is not
// pushed here.
func (a *Actor) seedAmpFromShadow() {
	if a.shadow.FrequencyHz != nil {
		a.sendAndShadowFrequency(*a.shadow.FrequencyHz)
	}
	if a.shadow.Mode != nil {
		a.sendAndShadowMode(*a.shadow.Mode)
	}
}

// applyCbTbInference updates shadow CB/TB/split/rx_vfo fields from an
// active radio's VFO or explicit band reports. Applied only to responses
// from the currently active radio.
func (a *Actor) applyCbTbInference(resp catproto.RadioResponse) {
	switch resp.Kind {
	case catproto.RespControlBand:
		b := resp.Band
		a.shadow.ControlBand = &b
	case catproto.RespTransmitBand:
		b := resp.Band
		a.shadow.TransmitBand = &b
	case catproto.RespVfo:
		switch resp.Vfo {
		case catproto.VfoA, catproto.VfoMemory:
			rx, cb, tb := uint8(0), uint8(0), uint8(0)
			a.shadow.RxVfo, a.shadow.ControlBand, a.shadow.TransmitBand = &rx, &cb, &tb
			a.shadow.Split = false
		case catproto.VfoB:
			rx, cb, tb := uint8(1), uint8(1), uint8(1)
			a.shadow.RxVfo, a.shadow.ControlBand, a.shadow.TransmitBand = &rx, &cb, &tb
			a.shadow.Split = false
		case catproto.VfoSplit:
			rx := uint8(0)
			if a.shadow.RxVfo != nil {
				rx = *a.shadow.RxVfo
			}
			tb := uint8(1) - rx
			a.shadow.TransmitBand = &tb
			a.shadow.ControlBand = &rx
			a.shadow.Split = true
		}
	}
}
