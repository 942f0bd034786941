package mux

import (
	"time"

	"github.com/kb9vty/catmux/pkg/catproto"
)

// nowFunc is indirected so tests can control lockout timing without
// sleeping real wall-clock time.
var nowFunc = time.Now

// handleSetActiveRadio is the explicit, operator-issued switch command. It
// obeys the same lockout window as an automatic switch.
func (a *Actor) handleSetActiveRadio(h catproto.RadioHandle) {
	if _, ok := a.radios[h]; !ok {
		return
	}
	a.attemptSwitch(h)
}

// runAutoSwitch applies the configured SwitchingMode to a processed radio
// response, switching the active radio when policy and lockout allow it.
func (a *Actor) runAutoSwitch(entry *radioEntry, resp catproto.RadioResponse, freqChanged, pttChanged bool) {
	h := entry.state.Handle
	if h == a.activeRadio {
		return
	}

	switch a.switchingMode {
	case Manual:
		return
	case FrequencyTriggered:
		if resp.Kind == catproto.RespFrequency && freqChanged {
			a.attemptSwitch(h)
		}
	case Automatic:
		if (resp.Kind == catproto.RespPtt && resp.Ptt && pttChanged) ||
			(resp.Kind == catproto.RespFrequency && freqChanged) {
			a.attemptSwitch(h)
		}
	}
}

// attemptSwitch enforces the lockout window and, on success, seeds the new
// active radio's known state to the amp immediately (if auto-info is on).
func (a *Actor) attemptSwitch(requested catproto.RadioHandle) {
	now := nowFunc()
	if now.Before(a.lockoutUntil) {
		remaining := a.lockoutUntil.Sub(now).Milliseconds()
		a.emit(Event{
			Kind:        EventSwitchingBlocked,
			Requested:   requested,
			Current:     a.activeRadio,
			RemainingMs: remaining,
		})
		return
	}

	previous := a.activeRadio
	a.activeRadio = requested
	a.lockoutUntil = now.Add(time.Duration(a.lockoutMs) * time.Millisecond)

	if previous != requested {
		a.emit(Event{Kind: EventActiveRadioChanged, From: previous, To: requested})
	}

	if entry, ok := a.radios[requested]; ok && a.amp.connected && a.ampAuto {
		a.forwardChangesToAmp(entry.state, entry.state.FrequencyHz != nil, entry.state.Mode != nil, entry.state.Ptt != nil)
	}
}
