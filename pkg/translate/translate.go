// Package translate turns a protocol-neutral RadioResponse into wire bytes
// for a specific target protocol, and decides which responses are worth
// forwarding to an amplifier at all.
package translate

import (
	"fmt"

	"github.com/kb9vty/catmux/pkg/catproto"
)

// Error reports a response that cannot be expressed in the target
// protocol. Never propagated as a failure to the caller's caller: logged
// at debug and the write is simply skipped, per the mux's forwarding rule.
type Error struct {
	Protocol catproto.Protocol
	Reason   string
}

func (e *Error) Error() string {
	return fmt.Sprintf("cannot translate for %s: %s", e.Protocol, e.Reason)
}

// Config carries the translator's tunables: currently only the frequency
// rounding precision, the one normalization this layer performs itself
// (mode mapping is delegated entirely to the target codec).
type Config struct {
	FrequencyPrecisionHz uint64
}

// DefaultConfig matches the teacher's config defaults (10 Hz), chosen
// because some amplifiers misbehave on sub-10-Hz jitter.
func DefaultConfig() Config {
	return Config{FrequencyPrecisionHz: 10}
}

// RoundFrequency rounds hz down to the nearest multiple of precision. A
// precision of 0 is treated as "no rounding".
func RoundFrequency(hz, precision uint64) uint64 {
	if precision == 0 {
		return hz
	}
	return (hz / precision) * precision
}

// ShouldForwardToAmplifier reports whether this response kind is ever
// worth translating for the amplifier. VFO changes, IDs, and Unknowns are
// dropped; only Frequency, Mode, Ptt, and Status responses are forwarded.
func ShouldForwardToAmplifier(kind catproto.ResponseKind) bool {
	switch kind {
	case catproto.RespFrequency, catproto.RespMode, catproto.RespPtt, catproto.RespStatus:
		return true
	default:
		return false
	}
}

// TranslateResponse encodes resp as wire bytes for target, having first
// applied frequency rounding. civAddress is used only when target is
// IcomCIV (the destination address for the generated CI-V frame) and may
// be the zero value otherwise. Only response kinds ShouldForwardToAmplifier
// accepts are encoded here; the mux's fixed master-ID answer goes through
// EncodeResponse directly, since ID is deliberately excluded from the
// forwarding allow-list but is still a real answer the mux must give.
func TranslateResponse(resp catproto.RadioResponse, target catproto.Protocol, cfg Config, civAddress uint8) ([]byte, error) {
	if !ShouldForwardToAmplifier(resp.Kind) {
		return nil, &Error{target, fmt.Sprintf("response kind %d is never forwarded", resp.Kind)}
	}
	return EncodeResponse(resp, target, cfg, civAddress)
}

// EncodeResponse encodes resp as wire bytes for target without consulting
// the forwarding allow-list. Used for responses the mux answers directly
// (the amplifier's identity query) rather than ones mirrored from active
// radio traffic.
func EncodeResponse(resp catproto.RadioResponse, target catproto.Protocol, cfg Config, civAddress uint8) ([]byte, error) {
	rounded := resp
	if resp.Kind == catproto.RespFrequency {
		rounded.FrequencyHz = RoundFrequency(resp.FrequencyHz, cfg.FrequencyPrecisionHz)
	}
	if resp.Kind == catproto.RespStatus && resp.Status.FrequencyHz != nil {
		r := RoundFrequency(*resp.Status.FrequencyHz, cfg.FrequencyPrecisionHz)
		rounded.Status.FrequencyHz = &r
	}

	switch target {
	case catproto.Kenwood:
		cmd, ok := catproto.KenwoodCommandFromResponse(rounded)
		if !ok {
			return nil, &Error{target, "no wire encoding for this response"}
		}
		return cmd.Encode(), nil
	case catproto.Elecraft:
		cmd, ok := catproto.ElecraftCommandFromResponse(rounded)
		if !ok {
			return nil, &Error{target, "no wire encoding for this response"}
		}
		return cmd.Encode(), nil
	case catproto.YaesuAscii:
		cmd, ok := catproto.YaesuAsciiCommandFromResponse(rounded)
		if !ok {
			return nil, &Error{target, "no wire encoding for this response"}
		}
		return cmd.Encode(), nil
	case catproto.FlexRadio:
		cmd, ok := catproto.FlexCommandFromResponse(rounded)
		if !ok {
			return nil, &Error{target, "no wire encoding for this response"}
		}
		return cmd.Encode(), nil
	case catproto.IcomCIV:
		cmd, ok := catproto.CivCommandFromResponse(rounded, civAddress)
		if !ok {
			return nil, &Error{target, "no wire encoding for this response"}
		}
		return cmd.Encode(), nil
	case catproto.Yaesu:
		cmd, ok := catproto.YaesuCommandFromResponse(rounded)
		if !ok {
			return nil, &Error{target, "no wire encoding for this response"}
		}
		return cmd.Encode(), nil
	default:
		return nil, &Error{target, "unrecognized target protocol"}
	}
}
