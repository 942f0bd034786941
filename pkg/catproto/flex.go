package catproto

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// FlexRadio uses 4-letter "ZZ"-prefixed opcodes layered on the Kenwood
// ASCII base, with its own two-digit mode-code table rather than Kenwood's
// 1-9. The table covers codes 00-07 only; any other ZZMD code is not
// mapped to a neutral mode.
var flexModeToNeutral = map[string]OperatingMode{
	"00": ModeLSB,
	"01": ModeUSB,
	"02": ModeAM,
	"03": ModeCW,
	"04": ModeDigL,
	"05": ModeDigU,
	"06": ModeFM,
	"07": ModeRTTY,
}

var neutralToFlexMode = map[OperatingMode]string{
	ModeLSB:  "00",
	ModeUSB:  "01",
	ModeAM:   "02",
	ModeCW:   "03",
	ModeDigL: "04",
	ModeDigU: "05",
	ModeFM:   "06",
	ModeRTTY: "07",
}

// FlexCommand is the FlexRadio-dialect native command.
type FlexCommand struct {
	Opcode string // e.g. "ZZFA"
	Args   string
	Raw    []byte
}

func (cmd FlexCommand) Encode() []byte {
	return []byte(cmd.Opcode + cmd.Args + ";")
}

// IsValidFlexIDResponse reports whether data is a FlexRadio ID90x-ID913
// response.
func IsValidFlexIDResponse(data []byte) bool {
	s := string(bytes.TrimSpace(data))
	if !strings.HasPrefix(s, "ID") || !strings.HasSuffix(s, ";") {
		return false
	}
	body := s[2 : len(s)-1]
	n, err := strconv.Atoi(body)
	return err == nil && n >= 900 && n <= 913
}

// FlexCodec layers ZZ-prefixed FlexRadio commands on top of Kenwood ASCII
// parsing.
type FlexCodec struct {
	kenwood *KenwoodCodec
}

func NewFlexCodec() *FlexCodec { return &FlexCodec{kenwood: NewKenwoodCodec()} }

func (c *FlexCodec) PushBytes(data []byte) { c.kenwood.PushBytes(data) }
func (c *FlexCodec) Clear()                { c.kenwood.Clear() }

func (c *FlexCodec) nextFlexOrKenwood() (flex *FlexCommand, kw *KenwoodCommand, raw []byte, ok bool) {
	cmd, rawBytes, ok2 := c.kenwood.nextCommand()
	if !ok2 {
		return nil, nil, nil, false
	}
	body := string(bytes.TrimSuffix(rawBytes, []byte(";")))
	if strings.HasPrefix(body, "ZZ") && len(body) >= 4 {
		return &FlexCommand{Opcode: body[:4], Args: body[4:], Raw: rawBytes}, nil, rawBytes, true
	}
	return nil, &cmd, rawBytes, true
}

func (c *FlexCodec) NextResponseWithBytes() (RadioResponse, []byte, bool) {
	fc, kw, raw, ok := c.nextFlexOrKenwood()
	if !ok {
		return RadioResponse{}, nil, false
	}
	if fc != nil {
		return flexCommandToResponse(*fc), raw, true
	}
	return kenwoodCommandToResponse(*kw), raw, true
}

func (c *FlexCodec) NextRequestWithBytes() (RadioRequest, []byte, bool) {
	fc, kw, raw, ok := c.nextFlexOrKenwood()
	if !ok {
		return RadioRequest{}, nil, false
	}
	if fc != nil {
		return flexCommandToRequest(*fc), raw, true
	}
	return kenwoodCommandToRequest(*kw), raw, true
}

func flexCommandToResponse(cmd FlexCommand) RadioResponse {
	switch cmd.Opcode {
	case "ZZFA", "ZZFB":
		hz, err := strconv.ParseUint(cmd.Args, 10, 64)
		if err != nil {
			return RespUnknownOf(cmd.Raw)
		}
		return RespFreq(hz)
	case "ZZMD":
		m, known := flexModeToNeutral[cmd.Args]
		if !known {
			return RespUnknownOf(cmd.Raw)
		}
		return RespModeOf(m)
	case "ZZTX":
		return RespPttOf(cmd.Args == "1")
	default:
		return RespUnknownOf(cmd.Raw)
	}
}

func flexCommandToRequest(cmd FlexCommand) RadioRequest {
	switch cmd.Opcode {
	case "ZZFA", "ZZFB":
		if cmd.Args == "" {
			return RadioRequest{Kind: ReqGetFrequency}
		}
		hz, err := strconv.ParseUint(cmd.Args, 10, 64)
		if err != nil {
			return RadioRequest{Kind: ReqUnknown, UnknownBytes: cmd.Raw}
		}
		return ReqSetFrequencyOf(hz)
	case "ZZMD":
		if cmd.Args == "" {
			return RadioRequest{Kind: ReqGetMode}
		}
		m, known := flexModeToNeutral[cmd.Args]
		if !known {
			return RadioRequest{Kind: ReqUnknown, UnknownBytes: cmd.Raw}
		}
		return RadioRequest{Kind: ReqSetMode, Mode: m}
	case "ZZTX":
		return RadioRequest{Kind: ReqSetPtt, Ptt: cmd.Args == "1"}
	default:
		return RadioRequest{Kind: ReqUnknown, UnknownBytes: cmd.Raw}
	}
}

// FlexCommandFromResponse builds the FlexRadio wire command for a neutral
// response.
func FlexCommandFromResponse(resp RadioResponse) (FlexCommand, bool) {
	switch resp.Kind {
	case RespFrequency:
		return FlexCommand{Opcode: "ZZFA", Args: fmt.Sprintf("%011d", resp.FrequencyHz)}, true
	case RespMode:
		code, known := neutralToFlexMode[resp.Mode]
		if !known {
			return FlexCommand{}, false
		}
		return FlexCommand{Opcode: "ZZMD", Args: code}, true
	case RespPtt:
		if resp.Ptt {
			return FlexCommand{Opcode: "ZZTX", Args: "1"}, true
		}
		return FlexCommand{Opcode: "ZZTX", Args: "0"}, true
	default:
		return FlexCommand{}, false
	}
}
