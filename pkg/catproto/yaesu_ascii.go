package catproto

import (
	"bytes"
	"strconv"
	"strings"
)

// Yaesu's ASCII CAT dialect (FT-991, FTDX101, and siblings) reuses the
// Kenwood-style semicolon-terminated frame shape and command prefixes but
// diverges on mode codes, which run hex 1-E rather than Kenwood's 1-9, and
// on the ID response, which carries four digits instead of three.
var yaesuAsciiModeToNeutral = map[byte]OperatingMode{
	'1': ModeLSB,
	'2': ModeUSB,
	'3': ModeCW,
	'4': ModeFM,
	'5': ModeAM,
	'6': ModeRTTY,
	'7': ModeCWReverse,
	'8': ModeDigL,
	'9': ModeRTTYReverse,
	'A': ModeDigU,
	'B': ModeFMNarrow,
	'C': ModeDigU,
	'D': ModeDigL,
	'E': ModeDigU,
}

var neutralToYaesuAsciiMode = map[OperatingMode]byte{
	ModeLSB:         '1',
	ModeUSB:         '2',
	ModeCW:          '3',
	ModeFM:          '4',
	ModeAM:          '5',
	ModeRTTY:        '6',
	ModeCWReverse:   '7',
	ModeDigL:        '8',
	ModeRTTYReverse: '9',
	ModeDigU:        'A',
	ModeFMNarrow:    'B',
}

// IsValidYaesuAsciiIDResponse reports whether data looks like a 4-digit
// Yaesu ASCII ID response (IDnnnn;), distinguishing it from Kenwood's
// 3-digit and FlexRadio's 3-digit-in-900s ID responses at probe time.
func IsValidYaesuAsciiIDResponse(data []byte) bool {
	s := string(bytes.TrimSpace(data))
	if !strings.HasPrefix(s, "ID") || !strings.HasSuffix(s, ";") {
		return false
	}
	body := s[2 : len(s)-1]
	if len(body) != 4 {
		return false
	}
	_, err := strconv.Atoi(body)
	return err == nil
}

// YaesuAsciiCodec layers Yaesu's ASCII mode-code convention on top of the
// shared Kenwood frame parser.
type YaesuAsciiCodec struct {
	kenwood *KenwoodCodec
}

func NewYaesuAsciiCodec() *YaesuAsciiCodec {
	return &YaesuAsciiCodec{kenwood: NewKenwoodCodec()}
}

func (c *YaesuAsciiCodec) PushBytes(data []byte) { c.kenwood.PushBytes(data) }
func (c *YaesuAsciiCodec) Clear()                { c.kenwood.Clear() }

func (c *YaesuAsciiCodec) NextResponseWithBytes() (RadioResponse, []byte, bool) {
	cmd, raw, ok := c.kenwood.nextCommand()
	if !ok {
		return RadioResponse{}, nil, false
	}
	return yaesuAsciiCommandToResponse(cmd), raw, true
}

func (c *YaesuAsciiCodec) NextRequestWithBytes() (RadioRequest, []byte, bool) {
	cmd, raw, ok := c.kenwood.nextCommand()
	if !ok {
		return RadioRequest{}, nil, false
	}
	return yaesuAsciiCommandToRequest(cmd), raw, true
}

func yaesuAsciiCommandToResponse(cmd KenwoodCommand) RadioResponse {
	switch cmd.Prefix {
	case "MD":
		if len(cmd.Args) < 1 {
			return RespUnknownOf(cmd.Raw)
		}
		m, known := yaesuAsciiModeToNeutral[strings.ToUpper(cmd.Args)[0]]
		if !known {
			return RespUnknownOf(cmd.Raw)
		}
		return RespModeOf(m)
	case "ID":
		return RespIdOf(cmd.Args)
	default:
		// Frequency, PTT, VFO, auto-info, and band fields share Kenwood's
		// encoding verbatim.
		return kenwoodCommandToResponse(cmd)
	}
}

func yaesuAsciiCommandToRequest(cmd KenwoodCommand) RadioRequest {
	switch cmd.Prefix {
	case "MD":
		if cmd.Args == "" {
			return RadioRequest{Kind: ReqGetMode}
		}
		m, known := yaesuAsciiModeToNeutral[strings.ToUpper(cmd.Args)[0]]
		if !known {
			return RadioRequest{Kind: ReqUnknown, UnknownBytes: cmd.Raw}
		}
		return RadioRequest{Kind: ReqSetMode, Mode: m}
	default:
		return kenwoodCommandToRequest(cmd)
	}
}

// YaesuAsciiCommandFromResponse builds the wire command for a neutral
// response, substituting Yaesu's mode table where it diverges from
// Kenwood's.
func YaesuAsciiCommandFromResponse(resp RadioResponse) (KenwoodCommand, bool) {
	if resp.Kind == RespMode {
		code, known := neutralToYaesuAsciiMode[resp.Mode]
		if !known {
			return KenwoodCommand{}, false
		}
		return KenwoodCommand{Prefix: "MD", Args: string(code)}, true
	}
	return KenwoodCommandFromResponse(resp)
}
