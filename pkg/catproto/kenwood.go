package catproto

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// Kenwood mode codes, as used by the MD; command and the IF; status frame.
// Elecraft, FlexRadio, and Yaesu ASCII all start from this table and layer
// their own extensions on top.
var kenwoodModeToNeutral = map[byte]OperatingMode{
	'1': ModeLSB,
	'2': ModeUSB,
	'3': ModeCW,
	'4': ModeFM,
	'5': ModeAM,
	'6': ModeDigL, // FSK/RTTY on some Kenwood firmware, treated as DIG-L
	'7': ModeCWReverse,
	'8': ModeDigU, // data/USB
	'9': ModeRTTYReverse,
}

var neutralToKenwoodMode = map[OperatingMode]byte{
	ModeLSB:         '1',
	ModeUSB:         '2',
	ModeCW:          '3',
	ModeFM:          '4',
	ModeAM:          '5',
	ModeDigL:        '6',
	ModeCWReverse:   '7',
	ModeDigU:        '8',
	ModeRTTYReverse: '9',
	ModeRTTY:        '6',
	ModeFMNarrow:    '4',
}

// KenwoodCommand is the Kenwood-dialect native command, produced by parsing
// a semicolon-terminated ASCII frame and consumed when encoding one.
type KenwoodCommand struct {
	Prefix string
	Args   string
	Raw    []byte
}

// ProbeCommandKenwood is the ID query every ASCII dialect answers.
func ProbeCommandKenwood() []byte { return []byte("ID;") }

// IsValidKenwoodIDResponse reports whether data looks like a 3-digit
// Kenwood ID response (IDnnn;).
func IsValidKenwoodIDResponse(data []byte) bool {
	s := string(bytes.TrimSpace(data))
	return strings.HasPrefix(s, "ID") && strings.HasSuffix(s, ";") && len(s) == 6
}

// KenwoodCodec is a streaming parser/encoder for the Kenwood ASCII dialect.
type KenwoodCodec struct {
	buf []byte
}

func NewKenwoodCodec() *KenwoodCodec { return &KenwoodCodec{} }

func (c *KenwoodCodec) PushBytes(data []byte) { c.buf = append(c.buf, data...) }
func (c *KenwoodCodec) Clear()                { c.buf = nil }

// nextFrame extracts the next ';'-terminated frame from the buffer, or
// ok=false if none is complete yet.
func (c *KenwoodCodec) nextFrame() (raw []byte, ok bool) {
	idx := bytes.IndexByte(c.buf, ';')
	if idx < 0 {
		return nil, false
	}
	raw = append([]byte(nil), c.buf[:idx+1]...)
	c.buf = c.buf[idx+1:]
	return raw, true
}

func (c *KenwoodCodec) nextCommand() (KenwoodCommand, []byte, bool) {
	raw, ok := c.nextFrame()
	if !ok {
		return KenwoodCommand{}, nil, false
	}
	body := string(bytes.TrimSuffix(raw, []byte(";")))
	if len(body) < 2 {
		return KenwoodCommand{Prefix: "", Args: body, Raw: raw}, raw, true
	}
	return KenwoodCommand{Prefix: body[:2], Args: body[2:], Raw: raw}, raw, true
}

func (c *KenwoodCodec) NextResponseWithBytes() (RadioResponse, []byte, bool) {
	cmd, raw, ok := c.nextCommand()
	if !ok {
		return RadioResponse{}, nil, false
	}
	return kenwoodCommandToResponse(cmd), raw, true
}

func (c *KenwoodCodec) NextRequestWithBytes() (RadioRequest, []byte, bool) {
	cmd, raw, ok := c.nextCommand()
	if !ok {
		return RadioRequest{}, nil, false
	}
	return kenwoodCommandToRequest(cmd), raw, true
}

// Encode renders the command back to wire bytes.
func (cmd KenwoodCommand) Encode() []byte {
	return []byte(cmd.Prefix + cmd.Args + ";")
}

func kenwoodCommandToResponse(cmd KenwoodCommand) RadioResponse {
	switch cmd.Prefix {
	case "FA", "FB":
		hz, err := strconv.ParseUint(cmd.Args, 10, 64)
		if err != nil {
			return RespUnknownOf(cmd.Raw)
		}
		return RespFreq(hz)
	case "MD":
		if len(cmd.Args) != 1 {
			return RespUnknownOf(cmd.Raw)
		}
		m, known := kenwoodModeToNeutral[cmd.Args[0]]
		if !known {
			return RespUnknownOf(cmd.Raw)
		}
		return RespModeOf(m)
	case "TX", "RX":
		return RespPttOf(cmd.Prefix == "TX")
	case "FR", "FT":
		switch cmd.Args {
		case "0":
			return RespVfoOf(VfoA)
		case "1":
			return RespVfoOf(VfoB)
		}
		return RespUnknownOf(cmd.Raw)
	case "SP":
		if cmd.Args == "1" {
			return RespVfoOf(VfoSplit)
		}
		return RespUnknownOf(cmd.Raw)
	case "AI":
		switch cmd.Args {
		case "0":
			return RespAutoInfoOf(false)
		default:
			return RespAutoInfoOf(true)
		}
	case "ID":
		return RespIdOf(cmd.Args)
	case "CB":
		if len(cmd.Args) == 1 && (cmd.Args[0] == '0' || cmd.Args[0] == '1') {
			return RespControlBandOf(cmd.Args[0] - '0')
		}
		return RespUnknownOf(cmd.Raw)
	case "TB":
		if len(cmd.Args) == 1 && (cmd.Args[0] == '0' || cmd.Args[0] == '1') {
			return RespTransmitBandOf(cmd.Args[0] - '0')
		}
		return RespUnknownOf(cmd.Raw)
	case "PS":
		return RadioResponse{Kind: RespPower, Power: cmd.Args == "1"}
	case "IF":
		return parseKenwoodIF(cmd)
	default:
		return RespUnknownOf(cmd.Raw)
	}
}

// parseKenwoodIF decodes the fixed-width composite status frame. Only the
// fields this system forwards are extracted: frequency at offset 0 (11
// digits), TX/RX flag at offset 27, and mode digit at offset 28. Everything
// else in the frame (step size, RIT/XIT offset and on/off, memory channel,
// VFO, scan/split/tone state) is present on the wire but not represented in
// StatusFields.
func parseKenwoodIF(cmd KenwoodCommand) RadioResponse {
	a := cmd.Args
	if len(a) < 33 {
		return RespUnknownOf(cmd.Raw)
	}
	var status StatusFields
	if hz, err := strconv.ParseUint(a[0:11], 10, 64); err == nil {
		status.FrequencyHz = &hz
	}
	ptt := a[27] != '0'
	status.Ptt = &ptt
	if m, known := kenwoodModeToNeutral[a[28]]; known {
		status.Mode = &m
	}
	return RadioResponse{Kind: RespStatus, Status: status}
}

func kenwoodCommandToRequest(cmd KenwoodCommand) RadioRequest {
	switch cmd.Prefix {
	case "FA", "FB":
		if cmd.Args == "" {
			return RadioRequest{Kind: ReqGetFrequency}
		}
		hz, err := strconv.ParseUint(cmd.Args, 10, 64)
		if err != nil {
			return RadioRequest{Kind: ReqUnknown, UnknownBytes: cmd.Raw}
		}
		return ReqSetFrequencyOf(hz)
	case "MD":
		if cmd.Args == "" {
			return RadioRequest{Kind: ReqGetMode}
		}
		m, known := kenwoodModeToNeutral[cmd.Args[0]]
		if !known {
			return RadioRequest{Kind: ReqUnknown, UnknownBytes: cmd.Raw}
		}
		return RadioRequest{Kind: ReqSetMode, Mode: m}
	case "TX":
		return RadioRequest{Kind: ReqSetPtt, Ptt: true}
	case "RX":
		if cmd.Args == "" {
			return RadioRequest{Kind: ReqGetPtt}
		}
		return RadioRequest{Kind: ReqSetPtt, Ptt: false}
	case "AI":
		if cmd.Args == "" {
			return RadioRequest{Kind: ReqGetAutoInfo}
		}
		return ReqSetAutoInfoOf(cmd.Args != "0")
	case "ID":
		return RadioRequest{Kind: ReqGetId}
	case "CB":
		if cmd.Args == "" {
			return RadioRequest{Kind: ReqGetControlBand}
		}
		return RadioRequest{Kind: ReqUnknown, UnknownBytes: cmd.Raw}
	case "TB":
		if cmd.Args == "" {
			return RadioRequest{Kind: ReqGetTransmitBand}
		}
		return RadioRequest{Kind: ReqUnknown, UnknownBytes: cmd.Raw}
	case "PS":
		if cmd.Args == "" {
			return RadioRequest{Kind: ReqGetPower}
		}
		return RadioRequest{Kind: ReqSetPower, Power: cmd.Args == "1"}
	default:
		return RadioRequest{Kind: ReqUnknown, UnknownBytes: cmd.Raw}
	}
}

// KenwoodCommandFromResponse builds the wire command for a neutral
// response, used by the translation engine to speak Kenwood to an amp.
func KenwoodCommandFromResponse(resp RadioResponse) (KenwoodCommand, bool) {
	switch resp.Kind {
	case RespFrequency:
		return KenwoodCommand{Prefix: "FA", Args: fmt.Sprintf("%011d", resp.FrequencyHz)}, true
	case RespMode:
		code, known := neutralToKenwoodMode[resp.Mode]
		if !known {
			return KenwoodCommand{}, false
		}
		return KenwoodCommand{Prefix: "MD", Args: string(code)}, true
	case RespPtt:
		if resp.Ptt {
			return KenwoodCommand{Prefix: "TX", Args: "1"}, true
		}
		return KenwoodCommand{Prefix: "RX"}, true
	case RespId:
		return KenwoodCommand{Prefix: "ID", Args: resp.Id}, true
	case RespControlBand:
		return KenwoodCommand{Prefix: "CB", Args: fmt.Sprintf("%d", resp.Band)}, true
	case RespTransmitBand:
		return KenwoodCommand{Prefix: "TB", Args: fmt.Sprintf("%d", resp.Band)}, true
	case RespAutoInfo:
		if resp.AutoInfo {
			return KenwoodCommand{Prefix: "AI", Args: "2"}, true
		}
		return KenwoodCommand{Prefix: "AI", Args: "0"}, true
	case RespStatus:
		if resp.Status.FrequencyHz != nil {
			return KenwoodCommand{Prefix: "FA", Args: fmt.Sprintf("%011d", *resp.Status.FrequencyHz)}, true
		}
		return KenwoodCommand{}, false
	default:
		return KenwoodCommand{}, false
	}
}
