package catproto

import "fmt"

// Yaesu binary CAT commands are fixed 5-byte frames: four parameter bytes
// followed by an opcode byte. Unlike the ASCII dialects there is no framing
// delimiter; the receiver's only way to know how many bytes a response
// carries is to remember which command it last issued. SetExpectedResponseLen
// lets a caller tell the codec what to expect after each query; the I/O
// tasks in pkg/ioendpoint do not call it, so a codec they feed always waits
// for full 5-byte frames.
const yaesuFrameLen = 5

type yaesuOpcode byte

const (
	yaesuCmdSetFreq      yaesuOpcode = 0x01
	yaesuCmdSetMode      yaesuOpcode = 0x07
	yaesuCmdPttOn        yaesuOpcode = 0x08
	yaesuCmdPttOff       yaesuOpcode = 0x88
	yaesuCmdReadFreqMode yaesuOpcode = 0x03
	yaesuCmdReadRxStatus yaesuOpcode = 0xE7
	yaesuCmdReadTxStatus yaesuOpcode = 0xF7
)

var yaesuModeToNeutral = map[byte]OperatingMode{
	0x00: ModeLSB,
	0x01: ModeUSB,
	0x02: ModeCW,
	0x03: ModeCWReverse,
	0x04: ModeAM,
	0x08: ModeFM,
	0x0A: ModeDigL,
	0x0C: ModeDigU,
}

var neutralToYaesuMode = map[OperatingMode]byte{
	ModeLSB:       0x00,
	ModeUSB:       0x01,
	ModeCW:        0x02,
	ModeCWReverse: 0x03,
	ModeAM:        0x04,
	ModeFM:        0x08,
	ModeDigL:      0x0A,
	ModeDigU:      0x0C,
}

// bcdToFrequencyBE decodes a big-endian packed-BCD frequency at 10Hz
// resolution: 4 bytes, 8 decimal digits, most significant byte first.
func bcdToFrequencyBE(data []byte) (uint64, bool) {
	var hz uint64
	for _, b := range data {
		hi := (b >> 4) & 0x0F
		lo := b & 0x0F
		if hi > 9 || lo > 9 {
			return 0, false
		}
		hz = hz*100 + uint64(hi)*10 + uint64(lo)
	}
	return hz * 10, true
}

// frequencyToBcdBE encodes hz (rounded down to the nearest 10Hz) into 4
// bytes of big-endian packed BCD.
func frequencyToBcdBE(hz uint64) []byte {
	digits := hz / 10
	out := make([]byte, 4)
	for i := 3; i >= 0; i-- {
		lo := byte(digits % 10)
		digits /= 10
		hi := byte(digits % 10)
		digits /= 10
		out[i] = (hi << 4) | lo
	}
	return out
}

// YaesuCommand is a parsed fixed-length Yaesu binary frame.
type YaesuCommand struct {
	P1, P2, P3, P4 byte
	Opcode         byte
	Raw            []byte
}

func (c YaesuCommand) Encode() []byte {
	return []byte{c.P1, c.P2, c.P3, c.P4, c.Opcode}
}

// ProbeCommandYaesu reads frequency and mode, the standard identification
// probe for Yaesu binary radios.
func ProbeCommandYaesu() []byte {
	return YaesuCommand{Opcode: byte(yaesuCmdReadFreqMode)}.Encode()
}

// isValidYaesuStatusByte validates the mode nibble of a read-freq-mode
// response; real Yaesu mode bytes never exceed 0x0C.
func isValidYaesuStatusByte(modeByte byte) bool { return modeByte <= 0x0C }

// YaesuCodec parses and encodes fixed 5-byte Yaesu binary frames. Because
// the wire format carries no length or delimiter byte, the codec must be
// told how many bytes the next inbound frame will be; it defaults to a
// full 5-byte command frame and is told otherwise via SetExpectedResponseLen
// immediately after a query is sent.
type YaesuCodec struct {
	buf         []byte
	expectedLen int
}

func NewYaesuCodec() *YaesuCodec {
	return &YaesuCodec{expectedLen: yaesuFrameLen}
}

func (c *YaesuCodec) PushBytes(data []byte) { c.buf = append(c.buf, data...) }
func (c *YaesuCodec) Clear()                { c.buf = nil }

// SetExpectedResponseLen overrides the next frame length the codec will
// wait for. Read-status commands answer with a single status byte rather
// than a full 5-byte frame; whoever sends such a command calls this right
// after sending it.
func (c *YaesuCodec) SetExpectedResponseLen(n int) {
	if n <= 0 {
		n = yaesuFrameLen
	}
	c.expectedLen = n
}

func (c *YaesuCodec) nextFrame(n int) ([]byte, bool) {
	if len(c.buf) < n {
		return nil, false
	}
	raw := append([]byte(nil), c.buf[:n]...)
	c.buf = c.buf[n:]
	return raw, true
}

func (c *YaesuCodec) NextResponseWithBytes() (RadioResponse, []byte, bool) {
	n := c.expectedLen
	raw, ok := c.nextFrame(n)
	if !ok {
		return RadioResponse{}, nil, false
	}
	c.expectedLen = yaesuFrameLen
	if n == 1 {
		return yaesuStatusByteToResponse(raw[0]), raw, true
	}
	return yaesuFrameToResponse(raw), raw, true
}

func (c *YaesuCodec) NextRequestWithBytes() (RadioRequest, []byte, bool) {
	raw, ok := c.nextFrame(yaesuFrameLen)
	if !ok {
		return RadioRequest{}, nil, false
	}
	return yaesuFrameToRequest(raw), raw, true
}

// yaesuFrameToResponse decodes a 5-byte frequency/mode report: bytes 0-3
// are the BCD frequency and byte 4 is the mode, not an opcode — the
// 5-byte response frame has only this one shape, unlike the 5-byte
// command frame it otherwise resembles.
func yaesuFrameToResponse(raw []byte) RadioResponse {
	if len(raw) != yaesuFrameLen {
		return RespUnknownOf(raw)
	}
	hz, ok := bcdToFrequencyBE(raw[0:4])
	if !ok {
		return RespUnknownOf(raw)
	}
	var status StatusFields
	status.FrequencyHz = &hz
	if m, known := yaesuModeToNeutral[raw[4]]; known {
		status.Mode = &m
	}
	return RadioResponse{Kind: RespStatus, Status: status}
}

func yaesuStatusByteToResponse(status byte) RadioResponse {
	ptt := status&0x80 == 0
	return RespPttOf(ptt)
}

func yaesuFrameToRequest(raw []byte) RadioRequest {
	if len(raw) != yaesuFrameLen {
		return RadioRequest{Kind: ReqUnknown, UnknownBytes: raw}
	}
	opcode := raw[4]
	switch yaesuOpcode(opcode) {
	case yaesuCmdSetFreq:
		hz, ok := bcdToFrequencyBE(raw[0:4])
		if !ok {
			return RadioRequest{Kind: ReqUnknown, UnknownBytes: raw}
		}
		return ReqSetFrequencyOf(hz)
	case yaesuCmdSetMode:
		m, known := yaesuModeToNeutral[raw[0]]
		if !known {
			return RadioRequest{Kind: ReqUnknown, UnknownBytes: raw}
		}
		return RadioRequest{Kind: ReqSetMode, Mode: m}
	case yaesuCmdPttOn:
		return RadioRequest{Kind: ReqSetPtt, Ptt: true}
	case yaesuCmdPttOff:
		return RadioRequest{Kind: ReqSetPtt, Ptt: false}
	case yaesuCmdReadFreqMode:
		return RadioRequest{Kind: ReqGetFrequency}
	case yaesuCmdReadRxStatus, yaesuCmdReadTxStatus:
		return RadioRequest{Kind: ReqGetPtt}
	default:
		return RadioRequest{Kind: ReqUnknown, UnknownBytes: raw}
	}
}

// YaesuCommandFromResponse builds the Yaesu binary wire command for a
// neutral response.
func YaesuCommandFromResponse(resp RadioResponse) (YaesuCommand, bool) {
	switch resp.Kind {
	case RespFrequency:
		b := frequencyToBcdBE(resp.FrequencyHz)
		return YaesuCommand{P1: b[0], P2: b[1], P3: b[2], P4: b[3], Opcode: byte(yaesuCmdSetFreq)}, true
	case RespMode:
		code, known := neutralToYaesuMode[resp.Mode]
		if !known {
			return YaesuCommand{}, false
		}
		return YaesuCommand{P1: code, Opcode: byte(yaesuCmdSetMode)}, true
	case RespPtt:
		if resp.Ptt {
			return YaesuCommand{Opcode: byte(yaesuCmdPttOn)}, true
		}
		return YaesuCommand{Opcode: byte(yaesuCmdPttOff)}, true
	default:
		return YaesuCommand{}, false
	}
}

func (cmd YaesuCommand) String() string {
	return fmt.Sprintf("Yaesu{%02X %02X %02X %02X %02X}", cmd.P1, cmd.P2, cmd.P3, cmd.P4, cmd.Opcode)
}
