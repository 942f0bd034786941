package catproto

import (
	"bytes"
	"fmt"
)

// ControllerAddr is the conventional Icom CI-V controller address.
const ControllerAddr uint8 = 0xE0

const (
	civPreamble1 byte = 0xFE
	civPreamble2 byte = 0xFE
	civTerminator byte = 0xFD
)

// CI-V command codes this system understands.
const (
	civCmdFreqBroadcast uint8 = 0x00 // unsolicited frequency (transceive)
	civCmdModeBroadcast uint8 = 0x01 // unsolicited mode (transceive)
	civCmdReadFreq      uint8 = 0x03
	civCmdReadMode      uint8 = 0x04
	civCmdSetFreq       uint8 = 0x05
	civCmdSetMode       uint8 = 0x06
	civCmdReadID        uint8 = 0x19
	civCmdTransceive    uint8 = 0x1A
	civCmdPtt           uint8 = 0x1C
)

var civModeToNeutral = map[byte]OperatingMode{
	0x00: ModeLSB,
	0x01: ModeUSB,
	0x02: ModeAM,
	0x03: ModeCW,
	0x04: ModeRTTY,
	0x05: ModeFM,
	0x06: ModeFMNarrow,
	0x07: ModeCWReverse,
	0x08: ModeRTTYReverse,
	0x12: ModeDigL,
	0x17: ModeDigU,
}

var neutralToCivMode = map[OperatingMode]byte{
	ModeLSB:         0x00,
	ModeUSB:         0x01,
	ModeAM:          0x02,
	ModeCW:          0x03,
	ModeRTTY:        0x04,
	ModeFM:          0x05,
	ModeFMNarrow:    0x06,
	ModeCWReverse:   0x07,
	ModeRTTYReverse: 0x08,
	ModeDigL:        0x12,
	ModeDigU:        0x17,
}

// bcdToFrequency decodes a little-endian packed-BCD frequency: 5 bytes,
// 10 decimal digits, each nibble a digit, least-significant byte first.
// Nibbles greater than 9 are invalid BCD and make the frame unparseable.
func bcdToFrequency(data []byte) (uint64, bool) {
	var hz uint64
	var mult uint64 = 1
	for _, b := range data {
		lo := b & 0x0F
		hi := (b >> 4) & 0x0F
		if lo > 9 || hi > 9 {
			return 0, false
		}
		hz += uint64(lo) * mult
		mult *= 10
		hz += uint64(hi) * mult
		mult *= 10
	}
	return hz, true
}

// frequencyToBcd encodes hz into 5 bytes of little-endian packed BCD.
func frequencyToBcd(hz uint64) []byte {
	out := make([]byte, 5)
	for i := 0; i < 5; i++ {
		lo := byte(hz % 10)
		hz /= 10
		hi := byte(hz % 10)
		hz /= 10
		out[i] = lo | (hi << 4)
	}
	return out
}

// CivCommand is the Icom CI-V native command: a parsed frame.
type CivCommand struct {
	To      uint8
	From    uint8
	Command uint8
	SubCmd  *uint8
	Data    []byte
	Raw     []byte
}

func NewCivCommand(to, from, cmd uint8) CivCommand {
	return CivCommand{To: to, From: from, Command: cmd}
}

// Encode renders the command to a full FE FE ... FD frame.
func (c CivCommand) Encode() []byte {
	var buf bytes.Buffer
	buf.WriteByte(civPreamble1)
	buf.WriteByte(civPreamble2)
	buf.WriteByte(c.To)
	buf.WriteByte(c.From)
	buf.WriteByte(c.Command)
	if c.SubCmd != nil {
		buf.WriteByte(*c.SubCmd)
	}
	buf.Write(c.Data)
	buf.WriteByte(civTerminator)
	return buf.Bytes()
}

// ProbeCommandIcom builds a read-frequency probe to the given radio
// address, the command this system uses to detect a CI-V radio during a
// port scan.
func ProbeCommandIcom(addr uint8) []byte {
	cmd := NewCivCommand(addr, ControllerAddr, civCmdReadFreq)
	return cmd.Encode()
}

// ProbeCommandIcomReadID builds a read-transceiver-ID request (0x19),
// used at radio startup to learn the CI-V address the radio itself
// reports.
func ProbeCommandIcomReadID(addr uint8) []byte {
	cmd := NewCivCommand(addr, ControllerAddr, civCmdReadID)
	return cmd.Encode()
}

// ProbeCommandIcomReadMode builds a read-mode request (0x04).
func ProbeCommandIcomReadMode(addr uint8) []byte {
	cmd := NewCivCommand(addr, ControllerAddr, civCmdReadMode)
	return cmd.Encode()
}

// CivEnableTransceiveCommand builds the CI-V command (0x1A 0x05, data 01)
// that turns on transceive mode: once enabled, the radio broadcasts its
// own frequency/mode changes unsolicited, the CI-V equivalent of the
// ASCII dialects' AI2; auto-info.
func CivEnableTransceiveCommand(addr uint8) []byte {
	sub := uint8(0x05)
	cmd := NewCivCommand(addr, ControllerAddr, civCmdTransceive)
	cmd.SubCmd = &sub
	cmd.Data = []byte{0x01}
	return cmd.Encode()
}

// IsValidCivFrame reports whether data is a complete, well-formed CI-V frame.
func IsValidCivFrame(data []byte) bool {
	return len(data) >= 6 && data[0] == civPreamble1 && data[1] == civPreamble2 &&
		data[len(data)-1] == civTerminator
}

// ExtractSourceAddress returns the "from" address of a CI-V frame.
func ExtractSourceAddress(data []byte) (uint8, bool) {
	if !IsValidCivFrame(data) {
		return 0, false
	}
	return data[3], true
}

// CivCodec is a streaming parser/encoder for Icom CI-V framed binary.
type CivCodec struct {
	buf []byte
}

func NewCivCodec() *CivCodec { return &CivCodec{} }

func (c *CivCodec) PushBytes(data []byte) { c.buf = append(c.buf, data...) }
func (c *CivCodec) Clear()                { c.buf = nil }

// nextFrame discards bytes until a FE FE pair is found, then waits for a
// terminating FD.
func (c *CivCodec) nextFrame() ([]byte, bool) {
	for {
		start := bytes.IndexByte(c.buf, civPreamble1)
		if start < 0 || start+1 >= len(c.buf) {
			return nil, false
		}
		if c.buf[start+1] != civPreamble2 {
			c.buf = c.buf[start+1:]
			continue
		}
		end := bytes.IndexByte(c.buf[start:], civTerminator)
		if end < 0 {
			// Incomplete frame so far; drop leading garbage before the
			// preamble but keep waiting for the terminator.
			if start > 0 {
				c.buf = c.buf[start:]
			}
			return nil, false
		}
		raw := append([]byte(nil), c.buf[start:start+end+1]...)
		c.buf = c.buf[start+end+1:]
		return raw, true
	}
}

func (c *CivCodec) parseFrame(raw []byte) (CivCommand, bool) {
	if !IsValidCivFrame(raw) || len(raw) < 6 {
		return CivCommand{}, false
	}
	to := raw[2]
	from := raw[3]
	cmdByte := raw[4]
	rest := raw[5 : len(raw)-1]

	cmd := CivCommand{To: to, From: from, Command: cmdByte, Raw: raw}
	switch cmdByte {
	case civCmdTransceive, civCmdPtt:
		if len(rest) > 0 {
			sub := rest[0]
			cmd.SubCmd = &sub
			cmd.Data = rest[1:]
		}
	default:
		cmd.Data = rest
	}
	return cmd, true
}

func (c *CivCodec) nextCommand() (CivCommand, []byte, bool) {
	raw, ok := c.nextFrame()
	if !ok {
		return CivCommand{}, nil, false
	}
	cmd, ok := c.parseFrame(raw)
	if !ok {
		return CivCommand{Raw: raw}, raw, true
	}
	return cmd, raw, true
}

func (c *CivCodec) NextResponseWithBytes() (RadioResponse, []byte, bool) {
	cmd, raw, ok := c.nextCommand()
	if !ok {
		return RadioResponse{}, nil, false
	}
	return civCommandToResponse(cmd), raw, true
}

func (c *CivCodec) NextRequestWithBytes() (RadioRequest, []byte, bool) {
	cmd, raw, ok := c.nextCommand()
	if !ok {
		return RadioRequest{}, nil, false
	}
	return civCommandToRequest(cmd), raw, true
}

func civCommandToResponse(cmd CivCommand) RadioResponse {
	switch cmd.Command {
	case civCmdReadFreq, civCmdFreqBroadcast:
		if len(cmd.Data) != 5 {
			return RespUnknownOf(cmd.Raw)
		}
		hz, ok := bcdToFrequency(cmd.Data)
		if !ok {
			return RespUnknownOf(cmd.Raw)
		}
		return RespFreq(hz)
	case civCmdReadMode, civCmdModeBroadcast:
		if len(cmd.Data) < 1 {
			return RespUnknownOf(cmd.Raw)
		}
		m, known := civModeToNeutral[cmd.Data[0]]
		if !known {
			return RespUnknownOf(cmd.Raw)
		}
		return RespModeOf(m)
	case civCmdPtt:
		if cmd.SubCmd == nil || *cmd.SubCmd != 0x00 || len(cmd.Data) < 1 {
			return RespUnknownOf(cmd.Raw)
		}
		return RespPttOf(cmd.Data[0] == 0x01)
	case civCmdReadID:
		// 0x19's reply carries the radio's own CI-V address as a raw
		// byte, not a printable character; hex-format it the way the
		// prober reports CI-V addresses elsewhere.
		if len(cmd.Data) < 1 {
			return RespUnknownOf(cmd.Raw)
		}
		return RespIdOf(fmt.Sprintf("%02X", cmd.Data[0]))
	default:
		return RespUnknownOf(cmd.Raw)
	}
}

func civCommandToRequest(cmd CivCommand) RadioRequest {
	switch cmd.Command {
	case civCmdReadFreq:
		if len(cmd.Data) == 0 {
			return RadioRequest{Kind: ReqGetFrequency}
		}
		return RadioRequest{Kind: ReqUnknown, UnknownBytes: cmd.Raw}
	case civCmdSetFreq:
		hz, ok := bcdToFrequency(cmd.Data)
		if !ok {
			return RadioRequest{Kind: ReqUnknown, UnknownBytes: cmd.Raw}
		}
		return ReqSetFrequencyOf(hz)
	case civCmdReadMode:
		if len(cmd.Data) == 0 {
			return RadioRequest{Kind: ReqGetMode}
		}
		return RadioRequest{Kind: ReqUnknown, UnknownBytes: cmd.Raw}
	case civCmdSetMode:
		if len(cmd.Data) < 1 {
			return RadioRequest{Kind: ReqUnknown, UnknownBytes: cmd.Raw}
		}
		m, known := civModeToNeutral[cmd.Data[0]]
		if !known {
			return RadioRequest{Kind: ReqUnknown, UnknownBytes: cmd.Raw}
		}
		return RadioRequest{Kind: ReqSetMode, Mode: m}
	case civCmdPtt:
		if cmd.SubCmd == nil || *cmd.SubCmd != 0x00 {
			return RadioRequest{Kind: ReqUnknown, UnknownBytes: cmd.Raw}
		}
		if len(cmd.Data) == 0 {
			return RadioRequest{Kind: ReqGetPtt}
		}
		return RadioRequest{Kind: ReqSetPtt, Ptt: cmd.Data[0] == 0x01}
	case civCmdReadID:
		return RadioRequest{Kind: ReqGetId}
	case civCmdTransceive:
		if cmd.SubCmd != nil && *cmd.SubCmd == 0x05 {
			enabled := len(cmd.Data) > 0 && cmd.Data[0] == 0x01
			return ReqSetAutoInfoOf(enabled)
		}
		return RadioRequest{Kind: ReqUnknown, UnknownBytes: cmd.Raw}
	default:
		return RadioRequest{Kind: ReqUnknown, UnknownBytes: cmd.Raw}
	}
}

// CivCommandFromResponse builds a CI-V command for the neutral response,
// addressed from the controller to the given destination. The caller
// (translation engine) supplies the destination address since CI-V
// requires explicit routing on every frame.
func CivCommandFromResponse(resp RadioResponse, to uint8) (CivCommand, bool) {
	switch resp.Kind {
	case RespFrequency:
		return CivCommand{To: to, From: ControllerAddr, Command: civCmdFreqBroadcast,
			Data: frequencyToBcd(resp.FrequencyHz)}, true
	case RespMode:
		code, known := neutralToCivMode[resp.Mode]
		if !known {
			return CivCommand{}, false
		}
		return CivCommand{To: to, From: ControllerAddr, Command: civCmdModeBroadcast,
			Data: []byte{code}}, true
	case RespPtt:
		sub := uint8(0x00)
		data := byte(0x00)
		if resp.Ptt {
			data = 0x01
		}
		return CivCommand{To: to, From: ControllerAddr, Command: civCmdPtt,
			SubCmd: &sub, Data: []byte{data}}, true
	default:
		return CivCommand{}, false
	}
}
