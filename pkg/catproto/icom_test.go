package catproto

import "testing"

func TestBcdToFrequencyCanonical(t *testing.T) {
	hz, ok := bcdToFrequency([]byte{0x00, 0x00, 0x25, 0x14, 0x00})
	if !ok {
		t.Fatalf("expected valid BCD")
	}
	if hz != 14_250_000 {
		t.Errorf("got %d", hz)
	}
}

func TestFrequencyToBcdCanonical(t *testing.T) {
	got := frequencyToBcd(14_250_000)
	want := []byte{0x00, 0x00, 0x25, 0x14, 0x00}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("byte %d: got %02X want %02X", i, got[i], want[i])
		}
	}
}

func TestBcdRoundTripAllDigitCounts(t *testing.T) {
	cases := []uint64{0, 1, 9, 10, 999, 1_000_000, 9_999_999_999}
	for _, hz := range cases {
		enc := frequencyToBcd(hz)
		dec, ok := bcdToFrequency(enc)
		if !ok {
			t.Fatalf("frequency %d: expected valid BCD", hz)
		}
		if dec != hz {
			t.Errorf("frequency %d round-tripped to %d", hz, dec)
		}
	}
}

func TestBcdToFrequencyRejectsInvalidNibble(t *testing.T) {
	_, ok := bcdToFrequency([]byte{0xFF, 0x00, 0x00, 0x00, 0x00})
	if ok {
		t.Errorf("expected invalid BCD to be rejected")
	}
}

func TestCivCodecFrameRoundTrip(t *testing.T) {
	c := NewCivCodec()
	cmd := NewCivCommand(0x94, ControllerAddr, civCmdFreqBroadcast)
	cmd.Data = frequencyToBcd(14_250_000)
	c.PushBytes(cmd.Encode())

	resp, raw, ok := c.NextResponseWithBytes()
	if !ok {
		t.Fatalf("expected a complete frame")
	}
	if resp.Kind != RespFrequency || resp.FrequencyHz != 14_250_000 {
		t.Errorf("got %+v", resp)
	}
	if !IsValidCivFrame(raw) {
		t.Errorf("expected valid frame bytes: % X", raw)
	}
}

func TestCivCodecByteAtATime(t *testing.T) {
	c := NewCivCodec()
	cmd := NewCivCommand(0x94, ControllerAddr, civCmdReadID)
	cmd.Data = []byte{0x94}
	frame := cmd.Encode()

	for i, b := range frame {
		c.PushBytes([]byte{b})
		if i < len(frame)-1 {
			if _, _, ok := c.NextResponseWithBytes(); ok {
				t.Fatalf("reported complete frame too early at byte %d", i)
			}
		}
	}
	resp, _, ok := c.NextResponseWithBytes()
	if !ok || resp.Kind != RespId {
		t.Errorf("expected ID response, got %+v ok=%v", resp, ok)
	}
	if resp.Id != "94" {
		t.Errorf("expected CI-V address hex-formatted as %q, got %q", "94", resp.Id)
	}
}

func TestCivCodecSkipsGarbageBeforePreamble(t *testing.T) {
	c := NewCivCodec()
	cmd := NewCivCommand(0x94, ControllerAddr, civCmdFreqBroadcast)
	cmd.Data = frequencyToBcd(7_000_000)
	garbage := []byte{0x01, 0x02, 0x03}
	c.PushBytes(append(garbage, cmd.Encode()...))

	resp, _, ok := c.NextResponseWithBytes()
	if !ok {
		t.Fatalf("expected to recover a frame after garbage")
	}
	if resp.Kind != RespFrequency || resp.FrequencyHz != 7_000_000 {
		t.Errorf("got %+v", resp)
	}
}

func TestExtractSourceAddress(t *testing.T) {
	cmd := NewCivCommand(0x94, ControllerAddr, civCmdReadFreq)
	addr, ok := ExtractSourceAddress(cmd.Encode())
	if !ok || addr != ControllerAddr {
		t.Errorf("got addr=%02X ok=%v", addr, ok)
	}
}

func TestCivCommandFromResponsePtt(t *testing.T) {
	cmd, ok := CivCommandFromResponse(RespPttOf(true), 0x94)
	if !ok {
		t.Fatalf("expected encodable response")
	}
	if cmd.SubCmd == nil || *cmd.SubCmd != 0x00 || len(cmd.Data) != 1 || cmd.Data[0] != 0x01 {
		t.Errorf("got %+v", cmd)
	}
}
