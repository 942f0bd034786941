package catproto

import "testing"

func TestBcdBigEndianRoundTrip(t *testing.T) {
	cases := []uint64{0, 10, 14_250_000, 450_000_000, 99_999_990}
	for _, hz := range cases {
		enc := frequencyToBcdBE(hz)
		dec, ok := bcdToFrequencyBE(enc)
		if !ok {
			t.Fatalf("frequency %d: expected valid BCD", hz)
		}
		if dec != hz {
			t.Errorf("frequency %d round-tripped to %d", hz, dec)
		}
	}
}

func TestBcdBigEndianTruncatesSubTenHz(t *testing.T) {
	enc := frequencyToBcdBE(14_250_007)
	dec, ok := bcdToFrequencyBE(enc)
	if !ok {
		t.Fatalf("expected valid BCD")
	}
	if dec != 14_250_000 {
		t.Errorf("expected truncation to nearest 10Hz, got %d", dec)
	}
}

func TestYaesuCodecSetFrequencyRequest(t *testing.T) {
	c := NewYaesuCodec()
	b := frequencyToBcdBE(14_250_000)
	c.PushBytes([]byte{b[0], b[1], b[2], b[3], byte(yaesuCmdSetFreq)})

	req, raw, ok := c.NextRequestWithBytes()
	if !ok {
		t.Fatalf("expected a complete frame")
	}
	if req.Kind != ReqSetFrequency || req.FrequencyHz != 14_250_000 {
		t.Errorf("got %+v", req)
	}
	if len(raw) != yaesuFrameLen {
		t.Errorf("expected %d raw bytes, got %d", yaesuFrameLen, len(raw))
	}
}

func TestYaesuCodecReadStatusUsesExpectedLen(t *testing.T) {
	c := NewYaesuCodec()
	c.SetExpectedResponseLen(1)
	c.PushBytes([]byte{0x00}) // PTT active (bit7 clear)

	resp, _, ok := c.NextResponseWithBytes()
	if !ok {
		t.Fatalf("expected a complete 1-byte frame")
	}
	if resp.Kind != RespPtt || !resp.Ptt {
		t.Errorf("got %+v", resp)
	}

	// expectedLen resets to the full frame size after one read.
	c.PushBytes([]byte{0x00, 0x00, 0x00, 0x00, 0x02})
	_, raw, ok := c.NextResponseWithBytes()
	if !ok || len(raw) != yaesuFrameLen {
		t.Errorf("expected codec to revert to full frame length, got raw=%v ok=%v", raw, ok)
	}
}

func TestYaesuCodecFreqModeResponseDecodesModeByte(t *testing.T) {
	// Byte 4 of a 5-byte response is always the mode, never an opcode.
	// Exercise a mode whose byte value does not coincide with any yaesu
	// command opcode, so a regression that mistakes it for one would fail.
	c := NewYaesuCodec()
	b := frequencyToBcdBE(7_074_000)
	c.PushBytes([]byte{b[0], b[1], b[2], b[3], 0x0A}) // 0x0A = DIG-L

	resp, _, ok := c.NextResponseWithBytes()
	if !ok {
		t.Fatalf("expected a complete frame")
	}
	if resp.Kind != RespStatus {
		t.Fatalf("expected a status response, got %+v", resp)
	}
	if resp.Status.FrequencyHz == nil || *resp.Status.FrequencyHz != 7_074_000 {
		t.Errorf("unexpected frequency in status: %+v", resp.Status)
	}
	if resp.Status.Mode == nil || *resp.Status.Mode != ModeDigL {
		t.Errorf("expected DIG-L mode, got %+v", resp.Status.Mode)
	}
}

func TestYaesuCodecFreqModeResponseEveryModeByte(t *testing.T) {
	for modeByte, want := range yaesuModeToNeutral {
		c := NewYaesuCodec()
		b := frequencyToBcdBE(14_250_000)
		c.PushBytes([]byte{b[0], b[1], b[2], b[3], modeByte})

		resp, _, ok := c.NextResponseWithBytes()
		if !ok || resp.Kind != RespStatus {
			t.Fatalf("mode byte %#02x: expected status response, got %+v ok=%v", modeByte, resp, ok)
		}
		if resp.Status.Mode == nil || *resp.Status.Mode != want {
			t.Errorf("mode byte %#02x: expected %v, got %+v", modeByte, want, resp.Status.Mode)
		}
		if resp.Status.FrequencyHz == nil || *resp.Status.FrequencyHz != 14_250_000 {
			t.Errorf("mode byte %#02x: unexpected frequency %+v", modeByte, resp.Status.FrequencyHz)
		}
	}
}

func TestYaesuCommandFromResponseRoundTrip(t *testing.T) {
	cmd, ok := YaesuCommandFromResponse(RespFreq(7_074_000))
	if !ok {
		t.Fatalf("expected encodable response")
	}
	hz, ok := bcdToFrequencyBE([]byte{cmd.P1, cmd.P2, cmd.P3, cmd.P4})
	if !ok || hz != 7_074_000 {
		t.Errorf("got hz=%d ok=%v", hz, ok)
	}
	if cmd.Opcode != byte(yaesuCmdSetFreq) {
		t.Errorf("unexpected opcode %02X", cmd.Opcode)
	}
}

func TestYaesuAsciiModeCode(t *testing.T) {
	c := NewYaesuAsciiCodec()
	c.PushBytes([]byte("MD8;"))
	resp, _, ok := c.NextResponseWithBytes()
	if !ok || resp.Kind != RespMode || resp.Mode != ModeDigL {
		t.Errorf("got %+v ok=%v", resp, ok)
	}
}

func TestFlexIDValidation(t *testing.T) {
	if !IsValidFlexIDResponse([]byte("ID909;")) {
		t.Errorf("expected ID909; to validate as FlexRadio")
	}
	if IsValidFlexIDResponse([]byte("ID023;")) {
		t.Errorf("expected ID023; to be rejected (outside 900-913 range)")
	}
}

func TestElecraftResponseDetection(t *testing.T) {
	id, ok := IsElecraftResponse([]byte("K3;"))
	if !ok || id != "K3" {
		t.Errorf("got id=%q ok=%v", id, ok)
	}
	_, ok = IsElecraftResponse([]byte("ID021;"))
	if ok {
		t.Errorf("expected non-K2/K3 frame to be rejected")
	}
}
