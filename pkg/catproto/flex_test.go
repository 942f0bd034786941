package catproto

import "testing"

func TestFlexCodecZZFrequency(t *testing.T) {
	c := NewFlexCodec()
	c.PushBytes([]byte("ZZFA00014250000;"))

	resp, raw, ok := c.NextResponseWithBytes()
	if !ok {
		t.Fatalf("expected a complete frame")
	}
	if resp.Kind != RespFrequency || resp.FrequencyHz != 14_250_000 {
		t.Errorf("got %+v", resp)
	}
	if string(raw) != "ZZFA00014250000;" {
		t.Errorf("unexpected raw bytes: %q", raw)
	}
}

func TestFlexCodecByteAtATime(t *testing.T) {
	c := NewFlexCodec()
	frame := []byte("ZZMD03;")
	for i, b := range frame {
		c.PushBytes([]byte{b})
		if i < len(frame)-1 {
			if _, _, ok := c.NextResponseWithBytes(); ok {
				t.Fatalf("codec reported complete frame too early at byte %d", i)
			}
		}
	}
	resp, _, ok := c.NextResponseWithBytes()
	if !ok {
		t.Fatalf("expected complete frame after final byte")
	}
	if resp.Kind != RespMode || resp.Mode != ModeCW {
		t.Errorf("got %+v", resp)
	}
}

func TestFlexCodecConcatenatedFrames(t *testing.T) {
	c := NewFlexCodec()
	c.PushBytes([]byte("ZZTX1;ZZFA00007000000;"))

	var kinds []ResponseKind
	for {
		resp, _, ok := c.NextResponseWithBytes()
		if !ok {
			break
		}
		kinds = append(kinds, resp.Kind)
	}
	if len(kinds) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(kinds))
	}
	if kinds[0] != RespPtt || kinds[1] != RespFrequency {
		t.Errorf("got %v", kinds)
	}
}

func TestFlexCodecFallsThroughToKenwoodForUnprefixedFrames(t *testing.T) {
	c := NewFlexCodec()
	c.PushBytes([]byte("FA00021074000;"))
	resp, _, ok := c.NextResponseWithBytes()
	if !ok || resp.Kind != RespFrequency || resp.FrequencyHz != 21_074_000 {
		t.Errorf("got %+v ok=%v", resp, ok)
	}
}

func TestFlexCodecUnknownOpcodeDoesNotPanic(t *testing.T) {
	c := NewFlexCodec()
	c.PushBytes([]byte("ZZXX99;ZZFA00007000000;"))

	resp1, _, ok := c.NextResponseWithBytes()
	if !ok || resp1.Kind != RespUnknown {
		t.Errorf("expected unknown response, got %+v ok=%v", resp1, ok)
	}
	resp2, _, ok := c.NextResponseWithBytes()
	if !ok || resp2.Kind != RespFrequency || resp2.FrequencyHz != 7_000_000 {
		t.Errorf("parser did not recover after unknown frame: %+v", resp2)
	}
}

func TestFlexCommandFromResponseRoundTrip(t *testing.T) {
	cmd, ok := FlexCommandFromResponse(RespFreq(7_074_000))
	if !ok {
		t.Fatalf("expected encodable response")
	}
	if string(cmd.Encode()) != "ZZFA00007074000;" {
		t.Errorf("round trip mismatch: %q", cmd.Encode())
	}

	cmd, ok = FlexCommandFromResponse(RespModeOf(ModeDigU))
	if !ok || string(cmd.Encode()) != "ZZMD05;" {
		t.Errorf("mode round trip mismatch: %q ok=%v", cmd.Encode(), ok)
	}
}

func TestFlexIDValidationRange(t *testing.T) {
	cases := []struct {
		raw   string
		valid bool
	}{
		{"ID900;", true},
		{"ID913;", true},
		{"ID899;", false},
		{"ID914;", false},
		{"ID021;", false},
	}
	for _, tc := range cases {
		if got := IsValidFlexIDResponse([]byte(tc.raw)); got != tc.valid {
			t.Errorf("IsValidFlexIDResponse(%q) = %v, want %v", tc.raw, got, tc.valid)
		}
	}
}
