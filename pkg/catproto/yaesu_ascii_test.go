package catproto

import "testing"

func TestYaesuAsciiCodecFrequencySharesKenwoodEncoding(t *testing.T) {
	c := NewYaesuAsciiCodec()
	c.PushBytes([]byte("FA00014250000;"))

	resp, raw, ok := c.NextResponseWithBytes()
	if !ok {
		t.Fatalf("expected a complete frame")
	}
	if resp.Kind != RespFrequency || resp.FrequencyHz != 14_250_000 {
		t.Errorf("got %+v", resp)
	}
	if string(raw) != "FA00014250000;" {
		t.Errorf("unexpected raw bytes: %q", raw)
	}
}

func TestYaesuAsciiCodecByteAtATime(t *testing.T) {
	c := NewYaesuAsciiCodec()
	frame := []byte("MD8;")
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
	if resp.Kind != RespMode || resp.Mode != ModeDigL {
		t.Errorf("got %+v", resp)
	}
}

func TestYaesuAsciiCodecConcatenatedFrames(t *testing.T) {
	c := NewYaesuAsciiCodec()
	c.PushBytes([]byte("MD3;MD2;ID0462;"))

	var kinds []ResponseKind
	for {
		resp, _, ok := c.NextResponseWithBytes()
		if !ok {
			break
		}
		kinds = append(kinds, resp.Kind)
	}
	if len(kinds) != 3 {
		t.Fatalf("expected 3 frames, got %d", len(kinds))
	}
	if kinds[0] != RespMode || kinds[1] != RespMode || kinds[2] != RespId {
		t.Errorf("got %v", kinds)
	}
}

func TestYaesuAsciiCodecUnknownModeDoesNotPanic(t *testing.T) {
	c := NewYaesuAsciiCodec()
	c.PushBytes([]byte("MDZ;FA00007000000;"))

	resp1, _, ok := c.NextResponseWithBytes()
	if !ok || resp1.Kind != RespUnknown {
		t.Errorf("expected unknown response, got %+v ok=%v", resp1, ok)
	}
	resp2, _, ok := c.NextResponseWithBytes()
	if !ok || resp2.Kind != RespFrequency || resp2.FrequencyHz != 7_000_000 {
		t.Errorf("parser did not recover after unknown frame: %+v", resp2)
	}
}

func TestYaesuAsciiCommandFromResponseModeSubstitution(t *testing.T) {
	cmd, ok := YaesuAsciiCommandFromResponse(RespModeOf(ModeDigU))
	if !ok {
		t.Fatalf("expected encodable response")
	}
	if string(cmd.Encode()) != "MDA;" {
		t.Errorf("expected Yaesu ASCII mode table substitution, got %q", cmd.Encode())
	}

	cmd, ok = YaesuAsciiCommandFromResponse(RespFreq(7_074_000))
	if !ok || string(cmd.Encode()) != "FA00007074000;" {
		t.Errorf("expected frequency to fall back to Kenwood encoding, got %q ok=%v", cmd.Encode(), ok)
	}
}

func TestIsValidYaesuAsciiIDResponse(t *testing.T) {
	cases := []struct {
		raw   string
		valid bool
	}{
		{"ID0462;", true},
		{"ID021;", false},  // 3 digits: Kenwood-shaped, not Yaesu ASCII
		{"ID909;", false},  // 3 digits: FlexRadio-shaped
		{"IDabcd;", false}, // not numeric
	}
	for _, tc := range cases {
		if got := IsValidYaesuAsciiIDResponse([]byte(tc.raw)); got != tc.valid {
			t.Errorf("IsValidYaesuAsciiIDResponse(%q) = %v, want %v", tc.raw, got, tc.valid)
		}
	}
}
