package catproto

import "testing"

func TestKenwoodCodecFrequencyRoundTrip(t *testing.T) {
	c := NewKenwoodCodec()
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

	wire, ok := KenwoodCommandFromResponse(resp)
	if !ok {
		t.Fatalf("expected encodable response")
	}
	if string(wire.Encode()) != "FA00014250000;" {
		t.Errorf("round trip mismatch: %q", wire.Encode())
	}
}

func TestKenwoodCodecByteAtATime(t *testing.T) {
	c := NewKenwoodCodec()
	frame := []byte("MD3;")
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

func TestKenwoodCodecConcatenatedFrames(t *testing.T) {
	c := NewKenwoodCodec()
	c.PushBytes([]byte("TX;RX;MD2;"))

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
	if kinds[0] != RespPtt || kinds[1] != RespPtt || kinds[2] != RespMode {
		t.Errorf("got %v", kinds)
	}
}

func TestKenwoodCodecUnknownPrefixDoesNotPanic(t *testing.T) {
	c := NewKenwoodCodec()
	c.PushBytes([]byte("ZZ99;FA00007000000;"))

	resp1, _, ok := c.NextResponseWithBytes()
	if !ok || resp1.Kind != RespUnknown {
		t.Errorf("expected unknown response, got %+v ok=%v", resp1, ok)
	}
	resp2, _, ok := c.NextResponseWithBytes()
	if !ok || resp2.Kind != RespFrequency || resp2.FrequencyHz != 7_000_000 {
		t.Errorf("parser did not recover after unknown frame: %+v", resp2)
	}
}

func TestKenwoodAutoInfoRequest(t *testing.T) {
	c := NewKenwoodCodec()
	c.PushBytes([]byte("AI2;"))
	req, _, ok := c.NextRequestWithBytes()
	if !ok {
		t.Fatalf("expected a complete frame")
	}
	if req.Kind != ReqSetAutoInfo || !req.AutoInfo {
		t.Errorf("got %+v", req)
	}
}

func TestKenwoodIFStatusFrame(t *testing.T) {
	c := NewKenwoodCodec()
	// 11-digit freq, 5 step, 5 rit offset, rit on, xit on, 2-digit memory
	// channel, 2 unused bytes, tx/rx flag at offset 27, mode digit at
	// offset 28, vfo, scan, split, tone.
	c.PushBytes([]byte("IF000142500000000000000000000130000;"))
	resp, _, ok := c.NextResponseWithBytes()
	if !ok {
		t.Fatalf("expected a complete frame")
	}
	if resp.Kind != RespStatus {
		t.Fatalf("expected status response, got %+v", resp)
	}
	if resp.Status.FrequencyHz == nil || *resp.Status.FrequencyHz != 14_250_000 {
		t.Errorf("unexpected frequency in status: %+v", resp.Status)
	}
	if resp.Status.Ptt == nil || !*resp.Status.Ptt {
		t.Errorf("expected PTT on, got %+v", resp.Status.Ptt)
	}
	if resp.Status.Mode == nil || *resp.Status.Mode != ModeCW {
		t.Errorf("expected CW mode, got %+v", resp.Status.Mode)
	}
}

func TestKenwoodIFStatusFrameTooShort(t *testing.T) {
	c := NewKenwoodCodec()
	c.PushBytes([]byte("IF00014250000;"))
	resp, _, ok := c.NextResponseWithBytes()
	if !ok || resp.Kind != RespUnknown {
		t.Errorf("expected a too-short IF frame to report unknown, got %+v ok=%v", resp, ok)
	}
}
