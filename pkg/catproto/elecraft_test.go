package catproto

import "testing"

func TestElecraftCodecFallsThroughToKenwood(t *testing.T) {
	c := NewElecraftCodec()
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

func TestElecraftCodecByteAtATime(t *testing.T) {
	c := NewElecraftCodec()
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

func TestElecraftCodecConcatenatedFrames(t *testing.T) {
	c := NewElecraftCodec()
	c.PushBytes([]byte("K3;FA00007000000;"))

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
	if kinds[0] != RespId || kinds[1] != RespFrequency {
		t.Errorf("got %v", kinds)
	}
}

func TestElecraftK3ExtensionRequest(t *testing.T) {
	c := NewElecraftCodec()
	c.PushBytes([]byte("K3;"))
	req, _, ok := c.NextRequestWithBytes()
	if !ok {
		t.Fatalf("expected a complete frame")
	}
	if req.Kind != ReqGetId {
		t.Errorf("got %+v", req)
	}
}

func TestElecraftCodecCorruptedByteRecovers(t *testing.T) {
	c := NewElecraftCodec()
	c.PushBytes([]byte{0xFF, ';'})
	c.PushBytes([]byte("FA00007000000;"))

	resp1, _, ok := c.NextResponseWithBytes()
	if !ok || resp1.Kind != RespUnknown {
		t.Errorf("expected the corrupted frame to surface as unknown, got %+v ok=%v", resp1, ok)
	}
	resp2, _, ok := c.NextResponseWithBytes()
	if !ok || resp2.Kind != RespFrequency || resp2.FrequencyHz != 7_000_000 {
		t.Errorf("parser did not recover after a corrupted frame: %+v ok=%v", resp2, ok)
	}
}

func TestElecraftCommandFromResponseRoundTrip(t *testing.T) {
	cmd, ok := ElecraftCommandFromResponse(RespFreq(21_074_000))
	if !ok {
		t.Fatalf("expected encodable response")
	}
	if string(cmd.Encode()) != "FA00021074000;" {
		t.Errorf("round trip mismatch: %q", cmd.Encode())
	}
}

func TestElecraftResponseDetectionK2(t *testing.T) {
	id, ok := IsElecraftResponse([]byte("K2;"))
	if !ok || id != "K2" {
		t.Errorf("got id=%q ok=%v", id, ok)
	}
}
