package catproto

import (
	"strings"
)

// ElecraftCodec layers Elecraft-specific extensions (K2;, K3;) on top of
// the Kenwood ASCII base: it tries its own prefixes first and falls
// through to Kenwood parsing for everything else, per spec's "Polymorphic
// codecs" design note.
type ElecraftCodec struct {
	kenwood *KenwoodCodec
}

func NewElecraftCodec() *ElecraftCodec {
	return &ElecraftCodec{kenwood: NewKenwoodCodec()}
}

func (c *ElecraftCodec) PushBytes(data []byte) { c.kenwood.PushBytes(data) }
func (c *ElecraftCodec) Clear()                { c.kenwood.Clear() }

func (c *ElecraftCodec) nextCommand() (KenwoodCommand, []byte, bool) {
	return c.kenwood.nextCommand()
}

func (c *ElecraftCodec) NextResponseWithBytes() (RadioResponse, []byte, bool) {
	cmd, raw, ok := c.nextCommand()
	if !ok {
		return RadioResponse{}, nil, false
	}
	if resp, handled := elecraftExtensionResponse(cmd); handled {
		return resp, raw, true
	}
	return kenwoodCommandToResponse(cmd), raw, true
}

func (c *ElecraftCodec) NextRequestWithBytes() (RadioRequest, []byte, bool) {
	cmd, raw, ok := c.nextCommand()
	if !ok {
		return RadioRequest{}, nil, false
	}
	if req, handled := elecraftExtensionRequest(cmd); handled {
		return req, raw, true
	}
	return kenwoodCommandToRequest(cmd), raw, true
}

// elecraftExtensionResponse handles K2;/K3; extended-mode acknowledgements,
// which carry no Kenwood-core equivalent.
func elecraftExtensionResponse(cmd KenwoodCommand) (RadioResponse, bool) {
	switch cmd.Prefix {
	case "K2", "K3":
		// The extended-mode flag has no neutral field; surface it as an
		// identifying response so the prober can still recognize the radio.
		return RespIdOf(cmd.Prefix + cmd.Args), true
	default:
		return RadioResponse{}, false
	}
}

func elecraftExtensionRequest(cmd KenwoodCommand) (RadioRequest, bool) {
	switch cmd.Prefix {
	case "K2", "K3":
		return RadioRequest{Kind: ReqGetId}, true
	default:
		return RadioRequest{}, false
	}
}

// IsElecraftResponse reports whether data looks like a K3;-family response
// and, if so, returns a synthesized model identifier for catalog lookup.
func IsElecraftResponse(data []byte) (string, bool) {
	s := strings.TrimSpace(string(data))
	if strings.HasPrefix(s, "K3") || strings.HasPrefix(s, "K2") {
		return strings.TrimSuffix(s, ";"), true
	}
	return "", false
}

// ElecraftCommandFromResponse builds the Elecraft wire command for a
// neutral response. Elecraft shares the Kenwood encoding for every field
// this system forwards to an amplifier.
func ElecraftCommandFromResponse(resp RadioResponse) (KenwoodCommand, bool) {
	return KenwoodCommandFromResponse(resp)
}
