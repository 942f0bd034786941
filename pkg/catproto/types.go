// Package catproto implements the five CAT wire protocols spoken by amateur
// radio transceivers and amplifiers, mapped to a protocol-neutral command
// vocabulary.
package catproto

import "fmt"

// Protocol identifies a wire format.
type Protocol int

const (
	Kenwood Protocol = iota
	Elecraft
	IcomCIV
	Yaesu
	YaesuAscii
	FlexRadio
)

func (p Protocol) String() string {
	switch p {
	case Kenwood:
		return "Kenwood"
	case Elecraft:
		return "Elecraft"
	case IcomCIV:
		return "IcomCIV"
	case Yaesu:
		return "Yaesu"
	case YaesuAscii:
		return "YaesuAscii"
	case FlexRadio:
		return "FlexRadio"
	default:
		return fmt.Sprintf("Protocol(%d)", int(p))
	}
}

// OperatingMode is the protocol-neutral operating mode tag set. Mapping
// between a protocol's wire codes and this set is many-to-many; lossy
// collapses are documented per-codec, never inferred heuristically.
type OperatingMode int

const (
	ModeLSB OperatingMode = iota
	ModeUSB
	ModeCW
	ModeCWReverse
	ModeAM
	ModeFM
	ModeFMNarrow
	ModeDigL // DIG/DATA/PKT on the lower sideband
	ModeDigU // DIG/DATA/PKT on the upper sideband
	ModeRTTY
	ModeRTTYReverse
)

func (m OperatingMode) String() string {
	switch m {
	case ModeLSB:
		return "LSB"
	case ModeUSB:
		return "USB"
	case ModeCW:
		return "CW"
	case ModeCWReverse:
		return "CW-R"
	case ModeAM:
		return "AM"
	case ModeFM:
		return "FM"
	case ModeFMNarrow:
		return "FM-N"
	case ModeDigL:
		return "DIG-L"
	case ModeDigU:
		return "DIG-U"
	case ModeRTTY:
		return "RTTY"
	case ModeRTTYReverse:
		return "RTTY-R"
	default:
		return fmt.Sprintf("OperatingMode(%d)", int(m))
	}
}

// Vfo identifies which variable-frequency oscillator a radio is reporting
// or is being asked to select.
type Vfo int

const (
	VfoA Vfo = iota
	VfoB
	VfoSplit
	VfoMemory
)

func (v Vfo) String() string {
	switch v {
	case VfoA:
		return "A"
	case VfoB:
		return "B"
	case VfoSplit:
		return "Split"
	case VfoMemory:
		return "Memory"
	default:
		return fmt.Sprintf("Vfo(%d)", int(v))
	}
}

// RadioHandle is an opaque, monotonically assigned identifier for a
// registered radio. Stable for the life of the registration; never reused
// while any task still holds the old value.
type RadioHandle uint32

// RadioChannelMeta describes a radio endpoint as registered with the mux.
type RadioChannelMeta struct {
	DisplayName string
	PortName    string // empty for a virtual radio
	Protocol    Protocol
	CivAddress  *uint8
	Virtual     bool
}

// AmplifierChannelMeta describes the amplifier endpoint.
type AmplifierChannelMeta struct {
	Protocol   Protocol
	Virtual    bool
	BaudRate   uint32
	CivAddress *uint8
}

// StatusFields is the payload of a composite Status request/response, used
// by protocols whose wire "ID"-style response bundles several fields at
// once (Kenwood IF;, Yaesu status block).
type StatusFields struct {
	FrequencyHz *uint64
	Mode        *OperatingMode
	Ptt         *bool
	Vfo         *Vfo
}

// RequestKind tags the variant carried by a RadioRequest.
type RequestKind int

const (
	ReqGetFrequency RequestKind = iota
	ReqSetFrequency
	ReqGetMode
	ReqSetMode
	ReqGetPtt
	ReqSetPtt
	ReqGetVfo
	ReqSetVfo
	ReqGetAutoInfo
	ReqSetAutoInfo
	ReqGetId
	ReqGetControlBand
	ReqGetTransmitBand
	ReqGetStatus
	ReqGetPower
	ReqSetPower
	ReqUnknown
)

// RadioRequest is the protocol-neutral request sum type: something sent TO
// a radio (or, from the amplifier's side, sent to the controller).
type RadioRequest struct {
	Kind         RequestKind
	FrequencyHz  uint64
	Mode         OperatingMode
	Ptt          bool
	Vfo          Vfo
	AutoInfo     bool
	Power        bool
	UnknownBytes []byte
}

// IsQuery reports whether this request is a Get* query (expects a reply)
// as opposed to a Set* action.
func (r RadioRequest) IsQuery() bool {
	switch r.Kind {
	case ReqGetFrequency, ReqGetMode, ReqGetPtt, ReqGetVfo, ReqGetAutoInfo,
		ReqGetId, ReqGetControlBand, ReqGetTransmitBand, ReqGetStatus:
		return true
	default:
		return false
	}
}

// ResponseKind tags the variant carried by a RadioResponse.
type ResponseKind int

const (
	RespFrequency ResponseKind = iota
	RespMode
	RespPtt
	RespVfo
	RespAutoInfo
	RespId
	RespControlBand
	RespTransmitBand
	RespStatus
	RespPower
	RespUnknown
)

// RadioResponse is the protocol-neutral response sum type: something
// reported BY a radio (or, on the amplifier side, an answer the
// controller gives back).
type RadioResponse struct {
	Kind         ResponseKind
	FrequencyHz  uint64
	Mode         OperatingMode
	Ptt          bool
	Vfo          Vfo
	AutoInfo     bool
	Id           string
	Band         uint8 // 0 = main/A, 1 = sub/B
	Status       StatusFields
	Power        bool
	UnknownBytes []byte
}

func RespFreq(hz uint64) RadioResponse { return RadioResponse{Kind: RespFrequency, FrequencyHz: hz} }
func RespModeOf(m OperatingMode) RadioResponse { return RadioResponse{Kind: RespMode, Mode: m} }
func RespPttOf(active bool) RadioResponse      { return RadioResponse{Kind: RespPtt, Ptt: active} }
func RespVfoOf(v Vfo) RadioResponse            { return RadioResponse{Kind: RespVfo, Vfo: v} }
func RespIdOf(id string) RadioResponse         { return RadioResponse{Kind: RespId, Id: id} }
func RespControlBandOf(band uint8) RadioResponse {
	return RadioResponse{Kind: RespControlBand, Band: band}
}
func RespTransmitBandOf(band uint8) RadioResponse {
	return RadioResponse{Kind: RespTransmitBand, Band: band}
}
func RespAutoInfoOf(enabled bool) RadioResponse {
	return RadioResponse{Kind: RespAutoInfo, AutoInfo: enabled}
}
func RespUnknownOf(raw []byte) RadioResponse {
	return RadioResponse{Kind: RespUnknown, UnknownBytes: raw}
}

func ReqGetFrequencyReq() RadioRequest { return RadioRequest{Kind: ReqGetFrequency} }
func ReqSetFrequencyOf(hz uint64) RadioRequest {
	return RadioRequest{Kind: ReqSetFrequency, FrequencyHz: hz}
}
func ReqGetModeReq() RadioRequest       { return RadioRequest{Kind: ReqGetMode} }
func ReqGetPttReq() RadioRequest        { return RadioRequest{Kind: ReqGetPtt} }
func ReqGetIdReq() RadioRequest         { return RadioRequest{Kind: ReqGetId} }
func ReqGetControlBandReq() RadioRequest { return RadioRequest{Kind: ReqGetControlBand} }
func ReqGetTransmitBandReq() RadioRequest { return RadioRequest{Kind: ReqGetTransmitBand} }
func ReqGetAutoInfoReq() RadioRequest    { return RadioRequest{Kind: ReqGetAutoInfo} }
func ReqSetAutoInfoOf(enabled bool) RadioRequest {
	return RadioRequest{Kind: ReqSetAutoInfo, AutoInfo: enabled}
}

// Codec is the shared contract every protocol implementation exposes.
// It is a streaming parser: bytes are appended with PushBytes and complete
// frames are extracted one at a time with NextCommand-style calls.
type Codec interface {
	// PushBytes appends raw bytes to the internal buffer.
	PushBytes(data []byte)
	// NextResponseWithBytes extracts the next complete frame, interpreted
	// as a response FROM a radio, along with the exact bytes consumed.
	// Returns ok=false when no complete frame is buffered.
	NextResponseWithBytes() (resp RadioResponse, raw []byte, ok bool)
	// NextRequestWithBytes extracts the next complete frame, interpreted
	// as a request sent TO a radio (used for amplifier-originated traffic).
	NextRequestWithBytes() (req RadioRequest, raw []byte, ok bool)
	// Clear drops any partial buffer state.
	Clear()
}

// NewCodec returns a fresh streaming codec for the given protocol.
func NewCodec(p Protocol) Codec {
	switch p {
	case Kenwood:
		return NewKenwoodCodec()
	case Elecraft:
		return NewElecraftCodec()
	case IcomCIV:
		return NewCivCodec()
	case Yaesu:
		return NewYaesuCodec()
	case YaesuAscii:
		return NewYaesuAsciiCodec()
	case FlexRadio:
		return NewFlexCodec()
	default:
		return NewKenwoodCodec()
	}
}
