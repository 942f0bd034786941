package catproto

// RadioCapabilities describes what a specific radio model supports, used by
// the control API to advertise sane UI limits and by the prober to sanity
// check a detected model against the protocol it answered on.
type RadioCapabilities struct {
	Modes            []OperatingMode
	MinFrequencyHz   uint64
	MaxFrequencyHz   uint64
	FrequencyStepHz  uint64
	HasSplit         bool
	VfoCount         uint8
	HasTuner         bool
	MaxPowerWatts    uint16 // 0 means unknown/not applicable
}

// RadioModel is a catalog entry: manufacturer, model name, protocol, and
// capabilities. The protocol-specific identifier the prober matches
// against is the key of the lookup tables below, not a field of the model.
type RadioModel struct {
	Manufacturer string
	Model        string
	Protocol     Protocol
	Capabilities RadioCapabilities
}

var (
	modesFullHF = []OperatingMode{ModeLSB, ModeUSB, ModeCW, ModeCWReverse, ModeAM, ModeFM,
		ModeRTTY, ModeRTTYReverse, ModeDigU, ModeDigL}
	modesStandard = []OperatingMode{ModeLSB, ModeUSB, ModeCW, ModeCWReverse, ModeAM, ModeFM,
		ModeDigU, ModeDigL}
	modesBasic = []OperatingMode{ModeLSB, ModeUSB, ModeCW, ModeAM, ModeFM}
	modesNoFM  = []OperatingMode{ModeLSB, ModeUSB, ModeCW, ModeCWReverse, ModeDigU, ModeDigL}
	modesFlexSDR = []OperatingMode{ModeLSB, ModeUSB, ModeCW, ModeCWReverse, ModeAM, ModeFM,
		ModeFMNarrow, ModeDigU, ModeDigL, ModeRTTY}
)

type icomEntry struct {
	addr  uint8
	model RadioModel
}

var icomRadios = []icomEntry{
	{0x94, RadioModel{"Icom", "IC-7300", IcomCIV, RadioCapabilities{
		modesFullHF, 30_000, 74_800_000, 1, true, 2, true, 100}}},
	{0xA4, RadioModel{"Icom", "IC-705", IcomCIV, RadioCapabilities{
		modesStandard, 30_000, 450_000_000, 1, true, 2, true, 10}}},
	{0x98, RadioModel{"Icom", "IC-7610", IcomCIV, RadioCapabilities{
		modesFullHF, 30_000, 60_000_000, 1, true, 2, true, 100}}},
	{0x70, RadioModel{"Icom", "IC-7000", IcomCIV, RadioCapabilities{
		modesBasic, 30_000, 450_000_000, 1, true, 2, false, 100}}},
	{0x76, RadioModel{"Icom", "IC-7600", IcomCIV, RadioCapabilities{
		modesFullHF, 30_000, 60_000_000, 1, true, 2, true, 100}}},
	{0x88, RadioModel{"Icom", "IC-9700", IcomCIV, RadioCapabilities{
		modesStandard, 144_000_000, 1_296_000_000, 1, true, 2, false, 100}}},
	{0x7C, RadioModel{"Icom", "IC-7100", IcomCIV, RadioCapabilities{
		modesBasic, 30_000, 450_000_000, 1, true, 2, false, 100}}},
}

type kenwoodEntry struct {
	id    string
	model RadioModel
}

var kenwoodRadios = []kenwoodEntry{
	{"021", RadioModel{"Kenwood", "TS-990S", Kenwood, RadioCapabilities{
		modesStandard, 30_000, 60_000_000, 1, true, 2, true, 200}}},
	{"023", RadioModel{"Kenwood", "TS-590SG", Kenwood, RadioCapabilities{
		modesStandard, 30_000, 60_000_000, 1, true, 2, true, 100}}},
	{"019", RadioModel{"Kenwood", "TS-2000", Kenwood, RadioCapabilities{
		modesBasic, 30_000, 1_300_000_000, 1, true, 2, true, 100}}},
	{"022", RadioModel{"Kenwood", "TS-480", Kenwood, RadioCapabilities{
		modesBasic, 30_000, 60_000_000, 1, true, 2, true, 100}}},
}

type elecraftEntry struct {
	id    string
	model RadioModel
}

var elecraftRadios = []elecraftEntry{
	{"K3", RadioModel{"Elecraft", "K3", Elecraft, RadioCapabilities{
		modesStandard, 500_000, 54_000_000, 1, true, 2, true, 100}}},
	{"K3S", RadioModel{"Elecraft", "K3S", Elecraft, RadioCapabilities{
		modesStandard, 500_000, 54_000_000, 1, true, 2, true, 100}}},
	{"KX3", RadioModel{"Elecraft", "KX3", Elecraft, RadioCapabilities{
		modesStandard, 500_000, 54_000_000, 10, true, 2, true, 15}}},
	{"KX2", RadioModel{"Elecraft", "KX2", Elecraft, RadioCapabilities{
		modesNoFM, 500_000, 54_000_000, 10, true, 2, true, 12}}},
}

type flexEntry struct {
	id    string
	model RadioModel
}

var flexRadios = []flexEntry{
	{"904", RadioModel{"FlexRadio", "FLEX-6700", FlexRadio, RadioCapabilities{
		modesFlexSDR, 30_000, 77_000_000, 1, true, 8, true, 100}}},
	{"905", RadioModel{"FlexRadio", "FLEX-6500", FlexRadio, RadioCapabilities{
		modesFlexSDR, 30_000, 77_000_000, 1, true, 4, true, 100}}},
	{"907", RadioModel{"FlexRadio", "FLEX-6300", FlexRadio, RadioCapabilities{
		modesFlexSDR, 30_000, 77_000_000, 1, true, 2, false, 100}}},
	{"908", RadioModel{"FlexRadio", "FLEX-6400", FlexRadio, RadioCapabilities{
		modesFlexSDR, 30_000, 77_000_000, 1, true, 2, false, 100}}},
	{"909", RadioModel{"FlexRadio", "FLEX-6600", FlexRadio, RadioCapabilities{
		modesFlexSDR, 30_000, 77_000_000, 1, true, 4, false, 100}}},
	{"912", RadioModel{"FlexRadio", "FLEX-8400", FlexRadio, RadioCapabilities{
		modesFlexSDR, 30_000, 77_000_000, 1, true, 2, false, 100}}},
	{"913", RadioModel{"FlexRadio", "FLEX-8600", FlexRadio, RadioCapabilities{
		modesFlexSDR, 30_000, 77_000_000, 1, true, 4, false, 100}}},
}

// Yaesu binary radios are keyed by the model byte this system assigns at
// configuration time (the wire protocol carries no model-identifying byte),
// so this table doubles as the operator-facing picklist for "Yaesu binary".
type yaesuEntry struct {
	code  uint8
	model RadioModel
}

var yaesuRadios = []yaesuEntry{
	{0x01, RadioModel{"Yaesu", "FT-991A", Yaesu, RadioCapabilities{
		modesFullHF, 30_000, 450_000_000, 1, true, 2, true, 100}}},
	{0x02, RadioModel{"Yaesu", "FTDX101D", Yaesu, RadioCapabilities{
		modesFullHF, 30_000, 54_000_000, 1, true, 2, true, 200}}},
	{0x03, RadioModel{"Yaesu", "FT-710", Yaesu, RadioCapabilities{
		modesFullHF, 30_000, 54_000_000, 1, true, 2, true, 100}}},
	{0x04, RadioModel{"Yaesu", "FTDX10", Yaesu, RadioCapabilities{
		modesFullHF, 30_000, 54_000_000, 1, true, 2, true, 100}}},
}

var yaesuAsciiRadios = []kenwoodEntry{
	{"0670", RadioModel{"Yaesu", "FT-991A", YaesuAscii, RadioCapabilities{
		modesFullHF, 30_000, 450_000_000, 1, true, 2, true, 100}}},
	{"0681", RadioModel{"Yaesu", "FTDX101D", YaesuAscii, RadioCapabilities{
		modesFullHF, 30_000, 54_000_000, 1, true, 2, true, 200}}},
}

// LookupByCivAddress finds the catalog entry for an Icom CI-V address.
func LookupByCivAddress(addr uint8) (RadioModel, bool) {
	for _, e := range icomRadios {
		if e.addr == addr {
			return e.model, true
		}
	}
	return RadioModel{}, false
}

// LookupByKenwoodID finds the catalog entry for a Kenwood 3-digit ID code.
func LookupByKenwoodID(id string) (RadioModel, bool) {
	for _, e := range kenwoodRadios {
		if e.id == id {
			return e.model, true
		}
	}
	return RadioModel{}, false
}

// LookupByElecraftID finds the catalog entry for an Elecraft model string.
func LookupByElecraftID(id string) (RadioModel, bool) {
	for _, e := range elecraftRadios {
		if e.id == id {
			return e.model, true
		}
	}
	return RadioModel{}, false
}

// LookupByFlexID finds the catalog entry for a FlexRadio 3-digit ID code.
func LookupByFlexID(id string) (RadioModel, bool) {
	for _, e := range flexRadios {
		if e.id == id {
			return e.model, true
		}
	}
	return RadioModel{}, false
}

// LookupByYaesuCode finds the catalog entry for a configured Yaesu binary
// model code.
func LookupByYaesuCode(code uint8) (RadioModel, bool) {
	for _, e := range yaesuRadios {
		if e.code == code {
			return e.model, true
		}
	}
	return RadioModel{}, false
}

// LookupByYaesuAsciiID finds the catalog entry for a Yaesu ASCII 4-digit ID
// code.
func LookupByYaesuAsciiID(id string) (RadioModel, bool) {
	for _, e := range yaesuAsciiRadios {
		if e.id == id {
			return e.model, true
		}
	}
	return RadioModel{}, false
}

// RadiosForProtocol returns every catalog entry for the given protocol, used
// by the control API to populate a model picklist.
func RadiosForProtocol(p Protocol) []RadioModel {
	switch p {
	case IcomCIV:
		out := make([]RadioModel, len(icomRadios))
		for i, e := range icomRadios {
			out[i] = e.model
		}
		return out
	case Kenwood:
		out := make([]RadioModel, len(kenwoodRadios))
		for i, e := range kenwoodRadios {
			out[i] = e.model
		}
		return out
	case Elecraft:
		out := make([]RadioModel, len(elecraftRadios))
		for i, e := range elecraftRadios {
			out[i] = e.model
		}
		return out
	case FlexRadio:
		out := make([]RadioModel, len(flexRadios))
		for i, e := range flexRadios {
			out[i] = e.model
		}
		return out
	case Yaesu:
		out := make([]RadioModel, len(yaesuRadios))
		for i, e := range yaesuRadios {
			out[i] = e.model
		}
		return out
	case YaesuAscii:
		out := make([]RadioModel, len(yaesuAsciiRadios))
		for i, e := range yaesuAsciiRadios {
			out[i] = e.model
		}
		return out
	default:
		return nil
	}
}

// DefaultForProtocol returns the most common radio model for a protocol,
// used to preselect a sensible default in the configuration UI.
func DefaultForProtocol(p Protocol) (RadioModel, bool) {
	switch p {
	case IcomCIV:
		return LookupByCivAddress(0x94)
	case Kenwood:
		return LookupByKenwoodID("023")
	case Elecraft:
		return LookupByElecraftID("K3")
	case FlexRadio:
		return LookupByFlexID("909")
	case Yaesu:
		if len(yaesuRadios) == 0 {
			return RadioModel{}, false
		}
		return yaesuRadios[0].model, true
	case YaesuAscii:
		if len(yaesuAsciiRadios) == 0 {
			return RadioModel{}, false
		}
		return yaesuAsciiRadios[0].model, true
	default:
		return RadioModel{}, false
	}
}
