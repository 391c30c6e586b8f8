package telnet

// The Segment taxonomy ansiparser.go projects decoded bytes into, and the
// AnsiConfig gate that decides which segment classes a caller actually wants
// parsed out versus left as literal text.
//
// Every Segment carries a Kind discriminator, the same tagged-struct shape
// TelnetFrame uses in frame.go, rather than the interface-per-variant
// pattern used for TelnetEvent/TelnetInput in events.go -- segments are
// produced at a much higher rate, and a shared struct avoids an allocation
// and interface dispatch per byte of terminal output.

// SegmentKind discriminates the shape of a decoded Segment.
type SegmentKind byte

const (
	SegmentText SegmentKind = iota
	SegmentC0
	SegmentC1
	SegmentCSI
	SegmentSGR
	SegmentOSC
	SegmentDCS
	SegmentSOS
	SegmentPM
	SegmentAPC
	SegmentStringTerminator
)

func (k SegmentKind) String() string {
	switch k {
	case SegmentText:
		return "Text"
	case SegmentC0:
		return "C0"
	case SegmentC1:
		return "C1"
	case SegmentCSI:
		return "CSI"
	case SegmentSGR:
		return "SGR"
	case SegmentOSC:
		return "OSC"
	case SegmentDCS:
		return "DCS"
	case SegmentSOS:
		return "SOS"
	case SegmentPM:
		return "PM"
	case SegmentAPC:
		return "APC"
	case SegmentStringTerminator:
		return "ST"
	default:
		return "Unknown"
	}
}

// SGRAttributeKind classifies one decoded SGR parameter run, splitting the
// 256-color and TrueColor extended forms (38/48;5;n and 38/48;2;r;g;b) out
// of the flat parameter list the way a renderer actually needs them.
type SGRAttributeKind byte

const (
	SGRReset SGRAttributeKind = iota
	SGRForegroundBasic
	SGRBackgroundBasic
	SGRForeground256
	SGRBackground256
	SGRForegroundTrueColor
	SGRBackgroundTrueColor
	SGROther
)

// SGRAttribute is one decoded attribute from a SegmentSGR's parameter list.
// Params holds whatever raw numbers belong to that attribute: a single
// basic color code, a palette index, or three RGB components.
type SGRAttribute struct {
	Kind   SGRAttributeKind
	Params []int
}

// Segment is one unit produced by AnsiParser: a run of text, a single
// control byte, or one complete escape/control sequence. Only the fields
// relevant to Kind are populated; the rest are left at their zero value.
type Segment struct {
	Kind SegmentKind

	Text string // SegmentText
	Byte byte   // SegmentC0, SegmentC1, SegmentStringTerminator

	Intermediates []byte // SegmentCSI, SegmentDCS
	Params        []int  // SegmentCSI, SegmentDCS (raw, before SGR splitting)
	Final         byte   // SegmentCSI, SegmentDCS

	Attributes []SGRAttribute // SegmentSGR only

	Payload []byte // SegmentOSC, SegmentDCS, SegmentSOS, SegmentPM, SegmentAPC string body

	Raw []byte // complete raw bytes of the sequence; also set on a disabled sequence handed back as SegmentText, unset for plain text
}

// ColorMode bounds how far into an SGR color parameter AnsiParser is willing
// to decode before giving up and reporting the raw params as SGROther.
type ColorMode byte

const (
	ColorNone ColorMode = iota
	ColorSixteen
	ColorTwoFiftySix
	ColorTrueColor
)

// AnsiConfig gates which segment classes AnsiParser actually decodes. A
// class that is not enabled is still recognized at the byte level (so
// framing never breaks), but is handed back as SegmentText containing the
// sequence's literal bytes instead of a structured Segment -- matching the
// negotiation Policy default of refusing everything until explicitly
// enabled (see Policy in projector.go, and RestrictivePolicy, which
// NewProjector uses when given no Policy).
type AnsiConfig struct {
	DecodeC1  bool
	DecodeCSI bool
	DecodeSGR bool
	DecodeOSC bool
	DecodeDCS bool
	DecodeSOS bool
	DecodePM  bool
	DecodeAPC bool
	ColorMode ColorMode
}

// PermissiveAnsiConfig decodes every segment class at full TrueColor depth.
func PermissiveAnsiConfig() AnsiConfig {
	return AnsiConfig{
		DecodeC1:  true,
		DecodeCSI: true,
		DecodeSGR: true,
		DecodeOSC: true,
		DecodeDCS: true,
		DecodeSOS: true,
		DecodePM:  true,
		DecodeAPC: true,
		ColorMode: ColorTrueColor,
	}
}
