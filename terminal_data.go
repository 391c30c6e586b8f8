package telnet

// TerminalData is the closed vocabulary of everything TerminalDataParser can
// produce from a charset-decoded string: printable text, a single control
// byte, or a classified escape/control sequence. Every PrinterOutput hook
// and keyboard middleware in this package is keyed off this interface.
//
// Expressed in terms of Segment/AnsiParser (segment.go/ansiparser.go) rather
// than a second, redundant wrap of the ansi package, so decoding user data
// goes through exactly one ANSI state machine.
type TerminalData interface {
	String() string
	terminalData()
}

// TextData is a run of printable text.
type TextData string

func (d TextData) String() string { return string(d) }
func (TextData) terminalData()    {}

// ControlCodeData is a single C0/C1 control byte (BEL, CR, LF, BS, DEL, ...).
type ControlCodeData byte

func (d ControlCodeData) String() string { return string([]byte{byte(d)}) }
func (ControlCodeData) terminalData()    {}

// SegmentData wraps any Segment that is not plain text or a single control
// byte: CSI (including SGR), OSC, DCS, SOS, PM, or APC.
type SegmentData struct {
	Segment Segment
}

func (d SegmentData) String() string {
	if d.Segment.Kind == SegmentCSI || d.Segment.Kind == SegmentSGR || d.Segment.Kind == SegmentDCS {
		return string(d.Segment.Raw)
	}
	return string(d.Segment.Payload)
}
func (SegmentData) terminalData() {}

// terminalDataForSegment projects one Segment produced by AnsiParser into
// its TerminalData representation.
func terminalDataForSegment(seg Segment) TerminalData {
	switch seg.Kind {
	case SegmentText:
		return TextData(seg.Text)
	case SegmentC0:
		return ControlCodeData(seg.Byte)
	default:
		return SegmentData{Segment: seg}
	}
}
