package telnet

import "testing"

func feedAll(p *AnsiParser, buf []byte) ([]Segment, error) {
	var out []Segment
	for _, b := range buf {
		segs, err := p.Feed(b)
		if err != nil {
			return out, err
		}
		out = append(out, segs...)
	}
	return out, nil
}

func TestAnsiParserPlainText(t *testing.T) {
	p := NewAnsiParser(PermissiveAnsiConfig())
	for _, b := range []byte("hi") {
		if segs, err := p.Feed(b); err != nil || len(segs) != 0 {
			t.Fatalf("Feed(%q) = %v, %v, want buffered with no segment yet", b, segs, err)
		}
	}
	segs := p.Flush()
	if len(segs) != 1 || segs[0].Kind != SegmentText || segs[0].Text != "hi" {
		t.Fatalf("Flush = %+v, want one Text(\"hi\") segment", segs)
	}
}

// SGR parse with TrueColor: ESC [ 38;2;1;2;3 m decodes to an SGR
// segment with a single TrueColor foreground attribute.
func TestAnsiParserSGRTrueColor(t *testing.T) {
	p := NewAnsiParser(AnsiConfig{DecodeCSI: true, DecodeSGR: true, ColorMode: ColorTrueColor})

	input := []byte{ESC, '[', '3', '8', ';', '2', ';', '1', ';', '2', ';', '3', 'm'}
	segs, err := feedAll(p, input)
	if err != nil {
		t.Fatalf("feedAll: %v", err)
	}
	if len(segs) != 1 || segs[0].Kind != SegmentSGR {
		t.Fatalf("segs = %+v, want one SGR segment", segs)
	}
	if len(segs[0].Attributes) != 1 {
		t.Fatalf("attributes = %+v, want exactly one", segs[0].Attributes)
	}
	attr := segs[0].Attributes[0]
	if attr.Kind != SGRForegroundTrueColor {
		t.Fatalf("attr.Kind = %v, want SGRForegroundTrueColor", attr.Kind)
	}
	if len(attr.Params) != 3 || attr.Params[0] != 1 || attr.Params[1] != 2 || attr.Params[2] != 3 {
		t.Fatalf("attr.Params = %v, want [1 2 3]", attr.Params)
	}
}

// ColorMode::None gets the basic 16-color SGR codes as uninterpreted
// SGROther, not classified the same as ColorSixteen.
func TestAnsiParserSGRBasicColorGatedByColorMode(t *testing.T) {
	input := []byte{ESC, '[', '3', '1', 'm'} // SGR 31: basic red foreground

	none := NewAnsiParser(AnsiConfig{DecodeCSI: true, DecodeSGR: true, ColorMode: ColorNone})
	segs, err := feedAll(none, input)
	if err != nil {
		t.Fatalf("feedAll (ColorNone): %v", err)
	}
	if len(segs) != 1 || len(segs[0].Attributes) != 1 || segs[0].Attributes[0].Kind != SGROther {
		t.Fatalf("ColorNone segs = %+v, want SGROther since basic color codes aren't accepted below ColorSixteen", segs)
	}

	sixteen := NewAnsiParser(AnsiConfig{DecodeCSI: true, DecodeSGR: true, ColorMode: ColorSixteen})
	segs, err = feedAll(sixteen, input)
	if err != nil {
		t.Fatalf("feedAll (ColorSixteen): %v", err)
	}
	if len(segs) != 1 || len(segs[0].Attributes) != 1 || segs[0].Attributes[0].Kind != SGRForegroundBasic {
		t.Fatalf("ColorSixteen segs = %+v, want SGRForegroundBasic", segs)
	}
}

func TestAnsiParserSGRBackgroundColorGatedByColorMode(t *testing.T) {
	input := []byte{ESC, '[', '4', '4', 'm'} // SGR 44: basic blue background

	none := NewAnsiParser(AnsiConfig{DecodeCSI: true, DecodeSGR: true, ColorMode: ColorNone})
	segs, err := feedAll(none, input)
	if err != nil {
		t.Fatalf("feedAll: %v", err)
	}
	if len(segs) != 1 || segs[0].Attributes[0].Kind != SGROther {
		t.Fatalf("segs = %+v, want SGROther under ColorNone", segs)
	}
}

// overflow recovery: a too-long escape sequence reports
// SequenceTooLong, resets to Ground, and subsequent bytes parse normally.
func TestAnsiParserOverflowRecovery(t *testing.T) {
	p := NewAnsiParser(PermissiveAnsiConfig())

	if _, err := p.Feed(ESC); err != nil {
		t.Fatalf("Feed(ESC): %v", err)
	}
	if _, err := p.Feed('['); err != nil {
		t.Fatalf("Feed('['): %v", err)
	}

	var overflowErr error
	for i := 0; i < 300; i++ {
		_, err := p.Feed('1')
		if err != nil {
			overflowErr = err
			break
		}
	}

	if overflowErr == nil {
		t.Fatalf("expected a SequenceTooLong error before 300 bytes")
	}
	ansiErr, ok := overflowErr.(*AnsiError)
	if !ok || ansiErr.Kind != ErrSequenceTooLong {
		t.Fatalf("err = %v, want *AnsiError{Kind: ErrSequenceTooLong}", overflowErr)
	}

	segs, err := p.Feed('A')
	if err != nil {
		t.Fatalf("Feed('A') after recovery: %v", err)
	}
	if len(segs) != 0 {
		t.Fatalf("segs = %+v, want buffered text with no segment yet", segs)
	}
	flushed := p.Flush()
	if len(flushed) != 1 || flushed[0].Text != "A" {
		t.Fatalf("Flush = %+v, want Text(\"A\")", flushed)
	}
}

func TestAnsiParserDisabledClassFallsBackToText(t *testing.T) {
	p := NewAnsiParser(AnsiConfig{})

	input := []byte{ESC, '[', '3', '1', 'm'}
	segs, err := feedAll(p, input)
	if err != nil {
		t.Fatalf("feedAll: %v", err)
	}
	if len(segs) != 1 || segs[0].Kind != SegmentText || segs[0].Text != string(input) {
		t.Fatalf("segs = %+v, want the raw sequence bytes back as SegmentText", segs)
	}
}
