package telnet

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// The incremental ANSI/ECMA-48 parser.
//
// Wraps github.com/charmbracelet/x/ansi's byte-level state machine: one
// long-lived *ansi.Parser fed one byte at a time via Advance, with a
// SetDispatcher callback that receives an ansi.Rune, ansi.Grapheme,
// ansi.ControlCode, or a composite ansi.Sequence (OSC/CSI/DCS/etc.) once a
// unit completes. AnsiParser needs the sequence's structure (CSI params,
// intermediates, final byte, SGR color depth) and a bounded sequence
// length, so it keeps its own raw-byte buffer of whatever the underlying
// parser is currently accumulating and decodes the ECMA-48 structure out of
// that buffer itself once a sequence completes, rather than inspecting the
// library's internal sequence types directly.
const MaxSequenceLength = 256

// AnsiParser incrementally decodes a byte stream into Segments, gated by an
// AnsiConfig. It holds no connection-specific state beyond the in-progress
// sequence, so one AnsiParser is typically paired with one Terminal/Printer.
type AnsiParser struct {
	config AnsiConfig

	parser  *ansi.Parser
	builder strings.Builder

	seqRaw []byte

	dispatched bool
	isText     bool
}

// NewAnsiParser returns a parser gated by config. Use PermissiveAnsiConfig
// for a parser that decodes every segment class.
func NewAnsiParser(config AnsiConfig) *AnsiParser {
	p := &AnsiParser{config: config}
	p.parser = ansi.NewParser(p.dispatch)
	return p
}

func (p *AnsiParser) dispatch(seq ansi.Sequence) {
	p.dispatched = true

	switch s := seq.(type) {
	case ansi.Rune:
		p.isText = true
		p.builder.WriteRune(rune(s))
	case ansi.Grapheme:
		p.isText = true
		p.builder.WriteString(s.Cluster)
	default:
		p.isText = false
	}
}

// Feed advances the parser by one byte and returns any Segments that byte
// completed. Most bytes complete zero Segments (they are buffered as part
// of an in-progress sequence or a run of text); a byte that ends a run of
// text immediately followed by a control byte can complete two: the
// buffered text, then the control segment.
func (p *AnsiParser) Feed(b byte) ([]Segment, error) {
	if len(p.seqRaw) >= MaxSequenceLength {
		p.Reset()
		return nil, &AnsiError{Kind: ErrSequenceTooLong, Reason: "escape sequence exceeded the maximum length"}
	}

	p.dispatched = false
	p.isText = false
	p.seqRaw = append(p.seqRaw, b)

	p.parser.Advance(b)

	if !p.dispatched {
		return nil, nil
	}

	if p.isText {
		p.seqRaw = p.seqRaw[:0]
		return nil, nil
	}

	seg := p.finalizeSequence()
	p.seqRaw = p.seqRaw[:0]

	var out []Segment
	if p.builder.Len() > 0 {
		out = append(out, Segment{Kind: SegmentText, Text: p.builder.String()})
		p.builder.Reset()
	}
	return append(out, seg), nil
}

// Flush returns any text that has been buffered but not yet emitted,
// because the stream ended (or the caller wants output now) without a
// trailing control byte to trigger the flush in Feed.
func (p *AnsiParser) Flush() []Segment {
	if p.builder.Len() == 0 {
		return nil
	}
	out := []Segment{{Kind: SegmentText, Text: p.builder.String()}}
	p.builder.Reset()
	return out
}

// Reset discards any in-progress sequence and reinitializes the underlying
// ansi.Parser, the way a tier-2 (sequence-level) error recovers by
// returning to the Ground state.
func (p *AnsiParser) Reset() {
	p.seqRaw = p.seqRaw[:0]
	p.builder.Reset()
	p.parser = ansi.NewParser(p.dispatch)
}

// finalizeSequence decodes the ECMA-48 structure of the just-completed
// sequence out of p.seqRaw, applying AnsiConfig gating: a disabled class is
// still recognized (framing never breaks) but is handed back as literal
// SegmentText rather than a structured Segment.
func (p *AnsiParser) finalizeSequence() Segment {
	raw := append([]byte(nil), p.seqRaw...)
	kind, bodyStart := classifyIntroducer(raw)

	switch kind {
	case SegmentC0:
		return Segment{Kind: SegmentC0, Byte: raw[len(raw)-1], Raw: raw}

	case SegmentStringTerminator:
		return Segment{Kind: SegmentStringTerminator, Byte: raw[len(raw)-1], Raw: raw}

	case SegmentC1:
		if !p.config.DecodeC1 {
			return Segment{Kind: SegmentText, Text: string(raw), Raw: raw}
		}
		return Segment{Kind: SegmentC1, Byte: raw[len(raw)-1], Raw: raw}

	case SegmentCSI:
		params, intermediates, final := parseParameterizedBody(raw[bodyStart:])

		if !p.config.DecodeCSI {
			return Segment{Kind: SegmentText, Text: string(raw), Raw: raw}
		}

		seg := Segment{Kind: SegmentCSI, Params: params, Intermediates: intermediates, Final: final, Raw: raw}
		if final == 'm' {
			if !p.config.DecodeSGR {
				return seg
			}
			seg.Kind = SegmentSGR
			seg.Attributes = decodeSGRParams(params, p.config.ColorMode)
		}
		return seg

	case SegmentOSC:
		if !p.config.DecodeOSC {
			return Segment{Kind: SegmentText, Text: string(raw), Raw: raw}
		}
		return Segment{Kind: SegmentOSC, Payload: extractStringBody(raw, bodyStart), Raw: raw}

	case SegmentDCS:
		if !p.config.DecodeDCS {
			return Segment{Kind: SegmentText, Text: string(raw), Raw: raw}
		}
		params, intermediates, final := parseParameterizedBody(extractStringBody(raw, bodyStart))
		return Segment{Kind: SegmentDCS, Params: params, Intermediates: intermediates, Final: final, Payload: extractStringBody(raw, bodyStart), Raw: raw}

	case SegmentSOS:
		if !p.config.DecodeSOS {
			return Segment{Kind: SegmentText, Text: string(raw), Raw: raw}
		}
		return Segment{Kind: SegmentSOS, Payload: extractStringBody(raw, bodyStart), Raw: raw}

	case SegmentPM:
		if !p.config.DecodePM {
			return Segment{Kind: SegmentText, Text: string(raw), Raw: raw}
		}
		return Segment{Kind: SegmentPM, Payload: extractStringBody(raw, bodyStart), Raw: raw}

	case SegmentAPC:
		if !p.config.DecodeAPC {
			return Segment{Kind: SegmentText, Text: string(raw), Raw: raw}
		}
		return Segment{Kind: SegmentAPC, Payload: extractStringBody(raw, bodyStart), Raw: raw}

	default:
		return Segment{Kind: SegmentC1, Raw: raw}
	}
}

// classifyIntroducer identifies which ECMA-48 sequence class raw belongs to
// from its introducer (either a 7-bit ESC + final-free intermediate, or an
// 8-bit C1 control byte), and returns the offset where the sequence's body
// begins.
func classifyIntroducer(raw []byte) (kind SegmentKind, bodyStart int) {
	if raw[0] == ESC {
		if len(raw) < 2 {
			return SegmentC0, 1
		}
		switch raw[1] {
		case '[':
			return SegmentCSI, 2
		case ']':
			return SegmentOSC, 2
		case 'P':
			return SegmentDCS, 2
		case 'X':
			return SegmentSOS, 2
		case '^':
			return SegmentPM, 2
		case '_':
			return SegmentAPC, 2
		case '\\':
			return SegmentStringTerminator, 2
		default:
			return SegmentC0, 1
		}
	}

	switch raw[0] {
	case 0x9B:
		return SegmentCSI, 1
	case 0x9D:
		return SegmentOSC, 1
	case 0x90:
		return SegmentDCS, 1
	case 0x98:
		return SegmentSOS, 1
	case 0x9E:
		return SegmentPM, 1
	case 0x9F:
		return SegmentAPC, 1
	case 0x9C:
		return SegmentStringTerminator, 1
	case 0x1B:
		return SegmentC0, 1
	default:
		if raw[0] < 0x20 || raw[0] == 0x7F {
			return SegmentC0, 1
		}
		return SegmentC1, 1
	}
}

// ESC is the C0 escape byte, the 7-bit introducer for every 8-bit C1
// control used above.
const ESC byte = 0x1B

// parseParameterizedBody splits a CSI/DCS body into its ECMA-48 parameter
// bytes (0x30-0x3F), intermediate bytes (0x20-0x2F), and final byte
// (0x40-0x7E).
func parseParameterizedBody(body []byte) (params []int, intermediates []byte, final byte) {
	i := 0
	paramStart := i
	for i < len(body) && body[i] >= 0x30 && body[i] <= 0x3F {
		i++
	}
	params = parseParamBytes(body[paramStart:i])

	for i < len(body) && body[i] >= 0x20 && body[i] <= 0x2F {
		intermediates = append(intermediates, body[i])
		i++
	}

	if i < len(body) {
		final = body[i]
	}
	return params, intermediates, final
}

func parseParamBytes(b []byte) []int {
	if len(b) == 0 {
		return nil
	}

	var params []int
	cur := strings.Builder{}
	flush := func() {
		n, _ := strconv.Atoi(cur.String())
		params = append(params, n)
		cur.Reset()
	}

	for _, c := range b {
		if c == ';' || c == ':' {
			flush()
			continue
		}
		cur.WriteByte(c)
	}
	flush()
	return params
}

// extractStringBody strips a string-sequence's body of its terminator (an
// 8-bit ST byte, a 7-bit ESC \ pair, or a BEL, accepted interchangeably the
// way most terminals tolerate all three for OSC) and returns a copy.
func extractStringBody(raw []byte, bodyStart int) []byte {
	body := raw[bodyStart:]

	switch {
	case len(body) > 0 && body[len(body)-1] == 0x9C:
		body = body[:len(body)-1]
	case len(body) >= 2 && body[len(body)-2] == ESC && body[len(body)-1] == '\\':
		body = body[:len(body)-2]
	case len(body) > 0 && body[len(body)-1] == 0x07:
		body = body[:len(body)-1]
	}

	out := make([]byte, len(body))
	copy(out, body)
	return out
}

// decodeSGRParams splits a flat SGR parameter list into attributes,
// recognizing the 256-color (38/48;5;n) and TrueColor (38/48;2;r;g;b)
// extended forms up to the depth ColorMode allows; anything deeper than
// the configured mode, or any parameter this function doesn't recognize,
// is reported as SGROther so no information is silently dropped.
func decodeSGRParams(params []int, mode ColorMode) []SGRAttribute {
	var attrs []SGRAttribute

	for i := 0; i < len(params); i++ {
		n := params[i]

		switch {
		case n == 0:
			attrs = append(attrs, SGRAttribute{Kind: SGRReset, Params: []int{n}})

		case n == 38 || n == 48:
			background := n == 48

			if i+1 < len(params) {
				switch params[i+1] {
				case 5:
					if mode >= ColorTwoFiftySix && i+2 < len(params) {
						kind := SGRForeground256
						if background {
							kind = SGRBackground256
						}
						attrs = append(attrs, SGRAttribute{Kind: kind, Params: []int{params[i+2]}})
						i += 2
						continue
					}
				case 2:
					if mode >= ColorTrueColor && i+4 < len(params) {
						kind := SGRForegroundTrueColor
						if background {
							kind = SGRBackgroundTrueColor
						}
						attrs = append(attrs, SGRAttribute{Kind: kind, Params: []int{params[i+2], params[i+3], params[i+4]}})
						i += 4
						continue
					}
				}
			}
			attrs = append(attrs, SGRAttribute{Kind: SGROther, Params: []int{n}})

		case n >= 30 && n <= 37, n >= 90 && n <= 97:
			if mode >= ColorSixteen {
				attrs = append(attrs, SGRAttribute{Kind: SGRForegroundBasic, Params: []int{n}})
			} else {
				attrs = append(attrs, SGRAttribute{Kind: SGROther, Params: []int{n}})
			}

		case n >= 40 && n <= 47, n >= 100 && n <= 107:
			if mode >= ColorSixteen {
				attrs = append(attrs, SGRAttribute{Kind: SGRBackgroundBasic, Params: []int{n}})
			} else {
				attrs = append(attrs, SGRAttribute{Kind: SGROther, Params: []int{n}})
			}

		default:
			attrs = append(attrs, SGRAttribute{Kind: SGROther, Params: []int{n}})
		}
	}

	return attrs
}
