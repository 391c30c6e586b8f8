package telnet

// TerminalDataParser adapts AnsiParser (segment.go, ansiparser.go) to the
// incremental, "one output at a time" pull API the
// rest of this module's consumers (terminal.go, KeyboardFeed, LineFeed)
// were written against. Rather than wrapping the underlying
// ansi.Parser a second time, it delegates to a single AnsiParser per
// Terminal so there is exactly one ANSI state machine in the receive path.
type TerminalDataParser struct {
	pending []TerminalData
	ansi    *AnsiParser
}

// NewTerminalDataParser returns a parser gated by PermissiveAnsiConfig, so
// it never suppresses a recognized sequence class by default.
func NewTerminalDataParser() *TerminalDataParser {
	return &TerminalDataParser{ansi: NewAnsiParser(PermissiveAnsiConfig())}
}

// ParseTerminalData is a one-shot convenience wrapper for callers that
// don't need to hold a parser across multiple calls.
func ParseTerminalData[T string | []byte](data T, output func(data TerminalData)) {
	parser := NewTerminalDataParser()

	outData := NextOutput(parser, data)
	for outData != nil {
		output(outData)
		outData = NextOutput(parser, zeroOf(data))
	}

	final := parser.Flush()
	if final != nil {
		output(final)
	}
}

func zeroOf[T string | []byte](T) T {
	var zero T
	return zero
}

// NextOutput feeds data into p and returns the next TerminalData it can
// produce, or nil if everything fed so far is still buffered inside an
// in-progress sequence or run of text. Pass an empty value to drain
// TerminalData already queued from a previous call without feeding more
// bytes.
func NextOutput[T string | []byte](p *TerminalDataParser, data T) TerminalData {
	if len(p.pending) > 0 {
		out := p.pending[0]
		p.pending = p.pending[1:]
		return out
	}

	for i := 0; i < len(data); i++ {
		segments, err := p.ansi.Feed(data[i])
		if err != nil {
			p.pending = append(p.pending, ErrorData{Err: err})
			continue
		}

		for _, seg := range segments {
			p.pending = append(p.pending, terminalDataForSegment(seg))
		}
	}

	if len(p.pending) == 0 {
		return nil
	}

	out := p.pending[0]
	p.pending = p.pending[1:]
	return out
}

// Flush returns any text buffered inside the underlying AnsiParser (a
// partial escape sequence stays buffered there), because the caller has no more bytes to offer
// right now (connection closed, charset decode boundary, and so on).
func (p *TerminalDataParser) Flush() TerminalData {
	if len(p.pending) > 0 {
		out := p.pending[0]
		p.pending = p.pending[1:]
		return out
	}

	segments := p.ansi.Flush()
	if len(segments) == 0 {
		return nil
	}

	for _, seg := range segments[1:] {
		p.pending = append(p.pending, terminalDataForSegment(seg))
	}
	return terminalDataForSegment(segments[0])
}

// FireAll drains every TerminalData parsed out of data (plus whatever
// Flush produces at the end) through publisher, in order.
func (p *TerminalDataParser) FireAll(terminal *Terminal, data string, publisher *EventPublisher[TerminalData]) {
	outData := NextOutput(p, data)

	for outData != nil {
		publisher.Fire(terminal, outData)
		outData = NextOutput(p, "")
	}

	final := p.Flush()
	if final != nil {
		publisher.Fire(terminal, final)
	}
}

func (p *TerminalDataParser) FireSingle(terminal *Terminal, data string, hook TerminalDataHandler) {
	outData := NextOutput(p, data)

	for outData != nil {
		hook(terminal, outData)
		outData = NextOutput(p, "")
	}

	final := p.Flush()
	if final != nil {
		hook(terminal, final)
	}
}

// ErrorData surfaces a recoverable ANSI parse error inline with the
// TerminalData stream, so a consumer processing PrinterOutput in order
// sees the error at the point it occurred instead of out of band.
type ErrorData struct {
	Err error
}

func (d ErrorData) String() string { return d.Err.Error() }
func (ErrorData) terminalData()    {}
