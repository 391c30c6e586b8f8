package telnet

// The incremental Telnet codec: IAC detection, IAC-IAC de-escaping, nullary
// command recognition, WILL/WONT/DO/DONT negotiation parsing, and
// subnegotiation assembly, structured as a persistent-state Decoder whose
// Decode method consumes only a prefix of its input and resumes across
// calls -- unlike a bufio.Scanner split function, it never needs the whole
// token buffered before it can make progress.

// defaultMaxSubnegotiationLength bounds an in-progress subnegotiation
// payload. MSSP/MSDP tables are the largest legitimate payloads in
// practice; this is generous without being unbounded.
const defaultMaxSubnegotiationLength = 4096

type decodeState byte

const (
	decStream decodeState = iota
	decIac
	decCmd
	decSbOption
	decSbPayload
	decSbIac
)

// DecodeResult is the outcome of one Decoder.Decode call: at most one
// complete frame (Produced), or an error describing a byte-level protocol
// violation that the decoder has already resynced past.
type DecodeResult struct {
	Frame    TelnetFrame
	Produced bool
	Err      error
}

// Decoder turns a stream of raw bytes into TelnetFrame tokens. It is a
// synchronous, non-blocking state machine: it owns no threads, performs no
// I/O, and never blocks. Callers resume decoding across partial reads by
// calling Decode again with newly available bytes.
type Decoder struct {
	state decodeState
	cmdOp byte

	sbOption TelOptCode
	sbBuf    []byte

	// MaxSubnegotiationLength bounds a subnegotiation payload while it is
	// being assembled. Zero means use defaultMaxSubnegotiationLength.
	MaxSubnegotiationLength int
}

// NewDecoder returns a Decoder ready to decode from a fresh stream.
func NewDecoder() *Decoder {
	return &Decoder{}
}

func (d *Decoder) maxSubnegotiation() int {
	if d.MaxSubnegotiationLength > 0 {
		return d.MaxSubnegotiationLength
	}
	return defaultMaxSubnegotiationLength
}

// Reset clears any in-progress subnegotiation buffer and returns the
// decoder to its initial state, so the stream can resync on the next IAC
// after a fatal protocol error.
func (d *Decoder) Reset() {
	d.state = decStream
	d.cmdOp = 0
	d.sbOption = 0
	d.sbBuf = nil
}

// Decode consumes a prefix of buf and returns at most one complete frame.
// It never blocks and never reads past the bytes it needs: consumed is
// always > 0 when buf is non-empty, so callers can loop
// `for len(buf) > 0 { res, n := dec.Decode(buf); buf = buf[n:] }`
// to drain everything currently available.
func (d *Decoder) Decode(buf []byte) (result DecodeResult, consumed int) {
	for i := 0; i < len(buf); i++ {
		b := buf[i]

		switch d.state {
		case decStream:
			if b == IAC {
				d.state = decIac
				continue
			}
			return DecodeResult{Frame: frameData(b), Produced: true}, i + 1

		case decIac:
			switch {
			case b == IAC:
				d.state = decStream
				return DecodeResult{Frame: frameData(0xFF), Produced: true}, i + 1
			case b == SE:
				// SE with no matching SB: ignore and resync.
				d.state = decStream
			case nullaryCommands[b]:
				d.state = decStream
				return DecodeResult{Frame: frameCommand(b), Produced: true}, i + 1
			case b == WILL || b == WONT || b == DO || b == DONT:
				d.cmdOp = b
				d.state = decCmd
			case b == SB:
				d.state = decSbOption
			default:
				d.state = decStream
				return DecodeResult{Err: newUnknownCommandError(b)}, i + 1
			}

		case decCmd:
			d.state = decStream
			return DecodeResult{Frame: frameNegotiate(d.cmdOp, TelOptCode(b)), Produced: true}, i + 1

		case decSbOption:
			d.sbOption = TelOptCode(b)
			d.sbBuf = d.sbBuf[:0]
			d.state = decSbPayload

		case decSbPayload:
			if b == IAC {
				d.state = decSbIac
				continue
			}
			if len(d.sbBuf) >= d.maxSubnegotiation() {
				d.state = decStream
				d.sbBuf = nil
				return DecodeResult{Err: newSubnegotiationError("payload exceeds %d bytes", d.maxSubnegotiation())}, i + 1
			}
			d.sbBuf = append(d.sbBuf, b)

		case decSbIac:
			switch b {
			case IAC:
				d.sbBuf = append(d.sbBuf, 0xFF)
				d.state = decSbPayload
			case SE:
				payload := make([]byte, len(d.sbBuf))
				copy(payload, d.sbBuf)
				option := d.sbOption
				d.sbBuf = nil
				d.state = decStream
				return DecodeResult{Frame: frameSubnegotiate(option, payload), Produced: true}, i + 1
			default:
				d.sbBuf = nil
				d.state = decStream
				return DecodeResult{Err: newSubnegotiationError("unescaped IAC %#02x inside subnegotiation", b)}, i + 1
			}
		}
	}

	return DecodeResult{}, len(buf)
}

// Encoder mirrors Decoder: it writes the on-wire bytes for a TelnetFrame.
type Encoder struct{}

// NewEncoder returns a ready-to-use Encoder. It carries no state since
// encoding never spans multiple calls.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Encode returns the wire bytes for frame.
func (e *Encoder) Encode(frame TelnetFrame) []byte {
	switch frame.Kind {
	case FrameData:
		if frame.Data == IAC {
			return []byte{IAC, IAC}
		}
		return []byte{frame.Data}

	case FrameCommand:
		return []byte{IAC, frame.Command}

	case FrameNegotiate:
		return []byte{IAC, frame.NegotiateOp, byte(frame.Option)}

	case FrameSubnegotiate:
		out := make([]byte, 0, len(frame.Subnegotiation)+6)
		out = append(out, IAC, SB, byte(frame.Option))
		for _, b := range frame.Subnegotiation {
			if b == IAC {
				out = append(out, IAC, IAC)
			} else {
				out = append(out, b)
			}
		}
		out = append(out, IAC, SE)
		return out

	case FrameUnknownCommand:
		return []byte{IAC, frame.Command}
	}

	return nil
}
