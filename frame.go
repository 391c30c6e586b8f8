package telnet

// FrameKind discriminates the handful of token shapes that can come off the
// wire. TelnetFrame is deliberately a single flat struct rather than an
// interface hierarchy: it's a small, closed, finite set of variants, best
// modeled as a tagged struct with exhaustive switches, not subclassing.
type FrameKind byte

const (
	// FrameData carries a single NVT data byte.
	FrameData FrameKind = iota
	// FrameCommand carries a nullary IAC command (NOP, GA, EOR, DM, BRK,
	// IP, AO, AYT, EC, EL).
	FrameCommand
	// FrameNegotiate carries a WILL/WONT/DO/DONT for an option.
	FrameNegotiate
	// FrameSubnegotiate carries a fully assembled, de-escaped
	// subnegotiation payload for an option.
	FrameSubnegotiate
	// FrameUnknownCommand carries an IAC byte that is not any defined
	// command. Decoder.Decode never produces it (it reports such a byte as
	// an ErrUnknownCommand error); Encoder.Encode and Projector accept it.
	FrameUnknownCommand
)

// TelnetFrame is a single on-wire token produced by Decoder.Decode, or
// consumed by Encoder.Encode.
type TelnetFrame struct {
	Kind FrameKind

	// Data holds the byte for FrameData.
	Data byte

	// Command holds the opcode (NOP, GA, EOR, DM, BRK, IP, AO, AYT, EC,
	// EL) for FrameCommand, and the unrecognized byte for
	// FrameUnknownCommand.
	Command byte

	// NegotiateOp holds WILL/WONT/DO/DONT, and Option the option code,
	// for FrameNegotiate.
	NegotiateOp byte
	Option      TelOptCode

	// Subnegotiation holds the de-escaped payload for
	// FrameSubnegotiate, keyed by Option.
	Subnegotiation []byte
}

func frameData(b byte) TelnetFrame {
	return TelnetFrame{Kind: FrameData, Data: b}
}

func frameCommand(cmd byte) TelnetFrame {
	return TelnetFrame{Kind: FrameCommand, Command: cmd}
}

func frameNegotiate(op byte, option TelOptCode) TelnetFrame {
	return TelnetFrame{Kind: FrameNegotiate, NegotiateOp: op, Option: option}
}

func frameSubnegotiate(option TelOptCode, payload []byte) TelnetFrame {
	return TelnetFrame{Kind: FrameSubnegotiate, Option: option, Subnegotiation: payload}
}

func frameUnknownCommand(b byte) TelnetFrame {
	return TelnetFrame{Kind: FrameUnknownCommand, Command: b}
}
