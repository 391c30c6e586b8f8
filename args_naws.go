package telnet

// NAWS (Negotiate About Window Size, option 31): a fixed four-byte payload,
// big-endian cols then rows, defaulting to 80x24 before any subnegotiation
// arrives. telopts/NAWS.go builds the identical four-byte big-endian layout
// by hand in writeSizeSubnegotiation.

// DefaultNAWSCols and DefaultNAWSRows are the window dimensions assumed
// before any NAWS subnegotiation has been received.
const (
	DefaultNAWSCols uint16 = 80
	DefaultNAWSRows uint16 = 24
)

// NAWSArgument is the decoded payload of an IAC SB NAWS subnegotiation.
type NAWSArgument struct {
	Cols uint16
	Rows uint16
}

func (a NAWSArgument) Option() TelOptCode { return OptionNAWS }

func (a NAWSArgument) Encode() []byte {
	return []byte{
		byte(a.Cols >> 8), byte(a.Cols),
		byte(a.Rows >> 8), byte(a.Rows),
	}
}

func decodeNAWS(payload []byte) (TelnetArgument, error) {
	if len(payload) != 4 {
		return nil, newSubnegotiationError("naws: expected a four byte payload but received %d", len(payload))
	}

	return NAWSArgument{
		Cols: uint16(payload[0])<<8 | uint16(payload[1]),
		Rows: uint16(payload[2])<<8 | uint16(payload[3]),
	}, nil
}

// DefaultNAWS returns the window size assumed before negotiation.
func DefaultNAWS() NAWSArgument {
	return NAWSArgument{Cols: DefaultNAWSCols, Rows: DefaultNAWSRows}
}
