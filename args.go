package telnet

// Option-argument codecs. Each supported option owns an Encode()/decode pair
// behind the uniform TelnetArgument shape — dispatch by option code, not by
// dynamic downcast. DecodeArgument is the single dispatch point; every
// concrete argument type below also satisfies TelnetArgument so the Unknown
// case and the known cases are interchangeable to callers.

// TelnetArgument is a parsed subnegotiation payload for one option. Encode
// returns the raw bytes that belong between "IAC SB <option>" and
// "IAC SE" — it mirrors what DecodeArgument produced, so
// DecodeArgument(o, arg.Encode()) round-trips to an equal argument for
// every option this package knows about.
type TelnetArgument interface {
	Option() TelOptCode
	Encode() []byte
}

// UnknownArgument retains the raw bytes of a subnegotiation payload for an
// option this package has no dedicated codec for (or whose dedicated codec
// rejected the payload as malformed). It always round-trips exactly.
type UnknownArgument struct {
	OptionCode TelOptCode
	Raw        []byte
}

func (a UnknownArgument) Option() TelOptCode { return a.OptionCode }
func (a UnknownArgument) Encode() []byte {
	out := make([]byte, len(a.Raw))
	copy(out, a.Raw)
	return out
}

// DecodeArgument dispatches a subnegotiation payload to the per-option
// codec for option, falling back to UnknownArgument for options with no
// codec registered here. When the option's own codec reports the payload is
// malformed, DecodeArgument returns that codec's error; Projector then
// surfaces the raw payload as an UnknownArgument rather than dropping the
// subnegotiation, so the application may still react to it.
func DecodeArgument(option TelOptCode, payload []byte) (TelnetArgument, error) {
	switch option {
	case OptionNAWS:
		return decodeNAWS(payload)
	case OptionCharset:
		return decodeCharset(payload)
	case OptionMSSP:
		return decodeMSSP(payload)
	case OptionMSDP:
		return decodeMSDP(payload)
	case OptionStatus:
		return decodeStatus(payload)
	case OptionLinemode:
		return decodeLinemode(payload)
	default:
		return UnknownArgument{OptionCode: option, Raw: append([]byte(nil), payload...)}, nil
	}
}
