package telnet

import "fmt"

// CodecErrorKind classifies a CodecError so callers can branch on it with
// errors.Is without parsing messages.
type CodecErrorKind byte

const (
	ErrIO CodecErrorKind = iota
	ErrUnknownCommand
	ErrNegotiation
	ErrSubnegotiation
)

func (k CodecErrorKind) String() string {
	switch k {
	case ErrIO:
		return "IOError"
	case ErrUnknownCommand:
		return "UnknownCommand"
	case ErrNegotiation:
		return "NegotiationError"
	case ErrSubnegotiation:
		return "SubnegotiationError"
	default:
		return "CodecError"
	}
}

// CodecError is the error type raised by the telnet codec and negotiator.
// It always carries a Kind so callers can use errors.Is against a
// *CodecError of the wanted Kind (see Is) without string matching.
type CodecError struct {
	Kind    CodecErrorKind
	Message string
	Byte    byte // populated for ErrUnknownCommand
}

func (e *CodecError) Error() string {
	if e.Kind == ErrUnknownCommand {
		return fmt.Sprintf("telnet: unknown command byte %#02x", e.Byte)
	}
	return fmt.Sprintf("telnet: %s: %s", e.Kind, e.Message)
}

// Is supports errors.Is(err, &CodecError{Kind: ErrSubnegotiation}) and
// similar: any *CodecError target matches when its Kind equals e's Kind.
func (e *CodecError) Is(target error) bool {
	other, ok := target.(*CodecError)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}

func newIOError(format string, args ...any) *CodecError {
	return &CodecError{Kind: ErrIO, Message: fmt.Sprintf(format, args...)}
}

func newUnknownCommandError(b byte) *CodecError {
	return &CodecError{Kind: ErrUnknownCommand, Byte: b, Message: fmt.Sprintf("%#02x", b)}
}

func newNegotiationError(format string, args ...any) *CodecError {
	return &CodecError{Kind: ErrNegotiation, Message: fmt.Sprintf(format, args...)}
}

func newSubnegotiationError(format string, args ...any) *CodecError {
	return &CodecError{Kind: ErrSubnegotiation, Message: fmt.Sprintf(format, args...)}
}

// AnsiErrorKind classifies an AnsiError.
type AnsiErrorKind byte

const (
	ErrSequenceTooLong AnsiErrorKind = iota
	ErrInvalidSequence
)

func (k AnsiErrorKind) String() string {
	if k == ErrSequenceTooLong {
		return "SequenceTooLong"
	}
	return "InvalidSequence"
}

// AnsiError is raised by the ANSI parser when an escape sequence overflows
// MaxSequenceLength or is otherwise malformed.
type AnsiError struct {
	Kind   AnsiErrorKind
	Reason string
}

func (e *AnsiError) Error() string {
	if e.Reason == "" {
		return "ansi: " + e.Kind.String()
	}
	return fmt.Sprintf("ansi: %s: %s", e.Kind, e.Reason)
}

func (e *AnsiError) Is(target error) bool {
	other, ok := target.(*AnsiError)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}
