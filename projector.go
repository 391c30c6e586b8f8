package telnet

// The event projector. It composes Decoder, QNegotiator, and DecodeArgument
// into a single receive-path pipeline (raw bytes -> Decoder -> QNegotiator
// -> Projector -> TelnetEvent), with a mirrored send path (TelnetInput ->
// Projector/QNegotiator -> Encoder -> bytes). It is deliberately standalone
// and socket-free, so it can be driven directly against a Projector in
// tests without standing up a connection.
//
// Terminal/terminal_telopts.go (the actor-ish glue layer) implements its own
// richer per-option plugin dispatch, driving each TelnetOption's state
// directly from the printer's parsed Commands without Decoder, QNegotiator
// or DecodeArgument; Projector is a minimal,
// literal receive/send pipeline for callers who want typed events without
// the telopt plugin machinery.

// Policy decides whether an option may be activated when the peer
// requests it. The negotiator itself is mechanical (it always follows the
// RFC 1143 table once a transition is underway); Policy is consulted only
// before the first transition out of QNo, mirroring the TelOptUsage
// allow-flag check terminal_telopts.go's processTelOptCommand performs.
type Policy interface {
	AllowLocal(option TelOptCode) bool
	AllowRemote(option TelOptCode) bool
}

// PermissivePolicy allows every option on both sides. Useful for tests and
// for endpoints that trust their peer completely.
type PermissivePolicy struct{}

func (PermissivePolicy) AllowLocal(TelOptCode) bool  { return true }
func (PermissivePolicy) AllowRemote(TelOptCode) bool { return true }

// RestrictivePolicy allows nothing: both directions default to refusing
// every option.
type RestrictivePolicy struct{}

func (RestrictivePolicy) AllowLocal(TelOptCode) bool  { return false }
func (RestrictivePolicy) AllowRemote(TelOptCode) bool { return false }

// SetPolicy allows exactly the options present in the Local/Remote sets.
type SetPolicy struct {
	Local  map[TelOptCode]bool
	Remote map[TelOptCode]bool
}

func (p SetPolicy) AllowLocal(option TelOptCode) bool  { return p.Local[option] }
func (p SetPolicy) AllowRemote(option TelOptCode) bool { return p.Remote[option] }

// Projector is a full receive/send pipeline for one connection, covering
// both its receive (Feed) and send (Send) directions: one Decoder, one QNegotiator (covering both sides, since a
// connection negotiates both who-acts-locally and who-acts-remotely), and
// one Encoder.
type Projector struct {
	Policy Policy

	dec *Decoder
	neg *QNegotiator
	enc *Encoder
}

// NewProjector returns a Projector ready to process a fresh connection.
func NewProjector(policy Policy) *Projector {
	if policy == nil {
		policy = RestrictivePolicy{}
	}
	return &Projector{
		Policy: policy,
		dec:    NewDecoder(),
		neg:    NewQNegotiator(),
		enc:    NewEncoder(),
	}
}

// Negotiator exposes the underlying Q-state machine, e.g. so a caller can
// inspect State(option, side) for diagnostics.
func (p *Projector) Negotiator() *QNegotiator { return p.neg }

// Reset clears the decoder's in-progress subnegotiation buffer. Q-state is
// untouched, since a byte-level resync does not imply any option's
// negotiation state actually changed.
func (p *Projector) Reset() { p.dec.Reset() }

// Feed decodes every complete frame currently available in buf, in order,
// and returns the events they produced along with any reply bytes the
// negotiator generated (acknowledgements, etc.) that the caller should
// write back to the peer. Feed consumes all of buf; if the trailing bytes
// form an incomplete frame they remain buffered inside the Decoder for the
// next call.
func (p *Projector) Feed(buf []byte) (events []TelnetEvent, toSend []byte) {
	for len(buf) > 0 {
		result, n := p.dec.Decode(buf)
		buf = buf[n:]

		if result.Err != nil {
			events = append(events, ErrorEvent{Err: result.Err})
			continue
		}
		if !result.Produced {
			break
		}

		ev, send := p.processFrame(result.Frame)
		if ev != nil {
			events = append(events, ev)
		}
		if len(send) > 0 {
			toSend = append(toSend, send...)
		}
	}
	return events, toSend
}

func (p *Projector) processFrame(frame TelnetFrame) (TelnetEvent, []byte) {
	switch frame.Kind {
	case FrameData:
		return DataEvent{Byte: frame.Data}, nil

	case FrameCommand:
		return eventForCommand(frame.Command), nil

	case FrameUnknownCommand:
		return ErrorEvent{Err: newUnknownCommandError(frame.Command)}, nil

	case FrameNegotiate:
		return p.processNegotiate(frame)

	case FrameSubnegotiate:
		arg, err := DecodeArgument(frame.Option, frame.Subnegotiation)
		if err != nil {
			arg = UnknownArgument{OptionCode: frame.Option, Raw: frame.Subnegotiation}
		}
		return SubnegotiateEvent{Argument: arg}, nil
	}

	return nil, nil
}

func (p *Projector) processNegotiate(frame TelnetFrame) (TelnetEvent, []byte) {
	side := QSideRemote
	allowed := p.Policy.AllowRemote(frame.Option)
	if frame.NegotiateOp == DO || frame.NegotiateOp == DONT {
		side = QSideLocal
		allowed = p.Policy.AllowLocal(frame.Option)
	}

	activate := frame.NegotiateOp == WILL || frame.NegotiateOp == DO

	if activate && !allowed && p.neg.State(frame.Option, side) == QNo {
		reject := Command{OpCode: frame.NegotiateOp, Option: frame.Option}.Reject()
		return nil, p.enc.Encode(frameNegotiate(reject.OpCode, reject.Option))
	}

	var result QResult
	if activate {
		result = p.neg.ReceiveEnable(frame.Option, side)
	} else {
		result = p.neg.ReceiveDisable(frame.Option, side)
	}

	toSend := p.encodeQAction(result.Action, frame.Option, side)

	if result.ProtocolErr {
		return ErrorEvent{Err: newNegotiationError("unexpected %s for option %d (%s side)", commandCodes[frame.NegotiateOp], frame.Option, side)}, toSend
	}
	if result.EmitSettled {
		return OptionStatusEvent{Option: frame.Option, Side: side, Enabled: result.SettledValue}, toSend
	}
	return nil, toSend
}

func (p *Projector) encodeQAction(action QAction, option TelOptCode, side QSide) []byte {
	switch action {
	case QActionSendEnable:
		op := byte(WILL)
		if side == QSideRemote {
			op = DO
		}
		return p.enc.Encode(frameNegotiate(op, option))
	case QActionSendDisable:
		op := byte(WONT)
		if side == QSideRemote {
			op = DONT
		}
		return p.enc.Encode(frameNegotiate(op, option))
	default:
		return nil
	}
}

// nullaryInputCommand maps the command-shaped TelnetInput variants to
// their wire command byte, mirroring eventForCommand/commandForEvent for
// the send path.
func nullaryInputCommand(input TelnetInput) (byte, bool) {
	switch input.(type) {
	case DataMarkInput:
		return DM, true
	case BreakInput:
		return BRK, true
	case InterruptProcessInput:
		return IP, true
	case AbortOutputInput:
		return AO, true
	case AreYouThereInput:
		return AYT, true
	case EraseCharacterInput:
		return EC, true
	case EraseLineInput:
		return EL, true
	case GoAheadInput:
		return GA, true
	default:
		return 0, false
	}
}

// Send turns one TelnetInput into the bytes that should be written to the
// wire, driving the same QNegotiator as Feed for Enable/Disable inputs so
// that a locally initiated negotiation and a peer-initiated one converge
// on the same Q-state.
func (p *Projector) Send(input TelnetInput) []byte {
	switch in := input.(type) {
	case KeypressInput:
		return p.enc.Encode(frameData(in.Byte))

	case MessageInput:
		return EncodeMessage(in.Text)

	case EnableInput:
		result := p.neg.RequestEnable(in.Option, in.Side)
		return p.encodeQAction(result.Action, in.Option, in.Side)

	case DisableInput:
		result := p.neg.RequestDisable(in.Option, in.Side)
		return p.encodeQAction(result.Action, in.Option, in.Side)

	case SubnegotiateInput:
		return p.enc.Encode(frameSubnegotiate(in.Argument.Option(), in.Argument.Encode()))

	default:
		if cmd, ok := nullaryInputCommand(input); ok {
			return p.enc.Encode(frameCommand(cmd))
		}
		return nil
	}
}
