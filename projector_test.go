package telnet

import (
	"bytes"
	"testing"
)

// Q-method settle through the full Projector pipeline: receiving WILL
// ECHO from No sends DO ECHO and emits OptionStatus(ECHO, Remote, true)
// exactly once; a repeated WILL produces neither.
func TestProjectorQMethodSettle(t *testing.T) {
	p := NewProjector(PermissivePolicy{})

	events, toSend := p.Feed([]byte{IAC, WILL, byte(OptionEcho)})
	if !bytes.Equal(toSend, []byte{IAC, DO, byte(OptionEcho)}) {
		t.Fatalf("toSend = %v, want IAC DO ECHO", toSend)
	}
	if len(events) != 1 {
		t.Fatalf("events = %+v, want exactly one", events)
	}
	status, ok := events[0].(OptionStatusEvent)
	if !ok || status.Option != OptionEcho || status.Side != QSideRemote || !status.Enabled {
		t.Fatalf("events[0] = %+v, want OptionStatusEvent{ECHO, Remote, true}", events[0])
	}

	events, toSend = p.Feed([]byte{IAC, WILL, byte(OptionEcho)})
	if len(toSend) != 0 || len(events) != 0 {
		t.Fatalf("repeated WILL: events=%+v toSend=%v, want none", events, toSend)
	}
}

func TestProjectorRejectsDisallowedOption(t *testing.T) {
	p := NewProjector(RestrictivePolicy{})

	events, toSend := p.Feed([]byte{IAC, WILL, byte(OptionEcho)})
	if !bytes.Equal(toSend, []byte{IAC, DONT, byte(OptionEcho)}) {
		t.Fatalf("toSend = %v, want IAC DONT ECHO", toSend)
	}
	if len(events) != 0 {
		t.Fatalf("events = %+v, want none for a rejected option", events)
	}
	if p.Negotiator().State(OptionEcho, QSideRemote) != QNo {
		t.Fatalf("state = %v, want No after rejection", p.Negotiator().State(OptionEcho, QSideRemote))
	}
}

func TestProjectorProtocolErrorEmitsCorrectiveDisable(t *testing.T) {
	p := NewProjector(PermissivePolicy{})

	p.Feed([]byte{IAC, WILL, byte(OptionEcho)})
	p.Send(DisableInput{Option: OptionEcho, Side: QSideRemote})

	events, toSend := p.Feed([]byte{IAC, WILL, byte(OptionEcho)})
	if !bytes.Equal(toSend, []byte{IAC, DONT, byte(OptionEcho)}) {
		t.Fatalf("toSend = %v, want a corrective IAC DONT ECHO", toSend)
	}
	if len(events) != 1 {
		t.Fatalf("events = %+v, want exactly one error event", events)
	}
	if _, ok := events[0].(ErrorEvent); !ok {
		t.Fatalf("events[0] = %+v, want ErrorEvent", events[0])
	}
}

func TestProjectorSubnegotiateEvent(t *testing.T) {
	p := NewProjector(PermissivePolicy{})

	payload := []byte{0x00, 0x50, 0x00, 0x18}
	wire := append([]byte{IAC, SB, byte(OptionNAWS)}, payload...)
	wire = append(wire, IAC, SE)

	events, toSend := p.Feed(wire)
	if len(toSend) != 0 {
		t.Fatalf("toSend = %v, want none for a subnegotiation", toSend)
	}
	if len(events) != 1 {
		t.Fatalf("events = %+v, want exactly one", events)
	}
	sub, ok := events[0].(SubnegotiateEvent)
	if !ok {
		t.Fatalf("events[0] = %+v, want SubnegotiateEvent", events[0])
	}
	naws, ok := sub.Argument.(NAWSArgument)
	if !ok || naws.Cols != 80 || naws.Rows != 24 {
		t.Fatalf("Argument = %+v, want NAWSArgument{80,24}", sub.Argument)
	}
}

func TestProjectorSendKeypressAndMessage(t *testing.T) {
	p := NewProjector(PermissivePolicy{})

	if got := p.Send(KeypressInput{Byte: 'A'}); !bytes.Equal(got, []byte{'A'}) {
		t.Fatalf("Send(Keypress) = %v, want [A]", got)
	}
	if got := p.Send(KeypressInput{Byte: IAC}); !bytes.Equal(got, []byte{IAC, IAC}) {
		t.Fatalf("Send(Keypress IAC) = %v, want escaped IAC IAC", got)
	}

	got := p.Send(MessageInput{Text: "hi\n"})
	if !bytes.Equal(got, []byte("hi\r\n")) {
		t.Fatalf("Send(Message) = %q, want %q", got, "hi\r\n")
	}
}

func TestProjectorRequestEnableDrivesNegotiator(t *testing.T) {
	p := NewProjector(PermissivePolicy{})

	toSend := p.Send(EnableInput{Option: OptionNAWS, Side: QSideLocal})
	if !bytes.Equal(toSend, []byte{IAC, WILL, byte(OptionNAWS)}) {
		t.Fatalf("toSend = %v, want IAC WILL NAWS", toSend)
	}
	if p.Negotiator().State(OptionNAWS, QSideLocal) != QWantYesEmpty {
		t.Fatalf("state = %v, want WantYes/empty", p.Negotiator().State(OptionNAWS, QSideLocal))
	}
}
