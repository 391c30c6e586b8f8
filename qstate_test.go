package telnet

import "testing"

func TestQNegotiatorInitialStateIsNo(t *testing.T) {
	n := NewQNegotiator()
	if s := n.State(OptionEcho, QSideRemote); s != QNo {
		t.Fatalf("initial state = %v, want No", s)
	}
}

// Q-method settle: receiving WILL from No sends DO and settles exactly
// once; a repeated WILL after settling produces no further action or event.
func TestQNegotiatorReceiveEnableFromNoSettlesOnce(t *testing.T) {
	n := NewQNegotiator()

	res := n.ReceiveEnable(OptionEcho, QSideRemote)
	if res.State != QYes || res.Action != QActionSendEnable || !res.EmitSettled || !res.SettledValue {
		t.Fatalf("first ReceiveEnable = %+v, want Yes/SendEnable/settled-true", res)
	}

	res = n.ReceiveEnable(OptionEcho, QSideRemote)
	if res.State != QYes || res.Action != QActionNone || res.EmitSettled {
		t.Fatalf("repeated ReceiveEnable = %+v, want Yes/no-action/no-emit", res)
	}
}

func TestQNegotiatorRequestDisableThenReceiveDisable(t *testing.T) {
	n := NewQNegotiator()
	n.ReceiveEnable(OptionEcho, QSideRemote)

	res := n.RequestDisable(OptionEcho, QSideRemote)
	if res.State != QWantNoEmpty || res.Action != QActionSendDisable {
		t.Fatalf("RequestDisable = %+v, want WantNo/empty + SendDisable", res)
	}

	res = n.ReceiveDisable(OptionEcho, QSideRemote)
	if res.State != QNo || !res.EmitSettled || res.SettledValue {
		t.Fatalf("ReceiveDisable after RequestDisable = %+v, want No/settled-false", res)
	}
}

// RFC 1143's documented error cell: receiving an enable while WantNo/empty
// (mid-disable, nothing queued) is a protocol violation. The negotiator
// forces the state back to No and must re-assert the disable so the peer
// gets a corrective WONT/DONT.
func TestQNegotiatorReceiveEnableDuringWantNoEmptyIsProtocolError(t *testing.T) {
	n := NewQNegotiator()
	n.ReceiveEnable(OptionEcho, QSideRemote)
	n.RequestDisable(OptionEcho, QSideRemote)

	res := n.ReceiveEnable(OptionEcho, QSideRemote)
	if !res.ProtocolErr {
		t.Fatalf("res.ProtocolErr = false, want true")
	}
	if res.State != QNo {
		t.Fatalf("res.State = %v, want No", res.State)
	}
	if res.Action != QActionSendDisable {
		t.Fatalf("res.Action = %v, want QActionSendDisable (corrective WONT/DONT)", res.Action)
	}
}

func TestQNegotiatorRequestEnableQueuedDuringWantNoEmpty(t *testing.T) {
	n := NewQNegotiator()
	n.ReceiveEnable(OptionEcho, QSideRemote)
	n.RequestDisable(OptionEcho, QSideRemote)

	res := n.RequestEnable(OptionEcho, QSideRemote)
	if res.State != QWantNoOpposite || res.Action != QActionNone {
		t.Fatalf("RequestEnable while WantNo/empty = %+v, want WantNo/opposite queued silently", res)
	}

	res = n.ReceiveDisable(OptionEcho, QSideRemote)
	if res.State != QWantYesEmpty || res.Action != QActionSendEnable {
		t.Fatalf("ReceiveDisable while WantNo/opposite = %+v, want WantYes/empty + SendEnable", res)
	}
}

func TestQNegotiatorReceiveEnableDuringWantNoOppositeSettlesYes(t *testing.T) {
	n := NewQNegotiator()
	n.ReceiveEnable(OptionEcho, QSideRemote)
	n.RequestDisable(OptionEcho, QSideRemote)
	n.RequestEnable(OptionEcho, QSideRemote)

	res := n.ReceiveEnable(OptionEcho, QSideRemote)
	if res.State != QYes || res.Action != QActionNone || !res.EmitSettled || !res.SettledValue {
		t.Fatalf("ReceiveEnable while WantNo/opposite = %+v, want Yes/settled-true with no extra wire traffic", res)
	}
}

func TestQNegotiatorReceiveEnableDuringWantYesOppositeSendsQueuedDisable(t *testing.T) {
	n := NewQNegotiator()

	res := n.RequestEnable(OptionEcho, QSideRemote)
	if res.State != QWantYesEmpty || res.Action != QActionSendEnable {
		t.Fatalf("RequestEnable from No = %+v, want WantYes/empty + SendEnable", res)
	}

	res = n.RequestDisable(OptionEcho, QSideRemote)
	if res.State != QWantYesOpposite || res.Action != QActionNone {
		t.Fatalf("RequestDisable while WantYes/empty = %+v, want WantYes/opposite queued silently", res)
	}

	res = n.ReceiveEnable(OptionEcho, QSideRemote)
	if res.State != QWantNoEmpty || res.Action != QActionSendDisable {
		t.Fatalf("ReceiveEnable while WantYes/opposite = %+v, want WantNo/empty + SendDisable", res)
	}
}

func TestQNegotiatorLocalAndRemoteSidesAreIndependent(t *testing.T) {
	n := NewQNegotiator()
	n.ReceiveEnable(OptionEcho, QSideRemote)

	if s := n.State(OptionEcho, QSideLocal); s != QNo {
		t.Fatalf("local side state = %v, want No (unaffected by remote side)", s)
	}
}
