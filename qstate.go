package telnet

// This file implements RFC 1143's Q-method negotiation discipline: a
// deterministic six-state machine tracked independently for each telnet
// option on each side (local and remote) of a connection. It is a pure
// state machine — no I/O, no locking beyond what the caller provides —
// so it can be driven and tested without a live terminal.

// QState is one of the six RFC 1143 states for a single option on a single
// side of the connection.
type QState byte

const (
	// QNo is the initial state: the option is off and no negotiation is
	// in flight.
	QNo QState = iota
	// QYes means the option is active.
	QYes
	// QWantNoEmpty means we sent a disable request and are waiting for
	// the peer's acknowledgement; nothing is queued behind it.
	QWantNoEmpty
	// QWantNoOpposite means we sent a disable request, but the consumer
	// subsequently asked to re-enable the option before the disable was
	// acknowledged; the enable is queued.
	QWantNoOpposite
	// QWantYesEmpty means we sent an enable request and are waiting for
	// the peer's acknowledgement; nothing is queued behind it.
	QWantYesEmpty
	// QWantYesOpposite means we sent an enable request, but the consumer
	// subsequently asked to disable the option before the enable was
	// acknowledged; the disable is queued.
	QWantYesOpposite
)

func (s QState) String() string {
	switch s {
	case QNo:
		return "No"
	case QYes:
		return "Yes"
	case QWantNoEmpty:
		return "WantNo/empty"
	case QWantNoOpposite:
		return "WantNo/opposite"
	case QWantYesEmpty:
		return "WantYes/empty"
	case QWantYesOpposite:
		return "WantYes/opposite"
	default:
		return "Unknown"
	}
}

// QSide identifies which half of a connection a QState row describes: the
// side running locally, or the remote peer.
type QSide byte

const (
	QSideLocal QSide = iota
	QSideRemote
)

func (s QSide) String() string {
	if s == QSideLocal {
		return "Local"
	}
	return "Remote"
}

// QAction is an instruction the negotiator hands back to the caller: send
// the named wire command (WILL/WONT/DO/DONT, chosen per side by the
// negotiator) for the option under negotiation.
type QAction byte

const (
	// QActionNone means no wire traffic is required.
	QActionNone QAction = iota
	// QActionSendEnable means send WILL (local side) or DO (remote side).
	QActionSendEnable
	// QActionSendDisable means send WONT (local side) or DONT (remote side).
	QActionSendDisable
)

// QResult is the outcome of feeding one event into the negotiator: the new
// state, any wire action required, and whether an OptionStatus event should
// be raised (settled is true only on entry to Yes, on exit from Yes/WantYes*
// back to No, and when the peer's WONT/DONT completes a WantNo/empty disable).
type QResult struct {
	State        QState
	Action       QAction
	EmitSettled  bool
	SettledValue bool // the `enabled` value to report alongside EmitSettled
	ProtocolErr  bool // true if the peer's message was a protocol violation (RFC 1143 "error" cell)
}

// QNegotiator holds one QState row per option per side. It implements the
// RFC 1143 Q method of telnet option negotiation, including the "queued"
// states that prevent negotiation loops. The zero value is ready to use;
// every option starts at QNo on both sides.
type QNegotiator struct {
	states map[qKey]QState
}

type qKey struct {
	option TelOptCode
	side   QSide
}

// NewQNegotiator returns a ready-to-use negotiator with all options at QNo.
func NewQNegotiator() *QNegotiator {
	return &QNegotiator{states: make(map[qKey]QState)}
}

// State returns the current QState for the given option and side. Unknown
// options report QNo, since that is the implicit initial state of every
// option that has never been negotiated.
func (n *QNegotiator) State(option TelOptCode, side QSide) QState {
	return n.states[qKey{option, side}]
}

func (n *QNegotiator) setState(option TelOptCode, side QSide, s QState) {
	n.states[qKey{option, side}] = s
}

// ReceiveEnable processes a received activation request (WILL for the
// remote side, DO for the local side) per the RFC 1143 table.
func (n *QNegotiator) ReceiveEnable(option TelOptCode, side QSide) QResult {
	key := qKey{option, side}
	state := n.states[key]

	switch state {
	case QNo:
		n.states[key] = QYes
		return QResult{State: QYes, Action: QActionSendEnable, EmitSettled: true, SettledValue: true}
	case QYes:
		return QResult{State: QYes}
	case QWantNoEmpty:
		// Received enable while we're mid-disable with nothing queued: a
		// protocol error per RFC 1143. Force back to No and re-send the
		// disable so the peer gets a corrective WONT/DONT.
		n.states[key] = QNo
		return QResult{State: QNo, Action: QActionSendDisable, ProtocolErr: true}
	case QWantNoOpposite:
		n.states[key] = QYes
		return QResult{State: QYes, EmitSettled: true, SettledValue: true}
	case QWantYesEmpty:
		n.states[key] = QYes
		return QResult{State: QYes, EmitSettled: true, SettledValue: true}
	case QWantYesOpposite:
		n.states[key] = QWantNoEmpty
		return QResult{State: QWantNoEmpty, Action: QActionSendDisable}
	}
	return QResult{State: state}
}

// ReceiveDisable processes a received deactivation request (WONT for the
// remote side, DONT for the local side) per the RFC 1143 table.
func (n *QNegotiator) ReceiveDisable(option TelOptCode, side QSide) QResult {
	key := qKey{option, side}
	state := n.states[key]

	switch state {
	case QNo:
		return QResult{State: QNo}
	case QYes:
		n.states[key] = QNo
		return QResult{State: QNo, Action: QActionSendDisable, EmitSettled: true, SettledValue: false}
	case QWantNoEmpty:
		n.states[key] = QNo
		return QResult{State: QNo, EmitSettled: true, SettledValue: false}
	case QWantNoOpposite:
		n.states[key] = QWantYesEmpty
		return QResult{State: QWantYesEmpty, Action: QActionSendEnable}
	case QWantYesEmpty:
		n.states[key] = QNo
		return QResult{State: QNo, EmitSettled: true, SettledValue: false}
	case QWantYesOpposite:
		n.states[key] = QNo
		return QResult{State: QNo, EmitSettled: true, SettledValue: false}
	}
	return QResult{State: state}
}

// RequestEnable is called when the local consumer wants to activate an
// option. It is the mirror of ReceiveEnable, driven by our own desire
// rather than a peer message; it returns the wire action to send, if any.
func (n *QNegotiator) RequestEnable(option TelOptCode, side QSide) QResult {
	key := qKey{option, side}
	state := n.states[key]

	switch state {
	case QNo:
		n.states[key] = QWantYesEmpty
		return QResult{State: QWantYesEmpty, Action: QActionSendEnable}
	case QWantNoEmpty:
		n.states[key] = QWantNoOpposite
		return QResult{State: QWantNoOpposite}
	case QWantYesOpposite:
		// already queued
		return QResult{State: state}
	default:
		// Yes, WantNoOpposite, WantYesEmpty: already on or already
		// becoming on.
		return QResult{State: state}
	}
}

// RequestDisable is the mirror of RequestEnable for deactivation requests
// originating locally.
func (n *QNegotiator) RequestDisable(option TelOptCode, side QSide) QResult {
	key := qKey{option, side}
	state := n.states[key]

	switch state {
	case QYes:
		n.states[key] = QWantNoEmpty
		return QResult{State: QWantNoEmpty, Action: QActionSendDisable}
	case QWantYesEmpty:
		n.states[key] = QWantYesOpposite
		return QResult{State: QWantYesOpposite}
	case QWantNoOpposite:
		return QResult{State: state}
	default:
		// No, WantNoEmpty, WantYesOpposite: already off or already
		// becoming off.
		return QResult{State: state}
	}
}
