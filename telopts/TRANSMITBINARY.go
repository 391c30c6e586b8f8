package telopts

import (
	"github.com/corvallis-moor/telnet"
)

const transmitbinaryKeyboardLock string = "lock.binary"
const transmitbinary telnet.TelOptCode = 0

func RegisterTRANSMITBINARY(usage telnet.TelOptUsage) telnet.TelnetOption {
	return &TRANSMITBINARY{
		NewBaseTelOpt(transmitbinary, "TRANSMIT-BINARY", usage),
	}
}

// TRANSMITBINARY switches a side of the connection out of NVT ASCII and
// into raw 8-bit transport, which matters to this repo because Charset's
// binary mode bypasses its own character-set conversion in favor of passing
// bytes straight through.
type TRANSMITBINARY struct {
	BaseTelOpt
}

func (o *TRANSMITBINARY) TransitionLocalState(newState telnet.TelOptState) error {
	if err := o.BaseTelOpt.TransitionLocalState(newState); err != nil {
		return err
	}

	if newState == telnet.TelOptRequested {
		o.Terminal().Keyboard().SetLock(transmitbinaryKeyboardLock, telnet.DefaultKeyboardLock)
		return nil
	}

	o.Terminal().Keyboard().ClearLock(transmitbinaryKeyboardLock)
	o.Terminal().Charset().SetBinaryEncode(newState == telnet.TelOptActive)
	return nil
}

func (o *TRANSMITBINARY) TransitionRemoteState(newState telnet.TelOptState) error {
	if err := o.BaseTelOpt.TransitionRemoteState(newState); err != nil {
		return err
	}

	if newState == telnet.TelOptActive || newState == telnet.TelOptInactive {
		o.Terminal().Charset().SetBinaryDecode(newState == telnet.TelOptActive)
	}
	return nil
}
