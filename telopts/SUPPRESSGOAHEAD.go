package telopts

import (
	"github.com/corvallis-moor/telnet"
)

const suppressgoaheadKeyboardLock string = "lock.suppress-go-ahead"
const suppressgoahead telnet.TelOptCode = 3

func RegisterSUPPRESSGOAHEAD(usage telnet.TelOptUsage) telnet.TelnetOption {
	return &SUPPRESSGOAHEAD{
		NewBaseTelOpt(suppressgoahead, "SUPPRESS-GO-AHEAD", usage),
	}
}

// SUPPRESSGOAHEAD turns off the line-oriented IAC GA prompt hint (IAC EOR
// is left as it is) on whichever side activates it, since a side that suppresses go-ahead is
// promising the other end it no longer needs that cue to place a prompt.
type SUPPRESSGOAHEAD struct {
	BaseTelOpt
}

func (o *SUPPRESSGOAHEAD) TransitionLocalState(newState telnet.TelOptState) error {
	if err := o.BaseTelOpt.TransitionLocalState(newState); err != nil {
		return err
	}

	switch newState {
	case telnet.TelOptRequested:
		o.Terminal().Keyboard().SetLock(suppressgoaheadKeyboardLock, telnet.DefaultKeyboardLock)
	case telnet.TelOptActive:
		o.Terminal().Keyboard().ClearPromptCommand(telnet.PromptCommandGA)
		o.Terminal().Keyboard().ClearLock(suppressgoaheadKeyboardLock)
	case telnet.TelOptInactive:
		o.Terminal().Keyboard().SetPromptCommand(telnet.PromptCommandGA)
		o.Terminal().Keyboard().ClearLock(suppressgoaheadKeyboardLock)
	}

	return nil
}

func (o *SUPPRESSGOAHEAD) TransitionRemoteState(newState telnet.TelOptState) error {
	if err := o.BaseTelOpt.TransitionRemoteState(newState); err != nil {
		return err
	}

	switch newState {
	case telnet.TelOptActive:
		o.Terminal().Printer().ClearPromptCommand(telnet.PromptCommandGA)
	case telnet.TelOptInactive:
		o.Terminal().Printer().SetPromptCommand(telnet.PromptCommandGA)
	}

	return nil
}
