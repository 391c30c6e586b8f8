package telopts

import (
	"github.com/corvallis-moor/telnet"
)

const echo telnet.TelOptCode = 1

func RegisterECHO(usage telnet.TelOptUsage) telnet.TelnetOption {
	return &ECHO{
		NewBaseTelOpt(echo, "ECHO", usage),
	}
}

// ECHO tracks whether either side has taken over echoing, but doesn't act
// on it directly: clients tend to fall back to local echo whenever the
// server isn't set to echo for them, so whether an application should
// suppress its own echo depends on which side negotiated it, which only the
// consumer (see RemoteEchoing/LocalEchoing) knows how to interpret for its
// own output path.
type ECHO struct {
	BaseTelOpt
}

// LocalEchoing reports whether this side has committed to echoing received
// text back to the peer.
func (o *ECHO) LocalEchoing() bool {
	return o.LocalState() == telnet.TelOptActive
}

// RemoteEchoing reports whether the peer has committed to echoing its own
// received text, so a line-oriented consumer (cmd/telnetd's echoLine, for
// instance) knows whether to suppress its own echo to avoid doubling
// characters the client already echoed itself.
func (o *ECHO) RemoteEchoing() bool {
	return o.RemoteState() == telnet.TelOptActive
}
