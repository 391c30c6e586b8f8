package telnet

import (
	"bytes"
	"testing"
)

func TestNAWSRoundTrip(t *testing.T) {
	payload := []byte{0x00, 0x50, 0x00, 0x18}
	arg, err := decodeNAWS(payload)
	if err != nil {
		t.Fatalf("decodeNAWS: %v", err)
	}
	naws := arg.(NAWSArgument)
	if naws.Cols != 80 || naws.Rows != 24 {
		t.Fatalf("arg = %+v, want Cols:80 Rows:24", naws)
	}
	if !bytes.Equal(naws.Encode(), payload) {
		t.Fatalf("Encode() = %v, want %v", naws.Encode(), payload)
	}
}

func TestNAWSRejectsWrongLength(t *testing.T) {
	if _, err := decodeNAWS([]byte{0x00, 0x50}); err == nil {
		t.Fatalf("expected an error for a short NAWS payload")
	}
}

func TestMSSPDecodeRoundTrip(t *testing.T) {
	payload := []byte{}
	payload = append(payload, msspVar)
	payload = append(payload, "NAME"...)
	payload = append(payload, msspVal)
	payload = append(payload, "ExampleMUD"...)
	payload = append(payload, msspVar)
	payload = append(payload, "PLAYERS"...)
	payload = append(payload, msspVal)
	payload = append(payload, "3"...)

	arg, err := decodeMSSP(payload)
	if err != nil {
		t.Fatalf("decodeMSSP: %v", err)
	}
	mssp := arg.(MSSPArgument)
	if len(mssp.Variables) != 2 {
		t.Fatalf("Variables = %+v, want 2 entries", mssp.Variables)
	}
	if mssp.Variables[0].Name != "NAME" || mssp.Variables[0].Values[0] != "ExampleMUD" {
		t.Fatalf("Variables[0] = %+v", mssp.Variables[0])
	}
	if mssp.Variables[1].Name != "PLAYERS" || mssp.Variables[1].Values[0] != "3" {
		t.Fatalf("Variables[1] = %+v", mssp.Variables[1])
	}

	if !bytes.Equal(mssp.Encode(), payload) {
		t.Fatalf("Encode() = %v, want %v", mssp.Encode(), payload)
	}
}

// A key containing a stray VAR byte (0x01) must be rejected rather than
// silently decoded, since VAR is MSSP's own tuple-framing byte.
func TestMSSPDecodeRejectsEmbeddedVarInKey(t *testing.T) {
	payload := []byte{msspVar, 'N', msspVar, 'M', msspVal, 'x'}

	if _, err := decodeMSSP(payload); err == nil {
		t.Fatalf("expected an error for a key containing an embedded VAR byte")
	}
}

func TestMSSPDecodeRejectsEmbeddedIACInValue(t *testing.T) {
	payload := []byte{msspVar, 'N', msspVal, 'x', IAC, 'y'}

	if _, err := decodeMSSP(payload); err == nil {
		t.Fatalf("expected an error for a value containing an embedded IAC byte")
	}
}

func TestMSSPDecodeRequiresLeadingVar(t *testing.T) {
	if _, err := decodeMSSP([]byte{'N', 'A', 'M', 'E'}); err == nil {
		t.Fatalf("expected an error when the payload doesn't start with VAR")
	}
}

func TestIsReservedMSSPByte(t *testing.T) {
	for _, b := range []byte{0x00, IAC, msspVar, msspVal} {
		if !isReservedMSSPByte(b) {
			t.Fatalf("isReservedMSSPByte(%#02x) = false, want true", b)
		}
	}
	if isReservedMSSPByte('A') {
		t.Fatalf("isReservedMSSPByte('A') = true, want false")
	}
}

func TestMSDPScalarRoundTrip(t *testing.T) {
	payload := []byte{}
	payload = append(payload, msdpVar)
	payload = append(payload, "HP"...)
	payload = append(payload, msdpVal)
	payload = append(payload, "100"...)

	arg, err := decodeMSDP(payload)
	if err != nil {
		t.Fatalf("decodeMSDP: %v", err)
	}
	msdp := arg.(MSDPArgument)
	if len(msdp.Variables) != 1 || msdp.Variables[0].Name != "HP" {
		t.Fatalf("Variables = %+v", msdp.Variables)
	}
	if msdp.Variables[0].Value.Kind != MSDPScalar || msdp.Variables[0].Value.Scalar != "100" {
		t.Fatalf("Value = %+v, want scalar \"100\"", msdp.Variables[0].Value)
	}

	if !bytes.Equal(msdp.Encode(), payload) {
		t.Fatalf("Encode() = %v, want %v", msdp.Encode(), payload)
	}
}

func TestStatusSendRoundTrip(t *testing.T) {
	arg := StatusArgument{SubCommand: StatusSEND}
	decoded, err := decodeStatus(arg.Encode())
	if err != nil {
		t.Fatalf("decodeStatus: %v", err)
	}
	if decoded.(StatusArgument).SubCommand != StatusSEND {
		t.Fatalf("decoded = %+v, want SubCommand StatusSEND", decoded)
	}
}

func TestStatusIsRoundTrip(t *testing.T) {
	arg := StatusArgument{
		SubCommand: StatusIS,
		Entries: []StatusEntry{
			{Negotiation: WILL, Option: OptionEcho},
			{Negotiation: DONT, Option: OptionSGA},
		},
	}

	decoded, err := decodeStatus(arg.Encode())
	if err != nil {
		t.Fatalf("decodeStatus: %v", err)
	}
	got := decoded.(StatusArgument)
	if got.SubCommand != StatusIS || len(got.Entries) != 2 {
		t.Fatalf("decoded = %+v", got)
	}
	if got.Entries[0] != arg.Entries[0] || got.Entries[1] != arg.Entries[1] {
		t.Fatalf("Entries = %+v, want %+v", got.Entries, arg.Entries)
	}
}

func TestCharsetRequestRoundTrip(t *testing.T) {
	arg := CharsetArgument{
		SubCommand:   CharsetRequest,
		Separator:    ';',
		CharsetNames: []string{"UTF-8", "US-ASCII"},
	}

	decoded, err := decodeCharset(arg.Encode())
	if err != nil {
		t.Fatalf("decodeCharset: %v", err)
	}
	got := decoded.(CharsetArgument)
	if got.SubCommand != CharsetRequest || len(got.CharsetNames) != 2 {
		t.Fatalf("decoded = %+v", got)
	}
	if got.CharsetNames[0] != "UTF-8" || got.CharsetNames[1] != "US-ASCII" {
		t.Fatalf("CharsetNames = %v", got.CharsetNames)
	}
}

func TestCharsetAcceptedRoundTrip(t *testing.T) {
	arg := CharsetArgument{SubCommand: CharsetAccepted, AcceptedName: "UTF-8"}
	decoded, err := decodeCharset(arg.Encode())
	if err != nil {
		t.Fatalf("decodeCharset: %v", err)
	}
	if decoded.(CharsetArgument).AcceptedName != "UTF-8" {
		t.Fatalf("decoded = %+v, want AcceptedName UTF-8", decoded)
	}
}

func TestLinemodeModeRoundTrip(t *testing.T) {
	payload := []byte{LinemodeMode, byte(LinemodeEdit | LinemodeTrapSig)}
	arg, err := decodeLinemode(payload)
	if err != nil {
		t.Fatalf("decodeLinemode: %v", err)
	}

	if !bytes.Equal(arg.Encode(), payload) {
		t.Fatalf("Encode() = %v, want %v", arg.Encode(), payload)
	}
}

func TestUnknownArgumentRoundTrips(t *testing.T) {
	raw := []byte{1, 2, 3}
	arg, err := DecodeArgument(TelOptCode(200), raw)
	if err != nil {
		t.Fatalf("DecodeArgument: %v", err)
	}
	unk, ok := arg.(UnknownArgument)
	if !ok || unk.OptionCode != TelOptCode(200) {
		t.Fatalf("arg = %+v, want UnknownArgument for option 200", arg)
	}
	if !bytes.Equal(unk.Encode(), raw) {
		t.Fatalf("Encode() = %v, want %v", unk.Encode(), raw)
	}
}
