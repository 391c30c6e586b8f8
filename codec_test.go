package telnet

import (
	"bytes"
	"reflect"
	"testing"
)

// drain runs every byte of buf through dec.Decode and collects every
// produced frame, mirroring the `for len(buf) > 0 { ... }` loop documented
// on Decoder.Decode.
func drain(dec *Decoder, buf []byte) ([]TelnetFrame, []error) {
	var frames []TelnetFrame
	var errs []error

	for len(buf) > 0 {
		res, n := dec.Decode(buf)
		buf = buf[n:]

		if res.Err != nil {
			errs = append(errs, res.Err)
			continue
		}
		if res.Produced {
			frames = append(frames, res.Frame)
		}
	}

	return frames, errs
}

func TestDecodePlainData(t *testing.T) {
	dec := NewDecoder()
	frames, errs := drain(dec, []byte("hi"))

	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(frames) != 2 || frames[0].Data != 'h' || frames[1].Data != 'i' {
		t.Fatalf("frames = %+v, want two data frames", frames)
	}
}

// IAC escaping in data.
func TestDecodeIACEscaping(t *testing.T) {
	dec := NewDecoder()
	frames, errs := drain(dec, []byte{0x41, IAC, IAC, 0x42})

	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	want := []byte{0x41, 0xFF, 0x42}
	if len(frames) != len(want) {
		t.Fatalf("frames = %+v, want %d data frames", frames, len(want))
	}
	for i, f := range frames {
		if f.Kind != FrameData || f.Data != want[i] {
			t.Fatalf("frame %d = %+v, want Data(%#02x)", i, f, want[i])
		}
	}
}

func TestDecodeIACGoAhead(t *testing.T) {
	dec := NewDecoder()
	frames, errs := drain(dec, []byte{0x41, IAC, GA, 0x42})

	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(frames) != 3 {
		t.Fatalf("frames = %+v, want 3", frames)
	}
	if frames[0].Data != 0x41 || frames[1].Kind != FrameCommand || frames[1].Command != GA || frames[2].Data != 0x42 {
		t.Fatalf("frames = %+v, want Data(A), Command(GA), Data(B)", frames)
	}
}

func TestDecodeNegotiate(t *testing.T) {
	dec := NewDecoder()
	frames, errs := drain(dec, []byte{IAC, WILL, byte(OptionEcho)})

	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(frames) != 1 || frames[0].Kind != FrameNegotiate || frames[0].NegotiateOp != WILL || frames[0].Option != OptionEcho {
		t.Fatalf("frames = %+v, want one WILL ECHO negotiation", frames)
	}
}

func TestDecodeUnknownCommandResyncs(t *testing.T) {
	dec := NewDecoder()
	// 0x21 ('!') follows IAC but isn't a recognized command, negotiation op,
	// or SB: it's surfaced as an error and the decoder resyncs to decStream
	// rather than tearing down.
	frames, errs := drain(dec, []byte{IAC, 0x21, 'x'})

	if len(errs) != 1 {
		t.Fatalf("errs = %v, want exactly one error", errs)
	}
	if len(frames) != 1 || frames[0].Data != 'x' {
		t.Fatalf("frames = %+v, want decoding to resume after the unknown command", frames)
	}
}

// NAWS subnegotiation, fed whole and one byte at a time.
func naswPayload() []byte {
	return []byte{IAC, SB, byte(OptionNAWS), 0x00, 0x50, 0x00, 0x18, IAC, SE}
}

func TestDecodeSubnegotiationWholeBuffer(t *testing.T) {
	dec := NewDecoder()
	frames, errs := drain(dec, naswPayload())

	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(frames) != 1 || frames[0].Kind != FrameSubnegotiate || frames[0].Option != OptionNAWS {
		t.Fatalf("frames = %+v, want one NAWS subnegotiation", frames)
	}

	arg, err := DecodeArgument(frames[0].Option, frames[0].Subnegotiation)
	if err != nil {
		t.Fatalf("DecodeArgument: %v", err)
	}
	naws, ok := arg.(NAWSArgument)
	if !ok || naws.Cols != 80 || naws.Rows != 24 {
		t.Fatalf("arg = %+v, want NAWSArgument{Cols:80,Rows:24}", arg)
	}

	if !bytes.Equal(naws.Encode(), frames[0].Subnegotiation) {
		t.Fatalf("Encode() = %v, want round trip of %v", naws.Encode(), frames[0].Subnegotiation)
	}
}

func TestDecodeSubnegotiationSplitAcrossReads(t *testing.T) {
	dec := NewDecoder()
	payload := naswPayload()

	var frames []TelnetFrame
	for i, b := range payload {
		fs, errs := drain(dec, []byte{b})
		if len(errs) != 0 {
			t.Fatalf("byte %d: unexpected errors: %v", i, errs)
		}
		frames = append(frames, fs...)

		if i < len(payload)-1 && len(fs) != 0 {
			t.Fatalf("byte %d produced %+v before the sequence completed", i, fs)
		}
	}

	if len(frames) != 1 || frames[0].Kind != FrameSubnegotiate || frames[0].Option != OptionNAWS {
		t.Fatalf("frames = %+v, want exactly one NAWS subnegotiation emitted on the final byte", frames)
	}
}

func TestDecodeSubnegotiationIACEscaped(t *testing.T) {
	dec := NewDecoder()
	payload := []byte{IAC, SB, byte(OptionCharset), 'x', IAC, IAC, 'y', IAC, SE}
	frames, errs := drain(dec, payload)

	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(frames) != 1 {
		t.Fatalf("frames = %+v, want 1", frames)
	}
	want := []byte{'x', 0xFF, 'y'}
	if !bytes.Equal(frames[0].Subnegotiation, want) {
		t.Fatalf("Subnegotiation = %v, want %v", frames[0].Subnegotiation, want)
	}
}

func TestDecodeSubnegotiationOverflow(t *testing.T) {
	dec := &Decoder{MaxSubnegotiationLength: 4}
	payload := []byte{IAC, SB, byte(OptionMSSP), 1, 2, 3, 4, 5, IAC, SE}
	_, errs := drain(dec, payload)

	if len(errs) != 1 {
		t.Fatalf("errs = %v, want exactly one overflow error", errs)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	enc := NewEncoder()
	dec := NewDecoder()

	frames := []TelnetFrame{
		frameData('Q'),
		frameData(0xFF),
		frameCommand(GA),
		frameNegotiate(WILL, OptionEcho),
		frameSubnegotiate(OptionNAWS, []byte{0x00, 0x50, 0x00, 0x18}),
	}

	var wire []byte
	for _, f := range frames {
		wire = append(wire, enc.Encode(f)...)
	}

	got, errs := drain(dec, wire)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(got) != len(frames) {
		t.Fatalf("got %d frames, want %d: %+v", len(got), len(frames), got)
	}
	for i := range frames {
		if got[i].Kind != FrameSubnegotiate && !reflect.DeepEqual(got[i], frames[i]) {
			t.Fatalf("frame %d = %+v, want %+v", i, got[i], frames[i])
		}
	}
	if got[4].Kind != FrameSubnegotiate || !bytes.Equal(got[4].Subnegotiation, frames[4].Subnegotiation) {
		t.Fatalf("frame 4 = %+v, want subnegotiation round trip of %+v", got[4], frames[4])
	}
}
