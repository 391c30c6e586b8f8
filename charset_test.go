package telnet

import "testing"

func TestCharsetDecodeDefault(t *testing.T) {
	charset, err := NewCharset("US-ASCII", "", CharsetUsageBinary)
	if err != nil {
		t.Fatalf("NewCharset: %v", err)
	}

	text, err := charset.Decode([]byte("hello"))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if text != "hello" {
		t.Fatalf("Decode = %q, want %q", text, "hello")
	}
}

func TestCharsetFallbackDecode(t *testing.T) {
	charset, err := NewCharset("US-ASCII", "IBM437", CharsetUsageBinary)
	if err != nil {
		t.Fatalf("NewCharset: %v", err)
	}

	// 0x87 is not valid standalone UTF-8 and isn't ASCII, so the default
	// decoder produces the replacement character. In CP437 it's 'ç'.
	text, err := charset.Decode([]byte{0x87})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if text != "ç" {
		t.Fatalf("Decode = %q, want %q", text, "ç")
	}

	// Fallback should stay in effect for plain ASCII too, until reset.
	text, err = charset.Decode([]byte("hi"))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if text != "hi" {
		t.Fatalf("Decode = %q, want %q", text, "hi")
	}

	charset.ResetFallback()

	// After reset, a clean ASCII decode no longer consults the fallback, and
	// an undecodable byte triggers the fallback decode afresh.
	text, err = charset.Decode([]byte{0x87})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if text != "ç" {
		t.Fatalf("Decode after reset = %q, want fallback to re-trigger on bad byte", text)
	}
}

func TestCharsetNoFallbackKeepsReplacementChar(t *testing.T) {
	charset, err := NewCharset("US-ASCII", "", CharsetUsageBinary)
	if err != nil {
		t.Fatalf("NewCharset: %v", err)
	}

	text, err := charset.Decode([]byte{0x87})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if text != "�" {
		t.Fatalf("Decode = %q, want replacement character", text)
	}
}
