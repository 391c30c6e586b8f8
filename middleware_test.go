package telnet

import (
	"reflect"
	"testing"
)

type recordingMiddleware struct {
	name string
	log  *[]string
}

func (m recordingMiddleware) Handle(terminal *Terminal, data TerminalData, next TerminalDataHandler) {
	*m.log = append(*m.log, m.name+":in")
	next(terminal, data)
	*m.log = append(*m.log, m.name+":out")
}

func TestMiddlewareStackOrdering(t *testing.T) {
	var log []string
	var received TerminalData

	stack := NewMiddlewareStack(func(_ *Terminal, data TerminalData) {
		received = data
	}, recordingMiddleware{"a", &log}, recordingMiddleware{"b", &log})

	stack.LineIn(nil, TextData("hi"))

	wantLog := []string{"a:in", "b:in", "b:out", "a:out"}
	if !reflect.DeepEqual(log, wantLog) {
		t.Fatalf("call order = %v, want %v", log, wantLog)
	}
	if received != TextData("hi") {
		t.Fatalf("lineOut received = %v, want TextData(hi)", received)
	}
}

func TestMiddlewareStackNoMiddlewares(t *testing.T) {
	var received TerminalData

	stack := NewMiddlewareStack(func(_ *Terminal, data TerminalData) {
		received = data
	})

	stack.LineIn(nil, ControlCodeData('\n'))

	if received != ControlCodeData('\n') {
		t.Fatalf("lineOut received = %v, want ControlCodeData(\\n)", received)
	}
}

func TestMiddlewareStackPushAndRemove(t *testing.T) {
	var log []string

	m1 := recordingMiddleware{"first", &log}
	m2 := recordingMiddleware{"second", &log}

	stack := NewMiddlewareStack(func(_ *Terminal, _ TerminalData) {
		log = append(log, "sink")
	}, m1)

	stack.PushMiddleware(m2)
	stack.LineIn(nil, TextData("x"))

	wantLog := []string{"second:in", "first:in", "sink", "first:out", "second:out"}
	if !reflect.DeepEqual(log, wantLog) {
		t.Fatalf("call order after push = %v, want %v", log, wantLog)
	}

	log = nil
	stack.RemoveMiddleware(m2)
	stack.LineIn(nil, TextData("y"))

	wantLog = []string{"first:in", "sink", "first:out"}
	if !reflect.DeepEqual(log, wantLog) {
		t.Fatalf("call order after remove = %v, want %v", log, wantLog)
	}
}
