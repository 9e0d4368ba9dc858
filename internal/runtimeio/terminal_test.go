package runtimeio

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"pebl/internal/eventloop"
)

func TestDecodeKeys(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"aB1", []string{"a", "b", "1"}},
		{" \r\t\x7f", []string{"space", "enter", "tab", "backspace"}},
		{"\x1b[A\x1b[D", []string{"up", "left"}},
		{"\x1b", []string{"escape"}},
		{"\x03", []string{"ctrl-c"}},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, decodeKeys([]byte(tt.in))); diff != "" {
			t.Fatalf("decodeKeys(%q) mismatch (-want +got):\n%s", tt.in, diff)
		}
	}
}

func drain(t *testing.T, term *Terminal, n int) []eventloop.Event {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for term.Len() < n {
		if time.Now().After(deadline) {
			t.Fatalf("got %d events, want %d", term.Len(), n)
		}
		term.Prime()
		time.Sleep(time.Millisecond)
	}
	var out []eventloop.Event
	for !term.IsEmpty() {
		out = append(out, term.Pop())
	}
	return out
}

func TestTerminalEvents(t *testing.T) {
	interrupted := make(chan struct{}, 1)
	term := newTerminal(func() { interrupted <- struct{}{} })
	go term.read(strings.NewReader("x\x03\x1b[B"))

	type key struct {
		Type  eventloop.DeviceType
		Key   string
		State int64
		Text  string
	}
	var got []key
	for _, ev := range drain(t, term, 5) {
		got = append(got, key{ev.Type, ev.Key, ev.State, ev.Text})
	}
	want := []key{
		{eventloop.DeviceKeyboard, "x", 1, ""},
		{eventloop.DeviceKeyboard, "x", 0, ""},
		{eventloop.DeviceTextInput, "x", 0, "x"},
		{eventloop.DeviceKeyboard, "down", 1, ""},
		{eventloop.DeviceKeyboard, "down", 0, ""},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
	select {
	case <-interrupted:
	case <-time.After(time.Second):
		t.Fatalf("ctrl-c did not interrupt")
	}
}

func TestTerminalHold(t *testing.T) {
	term := newTerminal(nil)
	now := time.Now()
	term.now = func() time.Time { return now }
	term.press("q")
	term.Prime()

	if !term.KeyDown("<q>") || term.DownKey() != "q" {
		t.Fatalf("q should be held right after the press")
	}
	now = now.Add(holdWindow + time.Millisecond)
	if term.KeyDown("q") || term.DownKey() != "" {
		t.Fatalf("q should be released after the hold window")
	}
}

func TestCRLFWriter(t *testing.T) {
	var buf bytes.Buffer
	w := (&Terminal{}).Writer(&buf)
	n, err := w.Write([]byte("a\nb\n"))
	if err != nil || n != 4 {
		t.Fatalf("Write = %d, %v", n, err)
	}
	if buf.String() != "a\r\nb\r\n" {
		t.Fatalf("got %q", buf.String())
	}
}
