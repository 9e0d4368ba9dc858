package runtimeio

import (
	"bytes"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"

	"pebl/internal/eventloop"
)

// holdWindow is how long a terminal key counts as held down. Terminals
// report presses only, so a press stands in for a short hold.
const holdWindow = 150 * time.Millisecond

// Terminal turns raw keystrokes on a terminal into event-loop input. It is
// both the loop's EventQueue and its DeviceState.
type Terminal struct {
	*eventloop.Buffer

	// onInterrupt runs when Ctrl-C is read, since raw mode stops the
	// terminal from sending SIGINT.
	onInterrupt func()

	fd    int
	state *term.State
	start time.Time
	feed  chan eventloop.Event

	mu     sync.Mutex
	held   string
	heldAt time.Time
	now    func() time.Time
}

// OpenTerminal puts f into raw mode and starts reading keys from it.
func OpenTerminal(f *os.File, onInterrupt func()) (*Terminal, error) {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return nil, ErrInputUnavailable
	}
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, err
	}
	t := newTerminal(onInterrupt)
	t.fd, t.state = fd, state
	go t.read(f)
	return t, nil
}

func newTerminal(onInterrupt func()) *Terminal {
	feed := make(chan eventloop.Event, 64)
	return &Terminal{
		Buffer:      eventloop.NewBuffer(feed),
		onInterrupt: onInterrupt,
		start:       time.Now(),
		feed:        feed,
		now:         time.Now,
	}
}

// Close restores the terminal mode.
func (t *Terminal) Close() error {
	if t.state == nil {
		return nil
	}
	err := term.Restore(t.fd, t.state)
	t.state = nil
	return err
}

func (t *Terminal) read(r io.Reader) {
	defer close(t.feed)
	buf := make([]byte, 64)
	for {
		n, err := r.Read(buf)
		for _, key := range decodeKeys(buf[:n]) {
			if key == "ctrl-c" {
				if t.onInterrupt != nil {
					t.onInterrupt()
				}
				continue
			}
			t.press(key)
		}
		if err != nil {
			return
		}
	}
}

func (t *Terminal) press(key string) {
	at := t.now()
	t.mu.Lock()
	t.held, t.heldAt = key, at
	t.mu.Unlock()

	ms := at.Sub(t.start).Milliseconds()
	t.feed <- eventloop.Event{Type: eventloop.DeviceKeyboard, Key: key, State: 1, Time: ms, Value: 1}
	t.feed <- eventloop.Event{Type: eventloop.DeviceKeyboard, Key: key, State: 0, Time: ms}
	if text := keyText(key); text != "" {
		t.feed <- eventloop.Event{Type: eventloop.DeviceTextInput, Key: key, Text: text, Time: ms}
	}
}

func (t *Terminal) Now() int64 {
	return t.now().Sub(t.start).Milliseconds()
}

func (t *Terminal) KeyDown(key string) bool {
	down := t.DownKey()
	return down != "" && strings.EqualFold(down, strings.Trim(key, "<>"))
}

func (t *Terminal) DownKey() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.held == "" || t.now().Sub(t.heldAt) > holdWindow {
		return ""
	}
	return t.held
}

func (*Terminal) MouseButton(int) bool { return false }

// Writer wraps w so that "\n" still starts a new line while the terminal
// is in raw mode.
func (t *Terminal) Writer(w io.Writer) io.Writer {
	return crlfWriter{w}
}

type crlfWriter struct{ w io.Writer }

func (c crlfWriter) Write(p []byte) (int, error) {
	if _, err := c.w.Write(bytes.ReplaceAll(p, []byte("\n"), []byte("\r\n"))); err != nil {
		return 0, err
	}
	return len(p), nil
}

var escapeKeys = map[byte]string{
	'A': "up",
	'B': "down",
	'C': "right",
	'D': "left",
}

// decodeKeys maps raw terminal bytes to key names.
func decodeKeys(b []byte) []string {
	var keys []string
	for i := 0; i < len(b); i++ {
		c := b[i]
		switch {
		case c == 0x1b:
			if i+2 < len(b) && b[i+1] == '[' {
				if name, ok := escapeKeys[b[i+2]]; ok {
					keys = append(keys, name)
					i += 2
					continue
				}
			}
			keys = append(keys, "escape")
		case c == 0x03:
			keys = append(keys, "ctrl-c")
		case c == '\r' || c == '\n':
			keys = append(keys, "enter")
		case c == '\t':
			keys = append(keys, "tab")
		case c == 0x7f || c == 0x08:
			keys = append(keys, "backspace")
		case c == ' ':
			keys = append(keys, "space")
		case c >= 'A' && c <= 'Z':
			keys = append(keys, string(c+'a'-'A'))
		case c > ' ' && c < 0x7f:
			keys = append(keys, string(c))
		}
	}
	return keys
}

func keyText(key string) string {
	switch {
	case key == "space":
		return " "
	case len(key) == 1:
		return key
	}
	return ""
}
