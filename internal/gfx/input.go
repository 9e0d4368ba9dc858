package gfx

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"pebl/internal/eventloop"
)

// Queue is the event loop's view of window input. collect runs at the top
// of every frame and turns ebiten's per-frame edges into events; Prime
// hands them to the loop.
type Queue struct {
	dev *Device
	buf *eventloop.Buffer

	mu      sync.Mutex
	pending []eventloop.Event
	lastX   int
	lastY   int
	chars   []rune
}

func newQueue(dev *Device) *Queue {
	return &Queue{dev: dev, buf: eventloop.NewBuffer(nil)}
}

func (q *Queue) add(ev eventloop.Event) {
	q.mu.Lock()
	q.pending = append(q.pending, ev)
	q.mu.Unlock()
}

func (q *Queue) collect() {
	now := q.dev.Now()
	for _, name := range keyNames {
		k := keyMap[name]
		if inpututil.IsKeyJustPressed(k) {
			q.add(eventloop.Event{Type: eventloop.DeviceKeyboard, Key: name, State: 1, Time: now})
		}
		if inpututil.IsKeyJustReleased(k) {
			q.add(eventloop.Event{Type: eventloop.DeviceKeyboard, Key: name, State: 0, Time: now})
		}
	}

	for n, b := range mouseButtons {
		if inpututil.IsMouseButtonJustPressed(b) {
			q.add(q.mouseButton(n+1, 1, now))
		}
		if inpututil.IsMouseButtonJustReleased(b) {
			q.add(q.mouseButton(n+1, 0, now))
		}
	}

	x, y := ebiten.CursorPosition()
	if x != q.lastX || y != q.lastY {
		q.lastX, q.lastY = x, y
		q.add(eventloop.Event{Type: eventloop.DeviceMouseMovement, X: int64(x), Y: int64(y), Time: now})
	}

	q.chars = ebiten.AppendInputChars(q.chars[:0])
	for _, r := range q.chars {
		q.add(eventloop.Event{Type: eventloop.DeviceTextInput, Text: string(r), Time: now})
	}
}

func (q *Queue) mouseButton(n int, state int64, now int64) eventloop.Event {
	x, y := ebiten.CursorPosition()
	return eventloop.Event{
		Type:   eventloop.DeviceMouseButton,
		Button: int64(n),
		State:  state,
		X:      int64(x),
		Y:      int64(y),
		Time:   now,
		Value:  state,
	}
}

func (q *Queue) resized(w, h int) {
	q.add(eventloop.Event{Type: eventloop.DeviceWindow, X: int64(w), Y: int64(h), Time: q.dev.Now()})
}

func (q *Queue) Prime() {
	q.mu.Lock()
	pending := q.pending
	q.pending = nil
	q.mu.Unlock()
	for _, ev := range pending {
		q.buf.Push(ev)
	}
}

func (q *Queue) IsEmpty() bool                  { return q.buf.IsEmpty() }
func (q *Queue) PeekType() eventloop.DeviceType { return q.buf.PeekType() }
func (q *Queue) Peek() eventloop.Event          { return q.buf.Peek() }
func (q *Queue) Pop() eventloop.Event           { return q.buf.Pop() }

// Device answers live input questions from ebiten's current state.
type Device struct {
	start time.Time
}

func (d *Device) Now() int64 {
	return time.Since(d.start).Milliseconds()
}

func (d *Device) KeyDown(key string) bool {
	k, ok := keyMap[normalizeKey(key)]
	return ok && ebiten.IsKeyPressed(k)
}

func (d *Device) DownKey() string {
	for _, name := range keyNames {
		if ebiten.IsKeyPressed(keyMap[name]) {
			return name
		}
	}
	return ""
}

func (d *Device) MouseButton(n int) bool {
	if n < 1 || n > len(mouseButtons) {
		return false
	}
	return ebiten.IsMouseButtonPressed(mouseButtons[n-1])
}

// normalizeKey accepts both "space" and "<space>" spellings in any case.
func normalizeKey(key string) string {
	k := strings.ToLower(strings.TrimSpace(key))
	k = strings.TrimSuffix(strings.TrimPrefix(k, "<"), ">")
	if alias, ok := keyAliases[k]; ok {
		return alias
	}
	return k
}

var mouseButtons = []ebiten.MouseButton{
	ebiten.MouseButtonLeft,
	ebiten.MouseButtonMiddle,
	ebiten.MouseButtonRight,
}

var keyMap = map[string]ebiten.Key{
	"space":     ebiten.KeySpace,
	"enter":     ebiten.KeyEnter,
	"escape":    ebiten.KeyEscape,
	"backspace": ebiten.KeyBackspace,
	"tab":       ebiten.KeyTab,
	"left":      ebiten.KeyArrowLeft,
	"right":     ebiten.KeyArrowRight,
	"up":        ebiten.KeyArrowUp,
	"down":      ebiten.KeyArrowDown,
	"shift":     ebiten.KeyShift,
	"ctrl":      ebiten.KeyControl,
	"alt":       ebiten.KeyAlt,
}

var keyAliases = map[string]string{
	"return": "enter",
	"esc":    "escape",
	"lshift": "shift",
	"rshift": "shift",
}

// keyNames is keyMap's names in a fixed order, so DownKey and collect do
// not depend on map iteration.
var keyNames []string

func init() {
	for ch := 'a'; ch <= 'z'; ch++ {
		keyMap[string(ch)] = ebiten.KeyA + ebiten.Key(ch-'a')
	}
	for ch := '0'; ch <= '9'; ch++ {
		keyMap[string(ch)] = ebiten.Key0 + ebiten.Key(ch-'0')
	}
	for name := range keyMap {
		keyNames = append(keyNames, name)
	}
	sort.Strings(keyNames)
}
