package eventloop

import (
	"strconv"
	"strings"

	"pebl/internal/object"
)

type DeviceType int

const (
	DeviceUnknown DeviceType = iota
	DeviceDummy
	DeviceKeyboard
	DeviceMouseMovement
	DeviceMouseButton
	DeviceTimer
	DeviceWindow
	DeviceTextInput
)

var deviceNames = map[DeviceType]string{
	DeviceUnknown:       "<UNKNOWN>",
	DeviceDummy:         "<DUMMY>",
	DeviceKeyboard:      "<KEYBOARD>",
	DeviceMouseMovement: "<MOUSE_MOVEMENT>",
	DeviceMouseButton:   "<MOUSE_BUTTON>",
	DeviceTimer:         "<TIMER>",
	DeviceWindow:        "<WINDOW>",
	DeviceTextInput:     "<TEXT_INPUT>",
}

func (d DeviceType) String() string {
	if name, ok := deviceNames[d]; ok {
		return name
	}
	return "<DEVICE(" + strconv.Itoa(int(d)) + ")>"
}

type Condition int

const (
	Equal Condition = iota
	NotEqual
	Less
	Greater
	LessEqual
	GreaterEqual
	Always
	Never
)

var conditionNames = map[string]Condition{
	"<EQUAL>":       Equal,
	"<NOTEQUAL>":    NotEqual,
	"<LESSTHAN>":    Less,
	"<GREATERTHAN>": Greater,
	"<LEQ>":         LessEqual,
	"<GEQ>":         GreaterEqual,
	"<TRUE>":        Always,
	"<FALSE>":       Never,
}

// ParseCondition reads a comparison name such as "<GEQ>". Case is ignored.
func ParseCondition(s string) (Condition, bool) {
	c, ok := conditionNames[strings.ToUpper(s)]
	return c, ok
}

func (c Condition) String() string {
	for name, cc := range conditionNames {
		if cc == c {
			return name
		}
	}
	return "<CONDITION(" + strconv.Itoa(int(c)) + ")>"
}

// Holds compares a device reading against a test's target value.
func (c Condition) Holds(got, want int64) bool {
	switch c {
	case Equal:
		return got == want
	case NotEqual:
		return got != want
	case Less:
		return got < want
	case Greater:
		return got > want
	case LessEqual:
		return got <= want
	case GreaterEqual:
		return got >= want
	case Always:
		return true
	}
	return false
}

// Event is one input occurrence, either taken from the queue or made up
// when a state test fires.
type Event struct {
	Type   DeviceType
	Key    string
	State  int64 // 1 pressed, 0 released
	Button int64
	X, Y   int64
	Time   int64
	Value  int64
	Text   string
}

// reading is the number an event test compares against its target.
func (e Event) reading() int64 {
	switch e.Type {
	case DeviceKeyboard, DeviceMouseButton:
		return e.State
	case DeviceTimer:
		return e.Time
	}
	return e.Value
}

// Object is the event as scripts see it: a custom object named "event".
func (e Event) Object() *object.CustomObject {
	o := object.NewCustomObject("event")
	set := func(name string, v object.Object) { _ = o.SetProperty(name, v) }
	set("type", object.NewString(e.Type.String()))
	set("key", object.NewString(e.Key))
	set("state", object.NewInteger(e.State))
	set("button", object.NewInteger(e.Button))
	set("x", object.NewInteger(e.X))
	set("y", object.NewInteger(e.Y))
	set("time", object.NewInteger(e.Time))
	set("value", object.NewInteger(e.Value))
	set("text", object.NewString(e.Text))
	return o
}

// EventQueue is the platform's queue of discrete input events. Prime pulls
// whatever the platform has pending into the queue.
type EventQueue interface {
	Prime()
	IsEmpty() bool
	PeekType() DeviceType
	Peek() Event
	Pop() Event
}

// DeviceState answers live questions about the input devices. DownKey is
// any key currently held, or "".
type DeviceState interface {
	Now() int64
	KeyDown(key string) bool
	DownKey() string
	MouseButton(n int) bool
}

// Test is a registered condition. Interface selects the key or button;
// for keyboard tests an empty Interface or "<anykey>" matches any key.
type Test struct {
	Device    DeviceType
	Value     int64
	Interface string
	Condition Condition
}

func anyKey(iface string) bool {
	return iface == "" || strings.EqualFold(iface, "<anykey>")
}

// sameKey compares key names ignoring case and the "<name>" brackets.
func sameKey(a, b string) bool {
	trim := func(s string) string { return strings.TrimSuffix(strings.TrimPrefix(s, "<"), ">") }
	return strings.EqualFold(trim(a), trim(b))
}

// matchEvent reports whether ev, already known to be of t's device type,
// satisfies t.
func (t Test) matchEvent(ev Event) bool {
	switch t.Device {
	case DeviceKeyboard:
		if !anyKey(t.Interface) && !sameKey(t.Interface, ev.Key) {
			return false
		}
	case DeviceMouseButton:
		if n, err := strconv.Atoi(t.Interface); err == nil && int64(n) != ev.Button {
			return false
		}
	}
	return t.Condition.Holds(ev.reading(), t.Value)
}

// poll tests a live device. When it fires, the returned event describes
// the reading.
func (t Test) poll(d DeviceState) (Event, bool) {
	now := d.Now()
	switch t.Device {
	case DeviceTimer:
		if t.Condition.Holds(now, t.Value) {
			return Event{Type: DeviceTimer, Time: now, Value: now}, true
		}
	case DeviceKeyboard:
		key := t.Interface
		var down bool
		if anyKey(key) {
			key = d.DownKey()
			down = key != ""
		} else {
			down = d.KeyDown(key)
		}
		state := int64(0)
		if down {
			state = 1
		}
		if t.Condition.Holds(state, t.Value) {
			return Event{Type: DeviceDummy, Key: key, State: state, Time: now, Value: state}, true
		}
	case DeviceMouseButton:
		n, err := strconv.Atoi(t.Interface)
		if err != nil {
			n = 1
		}
		state := int64(0)
		if d.MouseButton(n) {
			state = 1
		}
		if t.Condition.Holds(state, t.Value) {
			return Event{Type: DeviceDummy, Button: int64(n), State: state, Time: now, Value: state}, true
		}
	}
	return Event{}, false
}

// Buffer is an EventQueue over an in-memory FIFO. Producers on other
// goroutines send on the feed channel; Prime moves what has arrived into
// the queue. Push is for producers on the loop's own goroutine.
type Buffer struct {
	events []Event
	feed   <-chan Event
}

func NewBuffer(feed <-chan Event) *Buffer {
	return &Buffer{feed: feed}
}

func (b *Buffer) Push(ev Event) { b.events = append(b.events, ev) }

func (b *Buffer) Prime() {
	if b.feed == nil {
		return
	}
	for {
		select {
		case ev, ok := <-b.feed:
			if !ok {
				b.feed = nil
				return
			}
			b.events = append(b.events, ev)
		default:
			return
		}
	}
}

func (b *Buffer) IsEmpty() bool { return len(b.events) == 0 }
func (b *Buffer) Len() int      { return len(b.events) }

func (b *Buffer) PeekType() DeviceType {
	if len(b.events) == 0 {
		return DeviceUnknown
	}
	return b.events[0].Type
}

func (b *Buffer) Peek() Event {
	if len(b.events) == 0 {
		return Event{}
	}
	return b.events[0]
}

func (b *Buffer) Pop() Event {
	if len(b.events) == 0 {
		return Event{}
	}
	ev := b.events[0]
	b.events = b.events[1:]
	return ev
}

// Clock is a DeviceState with a timer and no input devices.
type Clock func() int64

func (c Clock) Now() int64         { return c() }
func (Clock) KeyDown(string) bool  { return false }
func (Clock) DownKey() string      { return "" }
func (Clock) MouseButton(int) bool { return false }
