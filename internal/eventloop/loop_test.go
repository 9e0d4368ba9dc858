package eventloop

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"pebl/internal/evaluator"
	"pebl/internal/object"
	"pebl/internal/parser"
	"pebl/internal/runtime"
	"pebl/internal/vm"
)

type fakeDevice struct {
	now  int64
	step int64
	down map[string]bool
}

func (d *fakeDevice) Now() int64 {
	d.now += d.step
	return d.now
}

func (d *fakeDevice) KeyDown(key string) bool { return d.down[key] }

func (d *fakeDevice) DownKey() string {
	for k, v := range d.down {
		if v {
			return k
		}
	}
	return ""
}

func (d *fakeDevice) MouseButton(int) bool { return false }

func setup(t *testing.T, src string, q EventQueue, d DeviceState) (*runtime.Runtime, *Loop) {
	t.Helper()
	prog, diags := parser.ParseSource("loop.pbl", src)
	if len(diags) > 0 {
		t.Fatalf("parse errors: %v", diags)
	}
	rt := runtime.NewValidator()
	l := New(rt, q, d)
	l.Idle = nil
	if err := rt.LoadLibrary(l.Functions()); err != nil {
		t.Fatalf("LoadLibrary: %v", err)
	}
	if err := rt.LoadProgram(prog); err != nil {
		t.Fatalf("LoadProgram: %v", err)
	}
	return rt, l
}

func runVM(t *testing.T, rt *runtime.Runtime) object.Object {
	t.Helper()
	m := vm.New(rt)
	if err := m.Start(object.NewList()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := m.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	v, err := m.PopValue()
	if err != nil {
		t.Fatalf("PopValue: %v", err)
	}
	return v
}

func runRecursive(t *testing.T, rt *runtime.Runtime) object.Object {
	t.Helper()
	v, err := evaluator.New(rt).Start(object.NewList())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	return v
}

func TestConditionHolds(t *testing.T) {
	tests := []struct {
		cond      Condition
		got, want int64
		expected  bool
	}{
		{Equal, 1, 1, true},
		{Equal, 0, 1, false},
		{NotEqual, 0, 1, true},
		{Less, 1, 2, true},
		{Greater, 1, 2, false},
		{LessEqual, 2, 2, true},
		{GreaterEqual, 3, 2, true},
		{Always, 0, 9, true},
		{Never, 9, 9, false},
	}
	for _, tt := range tests {
		if got := tt.cond.Holds(tt.got, tt.want); got != tt.expected {
			t.Fatalf("%s.Holds(%d, %d) = %v, want %v", tt.cond, tt.got, tt.want, got, tt.expected)
		}
	}
	if c, ok := ParseCondition("<geq>"); !ok || c != GreaterEqual {
		t.Fatalf("ParseCondition(<geq>) = %v, %v", c, ok)
	}
}

const scheduling = `
define Start(p)
{
  gKeys <- 0
  gTicks <- 0
  RegisterEvent("<KEY_PRESS>", "a", 0, "<EQUAL>", "OnKey", [7])
  RegisterEvent("<TIMER>", 0, 50, "<GEQ>", "OnTimer", [])
  r <- StartEventLoop()
  return [gKeys, gTicks, r.type]
}

define OnKey(n, ev)
{
  gKeys <- gKeys + n
  return "<REMOVE>"
}

define OnTimer(ev)
{
  gTicks <- gTicks + 1
  if (gTicks >= 3) {
    gKeepLooping <- 0
  }
}
`

func TestStartEventLoopBothEvaluators(t *testing.T) {
	run := map[string]func(*testing.T, *runtime.Runtime) object.Object{
		"iterative": runVM,
		"recursive": runRecursive,
	}
	results := map[string]string{}
	for name, fn := range run {
		q := NewBuffer(nil)
		q.Push(Event{Type: DeviceKeyboard, Key: "a", State: 1})
		rt, l := setup(t, scheduling, q, &fakeDevice{now: 100})
		results[name] = fn(t, rt).Inspect()
		if l.Len() != 1 {
			t.Fatalf("%s: %d registrations left, want 1", name, l.Len())
		}
		if rt.KeepLooping() {
			t.Fatalf("%s: gKeepLooping still set", name)
		}
	}
	want := map[string]string{
		"iterative": "[7, 3, <TIMER>]",
		"recursive": "[7, 3, <TIMER>]",
	}
	if diff := cmp.Diff(want, results); diff != "" {
		t.Fatalf("results mismatch (-want +got):\n%s", diff)
	}
}

func TestRunCycleFiresOneMatchAndDropsUnmatched(t *testing.T) {
	src := `
define Start(p)
{
}

define OnKey(ev)
{
  return ev.key
}
`
	q := NewBuffer(nil)
	q.Push(Event{Type: DeviceMouseMovement, X: 3, Y: 4})
	q.Push(Event{Type: DeviceKeyboard, Key: "b", State: 1})
	rt, l := setup(t, src, q, &fakeDevice{})
	if _, err := l.RegisterEvent(Test{Device: DeviceKeyboard, Value: 1, Condition: Equal}, "OnKey", nil); err != nil {
		t.Fatalf("RegisterEvent: %v", err)
	}
	m := vm.New(rt)

	more, err := l.RunCycle(m)
	if err != nil || !more {
		t.Fatalf("first cycle = %v, %v", more, err)
	}
	if m.Depth() != 0 || q.Len() != 1 {
		t.Fatalf("unmatched cycle scheduled work (%d) or kept the mouse event (queue %d)", m.Depth(), q.Len())
	}

	more, err = l.RunCycle(m)
	if err != nil || !more {
		t.Fatalf("second cycle = %v, %v", more, err)
	}
	if m.Depth() == 0 || !q.IsEmpty() {
		t.Fatalf("matching cycle did not schedule the callback")
	}
	if err := m.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if m.ValueDepth() != 0 {
		t.Fatalf("callback result left on the value stack")
	}
}

func TestRemoveSentinels(t *testing.T) {
	for _, sentinel := range []string{"<REMOVE>", "<remove>"} {
		src := `
define Start(p)
{
  RegisterEvent("<TIMER>", 0, 0, "<GEQ>", "Once", [])
  StartEventLoop()
  return gCalls
}

define Once(ev)
{
  gCalls <- 1
  return "` + sentinel + `"
}
`
		rt, l := setup(t, src, nil, &fakeDevice{})
		got := runVM(t, rt)
		if got.Inspect() != "1" || l.Len() != 0 {
			t.Fatalf("%s: got %s with %d registrations", sentinel, got.Inspect(), l.Len())
		}
	}
}

func TestWaitForKeyDown(t *testing.T) {
	src := `
define Start(p)
{
  return [WaitForKeyDown("space"), WaitForAnyKeyDown()]
}
`
	dev := &fakeDevice{down: map[string]bool{"space": true}}
	for name, run := range map[string]func(*testing.T, *runtime.Runtime) object.Object{
		"iterative": runVM,
		"recursive": runRecursive,
	} {
		rt, l := setup(t, src, nil, dev)
		got := run(t, rt)
		if got.Inspect() != "[space, space]" {
			t.Fatalf("%s: got %s", name, got.Inspect())
		}
		if l.Len() != 0 || l.Running() {
			t.Fatalf("%s: wait left %d registrations, running=%v", name, l.Len(), l.Running())
		}
	}
}

func TestWaitUsesTimer(t *testing.T) {
	src := `
define Start(p)
{
  return Wait(30)
}
`
	dev := &fakeDevice{now: 1000, step: 10}
	rt, _ := setup(t, src, nil, dev)
	got := runVM(t, rt)
	n, ok := got.(*object.Integer)
	if !ok || n.Value < 1040 {
		t.Fatalf("Wait returned %s, want a time of at least 1040", got.Inspect())
	}
}

func TestEventLoopYieldsEachCycle(t *testing.T) {
	src := `
define Start(p)
{
  gTicks <- 0
  RegisterEvent("<TIMER>", 0, 0, "<GEQ>", "Tick", [])
  StartEventLoop()
  return gTicks
}

define Tick(ev)
{
  gTicks <- gTicks + 1
  if (gTicks == 5) {
    gKeepLooping <- 0
  }
}
`
	rt, _ := setup(t, src, nil, &fakeDevice{})
	m := vm.New(rt)
	_ = m.Start(object.NewList())
	frames := 0
	for more := true; more; frames++ {
		var err error
		if more, err = m.RunFrame(10000); err != nil {
			t.Fatalf("RunFrame: %v", err)
		}
		if frames > 100 {
			t.Fatalf("loop never ended")
		}
	}
	if frames < 5 {
		t.Fatalf("frames = %d, expected a yield per cycle", frames)
	}
	got, err := m.PopValue()
	if err != nil || got.Inspect() != "5" {
		t.Fatalf("result = %v, %v", got, err)
	}
}

func TestEmptyLoopEndsImmediately(t *testing.T) {
	rt, l := setup(t, "define Start(p)\n{\n  return StartEventLoop()\n}\n", nil, &fakeDevice{})
	got := runVM(t, rt)
	if got.Inspect() != "1" || l.Running() {
		t.Fatalf("got %s, running=%v", got.Inspect(), l.Running())
	}
}

func TestUndefinedCallback(t *testing.T) {
	_, l := setup(t, "define Start(p)\n{\n}\n", nil, nil)
	if _, err := l.RegisterState(Test{Device: DeviceTimer}, "Nope", nil); err == nil {
		t.Fatalf("expected an error")
	}
	if l.Len() != 0 {
		t.Fatalf("failed registration was kept")
	}
}

func TestBufferFeed(t *testing.T) {
	feed := make(chan Event, 4)
	b := NewBuffer(feed)
	feed <- Event{Type: DeviceKeyboard, Key: "x"}
	feed <- Event{Type: DeviceMouseButton, Button: 1}
	if !b.IsEmpty() {
		t.Fatalf("events visible before Prime")
	}
	b.Prime()
	if b.Len() != 2 || b.PeekType() != DeviceKeyboard {
		t.Fatalf("Prime moved %d events, head %s", b.Len(), b.PeekType())
	}
	if ev := b.Pop(); ev.Key != "x" {
		t.Fatalf("Pop = %+v", ev)
	}
	close(feed)
	b.Prime()
	if b.Len() != 1 {
		t.Fatalf("Len = %d", b.Len())
	}
}
