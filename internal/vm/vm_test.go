package vm

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"pebl/internal/limits"
	"pebl/internal/object"
	"pebl/internal/parser"
	"pebl/internal/runtime"
)

func load(t *testing.T, src string, libs ...runtime.Library) *runtime.Runtime {
	t.Helper()
	prog, diags := parser.ParseSource("test.pbl", src)
	if len(diags) > 0 {
		t.Fatalf("parse errors: %v", diags)
	}
	rt := runtime.NewValidator()
	if err := rt.LoadLibrary(libs); err != nil {
		t.Fatalf("LoadLibrary: %v", err)
	}
	if err := rt.LoadProgram(prog); err != nil {
		t.Fatalf("LoadProgram: %v", err)
	}
	return rt
}

func runStart(t *testing.T, rt *runtime.Runtime) object.Object {
	t.Helper()
	m := New(rt)
	if err := m.Start(object.NewList()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := m.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	res, err := m.PopValue()
	if err != nil {
		t.Fatalf("PopValue: %v", err)
	}
	if m.Depth() != 0 || m.ValueDepth() != 0 {
		t.Fatalf("stacks not drained: nodes=%d values=%d", m.Depth(), m.ValueDepth())
	}
	return res
}

type recorder struct{ got []string }

func (r *recorder) library() runtime.Library {
	return runtime.Library{Name: "Record", Min: 1, Max: 1,
		Fn: func(_ *runtime.Runtime, args []object.Object) (object.Object, error) {
			r.got = append(r.got, args[0].Inspect())
			return args[0], nil
		}}
}

func start(body string) string {
	return "define Start(p)\n{\n" + body + "\n}\n"
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"arithmetic", "return 1 + 2 * 3", "7"},
		{"exact division", "return 6 / 3", "2"},
		{"power", "return 2 ^ 10", "1024"},
		{"concat", `return "a" + "b"`, "ab"},
		{"comparison", "return 3 < 4", "1"},
		{"not", "return not 0", "1"},
		{"or", "return 0 or 2", "1"},
		{"and", "return 1 and 0", "0"},
		{"list", "return [1, 2 + 1, \"x\"]", "[1, 3, x]"},
		{"empty list", "return []", "[]"},
		{"while", "x <- 0\nwhile (x < 5) {\nx <- x + 1\n}\nreturn x", "5"},
		{"if false", "x <- 1\nif (0) {\nx <- 2\n}\nreturn x", "1"},
		{"if else", "if (0) {\nx <- 1\n} elseif (1) {\nx <- 2\n} else {\nx <- 3\n}\nreturn x", "2"},
		{"loop over integer", "s <- 0\nloop(i, 4) {\ns <- s + i\n}\nreturn s", "10"},
		{"property", "l <- [1, 2, 3]\nreturn l.length", "3"},
		{"implicit return", "x <- 5", "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := load(t, start(tt.body))
			got := runStart(t, rt)
			if got.Inspect() != tt.want {
				t.Fatalf("got %s, want %s", got.Inspect(), tt.want)
			}
		})
	}
}

func TestCallsAndDefaults(t *testing.T) {
	src := `
define Start(p)
{
  gSize <- 7
  y <- 5
  return [Add(1, 2), Add(1), Sized(), Echo()]
}

define Add(a, b:10)
{
  return a + b
}

define Sized(s:gSize)
{
  return s * 2
}

define Echo(a:y)
{
  return a
}
`
	got := runStart(t, load(t, src))
	if got.Inspect() != "[3, 11, 14, 5]" {
		t.Fatalf("got %s", got.Inspect())
	}
}

func TestBreakPropagation(t *testing.T) {
	rec := &recorder{}
	src := start(`
i <- 0
while (1) {
  i <- i + 1
  if (i > 2) {
    if (1) {
      break
    }
  }
  Record(i)
}
r <- 0
loop(x, [5, 6, 7, 8]) {
  Record(x)
  if (x == 6) {
    break
  }
}
return i`)
	got := runStart(t, load(t, src, rec.library()))
	if got.Inspect() != "3" {
		t.Fatalf("got %s, want 3", got.Inspect())
	}
	if diff := cmp.Diff([]string{"1", "2", "5", "6"}, rec.got); diff != "" {
		t.Fatalf("recorded mismatch (-want +got):\n%s", diff)
	}
}

func TestLoopVisitsList(t *testing.T) {
	rec := &recorder{}
	src := start(`
loop(x, [1, 2, 3]) {
  Record(x)
}
return x`)
	got := runStart(t, load(t, src, rec.library()))
	if got.Inspect() != "3" {
		t.Fatalf("loop variable = %s, want 3", got.Inspect())
	}
	if diff := cmp.Diff([]string{"1", "2", "3"}, rec.got); diff != "" {
		t.Fatalf("visits mismatch (-want +got):\n%s", diff)
	}
}

func TestScopeIsolation(t *testing.T) {
	src := `
define Start(p)
{
  x <- 1
  gX <- 1
  Touch()
  return [x, gX]
}

define Touch()
{
  x <- 99
  gX <- 2
}
`
	rt := load(t, src)
	got := runStart(t, rt)
	if got.Inspect() != "[1, 2]" {
		t.Fatalf("got %s, want [1, 2]", got.Inspect())
	}
	if rt.Globals.Has("x") {
		t.Fatalf("local leaked into globals")
	}
}

func TestSuspendResume(t *testing.T) {
	src := `
define Start(p)
{
  total <- 0
  loop(i, 6) {
    total <- total + Square(i)
  }
  return total
}

define Square(n)
{
  return n * n
}
`
	want := runStart(t, load(t, src))

	rt := load(t, src)
	m := New(rt)
	if err := m.Start(object.NewList()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	for i := 0; i < 40; i++ {
		if _, err := m.Step(); err != nil {
			t.Fatalf("Step: %v", err)
		}
	}
	snap := m.Snapshot()

	// keep going on the original so its frames diverge from the snapshot
	for i := 0; i < 25; i++ {
		if _, err := m.Step(); err != nil {
			t.Fatalf("Step: %v", err)
		}
	}

	resumed := New(rt)
	resumed.Restore(snap)
	if resumed.Depth() != snap.Depth() {
		t.Fatalf("restored depth %d, want %d", resumed.Depth(), snap.Depth())
	}
	if err := resumed.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	got, err := resumed.PopValue()
	if err != nil {
		t.Fatalf("PopValue: %v", err)
	}
	if got.Inspect() != want.Inspect() || want.Inspect() != "91" {
		t.Fatalf("resumed = %s, uninterrupted = %s, want 91", got.Inspect(), want.Inspect())
	}
}

func TestSuspendResumeGlobals(t *testing.T) {
	src := `
define Start(p)
{
  gTotal <- 0
  loop(i, 6) {
    gTotal <- gTotal + i
  }
  return gTotal
}
`
	rt := load(t, src)
	m := New(rt)
	if err := m.Start(object.NewList()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	// stop partway through the loop, once 1 + 2 has been added
	for {
		if v, ok := rt.Globals.Get("gTotal"); ok && v.Inspect() == "3" {
			break
		}
		ran, err := m.Step()
		if err != nil {
			t.Fatalf("Step: %v", err)
		}
		if !ran {
			t.Fatalf("program finished before gTotal reached 3")
		}
	}
	snap := m.Snapshot()

	if err := m.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got, _ := m.PopValue(); got.Inspect() != "21" {
		t.Fatalf("uninterrupted = %s, want 21", got.Inspect())
	}

	tests := []struct {
		name string
		rt   *runtime.Runtime
	}{
		{"same runtime", rt},
		{"fresh runtime", load(t, src)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resumed := New(tt.rt)
			resumed.Restore(snap)
			if err := resumed.Run(); err != nil {
				t.Fatalf("Run: %v", err)
			}
			got, err := resumed.PopValue()
			if err != nil {
				t.Fatalf("PopValue: %v", err)
			}
			if got.Inspect() != "21" {
				t.Fatalf("resumed = %s, want 21", got.Inspect())
			}
		})
	}
}

func TestStepOnEmptyMachine(t *testing.T) {
	m := New(runtime.NewValidator())
	ran, err := m.Step()
	if err != nil || ran {
		t.Fatalf("Step on empty machine = (%v, %v), want (false, nil)", ran, err)
	}
}

func TestEmptyPopIsFatal(t *testing.T) {
	m := New(runtime.NewValidator())
	_, err := m.PopValue()
	var fe *runtime.FatalError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *runtime.FatalError, got %v", err)
	}
	if !strings.HasPrefix(fe.Message, limits.EmptyStackMessage) {
		t.Fatalf("message = %q", fe.Message)
	}
}

func TestRunawayRecursion(t *testing.T) {
	src := `
define Start(p)
{
  return Down(1)
}

define Down(n)
{
  return Down(n + 1)
}
`
	rt := load(t, src)
	rt.MaxDepth = 200
	m := New(rt)
	if err := m.Start(object.NewList()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	err := m.Run()
	var fe *runtime.FatalError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *runtime.FatalError, got %v", err)
	}
	if fe.Message != limits.StackDepthMessage {
		t.Fatalf("message = %q", fe.Message)
	}
	if fe.Scope != "Down" || len(fe.Trace) < 2 {
		t.Fatalf("scope = %q, trace = %d frames", fe.Scope, len(fe.Trace))
	}
}

func TestExitPolicy(t *testing.T) {
	rt := load(t, start("return gMissing"))
	rt.Policy = runtime.PolicyExit
	var errOut strings.Builder
	rt.Err = &errOut
	code := -1
	rt.Exit = func(c int) { code = c }

	m := New(rt)
	_ = m.Start(object.NewList())
	if err := m.Run(); err == nil {
		t.Fatalf("expected an error")
	}
	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if !strings.Contains(errOut.String(), "Variable [gMissing] not found") {
		t.Fatalf("stderr = %q", errOut.String())
	}
}

func TestMaxSteps(t *testing.T) {
	rt := load(t, start("while (1) {\nx <- 1\n}"))
	m := New(rt)
	m.SetMaxSteps(500)
	_ = m.Start(object.NewList())
	err := m.Run()
	var fe *runtime.FatalError
	if !errors.As(err, &fe) || fe.Message != limits.MaxStepsMessage(500) {
		t.Fatalf("got %v", err)
	}
	if m.Steps() != 500 {
		t.Fatalf("steps = %d, want 500", m.Steps())
	}
}

func TestMethodDispatch(t *testing.T) {
	mk := runtime.Library{Name: "MakeObj", Min: 0, Max: 0,
		Fn: func(*runtime.Runtime, []object.Object) (object.Object, error) {
			o := object.NewCustomObject("thing")
			_ = o.SetProperty("Draw", &object.FunctionRef{Name: "DrawThing"})
			return o, nil
		}}
	src := `
define Start(p)
{
  o <- MakeObj()
  return Draw(o, 4)
}

define Draw(o, n)
{
  return 0
}

define DrawThing(o, n)
{
  return n + 100
}
`
	got := runStart(t, load(t, src, mk))
	if got.Inspect() != "104" {
		t.Fatalf("got %s, want 104", got.Inspect())
	}
}

func TestCallThroughRuntime(t *testing.T) {
	call := runtime.Library{Name: "CallFunction", Min: 2, Max: 2,
		Fn: func(rt *runtime.Runtime, args []object.Object) (object.Object, error) {
			return rt.Call(args[0].Inspect(), args[1].(*object.List))
		}}
	src := `
define Start(p)
{
  return CallFunction("Twice", [21])
}

define Twice(n)
{
  return n * 2
}
`
	got := runStart(t, load(t, src, call))
	if got.Inspect() != "42" {
		t.Fatalf("got %s, want 42", got.Inspect())
	}
}

type tickCycler struct {
	n, max   int
	returned []string
}

func (c *tickCycler) RunCycle(m *Machine) (bool, error) {
	c.n++
	if c.n > c.max {
		return false, nil
	}
	return true, m.ScheduleCall("Tick", object.NewList(object.NewInteger(int64(c.n))), c.n, c)
}

func (c *tickCycler) Result() object.Object { return object.NewString("done") }

func (c *tickCycler) CallbackReturned(id int, v object.Object) error {
	c.returned = append(c.returned, v.Inspect())
	return nil
}

func TestEventCycleYields(t *testing.T) {
	c := &tickCycler{max: 3}
	loop := runtime.Library{Name: "StartLoop", Min: 0, Max: 0,
		Fn: func(rt *runtime.Runtime, _ []object.Object) (object.Object, error) {
			return nil, rt.Engine().(*Machine).PushCycle(c)
		}}
	src := `
define Start(p)
{
  x <- StartLoop()
  return x
}

define Tick(n)
{
  return n * 10
}
`
	rt := load(t, src, loop)
	m := New(rt)
	_ = m.Start(object.NewList())

	frames := 0
	for {
		more, err := m.RunFrame(1000)
		if err != nil {
			t.Fatalf("RunFrame: %v", err)
		}
		frames++
		if !more {
			break
		}
		if frames > 10 {
			t.Fatalf("event loop did not stop")
		}
	}
	if frames != 4 {
		t.Fatalf("frames = %d, want 4", frames)
	}
	if diff := cmp.Diff([]string{"10", "20", "30"}, c.returned); diff != "" {
		t.Fatalf("callback results mismatch (-want +got):\n%s", diff)
	}
	got, err := m.PopValue()
	if err != nil || got.Inspect() != "done" {
		t.Fatalf("result = %v, %v", got, err)
	}
}
