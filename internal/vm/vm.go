package vm

import (
	"context"

	"pebl/internal/ast"
	"pebl/internal/limits"
	"pebl/internal/object"
	"pebl/internal/runtime"
)

// Cycler runs one event-loop cycle. RunCycle may schedule a callback on
// the machine and reports whether the loop goes on; once it stops, Result
// (if non-nil) replaces the value that started the loop.
type Cycler interface {
	RunCycle(m *Machine) (bool, error)
	Result() object.Object
}

// CallbackSink receives the result of a call scheduled by ScheduleCall.
type CallbackSink interface {
	CallbackReturned(id int, result object.Object) error
}

// Machine evaluates without recursion: a node stack of pending work, a
// value stack of results, a scope stack of callers' frames and the
// current frame. Execution can stop between any two Steps and resume
// later.
type Machine struct {
	rt *runtime.Runtime

	nodes  []work
	values []object.Object
	frames []Frame

	scope *object.Scope
	name  string

	maxDepth int
	budget   *limits.Budget
	yield    bool
	last     ast.Node
}

func New(rt *runtime.Runtime) *Machine {
	return &Machine{
		rt:       rt,
		scope:    object.NewScope(),
		maxDepth: rt.MaxDepth,
		budget:   limits.NewBudget(rt.MaxSteps),
	}
}

func (m *Machine) Runtime() *runtime.Runtime { return m.rt }

// SetMaxSteps bounds the total number of steps; 0 is unlimited.
func (m *Machine) SetMaxSteps(n int64) { m.budget = limits.NewBudget(n) }

func (m *Machine) Steps() int64 { return m.budget.Used() }

func (m *Machine) Depth() int      { return len(m.nodes) }
func (m *Machine) ValueDepth() int { return len(m.values) }

// Scope is the frame locals currently resolve against.
func (m *Machine) Scope() *object.Scope { return m.scope }

// SetScope replaces the current frame, as for top-level evaluation in a
// REPL.
func (m *Machine) SetScope(s *object.Scope) { m.scope = s }

// Clear drops all pending work and values.
func (m *Machine) Clear() {
	m.nodes = m.nodes[:0]
	m.values = m.values[:0]
	m.frames = m.frames[:0]
	m.scope = object.NewScope()
	m.name = ""
	m.yield = false
}

/* -------------------- stacks -------------------- */

// Push queues node for evaluation. It runs before anything already queued.
func (m *Machine) Push(node ast.Node) error {
	return m.pushWork(nodeWork(node))
}

func (m *Machine) PushValue(v object.Object) error {
	if m.maxDepth > 0 && len(m.values) >= m.maxDepth {
		return m.rt.Fatal(m.last, limits.StackDepthMessage)
	}
	m.values = append(m.values, v)
	return nil
}

func (m *Machine) PopValue() (object.Object, error) {
	if len(m.values) == 0 {
		return nil, m.rt.Fatal(m.last, limits.EmptyStackError{Stack: "value"}.Error())
	}
	v := m.values[len(m.values)-1]
	m.values = m.values[:len(m.values)-1]
	return v, nil
}

func (m *Machine) peekValue() (object.Object, error) {
	if len(m.values) == 0 {
		return nil, m.rt.Fatal(m.last, limits.EmptyStackError{Stack: "value"}.Error())
	}
	return m.values[len(m.values)-1], nil
}

func (m *Machine) pushWork(w work) error {
	if m.maxDepth > 0 && len(m.nodes) >= m.maxDepth {
		return m.rt.Fatal(m.last, limits.StackDepthMessage)
	}
	m.nodes = append(m.nodes, w)
	return nil
}

// pushAll pushes ws in order, so the last one runs first.
func (m *Machine) pushAll(ws ...work) error {
	for _, w := range ws {
		if err := m.pushWork(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Machine) popWork() (work, error) {
	if len(m.nodes) == 0 {
		return work{}, m.rt.Fatal(m.last, limits.EmptyStackError{Stack: "node"}.Error())
	}
	w := m.nodes[len(m.nodes)-1]
	m.nodes = m.nodes[:len(m.nodes)-1]
	return w, nil
}

func (m *Machine) insertWork(at int, w work) {
	m.nodes = append(m.nodes, work{})
	copy(m.nodes[at+1:], m.nodes[at:])
	m.nodes[at] = w
}

func (m *Machine) pushFrame() {
	m.frames = append(m.frames, NewFrame(m.scope, m.name))
}

func (m *Machine) popFrame() error {
	if len(m.frames) == 0 {
		return m.rt.Fatal(m.last, limits.EmptyStackError{Stack: "scope"}.Error())
	}
	f := m.frames[len(m.frames)-1]
	m.frames = m.frames[:len(m.frames)-1]
	m.scope, m.name = f.Scope, f.Name
	return nil
}

/* -------------------- driving -------------------- */

// Step pops and handles exactly one work item. It reports false, doing
// nothing, when the node stack is already empty.
func (m *Machine) Step() (bool, error) {
	restore := m.rt.Enter(m)
	defer restore()
	return m.step()
}

func (m *Machine) step() (bool, error) {
	if len(m.nodes) == 0 {
		return false, nil
	}
	w, _ := m.popWork()
	if w.node != nil {
		m.last = w.node
	}
	if err := m.budget.Charge(1); err != nil {
		return false, m.rt.Fatal(m.last, err.Error())
	}
	if ev := m.rt.Log.Trace(); ev.Enabled() {
		ev.Str("work", w.String()).
			Int("nodes", len(m.nodes)).
			Int("values", len(m.values)).
			Str("scope", m.name).
			Msg("  STEP")
	}
	if err := m.exec(w); err != nil {
		return false, err
	}
	return true, nil
}

// Run steps until the node stack is empty.
func (m *Machine) Run() error {
	return m.RunContext(context.Background())
}

// RunContext is Run, stopping early with ctx.Err() once ctx is done.
func (m *Machine) RunContext(ctx context.Context) error {
	restore := m.rt.Enter(m)
	defer restore()
	for n := 0; ; n++ {
		if n%256 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		ran, err := m.step()
		if err != nil {
			return err
		}
		if !ran {
			return nil
		}
	}
}

// RunFrame steps at most max times, stopping early when the node stack
// empties or an event-loop cycle hands control back to the host. more
// reports whether work remains.
func (m *Machine) RunFrame(max int) (more bool, err error) {
	restore := m.rt.Enter(m)
	defer restore()
	m.yield = false
	for i := 0; i < max && !m.yield; i++ {
		ran, err := m.step()
		if err != nil {
			return false, err
		}
		if !ran {
			return false, nil
		}
	}
	return len(m.nodes) > 0, nil
}

// runUntil steps until the node stack is back to depth items.
func (m *Machine) runUntil(depth int) error {
	for len(m.nodes) > depth {
		if _, err := m.step(); err != nil {
			return err
		}
	}
	return nil
}

// Evaluate runs node to completion on top of whatever is queued and
// returns its value.
func (m *Machine) Evaluate(node ast.Node) (object.Object, error) {
	restore := m.rt.Enter(m)
	defer restore()
	depth := len(m.nodes)
	if err := m.Push(node); err != nil {
		return nil, err
	}
	if err := m.runUntil(depth); err != nil {
		return nil, err
	}
	return m.PopValue()
}

// Call runs a function to completion on a fresh machine sharing this
// runtime and step budget.
func (m *Machine) Call(name string, args *object.List) (object.Object, error) {
	if args == nil {
		args = object.NewList()
	}
	sub := New(m.rt)
	sub.budget = m.budget
	sub.maxDepth = m.maxDepth
	return sub.Evaluate(CallNode(name, args, ast.Position{File: "<call>"}))
}

// Start queues the program entry point: Start with params as its one
// argument.
func (m *Machine) Start(params *object.List) error {
	return m.Push(CallNode("Start", object.NewList(params), ast.Position{File: "<start>"}))
}

// CallNode builds a call whose argument list is already evaluated.
func CallNode(name string, args *object.List, pos ast.Position) *ast.OpNode {
	return ast.NewOp(ast.FUNCTION,
		ast.NewLeaf(&object.FunctionRef{Name: name}, pos),
		ast.NewLeaf(args, pos),
		pos)
}

// ScheduleCall queues a call to run next. When it returns its result is
// handed to sink, or dropped when sink is nil.
func (m *Machine) ScheduleCall(name string, args *object.List, id int, sink CallbackSink) error {
	call := CallNode(name, args, ast.Position{File: "event-callback"})
	done := work{kind: kDiscard, node: call}
	if sink != nil {
		done = work{kind: kCallbackDone, node: call, id: id, sink: sink}
	}
	return m.pushAll(done, nodeWork(call))
}

// PushCycle queues an event-loop cycle. It re-queues itself beneath any
// callback it schedules until the loop stops.
func (m *Machine) PushCycle(c Cycler) error {
	return m.pushWork(work{kind: kCycle, node: m.last, cycler: c})
}

/* -------------------- suspend / resume -------------------- */

// Snapshot is a copy of everything a Machine needs to resume: the four
// stacks, the current frame and the runtime's globals. Variable tables are
// copied; complex values stay shared.
type Snapshot struct {
	nodes   []work
	values  []object.Object
	frames  []Frame
	scope   *object.Scope
	name    string
	calls   []runtime.CallEntry
	globals *object.Scope
}

func (m *Machine) Snapshot() Snapshot {
	s := Snapshot{
		nodes:   append([]work(nil), m.nodes...),
		values:  append([]object.Object(nil), m.values...),
		scope:   m.scope.Clone(),
		name:    m.name,
		calls:   m.rt.CallStack.Entries(),
		globals: m.rt.Globals.Clone(),
	}
	for _, f := range m.frames {
		s.frames = append(s.frames, f.clone())
	}
	return s
}

// Restore replaces the machine's state with s. The runtime's call stack and
// globals are restored with it, so s may resume on a different runtime
// loaded with the same program.
func (m *Machine) Restore(s Snapshot) {
	m.nodes = append(m.nodes[:0], s.nodes...)
	m.values = append(m.values[:0], s.values...)
	m.frames = m.frames[:0]
	for _, f := range s.frames {
		m.frames = append(m.frames, f.clone())
	}
	m.scope = s.scope.Clone()
	m.name = s.name
	m.rt.CallStack.Restore(s.calls)
	if s.globals != nil {
		m.rt.Globals.Replace(s.globals)
	}
}

func (s Snapshot) Depth() int { return len(s.nodes) }
