package vm

import (
	"errors"

	"pebl/internal/ast"
	"pebl/internal/limits"
	"pebl/internal/object"
	"pebl/internal/runtime"
	"pebl/internal/semantics"
)

var (
	ONE  = object.NewInteger(1)
	ZERO = object.NewInteger(0)
)

func (m *Machine) exec(w work) error {
	switch w.kind {
	case kNode:
		return m.execNode(w.node)

	case kBinaryTail:
		n := w.node.(*ast.OpNode)
		right, err := m.PopValue()
		if err != nil {
			return err
		}
		left, err := m.PopValue()
		if err != nil {
			return err
		}
		res, err := semantics.BinaryOp(n.Op.Symbol(), left, right)
		if err != nil {
			return m.rt.Fatal(n, err.Error())
		}
		return m.PushValue(res)

	case kAndTail:
		n := w.node.(*ast.OpNode)
		left, err := m.PopValue()
		if err != nil {
			return err
		}
		l := semantics.ToBool(left)
		if n.Op == ast.AND && !l {
			return m.PushValue(ZERO)
		}
		if n.Op == ast.OR && l {
			return m.PushValue(ONE)
		}
		return m.pushAll(tail(kBoolTail, n), nodeWork(n.Right))

	case kBoolTail:
		v, err := m.PopValue()
		if err != nil {
			return err
		}
		return m.PushValue(object.NewBool(semantics.ToBool(v)))

	case kNotTail:
		v, err := m.PopValue()
		if err != nil {
			return err
		}
		return m.PushValue(semantics.Not(v))

	case kAssignTail:
		n := w.node.(*ast.OpNode)
		target, _ := variableOf(n.Left)
		val, err := m.peekValue()
		if err != nil {
			return err
		}
		return m.rt.Assign(n, target, val, m.scope)

	case kStatementsTail:
		left, err := m.PopValue()
		if err != nil {
			return err
		}
		if object.IsBreak(left) {
			// skip the pending right-hand statement
			if _, err := m.popWork(); err != nil {
				return err
			}
			return m.PushValue(object.BREAK)
		}
		return nil

	case kIfTail:
		cond, err := m.PopValue()
		if err != nil {
			return err
		}
		if semantics.ToBool(cond) {
			return nil
		}
		if _, err := m.popWork(); err != nil {
			return err
		}
		return m.PushValue(ONE)

	case kElseTail:
		n := w.node.(*ast.OpNode)
		branches := n.Right.(*ast.OpNode)
		cond, err := m.PopValue()
		if err != nil {
			return err
		}
		if semantics.ToBool(cond) {
			return m.Push(branches.Left)
		}
		return m.Push(branches.Right)

	case kWhileTail:
		n := w.node.(*ast.OpNode)
		cond, err := m.PopValue()
		if err != nil {
			return err
		}
		if !semantics.ToBool(cond) {
			return m.PushValue(ONE)
		}
		return m.pushAll(tail(kWhileTail2, n), nodeWork(n.Right))

	case kWhileTail2:
		res, err := m.PopValue()
		if err != nil {
			return err
		}
		if object.IsBreak(res) {
			return m.PushValue(ONE)
		}
		return m.Push(w.node)

	case kLoopTail1:
		return m.loopNext(w.node.(*ast.OpNode))

	case kLoopTail2:
		res, err := m.PopValue()
		if err != nil {
			return err
		}
		if object.IsBreak(res) {
			for i := 0; i < 3; i++ {
				if _, err := m.PopValue(); err != nil {
					return err
				}
			}
			return m.PushValue(ZERO)
		}
		return m.pushWork(tail(kLoopTail1, w.node))

	case kFunctionTail1:
		return m.resolveCall(w.node.(*ast.OpNode))

	case kFunctionTail2:
		if w.fn.Op == ast.LIBRARYFUNCTION {
			return m.pushWork(work{kind: kLibrary, node: w.node, fn: w.fn, name: w.name})
		}
		m.pushFrame()
		m.name = w.name
		m.rt.CallStack.Push(w.name, w.node)
		return m.pushAll(
			work{kind: kFunctionTailLib, node: w.node, name: w.name},
			work{kind: kLambda, node: w.node, fn: w.fn, name: w.name},
		)

	case kLambda:
		argv, err := m.PopValue()
		if err != nil {
			return err
		}
		// m.scope is still the caller's frame here
		frame, err := m.rt.BindArguments(w.node, w.name, w.fn, argv.(*object.List), m.scope)
		if err != nil {
			return err
		}
		m.scope = frame
		return m.Push(w.fn.Right)

	case kFunctionTailLib:
		m.rt.CallStack.Pop()
		return m.popFrame()

	case kLibrary:
		return m.callLibrary(w)

	case kListTail:
		return m.collectList()

	case kDiscard:
		_, err := m.PopValue()
		return err

	case kCallbackDone:
		v, err := m.PopValue()
		if err != nil {
			return err
		}
		return w.sink.CallbackReturned(w.id, v)

	case kCycle:
		return m.cycle(w)
	}
	return m.rt.Fatalf(w.node, "Unknown work item %s", w.kind)
}

func (m *Machine) execNode(node ast.Node) error {
	switch n := node.(type) {
	case nil:
		return m.rt.Fatal(nil, "Trying to evaluate null node")
	case *ast.Leaf:
		if v, ok := n.Value.(object.Variable); ok {
			val, err := m.rt.Resolve(n, v, m.scope)
			if err != nil {
				return err
			}
			return m.PushValue(val)
		}
		return m.PushValue(n.Value)
	case *ast.OpNode:
		return m.execOp(n)
	}
	return m.rt.Fatalf(node, "Unknown node type %T", node)
}

func (m *Machine) execOp(n *ast.OpNode) error {
	if n.Op.IsBinary() {
		// left runs first
		return m.pushAll(tail(kBinaryTail, n), nodeWork(n.Right), nodeWork(n.Left))
	}

	switch n.Op {
	case ast.AND, ast.OR:
		return m.pushAll(tail(kAndTail, n), nodeWork(n.Left))

	case ast.NOT:
		return m.pushAll(tail(kNotTail, n), nodeWork(n.Left))

	case ast.ASSIGN:
		if _, ok := variableOf(n.Left); !ok {
			return m.rt.Fatal(n, "Left side of assignment must be a variable")
		}
		return m.pushAll(tail(kAssignTail, n), nodeWork(n.Right))

	case ast.STATEMENTS:
		return m.pushAll(nodeWork(n.Right), tail(kStatementsTail, n), nodeWork(n.Left))

	case ast.IF:
		return m.pushAll(nodeWork(n.Right), tail(kIfTail, n), nodeWork(n.Left))

	case ast.IFELSE:
		if branches, ok := n.Right.(*ast.OpNode); !ok || branches.Op != ast.ELSE {
			return m.rt.Fatal(n, "Malformed if-else")
		}
		return m.pushAll(tail(kElseTail, n), nodeWork(n.Left))

	case ast.WHILE:
		return m.pushAll(tail(kWhileTail, n), nodeWork(n.Left))

	case ast.LOOP:
		datum, ok := n.Left.(*ast.OpNode)
		if !ok || datum.Op != ast.VARIABLEDATUM {
			return m.rt.Fatal(n, "Malformed loop")
		}
		if err := m.PushValue(ONE); err != nil {
			return err
		}
		return m.pushAll(tail(kLoopTail1, n), nodeWork(datum))

	case ast.VARIABLEDATUM:
		target, ok := variableOf(n.Left)
		if !ok {
			return m.rt.Fatal(n, "Loop variable must be a variable")
		}
		if err := m.PushValue(target); err != nil {
			return err
		}
		return m.Push(n.Right)

	case ast.BREAK:
		return m.PushValue(object.BREAK)

	case ast.RETURN:
		return m.Push(n.Left)

	case ast.FUNCTION:
		name, ok := functionName(n)
		if !ok {
			return m.rt.Fatal(n, "Malformed function call")
		}
		if err := m.PushValue(&object.FunctionRef{Name: name}); err != nil {
			return err
		}
		return m.pushAll(tail(kFunctionTail1, n), nodeWork(n.Right))

	case ast.ARGLIST, ast.LISTHEAD:
		if n.Left == nil {
			return m.PushValue(object.NewList())
		}
		if err := m.PushValue(object.LIST_HEAD); err != nil {
			return err
		}
		return m.Push(n.Left)

	case ast.LISTITEM:
		next := tail(kListTail, n)
		if n.Right != nil {
			next = nodeWork(n.Right)
		}
		return m.pushAll(next, nodeWork(n.Left))
	}

	return m.rt.Fatalf(n, "Cannot evaluate %s node", n.Op)
}

// loopNext runs at the head of every loop iteration. The value stack holds
// index, variable and collection, collection on top.
func (m *Machine) loopNext(n *ast.OpNode) error {
	coll, err := m.PopValue()
	if err != nil {
		return err
	}
	vv, err := m.PopValue()
	if err != nil {
		return err
	}
	iv, err := m.PopValue()
	if err != nil {
		return err
	}
	list, err := m.rt.LoopList(n, coll)
	if err != nil {
		return err
	}
	target := vv.(object.Variable)
	idx := iv.(*object.Integer).Value

	if idx > int64(len(list.Elements)) {
		return m.PushValue(ONE)
	}
	if err := m.rt.Assign(n, target, list.Elements[idx-1], m.scope); err != nil {
		return err
	}
	for _, v := range []object.Object{object.NewInteger(idx + 1), target, list} {
		if err := m.PushValue(v); err != nil {
			return err
		}
	}
	return m.pushAll(tail(kLoopTail2, n), nodeWork(n.Right))
}

// resolveCall pops the evaluated arguments and the callee name, applies
// method dispatch and queues the call.
func (m *Machine) resolveCall(n *ast.OpNode) error {
	argv, err := m.PopValue()
	if err != nil {
		return err
	}
	ref, err := m.PopValue()
	if err != nil {
		return err
	}
	name := ref.(*object.FunctionRef).Name
	args, ok := argv.(*object.List)
	if !ok {
		return m.rt.Fatalf(n, "Arguments to [%s] must be a list, got %s", name, argv.Type())
	}

	name = runtime.MethodTarget(name, args)
	fn, ok := m.rt.Functions.Lookup(name)
	if !ok {
		return m.rt.Fatalf(n, "Undefined function [%s]", name)
	}
	if fn.Op != ast.LIBRARYFUNCTION && fn.Op != ast.LAMBDAFUNCTION {
		return m.rt.Fatalf(n, "Unknown Function Type for [%s]", name)
	}
	if err := m.PushValue(args); err != nil {
		return err
	}
	return m.pushWork(work{kind: kFunctionTail2, node: n, fn: fn, name: name})
}

func (m *Machine) callLibrary(w work) error {
	argv, err := m.PopValue()
	if err != nil {
		return err
	}
	args := argv.(*object.List)
	lib, ok := m.rt.Functions.Library(w.fn)
	if !ok {
		return m.rt.Fatalf(w.node, "Library function [%s] has no implementation", w.name)
	}
	if msg := lib.CheckArity(m.rt.ScopeName(), len(args.Elements)); msg != "" {
		return m.rt.Fatal(w.node, msg)
	}
	res, err := lib.Fn(m.rt, args.Elements)
	if err != nil {
		var fe *runtime.FatalError
		if errors.As(err, &fe) {
			return err
		}
		return m.rt.Fatal(w.node, err.Error())
	}
	if res == nil {
		res = ONE
	}
	return m.PushValue(res)
}

// collectList pops item values down to the list-head marker and pushes
// them as one list, in source order.
func (m *Machine) collectList() error {
	var items []object.Object
	for {
		v, err := m.PopValue()
		if err != nil {
			return err
		}
		if object.IsListHead(v) {
			break
		}
		items = append(items, v)
	}
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	return m.PushValue(object.NewList(items...))
}

// cycle runs one event-loop cycle. While the loop continues the cycle is
// re-queued beneath whatever callback it scheduled and the machine yields
// to its host. When it stops, the cycler's result replaces the value left
// by the library call that started the loop.
func (m *Machine) cycle(w work) error {
	depth := len(m.nodes)
	more, err := w.cycler.RunCycle(m)
	if err != nil {
		return err
	}
	if more {
		if m.maxDepth > 0 && len(m.nodes) >= m.maxDepth {
			return m.rt.Fatal(m.last, limits.StackDepthMessage)
		}
		m.insertWork(depth, w)
		m.yield = true
		return nil
	}
	res := w.cycler.Result()
	if res == nil {
		return nil
	}
	if _, err := m.PopValue(); err != nil {
		return err
	}
	return m.PushValue(res)
}

func variableOf(node ast.Node) (object.Variable, bool) {
	leaf, ok := node.(*ast.Leaf)
	if !ok {
		return nil, false
	}
	v, ok := leaf.Value.(object.Variable)
	return v, ok
}

func functionName(n *ast.OpNode) (string, bool) {
	leaf, ok := n.Left.(*ast.Leaf)
	if !ok {
		return "", false
	}
	ref, ok := leaf.Value.(*object.FunctionRef)
	if !ok {
		return "", false
	}
	return ref.Name, true
}
