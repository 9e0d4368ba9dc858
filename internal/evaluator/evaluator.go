package evaluator

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

// Evaluator walks the tree on the Go call stack. Each lambda call gets a
// fresh local frame; all calls share the runtime's globals and call stack.
type Evaluator struct {
	rt    *runtime.Runtime
	depth *limits.Depth
}

func New(rt *runtime.Runtime) *Evaluator {
	return &Evaluator{rt: rt, depth: limits.NewDepth(rt.MaxDepth)}
}

func (e *Evaluator) Runtime() *runtime.Runtime { return e.rt }

// Evaluate computes node with locals as the current frame.
func (e *Evaluator) Evaluate(node ast.Node, locals *object.Scope) (object.Object, error) {
	restore := e.rt.Enter(e)
	defer restore()
	return e.eval(node, locals)
}

// Call invokes a function by name with an evaluated argument list.
func (e *Evaluator) Call(name string, args *object.List) (object.Object, error) {
	restore := e.rt.Enter(e)
	defer restore()
	if args == nil {
		args = object.NewList()
	}
	return e.invoke(nil, name, args, nil)
}

// Start runs the program entry point. Start receives params as its one
// argument.
func (e *Evaluator) Start(params *object.List) (object.Object, error) {
	return e.Call("Start", object.NewList(params))
}

func (e *Evaluator) eval(node ast.Node, locals *object.Scope) (object.Object, error) {
	if node == nil {
		return nil, e.rt.Fatal(nil, "Trying to evaluate null node")
	}
	if err := e.depth.Enter(); err != nil {
		return nil, e.rt.Fatal(node, err.Error())
	}
	defer e.depth.Leave()

	switch n := node.(type) {
	case *ast.Leaf:
		if v, ok := n.Value.(object.Variable); ok {
			return e.rt.Resolve(n, v, locals)
		}
		return n.Value, nil
	case *ast.OpNode:
		return e.evalOp(n, locals)
	}
	return nil, e.rt.Fatalf(node, "Unknown node type %T", node)
}

func (e *Evaluator) evalOp(n *ast.OpNode, locals *object.Scope) (object.Object, error) {
	if n.Op.IsBinary() {
		left, err := e.eval(n.Left, locals)
		if err != nil {
			return nil, err
		}
		right, err := e.eval(n.Right, locals)
		if err != nil {
			return nil, err
		}
		res, err := semantics.BinaryOp(n.Op.Symbol(), left, right)
		if err != nil {
			return nil, e.rt.Fatal(n, err.Error())
		}
		return res, nil
	}

	switch n.Op {
	case ast.AND, ast.OR:
		left, err := e.eval(n.Left, locals)
		if err != nil {
			return nil, err
		}
		l := semantics.ToBool(left)
		if n.Op == ast.AND && !l {
			return ZERO, nil
		}
		if n.Op == ast.OR && l {
			return ONE, nil
		}
		right, err := e.eval(n.Right, locals)
		if err != nil {
			return nil, err
		}
		return object.NewBool(semantics.ToBool(right)), nil

	case ast.NOT:
		v, err := e.eval(n.Left, locals)
		if err != nil {
			return nil, err
		}
		return semantics.Not(v), nil

	case ast.ASSIGN:
		target, ok := variableOf(n.Left)
		if !ok {
			return nil, e.rt.Fatal(n, "Left side of assignment must be a variable")
		}
		val, err := e.eval(n.Right, locals)
		if err != nil {
			return nil, err
		}
		if err := e.rt.Assign(n, target, val, locals); err != nil {
			return nil, err
		}
		return val, nil

	case ast.STATEMENTS:
		left, err := e.eval(n.Left, locals)
		if err != nil {
			return nil, err
		}
		if object.IsBreak(left) {
			return left, nil
		}
		return e.eval(n.Right, locals)

	case ast.IF:
		cond, err := e.eval(n.Left, locals)
		if err != nil {
			return nil, err
		}
		if !semantics.ToBool(cond) {
			return ONE, nil
		}
		return e.eval(n.Right, locals)

	case ast.IFELSE:
		cond, err := e.eval(n.Left, locals)
		if err != nil {
			return nil, err
		}
		branches, ok := n.Right.(*ast.OpNode)
		if !ok || branches.Op != ast.ELSE {
			return nil, e.rt.Fatal(n, "Malformed if-else")
		}
		if semantics.ToBool(cond) {
			return e.eval(branches.Left, locals)
		}
		return e.eval(branches.Right, locals)

	case ast.WHILE:
		for {
			cond, err := e.eval(n.Left, locals)
			if err != nil {
				return nil, err
			}
			if !semantics.ToBool(cond) {
				return ONE, nil
			}
			res, err := e.eval(n.Right, locals)
			if err != nil {
				return nil, err
			}
			if object.IsBreak(res) {
				return ONE, nil
			}
		}

	case ast.LOOP:
		return e.evalLoop(n, locals)

	case ast.BREAK:
		return object.BREAK, nil

	case ast.RETURN:
		return e.eval(n.Left, locals)

	case ast.FUNCTION:
		return e.evalCall(n, locals)

	case ast.ARGLIST, ast.LISTHEAD:
		return e.evalList(n.Left, locals)
	}

	return nil, e.rt.Fatalf(n, "Cannot evaluate %s node", n.Op)
}

// evalLoop binds the variable to each element in turn. The list is
// re-measured every iteration, so the body may grow it.
func (e *Evaluator) evalLoop(n *ast.OpNode, locals *object.Scope) (object.Object, error) {
	datum, ok := n.Left.(*ast.OpNode)
	if !ok || datum.Op != ast.VARIABLEDATUM {
		return nil, e.rt.Fatal(n, "Malformed loop")
	}
	target, ok := variableOf(datum.Left)
	if !ok {
		return nil, e.rt.Fatal(n, "Loop variable must be a variable")
	}
	coll, err := e.eval(datum.Right, locals)
	if err != nil {
		return nil, err
	}
	list, err := e.rt.LoopList(n, coll)
	if err != nil {
		return nil, err
	}

	for i := 0; i < len(list.Elements); i++ {
		if err := e.rt.Assign(n, target, list.Elements[i], locals); err != nil {
			return nil, err
		}
		res, err := e.eval(n.Right, locals)
		if err != nil {
			return nil, err
		}
		if object.IsBreak(res) {
			return ZERO, nil
		}
	}
	return ONE, nil
}

func (e *Evaluator) evalList(chain ast.Node, locals *object.Scope) (object.Object, error) {
	out := object.NewList()
	for _, item := range ast.Items(chain) {
		v, err := e.eval(item, locals)
		if err != nil {
			return nil, err
		}
		out.Elements = append(out.Elements, v)
	}
	return out, nil
}

func (e *Evaluator) evalCall(n *ast.OpNode, locals *object.Scope) (object.Object, error) {
	name, ok := functionName(n)
	if !ok {
		return nil, e.rt.Fatal(n, "Malformed function call")
	}
	argv, err := e.eval(n.Right, locals)
	if err != nil {
		return nil, err
	}
	args, ok := argv.(*object.List)
	if !ok {
		return nil, e.rt.Fatalf(n, "Arguments to [%s] must be a list, got %s", name, argv.Type())
	}
	return e.invoke(n, name, args, locals)
}

func (e *Evaluator) invoke(site ast.Node, name string, args *object.List, caller *object.Scope) (object.Object, error) {
	name = runtime.MethodTarget(name, args)
	fn, ok := e.rt.Functions.Lookup(name)
	if !ok {
		return nil, e.rt.Fatalf(site, "Undefined function [%s]", name)
	}

	switch fn.Op {
	case ast.LIBRARYFUNCTION:
		lib, ok := e.rt.Functions.Library(fn)
		if !ok {
			return nil, e.rt.Fatalf(site, "Library function [%s] has no implementation", name)
		}
		if msg := lib.CheckArity(e.rt.ScopeName(), len(args.Elements)); msg != "" {
			return nil, e.rt.Fatal(site, msg)
		}
		res, err := lib.Fn(e.rt, args.Elements)
		if err != nil {
			return nil, libraryError(e.rt, site, err)
		}
		if res == nil {
			return ONE, nil
		}
		return res, nil

	case ast.LAMBDAFUNCTION:
		e.rt.CallStack.Push(name, site)
		defer e.rt.CallStack.Pop()
		frame, err := e.rt.BindArguments(site, name, fn, args, caller)
		if err != nil {
			return nil, err
		}
		return e.eval(fn.Right, frame)
	}
	return nil, e.rt.Fatalf(site, "Unknown Function Type for [%s]", name)
}

// libraryError routes a library failure through the fatal funnel unless it
// already went through it.
func libraryError(rt *runtime.Runtime, site ast.Node, err error) error {
	var fe *runtime.FatalError
	if errors.As(err, &fe) {
		return err
	}
	return rt.Fatal(site, err.Error())
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
