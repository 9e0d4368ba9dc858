package lint

import (
	"fmt"

	"pebl/internal/ast"
	"pebl/internal/diag"
	"pebl/internal/object"
)

type arity struct {
	min, max int
}

func arityOf(lambda *ast.OpNode) arity {
	var a arity
	for _, p := range ast.Items(lambda.Left) {
		a.max++
		if op, ok := p.(*ast.OpNode); !ok || op.Op != ast.VARPAIR {
			a.min++
		}
	}
	return a
}

type local struct {
	pos  ast.Position
	used bool
}

// function is the per-definition state: parameters, assigned locals and
// reads of names never assigned.
type function struct {
	params   map[string]*local
	assigned map[string]*local
	reads    map[string]ast.Position
}

type Runner struct {
	opts  Options
	defs  map[string]arity
	diags []diag.Diagnostic
	fn    *function
}

func (r *Runner) warn(pos ast.Position, length int, code string, msg string) {
	if length < 1 {
		length = 1
	}
	r.diags = append(r.diags, diag.Diagnostic{
		Code:     code,
		Message:  msg,
		Severity: diag.SeverityWarning,
		Range: diag.Range{
			Line:   pos.Line,
			Col:    pos.Col,
			Length: length,
		},
	})
}

func (r *Runner) walkFunction(def *ast.FunctionDef) {
	r.fn = &function{
		params:   map[string]*local{},
		assigned: map[string]*local{},
		reads:    map[string]ast.Position{},
	}
	for _, p := range ast.Items(def.Lambda.Left) {
		leaf := p
		if op, ok := p.(*ast.OpNode); ok && op.Op == ast.VARPAIR {
			leaf = op.Left
			r.walk(op.Right)
		}
		if v, ok := variableOf(leaf); ok {
			r.fn.params[v.VarName()] = &local{pos: leaf.Pos()}
		}
	}
	r.walk(def.Lambda.Right)

	for name, l := range r.fn.params {
		if !l.used && name[0] != '_' && def.Name != "Start" {
			r.warn(l.pos, len(name), diag.CodeUnusedParameter, fmt.Sprintf("unused parameter: %s", name))
		}
	}
	for name, l := range r.fn.assigned {
		if !l.used && r.fn.params[name] == nil {
			r.warn(l.pos, len(name), diag.CodeUnusedVariable, fmt.Sprintf("unused variable: %s", name))
		}
	}
	for name, pos := range r.fn.reads {
		if r.fn.assigned[name] == nil && r.fn.params[name] == nil {
			r.warn(pos, len(name), diag.CodeNeverAssigned, fmt.Sprintf("variable %s is read but never assigned in %s", name, def.Name))
		}
	}
	r.fn = nil
}

func variableOf(n ast.Node) (object.Variable, bool) {
	leaf, ok := n.(*ast.Leaf)
	if !ok {
		return nil, false
	}
	v, ok := leaf.Value.(object.Variable)
	return v, ok
}

func (r *Runner) read(n ast.Node, v object.Variable) {
	if v.IsGlobal() {
		return
	}
	name := v.VarName()
	if l := r.fn.params[name]; l != nil {
		l.used = true
	}
	if l := r.fn.assigned[name]; l != nil {
		l.used = true
		return
	}
	if _, seen := r.fn.reads[name]; !seen {
		r.fn.reads[name] = n.Pos()
	}
}

func (r *Runner) assign(n ast.Node, v object.Variable) {
	if v.IsGlobal() {
		return
	}
	if v.VarProperty() != "" {
		r.read(n, v)
		return
	}
	name := v.VarName()
	if r.fn.assigned[name] == nil {
		l := &local{pos: n.Pos()}
		if _, readFirst := r.fn.reads[name]; readFirst {
			l.used = true
		}
		r.fn.assigned[name] = l
	}
}

// statements flattens a left-nested STATEMENTS chain.
func statements(n ast.Node) []ast.Node {
	op, ok := n.(*ast.OpNode)
	if !ok || op.Op != ast.STATEMENTS {
		return []ast.Node{n}
	}
	return append(statements(op.Left), op.Right)
}

func isTerminator(n ast.Node) bool {
	op, ok := n.(*ast.OpNode)
	return ok && (op.Op == ast.RETURN || op.Op == ast.BREAK)
}

func (r *Runner) walk(n ast.Node) {
	if n == nil {
		return
	}
	if leaf, ok := n.(*ast.Leaf); ok {
		if v, ok := leaf.Value.(object.Variable); ok {
			r.read(leaf, v)
		}
		return
	}
	op := n.(*ast.OpNode)
	switch op.Op {
	case ast.STATEMENTS:
		terminated := false
		for _, st := range statements(op) {
			if terminated {
				r.warn(st.Pos(), 1, diag.CodeUnreachable, "unreachable code")
				terminated = false
			}
			r.walk(st)
			if isTerminator(st) {
				terminated = true
			}
		}
	case ast.ASSIGN:
		r.walk(op.Right)
		if v, ok := variableOf(op.Left); ok {
			r.assign(op.Left, v)
		}
	case ast.LOOP:
		datum := op.Left.(*ast.OpNode)
		r.walk(datum.Right)
		if v, ok := variableOf(datum.Left); ok {
			r.assign(datum.Left, v)
		}
		r.walk(op.Right)
	case ast.WHILE:
		r.walk(op.Left)
		r.walk(op.Right)
	case ast.FUNCTION:
		r.checkCall(op)
		r.walk(op.Right)
	default:
		r.walk(op.Left)
		r.walk(op.Right)
	}
}

func (r *Runner) checkCall(call *ast.OpNode) {
	leaf, ok := call.Left.(*ast.Leaf)
	if !ok {
		return
	}
	ref, ok := leaf.Value.(*object.FunctionRef)
	if !ok {
		return
	}
	name := ref.Name
	def, defined := r.defs[name]
	if !defined {
		if r.opts.Known != nil && !r.opts.Known(name) {
			r.warn(call.Pos(), len(name), diag.CodeUndefinedFunc, fmt.Sprintf("call to undefined function %s", name))
		}
		return
	}
	if !r.opts.CheckArity {
		return
	}
	var args []ast.Node
	if list, ok := call.Right.(*ast.OpNode); ok {
		args = ast.Items(list.Left)
	}
	switch n := len(args); {
	case n < def.min:
		r.warn(call.Pos(), len(name), diag.CodeArity, fmt.Sprintf("too few arguments to %s: want at least %d, got %d", name, def.min, n))
	case n > def.max:
		r.warn(call.Pos(), len(name), diag.CodeArity, fmt.Sprintf("too many arguments to %s: want at most %d, got %d", name, def.max, n))
	}
}
