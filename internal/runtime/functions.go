package runtime

import (
	"fmt"
	"sort"

	"pebl/internal/ast"
	"pebl/internal/object"
)

// LibraryFunc is a native function. It receives the evaluated argument
// list and runs in the caller's frame.
type LibraryFunc func(rt *Runtime, args []object.Object) (object.Object, error)

// Library is a native function under an arity contract. Max < 0 means no
// upper bound.
type Library struct {
	Name string
	Min  int
	Max  int
	Fn   LibraryFunc
}

// CheckArity returns the standard message for a bad argument count, or "".
func (l *Library) CheckArity(scope string, n int) string {
	if n >= l.Min && (l.Max < 0 || n <= l.Max) {
		return ""
	}
	return fmt.Sprintf("In scope [%s]:function [%s]:Incorrect number of arguments..  Wanted between %d and %d but got %d",
		scope, l.Name, l.Min, l.Max, n)
}

// FunctionTable maps names to LAMBDAFUNCTION or LIBRARYFUNCTION nodes. It
// is filled once by the loader and only read during evaluation.
type FunctionTable struct {
	nodes map[string]*ast.OpNode
	libs  map[string]*Library
}

func NewFunctionTable() *FunctionTable {
	return &FunctionTable{
		nodes: map[string]*ast.OpNode{},
		libs:  map[string]*Library{},
	}
}

func (t *FunctionTable) AddLambda(name string, lambda *ast.OpNode) error {
	if lambda == nil || lambda.Op != ast.LAMBDAFUNCTION {
		return fmt.Errorf("function %s: expected a LAMBDAFUNCTION node", name)
	}
	if _, exists := t.nodes[name]; exists {
		return fmt.Errorf("function %s is already defined", name)
	}
	t.nodes[name] = lambda
	return nil
}

// Redefine replaces a script function, or adds it when it is new. Library
// functions cannot be replaced.
func (t *FunctionTable) Redefine(name string, lambda *ast.OpNode) error {
	if _, isLib := t.libs[name]; isLib {
		return fmt.Errorf("function %s is a library function", name)
	}
	delete(t.nodes, name)
	return t.AddLambda(name, lambda)
}

func (t *FunctionTable) AddLibrary(lib Library) error {
	if lib.Fn == nil {
		return fmt.Errorf("library function %s has no implementation", lib.Name)
	}
	if _, exists := t.nodes[lib.Name]; exists {
		return fmt.Errorf("function %s is already defined", lib.Name)
	}
	l := lib
	t.libs[lib.Name] = &l
	ref := ast.NewLeaf(&object.FunctionRef{Name: lib.Name}, ast.Position{File: "<library>"})
	t.nodes[lib.Name] = ast.NewOp(ast.LIBRARYFUNCTION, ref, nil, ast.Position{File: "<library>"})
	return nil
}

func (t *FunctionTable) Lookup(name string) (*ast.OpNode, bool) {
	n, ok := t.nodes[name]
	return n, ok
}

func (t *FunctionTable) Has(name string) bool {
	_, ok := t.nodes[name]
	return ok
}

// Library resolves a LIBRARYFUNCTION node to its native function.
func (t *FunctionTable) Library(node *ast.OpNode) (*Library, bool) {
	if node == nil || node.Op != ast.LIBRARYFUNCTION {
		return nil, false
	}
	leaf, ok := node.Left.(*ast.Leaf)
	if !ok {
		return nil, false
	}
	ref, ok := leaf.Value.(*object.FunctionRef)
	if !ok {
		return nil, false
	}
	lib, ok := t.libs[ref.Name]
	return lib, ok
}

// LibraryByName is used by static checks that never see a call node.
func (t *FunctionTable) LibraryByName(name string) (*Library, bool) {
	lib, ok := t.libs[name]
	return lib, ok
}

func (t *FunctionTable) Names() []string {
	out := make([]string, 0, len(t.nodes))
	for name := range t.nodes {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (t *FunctionTable) Len() int { return len(t.nodes) }

// LoadLibrary registers native functions.
func (rt *Runtime) LoadLibrary(libs []Library) error {
	for _, lib := range libs {
		if err := rt.Functions.AddLibrary(lib); err != nil {
			return err
		}
	}
	return nil
}

// LoadProgram adds every definition of prog to the function table.
func (rt *Runtime) LoadProgram(prog *ast.Program) error {
	for _, fn := range prog.Functions {
		if err := rt.Functions.AddLambda(fn.Name, fn.Lambda); err != nil {
			return &LoadError{Pos: fn.Position, Err: err}
		}
	}
	return nil
}

// LoadError is a definition the function table refused.
type LoadError struct {
	Pos ast.Position
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s:%d: %v", e.Pos.File, e.Pos.Line, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }
