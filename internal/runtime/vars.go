package runtime

import (
	"pebl/internal/ast"
	"pebl/internal/object"
)

func (rt *Runtime) scopeFor(node ast.Node, v object.Variable, frame *object.Scope) (*object.Scope, error) {
	if v.IsGlobal() {
		return rt.Globals, nil
	}
	if frame == nil {
		return nil, rt.Fatalf(node, "Local variable [%s] used outside of a function", v.VarName())
	}
	return frame, nil
}

// Resolve reads v from the global table or frame, following its property
// when it has one.
func (rt *Runtime) Resolve(node ast.Node, v object.Variable, frame *object.Scope) (object.Object, error) {
	scope, err := rt.scopeFor(node, v, frame)
	if err != nil {
		return nil, err
	}
	val, ok := scope.Get(v.VarName())
	if !ok {
		return nil, rt.Fatalf(node, "Variable [%s] not found", v.VarName())
	}

	prop := v.VarProperty()
	if prop == "" {
		return val, nil
	}
	c, ok := val.(object.Complex)
	if !ok {
		return nil, rt.Fatalf(node, "Cannot get property [%s] of variable [%s]: %s is not an object", prop, v.VarName(), val.Type())
	}
	pv, ok := c.GetProperty(prop)
	if !ok {
		return nil, rt.Fatalf(node, "Property [%s] not found in variable [%s]", prop, v.VarName())
	}
	return pv, nil
}

// Assign writes val to v, or to v's property through the complex object it
// holds.
func (rt *Runtime) Assign(node ast.Node, v object.Variable, val object.Object, frame *object.Scope) error {
	if object.IsSignal(val) {
		return rt.Fatalf(node, "Cannot assign %s to variable [%s]", val.Inspect(), v.Inspect())
	}
	scope, err := rt.scopeFor(node, v, frame)
	if err != nil {
		return err
	}

	prop := v.VarProperty()
	if prop == "" {
		if err := scope.Set(v.VarName(), val); err != nil {
			return rt.Fatal(node, err.Error())
		}
		return nil
	}

	base, ok := scope.Get(v.VarName())
	if !ok {
		return rt.Fatalf(node, "Variable [%s] not found", v.VarName())
	}
	c, ok := base.(object.Complex)
	if !ok {
		return rt.Fatalf(node, "Cannot set property [%s] of variable [%s]: %s is not an object", prop, v.VarName(), base.Type())
	}
	if err := c.SetProperty(prop, val); err != nil {
		return rt.Fatal(node, err.Error())
	}
	return nil
}

// MethodTarget implements custom-object dispatch: when the first argument
// is a custom object with a property named like the called function, that
// property names the function to call instead.
func MethodTarget(name string, args *object.List) string {
	if args == nil || len(args.Elements) == 0 {
		return name
	}
	obj, ok := args.Elements[0].(*object.CustomObject)
	if !ok {
		return name
	}
	prop, ok := obj.GetProperty(name)
	if !ok {
		return name
	}
	switch p := prop.(type) {
	case *object.FunctionRef:
		return p.Name
	case *object.String:
		return p.Value
	}
	return name
}

// LoopList is the sequence a loop walks: the list itself, or 1..n for an
// integer n.
func (rt *Runtime) LoopList(node ast.Node, coll object.Object) (*object.List, error) {
	switch c := coll.(type) {
	case *object.List:
		return c, nil
	case *object.Integer:
		out := object.NewList()
		for i := int64(1); i <= c.Value; i++ {
			out.Elements = append(out.Elements, object.NewInteger(i))
		}
		return out, nil
	}
	return nil, rt.Fatalf(node, "Loop over %s: expected a list or an integer", coll.Type())
}
