package runtime

import (
	"fmt"

	"pebl/internal/ast"
	"pebl/internal/object"
)

// BindArguments builds the local frame for a call of the lambda named name.
// Arguments bind positionally; a parameter with a default is optional. A
// default that names a global reads the global table, one that names a
// local reads the parameters bound before it and then caller, the frame
// the call was made from. caller may be nil.
func (rt *Runtime) BindArguments(site ast.Node, name string, lambda *ast.OpNode, args *object.List, caller *object.Scope) (*object.Scope, error) {
	frame := object.NewScope()

	var vals []object.Object
	if args != nil {
		vals = args.Elements
	}

	i := 0
	for _, item := range ast.Items(lambda.Left) {
		param, def := splitParam(item)
		if param == nil {
			return nil, rt.Fatalf(site, "Malformed parameter list in function [%s]", name)
		}

		var val object.Object
		switch {
		case i < len(vals):
			val = vals[i]
			i++
		case def != nil:
			v, err := rt.defaultValue(site, def, frame, caller)
			if err != nil {
				return nil, err
			}
			val = v
		default:
			msg := "Too few arguments passed to function [" + name + "]."
			if name == "Start" {
				msg += " (Make sure Start function has only one variable)."
			}
			return nil, rt.Fatal(site, msg)
		}

		if err := frame.Set(param.VarName(), val); err != nil {
			return nil, rt.Fatal(site, err.Error())
		}
	}

	if i < len(vals) {
		msg := "Too many arguments passed to function [" + name + "]."
		if name == "Start" {
			msg += " (Make sure Start function has a variable)."
		}
		return nil, rt.Fatal(site, msg)
	}
	return frame, nil
}

// Params lists a lambda's parameter names and whether each is optional.
func Params(lambda *ast.OpNode) (names []string, optional []bool) {
	for _, item := range ast.Items(lambda.Left) {
		param, def := splitParam(item)
		if param == nil {
			continue
		}
		names = append(names, param.VarName())
		optional = append(optional, def != nil)
	}
	return names, optional
}

func splitParam(item ast.Node) (object.Variable, object.Object) {
	switch n := item.(type) {
	case *ast.Leaf:
		v, _ := n.Value.(object.Variable)
		return v, nil
	case *ast.OpNode:
		if n.Op != ast.VARPAIR {
			return nil, nil
		}
		left, ok := n.Left.(*ast.Leaf)
		if !ok {
			return nil, nil
		}
		right, ok := n.Right.(*ast.Leaf)
		if !ok {
			return nil, nil
		}
		v, _ := left.Value.(object.Variable)
		return v, right.Value
	}
	return nil, nil
}

func (rt *Runtime) defaultValue(site ast.Node, def object.Object, frame, caller *object.Scope) (object.Object, error) {
	v, ok := def.(object.Variable)
	if !ok {
		return def, nil
	}
	if !v.IsGlobal() && !frame.Has(v.VarName()) && caller != nil {
		frame = caller
	}
	val, err := rt.Resolve(site, v, frame)
	if err != nil {
		return nil, err
	}
	if val == nil {
		return nil, rt.Fatal(site, fmt.Sprintf("Default value [%s] is undefined", v.Inspect()))
	}
	return val, nil
}
