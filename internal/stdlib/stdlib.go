// Package stdlib is the script-visible function library: output, lists,
// numbers, strings, custom objects and a few runtime hooks. The event-loop
// functions live with the loop in package eventloop.
package stdlib

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"pebl/internal/eventloop"
	"pebl/internal/object"
	"pebl/internal/runtime"
	"pebl/internal/semantics"
)

// Functions returns every library entry in this package.
func Functions() []runtime.Library {
	var libs []runtime.Library
	libs = append(libs, core...)
	libs = append(libs, lists...)
	libs = append(libs, text...)
	return libs
}

// Install loads Functions into rt, plus the event-loop functions bound to
// loop when it is not nil.
func Install(rt *runtime.Runtime, loop *eventloop.Loop) error {
	if err := rt.LoadLibrary(Functions()); err != nil {
		return err
	}
	if loop == nil {
		return nil
	}
	return rt.LoadLibrary(loop.Functions())
}

var core = []runtime.Library{
	{Name: "Print", Min: 1, Max: 1, Fn: func(rt *runtime.Runtime, args []object.Object) (object.Object, error) {
		if object.Cyclic(args[0]) {
			return nil, fmt.Errorf("Cannot print %s: %v", args[0].Type(), object.ErrCyclic)
		}
		fmt.Fprintln(rt.Out, args[0].Inspect())
		return args[0], nil
	}},
	{Name: "PrintList", Min: 1, Max: 1, Fn: func(rt *runtime.Runtime, args []object.Object) (object.Object, error) {
		l, err := listArg("PrintList(<list>)", args[0])
		if err != nil {
			return nil, err
		}
		if object.Cyclic(l) {
			return nil, fmt.Errorf("Cannot print %s: %v", l.Type(), object.ErrCyclic)
		}
		parts := make([]string, len(l.Elements))
		for i, el := range l.Elements {
			parts[i] = el.Inspect()
		}
		fmt.Fprintln(rt.Out, strings.Join(parts, " "))
		return nil, nil
	}},

	{Name: "ToString", Min: 1, Max: 1, Fn: func(_ *runtime.Runtime, args []object.Object) (object.Object, error) {
		return object.NewString(args[0].Inspect()), nil
	}},
	{Name: "ToNumber", Min: 1, Max: 1, Fn: func(_ *runtime.Runtime, args []object.Object) (object.Object, error) {
		return numberArg("ToNumber(<string>)", args[0])
	}},
	{Name: "ToInteger", Min: 1, Max: 1, Fn: func(_ *runtime.Runtime, args []object.Object) (object.Object, error) {
		n, err := numberArg("ToInteger(<number>)", args[0])
		if err != nil {
			return nil, err
		}
		if f, ok := n.(*object.Float); ok {
			return object.NewInteger(int64(f.Value)), nil
		}
		return n, nil
	}},
	{Name: "Round", Min: 1, Max: 2, Fn: round},
	{Name: "Abs", Min: 1, Max: 1, Fn: func(_ *runtime.Runtime, args []object.Object) (object.Object, error) {
		n, err := numberArg("Abs(<number>)", args[0])
		if err != nil {
			return nil, err
		}
		switch v := n.(type) {
		case *object.Integer:
			if v.Value < 0 {
				return object.NewInteger(-v.Value), nil
			}
		case *object.Float:
			return object.NewFloat(math.Abs(v.Value)), nil
		}
		return n, nil
	}},
	{Name: "Mod", Min: 2, Max: 2, Fn: func(_ *runtime.Runtime, args []object.Object) (object.Object, error) {
		a, err := integerArg("Mod(<integer>, <integer>)", args[0])
		if err != nil {
			return nil, err
		}
		b, err := integerArg("Mod(<integer>, <integer>)", args[1])
		if err != nil {
			return nil, err
		}
		if b == 0 {
			return nil, errors.New("Division by zero in function [Mod]")
		}
		m := a % b
		if m != 0 && (m < 0) != (b < 0) {
			m += b
		}
		return object.NewInteger(m), nil
	}},

	{Name: "IsList", Min: 1, Max: 1, Fn: isType(object.LIST_OBJ)},
	{Name: "IsString", Min: 1, Max: 1, Fn: isType(object.STRING_OBJ)},
	{Name: "IsCustomObject", Min: 1, Max: 1, Fn: isType(object.CUSTOM_OBJECT_OBJ)},
	{Name: "IsNumber", Min: 1, Max: 1, Fn: func(_ *runtime.Runtime, args []object.Object) (object.Object, error) {
		t := args[0].Type()
		return object.NewBool(t == object.INTEGER_OBJ || t == object.FLOAT_OBJ), nil
	}},

	{Name: "MakeCustomObject", Min: 1, Max: 1, Fn: func(_ *runtime.Runtime, args []object.Object) (object.Object, error) {
		return object.NewCustomObject(args[0].Inspect()), nil
	}},
	{Name: "PropertyExists", Min: 2, Max: 2, Fn: func(_ *runtime.Runtime, args []object.Object) (object.Object, error) {
		c, err := complexArg("PropertyExists(<object>, <name>)", args[0])
		if err != nil {
			return nil, err
		}
		_, ok := c.GetProperty(args[1].Inspect())
		return object.NewBool(ok), nil
	}},
	{Name: "SetProperty", Min: 3, Max: 3, Fn: func(_ *runtime.Runtime, args []object.Object) (object.Object, error) {
		c, err := complexArg("SetProperty(<object>, <name>, <value>)", args[0])
		if err != nil {
			return nil, err
		}
		if err := c.SetProperty(args[1].Inspect(), args[2]); err != nil {
			return nil, err
		}
		return c, nil
	}},
	{Name: "GetProperty", Min: 2, Max: 2, Fn: func(_ *runtime.Runtime, args []object.Object) (object.Object, error) {
		c, err := complexArg("GetProperty(<object>, <name>)", args[0])
		if err != nil {
			return nil, err
		}
		v, ok := c.GetProperty(args[1].Inspect())
		if !ok {
			return nil, fmt.Errorf("Property [%s] does not exist in object", strings.ToUpper(args[1].Inspect()))
		}
		return v, nil
	}},
	{Name: "MakeColorRGB", Min: 3, Max: 3, Fn: func(_ *runtime.Runtime, args []object.Object) (object.Object, error) {
		c := &object.Color{A: 255}
		for i, name := range []string{"RED", "GREEN", "BLUE"} {
			n, err := integerArg("MakeColorRGB(<red>, <green>, <blue>)", args[i])
			if err != nil {
				return nil, err
			}
			if err := c.SetProperty(name, object.NewInteger(n)); err != nil {
				return nil, err
			}
		}
		return c, nil
	}},

	{Name: "GetTime", Min: 0, Max: 0, Fn: func(rt *runtime.Runtime, _ []object.Object) (object.Object, error) {
		return object.NewInteger(rt.Clock()), nil
	}},
	{Name: "CallFunction", Min: 2, Max: 2, Fn: func(rt *runtime.Runtime, args []object.Object) (object.Object, error) {
		l, err := listArg("CallFunction(<name>, <list>)", args[1])
		if err != nil {
			return nil, err
		}
		return rt.Call(args[0].Inspect(), l)
	}},
	{Name: "SignalFatalError", Min: 1, Max: 1, Fn: func(_ *runtime.Runtime, args []object.Object) (object.Object, error) {
		return nil, errors.New(args[0].Inspect())
	}},
}

func round(_ *runtime.Runtime, args []object.Object) (object.Object, error) {
	n, err := numberArg("Round(<number>, <precision>)", args[0])
	if err != nil {
		return nil, err
	}
	var places int64
	if len(args) > 1 {
		if places, err = integerArg("Round(<number>, <precision>)", args[1]); err != nil {
			return nil, err
		}
	}
	f, ok := n.(*object.Float)
	if !ok {
		return n, nil
	}
	if places == 0 {
		return object.NewInteger(int64(math.Round(f.Value))), nil
	}
	scale := math.Pow(10, float64(places))
	return object.NewFloat(math.Round(f.Value*scale) / scale), nil
}

func isType(t object.Type) runtime.LibraryFunc {
	return func(_ *runtime.Runtime, args []object.Object) (object.Object, error) {
		return object.NewBool(args[0].Type() == t), nil
	}
}

func argError(sig string, got object.Object, want string) error {
	return fmt.Errorf("Argument error in function [%s]: %s is not %s", sig, got.Inspect(), want)
}

func listArg(sig string, o object.Object) (*object.List, error) {
	l, ok := o.(*object.List)
	if !ok {
		return nil, argError(sig, o, "a list")
	}
	return l, nil
}

func stringArg(sig string, o object.Object) (string, error) {
	s, ok := o.(*object.String)
	if !ok {
		return "", argError(sig, o, "a string")
	}
	return s.Value, nil
}

func numberArg(sig string, o object.Object) (object.Object, error) {
	n, ok := semantics.ToNumber(o)
	if !ok {
		return nil, argError(sig, o, "a number")
	}
	return n, nil
}

func integerArg(sig string, o object.Object) (int64, error) {
	n, err := numberArg(sig, o)
	if err != nil {
		return 0, err
	}
	switch v := n.(type) {
	case *object.Integer:
		return v.Value, nil
	case *object.Float:
		if v.Value == math.Trunc(v.Value) {
			return int64(v.Value), nil
		}
	}
	return 0, argError(sig, o, "an integer")
}

func complexArg(sig string, o object.Object) (object.Complex, error) {
	c, ok := o.(object.Complex)
	if !ok {
		return nil, argError(sig, o, "an object")
	}
	return c, nil
}
