package stdlib

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"pebl/internal/object"
	"pebl/internal/runtime"
	"pebl/internal/semantics"
)

var lists = []runtime.Library{
	{Name: "Length", Min: 1, Max: 1, Fn: func(_ *runtime.Runtime, args []object.Object) (object.Object, error) {
		switch v := args[0].(type) {
		case *object.List:
			return object.NewInteger(int64(len(v.Elements))), nil
		case *object.String:
			return object.NewInteger(int64(utf8.RuneCountInString(v.Value))), nil
		}
		return nil, argError("Length(<list>)", args[0], "a list")
	}},
	{Name: "List", Min: 0, Max: -1, Fn: func(_ *runtime.Runtime, args []object.Object) (object.Object, error) {
		els := make([]object.Object, len(args))
		copy(els, args)
		return object.NewList(els...), nil
	}},
	{Name: "Append", Min: 2, Max: 2, Fn: func(_ *runtime.Runtime, args []object.Object) (object.Object, error) {
		l, err := listArg("Append(<list>, <item>)", args[0])
		if err != nil {
			return nil, err
		}
		els := make([]object.Object, 0, len(l.Elements)+1)
		els = append(els, l.Elements...)
		els = append(els, args[1])
		return object.NewList(els...), nil
	}},
	{Name: "Nth", Min: 2, Max: 2, Fn: func(_ *runtime.Runtime, args []object.Object) (object.Object, error) {
		l, err := listArg("Nth(<list>, <integer>)", args[0])
		if err != nil {
			return nil, err
		}
		n, err := integerArg("Nth(<list>, <integer>)", args[1])
		if err != nil {
			return nil, err
		}
		v, ok := l.Nth(index(l, n))
		if !ok {
			return nil, fmt.Errorf("Index %d out of range in function [Nth] for list of length %d", n, l.Len())
		}
		return v, nil
	}},
	{Name: "SetElement", Min: 3, Max: 3, Fn: func(_ *runtime.Runtime, args []object.Object) (object.Object, error) {
		l, err := listArg("SetElement(<list>, <index>, <value>)", args[0])
		if err != nil {
			return nil, err
		}
		n, err := integerArg("SetElement(<list>, <index>, <value>)", args[1])
		if err != nil {
			return nil, err
		}
		i := index(l, n)
		if i < 1 || i > int64(l.Len()) {
			return nil, fmt.Errorf("Index %d out of range in function [SetElement] for list of length %d", n, l.Len())
		}
		if object.IsSignal(args[2]) {
			return nil, fmt.Errorf("cannot store %s in a list", args[2].Inspect())
		}
		l.Elements[i-1] = args[2]
		return l, nil
	}},
	{Name: "First", Min: 1, Max: 1, Fn: end("First", 1)},
	{Name: "Last", Min: 1, Max: 1, Fn: end("Last", -1)},
	{Name: "Sequence", Min: 3, Max: 3, Fn: sequence},
	{Name: "Sum", Min: 1, Max: 1, Fn: func(_ *runtime.Runtime, args []object.Object) (object.Object, error) {
		l, err := listArg("Sum(<list>)", args[0])
		if err != nil {
			return nil, err
		}
		var total object.Object = object.NewInteger(0)
		for _, el := range l.Elements {
			n, err := numberArg("Sum(<list>)", el)
			if err != nil {
				return nil, err
			}
			if total, err = semantics.BinaryOp("+", total, n); err != nil {
				return nil, err
			}
		}
		return total, nil
	}},
}

// index maps a 1-based index, where negative values count from the end,
// to its 1-based position.
func index(l *object.List, n int64) int64 {
	if n < 0 {
		return int64(l.Len()) + n + 1
	}
	return n
}

func end(name string, n int64) runtime.LibraryFunc {
	sig := name + "(<list>)"
	return func(_ *runtime.Runtime, args []object.Object) (object.Object, error) {
		l, err := listArg(sig, args[0])
		if err != nil {
			return nil, err
		}
		v, ok := l.Nth(index(l, n))
		if !ok {
			return nil, fmt.Errorf("Trying to get %s item of empty list", name)
		}
		return v, nil
	}
}

// sequence is [a, a+step, ...] up to and including b. Integer arguments
// give integers.
func sequence(_ *runtime.Runtime, args []object.Object) (object.Object, error) {
	const sig = "Sequence(<start>, <end>, <step>)"
	var nums [3]object.Object
	allInt := true
	for i := range nums {
		n, err := numberArg(sig, args[i])
		if err != nil {
			return nil, err
		}
		nums[i] = n
		if _, ok := n.(*object.Integer); !ok {
			allInt = false
		}
	}
	if allInt {
		a, b, step := nums[0].(*object.Integer).Value, nums[1].(*object.Integer).Value, nums[2].(*object.Integer).Value
		if step == 0 || (step > 0 && a > b) || (step < 0 && a < b) {
			return nil, errors.New("Sequence step must move from start toward end")
		}
		var els []object.Object
		for i := a; ; i += step {
			els = append(els, object.NewInteger(i))
			if intSpan(i, b) < intSpan(0, step) {
				break
			}
		}
		return object.NewList(els...), nil
	}

	a, b, step := floatOf(nums[0]), floatOf(nums[1]), floatOf(nums[2])
	if step == 0 || (b-a)/step < 0 {
		return nil, errors.New("Sequence step must move from start toward end")
	}
	var els []object.Object
	for i := 0; ; i++ {
		v := a + float64(i)*step
		if (step > 0 && v > b) || (step < 0 && v < b) {
			break
		}
		els = append(els, object.NewFloat(v))
	}
	return object.NewList(els...), nil
}

func floatOf(o object.Object) float64 {
	switch v := o.(type) {
	case *object.Integer:
		return float64(v.Value)
	case *object.Float:
		return v.Value
	}
	return 0
}

// intSpan is |b - a| without int64 overflow.
func intSpan(a, b int64) uint64 {
	if a > b {
		return uint64(a) - uint64(b)
	}
	return uint64(b) - uint64(a)
}
