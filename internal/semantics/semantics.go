package semantics

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"pebl/internal/object"
)

// Error is returned for operator misuse (type mismatch, division by zero).
// Both evaluators report it as a fatal runtime error.
type Error struct {
	Op      string
	Message string
}

func (e *Error) Error() string { return e.Message }

func errorf(op, format string, args ...any) *Error {
	return &Error{Op: op, Message: fmt.Sprintf(format, args...)}
}

// ToBool is the language's truthiness rule: numeric zero, the empty string
// and the empty list are false, everything else is true.
func ToBool(obj object.Object) bool {
	switch v := obj.(type) {
	case *object.Integer:
		return v.Value != 0
	case *object.Float:
		return v.Value != 0
	case *object.String:
		return v.Value != ""
	case *object.List:
		return len(v.Elements) > 0
	case nil:
		return false
	default:
		return true
	}
}

// ToNumber coerces numbers and numeric strings. ok is false for anything
// else.
func ToNumber(obj object.Object) (object.Object, bool) {
	switch v := obj.(type) {
	case *object.Integer, *object.Float:
		return v, true
	case *object.String:
		s := strings.TrimSpace(v.Value)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return object.NewInteger(i), true
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return object.NewFloat(f), true
		}
	}
	return nil, false
}

func BinaryOp(op string, left, right object.Object) (object.Object, error) {
	switch op {
	case "==", "<>", "!=":
		eq, err := object.DeepEqual(left, right)
		if err != nil {
			return nil, errorf(op, "Cannot compare with %s: %v", op, err)
		}
		if op != "==" {
			eq = !eq
		}
		return object.NewBool(eq), nil
	case "<", ">", "<=", ">=":
		ok, err := Compare(op, left, right)
		if err != nil {
			return nil, err
		}
		return object.NewBool(ok), nil
	}

	if op == "+" {
		if ls, ok := left.(*object.String); ok {
			if isNumeric(right) || right.Type() == object.STRING_OBJ {
				return object.NewString(ls.Value + right.Inspect()), nil
			}
		}
		if rs, ok := right.(*object.String); ok && isNumeric(left) {
			return object.NewString(left.Inspect() + rs.Value), nil
		}
	}

	if !isNumeric(left) || !isNumeric(right) {
		return nil, errorf(op, "Incompatible types for operator %s: %s and %s", op, left.Type(), right.Type())
	}

	li, lInt := left.(*object.Integer)
	ri, rInt := right.(*object.Integer)
	if lInt && rInt {
		switch op {
		case "+":
			return object.NewInteger(li.Value + ri.Value), nil
		case "-":
			return object.NewInteger(li.Value - ri.Value), nil
		case "*":
			return object.NewInteger(li.Value * ri.Value), nil
		case "/":
			if ri.Value == 0 {
				return nil, errorf(op, "Division by zero")
			}
			if li.Value%ri.Value == 0 {
				return object.NewInteger(li.Value / ri.Value), nil
			}
			return object.NewFloat(float64(li.Value) / float64(ri.Value)), nil
		case "^":
			if ri.Value >= 0 {
				return object.NewInteger(ipow(li.Value, ri.Value)), nil
			}
			return object.NewFloat(math.Pow(float64(li.Value), float64(ri.Value))), nil
		}
		return nil, errorf(op, "unknown operator: %s", op)
	}

	lf := toFloat(left)
	rf := toFloat(right)
	switch op {
	case "+":
		return object.NewFloat(lf + rf), nil
	case "-":
		return object.NewFloat(lf - rf), nil
	case "*":
		return object.NewFloat(lf * rf), nil
	case "/":
		if rf == 0 {
			return nil, errorf(op, "Division by zero")
		}
		return object.NewFloat(lf / rf), nil
	case "^":
		return object.NewFloat(math.Pow(lf, rf)), nil
	}
	return nil, errorf(op, "unknown operator: %s", op)
}

func Compare(op string, left, right object.Object) (bool, error) {
	if ls, ok := left.(*object.String); ok {
		rs, ok := right.(*object.String)
		if !ok {
			return false, errorf(op, "Cannot compare STRING with %s using %s", right.Type(), op)
		}
		c := strings.Compare(ls.Value, rs.Value)
		return cmpResult(op, c), nil
	}
	if !isNumeric(left) || !isNumeric(right) {
		return false, errorf(op, "Cannot compare %s with %s using %s", left.Type(), right.Type(), op)
	}
	if li, ok := left.(*object.Integer); ok {
		if ri, ok := right.(*object.Integer); ok {
			c := 0
			if li.Value < ri.Value {
				c = -1
			} else if li.Value > ri.Value {
				c = 1
			}
			return cmpResult(op, c), nil
		}
	}
	lf, rf := toFloat(left), toFloat(right)
	c := 0
	if lf < rf {
		c = -1
	} else if lf > rf {
		c = 1
	}
	return cmpResult(op, c), nil
}

func Not(operand object.Object) object.Object {
	return object.NewBool(!ToBool(operand))
}

func cmpResult(op string, c int) bool {
	switch op {
	case "<":
		return c < 0
	case ">":
		return c > 0
	case "<=":
		return c <= 0
	default:
		return c >= 0
	}
}

func ipow(base, exp int64) int64 {
	out := int64(1)
	for exp > 0 {
		if exp&1 == 1 {
			out *= base
		}
		base *= base
		exp >>= 1
	}
	return out
}

func isNumeric(o object.Object) bool {
	switch o.(type) {
	case *object.Integer, *object.Float:
		return true
	}
	return false
}

func toFloat(o object.Object) float64 {
	switch v := o.(type) {
	case *object.Integer:
		return float64(v.Value)
	case *object.Float:
		return v.Value
	}
	return 0
}
