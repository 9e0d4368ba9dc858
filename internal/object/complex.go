package object

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrCyclic is returned when a walk over a list or custom object reaches a
// value that contains itself.
var ErrCyclic = errors.New("list or object contains itself")

// Complex is the closed set of shared, mutable objects: lists, custom
// objects and colors. Copies of an Object share the same referent.
type Complex interface {
	Object
	GetProperty(name string) (Object, bool)
	SetProperty(name string, val Object) error
	PropertyNames() []string
}

type List struct {
	Elements []Object
}

func NewList(elements ...Object) *List {
	return &List{Elements: elements}
}

func (*List) Type() Type { return LIST_OBJ }
// Inspect prints a list nested inside itself as [...].
func (l *List) Inspect() string {
	var out bytes.Buffer
	inspect(&out, l, map[Complex]bool{})
	return out.String()
}

func (l *List) Len() int { return len(l.Elements) }

// Nth is 1-based.
func (l *List) Nth(n int64) (Object, bool) {
	if n < 1 || n > int64(len(l.Elements)) {
		return nil, false
	}
	return l.Elements[n-1], true
}

func (l *List) GetProperty(name string) (Object, bool) {
	if strings.EqualFold(name, "length") {
		return &Integer{Value: int64(len(l.Elements))}, true
	}
	return nil, false
}

func (l *List) SetProperty(name string, _ Object) error {
	return fmt.Errorf("cannot set property %q of a list", name)
}

func (*List) PropertyNames() []string { return []string{"LENGTH"} }

// CustomObject is a named property bag. Property names are stored
// upper-cased so that obj.width and obj.WIDTH address the same slot.
type CustomObject struct {
	Name  string
	props map[string]Object
}

func NewCustomObject(name string) *CustomObject {
	return &CustomObject{Name: name, props: map[string]Object{}}
}

func (*CustomObject) Type() Type { return CUSTOM_OBJECT_OBJ }
func (o *CustomObject) Inspect() string {
	var out bytes.Buffer
	inspect(&out, o, map[Complex]bool{})
	return out.String()
}

// inspect writes obj, tracking the lists and objects open on the current
// path so a self-reference is printed once.
func inspect(out *bytes.Buffer, obj Object, open map[Complex]bool) {
	switch v := obj.(type) {
	case *List:
		if open[v] {
			out.WriteString("[...]")
			return
		}
		open[v] = true
		out.WriteString("[")
		for i, el := range v.Elements {
			if i > 0 {
				out.WriteString(", ")
			}
			inspect(out, el, open)
		}
		out.WriteString("]")
		delete(open, v)
	case *CustomObject:
		if open[v] {
			out.WriteString("<" + v.Name + " ...>")
			return
		}
		open[v] = true
		out.WriteString("<")
		out.WriteString(v.Name)
		for _, k := range v.PropertyNames() {
			out.WriteString(" ")
			out.WriteString(strings.ToLower(k))
			out.WriteString(":")
			inspect(out, v.props[k], open)
		}
		out.WriteString(">")
		delete(open, v)
	default:
		out.WriteString(obj.Inspect())
	}
}

// Cyclic reports whether obj reaches itself through list elements or
// object properties.
func Cyclic(obj Object) bool {
	return cyclic(obj, map[Complex]bool{})
}

func cyclic(obj Object, open map[Complex]bool) bool {
	var children []Object
	switch v := obj.(type) {
	case *List:
		children = v.Elements
	case *CustomObject:
		for _, k := range v.PropertyNames() {
			children = append(children, v.props[k])
		}
	default:
		return false
	}
	c := obj.(Complex)
	if open[c] {
		return true
	}
	open[c] = true
	defer delete(open, c)
	for _, child := range children {
		if cyclic(child, open) {
			return true
		}
	}
	return false
}

func (o *CustomObject) GetProperty(name string) (Object, bool) {
	v, ok := o.props[strings.ToUpper(name)]
	return v, ok
}

func (o *CustomObject) SetProperty(name string, val Object) error {
	if IsSignal(val) {
		return fmt.Errorf("cannot store %s in property %q", val.Inspect(), name)
	}
	o.props[strings.ToUpper(name)] = val
	return nil
}

func (o *CustomObject) PropertyNames() []string {
	keys := make([]string, 0, len(o.props))
	for k := range o.props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type Color struct {
	R, G, B, A int64
}

func (*Color) Type() Type { return COLOR_OBJ }
func (c *Color) Inspect() string {
	return fmt.Sprintf("<color %d %d %d %d>", c.R, c.G, c.B, c.A)
}

func (c *Color) GetProperty(name string) (Object, bool) {
	switch strings.ToUpper(name) {
	case "RED":
		return &Integer{Value: c.R}, true
	case "GREEN":
		return &Integer{Value: c.G}, true
	case "BLUE":
		return &Integer{Value: c.B}, true
	case "ALPHA":
		return &Integer{Value: c.A}, true
	}
	return nil, false
}

func (c *Color) SetProperty(name string, val Object) error {
	iv, ok := val.(*Integer)
	if !ok {
		return fmt.Errorf("color channel %s must be INTEGER, got %s", name, val.Type())
	}
	ch := iv.Value
	if ch < 0 {
		ch = 0
	}
	if ch > 255 {
		ch = 255
	}
	switch strings.ToUpper(name) {
	case "RED":
		c.R = ch
	case "GREEN":
		c.G = ch
	case "BLUE":
		c.B = ch
	case "ALPHA":
		c.A = ch
	default:
		return fmt.Errorf("color has no property %q", name)
	}
	return nil
}

func (*Color) PropertyNames() []string { return []string{"ALPHA", "BLUE", "GREEN", "RED"} }

// Equal reports structural equality for scalars and lists. Other complex
// objects are equal only to themselves, except colors which compare
// channel-wise. Lists that contain themselves compare unequal; use
// DeepEqual to detect them.
func Equal(a, b Object) bool {
	eq, err := DeepEqual(a, b)
	return eq && err == nil
}

// DeepEqual is Equal, failing with ErrCyclic when the comparison would
// recurse into a list pair it is already comparing.
func DeepEqual(a, b Object) (bool, error) {
	return deepEqual(a, b, map[[2]*List]bool{})
}

func deepEqual(a, b Object, open map[[2]*List]bool) (bool, error) {
	if av, ok := a.(*List); ok {
		bv, ok := b.(*List)
		if !ok || len(av.Elements) != len(bv.Elements) {
			return false, nil
		}
		pair := [2]*List{av, bv}
		if open[pair] {
			return false, ErrCyclic
		}
		open[pair] = true
		defer delete(open, pair)
		for i := range av.Elements {
			eq, err := deepEqual(av.Elements[i], bv.Elements[i], open)
			if err != nil || !eq {
				return false, err
			}
		}
		return true, nil
	}
	return scalarEqual(a, b), nil
}

func scalarEqual(a, b Object) bool {
	switch av := a.(type) {
	case *Integer:
		switch bv := b.(type) {
		case *Integer:
			return av.Value == bv.Value
		case *Float:
			return float64(av.Value) == bv.Value
		}
		return false
	case *Float:
		switch bv := b.(type) {
		case *Integer:
			return av.Value == float64(bv.Value)
		case *Float:
			return av.Value == bv.Value
		}
		return false
	case *String:
		bv, ok := b.(*String)
		return ok && av.Value == bv.Value
	case *FunctionRef:
		bv, ok := b.(*FunctionRef)
		return ok && av.Name == bv.Name
	case *Color:
		bv, ok := b.(*Color)
		return ok && *av == *bv
	case *CustomObject:
		return a == b
	case *Signal:
		bv, ok := b.(*Signal)
		return ok && av.Kind == bv.Kind
	}
	return false
}
