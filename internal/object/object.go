package object

import (
	"strconv"
)

type Type string

const (
	INTEGER_OBJ       Type = "INTEGER"
	FLOAT_OBJ         Type = "FLOAT"
	STRING_OBJ        Type = "STRING"
	LOCAL_VAR_OBJ     Type = "LOCAL_VARIABLE"
	GLOBAL_VAR_OBJ    Type = "GLOBAL_VARIABLE"
	FUNCTION_REF_OBJ  Type = "FUNCTION"
	LIST_OBJ          Type = "LIST"
	CUSTOM_OBJECT_OBJ Type = "CUSTOM_OBJECT"
	COLOR_OBJ         Type = "COLOR"
	SIGNAL_OBJ        Type = "STACK_SIGNAL"
)

// Object is every runtime datum: scalars, variable references, function
// references, complex objects and the evaluator's internal stack signals.
type Object interface {
	Type() Type
	Inspect() string
}

type Integer struct{ Value int64 }

func (*Integer) Type() Type        { return INTEGER_OBJ }
func (i *Integer) Inspect() string { return strconv.FormatInt(i.Value, 10) }

type Float struct{ Value float64 }

func (*Float) Type() Type { return FLOAT_OBJ }
func (f *Float) Inspect() string {
	return strconv.FormatFloat(f.Value, 'g', -1, 64)
}

type String struct{ Value string }

func (*String) Type() Type        { return STRING_OBJ }
func (s *String) Inspect() string { return s.Value }

// LocalVar names a variable in the active call frame. Property is the
// optional ".prop" suffix.
type LocalVar struct {
	Name     string
	Property string
}

func (*LocalVar) Type() Type        { return LOCAL_VAR_OBJ }
func (v *LocalVar) Inspect() string { return joinProperty(v.Name, v.Property) }

type GlobalVar struct {
	Name     string
	Property string
}

func (*GlobalVar) Type() Type        { return GLOBAL_VAR_OBJ }
func (v *GlobalVar) Inspect() string { return joinProperty(v.Name, v.Property) }

type FunctionRef struct{ Name string }

func (*FunctionRef) Type() Type        { return FUNCTION_REF_OBJ }
func (f *FunctionRef) Inspect() string { return f.Name }

type SignalKind int

const (
	BreakSignal SignalKind = iota + 1
	ListHeadSignal
)

// Signal only ever lives on an evaluator's value stack.
type Signal struct{ Kind SignalKind }

func (*Signal) Type() Type { return SIGNAL_OBJ }
func (s *Signal) Inspect() string {
	switch s.Kind {
	case BreakSignal:
		return "<break>"
	case ListHeadSignal:
		return "<list-head>"
	default:
		return "<signal>"
	}
}

var (
	BREAK     = &Signal{Kind: BreakSignal}
	LIST_HEAD = &Signal{Kind: ListHeadSignal}
)

func IsSignal(obj Object) bool {
	_, ok := obj.(*Signal)
	return ok
}

func IsBreak(obj Object) bool {
	s, ok := obj.(*Signal)
	return ok && s.Kind == BreakSignal
}

func IsListHead(obj Object) bool {
	s, ok := obj.(*Signal)
	return ok && s.Kind == ListHeadSignal
}

// Variable is implemented by LocalVar and GlobalVar.
type Variable interface {
	Object
	VarName() string
	VarProperty() string
	IsGlobal() bool
}

func (v *LocalVar) VarName() string      { return v.Name }
func (v *LocalVar) VarProperty() string  { return v.Property }
func (*LocalVar) IsGlobal() bool         { return false }
func (v *GlobalVar) VarName() string     { return v.Name }
func (v *GlobalVar) VarProperty() string { return v.Property }
func (*GlobalVar) IsGlobal() bool        { return true }

func NewInteger(v int64) *Integer   { return &Integer{Value: v} }
func NewFloat(v float64) *Float     { return &Float{Value: v} }
func NewString(v string) *String    { return &String{Value: v} }
func NewBool(b bool) *Integer {
	if b {
		return &Integer{Value: 1}
	}
	return &Integer{Value: 0}
}

// NewVariable builds a variable reference from its source spelling
// ("gName.prop" or "name"). Names beginning with g are globals.
func NewVariable(text string) Variable {
	name, prop := splitProperty(text)
	if IsGlobalName(name) {
		return &GlobalVar{Name: name, Property: prop}
	}
	return &LocalVar{Name: name, Property: prop}
}

func IsGlobalName(name string) bool {
	return len(name) > 0 && name[0] == 'g'
}

func splitProperty(text string) (string, string) {
	for i := 0; i < len(text); i++ {
		if text[i] == '.' {
			return text[:i], text[i+1:]
		}
	}
	return text, ""
}

func joinProperty(name, prop string) string {
	if prop == "" {
		return name
	}
	return name + "." + prop
}
